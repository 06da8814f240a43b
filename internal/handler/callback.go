package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tutorlane/auth-callback/internal/callback"
	"github.com/tutorlane/auth-callback/internal/crypto"
	"github.com/tutorlane/auth-callback/internal/identity"
	"github.com/tutorlane/auth-callback/internal/middleware"
	"github.com/tutorlane/auth-callback/internal/store"
)

// AuthCallback handles GET /auth/callback.
// It turns the magic-link parameters into an authenticated session, ensures a
// backing account record exists for the user's role, and redirects the
// browser to the next screen. Once the exchange succeeds the user is always
// redirected somewhere; provisioning failures never surface.
func (h *Handlers) AuthCallback(w http.ResponseWriter, r *http.Request) {
	req := parseCallbackRequest(r)
	flow := callback.Classify(req)

	h.logger.Info("callback received",
		"flow", flow.String(),
		"type", req.Type,
		"has_next", req.Next != "",
	)

	if flow == callback.FlowInvalid {
		h.redirectSignInError(w, r, req, ErrMsgNoCode)
		return
	}
	if flow == callback.FlowOTPToken && !identity.SupportedOTPType(req.Type) {
		h.logger.Warn("unsupported verification type", "type", req.Type)
		h.redirectSignInError(w, r, req, ErrMsgUnsupportedType)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.IdentityTimeout)
	defer cancel()

	// Exchange: exactly one protocol-specific call per request. PKCE tokens
	// are accepted by the same exchange operation as authorization codes.
	var session *identity.Session
	var err error
	switch flow {
	case callback.FlowCode:
		session, err = h.identity.ExchangeCode(ctx, req.Code)
	case callback.FlowPKCEToken:
		session, err = h.identity.ExchangeCode(ctx, req.Token)
	case callback.FlowOTPToken:
		session, err = h.identity.VerifyOTP(ctx, req.Token, req.Type)
	}
	if err != nil {
		h.logger.Error("exchange failed", "flow", flow.String(), "error", err)
		h.redirectSignInError(w, r, req, exchangeErrorMessage(err))
		return
	}

	h.establishSession(r, session)

	// Identity read. A missing identity skips provisioning but still lands
	// the user on the default destination.
	id, err := h.identity.GetUser(ctx, session.AccessToken)
	if err != nil {
		h.logger.Warn("identity read failed, skipping provisioning", "error", err)
		id = nil
	}

	dest := h.completeLogin(r.Context(), id, req)

	if err := middleware.SaveSession(r, w); err != nil {
		h.logger.Error("saving session failed", "error", err)
	}
	http.Redirect(w, r, dest, http.StatusFound)
}

// completeLogin is the shared tail of all three exchange branches: resolve
// the role, provision the account, and compute the redirect. It always
// returns a destination.
func (h *Handlers) completeLogin(ctx context.Context, id *identity.Identity, req callback.Request) string {
	if id == nil {
		h.logger.Warn("no identity after exchange, using default redirect")
		return callback.DefaultURL(req.Origin, req.Next)
	}

	role := callback.ResolveRole(id)
	h.logger.Info("role resolved", "user_id", id.ID, "role", role.String())

	if role.IsStudentFlow() {
		h.provisioner.EnsureStudentAccount(ctx, id, role)
		return callback.DefaultURL(req.Origin, req.Next)
	}

	isNew := h.provisioner.EnsureTutorAccount(ctx, id)

	// A tutor created in this request always goes to onboarding: their
	// profile is a placeholder, whatever the completeness check would say.
	complete := false
	if !isNew {
		complete = h.provisioner.TutorProfileComplete(ctx, id.ID)
	}

	return callback.ResolveRedirect(callback.RedirectInput{
		Role:            role,
		NewTutor:        isNew,
		ProfileComplete: complete,
		Next:            req.Next,
		Origin:          req.Origin,
	})
}

// establishSession persists the token set server-side and records the opaque
// session id in the cookie session. The session TTL comes from the access
// token's exp claim, falling back to the provider's expires_in.
func (h *Handlers) establishSession(r *http.Request, sess *identity.Session) {
	sid, err := crypto.GenerateRandomString(sessionIDLength)
	if err != nil {
		h.logger.Error("generating session id failed", "error", err)
		return
	}

	var userID, email string
	if sess.User != nil {
		userID = sess.User.ID
		email = sess.User.Email
	}

	ttl := time.Duration(0)
	if claims, err := identity.ParseAccessToken(sess.AccessToken); err == nil {
		if !claims.ExpiresAt.IsZero() {
			ttl = time.Until(claims.ExpiresAt)
		}
		if userID == "" {
			userID = claims.Subject
		}
		if email == "" {
			email = claims.Email
		}
	} else {
		h.logger.Warn("access token claims not parseable", "error", err)
	}
	if ttl <= 0 && sess.ExpiresIn > 0 {
		ttl = time.Duration(sess.ExpiresIn) * time.Second
	}

	err = h.sessionStore.Store(sid, &store.TokenSet{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		UserID:       userID,
		Email:        email,
	}, ttl)
	if err != nil {
		h.logger.Error("storing session tokens failed", "error", err)
		return
	}

	if s := middleware.GetSession(r); s != nil {
		s.Values[middleware.SessionKeySessionID] = sid
		s.Values[middleware.SessionKeyUserID] = userID
		s.Values[middleware.SessionKeyEmail] = email
	}
}

// redirectSignInError sends the browser to the sign-in page with an error
// message. The session is saved even on error paths so any cookies the
// exchange step requested still reach the browser.
func (h *Handlers) redirectSignInError(w http.ResponseWriter, r *http.Request, req callback.Request, message string) {
	if err := middleware.SaveSession(r, w); err != nil {
		h.logger.Error("saving session failed", "error", err)
	}
	http.Redirect(w, r, callback.SignInErrorURL(req.Origin, message, req.Email), http.StatusFound)
}

// parseCallbackRequest builds the immutable callback request value from the
// inbound URL.
func parseCallbackRequest(r *http.Request) callback.Request {
	q := r.URL.Query()
	return callback.Request{
		Code:   q.Get("code"),
		Token:  q.Get("token"),
		Type:   q.Get("type"),
		Next:   q.Get("next"),
		Email:  q.Get("email"),
		Origin: requestOrigin(r),
	}
}

// requestOrigin returns the scheme+host of the inbound request. Redirects are
// always built from our own origin, never a third-party host.
func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

// exchangeErrorMessage derives the user-visible message for an exchange
// failure. Provider rejections carry their own message; transport errors get
// the generic one.
func exchangeErrorMessage(err error) string {
	var exchErr *identity.ExchangeError
	if errors.As(err, &exchErr) && exchErr.Message != "" {
		return exchErr.Message
	}
	if errors.Is(err, identity.ErrUnsupportedType) {
		return ErrMsgUnsupportedType
	}
	return ErrMsgExchangeFailed
}
