package callback

import (
	"net/url"
	"strings"
)

// Redirect destinations, relative to the request origin.
const (
	DefaultDestination    = "/dashboard"
	OnboardingDestination = "/tutor-onboarding"
	SignInPath            = "/sign-in"
)

// RedirectInput holds everything the redirect decision depends on.
type RedirectInput struct {
	Role            Role
	NewTutor        bool // tutor account was created in this request
	ProfileComplete bool // tutor onboarding questionnaire finished
	Next            string
	Origin          string
}

// ResolveRedirect computes the final destination URL. Students, parents and
// tutors with a complete profile go to the next hint (or the dashboard); new
// or incomplete tutors always go to onboarding, ignoring the next hint.
// Pure function.
func ResolveRedirect(in RedirectInput) string {
	if !in.Role.IsStudentFlow() && (in.NewTutor || !in.ProfileComplete) {
		return in.Origin + OnboardingDestination
	}
	return DefaultURL(in.Origin, in.Next)
}

// DefaultURL is the success destination when no role-specific routing
// applies: the next hint if it is safe, otherwise the dashboard.
func DefaultURL(origin, next string) string {
	return origin + safeNext(next)
}

// SignInErrorURL builds the error redirect for the sign-in page. The email
// hint, when present, lets the form prefill the address.
func SignInErrorURL(origin, message, email string) string {
	v := url.Values{}
	v.Set("error", message)
	if email != "" {
		v.Set("email", email)
	}
	return origin + SignInPath + "?" + v.Encode()
}

// safeNext returns the next hint if it is a rooted path on our own origin,
// otherwise the default destination. Absolute URLs, protocol-relative paths
// and backslash tricks are rejected to prevent open redirects.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") {
		return DefaultDestination
	}
	if strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return DefaultDestination
	}
	if u, err := url.Parse(next); err != nil || u.Scheme != "" || u.Host != "" {
		return DefaultDestination
	}
	return next
}
