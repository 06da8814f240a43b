package handler

import (
	"context"
	"log/slog"

	"github.com/tutorlane/auth-callback/internal/config"
	"github.com/tutorlane/auth-callback/internal/identity"
	"github.com/tutorlane/auth-callback/internal/provision"
	"github.com/tutorlane/auth-callback/internal/store"
)

// IdentityAPI is the slice of the identity provider client the handlers use.
type IdentityAPI interface {
	ExchangeCode(ctx context.Context, code string) (*identity.Session, error)
	VerifyOTP(ctx context.Context, token, typ string) (*identity.Session, error)
	GetUser(ctx context.Context, accessToken string) (*identity.Identity, error)
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	cfg          *config.Config
	identity     IdentityAPI
	provisioner  *provision.Provisioner
	sessionStore store.SessionStore
	logger       *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(
	cfg *config.Config,
	identityClient IdentityAPI,
	provisioner *provision.Provisioner,
	sessionStore store.SessionStore,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		cfg:          cfg,
		identity:     identityClient,
		provisioner:  provisioner,
		sessionStore: sessionStore,
		logger:       logger,
	}
}
