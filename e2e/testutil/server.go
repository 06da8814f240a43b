package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tutorlane/auth-callback/internal/accounts"
	"github.com/tutorlane/auth-callback/internal/config"
	"github.com/tutorlane/auth-callback/internal/handler"
	"github.com/tutorlane/auth-callback/internal/identity"
	appMiddleware "github.com/tutorlane/auth-callback/internal/middleware"
	"github.com/tutorlane/auth-callback/internal/provision"
	"github.com/tutorlane/auth-callback/internal/store"
)

// TestServer is a full login-callback service wired to mock collaborators.
type TestServer struct {
	Server       *http.Server
	URL          string
	Config       *config.Config
	MockProvider *MockProviderServer
	MockAccounts *MockAccountsServer

	listener     net.Listener
	sessionStore *store.MemorySessionStore
}

// NewTestServer creates and starts a new test server with a mock identity
// provider and a mock accounts service.
func NewTestServer() (*TestServer, error) {
	mockProvider := NewMockProviderServer()
	mockAccounts := NewMockAccountsServer()

	cfg := &config.Config{
		IdentityBaseURL: mockProvider.URL(),
		IdentityAPIKey:  "test-anon-key",
		IdentityTimeout: 10 * time.Second,
		AccountsBaseURL: mockAccounts.URL(),
		AccountsTimeout: 5 * time.Second,
		SessionSecret:   "test-session-secret",
	}

	// Find available port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		mockProvider.Close()
		mockAccounts.Close()
		return nil, fmt.Errorf("creating listener: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	identityClient, err := identity.NewClient(identity.Config{
		BaseURL: cfg.IdentityBaseURL,
		APIKey:  cfg.IdentityAPIKey,
		Timeout: cfg.IdentityTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("creating identity client: %w", err)
	}

	accountsClient, err := accounts.NewClient(accounts.Config{
		BaseURL: cfg.AccountsBaseURL,
		Timeout: cfg.AccountsTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("creating accounts client: %w", err)
	}

	sessionStore := store.NewMemorySessionStore()
	provisioner := provision.NewProvisioner(accountsClient, logger)
	handlers := handler.NewHandlers(cfg, identityClient, provisioner, sessionStore, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	cookieStore, err := appMiddleware.NewSessionStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating session store: %w", err)
	}
	r.Use(appMiddleware.Session(cookieStore))

	r.Get("/auth/callback", handlers.AuthCallback)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{Handler: r}
	go srv.Serve(listener)

	return &TestServer{
		Server:       srv,
		URL:          "http://" + listener.Addr().String(),
		Config:       cfg,
		MockProvider: mockProvider,
		MockAccounts: mockAccounts,
		listener:     listener,
		sessionStore: sessionStore,
	}, nil
}

// Close shuts down the test server and its mocks.
func (ts *TestServer) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ts.Server.Shutdown(ctx)
	ts.sessionStore.Close()
	ts.MockProvider.Close()
	ts.MockAccounts.Close()
}
