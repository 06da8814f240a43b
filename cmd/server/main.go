package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
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

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	cfg.LogConfig(logger)

	// Identity provider client
	identityClient, err := identity.NewClient(identity.Config{
		BaseURL: cfg.IdentityBaseURL,
		APIKey:  cfg.IdentityAPIKey,
		Timeout: cfg.IdentityTimeout,
	})
	if err != nil {
		return fmt.Errorf("creating identity client: %w", err)
	}

	// Accounts collaborator client + provisioner
	accountsClient, err := accounts.NewClient(accounts.Config{
		BaseURL: cfg.AccountsBaseURL,
		APIKey:  cfg.AccountsAPIKey,
		Timeout: cfg.AccountsTimeout,
	})
	if err != nil {
		return fmt.Errorf("creating accounts client: %w", err)
	}
	provisioner := provision.NewProvisioner(accountsClient, logger)

	// Initialize session token store (Redis or in-memory)
	var sessionStore store.SessionStore
	if cfg.SessionRedisStoreEnabled && cfg.RedisEnabled {
		logger.Info("using Redis session store")
		redisStore, err := store.NewRedisSessionStore(&store.RedisConfig{
			Host:   cfg.RedisHost,
			Port:   cfg.RedisPort,
			Proto:  cfg.RedisProto,
			Pass:   cfg.RedisPass,
			DB:     cfg.RedisDB,
			Prefix: cfg.SessionRedisStorePrefix,
		})
		if err != nil {
			return fmt.Errorf("creating Redis session store: %w", err)
		}
		defer redisStore.Close()
		sessionStore = redisStore
	} else {
		logger.Info("using in-memory session store")
		memStore := store.NewMemorySessionStore()
		defer memStore.Close()
		sessionStore = memStore
	}

	// Initialize handlers
	handlers := handler.NewHandlers(cfg, identityClient, provisioner, sessionStore, logger)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appMiddleware.Logger(logger))
	r.Use(middleware.Recoverer)

	// Session middleware
	cookieStore, err := appMiddleware.NewSessionStore(cfg)
	if err != nil {
		return fmt.Errorf("creating session store: %w", err)
	}
	r.Use(appMiddleware.Session(cookieStore))

	// Routes
	r.Get("/auth/callback", handlers.AuthCallback)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}

		close(done)
	}()

	logger.Info("starting server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("server stopped")

	return nil
}
