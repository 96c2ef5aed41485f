// Package server wires the HTTP server: router, middleware, routes, and
// the dependency graph behind them.
//
// This is the composition root - every handler, service, and repository is
// constructed here (or handed in from main), so the rest of the codebase
// only ever sees its direct dependencies.
package server

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
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mannsakha/mannsakha/internal/auth"
	"github.com/mannsakha/mannsakha/internal/config"
	"github.com/mannsakha/mannsakha/internal/handler"
	"github.com/mannsakha/mannsakha/internal/llm"
	"github.com/mannsakha/mannsakha/internal/middleware"
	sqliteRepo "github.com/mannsakha/mannsakha/internal/repository/sqlite"
	"github.com/mannsakha/mannsakha/internal/service"
)

// Server owns the router and the resources that must be released on
// shutdown (the database connection).
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency graph.
//
// provider may be nil (no upstream API key configured): the server runs
// and /api/gemini reports the misconfiguration per request. The Google
// OAuth routes are only registered when an OAuth client is configured.
func New(cfg config.Config, logger *slog.Logger, provider llm.Provider) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(provider); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes(provider llm.Provider) error {
	// Global middleware, in order: request id → real ip → panic recovery →
	// request logging.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.SessionSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	var google *auth.GoogleProvider
	if s.config.GoogleClientID != "" && s.config.GoogleClientSecret != "" {
		google = auth.NewGoogleProvider(
			s.config.GoogleClientID,
			s.config.GoogleClientSecret,
			s.config.GoogleCallbackURL,
		)
	} else {
		s.logger.Warn("Google OAuth not configured - /auth/google routes disabled")
	}

	authService := service.NewAuthService(s.db.Users(), s.db.Sessions(), passwords, tokens, s.config.SessionTTL, s.logger)
	chatService := service.NewChatService(provider, s.config.GeminiModel, s.config.UpstreamTimeout, s.logger)

	authHandler := handler.NewAuthHandler(authService, google, s.config.SessionTTL, s.logger)
	chatHandler := handler.NewChatHandler(chatService, s.logger)

	requireAuth := auth.RequireAuth(tokens, s.db.Sessions())
	optionalAuth := auth.OptionalAuth(tokens, s.db.Sessions())

	// Liveness route.
	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello World!"))
	})

	if google != nil {
		s.router.Get("/auth/google", authHandler.HandleGoogleLogin)
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/signup", authHandler.HandleSignup)
		r.Post("/login", authHandler.HandleLogin)

		if google != nil {
			r.Get("/auth/google/callback", authHandler.HandleGoogleCallback)
		}

		r.With(optionalAuth).Post("/logout", authHandler.HandleLogout)
		r.With(requireAuth).Get("/me", authHandler.HandleMe)

		// The chat proxy serves anonymous and authenticated clients alike.
		r.With(optionalAuth).Post("/gemini", chatHandler.HandleChat)
	})

	return nil
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully:
// stop accepting connections, drain in-flight requests (30s bound), close
// the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // generation calls can be slow
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Router exposes the configured router for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
