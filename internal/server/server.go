// Package server sets up the HTTP server, router, and all route definitions.
// It is the composition root: every repository, service, and handler is
// wired together here, so main.go stays minimal.
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

	"github.com/acme/birthdays/internal/auth"
	"github.com/acme/birthdays/internal/handler"
	"github.com/acme/birthdays/internal/middleware"
	sqliteRepo "github.com/acme/birthdays/internal/repository/sqlite"
	"github.com/acme/birthdays/internal/service"
)

// Config holds server configuration.
type Config struct {
	Port        int
	TemplateDir string
	StaticDir   string
	DBPath      string

	// Session signing secret, handed to the token service.
	JWTSecret string

	// GitHub OAuth credentials. When ClientID is empty the GitHub routes
	// are not registered and the login page hides the GitHub button.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server owns the router and the database connection. The connection is
// closed during graceful shutdown so the WAL is flushed and the file lock
// released.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server and wires the full dependency chain: database,
// services, handlers, routes. Each layer only receives what it needs; the
// handlers never touch the database directly.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
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

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and all route handlers.
//
// Route map:
//
//	GET  /                          → redirect to /birthdays/
//	GET  /static/*                  → static files
//	GET  /birthdays/                → paginated list
//	GET  /birthdays/{id}/           → detail page with congratulations
//	GET  /birthdays/new             → create form            (auth)
//	POST /birthdays/                → create                 (auth)
//	GET  /birthdays/{id}/edit       → edit form              (auth, author only)
//	POST /birthdays/{id}/edit       → update                 (auth, author only)
//	GET  /birthdays/{id}/delete     → delete confirmation    (auth, author only)
//	POST /birthdays/{id}/delete     → delete                 (auth, author only)
//	POST /birthdays/{id}/comment    → add congratulation     (auth)
//	GET/POST /register, /login      → account routes
//	POST /logout                    → clear session
//	GET  /auth/github/login         → start OAuth flow       (if configured)
//	GET  /auth/github/callback      → finish OAuth flow      (if configured)
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	renderer, err := handler.NewRenderer(s.config.TemplateDir, s.logger)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}

	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	birthdayService := service.NewBirthdayService(s.db, s.db, s.db, s.logger)
	congratulationService := service.NewCongratulationService(s.db, s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, github, renderer, s.logger)
	birthdayHandler := handler.NewBirthdayHandler(birthdayService, renderer, s.logger)
	congratulationHandler := handler.NewCongratulationHandler(congratulationService, s.logger)

	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)

	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/birthdays/", http.StatusMovedPermanently)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(optionalAuth)

		r.Get("/register", authHandler.HandleRegisterForm)
		r.Post("/register", authHandler.HandleRegister)
		r.Get("/login", authHandler.HandleLoginForm)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)

		if github != nil {
			r.Get("/auth/github/login", authHandler.HandleGitHubLogin)
			r.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
		}
	})

	s.router.Route("/birthdays", func(r chi.Router) {
		// Public pages: anyone can browse the list and detail pages,
		// but a signed-in user is still recognised for the navbar and
		// the comment form.
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/", birthdayHandler.HandleList)
			r.Get("/{id}/", birthdayHandler.HandleDetail)
			r.Get("/{id}", birthdayHandler.HandleDetail)
		})

		// Writes require a session.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/new", birthdayHandler.HandleNewForm)
			r.Post("/new", birthdayHandler.HandleCreate)
			r.Post("/", birthdayHandler.HandleCreate)
			r.Get("/{id}/edit", birthdayHandler.HandleEditForm)
			r.Post("/{id}/edit", birthdayHandler.HandleUpdate)
			r.Get("/{id}/delete", birthdayHandler.HandleDeleteForm)
			r.Post("/{id}/delete", birthdayHandler.HandleDelete)
			r.Post("/{id}/comment", congratulationHandler.HandleAddComment)
		})
	})

	return nil
}

// Handler exposes the router, mainly for tests that drive the server with
// httptest instead of a real listener.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database connection.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
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
