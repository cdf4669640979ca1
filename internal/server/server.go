// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer. It decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// cmd/server creates:
//
//	config.Load → NewLogger → storage.Open → server.New
//
// New creates: Store → MealService / AuthService → MealHandler / UserHandler
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/daily-diet/internal/auth"
	"github.com/sakif/daily-diet/internal/config"
	"github.com/sakif/daily-diet/internal/handler"
	"github.com/sakif/daily-diet/internal/middleware"
	"github.com/sakif/daily-diet/internal/repository"
	"github.com/sakif/daily-diet/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the store: Start closes it once the HTTP server has
// drained, so in-flight requests never see a closed database.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	store  repository.Store
}

// New wires services, handlers and routes on top of store.
func New(cfg config.Config, logger *slog.Logger, store repository.Store) *Server {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}
	s.setupRoutes()
	return s
}

// Handler returns the root handler. Tests drive it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /healthz                → liveness probe
// GET    /readyz                 → readiness probe (pings the store)
// POST   /users                  → register, sets the session cookie
// GET    /users/me               → current user            [session]
// POST   /users/logout           → end the session         [session]
// POST   /transactions           → create meal             [session]
// GET    /transactions           → list meals              [session]
// GET    /transactions/metrics   → summary                 [session]
// GET    /transactions/{id}      → get meal                [session]
// PUT    /transactions/{id}      → replace meal            [session]
// DELETE /transactions/{id}      → delete meal             [session]
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns an id to each request, read by the Logger
// 2. RealIP: extracts the client IP from proxy headers
// 3. Logger: logs each request with timing info
// 4. Recoverer: turns a panic into a 500 instead of crashing
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	cookie := auth.CookieConfig{
		Name:   s.config.Session.CookieName,
		TTL:    s.config.Session.TTL,
		Secure: s.config.Session.Secure,
	}

	authService := service.NewAuthService(s.store, s.store, s.config.Session.TTL, s.logger)
	mealService := service.NewMealService(s.store, s.logger)

	userHandler := handler.NewUserHandler(authService, cookie, s.logger)
	mealHandler := handler.NewMealHandler(mealService, s.logger)
	healthHandler := handler.NewHealthHandler(s.store, s.logger)

	s.router.Get("/healthz", healthHandler.Live)
	s.router.Get("/readyz", healthHandler.Ready)

	s.router.Post("/users", userHandler.HandleRegister)

	// Everything below requires a session. RequireSession answers 401 before
	// any handler (and so any meal storage) is reached.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(authService, cookie.Name, s.logger))

		r.Get("/users/me", userHandler.HandleMe)
		r.Post("/users/logout", userHandler.HandleLogout)

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", mealHandler.HandleCreate)
			r.Get("/", mealHandler.HandleList)
			r.Get("/metrics", mealHandler.HandleMetrics)
			r.Get("/{id}", mealHandler.HandleGet)
			r.Put("/{id}", mealHandler.HandleUpdate)
			r.Delete("/{id}", mealHandler.HandleDelete)
		})
	})
}

// Start serves HTTP until SIGINT or SIGTERM, then shuts down gracefully:
//  1. Stop accepting new connections
//  2. Wait for in-flight requests, up to the configured shutdown timeout
//  3. Close the store
func (s *Server) Start() error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	addr := net.JoinHostPort(s.config.Server.Host, strconv.Itoa(s.config.Server.Port))
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.String("addr", addr),
			slog.String("database", s.config.Database.Driver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
