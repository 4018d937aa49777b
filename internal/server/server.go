// Package server is the composition root: it wires the store, services,
// handlers and middleware into one chi router and runs the HTTP server.
//
// ROUTES:
//
//	GET    /healthz
//	GET    /metrics
//	GET    /api/profile                          public
//	GET    /api/profile/user/{userID}            public
//	GET    /api/profile/me
//	POST   /api/profile
//	DELETE /api/profile
//	PUT    /api/profile/experience
//	PUT    /api/profile/experience/{entryID}
//	DELETE /api/profile/experience/{entryID}
//	(same three for /api/profile/education)
//	POST   /api/posts
//	GET    /api/posts
//	GET    /api/posts/me
//	GET    /api/posts/{id}
//	PUT    /api/posts/{id}
//	DELETE /api/posts/{id}
//	PUT    /api/posts/{id}/like
//	POST   /api/posts/{id}/comments
//	PUT    /api/posts/{id}/comments/{commentID}
//	DELETE /api/posts/{id}/comments/{commentID}
//
// Everything under /api except the two public profile reads requires a token.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/sakif/devconnector/internal/auth"
	"github.com/sakif/devconnector/internal/config"
	"github.com/sakif/devconnector/internal/handler"
	"github.com/sakif/devconnector/internal/metrics"
	"github.com/sakif/devconnector/internal/middleware"
	sqliteRepo "github.com/sakif/devconnector/internal/repository/sqlite"
	"github.com/sakif/devconnector/internal/service"
)

type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	limiter *middleware.RateLimiter
}

// New builds the router. The server owns db from here on and closes it when
// Start returns.
func New(cfg *config.Config, db *sqliteRepo.DB, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		db:      db,
		limiter: middleware.NewRateLimiter(middleware.PerMinute(cfg.RateLimitWritesPerMin), logger),
	}
	s.setupRoutes(tokens)
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes(tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewCollector(registry)

	profileService := service.NewProfileService(s.db, s.db, recorder, s.logger)
	postService := service.NewPostService(s.db, s.db, recorder, s.logger)
	profiles := handler.NewProfileHandler(profileService, s.logger)
	posts := handler.NewPostHandler(postService, s.logger)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", metrics.Handler(registry))

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/profile", profiles.HandleList)
		r.Get("/profile/user/{userID}", profiles.HandleGetByUser)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Use(s.limiter.Writes)

			r.Get("/profile/me", profiles.HandleMe)
			r.Post("/profile", profiles.HandleUpsert)
			r.Delete("/profile", profiles.HandleDelete)

			r.Put("/profile/experience", profiles.HandleAddExperience)
			r.Put("/profile/experience/{entryID}", profiles.HandleUpdateExperience)
			r.Delete("/profile/experience/{entryID}", profiles.HandleRemoveExperience)

			r.Put("/profile/education", profiles.HandleAddEducation)
			r.Put("/profile/education/{entryID}", profiles.HandleUpdateEducation)
			r.Delete("/profile/education/{entryID}", profiles.HandleRemoveEducation)

			r.Route("/posts", func(r chi.Router) {
				r.Post("/", posts.HandleCreate)
				r.Get("/", posts.HandleList)
				r.Get("/me", posts.HandleListMine)
				r.Get("/{id}", posts.HandleGet)
				r.Put("/{id}", posts.HandleUpdate)
				r.Delete("/{id}", posts.HandleDelete)
				r.Put("/{id}/like", posts.HandleToggleLike)
				r.Post("/{id}/comments", posts.HandleAddComment)
				r.Put("/{id}/comments/{commentID}", posts.HandleUpdateComment)
				r.Delete("/{id}/comments/{commentID}", posts.HandleRemoveComment)
			})
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := s.db.Ping(ctx); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	w.Write([]byte(`{"status":"ok"}`))
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up
// to the configured shutdown timeout and closes the store.
func (s *Server) Start() error {
	defer s.db.Close()
	defer s.limiter.Stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

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
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
