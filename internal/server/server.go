// Package server assembles the router and owns the process lifecycle.
// All dependency wiring happens here: main only loads config, picks a
// blob store, and calls New then Start.
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
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/szhou/travelog/internal/auth"
	"github.com/szhou/travelog/internal/blob"
	"github.com/szhou/travelog/internal/config"
	"github.com/szhou/travelog/internal/handler"
	"github.com/szhou/travelog/internal/middleware"
	sqliteRepo "github.com/szhou/travelog/internal/repository/sqlite"
	"github.com/szhou/travelog/internal/service"
)

type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and wires repositories, services, and handlers
// into the router.
func New(cfg *config.Config, store blob.Store, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(store); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

func (s *Server) setupRoutes(store blob.Store) error {
	tokens, err := auth.NewTokenService(s.cfg.JWTSecret)
	if err != nil {
		return err
	}
	passwords := auth.NewPasswordService()

	userService := service.NewUserService(s.db.Users(), passwords, s.logger)
	locationService := service.NewLocationService(s.db.Locations(), s.logger)
	photoService := service.NewPhotoService(s.db.Photos(), s.db.Locations(), store, s.logger)
	canvasService := service.NewCanvasService(s.db.Canvas(), s.logger)

	authHandler := handler.NewAuthHandler(userService, tokens, s.cfg.IsProduction())
	locationHandler := handler.NewLocationHandler(locationService)
	photoHandler := handler.NewPhotoHandler(photoService)
	canvasHandler := handler.NewCanvasHandler(canvasService)
	mapHandler := handler.NewMapHandler(photoService, locationService)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true, // the session rides in a cookie
		MaxAge:           300,
	}))

	// Uploaded files are served straight off disk in the local-store
	// setup; with MinIO the photo URLs point at the bucket instead.
	if local, ok := store.(*blob.LocalStore); ok {
		fileServer := http.FileServer(http.Dir(local.Root()))
		s.router.Handle("/uploads/*", http.StripPrefix("/uploads/", fileServer))
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			// Credential endpoints are the brute-force surface; the
			// limit is per client IP.
			r.Use(httprate.LimitByIP(20, time.Minute))

			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/forgot-password", authHandler.SecurityQuestion)
			r.Post("/forgot-password", authHandler.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth(tokens))
				r.Get("/me", authHandler.Me)
				r.Post("/change-password", authHandler.ChangePassword)
				r.Post("/force-change-password", authHandler.ForceChangePassword)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Route("/locations", func(r chi.Router) {
				r.Get("/", locationHandler.List)
				r.Post("/", locationHandler.Create)
				r.Get("/available", locationHandler.ListAvailable)
				r.Get("/search", locationHandler.Search)
				r.Post("/parse-url", locationHandler.ParseURL)
				r.Get("/{id}", locationHandler.Get)
				r.Put("/{id}", locationHandler.Update)
				r.Delete("/{id}", locationHandler.Delete)
			})

			r.Route("/photos", func(r chi.Router) {
				r.Get("/", photoHandler.List)
				r.Post("/", photoHandler.Upload)
				r.Get("/stats", photoHandler.Stats)
				r.Get("/{id}", photoHandler.Get)
				r.Put("/{id}", photoHandler.Update)
				r.Post("/{id}/trash", photoHandler.Trash)
				r.Post("/{id}/restore", photoHandler.Restore)
				r.Delete("/{id}", photoHandler.Delete)
			})

			r.Route("/canvas", func(r chi.Router) {
				r.Get("/", canvasHandler.List)
				r.Post("/", canvasHandler.Create)
				r.Get("/{id}", canvasHandler.Get)
				r.Put("/{id}", canvasHandler.Save)
				r.Delete("/{id}", canvasHandler.Delete)
			})
		})

		// The map is viewable logged out; a session only adds the
		// viewer's own entries.
		r.With(auth.OptionalAuth(tokens)).Get("/map", mapHandler.Get)
	})

	return nil
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully
// and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second, // uploads can be slow on bad links
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("env", s.cfg.Env),
			slog.String("database", s.cfg.DBPath),
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

// Handler exposes the router for httptest-based tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
