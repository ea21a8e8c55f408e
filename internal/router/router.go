package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ecostep/walk-and-win/app/logger"
	"github.com/ecostep/walk-and-win/internal/api/auth"
	"github.com/ecostep/walk-and-win/internal/api/user"
)

// Config carries the handlers and route middleware the router mounts.
type Config struct {
	AuthHandler  auth.Handler
	UserHandler  user.Handler
	Authenticate func(next http.Handler) http.Handler
	RequireAdmin func(next http.Handler) http.Handler
	Logger       *slog.Logger
	Timeout      time.Duration
}

// New assembles the full route tree.
func New(cfg Config) *chi.Mux {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.StructuredLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(cfg.Timeout))
	r.Use(middleware.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", cfg.AuthHandler.Register)
			r.Post("/login", cfg.AuthHandler.Login)
			r.Post("/forgot-password", cfg.AuthHandler.ForgotPassword)
			r.Get("/reset-password/{token}", cfg.AuthHandler.ValidateResetToken)
			r.Post("/reset-password/{token}", cfg.AuthHandler.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(cfg.Authenticate)
				r.Get("/me", cfg.AuthHandler.Me)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(cfg.Authenticate)
			r.Use(cfg.RequireAdmin)
			r.Get("/", cfg.UserHandler.ListUsers)
			r.Patch("/{id}/toggle", cfg.UserHandler.ToggleActive)
		})
	})

	return r
}
