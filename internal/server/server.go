// Package server assembles the router and owns the HTTP server lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/smartsynth/internal/auth"
	"github.com/sakif/smartsynth/internal/handler"
	"github.com/sakif/smartsynth/internal/middleware"
)

// Deps are the wired components the router needs. Everything is constructed
// in main and passed in; nothing here reaches for globals.
type Deps struct {
	Auth       *handler.AuthHandler
	Generation *handler.GenerationHandler
	Files      *handler.FileHandler
	Tokens     *auth.TokenService
	Logger     *slog.Logger
}

// NewRouter builds the full route tree.
//
// PUBLIC: health, metrics, the domain catalog, global stats, and the
// authentication entry points. Everything that touches a user's artifacts
// sits behind RequireAuth.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Metrics())
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", d.Auth.Signup)
			r.Post("/login", d.Auth.Login)
			r.Post("/logout", d.Auth.Logout)
			r.Get("/github/login", d.Auth.GitHubLogin)
			r.Get("/github/callback", d.Auth.GitHubCallback)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth(d.Tokens))
				r.Get("/me", d.Auth.Me)
			})
		})

		r.Route("/generate", func(r chi.Router) {
			r.Get("/domains", d.Generation.Domains)
			r.Get("/domains/{key}", d.Generation.DescribeDomain)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth(d.Tokens))
				r.Post("/tabular", d.Generation.Tabular)
				r.Post("/chat", d.Generation.Chat)
				r.Post("/email", d.Generation.Email)
			})
		})

		r.Route("/files", func(r chi.Router) {
			r.Use(auth.RequireAuth(d.Tokens))
			r.Get("/", d.Files.List)
			r.Get("/{id}/download", d.Files.Download)
			r.Delete("/{id}", d.Files.Delete)
		})

		r.Get("/stats/global", d.Files.GlobalStats)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(d.Tokens))
			r.Get("/stats", d.Files.Stats)
		})
	})

	return r
}

// Server wraps http.Server with a context-driven lifecycle.
type Server struct {
	http   *http.Server
	logger *slog.Logger
}

func New(port int, h http.Handler, logger *slog.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully with a
// bounded drain window.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", slog.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
