// Package httpapi exposes the authentication flows over HTTP. It is a thin
// translation layer: request parsing, bearer extraction, and mapping of the
// orchestrator's typed errors onto transport responses.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authgate/internal/logging"
	"github.com/dmitrijs2005/authgate/internal/server/models"
	"github.com/dmitrijs2005/authgate/internal/server/services"
	"github.com/dmitrijs2005/authgate/internal/server/token"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Auth is the slice of the orchestrator the transport needs.
type Auth interface {
	Register(ctx context.Context, login, secret string) (*models.User, error)
	Login(ctx context.Context, login, secret string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, tokenString string) error
	Authenticate(ctx context.Context, accessToken string) (*token.Claims, error)
	Disable(ctx context.Context, subjectID, sessionID string) error
}

type Server struct {
	address string
	auth    Auth
	db      *sql.DB
	logger  logging.Logger
}

func NewServer(address string, auth Auth, db *sql.DB, l logging.Logger) *Server {
	return &Server{
		address: address,
		auth:    auth,
		db:      db,
		logger:  l.With("module", "http_server"),
	}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/ping", s.handlePing)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.bearerAuth)
			r.Get("/session", s.handleSession)
			r.Post("/account/disable", s.handleDisable)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
