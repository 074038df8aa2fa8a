// Package http serves the admin API: health, metrics and user premium management.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"horan-assistant-bot/internal/config"
	"horan-assistant-bot/internal/usecase"
)

type Server struct {
	ledger usecase.LedgerUseCase
	auth   *AuthManager
	port   int
	log    *zerolog.Logger
	server *http.Server
}

func NewServer(cfg config.AdminConfig, ledger usecase.LedgerUseCase, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "admin-http").Logger()
	s := &Server{
		ledger: ledger,
		auth:   NewAuthManager(cfg.JWTSecret),
		port:   cfg.Port,
		log:    &l,
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router builds the chi mux. /healthz and /metrics are public, /api/v1 needs a bearer token.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), Recover(s.log), RequestLog(s.log), Timeout(10*time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.auth.Require)
		r.Get("/users/count", s.handleCountUsers)
		r.Get("/users/{tgID}", s.handleGetUser)
		r.Put("/users/{tgID}/premium", s.handleSetPremium)
	})
	return r
}

// Start blocks serving until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("admin http listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
