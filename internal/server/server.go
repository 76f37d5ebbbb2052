// Package server exposes the ledger, reports, monthly review and chat
// assistant over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kassabok/kassabok/internal/assistant"
	"github.com/kassabok/kassabok/internal/review"
	"github.com/kassabok/kassabok/internal/verification"
)

// Deps are the services behind the API.
type Deps struct {
	Ledger    verification.Ledger
	Accounts  verification.AccountChecker
	Review    review.Sources
	Assistant *assistant.Orchestrator

	FiscalMonth time.Month
	FiscalDay   int
}

// Server routes API requests to Deps.
type Server struct {
	deps     Deps
	router   *mux.Router
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *Metrics
	now      func() time.Time

	chunkDelay time.Duration
	chunkSize  int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock overrides the clock used for default dates.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithChunkDelay paces streamed chat text.
func WithChunkDelay(delay time.Duration, size int) Option {
	return func(s *Server) { s.chunkDelay, s.chunkSize = delay, size }
}

// New builds the router. Every Server has its own metrics registry.
func New(deps Deps, opts ...Option) *Server {
	if deps.FiscalMonth == 0 {
		deps.FiscalMonth, deps.FiscalDay = time.January, 1
	}
	s := &Server{
		deps:     deps,
		router:   mux.NewRouter(),
		logger:   zap.NewNop(),
		registry: prometheus.NewRegistry(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics = NewMetrics(s.registry)
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.observe)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/verifications/validate", s.handleValidate).Methods(http.MethodPost)
	api.HandleFunc("/verifications", s.handleBook).Methods(http.MethodPost)
	api.HandleFunc("/verifications", s.handleList).Methods(http.MethodGet)
	api.HandleFunc("/verifications/{id}", s.handleGet).Methods(http.MethodGet)
	api.HandleFunc("/verifications/{id}/reverse", s.handleReverse).Methods(http.MethodPost)
	api.HandleFunc("/reports/income-statement", s.handleIncomeStatement).Methods(http.MethodGet)
	api.HandleFunc("/reports/balance-sheet", s.handleBalanceSheet).Methods(http.MethodGet)
	api.HandleFunc("/review/{year:[0-9]{4}}/{month:[0-9]{1,2}}", s.handleReview).Methods(http.MethodGet)
	api.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)
	api.HandleFunc("/chat/actions/{id}/confirm", s.handleConfirm).Methods(http.MethodPost)
	api.HandleFunc("/chat/actions/{id}", s.handleCancel).Methods(http.MethodDelete)

	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done, then shuts down,
// giving in-flight requests five seconds to finish.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", zap.String("addr", addr))

	select {
	case err := <-errc:
		return fmt.Errorf("serving %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
