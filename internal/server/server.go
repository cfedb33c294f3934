// Package server exposes the HTTP API: authentication, categories,
// transactions, statistics, import, and export.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tallyhq/tally/internal/classify"
	"github.com/tallyhq/tally/internal/service"
	"github.com/tallyhq/tally/internal/stats"
)

// Config holds the HTTP server configuration.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server is the HTTP API server.
type Server struct {
	store      service.Storage
	classifier *classify.Classifier
	aggregator *stats.Aggregator
	config     Config
	httpServer *http.Server
}

// New creates a server wired to the given storage.
func New(store service.Storage, config Config) *Server {
	s := &Server{
		store:      store,
		classifier: classify.New(store),
		aggregator: stats.New(store),
		config:     config,
	}

	s.httpServer = &http.Server{
		Addr:         config.Addr,
		Handler:      s.routes(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
	return s
}

// routes builds the API router.
func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)
	api.HandleFunc("/auth/me", s.requireAuth(s.handleMe)).Methods(http.MethodGet)

	api.HandleFunc("/categories", s.requireAuth(s.handleListCategories)).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.requireAuth(s.handleCreateCategory)).Methods(http.MethodPost)
	api.HandleFunc("/categories/{id}", s.requireAuth(s.handleUpdateCategory)).Methods(http.MethodPut)
	api.HandleFunc("/categories/{id}", s.requireAuth(s.handleDeleteCategory)).Methods(http.MethodDelete)

	api.HandleFunc("/transactions", s.requireAuth(s.handleListTransactions)).Methods(http.MethodGet)
	api.HandleFunc("/transactions", s.requireAuth(s.handleCreateTransaction)).Methods(http.MethodPost)
	api.HandleFunc("/transactions/auto-categorize", s.requireAuth(s.handleAutoCategorize)).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id}", s.requireAuth(s.handleGetTransaction)).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{id}", s.requireAuth(s.handleUpdateTransaction)).Methods(http.MethodPut)
	api.HandleFunc("/transactions/{id}", s.requireAuth(s.handleDeleteTransaction)).Methods(http.MethodDelete)

	api.HandleFunc("/statistics", s.requireAuth(s.handleStatistics)).Methods(http.MethodGet)
	api.HandleFunc("/export", s.requireAuth(s.handleExport)).Methods(http.MethodPost)
	api.HandleFunc("/import", s.requireAuth(s.handleImport)).Methods(http.MethodPost)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	return r
}

// Handler returns the server's HTTP handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run starts the server and blocks until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", s.config.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
