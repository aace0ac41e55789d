// Package server exposes connection management and schema comparison over a
// JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/doubleninth99/mysql-sync/internal/core"
	"github.com/doubleninth99/mysql-sync/internal/dialect"
	_ "github.com/doubleninth99/mysql-sync/internal/dialect/mysql" // registers the MySQL generator
	"github.com/doubleninth99/mysql-sync/internal/profile"
)

const shutdownTimeout = 10 * time.Second

// ProfileStore persists connection profiles.
type ProfileStore interface {
	List() ([]profile.Profile, error)
	Get(idOrName string) (profile.Profile, error)
	Save(p profile.Profile) (profile.Profile, error)
	Delete(id string) error
}

// Backend reaches live databases on behalf of the API.
type Backend interface {
	TestConnection(ctx context.Context, p profile.Profile) error
	ListDatabases(ctx context.Context, p profile.Profile) ([]string, error)
	LoadSchema(ctx context.Context, p profile.Profile, database string) (*core.Schema, error)
}

type Options struct {
	Logger *slog.Logger
	// Timeout bounds each request that talks to a database. Zero means no limit.
	Timeout time.Duration
}

type Server struct {
	router    *mux.Router
	profiles  ProfileStore
	backend   Backend
	generator dialect.Generator
	logger    *slog.Logger
	timeout   time.Duration
}

func New(profiles ProfileStore, backend Backend, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		router:    mux.NewRouter(),
		profiles:  profiles,
		backend:   backend,
		generator: dialect.GetDialect(dialect.MySQL).Generator(),
		logger:    logger,
		timeout:   opts.Timeout,
	}
	s.setupRoutes()
	s.setupMiddleware()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/connections", s.listConnections).Methods(http.MethodGet)
	api.HandleFunc("/connections", s.saveConnection).Methods(http.MethodPost)
	api.HandleFunc("/connections/{id}", s.deleteConnection).Methods(http.MethodDelete)
	api.HandleFunc("/test-connection", s.testConnection).Methods(http.MethodPost)
	api.HandleFunc("/databases", s.listDatabases).Methods(http.MethodPost)
	api.HandleFunc("/compare", s.compare).Methods(http.MethodPost)
	// CORS preflight; the middleware answers it.
	api.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(http.ResponseWriter, *http.Request) {})
}

func (s *Server) setupMiddleware() {
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	s.router.Use(s.logRequests)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("server listening", "addr", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
