// Package server hosts umbridge.Model implementations behind the UM-Bridge
// HTTP protocol: a chi router dispatching the thirteen wire endpoints to a
// read-only model registry, each model guarded by its own bounded worker
// pool.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/umbridge-go/umbridge"
	"github.com/umbridge-go/umbridge/internal/evallog"
	"github.com/umbridge-go/umbridge/internal/logging"
)

// Server hosts a fixed set of models over HTTP.
type Server struct {
	registry *Registry
	pools    map[string]*Pool
	shmem    bool
	evalLog  evallog.Writer
	schemas  *schemaCache
	router   chi.Router
	http     *http.Server
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithPoolSize sets the worker-pool size for a specific model (default 1,
// serializing calls into that model). Unknown model names are ignored.
func WithPoolSize(model string, size int64) Option {
	return func(s *Server) { s.pools[model] = NewPool(model, size) }
}

// WithShMem enables the shared-memory fast path endpoints and the
// ShMem=true flags in /ModelInfo responses.
func WithShMem(enabled bool) Option {
	return func(s *Server) { s.shmem = enabled }
}

// WithEvalLog attaches an audit log writer. The default is evallog.NoopWriter.
func WithEvalLog(w evallog.Writer) Option {
	return func(s *Server) { s.evalLog = w }
}

// New builds a Server hosting models. Model names must be unique.
func New(models []umbridge.Model, opts ...Option) (*Server, error) {
	registry, err := NewRegistry(models...)
	if err != nil {
		return nil, err
	}
	s := &Server{
		registry: registry,
		pools:    make(map[string]*Pool, len(models)),
		evalLog:  evallog.NoopWriter{},
		schemas:  newSchemaCache(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, name := range registry.Names() {
		if _, ok := s.pools[name]; !ok {
			s.pools[name] = NewPool(name, 1)
		}
	}
	s.router = s.newRouter()
	return s, nil
}

func (s *Server) poolFor(model string) *Pool {
	if p, ok := s.pools[model]; ok {
		return p
	}
	return NewPool(model, 1)
}

// ServeHTTP implements http.Handler, so a Server can also be mounted into a
// larger router or used directly with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) newRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware)

	r.Get("/Info", s.handleInfo)
	r.Post("/ModelInfo", s.handleModelInfo)
	r.Post("/InputSizes", s.handleInputSizes)
	r.Post("/OutputSizes", s.handleOutputSizes)
	r.Post("/Evaluate", s.handleEvaluate)
	r.Post("/Gradient", s.handleGradient)
	r.Post("/ApplyJacobian", s.handleApplyJacobian)
	r.Post("/ApplyHessian", s.handleApplyHessian)

	if s.shmem {
		r.Post("/EvaluateShMem", s.handleEvaluateShMem)
		r.Post("/GradientShMem", s.handleGradientShMem)
		r.Post("/ApplyJacobianShMem", s.handleApplyJacobianShMem)
		r.Post("/ApplyHessianShMem", s.handleApplyHessianShMem)
		r.Post("/TestShMem", s.handleTestShMem)
	}

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// ListenAndServe starts the HTTP server on addr and blocks until ctx is
// canceled, then gracefully shuts down (15s timeout) before returning.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}
