// Package api exposes the library over a small JSON HTTP API meant for a
// local front end. It listens on loopback by default.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/marmos91/dittophotos/internal/logger"
	"github.com/marmos91/dittophotos/internal/ratelimiter"
	"github.com/marmos91/dittophotos/pkg/catalog"
	"github.com/marmos91/dittophotos/pkg/library"
	"github.com/marmos91/dittophotos/pkg/manifest"
	"github.com/marmos91/dittophotos/pkg/media"
)

// Library is the subset of *library.Library served by the API.
type Library interface {
	Ingest(ctx context.Context, paths []string, opts ...library.IngestOption) (*library.IngestResult, error)
	Export(ctx context.Context, id media.ContentID, format media.Format, dest string) error
	Render(ctx context.Context, id media.ContentID, format media.Format) ([]byte, error)
	ViewBytes(id media.ContentID) ([]byte, error)
	Delete(ctx context.Context, index int) error
	DeleteID(ctx context.Context, id media.ContentID) error
	Entry(ctx context.Context, id media.ContentID) (manifest.Entry, error)
	CurrentCatalog() []catalog.Entry
	CurrentStats() catalog.Stats
	Check(ctx context.Context) (*library.Report, error)
}

var _ Library = (*library.Library)(nil)

// Config configures the API server.
type Config struct {
	// Address to listen on, e.g. "127.0.0.1:8420".
	Address string

	// ShutdownTimeout bounds graceful shutdown. Defaults to 10s.
	ShutdownTimeout time.Duration

	// RequestsPerSecond caps the sustained request rate across all
	// clients. Zero disables limiting.
	RequestsPerSecond uint

	// Burst is the number of requests served above the sustained rate.
	// Zero defaults to RequestsPerSecond.
	Burst uint

	// MaxWorkers caps the per-request ingest concurrency. Defaults to
	// DefaultMaxWorkers.
	MaxWorkers int

	// Metrics, if set, is mounted at /metrics and /metrics/summary. Used
	// when the metrics endpoint shares the API address.
	Metrics http.Handler
}

// DefaultMaxWorkers is the largest value accepted for api.max_workers.
const DefaultMaxWorkers = 64

var errRateLimited = errors.New("rate limit exceeded")

// Server serves the API.
type Server struct {
	lib          Library
	cfg          Config
	limiter      *ratelimiter.RateLimiter
	server       *http.Server
	listener     net.Listener
	mu           sync.Mutex
	shutdownOnce sync.Once
}

// New creates a server for lib. It does not listen until Start is called.
func New(lib Library, cfg Config) *Server {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = DefaultMaxWorkers
	}

	s := &Server{
		lib:     lib,
		cfg:     cfg,
		limiter: ratelimiter.New(cfg.RequestsPerSecond, cfg.Burst),
	}
	s.server = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed API handler.
func (s *Server) Handler() http.Handler {
	var routes = []struct {
		method  string
		route   string
		handler httprouter.Handle
	}{
		{"GET", "/items", s.ListItemsHandler},
		{"POST", "/items", s.ImportHandler},
		{"GET", "/items/:id", s.ItemHandler},
		{"DELETE", "/items/:id", s.DeleteItemHandler},
		{"POST", "/items/:id/export", s.ExportHandler},
		{"GET", "/items/:id/view", s.ViewHandler},
		{"GET", "/items/:id/render", s.RenderHandler},
		{"DELETE", "/index/:index", s.DeleteIndexHandler},
		{"GET", "/stats", s.StatsHandler},
		{"GET", "/check", s.CheckHandler},
	}

	r := httprouter.New()
	for _, route := range routes {
		r.Handle(route.method, route.route, logWrapper(s.limitWrapper(route.handler)))
	}
	if s.cfg.Metrics != nil {
		// Scrapes bypass the rate limiter.
		r.Handler("GET", "/metrics", s.cfg.Metrics)
		r.Handler("GET", "/metrics/summary", s.cfg.Metrics)
	}
	return r
}

// limitWrapper rejects requests with 429 once the token bucket is empty.
func (s *Server) limitWrapper(handler httprouter.Handle) httprouter.Handle {
	if s.limiter.Unlimited() {
		return handler
	}
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeStatus(w, http.StatusTooManyRequests, errRateLimited, "RateLimited")
			return
		}
		handler(w, r, ps)
	}
}

// Start listens and serves until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("api server: listen on %s: %w", s.cfg.Address, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening on %s", ln.Addr())
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("API server shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("api server failed: %w", err)
	}
}

// Stop gracefully shuts the server down. It is safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("api server shutdown error: %w", err)
			logger.Error("API server shutdown error: %v", err)
			return
		}
		logger.Info("API server stopped gracefully")
	})
	return shutdownErr
}

// Addr returns the bound address once Start is listening, else the
// configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.Address
}

// logWrapper logs every request with its status and duration.
func logWrapper(handler httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		handler(rec, r, ps)
		logger.Debug("api: %s %s %d (%s)", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
