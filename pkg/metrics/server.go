package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/marmos91/dittophotos/internal/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the library and content store collectors over HTTP:
//   - GET /metrics: Prometheus exposition of the global registry
//   - GET /metrics/summary and GET /: JSON summary of the dittophotos_*
//     families, one figure per family
//
// When metrics are disabled both endpoints answer 503.
type Server struct {
	cfg          ServerConfig
	handler      http.Handler
	server       *http.Server
	mu           sync.Mutex
	listener     net.Listener
	shutdownOnce sync.Once
}

// ServerConfig configures the metrics HTTP server.
type ServerConfig struct {
	// Host to bind. Empty binds every interface.
	Host string

	// Port to listen on. Defaults to 9090.
	Port int

	// ShutdownTimeout bounds graceful shutdown. Defaults to 5s.
	ShutdownTimeout time.Duration
}

func (c *ServerConfig) applyDefaults() {
	if c.Port <= 0 {
		c.Port = 9090
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}

// Address is the host:port the server binds.
func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// summaryResponse is the body of the summary endpoint.
type summaryResponse struct {
	MetricsPath string          `json:"metrics_path"`
	Families    []FamilySummary `json:"families"`
}

// NewServer creates a stopped metrics server. Call Start to serve.
func NewServer(config ServerConfig) *Server {
	config.applyDefaults()

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", exposition())
	mux.HandleFunc("GET /metrics/summary", summaryHandler)
	mux.HandleFunc("GET /{$}", summaryHandler)

	s := &Server{cfg: config, handler: mux}
	s.server = &http.Server{
		Addr:              config.Address(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func exposition() http.Handler {
	registry := GetRegistry()
	if registry == nil {
		logger.Debug("Metrics collection disabled")
		return http.HandlerFunc(disabled)
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func summaryHandler(w http.ResponseWriter, r *http.Request) {
	registry := GetRegistry()
	if registry == nil {
		disabled(w, r)
		return
	}

	families, err := Summarize(registry, Namespace)
	if err != nil {
		logger.Warn("Metrics summary failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(summaryResponse{MetricsPath: "/metrics", Families: families}); err != nil {
		logger.Debug("Metrics summary: failed to encode response: %v", err)
	}
}

func disabled(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = fmt.Fprintln(w, "Metrics collection is disabled")
}

// Handler serves /metrics, /metrics/summary and the summary index. The API
// mounts it when both share an address.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens and serves until ctx is cancelled, then shuts down within
// the configured timeout.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("metrics server: listen on %s: %w", s.cfg.Address(), err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Metrics server listening on %s", ln.Addr())
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Metrics server shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("metrics server failed: %w", err)
	}
}

// Stop gracefully shuts the server down. It is safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("metrics server shutdown error: %w", err)
			logger.Error("Metrics server shutdown error: %v", err)
			return
		}
		logger.Info("Metrics server stopped gracefully")
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
	return s.cfg.Address()
}

// Port returns the configured TCP port.
func (s *Server) Port() int {
	return s.cfg.Port
}
