package opsserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"asset-ingest/internal/ingest"
	"asset-ingest/internal/logging"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultAddr is the listen address used when none is configured.
const DefaultAddr = ":9090"

// StatusSource reports the pipeline state served by the health endpoints.
type StatusSource interface {
	Ready() bool
	Status() ingest.Status
}

// Config configures the ops server.
type Config struct {
	Addr            string
	Version         string
	LogHealthChecks bool
}

// Server serves metrics and health checks.
type Server struct {
	cfg     Config
	status  StatusSource
	log     logging.Logger
	router  *mux.Router
	srv     *http.Server
	started time.Time
}

// New builds the router. Call ListenAndServe to accept connections.
func New(cfg Config, status StatusSource, log logging.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	s := &Server{
		cfg:     cfg,
		status:  status,
		log:     log.With("component", "ops"),
		router:  mux.NewRouter(),
		started: time.Now(),
	}

	s.router.Use(requestLogger(s.log, cfg.LogHealthChecks))
	s.router.Use(recordMetrics)

	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet).Name("metrics")
	s.router.HandleFunc("/livez", s.liveness).Methods(http.MethodGet, http.MethodHead).Name("livez")
	s.router.HandleFunc("/healthz", s.health).Methods(http.MethodGet).Name("healthz")
	s.router.HandleFunc("/readyz", s.readiness).Methods(http.MethodGet).Name("readyz")

	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Routes lists the registered route templates.
func (s *Server) Routes() ([]string, error) {
	var routes []string
	err := s.router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		tpl, err := route.GetPathTemplate()
		if err != nil {
			return err
		}
		routes = append(routes, tpl)
		return nil
	})
	return routes, err
}

// ListenAndServe binds the configured address and serves until Shutdown.
// It returns nil after a clean shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info("Ops server listening on %s", ln.Addr())
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ops server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
