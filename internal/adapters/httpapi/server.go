package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mojinnn/PBL3-project/internal/domain"
	"github.com/Mojinnn/PBL3-project/internal/ports"
)

// Querier is the read side the HTTP surface exposes.
type Querier interface {
	Summary() ([]domain.Row, error)
	TrafficSummary() ([]domain.Row, error)
	TrafficLatest() (domain.Row, error)
	TsharkSummary() ([]domain.Row, error)
	TsharkLatest() (domain.Row, error)
}

// Server serves the dashboard JSON API, health and metrics.
type Server struct {
	query      Querier
	obs        ports.Observability
	metrics    http.Handler
	corsOrigin string
	routes     map[string]func() (any, error)
}

// Option customizes a Server.
type Option func(*Server)

// WithGatherer serves /metrics from g instead of the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
}

// WithCORSOrigin sets the Access-Control-Allow-Origin value. Default "*".
func WithCORSOrigin(origin string) Option {
	return func(s *Server) { s.corsOrigin = origin }
}

func NewServer(q Querier, obs ports.Observability, opts ...Option) *Server {
	s := &Server{
		query:      q,
		obs:        obs,
		metrics:    promhttp.Handler(),
		corsOrigin: "*",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes = map[string]func() (any, error){
		"/api/summary":         rows(q.Summary),
		"/api/traffic_summary": rows(q.TrafficSummary),
		"/api/traffic_latest":  row(q.TrafficLatest),
		"/api/tshark_summary":  rows(q.TsharkSummary),
		"/api/tshark_latest":   row(q.TsharkLatest),
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
	w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
	w.Header().Set("X-Request-ID", requestIDFromRequest(r))

	path := strings.TrimSuffix(r.URL.Path, "/")
	handler, isAPI := s.routes[path]
	if !isAPI && path != "/healthz" && path != "/metrics" {
		http.NotFound(w, r)
		return
	}
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET, OPTIONS")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch path {
	case "/healthz":
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case "/metrics":
		s.metrics.ServeHTTP(w, r)
	default:
		s.serveQuery(w, path, handler)
	}
}

func (s *Server) serveQuery(w http.ResponseWriter, path string, handler func() (any, error)) {
	start := time.Now()
	endpoint := strings.TrimPrefix(path, "/api/")
	payload, err := handler()
	if err != nil {
		// storage trouble degrades to the empty payload the handler returned
		s.obs.LogError("query_failed", err, ports.Field{Key: "endpoint", Value: endpoint})
	}
	writeJSON(w, http.StatusOK, payload)
	s.obs.IncCounter("netwatch_api_requests_total", 1, endpoint)
	s.obs.ObserveLatency("netwatch_api_request_seconds", time.Since(start).Seconds())
}

func rows(fn func() ([]domain.Row, error)) func() (any, error) {
	return func() (any, error) {
		out, err := fn()
		if out == nil {
			out = []domain.Row{}
		}
		return out, err
	}
}

func row(fn func() (domain.Row, error)) func() (any, error) {
	return func() (any, error) {
		return fn()
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func requestIDFromRequest(r *http.Request) string {
	for _, header := range []string{"X-Request-ID", "X-Correlation-ID"} {
		if id := strings.TrimSpace(r.Header.Get(header)); id != "" {
			return id
		}
	}
	return uuid.NewString()
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within the given grace period.
func (s *Server) ListenAndServe(ctx context.Context, addr string, grace time.Duration) error {
	srv := &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}
