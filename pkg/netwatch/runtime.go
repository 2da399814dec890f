package netwatch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mojinnn/PBL3-project/internal/adapters/csvstore"
	"github.com/Mojinnn/PBL3-project/internal/adapters/httpapi"
	"github.com/Mojinnn/PBL3-project/internal/adapters/observability"
	"github.com/Mojinnn/PBL3-project/internal/adapters/queue"
	"github.com/Mojinnn/PBL3-project/internal/adapters/sink"
	"github.com/Mojinnn/PBL3-project/internal/app/merger"
	"github.com/Mojinnn/PBL3-project/internal/app/probe"
	"github.com/Mojinnn/PBL3-project/internal/app/query"
	"github.com/Mojinnn/PBL3-project/internal/ports"
)

const shutdownGrace = 5 * time.Second

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	observability Observability
	registry      *prometheus.Registry
	sink          Sink
	reader        RowReader
	writer        SampleWriter
	queue         RowQueue
	probes        []probeSpec
}

type probeSpec struct {
	path     string
	col      Collector
	interval time.Duration
}

// WithObservability plugs in a custom logging and metrics backend.
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) { o.observability = obs }
}

// WithRegistry registers the default collectors on reg and serves /metrics
// from it instead of the global registry.
func WithRegistry(reg *prometheus.Registry) RuntimeOption {
	return func(o *runtimeOverrides) { o.registry = reg }
}

// WithSink mirrors merged rows to s instead of the configured Timescale table.
func WithSink(s Sink) RuntimeOption {
	return func(o *runtimeOverrides) { o.sink = s }
}

// WithReader replaces the CSV row reader.
func WithReader(r RowReader) RuntimeOption {
	return func(o *runtimeOverrides) { o.reader = r }
}

// WithWriter replaces the CSV sample writer used by the merger and probes.
func WithWriter(w SampleWriter) RuntimeOption {
	return func(o *runtimeOverrides) { o.writer = w }
}

// WithQueue replaces the in-memory retry queue.
func WithQueue(q RowQueue) RuntimeOption {
	return func(o *runtimeOverrides) { o.queue = q }
}

// WithProbe runs col every interval and appends its rows to path.
func WithProbe(path string, col Collector, interval time.Duration) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.probes = append(o.probes, probeSpec{path: path, col: col, interval: interval})
	}
}

// Runtime wires stores, merger, query API and probes, and exposes lifecycle
// hooks for embedding NetWatch inside any Go service.
type Runtime struct {
	cfg      *Config
	obs      ports.Observability
	queue    ports.RowQueue
	sink     ports.Sink
	db       *sql.DB
	gatherer prometheus.Gatherer
	merger   *merger.Merger
	query    *query.Service
	api      *httpapi.Server
	probes   []*probe.Runner
}

// NewRuntime bootstraps the default adapters (CSV stores, in-memory retry
// queue, Prometheus observability and, when a connection string is set, the
// Timescale mirror). Options override any of them.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	obs := overrides.observability
	if overrides.registry != nil {
		gatherer = overrides.registry
		if obs == nil {
			obs = observability.NewPromObs(overrides.registry)
		}
	}
	if obs == nil {
		obs = observability.NewPromObs(nil)
	}

	reader := overrides.reader
	if reader == nil {
		reader = csvstore.NewReader(obs)
	}
	writer := overrides.writer
	if writer == nil {
		writer = csvstore.NewStore()
	}
	q := overrides.queue
	if q == nil {
		q = queue.NewMemQueue(cfg.Merger.MaxPending)
	}

	var db *sql.DB
	snk := overrides.sink
	if snk == nil && cfg.Timescale.ConnString != "" {
		var err error
		db, err = sql.Open("postgres", cfg.Timescale.ConnString)
		if err != nil {
			return nil, fmt.Errorf("open timescale: %w", err)
		}
		snk = sink.NewTimescaleSink(db, cfg.Timescale.Table)
	}

	pol := cfg.Policy()
	var mergerOpts []merger.Option
	if snk != nil {
		mergerOpts = append(mergerOpts, merger.WithSink(snk))
	}
	m := merger.New(merger.Stores{
		Latency: cfg.Stores.Latency,
		Traffic: cfg.Stores.Traffic,
		Tshark:  cfg.Stores.Tshark,
		Merged:  cfg.Stores.Merged,
	}, reader, writer, q, pol, obs, mergerOpts...)

	svc := query.NewService(query.Stores{
		Traffic: cfg.Stores.Traffic,
		Tshark:  cfg.Stores.Tshark,
		Merged:  cfg.Stores.Merged,
	}, reader, pol, obs)

	runners := make([]*probe.Runner, 0, len(overrides.probes))
	for _, p := range overrides.probes {
		if p.col == nil {
			return nil, fmt.Errorf("probe for %s has no collector", p.path)
		}
		runners = append(runners, probe.NewRunner(p.path, p.col, writer, p.interval, obs))
	}

	return &Runtime{
		cfg:      cfg,
		obs:      obs,
		queue:    q,
		sink:     snk,
		db:       db,
		gatherer: gatherer,
		merger:   m,
		query:    svc,
		api:      httpapi.NewServer(svc, obs, httpapi.WithGatherer(gatherer)),
		probes:   runners,
	}, nil
}

// Query exposes the read side for programs that serve it themselves.
func (r *Runtime) Query() *QueryService { return r.query }

// Pending is the number of merged rows waiting for a retried append.
func (r *Runtime) Pending() int { return r.queue.Len() }

// Handler returns the dashboard API as an http.Handler.
func (r *Runtime) Handler() http.Handler { return r.api }

// RunMerger runs the merger, the configured probes and the metrics endpoint
// until ctx is cancelled or the merged store fails persistently.
func (r *Runtime) RunMerger(ctx context.Context) error {
	return r.run(ctx, r.mergerTasks()...)
}

// Serve runs the dashboard API until ctx is cancelled.
func (r *Runtime) Serve(ctx context.Context) error {
	return r.run(ctx, r.serveAPI)
}

// Run runs everything in one process.
func (r *Runtime) Run(ctx context.Context) error {
	return r.run(ctx, append(r.mergerTasks(), r.serveAPI)...)
}

// Shutdown releases the database handle.
func (r *Runtime) Shutdown() error {
	var errs []error
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			errs = append(errs, err)
		}
		r.db = nil
	}
	return errors.Join(errs...)
}

type task func(context.Context) error

func (r *Runtime) mergerTasks() []task {
	tasks := []task{r.merger.Run, r.serveMetrics}
	for _, p := range r.probes {
		tasks = append(tasks, p.Run)
	}
	return tasks
}

// run starts every task and cancels the rest as soon as one fails.
func (r *Runtime) run(ctx context.Context, tasks ...task) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, len(tasks))
	var wg sync.WaitGroup
	for _, t := range tasks {
		wg.Add(1)
		go func(t task) {
			defer wg.Done()
			if err := t(ctx); err != nil {
				errCh <- err
				cancel()
			}
		}(t)
	}
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	if err := r.Shutdown(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (r *Runtime) serveAPI(ctx context.Context) error {
	r.obs.LogInfo("query_api_listening", ports.Field{Key: "addr", Value: r.cfg.Query.Addr})
	return r.api.ListenAndServe(ctx, r.cfg.Query.Addr, shutdownGrace)
}

func (r *Runtime) serveMetrics(ctx context.Context) error {
	if r.cfg.Metrics.Addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{Addr: r.cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		// metrics are best effort; the merger keeps running without them
		r.obs.LogError("metrics_server_exited", err, ports.Field{Key: "addr", Value: r.cfg.Metrics.Addr})
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		<-errCh
		return err
	}
}
