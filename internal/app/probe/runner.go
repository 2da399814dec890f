package probe

import (
	"context"
	"errors"
	"time"

	"github.com/Mojinnn/PBL3-project/internal/ports"
)

// Runner appends one row from its collector to a sample store per interval.
type Runner struct {
	path     string
	col      ports.Collector
	writer   ports.SampleWriter
	interval time.Duration
	obs      ports.Observability
}

func NewRunner(path string, col ports.Collector, w ports.SampleWriter, interval time.Duration, obs ports.Observability) *Runner {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Runner{path: path, col: col, writer: w, interval: interval, obs: obs}
}

// Run measures immediately and then once per interval until ctx is done.
// Failures are logged and the loop continues; only a persistent store
// failure stops it.
func (r *Runner) Run(ctx context.Context) error {
	source := r.col.Schema().Name
	r.obs.LogInfo("probe_started",
		ports.Field{Key: "source", Value: source},
		ports.Field{Key: "output", Value: r.path})

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if err := r.Once(ctx); errors.Is(err, ports.ErrPersistent) {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Once collects and appends a single row.
func (r *Runner) Once(ctx context.Context) error {
	schema := r.col.Schema()
	fail := func(msg string, err error) error {
		r.obs.IncCounter("netwatch_probe_failures_total", 1, schema.Name)
		r.obs.LogError(msg, err, ports.Field{Key: "source", Value: schema.Name})
		return err
	}

	if err := r.writer.EnsureHeader(r.path, schema); err != nil {
		return fail("probe_header_failed", err)
	}
	record, err := r.col.Collect(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fail("probe_collect_failed", err)
	}
	if err := r.writer.Append(r.path, record); err != nil {
		return fail("probe_append_failed", err)
	}
	r.obs.IncCounter("netwatch_probe_rows_total", 1, schema.Name)
	return nil
}
