package merger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Mojinnn/PBL3-project/internal/domain"
	"github.com/Mojinnn/PBL3-project/internal/ports"
)

// State is the merger's position within a cycle.
type State int32

const (
	StateIdle State = iota
	StateCollecting
	StateWriting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCollecting:
		return "collecting"
	case StateWriting:
		return "writing"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Stores are the file paths the merger reads from and writes to.
type Stores struct {
	Latency string
	Traffic string
	Tshark  string
	Merged  string
}

// Merger folds the latest latency and primary capture samples into one merged
// row per cycle. The cycle always advances: missing samples become
// unavailable fields, failed appends are parked and retried next cycle.
type Merger struct {
	stores   Stores
	reader   ports.RowReader
	writer   ports.SampleWriter
	pending  ports.RowQueue
	obs      ports.Observability
	sink     ports.Sink
	interval time.Duration
	now      func() time.Time
	state    atomic.Int32
}

// Option customizes a Merger.
type Option func(*Merger)

// WithSink mirrors every appended row to s.
func WithSink(s ports.Sink) Option {
	return func(m *Merger) { m.sink = s }
}

// WithClock replaces time.Now as the source of merged timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Merger) { m.now = now }
}

func New(stores Stores, r ports.RowReader, w ports.SampleWriter, q ports.RowQueue, pol ports.Policy, obs ports.Observability, opts ...Option) *Merger {
	m := &Merger{
		stores:   stores,
		reader:   r,
		writer:   w,
		pending:  q,
		obs:      obs,
		interval: pol.Interval,
		now:      time.Now,
	}
	if m.interval <= 0 {
		m.interval = time.Minute
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// State reports the current cycle phase.
func (m *Merger) State() State { return State(m.state.Load()) }

func (m *Merger) setState(s State) {
	m.state.Store(int32(s))
	m.obs.SetGauge("netwatch_merger_state", float64(s))
}

// Run merges once immediately and then once per interval until ctx is done.
// Ticks missed while a cycle overran are dropped, not replayed. Only a
// persistent write failure ends Run early.
func (m *Merger) Run(ctx context.Context) error {
	m.obs.LogInfo("merger_started",
		ports.Field{Key: "output", Value: m.stores.Merged},
		ports.Field{Key: "interval", Value: m.interval})

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if err := m.Cycle(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			m.obs.LogInfo("merger_stopped", ports.Field{Key: "pending", Value: m.pending.Len()})
			return nil
		case <-ticker.C:
		}
	}
}

// Cycle runs Collecting and Writing once and appends exactly one merged row,
// either directly or through the retry queue.
func (m *Merger) Cycle() error {
	start := time.Now()
	defer func() {
		m.setState(StateIdle)
		m.obs.ObserveLatency("netwatch_merger_cycle_seconds", time.Since(start).Seconds())
	}()

	m.setState(StateCollecting)
	snap := m.collect()

	m.setState(StateWriting)
	return m.write(Merge(m.now(), snap))
}

// Reading is the outcome of one latest-row read.
type Reading struct {
	Row domain.Row
	OK  bool
}

// Snapshot holds the latest row of every sample store at collection time.
type Snapshot struct {
	Latency Reading
	Traffic Reading
	Tshark  Reading
}

type source struct {
	name   string
	path   string
	schema domain.Schema
	dst    *Reading
}

func (m *Merger) collect() Snapshot {
	var snap Snapshot
	sources := []source{
		{name: "latency", path: m.stores.Latency, schema: domain.LatencySchema, dst: &snap.Latency},
		{name: "traffic", path: m.stores.Traffic, schema: domain.TrafficSchema, dst: &snap.Traffic},
		{name: "tshark", path: m.stores.Tshark, schema: domain.TsharkSchema, dst: &snap.Tshark},
	}

	var wg sync.WaitGroup
	for _, src := range sources {
		wg.Add(1)
		go func(src source) {
			defer wg.Done()
			*src.dst = m.readLatest(src)
		}(src)
	}
	wg.Wait()
	return snap
}

func (m *Merger) readLatest(src source) Reading {
	row, ok, err := m.reader.ReadLatest(src.path, src.schema)
	if err != nil {
		m.obs.LogError("merger_read_failed", err, ports.Field{Key: "source", Value: src.name})
		m.obs.IncCounter("netwatch_merger_read_failures_total", 1, src.name)
		ok = false
	}
	available := 0.0
	if ok {
		available = 1
	}
	m.obs.SetGauge("netwatch_source_available", available, src.name)
	return Reading{Row: row, OK: ok}
}

// Merge builds the merged row for one cycle. Latency fields come from the
// latency store, traffic totals from the primary capture store. The secondary
// capture is an independent cross-check and is not folded in.
func Merge(now time.Time, s Snapshot) domain.MergedRow {
	lat, tr := s.Latency, s.Traffic
	return domain.MergedRow{
		Timestamp:   now,
		LatencyMs:   domain.OptionalOf(lat.Row, lat.OK, "latency_ms"),
		JitterMs:    domain.OptionalOf(lat.Row, lat.OK, "jitter_ms"),
		LossPercent: domain.OptionalOf(lat.Row, lat.OK, "loss_percent"),
		TotalBytes:  domain.OptionalOf(tr.Row, tr.OK, "total_bytes"),
		TotalPkts:   domain.OptionalOf(tr.Row, tr.OK, "total_packets"),
		TCP:         domain.OptionalOf(tr.Row, tr.OK, "tcp"),
		UDP:         domain.OptionalOf(tr.Row, tr.OK, "udp"),
		ICMP:        domain.OptionalOf(tr.Row, tr.OK, "icmp"),
		Other:       domain.OptionalOf(tr.Row, tr.OK, "other"),
	}
}

func (m *Merger) write(row domain.MergedRow) error {
	path := m.stores.Merged
	if err := m.writer.EnsureHeader(path, domain.MergedSchema); err != nil {
		if errors.Is(err, ports.ErrPersistent) {
			m.obs.LogCritical("merged_header_failed", err, ports.Field{Key: "path", Value: path})
			return fmt.Errorf("merged store header: %w", err)
		}
		// appending now would create the store without its header
		m.obs.IncCounter("netwatch_merger_write_failures_total", 1, "transient")
		m.obs.LogError("merged_header_failed", err, ports.Field{Key: "path", Value: path})
		m.park([]domain.MergedRow{row})
		m.finish(nil)
		return nil
	}

	// parked rows go first so the merged store stays in cycle order
	batch := append(m.pending.DequeueBatch(0), row)
	written := make([]domain.MergedRow, 0, len(batch))
	for i, r := range batch {
		err := m.writer.Append(path, r.Record())
		if err == nil {
			written = append(written, r)
			continue
		}
		if errors.Is(err, ports.ErrPersistent) {
			m.obs.IncCounter("netwatch_merger_write_failures_total", 1, "persistent")
			m.obs.LogCritical("merged_append_failed", err, ports.Field{Key: "path", Value: path})
			m.finish(written)
			return fmt.Errorf("append merged row: %w", err)
		}
		m.obs.IncCounter("netwatch_merger_write_failures_total", 1, "transient")
		m.obs.LogError("merged_append_failed", err,
			ports.Field{Key: "path", Value: path},
			ports.Field{Key: "retry_rows", Value: len(batch) - i})
		m.park(batch[i:])
		break
	}
	m.finish(written)
	return nil
}

func (m *Merger) park(rows []domain.MergedRow) {
	for _, r := range rows {
		if !m.pending.Enqueue(r) {
			m.obs.IncCounter("netwatch_pending_dropped_total", 1)
			m.obs.LogError("merged_row_dropped", errors.New("retry queue full"),
				ports.Field{Key: "timestamp", Value: r.Timestamp.Format(domain.TimeLayout)})
		}
	}
}

func (m *Merger) finish(written []domain.MergedRow) {
	m.obs.SetGauge("netwatch_merger_pending_rows", float64(m.pending.Len()))
	if len(written) == 0 {
		return
	}
	m.obs.IncCounter("netwatch_merged_rows_total", float64(len(written)))
	last := written[len(written)-1]
	m.obs.LogInfo("merged_row_written",
		ports.Field{Key: "timestamp", Value: last.Timestamp.Format(domain.TimeLayout)},
		ports.Field{Key: "rows", Value: len(written)})

	if m.sink == nil {
		return
	}
	if err := m.sink.WriteBatch(written); err != nil {
		m.obs.IncCounter("netwatch_sink_failures_total", 1, m.sink.Name())
		m.obs.LogError("sink_write_failed", err, ports.Field{Key: "sink", Value: m.sink.Name()})
	}
}
