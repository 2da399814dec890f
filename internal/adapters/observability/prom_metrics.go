package observability

import (
	"fmt"
	"log"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Mojinnn/PBL3-project/internal/ports"
)

// PromObs logs through the standard logger and records metrics in Prometheus collectors.
type PromObs struct {
	counters map[string]*prometheus.CounterVec
	gauges   map[string]*prometheus.GaugeVec
	histos   map[string]prometheus.Observer
}

// NewPromObs registers the NetWatch collectors with reg, or with the default
// registerer when reg is nil.
func NewPromObs(reg prometheus.Registerer) *PromObs {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
	}
	gauge := func(name, help string, labels ...string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, labels)
	}

	counters := map[string]*prometheus.CounterVec{
		"netwatch_merged_rows_total":           counter("netwatch_merged_rows_total", "Merged rows appended to the merged store."),
		"netwatch_merger_read_failures_total":  counter("netwatch_merger_read_failures_total", "Sample store reads that failed during a merge cycle.", "source"),
		"netwatch_merger_write_failures_total": counter("netwatch_merger_write_failures_total", "Merged row appends that failed.", "kind"),
		"netwatch_pending_dropped_total":       counter("netwatch_pending_dropped_total", "Merged rows lost because the retry queue was full."),
		"netwatch_sink_failures_total":         counter("netwatch_sink_failures_total", "Mirror sink writes that failed.", "sink"),
		"netwatch_reader_coerced_cells_total":  counter("netwatch_reader_coerced_cells_total", "Non-numeric cells read as zero.", "source"),
		"netwatch_reader_skipped_lines_total":  counter("netwatch_reader_skipped_lines_total", "Unparsable lines ignored by the row reader.", "source"),
		"netwatch_api_requests_total":          counter("netwatch_api_requests_total", "Query API requests served.", "endpoint"),
		"netwatch_probe_rows_total":            counter("netwatch_probe_rows_total", "Sample rows appended by probe runners.", "source"),
		"netwatch_probe_failures_total":        counter("netwatch_probe_failures_total", "Probe measurements or appends that failed.", "source"),
	}
	gauges := map[string]*prometheus.GaugeVec{
		"netwatch_merger_state":        gauge("netwatch_merger_state", "Merger state: 0 idle, 1 collecting, 2 writing."),
		"netwatch_merger_pending_rows": gauge("netwatch_merger_pending_rows", "Merged rows waiting for a retried append."),
		"netwatch_source_available":    gauge("netwatch_source_available", "Whether the last merge cycle found a row in the sample store.", "source"),
	}
	cycle := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "netwatch_merger_cycle_seconds",
		Help:    "Duration of one merge cycle from collection to append.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	})
	request := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "netwatch_api_request_seconds",
		Help:    "Time spent answering a query API request.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	})

	for _, c := range counters {
		reg.MustRegister(c)
	}
	for _, g := range gauges {
		reg.MustRegister(g)
	}
	reg.MustRegister(cycle, request)

	return &PromObs{
		counters: counters,
		gauges:   gauges,
		histos: map[string]prometheus.Observer{
			"netwatch_merger_cycle_seconds": cycle,
			"netwatch_api_request_seconds":  request,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	log.Printf("INFO: %s%s", msg, formatFields(fields))
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("ERROR: %s: %v%s", msg, err, formatFields(fields))
	}
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("CRITICAL: %s: %v%s", msg, err, formatFields(fields))
	}
}

func (p *PromObs) IncCounter(name string, v float64, labels ...string) {
	if c, ok := p.counters[name]; ok {
		if m, err := c.GetMetricWithLabelValues(labels...); err == nil {
			m.Add(v)
		}
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64, labels ...string) {
	if g, ok := p.gauges[name]; ok {
		if m, err := g.GetMetricWithLabelValues(labels...); err == nil {
			m.Set(v)
		}
	}
}

func formatFields(fields []ports.Field) string {
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	return b.String()
}

var _ ports.Observability = (*PromObs)(nil)
