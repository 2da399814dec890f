package observability

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Mojinnn/PBL3-project/internal/ports"
)

func TestPromObsMetrics(t *testing.T) {
	obs := NewPromObs(prometheus.NewRegistry())

	obs.IncCounter("netwatch_merged_rows_total", 5)
	if got := testutil.ToFloat64(obs.counters["netwatch_merged_rows_total"]); got != 5 {
		t.Fatalf("expected merged rows counter 5, got %f", got)
	}

	obs.IncCounter("netwatch_merger_read_failures_total", 2, "latency")
	obs.IncCounter("netwatch_merger_read_failures_total", 1, "tshark")
	if got := testutil.ToFloat64(obs.counters["netwatch_merger_read_failures_total"].WithLabelValues("latency")); got != 2 {
		t.Fatalf("expected latency read failures 2, got %f", got)
	}

	// wrong label arity is ignored rather than panicking
	obs.IncCounter("netwatch_merger_read_failures_total", 1)
	obs.IncCounter("unknown_metric", 1)

	obs.SetGauge("netwatch_merger_pending_rows", 3)
	if got := testutil.ToFloat64(obs.gauges["netwatch_merger_pending_rows"]); got != 3 {
		t.Fatalf("expected pending gauge 3, got %f", got)
	}
	obs.SetGauge("netwatch_source_available", 1, "traffic")
	if got := testutil.ToFloat64(obs.gauges["netwatch_source_available"].WithLabelValues("traffic")); got != 1 {
		t.Fatalf("expected traffic availability 1, got %f", got)
	}

	obs.ObserveLatency("netwatch_merger_cycle_seconds", 0.5)
	hCollector := obs.histos["netwatch_merger_cycle_seconds"].(prometheus.Collector)
	if samples := testutil.CollectAndCount(hCollector); samples != 1 {
		t.Fatalf("expected cycle histogram to record 1 sample, got %d", samples)
	}
}

func TestPromObsDefaultRegisterer(t *testing.T) {
	origReg := prometheus.DefaultRegisterer
	t.Cleanup(func() { prometheus.DefaultRegisterer = origReg })

	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg

	NewPromObs(nil)
	if n, err := testutil.GatherAndCount(reg, "netwatch_merger_cycle_seconds"); err != nil || n != 1 {
		t.Fatalf("expected collectors on default registerer, n=%d err=%v", n, err)
	}
}

func TestPromObsLogsFields(t *testing.T) {
	var buf bytes.Buffer
	origOut, origFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(origOut)
		log.SetFlags(origFlags)
	})

	obs := NewPromObs(prometheus.NewRegistry())
	obs.LogError("merger_read_failed", errors.New("boom"), ports.Field{Key: "source", Value: "latency"})
	obs.LogError("ignored", nil)

	out := buf.String()
	if !strings.Contains(out, "ERROR: merger_read_failed: boom source=latency") {
		t.Fatalf("unexpected log output %q", out)
	}
	if strings.Contains(out, "ignored") {
		t.Fatalf("nil errors should not be logged: %q", out)
	}
}
