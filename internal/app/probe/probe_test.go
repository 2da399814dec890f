package probe

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Mojinnn/PBL3-project/internal/adapters/csvstore"
	"github.com/Mojinnn/PBL3-project/internal/domain"
	"github.com/Mojinnn/PBL3-project/internal/ports"
)

func TestLatencyStats(t *testing.T) {
	st := LatencyStats([]float64{10, 14, 12}, 4)
	if !st.Latency.Valid || st.Latency.Value != 12 {
		t.Fatalf("expected mean 12, got %+v", st.Latency)
	}
	// |14-10| + |12-14| over 2 gaps
	if !st.Jitter.Valid || st.Jitter.Value != 3 {
		t.Fatalf("expected jitter 3, got %+v", st.Jitter)
	}
	if st.LossPercent != 25 {
		t.Fatalf("expected 25%% loss, got %v", st.LossPercent)
	}
}

func TestLatencyStatsEdges(t *testing.T) {
	none := LatencyStats(nil, 3)
	if none.Latency.Valid || none.Jitter.Valid || none.LossPercent != 100 {
		t.Fatalf("expected unavailable latency and full loss, got %+v", none)
	}

	one := LatencyStats([]float64{7.5}, 1)
	if one.Latency.Value != 7.5 || !one.Jitter.Valid || one.Jitter.Value != 0 || one.LossPercent != 0 {
		t.Fatalf("unexpected single reply stats %+v", one)
	}

	if third := LatencyStats([]float64{5, 5}, 3); third.LossPercent != 33.33 {
		t.Fatalf("expected loss rounded to 33.33, got %v", third.LossPercent)
	}
	zero := LatencyStats(nil, 0)
	if zero.LossPercent != 0 || math.IsNaN(zero.LossPercent) {
		t.Fatalf("expected zero loss without requests, got %v", zero.LossPercent)
	}
}

func TestProtocolCounts(t *testing.T) {
	pkts := []Packet{
		{Length: 60, TCP: true},
		{Length: 60, TCP: true, UDP: true},
		{Length: 80, UDP: true},
		{Length: 98, ICMP: true},
		{Length: 118, ICMPv6: true},
		{Length: 42},
	}
	c := ProtocolCounts(pkts)
	want := domain.ProtocolCounts{TCP: 2, UDP: 1, ICMP: 2, Other: 1, TotalBytes: 458}
	if c != want {
		t.Fatalf("got %+v want %+v", c, want)
	}
	if c.Total() != int64(len(pkts)) {
		t.Fatalf("expected total %d, got %d", len(pkts), c.Total())
	}
}

type scriptedPinger struct {
	replies []time.Duration // zero means timeout
	i       int
}

func (p *scriptedPinger) Ping(context.Context, string) (time.Duration, error) {
	d := p.replies[p.i%len(p.replies)]
	p.i++
	if d == 0 {
		return 0, errors.New("timeout")
	}
	return d, nil
}

type fixedCapture struct {
	pkts []Packet
	err  error
}

func (f fixedCapture) Capture(context.Context, string, time.Duration) ([]Packet, error) {
	return f.pkts, f.err
}

var fixedNow = func() time.Time { return time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC) }

func TestPingCollector(t *testing.T) {
	c := &PingCollector{
		Host:   "8.8.8.8",
		Count:  3,
		Pinger: &scriptedPinger{replies: []time.Duration{12 * time.Millisecond, 0, 13 * time.Millisecond}},
		Now:    fixedNow,
	}
	rec, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	got := strings.Join(rec, ",")
	if got != "2024-01-01 10:00:00,8.8.8.8,12.5,1,33.33" {
		t.Fatalf("unexpected record %s", got)
	}
}

func TestPingCollectorAllLost(t *testing.T) {
	c := &PingCollector{Host: "gw", Count: 2, Pinger: &scriptedPinger{replies: []time.Duration{0}}, Now: fixedNow}
	rec, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if got := strings.Join(rec, ","); got != "2024-01-01 10:00:00,gw,NaN,NaN,100" {
		t.Fatalf("unexpected record %s", got)
	}
}

func TestCaptureCollectors(t *testing.T) {
	capture := fixedCapture{pkts: []Packet{{Length: 100, TCP: true}, {Length: 50, UDP: true}}}

	traffic := &TrafficCollector{Iface: "br0", Capturer: capture, Now: fixedNow}
	rec, err := traffic.Collect(context.Background())
	if err != nil {
		t.Fatalf("traffic collect: %v", err)
	}
	if got := strings.Join(rec, ","); got != "2024-01-01 10:00:00,br0,2,1,1,0,0,150" {
		t.Fatalf("unexpected traffic record %s", got)
	}

	tshark := &TsharkCollector{Capturer: capture, Now: fixedNow}
	rec, err = tshark.Collect(context.Background())
	if err != nil {
		t.Fatalf("tshark collect: %v", err)
	}
	if len(rec) != domain.TsharkSchema.Width() || rec[1] != "default" || rec[3] != "2" || rec[8] != "150" {
		t.Fatalf("unexpected tshark record %v", rec)
	}
}

type recordingObs struct {
	counts map[string]float64
}

func (o *recordingObs) LogInfo(string, ...ports.Field)            {}
func (o *recordingObs) LogError(string, error, ...ports.Field)    {}
func (o *recordingObs) LogCritical(string, error, ...ports.Field) {}
func (o *recordingObs) ObserveLatency(string, float64)            {}
func (o *recordingObs) SetGauge(string, float64, ...string)       {}
func (o *recordingObs) IncCounter(name string, v float64, labels ...string) {
	if o.counts == nil {
		o.counts = map[string]float64{}
	}
	o.counts[name+"/"+strings.Join(labels, ",")] += v
}

func TestRunnerAppendsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "traffic_probe.csv")
	obs := &recordingObs{}
	col := &TrafficCollector{Iface: "eth0", Capturer: fixedCapture{pkts: []Packet{{Length: 10}}}, Now: fixedNow}
	r := NewRunner(path, col, csvstore.NewStore(), time.Second, obs)

	for i := 0; i < 2; i++ {
		if err := r.Once(context.Background()); err != nil {
			t.Fatalf("once: %v", err)
		}
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read store: %v", err)
	}
	want := "timestamp,iface,total_packets,tcp,udp,icmp,other,total_bytes\n" +
		"2024-01-01 10:00:00,eth0,1,0,0,0,1,10\n" +
		"2024-01-01 10:00:00,eth0,1,0,0,0,1,10\n"
	if string(raw) != want {
		t.Fatalf("unexpected store\n%s", raw)
	}
	if obs.counts["netwatch_probe_rows_total/traffic"] != 2 {
		t.Fatalf("expected 2 rows counted, got %v", obs.counts)
	}
}

func TestRunnerKeepsGoingAfterCollectFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tshark_probe.csv")
	obs := &recordingObs{}
	col := &TsharkCollector{Capturer: fixedCapture{err: errors.New("tshark exited 1")}}
	r := NewRunner(path, col, csvstore.NewStore(), 10*time.Millisecond, obs)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := r.Run(ctx); err != nil {
		t.Fatalf("run should absorb collect failures, got %v", err)
	}
	if obs.counts["netwatch_probe_failures_total/tshark"] < 2 {
		t.Fatalf("expected repeated failures counted, got %v", obs.counts)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read store: %v", err)
	}
	if strings.Count(string(raw), "\n") != 1 {
		t.Fatalf("expected header only, got %q", raw)
	}
}
