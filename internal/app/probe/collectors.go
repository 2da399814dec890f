package probe

import (
	"context"
	"time"

	"github.com/Mojinnn/PBL3-project/internal/domain"
	"github.com/Mojinnn/PBL3-project/internal/ports"
)

// Pinger sends one echo request and reports its round trip. An error means
// no reply arrived.
type Pinger interface {
	Ping(ctx context.Context, host string) (time.Duration, error)
}

// Capturer captures traffic for a bounded window and returns the decoded packets.
type Capturer interface {
	Capture(ctx context.Context, iface string, window time.Duration) ([]Packet, error)
}

// PingCollector produces latency rows from Count echo requests per call.
type PingCollector struct {
	Host   string
	Count  int
	Gap    time.Duration // pause between requests
	Pinger Pinger
	Now    func() time.Time
}

func (c *PingCollector) Schema() domain.Schema { return domain.LatencySchema }

func (c *PingCollector) Collect(ctx context.Context) ([]string, error) {
	count := c.Count
	if count <= 0 {
		count = 3
	}
	rtts := make([]float64, 0, count)
	for i := 0; i < count; i++ {
		if i > 0 && c.Gap > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.Gap):
			}
		}
		rtt, err := c.Pinger.Ping(ctx, c.Host)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		rtts = append(rtts, float64(rtt)/float64(time.Millisecond))
	}

	st := LatencyStats(rtts, count)
	return domain.LatencySample{
		Timestamp:   now(c.Now),
		Host:        c.Host,
		LatencyMs:   st.Latency,
		JitterMs:    st.Jitter,
		LossPercent: st.LossPercent,
	}.Record(), nil
}

// TrafficCollector produces primary capture rows.
type TrafficCollector struct {
	Iface    string
	Window   time.Duration
	Capturer Capturer
	Now      func() time.Time
}

func (c *TrafficCollector) Schema() domain.Schema { return domain.TrafficSchema }

func (c *TrafficCollector) Collect(ctx context.Context) ([]string, error) {
	pkts, err := c.Capturer.Capture(ctx, c.Iface, c.Window)
	if err != nil {
		return nil, err
	}
	return domain.TrafficSample{
		Timestamp: now(c.Now),
		Iface:     c.Iface,
		Counts:    ProtocolCounts(pkts),
	}.Record(), nil
}

// TsharkCollector produces secondary capture rows, recording how long the
// capture actually ran.
type TsharkCollector struct {
	Iface    string
	Window   time.Duration
	Capturer Capturer
	Now      func() time.Time
}

func (c *TsharkCollector) Schema() domain.Schema { return domain.TsharkSchema }

func (c *TsharkCollector) Collect(ctx context.Context) ([]string, error) {
	start := time.Now()
	pkts, err := c.Capturer.Capture(ctx, c.Iface, c.Window)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start).Round(time.Millisecond)
	return domain.TsharkSample{
		Timestamp:   now(c.Now),
		Iface:       c.Iface,
		CaptureTime: elapsed,
		Counts:      ProtocolCounts(pkts),
	}.Record(), nil
}

func now(clock func() time.Time) time.Time {
	if clock == nil {
		return time.Now()
	}
	return clock()
}

var (
	_ ports.Collector = (*PingCollector)(nil)
	_ ports.Collector = (*TrafficCollector)(nil)
	_ ports.Collector = (*TsharkCollector)(nil)
)
