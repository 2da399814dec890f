package netwatch

import (
	"fmt"

	"github.com/Mojinnn/PBL3-project/internal/adapters/csvstore"
	"github.com/Mojinnn/PBL3-project/internal/domain"
	"github.com/Mojinnn/PBL3-project/internal/ports"
)

type (
	// LatencySample is one row of the latency store.
	LatencySample = domain.LatencySample
	// TrafficSample is one row of the primary capture store.
	TrafficSample = domain.TrafficSample
	// TsharkSample is one row of the secondary capture store.
	TsharkSample = domain.TsharkSample
	// ProtocolCounts are per-protocol packet counts plus total bytes.
	ProtocolCounts = domain.ProtocolCounts
)

// Recorder lets programs that measure on their own append typed samples to
// the configured stores, in the same format the built-in probes write.
type Recorder struct {
	stores StoresConfig
	writer ports.SampleWriter
}

// NewRecorder writes through w, or through the CSV store when w is nil.
func NewRecorder(stores StoresConfig, w SampleWriter) (*Recorder, error) {
	if stores.Latency == "" || stores.Traffic == "" || stores.Tshark == "" {
		return nil, fmt.Errorf("latency, traffic and tshark store paths are required")
	}
	if w == nil {
		w = csvstore.NewStore()
	}
	return &Recorder{stores: stores, writer: w}, nil
}

func (r *Recorder) RecordLatency(s LatencySample) error {
	return r.record(r.stores.Latency, domain.LatencySchema, s.Record())
}

func (r *Recorder) RecordTraffic(s TrafficSample) error {
	return r.record(r.stores.Traffic, domain.TrafficSchema, s.Record())
}

func (r *Recorder) RecordTshark(s TsharkSample) error {
	return r.record(r.stores.Tshark, domain.TsharkSchema, s.Record())
}

func (r *Recorder) record(path string, schema domain.Schema, rec []string) error {
	if err := r.writer.EnsureHeader(path, schema); err != nil {
		return fmt.Errorf("%s store: %w", schema.Name, err)
	}
	if err := r.writer.Append(path, rec); err != nil {
		return fmt.Errorf("%s store: %w", schema.Name, err)
	}
	return nil
}
