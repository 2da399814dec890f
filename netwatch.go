package netwatch

import (
	"time"

	base "github.com/Mojinnn/PBL3-project/pkg/netwatch"
)

// Re-exported errors for convenience.
var (
	ErrPersistent        = base.ErrPersistent
	ErrChannelSinkClosed = base.ErrChannelSinkClosed
)

// Type aliases so consumers can import github.com/Mojinnn/PBL3-project directly.
type (
	Config          = base.Config
	Policy          = base.Policy
	StoresConfig    = base.StoresConfig
	MergerConfig    = base.MergerConfig
	QueryConfig     = base.QueryConfig
	MetricsConfig   = base.MetricsConfig
	TimescaleConfig = base.TimescaleConfig
	Runtime         = base.Runtime
	RuntimeOption   = base.RuntimeOption
	Recorder        = base.Recorder
	MergedRow       = base.MergedRow
	MergedBatchFunc = base.MergedBatchFunc
	LatencySample   = base.LatencySample
	TrafficSample   = base.TrafficSample
	TsharkSample    = base.TsharkSample
	ProtocolCounts  = base.ProtocolCounts
	Optional        = base.Optional
	Row             = base.Row
	Collector       = base.Collector
	Sink            = base.Sink
	SampleWriter    = base.SampleWriter
	RowReader       = base.RowReader
	RowQueue        = base.RowQueue
	Observability   = base.Observability
	Field           = base.Field
)

// Config helpers.
func LoadConfig(path string) (*Config, error) { return base.LoadConfig(path) }
func DefaultConfig() *Config                  { return base.DefaultConfig() }

// Runtime helpers.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func NewRecorder(stores StoresConfig, w SampleWriter) (*Recorder, error) {
	return base.NewRecorder(stores, w)
}

// Option helpers.
func WithObservability(obs Observability) RuntimeOption { return base.WithObservability(obs) }
func WithSink(s Sink) RuntimeOption                     { return base.WithSink(s) }
func WithReader(r RowReader) RuntimeOption              { return base.WithReader(r) }
func WithWriter(w SampleWriter) RuntimeOption           { return base.WithWriter(w) }
func WithQueue(q RowQueue) RuntimeOption                { return base.WithQueue(q) }

func WithProbe(path string, col Collector, interval time.Duration) RuntimeOption {
	return base.WithProbe(path, col, interval)
}

// Sink helpers.
func NewCallbackSink(name string, fn MergedBatchFunc) Sink { return base.NewCallbackSink(name, fn) }

func NewChannelSink(name string, buffer int) (Sink, <-chan []MergedRow, func()) {
	return base.NewChannelSink(name, buffer)
}
