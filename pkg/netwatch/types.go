package netwatch

import (
	"github.com/Mojinnn/PBL3-project/internal/app/probe"
	"github.com/Mojinnn/PBL3-project/internal/app/query"
	"github.com/Mojinnn/PBL3-project/internal/domain"
	"github.com/Mojinnn/PBL3-project/internal/ports"
)

// MergedRow is the per-cycle aggregate the merger appends.
type MergedRow = domain.MergedRow

// Optional is a measurement that may be unavailable.
type Optional = domain.Optional

// Row is a schema-normalized record as served by the query API.
type Row = domain.Row

// Collector produces one sample row per call for a probe runner. Capture and
// ICMP mechanics are supplied by the embedding program.
type Collector = ports.Collector

// QueryService answers dashboard queries against the stores.
type QueryService = query.Service

// Sink mirrors merged rows to a secondary destination.
type Sink = ports.Sink

// SampleWriter appends records to a store.
type SampleWriter = ports.SampleWriter

// RowReader loads normalized rows from a store.
type RowReader = ports.RowReader

// RowQueue parks merged rows whose append failed transiently.
type RowQueue = ports.RowQueue

// Observability emits logs and metrics.
type Observability = ports.Observability

// Field is a structured log field.
type Field = ports.Field

// Pinger and Capturer are the measurement hooks behind the built-in collectors.
type (
	Pinger   = probe.Pinger
	Capturer = probe.Capturer
	Packet   = probe.Packet
)

// ErrPersistent marks store failures that stop the merger.
var ErrPersistent = ports.ErrPersistent
