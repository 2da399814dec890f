package domain

import (
	"strconv"
	"time"
)

// TimeLayout is the wall-clock format every store uses for its timestamp column.
const TimeLayout = "2006-01-02 15:04:05"

// Unavailable is written in place of a measurement that no producer supplied.
const Unavailable = "NaN"

// Optional is a measurement that may be absent.
type Optional struct {
	Value float64
	Valid bool
}

// Some wraps a present value.
func Some(v float64) Optional { return Optional{Value: v, Valid: true} }

// Absent is the zero Optional.
var Absent = Optional{}

func (o Optional) String() string {
	if !o.Valid {
		return Unavailable
	}
	return Number(o.Value).String()
}

// OptionalOf reads name from row when the row exists.
func OptionalOf(row Row, present bool, name string) Optional {
	if !present {
		return Absent
	}
	return Some(float64(row.Number(name)))
}

// LatencySample is one row of the latency store.
type LatencySample struct {
	Timestamp   time.Time
	Host        string
	LatencyMs   Optional
	JitterMs    Optional
	LossPercent float64
}

func (s LatencySample) Record() []string {
	return []string{
		s.Timestamp.Format(TimeLayout),
		s.Host,
		s.LatencyMs.String(),
		s.JitterMs.String(),
		Number(s.LossPercent).String(),
	}
}

// ProtocolCounts are per-protocol packet counts and the bytes they carried.
type ProtocolCounts struct {
	TCP        int64
	UDP        int64
	ICMP       int64
	Other      int64
	TotalBytes int64
}

// Total is the number of packets across all classes.
func (c ProtocolCounts) Total() int64 { return c.TCP + c.UDP + c.ICMP + c.Other }

// TrafficSample is one row of the primary capture store.
type TrafficSample struct {
	Timestamp time.Time
	Iface     string
	Counts    ProtocolCounts
}

func (s TrafficSample) Record() []string {
	c := s.Counts
	return []string{
		s.Timestamp.Format(TimeLayout),
		s.Iface,
		itoa(c.Total()),
		itoa(c.TCP),
		itoa(c.UDP),
		itoa(c.ICMP),
		itoa(c.Other),
		itoa(c.TotalBytes),
	}
}

// TsharkSample is one row of the secondary capture store.
type TsharkSample struct {
	Timestamp   time.Time
	Iface       string
	CaptureTime time.Duration
	Counts      ProtocolCounts
}

func (s TsharkSample) Record() []string {
	c := s.Counts
	iface := s.Iface
	if iface == "" {
		iface = "default"
	}
	return []string{
		s.Timestamp.Format(TimeLayout),
		iface,
		Number(s.CaptureTime.Seconds()).String(),
		itoa(c.Total()),
		itoa(c.TCP),
		itoa(c.UDP),
		itoa(c.ICMP),
		itoa(c.Other),
		itoa(c.TotalBytes),
	}
}

// MergedRow is the per-cycle aggregate written by the merger.
type MergedRow struct {
	Timestamp   time.Time
	LatencyMs   Optional
	JitterMs    Optional
	LossPercent Optional
	TotalBytes  Optional
	TotalPkts   Optional
	TCP         Optional
	UDP         Optional
	ICMP        Optional
	Other       Optional
}

// Record renders the row in MergedSchema order.
func (m MergedRow) Record() []string {
	return []string{
		m.Timestamp.Format(TimeLayout),
		m.LatencyMs.String(),
		m.JitterMs.String(),
		m.LossPercent.String(),
		m.TotalBytes.String(),
		m.TotalPkts.String(),
		m.TCP.String(),
		m.UDP.String(),
		m.ICMP.String(),
		m.Other.String(),
	}
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
