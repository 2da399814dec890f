package domain

import "strings"

// ColumnKind tells the reader whether a cell is kept verbatim or coerced to a number.
type ColumnKind uint8

const (
	KindNumber ColumnKind = iota
	KindText
)

// Column is one declared field of a store schema.
type Column struct {
	Name string
	Kind ColumnKind
}

// Schema is the fixed, ordered header of one store.
type Schema struct {
	Name    string
	Columns []Column
}

// identifierColumns are never coerced to numbers.
var identifierColumns = map[string]struct{}{
	"timestamp": {},
	"host":      {},
	"iface":     {},
	"interface": {},
}

// KindOf reports the kind a column with the given normalized name carries.
func KindOf(name string) ColumnKind {
	if _, ok := identifierColumns[name]; ok {
		return KindText
	}
	return KindNumber
}

// NormalizeName trims and lower-cases a column name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func newSchema(name string, columns ...string) Schema {
	s := Schema{Name: name, Columns: make([]Column, len(columns))}
	for i, c := range columns {
		s.Columns[i] = Column{Name: c, Kind: KindOf(c)}
	}
	return s
}

// Names returns the column names in header order.
func (s Schema) Names() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of name in the schema, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Width is the number of declared columns.
func (s Schema) Width() int { return len(s.Columns) }

// Store schemas. Column order is the on-disk header order.
var (
	LatencySchema = newSchema("latency",
		"timestamp", "host", "latency_ms", "jitter_ms", "loss_percent")

	TrafficSchema = newSchema("traffic",
		"timestamp", "iface", "total_packets", "tcp", "udp", "icmp", "other", "total_bytes")

	TsharkSchema = newSchema("tshark",
		"timestamp", "iface", "capture_time_s", "total_pkts", "tcp", "udp", "icmp", "other", "total_bytes")

	MergedSchema = newSchema("merged",
		"timestamp", "latency_ms", "jitter_ms", "loss_percent", "total_bytes", "total_pkts", "tcp", "udp", "icmp", "other")
)
