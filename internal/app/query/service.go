package query

import (
	"math"

	"github.com/Mojinnn/PBL3-project/internal/domain"
	"github.com/Mojinnn/PBL3-project/internal/ports"
)

// Stores are the files the query service reads.
type Stores struct {
	Traffic string
	Tshark  string
	Merged  string
}

// Service answers dashboard queries. It holds no state between calls; every
// call re-reads the stores.
type Service struct {
	stores Stores
	reader ports.RowReader
	obs    ports.Observability
	tail   int
}

func NewService(stores Stores, r ports.RowReader, pol ports.Policy, obs ports.Observability) *Service {
	tail := pol.TailWindow
	if tail <= 0 {
		tail = 20
	}
	return &Service{stores: stores, reader: r, obs: obs, tail: tail}
}

// Summary returns the merged tail, oldest first.
func (s *Service) Summary() ([]domain.Row, error) {
	return s.reader.ReadTail(s.stores.Merged, domain.MergedSchema, s.tail)
}

func (s *Service) TrafficSummary() ([]domain.Row, error) {
	return s.tailWithFallback(s.stores.Traffic, domain.TrafficSchema, s.tail, trafficFromMerged)
}

// TrafficLatest returns the newest primary capture row, or an empty row when
// neither the capture store nor the merged store has one.
func (s *Service) TrafficLatest() (domain.Row, error) {
	return latest(s.tailWithFallback(s.stores.Traffic, domain.TrafficSchema, 1, trafficFromMerged))
}

func (s *Service) TsharkSummary() ([]domain.Row, error) {
	return s.tailWithFallback(s.stores.Tshark, domain.TsharkSchema, s.tail, tsharkFromMerged)
}

func (s *Service) TsharkLatest() (domain.Row, error) {
	return latest(s.tailWithFallback(s.stores.Tshark, domain.TsharkSchema, 1, tsharkFromMerged))
}

func latest(rows []domain.Row, err error) (domain.Row, error) {
	if err != nil || len(rows) == 0 {
		return domain.Row{}, err
	}
	return rows[len(rows)-1], nil
}

// tailWithFallback reads the capture store and, when it yields nothing,
// derives rows from the merged store with remap.
func (s *Service) tailWithFallback(path string, schema domain.Schema, n int, remap func(domain.Row) domain.Row) ([]domain.Row, error) {
	rows, err := s.reader.ReadTail(path, schema, n)
	if err != nil {
		s.obs.LogError("query_read_failed", err,
			ports.Field{Key: "source", Value: schema.Name},
			ports.Field{Key: "fallback", Value: "merged"})
	}
	if len(rows) > 0 {
		return rows, nil
	}

	merged, err := s.reader.ReadTail(s.stores.Merged, domain.MergedSchema, n)
	if err != nil {
		return []domain.Row{}, err
	}
	out := make([]domain.Row, len(merged))
	for i, r := range merged {
		out[i] = remap(r)
	}
	return out, nil
}

func trafficFromMerged(r domain.Row) domain.Row {
	packets := "total_pkts"
	if r.Has("total_packets") {
		packets = "total_packets"
	}
	return domain.NewRow([]domain.Cell{
		text("timestamp", r.Text("timestamp")),
		text("iface", r.Text("iface")),
		count("total_packets", r, packets),
		count("tcp", r, "tcp"),
		count("udp", r, "udp"),
		count("icmp", r, "icmp"),
		count("other", r, "other"),
		count("total_bytes", r, "total_bytes"),
	})
}

func tsharkFromMerged(r domain.Row) domain.Row {
	return domain.NewRow([]domain.Cell{
		text("timestamp", r.Text("timestamp")),
		text("iface", r.Text("iface")),
		count("total_pkts", r, "total_pkts"),
		count("tcp", r, prefer(r, "tshark_tcp", "tcp")),
		count("udp", r, prefer(r, "tshark_udp", "udp")),
		count("icmp", r, prefer(r, "tshark_icmp", "icmp")),
		count("other", r, prefer(r, "tshark_other", "other")),
		count("total_bytes", r, prefer(r, "tshark_bytes", "total_bytes")),
	})
}

func prefer(r domain.Row, name, fallback string) string {
	if r.Has(name) {
		return name
	}
	return fallback
}

func text(name, v string) domain.Cell {
	return domain.Cell{Name: name, Kind: domain.KindText, Text: v}
}

// count truncates toward zero; derived rows carry whole packet and byte counts.
func count(name string, r domain.Row, from string) domain.Cell {
	return domain.Cell{Name: name, Kind: domain.KindNumber, Num: domain.Number(math.Trunc(float64(r.Number(from))))}
}
