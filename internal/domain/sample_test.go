package domain

import (
	"strings"
	"testing"
	"time"
)

var ts = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func TestMergedRowRecord(t *testing.T) {
	row := MergedRow{
		Timestamp:   ts,
		LatencyMs:   Some(12.5),
		JitterMs:    Some(1.2),
		LossPercent: Some(0),
		TotalBytes:  Some(15000),
		TotalPkts:   Some(100),
		TCP:         Some(60),
		UDP:         Some(30),
		ICMP:        Some(5),
		Other:       Some(5),
	}
	got := strings.Join(row.Record(), ",")
	if got != "2024-01-01 10:00:00,12.5,1.2,0,15000,100,60,30,5,5" {
		t.Fatalf("unexpected record %s", got)
	}
	if len(row.Record()) != MergedSchema.Width() {
		t.Fatalf("record width must match the merged schema")
	}

	empty := MergedRow{Timestamp: ts}
	if got := strings.Join(empty.Record(), ","); got != "2024-01-01 10:00:00,NaN,NaN,NaN,NaN,NaN,NaN,NaN,NaN,NaN" {
		t.Fatalf("unexpected unavailable record %s", got)
	}
}

func TestSampleRecords(t *testing.T) {
	lat := LatencySample{Timestamp: ts, Host: "8.8.8.8", LatencyMs: Some(12.345), JitterMs: Absent, LossPercent: 33.33}
	if got := strings.Join(lat.Record(), ","); got != "2024-01-01 10:00:00,8.8.8.8,12.345,NaN,33.33" {
		t.Fatalf("unexpected latency record %s", got)
	}
	// loss is written exactly so it reads back as the same number
	lat.LossPercent = 100.0 / 3
	loss, ok := ParseNumber(lat.Record()[4])
	if !ok || float64(loss) != 100.0/3 {
		t.Fatalf("loss did not survive the round trip: %s", lat.Record()[4])
	}

	counts := ProtocolCounts{TCP: 3, UDP: 2, ICMP: 1, Other: 4, TotalBytes: 999}
	tr := TrafficSample{Timestamp: ts, Iface: "br0", Counts: counts}
	if got := strings.Join(tr.Record(), ","); got != "2024-01-01 10:00:00,br0,10,3,2,1,4,999" {
		t.Fatalf("unexpected traffic record %s", got)
	}

	ts2 := TsharkSample{Timestamp: ts, CaptureTime: 10 * time.Second, Counts: counts}
	if got := strings.Join(ts2.Record(), ","); got != "2024-01-01 10:00:00,default,10,10,3,2,1,4,999" {
		t.Fatalf("unexpected tshark record %s", got)
	}
}

func TestOptionalOf(t *testing.T) {
	row := NewRow([]Cell{{Name: "latency_ms", Kind: KindNumber, Num: 9}})
	if got := OptionalOf(row, true, "latency_ms"); !got.Valid || got.Value != 9 {
		t.Fatalf("expected present 9, got %+v", got)
	}
	if got := OptionalOf(row, false, "latency_ms"); got.Valid {
		t.Fatalf("absent row must give absent value")
	}
	if got := OptionalOf(row, true, "jitter_ms"); !got.Valid || got.Value != 0 {
		t.Fatalf("missing column of a present row reads as zero, got %+v", got)
	}
}

func TestSchemas(t *testing.T) {
	if LatencySchema.Index("loss_percent") != 4 || LatencySchema.Index("nope") != -1 {
		t.Fatalf("unexpected latency schema indexes")
	}
	if KindOf("iface") != KindText || KindOf("tcp") != KindNumber {
		t.Fatalf("unexpected column kinds")
	}
	if NormalizeName("  Total_Bytes ") != "total_bytes" {
		t.Fatalf("unexpected normalization")
	}
	if got := strings.Join(TsharkSchema.Names(), ","); got != "timestamp,iface,capture_time_s,total_pkts,tcp,udp,icmp,other,total_bytes" {
		t.Fatalf("unexpected tshark header %s", got)
	}
}
