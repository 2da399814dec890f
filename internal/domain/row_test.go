package domain

import (
	"encoding/json"
	"math"
	"testing"
)

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want Number
		ok   bool
	}{
		{"12.5", 12.5, true},
		{" 7 ", 7, true},
		{"1e3", 1000, true},
		{"", 0, false},
		{"oops", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"-Inf", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseNumber(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ParseNumber(%q) = %v,%v want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNumberRendering(t *testing.T) {
	cases := map[Number]string{
		0:             "0",
		15000:         "15000",
		-3:            "-3",
		12.5:          "12.5",
		1.2:           "1.2",
		0.001:         "0.001",
		math.MaxInt32: "2147483647",
	}
	for n, want := range cases {
		if got := n.String(); got != want {
			t.Fatalf("Number(%v).String() = %s want %s", float64(n), got, want)
		}
	}
	if Number(1e300).IsIntegral() {
		t.Fatal("1e300 is outside the exact integer range")
	}
	if got := Number(1e300).String(); got == "" || got[0] != '1' {
		t.Fatalf("unexpected large number rendering %s", got)
	}
}

func TestRowKeepsColumnOrderAndFirstDuplicate(t *testing.T) {
	r := NewRow([]Cell{
		{Name: "timestamp", Kind: KindText, Text: "2024-01-01 10:00:00"},
		{Name: "tcp", Kind: KindNumber, Num: 5},
		{Name: "tcp", Kind: KindNumber, Num: 9},
		{Name: "jitter_ms", Kind: KindNumber, Num: 1.25},
	})
	if r.Len() != 3 {
		t.Fatalf("expected 3 cells, got %d", r.Len())
	}
	if r.Number("tcp") != 5 {
		t.Fatalf("expected first duplicate kept, got %v", r.Number("tcp"))
	}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"timestamp":"2024-01-01 10:00:00","tcp":5,"jitter_ms":1.25}`
	if string(b) != want {
		t.Fatalf("got %s want %s", b, want)
	}
}

func TestRowAccessors(t *testing.T) {
	r := NewRow([]Cell{
		{Name: "iface", Kind: KindText, Text: "eth0"},
		{Name: "udp", Kind: KindNumber, Num: 30},
	})
	if r.Text("iface") != "eth0" || r.Text("udp") != "30" || r.Text("missing") != "" {
		t.Fatalf("unexpected text accessors")
	}
	if r.Number("iface") != 0 || r.Number("missing") != 0 {
		t.Fatalf("text and missing cells read as zero")
	}
	if !r.Has("udp") || r.Has("tcp") {
		t.Fatalf("unexpected Has results")
	}
	if cols := r.Columns(); len(cols) != 2 || cols[0] != "iface" {
		t.Fatalf("unexpected columns %v", cols)
	}
}

func TestEmptyRowMarshalsAsObject(t *testing.T) {
	for _, r := range []Row{{}, NewRow(nil)} {
		b, err := json.Marshal(r)
		if err != nil || string(b) != "{}" {
			t.Fatalf("expected {}, got %s %v", b, err)
		}
	}
}
