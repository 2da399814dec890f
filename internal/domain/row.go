package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a finite numeric cell. Integral values render without a fraction.
type Number float64

// maxExactInt is the largest magnitude a float64 holds without losing integers.
const maxExactInt = 1 << 53

// IsIntegral reports whether n has no fractional part and fits an int64 exactly.
func (n Number) IsIntegral() bool {
	f := float64(n)
	return f == math.Trunc(f) && math.Abs(f) <= maxExactInt
}

func (n Number) String() string {
	if n.IsIntegral() {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.String()), nil
}

// ParseNumber parses s leniently: anything that is not a finite number is zero.
// ok is false when s had to be coerced.
func ParseNumber(s string) (n Number, ok bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return Number(f), true
}

// Cell is one named value of a Row.
type Cell struct {
	Name string
	Kind ColumnKind
	Text string
	Num  Number
}

// Row is a normalized record: schema columns first, then any extra columns the store carried.
type Row struct {
	cells []Cell
	index map[string]int
}

// NewRow builds a row from cells, keeping the first cell for duplicate names.
func NewRow(cells []Cell) Row {
	r := Row{cells: make([]Cell, 0, len(cells)), index: make(map[string]int, len(cells))}
	for _, c := range cells {
		if _, dup := r.index[c.Name]; dup {
			continue
		}
		r.index[c.Name] = len(r.cells)
		r.cells = append(r.cells, c)
	}
	return r
}

// Len is the number of cells.
func (r Row) Len() int { return len(r.cells) }

// Columns returns the cell names in order.
func (r Row) Columns() []string {
	out := make([]string, len(r.cells))
	for i, c := range r.cells {
		out[i] = c.Name
	}
	return out
}

// Lookup returns the named cell.
func (r Row) Lookup(name string) (Cell, bool) {
	i, ok := r.index[name]
	if !ok {
		return Cell{}, false
	}
	return r.cells[i], true
}

// Has reports whether the row carries the column.
func (r Row) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Text returns the raw text of a text cell, or the rendered number of a number cell.
func (r Row) Text(name string) string {
	c, ok := r.Lookup(name)
	if !ok {
		return ""
	}
	if c.Kind == KindText {
		return c.Text
	}
	return c.Num.String()
}

// Number returns the numeric value of name; text or missing cells are zero.
func (r Row) Number(name string) Number {
	c, ok := r.Lookup(name)
	if !ok || c.Kind != KindNumber {
		return 0
	}
	return c.Num
}

// MarshalJSON renders the row as an object with keys in column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.cells {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if c.Kind == KindText {
			val, err := json.Marshal(c.Text)
			if err != nil {
				return nil, err
			}
			buf.Write(val)
			continue
		}
		buf.WriteString(c.Num.String())
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
