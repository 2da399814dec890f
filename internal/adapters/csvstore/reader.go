package csvstore

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Mojinnn/PBL3-project/internal/domain"
	"github.com/Mojinnn/PBL3-project/internal/ports"
)

// Reader loads the most recent rows of a store and normalizes them against a
// schema. Irregular content never becomes an error: missing files read as
// empty, missing columns and unparsable numbers read as zero.
type Reader struct {
	obs       ports.Observability
	blockSize int
}

func NewReader(obs ports.Observability) *Reader {
	return &Reader{obs: obs, blockSize: defaultBlockSize}
}

// ReadLatest returns the last row of path. ok is false when the store holds no rows.
func (r *Reader) ReadLatest(path string, schema domain.Schema) (domain.Row, bool, error) {
	rows, err := r.ReadTail(path, schema, 1)
	if err != nil || len(rows) == 0 {
		return domain.Row{}, false, err
	}
	return rows[0], true, nil
}

// ReadTail returns at most n rows from the end of path in append order.
func (r *Reader) ReadTail(path string, schema domain.Schema, n int) ([]domain.Row, error) {
	rows := []domain.Row{}
	if n <= 0 {
		return rows, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return rows, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	head, lines, err := scanTail(f, n, r.blockSize)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(head)) == 0 && len(lines) == 0 {
		return rows, nil
	}

	headFields, headOK := parseLine(head)
	records := make([][]string, 0, len(lines)+1)
	if !headOK || !isHeader(headFields, schema) {
		// no header line: the first line is data
		if headOK {
			records = append(records, headFields)
		}
		headFields = nil
	}
	for _, line := range lines {
		fields, ok := parseLine(line)
		if !ok {
			r.count("netwatch_reader_skipped_lines_total", 1, schema.Name)
			continue
		}
		records = append(records, fields)
	}
	if len(records) > n {
		records = records[len(records)-n:]
	}

	names := columnNames(headFields, records, schema)
	coerced := 0
	for _, rec := range records {
		row, c := r.normalize(rec, names, schema)
		rows = append(rows, row)
		coerced += c
	}
	if coerced > 0 {
		r.count("netwatch_reader_coerced_cells_total", float64(coerced), schema.Name)
		if r.obs != nil {
			r.obs.LogInfo("reader_coerced_cells",
				ports.Field{Key: "source", Value: schema.Name},
				ports.Field{Key: "path", Value: path},
				ports.Field{Key: "cells", Value: coerced})
		}
	}
	return rows, nil
}

// columnNames picks the header names when they describe every row, and
// falls back to positional schema names otherwise.
func columnNames(header []string, records [][]string, schema domain.Schema) []string {
	if header == nil {
		return schema.Names()
	}
	for _, rec := range records {
		if len(rec) > len(header) {
			return schema.Names()
		}
	}
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = domain.NormalizeName(h)
	}
	return names
}

// isHeader accepts a line that names at least one schema column and carries
// no numeric or unavailable cells; every schema has numeric columns, so a
// data line always fails the second test.
func isHeader(fields []string, schema domain.Schema) bool {
	named := false
	for _, f := range fields {
		if _, ok := domain.ParseNumber(f); ok || strings.TrimSpace(f) == domain.Unavailable {
			return false
		}
		if schema.Index(domain.NormalizeName(f)) >= 0 {
			named = true
		}
	}
	return named
}

// normalize maps rec onto the schema and reports how many cells it coerced.
func (r *Reader) normalize(rec, names []string, schema domain.Schema) (domain.Row, int) {
	pos := make(map[string]int, len(names))
	for i, name := range names {
		if _, dup := pos[name]; !dup && name != "" {
			pos[name] = i
		}
	}

	cells := make([]domain.Cell, 0, len(names)+schema.Width())
	coerced := 0
	add := func(name string, kind domain.ColumnKind, raw string) {
		c, ok := cell(name, kind, raw)
		if !ok {
			coerced++
		}
		cells = append(cells, c)
	}
	for _, col := range schema.Columns {
		raw := ""
		if i, ok := pos[col.Name]; ok && i < len(rec) {
			raw = rec[i]
		}
		add(col.Name, col.Kind, raw)
	}
	for i, name := range names {
		if name == "" || schema.Index(name) >= 0 || pos[name] != i {
			continue
		}
		raw := ""
		if i < len(rec) {
			raw = rec[i]
		}
		add(name, domain.KindOf(name), raw)
	}
	return domain.NewRow(cells), coerced
}

// cell builds one cell; ok is false when a non-empty numeric cell other than
// the unavailable marker had to be read as zero.
func cell(name string, kind domain.ColumnKind, raw string) (domain.Cell, bool) {
	if kind == domain.KindText {
		return domain.Cell{Name: name, Kind: kind, Text: raw}, true
	}
	num, ok := domain.ParseNumber(raw)
	return domain.Cell{Name: name, Kind: kind, Num: num}, ok || raw == "" || raw == domain.Unavailable
}

func (r *Reader) count(name string, v float64, source string) {
	if r.obs != nil {
		r.obs.IncCounter(name, v, source)
	}
}

func parseLine(line []byte) ([]string, bool) {
	if len(bytes.TrimSpace(line)) == 0 {
		return nil, false
	}
	cr := csv.NewReader(bytes.NewReader(line))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	fields, err := cr.Read()
	if err != nil {
		return nil, false
	}
	return fields, true
}

var _ ports.RowReader = (*Reader)(nil)
