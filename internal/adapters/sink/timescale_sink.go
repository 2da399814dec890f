package sink

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/Mojinnn/PBL3-project/internal/domain"
	"github.com/Mojinnn/PBL3-project/internal/ports"
)

// TimescaleSink mirrors merged rows into a hypertable. Unavailable fields become NULL.
type TimescaleSink struct {
	db        *sql.DB
	tableName string
}

func NewTimescaleSink(db *sql.DB, table string) *TimescaleSink {
	return &TimescaleSink{db: db, tableName: table}
}

func (t *TimescaleSink) Name() string { return "timescaledb" }

const mergedColumns = 10

func (t *TimescaleSink) WriteBatch(rows []domain.MergedRow) error {
	if len(rows) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(t.tableName)
	b.WriteString(" (ts, latency_ms, jitter_ms, loss_percent, total_bytes, total_pkts, tcp, udp, icmp, other) VALUES ")

	args := make([]any, 0, len(rows)*mergedColumns)
	for i, r := range rows {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("(")
		for c := 1; c <= mergedColumns; c++ {
			if c > 1 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, "$%d", len(args)+c)
		}
		b.WriteString(")")

		args = append(args,
			r.Timestamp,
			nullable(r.LatencyMs),
			nullable(r.JitterMs),
			nullable(r.LossPercent),
			nullable(r.TotalBytes),
			nullable(r.TotalPkts),
			nullable(r.TCP),
			nullable(r.UDP),
			nullable(r.ICMP),
			nullable(r.Other),
		)
	}

	b.WriteString(" ON CONFLICT (ts) DO NOTHING")

	_, err := t.db.Exec(b.String(), args...)
	return err
}

func nullable(o domain.Optional) sql.NullFloat64 {
	return sql.NullFloat64{Float64: o.Value, Valid: o.Valid}
}

var _ ports.Sink = (*TimescaleSink)(nil)
