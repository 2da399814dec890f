package sink

import (
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/Mojinnn/PBL3-project/internal/domain"
)

func TestTimescaleSinkWriteBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink := NewTimescaleSink(db, "merged_summary")
	ts := time.Date(2024, 1, 1, 10, 1, 0, 0, time.UTC)

	rows := []domain.MergedRow{{
		Timestamp:   ts,
		LatencyMs:   domain.Some(12.5),
		JitterMs:    domain.Some(1.2),
		LossPercent: domain.Some(0),
		TotalBytes:  domain.Some(15000),
		TotalPkts:   domain.Some(100),
		TCP:         domain.Some(60),
		UDP:         domain.Some(30),
		ICMP:        domain.Some(5),
		Other:       domain.Absent,
	}}

	expectedQuery := regexp.QuoteMeta("INSERT INTO merged_summary (ts, latency_ms, jitter_ms, loss_percent, total_bytes, total_pkts, tcp, udp, icmp, other) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) ON CONFLICT (ts) DO NOTHING")
	mock.ExpectExec(expectedQuery).
		WithArgs(ts, 12.5, 1.2, 0.0, 15000.0, 100.0, 60.0, 30.0, 5.0, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := sink.WriteBatch(rows); err != nil {
		t.Fatalf("write batch: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleSinkWriteBatchPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink := NewTimescaleSink(db, "m")
	rows := []domain.MergedRow{{Timestamp: time.Unix(0, 0)}, {Timestamp: time.Unix(60, 0)}}

	mock.ExpectExec(regexp.QuoteMeta("VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10),($11,$12,$13,$14,$15,$16,$17,$18,$19,$20) ON CONFLICT")).
		WillReturnError(sql.ErrConnDone)

	if err := sink.WriteBatch(rows); !errors.Is(err, sql.ErrConnDone) {
		t.Fatalf("expected driver error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleSinkWriteBatchNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	sink := NewTimescaleSink(db, "merged_summary")
	if err := sink.WriteBatch(nil); err != nil {
		t.Fatalf("expected nil error for empty batch, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTimescaleSinkName(t *testing.T) {
	db, _, _ := sqlmock.New()
	defer db.Close()

	sink := NewTimescaleSink(db, "merged_summary")
	if sink.Name() != "timescaledb" {
		t.Fatalf("expected sink name timescaledb, got %s", sink.Name())
	}
}
