package sink

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"dashboard-service/pkg/models"
)

const createSystemMetricsTable = `
CREATE TABLE IF NOT EXISTS system_metrics (
	id            BIGSERIAL PRIMARY KEY,
	sample_id     INTEGER NOT NULL,
	timestamp     TIMESTAMPTZ NOT NULL,
	cpu_usage     DOUBLE PRECISION NOT NULL,
	memory_usage  DOUBLE PRECISION NOT NULL,
	disk_usage    DOUBLE PRECISION NOT NULL,
	network_io    DOUBLE PRECISION NOT NULL,
	recorded_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const insertSystemMetrics = `
INSERT INTO system_metrics (sample_id, timestamp, cpu_usage, memory_usage, disk_usage, network_io)
VALUES ($1, $2, $3, $4, $5, $6)`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// PostgresSink appends each new metrics sample to the system_metrics table.
// A sample already written, or the zero-id placeholder, is skipped.
type PostgresSink struct {
	db execer

	mu     sync.Mutex
	lastID int
}

func NewPostgresSink(db execer) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) Name() string { return "postgres" }

// EnsureSchema creates the metrics table if it does not exist.
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createSystemMetricsTable); err != nil {
		return fmt.Errorf("failed to create system_metrics table: %w", err)
	}
	return nil
}

func (s *PostgresSink) Write(ctx context.Context, snapshot models.RealtimeData) error {
	m := snapshot.Metrics

	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == 0 || m.ID == s.lastID {
		return nil
	}

	_, err := s.db.ExecContext(ctx, insertSystemMetrics,
		m.ID, m.Timestamp, m.CPUUsage, m.MemoryUsage, m.DiskUsage, m.NetworkIO,
	)
	if err != nil {
		return fmt.Errorf("failed to insert metrics sample %d: %w", m.ID, err)
	}

	s.lastID = m.ID
	return nil
}
