package diag

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLSink is a MySQL implementation of Sink for shared deployments where
// diagnostics from many engine processes land in one place.
//
// The schema matches SQLiteSink's so tooling can query either backend.
type MySQLSink struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewMySQLSink creates a MySQL-backed sink using the given DSN, e.g.
// "user:pass@tcp(localhost:3306)/execgraph?parseTime=true". The schema is
// created if missing; parseTime must be enabled so timestamps scan into
// time.Time.
func NewMySQLSink(dsn string) (*MySQLSink, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	s := &MySQLSink{db: db}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *MySQLSink) createTables(ctx context.Context) error {
	table := `
		CREATE TABLE IF NOT EXISTS diagnostics (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			round VARCHAR(64) NOT NULL,
			severity VARCHAR(32) NOT NULL,
			path VARCHAR(1024) NOT NULL,
			computation VARCHAR(255) NOT NULL,
			msg TEXT NOT NULL,
			recorded_at TIMESTAMP(6) NOT NULL,
			INDEX idx_diagnostics_round (round)
		)
	`
	if _, err := s.db.ExecContext(ctx, table); err != nil {
		return fmt.Errorf("failed to create diagnostics table: %w", err)
	}
	return nil
}

// Record inserts d.
func (s *MySQLSink) Record(ctx context.Context, d Diagnostic) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("sink is closed")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO diagnostics (round, severity, path, computation, msg, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.Round, string(d.Severity), d.Path, d.Computation, d.Msg, d.Time)
	if err != nil {
		return fmt.Errorf("failed to record diagnostic: %w", err)
	}
	return nil
}

// List returns the diagnostics recorded for round, oldest first.
func (s *MySQLSink) List(ctx context.Context, round string) ([]Diagnostic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("sink is closed")
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT round, severity, path, computation, msg, recorded_at
		FROM diagnostics WHERE round = ? ORDER BY id`, round)
	if err != nil {
		return nil, fmt.Errorf("failed to query diagnostics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []Diagnostic
	for rows.Next() {
		var d Diagnostic
		var severity string
		if err := rows.Scan(
			&d.Round, &severity, &d.Path, &d.Computation, &d.Msg, &d.Time,
		); err != nil {
			return nil, fmt.Errorf("failed to scan diagnostic: %w", err)
		}
		d.Severity = Severity(severity)
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read diagnostics: %w", err)
	}
	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}

// Close closes the underlying database.
func (s *MySQLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// Ensure every sink satisfies Sink.
var (
	_ Sink = (*MemorySink)(nil)
	_ Sink = (*SQLiteSink)(nil)
	_ Sink = (*MySQLSink)(nil)
)
