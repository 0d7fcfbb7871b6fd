package diag

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteSink is a SQLite implementation of Sink.
//
// It stores diagnostics in a single-file database. Designed for:
//   - Development and testing with zero setup
//   - Single-process engines
//   - Local post-mortem inspection of compile failures
//
// The sink uses WAL mode for concurrent reads and auto-migrates its schema
// on first use. Use ":memory:" as the path for an in-memory database.
type SQLiteSink struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
}

// NewSQLiteSink creates a SQLite-backed sink at the given database path,
// creating the file and schema as needed.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &SQLiteSink{db: db, path: path}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteSink) createTables(ctx context.Context) error {
	table := `
		CREATE TABLE IF NOT EXISTS diagnostics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			round TEXT NOT NULL,
			severity TEXT NOT NULL,
			path TEXT NOT NULL,
			computation TEXT NOT NULL,
			msg TEXT NOT NULL,
			recorded_at TIMESTAMP NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, table); err != nil {
		return fmt.Errorf("failed to create diagnostics table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"CREATE INDEX IF NOT EXISTS idx_diagnostics_round ON diagnostics(round)"); err != nil {
		return fmt.Errorf("failed to create idx_diagnostics_round: %w", err)
	}
	return nil
}

// Record inserts d.
func (s *SQLiteSink) Record(ctx context.Context, d Diagnostic) error {
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
func (s *SQLiteSink) List(ctx context.Context, round string) ([]Diagnostic, error) {
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
func (s *SQLiteSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
