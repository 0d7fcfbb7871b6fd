// Package diag defines diagnostic records for compilation failures and
// pluggable sinks that retain them for post-mortem inspection.
//
// The engine itself keeps no persistent state; sinks are an optional
// attachment. Implementations include in-memory (testing), SQLite
// (zero-setup local inspection), and MySQL (shared deployments).
package diag

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested round has no recorded
// diagnostics.
var ErrNotFound = errors.New("not found")

// Severity classifies a diagnostic.
type Severity string

const (
	// SeverityWarning marks conditions that degrade a result without
	// nulling it.
	SeverityWarning Severity = "warning"

	// SeverityError marks compilation failures: the associated value key
	// compiled to a null output.
	SeverityError Severity = "error"

	// SeverityCodingError marks programmer errors observed inside the
	// engine.
	SeverityCodingError Severity = "coding-error"
)

// Diagnostic is one recorded compilation or uncompilation finding.
type Diagnostic struct {
	// Round identifies the compilation round that produced the finding.
	Round string

	// Severity classifies the finding.
	Severity Severity

	// Path is the scene path the finding is anchored at, if any.
	Path string

	// Computation is the computation name involved, if any.
	Computation string

	// Msg is the human-readable description.
	Msg string

	// Time is when the finding was recorded.
	Time time.Time
}

// Sink retains diagnostics.
//
// Implementations must be safe for concurrent Record calls: compilation
// tasks report from many goroutines. Record must not block compilation on
// slow backends longer than necessary and must not panic.
type Sink interface {
	// Record retains one diagnostic.
	Record(ctx context.Context, d Diagnostic) error

	// List returns the diagnostics recorded for a round, oldest first.
	// Returns ErrNotFound if the round recorded none.
	List(ctx context.Context, round string) ([]Diagnostic, error)

	// Close releases the sink's resources. A closed sink rejects further
	// calls.
	Close() error
}
