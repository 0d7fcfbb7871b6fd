package diag

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func sampleDiagnostic(round string) Diagnostic {
	return Diagnostic{
		Round:       round,
		Severity:    SeverityError,
		Path:        "/Rig",
		Computation: "foo",
		Msg:         "no computation definition for provider",
		Time:        time.Now().UTC().Truncate(time.Microsecond),
	}
}

// sinkTest exercises the Sink contract shared by every implementation.
func sinkTest(t *testing.T, sink Sink) {
	t.Helper()
	ctx := context.Background()

	if _, err := sink.List(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("List(missing) err = %v, want ErrNotFound", err)
	}

	first := sampleDiagnostic("round-1")
	second := sampleDiagnostic("round-1")
	second.Msg = "second finding"
	if err := sink.Record(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := sink.Record(ctx, second); err != nil {
		t.Fatal(err)
	}
	if err := sink.Record(ctx, sampleDiagnostic("round-2")); err != nil {
		t.Fatal(err)
	}

	ds, err := sink.List(ctx, "round-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(ds) != 2 {
		t.Fatalf("List(round-1) = %d diagnostics, want 2", len(ds))
	}
	if ds[0].Msg != first.Msg || ds[1].Msg != second.Msg {
		t.Error("diagnostics must come back oldest first")
	}
	if ds[0].Severity != SeverityError || ds[0].Path != "/Rig" {
		t.Errorf("round-trip mismatch: %+v", ds[0])
	}

	// Concurrent records must not race.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sink.Record(ctx, sampleDiagnostic("round-3"))
		}()
	}
	wg.Wait()
	ds, err = sink.List(ctx, "round-3")
	if err != nil || len(ds) != 16 {
		t.Fatalf("List(round-3) = %d, %v; want 16", len(ds), err)
	}

	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestMemorySink(t *testing.T) {
	sinkTest(t, NewMemorySink())
}

func TestSQLiteSink(t *testing.T) {
	sink, err := NewSQLiteSink(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	sinkTest(t, sink)
}

func TestMemorySinkAll(t *testing.T) {
	sink := NewMemorySink()
	ctx := context.Background()
	_ = sink.Record(ctx, sampleDiagnostic("a"))
	_ = sink.Record(ctx, sampleDiagnostic("b"))

	all := sink.All()
	if len(all) != 2 || len(all["a"]) != 1 || len(all["b"]) != 1 {
		t.Errorf("All = %v", all)
	}
}
