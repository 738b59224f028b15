package evallog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteWriter_WriteAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evals.db")
	w, err := NewSQLiteWriter(path)
	if err != nil {
		t.Fatalf("new sqlite writer: %v", err)
	}
	t.Cleanup(func() {
		_ = w.Close()
	})

	now := time.Now().UTC()
	entries := []Entry{
		{
			TraceID:    "trace-1",
			Model:      "forward",
			Operation:  "Evaluate",
			DurationMS: 2,
			Success:    true,
			CreatedAt:  now.Add(-2 * time.Hour),
		},
		{
			TraceID:    "trace-2",
			Model:      "forward",
			Operation:  "Evaluate",
			ShMem:      true,
			DurationMS: 1,
			Success:    true,
			CreatedAt:  now.Add(-1 * time.Hour),
		},
		{
			TraceID:      "trace-3",
			Model:        "gaussian1d",
			Operation:    "Gradient",
			DurationMS:   5,
			Success:      false,
			ErrorType:    "InvalidInput",
			ErrorMessage: "sens has invalid length",
			CreatedAt:    now,
		},
	}

	for _, entry := range entries {
		if err := w.Write(context.Background(), entry); err != nil {
			t.Fatalf("write eval log entry: %v", err)
		}
	}

	result, err := w.List(context.Background(), Query{Limit: 10})
	if err != nil {
		t.Fatalf("list logs: %v", err)
	}
	if result.Total != 3 || len(result.Data) != 3 {
		t.Fatalf("expected 3 logs, total=%d len=%d", result.Total, len(result.Data))
	}

	filtered, err := w.List(context.Background(), Query{Limit: 10, Operation: "Gradient"})
	if err != nil {
		t.Fatalf("list filtered logs: %v", err)
	}
	if filtered.Total != 1 || len(filtered.Data) != 1 {
		t.Fatalf("expected 1 Gradient log, total=%d len=%d", filtered.Total, len(filtered.Data))
	}
	if filtered.Data[0].TraceID != "trace-3" {
		t.Fatalf("unexpected filtered trace id: %s", filtered.Data[0].TraceID)
	}
	if filtered.Data[0].Success {
		t.Fatalf("expected trace-3 to be recorded as a failure")
	}

	byModel, err := w.List(context.Background(), Query{Limit: 10, Model: "forward"})
	if err != nil {
		t.Fatalf("list by model: %v", err)
	}
	if byModel.Total != 2 {
		t.Fatalf("expected 2 forward logs, got %d", byModel.Total)
	}
}

func TestNoopWriter(t *testing.T) {
	var w NoopWriter
	if err := w.Write(context.Background(), Entry{Model: "forward"}); err != nil {
		t.Fatalf("noop writer should never error: %v", err)
	}
}

func TestPostgresWriterContract(t *testing.T) {
	dsn := os.Getenv("UMBRIDGE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("set UMBRIDGE_TEST_POSTGRES_DSN to run Postgres evallog integration tests")
	}

	w, err := NewPostgresWriter(dsn)
	if err != nil {
		t.Fatalf("new postgres writer: %v", err)
	}
	t.Cleanup(func() {
		_, _ = w.db.Exec("DELETE FROM eval_logs")
		_ = w.Close()
	})

	_, _ = w.db.Exec("DELETE FROM eval_logs")

	entry := Entry{
		TraceID:    "pg-trace",
		Model:      "forward",
		Operation:  "Evaluate",
		DurationMS: 3,
		Success:    true,
		CreatedAt:  time.Now().UTC(),
	}
	if err := w.Write(context.Background(), entry); err != nil {
		t.Fatalf("write postgres log: %v", err)
	}

	result, err := w.List(context.Background(), Query{Limit: 10, Model: "forward"})
	if err != nil {
		t.Fatalf("list postgres logs: %v", err)
	}
	if result.Total != 1 || len(result.Data) != 1 {
		t.Fatalf("expected 1 postgres log, total=%d len=%d", result.Total, len(result.Data))
	}
}
