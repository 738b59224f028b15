// Package evallog persists an optional audit trail of model evaluation
// calls handled by the server. It is wired in as a post-dispatch hook on the
// request pipeline (see server/handlers.go) and is never on the hot path
// that decides whether a call succeeds: a Writer failure is logged and
// swallowed, never surfaced to the caller.
package evallog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Entry represents one completed (or failed) model operation call.
type Entry struct {
	TraceID      string
	Model        string
	Operation    string // "Evaluate", "Gradient", "ApplyJacobian", "ApplyHessian"
	ShMem        bool
	DurationMS   int64
	Success      bool
	ErrorType    string
	ErrorMessage string
	CreatedAt    time.Time
}

// Query defines evaluation log listing filters.
type Query struct {
	Limit     int
	Offset    int
	Model     string
	Operation string
	Since     *time.Time
}

// ListResult is a paginated evaluation log query response.
type ListResult struct {
	Data  []Entry
	Total int
}

// Writer persists evaluation log entries.
type Writer interface {
	Write(ctx context.Context, entry Entry) error
}

// Reader loads evaluation log entries from persistent storage.
type Reader interface {
	List(ctx context.Context, query Query) (ListResult, error)
}

// NoopWriter discards all log writes. It is the default when no DSN is
// configured, so audit logging stays fully optional.
type NoopWriter struct{}

func (NoopWriter) Write(_ context.Context, _ Entry) error { return nil }

// SQLWriter persists entries to SQLite or Postgres, selected at
// construction time by which of NewSQLiteWriter/NewPostgresWriter is called.
type SQLWriter struct {
	db      *sql.DB
	dialect string
}

// NewSQLiteWriter opens (creating if absent) a SQLite-backed evaluation log.
// dsn can be a file path (e.g. /var/lib/umbridge/evals.db) or SQLite DSN.
func NewSQLiteWriter(dsn string) (*SQLWriter, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = "umbridge-evals.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite eval log writer: %w", err)
	}
	w := &SQLWriter{db: db, dialect: "sqlite"}
	if err := w.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

// NewPostgresWriter opens a Postgres-backed evaluation log.
func NewPostgresWriter(dsn string) (*SQLWriter, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres eval log writer: %w", err)
	}
	w := &SQLWriter{db: db, dialect: "postgres"}
	if err := w.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

func (w *SQLWriter) init() error {
	if err := w.db.Ping(); err != nil {
		return fmt.Errorf("ping %s eval log writer: %w", w.dialect, err)
	}

	ddl := `
CREATE TABLE IF NOT EXISTS eval_logs (
	id INTEGER PRIMARY KEY,
	trace_id TEXT,
	model TEXT NOT NULL,
	operation TEXT NOT NULL,
	shmem INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	success INTEGER NOT NULL,
	error_type TEXT,
	error_message TEXT,
	created_at TIMESTAMP NOT NULL
);`

	if w.dialect == "postgres" {
		ddl = `
CREATE TABLE IF NOT EXISTS eval_logs (
	id BIGSERIAL PRIMARY KEY,
	trace_id TEXT,
	model TEXT NOT NULL,
	operation TEXT NOT NULL,
	shmem BOOLEAN NOT NULL,
	duration_ms BIGINT NOT NULL,
	success BOOLEAN NOT NULL,
	error_type TEXT,
	error_message TEXT,
	created_at TIMESTAMPTZ NOT NULL
);`
	}

	if _, err := w.db.Exec(ddl); err != nil {
		return fmt.Errorf("initialize eval log schema: %w", err)
	}
	return nil
}

// Write persists entry. CreatedAt defaults to now (UTC) when zero.
func (w *SQLWriter) Write(ctx context.Context, entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO eval_logs(trace_id, model, operation, shmem, duration_ms, success, error_type, error_message, created_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if w.dialect == "postgres" {
		query = `INSERT INTO eval_logs(trace_id, model, operation, shmem, duration_ms, success, error_type, error_message, created_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	}

	_, err := w.db.ExecContext(ctx, query,
		entry.TraceID,
		entry.Model,
		entry.Operation,
		entry.ShMem,
		entry.DurationMS,
		entry.Success,
		entry.ErrorType,
		entry.ErrorMessage,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("write eval log: %w", err)
	}
	return nil
}

// List returns paginated evaluation log entries with optional filters.
func (w *SQLWriter) List(ctx context.Context, query Query) (ListResult, error) {
	if query.Limit <= 0 {
		query.Limit = 50
	}
	if query.Limit > 200 {
		query.Limit = 200
	}
	if query.Offset < 0 {
		query.Offset = 0
	}

	whereClauses := make([]string, 0)
	args := make([]interface{}, 0)

	if query.Model != "" {
		whereClauses = append(whereClauses, "model = ?")
		args = append(args, query.Model)
	}
	if query.Operation != "" {
		whereClauses = append(whereClauses, "operation = ?")
		args = append(args, query.Operation)
	}
	if query.Since != nil {
		whereClauses = append(whereClauses, "created_at >= ?")
		args = append(args, query.Since.UTC())
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM eval_logs" + whereSQL
	if w.dialect == "postgres" {
		countQuery = bindPostgres(countQuery)
	}

	var total int
	if err := w.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return ListResult{}, fmt.Errorf("count eval logs: %w", err)
	}

	listQuery := "SELECT trace_id, model, operation, shmem, duration_ms, success, error_type, error_message, created_at FROM eval_logs" + whereSQL + " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	listArgs := append(args, query.Limit, query.Offset)
	if w.dialect == "postgres" {
		listQuery = bindPostgres(listQuery)
	}

	rows, err := w.db.QueryContext(ctx, listQuery, listArgs...)
	if err != nil {
		return ListResult{}, fmt.Errorf("list eval logs: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e        Entry
			traceID  sql.NullString
			errType  sql.NullString
			errMsg   sql.NullString
		)
		if err := rows.Scan(&traceID, &e.Model, &e.Operation, &e.ShMem, &e.DurationMS, &e.Success, &errType, &errMsg, &e.CreatedAt); err != nil {
			return ListResult{}, fmt.Errorf("scan eval log row: %w", err)
		}
		if traceID.Valid {
			e.TraceID = traceID.String
		}
		if errType.Valid {
			e.ErrorType = errType.String
		}
		if errMsg.Valid {
			e.ErrorMessage = errMsg.String
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return ListResult{}, fmt.Errorf("iterate eval logs: %w", err)
	}

	return ListResult{Data: entries, Total: total}, nil
}

func bindPostgres(query string) string {
	var (
		builder strings.Builder
		index   = 1
	)
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			builder.WriteString(fmt.Sprintf("$%d", index))
			index++
			continue
		}
		builder.WriteByte(query[i])
	}
	return builder.String()
}

// Close releases the underlying database handle.
func (w *SQLWriter) Close() error {
	if w == nil || w.db == nil {
		return nil
	}
	return w.db.Close()
}
