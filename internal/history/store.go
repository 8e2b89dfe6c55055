package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes incompatibly.
const schemaVersion = 1

// ErrSchemaMismatch indicates the ledger was written by an incompatible version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Status is the outcome of one publish attempt.
type Status string

const (
	StatusPosted Status = "posted"
	StatusFailed Status = "failed"
)

// Attempt is one ledger row.
type Attempt struct {
	ID          int64
	RunID       string
	Video       string
	CaptionID   int
	Start       string
	End         string
	Body        string
	Status      Status
	PostID      string
	PostURL     string
	Error       string
	ClipBytes   int
	AttemptedAt time.Time
}

// Filter narrows List results. Zero values mean no restriction.
type Filter struct {
	RunID string
	Limit int
}

// Store is the SQLite-backed ledger.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Open creates or opens the ledger at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to start a new ledger)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

// Record appends an attempt and returns its row id.
func (s *Store) Record(ctx context.Context, attempt Attempt) (int64, error) {
	if attempt.AttemptedAt.IsZero() {
		attempt.AttemptedAt = time.Now()
	}
	if attempt.Status == "" {
		attempt.Status = StatusFailed
	}
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, `INSERT INTO attempts
			(run_id, video, caption_id, start_ts, end_ts, body, status, post_id, post_url, error, clip_bytes, attempted_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			attempt.RunID, attempt.Video, attempt.CaptionID, attempt.Start, attempt.End, attempt.Body,
			string(attempt.Status), nullable(attempt.PostID), nullable(attempt.PostURL), nullable(attempt.Error),
			attempt.ClipBytes, attempt.AttemptedAt.UTC().Format(time.RFC3339Nano))
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("record attempt: %w", err)
	}
	return res.LastInsertId()
}

// List returns attempts newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]Attempt, error) {
	query := `SELECT id, run_id, video, caption_id, start_ts, end_ts, body, status,
		COALESCE(post_id, ''), COALESCE(post_url, ''), COALESCE(error, ''), clip_bytes, attempted_at
		FROM attempts`
	var args []any
	if runID := strings.TrimSpace(filter.RunID); runID != "" {
		query += " WHERE run_id = ?"
		args = append(args, runID)
	}
	query += " ORDER BY id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var (
			a         Attempt
			status    string
			attempted string
		)
		if err := rows.Scan(&a.ID, &a.RunID, &a.Video, &a.CaptionID, &a.Start, &a.End, &a.Body, &status,
			&a.PostID, &a.PostURL, &a.Error, &a.ClipBytes, &attempted); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		a.Status = Status(status)
		if ts, err := time.Parse(time.RFC3339Nano, attempted); err == nil {
			a.AttemptedAt = ts
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return attempts, nil
}

func nullable(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
