package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "db", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	runA, runB := NewRunID(), NewRunID()
	if runA == runB || len(runA) != 36 {
		t.Fatalf("unexpected run ids %q %q", runA, runB)
	}

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rows := []Attempt{
		{RunID: runA, Video: "movie.mkv", CaptionID: 1, Start: "00:00:01.000", End: "00:00:02.000", Body: "hello", Status: StatusPosted, PostID: "11", PostURL: "https://twitter.com/bot/status/11", ClipBytes: 1200, AttemptedAt: base},
		{RunID: runA, Video: "movie.mkv", CaptionID: 2, Start: "00:00:03.000", End: "00:00:04.000", Body: "world", Status: StatusFailed, Error: "Status is a duplicate. (code 187)", AttemptedAt: base.Add(time.Minute)},
		{RunID: runB, Video: "movie.mkv", CaptionID: 3, Start: "00:00:05.000", End: "00:00:06.000", Body: "again", Status: StatusPosted, PostID: "12", AttemptedAt: base.Add(2 * time.Minute)},
	}
	for _, row := range rows {
		if _, err := store.Record(ctx, row); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	all, err := store.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].CaptionID != 3 {
		t.Fatalf("expected newest first, got %+v", all)
	}

	onlyA, err := store.List(ctx, Filter{RunID: runA})
	if err != nil {
		t.Fatalf("List run: %v", err)
	}
	if len(onlyA) != 2 {
		t.Fatalf("expected 2 attempts for run A, got %d", len(onlyA))
	}
	failed := onlyA[0]
	if failed.Status != StatusFailed || failed.Error == "" || failed.PostURL != "" {
		t.Fatalf("unexpected failed row %+v", failed)
	}
	posted := onlyA[1]
	if posted.PostURL != "https://twitter.com/bot/status/11" || posted.ClipBytes != 1200 || !posted.AttemptedAt.Equal(base) {
		t.Fatalf("unexpected posted row %+v", posted)
	}

	limited, err := store.List(ctx, Filter{Limit: 1})
	if err != nil {
		t.Fatalf("List limited: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}
}

func TestReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.Record(context.Background(), Attempt{RunID: "r", Video: "v", CaptionID: 1, Start: "a", End: "b", Body: "c", Status: StatusPosted}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	_ = store.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	rows, err := reopened.List(context.Background(), Filter{})
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected persisted row, got %v (%v)", rows, err)
	}
}

func TestSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = store.Close()

	if _, err := Open(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open(" "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
