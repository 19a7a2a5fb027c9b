package history_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"sqxedit/internal/history"
	"sqxedit/internal/testsupport"
)

func TestRecordAndList(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	first := &history.Entry{SessionID: "s-1", Action: "set", Source: "a.sqx", Destination: "a.sqx", Rows: 2, Changed: true, Digest: "abc"}
	if err := store.Record(ctx, first); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if first.ID == 0 || first.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp, got %+v", first)
	}
	second := &history.Entry{SessionID: "s-2", Action: "rm", Source: "b.sqx", Outcome: "invalid_edit", Message: "row 9 out of range"}
	if err := store.Record(ctx, second); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].SessionID != "s-2" || entries[1].SessionID != "s-1" {
		t.Fatalf("expected newest first, got %s, %s", entries[0].SessionID, entries[1].SessionID)
	}
	if entries[0].Outcome != "invalid_edit" || entries[0].Destination != "" {
		t.Fatalf("unexpected second entry: %+v", entries[0])
	}
	if !entries[1].Changed || entries[1].Outcome != history.OutcomeOK || entries[1].Rows != 2 {
		t.Fatalf("unexpected first entry: %+v", entries[1])
	}

	limited, err := store.List(ctx, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limit ignored: %d entries", len(limited))
	}
	if n, err := store.Count(ctx); err != nil || n != 2 {
		t.Fatalf("Count = %d, %v", n, err)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := history.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if err := store.Record(context.Background(), &history.Entry{SessionID: "s", Action: "new", CreatedAt: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	_ = store.Close()

	store, err = history.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	entries, err := store.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || !entries[0].CreatedAt.Equal(time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected entries after reopen: %+v", entries)
	}
}

func TestSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("update version: %v", err)
	}
	_ = db.Close()

	if _, err := history.OpenPath(path); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestRecordNilEntry(t *testing.T) {
	store, err := history.OpenPath(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Record(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil entry")
	}
}
