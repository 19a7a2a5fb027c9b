package scratch_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"sqxedit/internal/archive"
	"sqxedit/internal/logging"
	"sqxedit/internal/scratch"
	"sqxedit/internal/testsupport"
)

func openFixture(t *testing.T) *archive.Archive {
	t.Helper()
	doc := testsupport.SampleList(testsupport.TwoRowSamples()...)
	a, err := archive.Open(testsupport.BuildSQX(t, doc))
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	return a
}

func backends(t *testing.T) map[string]scratch.Backend {
	return map[string]scratch.Backend{
		"dir":    scratch.NewDir(t.TempDir(), logging.NewNop()),
		"memory": scratch.NewMemory(),
	}
}

func TestExtractCollectRoundTrip(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := openFixture(t)

			ws, release, err := backend.Acquire(ctx)
			if err != nil {
				t.Fatalf("Acquire: %v", err)
			}
			defer release()

			if err := ws.Extract(ctx, base); err != nil {
				t.Fatalf("Extract: %v", err)
			}
			got, err := ws.ReadFile(testsupport.DocumentEntry)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			want, _ := base.Get(testsupport.DocumentEntry)
			if !bytes.Equal(got, want) {
				t.Fatal("extracted document differs")
			}

			out, err := ws.Collect(ctx, base)
			if err != nil {
				t.Fatalf("Collect: %v", err)
			}
			for _, info := range out.Entries() {
				if info.Replaced {
					t.Fatalf("unchanged entry %s marked replaced", info.Name)
				}
			}
		})
	}
}

func TestCollectPicksUpChangesAndNewFiles(t *testing.T) {
	for name, backend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := openFixture(t)

			ws, release, err := backend.Acquire(ctx)
			if err != nil {
				t.Fatalf("Acquire: %v", err)
			}
			defer release()
			if err := ws.Extract(ctx, base); err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if err := ws.WriteFile(testsupport.DocumentEntry, []byte("<changed/>")); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if err := ws.WriteFile("Notes/readme.txt", []byte("hello")); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}

			out, err := ws.Collect(ctx, base)
			if err != nil {
				t.Fatalf("Collect: %v", err)
			}
			names := out.Names()
			if names[len(names)-1] != "Notes/readme.txt" {
				t.Fatalf("expected new file appended, got %v", names)
			}
			doc, _ := out.Get(testsupport.DocumentEntry)
			if string(doc) != "<changed/>" {
				t.Fatalf("document = %q", doc)
			}
			original, _ := base.Get(testsupport.DocumentEntry)
			if string(original) == "<changed/>" {
				t.Fatal("base archive was mutated")
			}
		})
	}
}

func TestDirReleaseRemovesWorkspace(t *testing.T) {
	root := t.TempDir()
	backend := scratch.NewDir(root, nil)
	ws, release, err := backend.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := ws.WriteFile("a/b.txt", []byte("x")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	release()
	release()

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty root after release, found %d entries", len(entries))
	}
}

func TestDirRejectsEscapingNames(t *testing.T) {
	ws, release, err := scratch.NewDir(t.TempDir(), nil).Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer release()
	if err := ws.WriteFile("../outside.txt", []byte("x")); err == nil {
		t.Fatal("expected escaping name to be rejected")
	}
}

func TestMemoryReleaseTracksActive(t *testing.T) {
	backend := scratch.NewMemory()
	ws, release, err := backend.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if backend.Active() != 1 {
		t.Fatalf("active = %d", backend.Active())
	}
	release()
	release()
	if backend.Active() != 0 {
		t.Fatalf("active after release = %d", backend.Active())
	}
	if err := ws.WriteFile("x", nil); err == nil {
		t.Fatal("expected write after release to fail")
	}
}

func TestAcquireHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for name, backend := range backends(t) {
		if _, release, err := backend.Acquire(ctx); err == nil {
			release()
			t.Fatalf("%s: expected error for cancelled context", name)
		}
	}
}

func TestCleanStaleRemovesOnlyOldWorkspaces(t *testing.T) {
	root := t.TempDir()
	old := filepath.Join(root, "session-old")
	recent := filepath.Join(root, "session-recent")
	foreign := filepath.Join(root, "keep-me")
	for _, dir := range []string{old, recent, foreign} {
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	past := time.Now().Add(-2 * time.Hour)
	for _, dir := range []string{old, foreign} {
		if err := os.Chtimes(dir, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	result := scratch.CleanStale(context.Background(), root, time.Hour, logging.NewNop())
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Removed) != 1 || result.Removed[0] != old {
		t.Fatalf("removed = %v", result.Removed)
	}
	for _, dir := range []string{recent, foreign} {
		if _, err := os.Stat(dir); err != nil {
			t.Fatalf("%s should remain: %v", dir, err)
		}
	}
}

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := scratch.CleanStale(context.Background(), dir, time.Hour, nil)
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}
