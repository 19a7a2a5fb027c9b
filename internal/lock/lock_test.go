package lock_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"sqxedit/internal/lock"
)

func TestAcquireIsExclusive(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "run.sqx")

	held, err := lock.Acquire(archive)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if held.Path() != filepath.Join(filepath.Dir(archive), ".run.sqx.lock") {
		t.Fatalf("unexpected lock path %q", held.Path())
	}

	if _, err := lock.Acquire(archive); !errors.Is(err, lock.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	if err := held.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(held.Path()); !os.IsNotExist(err) {
		t.Fatal("expected lock file to be removed")
	}

	again, err := lock.Acquire(archive)
	if err != nil {
		t.Fatalf("re-acquire: %v", err)
	}
	if err := again.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestReleaseNil(t *testing.T) {
	var l *lock.Lock
	if err := l.Release(); err != nil {
		t.Fatalf("nil release: %v", err)
	}
}
