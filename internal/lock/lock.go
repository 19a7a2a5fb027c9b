// Package lock serializes editors of one archive with an advisory lock
// file placed next to it.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked reports that another process is editing the archive.
var ErrLocked = errors.New("archive is locked by another editor")

// Lock is a held editor lock.
type Lock struct {
	path string
	fl   *flock.Flock
}

// PathFor returns the lock file used for archivePath.
func PathFor(archivePath string) string {
	dir, base := filepath.Split(archivePath)
	return filepath.Join(dir, "."+base+".lock")
}

// Acquire takes the lock for archivePath without blocking.
func Acquire(archivePath string) (*Lock, error) {
	path := PathFor(archivePath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return &Lock{path: path, fl: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string { return l.path }

// Release unlocks and removes the lock file.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}
