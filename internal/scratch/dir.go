package scratch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"sqxedit/internal/archive"
	"sqxedit/internal/logging"
)

// workspacePrefix marks directories created by Dir so CleanStale never
// touches anything else under the root.
const workspacePrefix = "session-"

// Dir is a Backend that extracts into directories below Root.
type Dir struct {
	Root   string
	Logger *slog.Logger
}

// NewDir returns a directory backend rooted at root.
func NewDir(root string, logger *slog.Logger) *Dir {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Dir{Root: root, Logger: logging.NewComponentLogger(logger, "scratch")}
}

// Acquire creates a fresh workspace directory. The release func removes it.
func (d *Dir) Acquire(ctx context.Context) (Workspace, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, func() {}, err
	}
	root := strings.TrimSpace(d.Root)
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, func() {}, fmt.Errorf("create scratch root: %w", err)
	}
	path, err := os.MkdirTemp(root, workspacePrefix)
	if err != nil {
		return nil, func() {}, fmt.Errorf("create workspace: %w", err)
	}
	d.Logger.Debug("workspace acquired", logging.String("path", path))

	released := false
	release := func() {
		if released {
			return
		}
		released = true
		if err := os.RemoveAll(path); err != nil {
			d.Logger.Warn("failed to remove workspace",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "scratch_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check scratch_dir permissions"),
				logging.String(logging.FieldImpact, "stale workspace left on disk"),
			)
			return
		}
		d.Logger.Debug("workspace released", logging.String("path", path))
	}
	return &dirWorkspace{path: path}, release, nil
}

type dirWorkspace struct {
	path string
}

// Path is the workspace directory.
func (w *dirWorkspace) Path() string { return w.path }

func (w *dirWorkspace) resolve(name string) (string, error) {
	local := filepath.FromSlash(name)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("entry %q escapes workspace", name)
	}
	return filepath.Join(w.path, local), nil
}

func (w *dirWorkspace) Extract(ctx context.Context, a *archive.Archive) error {
	for _, name := range extractable(a) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := w.resolve(name); err != nil {
			// Unsafe names stay in the archive untouched.
			continue
		}
		data, err := a.Get(name)
		if err != nil {
			return fmt.Errorf("extract %q: %w", name, err)
		}
		if err := w.WriteFile(name, data); err != nil {
			return err
		}
	}
	return nil
}

func (w *dirWorkspace) WriteFile(name string, data []byte) error {
	target, err := w.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("write %q: %w", name, err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write %q: %w", name, err)
	}
	return nil
}

func (w *dirWorkspace) ReadFile(name string) ([]byte, error) {
	target, err := w.resolve(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(target)
}

func (w *dirWorkspace) Collect(ctx context.Context, base *archive.Archive) (*archive.Archive, error) {
	var names []string
	err := filepath.WalkDir(w.path, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.path, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan workspace: %w", err)
	}
	return merge(ctx, base, names, w.ReadFile)
}
