package scratch

import (
	"context"
	"fmt"
	"sync"

	"sqxedit/internal/archive"
)

// Memory is a Backend that never touches disk.
type Memory struct {
	mu     sync.Mutex
	active int
}

// NewMemory returns an in-memory backend.
func NewMemory() *Memory { return &Memory{} }

// Active reports how many workspaces are currently acquired.
func (m *Memory) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Acquire returns an empty workspace.
func (m *Memory) Acquire(ctx context.Context) (Workspace, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, func() {}, err
	}
	m.mu.Lock()
	m.active++
	m.mu.Unlock()

	ws := &memoryWorkspace{files: make(map[string][]byte)}
	var once sync.Once
	release := func() {
		once.Do(func() {
			ws.reset()
			m.mu.Lock()
			m.active--
			m.mu.Unlock()
		})
	}
	return ws, release, nil
}

type memoryWorkspace struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (w *memoryWorkspace) reset() {
	w.mu.Lock()
	w.files = nil
	w.mu.Unlock()
}

func (w *memoryWorkspace) Extract(ctx context.Context, a *archive.Archive) error {
	for _, name := range extractable(a) {
		if err := ctx.Err(); err != nil {
			return err
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

func (w *memoryWorkspace) WriteFile(name string, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.files == nil {
		return fmt.Errorf("write %q: workspace released", name)
	}
	w.files[name] = append([]byte(nil), data...)
	return nil
}

func (w *memoryWorkspace) ReadFile(name string) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	data, ok := w.files[name]
	if !ok {
		return nil, fmt.Errorf("read %q: not in workspace", name)
	}
	return append([]byte(nil), data...), nil
}

func (w *memoryWorkspace) Collect(ctx context.Context, base *archive.Archive) (*archive.Archive, error) {
	w.mu.Lock()
	names := make([]string, 0, len(w.files))
	for name := range w.files {
		names = append(names, name)
	}
	w.mu.Unlock()
	return merge(ctx, base, names, w.ReadFile)
}
