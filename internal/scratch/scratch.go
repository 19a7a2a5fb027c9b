package scratch

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"sqxedit/internal/archive"
)

// Workspace is a scratch area holding the entries of one archive.
type Workspace interface {
	// Extract copies every readable entry of a into the workspace.
	Extract(ctx context.Context, a *archive.Archive) error
	WriteFile(name string, data []byte) error
	ReadFile(name string) ([]byte, error)
	// Collect reads the workspace back into a copy of base. Entries whose
	// content is unchanged keep their original stored bytes; new files are
	// appended in name order.
	Collect(ctx context.Context, base *archive.Archive) (*archive.Archive, error)
}

// Backend allocates workspaces.
type Backend interface {
	Acquire(ctx context.Context) (Workspace, func(), error)
}

func extractable(a *archive.Archive) []string {
	var names []string
	for _, info := range a.Entries() {
		if info.Dir || info.UnsupportedCodec {
			continue
		}
		names = append(names, info.Name)
	}
	return names
}

func merge(ctx context.Context, base *archive.Archive, names []string, read func(string) ([]byte, error)) (*archive.Archive, error) {
	out := base.Clone()
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	for _, name := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := read(name)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", name, err)
		}
		if base.Has(name) {
			current, err := base.Get(name)
			if err == nil && bytes.Equal(current, data) {
				continue
			}
		}
		out.Replace(name, data)
	}
	return out, nil
}
