package blob

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sqxedit/internal/config"
)

// FS stores archives as files. Relative keys resolve against Root.
type FS struct {
	root string
}

// NewFS returns a filesystem store. An empty root means the working directory.
func NewFS(root string) *FS {
	return &FS{root: root}
}

func (s *FS) Driver() string { return config.DriverFS }

func (s *FS) pathFor(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	key = filepath.Clean(key)
	if filepath.IsAbs(key) || s.root == "" {
		return key, nil
	}
	return filepath.Join(s.root, key), nil
}

func (s *FS) Get(ctx context.Context, key string) ([]byte, Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, Info{}, err
	}
	path, err := s.pathFor(key)
	if err != nil {
		return nil, Info{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Info{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, Info{}, err
	}
	info, err := s.Head(ctx, key)
	if err != nil {
		return nil, Info{}, err
	}
	info.ETag = etag(data)
	return data, info, nil
}

// Put writes data through a temp file in the destination directory and
// renames it into place.
func (s *FS) Put(ctx context.Context, key string, data []byte) (Info, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	path, err := s.pathFor(key)
	if err != nil {
		return Info{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Info{}, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return Info{}, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return Info{}, err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return Info{}, err
	}
	if err := tmp.Close(); err != nil {
		return Info{}, err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return Info{}, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return Info{}, err
	}
	info, err := s.Head(ctx, key)
	if err != nil {
		return Info{}, err
	}
	info.ETag = etag(data)
	return info, nil
}

func (s *FS) Head(_ context.Context, key string) (Info, error) {
	path, err := s.pathFor(key)
	if err != nil {
		return Info{}, err
	}
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Info{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Info{}, err
	}
	if st.IsDir() {
		return Info{}, fmt.Errorf("%s is a directory", path)
	}
	return Info{Key: key, Size: st.Size(), LastModified: st.ModTime().UTC()}, nil
}

// Path returns the file a key maps to.
func (s *FS) Path(key string) (string, error) {
	return s.pathFor(key)
}

func etag(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
