package blob

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sqxedit/internal/config"
)

// Memory keeps archives in process memory.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data     []byte
	modified time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string]memoryObject)}
}

func (m *Memory) Driver() string { return config.DriverMemory }

func (m *Memory) Get(ctx context.Context, key string) ([]byte, Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, Info{}, err
	}
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, Info{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	data := append([]byte(nil), obj.data...)
	return data, m.info(key, obj), nil
}

func (m *Memory) Put(ctx context.Context, key string, data []byte) (Info, error) {
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	obj := memoryObject{data: append([]byte(nil), data...), modified: time.Now().UTC()}
	m.mu.Lock()
	m.objects[key] = obj
	m.mu.Unlock()
	return m.info(key, obj), nil
}

func (m *Memory) Head(_ context.Context, key string) (Info, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return m.info(key, obj), nil
}

func (m *Memory) info(key string, obj memoryObject) Info {
	return Info{Key: key, Size: int64(len(obj.data)), ETag: etag(obj.data), LastModified: obj.modified}
}
