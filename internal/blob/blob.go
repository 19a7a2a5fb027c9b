package blob

import (
	"context"
	"errors"
	"time"

	"sqxedit/internal/metrics"
)

// ErrNotFound reports a missing archive.
var ErrNotFound = errors.New("blob not found")

// Info describes a stored archive.
type Info struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
}

// Store reads and writes complete objects. Put replaces existing objects.
type Store interface {
	Driver() string
	Get(ctx context.Context, key string) ([]byte, Info, error)
	Put(ctx context.Context, key string, data []byte) (Info, error)
	Head(ctx context.Context, key string) (Info, error)
}

type instrumented struct {
	Store
	collector *metrics.Collector
}

// Instrument reports every Get and Put to collector.
func Instrument(store Store, collector *metrics.Collector) Store {
	if collector == nil {
		return store
	}
	return &instrumented{Store: store, collector: collector}
}

func (s *instrumented) Get(ctx context.Context, key string) ([]byte, Info, error) {
	data, info, err := s.Store.Get(ctx, key)
	s.collector.ObserveBlob(s.Driver(), "get", len(data), err)
	return data, info, err
}

func (s *instrumented) Put(ctx context.Context, key string, data []byte) (Info, error) {
	info, err := s.Store.Put(ctx, key, data)
	s.collector.ObserveBlob(s.Driver(), "put", len(data), err)
	return info, err
}
