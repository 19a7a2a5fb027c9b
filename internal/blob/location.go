package blob

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"sqxedit/internal/config"
	"sqxedit/internal/metrics"
)

// Location is a parsed archive address.
type Location struct {
	Scheme string // "file", "s3" or "mem"
	Bucket string
	Key    string
}

// String renders the location in the form accepted by ParseLocation.
func (l Location) String() string {
	switch l.Scheme {
	case "s3":
		return "s3://" + l.Bucket + "/" + l.Key
	case "mem":
		return "mem://" + l.Key
	default:
		return l.Key
	}
}

// IsLocal reports whether the location is a filesystem path.
func (l Location) IsLocal() bool { return l.Scheme == "file" }

// Base returns the final path element of the key.
func (l Location) Base() string {
	if l.IsLocal() {
		return filepath.Base(l.Key)
	}
	return path.Base(l.Key)
}

// WithBase returns a sibling location named base.
func (l Location) WithBase(base string) Location {
	out := l
	if l.IsLocal() {
		out.Key = filepath.Join(filepath.Dir(l.Key), base)
		return out
	}
	dir := path.Dir(l.Key)
	if dir == "." {
		out.Key = base
	} else {
		out.Key = path.Join(dir, base)
	}
	return out
}

// ParseLocation accepts a local path, s3://bucket/key or mem://key.
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, fmt.Errorf("empty location")
	}
	switch {
	case strings.HasPrefix(raw, "s3://"):
		u, err := url.Parse(raw)
		if err != nil {
			return Location{}, fmt.Errorf("parse %q: %w", raw, err)
		}
		key := strings.TrimPrefix(u.Path, "/")
		if key == "" {
			return Location{}, fmt.Errorf("location %q has no object key", raw)
		}
		return Location{Scheme: "s3", Bucket: u.Host, Key: key}, nil
	case strings.HasPrefix(raw, "mem://"):
		key := strings.TrimPrefix(raw, "mem://")
		if key == "" {
			return Location{}, fmt.Errorf("location %q has no key", raw)
		}
		return Location{Scheme: "mem", Key: key}, nil
	default:
		return Location{Scheme: "file", Key: raw}, nil
	}
}

// Resolver maps locations to stores, caching one store per backend.
type Resolver struct {
	cfg       *config.Config
	collector *metrics.Collector

	mu     sync.Mutex
	fs     Store
	memory *Memory
	s3     map[string]Store
	newS3  func(context.Context, S3Config) (Store, error)
}

// NewResolver returns a resolver for cfg. collector may be nil.
func NewResolver(cfg *config.Config, collector *metrics.Collector) *Resolver {
	return &Resolver{
		cfg:       cfg,
		collector: collector,
		s3:        make(map[string]Store),
		newS3: func(ctx context.Context, c S3Config) (Store, error) {
			return NewS3(ctx, c)
		},
	}
}

// UseMemory makes mem:// locations and the memory driver share store.
func (r *Resolver) UseMemory(store *Memory) {
	r.mu.Lock()
	r.memory = store
	r.mu.Unlock()
}

// UseS3 overrides construction of S3 stores.
func (r *Resolver) UseS3(factory func(context.Context, S3Config) (Store, error)) {
	r.mu.Lock()
	r.newS3 = factory
	r.s3 = make(map[string]Store)
	r.mu.Unlock()
}

// Resolve returns the store and object key for raw.
func (r *Resolver) Resolve(ctx context.Context, raw string) (Store, Location, error) {
	loc, err := ParseLocation(raw)
	if err != nil {
		return nil, Location{}, err
	}
	if loc.Scheme == "file" {
		switch r.cfg.Storage.Driver {
		case config.DriverMemory:
			loc.Scheme = "mem"
		case config.DriverS3:
			if !filepath.IsAbs(loc.Key) {
				loc = Location{Scheme: "s3", Key: filepath.ToSlash(loc.Key)}
			}
		}
	}
	store, err := r.storeFor(ctx, &loc)
	if err != nil {
		return nil, Location{}, err
	}
	return store, loc, nil
}

func (r *Resolver) storeFor(ctx context.Context, loc *Location) (Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch loc.Scheme {
	case "mem":
		if r.memory == nil {
			r.memory = NewMemory()
		}
		return Instrument(r.memory, r.collector), nil
	case "s3":
		if loc.Bucket == "" {
			loc.Bucket = r.cfg.Storage.S3Bucket
		}
		if loc.Bucket == "" {
			return nil, fmt.Errorf("no bucket for %q: set storage.s3_bucket or SQXEDIT_S3_BUCKET", loc.Key)
		}
		if store, ok := r.s3[loc.Bucket]; ok {
			return store, nil
		}
		store, err := r.newS3(ctx, S3ConfigFrom(r.cfg, loc.Bucket))
		if err != nil {
			return nil, err
		}
		store = Instrument(store, r.collector)
		r.s3[loc.Bucket] = store
		return store, nil
	default:
		if r.fs == nil {
			r.fs = Instrument(NewFS(r.cfg.Storage.FSRoot), r.collector)
		}
		return r.fs, nil
	}
}

// LocalPath returns the filesystem path for a local location.
func (r *Resolver) LocalPath(loc Location) (string, bool) {
	if !loc.IsLocal() {
		return "", false
	}
	path, err := NewFS(r.cfg.Storage.FSRoot).Path(loc.Key)
	if err != nil {
		return "", false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path, true
	}
	return abs, true
}
