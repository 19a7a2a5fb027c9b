// Package metrics collects per-invocation counters and writes them to a
// Prometheus textfile for node_exporter's textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"sqxedit/internal/faults"
)

const namespace = "sqxedit"

// Operations reported by ObserveSession.
const (
	OperationOpen     = "open"
	OperationFinalize = "finalize"
)

// Collector owns a private registry. A nil *Collector is valid and records
// nothing.
type Collector struct {
	registry *prometheus.Registry

	sessions         *prometheus.CounterVec
	finalizeDuration prometheus.Histogram
	rows             prometheus.Gauge
	changed          prometheus.Counter
	blobOps          *prometheus.CounterVec
	blobBytes        *prometheus.CounterVec
}

// New registers the sqxedit metrics on a fresh registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_operations_total",
			Help:      "Edit session operations by outcome.",
		}, []string{"operation", "outcome"}),
		finalizeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "finalize_duration_seconds",
			Help:      "Time spent encoding, hashing and packing an archive.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		rows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sample_rows",
			Help:      "Rows in the most recently finalized sample list.",
		}),
		changed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_changed_total",
			Help:      "Finalized sample lists whose bytes differ from the input.",
		}),
		blobOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blob_operations_total",
			Help:      "Archive storage operations by driver, operation and outcome.",
		}, []string{"driver", "operation", "outcome"}),
		blobBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blob_bytes_total",
			Help:      "Archive bytes moved through storage.",
		}, []string{"driver", "operation"}),
	}
	c.registry.MustRegister(c.sessions, c.finalizeDuration, c.rows, c.changed, c.blobOps, c.blobBytes)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveSession counts an open or finalize attempt.
func (c *Collector) ObserveSession(operation string, err error) {
	if c == nil {
		return
	}
	c.sessions.WithLabelValues(operation, faults.Kind(err)).Inc()
}

// ObserveFinalize records a successful finalize.
func (c *Collector) ObserveFinalize(elapsed time.Duration, rows int, changed bool) {
	if c == nil {
		return
	}
	c.finalizeDuration.Observe(elapsed.Seconds())
	c.rows.Set(float64(rows))
	if changed {
		c.changed.Inc()
	}
}

// ObserveBlob records one storage call.
func (c *Collector) ObserveBlob(driver, operation string, size int, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.blobOps.WithLabelValues(driver, operation, outcome).Inc()
	if err == nil && size > 0 {
		c.blobBytes.WithLabelValues(driver, operation).Add(float64(size))
	}
}

// WriteTextfile atomically writes the registry to path.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
