package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"sqxedit/internal/faults"
)

func TestObserveSessionLabelsOutcome(t *testing.T) {
	c := New()
	c.ObserveSession(OperationOpen, nil)
	c.ObserveSession(OperationOpen, faults.Wrap(faults.ErrCorruptArchive, "archive", "open", "", nil))
	c.ObserveSession(OperationOpen, faults.Wrap(faults.ErrCorruptArchive, "archive", "open", "", nil))

	if got := testutil.ToFloat64(c.sessions.WithLabelValues(OperationOpen, "ok")); got != 1 {
		t.Fatalf("ok count = %v", got)
	}
	if got := testutil.ToFloat64(c.sessions.WithLabelValues(OperationOpen, "corrupt_archive")); got != 2 {
		t.Fatalf("corrupt count = %v", got)
	}
}

func TestObserveFinalize(t *testing.T) {
	c := New()
	c.ObserveFinalize(15*time.Millisecond, 12, true)
	c.ObserveFinalize(5*time.Millisecond, 3, false)

	if got := testutil.ToFloat64(c.rows); got != 3 {
		t.Fatalf("rows = %v", got)
	}
	if got := testutil.ToFloat64(c.changed); got != 1 {
		t.Fatalf("changed = %v", got)
	}
	if n := testutil.CollectAndCount(c.finalizeDuration); n != 1 {
		t.Fatalf("expected one histogram series, got %d", n)
	}
}

func TestObserveBlob(t *testing.T) {
	c := New()
	c.ObserveBlob("fs", "get", 2048, nil)
	c.ObserveBlob("fs", "get", 10, errors.New("boom"))

	if got := testutil.ToFloat64(c.blobOps.WithLabelValues("fs", "get", "ok")); got != 1 {
		t.Fatalf("ok ops = %v", got)
	}
	if got := testutil.ToFloat64(c.blobOps.WithLabelValues("fs", "get", "error")); got != 1 {
		t.Fatalf("error ops = %v", got)
	}
	if got := testutil.ToFloat64(c.blobBytes.WithLabelValues("fs", "get")); got != 2048 {
		t.Fatalf("bytes = %v", got)
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.ObserveSession(OperationFinalize, nil)
	c.ObserveFinalize(time.Second, 1, true)
	c.ObserveBlob("s3", "put", 1, nil)
	if err := c.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	if c.Registry() != nil {
		t.Fatal("expected nil registry")
	}
}

func TestWriteTextfile(t *testing.T) {
	c := New()
	c.ObserveSession(OperationFinalize, nil)
	path := filepath.Join(t.TempDir(), "metrics", "sqxedit.prom")
	if err := c.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `sqxedit_session_operations_total{operation="finalize",outcome="ok"} 1`) {
		t.Fatalf("unexpected textfile:\n%s", data)
	}
}
