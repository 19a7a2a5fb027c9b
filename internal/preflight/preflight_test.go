package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"sqxedit/internal/config"
	"sqxedit/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckS3Settings(t *testing.T) {
	if CheckS3Settings(config.Storage{Driver: config.DriverS3}).Passed {
		t.Fatal("expected failure without bucket")
	}
	result := CheckS3Settings(config.Storage{Driver: config.DriverS3, S3Bucket: "runs", S3Endpoint: "http://minio:9000"})
	if !result.Passed || result.Detail != "bucket runs at http://minio:9000" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestCheckHistoryCreatesJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "history.db")
	result := CheckHistory(context.Background(), path)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected journal at %s: %v", path, err)
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	results := RunAll(context.Background(), cfg)
	names := make(map[string]Result)
	for _, r := range results {
		names[r.Name] = r
	}
	for _, name := range []string{"Scratch directory", "State directory", "Edit history"} {
		if !names[name].Passed {
			t.Fatalf("%s: expected pass, got %+v", name, names[name])
		}
	}
	// The archive root does not exist until something is written there.
	if root, ok := names["Archive root"]; !ok || root.Passed {
		t.Fatalf("expected failing archive root check, got %+v", root)
	}

	cfg.History.Enabled = false
	cfg.Storage.Driver = config.DriverS3
	results = RunAll(context.Background(), cfg)
	for _, r := range results {
		if r.Name == "Edit history" {
			t.Fatal("history check should be skipped when disabled")
		}
		if r.Name == "S3 storage" && r.Passed {
			t.Fatal("expected S3 check to fail without a bucket")
		}
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if RunAll(context.Background(), nil) != nil {
		t.Fatal("expected nil results")
	}
}
