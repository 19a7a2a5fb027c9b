package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"sqxedit/internal/config"
	"sqxedit/internal/history"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Scratch directory", cfg.Paths.ScratchDir))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	switch cfg.Storage.Driver {
	case config.DriverFS:
		if cfg.Storage.FSRoot != "" {
			results = append(results, CheckDirectoryAccess("Archive root", cfg.Storage.FSRoot))
		}
	case config.DriverS3:
		results = append(results, CheckS3Settings(cfg.Storage))
	}

	if cfg.History.Enabled {
		results = append(results, CheckHistory(ctx, cfg.HistoryPath()))
	}
	return results
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckS3Settings verifies that S3 storage has a default bucket. It does not
// contact the endpoint.
func CheckS3Settings(storage config.Storage) Result {
	const name = "S3 storage"
	if storage.S3Bucket == "" {
		return Result{Name: name, Detail: "no bucket (set storage.s3_bucket or SQXEDIT_S3_BUCKET)"}
	}
	detail := "bucket " + storage.S3Bucket
	if storage.S3Endpoint != "" {
		detail += " at " + storage.S3Endpoint
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckHistory opens the edit journal and counts its entries.
func CheckHistory(ctx context.Context, path string) Result {
	const name = "Edit history"
	store, err := history.OpenPath(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()
	count, err := store.Count(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d entries)", path, count)}
}
