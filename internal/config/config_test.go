package config_test

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"sqxedit/internal/config"
	"sqxedit/internal/sampledoc"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("SQXEDIT_S3_BUCKET", "")
	t.Setenv("SQXEDIT_S3_ENDPOINT", "")
	t.Setenv("AWS_REGION", "")
	t.Chdir(t.TempDir())
	return home
}

func TestLoadDefaultsExpandPaths(t *testing.T) {
	home := isolate(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(home, ".config", "sqxedit", "config.toml"); resolved != want {
		t.Fatalf("resolved = %q, want %q", resolved, want)
	}
	if want := filepath.Join(home, ".cache", "sqxedit", "scratch"); cfg.Paths.ScratchDir != want {
		t.Fatalf("scratch dir = %q, want %q", cfg.Paths.ScratchDir, want)
	}
	if want := filepath.Join(home, ".local", "share", "sqxedit"); cfg.Paths.StateDir != want {
		t.Fatalf("state dir = %q, want %q", cfg.Paths.StateDir, want)
	}
	if cfg.HistoryPath() != filepath.Join(cfg.Paths.StateDir, "history.db") {
		t.Fatalf("unexpected history path %q", cfg.HistoryPath())
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Storage.Driver != config.DriverFS || cfg.Storage.RetryAttempts != 3 {
		t.Fatalf("unexpected storage defaults: %+v", cfg.Storage)
	}
	if !cfg.History.Enabled {
		t.Fatal("expected history enabled by default")
	}
	if cfg.Metrics.Textfile != "" {
		t.Fatalf("expected metrics disabled, got %q", cfg.Metrics.Textfile)
	}
	if cfg.EncodeOptions().Mode != sampledoc.ModeCanonical {
		t.Fatal("expected canonical namespace mode")
	}
	if cfg.PackOptions().Method != zip.Deflate {
		t.Fatal("expected deflate compression")
	}
}

func TestLoadCustomFile(t *testing.T) {
	home := isolate(t)
	t.Setenv("SQXEDIT_S3_BUCKET", "env-bucket")

	cfg := config.Default()
	cfg.Paths.ScratchDir = "~/scratch"
	cfg.Logging.Format = "JSON"
	cfg.Codec.NamespaceMode = "legacy"
	cfg.Codec.Compression = "store"
	cfg.Storage.Driver = "s3"
	cfg.Storage.S3Endpoint = "http://127.0.0.1:9000"
	cfg.Storage.S3PathStyle = true
	cfg.History.Enabled = false
	cfg.Metrics.Textfile = "~/metrics/sqxedit.prom"

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	loaded, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected %q to be loaded, got %q exists=%v", path, resolved, exists)
	}
	if loaded.Paths.ScratchDir != filepath.Join(home, "scratch") {
		t.Fatalf("scratch dir = %q", loaded.Paths.ScratchDir)
	}
	if loaded.Logging.Format != "json" {
		t.Fatalf("format = %q", loaded.Logging.Format)
	}
	if loaded.EncodeOptions().Mode != sampledoc.ModeLegacy {
		t.Fatal("expected legacy mode")
	}
	if loaded.PackOptions().Method != zip.Store {
		t.Fatal("expected store compression")
	}
	if loaded.Storage.S3Bucket != "env-bucket" {
		t.Fatalf("expected bucket from env, got %q", loaded.Storage.S3Bucket)
	}
	if !loaded.Storage.S3PathStyle || loaded.Storage.S3Endpoint != "http://127.0.0.1:9000" {
		t.Fatalf("unexpected s3 settings: %+v", loaded.Storage)
	}
	if loaded.History.Enabled {
		t.Fatal("expected history disabled")
	}
	if loaded.Metrics.Textfile != filepath.Join(home, "metrics", "sqxedit.prom") {
		t.Fatalf("textfile = %q", loaded.Metrics.Textfile)
	}
}

func TestLoadProjectConfig(t *testing.T) {
	isolate(t)
	if err := os.WriteFile("sqxedit.toml", []byte("[logging]\nlevel = \"debug\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || filepath.Base(resolved) != "sqxedit.toml" {
		t.Fatalf("expected project config, got %q exists=%v", resolved, exists)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level = %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[codec]\nprefixes = \"ns0\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	body := strings.Join([]string{
		"[codec]",
		`namespace_mode = "xml"`,
		`compression = "bzip2"`,
		"[storage]",
		`driver = "ftp"`,
		"retry_attempts = 99",
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, _, _, err := config.Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"codec.namespace_mode", "codec.compression", "storage.driver", "storage.retry_attempts"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestCreateSampleLoads(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Storage.Driver != config.DriverFS {
		t.Fatalf("driver = %q", cfg.Storage.Driver)
	}
}

func TestEnsureDirectories(t *testing.T) {
	isolate(t)
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ScratchDir = filepath.Join(root, "scratch")
	cfg.Paths.StateDir = filepath.Join(root, "state")
	cfg.Paths.LogDir = ""
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.ScratchDir, cfg.Paths.StateDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected %s to exist", dir)
		}
	}
}
