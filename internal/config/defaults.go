package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultConfigPath    = "~/.config/sqxedit/config.toml"
	projectConfigName    = "sqxedit.toml"
	defaultStateDir      = "~/.local/share/sqxedit"
	defaultLogDir        = "~/.local/share/sqxedit/logs"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
	defaultNamespaceMode = "canonical"
	defaultCompression   = "deflate"
	defaultDriver        = DriverFS
	defaultRetryAttempts = 3
	maxRetryAttempts     = 10
)

// Storage drivers.
const (
	DriverFS     = "fs"
	DriverMemory = "memory"
	DriverS3     = "s3"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ScratchDir: defaultScratchDir(),
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Codec: Codec{
			NamespaceMode: defaultNamespaceMode,
			Compression:   defaultCompression,
		},
		Storage: Storage{
			Driver:        defaultDriver,
			RetryAttempts: defaultRetryAttempts,
		},
		History: History{Enabled: true},
	}
}

func defaultScratchDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "sqxedit", "scratch")
	}
	return "~/.cache/sqxedit/scratch"
}
