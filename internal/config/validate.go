package config

import (
	"errors"
	"fmt"

	"sqxedit/internal/archive"
	"sqxedit/internal/sampledoc"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	switch c.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level))
	}
	if _, err := sampledoc.ParseMode(c.Codec.NamespaceMode); err != nil {
		errs = append(errs, fmt.Errorf("codec.namespace_mode: %w", err))
	}
	if _, err := archive.ParseMethod(c.Codec.Compression); err != nil {
		errs = append(errs, fmt.Errorf("codec.compression: %w", err))
	}
	switch c.Storage.Driver {
	case DriverFS, DriverMemory, DriverS3:
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unsupported value %q", c.Storage.Driver))
	}
	if c.Storage.RetryAttempts < 0 || c.Storage.RetryAttempts > maxRetryAttempts {
		errs = append(errs, fmt.Errorf("storage.retry_attempts: must be between 0 and %d", maxRetryAttempts))
	}
	if c.Paths.StateDir == "" {
		errs = append(errs, errors.New("paths.state_dir: required"))
	}
	return errors.Join(errs...)
}
