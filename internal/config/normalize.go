package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeCodec()
	return c.normalizeStorage()
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ScratchDir) == "" {
		c.Paths.ScratchDir = defaultScratchDir()
	}
	if c.Paths.ScratchDir, err = expandPath(c.Paths.ScratchDir); err != nil {
		return fmt.Errorf("paths.scratch_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Metrics.Textfile, err = expandPath(strings.TrimSpace(c.Metrics.Textfile)); err != nil {
		return fmt.Errorf("metrics.textfile: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeCodec() {
	c.Codec.NamespaceMode = strings.ToLower(strings.TrimSpace(c.Codec.NamespaceMode))
	if c.Codec.NamespaceMode == "" {
		c.Codec.NamespaceMode = defaultNamespaceMode
	}
	c.Codec.Compression = strings.ToLower(strings.TrimSpace(c.Codec.Compression))
	if c.Codec.Compression == "" {
		c.Codec.Compression = defaultCompression
	}
}

func (c *Config) normalizeStorage() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == "" {
		c.Storage.Driver = defaultDriver
	}
	var err error
	if c.Storage.FSRoot, err = expandPath(strings.TrimSpace(c.Storage.FSRoot)); err != nil {
		return fmt.Errorf("storage.fs_root: %w", err)
	}
	c.Storage.S3Bucket = strings.TrimSpace(c.Storage.S3Bucket)
	if c.Storage.S3Bucket == "" {
		if value, ok := os.LookupEnv("SQXEDIT_S3_BUCKET"); ok {
			c.Storage.S3Bucket = strings.TrimSpace(value)
		}
	}
	c.Storage.S3Endpoint = strings.TrimSpace(c.Storage.S3Endpoint)
	if c.Storage.S3Endpoint == "" {
		if value, ok := os.LookupEnv("SQXEDIT_S3_ENDPOINT"); ok {
			c.Storage.S3Endpoint = strings.TrimSpace(value)
		}
	}
	c.Storage.S3Region = strings.TrimSpace(c.Storage.S3Region)
	if c.Storage.S3Region == "" {
		if value, ok := os.LookupEnv("AWS_REGION"); ok {
			c.Storage.S3Region = strings.TrimSpace(value)
		}
	}
	return nil
}
