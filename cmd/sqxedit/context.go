package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"sqxedit/internal/blob"
	"sqxedit/internal/config"
	"sqxedit/internal/history"
	"sqxedit/internal/logging"
	"sqxedit/internal/metrics"
	"sqxedit/internal/scratch"
	"sqxedit/internal/session"
)

const staleScratchAge = 24 * time.Hour

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// runtime holds the collaborators one command invocation shares.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Collector
	resolver *blob.Resolver
	scratch  scratch.Backend
	history  *history.Store
}

// withRuntime builds the runtime for cmd, runs fn and flushes metrics and
// history whether or not fn succeeded.
func (c *commandContext) withRuntime(cmd *cobra.Command, fn func(context.Context, *runtime) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	ctx := commandCtx(cmd)
	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.close()
	return fn(ctx, rt)
}

func newRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	collector := metrics.New()
	rt := &runtime{
		cfg:      cfg,
		logger:   logger,
		metrics:  collector,
		resolver: blob.NewResolver(cfg, collector),
	}

	if dir := strings.TrimSpace(cfg.Paths.ScratchDir); dir != "" {
		result := scratch.CleanStale(ctx, dir, staleScratchAge, logging.NewComponentLogger(logger, "scratch"))
		for _, failure := range result.Errors {
			logging.WarnWithContext(logger, "stale scratch cleanup failed", "scratch_cleanup_failed",
				logging.String("path", failure.Path),
				logging.Error(failure.Error),
			)
		}
		rt.scratch = scratch.NewDir(dir, logger)
	} else {
		rt.scratch = scratch.NewMemory()
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		rt.history = store
	}
	return rt, nil
}

func (rt *runtime) close() {
	if err := rt.metrics.WriteTextfile(rt.cfg.Metrics.Textfile); err != nil {
		logging.WarnWithContext(rt.logger, "metrics textfile not written", "metrics_write_failed",
			logging.String("path", rt.cfg.Metrics.Textfile),
			logging.Error(err),
		)
	}
	if err := rt.history.Close(); err != nil {
		logging.WarnWithContext(rt.logger, "history close failed", "history_close_failed", logging.Error(err))
	}
}

func (rt *runtime) cliLogger() *slog.Logger {
	return logging.NewComponentLogger(rt.logger, "cli")
}

// sessionOptions wires the configured collaborators into a session.
func (rt *runtime) sessionOptions(source, destination, action string) session.Options {
	opts := session.Options{
		Codec:       rt.cfg.EncodeOptions(),
		Pack:        rt.cfg.PackOptions(),
		Scratch:     rt.scratch,
		Metrics:     rt.metrics,
		Logger:      rt.logger,
		Source:      source,
		Destination: destination,
		Action:      action,
	}
	if rt.history != nil {
		opts.Recorder = rt.history
	}
	return opts
}

// target is a resolved archive address.
type target struct {
	store blob.Store
	loc   blob.Location
}

func (t target) String() string { return t.loc.String() }

func (rt *runtime) resolve(ctx context.Context, raw string) (target, error) {
	store, loc, err := rt.resolver.Resolve(ctx, raw)
	if err != nil {
		return target{}, fmt.Errorf("resolve %q: %w", raw, err)
	}
	return target{store: store, loc: loc}, nil
}

func (rt *runtime) read(ctx context.Context, t target) ([]byte, error) {
	data, _, err := t.store.Get(ctx, t.loc.Key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", t, err)
	}
	return data, nil
}

func (rt *runtime) write(ctx context.Context, t target, data []byte) (blob.Info, error) {
	info, err := t.store.Put(ctx, t.loc.Key, data)
	if err != nil {
		return blob.Info{}, fmt.Errorf("write %s: %w", t, err)
	}
	return info, nil
}

// open reads raw and starts a read-only session over it.
func (rt *runtime) open(ctx context.Context, raw, action string) (*session.Session, target, error) {
	src, err := rt.resolve(ctx, raw)
	if err != nil {
		return nil, target{}, err
	}
	data, err := rt.read(ctx, src)
	if err != nil {
		return nil, target{}, err
	}
	sess, err := session.Open(ctx, data, rt.sessionOptions(src.String(), "", action))
	if err != nil {
		return nil, target{}, fmt.Errorf("open %s: %w", src, err)
	}
	return sess, src, nil
}

func commandCtx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
