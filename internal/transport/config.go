package transport

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"
)

// Config selects and parameterizes the helper engine.
type Config struct {
	// HelperPath is the helper executable. Empty means "this binary",
	// which carries the engine as its `helper` subcommand.
	HelperPath string
	// HelperArgs are prepended before the mode arguments ("serve",
	// "request"); defaults to ["helper"] for the built-in engine.
	HelperArgs []string
	// Mode is "auto" (probe server, fall back), "server" or "process".
	Mode string
	// Port for server mode's loopback listener.
	Port int
	// Impersonate names the browser profile the helper mimics.
	Impersonate string

	RequestTimeout time.Duration
	ReadyTimeout   time.Duration
}

func (c *Config) applyDefaults() error {
	if c.HelperPath == "" {
		self, err := os.Executable()
		if err != nil {
			return err
		}
		c.HelperPath = self
		if c.HelperArgs == nil {
			c.HelperArgs = []string{"helper"}
		}
	}
	if c.Mode == "" {
		c.Mode = "auto"
	}
	if c.Port == 0 {
		c.Port = 8753
	}
	if c.Impersonate == "" {
		c.Impersonate = "chrome_124"
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.ReadyTimeout == 0 {
		c.ReadyTimeout = 5 * time.Second
	}
	return nil
}

// New probes for the preferred server-mode helper and falls back to
// process-per-request when it cannot be started. The decision is made
// once; steady state never re-probes.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Client, error) {
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}

	switch cfg.Mode {
	case "process":
		return NewProcessClient(cfg, logger), nil
	case "server":
		return StartServer(ctx, cfg, logger)
	}

	server, err := StartServer(ctx, cfg, logger)
	if err != nil {
		logger.Warn("Helper server unavailable, falling back to process-per-request",
			zap.Error(err))
		return NewProcessClient(cfg, logger), nil
	}
	return server, nil
}
