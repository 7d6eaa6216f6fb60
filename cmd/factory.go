package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/christophergoltz/elogio-sub000/internal/config"
	"github.com/christophergoltz/elogio-sub000/internal/observability"
	"github.com/christophergoltz/elogio-sub000/internal/session"
	"github.com/christophergoltz/elogio-sub000/internal/transport"
)

// Components holds the initialized services a portal command needs.
// This struct centralizes lifecycle management: build with
// newComponents, always defer Shutdown.
type Components struct {
	Transport transport.Client
	Session   *session.Client
}

// newComponents wires transport and session from the loaded config and
// logs the user in. Credentials must be present; everything else has
// defaults.
func newComponents(ctx context.Context) (*Components, error) {
	cfg := config.Get()
	logger := observability.GetLogger()

	if cfg.Portal.Username == "" || cfg.Portal.Password == "" {
		return nil, fmt.Errorf("portal credentials missing: set ELOGIO_PORTAL_USERNAME and ELOGIO_PORTAL_PASSWORD")
	}

	tr, err := transport.New(ctx, transport.Config{
		HelperPath:     cfg.Transport.HelperPath,
		HelperArgs:     cfg.Transport.HelperArgs,
		Mode:           cfg.Transport.Mode,
		Port:           cfg.Transport.Port,
		Impersonate:    cfg.Transport.Impersonate,
		RequestTimeout: cfg.Transport.RequestTimeout,
		ReadyTimeout:   cfg.Transport.ReadyTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize transport: %w", err)
	}

	sess := session.NewClient(session.Config{
		BaseURL:          cfg.Portal.BaseURL,
		Language:         cfg.Portal.Language,
		FetchConcurrency: cfg.Session.FetchConcurrency,
	}, tr, logger)

	if err := sess.Login(ctx, cfg.Portal.Username, cfg.Portal.Password); err != nil {
		_ = sess.Close()
		return nil, fmt.Errorf("login failed: %w", err)
	}

	return &Components{Transport: tr, Session: sess}, nil
}

// Shutdown gracefully closes all components in dependency order.
func (c *Components) Shutdown() {
	logger := observability.GetLogger()
	logger.Debug("Beginning components shutdown sequence.")

	// 1. Session first: cancels background prefetch, then closes the
	// transport (and with it the helper process) itself.
	if c.Session != nil {
		if err := c.Session.Close(); err != nil {
			logger.Warn("Session close reported an error", zap.Error(err))
		}
		logger.Debug("Session closed.")
		return
	}

	// 2. A transport with no session still owns the helper process.
	if c.Transport != nil {
		if err := c.Transport.Close(); err != nil {
			logger.Warn("Transport close reported an error", zap.Error(err))
		}
		logger.Debug("Transport closed.")
	}
}
