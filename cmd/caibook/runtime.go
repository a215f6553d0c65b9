package main

import (
	"context"
	"fmt"
	"time"

	"github.com/caibook/caibook/internal/config"
	"github.com/caibook/caibook/internal/flows"
	"github.com/caibook/caibook/internal/form"
	"github.com/caibook/caibook/internal/hooks"
	"github.com/caibook/caibook/internal/logger"
	"github.com/caibook/caibook/internal/nats"
	"github.com/caibook/caibook/internal/submission"
)

// loadConfig loads the layered configuration, applies root flag overrides
// and configures the logger from the result.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if rootFlags.dataDir != "" {
		cfg.DataDir = rootFlags.dataDir
	}
	if rootFlags.logLevel != "" {
		cfg.LogLevel = rootFlags.logLevel
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFile); err != nil {
		return nil, fmt.Errorf("failed to configure logger: %w", err)
	}
	return cfg, nil
}

// runtime holds everything a submitting command needs: the embedded bus,
// the outbox store, the submitter and the lifecycle hooks.
type runtime struct {
	cfg       *config.Config
	bus       *nats.Bus
	store     *submission.Store
	submitter *submission.Submitter
	hooks     *hooks.Config
	workDir   string
}

func openRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	hooksCfg, err := hooks.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load hooks: %w", err)
	}

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	bus, err := nats.Open(openCtx, cfg.DataDir, flows.Register, flows.Group)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	store := submission.NewStore(bus.JS, bus.Stream)
	return &runtime{
		cfg:       cfg,
		bus:       bus,
		store:     store,
		submitter: submission.NewSubmitter(store, bus.Conn, cfg.SubmitTimeout),
		hooks:     hooksCfg,
		workDir:   ".",
	}, nil
}

// submitFor is the submit function for one wizard session with hooks applied.
func (r *runtime) submitFor(flow flows.Flow, session string) form.SubmitFunc {
	return hooks.Wrap(r.hooks, r.workDir, flow.Name, session, r.submitter.For(flow, session))
}

func (r *runtime) Close() error {
	return r.bus.Close()
}
