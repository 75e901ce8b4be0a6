package main

import (
	"context"
	"fmt"

	"go.uber.org/zap/zapcore"

	"github.com/LiboWorks/promptlab/internal/backend"
	"github.com/LiboWorks/promptlab/internal/config"
	"github.com/LiboWorks/promptlab/internal/invoker"
	"github.com/LiboWorks/promptlab/internal/logger"
	"github.com/LiboWorks/promptlab/internal/memo"
)

// app holds the collaborators shared by the commands that call models.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	registry *backend.Registry
	inv      *invoker.Invoker
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if !verbose && !cfg.Verbose && !cfg.DebugMode {
		log = log.SetLevel(zapcore.WarnLevel)
	}
	return log, nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg := config.Get()
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	registry, err := backend.FromConfig(cfg)
	if err != nil {
		return nil, err
	}

	store, err := memo.Open(ctx, cfg)
	if err != nil {
		registry.Close()
		return nil, fmt.Errorf("failed to open memo: %w", err)
	}

	inv := invoker.New(registry,
		invoker.WithStore(store),
		invoker.WithLogger(log.With("component", "invoker")),
	)
	log.Debug("backends ready", "backends", registry.ListLLMBackends(), "memo", inv.StoreName())

	return &app{cfg: cfg, log: log, registry: registry, inv: inv}, nil
}

func (a *app) Close() {
	if err := a.inv.Close(); err != nil {
		a.log.Warn("failed to close memo", "error", err)
	}
	if err := a.registry.Close(); err != nil {
		a.log.Warn("failed to close backends", "error", err)
	}
	a.log.Sync()
}
