// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/supportdesk/chatsync"
	"github.com/bureau-foundation/supportdesk/docstore"
	"github.com/bureau-foundation/supportdesk/docstore/sqlitebackend"
	"github.com/bureau-foundation/supportdesk/lib/config"
	"github.com/bureau-foundation/supportdesk/lib/devicestate"
)

// ConfigParams adds --config to a command's parameters.
type ConfigParams struct {
	Path string
}

// AddFlags registers --config.
func (p *ConfigParams) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&p.Path, "config", "",
		"path to supportdesk.yaml (default: $"+config.EnvVar+", else built-in defaults)")
}

// Load reads the configuration from --config, then from the
// environment variable, and falls back to the defaults when neither is
// set. The result is validated.
func (p *ConfigParams) Load() (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case p.Path != "":
		cfg, err = config.LoadFile(p.Path)
	case os.Getenv(config.EnvVar) != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Runtime is the store, sync engine, and device identity a command
// works with.
type Runtime struct {
	Config   *config.Config
	Store    *docstore.DB
	Engine   *chatsync.Engine
	Device   *devicestate.Store
	Identity *chatsync.IdentityResolver
	Logger   *slog.Logger
}

// OpenRuntime opens the SQLite-backed store named by cfg and builds an
// engine over it. The caller must Close the runtime.
func OpenRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if err := cfg.EnsurePaths(); err != nil {
		return nil, err
	}
	pollInterval, err := cfg.PollInterval()
	if err != nil {
		return nil, err
	}
	indexes := make([]docstore.Index, 0, len(cfg.Store.Indexes))
	for _, text := range cfg.Store.Indexes {
		index, err := docstore.ParseIndex(text)
		if err != nil {
			return nil, fmt.Errorf("store.indexes: %w", err)
		}
		indexes = append(indexes, index)
	}

	backend, err := sqlitebackend.Open(ctx, sqlitebackend.Config{
		Path:         cfg.Store.Path,
		PollInterval: pollInterval,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}
	store, err := docstore.Open(docstore.Options{
		Backend: backend,
		Indexes: indexes,
		Logger:  logger,
	})
	if err != nil {
		backend.Close()
		return nil, err
	}
	engine, err := chatsync.NewEngine(chatsync.Config{Store: store, Logger: logger})
	if err != nil {
		store.Close()
		return nil, err
	}

	device := devicestate.Open(cfg.Device.StatePath, logger)
	logger.Debug("runtime opened",
		"store_path", cfg.Store.Path,
		"device_state_path", cfg.Device.StatePath,
		"indexes", len(indexes),
	)
	return &Runtime{
		Config:   cfg,
		Store:    store,
		Engine:   engine,
		Device:   device,
		Identity: chatsync.NewIdentityResolver(device, nil, logger),
		Logger:   logger,
	}, nil
}

// Close closes the store.
func (r *Runtime) Close() error {
	return r.Store.Close()
}
