package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/svgpro/svgpro/internal/chat"
	"github.com/svgpro/svgpro/internal/config"
	"github.com/svgpro/svgpro/internal/editor"
	"github.com/svgpro/svgpro/internal/logging"
	"github.com/svgpro/svgpro/internal/provider"
	"github.com/svgpro/svgpro/internal/storage"
)

// app bundles the subsystems both serve and run need.
type app struct {
	cfg      *config.Config
	store    *storage.Store
	sessions *chat.Service
	registry *provider.Registry
	editor   *editor.Editor
	watcher  *editor.Watcher
}

// bootstrap loads configuration for workDir and wires storage, sessions,
// provider, and the document editor.
func bootstrap(workDir string) (*app, error) {
	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		return nil, fmt.Errorf("create data directories: %w", err)
	}

	cfg, err := config.Load(workDir)
	if err != nil {
		return nil, err
	}

	store := storage.New(paths.StoragePath())

	registry := provider.NewRegistry()
	registry.Register(provider.NewOllama(cfg.BaseURL))
	if _, err := registry.Get(cfg.Provider); err != nil {
		return nil, err
	}

	ed, err := editor.New(cfg.Document, store)
	if err != nil {
		return nil, err
	}

	watcher, err := editor.NewWatcher(ed)
	if err != nil {
		return nil, fmt.Errorf("watch document: %w", err)
	}
	watcher.Start()

	return &app{
		cfg:      cfg,
		store:    store,
		sessions: chat.NewService(store),
		registry: registry,
		editor:   ed,
		watcher:  watcher,
	}, nil
}

func (a *app) close() {
	if a.watcher != nil {
		_ = a.watcher.Stop()
	}
}

// waitForProvider pings the completion service with exponential backoff
// until it answers or the deadline passes. Startup readiness only; in-cycle
// call failures are the retry controller's business.
func (a *app) waitForProvider(ctx context.Context, maxWait time.Duration) error {
	prov, err := a.registry.Get(a.cfg.Provider)
	if err != nil {
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 5 * time.Second
	policy.MaxElapsedTime = maxWait

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		if err := prov.Ping(ctx); err != nil {
			logging.Debug().Err(err).Int("attempt", attempt).Msg("completion service not ready")
			return err
		}
		return nil
	}, backoff.WithContext(policy, ctx))
}
