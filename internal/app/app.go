// Package app wires the pieces together: configuration, credential
// store, token manager, provider adapters, registry, dispatcher and
// the calendar aggregator.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"navi/internal/capability"
	"navi/internal/config"
	"navi/internal/credstore"
	"navi/internal/providers/gmail"
	"navi/internal/providers/googlecal"
	"navi/internal/providers/notion"
	"navi/internal/providers/outlook"
	"navi/internal/token"
	"navi/internal/unified"
	"navi/pkg/logging"

	"github.com/fsnotify/fsnotify"
)

// App holds the assembled runtime.
type App struct {
	Config     config.NaviConfig
	Store      *credstore.FileStore
	Tokens     *token.Manager
	Registry   *capability.Registry
	Dispatcher *capability.Dispatcher
	Calendar   *unified.Service

	watcher *fsnotify.Watcher
}

// New assembles the runtime from a loaded configuration. Only enabled
// providers are registered.
func New(cfg config.NaviConfig) (*App, error) {
	store, err := credstore.NewFileStore(cfg.CredentialFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	auth := make(map[string]token.ProviderAuth, len(cfg.Providers))
	for key, pc := range cfg.Providers {
		auth[key] = token.ProviderAuth{
			TokenURL:     pc.OAuth.TokenURL,
			ClientID:     pc.OAuth.ClientID,
			ClientSecret: pc.OAuth.ClientSecret,
			Scopes:       pc.OAuth.Scopes,
			Static:       pc.OAuth.Static,
		}
	}
	tokens := token.NewManager(store, auth)

	timeout := time.Duration(cfg.RemoteTimeoutSeconds) * time.Second
	registry := capability.NewRegistry()

	if pc, ok := cfg.Providers[config.ProviderGmail]; ok && pc.Enabled {
		if err := registry.Register(gmail.New(tokens, pc.BaseURL, timeout)); err != nil {
			return nil, err
		}
	}
	if pc, ok := cfg.Providers[config.ProviderGoogleCal]; ok && pc.Enabled {
		if err := registry.Register(googlecal.New(tokens, pc.BaseURL, timeout)); err != nil {
			return nil, err
		}
	}
	if pc, ok := cfg.Providers[config.ProviderOutlook]; ok && pc.Enabled {
		if err := registry.Register(outlook.New(tokens, pc.BaseURL, timeout)); err != nil {
			return nil, err
		}
	}
	if pc, ok := cfg.Providers[config.ProviderNotion]; ok && pc.Enabled {
		if err := registry.Register(notion.New(tokens, pc.BaseURL, pc.DatabaseID, timeout)); err != nil {
			return nil, err
		}
	}

	dispatcher := capability.NewDispatcher(registry)
	calendar := unified.NewService(registry, dispatcher, cfg.Aggregator)

	logging.Info("App", "Initialized with %d providers", len(registry.Providers()))

	return &App{
		Config:     cfg,
		Store:      store,
		Tokens:     tokens,
		Registry:   registry,
		Dispatcher: dispatcher,
		Calendar:   calendar,
	}, nil
}

// WatchCredentials invalidates the event cache whenever the credential
// file changes on disk, so reconnecting an account takes effect without
// waiting for the TTL. The watch runs until ctx is cancelled.
func (a *App) WatchCredentials(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	// Watch the directory: editors and atomic writes replace the file.
	if err := watcher.Add(filepath.Dir(a.Store.Path())); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch credential directory: %w", err)
	}
	a.watcher = watcher

	go func() {
		defer watcher.Close()
		target := filepath.Clean(a.Store.Path())
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					logging.Debug("App", "Credential file changed (%s), invalidating event cache", event.Op)
					a.Calendar.Invalidate()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warn("App", "Credential watcher error: %v", err)
			}
		}
	}()
	return nil
}

// Close releases the watcher if one is running.
func (a *App) Close() {
	if a.watcher != nil {
		a.watcher.Close()
	}
}
