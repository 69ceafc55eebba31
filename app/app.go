// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package app assembles the client from a loaded configuration: the API client
with its response cache, local storage, the settings cache, display
preferences and the telemetry reporter.

Command handlers receive an [*App] and derive a per-command context from it
with [App.Context].
*/
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"codeberg.org/lingofe/lingofe/config"
	"codeberg.org/lingofe/lingofe/core"
	"codeberg.org/lingofe/lingofe/core/idgen"
	"codeberg.org/lingofe/lingofe/core/requests"
	"codeberg.org/lingofe/lingofe/core/requests/lrucache"
	"codeberg.org/lingofe/lingofe/core/settings"
	"codeberg.org/lingofe/lingofe/core/storage"
	"codeberg.org/lingofe/lingofe/core/telemetry"
	"codeberg.org/lingofe/lingofe/i18n"
)

// App holds the long-lived components of one client process.
type App struct {
	Config    *config.ClientConfig
	API       *core.API
	Store     storage.Store
	Settings  *settings.Cache
	Prefs     *storage.Preferences
	Telemetry *telemetry.Reporter
	Logger    zerolog.Logger

	cache *lrucache.Cache
}

// Options override parts of the assembly, mainly for tests.
type Options struct {
	// Store replaces the store opened from cfg.Storage.
	Store storage.Store

	Logger zerolog.Logger
}

// New wires the components described by cfg.
func New(cfg *config.ClientConfig, opts Options) (*App, error) {
	logger := opts.Logger

	var cache *lrucache.Cache

	if cfg.Cache.Enabled {
		var err error

		cache, err = lrucache.New(cfg.Cache.Size, cfg.Cache.Compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create response cache: %w", err)
		}
	}

	client, err := requests.NewClient(requests.Options{
		BaseURL:        cfg.API.BaseURL,
		Timeout:        cfg.API.Timeout,
		AcceptLanguage: cfg.API.AcceptLanguage,
		Cache:          cache,
		CacheTTL:       cfg.Cache.TTL,
		// Settings have their own cache; outcomes are never GETs but are
		// listed so an accidental GET is not served stale.
		ExcludedCachePaths: []string{core.SettingsPath, cfg.Telemetry.PathPrefix + "/"},
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	store := opts.Store
	if store == nil {
		store, err = storage.Open(cfg.Storage.Driver, cfg.Storage.Path, cfg.Storage.QuotaBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
		}
	}

	if cache != nil && cfg.Cache.StoreKey != "" {
		loadCache(cache, store, cfg.Cache.StoreKey, logger)
	}

	api := core.NewAPI(client, cfg.Telemetry.PathPrefix)

	a := &App{
		Config: cfg,
		API:    api,
		Store:  store,
		Settings: settings.New(api, store, settings.Options{
			Key:    cfg.Settings.CacheKey,
			TTL:    cfg.Settings.TTL,
			Logger: logger,
		}),
		Prefs: storage.NewPreferences(store, cfg.Display.Language, cfg.Display.Theme),
		Telemetry: telemetry.NewReporter(api, telemetry.Options{
			Enabled:       cfg.Telemetry.Enabled,
			RatePerMinute: cfg.Telemetry.RatePerMinute,
			Burst:         cfg.Telemetry.Burst,
			Logger:        logger,
		}),
		Logger: logger,
		cache:  cache,
	}

	logger.Debug().
		Str("driver", string(cfg.Storage.Driver)).
		Bool("cache", cache != nil).
		Bool("telemetry", cfg.Telemetry.Enabled).
		Msg("Client assembled")

	return a, nil
}

// Language resolves the display language: the stored preference, then the
// POSIX locale variables, then the base locale.
func (a *App) Language(ctx context.Context) language.Tag {
	return i18n.FromEnvironment(a.Prefs.Language(ctx))
}

// Context returns ctx carrying the display language and a fresh command ID
// that prefixes the IDs of every request made under it.
func (a *App) Context(ctx context.Context) context.Context {
	ctx = i18n.WithTag(ctx, a.Language(ctx))

	return requests.WithRequestID(ctx, idgen.Make())
}

// InvalidateContent drops cached list responses for the given entity
// endpoints, or every cached response when none are given.
func (a *App) InvalidateContent(endpoints ...string) {
	if a.cache == nil {
		return
	}

	if len(endpoints) == 0 {
		a.cache.Purge()

		return
	}

	a.API.Client().InvalidateURLs(endpoints)
}

// Close waits for pending telemetry, saves the response cache and closes the
// store. A cache that cannot be saved is logged and does not fail Close.
func (a *App) Close() error {
	a.Telemetry.Wait()

	if a.cache != nil && a.Config.Cache.StoreKey != "" {
		saveCache(a.cache, a.Store, a.Config.Cache.StoreKey, a.Logger)
	}

	var errs []error

	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close storage: %w", err))
	}

	return errors.Join(errs...)
}

func loadCache(cache *lrucache.Cache, store storage.Store, key string, logger zerolog.Logger) {
	raw, err := store.Get(context.Background(), key)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}

	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Failed to read saved response cache")

		return
	}

	n, err := cache.Restore(raw)
	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Discarding unreadable response cache")

		return
	}

	logger.Debug().Int("entries", n).Msg("Response cache restored")
}

func saveCache(cache *lrucache.Cache, store storage.Store, key string, logger zerolog.Logger) {
	data, err := cache.Snapshot()
	if err == nil {
		err = store.Set(context.Background(), key, data)
	}

	if err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Failed to save response cache")
	}
}
