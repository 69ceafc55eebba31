// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

// validation errors.
var (
	errInvalidBaseURL       = errors.New("api.baseUrl must be an absolute http(s) URL")
	errInvalidTimeout       = errors.New("api.timeout must be positive")
	errInvalidSettingsTTL   = errors.New("settings.ttl must be positive")
	errEmptySettingsKey     = errors.New("settings.cacheKey cannot be empty")
	errInvalidCacheSize     = errors.New("cache.cacheSize must be positive when the cache is enabled")
	errInvalidCacheTTL      = errors.New("cache.cacheTTL must be positive when the cache is enabled")
	errCacheKeyClash        = errors.New("cache.storeKey must differ from settings.cacheKey")
	errInvalidStorageDriver = errors.New("invalid storage.driver")
	errEmptyStoragePath     = errors.New("storage.path cannot be empty for persistent drivers")
	errInvalidQuota         = errors.New("storage.quotaBytes cannot be negative")
	errInvalidTelemetryRate = errors.New("telemetry.ratePerMinute and telemetry.burst must be positive")
	errInvalidTheme         = errors.New("display.theme must be one of light, dark or system")
	errInvalidPageSize      = errors.New("display.pageSize must be positive")
	errInvalidLogLevel      = errors.New("invalid log.logLevel")
	errInvalidLogFormat     = errors.New("log.logFormat must be console or json")
)

// Themes accepted by display.theme.
var Themes = []string{"light", "dark", "system"}

// validateAndSet validates the client configuration and populates derived fields.
func (cfg *ClientConfig) validateAndSet() error {
	baseURL, err := url.Parse(strings.TrimSpace(cfg.API.RawBaseURL))
	if err != nil || (baseURL.Scheme != "http" && baseURL.Scheme != "https") || baseURL.Host == "" {
		return fmt.Errorf("%w: %q", errInvalidBaseURL, cfg.API.RawBaseURL)
	}

	// Endpoint paths are joined onto the base, so keep it free of a trailing slash.
	baseURL.Path = strings.TrimSuffix(baseURL.Path, "/")
	cfg.API.BaseURL = *baseURL

	if cfg.API.Timeout <= 0 {
		return errInvalidTimeout
	}

	if cfg.Settings.TTL <= 0 {
		return errInvalidSettingsTTL
	}

	if cfg.Settings.CacheKey == "" {
		return errEmptySettingsKey
	}

	if cfg.Cache.Enabled {
		if cfg.Cache.Size <= 0 {
			return errInvalidCacheSize
		}

		if cfg.Cache.TTL <= 0 {
			return errInvalidCacheTTL
		}

		if cfg.Cache.StoreKey == cfg.Settings.CacheKey {
			return errCacheKeyClash
		}
	}

	switch cfg.Storage.Driver {
	case StorageFile, StorageSQLite:
		if cfg.Storage.Path == "" {
			return errEmptyStoragePath
		}
	case StorageMemory:
		log.Warn().
			Msg("Storage driver is memory, settings and preferences will not persist between runs")
	default:
		return fmt.Errorf("%w: %q", errInvalidStorageDriver, cfg.Storage.Driver)
	}

	if cfg.Storage.QuotaBytes < 0 {
		return errInvalidQuota
	}

	if cfg.Telemetry.Enabled && (cfg.Telemetry.RatePerMinute <= 0 || cfg.Telemetry.Burst <= 0) {
		return errInvalidTelemetryRate
	}

	if !IsValidTheme(cfg.Display.Theme) {
		return fmt.Errorf("%w, got %q", errInvalidTheme, cfg.Display.Theme)
	}

	if cfg.Display.PageSize <= 0 {
		return errInvalidPageSize
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", errInvalidLogLevel, cfg.Log.Level)
	}

	switch cfg.Log.Format {
	case "console", "json":
	default:
		return errInvalidLogFormat
	}

	return nil
}

// IsValidTheme reports whether theme is one of [Themes].
func IsValidTheme(theme string) bool {
	return slices.Contains(Themes, theme)
}
