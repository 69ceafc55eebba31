// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	defaultConfigFile  = "./config.yaml"
	fallbackConfigFile = "./config.yml"

	// Default API request timeout in seconds.
	defaultAPITimeoutSeconds = 15
	// Default settings cache TTL in hours.
	defaultSettingsTTLHours = 24
	// Default list response cache TTL in minutes.
	defaultCacheTTLMinutes = 5
	// Default page size for list endpoints.
	defaultPageSize = 20
)

// Storage keys of the settings blob and the saved response cache.
const (
	DefaultSettingsCacheKey = "app_settings_cache"
	DefaultResponseCacheKey = "response_cache"
)

// SetDefaults populates the configuration with default values.
func (cfg *ClientConfig) SetDefaults() {
	cfg.API.RawBaseURL = "http://localhost:8080/api"
	cfg.API.Timeout = defaultAPITimeoutSeconds * time.Second
	cfg.API.AcceptLanguage = "en-US,en;q=0.5"

	cfg.Settings.TTL = defaultSettingsTTLHours * time.Hour
	cfg.Settings.CacheKey = DefaultSettingsCacheKey

	cfg.Cache.Enabled = true
	cfg.Cache.Size = 100
	cfg.Cache.TTL = defaultCacheTTLMinutes * time.Minute
	cfg.Cache.Compress = false
	cfg.Cache.StoreKey = DefaultResponseCacheKey

	cfg.Storage.Driver = StorageFile
	cfg.Storage.Path = defaultStoragePath()
	cfg.Storage.QuotaBytes = 5 * 1024 * 1024

	cfg.Telemetry.Enabled = true
	cfg.Telemetry.RatePerMinute = 60
	cfg.Telemetry.Burst = 10
	cfg.Telemetry.PathPrefix = "/questions"

	cfg.Display.Language = ""
	cfg.Display.Theme = "system"
	cfg.Display.PageSize = defaultPageSize

	cfg.Development.SaveResponses = false
	cfg.Development.ResponseSaveLocation = "/tmp/lingofe/responses"

	cfg.Log.Level = "warn"
	cfg.Log.Outputs = []string{"/dev/stderr"}
	cfg.Log.Format = "console"

	cfg.Internationalization.StrictMissingKeys = false
}

// defaultStoragePath places local state under the user's cache directory,
// falling back to ./data when that cannot be determined.
func defaultStoragePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "./data"
	}

	return filepath.Join(dir, "lingofe")
}
