// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Global exposes the client configuration.
//
// It is populated once by [ClientConfig.LoadConfig] during startup. Components
// receive the sections they need explicitly; only packages that have no
// constructor of their own (i18n) read from Global directly.
var Global ClientConfig

// Possible values for Storage.Driver.
const (
	StorageFile   StorageDriver = "file"
	StorageSQLite StorageDriver = "sqlite"
	StorageMemory StorageDriver = "memory"
)

// StorageDriver selects the backend that persists client-side state.
type StorageDriver string

// ClientConfig holds the application configuration.
type ClientConfig struct {
	Build buildInfo `yaml:"-"`

	API struct {
		RawBaseURL     string        `env:"LINGOFE_API_URL,overwrite" yaml:"baseUrl"`
		BaseURL        url.URL       `yaml:"-"`
		Timeout        time.Duration `env:"LINGOFE_API_TIMEOUT,overwrite" yaml:"timeout"`
		AcceptLanguage string        `env:"LINGOFE_ACCEPTLANGUAGE,overwrite" yaml:"acceptLanguage"`
	} `yaml:"api"`

	Settings struct {
		TTL      time.Duration `env:"LINGOFE_SETTINGS_TTL,overwrite" yaml:"ttl"`
		CacheKey string        `env:"LINGOFE_SETTINGS_CACHE_KEY,overwrite" yaml:"cacheKey"`
	} `yaml:"settings"`

	Cache struct {
		Enabled  bool          `env:"LINGOFE_CACHE,overwrite" yaml:"enabled"`
		Size     int           `env:"LINGOFE_CACHE_SIZE,overwrite" yaml:"cacheSize"`
		TTL      time.Duration `env:"LINGOFE_CACHE_TTL,overwrite" yaml:"cacheTTL"`
		Compress bool          `env:"LINGOFE_CACHE_COMPRESS,overwrite" yaml:"compress"`

		// StoreKey is the storage key the cache is saved under between runs.
		// Empty keeps the cache in memory only.
		StoreKey string `env:"LINGOFE_CACHE_STORE_KEY,overwrite" yaml:"storeKey"`
	} `yaml:"cache"`

	Storage struct {
		Driver     StorageDriver `env:"LINGOFE_STORAGE_DRIVER,overwrite" yaml:"driver"`
		Path       string        `env:"LINGOFE_STORAGE_PATH,overwrite" yaml:"path"`
		QuotaBytes int           `env:"LINGOFE_STORAGE_QUOTA_BYTES,overwrite" yaml:"quotaBytes"`
	} `yaml:"storage"`

	Telemetry struct {
		Enabled       bool   `env:"LINGOFE_TELEMETRY,overwrite" yaml:"enabled"`
		RatePerMinute int    `env:"LINGOFE_TELEMETRY_RATE,overwrite" yaml:"ratePerMinute"`
		Burst         int    `env:"LINGOFE_TELEMETRY_BURST,overwrite" yaml:"burst"`
		PathPrefix    string `env:"LINGOFE_TELEMETRY_PATH_PREFIX,overwrite" yaml:"pathPrefix"`
	} `yaml:"telemetry"`

	Display struct {
		Language string `env:"LINGOFE_LANGUAGE,overwrite" yaml:"language"`
		Theme    string `env:"LINGOFE_THEME,overwrite" yaml:"theme"`
		PageSize int    `env:"LINGOFE_PAGE_SIZE,overwrite" yaml:"pageSize"`
	} `yaml:"display"`

	Development struct {
		SaveResponses        bool   `env:"LINGOFE_SAVE_RESPONSES,overwrite" yaml:"saveResponses"`
		ResponseSaveLocation string `env:"LINGOFE_RESPONSE_SAVE_LOCATION,overwrite" yaml:"responseSaveLocation"`
	} `yaml:"development"`

	Log struct {
		Level   string   `env:"LINGOFE_LOG_LEVEL,overwrite" yaml:"logLevel"`
		Outputs []string `env:"LINGOFE_LOG_OUTPUTS,overwrite" yaml:"logOutputs"`
		Format  string   `env:"LINGOFE_LOG_FORMAT,overwrite" yaml:"logFormat"`
	} `yaml:"log"`

	Internationalization struct {
		// Strict mode for missing keys.
		//
		// When enabled, missing keys are logged (deduplicated per locale+key) and
		// visibly wrapped using markers.
		StrictMissingKeys bool `env:"LINGOFE_STRICT_MISSING_KEYS" yaml:"strictMissingKeys"`
	} `yaml:"internationalization"`
}

// LoadConfig loads the configuration from various sources.
//
// configFlagValue is the value of the --config flag; pass "" when the flag
// was not set by the user.
func (cfg *ClientConfig) LoadConfig(configFlagValue string) error {
	var configFilePath string

	// Determine the config file path with the correct precedence:
	// 1. Command-line flag (--config)
	// 2. Environment variable (LINGOFE_CONFIGFILE)
	// 3. Default path with fallback check
	switch {
	case configFlagValue != "":
		configFilePath = configFlagValue
	case os.Getenv("LINGOFE_CONFIGFILE") != "":
		configFilePath = os.Getenv("LINGOFE_CONFIGFILE")
	default:
		configFilePath = defaultConfigFile

		if _, err := os.Stat(configFilePath); os.IsNotExist(err) {
			if _, statErr := os.Stat(fallbackConfigFile); statErr == nil {
				configFilePath = fallbackConfigFile
			}
		}
	}

	cfg.SetDefaults()

	cfg.Build.load()

	if err := cfg.readYAML(configFilePath); err != nil {
		return fmt.Errorf("error loading YAML config: %w", err)
	}

	if err := useDotEnv(); err != nil {
		return fmt.Errorf("error using .env file: %w", err)
	}

	if err := readEnv(cfg); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}

	if err := cfg.validateAndSet(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	cfg.setupAudit()

	cfg.print()

	return nil
}

// GetDurationEncoderOption returns a YAML encoder option that marshals
// time.Duration into a human-readable string format (e.g., "30m", "1h").
func GetDurationEncoderOption() yaml.EncodeOption {
	return yaml.CustomMarshaler[time.Duration](
		func(d time.Duration) ([]byte, error) {
			return yaml.Marshal(d.String())
		},
	)
}
