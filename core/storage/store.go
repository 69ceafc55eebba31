// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package storage persists small pieces of client-side state (the settings blob,
the selected display language and theme) under string keys.

Three backends are available: a directory of files written atomically, a
SQLite database, and process memory. All of them enforce an optional byte
quota so that callers see the same failure mode regardless of the backend.
*/
package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"codeberg.org/lingofe/lingofe/config"
)

var (
	// ErrNotFound is returned by Get for a key that has never been written.
	ErrNotFound = errors.New("storage: key not found")

	// ErrQuotaExceeded is returned by Set when the write would exceed the quota.
	ErrQuotaExceeded = errors.New("storage: quota exceeded")

	// ErrInvalidKey is returned for keys outside [a-zA-Z0-9_.-].
	ErrInvalidKey = errors.New("storage: invalid key")

	errUnknownDriver = errors.New("storage: unknown driver")
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Store is a byte-valued key/value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open returns the Store selected by driver. quota limits the total stored
// bytes; zero or less means unlimited.
func Open(driver config.StorageDriver, path string, quota int) (Store, error) {
	switch driver {
	case config.StorageFile:
		return NewFileStore(path, quota)
	case config.StorageSQLite:
		return NewSQLiteStore(path, quota)
	case config.StorageMemory:
		return NewMemoryStore(quota), nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownDriver, driver)
	}
}

func checkKey(key string) error {
	if !validKey.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	return nil
}

func overQuota(quota, others, incoming int) bool {
	return quota > 0 && others+incoming > quota
}
