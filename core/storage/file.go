// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
)

const (
	dirPermissions = 0o700
	fileSuffix     = ".bin"
)

// FileStore keeps one file per key in a directory. Writes replace the file
// atomically, so a crash never leaves a half-written value behind.
type FileStore struct {
	dir   string
	quota int
	mu    sync.Mutex // serialises quota checks with writes
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string, quota int) (*FileStore, error) {
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	return &FileStore{dir: dir, quota: quota}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+fileSuffix)
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	return data, nil
}

func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quota > 0 {
		others, err := s.usage(key)
		if err != nil {
			return err
		}

		if overQuota(s.quota, others, len(value)) {
			return ErrQuotaExceeded
		}
	}

	if err := atomic.WriteFile(s.path(key), bytes.NewReader(value)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}

	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}

	return nil
}

func (s *FileStore) Close() error { return nil }

// usage sums the sizes of all stored values except skipKey.
func (s *FileStore) usage(skipKey string) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("list storage directory: %w", err)
	}

	total := 0

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != fileSuffix || entry.Name() == skipKey+fileSuffix {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		total += int(info.Size())
	}

	return total, nil
}
