// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps values in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
	quota  int
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(quota int) *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte), quota: quota}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}

	return append([]byte(nil), value...), nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	others := 0

	for k, v := range s.values {
		if k != key {
			others += len(v)
		}
	}

	if overQuota(s.quota, others, len(value)) {
		return ErrQuotaExceeded
	}

	s.values[key] = append([]byte(nil), value...)

	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)

	return nil
}

func (s *MemoryStore) Close() error { return nil }
