// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package settings

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/lingofe/lingofe/core/storage"
)

const testKey = "app_settings_cache"

var errOffline = errors.New("offline")

type fakeSource struct {
	calls   atomic.Int32
	records []Record
	err     error
	gate    chan struct{} // when non-nil, fetches block until closed
}

func (f *fakeSource) FetchSettings(ctx context.Context) ([]Record, error) {
	f.calls.Add(1)

	if f.gate != nil {
		<-f.gate
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return f.records, f.err
}

// brokenStore fails every write.
type brokenStore struct {
	*storage.MemoryStore
}

func (brokenStore) Set(context.Context, string, []byte) error { return storage.ErrQuotaExceeded }

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newCache(src Source, store storage.Store, clk *clock) *Cache {
	return New(src, store, Options{Key: testKey, TTL: 24 * time.Hour, Logger: zerolog.Nop(), Now: clk.now})
}

func seed(t *testing.T, store storage.Store, entry Entry) {
	t.Helper()

	raw, err := json.Marshal(entry)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), testKey, raw))
}

var live = []Record{{Name: NameTags, Lang: "en", Value: "food,travel"}}

func TestFetchSettings(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	stored := []Record{{Name: NameTags, Lang: "en", Value: "stored"}}

	tests := []struct {
		name      string
		stored    *Entry
		corrupt   bool
		empty     bool
		sourceErr error
		want      []Record
		wantCalls int32
	}{
		{
			name:      "fresh entry skips network",
			stored:    &Entry{Data: stored, Timestamp: now.Add(-time.Hour).UnixMilli()},
			want:      stored,
			wantCalls: 0,
		},
		{
			name:      "stale entry refetches",
			stored:    &Entry{Data: stored, Timestamp: now.Add(-25 * time.Hour).UnixMilli()},
			want:      live,
			wantCalls: 1,
		},
		{
			name:      "exactly ttl old is stale",
			stored:    &Entry{Data: stored, Timestamp: now.Add(-24 * time.Hour).UnixMilli()},
			want:      live,
			wantCalls: 1,
		},
		{
			name:      "empty store fetches",
			want:      live,
			wantCalls: 1,
		},
		{
			name:      "failure returns stale entry",
			stored:    &Entry{Data: stored, Timestamp: now.Add(-48 * time.Hour).UnixMilli()},
			sourceErr: errOffline,
			want:      stored,
			wantCalls: 1,
		},
		{
			name:      "failure without entry returns fallback",
			sourceErr: errOffline,
			want:      Fallback(),
			wantCalls: 1,
		},
		{
			name:      "empty payload without entry returns fallback",
			empty:     true,
			want:      Fallback(),
			wantCalls: 1,
		},
		{
			name:      "empty payload returns stale entry",
			stored:    &Entry{Data: stored, Timestamp: now.Add(-48 * time.Hour).UnixMilli()},
			empty:     true,
			want:      stored,
			wantCalls: 1,
		},
		{
			name:      "stored empty entry is treated as absent",
			stored:    &Entry{Timestamp: now.Add(-time.Hour).UnixMilli()},
			want:      live,
			wantCalls: 1,
		},
		{
			name:      "corrupt entry is treated as absent",
			corrupt:   true,
			sourceErr: errOffline,
			want:      Fallback(),
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := storage.NewMemoryStore(0)
			if tt.stored != nil {
				seed(t, store, *tt.stored)
			}

			if tt.corrupt {
				require.NoError(t, store.Set(context.Background(), testKey, []byte("{not json")))
			}

			src := &fakeSource{records: live, err: tt.sourceErr}
			if tt.sourceErr != nil || tt.empty {
				src.records = nil
			}

			cache := newCache(src, store, &clock{now})

			got := cache.FetchSettings(context.Background())
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCalls, src.calls.Load())
			assert.NotEmpty(t, got)
		})
	}
}

func TestFetchSettingsStoresResult(t *testing.T) {
	t.Parallel()

	clk := &clock{time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := storage.NewMemoryStore(0)
	src := &fakeSource{records: live}
	cache := newCache(src, store, clk)

	cache.FetchSettings(context.Background())

	raw, err := store.Get(context.Background(), testKey)
	require.NoError(t, err)

	var entry Entry
	require.NoError(t, json.Unmarshal(raw, &entry))
	assert.Equal(t, live, entry.Data)
	assert.Equal(t, clk.t.UnixMilli(), entry.Timestamp)

	// within TTL: served from the store
	clk.t = clk.t.Add(23 * time.Hour)
	cache.FetchSettings(context.Background())
	assert.Equal(t, int32(1), src.calls.Load())

	// expired
	clk.t = clk.t.Add(2 * time.Hour)
	cache.FetchSettings(context.Background())
	assert.Equal(t, int32(2), src.calls.Load())

	require.NoError(t, cache.Invalidate(context.Background()))
	cache.FetchSettings(context.Background())
	assert.Equal(t, int32(3), src.calls.Load())
}

func TestEmptyPayloadIsNotStored(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore(0)
	src := &fakeSource{}
	cache := newCache(src, store, &clock{time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)})

	for range 2 {
		assert.Equal(t, Fallback(), cache.FetchSettings(context.Background()))
	}

	assert.Equal(t, int32(2), src.calls.Load(), "nothing fresh was stored, so each call fetches")

	_, err := store.Get(context.Background(), testKey)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	t.Parallel()

	src := &fakeSource{records: live, gate: make(chan struct{})}
	cache := newCache(src, storage.NewMemoryStore(0), &clock{time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)})

	ctx, cancel := context.WithCancel(context.Background())

	first := make(chan []Record, 1)

	go func() { first <- cache.FetchSettings(ctx) }()

	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)

	second := make(chan []Record, 1)

	go func() { second <- cache.FetchSettings(context.Background()) }()

	cancel()
	close(src.gate)

	assert.Equal(t, live, <-first)
	assert.Equal(t, live, <-second)
}

func TestWriteFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	src := &fakeSource{records: live}
	cache := newCache(src, brokenStore{storage.NewMemoryStore(0)}, &clock{time.Now()})

	assert.Equal(t, live, cache.FetchSettings(context.Background()))
	assert.Equal(t, live, cache.FetchSettings(context.Background()))
	assert.Equal(t, int32(2), src.calls.Load(), "nothing was cached")
}

func TestConcurrentCallersShareFetch(t *testing.T) {
	t.Parallel()

	src := &fakeSource{records: live, gate: make(chan struct{})}
	cache := newCache(src, storage.NewMemoryStore(0), &clock{time.Now()})

	var wg sync.WaitGroup

	results := make([][]Record, 5)

	for i := range results {
		wg.Add(1)

		go func() {
			defer wg.Done()

			results[i] = cache.FetchSettings(context.Background())
		}()
	}

	// let the callers pile up on the in-flight fetch
	time.Sleep(50 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, live, r)
	}

	assert.LessOrEqual(t, src.calls.Load(), int32(5))
	assert.GreaterOrEqual(t, src.calls.Load(), int32(1))
}

func TestLookup(t *testing.T) {
	t.Parallel()

	records := []Record{
		{Name: NameTags, Lang: "ja", Value: "食べ物, 旅行"},
		{Name: NameTags, Lang: "", Value: "general"},
		{Name: NameDifficultyLevels, Lang: "en", Value: "BEGINNER,,ADVANCED"},
	}

	v, ok := Lookup(records, NameTags, "ja-JP")
	assert.True(t, ok)
	assert.Equal(t, "食べ物, 旅行", v)

	v, ok = Lookup(records, NameTags, "ko")
	assert.True(t, ok)
	assert.Equal(t, "general", v)

	_, ok = Lookup(records, NameDifficultyLevels, "ko")
	assert.False(t, ok)

	assert.Equal(t, []string{"食べ物", "旅行"}, Values(records, NameTags, "ja"))
	assert.Equal(t, []string{"BEGINNER", "ADVANCED"}, Values(records, NameDifficultyLevels, "en"))
	assert.Nil(t, Values(records, "missing", "en"))
}

func TestFallbackIsACopy(t *testing.T) {
	t.Parallel()

	f := Fallback()
	require.NotEmpty(t, f)

	f[0].Value = "changed"
	assert.NotEqual(t, "changed", Fallback()[0].Value)
}
