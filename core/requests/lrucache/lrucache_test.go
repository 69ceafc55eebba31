// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package lrucache

import (
	"bytes"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	for _, compress := range []bool{false, true} {
		t.Run("compress="+strconv.FormatBool(compress), func(t *testing.T) {
			t.Parallel()

			cache, err := New(3, compress)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if cache.Len() != 0 {
				t.Errorf("expected cache length to be 0, got %d", cache.Len())
			}
		})
	}

	t.Run("InvalidSize", func(t *testing.T) {
		t.Parallel()

		cache, err := New(0, false)
		require.ErrorIs(t, err, ErrInvalidSize)
		assert.Nil(t, cache)
	})
}

func TestCache_SetAndGet(t *testing.T) {
	t.Parallel()

	cache, _ := New(2, false)

	if cache.Set("foo", []byte("bar"), time.Time{}) {
		t.Error("eviction should not occur when the cache is not full")
	}

	value, ok := cache.Get("foo")
	require.True(t, ok)
	assert.Equal(t, []byte("bar"), value)

	cache.Set("hello", []byte("world"), time.Time{})
	cache.Get("foo") // foo is now most recently used

	if !cache.Set("key3", []byte("value3"), time.Time{}) {
		t.Error("expected eviction when adding third key to size 2 cache")
	}

	_, ok = cache.Get("hello")
	assert.False(t, ok, "least recently used key should be evicted")

	_, ok = cache.Get("foo")
	assert.True(t, ok)
}

func TestCache_SetExistingKey(t *testing.T) {
	t.Parallel()

	cache, _ := New(2, false)

	cache.Set("k1", []byte("v1"), time.Time{})
	cache.Set("k2", []byte("v2"), time.Time{})

	if cache.Set("k1", []byte("v1-updated"), time.Time{}) {
		t.Error("re-adding an existing key should not evict anything")
	}

	value, _ := cache.Get("k1")
	assert.Equal(t, "v1-updated", string(value))
	assert.Equal(t, 2, cache.Len())
}

func TestCache_Expiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	cache, _ := New(4, false)
	cache.now = func() time.Time { return now }

	cache.Set("short", []byte("a"), now.Add(time.Minute))
	cache.Set("forever", []byte("b"), time.Time{})

	_, ok := cache.Peek("short")
	assert.True(t, ok)

	now = now.Add(time.Minute)

	_, ok = cache.Peek("short")
	assert.False(t, ok, "entry expires at its deadline")

	_, ok = cache.Get("short")
	assert.False(t, ok)

	_, ok = cache.Get("forever")
	assert.True(t, ok)

	assert.Equal(t, 1, cache.Len(), "Get drops expired entries")
	assert.Equal(t, Stats{Hits: 1, Misses: 1, Expired: 1}, cache.Stats())
}

func TestCache_ReturnedValueIsCopy(t *testing.T) {
	t.Parallel()

	for _, compress := range []bool{false, true} {
		cache, _ := New(1, compress)

		input := bytes.Repeat([]byte("abc"), 100)
		cache.Set("k", input, time.Time{})

		input[0] = 'X'

		got, _ := cache.Get("k")
		got[1] = 'Y'

		again, _ := cache.Peek("k")
		assert.Equal(t, bytes.Repeat([]byte("abc"), 100), again)
	}
}

func TestCache_Compression(t *testing.T) {
	t.Parallel()

	cache, _ := New(2, true)

	compressible := bytes.Repeat([]byte(`{"status":{"code":200},"data":[]}`), 50)
	cache.Set("big", compressible, time.Time{})

	ent := cache.items["big"].Value.(*entry)
	assert.True(t, ent.compressed)
	assert.Less(t, len(ent.value), len(compressible))

	got, ok := cache.Get("big")
	require.True(t, ok)
	assert.Equal(t, compressible, got)

	cache.Set("tiny", []byte("x"), time.Time{})
	assert.False(t, cache.items["tiny"].Value.(*entry).compressed, "compression kept only when smaller")
}

func TestCache_CorruptCompressedValue(t *testing.T) {
	t.Parallel()

	cache, _ := New(1, true)
	cache.Set("k", bytes.Repeat([]byte("z"), 512), time.Time{})

	cache.items["k"].Value.(*entry).value = []byte("not zstd")

	_, ok := cache.Get("k")
	assert.False(t, ok)
}

func TestCache_RemoveKeysPurge(t *testing.T) {
	t.Parallel()

	cache, _ := New(3, false)

	assert.Empty(t, cache.Keys())

	cache.Set("a", []byte("1"), time.Time{})
	cache.Set("b", []byte("2"), time.Time{})
	cache.Set("c", []byte("3"), time.Time{})
	cache.Get("a")

	assert.Equal(t, []string{"b", "c", "a"}, cache.Keys())

	assert.True(t, cache.Remove("b"))
	assert.False(t, cache.Remove("b"))
	assert.Equal(t, []string{"c", "a"}, cache.Keys())

	cache.Purge()
	assert.Equal(t, 0, cache.Len())
	assert.Equal(t, Stats{}, cache.Stats())
}

func TestCache_Concurrency(t *testing.T) {
	t.Parallel()

	cache, _ := New(50, true)

	var wg sync.WaitGroup

	for worker := range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range 200 {
				key := strconv.Itoa((worker*200 + i) % 75)
				value := bytes.Repeat([]byte(key), 64)

				cache.Set(key, value, time.Time{})

				if got, ok := cache.Get(key); ok && !bytes.Equal(got, value) {
					t.Errorf("key %s: value mismatch", key)
				}
			}
		}()
	}

	wg.Wait()

	if cache.Len() > 50 {
		t.Errorf("cache exceeded capacity: %d", cache.Len())
	}
}

func TestCache_SnapshotRestore(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	src, err := New(4, true)
	require.NoError(t, err)

	src.now = clock

	big := bytes.Repeat([]byte("vocabulary "), 100)

	src.Set("old", []byte("o"), now.Add(time.Minute))
	src.Set("gone", []byte("g"), now.Add(-time.Second))
	src.Set("big", big, now.Add(time.Hour))
	src.Set("forever", []byte("f"), time.Time{})

	data, err := src.Snapshot()
	require.NoError(t, err)

	dst, err := New(2, true)
	require.NoError(t, err)

	dst.now = clock

	n, err := dst.Restore(data)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.Equal(t, []string{"big", "forever"}, dst.Keys(), "recency order survives and the capacity holds")

	got, ok := dst.Get("big")
	require.True(t, ok)
	assert.Equal(t, big, got)

	t.Run("uncompressed cache skips compressed values", func(t *testing.T) {
		t.Parallel()

		plain, err := New(3, false)
		require.NoError(t, err)

		plain.now = clock

		n, err := plain.Restore(data)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		_, ok := plain.Get("big")
		assert.False(t, ok)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()

		_, err := dst.Restore([]byte("not gob"))
		require.Error(t, err)
	})
}
