// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package lrucache provides a thread-safe, fixed-capacity least-recently-used (LRU)
byte cache with per-entry expiry.

Values are opaque byte slices. With compression enabled they are stored zstd
compressed when that saves space, and decompressed transparently on read.
Expired entries are dropped lazily on access.

[Cache.Snapshot] and [Cache.Restore] carry the live entries across processes.
Values keep their stored form, so compressed values stay compressed.
*/
package lrucache

import (
	"bytes"
	"container/list"
	"encoding/gob"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// ErrInvalidSize is returned by [New] for a non-positive capacity.
var ErrInvalidSize = errors.New("must provide a positive size")

// Cache is a fixed-capacity LRU cache that is safe for concurrent use.
// The zero value is not ready for use; construct one with [New].
type Cache struct {
	size  int
	order *list.List               // front is most recently used
	items map[string]*list.Element // key -> element holding *entry
	lock  sync.Mutex
	now   func() time.Time

	enc *zstd.Encoder
	dec *zstd.Decoder

	stats Stats
}

// Stats counts cache activity since construction or the last [Cache.Purge].
type Stats struct {
	Hits      int
	Misses    int
	Evictions int
	Expired   int
}

type entry struct {
	key        string
	value      []byte
	compressed bool
	expiresAt  time.Time // zero means no expiry
}

// New creates a cache holding at most size entries.
func New(size int, compress bool) (*Cache, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}

	c := &Cache{
		size:  size,
		order: list.New(),
		items: make(map[string]*list.Element, size),
		now:   time.Now,
	}

	if compress {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if err != nil {
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}

		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, fmt.Errorf("create zstd decoder: %w", err)
		}

		c.enc, c.dec = enc, dec
	}

	return c, nil
}

// Set stores value under key until expiresAt (zero time for no expiry) and
// marks it most recently used. It reports whether an older entry was evicted
// to make room.
func (c *Cache) Set(key string, value []byte, expiresAt time.Time) bool {
	stored, compressed := c.pack(value)

	c.lock.Lock()
	defer c.lock.Unlock()

	if el, ok := c.items[key]; ok {
		ent := el.Value.(*entry)
		ent.value, ent.compressed, ent.expiresAt = stored, compressed, expiresAt
		c.order.MoveToFront(el)

		return false
	}

	c.items[key] = c.order.PushFront(&entry{
		key:        key,
		value:      stored,
		compressed: compressed,
		expiresAt:  expiresAt,
	})

	if c.order.Len() <= c.size {
		return false
	}

	c.remove(c.order.Back())
	c.stats.Evictions++

	return true
}

// Get returns a copy of the value for key and marks it most recently used.
// Expired entries are removed and reported as missing.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.lock.Lock()

	el, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		c.lock.Unlock()

		return nil, false
	}

	ent := el.Value.(*entry)
	if c.expired(ent) {
		c.remove(el)
		c.stats.Expired++
		c.stats.Misses++
		c.lock.Unlock()

		return nil, false
	}

	c.order.MoveToFront(el)
	c.stats.Hits++

	stored, compressed := ent.value, ent.compressed

	c.lock.Unlock()

	return c.unpack(stored, compressed)
}

// Peek is like [Cache.Get] but leaves the LRU order and statistics untouched.
// Expired entries are still reported as missing.
func (c *Cache) Peek(key string) ([]byte, bool) {
	c.lock.Lock()

	el, ok := c.items[key]
	if !ok || c.expired(el.Value.(*entry)) {
		c.lock.Unlock()

		return nil, false
	}

	ent := el.Value.(*entry)
	stored, compressed := ent.value, ent.compressed

	c.lock.Unlock()

	return c.unpack(stored, compressed)
}

// Remove deletes key and reports whether it was present.
func (c *Cache) Remove(key string) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	el, ok := c.items[key]
	if ok {
		c.remove(el)
	}

	return ok
}

// Keys lists the keys from least to most recently used.
func (c *Cache) Keys() []string {
	c.lock.Lock()
	defer c.lock.Unlock()

	keys := make([]string, 0, len(c.items))
	for el := c.order.Back(); el != nil; el = el.Prev() {
		keys = append(keys, el.Value.(*entry).key)
	}

	return keys
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.order.Len()
}

// Purge empties the cache and resets its statistics.
func (c *Cache) Purge() {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.order.Init()
	clear(c.items)
	c.stats = Stats{}
}

// Stats returns a snapshot of the activity counters.
func (c *Cache) Stats() Stats {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.stats
}

// snapshotEntry is the serialized form of an entry.
type snapshotEntry struct {
	Key        string
	Value      []byte
	Compressed bool
	ExpiresAt  time.Time
}

// Snapshot encodes the unexpired entries, least recently used first.
func (c *Cache) Snapshot() ([]byte, error) {
	c.lock.Lock()

	entries := make([]snapshotEntry, 0, len(c.items))

	for el := c.order.Back(); el != nil; el = el.Prev() {
		ent := el.Value.(*entry)
		if c.expired(ent) {
			continue
		}

		entries = append(entries, snapshotEntry{
			Key:        ent.key,
			Value:      ent.value,
			Compressed: ent.compressed,
			ExpiresAt:  ent.expiresAt,
		})
	}

	c.lock.Unlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entries); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	return buf.Bytes(), nil
}

// Restore adds the entries of a [Cache.Snapshot] and returns how many were
// added; the oldest may already have been evicted again. Expired entries are
// skipped, and so are compressed ones when this cache has compression
// disabled. Entries already present are overwritten.
func (c *Cache) Restore(data []byte) (int, error) {
	var entries []snapshotEntry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entries); err != nil {
		return 0, fmt.Errorf("decode snapshot: %w", err)
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	restored := 0

	for _, se := range entries {
		ent := &entry{key: se.Key, value: se.Value, compressed: se.Compressed, expiresAt: se.ExpiresAt}
		if c.expired(ent) || (ent.compressed && c.dec == nil) {
			continue
		}

		if el, ok := c.items[se.Key]; ok {
			c.remove(el)
		}

		c.items[se.Key] = c.order.PushFront(ent)
		restored++

		if c.order.Len() > c.size {
			c.remove(c.order.Back())
			c.stats.Evictions++
		}
	}

	return restored, nil
}

func (c *Cache) expired(ent *entry) bool {
	return !ent.expiresAt.IsZero() && !c.now().Before(ent.expiresAt)
}

// remove must be called with the lock held.
func (c *Cache) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}

// pack copies or compresses value for storage. Compressed output is kept only
// when it is smaller than the input.
func (c *Cache) pack(value []byte) ([]byte, bool) {
	if len(value) == 0 {
		return []byte{}, false
	}

	if c.enc != nil {
		if out := c.enc.EncodeAll(value, nil); len(out) < len(value) {
			return out, true
		}
	}

	return append([]byte(nil), value...), false
}

// unpack returns a caller-owned copy of a stored value. A value that fails to
// decompress is reported as missing.
func (c *Cache) unpack(stored []byte, compressed bool) ([]byte, bool) {
	if !compressed {
		return append([]byte{}, stored...), true
	}

	out, err := c.dec.DecodeAll(stored, nil)
	if err != nil {
		return nil, false
	}

	return out, true
}
