// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package settings caches the platform settings blob (tag vocabularies,
difficulty levels and similar lists) on the client.

[Cache.FetchSettings] never fails: it prefers a fresh stored copy, then the
network, then a stale stored copy, and finally a built-in fallback set.
*/
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"codeberg.org/lingofe/lingofe/core/storage"
)

var errEmptySettings = errors.New("settings payload is empty")

// Record is one setting, unique by (Name, Lang). List values are comma-joined.
type Record struct {
	Name  string `json:"name"`
	Lang  string `json:"lang"`
	Value string `json:"value"`
}

// Entry is the stored blob. Timestamp is in unix milliseconds.
type Entry struct {
	Data      []Record `json:"data"`
	Timestamp int64    `json:"timestamp"`
}

// Source fetches the live settings, typically from the API.
type Source interface {
	FetchSettings(ctx context.Context) ([]Record, error)
}

// Options tune a [Cache].
type Options struct {
	// Key is the storage key of the blob.
	Key string

	// TTL is how long a stored blob counts as fresh.
	TTL time.Duration

	Logger zerolog.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Cache is a time-boxed settings cache with stale fallback.
// It is safe for concurrent use.
type Cache struct {
	source Source
	store  storage.Store
	key    string
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger

	group singleflight.Group
}

// New returns a cache reading through source and persisting into store.
func New(source Source, store storage.Store, opts Options) *Cache {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Cache{
		source: source,
		store:  store,
		key:    opts.Key,
		ttl:    opts.TTL,
		now:    now,
		logger: opts.Logger.With().Str("sys", "settings").Logger(),
	}
}

// FetchSettings returns the settings records.
//
// A fresh stored entry is returned without touching the network. Otherwise a
// live fetch runs (shared between concurrent callers); its result is stored
// and returned. When the fetch fails, the stored entry is returned even if
// stale, and without one the built-in [Fallback] set. An empty live payload
// counts as a failed fetch and is never stored, so the result is never empty.
func (c *Cache) FetchSettings(ctx context.Context) []Record {
	entry, found := c.read(ctx)
	if found && c.fresh(entry) {
		return entry.Data
	}

	// Joined callers share the fetch, so it must outlive the first caller.
	fetchCtx := context.WithoutCancel(ctx)

	result, err, _ := c.group.Do(c.key, func() (any, error) {
		records, err := c.source.FetchSettings(fetchCtx)
		if err != nil {
			return nil, err
		}

		if len(records) == 0 {
			return nil, errEmptySettings
		}

		c.write(ctx, Entry{Data: records, Timestamp: c.now().UnixMilli()})

		return records, nil
	})
	if err == nil {
		return result.([]Record)
	}

	if found {
		c.logger.Warn().Err(err).
			Time("stored_at", time.UnixMilli(entry.Timestamp)).
			Msg("Settings fetch failed, using stored settings")

		return entry.Data
	}

	c.logger.Warn().Err(err).Msg("Settings fetch failed, using built-in fallback")

	return Fallback()
}

// Invalidate deletes the stored entry so the next call fetches.
func (c *Cache) Invalidate(ctx context.Context) error {
	return c.store.Delete(ctx, c.key)
}

func (c *Cache) fresh(entry Entry) bool {
	return c.now().UnixMilli()-entry.Timestamp < c.ttl.Milliseconds()
}

// read loads the stored entry. Missing, unreadable or corrupt blobs count as absent.
func (c *Cache) read(ctx context.Context) (Entry, bool) {
	raw, err := c.store.Get(ctx, c.key)
	if errors.Is(err, storage.ErrNotFound) {
		return Entry{}, false
	}

	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to read stored settings")

		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn().Err(err).Msg("Stored settings are corrupt, ignoring")

		return Entry{}, false
	}

	if len(entry.Data) == 0 {
		return Entry{}, false
	}

	return entry, true
}

// write stores entry. Failures are logged and otherwise ignored.
func (c *Cache) write(ctx context.Context, entry Entry) {
	raw, err := json.Marshal(entry)
	if err == nil {
		err = c.store.Set(ctx, c.key, raw)
	}

	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to store settings, continuing without cache")
	}
}

// Lookup finds the value of name for lang. It falls back to the base
// language of lang ("ja" for "ja-JP") and then to a language-neutral record
// (empty Lang).
func Lookup(records []Record, name, lang string) (string, bool) {
	candidates := []string{lang}

	if tag, err := language.Parse(lang); err == nil {
		if base, conf := tag.Base(); conf != language.No && base.String() != lang {
			candidates = append(candidates, base.String())
		}
	}

	candidates = append(candidates, "")

	for _, want := range candidates {
		for _, r := range records {
			if r.Name == name && strings.EqualFold(r.Lang, want) {
				return r.Value, true
			}
		}
	}

	return "", false
}

// Values is [Lookup] with the value split on commas. Blank items are dropped.
func Values(records []Record, name, lang string) []string {
	raw, ok := Lookup(records, name, lang)
	if !ok {
		return nil
	}

	var out []string

	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
