// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package requests

import (
	"bytes"
	"context"
	"encoding/gob"
	"hash/fnv"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"codeberg.org/lingofe/lingofe/core/audit"
)

// cachedItem is a cached HTTP response together with its original URL.
type cachedItem struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	URL        string
}

// cachePolicy is the caching decision for one GET request.
type cachePolicy struct {
	// shouldStore reports whether an OK response may be written to the cache.
	shouldStore bool

	// cachedItem is a fresh cached response, if one exists.
	cachedItem *cachedItem
}

// cacheKey binds a cached response to the full URL and the Accept-Language the
// client sends, since the API localises some fields.
func (c *Client) cacheKey(fullURL string) string {
	hasher := fnv.New64a()

	_, _ = hasher.Write([]byte(fullURL + "\x00" + c.acceptLanguage))

	return strconv.FormatUint(hasher.Sum64(), 16)
}

// determineCachePolicy looks for a fresh cached response and decides whether
// a new one should be stored.
func (c *Client) determineCachePolicy(reqPath, fullURL string, header http.Header) cachePolicy {
	if c.cache == nil || c.cacheTTL <= 0 {
		return cachePolicy{}
	}

	cleanPath := path.Clean("/" + reqPath)
	for _, excluded := range c.excluded {
		if strings.HasPrefix(cleanPath, excluded) {
			return cachePolicy{}
		}
	}

	cacheControl := strings.ToLower(header.Get("Cache-Control"))
	if strings.Contains(cacheControl, "no-cache") {
		return cachePolicy{}
	}

	key := c.cacheKey(fullURL)

	if raw, found := c.cache.Get(key); found {
		var item cachedItem
		if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&item); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("Failed to decode cached item; removing")
			c.cache.Remove(key)
		} else {
			return cachePolicy{shouldStore: true, cachedItem: &item}
		}
	}

	return cachePolicy{shouldStore: !strings.Contains(cacheControl, "no-store")}
}

func (c *Client) store(ctx context.Context, fullURL string, resp *http.Response, body []byte) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cachedItem{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
		URL:        fullURL,
	}); err != nil {
		c.logger.Warn().Ctx(ctx).Err(err).Msg("Failed to serialize item for cache")

		return
	}

	c.cache.Set(c.cacheKey(fullURL), buf.Bytes(), time.Now().Add(c.cacheTTL))
}

func (c *Client) logCacheHit(ctx context.Context, fullURL string, item *cachedItem) {
	span := audit.Span{
		Destination: audit.ToAPI,
		RequestID:   requestID(ctx),
		Method:      http.MethodGet,
		URL:         fullURL,
		StatusCode:  item.StatusCode,
		Cached:      true,
	}

	_ = span.Begin(ctx)
	span.End()
	span.Log()
}

// InvalidateURLs removes every cached response whose URL starts with one of
// urlPrefixes (absolute URLs or API paths). It returns the number of entries
// removed and their URLs. Safe to call with caching disabled.
func (c *Client) InvalidateURLs(urlPrefixes []string) (int, []string) {
	var invalidated []string

	if c.cache == nil || len(urlPrefixes) == 0 {
		return 0, invalidated
	}

	prefixes := make([]string, len(urlPrefixes))
	for i, p := range urlPrefixes {
		if strings.HasPrefix(p, "/") {
			p = c.URL(p, "")
		}

		prefixes[i] = p
	}

	for _, key := range c.cache.Keys() {
		raw, ok := c.cache.Peek(key)
		if !ok {
			continue
		}

		var item cachedItem

		// Corrupt entries are removed on the next failed Get.
		if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&item); err != nil {
			continue
		}

		for _, prefix := range prefixes {
			if strings.HasPrefix(item.URL, prefix) {
				c.cache.Remove(key)

				invalidated = append(invalidated, item.URL)

				break
			}
		}
	}

	c.logger.Info().
		Int("count", len(invalidated)).
		Strs("urls", invalidated).
		Msg("Invalidated URLs")

	return len(invalidated), invalidated
}
