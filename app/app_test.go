// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/lingofe/lingofe/config"
	"codeberg.org/lingofe/lingofe/core/storage"
	"codeberg.org/lingofe/lingofe/i18n"
)

var errClose = errors.New("close failed")

type closeFailStore struct {
	*storage.MemoryStore
}

func (closeFailStore) Close() error { return errClose }

func testConfig(t *testing.T) *config.ClientConfig {
	t.Helper()

	cfg := &config.ClientConfig{}
	cfg.SetDefaults()

	base, err := url.Parse("http://api.example.test/api")
	require.NoError(t, err)

	cfg.API.BaseURL = *base

	return cfg
}

func TestNew(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)

	a, err := New(cfg, Options{Store: storage.NewMemoryStore(0)})
	require.NoError(t, err)

	assert.NotNil(t, a.cache)
	assert.Equal(t, "http://api.example.test/api/vocabularies?page=0", a.API.Client().URL("/vocabularies", "page=0"))
	assert.Equal(t, "system", a.Prefs.Theme(context.Background()))

	require.NoError(t, a.Close())
}

func TestNewWithoutCache(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.Cache.Enabled = false

	a, err := New(cfg, Options{Store: storage.NewMemoryStore(0)})
	require.NoError(t, err)
	assert.Nil(t, a.cache)

	a.InvalidateContent()
	a.InvalidateContent("/vocabularies")
}

func TestNewRejectsRelativeBaseURL(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.API.BaseURL = url.URL{Path: "/api"}

	_, err := New(cfg, Options{Store: storage.NewMemoryStore(0)})
	require.Error(t, err)
}

func TestContextCarriesLanguage(t *testing.T) {
	require.NoError(t, i18n.Setup())

	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "ko_KR.UTF-8")

	store := storage.NewMemoryStore(0)

	a, err := New(testConfig(t), Options{Store: store})
	require.NoError(t, err)

	ctx := a.Context(context.Background())
	assert.Equal(t, "ko", i18n.TagFrom(ctx).String(), "LANG applies without a stored preference")

	_, err = a.Prefs.SetLanguage(ctx, "es")
	require.NoError(t, err)

	ctx = a.Context(context.Background())
	assert.Equal(t, "es", i18n.TagFrom(ctx).String(), "the stored preference wins")
}

func TestCloseReportsStoreError(t *testing.T) {
	t.Parallel()

	a, err := New(testConfig(t), Options{Store: closeFailStore{storage.NewMemoryStore(0)}})
	require.NoError(t, err)

	require.ErrorIs(t, a.Close(), errClose)
}

func countingServer(t *testing.T) (*url.URL, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":{"code":200},"data":{"content":[]}}`))
	}))
	t.Cleanup(srv.Close)

	base, err := url.Parse(srv.URL + "/api")
	require.NoError(t, err)

	return base, &hits
}

func TestResponseCacheOutlivesProcess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		storeKey string
		quota    int
		wantHits int32
	}{
		{name: "saved and restored", storeKey: config.DefaultResponseCacheKey, wantHits: 1},
		{name: "saving disabled", storeKey: "", wantHits: 2},
		{name: "quota exceeded", storeKey: config.DefaultResponseCacheKey, quota: 1, wantHits: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			base, hits := countingServer(t)
			store := storage.NewMemoryStore(tt.quota)

			fetch := func() {
				cfg := testConfig(t)
				cfg.API.BaseURL = *base
				cfg.Cache.StoreKey = tt.storeKey

				a, err := New(cfg, Options{Store: store})
				require.NoError(t, err)

				data, err := a.API.Client().GetJSONData(context.Background(), "/vocabularies", "page=0")
				require.NoError(t, err)
				assert.JSONEq(t, `{"content":[]}`, string(data))

				require.NoError(t, a.Close(), "a cache that cannot be saved does not fail Close")
			}

			fetch()
			fetch()

			assert.Equal(t, tt.wantHits, hits.Load())
		})
	}
}

func TestPurgedCacheIsSavedEmpty(t *testing.T) {
	t.Parallel()

	base, hits := countingServer(t)
	store := storage.NewMemoryStore(0)

	open := func() *App {
		cfg := testConfig(t)
		cfg.API.BaseURL = *base

		a, err := New(cfg, Options{Store: store})
		require.NoError(t, err)

		return a
	}

	a := open()
	_, err := a.API.Client().GetJSONData(context.Background(), "/vocabularies", "page=0")
	require.NoError(t, err)
	require.NoError(t, a.Close())

	a = open()
	a.InvalidateContent()
	require.NoError(t, a.Close())

	a = open()
	_, err = a.API.Client().GetJSONData(context.Background(), "/vocabularies", "page=0")
	require.NoError(t, err)
	require.NoError(t, a.Close())

	assert.Equal(t, int32(2), hits.Load())
}

func TestUnreadableSavedCacheIsIgnored(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore(0)
	require.NoError(t, store.Set(context.Background(), config.DefaultResponseCacheKey, []byte("not gob")))

	a, err := New(testConfig(t), Options{Store: store})
	require.NoError(t, err)
	assert.Zero(t, a.cache.Len())

	require.NoError(t, a.Close())
}
