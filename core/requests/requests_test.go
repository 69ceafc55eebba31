// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package requests

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/lingofe/lingofe/core/audit"
	"codeberg.org/lingofe/lingofe/core/requests/lrucache"
	"codeberg.org/lingofe/lingofe/i18n"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, withCache bool) (*Client, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	base, err := url.Parse(srv.URL + "/api/")
	require.NoError(t, err)

	opts := Options{
		BaseURL:            *base,
		Timeout:            2 * time.Second,
		AcceptLanguage:     "ja",
		ExcludedCachePaths: []string{"/settings"},
		Logger:             zerolog.Nop(),
	}

	if withCache {
		opts.Cache, err = lrucache.New(10, true)
		require.NoError(t, err)

		opts.CacheTTL = time.Minute
	}

	client, err := NewClient(opts)
	require.NoError(t, err)

	return client, &hits
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Options{BaseURL: url.URL{Path: "/api"}})
	assert.ErrorIs(t, err, errInvalidBaseURL)
}

func TestGetJSONData(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/vocabularies", r.URL.Path)
		assert.Equal(t, "page=0&size=20&sort=term", r.URL.RawQuery)
		assert.Equal(t, "ja", r.Header.Get("Accept-Language"))

		_, _ = w.Write([]byte(`{"status":{"code":200,"message":"OK"},"data":{"content":[{"id":1}],"totalPages":1}}`))
	}, false)

	data, err := client.GetJSONData(context.Background(), "/vocabularies", "page=0&size=20&sort=term")
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":[{"id":1}],"totalPages":1}`, string(data))
}

func TestProcessEnvelope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		wantData    string
		wantErr     error
		wantCode    int
		wantMessage string
	}{
		{name: "ok", status: 200, body: `{"status":{"code":200},"data":[1,2]}`, wantData: `[1,2]`},
		{name: "ok without data", status: 200, body: `{"status":{"code":200}}`, wantData: `null`},
		{
			name: "application error", status: 200,
			body:    `{"status":{"code":404,"message":"Vocabulary not found"}}`,
			wantErr: ErrApplication, wantCode: 404, wantMessage: "Vocabulary not found",
		},
		{name: "missing status", status: 200, body: `{"data":[]}`, wantErr: ErrApplication, wantCode: 200},
		{name: "invalid json", status: 200, body: `<html>`, wantErr: ErrTransport, wantCode: 200},
		{
			name: "http error with message", status: 503,
			body:    `{"status":{"code":503,"message":"Maintenance"}}`,
			wantErr: ErrTransport, wantCode: 503, wantMessage: "Maintenance",
		},
		{name: "http error without message", status: 502, body: `Bad Gateway`, wantErr: ErrTransport, wantCode: 502},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := processEnvelope(tt.status, []byte(tt.body))
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.JSONEq(t, tt.wantData, string(data))

				return
			}

			require.ErrorIs(t, err, tt.wantErr)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantCode, apiErr.StatusCode)
			assert.Equal(t, tt.wantMessage, apiErr.Message)
		})
	}
}

func TestAPIErrorString(t *testing.T) {
	t.Parallel()

	err := &APIError{StatusCode: 404, Message: "gone", Err: ErrApplication}
	assert.Equal(t, "API response indicated error: gone (status code: 404)", err.Error())

	msg, ok := ServerMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "gone", msg)

	_, ok = ServerMessage(&APIError{Err: ErrTransport})
	assert.False(t, ok)
}

func TestPostJSONData(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/questions/7/success", r.URL.Path)

		_, _ = w.Write([]byte(`{"status":{"code":200},"data":true}`))
	}, true)

	data, err := client.PostJSONData(context.Background(), audit.ToTelemetry, "/questions/7/success", nil)
	require.NoError(t, err)
	assert.Equal(t, "true", string(data))
}

func TestGetIsCached(t *testing.T) {
	t.Parallel()

	client, hits := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":{"code":200},"data":[]}`))
	}, true)

	ctx := context.Background()

	for range 3 {
		_, err := client.GetJSONData(ctx, "/articles", "page=0&size=20")
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), hits.Load())

	// excluded path
	for range 2 {
		_, err := client.GetJSONData(ctx, "/settings", "")
		require.NoError(t, err)
	}

	assert.Equal(t, int32(3), hits.Load())

	count, urls := client.InvalidateURLs([]string{"/articles"})
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{client.URL("/articles", "page=0&size=20")}, urls)

	_, err := client.GetJSONData(ctx, "/articles", "page=0&size=20")
	require.NoError(t, err)
	assert.Equal(t, int32(4), hits.Load())
}

func TestErrorResponsesAreNotCached(t *testing.T) {
	t.Parallel()

	client, hits := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, true)

	for range 2 {
		_, err := client.GetJSONData(context.Background(), "/media", "")
		require.ErrorIs(t, err, ErrTransport)
	}

	assert.Equal(t, int32(2), hits.Load())
}

func TestFailedEnvelopesAreNotCached(t *testing.T) {
	t.Parallel()

	for name, body := range map[string]string{
		"application error": `{"status":{"code":500,"message":"db down"}}`,
		"invalid json":      `{"status":`,
		"missing status":    `{"data":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var recovered atomic.Bool

			client, hits := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				if recovered.Load() {
					_, _ = w.Write([]byte(`{"status":{"code":200},"data":[]}`))

					return
				}

				_, _ = w.Write([]byte(body))
			}, true)

			ctx := context.Background()

			_, err := client.GetJSONData(ctx, "/vocabularies", "page=0")
			require.Error(t, err)

			recovered.Store(true)

			data, err := client.GetJSONData(ctx, "/vocabularies", "page=0")
			require.NoError(t, err, "the retry reaches the server")
			assert.JSONEq(t, `[]`, string(data))
			assert.Equal(t, int32(2), hits.Load())
		})
	}
}

func TestTimeoutBecomesUserError(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	base, _ := url.Parse(srv.URL)

	client, err := NewClient(Options{BaseURL: *base, Timeout: 50 * time.Millisecond, Logger: zerolog.Nop()})
	require.NoError(t, err)

	_, err = client.GetJSONData(context.Background(), "/sentences", "")

	var userErr *i18n.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, msgTimeout, userErr.Error())
	assert.ErrorIs(t, err, ErrTransport)
}

func TestUnreachableServer(t *testing.T) {
	t.Parallel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	client, err := NewClient(Options{BaseURL: url.URL{Scheme: "http", Host: addr}, Timeout: time.Second})
	require.NoError(t, err)

	_, err = client.GetJSONData(context.Background(), "/media", "")

	var userErr *i18n.UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, msgUnreachable, userErr.Error())
}

func TestCancelledContextIsNotWrapped(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":{"code":200},"data":[]}`))
	}, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetJSONData(ctx, "/media", "")
	assert.True(t, errors.Is(err, context.Canceled))

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}
