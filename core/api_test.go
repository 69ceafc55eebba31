// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/lingofe/lingofe/core/query"
	"codeberg.org/lingofe/lingofe/core/requests"
	"codeberg.org/lingofe/lingofe/core/settings"
)

type recorded struct {
	method string
	path   string
	query  string
}

type fakeServer struct {
	mu       sync.Mutex
	requests []recorded
}

func (f *fakeServer) last() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.requests[len(f.requests)-1]
}

func newTestAPI(t *testing.T, routes map[string]string) (*API, *fakeServer) {
	t.Helper()

	fake := &fakeServer{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fake.mu.Lock()
		fake.requests = append(fake.requests, recorded{r.Method, r.URL.Path, r.URL.RawQuery})
		fake.mu.Unlock()

		body, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			body = `{"status":{"code":404,"message":"Not found"}}`
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	base, err := url.Parse(srv.URL + "/api")
	require.NoError(t, err)

	client, err := requests.NewClient(requests.Options{
		BaseURL: *base,
		Timeout: 2 * time.Second,
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)

	return NewAPI(client, ""), fake
}

func TestListPage(t *testing.T) {
	t.Parallel()

	api, fake := newTestAPI(t, map[string]string{
		"GET /api/vocabularies": `{"status":{"code":200},"data":{
			"content":[{"id":1,"lang":"ja","term":"猫","meaning":"cat","tags":["animals"]}],
			"page":1,"size":10,"totalElements":11,"totalPages":2}}`,
	})

	state := query.New(map[string]string{
		query.FieldPage:      "1",
		query.FieldSize:      "10",
		query.FieldSort:      "term",
		query.FieldDirection: query.Asc,
		query.FieldLang:      "ja",
		FieldTerm:            "neko",
		"colour":             "blue",
	})

	page, err := ListPage[Vocabulary](context.Background(), api, VocabularySchema, state)
	require.NoError(t, err)

	require.Len(t, page.Content, 1)
	assert.Equal(t, "猫", page.Content[0].Term)
	assert.Equal(t, []string{"animals"}, page.Content[0].Tags)
	assert.Equal(t, int64(11), page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)

	got := fake.last()
	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "page=1&size=10&sort=term&direction=asc&lang=ja&term=neko", got.query,
		"undeclared fields are dropped and the wire order is kept")
}

func TestListPageDropsUnknownSort(t *testing.T) {
	t.Parallel()

	api, fake := newTestAPI(t, map[string]string{
		"GET /api/sentences": `{"status":{"code":200},"data":{"content":[],"page":0,"size":20}}`,
	})

	state := query.ApplyFieldChange(SentenceSchema.Reset(), query.FieldSort, "term")

	page, err := ListPage[Sentence](context.Background(), api, SentenceSchema, state)
	require.NoError(t, err)
	assert.Empty(t, page.Content)

	assert.Equal(t, "page=0&size=20&direction=desc", fake.last().query)
}

func TestListPageApplicationError(t *testing.T) {
	t.Parallel()

	api, _ := newTestAPI(t, map[string]string{
		"GET /api/media": `{"status":{"code":503,"message":"Media is being reindexed"}}`,
	})

	_, err := ListPage[Media](context.Background(), api, MediaSchema, MediaSchema.Reset())
	require.ErrorIs(t, err, requests.ErrApplication)

	msg, ok := requests.ServerMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "Media is being reindexed", msg)
}

func TestListPageMalformedData(t *testing.T) {
	t.Parallel()

	api, _ := newTestAPI(t, map[string]string{
		"GET /api/articles": `{"status":{"code":200},"data":{"content":"nope"}}`,
	})

	_, err := ListPage[Article](context.Background(), api, ArticleSchema, ArticleSchema.Reset())
	require.Error(t, err)
	assert.ErrorContains(t, err, "article page")
}

func TestGetItem(t *testing.T) {
	t.Parallel()

	api, fake := newTestAPI(t, map[string]string{
		"GET /api/questions/42": `{"status":{"code":200},"data":{
			"id":42,"lang":"en","question":"<p>The ____ sat on the ____.</p>","answer":"cat, mat"}}`,
	})

	q, err := GetItem[Question](context.Background(), api, QuestionSchema, "42")
	require.NoError(t, err)

	assert.Equal(t, int64(42), q.ID)
	assert.Equal(t, "/api/questions/42", fake.last().path)
	assert.Empty(t, fake.last().query)

	g := q.Grading()
	assert.Equal(t, "42", g.ID)
	assert.Equal(t, q.Question, g.TemplateHTML)
	assert.Equal(t, []string{"cat", "mat"}, g.AnswerList)
}

func TestGetItemEscapesID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/media/a%2Fb", ItemPath("/media/", "a/b"))
	assert.Equal(t, "/questions/7/fail", OutcomePath("/questions", "7", OutcomeFail))
}

func TestGetItemEmptyID(t *testing.T) {
	t.Parallel()

	api, fake := newTestAPI(t, nil)

	_, err := GetItem[Vocabulary](context.Background(), api, VocabularySchema, "")
	require.ErrorIs(t, err, errEmptyID)
	assert.Empty(t, fake.requests, "no request is made")
}

func TestFetchSettings(t *testing.T) {
	t.Parallel()

	api, _ := newTestAPI(t, map[string]string{
		"GET /api/settings": `{"status":{"code":200},"data":[
			{"name":"tags","lang":"ja","value":"animals,food"},
			{"name":"difficultyLevels","lang":"ja","value":"easy,hard"}]}`,
	})

	var source settings.Source = api

	records, err := source.FetchSettings(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []settings.Record{
		{Name: "tags", Lang: "ja", Value: "animals,food"},
		{Name: "difficultyLevels", Lang: "ja", Value: "easy,hard"},
	}, records)
}

func TestFetchSettingsTransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	base, err := url.Parse(srv.URL)
	require.NoError(t, err)

	client, err := requests.NewClient(requests.Options{BaseURL: *base, Logger: zerolog.Nop()})
	require.NoError(t, err)

	_, err = NewAPI(client, "").FetchSettings(context.Background())
	require.ErrorIs(t, err, requests.ErrTransport)
}

func TestRecordOutcome(t *testing.T) {
	t.Parallel()

	api, fake := newTestAPI(t, map[string]string{
		"POST /api/questions/7/success": `{"status":{"code":200}}`,
		"POST /api/questions/7/fail":    `{"status":{"code":200},"data":null}`,
	})

	ctx := context.Background()

	require.NoError(t, api.RecordSuccess(ctx, "7"))
	assert.Equal(t, recorded{http.MethodPost, "/api/questions/7/success", ""}, fake.last())

	require.NoError(t, api.RecordFail(ctx, "7"))
	assert.Equal(t, recorded{http.MethodPost, "/api/questions/7/fail", ""}, fake.last())

	require.ErrorIs(t, api.RecordFail(ctx, ""), errEmptyID)

	err := api.RecordSuccess(ctx, "8")
	require.ErrorIs(t, err, requests.ErrApplication)
}

func TestRecordOutcomeCustomPrefix(t *testing.T) {
	t.Parallel()

	api, fake := newTestAPI(t, map[string]string{
		"POST /api/telemetry/questions/3/fail": `{"status":{"code":200}}`,
	})

	api.telemetryPrefix = "/telemetry/questions"

	require.NoError(t, api.RecordFail(context.Background(), "3"))
	assert.Equal(t, "/api/telemetry/questions/3/fail", fake.last().path)
}

func TestSchemaByName(t *testing.T) {
	t.Parallel()

	for _, s := range Schemas {
		got, err := SchemaByName(s.Name)
		require.NoError(t, err)
		assert.Equal(t, s.Endpoint, got.Endpoint)
	}

	_, err := SchemaByName("flashcard")
	require.ErrorIs(t, err, errUnknownEntity)
	assert.ErrorContains(t, err, `"flashcard"`)
}
