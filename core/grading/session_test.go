// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package grading

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	id      string
	success bool
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recorded
}

func (f *fakeRecorder) RecordSuccess(_ context.Context, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, recorded{id, true})
}

func (f *fakeRecorder) RecordFail(_ context.Context, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, recorded{id, false})
}

func (f *fakeRecorder) Calls() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]recorded(nil), f.calls...)
}

var twoBlanks = Question{
	ID:           "42",
	TemplateHTML: "<p>I ____ to the ____.</p>",
	AnswerList:   []string{"went", "park"},
}

func TestNewSessionCountMismatch(t *testing.T) {
	t.Parallel()

	q := twoBlanks
	q.AnswerList = []string{"went"}

	_, err := NewSession(q, nil)
	require.ErrorIs(t, err, ErrBlankCountMismatch)
	assert.Contains(t, err.Error(), `"42"`)
}

func TestSessionAutoSubmitsOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rec := &fakeRecorder{}

	s, err := NewSession(twoBlanks, rec)
	require.NoError(t, err)

	res, err := s.SetAnswer(ctx, 0, "Went")
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.False(t, s.Locked())

	res, err = s.SetAnswer(ctx, 1, "   ")
	require.NoError(t, err)
	assert.Nil(t, res, "whitespace does not count as an answer")

	res, err = s.SetAnswer(ctx, 1, " park ")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.AllCorrect)
	assert.True(t, s.Locked())

	_, err = s.SetAnswer(ctx, 0, "go")
	require.ErrorIs(t, err, ErrLocked)
	assert.Equal(t, []string{"Went", " park "}, s.Answers(), "locked edits are discarded")

	assert.Equal(t, []recorded{{"42", true}}, rec.Calls())
}

func TestSessionFailureAndReset(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rec := &fakeRecorder{}

	s, err := NewSession(twoBlanks, rec)
	require.NoError(t, err)

	_, _ = s.SetAnswer(ctx, 1, "park")
	res, _ := s.SetAnswer(ctx, 0, "go")
	require.NotNil(t, res)
	assert.Equal(t, Result{AllCorrect: false, PerBlankCorrect: []bool{false, true}}, *res)

	got, ok := s.Result()
	assert.True(t, ok)
	assert.Equal(t, *res, got)

	s.Reset()

	assert.False(t, s.Locked())
	assert.Equal(t, []string{"", ""}, s.Answers())

	_, ok = s.Result()
	assert.False(t, ok)

	_, _ = s.SetAnswer(ctx, 0, "went")
	_, _ = s.SetAnswer(ctx, 1, "park")

	assert.Equal(t, []recorded{{"42", false}, {"42", true}}, rec.Calls())
}

func TestSessionOutOfRange(t *testing.T) {
	t.Parallel()

	s, err := NewSession(twoBlanks, nil)
	require.NoError(t, err)

	_, err = s.SetAnswer(context.Background(), 2, "x")
	assert.ErrorIs(t, err, ErrBlankOutOfRange)

	_, err = s.SetAnswer(context.Background(), -1, "x")
	assert.ErrorIs(t, err, ErrBlankOutOfRange)
}

func TestSessionRender(t *testing.T) {
	t.Parallel()

	s, err := NewSession(twoBlanks, nil)
	require.NoError(t, err)

	assert.NotContains(t, s.Render(), "readonly")

	_, _ = s.SetAnswer(context.Background(), 0, "went")
	_, _ = s.SetAnswer(context.Background(), 1, "park")

	out := s.Render()
	assert.Contains(t, out, "readonly")
	assert.Contains(t, out, `value="park"`)
}

func TestSessionConcurrentCompletionReportsOnce(t *testing.T) {
	t.Parallel()

	rec := &fakeRecorder{}

	q := Question{ID: "7", TemplateHTML: "____", AnswerList: []string{"x"}}

	s, err := NewSession(q, rec)
	require.NoError(t, err)

	var wg sync.WaitGroup

	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, _ = s.SetAnswer(context.Background(), 0, "x")
		}()
	}

	wg.Wait()

	assert.Len(t, rec.Calls(), 1)
}

func TestSlot(t *testing.T) {
	t.Parallel()

	slot := NewSlot(nil)

	first, err := slot.Show(twoBlanks)
	require.NoError(t, err)

	_, _ = first.SetAnswer(context.Background(), 0, "went")

	again, err := slot.Show(twoBlanks)
	require.NoError(t, err)
	assert.Same(t, first, again, "same question keeps its session")

	slot.Hide()
	assert.Equal(t, []string{"", ""}, first.Answers())

	other := twoBlanks
	other.ID = "43"

	replaced, err := slot.Show(other)
	require.NoError(t, err)
	assert.NotSame(t, first, replaced)

	bad := twoBlanks
	bad.ID = "44"
	bad.AnswerList = nil

	_, err = slot.Show(bad)
	assert.ErrorIs(t, err, ErrBlankCountMismatch)
}
