// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package grading

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

var (
	// ErrBlankCountMismatch means a template's blank count differs from its answer list.
	ErrBlankCountMismatch = errors.New("blank count does not match answer count")

	// ErrLocked is returned for edits after the session has been graded.
	ErrLocked = errors.New("session is locked")

	// ErrBlankOutOfRange is returned for a blank index outside [0, Blanks()).
	ErrBlankOutOfRange = errors.New("blank index out of range")
)

// Question is a fill-in-the-blank question.
type Question struct {
	ID           string
	TemplateHTML string
	AnswerList   []string
}

// Recorder receives the graded outcome of a session.
// Implementations must not block.
type Recorder interface {
	RecordSuccess(ctx context.Context, questionID string)
	RecordFail(ctx context.Context, questionID string)
}

// Session holds the answers for one displayed question.
// It is safe for concurrent use.
type Session struct {
	question Question
	recorder Recorder

	mu      sync.Mutex
	answers []string
	result  *Result // non-nil once graded; the session is locked while set
}

// NewSession validates q and returns an empty session for it. rec may be nil.
func NewSession(q Question, rec Recorder) (*Session, error) {
	if n := ExtractBlanks(q.TemplateHTML); n != len(q.AnswerList) {
		return nil, fmt.Errorf("%w: question %q has %d blanks and %d answers",
			ErrBlankCountMismatch, q.ID, n, len(q.AnswerList))
	}

	return &Session{
		question: q,
		recorder: rec,
		answers:  make([]string, len(q.AnswerList)),
	}, nil
}

// Question returns the question this session grades.
func (s *Session) Question() Question {
	return s.question
}

// Blanks returns the number of blanks.
func (s *Session) Blanks() int {
	return len(s.question.AnswerList)
}

// SetAnswer stores v for blank i. When that fills the last empty blank the
// session grades the answers, locks, reports to the recorder and returns the
// result; otherwise the returned result is nil.
func (s *Session) SetAnswer(ctx context.Context, i int, v string) (*Result, error) {
	s.mu.Lock()

	if s.result != nil {
		s.mu.Unlock()

		return nil, ErrLocked
	}

	if i < 0 || i >= len(s.answers) {
		s.mu.Unlock()

		return nil, fmt.Errorf("%w: %d of %d", ErrBlankOutOfRange, i, len(s.answers))
	}

	s.answers[i] = v

	if !s.complete() {
		s.mu.Unlock()

		return nil, nil
	}

	res := Evaluate(s.answers, s.question.AnswerList)
	s.result = &res

	s.mu.Unlock()

	s.report(ctx, res)

	return &res, nil
}

// complete reports whether every blank holds a non-blank answer. The lock must be held.
func (s *Session) complete() bool {
	return !slices.ContainsFunc(s.answers, func(a string) bool { return strings.TrimSpace(a) == "" })
}

func (s *Session) report(ctx context.Context, res Result) {
	if s.recorder == nil {
		return
	}

	if res.AllCorrect {
		s.recorder.RecordSuccess(ctx, s.question.ID)
	} else {
		s.recorder.RecordFail(ctx, s.question.ID)
	}
}

// Answers returns a copy of the current answers.
func (s *Session) Answers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.answers)
}

// Result returns the grading result once the session is locked.
func (s *Session) Result() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.result == nil {
		return Result{}, false
	}

	return *s.result, true
}

// Locked reports whether the session has been graded.
func (s *Session) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.result != nil
}

// Reset clears the answers and unlocks the session. The next complete set of
// answers is graded and reported again.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.answers)
	s.result = nil
}

// Render renders the template with the current answers; blanks are read-only
// once graded.
func (s *Session) Render() string {
	s.mu.Lock()
	answers := slices.Clone(s.answers)
	locked := s.result != nil
	s.mu.Unlock()

	return Render(s.question.TemplateHTML, answers, locked)
}

// Slot tracks the session of the question shown in one place of the UI.
// Showing the same question again keeps its answers; showing a different
// question replaces the session.
type Slot struct {
	recorder Recorder

	mu      sync.Mutex
	current *Session
}

// NewSlot returns an empty slot whose sessions report to rec.
func NewSlot(rec Recorder) *Slot {
	return &Slot{recorder: rec}
}

// Show returns the session for q, creating one when q differs from the
// question currently shown.
func (sl *Slot) Show(q Question) (*Session, error) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.current != nil && sameQuestion(sl.current.question, q) {
		return sl.current, nil
	}

	s, err := NewSession(q, sl.recorder)
	if err != nil {
		return nil, err
	}

	sl.current = s

	return s, nil
}

// Hide resets the current session, as when the question is collapsed.
func (sl *Slot) Hide() {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.current != nil {
		sl.current.Reset()
	}
}

func sameQuestion(a, b Question) bool {
	return a.ID == b.ID && a.TemplateHTML == b.TemplateHTML && slices.Equal(a.AnswerList, b.AnswerList)
}
