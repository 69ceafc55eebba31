// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package listing drives a paginated, filterable entity list: it composes the
query, fetches a page and publishes the resulting view state.

One generic [Controller] serves every entity; the entity-specific parts are
the [query.Schema] and the fetch function.

Only the most recently started fetch may change the view state. Earlier
fetches are cancelled through their context and their results discarded,
whatever order they complete in. After [Controller.Unmount] nothing commits.
*/
package listing

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"codeberg.org/lingofe/lingofe/core"
	"codeberg.org/lingofe/lingofe/core/query"
	"codeberg.org/lingofe/lingofe/core/requests"
	"codeberg.org/lingofe/lingofe/i18n"
)

var (
	// ErrSuperseded is returned by Load when a newer load started before this
	// one finished. Its result was discarded.
	ErrSuperseded = errors.New("load superseded by a newer one")

	// ErrUnmounted is returned for loads on an unmounted controller.
	ErrUnmounted = errors.New("controller is not mounted")
)

// msgLoadFailed is shown when a failure carries no presentable message.
const msgLoadFailed i18n.MsgKey = "Failed to load data. Please try again."

// FetchFunc loads one page for a query.
type FetchFunc[T any] func(ctx context.Context, q query.State) (*core.Page[T], error)

// ViewState is what a list view displays. It is rebuilt wholesale on every
// successful load.
type ViewState[T any] struct {
	Items         []T
	TotalPages    int
	TotalElements int64
	Loading       bool
	Error         string
	Query         query.State
}

// Options configure a [Controller].
type Options struct {
	Logger zerolog.Logger

	// ScrollToTop is called when the page size changes.
	ScrollToTop func()
}

// Controller orchestrates query changes and fetches for one list.
// It is safe for concurrent use.
type Controller[T any] struct {
	schema      query.Schema
	fetch       FetchFunc[T]
	logger      zerolog.Logger
	scrollToTop func()

	mu         sync.Mutex
	alive      bool
	generation uint64
	cancel     context.CancelFunc
	state      ViewState[T]
	observers  []func(ViewState[T])

	// notifyMu keeps observer calls in commit order.
	notifyMu sync.Mutex
}

// New returns an unmounted controller whose query starts at schema.Reset().
func New[T any](schema query.Schema, fetch FetchFunc[T], opts Options) *Controller[T] {
	return &Controller[T]{
		schema:      schema,
		fetch:       fetch,
		logger:      opts.Logger.With().Str("sys", "listing").Str("entity", schema.Name).Logger(),
		scrollToTop: opts.ScrollToTop,
		state:       ViewState[T]{Query: schema.Reset()},
	}
}

// ForAPI returns a controller that fetches schema's endpoint through api.
func ForAPI[T any](api *core.API, schema query.Schema, opts Options) *Controller[T] {
	return New(schema, func(ctx context.Context, q query.State) (*core.Page[T], error) {
		return core.ListPage[T](ctx, api, schema, q)
	}, opts)
}

// Schema returns the controller's schema.
func (c *Controller[T]) Schema() query.Schema {
	return c.schema
}

// Mount marks the owning view as alive. Loads are ignored until then.
func (c *Controller[T]) Mount() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.alive = true
}

// Unmount marks the view as gone and cancels any fetch in flight.
func (c *Controller[T]) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.alive = false
	c.generation++

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// State returns a copy of the current view state.
func (c *Controller[T]) State() ViewState[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshot()
}

// OnChange registers fn to receive the view state after every change.
// fn runs synchronously and must not call the controller's mutators.
func (c *Controller[T]) OnChange(fn func(ViewState[T])) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.observers = append(c.observers, fn)
}

// Load fetches the page for q and commits the result, unless a newer load
// has started or the controller was unmounted in the meantime.
//
// It returns the fetch error (also reflected in the view state), or
// [ErrSuperseded] / [ErrUnmounted] when nothing was committed.
func (c *Controller[T]) Load(ctx context.Context, q query.State) error {
	c.mu.Lock()

	if !c.alive {
		c.mu.Unlock()

		return ErrUnmounted
	}

	if c.cancel != nil {
		c.cancel()
	}

	c.generation++
	gen := c.generation

	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.state.Loading = true
	c.state.Query = q

	c.commitLocked()

	page, err := c.fetch(fetchCtx, q)

	c.mu.Lock()

	if !c.alive || gen != c.generation {
		c.mu.Unlock()
		cancel()

		c.logger.Debug().Uint64("generation", gen).Msg("Discarding superseded load")

		if !c.alive {
			return ErrUnmounted
		}

		return ErrSuperseded
	}

	c.cancel = nil
	cancel()

	if err != nil {
		c.logger.Warn().Err(err).Str("query", query.Encode(q)).Msg("Failed to load list")

		c.state = ViewState[T]{Query: q, Error: ErrorMessage(ctx, err)}
	} else {
		c.state = ViewState[T]{
			Items:         page.Content,
			TotalPages:    page.TotalPages,
			TotalElements: page.TotalElements,
			Query:         q,
		}
	}

	c.commitLocked()

	return err
}

// commitLocked publishes the state to observers and releases c.mu.
// It must be called with c.mu held.
func (c *Controller[T]) commitLocked() {
	snapshot := c.snapshot()
	observers := c.observers

	c.notifyMu.Lock()
	c.mu.Unlock()

	defer c.notifyMu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
}

func (c *Controller[T]) snapshot() ViewState[T] {
	s := c.state
	s.Items = append([]T(nil), c.state.Items...)

	return s
}

func (c *Controller[T]) query() query.State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state.Query
}

// Retry reloads the current query.
func (c *Controller[T]) Retry(ctx context.Context) error {
	return c.Load(ctx, c.query())
}

// ApplyFieldChange sets or clears a filter and reloads from the first page.
func (c *Controller[T]) ApplyFieldChange(ctx context.Context, field, value string) error {
	return c.Load(ctx, query.ApplyFieldChange(c.query(), field, value))
}

// ToggleTag adds or removes tag from the tag filter and reloads.
func (c *Controller[T]) ToggleTag(ctx context.Context, tag string) error {
	q := c.query()
	_, next := query.ToggleTag(q, q.Tags(), tag)

	return c.Load(ctx, next)
}

// SetPage moves to page (zero-based).
func (c *Controller[T]) SetPage(ctx context.Context, page int) error {
	return c.Load(ctx, query.ApplyPageChange(c.query(), page))
}

// SetPageSize changes the page size, returns to the first page and scrolls
// the view to the top.
func (c *Controller[T]) SetPageSize(ctx context.Context, size int) error {
	if c.scrollToTop != nil {
		c.scrollToTop()
	}

	return c.Load(ctx, query.ApplyPageSizeChange(c.query(), size))
}

// SetLanguage filters by display language and reloads from the first page.
func (c *Controller[T]) SetLanguage(ctx context.Context, lang string) error {
	return c.Load(ctx, query.WithLanguage(c.query(), lang))
}

// Reset returns to the schema's initial query and reloads.
func (c *Controller[T]) Reset(ctx context.Context) error {
	return c.Load(ctx, c.schema.Reset())
}

// ErrorMessage picks the message shown for a failed load: the server's own
// message, then a user-facing transport message, then a generic one.
//
// Only transport errors wrapped in an [*i18n.UserError] (timeouts, refused
// connections) have text of their own. Other transport failures, such as an
// error status without a body or invalid JSON, carry technical detail that is
// logged but shown as the generic message.
func ErrorMessage(ctx context.Context, err error) string {
	if msg, ok := requests.ServerMessage(err); ok {
		return msg
	}

	var userErr *i18n.UserError
	if errors.As(err, &userErr) {
		return userErr.Error()
	}

	return msgLoadFailed.Tr(ctx)
}
