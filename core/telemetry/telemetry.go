// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package telemetry reports question outcomes to the API without blocking the
caller. Reports are rate limited; excess reports and failed posts are logged
and dropped.
*/
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const postTimeout = 10 * time.Second

// Poster sends outcomes to the server.
type Poster interface {
	RecordSuccess(ctx context.Context, questionID string) error
	RecordFail(ctx context.Context, questionID string) error
}

// Options configure a [Reporter].
type Options struct {
	Enabled       bool
	RatePerMinute int
	Burst         int
	Logger        zerolog.Logger
}

// Reporter posts outcomes on background goroutines.
// It implements grading.Recorder.
type Reporter struct {
	poster  Poster
	enabled bool
	limiter *rate.Limiter
	logger  zerolog.Logger
	wg      sync.WaitGroup
}

// NewReporter returns a reporter posting through poster.
func NewReporter(poster Poster, opts Options) *Reporter {
	limit := rate.Inf
	if opts.RatePerMinute > 0 {
		limit = rate.Limit(float64(opts.RatePerMinute) / time.Minute.Seconds())
	}

	return &Reporter{
		poster:  poster,
		enabled: opts.Enabled,
		limiter: rate.NewLimiter(limit, max(opts.Burst, 1)),
		logger:  opts.Logger.With().Str("sys", "telemetry").Logger(),
	}
}

// RecordSuccess reports a correct answer.
func (r *Reporter) RecordSuccess(ctx context.Context, questionID string) {
	r.send(ctx, questionID, "success", r.poster.RecordSuccess)
}

// RecordFail reports a wrong answer.
func (r *Reporter) RecordFail(ctx context.Context, questionID string) {
	r.send(ctx, questionID, "fail", r.poster.RecordFail)
}

func (r *Reporter) send(
	ctx context.Context,
	questionID, outcome string,
	post func(context.Context, string) error,
) {
	if !r.enabled {
		return
	}

	if !r.limiter.Allow() {
		r.logger.Warn().
			Str("question_id", questionID).
			Str("outcome", outcome).
			Msg("Telemetry rate limit reached, dropping report")

		return
	}

	// Detached from ctx so leaving the question does not cancel the post.
	postCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), postTimeout)

	r.wg.Add(1)

	go func() {
		defer r.wg.Done()
		defer cancel()

		if err := post(postCtx, questionID); err != nil {
			r.logger.Warn().Err(err).
				Str("question_id", questionID).
				Str("outcome", outcome).
				Msg("Failed to report question outcome")

			return
		}

		r.logger.Debug().
			Str("question_id", questionID).
			Str("outcome", outcome).
			Msg("Reported question outcome")
	}()
}

// Wait blocks until all pending reports have finished.
func (r *Reporter) Wait() {
	r.wg.Wait()
}
