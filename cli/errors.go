// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package cli

import (
	"context"
	"errors"

	"codeberg.org/lingofe/lingofe/core/listing"
)

var (
	errUnknownPreference = errors.New(`unknown preference, want "language" or "theme"`)
	errInvalidPage       = errors.New("page must be 1 or greater")
)

// displayError is a failure whose message has already been chosen for the user.
type displayError struct {
	message string
	err     error
}

func (e *displayError) Error() string { return e.message }

func (e *displayError) Unwrap() error { return e.err }

// fetchFailed wraps a failed API call with the message a list view would show.
func fetchFailed(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	return &displayError{message: listing.ErrorMessage(ctx, err), err: err}
}
