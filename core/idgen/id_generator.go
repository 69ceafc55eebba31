// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package idgen

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Make makes a lexically sortable request ID (ULID) from the current time and
// crypto/rand entropy.
func Make() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// Time reports the timestamp encoded in an ID made by [Make].
func Time(id string) (time.Time, error) {
	parsed, err := ulid.ParseStrict(id)
	if err != nil {
		return time.Time{}, err
	}

	return ulid.Time(parsed.Time()), nil
}
