// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package requests

import (
	"net/http"

	"codeberg.org/lingofe/lingofe/core/audit"
)

// RequestOptions are parameters for [Client.Do].
type RequestOptions struct {
	Method string

	// Path is appended to the client's base URL, for example "/vocabularies".
	Path string

	// Query is an already encoded query string without the leading '?'.
	// It is sent as given so parameter order is preserved.
	Query string

	// Payload is JSON-encoded as the request body when non-nil.
	Payload any

	Header http.Header

	// Destination tags the request in logs and Server-Timing metrics.
	// Defaults to [audit.ToAPI].
	Destination audit.TrafficDestination
}
