// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package requests

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransport marks a failure to obtain a usable HTTP response: network
	// errors, non-2xx statuses and bodies that are not JSON.
	ErrTransport = errors.New("transport error")

	// ErrApplication marks a well-formed envelope whose status.code is not 200.
	ErrApplication = errors.New("API response indicated error")

	errInvalidJSON    = errors.New("response contained invalid JSON")
	errMissingStatus  = errors.New("response envelope has no status")
	errInvalidBaseURL = errors.New("base URL must be absolute")
)

// APIError represents an error returned by the content API or by the
// transport in front of it.
type APIError struct {
	// StatusCode is the HTTP status for transport errors, or status.code from
	// the envelope for application errors. Zero when no response was received.
	StatusCode int

	// Message is the server-provided message, if any. It is safe to show to users.
	Message string

	// Err is [ErrTransport] or [ErrApplication], possibly wrapping a cause.
	Err error
}

// Error returns a formatted error message including the status code and API message if available.
func (e *APIError) Error() string {
	var b strings.Builder

	b.WriteString(e.Err.Error())

	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status code: %d)", e.StatusCode)
	}

	return b.String()
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// ServerMessage returns the server-provided message carried by err, if any.
func ServerMessage(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message, true
	}

	return "", false
}
