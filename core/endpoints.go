// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package core

import (
	"net/url"
	"strings"
)

// SettingsPath is the endpoint of the settings blob.
const SettingsPath = "/settings"

// ItemPath returns the single-entity path below endpoint.
func ItemPath(endpoint, id string) string {
	return strings.TrimSuffix(endpoint, "/") + "/" + url.PathEscape(id)
}

// OutcomePath returns the telemetry path for a question outcome,
// "success" or "fail".
func OutcomePath(prefix, questionID, outcome string) string {
	return ItemPath(prefix, questionID) + "/" + outcome
}
