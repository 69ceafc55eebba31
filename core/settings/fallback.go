// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package settings

import "slices"

// Setting names used by the client.
const (
	NameDifficultyLevels = "difficultyLevels"
	NameTags             = "tags"
	NameLanguages        = "languages"
)

var fallbackRecords = []Record{
	{Name: NameDifficultyLevels, Value: "BEGINNER,INTERMEDIATE,ADVANCED"},
	{Name: NameTags, Value: "general"},
	{Name: NameLanguages, Value: "en,ja,ko,es"},
}

// Fallback returns the built-in settings used when nothing else is available.
// It is never empty.
func Fallback() []Record {
	return slices.Clone(fallbackRecords)
}
