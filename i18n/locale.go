// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// BaseLocale is the default locale used when no specific locale is set.
const BaseLocale = "en"

// baseTag is the canonical tag for BaseLocale.
var baseTag = language.Make(BaseLocale)

// Languages returns the supported language tags, sorted by tag string.
// The returned slice is a copy.
//
// Setup must be called successfully before using Languages; otherwise it panics.
func Languages() []language.Tag {
	if matcher == nil {
		panic("i18n: Setup must be called before calling Languages")
	}

	out := slices.Clone(supportedTags)
	slices.SortFunc(out, func(a, b language.Tag) int { return strings.Compare(a.String(), b.String()) })

	return out
}

// IsSupported reports whether lang names one of the loaded locales exactly.
func IsSupported(lang string) bool {
	t, err := language.Parse(lang)
	if err != nil {
		return false
	}

	return slices.Contains(supportedTags, t)
}
