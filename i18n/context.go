// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"context"
	"os"
	"strings"

	"golang.org/x/text/language"
)

type contextKeyType struct{}

var tagKey = contextKeyType{}

// WithTag stores t in ctx and returns a derived context that carries it.
//
// The returned context should be passed to downstream code that performs
// translations. Passing the zero value of [language.Tag] clears any existing value.
func WithTag(ctx context.Context, t language.Tag) context.Context {
	return context.WithValue(ctx, tagKey, t)
}

// TagFrom returns the language tag stored in ctx, or the tag for [BaseLocale]
// if none is present. It never returns the zero value of [language.Tag].
func TagFrom(ctx context.Context) language.Tag {
	if ctx != nil {
		if t, _ := ctx.Value(tagKey).(language.Tag); t != (language.Tag{}) {
			return t
		}
	}

	return baseTag
}

// Resolve returns the best supported tag for the given preferences, tried in
// order. Empty entries are skipped. Without a usable preference, or before
// [Setup], the base tag is returned.
func Resolve(preferred ...string) language.Tag {
	if matcher == nil {
		return baseTag
	}

	candidates := make([]string, 0, len(preferred))
	for _, p := range preferred {
		if p = strings.TrimSpace(p); p != "" {
			candidates = append(candidates, p)
		}
	}

	if len(candidates) == 0 {
		return baseTag
	}

	_, index := language.MatchStrings(matcher, candidates...)

	return supportedTags[index]
}

// FromEnvironment resolves the display language from a stored preference,
// then the POSIX locale variables (LC_ALL, LC_MESSAGES, LANG).
func FromEnvironment(preference string) language.Tag {
	return Resolve(preference, posixLocale("LC_ALL"), posixLocale("LC_MESSAGES"), posixLocale("LANG"))
}

// posixLocale turns "ja_JP.UTF-8" into "ja-JP". "C" and "POSIX" mean no preference.
func posixLocale(name string) string {
	value, _, _ := strings.Cut(os.Getenv(name), ".")
	value, _, _ = strings.Cut(value, "@")

	if value == "C" || value == "POSIX" {
		return ""
	}

	return strings.ReplaceAll(value, "_", "-")
}
