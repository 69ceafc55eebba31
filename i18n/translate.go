// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"text/template"

	"github.com/leonelquinteros/gotext"
	"golang.org/x/text/language"
)

// templateCache caches compiled templates per unique template text.
var templateCache sync.Map // text -> *template.Template

// Vars holds named placeholder values for a translation.
type Vars map[string]any

// UserError is an error whose message is a translated string that can be
// shown to the end user as is.
type UserError struct {
	msg   string
	cause error
}

// NewUserError translates msgid for the locale in ctx and wraps it as an error.
func NewUserError(ctx context.Context, msgid string, kv ...any) *UserError {
	return &UserError{msg: Tr(ctx, msgid, kv...)}
}

// WrapUserError is like [NewUserError] but keeps cause for errors.Is/As.
func WrapUserError(ctx context.Context, cause error, msgid string, kv ...any) *UserError {
	return &UserError{msg: Tr(ctx, msgid, kv...), cause: cause}
}

// Error returns the translated error message.
func (e *UserError) Error() string {
	return e.msg
}

func (e *UserError) Unwrap() error {
	return e.cause
}

// Tr returns the translated string for a source message id (msgid), which should
// be the original English text. Key-value pairs fill text/template-style named
// placeholders.
//
// A missing translation yields the msgid, or a visibly wrapped msgid in strict mode.
func Tr(ctx context.Context, msgid string, kv ...any) string {
	return translate(ctx, "", msgid, "", 0, false, v(kv...))
}

// TrC translates msgid under a disambiguating context, like gettext's pgettext.
func TrC(ctx context.Context, contextKey, msgid string, kv ...any) string {
	return translate(ctx, contextKey, msgid, "", 0, false, v(kv...))
}

// TrN translates a singular or plural message depending on n. A missing
// translation falls back to singular when n == 1, plural otherwise.
func TrN(ctx context.Context, singular, plural string, n int, kv ...any) string {
	return translate(ctx, "", singular, plural, n, true, v(kv...))
}

// TrNC is the contextual variant of TrN, like gettext's npgettext.
func TrNC(ctx context.Context, contextKey, singular, plural string, n int, kv ...any) string {
	return translate(ctx, contextKey, singular, plural, n, true, v(kv...))
}

func translate(
	ctx context.Context,
	contextKey, singular, plural string,
	n int,
	pluralMode bool,
	vars Vars,
) string {
	loc, matched := resolveLocale(TagFrom(ctx))

	base := singular
	if pluralMode && n != 1 {
		base = plural
	}

	text, found := lookup(loc, contextKey, singular, plural, n, pluralMode)
	if !found {
		text = base

		if strictMissingKeys() {
			logMissingOnce(strippedTagString(matched), buildLogKey(contextKey, singular))

			text = "⟦" + base + "⟧"
		}
	}

	return render(matched, text, vars)
}

// lookup queries loc for the matching gettext form.
func lookup(loc *gotext.Locale, contextKey, singular, plural string, n int, pluralMode bool) (string, bool) {
	if loc == nil {
		return "", false
	}

	switch {
	case pluralMode && contextKey != "":
		if loc.IsTranslatedNDC(poDomain, singular, n, contextKey) {
			return loc.GetNDC(poDomain, singular, plural, n, contextKey), true
		}
	case pluralMode:
		if loc.IsTranslatedND(poDomain, singular, n) {
			return loc.GetND(poDomain, singular, plural, n), true
		}
	case contextKey != "":
		if loc.IsTranslatedDC(poDomain, singular, contextKey) {
			return loc.GetDC(poDomain, singular, contextKey), true
		}
	default:
		if loc.IsTranslatedD(poDomain, singular) {
			return loc.GetD(poDomain, singular), true
		}
	}

	return "", false
}

// render executes s as a text/template over data. Strings without template
// markers are returned untouched.
func render(locale language.Tag, s string, data Vars) string {
	if !strings.Contains(s, "{{") {
		return s
	}

	var tmpl *template.Template

	if cached, ok := templateCache.Load(s); ok {
		tmpl = cached.(*template.Template)
	} else {
		parsed, err := template.New("msg").Option("missingkey=error").Parse(s)
		if err != nil {
			return renderFailed(locale, s, err)
		}

		templateCache.Store(s, parsed)
		tmpl = parsed
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]any(data)); err != nil {
		return renderFailed(locale, s, err)
	}

	return buf.String()
}

func renderFailed(locale language.Tag, s string, err error) string {
	if strictMissingKeys() {
		return "⟦" + s + "⟧"
	}

	Logger.Warn().Err(err).Str("locale", locale.String()).Str("text", s).Msg("Failed to render translation")

	return s
}

// resolveLocale matches t to a loaded locale. Before Setup it returns nil and
// the base tag.
func resolveLocale(t language.Tag) (*gotext.Locale, language.Tag) {
	if matcher == nil {
		return nil, baseTag
	}

	_, index := language.MatchStrings(matcher, t.String())
	matched := supportedTags[index]

	return localesByTag[matched.String()], matched
}

// v builds Vars from alternating key, value pairs. It panics on programmer error.
func v(kv ...any) Vars {
	if len(kv)%2 != 0 {
		panic("i18n: odd number of arguments, want key, value pairs")
	}

	m := make(Vars, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			panic("i18n: key must be string")
		}

		m[k] = kv[i+1]
	}

	return m
}
