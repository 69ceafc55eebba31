// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package i18n

import (
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/leonelquinteros/gotext"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"

	"codeberg.org/lingofe/lingofe/assets"
)

var (
	// poDomain is the gettext domain to load under each locale.
	poDomain = "lingofe"

	// localesByTag maps canonical BCP 47 tags, for example
	// "en", "ja", "pt-BR", to their loaded gotext.Locale.
	localesByTag map[string]*gotext.Locale

	// supportedTags holds the tags for which a locale was loaded, base first.
	supportedTags []language.Tag

	// matcher is derived from the loaded locales.
	matcher language.Matcher
)

// Setup loads the gettext catalogues embedded under assets/po and builds the
// language matcher. The expected layout is:
//
//	po/<locale>.po
//
// The <locale> part may use hyphens or underscores ("pt-BR.po", "pt_BR.po").
// The template "po/lingofe.pot" is ignored. [BaseLocale] is always supported
// and acts as the matching fallback.
//
// Calling Setup again replaces the previously loaded locales and matcher.
func Setup() error {
	return setupFS(assets.FS)
}

func setupFS(fsys fs.FS) error {
	Logger = log.With().Str("sys", "i18n").Logger()

	entries, err := fs.ReadDir(fsys, "po")
	if err != nil {
		return fmt.Errorf("failed to read po directory: %w", err)
	}

	loaded := make(map[string]*gotext.Locale)

	var tags []language.Tag

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".po") {
			continue
		}

		t, err := language.Parse(strings.ReplaceAll(strings.TrimSuffix(name, ".po"), "_", "-"))
		if err != nil {
			Logger.Warn().Err(err).Str("file", name).Msg("Skipping invalid locale file")

			continue
		}

		po := gotext.NewPoFS(fsys)
		po.ParseFile(path.Join("po", name))

		loc := gotext.NewLocale("", t.String()) // base path unused when adding translators directly
		loc.AddTranslator(poDomain, po)

		loaded[t.String()] = loc
		tags = append(tags, t)

		Logger.Debug().
			Str("locale", t.String()).
			Str("domain", poDomain).
			Msg("Loaded locale")
	}

	slices.SortFunc(tags, func(a, b language.Tag) int { return strings.Compare(a.String(), b.String()) })

	all := make([]language.Tag, 0, len(tags)+1)
	all = append(all, baseTag)

	for _, t := range tags {
		if t != baseTag {
			all = append(all, t)
		}
	}

	localesByTag = loaded
	supportedTags = all
	matcher = language.NewMatcher(all)

	Logger.Info().Int("count", len(loaded)).Msg("Loaded translations")

	return nil
}
