// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package i18n provides internationalisation utilities backed by GNU gettext
.po catalogues. It translates source message IDs (msgids) across locales
and supports both context and plural forms.

# Quick start

Use the original English UI text as the msgid; do not invent keys.

Translate strings with calls such as:

	i18n.Tr(ctx, "Are you sure you want to quit?")
	i18n.TrC(ctx, "menu", "Open") // disambiguation via context
	i18n.TrN(ctx, "{{.Count}} file", "{{.Count}} files", n, "Count", n)
	i18n.TrNC(ctx, "menu", "{{.Count}} item", "{{.Count}} items", n, "Count", n)

Declare strings that are resolved later as [MsgKey] values:

	const errGeneric = i18n.MsgKey("Failed to load data. Please try again.")

	fmt.Println(errGeneric.Tr(ctx))

The display language travels in the context. [FromEnvironment] picks it from
the stored preference or the POSIX locale variables:

	ctx = i18n.WithTag(ctx, i18n.FromEnvironment(prefs.Language()))

# Missing translations

By default, missing translations return the msgid unchanged. When
StrictMissingKeys is enabled, missing lookups are logged once
per locale+key and the returned text is visibly wrapped as "⟦...⟧".

# Formatting

Translations can include placeholders that are processed by Go's standard
text/template package. Provide substitutions as alternating key-value pairs
to any of the Tr functions:

	i18n.Tr(ctx, "Welcome, {{.Name}}!", "Name", user.Name)

Numbers are not localised automatically; convert values to strings
yourself if you need locale-specific presentation.

# Further reading

Catalogues live in assets/po, one <locale>.po file per language.
*/
package i18n
