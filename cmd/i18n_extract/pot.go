// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"
)

// writePOT writes the catalog as a gettext template, entries ordered by
// context, msgid and plural.
func writePOT(w io.Writer, c catalog, version string, created time.Time) error {
	var b strings.Builder

	fmt.Fprintln(&b, `msgid ""`)
	fmt.Fprintln(&b, `msgstr ""`)
	fmt.Fprintf(&b, "\"Project-Id-Version: LingoFE %s\\n\"\n", version)
	fmt.Fprintf(&b, "\"POT-Creation-Date: %s\\n\"\n", created.UTC().Format("2006-01-02 15:04+0000"))
	fmt.Fprintln(&b, `"Language: en\n"`)
	fmt.Fprintln(&b, `"MIME-Version: 1.0\n"`)
	fmt.Fprintln(&b, `"Content-Type: text/plain; charset=UTF-8\n"`)
	fmt.Fprintln(&b, `"Content-Transfer-Encoding: 8bit\n"`)
	fmt.Fprintln(&b, `"Plural-Forms: nplurals=2; plural=(n != 1);\n"`)

	msgs := make([]message, 0, len(c))
	for m := range c {
		msgs = append(msgs, m)
	}

	slices.SortFunc(msgs, func(a, b message) int {
		return cmp.Or(cmp.Compare(a.ctx, b.ctx), cmp.Compare(a.id, b.id), cmp.Compare(a.plural, b.plural))
	})

	for _, m := range msgs {
		fmt.Fprintln(&b)
		fmt.Fprintf(&b, "#:%s\n", references(c[m]))

		if m.ctx != "" {
			fmt.Fprintf(&b, "msgctxt %q\n", m.ctx)
		}

		fmt.Fprintf(&b, "msgid %q\n", m.id)

		if m.plural != "" {
			fmt.Fprintf(&b, "msgid_plural %q\n", m.plural)
			fmt.Fprintln(&b, `msgstr[0] ""`)
			fmt.Fprintln(&b, `msgstr[1] ""`)
		} else {
			fmt.Fprintln(&b, `msgstr ""`)
		}
	}

	_, err := io.WriteString(w, b.String())

	return err
}

// references formats locations as " file:line ...", sorted and without repeats.
func references(locs []location) string {
	sorted := slices.Clone(locs)

	slices.SortFunc(sorted, func(a, b location) int {
		return cmp.Or(cmp.Compare(a.file, b.file), cmp.Compare(a.line, b.line))
	})

	var b strings.Builder

	for _, l := range slices.Compact(sorted) {
		fmt.Fprintf(&b, " %s:%d", l.file, l.line)
	}

	return b.String()
}
