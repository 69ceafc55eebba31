// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package cli

import (
	"context"
	"slices"

	"github.com/spf13/cobra"

	"codeberg.org/lingofe/lingofe/app"
	"codeberg.org/lingofe/lingofe/core"
	"codeberg.org/lingofe/lingofe/core/query"
	"codeberg.org/lingofe/lingofe/i18n"
)

type listFlags struct {
	term       string
	week       string
	lang       string
	difficulty string
	tags       []string
	page       int
	size       int
	sort       string
	direction  string
}

func newListCmd(s *state) *cobra.Command {
	var f listFlags

	cmd := &cobra.Command{
		Use:     "list <entity>",
		Aliases: []string{"ls"},
		Short:   "List content matching the given filters.",
		Long: `List one page of an entity type.

Entities: vocabulary, expression, sentence, article, media, question.
Pages are numbered from 1. Repeat --tag to filter by several tags.

  lingofe list vocabulary --lang ja --difficulty beginner
  lingofe list article --tag culture --tag travel --sort publishedAt --direction asc
`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: entityNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := lookupEntity(args[0])
			if err != nil {
				return err
			}

			if f.page < 1 {
				return errInvalidPage
			}

			a := s.app
			ctx := cmd.Context()

			q := f.state(e.schema, a.Config.Display.PageSize, cmd.Flags().Changed("size"))
			warnUnknownOptions(ctx, a, e.schema, q)

			return e.list(ctx, a, q, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.term, "term", "", "search term")
	flags.StringVar(&f.week, "week", "", "curriculum week")
	flags.StringVar(&f.lang, "lang", "", "content language")
	flags.StringVar(&f.difficulty, "difficulty", "", "difficulty level")
	flags.StringArrayVar(&f.tags, "tag", nil, "tag filter (repeatable)")
	flags.IntVar(&f.page, "page", 1, "page number")
	flags.IntVar(&f.size, "size", 0, "page size (default from display.pageSize)")
	flags.StringVar(&f.sort, "sort", "", "sort field")
	flags.StringVar(&f.direction, "direction", "", "sort direction (asc or desc)")

	return cmd
}

// state builds the query the flags describe, starting from the schema's
// initial query. The page is applied last since every other change resets it.
func (f listFlags) state(schema query.Schema, defaultSize int, sizeSet bool) query.State {
	q := schema.Reset()

	size := defaultSize
	if sizeSet {
		size = f.size
	}

	q = query.ApplyPageSizeChange(q, size)

	for _, change := range []struct{ field, value string }{
		{core.FieldTerm, f.term},
		{core.FieldWeek, f.week},
		{query.FieldLang, f.lang},
		{core.FieldDifficultyLevel, f.difficulty},
		{query.FieldSort, f.sort},
		{query.FieldDirection, f.direction},
	} {
		if change.value != "" {
			q = query.ApplyFieldChange(q, change.field, change.value)
		}
	}

	var selected []string

	for _, tag := range f.tags {
		if tag == "" || slices.Contains(selected, tag) {
			continue
		}

		selected, q = query.ToggleTag(q, selected, tag)
	}

	return query.ApplyPageChange(q, f.page-1)
}

// warnUnknownOptions logs filter values the settings do not offer. The
// server decides what they match, so they are still sent.
func warnUnknownOptions(ctx context.Context, a *app.App, schema query.Schema, q query.State) {
	records := a.Settings.FetchSettings(ctx)
	lang := i18n.TagFrom(ctx).String()

	for _, field := range []string{query.FieldLang, core.FieldDifficultyLevel, query.FieldTags} {
		offered := schema.Options(field, records, lang)
		if len(offered) == 0 {
			continue
		}

		var values []string

		if field == query.FieldTags {
			values = q.Tags()
		} else if v, ok := q.Get(field); ok {
			values = []string{v}
		}

		for _, v := range values {
			if !slices.Contains(offered, v) {
				a.Logger.Warn().
					Str("field", field).
					Str("value", v).
					Strs("offered", offered).
					Msg("Filter value is not among the known options")
			}
		}
	}
}
