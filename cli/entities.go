// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/goccy/go-yaml"

	"codeberg.org/lingofe/lingofe/app"
	"codeberg.org/lingofe/lingofe/core"
	"codeberg.org/lingofe/lingofe/core/grading"
	"codeberg.org/lingofe/lingofe/core/listing"
	"codeberg.org/lingofe/lingofe/core/query"
	"codeberg.org/lingofe/lingofe/i18n"
)

const maxCellWidth = 48

// entity binds a schema to its typed list and get operations.
type entity struct {
	schema query.Schema
	list   func(ctx context.Context, a *app.App, q query.State, out io.Writer) error
	get    func(ctx context.Context, a *app.App, id, format string, out io.Writer) error
}

func newEntity[T any](schema query.Schema, columns []string, row func(T) []string) entity {
	return entity{
		schema: schema,
		list: func(ctx context.Context, a *app.App, q query.State, out io.Writer) error {
			ctrl := listing.ForAPI[T](a.API, schema, listing.Options{Logger: a.Logger})

			ctrl.Mount()
			defer ctrl.Unmount()

			if err := ctrl.Load(ctx, q); err != nil {
				return &displayError{message: ctrl.State().Error, err: err}
			}

			return writePage(ctx, out, ctrl.State(), columns, row)
		},
		get: func(ctx context.Context, a *app.App, id, format string, out io.Writer) error {
			item, err := core.GetItem[T](ctx, a.API, schema, id)
			if err != nil {
				return fetchFailed(ctx, err)
			}

			return writeItem(out, item, format)
		},
	}
}

var entities = []entity{
	newEntity(core.VocabularySchema,
		[]string{"ID", "TERM", "MEANING", "LANG", "LEVEL", "WEEK"},
		func(v core.Vocabulary) []string {
			return commonRow(v.Common, v.Term, v.Meaning)
		}),
	newEntity(core.ExpressionSchema,
		[]string{"ID", "EXPRESSION", "MEANING", "LANG", "LEVEL", "WEEK"},
		func(e core.Expression) []string {
			return commonRow(e.Common, e.Expression, e.Meaning)
		}),
	newEntity(core.SentenceSchema,
		[]string{"ID", "SENTENCE", "TRANSLATION", "LANG", "LEVEL", "WEEK"},
		func(s core.Sentence) []string {
			return commonRow(s.Common, s.Sentence, s.Translation)
		}),
	newEntity(core.ArticleSchema,
		[]string{"ID", "TITLE", "AUTHOR", "LANG", "LEVEL", "WEEK"},
		func(a core.Article) []string {
			return commonRow(a.Common, a.Title, a.Author)
		}),
	newEntity(core.MediaSchema,
		[]string{"ID", "TITLE", "TYPE", "LANG", "LEVEL", "WEEK"},
		func(m core.Media) []string {
			return commonRow(m.Common, m.Title, m.MediaType)
		}),
	newEntity(core.QuestionSchema,
		[]string{"ID", "QUESTION", "BLANKS", "LANG", "LEVEL", "WEEK"},
		func(q core.Question) []string {
			return commonRow(q.Common, plainText(q.Question, nil), strconv.Itoa(grading.ExtractBlanks(q.Question)))
		}),
}

func lookupEntity(name string) (entity, error) {
	schema, err := core.SchemaByName(name)
	if err != nil {
		return entity{}, err
	}

	for _, e := range entities {
		if e.schema.Name == schema.Name {
			return e, nil
		}
	}

	return entity{}, fmt.Errorf("no command support for %q", name)
}

func entityNames() []string {
	names := make([]string, 0, len(core.Schemas))
	for _, s := range core.Schemas {
		names = append(names, s.Name)
	}

	return names
}

func commonRow(c core.Common, first, second string) []string {
	return []string{
		strconv.FormatInt(c.ID, 10),
		first,
		second,
		c.Lang,
		c.DifficultyLevel,
		strconv.Itoa(c.Week),
	}
}

// writePage prints the items as a table followed by the page position.
func writePage[T any](ctx context.Context, out io.Writer, st listing.ViewState[T], columns []string, row func(T) []string) error {
	if len(st.Items) == 0 {
		_, err := fmt.Fprintln(out, i18n.Tr(ctx, "No results found."))

		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(columns, "\t"))

	for _, item := range st.Items {
		cells := row(item)
		for i, c := range cells {
			cells[i] = cell(c)
		}

		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(out, "\n%s, %s\n",
		i18n.Tr(ctx, "Page {{.Page}} of {{.Total}}", "Page", st.Query.Page()+1, "Total", max(st.TotalPages, 1)),
		i18n.TrN(ctx, "{{.Count}} item", "{{.Count}} items", int(st.TotalElements), "Count", st.TotalElements))

	return err
}

// cell flattens s to one line and shortens it to maxCellWidth runes.
func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= maxCellWidth {
		return s
	}

	runes := []rune(s)

	return string(runes[:maxCellWidth-1]) + "…"
}

// writeItem prints item as YAML, or as indented JSON when format is "json".
func writeItem(out io.Writer, item any, format string) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}

	if format == "json" {
		data, err = json.MarshalIndent(json.RawMessage(data), "", "  ")
	} else {
		data, err = yaml.JSONToYAML(data)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, strings.TrimRight(string(data), "\n"))

	return err
}

// plainText turns a question template into terminal text. Blanks print as
// label(i), or as the marker when label is nil.
func plainText(template string, label func(i int) string) string {
	var b strings.Builder

	for _, t := range grading.Tokenize(template) {
		switch t.Kind {
		case grading.Text:
			b.WriteString(html.UnescapeString(t.Data))
		case grading.Blank:
			if label == nil {
				b.WriteString(grading.Marker)
			} else {
				b.WriteString(label(t.Index))
			}
		case grading.Markup:
			if breaksLine(t.Data) {
				b.WriteString("\n")
			}
		}
	}

	return strings.TrimSpace(b.String())
}

func breaksLine(tag string) bool {
	tag = strings.ToLower(tag)

	for _, prefix := range []string{"<br", "</p", "</li", "</div", "</h"} {
		if strings.HasPrefix(tag, prefix) {
			return true
		}
	}

	return false
}
