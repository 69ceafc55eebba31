// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package query

import (
	"slices"
	"strconv"

	"codeberg.org/lingofe/lingofe/core/settings"
)

// FieldKind tells how a filter field takes its values.
type FieldKind int

const (
	// Text is free-form input, such as a search term.
	Text FieldKind = iota

	// Select picks one value from the options of a setting.
	Select

	// Tags picks any number of values from the options of a setting.
	Tags
)

// Field describes one filter of an entity list.
type Field struct {
	Name string
	Kind FieldKind

	// Setting names the settings record that lists the options of Select and
	// Tags fields.
	Setting string
}

// Schema is the per-entity configuration of a list view.
type Schema struct {
	Name     string
	Endpoint string
	Fields   []Field

	SortFields       []string
	DefaultSort      string
	DefaultDirection string
}

// Field returns the declared field called name.
func (sc Schema) Field(name string) (Field, bool) {
	i := slices.IndexFunc(sc.Fields, func(f Field) bool { return f.Name == name })
	if i < 0 {
		return Field{}, false
	}

	return sc.Fields[i], true
}

// Reset returns the initial state: first page, default size and the default ordering.
func (sc Schema) Reset() State {
	return New(map[string]string{
		FieldPage:      "0",
		FieldSize:      strconv.Itoa(DefaultPageSize),
		FieldSort:      sc.DefaultSort,
		FieldDirection: sc.DefaultDirection,
	})
}

// Normalize drops fields the schema does not declare, sort values outside
// SortFields, unknown directions and malformed page numbers.
func (sc Schema) Normalize(s State) State {
	out := make(map[string]string, len(s.fields))

	for key, value := range s.fields {
		switch key {
		case FieldPage, FieldSize:
			if n, err := strconv.Atoi(value); err == nil && n >= 0 && (key == FieldPage || n > 0) {
				out[key] = value
			}
		case FieldSort:
			if slices.Contains(sc.SortFields, value) {
				out[key] = value
			}
		case FieldDirection:
			if value == Asc || value == Desc {
				out[key] = value
			}
		default:
			if _, ok := sc.Field(key); ok {
				out[key] = value
			}
		}
	}

	return New(out)
}

// Options lists the values offered for a Select or Tags field, read from the
// settings records for lang. Text fields and unknown fields have none.
func (sc Schema) Options(field string, records []settings.Record, lang string) []string {
	f, ok := sc.Field(field)
	if !ok || f.Kind == Text || f.Setting == "" {
		return nil
	}

	return settings.Values(records, f.Setting, lang)
}
