// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package query models the filter, sort and pagination state of a list view and
its encoding as API query parameters.

A [State] is immutable: every operation returns a new value. The reserved
fields page, size, sort, direction and tags have fixed meanings; any other
field is a domain filter passed through to the API.
*/
package query

import (
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Reserved field names.
const (
	FieldPage      = "page"
	FieldSize      = "size"
	FieldSort      = "sort"
	FieldDirection = "direction"
	FieldTags      = "tags"

	// FieldLang is the display language, an implicit filter dimension.
	FieldLang = "lang"
)

// Sort directions.
const (
	Asc  = "asc"
	Desc = "desc"
)

// DefaultPageSize is used when the state carries no size.
const DefaultPageSize = 20

// allValue is the UI sentinel for "no constraint".
const allValue = "all"

// State maps field names to scalar values. Absent means no constraint; the
// empty string and "all" are never stored.
type State struct {
	fields map[string]string
}

// New builds a State from fields, dropping empty and "all" values.
func New(fields map[string]string) State {
	s := State{fields: make(map[string]string, len(fields))}

	for k, v := range fields {
		if !isClear(v) {
			s.fields[k] = v
		}
	}

	return s
}

func isClear(value string) bool {
	return value == "" || value == allValue
}

// Get returns the value of field and whether it is set.
func (s State) Get(field string) (string, bool) {
	v, ok := s.fields[field]

	return v, ok
}

// Fields returns a copy of the stored fields.
func (s State) Fields() map[string]string {
	return maps.Clone(s.fields)
}

// Page returns the zero-based page number (0 when unset or invalid).
func (s State) Page() int {
	return s.intField(FieldPage, 0)
}

// Size returns the page size ([DefaultPageSize] when unset or invalid).
func (s State) Size() int {
	return s.intField(FieldSize, DefaultPageSize)
}

// Tags returns the selected tags in selection order.
func (s State) Tags() []string {
	raw, ok := s.fields[FieldTags]
	if !ok {
		return nil
	}

	return strings.Split(raw, ",")
}

// Equal reports whether both states hold the same fields.
func (s State) Equal(other State) bool {
	return maps.Equal(s.fields, other.fields)
}

func (s State) intField(field string, fallback int) int {
	raw, ok := s.fields[field]
	if !ok {
		return fallback
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}

	return n
}

// with returns a copy of s with field set, or deleted when value is clear.
func (s State) with(field, value string) State {
	out := State{fields: maps.Clone(s.fields)}
	if out.fields == nil {
		out.fields = make(map[string]string)
	}

	if isClear(value) {
		delete(out.fields, field)
	} else {
		out.fields[field] = value
	}

	return out
}

// ApplyFieldChange sets field to value, or deletes it when value is "" or
// "all". Any change other than to page resets page to 0.
func ApplyFieldChange(s State, field, value string) State {
	out := s.with(field, value)
	if field != FieldPage {
		out.fields[FieldPage] = "0"
	}

	return out
}

// ApplyPageChange moves to page (zero-based). Negative pages clamp to 0.
func ApplyPageChange(s State, page int) State {
	return ApplyFieldChange(s, FieldPage, strconv.Itoa(max(page, 0)))
}

// ApplyPageSizeChange sets the page size and resets page to 0.
// Non-positive sizes fall back to [DefaultPageSize].
func ApplyPageSizeChange(s State, size int) State {
	if size <= 0 {
		size = DefaultPageSize
	}

	return ApplyFieldChange(s, FieldSize, strconv.Itoa(size))
}

// WithLanguage filters by display language. Like any filter change it resets
// page to 0.
func WithLanguage(s State, lang string) State {
	return ApplyFieldChange(s, FieldLang, lang)
}

// ToggleTag adds tag to selected if absent, removes it otherwise, and writes
// the result into the tags field (deleted when empty). Selection order is
// preserved and page resets to 0. Toggling twice restores the original set.
func ToggleTag(s State, selected []string, tag string) ([]string, State) {
	next := slices.Clone(selected)

	if i := slices.Index(next, tag); i >= 0 {
		next = slices.Delete(next, i, i+1)
	} else {
		next = append(next, tag)
	}

	if len(next) == 0 {
		next = nil
	}

	return next, ApplyFieldChange(s, FieldTags, strings.Join(next, ","))
}

// Param is one encoded query parameter.
type Param struct {
	Key   string
	Value string
}

// ToWireParams serialises every field. page and size are always present
// (defaults 0 and [DefaultPageSize]); sort and direction only when set.
// The order is page, size, sort, direction, then the remaining keys sorted.
func ToWireParams(s State) []Param {
	params := []Param{
		{FieldPage, strconv.Itoa(s.Page())},
		{FieldSize, strconv.Itoa(s.Size())},
	}

	for _, key := range []string{FieldSort, FieldDirection} {
		if v, ok := s.fields[key]; ok {
			params = append(params, Param{key, v})
		}
	}

	rest := slices.Sorted(maps.Keys(s.fields))
	for _, key := range rest {
		switch key {
		case FieldPage, FieldSize, FieldSort, FieldDirection:
			continue
		}

		params = append(params, Param{key, s.fields[key]})
	}

	return params
}

// Encode renders [ToWireParams] as a URL query string in wire order.
func Encode(s State) string {
	var b strings.Builder

	for i, p := range ToWireParams(s) {
		if i > 0 {
			b.WriteByte('&')
		}

		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}

	return b.String()
}

// Values returns [ToWireParams] as url.Values.
func Values(s State) url.Values {
	values := make(url.Values)
	for _, p := range ToWireParams(s) {
		values.Set(p.Key, p.Value)
	}

	return values
}
