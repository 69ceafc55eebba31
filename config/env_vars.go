// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

var (
	errExpectedPointerToStruct = errors.New("expected a pointer to a struct")
	errUnsupportedFieldType    = errors.New("unsupported field type")
)

var durationType = reflect.TypeOf(time.Duration(0))

// envBinding ties a settable struct field to the environment variable named in its tag.
type envBinding struct {
	field     reflect.Value
	name      string // Go field name, for error messages
	envVar    string
	overwrite bool
}

// readEnv populates the struct pointed to by target with values from the
// environment variables named in its `env` tags. Nested structs are walked
// recursively. Fields without a matching variable keep their current value.
//
// A tag option of "overwrite" replaces values already set by defaults or YAML;
// without it, only zero-valued fields are filled.
func readEnv(target any) error {
	root := reflect.ValueOf(target)
	if root.Kind() != reflect.Pointer || root.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w, got %T", errExpectedPointerToStruct, target)
	}

	for _, b := range collectEnvBindings(root.Elem()) {
		raw, ok := os.LookupEnv(b.envVar)
		if !ok {
			continue
		}

		if !b.overwrite && !b.field.IsZero() {
			continue
		}

		if err := assignEnvValue(b, raw); err != nil {
			return err
		}
	}

	return nil
}

// collectEnvBindings walks v depth-first and returns every tagged, settable field.
func collectEnvBindings(v reflect.Value) []envBinding {
	var out []envBinding

	t := v.Type()

	for i := range v.NumField() {
		field := v.Field(i)
		sf := t.Field(i)

		tag, tagged := sf.Tag.Lookup("env")
		if !tagged {
			if field.Kind() == reflect.Struct && sf.IsExported() {
				out = append(out, collectEnvBindings(field)...)
			}

			continue
		}

		if !field.CanSet() {
			continue
		}

		parts := strings.Split(tag, ",")
		out = append(out, envBinding{
			field:     field,
			name:      sf.Name,
			envVar:    parts[0],
			overwrite: slices.Contains(parts[1:], "overwrite"),
		})
	}

	return out
}

// assignEnvValue parses raw according to the kind of b.field and stores it.
func assignEnvValue(b envBinding, raw string) error {
	field := b.field

	parseErr := func(what string, err error) error {
		return fmt.Errorf("failed to parse %s for %s from env var %s (%s): %w", what, b.name, b.envVar, raw, err)
	}

	switch {
	case field.Type() == durationType:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return parseErr("duration", err)
		}

		field.SetInt(int64(d))
	case field.Kind() == reflect.String:
		field.SetString(raw)
	case field.CanInt():
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return parseErr("int", err)
		}

		field.SetInt(n)
	case field.Kind() == reflect.Bool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return parseErr("bool", err)
		}

		field.SetBool(v)
	case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.String:
		// Comma-separated lists, blanks dropped.
		values := make([]string, 0)

		for part := range strings.SplitSeq(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}

		field.Set(reflect.ValueOf(values))
	default:
		return fmt.Errorf("%w for field %s: %s", errUnsupportedFieldType, b.name, field.Type())
	}

	return nil
}
