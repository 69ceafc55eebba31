// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/packages"
)

func TestExtractFromModule(t *testing.T) {
	t.Parallel()

	root, err := filepath.Abs("../..")
	require.NoError(t, err)

	pkgs, err := packages.Load(&packages.Config{Mode: packages.LoadAllSyntax, Dir: root},
		"./cli", "./core/listing", "./core/requests")
	require.NoError(t, err)
	require.Zero(t, packages.PrintErrors(pkgs))

	c := extract(pkgs, root)

	for _, want := range []message{
		{id: "Correct!"},
		{id: "No results found."},
		{ctx: "quiz", id: "Blank {{.Index}}"},
		{id: "{{.Count}} item", plural: "{{.Count}} items"},
		{id: "Failed to load data. Please try again."},
		{id: "The server took too long to respond."},
	} {
		locs, ok := c[want]
		if assert.True(t, ok, "missing %+v", want) {
			assert.False(t, filepath.IsAbs(locs[0].file))
		}
	}
}

func TestWritePOT(t *testing.T) {
	t.Parallel()

	c := catalog{
		{id: "b"}:                   {{file: "x.go", line: 3}, {file: "a.go", line: 9}, {file: "x.go", line: 3}},
		{id: "a"}:                   {{file: "a.go", line: 1}},
		{ctx: "quiz", id: "a"}:      {{file: "q.go", line: 2}},
		{id: "one", plural: "many"}: {{file: "p.go", line: 5}},
	}

	var b strings.Builder
	require.NoError(t, writePOT(&b, c, "v1", time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC)))

	out := b.String()

	assert.Contains(t, out, `"Project-Id-Version: LingoFE v1\n"`)
	assert.Contains(t, out, `"POT-Creation-Date: 2025-01-02 03:04+0000\n"`)
	assert.Contains(t, out, "#: a.go:9 x.go:3\nmsgid \"b\"\nmsgstr \"\"\n")
	assert.Contains(t, out, "#: q.go:2\nmsgctxt \"quiz\"\nmsgid \"a\"\n")
	assert.Contains(t, out, "msgid \"one\"\nmsgid_plural \"many\"\nmsgstr[0] \"\"\nmsgstr[1] \"\"\n")

	// Context-free entries sort first.
	assert.Less(t, strings.Index(out, "#: a.go:1\n"), strings.Index(out, "#: q.go:2\n"))
}
