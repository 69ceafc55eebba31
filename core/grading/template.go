// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package grading

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	xhtml "golang.org/x/net/html"
)

// Marker is the blank placeholder in question templates.
const Marker = "____"

// BlankClass is the CSS class of rendered blank inputs.
const BlankClass = "blank-input"

var (
	// templatePolicy is applied to every template before parsing.
	templatePolicy = bluemonday.UGCPolicy()

	// renderPolicy additionally allows the blank inputs Render emits.
	renderPolicy = newRenderPolicy()
)

func newRenderPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	p.AllowElements("input")
	p.AllowAttrs("type").Matching(regexp.MustCompile(`^text$`)).OnElements("input")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^` + BlankClass + `$`)).OnElements("input")
	p.AllowAttrs("data-blank-index").Matching(regexp.MustCompile(`^[0-9]+$`)).OnElements("input")
	p.AllowAttrs("value", "aria-label").OnElements("input")
	p.AllowAttrs("readonly").Matching(regexp.MustCompile(`^readonly$`)).OnElements("input")

	return p
}

// Sanitize strips everything but safe formatting markup from a template.
func Sanitize(template string) string {
	return templatePolicy.Sanitize(template)
}

// TokenKind classifies a [Token].
type TokenKind int

const (
	// Markup is a tag, comment or doctype, kept verbatim.
	Markup TokenKind = iota

	// Text is escaped text content.
	Text

	// Blank is one marker occurrence.
	Blank
)

// Token is one piece of a parsed template. Data holds the raw HTML for Markup
// and Text tokens; Index is the zero-based blank number for Blank tokens.
type Token struct {
	Kind  TokenKind
	Data  string
	Index int
}

// Tokenize sanitises template and splits it into markup, text and blanks.
// Blanks are numbered left to right in document order.
func Tokenize(template string) []Token {
	z := xhtml.NewTokenizer(strings.NewReader(Sanitize(template)))

	var (
		tokens []Token
		blanks int
	)

	for {
		tt := z.Next()
		if tt == xhtml.ErrorToken {
			// io.EOF on a well-formed fragment; anything else truncates.
			return tokens
		}

		raw := string(z.Raw())

		if tt != xhtml.TextToken {
			tokens = append(tokens, Token{Kind: Markup, Data: raw})

			continue
		}

		for {
			before, after, found := strings.Cut(raw, Marker)
			if before != "" {
				tokens = append(tokens, Token{Kind: Text, Data: before})
			}

			if !found {
				break
			}

			tokens = append(tokens, Token{Kind: Blank, Index: blanks})
			blanks++
			raw = after
		}
	}
}

// ExtractBlanks counts the blanks in template.
func ExtractBlanks(template string) int {
	n := 0

	for _, t := range Tokenize(template) {
		if t.Kind == Blank {
			n++
		}
	}

	return n
}

// Render replaces every blank with a text input carrying its index and the
// current answer. With revealed set the inputs are read-only. The result
// passes through a policy that allows nothing beyond the template policy
// except those inputs.
func Render(template string, answers []string, revealed bool) string {
	var b strings.Builder

	for _, t := range Tokenize(template) {
		if t.Kind != Blank {
			b.WriteString(t.Data)

			continue
		}

		value := ""
		if t.Index < len(answers) {
			value = answers[t.Index]
		}

		fmt.Fprintf(&b, `<input type="text" class="%s" data-blank-index="%d" value="%s" aria-label="Blank %d"`,
			BlankClass, t.Index, html.EscapeString(value), t.Index+1)

		if revealed {
			b.WriteString(` readonly="readonly"`)
		}

		b.WriteString(`>`)
	}

	return renderPolicy.Sanitize(b.String())
}
