// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package grading

import (
	"strings"

	"golang.org/x/text/cases"
)

// Result is the outcome of grading one set of answers.
type Result struct {
	AllCorrect      bool
	PerBlankCorrect []bool
}

// Evaluate compares user answers with the expected answers position by
// position, ignoring surrounding whitespace and case. Missing user answers
// are wrong.
func Evaluate(user, answers []string) Result {
	fold := cases.Fold()

	res := Result{AllCorrect: true, PerBlankCorrect: make([]bool, len(answers))}

	for i, want := range answers {
		ok := i < len(user) &&
			fold.String(strings.TrimSpace(user[i])) == fold.String(strings.TrimSpace(want))

		res.PerBlankCorrect[i] = ok
		res.AllCorrect = res.AllCorrect && ok
	}

	return res
}

// ParseAnswerList splits a comma-separated answer string into the positional
// answer list. Items are trimmed; empty items keep their position.
func ParseAnswerList(answer string) []string {
	if strings.TrimSpace(answer) == "" {
		return nil
	}

	parts := strings.Split(answer, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	return parts
}
