// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package core

import (
	"strconv"
	"time"

	"codeberg.org/lingofe/lingofe/core/grading"
)

// Page is one page of a list endpoint.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

// Common holds the fields shared by every content entity.
type Common struct {
	ID              int64    `json:"id"`
	Lang            string   `json:"lang"`
	DifficultyLevel string   `json:"difficultyLevel"`
	Week            int      `json:"week"`
	Tags            []string `json:"tags"`
}

// Vocabulary is a single word with its meaning.
type Vocabulary struct {
	Common

	Term          string `json:"term"`
	Meaning       string `json:"meaning"`
	Pronunciation string `json:"pronunciation"`
	Example       string `json:"example"`
}

// Expression is an idiom or set phrase.
type Expression struct {
	Common

	Expression string `json:"expression"`
	Meaning    string `json:"meaning"`
	Example    string `json:"example"`
}

// Sentence is an example sentence with its translation.
type Sentence struct {
	Common

	Sentence    string `json:"sentence"`
	Translation string `json:"translation"`
}

// Article is a reading text. Content is HTML.
type Article struct {
	Common

	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Content     string    `json:"content"`
	Author      string    `json:"author"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Media is an audio or video resource.
type Media struct {
	Common

	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	MediaType   string `json:"mediaType"`
}

// Question is a fill-in-the-blank quiz question. Question is an HTML
// template with one "____" marker per blank; Answer lists the expected
// answers in blank order, comma-separated.
type Question struct {
	Common

	Question    string `json:"question"`
	Answer      string `json:"answer"`
	Explanation string `json:"explanation"`
}

// Grading converts q into the form the grading engine consumes.
func (q Question) Grading() grading.Question {
	return grading.Question{
		ID:           strconv.FormatInt(q.ID, 10),
		TemplateHTML: q.Question,
		AnswerList:   grading.ParseAnswerList(q.Answer),
	}
}
