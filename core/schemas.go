// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package core

import (
	"errors"
	"fmt"

	"codeberg.org/lingofe/lingofe/core/query"
	"codeberg.org/lingofe/lingofe/core/settings"
)

var errUnknownEntity = errors.New("unknown entity")

// Filter fields accepted by the list endpoints besides the reserved ones.
const (
	FieldTerm            = "term"
	FieldWeek            = "week"
	FieldDifficultyLevel = "difficultyLevel"
)

// commonFields are the filters every list endpoint accepts.
var commonFields = []query.Field{
	{Name: FieldTerm, Kind: query.Text},
	{Name: FieldWeek, Kind: query.Text},
	{Name: query.FieldLang, Kind: query.Select, Setting: settings.NameLanguages},
	{Name: FieldDifficultyLevel, Kind: query.Select, Setting: settings.NameDifficultyLevels},
	{Name: query.FieldTags, Kind: query.Tags, Setting: settings.NameTags},
}

func schema(name, endpoint string, sortFields ...string) query.Schema {
	return query.Schema{
		Name:             name,
		Endpoint:         endpoint,
		Fields:           commonFields,
		SortFields:       append([]string{"createdAt", "week"}, sortFields...),
		DefaultSort:      "createdAt",
		DefaultDirection: query.Desc,
	}
}

// Entity schemas.
var (
	VocabularySchema = schema("vocabulary", "/vocabularies", "term")
	ExpressionSchema = schema("expression", "/expressions", "expression")
	SentenceSchema   = schema("sentence", "/sentences")
	ArticleSchema    = schema("article", "/articles", "title", "publishedAt")
	MediaSchema      = schema("media", "/media", "title")
	QuestionSchema   = schema("question", "/questions")
)

// Schemas lists every entity schema in display order.
var Schemas = []query.Schema{
	VocabularySchema,
	ExpressionSchema,
	SentenceSchema,
	ArticleSchema,
	MediaSchema,
	QuestionSchema,
}

// SchemaByName finds a schema by entity name.
func SchemaByName(name string) (query.Schema, error) {
	for _, s := range Schemas {
		if s.Name == name {
			return s, nil
		}
	}

	return query.Schema{}, fmt.Errorf("%w: %q", errUnknownEntity, name)
}
