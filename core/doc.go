// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package core describes the content entities of the learning platform and
fetches them from the content API.

Each entity list is described by a [query.Schema] (see [Schemas]); the generic
helpers [ListPage] and [GetItem] work for every entity:

	client, _ := requests.NewClient(requests.Options{BaseURL: *base})
	api := core.NewAPI(client, "")

	state := core.VocabularySchema.Reset()
	state = query.ApplyFieldChange(state, "difficultyLevel", "BEGINNER")

	page, err := core.ListPage[core.Vocabulary](ctx, api, core.VocabularySchema, state)

This package's API is ever changing, so please pin a specific version of this package if you want to use it in your program.
*/
package core
