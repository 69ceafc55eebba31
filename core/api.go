// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"codeberg.org/lingofe/lingofe/core/audit"
	"codeberg.org/lingofe/lingofe/core/query"
	"codeberg.org/lingofe/lingofe/core/requests"
	"codeberg.org/lingofe/lingofe/core/settings"
)

var errEmptyID = errors.New("id cannot be empty")

// Question outcomes reported to the telemetry endpoints.
const (
	OutcomeSuccess = "success"
	OutcomeFail    = "fail"
)

// API fetches content through a requests.Client.
type API struct {
	client          *requests.Client
	telemetryPrefix string
}

// NewAPI returns an API using client. telemetryPrefix is the path below which
// question outcomes are posted, normally "/questions".
func NewAPI(client *requests.Client, telemetryPrefix string) *API {
	if telemetryPrefix == "" {
		telemetryPrefix = QuestionSchema.Endpoint
	}

	return &API{client: client, telemetryPrefix: telemetryPrefix}
}

// Client returns the underlying client.
func (api *API) Client() *requests.Client {
	return api.client
}

// FetchSettings downloads the settings records. It satisfies settings.Source.
func (api *API) FetchSettings(ctx context.Context) ([]settings.Record, error) {
	data, err := api.client.GetJSONData(ctx, SettingsPath, "")
	if err != nil {
		return nil, err
	}

	var records []settings.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	return records, nil
}

// ListPage fetches one page of schema's endpoint for state. Fields the schema
// does not declare are dropped before the request.
func ListPage[T any](ctx context.Context, api *API, schema query.Schema, state query.State) (*Page[T], error) {
	data, err := api.client.GetJSONData(ctx, schema.Endpoint, query.Encode(schema.Normalize(state)))
	if err != nil {
		return nil, err
	}

	var page Page[T]
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s page: %w", schema.Name, err)
	}

	return &page, nil
}

// GetItem fetches a single entity by id.
func GetItem[T any](ctx context.Context, api *API, schema query.Schema, id string) (*T, error) {
	if id == "" {
		return nil, errEmptyID
	}

	data, err := api.client.GetJSONData(ctx, ItemPath(schema.Endpoint, id), "")
	if err != nil {
		return nil, err
	}

	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s %s: %w", schema.Name, id, err)
	}

	return &item, nil
}

// RecordSuccess reports a correctly answered question.
func (api *API) RecordSuccess(ctx context.Context, questionID string) error {
	return api.recordOutcome(ctx, questionID, OutcomeSuccess)
}

// RecordFail reports an incorrectly answered question.
func (api *API) RecordFail(ctx context.Context, questionID string) error {
	return api.recordOutcome(ctx, questionID, OutcomeFail)
}

func (api *API) recordOutcome(ctx context.Context, questionID, outcome string) error {
	if questionID == "" {
		return errEmptyID
	}

	_, err := api.client.PostJSONData(ctx, audit.ToTelemetry, OutcomePath(api.telemetryPrefix, questionID, outcome), nil)

	return err
}
