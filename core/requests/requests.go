// Copyright 2025, the LingoFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package requests talks to the content API.

Every response is expected to be wrapped in the envelope

	{"status": {"code": 200, "message": ""}, "data": ...}

[Client.GetJSONData] and [Client.PostJSONData] unwrap it and return the raw
"data" payload, or an [*APIError] that tells transport failures
([ErrTransport]) from application failures ([ErrApplication]) apart.
*/
package requests

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"codeberg.org/lingofe/lingofe/core/audit"
	"codeberg.org/lingofe/lingofe/core/idgen"
	"codeberg.org/lingofe/lingofe/core/requests/lrucache"
	"codeberg.org/lingofe/lingofe/i18n"
)

const (
	// clientSessionCacheSize defines the size of the TLS session cache.
	clientSessionCacheSize = 20

	// maxIdleConnsPerHost defines maximum idle connections to keep per host.
	maxIdleConnsPerHost = 20

	// Messages shown to users for transport failures without a server message.
	msgTimeout     = "The server took too long to respond."
	msgUnreachable = "Could not connect to the server."
)

// Options configures a [Client].
type Options struct {
	BaseURL        url.URL
	Timeout        time.Duration
	AcceptLanguage string

	// Cache stores successful GET responses for CacheTTL. Nil disables caching.
	Cache    *lrucache.Cache
	CacheTTL time.Duration

	// ExcludedCachePaths lists path prefixes whose responses are never cached.
	ExcludedCachePaths []string

	// HTTPClient overrides the default transport. Timeout is ignored when set.
	HTTPClient *http.Client

	Logger zerolog.Logger
}

// Client performs requests against one API base URL.
type Client struct {
	baseURL        url.URL
	acceptLanguage string
	http           *http.Client
	cache          *lrucache.Cache
	cacheTTL       time.Duration
	excluded       []string
	logger         zerolog.Logger
}

// NewClient returns a client for opts.BaseURL.
func NewClient(opts Options) (*Client, error) {
	if !opts.BaseURL.IsAbs() || opts.BaseURL.Host == "" {
		return nil, fmt.Errorf("%w: %q", errInvalidBaseURL, opts.BaseURL.String())
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					ClientSessionCache: tls.NewLRUClientSessionCache(clientSessionCacheSize),
					MinVersion:         tls.VersionTLS12,
				},
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: maxIdleConnsPerHost,
			},
		}
	}

	base := opts.BaseURL
	base.Path = strings.TrimSuffix(base.Path, "/")

	return &Client{
		baseURL:        base,
		acceptLanguage: opts.AcceptLanguage,
		http:           httpClient,
		cache:          opts.Cache,
		cacheTTL:       opts.CacheTTL,
		excluded:       opts.ExcludedCachePaths,
		logger:         opts.Logger.With().Str("sys", "requests").Logger(),
	}, nil
}

// URL builds the absolute URL for path and an encoded query.
func (c *Client) URL(path, query string) string {
	u := c.baseURL
	u.Path += "/" + strings.TrimPrefix(path, "/")
	u.RawQuery = query

	return u.String()
}

// GetJSONData performs a GET request and returns the envelope's "data" payload.
func (c *Client) GetJSONData(ctx context.Context, path, query string) ([]byte, error) {
	resp, body, err := c.Do(ctx, RequestOptions{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
	})
	if err != nil {
		return nil, err
	}

	return processEnvelope(resp.StatusCode, body)
}

// PostJSONData performs a POST request with a JSON payload (nil for an empty
// body) and returns the envelope's "data" payload.
func (c *Client) PostJSONData(
	ctx context.Context,
	destination audit.TrafficDestination,
	path string,
	payload any,
) ([]byte, error) {
	resp, body, err := c.Do(ctx, RequestOptions{
		Method:      http.MethodPost,
		Path:        path,
		Payload:     payload,
		Destination: destination,
	})
	if err != nil {
		return nil, err
	}

	return processEnvelope(resp.StatusCode, body)
}

// Do sends a request and returns the response together with its fully read
// body. GET responses may be served from, and stored into, the response cache.
//
// Do does not reject bad status codes or envelopes; callers do that. Only
// responses whose envelope reports success are stored.
// Failures to reach the server are returned as errors that wrap
// [ErrTransport]. Timeouts and refused connections are additionally wrapped in
// an [*i18n.UserError]. Cancellation of ctx is returned as ctx.Err().
func (c *Client) Do(ctx context.Context, opts RequestOptions) (*http.Response, []byte, error) {
	fullURL := c.URL(opts.Path, opts.Query)

	var policy cachePolicy
	if opts.Method == http.MethodGet {
		policy = c.determineCachePolicy(opts.Path, fullURL, opts.Header)
		if item := policy.cachedItem; item != nil {
			c.logCacheHit(ctx, fullURL, item)

			return &http.Response{
				StatusCode: item.StatusCode,
				Header:     item.Header.Clone(),
				Body:       io.NopCloser(bytes.NewReader(item.Body)),
			}, item.Body, nil
		}
	}

	req, err := c.newRequest(ctx, opts, fullURL)
	if err != nil {
		return nil, nil, err
	}

	resp, body, err := c.sendRequest(ctx, req, opts.Destination)
	if err != nil {
		return nil, nil, c.classifyError(ctx, err)
	}

	if opts.Method == http.MethodGet && policy.shouldStore && successful(resp.StatusCode, body) {
		c.store(ctx, fullURL, resp, body)
	}

	return resp, body, nil
}

// processEnvelope checks the HTTP status and the envelope, and returns the
// raw JSON of the "data" field ("null" when absent).
func processEnvelope(httpStatus int, body []byte) ([]byte, error) {
	if httpStatus < http.StatusOK || httpStatus >= http.StatusMultipleChoices {
		return nil, &APIError{
			StatusCode: httpStatus,
			Message:    serverMessage(body),
			Err:        ErrTransport,
		}
	}

	if !gjson.ValidBytes(body) {
		return nil, &APIError{
			StatusCode: httpStatus,
			Err:        fmt.Errorf("%w: %w", ErrTransport, errInvalidJSON),
		}
	}

	status := gjson.GetBytes(body, "status")
	if !status.Get("code").Exists() {
		return nil, &APIError{
			StatusCode: httpStatus,
			Err:        fmt.Errorf("%w: %w", ErrApplication, errMissingStatus),
		}
	}

	if code := int(status.Get("code").Int()); code != http.StatusOK {
		return nil, &APIError{
			StatusCode: code,
			Message:    status.Get("message").String(),
			Err:        ErrApplication,
		}
	}

	data := gjson.GetBytes(body, "data")
	if !data.Exists() {
		return []byte("null"), nil
	}

	return []byte(data.Raw), nil
}

// successful reports whether a response carries a valid envelope with
// status.code 200. Only such responses are cached.
func successful(httpStatus int, body []byte) bool {
	return httpStatus == http.StatusOK &&
		gjson.ValidBytes(body) &&
		gjson.GetBytes(body, "status.code").Int() == http.StatusOK
}

// serverMessage extracts a message from an error body, if the body carries one.
func serverMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}

	for _, path := range []string{"status.message", "message", "error"} {
		if r := gjson.GetBytes(body, path); r.Type == gjson.String && r.String() != "" {
			return r.String()
		}
	}

	return ""
}

// newRequest constructs an *http.Request from RequestOptions.
func (c *Client) newRequest(ctx context.Context, opts RequestOptions, fullURL string) (*http.Request, error) {
	var reqBody io.Reader

	if opts.Payload != nil {
		payload, err := json.Marshal(opts.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request payload: %w", err)
		}

		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for name, values := range opts.Header {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}

	req.Header.Set("Accept", "application/json")

	if c.acceptLanguage != "" && req.Header.Get("Accept-Language") == "" {
		req.Header.Set("Accept-Language", c.acceptLanguage)
	}

	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// sendRequest executes the HTTP request and reads the body for auditing.
func (c *Client) sendRequest(
	ctx context.Context,
	req *http.Request,
	destination audit.TrafficDestination,
) (_ *http.Response, _ []byte, err error) {
	if destination == "" {
		destination = audit.ToAPI
	}

	span := audit.Span{
		Destination: destination,
		RequestID:   requestID(ctx),
		Method:      req.Method,
		URL:         req.URL.String(),
	}

	defer func() {
		span.Error = err
		span.End()
		span.Log()
	}()

	_ = span.Begin(ctx)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	span.StatusCode = resp.StatusCode

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	span.Body = body

	resp.Body = io.NopCloser(bytes.NewReader(body))

	return resp, body, nil
}

// classifyError turns a failed round trip into the error callers see.
func (c *Client) classifyError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	transportErr := &APIError{Err: fmt.Errorf("%w: %w", ErrTransport, err)}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return i18n.WrapUserError(ctx, transportErr, msgTimeout)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return i18n.WrapUserError(ctx, transportErr, msgUnreachable)
	}

	return transportErr
}

type requestIDKey struct{}

// WithRequestID returns a context whose outgoing requests carry id as a prefix
// of their request IDs, tying them to one user action in logs.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if parent, ok := ctx.Value(requestIDKey{}).(string); ok && parent != "" {
		return parent + "-" + idgen.Make()
	}

	return idgen.Make()
}
