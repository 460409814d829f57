// Package apiclient issues single requests against the orchestrator API and
// normalizes every non-2xx response into a *ClientError.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

var _ Doer = (*http.Client)(nil)

// Client carries immutable configuration only. It is safe for concurrent use
// and keeps nothing between calls.
type Client struct {
	origin         string
	doer           Doer
	requestIDKey   any
	defaultHeaders map[string]string
}

// New returns a client for the orchestrator reachable at origin, for example
// "http://localhost:8080". An empty origin produces relative targets.
func New(origin string, opts ...Option) *Client {
	c := &Client{
		origin:       strings.TrimSuffix(origin, "/"),
		doer:         &http.Client{}, //nolint:exhaustruct
		requestIDKey: nil,
		defaultHeaders: map[string]string{
			HeaderContentType: ContentTypeJSON,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Origin() string {
	return c.origin
}

// URL returns the request target for path: origin, base path and path joined
// without any slash normalization.
func (c *Client) URL(path string) string {
	return c.origin + BasePath + path
}

// Request performs exactly one HTTP exchange and decodes a 2xx body into T.
//
// A non-2xx status always yields a *ClientError. Transport failures and
// undecodable 2xx bodies are returned wrapped in ErrRequestFailed and
// ErrDecodeResponse respectively, never as a *ClientError.
func Request[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (T, error) {
	var result T

	cfg := newRequestConfig(opts...)

	req, err := c.buildRequest(ctx, path, cfg)
	if err != nil {
		return result, err
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result, newClientErrorFromResponse(resp)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return result, fmt.Errorf("%w: %w", ErrDecodeResponse, err)
	}

	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		return result, fmt.Errorf("%w: %w", ErrDecodeResponse, err)
	}

	return result, nil
}

func (c *Client) buildRequest(ctx context.Context, path string, cfg *requestConfig) (*http.Request, error) {
	bodyReader := cfg.body

	if cfg.jsonBody != nil {
		bodyBytes, err := json.Marshal(cfg.jsonBody)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncodeBody, err)
		}

		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, cfg.method, c.buildURL(path, cfg.query), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateRequest, err)
	}

	for k, v := range c.defaultHeaders {
		req.Header.Set(k, v)
	}

	if id := c.extractRequestID(ctx); id != "" {
		req.Header.Set(HeaderXRequestID, id)
	}

	for k, v := range cfg.headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

func (c *Client) extractRequestID(ctx context.Context) string {
	if c.requestIDKey == nil {
		return ""
	}

	if id, ok := ctx.Value(c.requestIDKey).(string); ok {
		return id
	}

	return ""
}

func (c *Client) buildURL(path string, query map[string]string) string {
	target := c.URL(path)

	if len(query) == 0 {
		return target
	}

	params := url.Values{}
	for k, v := range query {
		params.Add(k, v)
	}

	separator := "?"
	if strings.Contains(target, "?") {
		separator = "&"
	}

	return target + separator + params.Encode()
}
