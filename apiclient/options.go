package apiclient

import (
	"io"
	"maps"
	"net/http"
	"time"
)

const (
	BasePath          = "/api/v1"
	HeaderContentType = "Content-Type"
	HeaderXRequestID  = "X-Request-ID"
	HeaderXAPIKey     = "X-API-Key" //nolint:gosec
	ContentTypeJSON   = "application/json"
)

type Option func(*Client)

// WithTimeout sets the timeout of the default *http.Client transport. It has
// no effect once a custom Doer is installed.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if httpClient, ok := c.doer.(*http.Client); ok {
			httpClient.Timeout = timeout
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.doer = httpClient
	}
}

func WithDoer(doer Doer) Option {
	return func(c *Client) {
		c.doer = doer
	}
}

// WithRequestIDKey makes the client forward the string stored under key in the
// request context as the X-Request-ID header.
func WithRequestIDKey(key any) Option {
	return func(c *Client) {
		c.requestIDKey = key
	}
}

func WithDefaultHeaders(headers map[string]string) Option {
	return func(c *Client) {
		maps.Copy(c.defaultHeaders, headers)
	}
}

func WithAPIKey(apiKey string) Option {
	return func(c *Client) {
		if apiKey != "" {
			c.defaultHeaders[HeaderXAPIKey] = apiKey
		}
	}
}

type RequestOption func(*requestConfig)

type requestConfig struct {
	method   string
	headers  map[string]string
	query    map[string]string
	body     io.Reader
	jsonBody any
}

func newRequestConfig(opts ...RequestOption) *requestConfig {
	cfg := &requestConfig{
		method:   http.MethodGet,
		headers:  make(map[string]string),
		query:    nil,
		body:     nil,
		jsonBody: nil,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

func WithMethod(method string) RequestOption {
	return func(rc *requestConfig) {
		if method != "" {
			rc.method = method
		}
	}
}

func WithHeader(key, value string) RequestOption {
	return func(rc *requestConfig) {
		rc.headers[key] = value
	}
}

func WithHeaders(headers map[string]string) RequestOption {
	return func(rc *requestConfig) {
		maps.Copy(rc.headers, headers)
	}
}

// WithBody sends body verbatim. It replaces any body set by WithJSONBody.
func WithBody(body io.Reader) RequestOption {
	return func(rc *requestConfig) {
		rc.body = body
		rc.jsonBody = nil
	}
}

// WithJSONBody marshals v as the request body. It replaces any body set by
// WithBody.
func WithJSONBody(v any) RequestOption {
	return func(rc *requestConfig) {
		rc.jsonBody = v
		rc.body = nil
	}
}

func WithQuery(key, value string) RequestOption {
	return func(rc *requestConfig) {
		if rc.query == nil {
			rc.query = make(map[string]string)
		}

		rc.query[key] = value
	}
}

func WithQueryParams(params map[string]string) RequestOption {
	return func(rc *requestConfig) {
		if rc.query == nil {
			rc.query = make(map[string]string)
		}

		maps.Copy(rc.query, params)
	}
}
