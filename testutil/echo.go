package testutil

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/andyle182810/orchestrator-dashboard/middleware"
	"github.com/andyle182810/orchestrator-dashboard/validator"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
)

type Options struct {
	Method        string            // HTTP method (GET, POST, etc.)
	Path          string            // Request path
	Body          []byte            // Request body
	Headers       map[string]string // Custom headers
	QueryParams   map[string]string // Query parameters
	PathParams    map[string]string // Path parameters (e.g., :id)
	ContentType   string            // Content-Type header (defaults to application/json)
	SkipRequestID bool              // Skip auto-generating X-Request-ID header
}

// NewEcho returns an instance wired the way the dashboard server wires its
// own: REST validator and {error, code} error rendering.
func NewEcho() *echo.Echo {
	iecho := echo.New()
	iecho.Validator = validator.DefaultRestValidator()
	iecho.HTTPErrorHandler = middleware.ErrorHandler(nil)

	return iecho
}

func NewRequest(opts *Options) *http.Request {
	requestPath := opts.Path

	if len(opts.QueryParams) > 0 {
		query := url.Values{}
		for key, value := range opts.QueryParams {
			query.Add(key, value)
		}

		requestPath = fmt.Sprintf("%s?%s", opts.Path, query.Encode())
	}

	req := httptest.NewRequest(opts.Method, requestPath, bytes.NewBuffer(opts.Body))

	if !opts.SkipRequestID {
		req.Header.Set(middleware.HeaderXRequestID, uuid.New().String())
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/json"
	}

	req.Header.Set("Content-Type", contentType)

	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	return req
}

func SetupEchoContext(
	t *testing.T,
	opts *Options,
) (*echo.Context, *httptest.ResponseRecorder, *http.Request) {
	t.Helper()

	req := NewRequest(opts)
	rec := httptest.NewRecorder()
	ctx := NewEcho().NewContext(req, rec)

	if len(opts.PathParams) > 0 {
		pathValues := make([]echo.PathValue, 0, len(opts.PathParams))

		for name, value := range opts.PathParams {
			pathValues = append(pathValues, echo.PathValue{
				Name:  name,
				Value: value,
			})
		}

		ctx.SetPathValues(pathValues)
	}

	return ctx, rec, req
}

// Serve runs a request through the full handler chain of h.
func Serve(t *testing.T, h http.Handler, opts *Options) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, NewRequest(opts))

	return rec
}
