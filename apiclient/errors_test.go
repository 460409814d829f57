package apiclient_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/andyle182810/orchestrator-dashboard/apiclient"
	"github.com/andyle182810/orchestrator-dashboard/testutil"
	"github.com/stretchr/testify/require"
)

var errBodyRead = errors.New("connection reset by peer")

type failingBody struct{}

func (failingBody) Read(_ []byte) (int, error) { return 0, errBodyRead }

func (failingBody) Close() error { return nil }

func requireClientError(t *testing.T, err error) *apiclient.ClientError {
	t.Helper()

	require.Error(t, err)
	require.ErrorIs(t, err, apiclient.ErrClientError)

	clientErr, ok := apiclient.AsClientError(err)
	require.True(t, ok, "expected *apiclient.ClientError, got %T", err)

	return clientErr
}

func TestRequest_StructuredErrorBody(t *testing.T) {
	t.Parallel()

	client, doer := newFakeClient(testutil.RespondJSON(http.StatusNotFound, map[string]string{
		"error": "not found",
		"code":  "NOT_FOUND",
	}))

	_, err := apiclient.Request[healthBody](t.Context(), client, "/missing")

	clientErr := requireClientError(t, err)
	require.Equal(t, http.StatusNotFound, clientErr.Status)
	require.Equal(t, "NOT_FOUND", clientErr.Code)
	require.Equal(t, "not found", clientErr.Message)
	require.Equal(t, "not found", err.Error())
	require.Equal(t, "/api/v1/missing", doer.LastRequest().URL.String())
	require.True(t, apiclient.IsCode(err, "NOT_FOUND"))
	require.True(t, apiclient.IsStatus(err, http.StatusNotFound))
}

func TestRequest_StructuredErrorKeepsEmptyFieldsVerbatim(t *testing.T) {
	t.Parallel()

	client, _ := newFakeClient(testutil.RespondRaw(http.StatusConflict, "Conflict", `{"error":"","code":""}`))

	_, err := apiclient.Request[healthBody](t.Context(), client, "/deployments")

	clientErr := requireClientError(t, err)
	require.Equal(t, http.StatusConflict, clientErr.Status)
	require.Empty(t, clientErr.Code)
	require.Empty(t, clientErr.Message)
}

func TestRequest_UnparsableErrorBodyFallsBack(t *testing.T) {
	t.Parallel()

	client, _ := newFakeClient(testutil.RespondRaw(http.StatusBadGateway, "Bad Gateway", "<html>upstream down</html>"))

	_, err := apiclient.Request[healthBody](t.Context(), client, "/broken")

	clientErr := requireClientError(t, err)
	require.Equal(t, http.StatusBadGateway, clientErr.Status)
	require.Equal(t, apiclient.CodeUnknown, clientErr.Code)
	require.Equal(t, "HTTP 502: Bad Gateway", clientErr.Message)
}

func TestRequest_FallbackCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "plain text", body: "service unavailable"},
		{name: "malformed json", body: `{"error":"boom"`},
		{name: "json array", body: `["boom"]`},
		{name: "json null", body: "null"},
		{name: "missing code", body: `{"error":"boom"}`},
		{name: "missing error", body: `{"code":"BOOM"}`},
		{name: "non-string code", body: `{"error":"boom","code":500}`},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			client, _ := newFakeClient(testutil.RespondRaw(http.StatusServiceUnavailable, "Service Unavailable", testCase.body))

			_, err := apiclient.Request[healthBody](t.Context(), client, "/nodes")

			clientErr := requireClientError(t, err)
			require.Equal(t, http.StatusServiceUnavailable, clientErr.Status)
			require.Equal(t, "UNKNOWN", clientErr.Code)
			require.Equal(t, "HTTP 503: Service Unavailable", clientErr.Message)
		})
	}
}

func TestRequest_FallbackUsesServerReasonPhrase(t *testing.T) {
	t.Parallel()

	client, _ := newFakeClient(testutil.RespondRaw(499, "Client Closed Request", ""))

	_, err := apiclient.Request[healthBody](t.Context(), client, "/nodes")

	clientErr := requireClientError(t, err)
	require.Equal(t, "HTTP 499: Client Closed Request", clientErr.Message)
}

func TestRequest_FallbackWhenBodyReadFails(t *testing.T) {
	t.Parallel()

	client, _ := newFakeClient(func(_ *http.Request) (*http.Response, error) {
		return &http.Response{ //nolint:exhaustruct
			StatusCode: http.StatusInternalServerError,
			Body:       failingBody{},
		}, nil
	})

	_, err := apiclient.Request[healthBody](t.Context(), client, "/nodes")

	clientErr := requireClientError(t, err)
	require.Equal(t, http.StatusInternalServerError, clientErr.Status)
	require.Equal(t, "UNKNOWN", clientErr.Code)
	require.Equal(t, "HTTP 500: Internal Server Error", clientErr.Message)
}

func TestRequest_RedirectStatusIsAClientError(t *testing.T) {
	t.Parallel()

	client, _ := newFakeClient(testutil.RespondRaw(http.StatusNotModified, "Not Modified", ""))

	_, err := apiclient.Request[healthBody](t.Context(), client, "/nodes")

	clientErr := requireClientError(t, err)
	require.Equal(t, http.StatusNotModified, clientErr.Status)
	require.Equal(t, "HTTP 304: Not Modified", clientErr.Message)
}

func TestStatusText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		resp     *http.Response
		expected string
	}{
		{
			name:     "reason phrase from transport",
			resp:     &http.Response{StatusCode: http.StatusBadGateway, Status: "502 Upstream Broken", Body: nil}, //nolint:exhaustruct
			expected: "Upstream Broken",
		},
		{
			name:     "standard text when status missing",
			resp:     &http.Response{StatusCode: http.StatusNotFound, Status: "", Body: nil}, //nolint:exhaustruct
			expected: "Not Found",
		},
		{
			name:     "bare code",
			resp:     &http.Response{StatusCode: http.StatusTeapot, Status: "418", Body: nil}, //nolint:exhaustruct
			expected: "I'm a teapot",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, testCase.expected, apiclient.StatusText(testCase.resp))
		})
	}
}

func TestAsClientError_ThroughWrapping(t *testing.T) {
	t.Parallel()

	base := apiclient.NewClientError(http.StatusUnauthorized, apiclient.APIError{
		Error: "invalid or missing API key",
		Code:  "UNAUTHORIZED",
	})
	wrapped := fmt.Errorf("list nodes: %w", base)

	clientErr, ok := apiclient.AsClientError(wrapped)
	require.True(t, ok)
	require.Same(t, base, clientErr)
	require.True(t, apiclient.IsCode(wrapped, "UNAUTHORIZED"))
	require.False(t, apiclient.IsCode(wrapped, "NOT_FOUND"))
	require.False(t, apiclient.IsCode(errBodyRead, "UNAUTHORIZED"))
	require.False(t, apiclient.IsStatus(errBodyRead, http.StatusUnauthorized))
}
