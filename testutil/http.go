package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andyle182810/orchestrator-dashboard/apiclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func AssertJSONResponse(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()

	require.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"),
		"Response Content-Type should be application/json, got %q", rec.Header().Get("Content-Type"))

	err := json.Unmarshal(rec.Body.Bytes(), target)
	require.NoError(t, err, "Response body should be valid JSON")
}

func AssertStatusCode(t *testing.T, rec *httptest.ResponseRecorder, expectedStatus int) {
	t.Helper()
	assert.Equal(t, expectedStatus, rec.Code, "Response status code mismatch")
}

func AssertHeader(t *testing.T, rec *httptest.ResponseRecorder, header, expectedValue string) {
	t.Helper()
	assert.Equal(t, expectedValue, rec.Header().Get(header), "Header %s mismatch", header)
}

func AssertHeaderExists(t *testing.T, rec *httptest.ResponseRecorder, header string) {
	t.Helper()
	assert.NotEmpty(t, rec.Header().Get(header), "Header %s should exist", header)
}

func AssertResponseContains(t *testing.T, rec *httptest.ResponseRecorder, substring string) {
	t.Helper()
	assert.Contains(t, rec.Body.String(), substring, "Response body should contain substring")
}

// AssertAPIError checks that rec carries the {error, code} error body.
func AssertAPIError(t *testing.T, rec *httptest.ResponseRecorder, expectedStatus int, expectedCode string) apiclient.APIError {
	t.Helper()

	AssertStatusCode(t, rec, expectedStatus)

	var body apiclient.APIError
	AssertJSONResponse(t, rec, &body)
	assert.Equal(t, expectedCode, body.Code, "Error code mismatch")
	assert.NotEmpty(t, body.Error, "Error message should not be empty")

	return body
}

func AssertSuccessResponse(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.GreaterOrEqual(t, rec.Code, http.StatusOK, "Response should be successful")
	assert.Less(t, rec.Code, http.StatusMultipleChoices, "Response should be successful")
}
