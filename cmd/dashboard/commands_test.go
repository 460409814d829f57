package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrchestrator(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/api/v1/nodes":
			_, _ = w.Write([]byte(`{"items":[{"id":"node-1"}],"total":1,"page":1,"per_page":1}`))
		case "/api/v1/deployments":
			body, _ := io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"method":"` + r.Method + `","body":` + string(body) + `}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"route not found","code":"NOT_FOUND"}`))
		}
	}))
	t.Cleanup(server.Close)

	return server
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	root.SetContext(context.Background())

	err := root.Execute()

	return out.String(), err
}

//nolint:paralleltest
func TestGetCommand(t *testing.T) {
	t.Setenv("ORCHESTRATOR_URL", newOrchestrator(t).URL)

	out, err := execute(t, "get", "/nodes")
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[{"id":"node-1"}],"total":1,"page":1,"per_page":1}`, out)
}

//nolint:paralleltest
func TestGetCommand_WithBody(t *testing.T) {
	t.Setenv("ORCHESTRATOR_URL", newOrchestrator(t).URL)

	out, err := execute(t, "get", "/deployments", "-X", "POST", "-d", `{"name":"web"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"method":"POST","body":{"name":"web"}}`, out)
}

//nolint:paralleltest
func TestGetCommand_ClientError(t *testing.T) {
	t.Setenv("ORCHESTRATOR_URL", newOrchestrator(t).URL)

	_, err := execute(t, "get", "/volumes")
	require.EqualError(t, err, "NOT_FOUND (404): route not found")
}

//nolint:paralleltest
func TestOverviewCommand(t *testing.T) {
	t.Setenv("ORCHESTRATOR_URL", newOrchestrator(t).URL)

	out, err := execute(t, "overview")
	require.NoError(t, err)
	assert.Contains(t, out, "Nodes")
	assert.Contains(t, out, "(route not found)")
	assert.NotContains(t, out, "not connected")
}

//nolint:paralleltest
func TestLoadConfig_InvalidLogFlag(t *testing.T) {
	_, err := execute(t, "overview", "--log", "loud")
	require.ErrorContains(t, err, "invalid --log")
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dashboard "+version)
}
