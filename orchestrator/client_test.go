package orchestrator_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/andyle182810/orchestrator-dashboard/apiclient"
	"github.com/andyle182810/orchestrator-dashboard/orchestrator"
	"github.com/andyle182810/orchestrator-dashboard/testutil"
	"github.com/stretchr/testify/require"
)

var errNetwork = errors.New("network unreachable")

func newTestClient(respond testutil.RespondFunc) (*orchestrator.Client, *testutil.RecordingDoer) {
	doer := testutil.NewRecordingDoer(respond)

	return orchestrator.New(apiclient.New("http://orchestrator:8080", apiclient.WithDoer(doer))), doer
}

// routes answers by request path; unknown paths get the orchestrator's 404
// error body.
func routes(table map[string]testutil.RespondFunc) testutil.RespondFunc {
	return func(req *http.Request) (*http.Response, error) {
		if respond, ok := table[req.URL.Path]; ok {
			return respond(req)
		}

		return testutil.JSONResponse(http.StatusNotFound, apiclient.APIError{Error: "not found", Code: "NOT_FOUND"}), nil
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	client, doer := newTestClient(testutil.RespondJSON(http.StatusOK, orchestrator.Health{
		Status:    "ok",
		Timestamp: "2026-10-14T09:00:00Z",
	}))

	health, err := client.Health(t.Context())

	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "http://orchestrator:8080/api/v1/healthz", doer.LastRequest().URL.String())
}

func TestHealth_WrapsClientError(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(testutil.RespondJSON(http.StatusUnauthorized, apiclient.APIError{
		Error: "invalid or missing API key",
		Code:  "UNAUTHORIZED",
	}))

	_, err := client.Health(t.Context())

	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to check orchestrator health")
	require.True(t, apiclient.IsCode(err, "UNAUTHORIZED"))
}

func TestHealth_RejectsMissingStatus(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(testutil.RespondRaw(http.StatusOK, "OK", `{"timestamp":"2026-10-14T09:00:00Z"}`))

	_, err := client.Health(t.Context())

	require.ErrorIs(t, err, apiclient.ErrValidation)

	_, isClientErr := apiclient.AsClientError(err)
	require.False(t, isClientErr)
}

func TestListNodes_SendsPagination(t *testing.T) {
	t.Parallel()

	client, doer := newTestClient(testutil.RespondJSON(http.StatusOK, orchestrator.Page[orchestrator.Node]{
		Items: []orchestrator.Node{
			{ID: "n-1", Name: "worker-1", Status: orchestrator.NodeReady}, //nolint:exhaustruct
			{ID: "n-2", Name: "worker-2", Status: orchestrator.NodeNotReady}, //nolint:exhaustruct
		},
		Total:   12,
		Page:    2,
		PerPage: 2,
	}))

	page, err := client.ListNodes(t.Context(), orchestrator.ListOptions{Page: 2, PerPage: 2})

	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Equal(t, 12, page.Total)
	require.Equal(t, orchestrator.NodeNotReady, page.Items[1].Status)

	query := doer.LastRequest().URL.Query()
	require.Equal(t, "/api/v1/nodes", doer.LastRequest().URL.Path)
	require.Equal(t, "2", query.Get("page"))
	require.Equal(t, "2", query.Get("per_page"))
}

func TestList_OmitsZeroPagination(t *testing.T) {
	t.Parallel()

	client, doer := newTestClient(testutil.RespondRaw(http.StatusOK, "OK", `{"items":[],"total":0,"page":1,"per_page":20}`))

	_, err := client.ListServices(t.Context(), orchestrator.ListOptions{}) //nolint:exhaustruct

	require.NoError(t, err)
	require.Equal(t, "http://orchestrator:8080/api/v1/services", doer.LastRequest().URL.String())
}

func TestListEachResource(t *testing.T) {
	t.Parallel()

	body := `{"items":[{"id":"x-1","name":"one"}],"total":1,"page":1,"per_page":20}`
	client, doer := newTestClient(testutil.RespondRaw(http.StatusOK, "OK", body))

	containers, err := client.ListContainers(t.Context(), orchestrator.ListOptions{}) //nolint:exhaustruct
	require.NoError(t, err)
	require.Equal(t, "one", containers.Items[0].Name)

	deployments, err := client.ListDeployments(t.Context(), orchestrator.ListOptions{}) //nolint:exhaustruct
	require.NoError(t, err)
	require.Equal(t, "x-1", deployments.Items[0].ID)

	services, err := client.ListServices(t.Context(), orchestrator.ListOptions{}) //nolint:exhaustruct
	require.NoError(t, err)
	require.Equal(t, 1, services.Total)

	paths := make([]string, 0, 3)
	for _, req := range doer.Requests() {
		paths = append(paths, req.URL.Path)
	}

	require.Equal(t, []string{"/api/v1/containers", "/api/v1/deployments", "/api/v1/services"}, paths)
}

func TestGet_EscapesIdentifier(t *testing.T) {
	t.Parallel()

	client, doer := newTestClient(testutil.RespondRaw(http.StatusOK, "OK", `{"id":"web/1","name":"web"}`))

	deployment, err := client.GetDeployment(t.Context(), "web/1")

	require.NoError(t, err)
	require.Equal(t, "web", deployment.Name)
	require.Equal(t, "http://orchestrator:8080/api/v1/deployments/web%2F1", doer.LastRequest().URL.String())
}

func TestGet_NotFoundKeepsClientError(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(routes(nil))

	_, err := client.GetNode(t.Context(), "n-404")

	require.Error(t, err)
	require.Contains(t, err.Error(), `failed to get nodes "n-404"`)

	clientErr, ok := apiclient.AsClientError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, clientErr.Status)
	require.Equal(t, "NOT_FOUND", clientErr.Code)
}

func TestGetContainerAndService(t *testing.T) {
	t.Parallel()

	client, doer := newTestClient(routes(map[string]testutil.RespondFunc{
		"/api/v1/containers/c-1": testutil.RespondRaw(http.StatusOK, "OK", `{"id":"c-1","state":"running"}`),
		"/api/v1/services/s-1":   testutil.RespondRaw(http.StatusOK, "OK", `{"id":"s-1","ports":[{"port":80,"target_port":8080,"protocol":"TCP"}]}`),
	}))

	container, err := client.GetContainer(t.Context(), "c-1")
	require.NoError(t, err)
	require.Equal(t, orchestrator.ContainerRunning, container.State)

	service, err := client.GetService(t.Context(), "s-1")
	require.NoError(t, err)
	require.Equal(t, 8080, service.Ports[0].TargetPort)
	require.Equal(t, 2, doer.Calls())
}

func TestCount(t *testing.T) {
	t.Parallel()

	client, doer := newTestClient(testutil.RespondRaw(http.StatusOK, "OK", `{"items":[{"anything":true}],"total":42,"page":1,"per_page":1}`))

	count, err := client.Count(t.Context(), orchestrator.ResourceContainers)

	require.NoError(t, err)
	require.Equal(t, 42, count)
	require.Equal(t, "1", doer.LastRequest().URL.Query().Get("per_page"))
}

func TestCount_PropagatesTransportError(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(testutil.RespondError(errNetwork))

	_, err := client.Count(t.Context(), orchestrator.ResourceNodes)

	require.ErrorIs(t, err, apiclient.ErrRequestFailed)
	require.ErrorIs(t, err, errNetwork)
}

func TestResources(t *testing.T) {
	t.Parallel()

	labels := make([]string, 0, len(orchestrator.Resources))
	for _, resource := range orchestrator.Resources {
		labels = append(labels, resource.Label())
	}

	require.Equal(t, []string{"Nodes", "Containers", "Deployments", "Services"}, labels)
	require.Equal(t, "/deployments", orchestrator.ResourceDeployments.Path())
	require.Equal(t, "volumes", orchestrator.Resource("volumes").Label())
}

func TestListAndGet_Raw(t *testing.T) {
	t.Parallel()

	client, doer := newTestClient(routes(map[string]testutil.RespondFunc{
		"/api/v1/services": testutil.RespondRaw(http.StatusOK, "OK",
			`{"items":[{"id":"svc-1","name":"web"}],"total":1,"page":2,"per_page":5}`),
		"/api/v1/services/svc-1": testutil.RespondRaw(http.StatusOK, "OK", `{"id":"svc-1","name":"web"}`),
	}))

	page, err := client.List(t.Context(), orchestrator.ResourceServices, orchestrator.ListOptions{Page: 2, PerPage: 5})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	require.JSONEq(t, `{"id":"svc-1","name":"web"}`, string(page.Items[0]))
	require.Equal(t, "page=2&per_page=5", doer.LastRequest().URL.RawQuery)

	item, err := client.Get(t.Context(), orchestrator.ResourceServices, "svc-1")
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"svc-1","name":"web"}`, string(item))

	_, err = client.Get(t.Context(), orchestrator.ResourceServices, "svc-2")
	require.True(t, apiclient.IsCode(err, "NOT_FOUND"))
}

func TestParseResource(t *testing.T) {
	t.Parallel()

	for _, resource := range orchestrator.Resources {
		parsed, ok := orchestrator.ParseResource(string(resource))
		require.True(t, ok)
		require.Equal(t, resource, parsed)
	}

	_, ok := orchestrator.ParseResource("volumes")
	require.False(t, ok)

	_, ok = orchestrator.ParseResource("Nodes")
	require.False(t, ok)
}
