package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/andyle182810/orchestrator-dashboard/apiclient"
)

const HealthPath = "/healthz"

type ListOptions struct {
	Page    int
	PerPage int
}

func (o ListOptions) requestOptions() []apiclient.RequestOption {
	opts := make([]apiclient.RequestOption, 0, 2) //nolint:mnd

	if o.Page > 0 {
		opts = append(opts, apiclient.WithQuery("page", strconv.Itoa(o.Page)))
	}

	if o.PerPage > 0 {
		opts = append(opts, apiclient.WithQuery("per_page", strconv.Itoa(o.PerPage)))
	}

	return opts
}

// Client exposes the orchestrator resources as typed calls. Every method maps
// to exactly one apiclient.Request.
type Client struct {
	api *apiclient.Client
}

func New(api *apiclient.Client) *Client {
	return &Client{api: api}
}

func (c *Client) API() *apiclient.Client {
	return c.api
}

func (c *Client) Health(ctx context.Context) (Health, error) {
	health, err := apiclient.RequestValidated[Health](ctx, c.api, nil, HealthPath)
	if err != nil {
		return health, fmt.Errorf("failed to check orchestrator health: %w", err)
	}

	return health, nil
}

func (c *Client) ListNodes(ctx context.Context, opts ListOptions) (Page[Node], error) {
	return list[Node](ctx, c.api, ResourceNodes, opts)
}

func (c *Client) ListContainers(ctx context.Context, opts ListOptions) (Page[Container], error) {
	return list[Container](ctx, c.api, ResourceContainers, opts)
}

func (c *Client) ListDeployments(ctx context.Context, opts ListOptions) (Page[Deployment], error) {
	return list[Deployment](ctx, c.api, ResourceDeployments, opts)
}

func (c *Client) ListServices(ctx context.Context, opts ListOptions) (Page[Service], error) {
	return list[Service](ctx, c.api, ResourceServices, opts)
}

func (c *Client) GetNode(ctx context.Context, id string) (Node, error) {
	return get[Node](ctx, c.api, ResourceNodes, id)
}

func (c *Client) GetContainer(ctx context.Context, id string) (Container, error) {
	return get[Container](ctx, c.api, ResourceContainers, id)
}

func (c *Client) GetDeployment(ctx context.Context, id string) (Deployment, error) {
	return get[Deployment](ctx, c.api, ResourceDeployments, id)
}

func (c *Client) GetService(ctx context.Context, id string) (Service, error) {
	return get[Service](ctx, c.api, ResourceServices, id)
}

// List fetches one page of any collection without decoding its items.
func (c *Client) List(ctx context.Context, resource Resource, opts ListOptions) (Page[json.RawMessage], error) {
	return list[json.RawMessage](ctx, c.api, resource, opts)
}

func (c *Client) Get(ctx context.Context, resource Resource, id string) (json.RawMessage, error) {
	return get[json.RawMessage](ctx, c.api, resource, id)
}

// Count returns the total number of items in a collection by requesting a
// single-item page.
func (c *Client) Count(ctx context.Context, resource Resource) (int, error) {
	page, err := list[json.RawMessage](ctx, c.api, resource, ListOptions{Page: 1, PerPage: 1})
	if err != nil {
		return 0, err
	}

	return page.Total, nil
}

func list[T any](ctx context.Context, api *apiclient.Client, resource Resource, opts ListOptions) (Page[T], error) {
	page, err := apiclient.Request[Page[T]](ctx, api, resource.Path(), opts.requestOptions()...)
	if err != nil {
		return page, fmt.Errorf("failed to list %s: %w", resource, err)
	}

	return page, nil
}

func get[T any](ctx context.Context, api *apiclient.Client, resource Resource, id string) (T, error) {
	item, err := apiclient.Request[T](ctx, api, resource.Path()+"/"+url.PathEscape(id))
	if err != nil {
		return item, fmt.Errorf("failed to get %s %q: %w", resource, id, err)
	}

	return item, nil
}
