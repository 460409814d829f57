package readiness

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andyle182810/orchestrator-dashboard/apiclient"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	StatusReady    = "ready"
	StatusNotReady = "not_ready"

	// HealthPath is served at the orchestrator origin root, outside the
	// versioned API prefix.
	HealthPath = "/healthz"

	serviceOrchestrator = "orchestrator"
)

type Info struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type Result struct {
	Status   string          `json:"status"`
	Services map[string]Info `json:"services"`
}

func (r Result) Ready() bool {
	return r.Status == StatusReady
}

type Checker struct {
	client *resty.Client
	origin string
}

type Option func(*Checker)

func WithAPIKey(apiKey string) Option {
	return func(c *Checker) {
		if apiKey != "" {
			c.client.SetHeader(apiclient.HeaderXAPIKey, apiKey)
		}
	}
}

func WithRestyClient(client *resty.Client) Option {
	return func(c *Checker) {
		if client != nil {
			c.client = client
		}
	}
}

func New(origin string, timeout time.Duration, opts ...Option) *Checker {
	checker := &Checker{
		client: resty.New().SetTimeout(timeout),
		origin: strings.TrimSuffix(origin, "/"),
	}

	for _, opt := range opts {
		opt(checker)
	}

	return checker
}

// Check probes the orchestrator health endpoint. Any 2xx answer is ready.
func (c *Checker) Check(ctx context.Context) Result {
	result := Result{
		Status:   StatusReady,
		Services: make(map[string]Info, 1),
	}

	if err := c.probe(ctx); err != nil {
		log.Warn().Err(err).Str("service", serviceOrchestrator).Msg("Orchestrator health check failed")

		result.Status = StatusNotReady
		result.Services[serviceOrchestrator] = Info{Status: StatusNotReady, Error: err.Error()}

		return result
	}

	result.Services[serviceOrchestrator] = Info{Status: StatusReady, Error: ""}

	return result
}

func (c *Checker) probe(ctx context.Context) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader(apiclient.HeaderContentType, apiclient.ContentTypeJSON).
		Get(c.origin + HealthPath)
	if err != nil {
		return fmt.Errorf("%w: %w", apiclient.ErrRequestFailed, err)
	}

	if !resp.IsSuccess() {
		return fmt.Errorf("health endpoint returned %s", resp.Status()) //nolint:err113
	}

	return nil
}
