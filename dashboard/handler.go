package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/andyle182810/orchestrator-dashboard/httpserver"
	"github.com/andyle182810/orchestrator-dashboard/internal/readiness"
	"github.com/andyle182810/orchestrator-dashboard/middleware"
	"github.com/andyle182810/orchestrator-dashboard/orchestrator"
	"github.com/labstack/echo/v5"
	"golang.org/x/time/rate"
)

// Orchestrator is the part of orchestrator.Client the handlers read from.
type Orchestrator interface {
	Overview(ctx context.Context) orchestrator.Overview
	List(ctx context.Context, resource orchestrator.Resource, opts orchestrator.ListOptions) (orchestrator.Page[json.RawMessage], error)
	Get(ctx context.Context, resource orchestrator.Resource, id string) (json.RawMessage, error)
}

type ReadinessChecker interface {
	Check(ctx context.Context) readiness.Result
}

type Handler struct {
	orchestrator Orchestrator
	readiness    ReadinessChecker
	proxy        http.Handler
	proxyLimiter *rate.Limiter
	now          func() time.Time
}

type Option func(*Handler)

func WithReadiness(checker ReadinessChecker) Option {
	return func(h *Handler) {
		h.readiness = checker
	}
}

// WithProxy mounts proxy on /api/*.
func WithProxy(proxy http.Handler) Option {
	return func(h *Handler) {
		h.proxy = proxy
	}
}

// WithProxyRateLimit caps proxied requests per second. A non-positive limit
// leaves the proxy unlimited.
func WithProxyRateLimit(perSecond float64, burst int) Option {
	return func(h *Handler) {
		if perSecond > 0 {
			h.proxyLimiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
		}
	}
}

func New(orch Orchestrator, opts ...Option) *Handler {
	handler := &Handler{
		orchestrator: orch,
		readiness:    nil,
		proxy:        nil,
		proxyLimiter: nil,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(handler)
	}

	return handler
}

func (h *Handler) Register(g *echo.Group) {
	g.GET("/", h.OverviewPage, middleware.Handler("overview_page"))
	g.GET("/overview.json", h.OverviewJSON, middleware.Handler("overview_json"))
	g.GET("/health", h.Health, middleware.Handler("health"))
	g.GET("/ready", h.Ready, middleware.Handler("ready"))
	g.GET("/resources/:resource", httpserver.Wrap(h.ListResource), middleware.Handler("list_resource"))
	g.GET("/resources/:resource/:id", httpserver.Wrap(h.GetResource), middleware.Handler("get_resource"))
	g.GET("/:resource", h.ResourcePage, middleware.Handler("resource_page"))

	if h.proxy != nil {
		g.Any("/api/*", echo.WrapHandler(h.proxy), middleware.Handler("api_proxy"), middleware.RateLimit(h.proxyLimiter))
	}
}

func (h *Handler) OverviewPage(c *echo.Context) error {
	overview := h.orchestrator.Overview(c.Request().Context())

	body, err := RenderOverview(NewOverviewPage(overview))
	if err != nil {
		return err
	}

	return c.HTMLBlob(http.StatusOK, body)
}

func (h *Handler) OverviewJSON(c *echo.Context) error {
	return c.JSON(http.StatusOK, h.orchestrator.Overview(c.Request().Context()))
}

func (h *Handler) ResourcePage(c *echo.Context) error {
	resource, ok := orchestrator.ParseResource(c.Param("resource"))
	if !ok {
		return echo.ErrNotFound
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("per_page"))
	page, perPage = httpserver.NormalizePage(page, perPage)

	list, listErr := h.orchestrator.List(c.Request().Context(), resource, orchestrator.ListOptions{
		Page:    page,
		PerPage: perPage,
	})

	body, err := RenderResource(NewResourcePage(resource, list, listErr))
	if err != nil {
		return err
	}

	return c.HTMLBlob(http.StatusOK, body)
}

type ListResourceRequest struct {
	Resource string `json:"resource" param:"resource" validate:"required,oneof=nodes containers deployments services"`
	Page     int    `json:"page"     query:"page"     validate:"omitempty,min=1"`
	PerPage  int    `json:"per_page" query:"per_page" validate:"omitempty,min=1,max=100"` //nolint:tagliatelle
}

func (h *Handler) ListResource(c *echo.Context, req *ListResourceRequest) (orchestrator.Page[json.RawMessage], error) {
	page, perPage := httpserver.NormalizePage(req.Page, req.PerPage)

	return h.orchestrator.List(c.Request().Context(), orchestrator.Resource(req.Resource), orchestrator.ListOptions{
		Page:    page,
		PerPage: perPage,
	})
}

type GetResourceRequest struct {
	Resource string `json:"resource" param:"resource" validate:"required,oneof=nodes containers deployments services"`
	ID       string `json:"id"       param:"id"       validate:"required"`
}

func (h *Handler) GetResource(c *echo.Context, req *GetResourceRequest) (json.RawMessage, error) {
	return h.orchestrator.Get(c.Request().Context(), orchestrator.Resource(req.Resource), req.ID)
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Health reports process liveness only and never calls the orchestrator.
func (h *Handler) Health(c *echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) Ready(c *echo.Context) error {
	if h.readiness == nil {
		return c.JSON(http.StatusOK, readiness.Result{
			Status:   readiness.StatusReady,
			Services: map[string]readiness.Info{},
		})
	}

	result := h.readiness.Check(c.Request().Context())
	if !result.Ready() {
		return c.JSON(http.StatusServiceUnavailable, result)
	}

	return c.JSON(http.StatusOK, result)
}
