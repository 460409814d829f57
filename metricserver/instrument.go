package metricserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/andyle182810/orchestrator-dashboard/apiclient"
	"github.com/andyle182810/orchestrator-dashboard/orchestrator"
	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "dashboard"

// Metrics holds the collectors for both directions of traffic: requests the
// dashboard serves and requests it sends to the orchestrator.
type Metrics struct {
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	serverRequests   *prometheus.CounterVec
	serverDuration   *prometheus.HistogramVec
	clusterResources *prometheus.GaugeVec
	orchestratorUp   prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	metrics := &Metrics{
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{ //nolint:exhaustruct
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "requests_total",
			Help:      "Requests sent to the orchestrator API by method and status class.",
		}, []string{"method", "status"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{ //nolint:exhaustruct
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "request_duration_seconds",
			Help:      "Latency of requests sent to the orchestrator API.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		serverRequests: prometheus.NewCounterVec(prometheus.CounterOpts{ //nolint:exhaustruct
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests served by the dashboard by route and status class.",
		}, []string{"method", "route", "status"}),
		serverDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{ //nolint:exhaustruct
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of requests served by the dashboard.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		clusterResources: prometheus.NewGaugeVec(prometheus.GaugeOpts{ //nolint:exhaustruct
			Namespace: namespace,
			Subsystem: "cluster",
			Name:      "resources",
			Help:      "Last polled number of items per orchestrator collection.",
		}, []string{"resource"}),
		orchestratorUp: prometheus.NewGauge(prometheus.GaugeOpts{ //nolint:exhaustruct
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "up",
			Help:      "1 when the last overview poll counted at least one collection.",
		}),
	}

	for _, collector := range []prometheus.Collector{
		metrics.upstreamRequests,
		metrics.upstreamDuration,
		metrics.serverRequests,
		metrics.serverDuration,
		metrics.clusterResources,
		metrics.orchestratorUp,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}

	return metrics, nil
}

// StatusClass buckets a status code as "2xx", "4xx" and so on. Transport
// failures are reported as "error".
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "error"
	}

	return strconv.Itoa(status/100) + "xx"
}

type instrumentedDoer struct {
	next    apiclient.Doer
	metrics *Metrics
}

func (d *instrumentedDoer) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := d.next.Do(req)

	d.metrics.upstreamDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())

	status := 0
	if err == nil {
		status = resp.StatusCode
	}

	d.metrics.upstreamRequests.WithLabelValues(req.Method, StatusClass(status)).Inc()

	return resp, err //nolint:wrapcheck
}

// RecordOverview publishes the counts of a polled overview. Collections whose
// count is unknown are removed instead of reporting a stale value.
func (m *Metrics) RecordOverview(overview orchestrator.Overview) {
	for _, stat := range overview.Stats {
		if stat.Count == nil {
			m.clusterResources.DeleteLabelValues(string(stat.Resource))

			continue
		}

		m.clusterResources.WithLabelValues(string(stat.Resource)).Set(float64(*stat.Count))
	}

	if overview.Connected() {
		m.orchestratorUp.Set(1)
	} else {
		m.orchestratorUp.Set(0)
	}
}

// InstrumentDoer decorates the transport used by apiclient.
func (m *Metrics) InstrumentDoer(next apiclient.Doer) apiclient.Doer {
	return &instrumentedDoer{next: next, metrics: m}
}

// Middleware records one observation per served request, labelled by the
// route template rather than the raw path.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx *echo.Context) error {
			start := time.Now()

			err := next(ctx)

			status := http.StatusOK

			if res, unwrapErr := echo.UnwrapResponse(ctx.Response()); unwrapErr == nil && res.Committed {
				status = res.Status
			} else if err != nil {
				status = errorStatus(err)
			}

			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}

			method := ctx.Request().Method
			m.serverDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			m.serverRequests.WithLabelValues(method, route, StatusClass(status)).Inc()

			return err
		}
	}
}

func errorStatus(err error) int {
	if clientErr, ok := apiclient.AsClientError(err); ok {
		return clientErr.Status
	}

	if errors.Is(err, apiclient.ErrRequestFailed) {
		return http.StatusBadGateway
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}

	var coder echo.HTTPStatusCoder
	if errors.As(err, &coder) {
		return coder.StatusCode()
	}

	return http.StatusInternalServerError
}
