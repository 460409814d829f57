package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/andyle182810/orchestrator-dashboard/apiclient"
	"github.com/andyle182810/orchestrator-dashboard/dashboard"
	"github.com/andyle182810/orchestrator-dashboard/httpserver"
	"github.com/andyle182810/orchestrator-dashboard/internal/config"
	"github.com/andyle182810/orchestrator-dashboard/internal/poller"
	"github.com/andyle182810/orchestrator-dashboard/internal/readiness"
	"github.com/andyle182810/orchestrator-dashboard/metricserver"
	"github.com/andyle182810/orchestrator-dashboard/middleware"
	"github.com/andyle182810/orchestrator-dashboard/orchestrator"
	"github.com/andyle182810/orchestrator-dashboard/runner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

type application struct {
	cfg      *config.Config
	registry *prometheus.Registry
	metrics  *metricserver.Metrics
}

func newApplication(cfg *config.Config) (*application, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), //nolint:exhaustruct
	)

	metrics, err := metricserver.NewMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return &application{
		cfg:      cfg,
		registry: registry,
		metrics:  metrics,
	}, nil
}

func (app *application) run(ctx context.Context) error {
	httpServer, err := app.newHTTPServer()
	if err != nil {
		return err
	}

	opts := []runner.Option{
		runner.WithCoreService(httpServer),
		runner.WithShutdownTimeout(app.cfg.GracefulShutdownPeriod),
	}

	if app.cfg.MetricServerEnabled {
		opts = append(opts, runner.WithInfrastructureService(app.newMetricServer()))

		if app.cfg.OverviewPollPeriod > 0 {
			opts = append(opts, runner.WithCoreService(app.newPoller()))
		}
	}

	log.Info().
		Str("orchestrator_url", app.cfg.OrchestratorURL).
		Bool("api_proxy", app.cfg.HTTPEnableAPIProxy).
		Msg("Starting dashboard")

	if err := runner.New(opts...).Run(ctx); err != nil {
		return fmt.Errorf("dashboard stopped with an error: %w", err)
	}

	log.Info().Msg("Dashboard shutdown complete")

	return nil
}

func (app *application) newHTTPServer() (*httpserver.Server, error) {
	svr := httpserver.New(&httpserver.Config{
		Host:         app.cfg.HTTPServerHost,
		Port:         app.cfg.HTTPServerPort,
		EnableCors:   app.cfg.HTTPEnableCORS,
		AllowOrigins: app.cfg.HTTPAllowOrigins,
		BodyLimit:    app.cfg.HTTPBodyLimit,
		ReadTimeout:  app.cfg.HTTPServerReadTimeout,
		WriteTimeout: app.cfg.HTTPServerWriteTimeout,
		GracePeriod:  app.cfg.GracefulShutdownPeriod,
	})
	svr.Echo.Use(app.metrics.Middleware())

	opts := []dashboard.Option{
		dashboard.WithReadiness(readiness.New(
			app.cfg.OrchestratorURL,
			app.cfg.ReadinessTimeout,
			readiness.WithAPIKey(app.cfg.OrchestratorAPIKey),
		)),
	}

	if app.cfg.HTTPEnableAPIProxy {
		proxy, err := dashboard.NewProxy(dashboard.ProxyConfig{
			Origin:    app.cfg.OrchestratorURL,
			APIKey:    app.cfg.OrchestratorAPIKey,
			Transport: nil,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build api proxy: %w", err)
		}

		opts = append(opts,
			dashboard.WithProxy(proxy),
			dashboard.WithProxyRateLimit(app.cfg.HTTPProxyRateLimit, app.cfg.HTTPProxyBurst),
		)
	}

	client := orchestrator.New(newAPIClient(app.cfg, app.metrics))
	dashboard.New(client, opts...).Register(svr.Root)

	return svr, nil
}

func (app *application) newMetricServer() *metricserver.Server {
	return metricserver.New(&metricserver.Config{
		Host:         app.cfg.MetricServerHost,
		Port:         app.cfg.MetricServerPort,
		ReadTimeout:  app.cfg.MetricServerReadTimeout,
		WriteTimeout: app.cfg.MetricServerWriteTimeout,
		GracePeriod:  app.cfg.GracefulShutdownPeriod,
	}, app.registry)
}

func (app *application) newPoller() *poller.Poller {
	return poller.New(
		orchestrator.New(newAPIClient(app.cfg, app.metrics)),
		app.metrics,
		poller.WithInterval(app.cfg.OverviewPollPeriod),
		poller.WithTimeout(app.cfg.OrchestratorTimeout),
	)
}

// newAPIClient builds the orchestrator client. A nil metrics leaves the
// transport uninstrumented.
func newAPIClient(cfg *config.Config, metrics *metricserver.Metrics) *apiclient.Client {
	var doer apiclient.Doer = &http.Client{Timeout: cfg.OrchestratorTimeout} //nolint:exhaustruct
	if metrics != nil {
		doer = metrics.InstrumentDoer(doer)
	}

	return apiclient.New(cfg.OrchestratorURL,
		apiclient.WithDoer(doer),
		apiclient.WithAPIKey(cfg.OrchestratorAPIKey),
		apiclient.WithRequestIDKey(middleware.RequestIDContextKey),
	)
}
