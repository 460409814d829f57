package metricserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	metricsPath = "/metrics"
	statusPath  = "/status"
)

var ErrServerNotRunning = errors.New("metricserver: server is not running")

type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	GracePeriod  time.Duration
}

type Server struct {
	gracePeriod  time.Duration
	address      string
	readTimeout  time.Duration
	writeTimeout time.Duration
	echo         *echo.Echo
	httpServer   *http.Server
	listener     net.Listener
}

// New exposes gatherer on /metrics. A nil gatherer serves the default registry.
func New(cfg *Config, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	ech := echo.New()

	ech.GET(statusPath, func(ctx *echo.Context) error {
		return ctx.JSON(http.StatusOK, map[string]any{"status": "ok"})
	})

	ech.GET(metricsPath, echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{ //nolint:exhaustruct
		ErrorHandling: promhttp.ContinueOnError,
	})))

	address := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	return &Server{ //nolint:exhaustruct
		gracePeriod:  cfg.GracePeriod,
		address:      address,
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
		echo:         ech,
	}
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig

	listener, err := lc.Listen(ctx, "tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}

	s.listener = listener
	s.httpServer = &http.Server{ //nolint:exhaustruct
		Handler:      s.echo,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	log.Info().Str("address", listener.Addr().String()).Msg("Starting metrics server")

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server encountered a fatal error")
		}
	}()

	return nil
}

func (s *Server) Addr() string {
	if s.listener == nil {
		return s.address
	}

	return s.listener.Addr().String()
}

func (s *Server) Stop() error {
	if s.httpServer == nil {
		return ErrServerNotRunning
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.gracePeriod)
	defer cancel()

	log.Info().Msg("Initiating graceful shutdown of metrics server")

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to gracefully shut down metrics server")

		return fmt.Errorf("failed to stop metrics server: %w", err)
	}

	log.Info().Msg("Metrics server shutdown complete")

	return nil
}

func (s *Server) Name() string {
	return "metric"
}
