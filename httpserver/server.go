package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/andyle182810/orchestrator-dashboard/middleware"
	"github.com/andyle182810/orchestrator-dashboard/validator"
	"github.com/labstack/echo/v5"
	echomiddleware "github.com/labstack/echo/v5/middleware"
	"github.com/rs/zerolog/log"
)

const (
	kilobyte         = 1 << 10
	megabyte         = 1 << 20
	gigabyte         = 1 << 30
	defaultBodyLimit = 10 * megabyte
)

var ErrServerNotRunning = errors.New("httpserver: server is not running")

type Config struct {
	Host         string
	Port         int
	EnableCors   bool
	AllowOrigins []string
	BodyLimit    string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	GracePeriod  time.Duration
}

type Server struct {
	address      string
	gracePeriod  time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
	Echo         *echo.Echo
	Root         *echo.Group
	httpServer   *http.Server
	listener     net.Listener
}

func New(cfg *Config) *Server {
	e := echo.New()
	e.Validator = validator.DefaultRestValidator()
	e.HTTPErrorHandler = middleware.ErrorHandler(nil)

	e.Pre(middleware.RequestLogger(log.Logger, SafeLogFieldsExtractor))
	e.Pre(middleware.RequestID(nil))
	e.Pre(echomiddleware.BodyLimit(parseBodyLimit(cfg.BodyLimit)))

	if cfg.EnableCors {
		e.Use(echomiddleware.CORS(cfg.AllowOrigins...))
	}

	root := e.Group("")
	address := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	return &Server{ //nolint:exhaustruct
		gracePeriod:  cfg.GracePeriod,
		address:      address,
		Echo:         e,
		Root:         root,
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
	}
}

func parseBodyLimit(limit string) int64 {
	if limit == "" {
		return defaultBodyLimit
	}

	multiplier := int64(1)
	unit := limit[len(limit)-1:]

	switch unit {
	case "K", "k":
		multiplier = kilobyte
		limit = limit[:len(limit)-1]
	case "M", "m":
		multiplier = megabyte
		limit = limit[:len(limit)-1]
	case "G", "g":
		multiplier = gigabyte
		limit = limit[:len(limit)-1]
	}

	size, err := strconv.ParseInt(limit, 10, 64)
	if err != nil || size <= 0 {
		return defaultBodyLimit
	}

	return size * multiplier
}

// Start binds the listener before returning so that address errors reach the
// caller. Serving continues in the background until Stop.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig

	listener, err := lc.Listen(ctx, "tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}

	s.listener = listener
	s.httpServer = &http.Server{ //nolint:exhaustruct
		Handler:      s.Echo,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	log.Info().
		Str("address", listener.Addr().String()).
		Msg("The HTTP server is being started")

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server failed to serve")
		}
	}()

	return nil
}

// Addr reports the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.address
	}

	return s.listener.Addr().String()
}

func (s *Server) Stop() error {
	log.Info().
		Msg("The graceful shutdown of HTTP server is being initiated")

	if s.httpServer == nil {
		return ErrServerNotRunning
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.gracePeriod)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to gracefully stop HTTP server")

		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}

	log.Info().
		Msg("The HTTP server shutdown has been completed successfully")

	return nil
}

func (s *Server) Name() string {
	return "http"
}

func SafeLogFieldsExtractor(ctx *echo.Context) map[string]any {
	fields := make(map[string]any)

	if req := ctx.Get(middleware.ContextKeyBody); req != nil {
		// Only the type is logged, never the content.
		fields["has_body"] = true
		fields["body_type"] = fmt.Sprintf("%T", req)
	} else {
		fields["has_body"] = false
	}

	return fields
}
