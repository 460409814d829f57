package middleware

import (
	"maps"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/rs/zerolog"
)

type LogFieldExtractor func(*echo.Context) map[string]any

// RequestLogger writes one line per request. Handler errors are rendered
// through the echo error handler first so the logged status is the one the
// client received.
func RequestLogger(log zerolog.Logger, extraLogFieldExtractor ...LogFieldExtractor) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx *echo.Context) error {
			start := time.Now()

			err := next(ctx)
			if err != nil {
				ctx.Echo().HTTPErrorHandler(ctx, err)
			}

			res, extractErr := echo.UnwrapResponse(ctx.Response())
			if extractErr != nil {
				return extractErr
			}

			fields := extractLogFields(ctx, start, res)

			if id := GetRequestID(ctx); id != "" {
				fields["request_id"] = id
			}

			if handler := GetHandler(ctx); handler != "" {
				fields["handler"] = handler
			}

			addExtraLogFields(fields, ctx, extraLogFieldExtractor)

			logRequest(log, fields, err, res.Status)

			return nil
		}
	}
}

func extractLogFields(ctx *echo.Context, start time.Time, res *echo.Response) map[string]any {
	req := ctx.Request()

	return map[string]any{
		"remote_ip":   ctx.RealIP(),
		"latency":     time.Since(start).String(),
		"host":        req.Host,
		"request":     req.Method + " " + req.URL.String(),
		"request_uri": req.RequestURI,
		"status":      res.Status,
		"size":        res.Size,
		"user_agent":  req.UserAgent(),
	}
}

func addExtraLogFields(fields map[string]any, ctx *echo.Context, extractors []LogFieldExtractor) {
	for _, extractor := range extractors {
		maps.Copy(fields, extractor(ctx))
	}
}

func logRequest(log zerolog.Logger, fields map[string]any, err error, status int) {
	logger := log.With().Fields(fields).Logger()
	if err != nil {
		logger = logger.With().Err(err).Logger()
	}

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error().
			Msg("The request has resulted in a server error")
	case status >= http.StatusBadRequest:
		logger.Warn().
			Msg("The request has resulted in a client error")
	case status >= http.StatusMultipleChoices:
		logger.Info().
			Msg("The request has resulted in a redirection")
	default:
		logger.Info().
			Msg("The request has completed successfully")
	}
}
