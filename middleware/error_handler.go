package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/andyle182810/orchestrator-dashboard/apiclient"
	"github.com/labstack/echo/v5"
	"github.com/rs/zerolog"
)

const (
	CodeInternal           = "INTERNAL"
	CodeUpstreamFailed     = "UPSTREAM_UNAVAILABLE"
	messageInternal        = "internal server error"
	messageUpstreamFailure = "orchestrator API is unreachable"
)

type ErrorHandlerConfig struct {
	Logger                *zerolog.Logger
	LogErrors             bool
	IncludeInternalErrors bool
	CustomErrorResponse   func(*echo.Context, error, int) any
}

// ErrorHandler renders every error as the orchestrator's {error, code} body.
// Errors it cannot classify are passed to next when one is given.
func ErrorHandler(next echo.HTTPErrorHandler, config ...*ErrorHandlerConfig) echo.HTTPErrorHandler {
	cfg := getErrorHandlerConfig(config)

	return func(ectx *echo.Context, err error) {
		res, unwrapErr := echo.UnwrapResponse(ectx.Response())
		if unwrapErr == nil && res.Committed {
			return
		}

		status, body, ok := classify(err, cfg)
		if !ok {
			if cfg.LogErrors && cfg.Logger != nil {
				logError(ectx, err, cfg.Logger)
			}

			if next != nil {
				next(ectx, err)

				return
			}

			status, body = http.StatusInternalServerError, internalBody(err, cfg)
		}

		if cfg.LogErrors && cfg.Logger != nil {
			logHTTPError(ectx, err, status, body, cfg.Logger)
		}

		if cfg.CustomErrorResponse != nil {
			_ = ectx.JSON(status, cfg.CustomErrorResponse(ectx, err, status))

			return
		}

		_ = ectx.JSON(status, body)
	}
}

func getErrorHandlerConfig(config []*ErrorHandlerConfig) *ErrorHandlerConfig {
	if len(config) > 0 && config[0] != nil {
		return config[0]
	}

	return &ErrorHandlerConfig{} //nolint:exhaustruct
}

func classify(err error, cfg *ErrorHandlerConfig) (int, apiclient.APIError, bool) {
	if clientErr, ok := apiclient.AsClientError(err); ok {
		status := clientErr.Status
		if status < http.StatusBadRequest || status > 599 {
			status = http.StatusBadGateway
		}

		return status, apiclient.APIError{Error: clientErr.Message, Code: clientErr.Code}, true
	}

	if errors.Is(err, apiclient.ErrRequestFailed) {
		message := messageUpstreamFailure
		if cfg.IncludeInternalErrors {
			message = err.Error()
		}

		return http.StatusBadGateway, apiclient.APIError{Error: message, Code: CodeUpstreamFailed}, true
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		message := httpErr.Message
		if message == "" {
			message = http.StatusText(httpErr.Code)
		}

		if cfg.IncludeInternalErrors {
			if internal := httpErr.Unwrap(); internal != nil {
				message = message + ": " + internal.Error()
			}
		}

		return httpErr.Code, apiclient.APIError{Error: message, Code: CodeFromStatus(httpErr.Code)}, true
	}

	// Router and body limit sentinels such as echo.ErrNotFound only expose
	// their status through StatusCode.
	var coder echo.HTTPStatusCoder
	if errors.As(err, &coder) {
		status := coder.StatusCode()

		message := http.StatusText(status)
		if message == "" {
			message = err.Error()
		}

		return status, apiclient.APIError{Error: message, Code: CodeFromStatus(status)}, true
	}

	return 0, apiclient.APIError{}, false //nolint:exhaustruct
}

func internalBody(err error, cfg *ErrorHandlerConfig) apiclient.APIError {
	message := messageInternal
	if cfg.IncludeInternalErrors {
		message = err.Error()
	}

	return apiclient.APIError{Error: message, Code: CodeInternal}
}

// CodeFromStatus turns a status into an upper snake case error code, so 404
// becomes NOT_FOUND. Server errors without a known text map to INTERNAL.
func CodeFromStatus(status int) string {
	if status == http.StatusInternalServerError {
		return CodeInternal
	}

	text := http.StatusText(status)
	if text == "" {
		if status >= http.StatusInternalServerError {
			return CodeInternal
		}

		return apiclient.CodeUnknown
	}

	var builder strings.Builder

	for _, r := range strings.ToUpper(text) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == ' ' || r == '-':
			builder.WriteRune('_')
		}
	}

	return builder.String()
}

func requestFields(ectx *echo.Context) map[string]any {
	fields := map[string]any{
		"path":   ectx.Request().URL.Path,
		"method": ectx.Request().Method,
	}

	if id := GetRequestID(ectx); id != "" {
		fields["request_id"] = id
	}

	if handler := GetHandler(ectx); handler != "" {
		fields["handler"] = handler
	}

	return fields
}

func logHTTPError(ectx *echo.Context, err error, status int, body apiclient.APIError, logger *zerolog.Logger) {
	fields := requestFields(ectx)
	fields["status_code"] = status
	fields["code"] = body.Code
	fields["message"] = body.Error

	loggerWithFields := logger.With().Fields(fields).Err(err).Logger()

	switch {
	case status >= http.StatusInternalServerError:
		loggerWithFields.Error().Msg("Request failed with server error")
	case status >= http.StatusBadRequest:
		loggerWithFields.Warn().Msg("Request failed with client error")
	default:
		loggerWithFields.Info().Msg("HTTP error")
	}
}

func logError(ectx *echo.Context, err error, logger *zerolog.Logger) {
	logger.Error().
		Err(err).
		Fields(requestFields(ectx)).
		Msg("Unhandled error")
}
