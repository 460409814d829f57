package middleware

import (
	"context"

	"github.com/labstack/echo/v5"
)

const (
	ContextKeyRequestID string = "requestID"
	ContextKeyBody      string = "body"
	ContextKeyHandler   string = "handler"
)

const (
	HeaderXRequestID = "X-Request-ID"
)

type requestIDContextKey struct{}

// RequestIDContextKey is the context.Context key the request ID is stored
// under. Pass it to apiclient.WithRequestIDKey to forward the ID upstream.
var RequestIDContextKey any = requestIDContextKey{} //nolint:gochecknoglobals

func GetRequestID(c *echo.Context) string {
	if requestID, ok := c.Get(ContextKeyRequestID).(string); ok {
		return requestID
	}

	return ""
}

func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDContextKey).(string); ok {
		return requestID
	}

	return ""
}

func GetHandler(c *echo.Context) string {
	if handler, ok := c.Get(ContextKeyHandler).(string); ok {
		return handler
	}

	return ""
}

// Handler tags the route so that logs and error responses can name it.
func Handler(name string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx *echo.Context) error {
			ctx.Set(ContextKeyHandler, name)

			return next(ctx)
		}
	}
}
