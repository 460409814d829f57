package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v5"
	"golang.org/x/time/rate"
)

// RateLimit rejects requests once limiter has no tokens left. A nil limiter
// disables the check.
func RateLimit(limiter *rate.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx *echo.Context) error {
			if limiter == nil {
				return next(ctx)
			}

			reservation := limiter.Reserve()
			if !reservation.OK() {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			if delay := reservation.Delay(); delay > 0 {
				reservation.Cancel()

				retryAfter := int(delay.Round(time.Second) / time.Second)
				if retryAfter < 1 {
					retryAfter = 1
				}

				ctx.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))

				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			return next(ctx)
		}
	}
}
