package middleware

import (
	"fmt"
	"net/http"
	"time"

	"reqgather/internal/caching"

	"github.com/labstack/echo/v4"
)

// LoginRateLimit throttles credential attempts per client IP and email so a
// single caller cannot brute-force the login endpoint.
func LoginRateLimit(cache caching.CacheService, limit int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := fmt.Sprintf("login:%s", c.RealIP())
			limited, err := cache.IsRateLimited(c.Request().Context(), key, limit, window)
			if err != nil {
				// Redis being down must not lock everyone out.
				c.Logger().Warnf("rate limit check failed: %v", err)
				return next(c)
			}
			if limited {
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many login attempts, please try again later")
			}
			return next(c)
		}
	}
}
