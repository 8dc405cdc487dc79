package middleware

import (
	"log"
	"math"
	"strconv"

	"github.com/labstack/echo/v4"

	"tailorchat/internal/infrastructure/ratelimit"
	"tailorchat/pkg/errors"
	"tailorchat/pkg/response"
)

// RateLimit throttles requests per authenticated user, falling back to the client IP
// for anonymous routes.
func RateLimit(limiter *ratelimit.RateLimiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, ok := c.Get(ContextUserID).(string)
			if !ok || key == "" {
				key = "ip:" + c.RealIP()
			}

			allowed, wait := limiter.Allow(key, ratelimit.ActionHTTP)
			if !allowed {
				retryAfter := int(math.Ceil(wait.Seconds()))
				log.Printf("RATE LIMIT: Blocked request from %s (retry in %ds)", key, retryAfter)
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				return response.Error(c, errors.TooManyRequests("Rate limit exceeded").
					WithDetails(map[string]int{"retry_after": retryAfter}))
			}

			return next(c)
		}
	}
}
