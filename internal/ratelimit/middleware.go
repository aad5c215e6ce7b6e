package ratelimit

import (
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/garagekit/parking-service/internal/config"
	apperrors "github.com/garagekit/parking-service/pkg/util/errorutil"
)

// Middleware limits requests per client IP and route. Limiter failures
// let the request through.
func Middleware(limiter Limiter, cfg config.RateLimitConfig, logger *zap.Logger) fiber.Handler {
	if !cfg.Enabled || limiter == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	return func(c *fiber.Ctx) error {
		key := buildKey(cfg.Prefix, c)
		decision, err := limiter.Allow(c.UserContext(), key)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
		c.Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))

		if !decision.Allowed {
			secs := int(math.Ceil(decision.RetryAfter.Seconds()))
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
			return apperrors.NewTooManyRequests("rate limit exceeded", map[string]any{"retryAfter": secs})
		}
		return c.Next()
	}
}

func buildKey(prefix string, c *fiber.Ctx) string {
	ip := c.IP()
	if ip == "" {
		ip = "unknown"
	}
	return strings.Join([]string{prefix, "ip", ip, "route", c.Method() + " " + c.Path()}, ":")
}
