package ratelimit

import (
	"fmt"
	"strconv"

	"github.com/example/todo-app/metrics"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Middleware limits requests per client IP.
type Middleware struct {
	limiter *SlidingWindowLimiter
	metrics *metrics.PromMetrics
	logger  *zap.Logger
}

func NewMiddleware(limiter *SlidingWindowLimiter, m *metrics.PromMetrics, logger *zap.Logger) *Middleware {
	return &Middleware{
		limiter: limiter,
		metrics: m,
		logger:  logger,
	}
}

// IPRateLimit returns middleware that limits requests by client IP. Redis
// errors let the request through.
func (m *Middleware) IPRateLimit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		if ip == "" {
			// Fail closed: reject requests when IP cannot be determined
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "forbidden",
				"message": "Unable to determine client IP address",
			})
		}

		result, err := m.limiter.Allow(c.UserContext(), ip)
		if err != nil {
			m.logger.Warn("rate limit check failed", zap.String("ip", ip), zap.Error(err))
			return c.Next()
		}

		setRateLimitHeaders(c, result, m.limiter.Limit().RequestsPerWindow)

		if !result.Allowed {
			m.metrics.RateLimited()
			return sendRateLimitExceeded(c, result)
		}
		return c.Next()
	}
}

func setRateLimitHeaders(c *fiber.Ctx, result *Result, limit int) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func sendRateLimitExceeded(c *fiber.Ctx, result *Result) error {
	retryAfter := int(result.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	c.Set("Retry-After", strconv.Itoa(retryAfter))

	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"error":       "rate_limited",
		"message":     fmt.Sprintf("Rate limit exceeded. Please retry after %d seconds.", retryAfter),
		"retry_after": retryAfter,
	})
}
