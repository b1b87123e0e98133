package ratelimit

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Limiter is satisfied by SlidingWindowLimiter.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
	Limit() int
}

// CodeRateLimited is the error code of a throttled request.
const CodeRateLimited = "RATE_LIMIT_EXCEEDED"

// IPRateLimit returns Fiber middleware limiting requests per client IP.
// Requests are let through when the limiter itself fails.
func IPRateLimit(limiter Limiter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		if ip == "" {
			ip = "unknown"
		}

		result, err := limiter.Allow(c.UserContext(), ip)
		if err != nil {
			c.Set("X-RateLimit-Error", "unavailable")
			return c.Next()
		}

		setRateLimitHeaders(c, result, limiter.Limit())
		if !result.Allowed {
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
	c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfter))

	body := fiber.Map{
		"error": fiber.Map{
			"code":    CodeRateLimited,
			"message": fmt.Sprintf("Rate limit exceeded. Please retry after %d seconds.", retryAfter),
			"details": fiber.Map{"retry_after": retryAfter},
		},
	}
	if id, ok := c.Locals("requestid").(string); ok && id != "" {
		body["request_id"] = id
	}
	return c.Status(fiber.StatusTooManyRequests).JSON(body)
}
