package middleware

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimit caps how many requests a single caller may issue per minute for a
// given action. Callers are bucketed by the walletId route parameter when one
// is present, falling back to client IP. Cache outages fail open: blocking
// legitimate money movement is worse than letting a burst through.
func RateLimit(cache *redis.Client, action string, perMinute int) fiber.Handler {
	if perMinute <= 0 {
		perMinute = 60
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next()
		}
		caller := c.Params("walletId")
		if caller == "" {
			caller = c.IP()
		}
		key := "rl:" + action + ":" + caller

		count, err := cache.Incr(c.UserContext(), key).Result()
		if err != nil {
			return c.Next()
		}
		if count == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		if count > int64(perMinute) {
			c.Set("Retry-After", "60")
			return fiber.NewError(http.StatusTooManyRequests, "rate limit exceeded, try again later")
		}
		return c.Next()
	}
}
