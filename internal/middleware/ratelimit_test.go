package middleware

import (
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func setupRateLimitApp(t *testing.T, perMinute int) (*fiber.App, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	app := fiber.New()
	app.Post("/wallets/:walletId/withdrawals", RateLimit(cache, "withdraw", perMinute), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	cleanup := func() {
		cache.Close()
		mr.Close()
	}
	return app, cleanup
}

func TestRateLimitBlocksAfterBudget(t *testing.T) {
	app, cleanup := setupRateLimitApp(t, 3)
	defer cleanup()

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/wallets/w1/withdrawals", nil))
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		if resp.StatusCode != fiber.StatusCreated {
			t.Fatalf("request %d status = %d", i, resp.StatusCode)
		}
	}

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/wallets/w1/withdrawals", nil))
	if err != nil {
		t.Fatalf("over-budget request: %v", err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("over-budget status = %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Fatal("throttled response must carry Retry-After")
	}
}

func TestRateLimitBucketsByWallet(t *testing.T) {
	app, cleanup := setupRateLimitApp(t, 1)
	defer cleanup()

	if resp, _ := app.Test(httptest.NewRequest(fiber.MethodPost, "/wallets/w1/withdrawals", nil)); resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("w1 first request status = %d", resp.StatusCode)
	}
	if resp, _ := app.Test(httptest.NewRequest(fiber.MethodPost, "/wallets/w2/withdrawals", nil)); resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("w2 must have its own bucket, status = %d", resp.StatusCode)
	}
	if resp, _ := app.Test(httptest.NewRequest(fiber.MethodPost, "/wallets/w1/withdrawals", nil)); resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("w1 second request status = %d, want 429", resp.StatusCode)
	}
}
