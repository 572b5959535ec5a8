package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/zola-pay/zola_pay/internal/logging"
)

func setupIdempotencyApp(t *testing.T) (*fiber.App, *atomic.Int64, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	var hits atomic.Int64
	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/deposits", func(c *fiber.Ctx) error {
		hits.Add(1)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"transaction_id": "tx-1"})
	})

	cleanup := func() {
		cache.Close()
		mr.Close()
	}
	return app, &hits, cleanup
}

type testResponse struct {
	code   int
	body   string
	replay string
}

func postDeposit(t *testing.T, app *fiber.App, key string) testResponse {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/deposits", strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(idempotencyKeyHeader, key)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return testResponse{code: resp.StatusCode, body: string(body), replay: resp.Header.Get(replayHeader)}
}

func TestIdempotencyReplaysCachedResponse(t *testing.T) {
	app, hits, cleanup := setupIdempotencyApp(t)
	defer cleanup()

	first := postDeposit(t, app, "K1")
	if first.code != fiber.StatusCreated {
		t.Fatalf("first request status = %d", first.code)
	}

	second := postDeposit(t, app, "K1")
	if second.code != fiber.StatusCreated {
		t.Fatalf("replay status = %d", second.code)
	}
	if second.body != first.body {
		t.Fatalf("replay body %q differs from original %q", second.body, first.body)
	}
	if second.replay != "true" {
		t.Fatal("replay must carry the replay marker header")
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("handler invoked %d times, want 1", got)
	}
}

func TestIdempotencyRetriesAfterFailure(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer cache.Close()

	// First attempt fails like an underfunded withdrawal; the retry succeeds.
	var hits atomic.Int64
	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/deposits", func(c *fiber.Ctx) error {
		if hits.Add(1) == 1 {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"code": "insufficient_balance"})
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"transaction_id": "tx-2"})
	})

	first := postDeposit(t, app, "K-retry")
	if first.code != fiber.StatusUnprocessableEntity {
		t.Fatalf("first attempt status = %d, want 422", first.code)
	}

	second := postDeposit(t, app, "K-retry")
	if second.code != fiber.StatusCreated {
		t.Fatalf("retry after failure status = %d, want 201 from the handler", second.code)
	}
	if second.replay == "true" {
		t.Fatal("a failed attempt must not be replayed from the cache")
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("handler invoked %d times, want 2", got)
	}

	// The successful outcome is what gets cached.
	third := postDeposit(t, app, "K-retry")
	if third.code != fiber.StatusCreated || third.replay != "true" {
		t.Fatalf("third request status = %d replay = %q, want cached 201", third.code, third.replay)
	}
	if got := hits.Load(); got != 2 {
		t.Fatalf("handler invoked %d times after replay, want 2", got)
	}
}

func TestIdempotencyPassesThroughWithoutHeader(t *testing.T) {
	app, hits, cleanup := setupIdempotencyApp(t)
	defer cleanup()

	postDeposit(t, app, "")
	postDeposit(t, app, "")

	// Key enforcement lives in the request body validation, not here.
	if got := hits.Load(); got != 2 {
		t.Fatalf("handler invoked %d times, want 2", got)
	}
}

func TestIdempotencyDistinctKeysDoNotCollide(t *testing.T) {
	app, hits, cleanup := setupIdempotencyApp(t)
	defer cleanup()

	postDeposit(t, app, "K-a")
	postDeposit(t, app, "K-b")

	if got := hits.Load(); got != 2 {
		t.Fatalf("handler invoked %d times, want 2", got)
	}
}
