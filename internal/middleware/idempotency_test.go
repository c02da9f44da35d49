package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/fluxpay/transfer-service/internal/logging"
)

func setupIdempotentApp(t *testing.T) (*fiber.App, *miniredis.Miniredis, *atomic.Int32) {
	t.Helper()

	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	var hits atomic.Int32
	app := fiber.New()
	app.Use(Idempotency(cache, time.Hour, logging.Discard()))
	app.Post("/transfers", func(c *fiber.Ctx) error {
		n := hits.Add(1)
		return c.JSON(fiber.Map{"attempt": n})
	})

	return app, mr, &hits
}

func request(t *testing.T, app *fiber.App, key string) (*http.Response, string) {
	t.Helper()

	req := httptest.NewRequest(fiber.MethodPost, "/transfers", strings.NewReader(`{}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}

	rsp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body, err := io.ReadAll(rsp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	rsp.Body.Close()
	return rsp, string(body)
}

func TestIdempotencyReplaysStoredOutcome(t *testing.T) {
	app, _, hits := setupIdempotentApp(t)

	first, firstBody := request(t, app, "key-1")
	if first.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", first.StatusCode)
	}

	second, secondBody := request(t, app, "key-1")
	if second.StatusCode != http.StatusOK {
		t.Fatalf("expected replayed 200, got %d", second.StatusCode)
	}
	if secondBody != firstBody {
		t.Fatalf("replay must return the stored body: %q vs %q", secondBody, firstBody)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("handler must run once, ran %d times", got)
	}
}

func TestIdempotencyDistinctKeysRunIndependently(t *testing.T) {
	app, _, hits := setupIdempotentApp(t)

	request(t, app, "key-1")
	request(t, app, "key-2")

	if got := hits.Load(); got != 2 {
		t.Fatalf("distinct keys must each run the handler, ran %d times", got)
	}
}

func TestIdempotencyRequiresKey(t *testing.T) {
	app, _, hits := setupIdempotentApp(t)

	rsp, _ := request(t, app, "")
	if rsp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without a key, got %d", rsp.StatusCode)
	}
	if got := hits.Load(); got != 0 {
		t.Fatalf("handler must not run without a key, ran %d times", got)
	}
}

func TestIdempotencyInFlightConflict(t *testing.T) {
	app, mr, _ := setupIdempotentApp(t)

	// A crashed or still-running attempt leaves the in-flight marker behind.
	mr.Set(idempotencyPrefix+"key-1", inFlightMarker)

	rsp, _ := request(t, app, "key-1")
	if rsp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 while the first attempt is in flight, got %d", rsp.StatusCode)
	}
}

func TestIdempotencySkipsSafeMethods(t *testing.T) {
	app, _, _ := setupIdempotentApp(t)
	app.Get("/transfers/t1", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	req := httptest.NewRequest(fiber.MethodGet, "/transfers/t1", nil)
	rsp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer rsp.Body.Close()
	if rsp.StatusCode != http.StatusOK {
		t.Fatalf("GET must bypass the guard, got %d", rsp.StatusCode)
	}
}
