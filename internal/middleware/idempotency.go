package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	// IdempotencyKeyHeader identifies a transfer attempt across retries. A
	// client retrying a transfer with the same key receives the stored
	// outcome instead of running a second saga against the ledger.
	IdempotencyKeyHeader = "Idempotency-Key"

	idempotencyPrefix = "transfer:idempotency:"
	inFlightMarker    = "__in_flight__"
	storeTimeout      = 2 * time.Second
)

type cachedOutcome struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        string `json:"body"`
}

// Idempotency replays the stored response for repeated unsafe requests
// carrying the same Idempotency-Key. The double-debit risk of a retried
// transfer is exactly the race the saga itself cannot guard against, so the
// guard sits in front of it.
func Idempotency(cache *redis.Client, ttl time.Duration, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}

		key := c.Get(IdempotencyKeyHeader)
		if key == "" {
			return fiber.NewError(fiber.StatusBadRequest, "missing Idempotency-Key header")
		}
		cacheKey := idempotencyPrefix + key

		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		stored, err := cache.Get(ctx, cacheKey).Result()
		switch {
		case err == nil && stored == inFlightMarker:
			return fiber.NewError(fiber.StatusConflict, "duplicate request currently processing")
		case err == nil:
			var outcome cachedOutcome
			if err := json.Unmarshal([]byte(stored), &outcome); err != nil {
				logger.Warn("decode stored outcome", "key", key, "error", err)
				return fiber.NewError(fiber.StatusConflict, "duplicate request")
			}
			c.Set(fiber.HeaderContentType, outcome.ContentType)
			return c.Status(outcome.Status).SendString(outcome.Body)
		case err != redis.Nil:
			logger.Error("idempotency lookup failed", "key", key, "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency store failure")
		}

		if err := cache.SetNX(ctx, cacheKey, inFlightMarker, ttl).Err(); err != nil {
			logger.Error("idempotency reservation failed", "key", key, "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency store failure")
		}

		if err := c.Next(); err != nil {
			release(cache, cacheKey)
			return err
		}

		outcome := cachedOutcome{
			Status:      c.Response().StatusCode(),
			ContentType: string(c.Response().Header.ContentType()),
			Body:        string(c.Response().Body()),
		}
		payload, err := json.Marshal(outcome)
		if err != nil {
			logger.Error("encode outcome", "key", key, "error", err)
			release(cache, cacheKey)
			return nil
		}

		persistCtx, persistCancel := context.WithTimeout(context.Background(), storeTimeout)
		defer persistCancel()
		if err := cache.Set(persistCtx, cacheKey, payload, ttl).Err(); err != nil {
			logger.Error("persist outcome", "key", key, "error", err)
			release(cache, cacheKey)
		}

		return nil
	}
}

func release(cache *redis.Client, cacheKey string) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	cache.Del(ctx, cacheKey)
}
