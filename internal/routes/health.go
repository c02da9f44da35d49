package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fluxpay/transfer-service/internal/ledger"
)

// RegisterHealthRoutes adds liveness/readiness style endpoints. The ledger
// service is this service's hard dependency, so its reachability is part of
// readiness.
func RegisterHealthRoutes(app *fiber.App, d Deps, ledgerClient ledger.Client) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		ledgerStatus := "ok"
		dbStatus := "ok"
		redisStatus := "ok"

		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		if _, err := ledgerClient.ListWallets(ctx); err != nil {
			ledgerStatus = err.Error()
		}
		if d.DB != nil {
			if err := d.DB.Ping(ctx); err != nil {
				dbStatus = err.Error()
			}
		}
		if d.Cache != nil {
			if err := d.Cache.Ping(ctx).Err(); err != nil {
				redisStatus = err.Error()
			}
		}

		status := http.StatusOK
		if ledgerStatus != "ok" || dbStatus != "ok" || redisStatus != "ok" {
			status = http.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"status":    fiber.Map{"ledger": ledgerStatus, "postgres": dbStatus, "redis": redisStatus},
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}
