package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/fluxpay/transfer-service/internal/config"
	"github.com/fluxpay/transfer-service/internal/history"
	"github.com/fluxpay/transfer-service/internal/ledger"
	"github.com/fluxpay/transfer-service/internal/middleware"
	"github.com/fluxpay/transfer-service/internal/notification"
	"github.com/fluxpay/transfer-service/internal/rates"
	"github.com/fluxpay/transfer-service/internal/transfer"
)

// Deps aggregates shared dependencies required to wire routes. DB and Cache
// may be nil; the service then keeps history in memory and runs without the
// idempotency guard.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	ledgerClient := ledger.NewHTTPClient(d.Cfg.LedgerURL, d.Cfg.HTTPTimeout)
	rateClient := rates.NewHTTPClient(d.Cfg.RateURL, d.Cfg.RateAccessKey, d.Cfg.HTTPTimeout, d.Logger)

	var records history.Repository
	if d.DB != nil {
		records = history.NewPostgresRepository(d.DB)
	} else {
		records = history.NewMemoryRepository()
	}

	RegisterHealthRoutes(app, d, ledgerClient)

	fees := transfer.NewFeeCalculator(d.Cfg.FeePercent)
	notifier := notification.NewLoggerNotifier(d.Logger)
	transferSvc := transfer.NewService(ledgerClient, rateClient, records, fees, notifier, d.Logger)
	transferHandler := transfer.NewHandler(transferSvc, records)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals(middleware.RequestIDHeader).(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterTransferRoutes(api, transferHandler)

	return nil
}
