package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/zola-pay/zola_pay/internal/audit"
	"github.com/zola-pay/zola_pay/internal/config"
	"github.com/zola-pay/zola_pay/internal/funding"
	"github.com/zola-pay/zola_pay/internal/ledger"
	"github.com/zola-pay/zola_pay/internal/middleware"
	"github.com/zola-pay/zola_pay/internal/notification"
	"github.com/zola-pay/zola_pay/internal/payments"
	"github.com/zola-pay/zola_pay/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. Without a database
// the engine falls back to the in-memory store, which is only acceptable in
// development; config.Load enforces that.
func Setup(app *fiber.App, d Deps) error {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.AccessLog(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	var store ledger.Store
	if d.DB != nil {
		store = ledger.NewPostgresStore(d.DB, d.Cfg.MaxAmount)
	} else {
		store = ledger.NewInMemory(d.Cfg.MaxAmount)
	}

	sink := audit.NewLoggerSink(d.Logger)
	notifier := notification.NewLoggerNotifier(d.Logger)

	walletHandler := wallet.NewHandler(wallet.NewService(store, sink, d.Cfg.DefaultCurrency))
	fundingHandler := funding.NewHandler(funding.NewService(store, sink))
	paymentHandler := payments.NewHandler(payments.NewService(store, sink, notifier))

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	moneyLimit := middleware.RateLimit(d.Cache, "money", d.Cfg.RatePerMinute)

	RegisterWalletRoutes(api, walletHandler)
	RegisterFundingRoutes(api, fundingHandler, moneyLimit)
	RegisterPaymentRoutes(api, paymentHandler, moneyLimit)
	RegisterTransactionRoutes(api, store)

	return nil
}
