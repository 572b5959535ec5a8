package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zola-pay/zola_pay/internal/funding"
)

// RegisterFundingRoutes wires deposit, withdrawal, and settlement endpoints.
func RegisterFundingRoutes(r fiber.Router, h *funding.Handler, limit fiber.Handler) {
	r.Post("/wallets/:walletId/deposits", limit, h.Deposit)
	r.Post("/wallets/:walletId/withdrawals", limit, h.Withdraw)
	r.Post("/withdrawals/:transactionId/settle", h.Settle)
}
