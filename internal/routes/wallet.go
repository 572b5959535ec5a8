package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zola-pay/zola_pay/internal/wallet"
)

// RegisterWalletRoutes wires wallet lifecycle endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Post("/wallets", h.Create)
	r.Get("/wallets/:walletId", h.Get)
	r.Get("/wallets/:walletId/balance", h.Balance)
	r.Post("/wallets/:walletId/suspend", h.Suspend)
	r.Post("/wallets/:walletId/activate", h.Activate)
}
