package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zola-pay/zola_pay/internal/payments"
)

// RegisterPaymentRoutes wires wallet-to-wallet transfer endpoints.
func RegisterPaymentRoutes(r fiber.Router, h *payments.Handler, limit fiber.Handler) {
	r.Post("/transfers", limit, h.Transfer)
}
