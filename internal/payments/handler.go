package payments

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/zola-pay/zola_pay/internal/wallet"
)

// Handler exposes the HTTP endpoint for wallet-to-wallet transfers.
type Handler struct {
	service *Service
}

// NewHandler constructs a payments handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Transfer moves funds between two wallets as one atomic unit.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "amount must be a decimal string")
	}

	result, err := h.service.Transfer(c.UserContext(), TransferInput{
		FromWalletID:   req.FromWalletID,
		FromOwnerID:    req.FromOwnerID,
		ToOwnerID:      req.ToOwnerID,
		Amount:         amount,
		Currency:       req.Currency,
		IdempotencyKey: req.IdempotencyKey,
		Description:    req.Description,
		Metadata:       req.Metadata,
	})
	if err != nil {
		return wallet.ErrorResponse(c, err)
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	return c.Status(status).JSON(TransferResponse{
		OutboundTransactionID: result.Outbound.ID,
		InboundTransactionID:  result.Inbound.ID,
		FromWalletID:          result.Outbound.WalletID,
		ToWalletID:            result.Inbound.WalletID,
		Amount:                result.Inbound.Amount.String(),
		Currency:              result.Outbound.Currency,
		Status:                result.Outbound.Status,
		FromBalance:           result.FromBalance.String(),
		ToBalance:             result.ToBalance.String(),
	})
}
