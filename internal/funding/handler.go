package funding

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/zola-pay/zola_pay/internal/wallet"
)

// Handler exposes HTTP endpoints for deposits and withdrawals.
type Handler struct {
	service *Service
}

// NewHandler constructs a funding handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Deposit processes a wallet top-up.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	walletID := c.Params("walletId")
	var req DepositRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "amount must be a decimal string")
	}

	result, err := h.service.Deposit(c.UserContext(), DepositInput{
		WalletID:       walletID,
		OwnerID:        req.OwnerID,
		Amount:         amount,
		Currency:       req.Currency,
		Source:         req.Source,
		SourceID:       req.SourceID,
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
	return c.Status(status).JSON(toTransactionResponse(result))
}

// Withdraw processes a payout toward an external destination.
func (h *Handler) Withdraw(c *fiber.Ctx) error {
	walletID := c.Params("walletId")
	var req WithdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "amount must be a decimal string")
	}

	result, err := h.service.Withdraw(c.UserContext(), WithdrawInput{
		WalletID:       walletID,
		OwnerID:        req.OwnerID,
		Amount:         amount,
		Currency:       req.Currency,
		Destination:    req.Destination,
		DestinationID:  req.DestinationID,
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
	return c.Status(status).JSON(toTransactionResponse(result))
}

// Settle records the payout rail's terminal verdict for a withdrawal.
func (h *Handler) Settle(c *fiber.Ctx) error {
	var req SettleRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	txn, err := h.service.Settle(c.UserContext(), c.Params("transactionId"), req.Status, req.ActorID)
	if err != nil {
		return wallet.ErrorResponse(c, err)
	}
	return c.Status(http.StatusOK).JSON(TransactionResponse{
		TransactionID: txn.ID,
		WalletID:      txn.WalletID,
		Kind:          txn.Kind,
		Amount:        txn.Amount.String(),
		Currency:      txn.Currency,
		Status:        txn.Status,
	})
}

func toTransactionResponse(result Result) TransactionResponse {
	txn := result.Transaction
	return TransactionResponse{
		TransactionID: txn.ID,
		WalletID:      txn.WalletID,
		Kind:          txn.Kind,
		Amount:        txn.Amount.String(),
		Currency:      txn.Currency,
		Status:        txn.Status,
		WalletBalance: result.WalletBalance.String(),
	}
}
