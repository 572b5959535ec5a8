package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/zola-pay/zola_pay/internal/ledger"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	OwnerID        string `json:"owner_id"`
	Currency       string `json:"currency"`
	InitialBalance string `json:"initial_balance"`
}

type suspendRequest struct {
	ActorID string `json:"actor_id"`
	Reason  string `json:"reason"`
}

type activateRequest struct {
	ActorID string `json:"actor_id"`
}

type walletResponse struct {
	ID       string `json:"id"`
	OwnerID  string `json:"owner_id"`
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
	Status   string `json:"status"`
}

func toResponse(w ledger.Wallet) walletResponse {
	return walletResponse{
		ID:       w.ID,
		OwnerID:  w.OwnerID,
		Currency: w.Currency,
		Balance:  w.Balance.String(),
		Status:   w.Status,
	}
}

// Create provisions a wallet for the given owner.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	initial := decimal.Zero
	if req.InitialBalance != "" {
		parsed, err := decimal.NewFromString(req.InitialBalance)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "initial_balance must be a decimal string")
		}
		initial = parsed
	}

	w, err := h.service.Create(c.UserContext(), CreateInput{
		OwnerID:        req.OwnerID,
		Currency:       req.Currency,
		InitialBalance: initial,
	})
	if err != nil {
		return ErrorResponse(c, err)
	}
	return c.Status(http.StatusCreated).JSON(toResponse(w))
}

// Get returns wallet metadata.
func (h *Handler) Get(c *fiber.Ctx) error {
	w, err := h.service.Get(c.UserContext(), c.Params("walletId"))
	if err != nil {
		return ErrorResponse(c, err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(w))
}

// Balance returns the wallet balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	balance, err := h.service.Balance(c.UserContext(), c.Params("walletId"))
	if err != nil {
		return ErrorResponse(c, err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"wallet_id": balance.WalletID,
		"balance":   balance.Amount.String(),
		"currency":  balance.Currency,
		"status":    balance.Status,
		"timestamp": balance.AsOf,
	})
}

// Suspend freezes a wallet.
func (h *Handler) Suspend(c *fiber.Ctx) error {
	var req suspendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	w, err := h.service.Suspend(c.UserContext(), c.Params("walletId"), req.ActorID, req.Reason)
	if err != nil {
		return ErrorResponse(c, err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(w))
}

// Activate unfreezes a wallet.
func (h *Handler) Activate(c *fiber.Ctx) error {
	var req activateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	w, err := h.service.Activate(c.UserContext(), c.Params("walletId"), req.ActorID)
	if err != nil {
		return ErrorResponse(c, err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(w))
}

// ErrorResponse maps ledger error kinds to HTTP statuses with a stable error
// code and structured context for the client.
func ErrorResponse(c *fiber.Ctx, err error) error {
	kind := ledger.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case ledger.KindValidation:
		status = http.StatusBadRequest
	case ledger.KindNotFound:
		status = http.StatusNotFound
	case ledger.KindForbidden:
		status = http.StatusForbidden
	case ledger.KindConflict:
		status = http.StatusConflict
	case ledger.KindWalletSuspended, ledger.KindInsufficientBalance:
		status = http.StatusUnprocessableEntity
	}

	body := fiber.Map{"code": string(kind), "message": err.Error()}
	var le *ledger.Error
	if errors.As(err, &le) && kind == ledger.KindInsufficientBalance {
		body["available"] = le.Available.String()
		body["requested"] = le.Requested.String()
	}
	return c.Status(status).JSON(fiber.Map{"error": body})
}
