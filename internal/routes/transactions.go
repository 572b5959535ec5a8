package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/zola-pay/zola_pay/internal/ledger"
	"github.com/zola-pay/zola_pay/internal/wallet"
)

type entryResponse struct {
	EntryID      string `json:"entry_id"`
	WalletID     string `json:"wallet_id"`
	AccountType  string `json:"account_type"`
	Debit        string `json:"debit"`
	Credit       string `json:"credit"`
	BalanceAfter string `json:"balance_after,omitempty"`
	Currency     string `json:"currency"`
	Description  string `json:"description,omitempty"`
}

// RegisterTransactionRoutes exposes the ledger entries behind a committed
// transaction, the raw double-entry view auditors work from.
func RegisterTransactionRoutes(r fiber.Router, store ledger.Store) {
	r.Get("/transactions/:transactionId/entries", func(c *fiber.Ctx) error {
		entries, err := store.EntriesByTransaction(c.UserContext(), c.Params("transactionId"))
		if err != nil {
			return wallet.ErrorResponse(c, err)
		}

		out := make([]entryResponse, 0, len(entries))
		for _, e := range entries {
			resp := entryResponse{
				EntryID:     e.ID,
				WalletID:    e.WalletID,
				AccountType: e.AccountType,
				Debit:       e.Debit.String(),
				Credit:      e.Credit.String(),
				Currency:    e.Currency,
				Description: e.Description,
			}
			if e.AccountType == ledger.AccountAsset {
				resp.BalanceAfter = e.BalanceAfter.String()
			}
			out = append(out, resp)
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"transaction_id": c.Params("transactionId"),
			"entries":        out,
		})
	})
}
