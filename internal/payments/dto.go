package payments

// TransferRequest captures a wallet-to-wallet transfer addressed by the
// receiving owner. Amount travels as a decimal string to avoid float loss.
type TransferRequest struct {
	FromWalletID   string            `json:"from_wallet_id"`
	FromOwnerID    string            `json:"from_owner_id"`
	ToOwnerID      string            `json:"to_owner_id"`
	Amount         string            `json:"amount"`
	Currency       string            `json:"currency"`
	IdempotencyKey string            `json:"idempotency_key"`
	Description    string            `json:"description"`
	Metadata       map[string]string `json:"metadata"`
}

// TransferResponse reports both committed legs and the resulting balances.
type TransferResponse struct {
	OutboundTransactionID string `json:"outbound_transaction_id"`
	InboundTransactionID  string `json:"inbound_transaction_id"`
	FromWalletID          string `json:"from_wallet_id"`
	ToWalletID            string `json:"to_wallet_id"`
	Amount                string `json:"amount"`
	Currency              string `json:"currency"`
	Status                string `json:"status"`
	FromBalance           string `json:"from_balance"`
	ToBalance             string `json:"to_balance"`
}
