package funding

// DepositRequest captures user-provided data to fund a wallet from an
// external source. Amount travels as a decimal string to avoid float loss.
type DepositRequest struct {
	OwnerID        string            `json:"owner_id"`
	Amount         string            `json:"amount"`
	Currency       string            `json:"currency"`
	Source         string            `json:"source"`
	SourceID       string            `json:"source_id"`
	IdempotencyKey string            `json:"idempotency_key"`
	Description    string            `json:"description"`
	Metadata       map[string]string `json:"metadata"`
}

// WithdrawRequest captures payout details toward an external destination.
type WithdrawRequest struct {
	OwnerID        string            `json:"owner_id"`
	Amount         string            `json:"amount"`
	Currency       string            `json:"currency"`
	Destination    string            `json:"destination"`
	DestinationID  string            `json:"destination_id"`
	IdempotencyKey string            `json:"idempotency_key"`
	Description    string            `json:"description"`
	Metadata       map[string]string `json:"metadata"`
}

// SettleRequest carries the payout rail's terminal verdict.
type SettleRequest struct {
	Status  string `json:"status"`
	ActorID string `json:"actor_id"`
}

// TransactionResponse is the API shape of a committed transaction.
type TransactionResponse struct {
	TransactionID string `json:"transaction_id"`
	WalletID      string `json:"wallet_id"`
	Kind          string `json:"kind"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Status        string `json:"status"`
	WalletBalance string `json:"wallet_balance,omitempty"`
}
