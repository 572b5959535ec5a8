package ledger

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Wallet statuses. A closed wallet is part of the status domain but no
// operation currently transitions a wallet into it; closure belongs to an
// external lifecycle process.
const (
	WalletActive    = "active"
	WalletSuspended = "suspended"
	WalletClosed    = "closed"
)

// Transaction kinds.
const (
	KindDeposit    = "deposit"
	KindWithdrawal = "withdrawal"
	KindTransfer   = "transfer"
)

// Transaction statuses. Deposits and transfers settle synchronously;
// withdrawals stay processing until the payout rail reports a terminal state.
const (
	StatusSucceeded  = "succeeded"
	StatusProcessing = "processing"
	StatusFailed     = "failed"
)

// Ledger entry account types. Asset entries move wallet balances; revenue and
// expense rows are counter-accounts that keep postings balanced.
const (
	AccountAsset   = "asset"
	AccountRevenue = "revenue"
	AccountExpense = "expense"
)

// DefaultMaxAmount is the per-operation amount ceiling applied when a store
// is built without an explicit limit.
var DefaultMaxAmount = decimal.NewFromInt(1_000_000)

// Wallet is a stored-value account. Balance always equals the sum of the
// wallet's committed asset entries (debits minus credits).
type Wallet struct {
	ID        string
	OwnerID   string
	Currency  string
	Balance   decimal.Decimal
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Transaction records one logical financial event against a wallet. Amount is
// positive for inbound movement and negative for the outbound leg of a
// transfer. IdempotencyKey is globally unique across all transactions.
type Transaction struct {
	ID             string
	OwnerID        string
	WalletID       string
	Kind           string
	Amount         decimal.Decimal
	Currency       string
	Status         string
	Description    string
	Metadata       map[string]string
	IdempotencyKey string
	SourceID       string
	DestinationID  string
	CreatedAt      time.Time
}

// Entry is a single debit or credit leg of a transaction. Exactly one of
// Debit and Credit is non-zero. BalanceAfter carries the wallet balance
// immediately after posting for asset rows and zero otherwise.
type Entry struct {
	ID            string
	TransactionID string
	WalletID      string
	AccountType   string
	Debit         decimal.Decimal
	Credit        decimal.Decimal
	BalanceAfter  decimal.Decimal
	Currency      string
	Description   string
}

// DepositInput carries everything needed to credit a wallet from an external
// funding source.
type DepositInput struct {
	WalletID       string
	OwnerID        string
	Amount         decimal.Decimal
	Currency       string
	Source         string
	SourceID       string
	IdempotencyKey string
	Description    string
	Metadata       map[string]string
}

// WithdrawInput carries everything needed to debit a wallet toward an
// external payout destination.
type WithdrawInput struct {
	WalletID       string
	OwnerID        string
	Amount         decimal.Decimal
	Currency       string
	Destination    string
	DestinationID  string
	IdempotencyKey string
	Description    string
	Metadata       map[string]string
}

// TransferInput moves funds between two wallets owned by different users.
type TransferInput struct {
	FromWalletID   string
	FromOwnerID    string
	ToWalletID     string
	Amount         decimal.Decimal
	Currency       string
	IdempotencyKey string
	Description    string
	Metadata       map[string]string
}

// TransferOutcome carries both legs of a committed transfer along with the
// post-commit balances observed inside the atomic unit.
type TransferOutcome struct {
	Outbound    Transaction
	Inbound     Transaction
	FromBalance decimal.Decimal
	ToBalance   decimal.Decimal
}

// Store is the ledger-backed wallet transaction engine. Every mutating
// operation is one atomic unit: it locks the affected wallet rows, validates
// the balance invariants under the lock, and commits the wallet delta, the
// transaction record, and the matched ledger entries together or not at all.
type Store interface {
	CreateWallet(ctx context.Context, ownerID, currency string, initialBalance decimal.Decimal) (Wallet, error)
	Wallet(ctx context.Context, walletID string) (Wallet, error)
	WalletByOwner(ctx context.Context, ownerID string) (Wallet, error)
	SetWalletStatus(ctx context.Context, walletID, status string) (Wallet, error)

	Deposit(ctx context.Context, input DepositInput) (Transaction, error)
	Withdraw(ctx context.Context, input WithdrawInput) (Transaction, error)
	Transfer(ctx context.Context, input TransferInput) (TransferOutcome, error)

	FindByIdempotencyKey(ctx context.Context, key string) (Transaction, bool, error)
	SettleWithdrawal(ctx context.Context, transactionID, status string) (Transaction, error)
	EntriesByTransaction(ctx context.Context, transactionID string) ([]Entry, error)
}

// receiverKeySuffix marks the inbound leg of a transfer. Caller-supplied keys
// must not end in it, so a derived key can never collide with one.
const receiverKeySuffix = ":received"

// ReceiverKey derives the idempotency key for the inbound leg of a transfer
// from the sender-supplied key. The derivation is deterministic so replaying
// the sender key replays both legs; the inbound leg is never created outside
// the sender's atomic unit.
func ReceiverKey(senderKey string) string {
	return senderKey + receiverKeySuffix
}

// MaxIdempotencyKeyLen bounds caller-supplied keys. Beyond the reserved
// suffix the format is opaque; uniqueness is the only contract.
const MaxIdempotencyKeyLen = 128

// ValidateIdempotencyKey rejects empty, oversized, or reserved keys before
// any work is attempted against the store.
func ValidateIdempotencyKey(key string) error {
	if key == "" {
		return Validation("idempotency key is required")
	}
	if len(key) > MaxIdempotencyKeyLen {
		return Validation("idempotency key exceeds %d characters", MaxIdempotencyKeyLen)
	}
	if strings.HasSuffix(key, receiverKeySuffix) {
		return Validation("idempotency key suffix %q is reserved", receiverKeySuffix)
	}
	return nil
}

func validCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// validateAmount enforces the shared amount shape: strictly positive, at most
// two fractional digits, and at or below the configured ceiling.
func validateAmount(amount, ceiling decimal.Decimal) error {
	if !amount.IsPositive() {
		return Validation("amount must be positive")
	}
	// Round-trip comparison instead of inspecting the exponent, so trailing
	// zeros like 10.100 stay valid.
	if !amount.Equal(amount.Round(2)) {
		return Validation("amount must have at most 2 fractional digits")
	}
	if amount.GreaterThan(ceiling) {
		return Validation("amount exceeds the per-operation ceiling of %s", ceiling.String())
	}
	return nil
}

func validateMutation(amount decimal.Decimal, currency string, ceiling decimal.Decimal) error {
	if err := validateAmount(amount, ceiling); err != nil {
		return err
	}
	if !validCurrency(currency) {
		return Validation("currency must be a 3-letter ISO 4217 code")
	}
	return nil
}
