package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memoryStore is a concurrency-safe in-memory engine with the same semantics
// as the Postgres store. A single mutex stands in for row locks: every
// mutation validates and writes while holding it, so balance checks never
// observe a stale value.
type memoryStore struct {
	mu        sync.RWMutex
	maxAmount decimal.Decimal
	wallets   map[string]Wallet
	byOwner   map[string]string
	byKey     map[string]Transaction
	byID      map[string]Transaction
	entries   []Entry
}

// NewInMemory creates an in-memory store useful for unit tests. A zero
// maxAmount selects DefaultMaxAmount.
func NewInMemory(maxAmount decimal.Decimal) Store {
	if maxAmount.IsZero() {
		maxAmount = DefaultMaxAmount
	}
	return &memoryStore{
		maxAmount: maxAmount,
		wallets:   make(map[string]Wallet),
		byOwner:   make(map[string]string),
		byKey:     make(map[string]Transaction),
		byID:      make(map[string]Transaction),
	}
}

func (s *memoryStore) CreateWallet(_ context.Context, ownerID, currency string, initialBalance decimal.Decimal) (Wallet, error) {
	if _, err := uuid.Parse(ownerID); err != nil {
		return Wallet{}, Validation("owner id must be a UUID")
	}
	if !validCurrency(currency) {
		return Wallet{}, Validation("currency must be a 3-letter ISO 4217 code")
	}
	if initialBalance.IsNegative() {
		return Wallet{}, Validation("initial balance must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byOwner[ownerID]; exists {
		return Wallet{}, Conflict("owner %s already has a wallet", ownerID)
	}

	now := time.Now().UTC()
	w := Wallet{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Currency:  currency,
		Balance:   initialBalance,
		Status:    WalletActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.wallets[w.ID] = w
	s.byOwner[ownerID] = w.ID
	return w, nil
}

func (s *memoryStore) Wallet(_ context.Context, walletID string) (Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[walletID]
	if !ok {
		return Wallet{}, NotFound("wallet %s not found", walletID)
	}
	return w, nil
}

func (s *memoryStore) WalletByOwner(_ context.Context, ownerID string) (Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byOwner[ownerID]
	if !ok {
		return Wallet{}, NotFound("owner %s has no wallet", ownerID)
	}
	return s.wallets[id], nil
}

func (s *memoryStore) SetWalletStatus(_ context.Context, walletID, status string) (Wallet, error) {
	if status != WalletActive && status != WalletSuspended {
		return Wallet{}, Validation("status must be %s or %s", WalletActive, WalletSuspended)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wallets[walletID]
	if !ok {
		return Wallet{}, NotFound("wallet %s not found", walletID)
	}
	if w.Status == WalletClosed {
		return Wallet{}, Conflict("wallet %s is closed", walletID)
	}
	if w.Status != status {
		w.Status = status
		w.UpdatedAt = time.Now().UTC()
		s.wallets[walletID] = w
	}
	return w, nil
}

func (s *memoryStore) FindByIdempotencyKey(_ context.Context, key string) (Transaction, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	txn, ok := s.byKey[key]
	return txn, ok, nil
}

func (s *memoryStore) Deposit(_ context.Context, input DepositInput) (Transaction, error) {
	if err := ValidateIdempotencyKey(input.IdempotencyKey); err != nil {
		return Transaction{}, err
	}
	if err := validateMutation(input.Amount, input.Currency, s.maxAmount); err != nil {
		return Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prior, ok := s.byKey[input.IdempotencyKey]; ok {
		return prior, nil
	}

	w, ok := s.wallets[input.WalletID]
	if !ok {
		return Transaction{}, NotFound("wallet %s not found", input.WalletID)
	}
	if err := checkMutable(w, input.OwnerID, input.Currency); err != nil {
		return Transaction{}, err
	}

	newBalance := w.Balance.Add(input.Amount)
	txn := Transaction{
		ID:             uuid.NewString(),
		OwnerID:        input.OwnerID,
		WalletID:       w.ID,
		Kind:           KindDeposit,
		Amount:         input.Amount,
		Currency:       input.Currency,
		Status:         StatusSucceeded,
		Description:    input.Description,
		Metadata:       input.Metadata,
		IdempotencyKey: input.IdempotencyKey,
		SourceID:       input.SourceID,
		CreatedAt:      time.Now().UTC(),
	}
	s.commitBalance(w, newBalance)
	s.commitTransaction(txn,
		Entry{TransactionID: txn.ID, WalletID: w.ID, AccountType: AccountAsset, Debit: input.Amount, BalanceAfter: newBalance, Currency: input.Currency, Description: input.Description},
		Entry{TransactionID: txn.ID, WalletID: w.ID, AccountType: AccountRevenue, Credit: input.Amount, Currency: input.Currency, Description: input.Description},
	)
	return txn, nil
}

func (s *memoryStore) Withdraw(_ context.Context, input WithdrawInput) (Transaction, error) {
	if err := ValidateIdempotencyKey(input.IdempotencyKey); err != nil {
		return Transaction{}, err
	}
	if err := validateMutation(input.Amount, input.Currency, s.maxAmount); err != nil {
		return Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prior, ok := s.byKey[input.IdempotencyKey]; ok {
		return prior, nil
	}

	w, ok := s.wallets[input.WalletID]
	if !ok {
		return Transaction{}, NotFound("wallet %s not found", input.WalletID)
	}
	if err := checkMutable(w, input.OwnerID, input.Currency); err != nil {
		return Transaction{}, err
	}
	if w.Balance.LessThan(input.Amount) {
		return Transaction{}, InsufficientBalance(w.Balance, input.Amount)
	}

	newBalance := w.Balance.Sub(input.Amount)
	txn := Transaction{
		ID:             uuid.NewString(),
		OwnerID:        input.OwnerID,
		WalletID:       w.ID,
		Kind:           KindWithdrawal,
		Amount:         input.Amount,
		Currency:       input.Currency,
		Status:         StatusProcessing,
		Description:    input.Description,
		Metadata:       input.Metadata,
		IdempotencyKey: input.IdempotencyKey,
		DestinationID:  input.DestinationID,
		CreatedAt:      time.Now().UTC(),
	}
	s.commitBalance(w, newBalance)
	s.commitTransaction(txn,
		Entry{TransactionID: txn.ID, WalletID: w.ID, AccountType: AccountExpense, Debit: input.Amount, Currency: input.Currency, Description: input.Description},
		Entry{TransactionID: txn.ID, WalletID: w.ID, AccountType: AccountAsset, Credit: input.Amount, BalanceAfter: newBalance, Currency: input.Currency, Description: input.Description},
	)
	return txn, nil
}

func (s *memoryStore) Transfer(_ context.Context, input TransferInput) (TransferOutcome, error) {
	if err := ValidateIdempotencyKey(input.IdempotencyKey); err != nil {
		return TransferOutcome{}, err
	}
	if err := validateMutation(input.Amount, input.Currency, s.maxAmount); err != nil {
		return TransferOutcome{}, err
	}
	if input.FromWalletID == input.ToWalletID {
		return TransferOutcome{}, Validation("cannot transfer to the same wallet")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prior, ok := s.byKey[input.IdempotencyKey]; ok {
		return s.replayOutcomeLocked(prior)
	}

	src, ok := s.wallets[input.FromWalletID]
	if !ok {
		return TransferOutcome{}, NotFound("wallet %s not found", input.FromWalletID)
	}
	dst, ok := s.wallets[input.ToWalletID]
	if !ok {
		return TransferOutcome{}, NotFound("wallet %s not found", input.ToWalletID)
	}
	if err := checkMutable(src, input.FromOwnerID, input.Currency); err != nil {
		return TransferOutcome{}, err
	}
	if dst.Status != WalletActive {
		return TransferOutcome{}, Suspended(dst.ID)
	}
	if dst.Currency != input.Currency {
		return TransferOutcome{}, Validation("destination wallet currency is %s", dst.Currency)
	}
	if src.Balance.LessThan(input.Amount) {
		return TransferOutcome{}, InsufficientBalance(src.Balance, input.Amount)
	}

	fromBalance := src.Balance.Sub(input.Amount)
	toBalance := dst.Balance.Add(input.Amount)

	now := time.Now().UTC()
	outbound := Transaction{
		ID:             uuid.NewString(),
		OwnerID:        src.OwnerID,
		WalletID:       src.ID,
		Kind:           KindTransfer,
		Amount:         input.Amount.Neg(),
		Currency:       input.Currency,
		Status:         StatusSucceeded,
		Description:    input.Description,
		Metadata:       input.Metadata,
		IdempotencyKey: input.IdempotencyKey,
		DestinationID:  dst.ID,
		CreatedAt:      now,
	}
	inbound := Transaction{
		ID:             uuid.NewString(),
		OwnerID:        dst.OwnerID,
		WalletID:       dst.ID,
		Kind:           KindTransfer,
		Amount:         input.Amount,
		Currency:       input.Currency,
		Status:         StatusSucceeded,
		Description:    input.Description,
		Metadata:       input.Metadata,
		IdempotencyKey: ReceiverKey(input.IdempotencyKey),
		SourceID:       src.ID,
		CreatedAt:      now,
	}

	s.commitBalance(src, fromBalance)
	s.commitBalance(dst, toBalance)
	s.commitTransaction(outbound,
		Entry{TransactionID: outbound.ID, WalletID: src.ID, AccountType: AccountAsset, Credit: input.Amount, BalanceAfter: fromBalance, Currency: input.Currency, Description: input.Description},
		Entry{TransactionID: outbound.ID, WalletID: src.ID, AccountType: AccountExpense, Debit: input.Amount, Currency: input.Currency, Description: input.Description},
	)
	s.commitTransaction(inbound,
		Entry{TransactionID: inbound.ID, WalletID: dst.ID, AccountType: AccountAsset, Debit: input.Amount, BalanceAfter: toBalance, Currency: input.Currency, Description: input.Description},
		Entry{TransactionID: inbound.ID, WalletID: dst.ID, AccountType: AccountRevenue, Credit: input.Amount, Currency: input.Currency, Description: input.Description},
	)

	return TransferOutcome{Outbound: outbound, Inbound: inbound, FromBalance: fromBalance, ToBalance: toBalance}, nil
}

func (s *memoryStore) SettleWithdrawal(_ context.Context, transactionID, status string) (Transaction, error) {
	if status != StatusSucceeded && status != StatusFailed {
		return Transaction{}, Validation("settlement status must be %s or %s", StatusSucceeded, StatusFailed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	txn, ok := s.byID[transactionID]
	if !ok {
		return Transaction{}, NotFound("transaction %s not found", transactionID)
	}
	if txn.Kind != KindWithdrawal {
		return Transaction{}, Conflict("transaction %s is not a withdrawal", transactionID)
	}
	if txn.Status != StatusProcessing {
		return Transaction{}, Conflict("withdrawal %s is already %s", transactionID, txn.Status)
	}

	if status == StatusFailed {
		w := s.wallets[txn.WalletID]
		refunded := w.Balance.Add(txn.Amount)
		s.commitBalance(w, refunded)
		s.entries = append(s.entries,
			Entry{ID: uuid.NewString(), TransactionID: txn.ID, WalletID: w.ID, AccountType: AccountAsset, Debit: txn.Amount, BalanceAfter: refunded, Currency: txn.Currency, Description: "withdrawal reversal"},
			Entry{ID: uuid.NewString(), TransactionID: txn.ID, WalletID: w.ID, AccountType: AccountExpense, Credit: txn.Amount, Currency: txn.Currency, Description: "withdrawal reversal"},
		)
	}

	txn.Status = status
	s.byID[txn.ID] = txn
	s.byKey[txn.IdempotencyKey] = txn
	return txn, nil
}

func (s *memoryStore) EntriesByTransaction(_ context.Context, transactionID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for _, e := range s.entries {
		if e.TransactionID == transactionID {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil, NotFound("transaction %s has no entries", transactionID)
	}
	return out, nil
}

func (s *memoryStore) replayOutcomeLocked(outbound Transaction) (TransferOutcome, error) {
	inbound, ok := s.byKey[ReceiverKey(outbound.IdempotencyKey)]
	if !ok {
		return TransferOutcome{}, Internal(fmt.Errorf("transfer %s is missing its inbound leg", outbound.ID))
	}
	return TransferOutcome{
		Outbound:    outbound,
		Inbound:     inbound,
		FromBalance: s.wallets[outbound.WalletID].Balance,
		ToBalance:   s.wallets[inbound.WalletID].Balance,
	}, nil
}

func (s *memoryStore) commitBalance(w Wallet, balance decimal.Decimal) {
	w.Balance = balance
	w.UpdatedAt = time.Now().UTC()
	s.wallets[w.ID] = w
}

func (s *memoryStore) commitTransaction(txn Transaction, entries ...Entry) {
	s.byKey[txn.IdempotencyKey] = txn
	s.byID[txn.ID] = txn
	for _, e := range entries {
		e.ID = uuid.NewString()
		s.entries = append(s.entries, e)
	}
}
