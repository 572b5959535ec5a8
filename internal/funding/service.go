package funding

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zola-pay/zola_pay/internal/audit"
	"github.com/zola-pay/zola_pay/internal/ledger"
)

// Service coordinates deposits and withdrawals between wallets and external
// money rails. The ledger store owns atomicity; this layer runs the
// idempotency replay guard and emits audit events after commit.
type Service struct {
	store ledger.Store
	sink  audit.Sink
}

// NewService builds a funding service.
func NewService(store ledger.Store, sink audit.Sink) *Service {
	return &Service{store: store, sink: sink}
}

// DepositInput captures the required data for a wallet top-up.
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

// WithdrawInput captures the required data for a payout to an external rail.
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

// Result represents the domain outcome of a funding operation. Replayed is
// true when the idempotency guard short-circuited with a prior transaction.
type Result struct {
	Transaction   ledger.Transaction
	WalletBalance decimal.Decimal
	Replayed      bool
	CompletedAt   time.Time
}

// Deposit credits the wallet from an external funding source.
func (s *Service) Deposit(ctx context.Context, input DepositInput) (Result, error) {
	if err := ledger.ValidateIdempotencyKey(input.IdempotencyKey); err != nil {
		return Result{}, err
	}

	if prior, ok, err := s.store.FindByIdempotencyKey(ctx, input.IdempotencyKey); err != nil {
		return Result{}, err
	} else if ok {
		return s.replay(ctx, prior)
	}

	txn, err := s.store.Deposit(ctx, ledger.DepositInput{
		WalletID:       input.WalletID,
		OwnerID:        input.OwnerID,
		Amount:         input.Amount,
		Currency:       input.Currency,
		Source:         input.Source,
		SourceID:       input.SourceID,
		IdempotencyKey: input.IdempotencyKey,
		Description:    input.Description,
		Metadata:       input.Metadata,
	})
	if err != nil {
		return Result{}, err
	}

	s.emit(ctx, audit.Event{
		Action:        audit.ActionDeposit,
		ActorID:       input.OwnerID,
		WalletID:      input.WalletID,
		TransactionID: txn.ID,
		Amount:        txn.Amount,
		Currency:      txn.Currency,
		Metadata:      map[string]string{"source": input.Source},
	})
	return s.result(ctx, txn, false)
}

// Withdraw debits the wallet toward an external payout destination. The
// transaction stays processing until the rail settles it.
func (s *Service) Withdraw(ctx context.Context, input WithdrawInput) (Result, error) {
	if err := ledger.ValidateIdempotencyKey(input.IdempotencyKey); err != nil {
		return Result{}, err
	}

	if prior, ok, err := s.store.FindByIdempotencyKey(ctx, input.IdempotencyKey); err != nil {
		return Result{}, err
	} else if ok {
		return s.replay(ctx, prior)
	}

	txn, err := s.store.Withdraw(ctx, ledger.WithdrawInput{
		WalletID:       input.WalletID,
		OwnerID:        input.OwnerID,
		Amount:         input.Amount,
		Currency:       input.Currency,
		Destination:    input.Destination,
		DestinationID:  input.DestinationID,
		IdempotencyKey: input.IdempotencyKey,
		Description:    input.Description,
		Metadata:       input.Metadata,
	})
	if err != nil {
		return Result{}, err
	}

	s.emit(ctx, audit.Event{
		Action:        audit.ActionWithdrawal,
		ActorID:       input.OwnerID,
		WalletID:      input.WalletID,
		TransactionID: txn.ID,
		Amount:        txn.Amount,
		Currency:      txn.Currency,
		Metadata:      map[string]string{"destination": input.Destination},
	})
	return s.result(ctx, txn, false)
}

// Settle applies the payout rail's terminal verdict to a processing
// withdrawal.
func (s *Service) Settle(ctx context.Context, transactionID, status, actorID string) (ledger.Transaction, error) {
	txn, err := s.store.SettleWithdrawal(ctx, transactionID, status)
	if err != nil {
		return ledger.Transaction{}, err
	}

	s.emit(ctx, audit.Event{
		Action:        audit.ActionWithdrawalSettled,
		ActorID:       actorID,
		WalletID:      txn.WalletID,
		TransactionID: txn.ID,
		Amount:        txn.Amount,
		Currency:      txn.Currency,
		Metadata:      map[string]string{"status": status},
	})
	return txn, nil
}

// replay packages a previously committed transaction without touching the
// ledger and without emitting a second audit event.
func (s *Service) replay(ctx context.Context, prior ledger.Transaction) (Result, error) {
	return s.result(ctx, prior, true)
}

func (s *Service) result(ctx context.Context, txn ledger.Transaction, replayed bool) (Result, error) {
	w, err := s.store.Wallet(ctx, txn.WalletID)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Transaction:   txn,
		WalletBalance: w.Balance,
		Replayed:      replayed,
		CompletedAt:   time.Now().UTC(),
	}, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.sink == nil {
		return
	}
	event.At = time.Now().UTC()
	_ = s.sink.Log(ctx, event)
}
