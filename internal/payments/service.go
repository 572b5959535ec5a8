package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zola-pay/zola_pay/internal/audit"
	"github.com/zola-pay/zola_pay/internal/ledger"
	"github.com/zola-pay/zola_pay/internal/notification"
)

// Service wires wallet-to-wallet transfers through the ledger store.
type Service struct {
	store    ledger.Store
	sink     audit.Sink
	notifier notification.Notifier
}

// NewService constructs a payment service.
func NewService(store ledger.Store, sink audit.Sink, notifier notification.Notifier) *Service {
	return &Service{store: store, sink: sink, notifier: notifier}
}

// TransferInput captures the data needed to move funds between owners. The
// destination is addressed by owner; the service resolves their wallet.
type TransferInput struct {
	FromWalletID   string
	FromOwnerID    string
	ToOwnerID      string
	Amount         decimal.Decimal
	Currency       string
	IdempotencyKey string
	Description    string
	Metadata       map[string]string
}

// TransferResult describes the ledger outcome of a transfer.
type TransferResult struct {
	Outbound    ledger.Transaction
	Inbound     ledger.Transaction
	FromBalance decimal.Decimal
	ToBalance   decimal.Decimal
	Replayed    bool
	CompletedAt time.Time
}

// Transfer posts a balanced movement between two wallets. Replays of the
// sender's idempotency key return the prior outcome without moving money,
// emitting audit events, or notifying the receiver again.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (TransferResult, error) {
	if err := ledger.ValidateIdempotencyKey(input.IdempotencyKey); err != nil {
		return TransferResult{}, err
	}

	if prior, ok, err := s.store.FindByIdempotencyKey(ctx, input.IdempotencyKey); err != nil {
		return TransferResult{}, err
	} else if ok {
		return s.replay(ctx, prior)
	}

	dest, err := s.store.WalletByOwner(ctx, input.ToOwnerID)
	if err != nil {
		return TransferResult{}, err
	}

	outcome, err := s.store.Transfer(ctx, ledger.TransferInput{
		FromWalletID:   input.FromWalletID,
		FromOwnerID:    input.FromOwnerID,
		ToWalletID:     dest.ID,
		Amount:         input.Amount,
		Currency:       input.Currency,
		IdempotencyKey: input.IdempotencyKey,
		Description:    input.Description,
		Metadata:       input.Metadata,
	})
	if err != nil {
		return TransferResult{}, err
	}

	s.emit(ctx, audit.Event{
		Action:        audit.ActionTransferOut,
		ActorID:       input.FromOwnerID,
		WalletID:      outcome.Outbound.WalletID,
		TransactionID: outcome.Outbound.ID,
		Amount:        outcome.Outbound.Amount,
		Currency:      outcome.Outbound.Currency,
	})
	s.emit(ctx, audit.Event{
		Action:        audit.ActionTransferIn,
		ActorID:       input.FromOwnerID,
		WalletID:      outcome.Inbound.WalletID,
		TransactionID: outcome.Inbound.ID,
		Amount:        outcome.Inbound.Amount,
		Currency:      outcome.Inbound.Currency,
	})

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTransferReceived,
			Destination: input.ToOwnerID,
			Body:        fmt.Sprintf("You received %s %s from wallet %s", outcome.Inbound.Amount, input.Currency, input.FromWalletID),
		})
	}

	return toResult(outcome, false), nil
}

// replay rebuilds the prior outcome from the committed sender leg and the
// deterministically derived receiver key.
func (s *Service) replay(ctx context.Context, outbound ledger.Transaction) (TransferResult, error) {
	inbound, ok, err := s.store.FindByIdempotencyKey(ctx, ledger.ReceiverKey(outbound.IdempotencyKey))
	if err != nil {
		return TransferResult{}, err
	}
	if !ok {
		return TransferResult{}, ledger.Internal(fmt.Errorf("transfer %s is missing its inbound leg", outbound.ID))
	}
	from, err := s.store.Wallet(ctx, outbound.WalletID)
	if err != nil {
		return TransferResult{}, err
	}
	to, err := s.store.Wallet(ctx, inbound.WalletID)
	if err != nil {
		return TransferResult{}, err
	}
	return toResult(ledger.TransferOutcome{
		Outbound:    outbound,
		Inbound:     inbound,
		FromBalance: from.Balance,
		ToBalance:   to.Balance,
	}, true), nil
}

func toResult(outcome ledger.TransferOutcome, replayed bool) TransferResult {
	return TransferResult{
		Outbound:    outcome.Outbound,
		Inbound:     outcome.Inbound,
		FromBalance: outcome.FromBalance,
		ToBalance:   outcome.ToBalance,
		Replayed:    replayed,
		CompletedAt: time.Now().UTC(),
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.sink == nil {
		return
	}
	event.At = time.Now().UTC()
	_ = s.sink.Log(ctx, event)
}
