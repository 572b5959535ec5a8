package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// Actions recorded against the audit trail.
const (
	ActionWalletCreated     = "wallet.created"
	ActionWalletSuspended   = "wallet.suspended"
	ActionWalletActivated   = "wallet.activated"
	ActionDeposit           = "wallet.deposit"
	ActionWithdrawal        = "wallet.withdrawal"
	ActionWithdrawalSettled = "wallet.withdrawal_settled"
	ActionTransferOut       = "wallet.transfer_out"
	ActionTransferIn        = "wallet.transfer_in"
)

// Event describes a committed financial or administrative action. Events are
// emitted after the atomic unit commits; they describe what happened, never
// what might happen.
type Event struct {
	Action        string
	ActorID       string
	WalletID      string
	TransactionID string
	Amount        decimal.Decimal
	Currency      string
	Metadata      map[string]string
	At            time.Time
}

// Sink receives audit events. Delivery is fire-and-forget: a sink failure is
// logged by the caller and never affects the financial outcome it describes.
type Sink interface {
	Log(ctx context.Context, event Event) error
}

// LoggerSink writes audit events to the structured logger. It stands in for
// an external audit pipeline in deployments that have none.
type LoggerSink struct {
	logger *slog.Logger
}

// NewLoggerSink constructs a logging audit sink.
func NewLoggerSink(logger *slog.Logger) *LoggerSink {
	return &LoggerSink{logger: logger}
}

// Log emits the event as a structured log record.
func (s *LoggerSink) Log(_ context.Context, event Event) error {
	if s == nil || s.logger == nil {
		return nil
	}
	attrs := []any{
		slog.String("action", event.Action),
		slog.String("actor_id", event.ActorID),
		slog.String("wallet_id", event.WalletID),
	}
	if event.TransactionID != "" {
		attrs = append(attrs, slog.String("transaction_id", event.TransactionID))
	}
	if !event.Amount.IsZero() {
		attrs = append(attrs, slog.String("amount", event.Amount.String()), slog.String("currency", event.Currency))
	}
	for k, v := range event.Metadata {
		attrs = append(attrs, slog.String("meta_"+k, v))
	}
	s.logger.Info("audit event", attrs...)
	return nil
}
