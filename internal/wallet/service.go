package wallet

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zola-pay/zola_pay/internal/audit"
	"github.com/zola-pay/zola_pay/internal/ledger"
)

const fallbackCurrency = "USD"

// Service exposes wallet lifecycle operations backed by the ledger store.
type Service struct {
	store           ledger.Store
	sink            audit.Sink
	defaultCurrency string
}

// NewService builds a wallet service. An empty defaultCurrency falls back to
// USD.
func NewService(store ledger.Store, sink audit.Sink, defaultCurrency string) *Service {
	if defaultCurrency == "" {
		defaultCurrency = fallbackCurrency
	}
	return &Service{store: store, sink: sink, defaultCurrency: defaultCurrency}
}

// CreateInput captures data required to create a wallet.
type CreateInput struct {
	OwnerID        string
	Currency       string
	InitialBalance decimal.Decimal
}

// Balance encapsulates available funds for a wallet.
type Balance struct {
	WalletID string
	Amount   decimal.Decimal
	Currency string
	Status   string
	AsOf     time.Time
}

// Create provisions a wallet for the owner. Each owner holds exactly one.
func (s *Service) Create(ctx context.Context, input CreateInput) (ledger.Wallet, error) {
	currency := input.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}

	w, err := s.store.CreateWallet(ctx, input.OwnerID, currency, input.InitialBalance)
	if err != nil {
		return ledger.Wallet{}, err
	}

	s.emit(ctx, audit.Event{
		Action:   audit.ActionWalletCreated,
		ActorID:  input.OwnerID,
		WalletID: w.ID,
		Currency: w.Currency,
	})
	return w, nil
}

// Get retrieves wallet metadata.
func (s *Service) Get(ctx context.Context, id string) (ledger.Wallet, error) {
	return s.store.Wallet(ctx, id)
}

// Balance returns the current balance for the wallet.
func (s *Service) Balance(ctx context.Context, id string) (Balance, error) {
	w, err := s.store.Wallet(ctx, id)
	if err != nil {
		return Balance{}, err
	}
	return Balance{
		WalletID: w.ID,
		Amount:   w.Balance,
		Currency: w.Currency,
		Status:   w.Status,
		AsOf:     time.Now().UTC(),
	}, nil
}

// Suspend moves a wallet into the suspended state, freezing all mutations.
func (s *Service) Suspend(ctx context.Context, walletID, actorID, reason string) (ledger.Wallet, error) {
	w, err := s.store.SetWalletStatus(ctx, walletID, ledger.WalletSuspended)
	if err != nil {
		return ledger.Wallet{}, err
	}

	meta := map[string]string{}
	if reason != "" {
		meta["reason"] = reason
	}
	s.emit(ctx, audit.Event{
		Action:   audit.ActionWalletSuspended,
		ActorID:  actorID,
		WalletID: w.ID,
		Metadata: meta,
	})
	return w, nil
}

// Activate returns a suspended wallet to active service.
func (s *Service) Activate(ctx context.Context, walletID, actorID string) (ledger.Wallet, error) {
	w, err := s.store.SetWalletStatus(ctx, walletID, ledger.WalletActive)
	if err != nil {
		return ledger.Wallet{}, err
	}

	s.emit(ctx, audit.Event{
		Action:   audit.ActionWalletActivated,
		ActorID:  actorID,
		WalletID: w.ID,
	})
	return w, nil
}

// emit delivers an audit event best-effort; the mutation already committed.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.sink == nil {
		return
	}
	event.At = time.Now().UTC()
	_ = s.sink.Log(ctx, event)
}
