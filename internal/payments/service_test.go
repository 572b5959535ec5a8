package payments

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zola-pay/zola_pay/internal/ledger"
	"github.com/zola-pay/zola_pay/internal/notification"
)

type captureNotifier struct {
	mu       sync.Mutex
	messages []notification.Message
}

func (n *captureNotifier) Send(_ context.Context, message notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	return nil
}

func (n *captureNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages)
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func setup(t *testing.T) (*Service, ledger.Store, *captureNotifier, ledger.Wallet, ledger.Wallet) {
	t.Helper()
	store := ledger.NewInMemory(decimal.Zero)
	from, err := store.CreateWallet(context.Background(), uuid.NewString(), "USD", dec(t, "500"))
	if err != nil {
		t.Fatalf("create sender wallet: %v", err)
	}
	to, err := store.CreateWallet(context.Background(), uuid.NewString(), "USD", decimal.Zero)
	if err != nil {
		t.Fatalf("create receiver wallet: %v", err)
	}
	notifier := &captureNotifier{}
	return NewService(store, nil, notifier), store, notifier, from, to
}

func TestTransferMovesFundsAndNotifies(t *testing.T) {
	svc, _, notifier, from, to := setup(t)
	ctx := context.Background()

	res, err := svc.Transfer(ctx, TransferInput{
		FromWalletID:   from.ID,
		FromOwnerID:    from.OwnerID,
		ToOwnerID:      to.OwnerID,
		Amount:         dec(t, "200"),
		Currency:       "USD",
		IdempotencyKey: "T1",
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if res.Replayed {
		t.Fatal("first transfer must not be a replay")
	}
	if res.Outbound.WalletID != from.ID || res.Inbound.WalletID != to.ID {
		t.Fatalf("legs landed on wrong wallets: out=%s in=%s", res.Outbound.WalletID, res.Inbound.WalletID)
	}
	if !res.Outbound.Amount.Equal(dec(t, "-200")) || !res.Inbound.Amount.Equal(dec(t, "200")) {
		t.Fatalf("leg amounts out=%s in=%s", res.Outbound.Amount, res.Inbound.Amount)
	}
	if !res.FromBalance.Equal(dec(t, "300")) || !res.ToBalance.Equal(dec(t, "200")) {
		t.Fatalf("balances from=%s to=%s", res.FromBalance, res.ToBalance)
	}
	if got := notifier.count(); got != 1 {
		t.Fatalf("receiver notifications = %d, want 1", got)
	}
}

func TestTransferReplayReturnsPriorOutcome(t *testing.T) {
	svc, _, notifier, from, to := setup(t)
	ctx := context.Background()

	input := TransferInput{
		FromWalletID:   from.ID,
		FromOwnerID:    from.OwnerID,
		ToOwnerID:      to.OwnerID,
		Amount:         dec(t, "150"),
		Currency:       "USD",
		IdempotencyKey: "T-replay",
	}
	first, err := svc.Transfer(ctx, input)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	second, err := svc.Transfer(ctx, input)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !second.Replayed {
		t.Fatal("second call must be flagged as a replay")
	}
	if second.Outbound.ID != first.Outbound.ID || second.Inbound.ID != first.Inbound.ID {
		t.Fatal("replay must return the same committed transactions")
	}
	if !second.FromBalance.Equal(dec(t, "350")) || !second.ToBalance.Equal(dec(t, "150")) {
		t.Fatalf("replay moved money: from=%s to=%s", second.FromBalance, second.ToBalance)
	}
	if got := notifier.count(); got != 1 {
		t.Fatalf("replay must not notify again, got %d messages", got)
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	svc, store, notifier, from, to := setup(t)
	ctx := context.Background()

	_, err := svc.Transfer(ctx, TransferInput{
		FromWalletID:   from.ID,
		FromOwnerID:    from.OwnerID,
		ToOwnerID:      to.OwnerID,
		Amount:         dec(t, "600"),
		Currency:       "USD",
		IdempotencyKey: "T-over",
	})
	if !ledger.IsKind(err, ledger.KindInsufficientBalance) {
		t.Fatalf("want insufficient balance, got %v", err)
	}
	if _, ok, _ := store.FindByIdempotencyKey(ctx, "T-over"); ok {
		t.Fatal("failed transfer must not commit its idempotency key")
	}
	if got := notifier.count(); got != 0 {
		t.Fatalf("failed transfer must not notify, got %d messages", got)
	}
}

func TestTransferToUnknownOwner(t *testing.T) {
	svc, _, _, from, _ := setup(t)

	_, err := svc.Transfer(context.Background(), TransferInput{
		FromWalletID:   from.ID,
		FromOwnerID:    from.OwnerID,
		ToOwnerID:      uuid.NewString(),
		Amount:         dec(t, "10"),
		Currency:       "USD",
		IdempotencyKey: "T-missing",
	})
	if !ledger.IsKind(err, ledger.KindNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}
