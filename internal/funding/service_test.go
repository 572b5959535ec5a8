package funding

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zola-pay/zola_pay/internal/ledger"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func setup(t *testing.T) (*Service, ledger.Store, ledger.Wallet) {
	t.Helper()
	store := ledger.NewInMemory(decimal.Zero)
	w, err := store.CreateWallet(context.Background(), uuid.NewString(), "USD", decimal.Zero)
	require.NoError(t, err)
	return NewService(store, nil), store, w
}

func TestDepositThenWithdrawFlow(t *testing.T) {
	svc, store, w := setup(t)
	ctx := context.Background()

	res, err := svc.Deposit(ctx, DepositInput{
		WalletID:       w.ID,
		OwnerID:        w.OwnerID,
		Amount:         dec(t, "500"),
		Currency:       "USD",
		Source:         "stripe",
		IdempotencyKey: "K1",
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.KindDeposit, res.Transaction.Kind)
	assert.Equal(t, ledger.StatusSucceeded, res.Transaction.Status)
	assert.True(t, res.WalletBalance.Equal(dec(t, "500")))
	assert.False(t, res.Replayed)

	// Replaying K1 returns the identical transaction and moves nothing.
	replay, err := svc.Deposit(ctx, DepositInput{
		WalletID:       w.ID,
		OwnerID:        w.OwnerID,
		Amount:         dec(t, "500"),
		Currency:       "USD",
		Source:         "stripe",
		IdempotencyKey: "K1",
	})
	require.NoError(t, err)
	assert.True(t, replay.Replayed)
	assert.Equal(t, res.Transaction.ID, replay.Transaction.ID)
	assert.True(t, replay.WalletBalance.Equal(dec(t, "500")))

	wd, err := svc.Withdraw(ctx, WithdrawInput{
		WalletID:       w.ID,
		OwnerID:        w.OwnerID,
		Amount:         dec(t, "100"),
		Currency:       "USD",
		Destination:    "bank",
		DestinationID:  "acct-1",
		IdempotencyKey: "K2",
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusProcessing, wd.Transaction.Status)
	assert.True(t, wd.WalletBalance.Equal(dec(t, "400")))

	_, err = svc.Withdraw(ctx, WithdrawInput{
		WalletID:       w.ID,
		OwnerID:        w.OwnerID,
		Amount:         dec(t, "1000"),
		Currency:       "USD",
		IdempotencyKey: "K3",
	})
	require.True(t, ledger.IsKind(err, ledger.KindInsufficientBalance))

	got, err := store.Wallet(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec(t, "400")))
}

func TestWithdrawSettlement(t *testing.T) {
	svc, store, w := setup(t)
	ctx := context.Background()
	ledger.SeedBalance(store, w.ID, dec(t, "300"))

	wd, err := svc.Withdraw(ctx, WithdrawInput{
		WalletID:       w.ID,
		OwnerID:        w.OwnerID,
		Amount:         dec(t, "100"),
		Currency:       "USD",
		IdempotencyKey: "K-settle",
	})
	require.NoError(t, err)

	settled, err := svc.Settle(ctx, wd.Transaction.ID, ledger.StatusFailed, uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusFailed, settled.Status)

	got, err := store.Wallet(ctx, w.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec(t, "300")), "failed payout must refund the hold")
}

func TestDepositRequiresIdempotencyKey(t *testing.T) {
	svc, _, w := setup(t)

	_, err := svc.Deposit(context.Background(), DepositInput{
		WalletID: w.ID,
		OwnerID:  w.OwnerID,
		Amount:   dec(t, "10"),
		Currency: "USD",
	})
	require.True(t, ledger.IsKind(err, ledger.KindValidation))
}
