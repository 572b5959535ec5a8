package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireBalanced asserts the double-entry law for one transaction: the sum
// of debits equals the sum of credits across its entries.
func requireBalanced(t *testing.T, s Store, transactionID string) {
	t.Helper()
	entries, err := s.EntriesByTransaction(context.Background(), transactionID)
	require.NoError(t, err)

	debits, credits := decimal.Zero, decimal.Zero
	for _, e := range entries {
		require.True(t, e.Debit.IsZero() != e.Credit.IsZero(),
			"entry %s must have exactly one non-zero side", e.ID)
		debits = debits.Add(e.Debit)
		credits = credits.Add(e.Credit)
	}
	require.True(t, debits.Equal(credits), "debits %s != credits %s", debits, credits)
}

func TestDoubleEntryLaw(t *testing.T) {
	s := NewInMemory(decimal.Zero)
	ctx := context.Background()
	src := newWallet(t, s, "USD")
	dst := newWallet(t, s, "USD")

	dep, err := s.Deposit(ctx, DepositInput{
		WalletID: src.ID, OwnerID: src.OwnerID, Amount: dec("500"), Currency: "USD", IdempotencyKey: "dep",
	})
	require.NoError(t, err)
	requireBalanced(t, s, dep.ID)

	wd, err := s.Withdraw(ctx, WithdrawInput{
		WalletID: src.ID, OwnerID: src.OwnerID, Amount: dec("100"), Currency: "USD", IdempotencyKey: "wd",
	})
	require.NoError(t, err)
	requireBalanced(t, s, wd.ID)

	out, err := s.Transfer(ctx, TransferInput{
		FromWalletID: src.ID, FromOwnerID: src.OwnerID, ToWalletID: dst.ID,
		Amount: dec("200"), Currency: "USD", IdempotencyKey: "tr",
	})
	require.NoError(t, err)
	requireBalanced(t, s, out.Outbound.ID)
	requireBalanced(t, s, out.Inbound.ID)
}

func TestBalanceConservation(t *testing.T) {
	s := NewInMemory(decimal.Zero)
	ctx := context.Background()
	w := newWallet(t, s, "USD")

	before, _ := s.Wallet(ctx, w.ID)
	_, err := s.Deposit(ctx, DepositInput{
		WalletID: w.ID, OwnerID: w.OwnerID, Amount: dec("123.45"), Currency: "USD", IdempotencyKey: "c1",
	})
	require.NoError(t, err)
	after, _ := s.Wallet(ctx, w.ID)
	assert.True(t, after.Balance.Equal(before.Balance.Add(dec("123.45"))))

	before = after
	_, err = s.Withdraw(ctx, WithdrawInput{
		WalletID: w.ID, OwnerID: w.OwnerID, Amount: dec("23.45"), Currency: "USD", IdempotencyKey: "c2",
	})
	require.NoError(t, err)
	after, _ = s.Wallet(ctx, w.ID)
	assert.True(t, after.Balance.Equal(before.Balance.Sub(dec("23.45"))))
}

func TestNoOverdraftUnderConcurrency(t *testing.T) {
	s := NewInMemory(decimal.Zero)
	ctx := context.Background()
	w := newWallet(t, s, "USD")
	SeedBalance(s, w.ID, dec("450"))

	const workers = 10
	amount := dec("100") // floor(450/100) = 4 may succeed

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Withdraw(ctx, WithdrawInput{
				WalletID:       w.ID,
				OwnerID:        w.OwnerID,
				Amount:         amount,
				Currency:       "USD",
				IdempotencyKey: fmt.Sprintf("wd-%d", i),
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
		} else {
			require.True(t, IsKind(err, KindInsufficientBalance), "unexpected error: %v", err)
		}
	}
	assert.Equal(t, 4, successes)

	got, _ := s.Wallet(ctx, w.ID)
	assert.True(t, got.Balance.Equal(dec("50")), "expected 50, got %s", got.Balance)
}

func TestTransferAtomicity(t *testing.T) {
	s := NewInMemory(decimal.Zero)
	ctx := context.Background()
	src := newWallet(t, s, "USD")
	dst := newWallet(t, s, "USD")
	SeedBalance(s, src.ID, dec("400"))

	// Destination rejects the credit leg, so the debit leg must not stick.
	_, err := s.SetWalletStatus(ctx, dst.ID, WalletSuspended)
	require.NoError(t, err)

	_, err = s.Transfer(ctx, TransferInput{
		FromWalletID: src.ID, FromOwnerID: src.OwnerID, ToWalletID: dst.ID,
		Amount: dec("200"), Currency: "USD", IdempotencyKey: "atomic",
	})
	require.True(t, IsKind(err, KindWalletSuspended))

	from, _ := s.Wallet(ctx, src.ID)
	assert.True(t, from.Balance.Equal(dec("400")), "debit leg leaked: %s", from.Balance)

	_, ok, err := s.FindByIdempotencyKey(ctx, "atomic")
	require.NoError(t, err)
	assert.False(t, ok, "failed transfer must leave no transaction")
}

func TestTransferLinksBothLegs(t *testing.T) {
	s := NewInMemory(decimal.Zero)
	ctx := context.Background()
	src := newWallet(t, s, "USD")
	dst := newWallet(t, s, "USD")
	SeedBalance(s, src.ID, dec("400"))

	out, err := s.Transfer(ctx, TransferInput{
		FromWalletID: src.ID, FromOwnerID: src.OwnerID, ToWalletID: dst.ID,
		Amount: dec("200"), Currency: "USD", IdempotencyKey: "K4",
	})
	require.NoError(t, err)

	assert.True(t, out.Outbound.Amount.Equal(dec("-200")))
	assert.True(t, out.Inbound.Amount.Equal(dec("200")))
	assert.Equal(t, dst.ID, out.Outbound.DestinationID)
	assert.Equal(t, src.ID, out.Inbound.SourceID)
	assert.Equal(t, ReceiverKey("K4"), out.Inbound.IdempotencyKey)
	assert.True(t, out.FromBalance.Equal(dec("200")))
	assert.True(t, out.ToBalance.Equal(dec("200")))

	// Replaying the sender key replays both legs without moving money.
	replay, err := s.Transfer(ctx, TransferInput{
		FromWalletID: src.ID, FromOwnerID: src.OwnerID, ToWalletID: dst.ID,
		Amount: dec("200"), Currency: "USD", IdempotencyKey: "K4",
	})
	require.NoError(t, err)
	assert.Equal(t, out.Outbound.ID, replay.Outbound.ID)
	assert.Equal(t, out.Inbound.ID, replay.Inbound.ID)
	assert.True(t, replay.FromBalance.Equal(dec("200")))

	// Opposite-direction transfers against the same pair stay consistent.
	_, err = s.Transfer(ctx, TransferInput{
		FromWalletID: dst.ID, FromOwnerID: dst.OwnerID, ToWalletID: src.ID,
		Amount: dec("50"), Currency: "USD", IdempotencyKey: uuid.NewString(),
	})
	require.NoError(t, err)
}
