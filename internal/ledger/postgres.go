package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStore implements Store on PostgreSQL. Each mutation runs in a
// single transaction that locks the affected wallet rows with FOR UPDATE, so
// balance checks always observe the value held for this operation.
type PostgresStore struct {
	db        *pgxpool.Pool
	maxAmount decimal.Decimal
}

// NewPostgresStore builds a Postgres-backed engine. A zero maxAmount selects
// DefaultMaxAmount.
func NewPostgresStore(db *pgxpool.Pool, maxAmount decimal.Decimal) *PostgresStore {
	if maxAmount.IsZero() {
		maxAmount = DefaultMaxAmount
	}
	return &PostgresStore{db: db, maxAmount: maxAmount}
}

const walletColumns = `id, owner_id, currency, balance::text, status, created_at, updated_at`

const transactionColumns = `id, owner_id, wallet_id, kind, amount::text, currency, status,
        description, metadata, idempotency_key, COALESCE(source_id, ''), COALESCE(destination_id, ''), created_at`

// CreateWallet provisions a wallet for the owner. An owner holds at most one
// wallet; the unique index on owner_id backs the conflict check.
func (s *PostgresStore) CreateWallet(ctx context.Context, ownerID, currency string, initialBalance decimal.Decimal) (Wallet, error) {
	if _, err := uuid.Parse(ownerID); err != nil {
		return Wallet{}, Validation("owner id must be a UUID")
	}
	if !validCurrency(currency) {
		return Wallet{}, Validation("currency must be a 3-letter ISO 4217 code")
	}
	if initialBalance.IsNegative() {
		return Wallet{}, Validation("initial balance must not be negative")
	}

	w := Wallet{
		ID:       uuid.NewString(),
		OwnerID:  ownerID,
		Currency: currency,
		Balance:  initialBalance,
		Status:   WalletActive,
	}

	row := s.db.QueryRow(ctx, `INSERT INTO wallets (id, owner_id, currency, balance, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at, updated_at`,
		w.ID, w.OwnerID, w.Currency, w.Balance.String(), w.Status)
	if err := row.Scan(&w.CreatedAt, &w.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return Wallet{}, Conflict("owner %s already has a wallet", ownerID)
		}
		return Wallet{}, Internal(err)
	}
	return w, nil
}

// Wallet fetches wallet metadata by id.
func (s *PostgresStore) Wallet(ctx context.Context, walletID string) (Wallet, error) {
	row := s.db.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1`, walletID)
	w, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, NotFound("wallet %s not found", walletID)
		}
		return Wallet{}, Internal(err)
	}
	return w, nil
}

// WalletByOwner fetches the wallet owned by the given user.
func (s *PostgresStore) WalletByOwner(ctx context.Context, ownerID string) (Wallet, error) {
	row := s.db.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE owner_id = $1`, ownerID)
	w, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, NotFound("owner %s has no wallet", ownerID)
		}
		return Wallet{}, Internal(err)
	}
	return w, nil
}

// SetWalletStatus moves a wallet between active and suspended under a row
// lock. Closed wallets are immutable.
func (s *PostgresStore) SetWalletStatus(ctx context.Context, walletID, status string) (Wallet, error) {
	if status != WalletActive && status != WalletSuspended {
		return Wallet{}, Validation("status must be %s or %s", WalletActive, WalletSuspended)
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Wallet{}, Internal(err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	w, err := lockWallet(ctx, tx, walletID)
	if err != nil {
		return Wallet{}, err
	}
	if w.Status == WalletClosed {
		return Wallet{}, Conflict("wallet %s is closed", walletID)
	}
	if w.Status == status {
		return w, nil
	}

	row := tx.QueryRow(ctx, `UPDATE wallets SET status = $2, updated_at = now()
        WHERE id = $1 RETURNING updated_at`, walletID, status)
	if err := row.Scan(&w.UpdatedAt); err != nil {
		return Wallet{}, Internal(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Wallet{}, Internal(err)
	}
	w.Status = status
	return w, nil
}

// FindByIdempotencyKey looks up a committed transaction by key. Only
// committed rows are visible; failed attempts leave no trace.
func (s *PostgresStore) FindByIdempotencyKey(ctx context.Context, key string) (Transaction, bool, error) {
	row := s.db.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE idempotency_key = $1`, key)
	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, false, nil
		}
		return Transaction{}, false, Internal(err)
	}
	return txn, true, nil
}

// Deposit credits the wallet and books an asset debit against a revenue
// credit. Settlement is synchronous, so the transaction commits as succeeded.
func (s *PostgresStore) Deposit(ctx context.Context, input DepositInput) (Transaction, error) {
	if err := ValidateIdempotencyKey(input.IdempotencyKey); err != nil {
		return Transaction{}, err
	}
	if err := validateMutation(input.Amount, input.Currency, s.maxAmount); err != nil {
		return Transaction{}, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, Internal(err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if prior, ok, err := findByKeyTx(ctx, tx, input.IdempotencyKey); err != nil {
		return Transaction{}, err
	} else if ok {
		return prior, nil
	}

	w, err := lockWallet(ctx, tx, input.WalletID)
	if err != nil {
		return Transaction{}, err
	}
	if err := checkMutable(w, input.OwnerID, input.Currency); err != nil {
		return Transaction{}, err
	}

	newBalance := w.Balance.Add(input.Amount)
	if err := updateBalance(ctx, tx, w.ID, newBalance); err != nil {
		return Transaction{}, err
	}

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
	}
	if err := insertTransaction(ctx, tx, &txn); err != nil {
		if isUniqueViolation(err) {
			return s.resolveDuplicate(ctx, tx, input.IdempotencyKey)
		}
		return Transaction{}, Internal(err)
	}

	entries := []Entry{
		{TransactionID: txn.ID, WalletID: w.ID, AccountType: AccountAsset, Debit: input.Amount, BalanceAfter: newBalance, Currency: input.Currency, Description: input.Description},
		{TransactionID: txn.ID, WalletID: w.ID, AccountType: AccountRevenue, Credit: input.Amount, Currency: input.Currency, Description: input.Description},
	}
	if err := insertEntries(ctx, tx, entries); err != nil {
		return Transaction{}, Internal(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, Internal(err)
	}
	return txn, nil
}

// Withdraw debits the wallet toward an external payout rail and books an
// expense debit against an asset credit. The transaction commits as
// processing; the rail's settlement callback drives the terminal status.
func (s *PostgresStore) Withdraw(ctx context.Context, input WithdrawInput) (Transaction, error) {
	if err := ValidateIdempotencyKey(input.IdempotencyKey); err != nil {
		return Transaction{}, err
	}
	if err := validateMutation(input.Amount, input.Currency, s.maxAmount); err != nil {
		return Transaction{}, err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, Internal(err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if prior, ok, err := findByKeyTx(ctx, tx, input.IdempotencyKey); err != nil {
		return Transaction{}, err
	} else if ok {
		return prior, nil
	}

	w, err := lockWallet(ctx, tx, input.WalletID)
	if err != nil {
		return Transaction{}, err
	}
	if err := checkMutable(w, input.OwnerID, input.Currency); err != nil {
		return Transaction{}, err
	}
	if w.Balance.LessThan(input.Amount) {
		return Transaction{}, InsufficientBalance(w.Balance, input.Amount)
	}

	newBalance := w.Balance.Sub(input.Amount)
	if err := updateBalance(ctx, tx, w.ID, newBalance); err != nil {
		return Transaction{}, err
	}

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
	}
	if err := insertTransaction(ctx, tx, &txn); err != nil {
		if isUniqueViolation(err) {
			return s.resolveDuplicate(ctx, tx, input.IdempotencyKey)
		}
		return Transaction{}, Internal(err)
	}

	entries := []Entry{
		{TransactionID: txn.ID, WalletID: w.ID, AccountType: AccountExpense, Debit: input.Amount, Currency: input.Currency, Description: input.Description},
		{TransactionID: txn.ID, WalletID: w.ID, AccountType: AccountAsset, Credit: input.Amount, BalanceAfter: newBalance, Currency: input.Currency, Description: input.Description},
	}
	if err := insertEntries(ctx, tx, entries); err != nil {
		return Transaction{}, Internal(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, Internal(err)
	}
	return txn, nil
}

// Transfer moves funds between two wallets. Both rows are locked in
// ascending wallet-id order so opposite-direction transfers cannot deadlock,
// and both legs commit in the same unit or not at all.
func (s *PostgresStore) Transfer(ctx context.Context, input TransferInput) (TransferOutcome, error) {
	if err := ValidateIdempotencyKey(input.IdempotencyKey); err != nil {
		return TransferOutcome{}, err
	}
	if err := validateMutation(input.Amount, input.Currency, s.maxAmount); err != nil {
		return TransferOutcome{}, err
	}
	if input.FromWalletID == input.ToWalletID {
		return TransferOutcome{}, Validation("cannot transfer to the same wallet")
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return TransferOutcome{}, Internal(err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if prior, ok, err := findByKeyTx(ctx, tx, input.IdempotencyKey); err != nil {
		return TransferOutcome{}, err
	} else if ok {
		return s.replayTransfer(ctx, tx, prior)
	}

	first, second := input.FromWalletID, input.ToWalletID
	if second < first {
		first, second = second, first
	}
	locked := map[string]Wallet{}
	for _, id := range []string{first, second} {
		w, err := lockWallet(ctx, tx, id)
		if err != nil {
			return TransferOutcome{}, err
		}
		locked[id] = w
	}
	src, dst := locked[input.FromWalletID], locked[input.ToWalletID]

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
	if err := updateBalance(ctx, tx, src.ID, fromBalance); err != nil {
		return TransferOutcome{}, err
	}
	if err := updateBalance(ctx, tx, dst.ID, toBalance); err != nil {
		return TransferOutcome{}, err
	}

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
	}
	for _, txn := range []*Transaction{&outbound, &inbound} {
		if err := insertTransaction(ctx, tx, txn); err != nil {
			if isUniqueViolation(err) {
				prior, rerr := s.resolveDuplicate(ctx, tx, input.IdempotencyKey)
				if rerr != nil {
					return TransferOutcome{}, rerr
				}
				return s.replayOutcome(ctx, prior)
			}
			return TransferOutcome{}, Internal(err)
		}
	}

	entries := []Entry{
		{TransactionID: outbound.ID, WalletID: src.ID, AccountType: AccountAsset, Credit: input.Amount, BalanceAfter: fromBalance, Currency: input.Currency, Description: input.Description},
		{TransactionID: outbound.ID, WalletID: src.ID, AccountType: AccountExpense, Debit: input.Amount, Currency: input.Currency, Description: input.Description},
		{TransactionID: inbound.ID, WalletID: dst.ID, AccountType: AccountAsset, Debit: input.Amount, BalanceAfter: toBalance, Currency: input.Currency, Description: input.Description},
		{TransactionID: inbound.ID, WalletID: dst.ID, AccountType: AccountRevenue, Credit: input.Amount, Currency: input.Currency, Description: input.Description},
	}
	if err := insertEntries(ctx, tx, entries); err != nil {
		return TransferOutcome{}, Internal(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return TransferOutcome{}, Internal(err)
	}

	return TransferOutcome{Outbound: outbound, Inbound: inbound, FromBalance: fromBalance, ToBalance: toBalance}, nil
}

// SettleWithdrawal applies the payout rail's terminal verdict to a
// processing withdrawal. A failed settlement refunds the held amount.
func (s *PostgresStore) SettleWithdrawal(ctx context.Context, transactionID, status string) (Transaction, error) {
	if status != StatusSucceeded && status != StatusFailed {
		return Transaction{}, Validation("settlement status must be %s or %s", StatusSucceeded, StatusFailed)
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, Internal(err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	row := tx.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, transactionID)
	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, NotFound("transaction %s not found", transactionID)
		}
		return Transaction{}, Internal(err)
	}
	if txn.Kind != KindWithdrawal {
		return Transaction{}, Conflict("transaction %s is not a withdrawal", transactionID)
	}
	if txn.Status != StatusProcessing {
		return Transaction{}, Conflict("withdrawal %s is already %s", transactionID, txn.Status)
	}

	if status == StatusFailed {
		w, err := lockWallet(ctx, tx, txn.WalletID)
		if err != nil {
			return Transaction{}, err
		}
		refunded := w.Balance.Add(txn.Amount)
		if err := updateBalance(ctx, tx, w.ID, refunded); err != nil {
			return Transaction{}, err
		}
		entries := []Entry{
			{TransactionID: txn.ID, WalletID: w.ID, AccountType: AccountAsset, Debit: txn.Amount, BalanceAfter: refunded, Currency: txn.Currency, Description: "withdrawal reversal"},
			{TransactionID: txn.ID, WalletID: w.ID, AccountType: AccountExpense, Credit: txn.Amount, Currency: txn.Currency, Description: "withdrawal reversal"},
		}
		if err := insertEntries(ctx, tx, entries); err != nil {
			return Transaction{}, Internal(err)
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE transactions SET status = $2 WHERE id = $1`, transactionID, status); err != nil {
		return Transaction{}, Internal(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, Internal(err)
	}
	txn.Status = status
	return txn, nil
}

// EntriesByTransaction lists the ledger entries booked for a transaction.
func (s *PostgresStore) EntriesByTransaction(ctx context.Context, transactionID string) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `SELECT id, transaction_id, wallet_id, account_type,
        debit::text, credit::text, balance_after::text, currency, description
        FROM entries WHERE transaction_id = $1 ORDER BY id`, transactionID)
	if err != nil {
		return nil, Internal(err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var debit, credit, after string
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.WalletID, &e.AccountType, &debit, &credit, &after, &e.Currency, &e.Description); err != nil {
			return nil, Internal(err)
		}
		if e.Debit, err = decimal.NewFromString(debit); err != nil {
			return nil, Internal(err)
		}
		if e.Credit, err = decimal.NewFromString(credit); err != nil {
			return nil, Internal(err)
		}
		if e.BalanceAfter, err = decimal.NewFromString(after); err != nil {
			return nil, Internal(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, Internal(err)
	}
	if len(entries) == 0 {
		return nil, NotFound("transaction %s has no entries", transactionID)
	}
	return entries, nil
}

// resolveDuplicate handles the check-then-act race: two first-time requests
// with the same key both pass the pre-check and one loses the unique
// constraint at insert time. The loser abandons its unit and returns the row
// the winner committed.
func (s *PostgresStore) resolveDuplicate(ctx context.Context, tx pgx.Tx, key string) (Transaction, error) {
	_ = tx.Rollback(ctx)
	prior, ok, err := s.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return Transaction{}, err
	}
	if !ok {
		return Transaction{}, Internal(fmt.Errorf("idempotency key %s vanished after conflict", key))
	}
	return prior, nil
}

func (s *PostgresStore) replayTransfer(ctx context.Context, tx pgx.Tx, outbound Transaction) (TransferOutcome, error) {
	_ = tx.Rollback(ctx)
	return s.replayOutcome(ctx, outbound)
}

// replayOutcome rebuilds a TransferOutcome from the committed sender leg and
// the deterministically derived receiver key.
func (s *PostgresStore) replayOutcome(ctx context.Context, outbound Transaction) (TransferOutcome, error) {
	inbound, ok, err := s.FindByIdempotencyKey(ctx, ReceiverKey(outbound.IdempotencyKey))
	if err != nil {
		return TransferOutcome{}, err
	}
	if !ok {
		return TransferOutcome{}, Internal(fmt.Errorf("transfer %s is missing its inbound leg", outbound.ID))
	}
	from, err := s.Wallet(ctx, outbound.WalletID)
	if err != nil {
		return TransferOutcome{}, err
	}
	to, err := s.Wallet(ctx, inbound.WalletID)
	if err != nil {
		return TransferOutcome{}, err
	}
	return TransferOutcome{Outbound: outbound, Inbound: inbound, FromBalance: from.Balance, ToBalance: to.Balance}, nil
}

// checkMutable runs the invariant checks shared by all debit/credit paths
// against the wallet state observed under the row lock.
func checkMutable(w Wallet, ownerID, currency string) error {
	if w.OwnerID != ownerID {
		return Forbidden("wallet %s is not owned by caller", w.ID)
	}
	if w.Status != WalletActive {
		return Suspended(w.ID)
	}
	if w.Currency != currency {
		return Validation("wallet currency is %s", w.Currency)
	}
	return nil
}

func lockWallet(ctx context.Context, tx pgx.Tx, walletID string) (Wallet, error) {
	row := tx.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1 FOR UPDATE`, walletID)
	w, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, NotFound("wallet %s not found", walletID)
		}
		return Wallet{}, Internal(err)
	}
	return w, nil
}

func updateBalance(ctx context.Context, tx pgx.Tx, walletID string, balance decimal.Decimal) error {
	if _, err := tx.Exec(ctx, `UPDATE wallets SET balance = $2, updated_at = now() WHERE id = $1`,
		walletID, balance.String()); err != nil {
		return Internal(err)
	}
	return nil
}

func findByKeyTx(ctx context.Context, tx pgx.Tx, key string) (Transaction, bool, error) {
	row := tx.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE idempotency_key = $1`, key)
	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, false, nil
		}
		return Transaction{}, false, Internal(err)
	}
	return txn, true, nil
}

func insertTransaction(ctx context.Context, tx pgx.Tx, txn *Transaction) error {
	meta := txn.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	row := tx.QueryRow(ctx, `INSERT INTO transactions
        (id, owner_id, wallet_id, kind, amount, currency, status, description, metadata, idempotency_key, source_id, destination_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), NULLIF($12, ''))
        RETURNING created_at`,
		txn.ID, txn.OwnerID, txn.WalletID, txn.Kind, txn.Amount.String(), txn.Currency, txn.Status,
		txn.Description, payload, txn.IdempotencyKey, txn.SourceID, txn.DestinationID)
	return row.Scan(&txn.CreatedAt)
}

func insertEntries(ctx context.Context, tx pgx.Tx, entries []Entry) error {
	for _, e := range entries {
		if _, err := tx.Exec(ctx, `INSERT INTO entries
            (id, transaction_id, wallet_id, account_type, debit, credit, balance_after, currency, description)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			uuid.NewString(), e.TransactionID, e.WalletID, e.AccountType,
			e.Debit.String(), e.Credit.String(), e.BalanceAfter.String(), e.Currency, e.Description); err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWallet(row rowScanner) (Wallet, error) {
	var w Wallet
	var balance string
	var createdAt, updatedAt time.Time
	if err := row.Scan(&w.ID, &w.OwnerID, &w.Currency, &balance, &w.Status, &createdAt, &updatedAt); err != nil {
		return Wallet{}, err
	}
	bal, err := decimal.NewFromString(balance)
	if err != nil {
		return Wallet{}, err
	}
	w.Balance = bal
	w.CreatedAt = createdAt.UTC()
	w.UpdatedAt = updatedAt.UTC()
	return w, nil
}

func scanTransaction(row rowScanner) (Transaction, error) {
	var txn Transaction
	var amount string
	var payload []byte
	var createdAt time.Time
	if err := row.Scan(&txn.ID, &txn.OwnerID, &txn.WalletID, &txn.Kind, &amount, &txn.Currency, &txn.Status,
		&txn.Description, &payload, &txn.IdempotencyKey, &txn.SourceID, &txn.DestinationID, &createdAt); err != nil {
		return Transaction{}, err
	}
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return Transaction{}, err
	}
	txn.Amount = amt
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &txn.Metadata); err != nil {
			return Transaction{}, err
		}
	}
	txn.CreatedAt = createdAt.UTC()
	return txn, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
