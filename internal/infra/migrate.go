package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema holds the idempotent DDL for the ledger store. The unique index on
// transactions.idempotency_key is the authoritative dedup mechanism; the
// unique index on wallets.owner_id enforces one wallet per owner.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS wallets (
        id UUID PRIMARY KEY,
        owner_id UUID NOT NULL UNIQUE,
        currency CHAR(3) NOT NULL,
        balance NUMERIC(20,2) NOT NULL DEFAULT 0,
        status TEXT NOT NULL DEFAULT 'active',
        created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE TABLE IF NOT EXISTS transactions (
        id UUID PRIMARY KEY,
        owner_id UUID NOT NULL,
        wallet_id UUID NOT NULL REFERENCES wallets (id),
        kind TEXT NOT NULL,
        amount NUMERIC(20,2) NOT NULL,
        currency CHAR(3) NOT NULL,
        status TEXT NOT NULL,
        description TEXT NOT NULL DEFAULT '',
        metadata JSONB NOT NULL DEFAULT '{}',
        idempotency_key TEXT NOT NULL UNIQUE,
        source_id TEXT,
        destination_id TEXT,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE TABLE IF NOT EXISTS entries (
        id UUID PRIMARY KEY,
        transaction_id UUID NOT NULL REFERENCES transactions (id),
        wallet_id UUID NOT NULL REFERENCES wallets (id),
        account_type TEXT NOT NULL,
        debit NUMERIC(20,2) NOT NULL DEFAULT 0,
        credit NUMERIC(20,2) NOT NULL DEFAULT 0,
        balance_after NUMERIC(20,2) NOT NULL DEFAULT 0,
        currency CHAR(3) NOT NULL,
        description TEXT NOT NULL DEFAULT ''
    )`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_wallet ON transactions (wallet_id)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_transaction ON entries (transaction_id)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_wallet ON entries (wallet_id)`,
}

// Migrate applies the ledger schema at startup.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
