package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the drops store (SQLite).
var Migrations = migrate.NewGroup("drops")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_drops_subscriptions",
			Version: "20260101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS drops_subscriptions (
    id             TEXT PRIMARY KEY,
    owner_id       TEXT NOT NULL,
    order_id       TEXT NOT NULL,
    payment_plan   TEXT NOT NULL DEFAULT 'pay_small_small',
    currency       TEXT NOT NULL DEFAULT '',
    total_amount   INTEGER NOT NULL DEFAULT 0,
    drop_amount    INTEGER NOT NULL DEFAULT 0,
    amount_paid    INTEGER NOT NULL DEFAULT 0,
    frequency      TEXT NOT NULL DEFAULT 'weekly',
    total_drops    INTEGER NOT NULL DEFAULT 0,
    drops_paid     INTEGER NOT NULL DEFAULT 0,
    drop_schedule  TEXT NOT NULL DEFAULT '[]',
    next_drop_date INTEGER,
    status         TEXT NOT NULL DEFAULT 'active',
    is_completed   INTEGER NOT NULL DEFAULT 0,
    start_date     TEXT NOT NULL,
    end_date       TEXT,
    paused_at      TEXT,
    cancelled_at   TEXT,
    version        INTEGER NOT NULL DEFAULT 0,
    metadata       TEXT NOT NULL DEFAULT '{}',
    created_at     TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at     TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_drops_subscriptions_order ON drops_subscriptions (order_id);
CREATE INDEX IF NOT EXISTS idx_drops_subscriptions_owner ON drops_subscriptions (owner_id, status);
CREATE INDEX IF NOT EXISTS idx_drops_subscriptions_due ON drops_subscriptions (status, next_drop_date);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS drops_subscriptions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_drops_wallets",
			Version: "20260101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS drops_wallets (
    id         TEXT PRIMARY KEY,
    owner_id   TEXT NOT NULL,
    currency   TEXT NOT NULL,
    balance    INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0),
    locked     INTEGER NOT NULL DEFAULT 0 CHECK (locked >= 0),
    status     TEXT NOT NULL DEFAULT 'active',
    version    INTEGER NOT NULL DEFAULT 0,
    metadata   TEXT NOT NULL DEFAULT '{}',
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_drops_wallets_owner_currency ON drops_wallets (owner_id, currency);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS drops_wallets`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_drops_wallet_transactions",
			Version: "20260101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS drops_wallet_transactions (
    id            TEXT PRIMARY KEY,
    wallet_id     TEXT NOT NULL REFERENCES drops_wallets(id),
    type          TEXT NOT NULL,
    currency      TEXT NOT NULL,
    amount        INTEGER NOT NULL,
    reference     TEXT NOT NULL DEFAULT '',
    balance_after INTEGER NOT NULL,
    locked_after  INTEGER NOT NULL,
    metadata      TEXT NOT NULL DEFAULT '{}',
    created_at    TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_drops_wallet_tx_wallet ON drops_wallet_transactions (wallet_id, id);
CREATE INDEX IF NOT EXISTS idx_drops_wallet_tx_reference ON drops_wallet_transactions (reference);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS drops_wallet_transactions`)
				return err
			},
		},
	)
}
