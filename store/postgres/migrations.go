package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the drops store.
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
    total_amount   BIGINT NOT NULL DEFAULT 0,
    drop_amount    BIGINT NOT NULL DEFAULT 0,
    amount_paid    BIGINT NOT NULL DEFAULT 0,
    frequency      TEXT NOT NULL DEFAULT 'weekly',
    total_drops    INT NOT NULL DEFAULT 0,
    drops_paid     INT NOT NULL DEFAULT 0,
    drop_schedule  JSONB NOT NULL DEFAULT '[]',
    next_drop_date TIMESTAMPTZ,
    status         TEXT NOT NULL DEFAULT 'active',
    is_completed   BOOLEAN NOT NULL DEFAULT FALSE,
    start_date     TIMESTAMPTZ NOT NULL,
    end_date       TIMESTAMPTZ,
    paused_at      TIMESTAMPTZ,
    cancelled_at   TIMESTAMPTZ,
    version        BIGINT NOT NULL DEFAULT 0,
    metadata       JSONB NOT NULL DEFAULT '{}',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
    balance    BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
    locked     BIGINT NOT NULL DEFAULT 0 CHECK (locked >= 0),
    status     TEXT NOT NULL DEFAULT 'active',
    version    BIGINT NOT NULL DEFAULT 0,
    metadata   JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
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
    amount        BIGINT NOT NULL,
    reference     TEXT NOT NULL DEFAULT '',
    balance_after BIGINT NOT NULL,
    locked_after  BIGINT NOT NULL,
    metadata      JSONB NOT NULL DEFAULT '{}',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_drops_wallet_tx_wallet ON drops_wallet_transactions (wallet_id, id DESC);
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
