// Package plugin provides an extensible plugin system for drops.
// Plugins can hook into subscription and wallet lifecycle events.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/drops/subscription"
	"github.com/xraph/drops/wallet"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts. e is the *drops.Engine.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, e interface{}) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Subscription hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCreated is called after a subscription is persisted.
type OnSubscriptionCreated interface {
	Plugin
	OnSubscriptionCreated(ctx context.Context, sub *subscription.Subscription) error
}

// OnDropPaid is called after a drop settlement is persisted.
type OnDropPaid interface {
	Plugin
	OnDropPaid(ctx context.Context, sub *subscription.Subscription, drop subscription.DropScheduleItem) error
}

// OnSubscriptionCompleted is called once, when the final drop is settled.
type OnSubscriptionCompleted interface {
	Plugin
	OnSubscriptionCompleted(ctx context.Context, sub *subscription.Subscription) error
}

// OnSubscriptionStatusChanged is called after any persisted status change,
// requested or derived.
type OnSubscriptionStatusChanged interface {
	Plugin
	OnSubscriptionStatusChanged(ctx context.Context, sub *subscription.Subscription, from, to subscription.Status) error
}

// OnDropOverdue is called by the overdue sweep for each active subscription
// whose next drop date has passed.
type OnDropOverdue interface {
	Plugin
	OnDropOverdue(ctx context.Context, sub *subscription.Subscription, overdueBy time.Duration) error
}

// ──────────────────────────────────────────────────
// Wallet hooks
// ──────────────────────────────────────────────────

// OnWalletCreated is called after a wallet is persisted.
type OnWalletCreated interface {
	Plugin
	OnWalletCreated(ctx context.Context, w *wallet.Wallet) error
}

// OnWalletTransaction is called after a wallet mutation and its journal
// entry are persisted.
type OnWalletTransaction interface {
	Plugin
	OnWalletTransaction(ctx context.Context, w *wallet.Wallet, tx *wallet.Transaction) error
}
