// Package observability provides a metrics extension for drops that records
// lifecycle event counts through a MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/drops/plugin"
	"github.com/xraph/drops/subscription"
	"github.com/xraph/drops/wallet"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                      = (*MetricsExtension)(nil)
	_ plugin.OnInit                      = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionCreated       = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionStatusChanged = (*MetricsExtension)(nil)
	_ plugin.OnSubscriptionCompleted     = (*MetricsExtension)(nil)
	_ plugin.OnDropPaid                  = (*MetricsExtension)(nil)
	_ plugin.OnDropOverdue               = (*MetricsExtension)(nil)
	_ plugin.OnWalletCreated             = (*MetricsExtension)(nil)
	_ plugin.OnWalletTransaction         = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a drops plugin to track installment and wallet activity.
type MetricsExtension struct {
	factory MetricFactory

	// Subscription metrics
	SubscriptionCreated   Counter
	SubscriptionPaused    Counter
	SubscriptionResumed   Counter
	SubscriptionCancelled Counter
	SubscriptionCompleted Counter

	// Drop metrics
	DropsPaid      Counter
	DropAmount     Histogram
	DropsOverdue   Counter
	OverdueSeconds Histogram

	// Wallet metrics
	WalletCreated  Counter
	WalletCredited Counter
	WalletDebited  Counter
	FundsLocked    Counter
	FundsUnlocked  Counter
	FundsCaptured  Counter
	WalletTxAmount Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Subscription metrics
		SubscriptionCreated:   factory.Counter("drops.subscription.created"),
		SubscriptionPaused:    factory.Counter("drops.subscription.paused"),
		SubscriptionResumed:   factory.Counter("drops.subscription.resumed"),
		SubscriptionCancelled: factory.Counter("drops.subscription.cancelled"),
		SubscriptionCompleted: factory.Counter("drops.subscription.completed"),

		// Drop metrics
		DropsPaid:      factory.Counter("drops.drop.paid"),
		DropAmount:     factory.Histogram("drops.drop.amount_minor"),
		DropsOverdue:   factory.Counter("drops.drop.overdue"),
		OverdueSeconds: factory.Histogram("drops.drop.overdue_seconds"),

		// Wallet metrics
		WalletCreated:  factory.Counter("drops.wallet.created"),
		WalletCredited: factory.Counter("drops.wallet.credited"),
		WalletDebited:  factory.Counter("drops.wallet.debited"),
		FundsLocked:    factory.Counter("drops.wallet.funds_locked"),
		FundsUnlocked:  factory.Counter("drops.wallet.funds_unlocked"),
		FundsCaptured:  factory.Counter("drops.wallet.funds_captured"),
		WalletTxAmount: factory.Histogram("drops.wallet.transaction_amount_minor"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// ──────────────────────────────────────────────────
// Subscription lifecycle hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCreated implements plugin.OnSubscriptionCreated.
func (m *MetricsExtension) OnSubscriptionCreated(_ context.Context, _ *subscription.Subscription) error {
	m.SubscriptionCreated.Inc()
	return nil
}

// OnSubscriptionStatusChanged implements plugin.OnSubscriptionStatusChanged.
func (m *MetricsExtension) OnSubscriptionStatusChanged(_ context.Context, _ *subscription.Subscription, _, to subscription.Status) error {
	switch to {
	case subscription.StatusPaused:
		m.SubscriptionPaused.Inc()
	case subscription.StatusActive:
		m.SubscriptionResumed.Inc()
	case subscription.StatusCancelled:
		m.SubscriptionCancelled.Inc()
	}
	return nil
}

// OnSubscriptionCompleted implements plugin.OnSubscriptionCompleted.
func (m *MetricsExtension) OnSubscriptionCompleted(_ context.Context, _ *subscription.Subscription) error {
	m.SubscriptionCompleted.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Drop hooks
// ──────────────────────────────────────────────────

// OnDropPaid implements plugin.OnDropPaid.
func (m *MetricsExtension) OnDropPaid(_ context.Context, _ *subscription.Subscription, drop subscription.DropScheduleItem) error {
	m.DropsPaid.Inc()
	m.DropAmount.Observe(float64(drop.Amount.Amount))
	return nil
}

// OnDropOverdue implements plugin.OnDropOverdue.
func (m *MetricsExtension) OnDropOverdue(_ context.Context, _ *subscription.Subscription, overdueBy time.Duration) error {
	m.DropsOverdue.Inc()
	m.OverdueSeconds.Observe(overdueBy.Seconds())
	return nil
}

// ──────────────────────────────────────────────────
// Wallet hooks
// ──────────────────────────────────────────────────

// OnWalletCreated implements plugin.OnWalletCreated.
func (m *MetricsExtension) OnWalletCreated(_ context.Context, _ *wallet.Wallet) error {
	m.WalletCreated.Inc()
	return nil
}

// OnWalletTransaction implements plugin.OnWalletTransaction.
func (m *MetricsExtension) OnWalletTransaction(_ context.Context, _ *wallet.Wallet, tx *wallet.Transaction) error {
	switch tx.Type {
	case wallet.TxCredit:
		m.WalletCredited.Inc()
	case wallet.TxDebit:
		m.WalletDebited.Inc()
	case wallet.TxLock:
		m.FundsLocked.Inc()
	case wallet.TxUnlock:
		m.FundsUnlocked.Inc()
	case wallet.TxCapture:
		m.FundsCaptured.Inc()
	}
	m.WalletTxAmount.Observe(float64(tx.Amount.Amount))
	return nil
}
