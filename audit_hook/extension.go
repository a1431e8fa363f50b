// Package audithook bridges drops lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit store. Callers inject a RecorderFunc adapter at
// wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/drops/plugin"
	"github.com/xraph/drops/subscription"
	"github.com/xraph/drops/wallet"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                      = (*Extension)(nil)
	_ plugin.OnSubscriptionCreated       = (*Extension)(nil)
	_ plugin.OnSubscriptionStatusChanged = (*Extension)(nil)
	_ plugin.OnSubscriptionCompleted     = (*Extension)(nil)
	_ plugin.OnDropPaid                  = (*Extension)(nil)
	_ plugin.OnDropOverdue               = (*Extension)(nil)
	_ plugin.OnWalletCreated             = (*Extension)(nil)
	_ plugin.OnWalletTransaction         = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a single audit trail entry.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges drops lifecycle events to an audit trail backend.
type Extension struct {
	recorder   Recorder
	only       map[string]struct{} // nil = every action
	skip       map[string]struct{}
	categories map[string]struct{} // nil = every category
	logger     *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Subscription lifecycle hooks
// ──────────────────────────────────────────────────

// OnSubscriptionCreated implements plugin.OnSubscriptionCreated.
func (e *Extension) OnSubscriptionCreated(ctx context.Context, sub *subscription.Subscription) error {
	return e.record(ctx, ActionSubscriptionCreated, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, sub.ID.String(), CategorySubscription, "",
		"owner_id", sub.Owner.String(),
		"order_id", sub.Order.String(),
		"payment_plan", string(sub.PaymentPlan),
		"total_amount", sub.TotalAmount.String(),
		"total_drops", sub.TotalDrops,
	)
}

// OnSubscriptionStatusChanged implements plugin.OnSubscriptionStatusChanged.
// Completion is reported by OnSubscriptionCompleted instead.
func (e *Extension) OnSubscriptionStatusChanged(ctx context.Context, sub *subscription.Subscription, from, to subscription.Status) error {
	var action, severity string
	switch to {
	case subscription.StatusPaused:
		action, severity = ActionSubscriptionPaused, SeverityInfo
	case subscription.StatusActive:
		action, severity = ActionSubscriptionResumed, SeverityInfo
	case subscription.StatusCancelled:
		action, severity = ActionSubscriptionCancelled, SeverityWarning
	default:
		return nil
	}

	return e.record(ctx, action, severity, OutcomeSuccess,
		ResourceSubscription, sub.ID.String(), CategorySubscription, "",
		"from", string(from),
		"to", string(to),
		"drops_paid", sub.DropsPaid,
	)
}

// OnSubscriptionCompleted implements plugin.OnSubscriptionCompleted.
func (e *Extension) OnSubscriptionCompleted(ctx context.Context, sub *subscription.Subscription) error {
	return e.record(ctx, ActionSubscriptionCompleted, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, sub.ID.String(), CategorySubscription, "",
		"amount_paid", sub.AmountPaid.String(),
		"total_drops", sub.TotalDrops,
	)
}

// ──────────────────────────────────────────────────
// Drop hooks
// ──────────────────────────────────────────────────

// OnDropPaid implements plugin.OnDropPaid.
func (e *Extension) OnDropPaid(ctx context.Context, sub *subscription.Subscription, drop subscription.DropScheduleItem) error {
	return e.record(ctx, ActionDropPaid, SeverityInfo, OutcomeSuccess,
		ResourceDrop, drop.ID.String(), CategoryPayment, "",
		"subscription_id", sub.ID.String(),
		"amount", drop.Amount.String(),
		"transaction_ref", drop.TransactionRef,
		"drops_paid", sub.DropsPaid,
	)
}

// OnDropOverdue implements plugin.OnDropOverdue.
func (e *Extension) OnDropOverdue(ctx context.Context, sub *subscription.Subscription, overdueBy time.Duration) error {
	return e.record(ctx, ActionDropOverdue, SeverityWarning, OutcomeFailure,
		ResourceSubscription, sub.ID.String(), CategoryPayment, "next drop date passed",
		"overdue_by", overdueBy.String(),
		"outstanding", sub.Outstanding().String(),
	)
}

// ──────────────────────────────────────────────────
// Wallet hooks
// ──────────────────────────────────────────────────

// OnWalletCreated implements plugin.OnWalletCreated.
func (e *Extension) OnWalletCreated(ctx context.Context, w *wallet.Wallet) error {
	return e.record(ctx, ActionWalletCreated, SeverityInfo, OutcomeSuccess,
		ResourceWallet, w.ID.String(), CategoryWallet, "",
		"owner_id", w.Owner.String(),
		"currency", w.Currency,
	)
}

// OnWalletTransaction implements plugin.OnWalletTransaction.
func (e *Extension) OnWalletTransaction(ctx context.Context, w *wallet.Wallet, tx *wallet.Transaction) error {
	action, ok := walletActions[tx.Type]
	if !ok {
		return nil
	}
	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceWallet, w.ID.String(), CategoryWallet, "",
		"transaction_id", tx.ID.String(),
		"amount", tx.Amount.String(),
		"reference", tx.Reference,
		"balance_after", tx.BalanceAfter.String(),
		"locked_after", tx.LockedAfter.String(),
	)
}

var walletActions = map[wallet.TxType]string{
	wallet.TxCredit:  ActionWalletCredited,
	wallet.TxDebit:   ActionWalletDebited,
	wallet.TxLock:    ActionFundsLocked,
	wallet.TxUnlock:  ActionFundsUnlocked,
	wallet.TxCapture: ActionFundsCaptured,
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	reason string,
	kvPairs ...any,
) error {
	if !e.wants(action, category) {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
