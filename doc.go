// Package drops provides the installment-subscription engine behind
// pay-small-small and price-lock checkouts.
//
// An order enrolled in installment payment becomes a Subscription with a
// schedule of drops. Each payment event settles one drop. After every
// mutation the engine reconciles the derived fields (completion, next due
// date, end date) before anything is persisted, so a stored subscription is
// always internally consistent.
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/drops"
//	    "github.com/xraph/drops/store/memory"
//	)
//
//	e := drops.New(memory.New())
//	if err := e.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Stop()
//
//	sub, err := e.CreateSubscription(ctx, subscription.NewParams{
//	    Owner:       accountID,
//	    Order:       orderID,
//	    PaymentPlan: subscription.PlanPaySmallSmall,
//	    Frequency:   subscription.FrequencyWeekly,
//	    TotalAmount: drops.NGN(40_000_00),
//	    TotalDrops:  4,
//	})
//
//	sub, err = e.RecordDropPayment(ctx, sub.ID, drops.Settlement{
//	    Amount:         sub.DropAmount,
//	    TransactionRef: "psk_ref_123",
//	})
//
// # Lifecycle
//
// Subscriptions start active. Callers may request active to paused, paused
// to active, and either to cancelled. Completion is never requested: it is
// derived once every drop is paid, and only from active. Completed and
// cancelled are terminal.
//
// # Wallets
//
// Wallets hold a balance and a locked portion reserved for pending drop
// payments. Every mutation appends a journal entry.
//
// # Concurrency
//
// Payment events for one subscription are serialized through a Locker
// (in-process or Redis) and every update is version checked by the store.
// A lost race surfaces as ErrConcurrentUpdate, which IsRetryable reports.
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	sub_01h2xcejqtf2nbrexx3vqjhp41   // Subscription ID
//	drop_01h455vb4pex5vsknk084sn02q  // Drop ID
//	wal_01h455vb4pex5vsknk084sn02q   // Wallet ID
package drops
