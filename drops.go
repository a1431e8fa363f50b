package drops

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/xraph/drops/id"
	"github.com/xraph/drops/lock"
	"github.com/xraph/drops/plugin"
	"github.com/xraph/drops/store"
	"github.com/xraph/drops/subscription"
	"github.com/xraph/drops/types"
	"github.com/xraph/drops/wallet"
)

// Engine orchestrates subscriptions and wallets over a Store. Every mutation
// runs lock, load, mutate, validate, reconcile and a version-checked update,
// in that order, before any plugin hears about it.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	locker  lock.Locker
	now     func() time.Time

	lockTTL       time.Duration
	updateRetries int
	skipMigrate   bool

	// Overdue sweeper
	sweepSchedule  string
	sweepBatchSize int
	cron           *cron.Cron
}

// New creates a new Engine.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:          s,
		plugins:        plugin.NewRegistry(),
		logger:         slog.Default(),
		locker:         lock.NewMemory(),
		now:            func() time.Time { return time.Now().UTC() },
		lockTTL:        10 * time.Second,
		updateRetries:  3,
		sweepSchedule:  "@every 1h",
		sweepBatchSize: 500,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.plugins.WithTimeout(d)
	}
}

// WithLocker replaces the in-process locker, typically with lock.NewRedis
// when several processes share a store.
func WithLocker(l lock.Locker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = l
		if ttl > 0 {
			e.lockTTL = ttl
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = func() time.Time { return now().UTC() }
	}
}

// WithSweepSchedule sets the cron expression of the overdue sweep. An empty expression
// disables it.
func WithSweepSchedule(expr string, batchSize int) Option {
	return func(e *Engine) {
		e.sweepSchedule = expr
		if batchSize > 0 {
			e.sweepBatchSize = batchSize
		}
	}
}

// WithUpdateRetries sets how many times a mutation is replayed on a fresh
// copy after losing a version race.
func WithUpdateRetries(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.updateRetries = n
		}
	}
}

// WithoutMigrate makes Start skip store migrations.
func WithoutMigrate() Option {
	return func(e *Engine) {
		e.skipMigrate = true
	}
}

// Store returns the underlying store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Start migrates the store, initializes plugins and starts the sweeper.
func (e *Engine) Start(ctx context.Context) error {
	if !e.skipMigrate {
		if err := e.store.Migrate(ctx); err != nil {
			return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
		}
	}

	e.plugins.EmitInit(ctx, e)

	if e.sweepSchedule != "" {
		c := cron.New(cron.WithLocation(time.UTC))
		if _, err := c.AddFunc(e.sweepSchedule, e.runSweep); err != nil {
			return fmt.Errorf("drops: invalid sweep schedule %q: %w", e.sweepSchedule, err)
		}
		c.Start()
		e.cron = c
	}

	e.logger.Info("drops engine started",
		"sweep_schedule", e.sweepSchedule,
		"sweep_batch_size", e.sweepBatchSize,
		"lock_ttl", e.lockTTL,
	)

	return nil
}

// Stop waits for a running sweep, shuts plugins down and closes the store.
func (e *Engine) Stop() error {
	if e.cron != nil {
		<-e.cron.Stop().Done()
		e.cron = nil
	}

	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// ──────────────────────────────────────────────────
// Subscriptions
// ──────────────────────────────────────────────────

// CreateSubscription enrolls an order in installment payment.
func (e *Engine) CreateSubscription(ctx context.Context, p subscription.NewParams) (*subscription.Subscription, error) {
	sub, err := subscription.New(p, e.now())
	if err != nil {
		return nil, err
	}

	if err := e.store.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	e.logger.Info("subscription created",
		"subscription_id", sub.ID.String(),
		"order_id", sub.Order.String(),
		"total_drops", sub.TotalDrops,
		"total_amount", sub.TotalAmount.String(),
	)
	e.plugins.EmitSubscriptionCreated(ctx, sub)
	return sub, nil
}

// GetSubscription retrieves a subscription by ID.
func (e *Engine) GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	return e.store.GetSubscription(ctx, subID)
}

// GetSubscriptionByOrder retrieves the subscription of an order.
func (e *Engine) GetSubscriptionByOrder(ctx context.Context, orderID id.OrderID) (*subscription.Subscription, error) {
	return e.store.GetSubscriptionByOrder(ctx, orderID)
}

// ListSubscriptions lists an owner's subscriptions, newest first.
func (e *Engine) ListSubscriptions(ctx context.Context, owner id.AccountID, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	return e.store.ListSubscriptions(ctx, owner, opts)
}

// RecordDropPayment settles one drop and persists the reconciled result.
// A zero PaidAt defaults to now.
func (e *Engine) RecordDropPayment(ctx context.Context, subID id.SubscriptionID, st subscription.Settlement) (*subscription.Subscription, error) {
	if st.PaidAt.IsZero() {
		st.PaidAt = e.now()
	}

	var idx int
	before, after, err := e.mutateSubscription(ctx, subID, func(s *subscription.Subscription) error {
		var applyErr error
		idx, applyErr = subscription.ApplySettlement(s, st)
		return applyErr
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("drop paid",
		"subscription_id", subID.String(),
		"drop_index", idx,
		"payment_id", st.PaymentID.String(),
		"transaction_ref", after.DropSchedule[idx].TransactionRef,
		"drops_paid", after.DropsPaid,
		"total_drops", after.TotalDrops,
	)
	e.plugins.EmitDropPaid(ctx, after, after.DropSchedule[idx])
	e.emitDerived(ctx, before, after)
	return after, nil
}

// ChangeSubscriptionStatus applies an explicit status request. Rejected
// requests return an *InvalidTransitionError and persist nothing.
func (e *Engine) ChangeSubscriptionStatus(ctx context.Context, subID id.SubscriptionID, target subscription.Status) (*subscription.Subscription, error) {
	before, after, err := e.mutateSubscription(ctx, subID, func(s *subscription.Subscription) error {
		return subscription.RequestStatusChange(s, target, e.now())
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("subscription status changed",
		"subscription_id", subID.String(),
		"from", before.Status,
		"to", after.Status,
	)
	e.emitDerived(ctx, before, after)
	return after, nil
}

// PauseSubscription is ChangeSubscriptionStatus with StatusPaused.
func (e *Engine) PauseSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	return e.ChangeSubscriptionStatus(ctx, subID, subscription.StatusPaused)
}

// ResumeSubscription is ChangeSubscriptionStatus with StatusActive.
func (e *Engine) ResumeSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	return e.ChangeSubscriptionStatus(ctx, subID, subscription.StatusActive)
}

// CancelSubscription is ChangeSubscriptionStatus with StatusCancelled.
func (e *Engine) CancelSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	return e.ChangeSubscriptionStatus(ctx, subID, subscription.StatusCancelled)
}

// ReconcileSubscription re-derives and persists a subscription's derived
// fields without touching payment facts. It repairs records written by
// processes that skipped reconciliation.
func (e *Engine) ReconcileSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	before, after, err := e.mutateSubscription(ctx, subID, func(*subscription.Subscription) error {
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.emitDerived(ctx, before, after)
	return after, nil
}

// PayDropFromWallet debits the next drop amount from a wallet and settles
// the drop with the journal entry as reference. When the settlement is
// rejected the debit is credited back. Zero-amount drops settle without a
// debit and return a nil transaction.
//
// An error wrapping ErrJournalAppend next to a non-nil subscription means the
// drop is paid and the debit persisted, but its journal entry is missing.
func (e *Engine) PayDropFromWallet(ctx context.Context, subID id.SubscriptionID, walletID id.WalletID) (*subscription.Subscription, *wallet.Transaction, error) {
	sub, err := e.store.GetSubscription(ctx, subID)
	if err != nil {
		return nil, nil, err
	}
	if sub.Status != subscription.StatusActive {
		return nil, nil, fmt.Errorf("%w: status is %s", ErrNotPayable, sub.Status)
	}
	idx, ok := sub.FirstUnpaid()
	if !ok {
		return nil, nil, ErrScheduleExhausted
	}
	drop := sub.DropSchedule[idx]
	st := subscription.Settlement{
		DropID:    drop.ID,
		PaymentID: id.NewPaymentID(),
		Amount:    drop.Amount,
	}

	if drop.Amount.IsZero() {
		paid, err := e.RecordDropPayment(ctx, subID, st)
		if err != nil {
			return nil, nil, err
		}
		return paid, nil, nil
	}

	var errs MultiError
	ref := "wallet:" + subID.String() + ":" + drop.ID.String()
	_, debit, err := e.DebitWallet(ctx, walletID, drop.Amount, ref)
	if err != nil {
		if !errors.Is(err, ErrJournalAppend) {
			return nil, nil, err
		}
		errs.Add(err)
	}

	st.TransactionRef = debit.ID.String()
	paid, err := e.RecordDropPayment(ctx, subID, st)
	if err != nil {
		errs.Add(err)
		if _, _, refundErr := e.CreditWallet(ctx, walletID, drop.Amount, "refund:"+debit.ID.String()); refundErr != nil {
			e.logger.Error("wallet refund after rejected settlement incomplete",
				"wallet_id", walletID.String(),
				"wallet_tx_id", debit.ID.String(),
				"error", refundErr,
			)
			errs.Add(refundErr)
		}
		return nil, nil, errs.ErrOrNil()
	}
	return paid, debit, errs.ErrOrNil()
}

// mutateSubscription runs fn on a fresh copy under the subscription lock,
// then validates, reconciles and persists it. A lost version race replays
// fn on a reloaded copy.
func (e *Engine) mutateSubscription(
	ctx context.Context,
	subID id.SubscriptionID,
	fn func(*subscription.Subscription) error,
) (before, after *subscription.Subscription, err error) {
	release, err := e.locker.Acquire(ctx, lock.Key("subscription", subID.String()), e.lockTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrLockTimeout, err)
	}
	defer e.release(ctx, release, "subscription_id", subID.String())

	for attempt := 0; ; attempt++ {
		sub, err := e.store.GetSubscription(ctx, subID)
		if err != nil {
			return nil, nil, err
		}
		before = sub.Clone()

		if err := fn(sub); err != nil {
			return nil, nil, err
		}
		if err := subscription.Validate(sub); err != nil {
			return nil, nil, err
		}
		subscription.Reconcile(sub, e.now())

		err = e.store.UpdateSubscription(ctx, sub)
		if err == nil {
			return before, sub, nil
		}
		if !errors.Is(err, ErrConcurrentUpdate) || attempt >= e.updateRetries {
			return nil, nil, err
		}
		e.logger.Debug("subscription version conflict, retrying",
			"subscription_id", subID.String(),
			"attempt", attempt+1,
		)
	}
}

// emitDerived reports status changes and completion between two snapshots.
func (e *Engine) emitDerived(ctx context.Context, before, after *subscription.Subscription) {
	if before.Status == after.Status {
		return
	}
	e.plugins.EmitSubscriptionStatusChanged(ctx, after, before.Status, after.Status)
	if after.Status == subscription.StatusCompleted {
		e.logger.Info("subscription completed",
			"subscription_id", after.ID.String(),
			"amount_paid", after.AmountPaid.String(),
		)
		e.plugins.EmitSubscriptionCompleted(ctx, after)
	}
}

// ──────────────────────────────────────────────────
// Overdue sweep
// ──────────────────────────────────────────────────

func (e *Engine) runSweep() {
	n, err := e.SweepOverdue(context.Background())
	if err != nil {
		e.logger.Error("overdue sweep failed", "error", err)
		return
	}
	e.logger.Debug("overdue sweep finished", "overdue", n)
}

// SweepOverdue emits OnDropOverdue for every active subscription whose next
// drop date has passed and returns how many were found.
func (e *Engine) SweepOverdue(ctx context.Context) (int, error) {
	now := e.now()
	due, err := e.store.ListDueSubscriptions(ctx, now, e.sweepBatchSize)
	if err != nil {
		return 0, err
	}

	for _, sub := range due {
		overdueBy := now.Sub(*sub.NextDropDate)
		e.logger.Info("drop overdue",
			"subscription_id", sub.ID.String(),
			"next_drop_date", sub.NextDropDate,
			"overdue_by", overdueBy,
		)
		e.plugins.EmitDropOverdue(ctx, sub, overdueBy)
	}
	return len(due), nil
}

// ──────────────────────────────────────────────────
// Wallets
// ──────────────────────────────────────────────────

// CreateWallet opens an empty wallet. An owner holds at most one wallet per
// currency.
func (e *Engine) CreateWallet(ctx context.Context, owner id.AccountID, currency string) (*wallet.Wallet, error) {
	if owner.IsNil() {
		return nil, ValidationError{Field: "owner", Message: "missing account reference"}
	}
	if currency == "" {
		return nil, ValidationError{Field: "currency", Message: "missing currency"}
	}

	w := wallet.New(owner, currency)
	if err := e.store.CreateWallet(ctx, w); err != nil {
		return nil, err
	}

	e.logger.Info("wallet created",
		"wallet_id", w.ID.String(),
		"owner_id", owner.String(),
		"currency", w.Currency,
	)
	e.plugins.EmitWalletCreated(ctx, w)
	return w, nil
}

// GetWallet retrieves a wallet by ID.
func (e *Engine) GetWallet(ctx context.Context, walletID id.WalletID) (*wallet.Wallet, error) {
	return e.store.GetWallet(ctx, walletID)
}

// GetWalletByOwner retrieves an owner's wallet in currency.
func (e *Engine) GetWalletByOwner(ctx context.Context, owner id.AccountID, currency string) (*wallet.Wallet, error) {
	return e.store.GetWalletByOwner(ctx, owner, currency)
}

// ListWalletTransactions lists a wallet's journal, newest first.
func (e *Engine) ListWalletTransactions(ctx context.Context, walletID id.WalletID, opts wallet.ListOpts) ([]*wallet.Transaction, error) {
	return e.store.ListWalletTransactions(ctx, walletID, opts)
}

// CreditWallet adds funds. Like every wallet mutation it returns the
// persisted wallet and entry together with an ErrJournalAppend error when
// only the journal write failed.
func (e *Engine) CreditWallet(ctx context.Context, walletID id.WalletID, amount types.Money, ref string) (*wallet.Wallet, *wallet.Transaction, error) {
	return e.mutateWallet(ctx, walletID, func(w *wallet.Wallet) (*wallet.Transaction, error) {
		return w.Credit(amount, ref)
	})
}

// DebitWallet spends available funds.
func (e *Engine) DebitWallet(ctx context.Context, walletID id.WalletID, amount types.Money, ref string) (*wallet.Wallet, *wallet.Transaction, error) {
	return e.mutateWallet(ctx, walletID, func(w *wallet.Wallet) (*wallet.Transaction, error) {
		return w.Debit(amount, ref)
	})
}

// LockFunds reserves available funds.
func (e *Engine) LockFunds(ctx context.Context, walletID id.WalletID, amount types.Money, ref string) (*wallet.Wallet, *wallet.Transaction, error) {
	return e.mutateWallet(ctx, walletID, func(w *wallet.Wallet) (*wallet.Transaction, error) {
		return w.Lock(amount, ref)
	})
}

// UnlockFunds releases a reservation.
func (e *Engine) UnlockFunds(ctx context.Context, walletID id.WalletID, amount types.Money, ref string) (*wallet.Wallet, *wallet.Transaction, error) {
	return e.mutateWallet(ctx, walletID, func(w *wallet.Wallet) (*wallet.Transaction, error) {
		return w.Unlock(amount, ref)
	})
}

// CaptureFunds spends reserved funds.
func (e *Engine) CaptureFunds(ctx context.Context, walletID id.WalletID, amount types.Money, ref string) (*wallet.Wallet, *wallet.Transaction, error) {
	return e.mutateWallet(ctx, walletID, func(w *wallet.Wallet) (*wallet.Transaction, error) {
		return w.Capture(amount, ref)
	})
}

// FreezeWallet blocks every mutation except UnlockFunds.
func (e *Engine) FreezeWallet(ctx context.Context, walletID id.WalletID) (*wallet.Wallet, error) {
	w, _, err := e.mutateWallet(ctx, walletID, func(w *wallet.Wallet) (*wallet.Transaction, error) {
		return nil, w.Freeze()
	})
	return w, err
}

// UnfreezeWallet reactivates a frozen wallet.
func (e *Engine) UnfreezeWallet(ctx context.Context, walletID id.WalletID) (*wallet.Wallet, error) {
	w, _, err := e.mutateWallet(ctx, walletID, func(w *wallet.Wallet) (*wallet.Transaction, error) {
		return nil, w.Unfreeze()
	})
	return w, err
}

// mutateWallet applies fn under the wallet lock, persists the wallet with a
// version check and then appends the journal entry fn produced, if any.
// A failed append still returns the persisted wallet and entry, with an
// error wrapping ErrJournalAppend.
func (e *Engine) mutateWallet(
	ctx context.Context,
	walletID id.WalletID,
	fn func(*wallet.Wallet) (*wallet.Transaction, error),
) (*wallet.Wallet, *wallet.Transaction, error) {
	release, err := e.locker.Acquire(ctx, lock.Key("wallet", walletID.String()), e.lockTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrLockTimeout, err)
	}

	var (
		w  *wallet.Wallet
		tx *wallet.Transaction
	)
	for attempt := 0; ; attempt++ {
		w, err = e.store.GetWallet(ctx, walletID)
		if err == nil {
			tx, err = fn(w)
		}
		if err == nil {
			err = e.store.UpdateWallet(ctx, w)
		}
		if err == nil || !errors.Is(err, ErrConcurrentUpdate) || attempt >= e.updateRetries {
			break
		}
	}
	var journalErr error
	if err == nil && tx != nil {
		if appendErr := e.store.AppendWalletTransaction(ctx, tx); appendErr != nil {
			e.logger.Error("wallet journal append failed",
				"wallet_id", walletID.String(),
				"wallet_tx_id", tx.ID.String(),
				"error", appendErr,
			)
			journalErr = fmt.Errorf("%w: %s: %w", ErrJournalAppend, tx.ID, appendErr)
		}
	}
	e.release(ctx, release, "wallet_id", walletID.String())
	if err != nil {
		return nil, nil, err
	}

	if tx != nil {
		e.logger.Info("wallet transaction",
			"wallet_id", walletID.String(),
			"type", tx.Type,
			"amount", tx.Amount.String(),
			"reference", tx.Reference,
		)
		e.plugins.EmitWalletTransaction(ctx, w, tx)
	}
	return w, tx, journalErr
}

func (e *Engine) release(ctx context.Context, release lock.Release, key, value string) {
	if err := release(context.WithoutCancel(ctx)); err != nil {
		e.logger.Warn("failed to release lock", key, value, "error", err)
	}
}
