package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/drops"
	"github.com/xraph/drops/id"
	dropsstore "github.com/xraph/drops/store"
	"github.com/xraph/drops/subscription"
	"github.com/xraph/drops/wallet"
)

// compile-time interface check
var _ dropsstore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("drops/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("drops/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Subscription Store ====================

func (s *Store) CreateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	m, err := toSubscriptionModel(sub)
	if err != nil {
		return err
	}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: order %s", drops.ErrSubscriptionExists, sub.Order)
		}
		return fmt.Errorf("drops/sqlite: create subscription: %w", err)
	}
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	m := new(subscriptionModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", subID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, drops.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("drops/sqlite: get subscription: %w", err)
	}
	return fromSubscriptionModel(m)
}

func (s *Store) GetSubscriptionByOrder(ctx context.Context, orderID id.OrderID) (*subscription.Subscription, error) {
	m := new(subscriptionModel)
	err := s.sdb.NewSelect(m).
		Where("order_id = ?", orderID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, drops.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("drops/sqlite: get subscription by order: %w", err)
	}
	return fromSubscriptionModel(m)
}

func (s *Store) ListSubscriptions(ctx context.Context, owner id.AccountID, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	var models []subscriptionModel
	q := s.sdb.NewSelect(&models)

	if !owner.IsNil() {
		q = q.Where("owner_id = ?", owner.String())
	}
	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}

	q = q.OrderExpr("id DESC")

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("drops/sqlite: list subscriptions: %w", err)
	}
	return fromSubscriptionModels(models)
}

func (s *Store) ListDueSubscriptions(ctx context.Context, before time.Time, limit int) ([]*subscription.Subscription, error) {
	var models []subscriptionModel
	q := s.sdb.NewSelect(&models).
		Where("status = ?", string(subscription.StatusActive)).
		Where("next_drop_date < ?", before.UnixMilli()).
		OrderExpr("next_drop_date ASC")

	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("drops/sqlite: list due subscriptions: %w", err)
	}
	return fromSubscriptionModels(models)
}

// UpdateSubscription writes every mutable column guarded by the caller's
// version. The schedule column is rewritten whole.
func (s *Store) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	expected := sub.Version
	m, err := toSubscriptionModel(sub)
	if err != nil {
		return err
	}
	t := now()

	res, err := s.sdb.NewUpdate((*subscriptionModel)(nil)).
		Set("amount_paid = ?", m.AmountPaid).
		Set("drops_paid = ?", m.DropsPaid).
		Set("drop_schedule = ?", m.DropSchedule).
		Set("next_drop_date = ?", m.NextDropDate).
		Set("status = ?", m.Status).
		Set("is_completed = ?", m.IsCompleted).
		Set("end_date = ?", m.EndDate).
		Set("paused_at = ?", m.PausedAt).
		Set("cancelled_at = ?", m.CancelledAt).
		Set("metadata = ?", m.Metadata).
		Set("version = ?", expected+1).
		Set("updated_at = ?", t).
		Where("id = ?", m.ID).
		Where("version = ?", expected).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("drops/sqlite: update subscription: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("drops/sqlite: update subscription: %w", err)
	}
	if rows == 0 {
		if _, getErr := s.GetSubscription(ctx, sub.ID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("%w: subscription %s version %d", drops.ErrConcurrentUpdate, sub.ID, expected)
	}

	sub.Version = expected + 1
	sub.UpdatedAt = t
	return nil
}

func fromSubscriptionModels(models []subscriptionModel) ([]*subscription.Subscription, error) {
	result := make([]*subscription.Subscription, len(models))
	for i := range models {
		sub, err := fromSubscriptionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = sub
	}
	return result, nil
}

// ==================== Wallet Store ====================

func (s *Store) CreateWallet(ctx context.Context, w *wallet.Wallet) error {
	m := toWalletModel(w)
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: owner %s %s", drops.ErrWalletExists, w.Owner, w.Currency)
		}
		return fmt.Errorf("drops/sqlite: create wallet: %w", err)
	}
	return nil
}

func (s *Store) GetWallet(ctx context.Context, walletID id.WalletID) (*wallet.Wallet, error) {
	m := new(walletModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", walletID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, drops.ErrWalletNotFound
		}
		return nil, fmt.Errorf("drops/sqlite: get wallet: %w", err)
	}
	return fromWalletModel(m)
}

func (s *Store) GetWalletByOwner(ctx context.Context, owner id.AccountID, currency string) (*wallet.Wallet, error) {
	m := new(walletModel)
	err := s.sdb.NewSelect(m).
		Where("owner_id = ?", owner.String()).
		Where("currency = ?", strings.ToLower(currency)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, drops.ErrWalletNotFound
		}
		return nil, fmt.Errorf("drops/sqlite: get wallet by owner: %w", err)
	}
	return fromWalletModel(m)
}

func (s *Store) UpdateWallet(ctx context.Context, w *wallet.Wallet) error {
	expected := w.Version
	t := now()

	res, err := s.sdb.NewUpdate((*walletModel)(nil)).
		Set("balance = ?", w.Balance.Amount).
		Set("locked = ?", w.Locked.Amount).
		Set("status = ?", string(w.Status)).
		Set("metadata = ?", w.Metadata).
		Set("version = ?", expected+1).
		Set("updated_at = ?", t).
		Where("id = ?", w.ID.String()).
		Where("version = ?", expected).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("drops/sqlite: update wallet: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("drops/sqlite: update wallet: %w", err)
	}
	if rows == 0 {
		if _, getErr := s.GetWallet(ctx, w.ID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("%w: wallet %s version %d", drops.ErrConcurrentUpdate, w.ID, expected)
	}

	w.Version = expected + 1
	w.UpdatedAt = t
	return nil
}

func (s *Store) AppendWalletTransaction(ctx context.Context, tx *wallet.Transaction) error {
	m := toWalletTxModel(tx)
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("drops/sqlite: append wallet transaction: %w", err)
	}
	return nil
}

func (s *Store) ListWalletTransactions(ctx context.Context, walletID id.WalletID, opts wallet.ListOpts) ([]*wallet.Transaction, error) {
	var models []walletTxModel
	q := s.sdb.NewSelect(&models).
		Where("wallet_id = ?", walletID.String())

	if opts.Type != "" {
		q = q.Where("type = ?", string(opts.Type))
	}

	q = q.OrderExpr("id DESC")

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("drops/sqlite: list wallet transactions: %w", err)
	}

	result := make([]*wallet.Transaction, len(models))
	for i := range models {
		tx, err := fromWalletTxModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = tx
	}
	return result, nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for sql.ErrNoRows.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation reports a UNIQUE constraint failure from SQLite.
func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
