package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/drops"
	"github.com/xraph/drops/id"
	dropsstore "github.com/xraph/drops/store"
	"github.com/xraph/drops/subscription"
	"github.com/xraph/drops/wallet"
)

// Collection name constants.
const (
	colSubscriptions = "drops_subscriptions"
	colWallets       = "drops_wallets"
	colWalletTxs     = "drops_wallet_transactions"
)

// compile-time interface check
var _ dropsstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM. The drop
// schedule is embedded in the subscription document.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all drops collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("drops/mongo: migrate %s indexes: %w", col, err)
		}
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
	m := toSubscriptionModel(sub)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: order %s", drops.ErrSubscriptionExists, sub.Order)
		}
		return fmt.Errorf("drops/mongo: create subscription: %w", err)
	}
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	return s.findSubscription(ctx, bson.M{"_id": subID.String()})
}

func (s *Store) GetSubscriptionByOrder(ctx context.Context, orderID id.OrderID) (*subscription.Subscription, error) {
	return s.findSubscription(ctx, bson.M{"order_id": orderID.String()})
}

func (s *Store) findSubscription(ctx context.Context, filter bson.M) (*subscription.Subscription, error) {
	var m subscriptionModel
	err := s.mdb.NewFind(&m).
		Filter(filter).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, drops.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("drops/mongo: get subscription: %w", err)
	}
	return fromSubscriptionModel(&m)
}

func (s *Store) ListSubscriptions(ctx context.Context, owner id.AccountID, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	var models []subscriptionModel

	filter := bson.M{}
	if !owner.IsNil() {
		filter["owner_id"] = owner.String()
	}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("drops/mongo: list subscriptions: %w", err)
	}
	return fromSubscriptionModels(models)
}

func (s *Store) ListDueSubscriptions(ctx context.Context, before time.Time, limit int) ([]*subscription.Subscription, error) {
	var models []subscriptionModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{
			"status":         string(subscription.StatusActive),
			"next_drop_date": bson.M{"$lt": before.UTC()},
		}).
		Sort(bson.D{{Key: "next_drop_date", Value: 1}})

	if limit > 0 {
		q = q.Limit(int64(limit))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("drops/mongo: list due subscriptions: %w", err)
	}
	return fromSubscriptionModels(models)
}

func (s *Store) UpdateSubscription(ctx context.Context, sub *subscription.Subscription) error {
	expected := sub.Version
	m := toSubscriptionModel(sub)
	m.Version = expected + 1
	m.UpdatedAt = now()

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID, "version": expected}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("drops/mongo: update subscription: %w", err)
	}
	if res.MatchedCount() == 0 {
		if _, getErr := s.GetSubscription(ctx, sub.ID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("%w: subscription %s version %d", drops.ErrConcurrentUpdate, sub.ID, expected)
	}

	sub.Version = m.Version
	sub.UpdatedAt = m.UpdatedAt
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
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: owner %s %s", drops.ErrWalletExists, w.Owner, w.Currency)
		}
		return fmt.Errorf("drops/mongo: create wallet: %w", err)
	}
	return nil
}

func (s *Store) GetWallet(ctx context.Context, walletID id.WalletID) (*wallet.Wallet, error) {
	return s.findWallet(ctx, bson.M{"_id": walletID.String()})
}

func (s *Store) GetWalletByOwner(ctx context.Context, owner id.AccountID, currency string) (*wallet.Wallet, error) {
	return s.findWallet(ctx, bson.M{
		"owner_id": owner.String(),
		"currency": strings.ToLower(currency),
	})
}

func (s *Store) findWallet(ctx context.Context, filter bson.M) (*wallet.Wallet, error) {
	var m walletModel
	err := s.mdb.NewFind(&m).
		Filter(filter).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, drops.ErrWalletNotFound
		}
		return nil, fmt.Errorf("drops/mongo: get wallet: %w", err)
	}
	return fromWalletModel(&m)
}

func (s *Store) UpdateWallet(ctx context.Context, w *wallet.Wallet) error {
	expected := w.Version
	t := now()

	res, err := s.mdb.NewUpdate((*walletModel)(nil)).
		Filter(bson.M{"_id": w.ID.String(), "version": expected}).
		Set("balance", w.Balance.Amount).
		Set("locked", w.Locked.Amount).
		Set("status", string(w.Status)).
		Set("metadata", w.Metadata).
		Set("version", expected+1).
		Set("updated_at", t).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("drops/mongo: update wallet: %w", err)
	}
	if res.MatchedCount() == 0 {
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
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("drops/mongo: append wallet transaction: %w", err)
	}
	return nil
}

func (s *Store) ListWalletTransactions(ctx context.Context, walletID id.WalletID, opts wallet.ListOpts) ([]*wallet.Transaction, error) {
	var models []walletTxModel

	filter := bson.M{"wallet_id": walletID.String()}
	if opts.Type != "" {
		filter["type"] = string(opts.Type)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: -1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("drops/mongo: list wallet transactions: %w", err)
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

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all drops collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colSubscriptions: {
			{
				Keys:    bson.D{{Key: "order_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "next_drop_date", Value: 1}}},
		},
		colWallets: {
			{
				Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "currency", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colWalletTxs: {
			{Keys: bson.D{{Key: "wallet_id", Value: 1}, {Key: "_id", Value: -1}}},
			{Keys: bson.D{{Key: "reference", Value: 1}}},
		},
	}
}
