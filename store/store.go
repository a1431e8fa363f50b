// Package store defines the unified persistence interface for drops.
package store

import (
	"context"
	"time"

	"github.com/xraph/drops/id"
	"github.com/xraph/drops/subscription"
	"github.com/xraph/drops/wallet"
)

// Store is the unified storage interface for all drops entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
//
// UpdateSubscription and UpdateWallet are version checked: the record's
// Version must match the stored one, and on success the store increments
// both. A mismatch returns drops.ErrConcurrentUpdate.
type Store interface {
	// Subscription methods
	CreateSubscription(ctx context.Context, s *subscription.Subscription) error
	GetSubscription(ctx context.Context, subID id.SubscriptionID) (*subscription.Subscription, error)
	GetSubscriptionByOrder(ctx context.Context, orderID id.OrderID) (*subscription.Subscription, error)
	ListSubscriptions(ctx context.Context, owner id.AccountID, opts subscription.ListOpts) ([]*subscription.Subscription, error)
	ListDueSubscriptions(ctx context.Context, before time.Time, limit int) ([]*subscription.Subscription, error)
	UpdateSubscription(ctx context.Context, s *subscription.Subscription) error

	// Wallet methods
	CreateWallet(ctx context.Context, w *wallet.Wallet) error
	GetWallet(ctx context.Context, walletID id.WalletID) (*wallet.Wallet, error)
	GetWalletByOwner(ctx context.Context, owner id.AccountID, currency string) (*wallet.Wallet, error)
	UpdateWallet(ctx context.Context, w *wallet.Wallet) error
	AppendWalletTransaction(ctx context.Context, tx *wallet.Transaction) error
	ListWalletTransactions(ctx context.Context, walletID id.WalletID, opts wallet.ListOpts) ([]*wallet.Transaction, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
