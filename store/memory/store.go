// Package memory is an in-process store.Store backed by maps. Records are
// deep-copied on the way in and out so callers never share state with it.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xraph/drops"
	"github.com/xraph/drops/id"
	"github.com/xraph/drops/store"
	"github.com/xraph/drops/subscription"
	"github.com/xraph/drops/wallet"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu     sync.RWMutex
	closed bool

	// Subscription storage
	subscriptions map[string]*subscription.Subscription
	byOrder       map[string]string

	// Wallet storage
	wallets      map[string]*wallet.Wallet
	byOwner      map[string]string
	transactions map[string][]*wallet.Transaction
}

func New() *Store {
	return &Store{
		subscriptions: make(map[string]*subscription.Subscription),
		byOrder:       make(map[string]string),
		wallets:       make(map[string]*wallet.Wallet),
		byOwner:       make(map[string]string),
		transactions:  make(map[string][]*wallet.Transaction),
	}
}

// Subscription Store implementation
func (s *Store) CreateSubscription(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[sub.ID.String()]; exists {
		return drops.ErrAlreadyExists
	}
	if _, exists := s.byOrder[sub.Order.String()]; exists {
		return drops.ErrSubscriptionExists
	}
	s.subscriptions[sub.ID.String()] = sub.Clone()
	s.byOrder[sub.Order.String()] = sub.ID.String()
	return nil
}

func (s *Store) GetSubscription(_ context.Context, subID id.SubscriptionID) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sub, ok := s.subscriptions[subID.String()]; ok {
		return sub.Clone(), nil
	}
	return nil, drops.ErrSubscriptionNotFound
}

func (s *Store) GetSubscriptionByOrder(_ context.Context, orderID id.OrderID) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if key, ok := s.byOrder[orderID.String()]; ok {
		return s.subscriptions[key].Clone(), nil
	}
	return nil, drops.ErrSubscriptionNotFound
}

func (s *Store) ListSubscriptions(_ context.Context, owner id.AccountID, opts subscription.ListOpts) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*subscription.Subscription, 0)
	for _, sub := range s.subscriptions {
		if !owner.IsNil() && sub.Owner.String() != owner.String() {
			continue
		}
		if opts.Status != "" && sub.Status != opts.Status {
			continue
		}
		result = append(result, sub)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID.String() > result[j].ID.String()
	})

	return clonePage(result, opts.Offset, opts.Limit, (*subscription.Subscription).Clone), nil
}

func (s *Store) ListDueSubscriptions(_ context.Context, before time.Time, limit int) ([]*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*subscription.Subscription, 0)
	for _, sub := range s.subscriptions {
		if sub.Status != subscription.StatusActive || sub.NextDropDate == nil {
			continue
		}
		if sub.NextDropDate.Before(before) {
			result = append(result, sub)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].NextDropDate.Before(*result[j].NextDropDate)
	})

	return clonePage(result, 0, limit, (*subscription.Subscription).Clone), nil
}

func (s *Store) UpdateSubscription(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.subscriptions[sub.ID.String()]
	if !ok {
		return drops.ErrSubscriptionNotFound
	}
	if existing.Version != sub.Version {
		return fmt.Errorf("%w: subscription %s at version %d, got %d",
			drops.ErrConcurrentUpdate, sub.ID, existing.Version, sub.Version)
	}

	sub.Version++
	sub.Touch()
	s.subscriptions[sub.ID.String()] = sub.Clone()
	return nil
}

// Wallet Store implementation
func (s *Store) CreateWallet(_ context.Context, w *wallet.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.wallets[w.ID.String()]; exists {
		return drops.ErrAlreadyExists
	}
	key := ownerKey(w.Owner, w.Currency)
	if _, exists := s.byOwner[key]; exists {
		return drops.ErrWalletExists
	}
	s.wallets[w.ID.String()] = w.Clone()
	s.byOwner[key] = w.ID.String()
	return nil
}

func (s *Store) GetWallet(_ context.Context, walletID id.WalletID) (*wallet.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if w, ok := s.wallets[walletID.String()]; ok {
		return w.Clone(), nil
	}
	return nil, drops.ErrWalletNotFound
}

func (s *Store) GetWalletByOwner(_ context.Context, owner id.AccountID, currency string) (*wallet.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if key, ok := s.byOwner[ownerKey(owner, currency)]; ok {
		return s.wallets[key].Clone(), nil
	}
	return nil, drops.ErrWalletNotFound
}

func (s *Store) UpdateWallet(_ context.Context, w *wallet.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.wallets[w.ID.String()]
	if !ok {
		return drops.ErrWalletNotFound
	}
	if existing.Version != w.Version {
		return fmt.Errorf("%w: wallet %s at version %d, got %d",
			drops.ErrConcurrentUpdate, w.ID, existing.Version, w.Version)
	}

	w.Version++
	w.Touch()
	s.wallets[w.ID.String()] = w.Clone()
	return nil
}

func (s *Store) AppendWalletTransaction(_ context.Context, tx *wallet.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.wallets[tx.WalletID.String()]; !ok {
		return drops.ErrWalletNotFound
	}
	cp := *tx
	s.transactions[tx.WalletID.String()] = append(s.transactions[tx.WalletID.String()], &cp)
	return nil
}

func (s *Store) ListWalletTransactions(_ context.Context, walletID id.WalletID, opts wallet.ListOpts) ([]*wallet.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.transactions[walletID.String()]
	result := make([]*wallet.Transaction, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		if opts.Type != "" && all[i].Type != opts.Type {
			continue
		}
		result = append(result, all[i])
	}

	return clonePage(result, opts.Offset, opts.Limit, func(tx *wallet.Transaction) *wallet.Transaction {
		cp := *tx
		return &cp
	}), nil
}

// Core methods
func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return drops.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

func ownerKey(owner id.AccountID, currency string) string {
	return owner.String() + "/" + strings.ToLower(currency)
}

func clonePage[T any](items []T, offset, limit int, clone func(T) T) []T {
	start := offset
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit == 0 || end > len(items) {
		end = len(items)
	}

	out := make([]T, 0, end-start)
	for _, item := range items[start:end] {
		out = append(out, clone(item))
	}
	return out
}
