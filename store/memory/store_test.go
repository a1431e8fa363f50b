package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/drops"
	"github.com/xraph/drops/id"
	"github.com/xraph/drops/store/memory"
	"github.com/xraph/drops/subscription"
	"github.com/xraph/drops/types"
	"github.com/xraph/drops/wallet"
)

var start = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newSub(t *testing.T, owner id.AccountID, startDate time.Time) *subscription.Subscription {
	t.Helper()
	sub, err := subscription.New(subscription.NewParams{
		Owner:       owner,
		Order:       id.NewOrderID(),
		PaymentPlan: subscription.PlanPaySmallSmall,
		Frequency:   subscription.FrequencyWeekly,
		TotalAmount: types.NGN(400000),
		TotalDrops:  4,
		StartDate:   startDate,
	}, startDate)
	require.NoError(t, err)
	return sub
}

func TestSubscriptionCRUD(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	sub := newSub(t, id.NewAccountID(), start)

	require.NoError(t, s.CreateSubscription(ctx, sub))

	got, err := s.GetSubscription(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, sub.ID.String(), got.ID.String())
	assert.Len(t, got.DropSchedule, 4)

	byOrder, err := s.GetSubscriptionByOrder(ctx, sub.Order)
	require.NoError(t, err)
	assert.Equal(t, sub.ID.String(), byOrder.ID.String())

	// reads are isolated from the stored record
	got.DropSchedule[0].IsPaid = true
	again, err := s.GetSubscription(ctx, sub.ID)
	require.NoError(t, err)
	assert.False(t, again.DropSchedule[0].IsPaid)

	_, err = s.GetSubscription(ctx, id.NewSubscriptionID())
	assert.ErrorIs(t, err, drops.ErrSubscriptionNotFound)
}

func TestSubscriptionOrderUnique(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	sub := newSub(t, id.NewAccountID(), start)
	require.NoError(t, s.CreateSubscription(ctx, sub))

	dup := newSub(t, sub.Owner, start)
	dup.Order = sub.Order
	assert.ErrorIs(t, s.CreateSubscription(ctx, dup), drops.ErrSubscriptionExists)
}

func TestUpdateSubscriptionVersion(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	sub := newSub(t, id.NewAccountID(), start)
	require.NoError(t, s.CreateSubscription(ctx, sub))

	a, err := s.GetSubscription(ctx, sub.ID)
	require.NoError(t, err)
	b, err := s.GetSubscription(ctx, sub.ID)
	require.NoError(t, err)

	a.Metadata = map[string]string{"writer": "a"}
	require.NoError(t, s.UpdateSubscription(ctx, a))
	assert.Equal(t, sub.Version+1, a.Version)

	b.Metadata = map[string]string{"writer": "b"}
	err = s.UpdateSubscription(ctx, b)
	assert.ErrorIs(t, err, drops.ErrConcurrentUpdate)

	stored, err := s.GetSubscription(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", stored.Metadata["writer"])

	ghost := newSub(t, id.NewAccountID(), start)
	assert.ErrorIs(t, s.UpdateSubscription(ctx, ghost), drops.ErrSubscriptionNotFound)
}

func TestListSubscriptions(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	owner := id.NewAccountID()

	for range 3 {
		require.NoError(t, s.CreateSubscription(ctx, newSub(t, owner, start)))
	}
	require.NoError(t, s.CreateSubscription(ctx, newSub(t, id.NewAccountID(), start)))

	all, err := s.ListSubscriptions(ctx, owner, subscription.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := s.ListSubscriptions(ctx, owner, subscription.ListOpts{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	everyone, err := s.ListSubscriptions(ctx, id.AccountID{}, subscription.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, everyone, 4)

	paused, err := s.ListSubscriptions(ctx, owner, subscription.ListOpts{Status: subscription.StatusPaused})
	require.NoError(t, err)
	assert.Empty(t, paused)
}

func TestListDueSubscriptions(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	early := newSub(t, id.NewAccountID(), start)
	late := newSub(t, id.NewAccountID(), start.Add(48*time.Hour))
	future := newSub(t, id.NewAccountID(), start.Add(30*24*time.Hour))
	for _, sub := range []*subscription.Subscription{late, future, early} {
		require.NoError(t, s.CreateSubscription(ctx, sub))
	}

	due, err := s.ListDueSubscriptions(ctx, start.Add(7*24*time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, early.ID.String(), due[0].ID.String())
	assert.Equal(t, late.ID.String(), due[1].ID.String())

	limited, err := s.ListDueSubscriptions(ctx, start.Add(7*24*time.Hour), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestWalletStore(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	owner := id.NewAccountID()

	w := wallet.New(owner, "NGN")
	require.NoError(t, s.CreateWallet(ctx, w))
	assert.ErrorIs(t, s.CreateWallet(ctx, wallet.New(owner, "ngn")), drops.ErrWalletExists)

	got, err := s.GetWalletByOwner(ctx, owner, "NGN")
	require.NoError(t, err)
	assert.Equal(t, w.ID.String(), got.ID.String())

	_, err = s.GetWalletByOwner(ctx, owner, "kes")
	assert.ErrorIs(t, err, drops.ErrWalletNotFound)

	tx, err := got.Credit(types.NGN(5000), "topup-1")
	require.NoError(t, err)
	require.NoError(t, s.UpdateWallet(ctx, got))
	require.NoError(t, s.AppendWalletTransaction(ctx, tx))

	tx2, err := got.Lock(types.NGN(2000), "hold-1")
	require.NoError(t, err)
	require.NoError(t, s.UpdateWallet(ctx, got))
	require.NoError(t, s.AppendWalletTransaction(ctx, tx2))

	stale, err := s.GetWallet(ctx, w.ID)
	require.NoError(t, err)
	stale.Version--
	assert.True(t, errors.Is(s.UpdateWallet(ctx, stale), drops.ErrConcurrentUpdate))

	txs, err := s.ListWalletTransactions(ctx, w.ID, wallet.ListOpts{})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, wallet.TxLock, txs[0].Type)
	assert.Equal(t, wallet.TxCredit, txs[1].Type)

	credits, err := s.ListWalletTransactions(ctx, w.ID, wallet.ListOpts{Type: wallet.TxCredit})
	require.NoError(t, err)
	assert.Len(t, credits, 1)

	orphan := &wallet.Transaction{ID: id.NewWalletTxID(), WalletID: id.NewWalletID()}
	assert.ErrorIs(t, s.AppendWalletTransaction(ctx, orphan), drops.ErrWalletNotFound)
}

func TestClose(t *testing.T) {
	s := memory.New()
	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Ping(context.Background()), drops.ErrStoreClosed)
}
