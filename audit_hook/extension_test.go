package audithook_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audithook "github.com/xraph/drops/audit_hook"
	"github.com/xraph/drops/id"
	"github.com/xraph/drops/subscription"
	"github.com/xraph/drops/types"
	"github.com/xraph/drops/wallet"
)

func capture() (*[]*audithook.AuditEvent, audithook.Recorder) {
	var events []*audithook.AuditEvent
	return &events, audithook.RecorderFunc(func(_ context.Context, evt *audithook.AuditEvent) error {
		events = append(events, evt)
		return nil
	})
}

func newSub(t *testing.T) *subscription.Subscription {
	t.Helper()
	sub, err := subscription.New(subscription.NewParams{
		Owner:       id.NewAccountID(),
		Order:       id.NewOrderID(),
		PaymentPlan: subscription.PlanPaySmallSmall,
		Frequency:   subscription.FrequencyWeekly,
		TotalAmount: types.NGN(300000),
		TotalDrops:  3,
	}, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return sub
}

func TestSubscriptionEvents(t *testing.T) {
	events, rec := capture()
	ext := audithook.New(rec)
	ctx := context.Background()
	sub := newSub(t)

	require.NoError(t, ext.OnSubscriptionCreated(ctx, sub))
	require.NoError(t, ext.OnSubscriptionStatusChanged(ctx, sub, subscription.StatusActive, subscription.StatusPaused))
	require.NoError(t, ext.OnSubscriptionStatusChanged(ctx, sub, subscription.StatusPaused, subscription.StatusActive))
	require.NoError(t, ext.OnSubscriptionStatusChanged(ctx, sub, subscription.StatusActive, subscription.StatusCancelled))
	// completion has its own hook
	require.NoError(t, ext.OnSubscriptionStatusChanged(ctx, sub, subscription.StatusActive, subscription.StatusCompleted))
	require.NoError(t, ext.OnDropOverdue(ctx, sub, 26*time.Hour))

	require.Len(t, *events, 5)
	got := make([]string, len(*events))
	for i, e := range *events {
		got[i] = e.Action
	}
	assert.Equal(t, []string{
		audithook.ActionSubscriptionCreated,
		audithook.ActionSubscriptionPaused,
		audithook.ActionSubscriptionResumed,
		audithook.ActionSubscriptionCancelled,
		audithook.ActionDropOverdue,
	}, got)

	created := (*events)[0]
	assert.Equal(t, sub.ID.String(), created.ResourceID)
	assert.Equal(t, sub.Order.String(), created.Metadata["order_id"])

	overdue := (*events)[4]
	assert.Equal(t, audithook.SeverityWarning, overdue.Severity)
	assert.Equal(t, audithook.OutcomeFailure, overdue.Outcome)
	assert.Equal(t, "26h0m0s", overdue.Metadata["overdue_by"])
}

func TestWalletEvents(t *testing.T) {
	events, rec := capture()
	ext := audithook.New(rec)
	ctx := context.Background()

	w := wallet.New(id.NewAccountID(), "ngn")
	require.NoError(t, ext.OnWalletCreated(ctx, w))

	tx, err := w.Credit(types.NGN(1000), "topup")
	require.NoError(t, err)
	require.NoError(t, ext.OnWalletTransaction(ctx, w, tx))

	tx, err = w.Lock(types.NGN(400), "hold")
	require.NoError(t, err)
	require.NoError(t, ext.OnWalletTransaction(ctx, w, tx))

	require.Len(t, *events, 3)
	assert.Equal(t, audithook.ActionWalletCreated, (*events)[0].Action)
	assert.Equal(t, audithook.ActionWalletCredited, (*events)[1].Action)
	assert.Equal(t, audithook.ActionFundsLocked, (*events)[2].Action)
	assert.Equal(t, "hold", (*events)[2].Metadata["reference"])
}

func TestEnabledActions(t *testing.T) {
	events, rec := capture()
	ext := audithook.New(rec, audithook.WithEnabledActions(audithook.ActionDropPaid))
	ctx := context.Background()
	sub := newSub(t)

	require.NoError(t, ext.OnSubscriptionCreated(ctx, sub))
	require.NoError(t, ext.OnDropPaid(ctx, sub, sub.DropSchedule[0]))

	require.Len(t, *events, 1)
	assert.Equal(t, audithook.ActionDropPaid, (*events)[0].Action)
}

func TestDisabledActions(t *testing.T) {
	events, rec := capture()
	ext := audithook.New(rec, audithook.WithDisabledActions(audithook.ActionSubscriptionCreated))
	ctx := context.Background()
	sub := newSub(t)

	require.NoError(t, ext.OnSubscriptionCreated(ctx, sub))
	require.NoError(t, ext.OnSubscriptionCompleted(ctx, sub))

	require.Len(t, *events, 1)
	assert.Equal(t, audithook.ActionSubscriptionCompleted, (*events)[0].Action)
}

func TestRecorderErrorIsSwallowed(t *testing.T) {
	rec := audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("backend down")
	})
	ext := audithook.New(rec, audithook.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	assert.NoError(t, ext.OnWalletCreated(context.Background(), wallet.New(id.NewAccountID(), "kes")))
}

func TestCategoryFilter(t *testing.T) {
	events, rec := capture()
	ext := audithook.New(rec,
		audithook.WithCategories(audithook.CategoryWallet),
		audithook.WithDisabledActions(audithook.ActionWalletCreated),
	)
	ctx := context.Background()
	sub := newSub(t)
	w := wallet.New(id.NewAccountID(), "ngn")

	require.NoError(t, ext.OnSubscriptionCreated(ctx, sub))
	require.NoError(t, ext.OnDropPaid(ctx, sub, sub.DropSchedule[0]))
	require.NoError(t, ext.OnWalletCreated(ctx, w))
	tx, err := w.Credit(types.NGN(5000), "topup")
	require.NoError(t, err)
	require.NoError(t, ext.OnWalletTransaction(ctx, w, tx))

	require.Len(t, *events, 1)
	assert.Equal(t, audithook.ActionWalletCredited, (*events)[0].Action)
}
