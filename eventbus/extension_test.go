package eventbus_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/drops/eventbus"
	"github.com/xraph/drops/id"
	"github.com/xraph/drops/subscription"
	"github.com/xraph/drops/types"
	"github.com/xraph/drops/wallet"
)

type message struct {
	key     string
	payload []byte
}

type capturePublisher struct {
	mu     sync.Mutex
	msgs   []message
	err    error
	calls  int
	closed bool
}

func (p *capturePublisher) Publish(_ context.Context, key string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, message{key: key, payload: payload})
	return nil
}

func (p *capturePublisher) Close() error {
	p.closed = true
	return nil
}

var fixedNow = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func quiet() eventbus.Option {
	return eventbus.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newSub(t *testing.T) *subscription.Subscription {
	t.Helper()
	sub, err := subscription.New(subscription.NewParams{
		Owner:       id.NewAccountID(),
		Order:       id.NewOrderID(),
		PaymentPlan: subscription.PlanPaySmallSmall,
		Frequency:   subscription.FrequencyBiweekly,
		TotalAmount: types.NGN(250000),
		TotalDrops:  5,
	}, fixedNow)
	require.NoError(t, err)
	return sub
}

func TestPublishesEnvelope(t *testing.T) {
	pub := &capturePublisher{}
	ext := eventbus.New(pub, quiet(), eventbus.WithClock(func() time.Time { return fixedNow }))
	ctx := context.Background()
	sub := newSub(t)

	require.NoError(t, ext.OnDropPaid(ctx, sub, sub.DropSchedule[0]))
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, eventbus.KeyDropPaid, pub.msgs[0].key)

	var evt eventbus.Event
	require.NoError(t, json.Unmarshal(pub.msgs[0].payload, &evt))
	assert.Equal(t, eventbus.KeyDropPaid, evt.Type)
	assert.Equal(t, sub.ID.String(), evt.Subject)
	assert.True(t, evt.OccurredAt.Equal(fixedNow))
	assert.Equal(t, id.PrefixEvent, evt.ID.Prefix())

	var data eventbus.DropPayment
	require.NoError(t, json.Unmarshal(evt.Data, &data))
	assert.Equal(t, sub.DropSchedule[0].ID.String(), data.DropID.String())
	assert.Equal(t, int64(50000), data.Amount)
	assert.Equal(t, "ngn", data.Currency)
	assert.Equal(t, 5, data.TotalDrops)
}

func TestRoutingKeys(t *testing.T) {
	pub := &capturePublisher{}
	ext := eventbus.New(pub, quiet())
	ctx := context.Background()
	sub := newSub(t)
	w := wallet.New(sub.Owner, "ngn")
	tx, err := w.Credit(types.NGN(100), "ref")
	require.NoError(t, err)

	require.NoError(t, ext.OnSubscriptionCreated(ctx, sub))
	require.NoError(t, ext.OnSubscriptionStatusChanged(ctx, sub, subscription.StatusActive, subscription.StatusPaused))
	require.NoError(t, ext.OnSubscriptionCompleted(ctx, sub))
	require.NoError(t, ext.OnDropOverdue(ctx, sub, 90*time.Minute))
	require.NoError(t, ext.OnWalletCreated(ctx, w))
	require.NoError(t, ext.OnWalletTransaction(ctx, w, tx))

	keys := make([]string, len(pub.msgs))
	for i, m := range pub.msgs {
		keys[i] = m.key
	}
	assert.Equal(t, []string{
		eventbus.KeySubscriptionCreated,
		eventbus.KeySubscriptionStatus,
		eventbus.KeySubscriptionCompleted,
		eventbus.KeyDropOverdue,
		eventbus.KeyWalletCreated,
		eventbus.KeyWalletTransaction,
	}, keys)

	var evt eventbus.Event
	require.NoError(t, json.Unmarshal(pub.msgs[3].payload, &evt))
	var overdue eventbus.Overdue
	require.NoError(t, json.Unmarshal(evt.Data, &overdue))
	assert.Equal(t, int64(5400), overdue.OverdueSeconds)
}

func TestBreakerOpensOnFailures(t *testing.T) {
	pub := &capturePublisher{err: errors.New("connection refused")}
	ext := eventbus.New(pub, quiet(), eventbus.WithBreaker(eventbus.BreakerConfig{
		FailureThreshold: 2,
		MaxRequests:      1,
		Timeout:          time.Hour,
	}))
	ctx := context.Background()
	sub := newSub(t)

	assert.Error(t, ext.OnSubscriptionCreated(ctx, sub))
	assert.Error(t, ext.OnSubscriptionCreated(ctx, sub))
	assert.Equal(t, gobreaker.StateOpen, ext.State())

	err := ext.OnSubscriptionCreated(ctx, sub)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, pub.calls)
}

func TestShutdownClosesPublisher(t *testing.T) {
	pub := &capturePublisher{}
	ext := eventbus.New(pub, quiet())
	require.NoError(t, ext.OnShutdown(context.Background()))
	assert.True(t, pub.closed)
}

func TestNoopPublisher(t *testing.T) {
	p := eventbus.NewNoopPublisher(slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.NoError(t, p.Publish(context.Background(), "k", []byte("{}")))
	assert.NoError(t, p.Close())
}
