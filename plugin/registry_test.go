package plugin_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/drops/id"
	"github.com/xraph/drops/plugin"
	"github.com/xraph/drops/subscription"
	"github.com/xraph/drops/types"
	"github.com/xraph/drops/wallet"
)

type recorder struct {
	name string
	mu   sync.Mutex
	seen []string
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) add(s string) {
	r.mu.Lock()
	r.seen = append(r.seen, s)
	r.mu.Unlock()
}

func (r *recorder) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

func (r *recorder) OnSubscriptionCreated(_ context.Context, sub *subscription.Subscription) error {
	sub.Status = subscription.StatusCancelled
	r.add("created")
	return nil
}

func (r *recorder) OnSubscriptionStatusChanged(_ context.Context, _ *subscription.Subscription, from, to subscription.Status) error {
	r.add(string(from) + "->" + string(to))
	return nil
}

func (r *recorder) OnWalletTransaction(_ context.Context, _ *wallet.Wallet, tx *wallet.Transaction) error {
	r.add(string(tx.Type))
	return nil
}

type failing struct{}

func (failing) Name() string { return "failing" }

func (failing) OnSubscriptionCreated(context.Context, *subscription.Subscription) error {
	return errors.New("boom")
}

type slow struct{ release chan struct{} }

func (slow) Name() string { return "slow" }

func (s slow) OnSubscriptionCreated(context.Context, *subscription.Subscription) error {
	<-s.release
	return nil
}

func quietRegistry() *plugin.Registry {
	return plugin.NewRegistry().WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testSub(t *testing.T) *subscription.Subscription {
	t.Helper()
	sub, err := subscription.New(subscription.NewParams{
		Owner:       id.NewAccountID(),
		Order:       id.NewOrderID(),
		PaymentPlan: subscription.PlanPaySmallSmall,
		Frequency:   subscription.FrequencyDaily,
		TotalAmount: types.KES(9000),
		TotalDrops:  3,
	}, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	return sub
}

func TestRegisterDuplicate(t *testing.T) {
	r := quietRegistry()
	require.NoError(t, r.Register(&recorder{name: "rec"}))
	assert.Error(t, r.Register(&recorder{name: "rec"}))
	assert.Equal(t, 1, r.Count())
	assert.NotNil(t, r.Get("rec"))
	assert.Nil(t, r.Get("missing"))
	assert.Len(t, r.List(), 1)
}

func TestEmitDispatchesToImplementers(t *testing.T) {
	r := quietRegistry()
	rec := &recorder{name: "rec"}
	require.NoError(t, r.Register(rec))
	require.NoError(t, r.Register(failing{}))

	ctx := context.Background()
	sub := testSub(t)

	r.EmitSubscriptionCreated(ctx, sub)
	r.EmitSubscriptionStatusChanged(ctx, sub, subscription.StatusActive, subscription.StatusPaused)
	r.EmitDropPaid(ctx, sub, sub.DropSchedule[0])

	w := wallet.New(id.NewAccountID(), "kes")
	tx, err := w.Credit(types.KES(100), "ref")
	require.NoError(t, err)
	r.EmitWalletTransaction(ctx, w, tx)

	assert.Equal(t, []string{"created", "active->paused", "credit"}, rec.events())
	// hooks receive copies
	assert.Equal(t, subscription.StatusActive, sub.Status)
}

func TestEmitTimeout(t *testing.T) {
	r := quietRegistry().WithTimeout(20 * time.Millisecond)
	s := slow{release: make(chan struct{})}
	defer close(s.release)
	rec := &recorder{name: "rec"}
	require.NoError(t, r.Register(s))
	require.NoError(t, r.Register(rec))

	begin := time.Now()
	r.EmitSubscriptionCreated(context.Background(), testSub(t))

	assert.Less(t, time.Since(begin), 2*time.Second)
	assert.Equal(t, []string{"created"}, rec.events())
}

func TestEmitCancelledContext(t *testing.T) {
	r := quietRegistry()
	s := slow{release: make(chan struct{})}
	defer close(s.release)
	require.NoError(t, r.Register(s))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sub := testSub(t)
	done := make(chan struct{})
	go func() {
		r.EmitSubscriptionCreated(ctx, sub)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("emit did not return after context cancellation")
	}
}
