package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/xraph/drops/id"
	"github.com/xraph/drops/plugin"
	"github.com/xraph/drops/subscription"
	"github.com/xraph/drops/wallet"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                      = (*Extension)(nil)
	_ plugin.OnShutdown                  = (*Extension)(nil)
	_ plugin.OnSubscriptionCreated       = (*Extension)(nil)
	_ plugin.OnSubscriptionStatusChanged = (*Extension)(nil)
	_ plugin.OnSubscriptionCompleted     = (*Extension)(nil)
	_ plugin.OnDropPaid                  = (*Extension)(nil)
	_ plugin.OnDropOverdue               = (*Extension)(nil)
	_ plugin.OnWalletCreated             = (*Extension)(nil)
	_ plugin.OnWalletTransaction         = (*Extension)(nil)
)

// BreakerConfig tunes the circuit breaker guarding the publisher.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens
	// the breaker.
	FailureThreshold uint32
	// MaxRequests is the number of trial publishes allowed half-open.
	MaxRequests uint32
	// Interval clears the closed-state counts. Zero never clears them.
	Interval time.Duration
	// Timeout is how long the breaker stays open.
	Timeout time.Duration
}

// DefaultBreakerConfig returns the breaker settings used by New.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
	}
}

// Option configures an Extension.
type Option func(*Extension)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extension) { e.logger = logger }
}

// WithBreaker overrides the circuit breaker settings.
func WithBreaker(cfg BreakerConfig) Option {
	return func(e *Extension) { e.breakerCfg = cfg }
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Extension) { e.now = now }
}

// Extension is a plugin that publishes every lifecycle hook as an Event.
// Publishing goes through a circuit breaker so a dead broker fails fast.
type Extension struct {
	pub        Publisher
	breaker    *gobreaker.CircuitBreaker[any]
	breakerCfg BreakerConfig
	logger     *slog.Logger
	now        func() time.Time
}

// New creates an Extension publishing through pub.
func New(pub Publisher, opts ...Option) *Extension {
	e := &Extension{
		pub:        pub,
		breakerCfg: DefaultBreakerConfig(),
		logger:     slog.Default(),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}

	cfg := e.breakerCfg
	e.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "drops-eventbus",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			e.logger.Warn("eventbus breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "eventbus" }

// State reports the breaker state.
func (e *Extension) State() gobreaker.State { return e.breaker.State() }

// OnShutdown implements plugin.OnShutdown and closes the publisher.
func (e *Extension) OnShutdown(_ context.Context) error {
	return e.pub.Close()
}

// OnSubscriptionCreated implements plugin.OnSubscriptionCreated.
func (e *Extension) OnSubscriptionCreated(ctx context.Context, sub *subscription.Subscription) error {
	return e.publish(ctx, KeySubscriptionCreated, sub.ID.String(), sub)
}

// OnSubscriptionStatusChanged implements plugin.OnSubscriptionStatusChanged.
func (e *Extension) OnSubscriptionStatusChanged(ctx context.Context, sub *subscription.Subscription, from, to subscription.Status) error {
	return e.publish(ctx, KeySubscriptionStatus, sub.ID.String(), StatusChange{
		SubscriptionID: sub.ID,
		From:           string(from),
		To:             string(to),
	})
}

// OnSubscriptionCompleted implements plugin.OnSubscriptionCompleted.
func (e *Extension) OnSubscriptionCompleted(ctx context.Context, sub *subscription.Subscription) error {
	return e.publish(ctx, KeySubscriptionCompleted, sub.ID.String(), sub)
}

// OnDropPaid implements plugin.OnDropPaid.
func (e *Extension) OnDropPaid(ctx context.Context, sub *subscription.Subscription, drop subscription.DropScheduleItem) error {
	return e.publish(ctx, KeyDropPaid, sub.ID.String(), DropPayment{
		SubscriptionID: sub.ID,
		DropID:         drop.ID,
		Amount:         drop.Amount.Amount,
		Currency:       drop.Amount.Currency,
		TransactionRef: drop.TransactionRef,
		DropsPaid:      sub.DropsPaid,
		TotalDrops:     sub.TotalDrops,
	})
}

// OnDropOverdue implements plugin.OnDropOverdue.
func (e *Extension) OnDropOverdue(ctx context.Context, sub *subscription.Subscription, overdueBy time.Duration) error {
	return e.publish(ctx, KeyDropOverdue, sub.ID.String(), Overdue{
		SubscriptionID: sub.ID,
		NextDropDate:   sub.NextDropDate,
		OverdueSeconds: int64(overdueBy / time.Second),
	})
}

// OnWalletCreated implements plugin.OnWalletCreated.
func (e *Extension) OnWalletCreated(ctx context.Context, w *wallet.Wallet) error {
	return e.publish(ctx, KeyWalletCreated, w.ID.String(), w)
}

// OnWalletTransaction implements plugin.OnWalletTransaction.
func (e *Extension) OnWalletTransaction(ctx context.Context, w *wallet.Wallet, tx *wallet.Transaction) error {
	return e.publish(ctx, KeyWalletTransaction, w.ID.String(), tx)
}

func (e *Extension) publish(ctx context.Context, key, subject string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("eventbus: encode %s: %w", key, err)
	}
	payload, err := json.Marshal(Event{
		ID:         id.NewEventID(),
		Type:       key,
		OccurredAt: e.now(),
		Subject:    subject,
		Data:       raw,
	})
	if err != nil {
		return fmt.Errorf("eventbus: encode envelope %s: %w", key, err)
	}

	_, err = e.breaker.Execute(func() (any, error) {
		return nil, e.pub.Publish(ctx, key, payload)
	})
	if err != nil {
		return fmt.Errorf("eventbus: %s: %w", key, err)
	}
	return nil
}
