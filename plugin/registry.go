package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/drops/subscription"
	"github.com/xraph/drops/wallet"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit                      []OnInit
	onShutdown                  []OnShutdown
	onSubscriptionCreated       []OnSubscriptionCreated
	onDropPaid                  []OnDropPaid
	onSubscriptionCompleted     []OnSubscriptionCompleted
	onSubscriptionStatusChanged []OnSubscriptionStatusChanged
	onDropOverdue               []OnDropOverdue
	onWalletCreated             []OnWalletCreated
	onWalletTransaction         []OnWalletTransaction
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnSubscriptionCreated); ok {
		r.onSubscriptionCreated = append(r.onSubscriptionCreated, v)
	}
	if v, ok := p.(OnDropPaid); ok {
		r.onDropPaid = append(r.onDropPaid, v)
	}
	if v, ok := p.(OnSubscriptionCompleted); ok {
		r.onSubscriptionCompleted = append(r.onSubscriptionCompleted, v)
	}
	if v, ok := p.(OnSubscriptionStatusChanged); ok {
		r.onSubscriptionStatusChanged = append(r.onSubscriptionStatusChanged, v)
	}
	if v, ok := p.(OnDropOverdue); ok {
		r.onDropOverdue = append(r.onDropOverdue, v)
	}
	if v, ok := p.(OnWalletCreated); ok {
		r.onWalletCreated = append(r.onWalletCreated, v)
	}
	if v, ok := p.(OnWalletTransaction); ok {
		r.onWalletTransaction = append(r.onWalletTransaction, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeOf((*OnInit)(nil)).Elem()},
	{"OnShutdown", reflect.TypeOf((*OnShutdown)(nil)).Elem()},
	{"OnSubscriptionCreated", reflect.TypeOf((*OnSubscriptionCreated)(nil)).Elem()},
	{"OnDropPaid", reflect.TypeOf((*OnDropPaid)(nil)).Elem()},
	{"OnSubscriptionCompleted", reflect.TypeOf((*OnSubscriptionCompleted)(nil)).Elem()},
	{"OnSubscriptionStatusChanged", reflect.TypeOf((*OnSubscriptionStatusChanged)(nil)).Elem()},
	{"OnDropOverdue", reflect.TypeOf((*OnDropOverdue)(nil)).Elem()},
	{"OnWalletCreated", reflect.TypeOf((*OnWalletCreated)(nil)).Elem()},
	{"OnWalletTransaction", reflect.TypeOf((*OnWalletTransaction)(nil)).Elem()},
}

func implementedInterfaces(p Plugin) []string {
	var names []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			names = append(names, h.name)
		}
	}
	return names
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnInit", p.Name(), func() error {
			return p.OnInit(ctx, engine)
		})
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnShutdown", p.Name(), func() error {
			return p.OnShutdown(ctx)
		})
	}
}

// EmitSubscriptionCreated emits a subscription created event.
func (r *Registry) EmitSubscriptionCreated(ctx context.Context, sub *subscription.Subscription) {
	r.mu.RLock()
	plugins := r.onSubscriptionCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnSubscriptionCreated", p.Name(), func() error {
			return p.OnSubscriptionCreated(ctx, sub.Clone())
		})
	}
}

// EmitDropPaid emits a drop paid event.
func (r *Registry) EmitDropPaid(ctx context.Context, sub *subscription.Subscription, drop subscription.DropScheduleItem) {
	r.mu.RLock()
	plugins := r.onDropPaid
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnDropPaid", p.Name(), func() error {
			return p.OnDropPaid(ctx, sub.Clone(), drop)
		})
	}
}

// EmitSubscriptionCompleted emits a subscription completed event.
func (r *Registry) EmitSubscriptionCompleted(ctx context.Context, sub *subscription.Subscription) {
	r.mu.RLock()
	plugins := r.onSubscriptionCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnSubscriptionCompleted", p.Name(), func() error {
			return p.OnSubscriptionCompleted(ctx, sub.Clone())
		})
	}
}

// EmitSubscriptionStatusChanged emits a status change event.
func (r *Registry) EmitSubscriptionStatusChanged(ctx context.Context, sub *subscription.Subscription, from, to subscription.Status) {
	r.mu.RLock()
	plugins := r.onSubscriptionStatusChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnSubscriptionStatusChanged", p.Name(), func() error {
			return p.OnSubscriptionStatusChanged(ctx, sub.Clone(), from, to)
		})
	}
}

// EmitDropOverdue emits an overdue drop event.
func (r *Registry) EmitDropOverdue(ctx context.Context, sub *subscription.Subscription, overdueBy time.Duration) {
	r.mu.RLock()
	plugins := r.onDropOverdue
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnDropOverdue", p.Name(), func() error {
			return p.OnDropOverdue(ctx, sub.Clone(), overdueBy)
		})
	}
}

// EmitWalletCreated emits a wallet created event.
func (r *Registry) EmitWalletCreated(ctx context.Context, w *wallet.Wallet) {
	r.mu.RLock()
	plugins := r.onWalletCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnWalletCreated", p.Name(), func() error {
			return p.OnWalletCreated(ctx, w.Clone())
		})
	}
}

// EmitWalletTransaction emits a wallet transaction event.
func (r *Registry) EmitWalletTransaction(ctx context.Context, w *wallet.Wallet, tx *wallet.Transaction) {
	r.mu.RLock()
	plugins := r.onWalletTransaction
	r.mu.RUnlock()

	for _, p := range plugins {
		r.dispatch(ctx, "OnWalletTransaction", p.Name(), func() error {
			return p.OnWalletTransaction(ctx, w.Clone(), tx)
		})
	}
}

func (r *Registry) dispatch(ctx context.Context, hook, pluginName string, fn func() error) {
	if err := r.callWithTimeout(ctx, pluginName, fn); err != nil {
		r.logger.Warn("plugin "+hook+" failed",
			"plugin", pluginName,
			"error", err,
		)
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the payment pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
