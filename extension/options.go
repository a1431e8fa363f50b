package extension

import (
	"time"

	"github.com/xraph/drops"
	"github.com/xraph/drops/plugin"
	"github.com/xraph/drops/store"
)

// Option configures the drops Forge extension.
type Option func(*Extension)

// WithStore sets the store for the drops engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithEngineOption passes a drops.Option through to the underlying engine.
func WithEngineOption(opt drops.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a drops plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, drops.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithSweepSchedule sets the overdue sweep cron expression and batch size.
func WithSweepSchedule(expr string, batchSize int) Option {
	return func(e *Extension) {
		e.config.SweepSchedule = expr
		e.config.SweepBatchSize = batchSize
	}
}

// WithDisableSweep turns the overdue sweep off.
func WithDisableSweep() Option {
	return func(e *Extension) { e.config.DisableSweep = true }
}

// WithLockTTL sets the per-record lock TTL.
func WithLockTTL(d time.Duration) Option {
	return func(e *Extension) { e.config.LockTTL = d }
}

// WithUpdateRetries sets how often a mutation is replayed after a version
// conflict. 0 disables retries.
func WithUpdateRetries(n int) Option {
	return func(e *Extension) { e.config.UpdateRetries = &n }
}

// WithRedisLock locks through Redis at the given addresses.
func WithRedisLock(password string, addrs ...string) Option {
	return func(e *Extension) {
		e.config.RedisAddrs = addrs
		e.config.RedisPassword = password
	}
}

// WithAMQP publishes lifecycle events to RabbitMQ.
func WithAMQP(url, exchange string) Option {
	return func(e *Extension) {
		e.config.AMQPURL = url
		e.config.AMQPExchange = exchange
	}
}

// WithMetrics registers the Prometheus metrics plugin.
func WithMetrics() Option {
	return func(e *Extension) { e.config.EnableMetrics = true }
}
