package extension

import "time"

// Config holds the drops extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.drops" or "drops" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// SweepSchedule is the cron expression of the overdue sweep (default: "@every 1h").
	// Set DisableSweep to turn the sweep off.
	SweepSchedule string `json:"sweep_schedule" mapstructure:"sweep_schedule" yaml:"sweep_schedule"`

	// SweepBatchSize caps how many due subscriptions one sweep visits (default: 500).
	SweepBatchSize int `json:"sweep_batch_size" mapstructure:"sweep_batch_size" yaml:"sweep_batch_size"`

	// DisableSweep turns the overdue sweep off.
	DisableSweep bool `json:"disable_sweep" mapstructure:"disable_sweep" yaml:"disable_sweep"`

	// LockTTL bounds how long a per-record lock is held (default: 10s).
	LockTTL time.Duration `json:"lock_ttl" mapstructure:"lock_ttl" yaml:"lock_ttl"`

	// UpdateRetries is how often a mutation is replayed after losing a
	// version race (default: 3). Nil means unset; 0 disables retries.
	UpdateRetries *int `json:"update_retries" mapstructure:"update_retries" yaml:"update_retries"`

	// PluginTimeout bounds each plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// RedisAddrs switches locking to Redis when non-empty.
	RedisAddrs []string `json:"redis_addrs" mapstructure:"redis_addrs" yaml:"redis_addrs"`

	// RedisPassword authenticates the Redis lock client.
	RedisPassword string `json:"redis_password" mapstructure:"redis_password" yaml:"redis_password"`

	// AMQPURL enables the RabbitMQ event publisher when set.
	AMQPURL string `json:"amqp_url" mapstructure:"amqp_url" yaml:"amqp_url"`

	// AMQPExchange is the topic exchange for events (default: "drops.events").
	AMQPExchange string `json:"amqp_exchange" mapstructure:"amqp_exchange" yaml:"amqp_exchange"`

	// EnableMetrics registers the Prometheus metrics plugin.
	EnableMetrics bool `json:"enable_metrics" mapstructure:"enable_metrics" yaml:"enable_metrics"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SweepSchedule:  "@every 1h",
		SweepBatchSize: 500,
		LockTTL:        10 * time.Second,
		UpdateRetries:  intPtr(3),
		PluginTimeout:  5 * time.Second,
		AMQPExchange:   "drops.events",
	}
}

func intPtr(n int) *int { return &n }
