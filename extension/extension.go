// Package extension provides the Forge extension adapter for drops.
//
// It implements the forge.Extension interface to integrate the drops engine
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.drops" or "drops" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/drops"
	"github.com/xraph/drops/eventbus"
	"github.com/xraph/drops/lock"
	"github.com/xraph/drops/observability"
	"github.com/xraph/drops/store"
	"github.com/xraph/drops/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "drops"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Installment subscriptions and customer wallets"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the drops engine as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *drops.Engine
	store      store.Store
	redis      redis.UniversalClient
	engineOpts []drops.Option
}

// New creates a new drops Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying drops engine.
// This is nil until Register is called.
func (e *Extension) Engine() *drops.Engine { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	opts, err := e.buildEngineOpts()
	if err != nil {
		return err
	}

	e.engine = drops.New(e.store, opts...)

	return vessel.Provide(fapp.Container(), func() (*drops.Engine, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("drops: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	defer e.MarkStopped()

	var errs []error
	if e.engine != nil {
		errs = append(errs, e.engine.Stop())
	}
	if e.redis != nil {
		errs = append(errs, e.redis.Close())
	}
	return errors.Join(errs...)
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("drops: store not initialized")
	}
	if err := e.store.Ping(ctx); err != nil {
		return err
	}
	if e.redis != nil {
		if err := e.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("drops: redis lock: %w", err)
		}
	}
	return nil
}

// buildEngineOpts constructs drops.Option values from the resolved config.
func (e *Extension) buildEngineOpts() ([]drops.Option, error) {
	opts := make([]drops.Option, 0, len(e.engineOpts)+6)

	if e.config.DisableMigrate {
		opts = append(opts, drops.WithoutMigrate())
	}

	schedule := e.config.SweepSchedule
	if e.config.DisableSweep {
		schedule = ""
	}
	opts = append(opts,
		drops.WithSweepSchedule(schedule, e.config.SweepBatchSize),
		drops.WithPluginTimeout(e.config.PluginTimeout),
	)
	if e.config.UpdateRetries != nil {
		opts = append(opts, drops.WithUpdateRetries(*e.config.UpdateRetries))
	}

	if len(e.config.RedisAddrs) > 0 {
		e.redis = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    e.config.RedisAddrs,
			Password: e.config.RedisPassword,
		})
		opts = append(opts, drops.WithLocker(lock.NewRedis(e.redis, lock.RedisOptions{}), e.config.LockTTL))
	} else {
		opts = append(opts, drops.WithLocker(lock.NewMemory(), e.config.LockTTL))
	}

	if e.config.AMQPURL != "" {
		pub, err := eventbus.NewRabbitMQPublisher(e.config.AMQPURL, e.config.AMQPExchange, nil)
		if err != nil {
			return nil, fmt.Errorf("drops: event publisher: %w", err)
		}
		opts = append(opts, drops.WithPlugin(eventbus.New(pub)))
	}

	if e.config.EnableMetrics {
		factory := observability.NewPrometheusFactory(nil)
		opts = append(opts, drops.WithPlugin(observability.NewMetricsExtension(factory)))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts, nil
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("drops: configuration is required but not found in config files; " +
				"ensure 'extensions.drops' or 'drops' key exists in your config")
		}

		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("drops: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("sweep_schedule", e.config.SweepSchedule),
		forge.F("disable_sweep", e.config.DisableSweep),
		forge.F("lock_ttl", e.config.LockTTL),
		forge.F("redis_lock", len(e.config.RedisAddrs) > 0),
		forge.F("amqp", e.config.AMQPURL != ""),
		forge.F("metrics", e.config.EnableMetrics),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	cfg, key, ok, errs := bindConfig(
		func(k string) bool { return cm.IsSet(k) },
		func(k string, target any) error { return cm.Bind(k, target) },
	)
	for _, err := range errs {
		e.Logger().Warn("drops: failed to bind config",
			forge.F("error", err.Error()),
		)
	}
	if ok {
		e.Logger().Debug("drops: loaded config from file",
			forge.F("key", key),
		)
	}
	return cfg, ok
}

// bindConfig binds the first set key of "extensions.drops" and "drops".
// Bind failures are returned so the caller can report them.
func bindConfig(isSet func(string) bool, bind func(string, any) error) (cfg Config, key string, ok bool, errs []error) {
	for _, k := range []string{"extensions.drops", "drops"} {
		if !isSet(k) {
			continue
		}
		var c Config
		if err := bind(k, &c); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
			continue
		}
		return c, k, true, errs
	}
	return Config{}, "", false, errs
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.SweepSchedule == "" {
		cfg.SweepSchedule = defaults.SweepSchedule
	}
	if cfg.SweepBatchSize == 0 {
		cfg.SweepBatchSize = defaults.SweepBatchSize
	}
	if cfg.LockTTL == 0 {
		cfg.LockTTL = defaults.LockTTL
	}
	if cfg.UpdateRetries == nil {
		cfg.UpdateRetries = defaults.UpdateRetries
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	if cfg.AMQPExchange == "" {
		cfg.AMQPExchange = defaults.AMQPExchange
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.DisableSweep {
		yamlConfig.DisableSweep = true
	}
	if programmaticConfig.EnableMetrics {
		yamlConfig.EnableMetrics = true
	}

	if yamlConfig.SweepSchedule == "" {
		yamlConfig.SweepSchedule = programmaticConfig.SweepSchedule
	}
	if yamlConfig.SweepBatchSize == 0 {
		yamlConfig.SweepBatchSize = programmaticConfig.SweepBatchSize
	}
	if yamlConfig.LockTTL == 0 {
		yamlConfig.LockTTL = programmaticConfig.LockTTL
	}
	if yamlConfig.UpdateRetries == nil {
		yamlConfig.UpdateRetries = programmaticConfig.UpdateRetries
	}
	if yamlConfig.PluginTimeout == 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}
	if len(yamlConfig.RedisAddrs) == 0 {
		yamlConfig.RedisAddrs = programmaticConfig.RedisAddrs
		yamlConfig.RedisPassword = programmaticConfig.RedisPassword
	}
	if yamlConfig.AMQPURL == "" {
		yamlConfig.AMQPURL = programmaticConfig.AMQPURL
	}
	if yamlConfig.AMQPExchange == "" {
		yamlConfig.AMQPExchange = programmaticConfig.AMQPExchange
	}

	// Fill remaining zeros with defaults.
	return mergeWithDefaults(yamlConfig)
}
