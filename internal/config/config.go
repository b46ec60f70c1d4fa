// Package config loads the engine's runtime configuration, generalizing
// the teacher's pkg/types.ServerConfig (previously hydrated only from
// flags in cmd/server/main.go) into a file/env-driven loader via
// spf13/viper, with flags retained as final overrides.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the engine's full runtime configuration.
type Config struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	EnableMetrics bool `mapstructure:"enable_metrics"`
	MetricsPort   int  `mapstructure:"metrics_port"`

	// ProviderTimeout bounds every MarketDataProvider call (spec.md §5:
	// "a provider call that exceeds a per-request deadline (default 10s)
	// must be aborted with DataUnavailable").
	ProviderTimeout time.Duration `mapstructure:"provider_timeout"`

	// StreamStepDelay is an optional, non-mandated pacing delay between
	// stream step events purely for animation readability (spec.md §4.6:
	// "implementations MAY insert small delays").
	StreamStepDelay time.Duration `mapstructure:"stream_step_delay"`

	// LiveFanOutCadence is the live price fan-out's target send interval
	// (spec.md §4.7: "bounded cadence (target <= 1s)").
	LiveFanOutCadence time.Duration `mapstructure:"live_fanout_cadence"`
}

// Load builds a Config from (in ascending precedence) built-in
// defaults, an optional config file, and QUANT_-prefixed environment
// variables, the same file+env-over-defaults shape the teacher's
// flag-populated ServerConfig would have used had it read from
// anything but flags.
func Load(configPath string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("QUANT")
	v.AutomaticEnv()

	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8080)
	v.SetDefault("enable_metrics", true)
	v.SetDefault("metrics_port", 9090)
	v.SetDefault("provider_timeout", 10*time.Second)
	v.SetDefault("stream_step_delay", 0)
	v.SetDefault("live_fanout_cadence", 1*time.Second)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return Config{}, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
