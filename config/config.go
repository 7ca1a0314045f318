// Package config loads the engine process's configuration from a
// YAML file with environment-variable overrides, via Viper — grounded on
// the broader example pack's config-loading convention rather than the
// teacher (which has no CLI/config layer of its own) per SPEC_FULL.md
// §6.1.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full set of settings cmd/obcore needs to stand up the
// engine and its transports.
type Config struct {
	Symbols []string `mapstructure:"symbols"`

	Engine EngineConfig `mapstructure:"engine"`
	Listen ListenConfig `mapstructure:"listen"`
}

type EngineConfig struct {
	InboundQueueSize int           `mapstructure:"inbound_queue_size"`
	ShutdownTimeout  time.Duration `mapstructure:"shutdown_timeout"`
}

type ListenConfig struct {
	CSV       string `mapstructure:"csv"`
	Binary    string `mapstructure:"binary"`
	Multicast string `mapstructure:"multicast"`
	WebSocket string `mapstructure:"websocket"`
}

func defaults() Config {
	return Config{
		Symbols: []string{"IBM"},
		Engine: EngineConfig{
			InboundQueueSize: 32768,
			ShutdownTimeout:  5 * time.Second,
		},
		Listen: ListenConfig{
			CSV:       ":7001",
			Binary:    ":7002",
			Multicast: "239.0.0.1:7003",
			WebSocket: ":7004",
		},
	}
}

// Load reads configuration from path (if non-empty; a path that cannot be
// read is an error), layers
// OBCORE_-prefixed environment variables on top, and falls back to
// defaults() for anything neither source sets.
func Load(path string) (Config, error) {
	v := viper.New()

	d := defaults()
	v.SetDefault("symbols", d.Symbols)
	v.SetDefault("engine.inbound_queue_size", d.Engine.InboundQueueSize)
	v.SetDefault("engine.shutdown_timeout", d.Engine.ShutdownTimeout)
	v.SetDefault("listen.csv", d.Listen.CSV)
	v.SetDefault("listen.binary", d.Listen.Binary)
	v.SetDefault("listen.multicast", d.Listen.Multicast)
	v.SetDefault("listen.websocket", d.Listen.WebSocket)

	v.SetEnvPrefix("OBCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	if len(cfg.Symbols) == 0 {
		return Config{}, fmt.Errorf("config: at least one symbol must be configured")
	}

	return cfg, nil
}
