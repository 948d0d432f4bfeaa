// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/lemonberrylabs/webrpg-engine/pkg/chat"
)

// Config is the server configuration. Command-line flags override it.
type Config struct {
	Host        string `env:"WEBRPG_HOST" envDefault:"0.0.0.0"`
	Port        int    `env:"WEBRPG_PORT" envDefault:"8787"`
	GRPCPort    int    `env:"WEBRPG_GRPC_PORT" envDefault:"8788"`
	RuleSetsDir string `env:"WEBRPG_RULESETS_DIR"`
	DefaultMode string `env:"WEBRPG_DEFAULT_MODE" envDefault:"additive"`

	// PushGateway is the Prometheus push gateway URL. Empty disables pushing.
	PushGateway  string        `env:"WEBRPG_PUSHGATEWAY_URL"`
	PushInterval time.Duration `env:"WEBRPG_PUSH_INTERVAL" envDefault:"15s"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ports, the push interval and the default dice mode.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.GRPCPort < 0 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port %d", c.GRPCPort)
	}
	if c.Port != 0 && c.Port == c.GRPCPort {
		return fmt.Errorf("HTTP and gRPC ports must differ (both %d)", c.Port)
	}
	if c.PushGateway != "" && c.PushInterval <= 0 {
		return fmt.Errorf("push interval must be positive, got %s", c.PushInterval)
	}
	if _, err := chat.ParseMode(c.DefaultMode); err != nil {
		return err
	}
	return nil
}

// Mode returns the parsed default dice mode. Validate must have succeeded.
func (c Config) Mode() chat.Mode {
	m, err := chat.ParseMode(c.DefaultMode)
	if err != nil {
		return chat.ModeAdditive
	}
	return m
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// GRPCAddr returns the gRPC listen address.
func (c Config) GRPCAddr() string {
	return c.Host + ":" + strconv.Itoa(c.GRPCPort)
}
