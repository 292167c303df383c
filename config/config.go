// Package config provides configuration management for goguard.
package config

import (
	"golang.org/x/time/rate"

	"github.com/victoralfred/goguard/observability"
	"github.com/victoralfred/goguard/pool"
)

// Config is the main configuration for goguard.
type Config struct {
	Telemetry observability.TelemetryConfig
	Audit     observability.AuditConfig
	Pool      pool.Config
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Pool:      pool.DefaultConfig(),
		Telemetry: observability.DefaultTelemetryConfig(),
		Audit:     observability.DefaultAuditConfig(),
	}
}

// DevelopmentConfig returns configuration suitable for development.
func DevelopmentConfig() Config {
	cfg := DefaultConfig()
	cfg.Pool.MaxActive = 128
	cfg.Pool.MaxIdle = 32
	cfg.Audit.LogLevel = observability.AuditLogAll
	return cfg
}

// ProductionConfig returns configuration suitable for production.
func ProductionConfig() Config {
	cfg := DefaultConfig()
	cfg.Pool.MaxActive = 64
	cfg.Pool.MaxIdle = 16
	cfg.Pool.AcquireRate = rate.Limit(100)
	cfg.Pool.AcquireBurst = 150
	cfg.Telemetry.Environment = "production"
	cfg.Audit.LogLevel = observability.AuditLogAll
	return cfg
}

// RestrictedConfig returns highly restrictive configuration.
func RestrictedConfig() Config {
	cfg := ProductionConfig()
	cfg.Pool.MaxActive = 10
	cfg.Pool.MaxIdle = 2
	cfg.Pool.AcquireStrategy = pool.StrategyReject
	cfg.Pool.AcquireRate = rate.Limit(10)
	cfg.Pool.AcquireBurst = 20
	return cfg
}

// Validate validates the configuration, normalizing invalid fields.
func (c *Config) Validate() error {
	if c.Pool.MaxActive <= 0 {
		c.Pool.MaxActive = pool.DefaultConfig().MaxActive
	}

	if c.Pool.MaxIdle < 0 {
		c.Pool.MaxIdle = 0
	}

	if c.Pool.MaxIdle > c.Pool.MaxActive {
		c.Pool.MaxIdle = c.Pool.MaxActive
	}

	if c.Pool.AcquireRate > 0 && c.Pool.AcquireBurst <= 0 {
		c.Pool.AcquireBurst = 1
	}

	return nil
}
