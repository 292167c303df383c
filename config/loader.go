package config

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/victoralfred/gowritter/safepath"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/victoralfred/goguard/observability"
	"github.com/victoralfred/goguard/pool"
)

// Loader loads and manages configuration from YAML files.
type Loader struct {
	path       string
	safePath   *safepath.SafePath
	config     *Config
	lastHash   []byte
	lastLoad   time.Time
	validators []Validator
	onChange   []func(*Config)
	mu         sync.RWMutex
}

// Validator validates a loaded configuration.
type Validator interface {
	Validate(config *Config) error
}

// LoaderOption configures the loader.
type LoaderOption func(*Loader)

// WithValidator adds a configuration validator.
func WithValidator(v Validator) LoaderOption {
	return func(l *Loader) {
		l.validators = append(l.validators, v)
	}
}

// WithOnChange adds a callback for configuration changes.
func WithOnChange(fn func(*Config)) LoaderOption {
	return func(l *Loader) {
		l.onChange = append(l.onChange, fn)
	}
}

// NewLoader creates a new configuration loader.
func NewLoader(basePath, configFile string, opts ...LoaderOption) (*Loader, error) {
	sp, err := safepath.New(basePath)
	if err != nil {
		return nil, fmt.Errorf("creating safe path: %w", err)
	}

	l := &Loader{
		path:       configFile,
		safePath:   sp,
		validators: make([]Validator, 0),
		onChange:   make([]func(*Config), 0),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l, nil
}

// Load loads the configuration from the file.
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := l.safePath.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Skip re-parsing when the file is unchanged.
	hash := sha256.Sum256(data)
	if l.config != nil && string(hash[:]) == string(l.lastHash) {
		return l.config, nil
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	cfg, err := file.toConfig()
	if err != nil {
		return nil, fmt.Errorf("compiling config: %w", err)
	}

	for _, v := range l.validators {
		if err := v.Validate(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	l.config = cfg
	l.lastHash = hash[:]
	l.lastLoad = time.Now()

	for _, fn := range l.onChange {
		fn(cfg)
	}

	return cfg, nil
}

// Get returns the current configuration without reloading.
func (l *Loader) Get() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.config
}

// fileConfig is the YAML schema for configuration files.
type fileConfig struct {
	Version string `yaml:"version"`

	Pool struct {
		Origin          string  `yaml:"origin"`
		MaxIdle         int     `yaml:"max_idle"`
		MaxActive       int     `yaml:"max_active"`
		AcquireStrategy string  `yaml:"acquire_strategy"`
		AcquireRate     float64 `yaml:"acquire_rate"`
		AcquireBurst    int     `yaml:"acquire_burst"`
	} `yaml:"pool"`

	Telemetry struct {
		ServiceName    string `yaml:"service_name"`
		ServiceVersion string `yaml:"service_version"`
		Environment    string `yaml:"environment"`
		EnableTracing  *bool  `yaml:"enable_tracing"`
		EnableMetrics  *bool  `yaml:"enable_metrics"`
		MetricsPrefix  string `yaml:"metrics_prefix"`
	} `yaml:"telemetry"`

	Audit struct {
		Enabled  *bool  `yaml:"enabled"`
		LogLevel string `yaml:"log_level"`
		BasePath string `yaml:"base_path"`
		FilePath string `yaml:"file_path"`
	} `yaml:"audit"`
}

// toConfig maps the file schema onto defaults, overriding only what the
// file sets.
func (f *fileConfig) toConfig() (*Config, error) {
	cfg := DefaultConfig()

	if f.Pool.Origin != "" {
		cfg.Pool.Origin = f.Pool.Origin
	}
	if f.Pool.MaxIdle != 0 {
		cfg.Pool.MaxIdle = f.Pool.MaxIdle
	}
	if f.Pool.MaxActive != 0 {
		cfg.Pool.MaxActive = f.Pool.MaxActive
	}
	switch f.Pool.AcquireStrategy {
	case "", "block":
		cfg.Pool.AcquireStrategy = pool.StrategyBlock
	case "reject":
		cfg.Pool.AcquireStrategy = pool.StrategyReject
	default:
		return nil, fmt.Errorf("unknown acquire_strategy %q", f.Pool.AcquireStrategy)
	}
	if f.Pool.AcquireRate > 0 {
		cfg.Pool.AcquireRate = rate.Limit(f.Pool.AcquireRate)
		cfg.Pool.AcquireBurst = f.Pool.AcquireBurst
	}

	if f.Telemetry.ServiceName != "" {
		cfg.Telemetry.ServiceName = f.Telemetry.ServiceName
	}
	if f.Telemetry.ServiceVersion != "" {
		cfg.Telemetry.ServiceVersion = f.Telemetry.ServiceVersion
	}
	if f.Telemetry.Environment != "" {
		cfg.Telemetry.Environment = f.Telemetry.Environment
	}
	if f.Telemetry.EnableTracing != nil {
		cfg.Telemetry.EnableTracing = *f.Telemetry.EnableTracing
	}
	if f.Telemetry.EnableMetrics != nil {
		cfg.Telemetry.EnableMetrics = *f.Telemetry.EnableMetrics
	}
	if f.Telemetry.MetricsPrefix != "" {
		cfg.Telemetry.MetricsPrefix = f.Telemetry.MetricsPrefix
	}

	if f.Audit.Enabled != nil {
		cfg.Audit.Enabled = *f.Audit.Enabled
	}
	if f.Audit.LogLevel != "" {
		cfg.Audit.LogLevel = observability.AuditLogLevel(f.Audit.LogLevel)
	}
	if f.Audit.BasePath != "" {
		cfg.Audit.BasePath = f.Audit.BasePath
	}
	if f.Audit.FilePath != "" {
		cfg.Audit.FilePath = f.Audit.FilePath
	}

	return &cfg, nil
}

// ExampleConfig returns an example YAML configuration.
// Use this as a starting point for creating your own config files.
func ExampleConfig() string {
	return `version: "1.0"
pool:
  origin: db-primary
  max_idle: 8
  max_active: 32
  acquire_strategy: block
  acquire_rate: 100
  acquire_burst: 150
telemetry:
  service_name: goguard
  environment: production
  enable_tracing: true
  enable_metrics: true
  metrics_prefix: goguard_
audit:
  enabled: true
  log_level: all
  base_path: /var/log
  file_path: goguard/audit.log
`
}
