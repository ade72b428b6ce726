package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Loader defines the interface for loading configuration
type Loader interface {
	Load() (*Config, error)
	Validate(*Config) error
}

// ViperLoader implements Loader using Viper.
type ViperLoader struct {
	configFile string
	envPrefix  string
}

// NewViperLoader creates a new ViperLoader.
// configFile: path to configuration file (optional, can be empty)
// envPrefix: prefix for environment variables (e.g., "LEASEKEEPER")
func NewViperLoader(configFile, envPrefix string) *ViperLoader {
	return &ViperLoader{
		configFile: configFile,
		envPrefix:  envPrefix,
	}
}

// Load loads configuration with precedence: ENV > file > defaults
func (l *ViperLoader) Load() (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	l.setDefaults(v, defaults)

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", l.configFile, err)
		}
	}

	v.SetEnvPrefix(l.envPrefix)
	l.bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := l.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (l *ViperLoader) setDefaults(v *viper.Viper, defaults Config) {
	v.SetDefault("vault.address", defaults.Vault.Address)
	v.SetDefault("vault.timeout", defaults.Vault.Timeout)
	v.SetDefault("vault.rate_limit", defaults.Vault.RateLimit)
	v.SetDefault("vault.rate_burst", defaults.Vault.RateBurst)
	v.SetDefault("container.min_renewal", defaults.Container.MinRenewal)
	v.SetDefault("container.expiry_threshold", defaults.Container.ExpiryThreshold)
	v.SetDefault("container.on_renewal_error", defaults.Container.OnRenewalError)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
}

// bindEnvVars explicitly binds environment variables for nested structs
func (l *ViperLoader) bindEnvVars(v *viper.Viper) {
	v.BindEnv("vault.address", l.prefixedEnv("VAULT_ADDRESS"), "VAULT_ADDR")
	v.BindEnv("vault.token", l.prefixedEnv("VAULT_TOKEN"), "VAULT_TOKEN")
	v.BindEnv("vault.namespace", l.prefixedEnv("VAULT_NAMESPACE"))
	v.BindEnv("vault.timeout", l.prefixedEnv("VAULT_TIMEOUT"))
	v.BindEnv("vault.rate_limit", l.prefixedEnv("VAULT_RATE_LIMIT"))
	v.BindEnv("vault.rate_burst", l.prefixedEnv("VAULT_RATE_BURST"))

	v.BindEnv("container.min_renewal", l.prefixedEnv("MIN_RENEWAL"))
	v.BindEnv("container.expiry_threshold", l.prefixedEnv("EXPIRY_THRESHOLD"))
	v.BindEnv("container.on_renewal_error", l.prefixedEnv("ON_RENEWAL_ERROR"))

	v.BindEnv("log.level", l.prefixedEnv("LOG_LEVEL"))
	v.BindEnv("log.format", l.prefixedEnv("LOG_FORMAT"))
}

func (l *ViperLoader) prefixedEnv(name string) string {
	if l.envPrefix == "" {
		return name
	}
	return l.envPrefix + "_" + name
}

// Validate checks the configuration for invalid values.
func (l *ViperLoader) Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Vault.Address) == "" {
		return fmt.Errorf("vault.address is required")
	}
	if cfg.Container.MinRenewal < 0 {
		return fmt.Errorf("container.min_renewal must be >= 0")
	}
	if cfg.Container.ExpiryThreshold < 0 {
		return fmt.Errorf("container.expiry_threshold must be >= 0")
	}
	switch cfg.Container.OnRenewalError {
	case StrategyDrop, StrategyRetain:
	default:
		return fmt.Errorf("container.on_renewal_error must be %q or %q, got %q",
			StrategyDrop, StrategyRetain, cfg.Container.OnRenewalError)
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level %q is invalid", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "json", "text", "console":
	default:
		return fmt.Errorf("log.format %q is invalid", cfg.Log.Format)
	}
	return nil
}
