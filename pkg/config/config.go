// Package config loads the library's configuration from file and
// environment with precedence ENV > file > defaults.
package config

import (
	"time"

	"github.com/leasekeeper/leasekeeper/pkg/lease"
)

// Renewal strategy constants
const (
	// StrategyDrop terminates scheduling on the first failed renewal
	StrategyDrop = "drop"
	// StrategyRetain keeps retrying with the last-known-good lease
	StrategyRetain = "retain"
)

// Config is the root configuration.
type Config struct {
	Vault     VaultConfig     `mapstructure:"vault"`
	Container ContainerConfig `mapstructure:"container"`
	Log       LogConfig       `mapstructure:"log"`
}

// VaultConfig configures the connection to the Vault server.
type VaultConfig struct {
	Address   string        `mapstructure:"address"`
	Token     string        `mapstructure:"token"`
	Namespace string        `mapstructure:"namespace"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`
	RateBurst int           `mapstructure:"rate_burst"`
}

// ContainerConfig configures lease scheduling behavior.
type ContainerConfig struct {
	// MinRenewal is the floor applied to computed trigger delays.
	MinRenewal time.Duration `mapstructure:"min_renewal"`
	// ExpiryThreshold is the safety margin before lease expiry at
	// which renewal is attempted.
	ExpiryThreshold time.Duration `mapstructure:"expiry_threshold"`
	// OnRenewalError selects the strategy applied after a failed
	// renewal: "drop" or "retain".
	OnRenewalError string `mapstructure:"on_renewal_error"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Vault: VaultConfig{
			Address: "http://127.0.0.1:8200",
			Timeout: 30 * time.Second,
		},
		Container: ContainerConfig{
			MinRenewal:      lease.DefaultMinRenewal,
			ExpiryThreshold: lease.DefaultExpiryThreshold,
			OnRenewalError:  StrategyDrop,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// TimingPolicy converts the container section into a timing policy.
func (c ContainerConfig) TimingPolicy() lease.TimingPolicy {
	return lease.TimingPolicy{
		MinRenewal:      c.MinRenewal,
		ExpiryThreshold: c.ExpiryThreshold,
	}
}

// Strategy converts the configured strategy name into a lease.Strategy.
func (c ContainerConfig) Strategy() lease.Strategy {
	if c.OnRenewalError == StrategyRetain {
		return lease.RetainOnError
	}
	return lease.DropOnError
}
