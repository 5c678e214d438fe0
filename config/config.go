// Package config loads tokenbook node configuration from YAML.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings
const (
	EnvSecret   = "TOKENBOOK_SECRET"
	EnvRESTAddr = "TOKENBOOK_REST_ADDR"
	EnvGRPCAddr = "TOKENBOOK_GRPC_ADDR"
)

// StorageConfig selects the kv plugin holding replica state
type StorageConfig struct {
	Plugin string `yaml:"plugin"`
	Path   string `yaml:"path"`
}

// OutcallConfig bounds price outcalls
type OutcallConfig struct {
	PriceEndpoint    string        `yaml:"priceEndpoint"`
	MaxResponseBytes uint64        `yaml:"maxResponseBytes"`
	CyclesPerCall    uint64        `yaml:"cyclesPerCall"`
	CycleBudget      uint64        `yaml:"cycleBudget"`
	Timeout          time.Duration `yaml:"timeout"`
}

// IdentityConfig configures bearer token verification
type IdentityConfig struct {
	Secret string        `yaml:"secret"`
	Issuer string        `yaml:"issuer"`
	TTL    time.Duration `yaml:"ttl"`
}

// ListenerConfig is a frontend listen address
type ListenerConfig struct {
	Addr string `yaml:"addr"`
}

// Config is a tokenbook node's configuration
type Config struct {
	LogLevel string         `yaml:"logLevel"`
	Storage  StorageConfig  `yaml:"storage"`
	Replicas int            `yaml:"replicas"`
	Outcall  OutcallConfig  `yaml:"outcall"`
	Identity IdentityConfig `yaml:"identity"`
	REST     ListenerConfig `yaml:"rest"`
	GRPC     ListenerConfig `yaml:"grpc"`
}

// Default returns the configuration used for unset fields
func Default() Config {
	return Config{
		LogLevel: "info",
		Storage: StorageConfig{
			Plugin: "bbolt",
			Path:   "/var/lib/tokenbook/data.db",
		},
		Replicas: 3,
		Outcall: OutcallConfig{
			PriceEndpoint:    "https://api.coingecko.com/api/v3/simple/price",
			MaxResponseBytes: 5000,
			CyclesPerCall:    90_000_000,
			CycleBudget:      90_000_000_000,
			Timeout:          10 * time.Second,
		},
		Identity: IdentityConfig{
			Issuer: "tokenbook",
			TTL:    12 * time.Hour,
		},
		REST: ListenerConfig{Addr: ":8080"},
		GRPC: ListenerConfig{Addr: ":9090"},
	}
}

// Load reads the file at path, applies environment
// overrides and validates the result. An empty path
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)

		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}

		if cfg, err = Parse(raw); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Parse decodes YAML over the defaults. It does not validate.
func Parse(raw []byte) (Config, error) {
	cfg := Default()

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.normalise()

	return cfg, nil
}

func (c *Config) normalise() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.Storage.Plugin = strings.TrimSpace(c.Storage.Plugin)
	c.Storage.Path = strings.TrimSpace(c.Storage.Path)
	c.Outcall.PriceEndpoint = strings.TrimSpace(c.Outcall.PriceEndpoint)
	c.REST.Addr = strings.TrimSpace(c.REST.Addr)
	c.GRPC.Addr = strings.TrimSpace(c.GRPC.Addr)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if value, ok := lookup(EnvSecret); ok && value != "" {
		c.Identity.Secret = value
	}

	if value, ok := lookup(EnvRESTAddr); ok && value != "" {
		c.REST.Addr = value
	}

	if value, ok := lookup(EnvGRPCAddr); ok && value != "" {
		c.GRPC.Addr = value
	}
}

// Validate reports the first invalid setting
func (c Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logLevel: unknown level %q", c.LogLevel)
	}

	switch c.Storage.Plugin {
	case "memory":
	case "bbolt":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the bbolt plugin")
		}
	default:
		return fmt.Errorf("storage.plugin: unknown plugin %q", c.Storage.Plugin)
	}

	if c.Replicas < 1 {
		return fmt.Errorf("replicas must be at least 1")
	}

	if endpoint, err := url.Parse(c.Outcall.PriceEndpoint); err != nil || endpoint.Scheme == "" || endpoint.Host == "" {
		return fmt.Errorf("outcall.priceEndpoint must be an absolute URL")
	}

	if c.Outcall.MaxResponseBytes == 0 {
		return fmt.Errorf("outcall.maxResponseBytes must be positive")
	}

	if c.Outcall.CyclesPerCall == 0 {
		return fmt.Errorf("outcall.cyclesPerCall must be positive")
	}

	if c.Outcall.CycleBudget < c.Outcall.CyclesPerCall {
		return fmt.Errorf("outcall.cycleBudget cannot cover a single outcall")
	}

	if c.Outcall.Timeout <= 0 {
		return fmt.Errorf("outcall.timeout must be positive")
	}

	if c.Identity.Secret == "" {
		return fmt.Errorf("identity.secret is required (or set %s)", EnvSecret)
	}

	if c.REST.Addr == "" && c.GRPC.Addr == "" {
		return fmt.Errorf("at least one of rest.addr and grpc.addr is required")
	}

	if c.REST.Addr == c.GRPC.Addr {
		return fmt.Errorf("rest.addr and grpc.addr must differ")
	}

	return nil
}
