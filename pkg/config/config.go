// Package config loads, defaults and validates the account factory configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Bootstrap  BootstrapConfig  `yaml:"bootstrap"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"30s"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host" default:"localhost" validate:"required"`
	Port     int    `yaml:"port" default:"5432" validate:"gt=0,lte=65535"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Database string `yaml:"database" default:"account_factory" validate:"required"`
	SSLMode  string `yaml:"ssl_mode" default:"disable"`
}

// AuthConfig contains JWT authentication settings.
// When the JWKS URL is empty, bearer tokens are rejected and only
// signature headers authenticate a caller.
type AuthConfig struct {
	JWKSURL string `yaml:"jwks_url" validate:"omitempty,url"`
	Issuer  string `yaml:"issuer"`
}

// BootstrapConfig holds the deployment identity written to the factory
// configuration on first start. All fields are required together; an empty
// owner disables bootstrapping and the database must already hold a config.
type BootstrapConfig struct {
	Owner                   string `yaml:"owner" validate:"omitempty,eth_addr"`
	FactoryAddress          string `yaml:"factory_address" validate:"omitempty,eth_addr"`
	RegistryAddress         string `yaml:"registry_address" validate:"omitempty,eth_addr"`
	ComponentFactoryAddress string `yaml:"component_factory_address" validate:"omitempty,eth_addr"`
	GatewayAddress          string `yaml:"gateway_address" validate:"omitempty,eth_addr"`
}

// Enabled reports whether a bootstrap identity is configured.
func (b *BootstrapConfig) Enabled() bool {
	return b.Owner != ""
}

// GatewayConfig contains settings for the remote request worker
type GatewayConfig struct {
	Enabled      bool          `yaml:"enabled"`
	PollInterval time.Duration `yaml:"poll_interval" default:"10s"`
	BatchSize    int           `yaml:"batch_size" default:"10" validate:"gt=0"`
	MaxAttempts  int           `yaml:"max_attempts" default:"5" validate:"gt=0"`
}

// MonitoringConfig contains monitoring and metrics settings
type MonitoringConfig struct {
	Enabled bool `yaml:"enabled" default:"true"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level" default:"info"`
	Format     string `yaml:"format" default:"json"`
	OutputPath string `yaml:"output_path" default:"stdout"`
}

// Load reads configuration from a YAML file, applies defaults and validates it.
func Load(configPath string) (*Config, error) {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := defaults.Set(config); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}

	if err := yaml.Unmarshal(raw, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func validate(config *Config) error {
	if err := validator.New().Struct(config); err != nil {
		return err
	}

	// Bootstrap fields are all-or-nothing; eth_addr checks above cover format.
	if config.Bootstrap.Enabled() {
		switch {
		case config.Bootstrap.FactoryAddress == "":
			return fmt.Errorf("bootstrap.factory_address is required when bootstrap.owner is set")
		case config.Bootstrap.RegistryAddress == "":
			return fmt.Errorf("bootstrap.registry_address is required when bootstrap.owner is set")
		case config.Bootstrap.ComponentFactoryAddress == "":
			return fmt.Errorf("bootstrap.component_factory_address is required when bootstrap.owner is set")
		}
	}

	return nil
}
