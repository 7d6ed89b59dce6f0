package config

import (
	"fmt"

	"github.com/caarlos0/env/v9"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envDefault:"8080"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite3"`
	DSN    string `env:"DB_DSN" envDefault:"data/circles.db"`
}

// AuthConfig holds identity provider configuration. Either an OIDC
// issuer or a static token list (development only) must be configured.
type AuthConfig struct {
	OIDCIssuerURL string `env:"OIDC_ISSUER_URL"`
	OIDCClientID  string `env:"OIDC_CLIENT_ID"`
	StaticTokens  string `env:"AUTH_STATIC_TOKENS"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(&cfg.Server); err != nil {
		return nil, fmt.Errorf("parsing server config: %w", err)
	}
	if err := env.Parse(&cfg.Database); err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	if err := env.Parse(&cfg.Auth); err != nil {
		return nil, fmt.Errorf("parsing auth config: %w", err)
	}

	return cfg, nil
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Auth.OIDCIssuerURL == "" && c.Auth.StaticTokens == "" {
		return fmt.Errorf("OIDC_ISSUER_URL or AUTH_STATIC_TOKENS is required")
	}
	if c.Auth.OIDCIssuerURL != "" && c.Auth.OIDCClientID == "" {
		return fmt.Errorf("OIDC_CLIENT_ID is required when OIDC_ISSUER_URL is set")
	}
	return nil
}
