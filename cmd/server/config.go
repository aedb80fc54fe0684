package main

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-identity"
)

// Config is loaded from the environment and satisfies identity.Config
type Config struct {
	HTTPAddr    string        `env:"HTTP_ADDR" envDefault:":8080"`
	DatabaseDSN string        `env:"DATABASE_DSN" envDefault:"file:identity.db?cache=shared"`
	RedisAddr   string        `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisDB     int           `env:"REDIS_DB" envDefault:"0"`
	SigningKey  string        `env:"JWT_SIGNING_KEY,required"`
	Issuer      string        `env:"JWT_ISSUER" envDefault:"go-identity"`
	Audience    []string      `env:"JWT_AUDIENCE" envSeparator:","`
	ContextKey  string        `env:"AUTH_CONTEXT_KEY" envDefault:"identity"`
	AuthScheme  string        `env:"AUTH_SCHEME" envDefault:"Bearer"`
	AccessTTL   time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTTL  time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
}

// LoadConfig parses the process environment
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var _ identity.Config = (*Config)(nil)

func (c *Config) GetSigningKey() string { return c.SigningKey }

func (c *Config) GetIssuer() string { return c.Issuer }

func (c *Config) GetAudience() []string { return c.Audience }

func (c *Config) GetContextKey() string { return c.ContextKey }

func (c *Config) GetAuthScheme() string { return c.AuthScheme }

func (c *Config) GetAccessTokenTTL() time.Duration { return c.AccessTTL }

func (c *Config) GetRefreshTokenTTL() time.Duration { return c.RefreshTTL }
