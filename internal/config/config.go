// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor
// principles; cmd/server loads an optional .env file first.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"development"`
	Port   int    `env:"PORT" envDefault:"8080"`

	// SQLite database file; ":memory:" is accepted for throwaway runs.
	DBPath string `env:"DB_PATH" envDefault:"data/birthdays.db"`

	// Directories for HTML templates and static assets.
	TemplateDir string `env:"TEMPLATE_DIR" envDefault:"web/templates"`
	StaticDir   string `env:"STATIC_DIR" envDefault:"web/static"`

	// Secret for signing session JWTs. Required outside development.
	JWTSecret string `env:"JWT_SECRET" envDefault:""`

	// GitHub OAuth app credentials. Leaving them empty disables the
	// "sign in with GitHub" routes; password login still works.
	GitHubClientID     string `env:"GITHUB_CLIENT_ID" envDefault:""`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET" envDefault:""`
	GitHubCallbackURL  string `env:"GITHUB_CALLBACK_URL" envDefault:""`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parsing environment: %w", err)
	}

	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	if cfg.IsProduction() && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET is required when APP_ENV=production")
	}

	return cfg, nil
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
