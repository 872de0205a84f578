package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// SiteConfig holds the host names and backend coordinates the router and the
// client need. Every value has a hardcoded fallback so a bare checkout runs.
type SiteConfig struct {
	AdminHost       string   `env:"SITE_ADMIN_HOST" envDefault:"admin.agency.example"`
	PublicHost      string   `env:"SITE_PUBLIC_HOST" envDefault:"agency.example"`
	BackendURL      string   `env:"SITE_BACKEND_URL" envDefault:"http://localhost:8080"`
	APIKey          string   `env:"SITE_API_KEY" envDefault:"public-anon-key"`
	DevMode         bool     `env:"SITE_DEV_MODE" envDefault:"false"`
	DevHostSuffixes []string `env:"SITE_DEV_HOST_SUFFIXES" envSeparator:"," envDefault:".local,.localhost,.preview.app"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
