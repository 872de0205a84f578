package config

import (
	"strings"
	"testing"
)

func TestParseEnvDefaults(t *testing.T) {
	var cfg SiteConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.AdminHost != "admin.agency.example" {
		t.Fatalf("expected default admin host, got %q", cfg.AdminHost)
	}
	if cfg.DevMode {
		t.Fatal("expected dev mode off by default")
	}
	if len(cfg.DevHostSuffixes) != 3 {
		t.Fatalf("expected 3 default dev suffixes, got %v", cfg.DevHostSuffixes)
	}
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("SITE_ADMIN_HOST", "cms.studio.test")
	t.Setenv("SITE_DEV_MODE", "true")
	t.Setenv("SITE_DEV_HOST_SUFFIXES", ".dev,.test")

	var cfg SiteConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.AdminHost != "cms.studio.test" {
		t.Fatalf("expected overridden admin host, got %q", cfg.AdminHost)
	}
	if !cfg.DevMode {
		t.Fatal("expected dev mode on")
	}
	if strings.Join(cfg.DevHostSuffixes, "|") != ".dev|.test" {
		t.Fatalf("unexpected suffixes %v", cfg.DevHostSuffixes)
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("SITE_DEV_MODE", "not-a-bool")

	var cfg SiteConfig
	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestDatabaseDSN(t *testing.T) {
	pg := DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, User: "u", Password: "p", Name: "agency"}
	if got := pg.DSN(); got != "postgres://u:p@db:5432/agency?sslmode=disable" {
		t.Fatalf("unexpected postgres dsn %q", got)
	}

	lite := DatabaseConfig{Driver: "sqlite", Path: "./data", Name: "agency"}
	if got := lite.DSN(); got != "./data/agency.db" {
		t.Fatalf("unexpected sqlite dsn %q", got)
	}
}
