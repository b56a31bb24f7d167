package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.AppEnv != EnvDev {
		t.Fatalf("expected dev env, got %s", cfg.AppEnv)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected http addr %s", cfg.HTTPAddr)
	}
	if !cfg.EmailEnabled {
		t.Fatal("email should default to enabled")
	}
	if cfg.SubscribeRateLimitTTL != time.Minute {
		t.Fatalf("unexpected rate limit ttl %s", cfg.SubscribeRateLimitTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "prod-secret")
	t.Setenv("EMAIL_ENABLED", "false")
	t.Setenv("PUBLIC_BASE_URL", "https://carnivalhub.example/")
	t.Setenv("NOTIFY_WORKERS", "4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.AppEnv != EnvProd {
		t.Fatalf("expected prod env, got %s", cfg.AppEnv)
	}
	if cfg.EmailEnabled {
		t.Fatal("email kill switch not applied")
	}
	if cfg.PublicBaseURL != "https://carnivalhub.example" {
		t.Fatalf("base url not trimmed: %s", cfg.PublicBaseURL)
	}
	if cfg.NotifyWorkers != 4 {
		t.Fatalf("unexpected worker count %d", cfg.NotifyWorkers)
	}
}

func TestProdRequiresSessionSecret(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("SESSION_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected missing SESSION_SECRET to fail in prod")
	}
}
