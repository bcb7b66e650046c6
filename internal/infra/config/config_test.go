package config

import (
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GKART_TOKENS_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Session.TTL != time.Hour {
		t.Fatalf("expected session ttl 1h, got %v", cfg.Session.TTL)
	}
	if cfg.Tokens.ActivationTTL != 72*time.Hour {
		t.Fatalf("expected activation ttl 72h, got %v", cfg.Tokens.ActivationTTL)
	}
	if cfg.Login.DegradationPolicy != "lenient" {
		t.Fatalf("expected lenient degradation policy, got %q", cfg.Login.DegradationPolicy)
	}
	if cfg.IsProduction() {
		t.Fatalf("expected development environment by default")
	}
	if !strings.HasPrefix(cfg.Postgres.DSN(), "postgres://gkart:") {
		t.Fatalf("unexpected dsn %s", cfg.Postgres.DSN())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GKART_TOKENS_SECRET", testSecret)
	t.Setenv("GKART_SESSION_TTL", "30m")
	t.Setenv("GKART_APP_ENV", "production")
	t.Setenv("GKART_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Session.TTL != 30*time.Minute {
		t.Fatalf("expected overridden session ttl, got %v", cfg.Session.TTL)
	}
	if !cfg.IsProduction() {
		t.Fatalf("expected production environment")
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Fatalf("expected two brokers, got %v", cfg.Kafka.Brokers)
	}
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("GKART_TOKENS_SECRET", "short")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for short token secret")
	}
}
