package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DSN", "user:pass@tcp(localhost:3306)/donasi?parseTime=true")
	t.Setenv("DUITKU_MERCHANT_CODE", "D0001")
	t.Setenv("DUITKU_API_KEY", "secret-key")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if !cfg.Gateway.Sandbox {
		t.Error("Gateway.Sandbox should default to true")
	}
	if cfg.Gateway.BaseURL() != duitkuSandboxURL {
		t.Errorf("BaseURL() = %q, want sandbox", cfg.Gateway.BaseURL())
	}
	if cfg.Gateway.Timeout != 30*time.Second {
		t.Errorf("Gateway.Timeout = %v, want 30s", cfg.Gateway.Timeout)
	}
	if cfg.Gateway.ExpiryMinutes != 60 {
		t.Errorf("ExpiryMinutes = %d, want 60", cfg.Gateway.ExpiryMinutes)
	}
	if cfg.Kafka.Enabled() {
		t.Error("Kafka should be disabled without KAFKA_BROKERS")
	}
	if cfg.Donation.MinAmount != 10000 {
		t.Errorf("MinAmount = %d, want 10000", cfg.Donation.MinAmount)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DUITKU_SANDBOX", "false")
	t.Setenv("APP_BASE_URL", "https://donasi.example.org/")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("RECONCILE_INTERVAL", "0s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Gateway.BaseURL() != duitkuProductionURL {
		t.Errorf("BaseURL() = %q, want production", cfg.Gateway.BaseURL())
	}
	if cfg.AppBaseURL != "https://donasi.example.org" {
		t.Errorf("AppBaseURL = %q, trailing slash should be trimmed", cfg.AppBaseURL)
	}
	if got := strings.Join(cfg.Kafka.Brokers, "|"); got != "k1:9092|k2:9092" {
		t.Errorf("Kafka.Brokers = %q", got)
	}
	if cfg.Reconcile.Interval != 0 {
		t.Errorf("Reconcile.Interval = %v, want 0", cfg.Reconcile.Interval)
	}
	if got := cfg.CallbackURL(); got != "https://donasi.example.org/api/payments/callback" {
		t.Errorf("CallbackURL() = %q", got)
	}
	if got := cfg.ReturnURL("DN1"); got != "https://donasi.example.org/invoice/DN1" {
		t.Errorf("ReturnURL() = %q", got)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("DUITKU_MERCHANT_CODE", "")
	t.Setenv("DUITKU_API_KEY", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing required settings")
	}
	for _, key := range []string{"DB_DSN", "DUITKU_MERCHANT_CODE", "DUITKU_API_KEY"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %s", err, key)
		}
	}
}

func TestLoad_UnknownEmailDriver(t *testing.T) {
	setRequired(t)
	t.Setenv("EMAIL_DRIVER", "carrier-pigeon")

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "EMAIL_DRIVER") {
		t.Fatalf("Load() error = %v, want EMAIL_DRIVER error", err)
	}
}
