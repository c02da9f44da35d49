package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("LEDGER_URL", "http://ledger.internal")
	t.Setenv("RATE_ACCESS_KEY", "test-key")
	t.Setenv("FEE_PERCENT", "2")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.RateURL != "http://data.fixer.io/api" {
		t.Errorf("unexpected default rate url: %s", cfg.RateURL)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Errorf("unexpected default http timeout: %s", cfg.HTTPTimeout)
	}
	if cfg.IdempotencyTTL != 24*time.Hour {
		t.Errorf("unexpected default idempotency ttl: %s", cfg.IdempotencyTTL)
	}
	if !cfg.FeePercent.IsPositive() {
		t.Errorf("expected positive fee percent, got %s", cfg.FeePercent.String())
	}
}

func TestLoadMissingLedgerURL(t *testing.T) {
	setRequired(t)
	t.Setenv("LEDGER_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing LEDGER_URL")
	}
}

func TestLoadFeePercent(t *testing.T) {
	cases := []struct {
		name string
		fee  string
	}{
		{"missing", ""},
		{"not a number", "two"},
		{"zero", "0"},
		{"negative", "-1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv("FEE_PERCENT", tc.fee)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for FEE_PERCENT=%q", tc.fee)
			}
		})
	}
}

func TestLoadDurationOverride(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPTimeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %s", cfg.HTTPTimeout)
	}

	t.Setenv("HTTP_TIMEOUT", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparseable HTTP_TIMEOUT")
	}
}

func TestAddress(t *testing.T) {
	if got := (Config{Port: "9000"}).Address(); got != ":9000" {
		t.Errorf("expected :9000, got %s", got)
	}
	if got := (Config{Port: ":9000"}).Address(); got != ":9000" {
		t.Errorf("expected :9000 unchanged, got %s", got)
	}
}
