package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WHATSAPP_ACCESS_TOKEN", "")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GraphBaseURL != "https://graph.facebook.com/v20.0" {
		t.Fatalf("graph base url = %s", cfg.GraphBaseURL)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Fatalf("http timeout = %s", cfg.HTTPTimeout)
	}
	if cfg.StorageType != "bbolt" {
		t.Fatalf("storage type = %s", cfg.StorageType)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WHATSAPP_ACCESS_TOKEN", "tok")
	t.Setenv("WHATSAPP_ACCOUNT_ID", "acct")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "phone")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "5")
	t.Setenv("STORAGE_TYPE", "none")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AccessToken != "tok" || cfg.AccountID != "acct" || cfg.PhoneNumberID != "phone" {
		t.Fatalf("credentials not loaded: %#v", cfg.Redacted())
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Fatalf("http timeout = %s", cfg.HTTPTimeout)
	}
	if err := cfg.RequireCredentials(); err != nil {
		t.Fatalf("RequireCredentials: %v", err)
	}
	if cfg.Redacted().AccessToken != "***" {
		t.Fatalf("token not redacted")
	}
}

func TestLoadRejectsNonPositiveTimeout(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT_SECONDS", "-1")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for negative timeout")
	}
}

func TestRequireCredentialsReportsMissing(t *testing.T) {
	cfg := &Config{AccessToken: "tok", AccountID: "acct"}
	if err := cfg.RequireCredentials(); err == nil {
		t.Fatalf("expected error for missing phone number id")
	}
}
