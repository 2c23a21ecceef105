package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		App:    AppConfig{Env: "local", Port: 8080},
		Twilio: TwilioConfig{AccountSID: "AC123", AuthToken: "tok", FromNumber: "+15550001111"},
		Sheets: SheetsConfig{SpreadsheetID: "sheet-id", ServiceAccountJSON: `{"type":"service_account"}`},
		Auth:   AuthConfig{AccessCode: "open-sesame", SessionSecret: "0123456789abcdef0123456789abcdef"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	err := c.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, key := range []string{"APP_ENV", "TWILIO_SID", "GOOGLE_SHEET_ID", "AFFILIATE_ACCESS_CODE", "SESSION_JWT_SECRET"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected %s in error, got: %v", key, err)
		}
	}
}

func TestValidate_DefaultsTabNames(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Sheets.CallbacksTab != "Callbacks" || c.Sheets.LogsTab != "CallLogs" {
		t.Fatalf("expected tab defaults, got %q %q", c.Sheets.CallbacksTab, c.Sheets.LogsTab)
	}
}

func TestValidate_ForeignTabNameIsAccepted(t *testing.T) {
	c := validConfig()
	c.Sheets.CallbacksTab = "Callback Queue"
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Sheets.CallbacksTab != "Callback Queue" {
		t.Fatalf("tab name must be preserved, got %q", c.Sheets.CallbacksTab)
	}
}

func TestValidate_FromNumberMustBeE164(t *testing.T) {
	c := validConfig()
	c.Twilio.FromNumber = "5550001111"
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "TWILIO_NUMBER") {
		t.Fatalf("expected TWILIO_NUMBER error, got %v", err)
	}
}

func TestValidate_ProductionRequiresPublicAddress(t *testing.T) {
	c := validConfig()
	c.App.Env = "production"
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "PUBLIC_BASE_URL") {
		t.Fatalf("expected public address error, got %v", err)
	}
	c.App.PlatformHost = "desk.example.com"
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_ProductionRequiresStrongSessionSecret(t *testing.T) {
	c := validConfig()
	c.App.Env = "production"
	c.App.PlatformHost = "desk.example.com"
	c.Auth.SessionSecret = "short"
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "SESSION_JWT_SECRET") {
		t.Fatalf("expected session secret error, got %v", err)
	}
}

func TestValidate_RedisOptional(t *testing.T) {
	c := validConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.RedisEnabled() {
		t.Fatalf("redis must be off without REDIS_HOST")
	}

	c = validConfig()
	c.Redis = RedisConfig{Host: "localhost", Port: 6379}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.RedisEnabled() || c.RedisAddr() != "localhost:6379" {
		t.Fatalf("unexpected redis wiring: %v %q", c.RedisEnabled(), c.RedisAddr())
	}

	c.Redis.Port = 0
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "REDIS_PORT") {
		t.Fatalf("expected REDIS_PORT error, got %v", err)
	}
}
