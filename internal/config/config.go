package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or a .env file loaded at startup).
// No business logic should depend on raw environment variables.
type Config struct {
	App    AppConfig
	Twilio TwilioConfig
	Sheets SheetsConfig
	Auth   AuthConfig
	Redis  RedisConfig
	Audit  AuditConfig
}

type AppConfig struct {
	Env  string
	Port int

	// PublicBaseURL overrides webhook address resolution (e.g. an ngrok
	// tunnel in local dev). PlatformHost is the hostname injected by the
	// hosting platform when one is present.
	PublicBaseURL string
	PlatformHost  string
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	// FromNumber is the purchased caller-id number, E.164.
	FromNumber string
}

type SheetsConfig struct {
	// SpreadsheetID identifies the ledger workbook.
	SpreadsheetID string
	// ServiceAccountJSON is the raw service-account key (not a path).
	ServiceAccountJSON string

	// Tab names. CallbacksTab may be a foreign "Callback Queue" tab; the
	// ledger client detects the column layout from the name.
	CallbacksTab string
	LogsTab      string
}

type AuthConfig struct {
	AccessCode    string
	SessionSecret string
	SessionTTL    time.Duration
}

// RedisConfig is optional; when Host is empty the lead cache is disabled.
type RedisConfig struct {
	Host string
	Port int
}

// AuditConfig is optional; when DatabaseURL is empty no Postgres mirror is
// attached and audit rows live only in the spreadsheet log tab.
type AuditConfig struct {
	DatabaseURL string
}

const (
	defaultCallbacksTab = "Callbacks"
	defaultLogsTab      = "CallLogs"
)

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}
	c.App.PublicBaseURL = strings.TrimSpace(os.Getenv("PUBLIC_BASE_URL"))
	c.App.PlatformHost = strings.TrimSpace(os.Getenv("PLATFORM_HOST"))

	c.Twilio.AccountSID = strings.TrimSpace(os.Getenv("TWILIO_SID"))
	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH")
	c.Twilio.FromNumber = strings.TrimSpace(os.Getenv("TWILIO_NUMBER"))

	c.Sheets.SpreadsheetID = strings.TrimSpace(os.Getenv("GOOGLE_SHEET_ID"))
	c.Sheets.ServiceAccountJSON = os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")
	c.Sheets.CallbacksTab = strings.TrimSpace(os.Getenv("GOOGLE_SHEET_CALLBACKS_TAB"))
	c.Sheets.LogsTab = strings.TrimSpace(os.Getenv("GOOGLE_SHEET_LOGS_TAB"))

	c.Auth.AccessCode = os.Getenv("AFFILIATE_ACCESS_CODE")
	c.Auth.SessionSecret = os.Getenv("SESSION_JWT_SECRET")
	c.Auth.SessionTTL = mustDuration("SESSION_TTL")

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	if c.Redis.Host != "" {
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Audit.DatabaseURL = os.Getenv("AUDIT_DATABASE_URL")

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.Twilio.AccountSID == "" {
		errs = append(errs, errors.New("TWILIO_SID is required"))
	}
	if c.Twilio.AuthToken == "" {
		errs = append(errs, errors.New("TWILIO_AUTH is required"))
	}
	if c.Twilio.FromNumber == "" {
		errs = append(errs, errors.New("TWILIO_NUMBER is required"))
	} else if !strings.HasPrefix(c.Twilio.FromNumber, "+") {
		errs = append(errs, fmt.Errorf("TWILIO_NUMBER must be E.164 (start with +), got %q", c.Twilio.FromNumber))
	}

	if c.Sheets.SpreadsheetID == "" {
		errs = append(errs, errors.New("GOOGLE_SHEET_ID is required"))
	}
	if strings.TrimSpace(c.Sheets.ServiceAccountJSON) == "" {
		errs = append(errs, errors.New("GOOGLE_SERVICE_ACCOUNT_JSON is required"))
	}
	if c.Sheets.CallbacksTab == "" {
		c.Sheets.CallbacksTab = defaultCallbacksTab
	}
	if c.Sheets.LogsTab == "" {
		c.Sheets.LogsTab = defaultLogsTab
	}

	if c.Auth.AccessCode == "" {
		errs = append(errs, errors.New("AFFILIATE_ACCESS_CODE is required"))
	}
	if c.Auth.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_JWT_SECRET is required"))
	} else if c.IsProduction() && len(c.Auth.SessionSecret) < 32 {
		errs = append(errs, errors.New("SESSION_JWT_SECRET must be at least 32 bytes in production"))
	}

	if c.Redis.Host != "" && (c.Redis.Port <= 0 || c.Redis.Port > 65535) {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.IsProduction() && c.App.PublicBaseURL == "" && c.App.PlatformHost == "" {
		errs = append(errs, errors.New("PUBLIC_BASE_URL or PLATFORM_HOST is required in production"))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// RedisEnabled reports whether the optional lead cache should be attached.
func (c Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

// AuditMirrorEnabled reports whether the optional Postgres mirror should be
// attached.
func (c Config) AuditMirrorEnabled() bool {
	return strings.TrimSpace(c.Audit.DatabaseURL) != ""
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
