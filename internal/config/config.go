package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	LedgerSheets   = "sheets"
	LedgerPostgres = "postgres"
)

type Config struct {
	GoogleServiceAccountJSON string

	MaytapiProductID string
	MaytapiPhoneID   string
	MaytapiAPIKey    string

	OpenAIAPIKey string
	OpenAIModel  string

	LedgerBackend string
	DatabaseURL   string

	ClientsFile        string
	CallTimeout        time.Duration
	QuotePDF           bool
	CompanyName        string
	PDFFontDir         string
	RateLimitPerMinute int

	LogLevel  string
	LogFormat string
	Port      string
	DataDir   string
}

func Load() (*Config, error) {
	// .env is optional; env vars may already be set in production
	_ = godotenv.Load()

	cfg := &Config{
		GoogleServiceAccountJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		MaytapiProductID:         os.Getenv("MAYTAPI_PRODUCT_ID"),
		MaytapiPhoneID:           os.Getenv("MAYTAPI_PHONE_ID"),
		MaytapiAPIKey:            os.Getenv("MAYTAPI_API_KEY"),
		OpenAIAPIKey:             os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:              envOr("OPENAI_MODEL", "gpt-4.1-mini"),
		LedgerBackend:            envOr("LEDGER_BACKEND", LedgerSheets),
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		ClientsFile:              envOr("CLIENTS_FILE", "clients.yaml"),
		CompanyName:              os.Getenv("COMPANY_NAME"),
		PDFFontDir:               os.Getenv("PDF_FONT_DIR"),
		LogLevel:                 envOr("LOG_LEVEL", "info"),
		LogFormat:                envOr("LOG_FORMAT", "json"),
		Port:                     envOr("PORT", "8080"),
		DataDir:                  envOr("DATA_DIR", "."),
	}

	var err error
	if cfg.CallTimeout, err = parseDurationEnv("CALL_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.QuotePDF, err = parseBoolEnv("QUOTE_PDF", false); err != nil {
		return nil, err
	}
	if cfg.RateLimitPerMinute, err = parseIntEnv("RATE_LIMIT_PER_MINUTE", 10); err != nil {
		return nil, err
	}

	required := []struct {
		name, val string
	}{
		{"GOOGLE_SERVICE_ACCOUNT_JSON", cfg.GoogleServiceAccountJSON},
		{"MAYTAPI_PRODUCT_ID", cfg.MaytapiProductID},
		{"MAYTAPI_PHONE_ID", cfg.MaytapiPhoneID},
		{"MAYTAPI_API_KEY", cfg.MaytapiAPIKey},
	}

	switch cfg.LedgerBackend {
	case LedgerSheets:
	case LedgerPostgres:
		required = append(required, struct{ name, val string }{"DATABASE_URL", cfg.DatabaseURL})
	default:
		return nil, fmt.Errorf("LEDGER_BACKEND must be %q or %q, got %q", LedgerSheets, LedgerPostgres, cfg.LedgerBackend)
	}

	for _, req := range required {
		if req.val == "" {
			return nil, fmt.Errorf("required env var %s is not set", req.name)
		}
	}

	if cfg.CallTimeout <= 0 {
		return nil, fmt.Errorf("CALL_TIMEOUT must be positive")
	}
	if cfg.RateLimitPerMinute <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}

	return cfg, nil
}

// AssistantEnabled reports whether free-form AI replies are configured.
func (c *Config) AssistantEnabled() bool { return c.OpenAIAPIKey != "" }

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseIntEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
