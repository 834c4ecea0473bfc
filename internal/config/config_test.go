package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	// Run from a temp dir so a developer's .env does not leak in.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", `{"client_email":"svc@example.iam.gserviceaccount.com"}`)
	t.Setenv("MAYTAPI_PRODUCT_ID", "prod-1")
	t.Setenv("MAYTAPI_PHONE_ID", "88335")
	t.Setenv("MAYTAPI_API_KEY", "key")
	for _, k := range []string{"OPENAI_API_KEY", "OPENAI_MODEL", "LEDGER_BACKEND", "DATABASE_URL",
		"CALL_TIMEOUT", "QUOTE_PDF", "RATE_LIMIT_PER_MINUTE", "PORT", "DATA_DIR", "CLIENTS_FILE", "COMPANY_NAME", "PDF_FONT_DIR"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ".", cfg.DataDir)
	assert.Equal(t, LedgerSheets, cfg.LedgerBackend)
	assert.Equal(t, 10*time.Second, cfg.CallTimeout)
	assert.Equal(t, 10, cfg.RateLimitPerMinute)
	assert.Equal(t, "gpt-4.1-mini", cfg.OpenAIModel)
	assert.Equal(t, "clients.yaml", cfg.ClientsFile)
	assert.False(t, cfg.QuotePDF)
	assert.False(t, cfg.AssistantEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CALL_TIMEOUT", "3s")
	t.Setenv("QUOTE_PDF", "true")
	t.Setenv("LEDGER_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/quotes")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.AssistantEnabled())
	assert.Equal(t, 3*time.Second, cfg.CallTimeout)
	assert.True(t, cfg.QuotePDF)
	assert.Equal(t, LedgerPostgres, cfg.LedgerBackend)
}

func TestLoad_MissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("MAYTAPI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAYTAPI_API_KEY")
}

func TestLoad_PostgresNeedsDatabaseURL(t *testing.T) {
	setRequired(t)
	t.Setenv("LEDGER_BACKEND", "postgres")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_InvalidValues(t *testing.T) {
	for key, val := range map[string]string{
		"CALL_TIMEOUT":          "soon",
		"QUOTE_PDF":             "maybe",
		"RATE_LIMIT_PER_MINUTE": "0",
		"LEDGER_BACKEND":        "csv",
	} {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadClients(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clients.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
clients:
  "88335":
    sheet_id: sheet-abc
    pricing_sheet: Prices
  "99001":
    sheet_id: sheet-def
    pricing_sheet: Product_Pricing
    customer_sheet: Customers
    order_sheet: Log
`), 0o600))

	clients, err := LoadClients(path)
	require.NoError(t, err)
	assert.Equal(t, 2, clients.Len())

	c, err := clients.Lookup("88335")
	require.NoError(t, err)
	assert.Equal(t, Client{
		ID:            "88335",
		SheetID:       "sheet-abc",
		PricingSheet:  "Prices",
		CustomerSheet: "Customer_Type",
		OrderSheet:    "Orders",
	}, c)

	_, err = clients.Lookup("12345")
	assert.True(t, errors.Is(err, ErrUnknownClient))
}

func TestParseClients_Invalid(t *testing.T) {
	_, err := ParseClients([]byte("clients: {}"))
	assert.Error(t, err)

	_, err = ParseClients([]byte(`clients: {"1": {pricing_sheet: P}}`))
	assert.ErrorContains(t, err, "sheet_id")

	_, err = ParseClients([]byte("clients: [oops"))
	assert.Error(t, err)
}
