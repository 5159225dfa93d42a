package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("AKAUNTING_API_URL", "https://books.example.com")
	t.Setenv("AKAUNTING_EMAIL", "admin@example.com")
	t.Setenv("AKAUNTING_PASSWORD", "secret")
	t.Setenv("AKAUNTING_COMPANY_ID", "42")
	t.Setenv("AKAUNTING_RATE_LIMIT", "2.5")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("SYNC_DATA_ROOT", "/srv/sync")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://books.example.com", cfg.Akaunting.APIURL)
	assert.Equal(t, int64(42), cfg.Akaunting.CompanyID)
	assert.Equal(t, 2.5, cfg.Akaunting.RateLimit)
	assert.Equal(t, "sk_test_123", cfg.Stripe.SecretKey)
	assert.Equal(t, "/srv/sync", cfg.Storage.DataRoot)
	assert.True(t, cfg.Debug)

	require.NoError(t, cfg.Validate(
		[]string{"akaunting", "email"},
		[]string{"akaunting", "password"},
		[]string{"akaunting", "companyId"},
		[]string{"stripe", "secretKey"},
	))
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"AKAUNTING_API_URL", "PAYPAL_API_URL", "SYNC_DATA_ROOT", "SYNC_MAPPING_FILE", "APP_ENV", "AKAUNTING_COMPANY_ID", "AKAUNTING_RATE_LIMIT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://app.akaunting.com", cfg.Akaunting.APIURL)
	assert.Equal(t, "https://api-m.paypal.com", cfg.PayPal.APIURL)
	assert.Equal(t, "./data", cfg.Storage.DataRoot)
	assert.Equal(t, "./mapping.yaml", cfg.Storage.MappingFile)
	assert.Equal(t, "development", cfg.Env)
	assert.Zero(t, cfg.Akaunting.RateLimit)
}

func TestLoadInvalidNumbers(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"AKAUNTING_COMPANY_ID", "abc"},
		{"AKAUNTING_RATE_LIMIT", "fast"},
		{"AKAUNTING_RATE_LIMIT", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv("AKAUNTING_COMPANY_ID", "")
			t.Setenv("AKAUNTING_RATE_LIMIT", "")
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PAYPAL_CLIENT_ID=from-file\nPAYPAL_CLIENT_SECRET=s3cret\n"), 0644))
	t.Cleanup(func() {
		_ = os.Unsetenv("PAYPAL_CLIENT_ID")
		_ = os.Unsetenv("PAYPAL_CLIENT_SECRET")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.PayPal.ClientID)
	assert.Equal(t, "s3cret", cfg.PayPal.ClientSecret)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "failed to load .env file")
}

func TestValidateReportsMissing(t *testing.T) {
	cfg := &Config{Akaunting: AkauntingConfig{APIURL: "https://app.akaunting.com"}}

	err := cfg.Validate(
		[]string{"akaunting", "apiUrl"},
		[]string{"akaunting", "companyId"},
		[]string{"paypal", "clientId"},
		[]string{"ignored"},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[akaunting.companyId paypal.clientId]")
}
