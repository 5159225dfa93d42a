// Package config provides configuration management for akaunting-sync.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Akaunting AkauntingConfig
	PayPal    PayPalConfig
	Stripe    StripeConfig
	Storage   StorageConfig
	Debug     bool
	Env       string
}

// AkauntingConfig represents Akaunting API configuration.
type AkauntingConfig struct {
	APIURL    string
	Email     string
	Password  string
	CompanyID int64
	RateLimit float64 // requests per second, 0 = unthrottled
}

// PayPalConfig represents PayPal REST API configuration.
type PayPalConfig struct {
	APIURL       string
	ClientID     string
	ClientSecret string
}

// StripeConfig represents Stripe API configuration.
type StripeConfig struct {
	SecretKey string
}

// StorageConfig represents local state configuration.
type StorageConfig struct {
	DataRoot      string
	DBPath        string
	WebhookDBPath string
	JournalDir    string
	MappingFile   string
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	companyID, err := parseInt64Env("AKAUNTING_COMPANY_ID", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid AKAUNTING_COMPANY_ID: %w", err)
	}

	rateLimit, err := parseFloatEnv("AKAUNTING_RATE_LIMIT", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid AKAUNTING_RATE_LIMIT: %w", err)
	}

	dataRoot := getEnvOrDefault("SYNC_DATA_ROOT", "./data")

	config := &Config{
		Akaunting: AkauntingConfig{
			APIURL:    getEnvOrDefault("AKAUNTING_API_URL", "https://app.akaunting.com"),
			Email:     os.Getenv("AKAUNTING_EMAIL"),
			Password:  os.Getenv("AKAUNTING_PASSWORD"),
			CompanyID: companyID,
			RateLimit: rateLimit,
		},
		PayPal: PayPalConfig{
			APIURL:       getEnvOrDefault("PAYPAL_API_URL", "https://api-m.paypal.com"),
			ClientID:     os.Getenv("PAYPAL_CLIENT_ID"),
			ClientSecret: os.Getenv("PAYPAL_CLIENT_SECRET"),
		},
		Stripe: StripeConfig{
			SecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		},
		Storage: StorageConfig{
			DataRoot:      dataRoot,
			DBPath:        os.Getenv("SYNC_DB_PATH"),
			WebhookDBPath: os.Getenv("SYNC_WEBHOOK_DB_PATH"),
			JournalDir:    os.Getenv("SYNC_JOURNAL_DIR"),
			MappingFile:   getEnvOrDefault("SYNC_MAPPING_FILE", "./mapping.yaml"),
		},
		Debug: os.Getenv("DEBUG") == "true",
		Env:   getEnvOrDefault("APP_ENV", "development"),
	}

	return config, nil
}

// Validate validates the configuration.
// It checks if all required fields are set.
func (c *Config) Validate(required ...[]string) error {
	var missing []string

	for _, path := range required {
		if len(path) < 2 {
			continue
		}

		var value string
		switch path[0] {
		case "akaunting":
			switch path[1] {
			case "apiUrl":
				value = c.Akaunting.APIURL
			case "email":
				value = c.Akaunting.Email
			case "password":
				value = c.Akaunting.Password
			case "companyId":
				if c.Akaunting.CompanyID != 0 {
					value = "set"
				}
			}
		case "paypal":
			switch path[1] {
			case "apiUrl":
				value = c.PayPal.APIURL
			case "clientId":
				value = c.PayPal.ClientID
			case "clientSecret":
				value = c.PayPal.ClientSecret
			}
		case "stripe":
			switch path[1] {
			case "secretKey":
				value = c.Stripe.SecretKey
			}
		case "storage":
			switch path[1] {
			case "dataRoot":
				value = c.Storage.DataRoot
			case "mappingFile":
				value = c.Storage.MappingFile
			}
		}

		if value == "" {
			missing = append(missing, strings.Join(path, "."))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseInt64Env parses an int64 from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseInt64Env(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %s", key, value)
	}

	return parsed, nil
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed < 0 {
		return 0, fmt.Errorf("invalid non-negative number for %s: %s", key, value)
	}

	return parsed, nil
}
