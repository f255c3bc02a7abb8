package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Backends accepted by BILLED_BACKEND.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendAPI    = "api"
)

var validBackends = []string{BackendMemory, BackendSQLite, BackendAPI}

type Config struct {
	// Backend selection
	Backend string

	// Remote API
	APIURL      string
	HTTPTimeout time.Duration

	// Local data
	DataDir      string
	SQLiteDBPath string
	FixturesFile string

	// Local authentication
	JWTSecret string
	TokenTTL  time.Duration

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Worker
	MetricsAddr     string
	DedupeTTL       time.Duration
	ExportBatchSize int
}

func Load() *Config {
	dataDir := getEnv("BILLED_DATA_DIR", "./data")
	cfg := &Config{
		Backend: getEnv("BILLED_BACKEND", BackendMemory),

		APIURL:      getEnv("BILLED_API_URL", "http://localhost:5678"),
		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		DataDir:      dataDir,
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", filepath.Join(dataDir, "billed.db")),
		FixturesFile: getEnv("BILLED_FIXTURES_FILE", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 24*time.Hour),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "billed"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "export_bills"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Bills"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		MetricsAddr:     getEnv("METRICS_ADDR", ":9090"),
		DedupeTTL:       getEnvDuration("DEDUPE_TTL", 24*time.Hour),
		ExportBatchSize: getEnvInt("EXPORT_BATCH_SIZE", 50),
	}

	return cfg
}

// ReceiptsDir is where local backends store uploaded receipt files.
func (c *Config) ReceiptsDir() string {
	return filepath.Join(c.DataDir, "receipts")
}

// Validate validates the client configuration and returns an error if invalid
func (c *Config) Validate() error {
	errs := c.validateCommon()
	return joinErrors(errs)
}

// ValidateWorker applies Validate plus the requirements of the export worker.
func (c *Config) ValidateWorker() error {
	errs := c.validateCommon()

	if c.Backend != BackendSQLite {
		errs = append(errs, fmt.Sprintf("export worker requires the sqlite backend, got '%s'", c.Backend))
	}
	if c.AMQPURL == "" {
		errs = append(errs, "AMQP URL is required for the export worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errs = append(errs, "Google Spreadsheet ID is required for the export worker")
	}
	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}
	if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
		errs = append(errs, fmt.Sprintf("invalid metrics address '%s': %v", c.MetricsAddr, err))
	}
	if c.DedupeTTL < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid dedupe TTL %v: must be at least 1 minute", c.DedupeTTL))
	}
	if c.ExportBatchSize < 1 || c.ExportBatchSize > 1000 {
		errs = append(errs, fmt.Sprintf("invalid export batch size %d: must be between 1 and 1000", c.ExportBatchSize))
	}

	return joinErrors(errs)
}

func (c *Config) validateCommon() []string {
	var errs []string

	if !slices.Contains(validBackends, c.Backend) {
		errs = append(errs, fmt.Sprintf("invalid backend '%s': must be one of %v", c.Backend, validBackends))
	}

	switch c.Backend {
	case BackendAPI:
		if u, err := url.Parse(c.APIURL); err != nil || c.APIURL == "" {
			errs = append(errs, fmt.Sprintf("invalid API URL '%s'", c.APIURL))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, fmt.Sprintf("invalid API URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		}
		if c.HTTPTimeout <= 0 {
			errs = append(errs, fmt.Sprintf("invalid HTTP timeout %v: must be positive", c.HTTPTimeout))
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.Backend != BackendAPI {
		if c.JWTSecret != "" && len(c.JWTSecret) < 16 {
			errs = append(errs, "JWT secret must be at least 16 characters")
		}
		if c.TokenTTL < time.Minute {
			errs = append(errs, fmt.Sprintf("invalid token TTL %v: must be at least 1 minute", c.TokenTTL))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	return errs
}

func joinErrors(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
