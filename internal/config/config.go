package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Addr                   string        `json:"addr" env:"ADDR"`
	Port                   string        `json:"-" env:"PORT"`
	GoogleCredentialsJSON  string        `json:"-" env:"GOOGLE_CREDENTIALS_JSON"`
	GoogleCredentialsPath  string        `json:"google_credentials_path" env:"GOOGLE_CREDENTIALS_FILE"`
	UsersSpreadsheetID     string        `json:"users_spreadsheet_id" env:"USERS_SPREADSHEET_ID"`
	UsersSheet             string        `json:"users_sheet" env:"USERS_SHEET"`
	ResultsSpreadsheetName string        `json:"results_spreadsheet_name" env:"RESULTS_SPREADSHEET_NAME"`
	ResultsSpreadsheetID   string        `json:"results_spreadsheet_id" env:"RESULTS_SPREADSHEET_ID"`
	UsersWorkbook          string        `json:"users_workbook" env:"USERS_XLSX"`
	ResultsWorkbook        string        `json:"results_workbook" env:"RESULTS_XLSX"`
	FetchTimeout           time.Duration `json:"fetch_timeout" env:"FETCH_TIMEOUT"`
	SecureCookies          bool          `json:"secure_cookies" env:"SECURE_COOKIES"`
}

// DefaultConfig returns a new config with default values
func DefaultConfig() *Config {
	return &Config{
		Addr:                   ":5000",
		GoogleCredentialsPath:  "credentials.json",
		UsersSpreadsheetID:     "1dg8BX4N1t0Owxkv65fxmRLhTTU4h9Vj8GOzWIZ0k1NM",
		UsersSheet:             "Usuarios",
		ResultsSpreadsheetName: "Resultados de Orientación vocacional",
		FetchTimeout:           30 * time.Second,
	}
}

// Load builds the configuration from defaults, the optional file named by
// CONFIG_FILE, an optional .env file and finally the process environment.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat .env file: %w", err)
	}

	cfg := DefaultConfig()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		var err error
		cfg, err = LoadFrom(path)
		if err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom loads configuration from a specific path
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if file doesn't exist
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// ApplyEnv overlays environment variables on top of the current values.
// Unset variables leave the existing value untouched.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	if c.Port != "" && os.Getenv("ADDR") == "" {
		c.Addr = ":" + c.Port
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}

	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch_timeout must be positive")
	}

	if c.UsersWorkbook == "" && c.UsersSpreadsheetID == "" {
		return fmt.Errorf("users_spreadsheet_id is required when no users workbook is set")
	}

	if c.ResultsWorkbook == "" && c.ResultsSpreadsheetID == "" && c.ResultsSpreadsheetName == "" {
		return fmt.Errorf("results_spreadsheet_name or results_spreadsheet_id is required")
	}

	for _, path := range []string{c.UsersWorkbook, c.ResultsWorkbook} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("workbook not found: %w", err)
		}
	}

	return nil
}

// NeedsGoogle reports whether any table is read from the remote store
func (c *Config) NeedsGoogle() bool {
	return c.UsersWorkbook == "" || c.ResultsWorkbook == ""
}
