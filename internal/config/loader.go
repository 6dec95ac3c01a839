package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Environment variables that override values from the config file
const (
	EnvSheetsURL       = "DRIVERREC_SHEETS_URL"
	EnvCredentialsPath = "DRIVERREC_CREDENTIALS_PATH"
	EnvDatabaseDSN     = "DRIVERREC_DATABASE_DSN"
	EnvServerAddr      = "DRIVERREC_SERVER_ADDR"
)

// Load reads and parses the configuration file.
// A missing file is not an error: defaults plus environment overrides are used.
func Load(path string) (*Config, error) {
	expandedPath, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path: %w", err)
	}

	cfg := Default()

	data, err := os.ReadFile(expandedPath)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
		// run 'driverrec config init' to create one
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// .env is optional
	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("failed to expand paths: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads config or exits with error
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvSheetsURL); v != "" {
		c.Sheets.URL = v
	}
	if v := os.Getenv(EnvCredentialsPath); v != "" {
		c.Sheets.CredentialsPath = v
	}
	if v := os.Getenv(EnvDatabaseDSN); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(EnvServerAddr); v != "" {
		c.Server.Addr = v
	}
}

// expandPath expands ~ to home directory
func expandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, path[1:]), nil
}

// expandPaths expands ~ in all path fields
func (c *Config) expandPaths() error {
	var err error

	c.Sheets.CredentialsPath, err = expandPath(c.Sheets.CredentialsPath)
	if err != nil {
		return err
	}

	c.Sheets.TokenPath, err = expandPath(c.Sheets.TokenPath)
	if err != nil {
		return err
	}

	c.Database.Path, err = expandPath(c.Database.Path)
	if err != nil {
		return err
	}

	return nil
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Sheets validation
	if c.Sheets.SheetName == "" {
		errs = append(errs, errors.New("sheets.sheet_name is required"))
	}
	if c.Sheets.TimeoutSeconds < 1 || c.Sheets.TimeoutSeconds > 600 {
		errs = append(errs, errors.New("sheets.timeout_seconds must be between 1 and 600"))
	}

	// Database validation
	switch c.Database.Driver {
	case "sqlite3":
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for sqlite3"))
		}
	case "pgx":
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database.dsn is required for pgx"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver must be 'sqlite3' or 'pgx', got '%s'", c.Database.Driver))
	}

	// Ingest validation
	if c.Ingest.LocationColumn == "" || c.Ingest.DriverColumn == "" {
		errs = append(errs, errors.New("ingest.location_column and ingest.driver_column are required"))
	}
	if c.Ingest.MultiDriverDelimiter == "" {
		errs = append(errs, errors.New("ingest.multi_driver_delimiter is required"))
	}

	// Scoring validation
	s := c.Scoring
	weights := []struct {
		name  string
		value float64
	}{
		{"direct_per_visit", s.DirectPerVisit},
		{"direct_cap", s.DirectCap},
		{"province_per_visit", s.ProvincePerVisit},
		{"province_cap", s.ProvinceCap},
		{"similar_per_match", s.SimilarPerMatch},
		{"similar_cap", s.SimilarCap},
		{"overall_per_trip", s.OverallPerTrip},
		{"overall_cap", s.OverallCap},
	}
	for _, w := range weights {
		if w.value < 0 {
			errs = append(errs, fmt.Errorf("scoring.%s must not be negative", w.name))
		}
	}
	if s.MaxScore() > 100 {
		errs = append(errs, fmt.Errorf("scoring caps must sum to at most 100, got %g", s.MaxScore()))
	}
	if s.SimilarMaxMatches < 0 {
		errs = append(errs, errors.New("scoring.similar_max_matches must not be negative"))
	}

	// Ranking validation
	validModes := map[string]bool{"actual": true, "scored": true}
	if !validModes[c.Ranking.DefaultMode] {
		errs = append(errs, fmt.Errorf("ranking.default_mode must be 'actual' or 'scored', got '%s'", c.Ranking.DefaultMode))
	}
	if c.Ranking.ActualTopN < 1 || c.Ranking.ScoredTopN < 1 {
		errs = append(errs, errors.New("ranking.actual_top_n and ranking.scored_top_n must be at least 1"))
	}

	// Server validation
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}

	// MCP validation
	if c.MCP.Transport != "stdio" {
		errs = append(errs, fmt.Errorf("mcp.transport must be 'stdio', got '%s'", c.MCP.Transport))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// SheetsTimeout returns the import timeout as a duration
func (c *Config) SheetsTimeout() time.Duration {
	return c.Sheets.Timeout()
}

// Timeout returns TimeoutSeconds as a duration
func (s SheetsConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// DatabaseDSN returns the data source name for the configured driver
func (c *Config) DatabaseDSN() string {
	if c.Database.Driver == "pgx" {
		return c.Database.DSN
	}
	return c.Database.Path
}

// EnsureDirectories creates necessary directories for database and tokens
func (c *Config) EnsureDirectories() error {
	dirs := []string{filepath.Dir(c.Sheets.TokenPath)}
	if c.Database.Driver == "sqlite3" {
		dirs = append(dirs, filepath.Dir(c.Database.Path))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
