package config

// Config represents the application configuration
type Config struct {
	Sheets   SheetsConfig   `toml:"sheets"`
	Database DatabaseConfig `toml:"database"`
	Ingest   IngestConfig   `toml:"ingest"`
	Scoring  ScoringConfig  `toml:"scoring"`
	Ranking  RankingConfig  `toml:"ranking"`
	Drivers  DriversConfig  `toml:"drivers"`
	Server   ServerConfig   `toml:"server"`
	MCP      MCPConfig      `toml:"mcp"`
}

// SheetsConfig contains Google Sheets import settings
type SheetsConfig struct {
	URL             string `toml:"url"`
	SheetName       string `toml:"sheet_name"`
	CredentialsPath string `toml:"credentials_path"`
	TokenPath       string `toml:"token_path"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Driver string `toml:"driver"` // sqlite3 or pgx
	Path   string `toml:"path"`
	// DSN is used by the pgx driver; it can also be set via DRIVERREC_DATABASE_DSN
	DSN string `toml:"dsn"`
}

// IngestConfig controls how raw spreadsheet rows become trip records
type IngestConfig struct {
	LocationColumn       string `toml:"location_column"`
	ProvinceColumn       string `toml:"province_column"`
	DriverColumn         string `toml:"driver_column"`
	RepresentativeColumn string `toml:"representative_column"`
	CancelledMarker      string `toml:"cancelled_marker"`
	MultiDriverDelimiter string `toml:"multi_driver_delimiter"`
}

// Columns returns the four expected field names in a stable order
func (i IngestConfig) Columns() []string {
	return []string{i.LocationColumn, i.ProvinceColumn, i.DriverColumn, i.RepresentativeColumn}
}

// ScoringConfig holds the points and caps of the compatibility score
type ScoringConfig struct {
	DirectPerVisit    float64  `toml:"direct_per_visit"`
	DirectCap         float64  `toml:"direct_cap"`
	ProvincePerVisit  float64  `toml:"province_per_visit"`
	ProvinceCap       float64  `toml:"province_cap"`
	SimilarPerMatch   float64  `toml:"similar_per_match"`
	SimilarCap        float64  `toml:"similar_cap"`
	SimilarMaxMatches int      `toml:"similar_max_matches"`
	OverallPerTrip    float64  `toml:"overall_per_trip"`
	OverallCap        float64  `toml:"overall_cap"`
	Stopwords         []string `toml:"stopwords"`
}

// MaxScore returns the highest score the configured caps allow
func (s ScoringConfig) MaxScore() float64 {
	return s.DirectCap + s.ProvinceCap + s.SimilarCap + s.OverallCap
}

// RankingConfig contains route ranking defaults
type RankingConfig struct {
	DefaultMode string `toml:"default_mode"`
	ActualTopN  int    `toml:"actual_top_n"`
	ScoredTopN  int    `toml:"scored_top_n"`
}

// DriversConfig lists drivers that should be ranked even without trip history
type DriversConfig struct {
	Roster []string `toml:"roster"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// MCPConfig contains MCP server settings
type MCPConfig struct {
	Enabled   bool   `toml:"enabled"`
	Transport string `toml:"transport"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Sheets: SheetsConfig{
			SheetName:       "datatrip",
			CredentialsPath: "~/.config/driverrec/credentials.json",
			TokenPath:       "~/.config/driverrec/token.json",
			TimeoutSeconds:  60,
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			Path:   "~/.local/share/driverrec/driver_data.db",
		},
		Ingest: IngestConfig{
			LocationColumn:       "สถานที่ส่ง",
			ProvinceColumn:       "จังหวัด",
			DriverColumn:         "Driver",
			RepresentativeColumn: "ผู้แทน",
			CancelledMarker:      "ยกเลิก",
			MultiDriverDelimiter: "+",
		},
		Scoring: ScoringConfig{
			DirectPerVisit:    10,
			DirectCap:         40,
			ProvincePerVisit:  3,
			ProvinceCap:       30,
			SimilarPerMatch:   5,
			SimilarCap:        20,
			SimilarMaxMatches: 5,
			OverallPerTrip:    0.5,
			OverallCap:        10,
			Stopwords:         []string{"โรงพยาบาล", "ที่"},
		},
		Ranking: RankingConfig{
			DefaultMode: "actual",
			ActualTopN:  30,
			ScoredTopN:  10,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8642",
		},
		MCP: MCPConfig{
			Enabled:   true,
			Transport: "stdio",
		},
	}
}
