package gsheets

import (
	"fmt"
	"os"

	"github.com/vijay-prabhu/driver-recommender/internal/config"
	"github.com/vijay-prabhu/driver-recommender/internal/sheets"
)

// NewSource picks the import source for the configured spreadsheet. The
// Sheets API is used when a credentials file exists, the public CSV export
// otherwise.
func NewSource(cfg config.SheetsConfig) (sheets.Source, error) {
	ref, err := ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid spreadsheet url: %w", err)
	}

	if cfg.CredentialsPath != "" {
		if _, err := os.Stat(cfg.CredentialsPath); err == nil {
			return NewAPISource(ref, cfg.SheetName, cfg.CredentialsPath, cfg.TokenPath), nil
		}
	}

	return NewPublicSource(ref, cfg.Timeout()), nil
}
