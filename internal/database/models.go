package database

import (
	"database/sql"
	"time"

	"github.com/vijay-prabhu/driver-recommender/internal/recommend"
)

// ImportStatus is the outcome of an import run
type ImportStatus string

const (
	ImportSucceeded ImportStatus = "succeeded"
	ImportFailed    ImportStatus = "failed"
)

// ImportRun records one attempt to refresh the trip data
type ImportRun struct {
	ID              string       `json:"id"`
	Source          string       `json:"source"`
	Status          ImportStatus `json:"status"`
	Step            *string      `json:"step,omitempty"`
	RowsRead        int          `json:"rows_read"`
	RowsSkipped     int          `json:"rows_skipped"`
	CancelledTokens int          `json:"cancelled_tokens"`
	Records         int          `json:"records"`
	Drivers         int          `json:"drivers"`
	Error           *string      `json:"error,omitempty"`
	StartedAt       time.Time    `json:"started_at"`
	FinishedAt      time.Time    `json:"finished_at"`
}

// Duration returns how long the run took
func (r *ImportRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// DriverRow is a driver's stored stats
type DriverRow struct {
	Name string `json:"driver"`
	recommend.DriverStats
	LastUpdated time.Time `json:"last_updated"`
}

// Location is a known destination with its province
type Location struct {
	Name     string `json:"location"`
	Province string `json:"province,omitempty"`
}

// Summary holds dataset-wide counts
type Summary struct {
	Database   string     `json:"database"`
	Trips      int        `json:"trips"`
	Drivers    int        `json:"drivers"`
	Locations  int        `json:"locations"`
	Provinces  int        `json:"provinces"`
	LastImport *ImportRun `json:"last_import,omitempty"`
}

// NullString is a helper to convert *string to sql.NullString
func NullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// StringPtr converts sql.NullString to *string
func StringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
