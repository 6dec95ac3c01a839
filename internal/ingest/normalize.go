package ingest

import (
	"fmt"
	"strings"

	"github.com/vijay-prabhu/driver-recommender/internal/config"
	"github.com/vijay-prabhu/driver-recommender/internal/recommend"
	"github.com/vijay-prabhu/driver-recommender/internal/sheets"
)

// minColumns is the fewest columns a usable trip sheet can have
const minColumns = 3

// Report summarizes one normalization pass
type Report struct {
	RowsRead        int `json:"rows_read"`
	RowsSkipped     int `json:"rows_skipped"`
	CancelledTokens int `json:"cancelled_tokens"`
	Records         int `json:"records"`
}

// Normalizer turns raw sheet rows into trip records
type Normalizer struct {
	config config.IngestConfig
}

// NewNormalizer creates a normalizer for the configured column names
func NewNormalizer(cfg config.IngestConfig) *Normalizer {
	return &Normalizer{config: cfg}
}

// Validate checks that a table looks like a trip sheet
func (n *Normalizer) Validate(t *sheets.Table) error {
	if t == nil || len(t.Rows) == 0 {
		return Fail(StepEmpty, fmt.Errorf("sheet has no data rows"))
	}

	if t.Columns() < minColumns {
		return Fail(StepColumns, fmt.Errorf("sheet has %d columns, need at least %d", t.Columns(), minColumns))
	}

	for _, name := range n.config.Columns() {
		if t.Index(name) >= 0 {
			return nil
		}
	}
	return Fail(StepSchema, fmt.Errorf("none of the expected columns %q found; available columns: %q",
		n.config.Columns(), t.Header))
}

// Normalize validates the table and converts it into trip records. A row
// with several drivers yields one record per driver. Rows without a
// location or driver are skipped, as are cancelled driver tokens.
func (n *Normalizer) Normalize(t *sheets.Table) ([]recommend.TripRecord, Report, error) {
	var report Report
	if err := n.Validate(t); err != nil {
		return nil, report, err
	}

	locCol := t.Index(n.config.LocationColumn)
	provCol := t.Index(n.config.ProvinceColumn)
	driverCol := t.Index(n.config.DriverColumn)
	repCol := t.Index(n.config.RepresentativeColumn)

	records := make([]recommend.TripRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		report.RowsRead++

		location := strings.TrimSpace(t.Cell(row, locCol))
		driverCell := t.Cell(row, driverCol)
		if location == "" || strings.TrimSpace(driverCell) == "" {
			report.RowsSkipped++
			continue
		}

		province := strings.TrimSpace(t.Cell(row, provCol))
		rep := strings.TrimSpace(t.Cell(row, repCol))

		drivers, cancelled := n.SplitDrivers(driverCell)
		report.CancelledTokens += cancelled
		if len(drivers) == 0 {
			report.RowsSkipped++
			continue
		}

		for _, d := range drivers {
			records = append(records, recommend.TripRecord{
				Location:       location,
				Province:       province,
				Driver:         d,
				Representative: rep,
			})
		}
	}

	report.Records = len(records)
	if len(records) == 0 {
		return nil, report, Fail(StepRecords, fmt.Errorf("no usable trip records in %d rows", report.RowsRead))
	}
	return records, report, nil
}

// SplitDrivers splits a driver cell on the configured delimiter. Tokens are
// trimmed and empty tokens dropped. The second value counts tokens dropped
// because they equal the cancelled marker.
func (n *Normalizer) SplitDrivers(cell string) ([]string, int) {
	var drivers []string
	cancelled := 0
	for _, tok := range strings.Split(cell, n.config.MultiDriverDelimiter) {
		tok = strings.TrimSpace(tok)
		switch {
		case tok == "":
		case n.config.CancelledMarker != "" && tok == n.config.CancelledMarker:
			cancelled++
		default:
			drivers = append(drivers, tok)
		}
	}
	return drivers, cancelled
}
