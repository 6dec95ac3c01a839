package csvfile

import (
	"context"
	"fmt"
	"os"

	"github.com/vijay-prabhu/driver-recommender/internal/sheets"
)

// Source reads trip rows from a local CSV export
type Source struct {
	path string
}

// New creates a source for the CSV file at path
func New(path string) *Source {
	return &Source{path: path}
}

// Name returns the source identifier
func (s *Source) Name() string {
	return "csv:" + s.path
}

// Fetch reads and parses the file
func (s *Source) Fetch(ctx context.Context) (*sheets.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer f.Close()

	return sheets.ParseCSV(f)
}
