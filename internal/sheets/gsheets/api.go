package gsheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/vijay-prabhu/driver-recommender/internal/sheets"
)

// APISource reads a named tab through the Google Sheets API
type APISource struct {
	ref       Ref
	sheetName string
	credPath  string
	tokenPath string
	opts      []option.ClientOption
}

// NewAPISource creates a Sheets API source authenticated with the
// credentials file at credPath
func NewAPISource(ref Ref, sheetName, credPath, tokenPath string) *APISource {
	return &APISource{
		ref:       ref,
		sheetName: sheetName,
		credPath:  credPath,
		tokenPath: tokenPath,
	}
}

// WithClientOptions replaces credential loading with the given options
func (s *APISource) WithClientOptions(opts ...option.ClientOption) *APISource {
	s.opts = opts
	return s
}

// Name returns the source identifier
func (s *APISource) Name() string {
	return "sheets-api:" + s.ref.ID + "/" + s.sheetName
}

// Fetch reads every cell of the configured tab
func (s *APISource) Fetch(ctx context.Context) (*sheets.Table, error) {
	opts := s.opts
	if len(opts) == 0 {
		var err error
		opts, err = clientOptions(ctx, s.credPath, s.tokenPath)
		if err != nil {
			return nil, err
		}
	}

	service, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}

	resp, err := service.Spreadsheets.Values.Get(s.ref.ID, s.sheetName).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", s.sheetName, err)
	}

	return sheets.NewTable(stringRows(resp.Values)), nil
}

func stringRows(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			if v == nil {
				continue
			}
			cells[j] = fmt.Sprint(v)
		}
		rows[i] = cells
	}
	return rows
}
