package gsheets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vijay-prabhu/driver-recommender/internal/sheets"
)

const exportBaseURL = "https://docs.google.com/spreadsheets/d"

// PublicSource downloads a link-shared spreadsheet through its CSV export
// endpoint. No credentials are needed.
type PublicSource struct {
	ref     Ref
	baseURL string
	client  *http.Client
}

// NewPublicSource creates a CSV export source
func NewPublicSource(ref Ref, timeout time.Duration) *PublicSource {
	return &PublicSource{
		ref:     ref,
		baseURL: exportBaseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name returns the source identifier
func (s *PublicSource) Name() string {
	return "sheets-public:" + s.ref.ID + "#gid=" + s.ref.GID
}

// ExportURL returns the CSV export URL for a tab
func (s *PublicSource) ExportURL(gid string) string {
	return fmt.Sprintf("%s/%s/export?format=csv&gid=%s", s.baseURL, s.ref.ID, gid)
}

// Fetch downloads the configured tab. If that fails and the tab is not the
// first one, the first tab (gid 0) is tried before giving up.
func (s *PublicSource) Fetch(ctx context.Context) (*sheets.Table, error) {
	table, err := s.fetchGID(ctx, s.ref.GID)
	if err == nil || s.ref.GID == "0" {
		return table, err
	}

	fallback, ferr := s.fetchGID(ctx, "0")
	if ferr != nil {
		return nil, errors.Join(err, ferr)
	}
	return fallback, nil
}

func (s *PublicSource) fetchGID(ctx context.Context, gid string) (*sheets.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.ExportURL(gid), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download gid %s: %w", gid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("failed to download gid %s: unexpected status %s", gid, resp.Status)
	}

	table, err := sheets.ParseCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gid %s: %w", gid, err)
	}
	return table, nil
}
