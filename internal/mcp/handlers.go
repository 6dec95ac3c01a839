package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vijay-prabhu/driver-recommender/internal/recommend"
	"github.com/vijay-prabhu/driver-recommender/internal/refresh"
)

func (s *Server) registerHandlers() {
	s.handlers["rank_drivers"] = s.handleRankDrivers
	s.handlers["list_drivers"] = s.handleListDrivers
	s.handlers["get_driver"] = s.handleGetDriver
	s.handlers["search_locations"] = s.handleSearchLocations
}

type rankDriversParams struct {
	Destinations []recommend.Destination `json:"destinations"`
	Mode         string                  `json:"mode"`
	TopN         int                     `json:"top_n"`
}

func (s *Server) handleRankDrivers(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p rankDriversParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	req := refresh.RankRequest{Destinations: p.Destinations, TopN: p.TopN}
	if p.Mode != "" {
		mode, err := recommend.ParseMode(p.Mode)
		if err != nil {
			return nil, err
		}
		req.Mode = mode
	}

	return s.svc.Rank(ctx, req)
}

type listDriversParams struct {
	Limit int `json:"limit"`
}

func (s *Server) handleListDrivers(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p listDriversParams
	if params != nil {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("invalid parameters: %w", err)
		}
	}

	drivers := s.svc.Snapshot().Summary()
	if p.Limit > 0 && len(drivers) > p.Limit {
		drivers = drivers[:p.Limit]
	}
	return drivers, nil
}

type getDriverParams struct {
	Name string `json:"name"`
}

func (s *Server) handleGetDriver(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p getDriverParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}

	profile, ok := s.svc.Snapshot().Profile(name)
	if !ok {
		return nil, fmt.Errorf("driver not found: %s", name)
	}
	return profile, nil
}

type searchLocationsParams struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func (s *Server) handleSearchLocations(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p searchLocationsParams
	if params != nil {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, fmt.Errorf("invalid parameters: %w", err)
		}
	}

	if p.Limit <= 0 {
		p.Limit = 20
	}

	return s.svc.Locations(ctx, p.Query, p.Limit)
}

// Resource handlers

func (s *Server) handleReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case "driverrec://summary":
		return s.getResourceSummary(ctx)
	case "driverrec://locations":
		return s.getResourceLocations(ctx)
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

func (s *Server) getResourceSummary(ctx context.Context) (string, error) {
	summary, err := s.db.GetSummary(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Trip Data Summary
=================
Trip records: %d
Drivers:      %d
Locations:    %d
Provinces:    %d
`, summary.Trips, summary.Drivers, summary.Locations, summary.Provinces)

	if last := summary.LastImport; last != nil {
		fmt.Fprintf(&b, "\nLast import: %s (%s, %d records)\n",
			last.FinishedAt.Format("2006-01-02 15:04"), last.Status, last.Records)
	} else {
		b.WriteString("\nNo import has run yet.\n")
	}

	top := s.svc.Snapshot().Summary()
	if len(top) > 0 {
		b.WriteString("\nMost experienced drivers:\n")
		for i, d := range top {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "  %d. %s - %d trips, %d locations\n", i+1, d.Driver, d.TotalTrips, d.UniqueLocations)
		}
	}

	return b.String(), nil
}

func (s *Server) getResourceLocations(ctx context.Context) (string, error) {
	locations, err := s.svc.Locations(ctx, "", 0)
	if err != nil {
		return "", err
	}

	if len(locations) == 0 {
		return "No locations yet. Run an import first.\n", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Known Locations (%d)\n", len(locations))
	b.WriteString("===============\n")
	for _, l := range locations {
		if l.Province != "" {
			fmt.Fprintf(&b, "%s (%s)\n", l.Name, l.Province)
		} else {
			fmt.Fprintf(&b, "%s\n", l.Name)
		}
	}
	return b.String(), nil
}
