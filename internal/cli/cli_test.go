package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/vijay-prabhu/driver-recommender/internal/config"
	"github.com/vijay-prabhu/driver-recommender/internal/database"
	"github.com/vijay-prabhu/driver-recommender/internal/recommend"
	"github.com/vijay-prabhu/driver-recommender/internal/refresh"
)

func TestParseDestination(t *testing.T) {
	tests := []struct {
		in   string
		want recommend.Destination
	}{
		{"Hospital X", recommend.Destination{Name: "Hospital X"}},
		{"Hospital X@Rayong", recommend.Destination{Name: "Hospital X", Province: "Rayong"}},
		{" Hospital X @ Rayong ", recommend.Destination{Name: "Hospital X", Province: "Rayong"}},
		{"shop@mall@Bangkok", recommend.Destination{Name: "shop@mall", Province: "Bangkok"}},
		{"Hospital X@", recommend.Destination{Name: "Hospital X"}},
		{"โรงพยาบาลระยอง@ระยอง", recommend.Destination{Name: "โรงพยาบาลระยอง", Province: "ระยอง"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseDestination(tt.in); got != tt.want {
				t.Errorf("parseDestination(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseDestinations(t *testing.T) {
	got := parseDestinations([]string{"A@P", "B"})
	want := []recommend.Destination{{Name: "A", Province: "P"}, {Name: "B"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseDestinations() = %+v, want %+v", got, want)
	}
}

func TestDefaultConfigMatchesDefaults(t *testing.T) {
	cfg := config.Default()
	if err := toml.Unmarshal([]byte(defaultConfig), cfg); err != nil {
		t.Fatalf("default config does not parse: %v", err)
	}

	want := config.Default()
	if !reflect.DeepEqual(cfg.Scoring, want.Scoring) {
		t.Errorf("scoring = %+v, want %+v", cfg.Scoring, want.Scoring)
	}
	if !reflect.DeepEqual(cfg.Ingest, want.Ingest) {
		t.Errorf("ingest = %+v, want %+v", cfg.Ingest, want.Ingest)
	}
	if cfg.Ranking != want.Ranking {
		t.Errorf("ranking = %+v, want %+v", cfg.Ranking, want.Ranking)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestPhaseColor(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range refresh.Phases {
		c := PhaseColor(string(p))
		if c == ColorWhite {
			t.Errorf("phase %s has no color", p)
		}
		seen[c] = true
	}
	if len(seen) != len(refresh.Phases) {
		t.Error("phases should have distinct colors")
	}
	if PhaseColor("other") != ColorWhite {
		t.Error("unknown phase should be white")
	}
}

func TestFormatETA(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, ""},
		{45 * time.Second, "45s"},
		{2 * time.Minute, "2m"},
		{150 * time.Second, "2m30s"},
		{90 * time.Minute, "1h30m"},
	}
	for _, tt := range tests {
		if got := FormatETA(tt.in); got != tt.want {
			t.Errorf("FormatETA(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExportTripsCSV(t *testing.T) {
	var buf bytes.Buffer
	trips := []recommend.TripRecord{
		{Location: "Hospital, X", Province: "P", Driver: "A"},
		{Location: "Market Y", Driver: "B", Representative: "R"},
	}
	if err := exportTripsCSV(&buf, trips); err != nil {
		t.Fatalf("exportTripsCSV() error = %v", err)
	}

	want := "location,province,driver,representative\n" +
		"\"Hospital, X\",P,A,\n" +
		"Market Y,,B,R\n"
	if buf.String() != want {
		t.Errorf("csv =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestExportDriversCSV(t *testing.T) {
	var buf bytes.Buffer
	drivers := []database.DriverRow{{
		Name:        "A",
		DriverStats: recommend.DriverStats{TotalTrips: 3, UniqueLocations: 2, ProvincesCovered: 1, AvgTripsPerLocation: 1.5},
		LastUpdated: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}}
	if err := exportDriversCSV(&buf, drivers); err != nil {
		t.Fatalf("exportDriversCSV() error = %v", err)
	}
	if !strings.HasSuffix(buf.String(), "A,3,2,1,1.50,2025-01-02T03:04:05Z\n") {
		t.Errorf("csv = %q", buf.String())
	}
}

func TestExportDriversFromStore(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(database.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	records := []recommend.TripRecord{
		{Location: "Hospital X", Province: "P", Driver: "A"},
		{Location: "Market Y", Province: "Q", Driver: "A"},
		{Location: "Market Y", Province: "Q", Driver: "B"},
	}
	snap := recommend.Build(records)
	now := time.Now()
	run := &database.ImportRun{ID: "run-1", Source: "test", Status: database.ImportSucceeded, StartedAt: now, FinishedAt: now}
	if err := db.ReplaceTrips(ctx, records, snap.Stats, run); err != nil {
		t.Fatalf("ReplaceTrips() error = %v", err)
	}

	rows, err := db.ListDriverStats(ctx)
	if err != nil {
		t.Fatalf("ListDriverStats() error = %v", err)
	}
	var buf bytes.Buffer
	if err := exportDriversCSV(&buf, rows); err != nil {
		t.Fatalf("exportDriversCSV() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "A,2,2,2,") || !strings.HasPrefix(lines[2], "B,1,1,1,") {
		t.Errorf("csv = %q", buf.String())
	}
}

func TestCheckDatabase(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(database.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := checkDatabase(ctx, db); err != nil {
		t.Errorf("open database: %v", err)
	}
	db.Close()
	if err := checkDatabase(ctx, db); err == nil || !strings.Contains(err.Error(), "database unreachable") {
		t.Errorf("closed database: error = %v", err)
	}
}

func TestProgressPrinterNonTerminal(t *testing.T) {
	term := &Terminal{}
	cb := progressPrinter(term)
	// must not panic on any phase, including unknown totals
	for _, p := range refresh.Phases {
		cb(refresh.Progress{Phase: p, Description: "start"})
		cb(refresh.Progress{Phase: p, Current: 4, Total: 4, Description: "done"})
	}
}
