package recommend

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/vijay-prabhu/driver-recommender/internal/config"
)

func newTestEngine() *Engine {
	cfg := config.Default()
	return NewEngine(cfg.Scoring, cfg.Ranking)
}

func TestRank_ActualVisitScenario(t *testing.T) {
	e := newTestEngine()
	snap := Build(repeat(TripRecord{Location: "Hospital X", Province: "P", Driver: "A"}, 3), "B")

	got, err := e.Rank(snap, []Destination{{Name: "Hospital X", Province: "P"}}, Options{Mode: ModeActual, TopN: 10})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	if len(got.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(got.Results))
	}

	a, b := got.Results[0], got.Results[1]
	if a.Driver != "A" || a.Rank != 1 || a.DestinationsVisited != 1 || a.TotalTrips != 3 {
		t.Errorf("first = %+v, want A rank 1 with 1 visited and 3 trips", a)
	}
	if b.Driver != "B" || b.Rank != 2 || b.DestinationsVisited != 0 || b.TotalTrips != 0 {
		t.Errorf("second = %+v, want B rank 2 with nothing visited", b)
	}
	if a.CompletionRatio != 1 || b.CompletionRatio != 0 {
		t.Errorf("completion ratios = %g, %g; want 1, 0", a.CompletionRatio, b.CompletionRatio)
	}
	if !a.Details[0].Visited || a.Details[0].TripCount != 3 {
		t.Errorf("A detail = %+v", a.Details[0])
	}
}

func TestRank_TrimsDestinationNames(t *testing.T) {
	e := newTestEngine()
	snap := Build(repeat(TripRecord{Location: "Hospital X", Province: "P", Driver: "A"}, 3))
	route := []Destination{{Name: " Hospital X ", Province: " P "}}

	actual, err := e.Rank(snap, route, Options{Mode: ModeActual})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	a := actual.Results[0]
	if a.DestinationsVisited != 1 || a.TotalTrips != 3 {
		t.Errorf("padded name: visited = %d, trips = %d; want 1, 3", a.DestinationsVisited, a.TotalTrips)
	}
	if got := actual.Destinations[0]; got.Name != "Hospital X" || got.Province != "P" {
		t.Errorf("Destinations[0] = %+v, want trimmed", got)
	}
	if route[0].Name != " Hospital X " {
		t.Error("input route was modified")
	}

	scored, err := e.Rank(snap, route, Options{Mode: ModeScored})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	plain, _ := e.Rank(snap, []Destination{{Name: "Hospital X", Province: "P"}}, Options{Mode: ModeScored})
	if scored.Results[0].AverageScore != plain.Results[0].AverageScore {
		t.Errorf("padded score = %g, want %g", scored.Results[0].AverageScore, plain.Results[0].AverageScore)
	}
}

func TestRank_InvalidRoute(t *testing.T) {
	e := newTestEngine()
	snap := Build(sampleRecords())

	tests := []struct {
		name  string
		route []Destination
	}{
		{"empty", nil},
		{"too many", []Destination{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}, {Name: "e"}}},
		{"blank name", []Destination{{Name: "Rayong Hospital"}, {Name: "  "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, mode := range []Mode{ModeActual, ModeScored} {
				_, err := e.Rank(snap, tt.route, Options{Mode: mode})
				if !errors.Is(err, ErrInvalidRoute) {
					t.Errorf("%s: error = %v, want ErrInvalidRoute", mode, err)
				}
			}
		})
	}
}

func TestRank_InvalidRouteOnEmptySnapshot(t *testing.T) {
	e := newTestEngine()
	if _, err := e.Rank(nil, nil, Options{}); !errors.Is(err, ErrInvalidRoute) {
		t.Errorf("error = %v, want ErrInvalidRoute", err)
	}
}

func TestRank_UnknownMode(t *testing.T) {
	e := newTestEngine()
	_, err := e.Rank(Build(sampleRecords()), []Destination{{Name: "x"}}, Options{Mode: "fastest"})
	if err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestRank_TieBreakByName(t *testing.T) {
	e := newTestEngine()
	var records []TripRecord
	for _, d := range []string{"Wichai", "Anan", "Boonmee", "Arthit"} {
		records = append(records, TripRecord{Location: "Depot", Province: "P", Driver: d})
	}
	snap := Build(records)
	route := []Destination{{Name: "Depot", Province: "P"}}

	for _, mode := range []Mode{ModeActual, ModeScored} {
		got, err := e.Rank(snap, route, Options{Mode: mode})
		if err != nil {
			t.Fatalf("%s: Rank() error = %v", mode, err)
		}
		want := []string{"Anan", "Arthit", "Boonmee", "Wichai"}
		for i, r := range got.Results {
			if r.Driver != want[i] {
				t.Errorf("%s: result %d = %s, want %s", mode, i, r.Driver, want[i])
			}
		}
	}
}

func TestRank_ActualOrdering(t *testing.T) {
	e := newTestEngine()
	var records []TripRecord
	// C covers both stops once, D covers one stop many times
	records = append(records, TripRecord{Location: "L1", Driver: "C"}, TripRecord{Location: "L2", Driver: "C"})
	records = append(records, repeat(TripRecord{Location: "L1", Driver: "D"}, 9)...)
	records = append(records, repeat(TripRecord{Location: "L2", Driver: "E"}, 4)...)
	snap := Build(records)

	got, err := e.Rank(snap, []Destination{{Name: "L1"}, {Name: "L2"}}, Options{Mode: ModeActual})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	order := []string{got.Results[0].Driver, got.Results[1].Driver, got.Results[2].Driver}
	want := []string{"C", "D", "E"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if got.Results[0].CompletionRatio != 1 || got.Results[1].CompletionRatio != 0.5 {
		t.Errorf("completion ratios = %g, %g", got.Results[0].CompletionRatio, got.Results[1].CompletionRatio)
	}
}

func TestRank_ScoredAverage(t *testing.T) {
	e := newTestEngine()
	records := repeat(TripRecord{Location: "Hospital X", Province: "P", Driver: "A"}, 3)
	records = append(records, TripRecord{Location: "Market Y", Province: "Q", Driver: "B"})
	snap := Build(records)

	route := []Destination{{Name: "Hospital X", Province: "P"}, {Name: "Depot Z", Province: "R"}}
	got, err := e.Rank(snap, route, Options{Mode: ModeScored})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	top := got.Results[0]
	if top.Driver != "A" {
		t.Fatalf("top driver = %s, want A", top.Driver)
	}
	// Hospital X: 30 + 9 + 5 + 1.5; Depot Z: overall 1.5 only
	if top.TotalScore != 47 {
		t.Errorf("TotalScore = %g, want 47", top.TotalScore)
	}
	if top.AverageScore != 23.5 {
		t.Errorf("AverageScore = %g, want 23.5", top.AverageScore)
	}
	if top.Details[0].Score != 45.5 || top.Details[1].Score != 1.5 {
		t.Errorf("detail scores = %g, %g", top.Details[0].Score, top.Details[1].Score)
	}
	if len(top.Details[0].Explanations) == 0 {
		t.Error("scored details should carry explanations")
	}

	for _, r := range got.Results {
		if r.AverageScore < 0 || r.AverageScore > 100 {
			t.Errorf("%s average %g out of range", r.Driver, r.AverageScore)
		}
	}
}

func TestRank_TopN(t *testing.T) {
	e := newTestEngine()
	var records []TripRecord
	for i := 0; i < 40; i++ {
		records = append(records, TripRecord{Location: "L", Driver: fmt.Sprintf("driver-%02d", i)})
	}
	snap := Build(records)
	route := []Destination{{Name: "L"}}

	tests := []struct {
		name string
		opts Options
		want int
	}{
		{"explicit", Options{Mode: ModeActual, TopN: 5}, 5},
		{"actual default", Options{Mode: ModeActual}, 30},
		{"scored default", Options{Mode: ModeScored}, 10},
		{"larger than drivers", Options{Mode: ModeActual, TopN: 100}, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Rank(snap, route, tt.opts)
			if err != nil {
				t.Fatalf("Rank() error = %v", err)
			}
			if len(got.Results) != tt.want {
				t.Errorf("len(Results) = %d, want %d", len(got.Results), tt.want)
			}
			if got.DriversConsidered != 40 {
				t.Errorf("DriversConsidered = %d, want 40", got.DriversConsidered)
			}
			for i, r := range got.Results {
				if r.Rank != i+1 {
					t.Errorf("result %d has rank %d", i, r.Rank)
				}
			}
		})
	}
}

func TestRank_DefaultModeFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Ranking.DefaultMode = "scored"
	e := NewEngine(cfg.Scoring, cfg.Ranking)

	got, err := e.Rank(Build(sampleRecords()), []Destination{{Name: "Rayong Hospital"}}, Options{})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if got.Mode != ModeScored {
		t.Errorf("Mode = %s, want scored", got.Mode)
	}
}

func TestRank_EmptyDataset(t *testing.T) {
	e := newTestEngine()

	for _, snap := range []*Snapshot{nil, Build(nil)} {
		got, err := e.Rank(snap, []Destination{{Name: "Rayong Hospital"}}, Options{Mode: ModeActual})
		if err != nil {
			t.Fatalf("Rank() error = %v", err)
		}
		if got.Status != StatusEmptyDataset {
			t.Errorf("Status = %s, want %s", got.Status, StatusEmptyDataset)
		}
		if got.Results == nil || len(got.Results) != 0 {
			t.Errorf("Results = %#v, want empty", got.Results)
		}
	}
}

func TestRank_Deterministic(t *testing.T) {
	e := newTestEngine()
	snap := Build(sampleRecords(), "Mangkorn")
	route := []Destination{
		{Name: "Rayong Hospital", Province: "Rayong"},
		{Name: "Sisaket Hospital", Province: "Sisaket"},
	}

	for _, mode := range []Mode{ModeActual, ModeScored} {
		first, err := e.Rank(snap, route, Options{Mode: mode})
		if err != nil {
			t.Fatalf("Rank() error = %v", err)
		}
		want, _ := json.Marshal(first)

		for i := 0; i < 10; i++ {
			again, _ := e.Rank(snap, route, Options{Mode: mode})
			got, _ := json.Marshal(again)
			if string(got) != string(want) {
				t.Fatalf("%s: ranking changed between calls", mode)
			}
		}
	}
}

func TestRank_DoesNotMutateSnapshot(t *testing.T) {
	e := newTestEngine()
	snap := Build(sampleRecords())
	before, _ := json.Marshal(snap.Experience)

	if _, err := e.Rank(snap, []Destination{{Name: "Unvisited Place", Province: "Nowhere"}}, Options{Mode: ModeScored}); err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	after, _ := json.Marshal(snap.Experience)
	if string(before) != string(after) {
		t.Error("ranking modified the experience matrix")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"actual", ModeActual, false},
		{" Scored ", ModeScored, false},
		{"best", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
