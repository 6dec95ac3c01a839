package recommend

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/vijay-prabhu/driver-recommender/internal/config"
)

// MaxDestinations is the largest route that can be ranked
const MaxDestinations = 4

// ErrInvalidRoute is returned when a route is empty, too long, or has a blank stop
var ErrInvalidRoute = errors.New("invalid route")

// Mode selects how drivers are compared for a route
type Mode string

const (
	// ModeActual ranks by literal visit counts
	ModeActual Mode = "actual"
	// ModeScored ranks by average compatibility score
	ModeScored Mode = "scored"
)

// ParseMode converts a string into a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeActual:
		return ModeActual, nil
	case ModeScored:
		return ModeScored, nil
	default:
		return "", fmt.Errorf("unknown ranking mode %q (use actual or scored)", s)
	}
}

// Status describes the outcome of a ranking
type Status string

const (
	StatusOK           Status = "ok"
	StatusEmptyDataset Status = "empty_dataset"
)

// Options configures a single ranking request
type Options struct {
	Mode Mode `json:"mode"`
	TopN int  `json:"top_n"`
}

// DestinationDetail is one driver's evidence for one stop of the route
type DestinationDetail struct {
	Destination  string   `json:"destination"`
	Province     string   `json:"province,omitempty"`
	TripCount    int      `json:"trip_count"`
	Visited      bool     `json:"visited"`
	Score        float64  `json:"score,omitempty"`
	Explanations []string `json:"explanations,omitempty"`
}

// RankedDriver is one row of a ranking
type RankedDriver struct {
	Rank                int                 `json:"rank"`
	Driver              string              `json:"driver"`
	DestinationsVisited int                 `json:"destinations_visited"`
	DestinationsCount   int                 `json:"destinations_count"`
	CompletionRatio     float64             `json:"completion_ratio"`
	TotalTrips          int                 `json:"total_trips"`
	TotalScore          float64             `json:"total_score,omitempty"`
	AverageScore        float64             `json:"average_score,omitempty"`
	Details             []DestinationDetail `json:"route_details"`
	Stats               DriverStats         `json:"stats"`
}

// Ranking is the ordered result for a route
type Ranking struct {
	Mode              Mode           `json:"mode"`
	Destinations      []Destination  `json:"destinations"`
	Status            Status         `json:"status"`
	Message           string         `json:"message,omitempty"`
	DriversConsidered int            `json:"drivers_considered"`
	Results           []RankedDriver `json:"results"`
}

// Engine ranks drivers for routes against a Snapshot
type Engine struct {
	scorer *Scorer
	config config.RankingConfig
}

// NewEngine creates a ranking engine
func NewEngine(scoring config.ScoringConfig, ranking config.RankingConfig) *Engine {
	return &Engine{
		scorer: NewScorer(scoring),
		config: ranking,
	}
}

// Scorer returns the engine's compatibility scorer
func (e *Engine) Scorer() *Scorer {
	return e.scorer
}

// DefaultTopN returns the result limit used when a request does not set one
func (e *Engine) DefaultTopN(mode Mode) int {
	if mode == ModeScored {
		return e.config.ScoredTopN
	}
	return e.config.ActualTopN
}

// NormalizeRoute returns a copy of route with names and provinces trimmed
func NormalizeRoute(route []Destination) []Destination {
	out := make([]Destination, len(route))
	for i, d := range route {
		out[i] = Destination{
			Name:     strings.TrimSpace(d.Name),
			Province: strings.TrimSpace(d.Province),
		}
	}
	return out
}

// ValidateRoute checks that a route has 1 to MaxDestinations non-blank stops
func ValidateRoute(route []Destination) error {
	if len(route) == 0 {
		return fmt.Errorf("%w: at least one destination is required", ErrInvalidRoute)
	}
	if len(route) > MaxDestinations {
		return fmt.Errorf("%w: %d destinations given, maximum is %d", ErrInvalidRoute, len(route), MaxDestinations)
	}
	for i, d := range route {
		if strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("%w: destination %d has no name", ErrInvalidRoute, i+1)
		}
	}
	return nil
}

// Rank orders every known driver for the route.
//
// Actual mode sorts by destinations visited, then total trips on the route,
// both descending. Scored mode sorts by average score descending. Ties in
// either mode are broken by driver name in ascending byte order, so equal
// input always produces the same output.
func (e *Engine) Rank(snap *Snapshot, route []Destination, opts Options) (*Ranking, error) {
	route = NormalizeRoute(route)
	if err := ValidateRoute(route); err != nil {
		return nil, err
	}

	mode := opts.Mode
	if mode == "" {
		m, err := ParseMode(e.config.DefaultMode)
		if err != nil {
			return nil, err
		}
		mode = m
	}
	if mode != ModeActual && mode != ModeScored {
		return nil, fmt.Errorf("unknown ranking mode %q", mode)
	}

	topN := opts.TopN
	if topN <= 0 {
		topN = e.DefaultTopN(mode)
	}

	ranking := &Ranking{
		Mode:         mode,
		Destinations: route,
		Status:       StatusOK,
		Results:      []RankedDriver{},
	}

	if snap.Len() == 0 {
		ranking.Status = StatusEmptyDataset
		ranking.Message = "no driver data loaded; run an import first"
		return ranking, nil
	}

	drivers := snap.Drivers()
	ranking.DriversConsidered = len(drivers)

	results := make([]RankedDriver, 0, len(drivers))
	for _, name := range drivers {
		view := snap.Driver(name)
		if mode == ModeScored {
			results = append(results, e.scoreRoute(view, route))
		} else {
			results = append(results, e.countRoute(view, route))
		}
	}

	if mode == ModeScored {
		slices.SortStableFunc(results, compareScored)
	} else {
		slices.SortStableFunc(results, compareActual)
	}

	if len(results) > topN {
		results = results[:topN]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	ranking.Results = results

	return ranking, nil
}

func (e *Engine) countRoute(d DriverView, route []Destination) RankedDriver {
	rd := RankedDriver{
		Driver:            d.Name,
		DestinationsCount: len(route),
		Details:           make([]DestinationDetail, 0, len(route)),
		Stats:             d.Stats,
	}
	for _, dest := range route {
		count := d.Locations[dest.Name]
		rd.Details = append(rd.Details, DestinationDetail{
			Destination: dest.Name,
			Province:    dest.Province,
			TripCount:   count,
			Visited:     count > 0,
		})
		rd.TotalTrips += count
		if count > 0 {
			rd.DestinationsVisited++
		}
	}
	rd.CompletionRatio = float64(rd.DestinationsVisited) / float64(len(route))
	return rd
}

func (e *Engine) scoreRoute(d DriverView, route []Destination) RankedDriver {
	rd := e.countRoute(d, route)
	for i, dest := range route {
		score := e.scorer.Score(dest, d)
		rd.Details[i].Score = score.Value
		rd.Details[i].Explanations = score.Explanations
		rd.TotalScore += score.Value
	}
	rd.TotalScore = round2(rd.TotalScore)
	rd.AverageScore = round2(rd.TotalScore / float64(len(route)))
	return rd
}

func compareActual(a, b RankedDriver) int {
	if c := cmp.Compare(b.DestinationsVisited, a.DestinationsVisited); c != 0 {
		return c
	}
	if c := cmp.Compare(b.TotalTrips, a.TotalTrips); c != 0 {
		return c
	}
	return strings.Compare(a.Driver, b.Driver)
}

func compareScored(a, b RankedDriver) int {
	if c := cmp.Compare(b.AverageScore, a.AverageScore); c != 0 {
		return c
	}
	return strings.Compare(a.Driver, b.Driver)
}
