package recommend

import (
	"fmt"
	"math"
	"strings"

	"github.com/vijay-prabhu/driver-recommender/internal/config"
)

// Component identifies one part of the compatibility score
type Component string

const (
	ComponentDirect   Component = "direct"
	ComponentProvince Component = "province"
	ComponentSimilar  Component = "similar"
	ComponentOverall  Component = "overall"
)

// similarShown is how many similar locations an explanation names
const similarShown = 3

// Score is the compatibility of one driver with one destination
type Score struct {
	Value        float64               `json:"score"`
	Explanations []string              `json:"explanations"`
	Components   map[Component]float64 `json:"components,omitempty"`
	Stats        DriverStats           `json:"stats"`
}

// Scorer computes bounded compatibility scores
type Scorer struct {
	config    config.ScoringConfig
	stopwords map[string]struct{}
}

// NewScorer creates a new Scorer with the given configuration
func NewScorer(cfg config.ScoringConfig) *Scorer {
	stop := make(map[string]struct{}, len(cfg.Stopwords))
	for _, w := range cfg.Stopwords {
		stop[strings.ToLower(w)] = struct{}{}
	}
	return &Scorer{config: cfg, stopwords: stop}
}

// Score rates a driver for a destination.
//
// Four capped components are summed and rounded to two decimals:
//
//	direct   = min(visits(destination) * DirectPerVisit, DirectCap)
//	province = min(visits(province) * ProvincePerVisit, ProvinceCap)   (only with a province)
//	similar  = min(len(similar locations) * SimilarPerMatch, SimilarCap)
//	overall  = min(total trips * OverallPerTrip, OverallCap)
//
// Each non-zero component adds one explanation.
func (s *Scorer) Score(dest Destination, d DriverView) Score {
	result := Score{
		Explanations: []string{},
		Components:   make(map[Component]float64),
		Stats:        d.Stats,
	}
	total := 0.0

	add := func(c Component, points float64, explanation string) {
		if points <= 0 {
			return
		}
		total += points
		result.Components[c] = points
		result.Explanations = append(result.Explanations, fmt.Sprintf("%s (+%g)", explanation, points))
	}

	if visits := d.Locations[dest.Name]; visits > 0 {
		points := math.Min(float64(visits)*s.config.DirectPerVisit, s.config.DirectCap)
		add(ComponentDirect, points, fmt.Sprintf("visited %s %d %s", dest.Name, visits, plural(visits, "time", "times")))
	}

	if dest.Province != "" {
		if visits := d.Provinces[dest.Province]; visits > 0 {
			points := math.Min(float64(visits)*s.config.ProvincePerVisit, s.config.ProvinceCap)
			add(ComponentProvince, points, fmt.Sprintf("%d %s in province %s", visits, plural(visits, "trip", "trips"), dest.Province))
		}
	}

	if similar := s.SimilarLocations(dest.Name, d.Locations); len(similar) > 0 {
		points := math.Min(float64(len(similar))*s.config.SimilarPerMatch, s.config.SimilarCap)
		shown := similar[:min(len(similar), similarShown)]
		add(ComponentSimilar, points, "visited similar locations: "+strings.Join(shown, ", "))
	}

	if trips := d.Stats.TotalTrips; trips > 0 {
		points := math.Min(float64(trips)*s.config.OverallPerTrip, s.config.OverallCap)
		add(ComponentOverall, points, fmt.Sprintf("%d %s overall", trips, plural(trips, "trip", "trips")))
	}

	result.Value = round2(math.Min(total, 100))
	return result
}

// SimilarLocations returns visited locations sharing at least one
// non-stopword token with name. Locations are checked in ascending order
// and at most SimilarMaxMatches are returned.
func (s *Scorer) SimilarLocations(name string, visited map[string]int) []string {
	want := s.tokens(name)
	if len(want) == 0 || s.config.SimilarMaxMatches == 0 {
		return nil
	}

	var similar []string
	for _, loc := range sortedKeys(visited) {
		for tok := range s.tokens(loc) {
			if _, ok := want[tok]; ok {
				similar = append(similar, loc)
				break
			}
		}
		if len(similar) == s.config.SimilarMaxMatches {
			break
		}
	}
	return similar
}

// tokens returns the lowercase whitespace-separated words of s minus stopwords
func (s *Scorer) tokens(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, stop := s.stopwords[w]; stop {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
