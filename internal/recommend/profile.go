package recommend

import (
	"cmp"
	"slices"
	"strings"
)

// DriverSummary pairs a driver with their stats
type DriverSummary struct {
	Driver string `json:"driver"`
	DriverStats
}

// KeyCount is a location or province with its visit count
type KeyCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DriverProfile is a detailed view of one driver's experience
type DriverProfile struct {
	Driver    string      `json:"driver"`
	Stats     DriverStats `json:"stats"`
	Locations []KeyCount  `json:"locations"`
	Provinces []KeyCount  `json:"provinces"`
}

// Summary returns every driver's stats, most trips first, then by name
func (s *Snapshot) Summary() []DriverSummary {
	out := make([]DriverSummary, 0, s.Len())
	for _, name := range s.Drivers() {
		out = append(out, DriverSummary{Driver: name, DriverStats: s.Stats[name]})
	}
	slices.SortStableFunc(out, func(a, b DriverSummary) int {
		if c := cmp.Compare(b.TotalTrips, a.TotalTrips); c != 0 {
			return c
		}
		return strings.Compare(a.Driver, b.Driver)
	})
	return out
}

// Profile returns the driver's stats with locations and provinces ordered by
// visit count. The second return value is false for unknown drivers.
func (s *Snapshot) Profile(driver string) (*DriverProfile, bool) {
	if !s.Has(driver) {
		return nil, false
	}
	return &DriverProfile{
		Driver:    driver,
		Stats:     s.Stats[driver],
		Locations: rankCounts(s.Experience.Row(driver)),
		Provinces: rankCounts(s.Provinces.Row(driver)),
	}, true
}

func rankCounts(m map[string]int) []KeyCount {
	out := make([]KeyCount, 0, len(m))
	for _, k := range sortedKeys(m) {
		out = append(out, KeyCount{Name: k, Count: m[k]})
	}
	slices.SortStableFunc(out, func(a, b KeyCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return out
}
