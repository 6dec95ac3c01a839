package recommend

import (
	"slices"
	"strings"
)

// Matrix is a two-level count table: driver -> key -> count.
// Reads never create entries.
type Matrix map[string]map[string]int

// Count returns the count for driver and key, or 0 if either is unknown
func (m Matrix) Count(driver, key string) int {
	return m[driver][key]
}

// Row returns the driver's counts. The returned map must not be modified.
func (m Matrix) Row(driver string) map[string]int {
	return m[driver]
}

func (m Matrix) increment(driver, key string) {
	row, ok := m[driver]
	if !ok {
		row = make(map[string]int)
		m[driver] = row
	}
	row[key]++
}

func (m Matrix) ensure(driver string) {
	if _, ok := m[driver]; !ok {
		m[driver] = make(map[string]int)
	}
}

// Snapshot is the immutable aggregate state built from one set of trip records
type Snapshot struct {
	// Experience is the per-driver location visit matrix
	Experience Matrix
	// Provinces is the per-driver province visit matrix
	Provinces Matrix
	// Stats holds one DriverStats per known driver
	Stats map[string]DriverStats

	drivers []string
	records int
}

// Build aggregates trip records into a new Snapshot.
//
// Every record increments its driver's location count once and, when the
// province is non-empty, its province count once. Driver names are trimmed
// and records with an empty driver or location are skipped. Roster names are
// added as known drivers even if they have no trips. The input is not modified.
func Build(records []TripRecord, roster ...string) *Snapshot {
	s := &Snapshot{
		Experience: make(Matrix),
		Provinces:  make(Matrix),
		Stats:      make(map[string]DriverStats),
	}

	for _, r := range records {
		driver := strings.TrimSpace(r.Driver)
		if driver == "" || r.Location == "" {
			continue
		}
		s.Experience.increment(driver, r.Location)
		if r.Province != "" {
			s.Provinces.increment(driver, r.Province)
		}
		s.records++
	}

	for _, name := range roster {
		if name = strings.TrimSpace(name); name != "" {
			s.Experience.ensure(name)
		}
	}

	s.drivers = sortedKeys(s.Experience)
	for _, driver := range s.drivers {
		s.Stats[driver] = ComputeStats(s.Experience[driver], s.Provinces[driver])
	}

	return s
}

// Drivers returns all known drivers in ascending order
func (s *Snapshot) Drivers() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.drivers)
}

// Len returns the number of known drivers
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.drivers)
}

// Records returns the number of trip records aggregated
func (s *Snapshot) Records() int {
	if s == nil {
		return 0
	}
	return s.records
}

// Has reports whether the driver is known
func (s *Snapshot) Has(driver string) bool {
	if s == nil {
		return false
	}
	_, ok := s.Experience[driver]
	return ok
}

// Driver returns the aggregate view of a single driver
func (s *Snapshot) Driver(name string) DriverView {
	return DriverView{
		Name:      name,
		Locations: s.Experience.Row(name),
		Provinces: s.Provinces.Row(name),
		Stats:     s.Stats[name],
	}
}

// DriverView is one driver's full aggregate state
type DriverView struct {
	Name      string
	Locations map[string]int
	Provinces map[string]int
	Stats     DriverStats
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
