package refresh

import "time"

// Phase represents the current refresh phase
type Phase string

const (
	PhaseFetching    Phase = "fetching"
	PhaseValidating  Phase = "validating"
	PhaseNormalizing Phase = "normalizing"
	PhaseAggregating Phase = "aggregating"
	PhaseSaving      Phase = "saving"
)

// Phases lists the refresh phases in the order they run
var Phases = []Phase{PhaseFetching, PhaseValidating, PhaseNormalizing, PhaseAggregating, PhaseSaving}

// Step returns the 1-based position of the phase, or 0 if unknown
func (p Phase) Step() int {
	for i, ph := range Phases {
		if ph == p {
			return i + 1
		}
	}
	return 0
}

// Progress is reported when a phase starts and when it finishes
type Progress struct {
	Phase       Phase
	Current     int    // Rows or records handled so far
	Total       int    // Rows or records in this phase, 0 if unknown
	Description string // Human-readable description
	StartedAt   time.Time
}

// ProgressCallback is called with progress updates during a refresh
type ProgressCallback func(Progress)

// ETA returns the estimated time remaining based on current progress
func (p Progress) ETA() time.Duration {
	if p.Current == 0 || p.Total == 0 || p.StartedAt.IsZero() {
		return 0
	}
	elapsed := time.Since(p.StartedAt)
	rate := float64(p.Current) / elapsed.Seconds()
	if rate <= 0 {
		return 0
	}
	remaining := p.Total - p.Current
	return time.Duration(float64(remaining)/rate) * time.Second
}

// Percentage returns the completion percentage (0-100)
func (p Progress) Percentage() int {
	if p.Total == 0 {
		return 0
	}
	return (p.Current * 100) / p.Total
}
