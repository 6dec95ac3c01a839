package recommend

// TripRecord is one driver-to-location visit derived from an import row
type TripRecord struct {
	Location       string `json:"location"`
	Province       string `json:"province,omitempty"`
	Driver         string `json:"driver"`
	Representative string `json:"representative,omitempty"`
}

// Destination is a single stop of a requested route
type Destination struct {
	Name     string `json:"name"`
	Province string `json:"province,omitempty"`
}

// DriverStats summarizes a driver's experience
type DriverStats struct {
	TotalTrips          int     `json:"total_trips"`
	UniqueLocations     int     `json:"unique_locations"`
	ProvincesCovered    int     `json:"provinces_covered"`
	AvgTripsPerLocation float64 `json:"avg_trips_per_location"`
}

// ComputeStats derives DriverStats from a driver's location and province counts
func ComputeStats(locations, provinces map[string]int) DriverStats {
	stats := DriverStats{
		UniqueLocations:  len(locations),
		ProvincesCovered: len(provinces),
	}
	for _, n := range locations {
		stats.TotalTrips += n
	}
	if stats.UniqueLocations > 0 {
		stats.AvgTripsPerLocation = float64(stats.TotalTrips) / float64(stats.UniqueLocations)
	}
	return stats
}
