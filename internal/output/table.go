package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/vijay-prabhu/driver-recommender/internal/database"
	"github.com/vijay-prabhu/driver-recommender/internal/recommend"
	"github.com/vijay-prabhu/driver-recommender/internal/refresh"
)

// Table writes data as a formatted table to stdout
func Table(data interface{}) error {
	return TableTo(os.Stdout, data)
}

// TableTo writes data as a formatted table to the given writer
func TableTo(w io.Writer, data interface{}) error {
	switch v := data.(type) {
	case *recommend.Ranking:
		return rankingTable(w, v)
	case []recommend.DriverSummary:
		return driversTable(w, v)
	case *recommend.DriverProfile:
		return driverDetail(w, v)
	case []database.Location:
		return locationsTable(w, v)
	case []database.ImportRun:
		return importsTable(w, v)
	case *database.Summary:
		return summaryTable(w, v)
	case *refresh.Result:
		return importResult(w, v)
	default:
		return fmt.Errorf("unsupported data type for table output: %T", data)
	}
}

func rankingTable(w io.Writer, r *recommend.Ranking) error {
	fmt.Fprintf(w, "Route (%s): %s\n", r.Mode, formatRoute(r.Destinations))

	if r.Status == recommend.StatusEmptyDataset {
		fmt.Fprintf(w, "No drivers to rank: %s\n", r.Message)
		return nil
	}
	if len(r.Results) == 0 {
		fmt.Fprintln(w, "No drivers found.")
		return nil
	}
	fmt.Fprintln(w)

	scored := r.Mode == recommend.ModeScored
	table := tablewriter.NewWriter(w)
	if scored {
		table.Header("Rank", "Driver", "Avg score", "Visited", "Route trips", "Total trips")
	} else {
		table.Header("Rank", "Driver", "Visited", "Route trips", "Completion", "Total trips")
	}

	for _, d := range r.Results {
		visited := fmt.Sprintf("%d/%d", d.DestinationsVisited, d.DestinationsCount)
		var row []string
		if scored {
			row = []string{
				fmt.Sprint(d.Rank), d.Driver, fmt.Sprintf("%.2f", d.AverageScore),
				visited, fmt.Sprint(d.TotalTrips), fmt.Sprint(d.Stats.TotalTrips),
			}
		} else {
			row = []string{
				fmt.Sprint(d.Rank), d.Driver, visited, fmt.Sprint(d.TotalTrips),
				fmt.Sprintf("%.0f%%", d.CompletionRatio*100), fmt.Sprint(d.Stats.TotalTrips),
			}
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	for _, d := range r.Results {
		fmt.Fprintf(w, "#%d %s\n", d.Rank, d.Driver)
		for _, detail := range d.Details {
			if scored {
				fmt.Fprintf(w, "  %s: %.2f\n", detail.Destination, detail.Score)
				for _, e := range detail.Explanations {
					fmt.Fprintf(w, "    - %s\n", e)
				}
				continue
			}
			mark := "-"
			if detail.Visited {
				mark = "+"
			}
			fmt.Fprintf(w, "  %s %s: %d %s\n", mark, detail.Destination, detail.TripCount, plural(detail.TripCount, "trip", "trips"))
		}
	}

	return nil
}

func driversTable(w io.Writer, drivers []recommend.DriverSummary) error {
	if len(drivers) == 0 {
		fmt.Fprintln(w, "No drivers found. Run 'driverrec import' first.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("Driver", "Trips", "Locations", "Provinces", "Trips/location")
	for _, d := range drivers {
		if err := table.Append([]string{
			d.Driver,
			fmt.Sprint(d.TotalTrips),
			fmt.Sprint(d.UniqueLocations),
			fmt.Sprint(d.ProvincesCovered),
			fmt.Sprintf("%.2f", d.AvgTripsPerLocation),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func driverDetail(w io.Writer, p *recommend.DriverProfile) error {
	fmt.Fprintf(w, "Driver:      %s\n", p.Driver)
	fmt.Fprintf(w, "Trips:       %d\n", p.Stats.TotalTrips)
	fmt.Fprintf(w, "Locations:   %d\n", p.Stats.UniqueLocations)
	fmt.Fprintf(w, "Provinces:   %d\n", p.Stats.ProvincesCovered)
	fmt.Fprintf(w, "Avg trips:   %.2f per location\n", p.Stats.AvgTripsPerLocation)

	writeCounts(w, "Top locations", p.Locations, 10)
	writeCounts(w, "Provinces", p.Provinces, 10)
	return nil
}

func writeCounts(w io.Writer, title string, counts []recommend.KeyCount, limit int) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s:\n", title)
	for i, c := range counts {
		if i == limit {
			fmt.Fprintf(w, "  ... and %d more\n", len(counts)-limit)
			break
		}
		fmt.Fprintf(w, "  %-40s %d\n", truncate(c.Name, 40), c.Count)
	}
}

func locationsTable(w io.Writer, locations []database.Location) error {
	if len(locations) == 0 {
		fmt.Fprintln(w, "No locations found.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("Location", "Province")
	for _, l := range locations {
		if err := table.Append([]string{l.Name, l.Province}); err != nil {
			return err
		}
	}
	return table.Render()
}

func importsTable(w io.Writer, runs []database.ImportRun) error {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No imports yet.")
		return nil
	}

	table := tablewriter.NewWriter(w)
	table.Header("Finished", "Status", "Records", "Drivers", "Source", "Error")
	for _, r := range runs {
		status := string(r.Status)
		if r.Step != nil {
			status += " (" + *r.Step + ")"
		}
		errMsg := ""
		if r.Error != nil {
			errMsg = truncate(*r.Error, 50)
		}
		if err := table.Append([]string{
			r.FinishedAt.Format("Jan 02 15:04"),
			status,
			fmt.Sprint(r.Records),
			fmt.Sprint(r.Drivers),
			truncate(r.Source, 40),
			errMsg,
		}); err != nil {
			return err
		}
	}
	return table.Render()
}

func summaryTable(w io.Writer, s *database.Summary) error {
	fmt.Fprintln(w, "Trip Data")
	fmt.Fprintln(w, strings.Repeat("-", 30))
	if s.Database != "" {
		fmt.Fprintf(w, "Database:               %s\n", s.Database)
	}
	fmt.Fprintf(w, "Trip records:           %d\n", s.Trips)
	fmt.Fprintf(w, "Drivers:                %d\n", s.Drivers)
	fmt.Fprintf(w, "Locations:              %d\n", s.Locations)
	fmt.Fprintf(w, "Provinces:              %d\n", s.Provinces)

	if s.LastImport != nil {
		fmt.Fprintf(w, "Last import:            %s (%s)\n",
			s.LastImport.FinishedAt.Format("Jan 02, 2006 15:04"), s.LastImport.Status)
	} else {
		fmt.Fprintln(w, "Last import:            never")
	}

	return nil
}

func importResult(w io.Writer, r *refresh.Result) error {
	fmt.Fprintln(w, "Import complete:")
	fmt.Fprintf(w, "  Rows read:             %d\n", r.Report.RowsRead)
	fmt.Fprintf(w, "  Rows skipped:          %d\n", r.Report.RowsSkipped)
	if r.Report.CancelledTokens > 0 {
		fmt.Fprintf(w, "  Cancelled entries:     %d\n", r.Report.CancelledTokens)
	}
	fmt.Fprintf(w, "  Trip records:          %d\n", r.Report.Records)
	fmt.Fprintf(w, "  Drivers:               %d\n", r.Drivers)
	fmt.Fprintf(w, "  Took:                  %s\n", r.Duration.Round(time.Millisecond))
	return nil
}

func formatRoute(route []recommend.Destination) string {
	parts := make([]string, len(route))
	for i, d := range route {
		parts[i] = d.Name
		if d.Province != "" {
			parts[i] += " (" + d.Province + ")"
		}
	}
	return strings.Join(parts, " -> ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// truncate shortens s to max runes
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
