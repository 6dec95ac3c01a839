package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/driver-recommender/internal/database"
	"github.com/vijay-prabhu/driver-recommender/internal/output"
	"github.com/vijay-prabhu/driver-recommender/internal/recommend"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export trips or driver stats to CSV or JSON",
	Long: `Export the stored trip records or per-driver statistics.

Supported formats:
  - csv: Comma-separated values (spreadsheet-compatible)
  - json: JSON array of objects

Examples:
  driverrec export --format=csv > trips.csv
  driverrec export --format=json > trips.json
  driverrec export --drivers --format=csv > drivers.csv`,
	RunE: runExport,
}

var (
	exportFormat  string
	exportDrivers bool
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Export format (csv, json)")
	exportCmd.Flags().BoolVar(&exportDrivers, "drivers", false, "Export per-driver statistics instead of trips")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if exportFormat != "csv" && exportFormat != "json" {
		return fmt.Errorf("unknown format: %s (use csv or json)", exportFormat)
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if exportDrivers {
		drivers, err := a.db.ListDriverStats(ctx)
		if err != nil {
			return fmt.Errorf("failed to list driver stats: %w", err)
		}
		if exportFormat == "json" {
			if drivers == nil {
				drivers = []database.DriverRow{}
			}
			return exportJSON(os.Stdout, drivers)
		}
		return exportDriversCSV(os.Stdout, drivers)
	}

	trips, err := a.db.ListTrips(ctx)
	if err != nil {
		return fmt.Errorf("failed to list trips: %w", err)
	}
	if exportFormat == "json" {
		if trips == nil {
			trips = []recommend.TripRecord{}
		}
		return exportJSON(os.Stdout, trips)
	}
	return exportTripsCSV(os.Stdout, trips)
}

func exportTripsCSV(out io.Writer, trips []recommend.TripRecord) error {
	w := csv.NewWriter(out)

	// Write header
	if err := w.Write([]string{"location", "province", "driver", "representative"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write rows
	for _, t := range trips {
		if err := w.Write([]string{t.Location, t.Province, t.Driver, t.Representative}); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

func exportDriversCSV(out io.Writer, drivers []database.DriverRow) error {
	w := csv.NewWriter(out)

	header := []string{"driver", "total_trips", "unique_locations", "provinces_covered", "avg_trips_per_location", "last_updated"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, d := range drivers {
		record := []string{
			d.Name,
			fmt.Sprintf("%d", d.TotalTrips),
			fmt.Sprintf("%d", d.UniqueLocations),
			fmt.Sprintf("%d", d.ProvincesCovered),
			fmt.Sprintf("%.2f", d.AvgTripsPerLocation),
			d.LastUpdated.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	return w.Error()
}

func exportJSON(out io.Writer, v interface{}) error {
	if err := output.JSONTo(out, v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
