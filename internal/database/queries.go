package database

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vijay-prabhu/driver-recommender/internal/recommend"
)

const importRunColumns = `id, source, status, step, rows_read, rows_skipped, cancelled_tokens,
	records, drivers, error, started_at, finished_at`

// ReplaceTrips swaps the whole trip history and driver stats in one
// transaction and records the import run. Either everything is replaced or
// nothing is.
func (db *DB) ReplaceTrips(ctx context.Context, records []recommend.TripRecord, stats map[string]recommend.DriverStats, run *ImportRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	run.Status = ImportSucceeded
	run.Drivers = len(stats)
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}

	return db.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM trips"); err != nil {
			return fmt.Errorf("failed to clear trips: %w", err)
		}

		insertTrip, err := tx.PrepareContext(ctx, db.rebind(`
			INSERT INTO trips (location, province, driver, representative)
			VALUES (?, ?, ?, ?)
		`))
		if err != nil {
			return fmt.Errorf("failed to prepare trip insert: %w", err)
		}
		defer insertTrip.Close()

		for _, r := range records {
			if _, err := insertTrip.ExecContext(ctx, r.Location, r.Province, r.Driver, r.Representative); err != nil {
				return fmt.Errorf("failed to insert trip: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM drivers"); err != nil {
			return fmt.Errorf("failed to clear drivers: %w", err)
		}

		insertDriver, err := tx.PrepareContext(ctx, db.rebind(`
			INSERT INTO drivers (driver_name, total_trips, unique_locations, provinces_covered,
				avg_trips_per_location, last_updated)
			VALUES (?, ?, ?, ?, ?, ?)
		`))
		if err != nil {
			return fmt.Errorf("failed to prepare driver insert: %w", err)
		}
		defer insertDriver.Close()

		names := make([]string, 0, len(stats))
		for name := range stats {
			names = append(names, name)
		}
		slices.Sort(names)

		for _, name := range names {
			s := stats[name]
			if _, err := insertDriver.ExecContext(ctx, name, s.TotalTrips, s.UniqueLocations,
				s.ProvincesCovered, s.AvgTripsPerLocation, run.FinishedAt); err != nil {
				return fmt.Errorf("failed to insert driver stats: %w", err)
			}
		}

		return db.insertImportRun(ctx, tx, run)
	})
}

// RecordFailedImport stores an import attempt that did not change any data
func (db *DB) RecordFailedImport(ctx context.Context, run *ImportRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	run.Status = ImportFailed
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}

	return db.Transaction(ctx, func(tx *sql.Tx) error {
		return db.insertImportRun(ctx, tx, run)
	})
}

func (db *DB) insertImportRun(ctx context.Context, tx *sql.Tx, run *ImportRun) error {
	_, err := tx.ExecContext(ctx, db.rebind(`
		INSERT INTO import_runs (`+importRunColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		run.ID, run.Source, run.Status, NullString(run.Step), run.RowsRead, run.RowsSkipped,
		run.CancelledTokens, run.Records, run.Drivers, NullString(run.Error),
		run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record import run: %w", err)
	}
	return nil
}

// ListTrips returns every stored trip record in import order
func (db *DB) ListTrips(ctx context.Context) ([]recommend.TripRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT location, province, driver, representative
		FROM trips ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []recommend.TripRecord
	for rows.Next() {
		var r recommend.TripRecord
		if err := rows.Scan(&r.Location, &r.Province, &r.Driver, &r.Representative); err != nil {
			return nil, err
		}
		trips = append(trips, r)
	}

	return trips, rows.Err()
}

// CountTrips returns the number of stored trip records
func (db *DB) CountTrips(ctx context.Context) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM trips").Scan(&n)
	return n, err
}

// ListDriverStats returns stored driver stats, most trips first
func (db *DB) ListDriverStats(ctx context.Context) ([]DriverRow, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT driver_name, total_trips, unique_locations, provinces_covered,
		       avg_trips_per_location, last_updated
		FROM drivers
		ORDER BY total_trips DESC, driver_name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []DriverRow
	for rows.Next() {
		var d DriverRow
		if err := rows.Scan(&d.Name, &d.TotalTrips, &d.UniqueLocations, &d.ProvincesCovered,
			&d.AvgTripsPerLocation, &d.LastUpdated); err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}

	return drivers, rows.Err()
}

// GetDriverStats returns one driver's stored stats, or nil if unknown
func (db *DB) GetDriverStats(ctx context.Context, name string) (*DriverRow, error) {
	d := &DriverRow{}
	err := db.QueryRowContext(ctx, db.rebind(`
		SELECT driver_name, total_trips, unique_locations, provinces_covered,
		       avg_trips_per_location, last_updated
		FROM drivers WHERE driver_name = ?
	`), name).Scan(&d.Name, &d.TotalTrips, &d.UniqueLocations, &d.ProvincesCovered,
		&d.AvgTripsPerLocation, &d.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// ListLocations returns distinct trip locations with a province, ordered by
// name. A non-empty filter keeps locations containing it (case-insensitive).
// A limit <= 0 returns everything.
func (db *DB) ListLocations(ctx context.Context, filter string, limit int) ([]Location, error) {
	query := `
		SELECT location, MAX(province)
		FROM trips WHERE location != ''
	`
	args := []interface{}{}

	if filter = strings.TrimSpace(filter); filter != "" {
		query += " AND LOWER(location) LIKE ?"
		args = append(args, "%"+strings.ToLower(filter)+"%")
	}

	query += " GROUP BY location ORDER BY location"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.Name, &l.Province); err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}

	return locations, rows.Err()
}

// LastImport returns the most recent import run, or nil if there is none
func (db *DB) LastImport(ctx context.Context) (*ImportRun, error) {
	runs, err := db.ListImports(ctx, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[0], nil
}

// ListImports returns recent import runs, newest first
func (db *DB) ListImports(ctx context.Context, limit int) ([]ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := db.QueryContext(ctx, db.rebind(`
		SELECT `+importRunColumns+`
		FROM import_runs
		ORDER BY finished_at DESC
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []ImportRun
	for rows.Next() {
		var r ImportRun
		var step, errMsg sql.NullString
		if err := rows.Scan(&r.ID, &r.Source, &r.Status, &step, &r.RowsRead, &r.RowsSkipped,
			&r.CancelledTokens, &r.Records, &r.Drivers, &errMsg, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		r.Step = StringPtr(step)
		r.Error = StringPtr(errMsg)
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// GetSummary retrieves dataset-wide counts and the last import
func (db *DB) GetSummary(ctx context.Context) (*Summary, error) {
	s := &Summary{}

	if err := db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) as trips,
			COUNT(DISTINCT location) as locations,
			COUNT(DISTINCT CASE WHEN province != '' THEN province END) as provinces
		FROM trips
	`).Scan(&s.Trips, &s.Locations, &s.Provinces); err != nil {
		return nil, err
	}

	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM drivers").Scan(&s.Drivers); err != nil {
		return nil, err
	}

	last, err := db.LastImport(ctx)
	if err != nil {
		return nil, err
	}
	s.LastImport = last

	return s, nil
}
