package refresh

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/vijay-prabhu/driver-recommender/internal/config"
	"github.com/vijay-prabhu/driver-recommender/internal/database"
	"github.com/vijay-prabhu/driver-recommender/internal/ingest"
	"github.com/vijay-prabhu/driver-recommender/internal/logging"
	"github.com/vijay-prabhu/driver-recommender/internal/recommend"
	"github.com/vijay-prabhu/driver-recommender/internal/sheets"
)

// stepSave marks an import that passed validation but could not be stored
const stepSave = "save"

// Store is the persistence the service needs
type Store interface {
	ReplaceTrips(ctx context.Context, records []recommend.TripRecord, stats map[string]recommend.DriverStats, run *database.ImportRun) error
	RecordFailedImport(ctx context.Context, run *database.ImportRun) error
	ListTrips(ctx context.Context) ([]recommend.TripRecord, error)
	ListLocations(ctx context.Context, filter string, limit int) ([]database.Location, error)
}

// State is the data every ranking request is served from
type State struct {
	Snapshot *recommend.Snapshot
	// Provinces maps each known location to its province
	Provinces map[string]string
	LoadedAt  time.Time
	Origin    string
}

// Service owns the current snapshot and replaces it on refresh
type Service struct {
	store      Store
	normalizer *ingest.Normalizer
	engine     *recommend.Engine
	roster     []string
	logger     *zap.Logger

	mu    sync.Mutex // serializes Load and Refresh
	state atomic.Pointer[State]
}

// New creates a Service. Until Load or Refresh succeeds it serves an empty
// snapshot.
func New(store Store, cfg *config.Config, logger *zap.Logger) *Service {
	s := &Service{
		store:      store,
		normalizer: ingest.NewNormalizer(cfg.Ingest),
		engine:     recommend.NewEngine(cfg.Scoring, cfg.Ranking),
		roster:     slices.Clone(cfg.Drivers.Roster),
		logger:     logging.Or(logger),
	}
	s.state.Store(s.newState(nil, "empty"))
	return s
}

// Options configures a refresh
type Options struct {
	Progress ProgressCallback
}

// Result contains the outcome of a successful refresh
type Result struct {
	Run      *database.ImportRun `json:"run"`
	Report   ingest.Report       `json:"report"`
	Drivers  int                 `json:"drivers"`
	Duration time.Duration       `json:"duration"`
}

// RankRequest is a ranking query against the current snapshot
type RankRequest struct {
	Destinations []recommend.Destination `json:"destinations"`
	Mode         recommend.Mode          `json:"mode,omitempty"`
	TopN         int                     `json:"top_n,omitempty"`
	// NoAutofill disables province lookup for destinations without one
	NoAutofill bool `json:"no_autofill,omitempty"`
}

// Engine returns the ranking engine
func (s *Service) Engine() *recommend.Engine {
	return s.engine
}

// State returns the current state
func (s *Service) State() *State {
	return s.state.Load()
}

// Snapshot returns the current snapshot
func (s *Service) Snapshot() *recommend.Snapshot {
	return s.state.Load().Snapshot
}

// Load rebuilds the snapshot from the stored trips
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.store.ListTrips(ctx)
	if err != nil {
		return fmt.Errorf("failed to load trips: %w", err)
	}

	st := s.newState(records, "database")
	s.state.Store(st)

	s.logger.Info("snapshot loaded",
		zap.Int("records", st.Snapshot.Records()),
		zap.Int("drivers", st.Snapshot.Len()),
	)
	return nil
}

// Refresh imports the source and replaces the stored trips and the current
// snapshot. Nothing is replaced unless every step succeeds. Failed attempts
// are recorded as import runs.
func (s *Service) Refresh(ctx context.Context, src sheets.Source, opts Options) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	run := &database.ImportRun{Source: src.Name(), StartedAt: started}

	report := func(phase Phase, current, total int, desc string) {
		if opts.Progress != nil {
			opts.Progress(Progress{
				Phase:       phase,
				Current:     current,
				Total:       total,
				Description: desc,
			})
		}
	}

	log := s.logger.With(zap.String("source", run.Source))
	log.Debug("refresh started")

	report(PhaseFetching, 0, 0, "downloading trip sheet")
	table, err := src.Fetch(ctx)
	if err != nil {
		return nil, s.fail(ctx, run, ingest.Fail(ingest.StepFetch, err))
	}
	report(PhaseFetching, len(table.Rows), len(table.Rows), "downloaded trip sheet")

	report(PhaseValidating, 0, len(table.Rows), "checking columns")
	if err := s.normalizer.Validate(table); err != nil {
		return nil, s.fail(ctx, run, err)
	}

	report(PhaseNormalizing, 0, len(table.Rows), "splitting driver columns")
	records, rep, err := s.normalizer.Normalize(table)
	run.RowsRead = rep.RowsRead
	run.RowsSkipped = rep.RowsSkipped
	run.CancelledTokens = rep.CancelledTokens
	run.Records = rep.Records
	if err != nil {
		return nil, s.fail(ctx, run, err)
	}
	report(PhaseNormalizing, rep.RowsRead, rep.RowsRead, fmt.Sprintf("%d trip records", rep.Records))

	report(PhaseAggregating, 0, len(records), "building experience matrices")
	st := s.newState(records, run.Source)
	report(PhaseAggregating, len(records), len(records), fmt.Sprintf("%d drivers", st.Snapshot.Len()))

	report(PhaseSaving, 0, len(records), "saving to database")
	if err := s.store.ReplaceTrips(ctx, records, st.Snapshot.Stats, run); err != nil {
		step := stepSave
		run.Step = &step
		return nil, s.fail(ctx, run, fmt.Errorf("failed to save trips: %w", err))
	}
	report(PhaseSaving, len(records), len(records), "saved")

	s.state.Store(st)

	result := &Result{
		Run:      run,
		Report:   rep,
		Drivers:  st.Snapshot.Len(),
		Duration: time.Since(started),
	}

	log.Info("refresh complete",
		zap.String("run_id", run.ID),
		zap.Int("rows", rep.RowsRead),
		zap.Int("skipped", rep.RowsSkipped),
		zap.Int("records", rep.Records),
		zap.Int("drivers", result.Drivers),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// fail records a failed run and returns err unchanged
func (s *Service) fail(ctx context.Context, run *database.ImportRun, err error) error {
	if run.Step == nil {
		if step := ingest.StepOf(err); step != "" {
			str := string(step)
			run.Step = &str
		}
	}
	msg := err.Error()
	run.Error = &msg
	run.FinishedAt = time.Now()

	// the request context may already be cancelled; the record must still land
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if rerr := s.store.RecordFailedImport(recordCtx, run); rerr != nil {
		s.logger.Warn("failed to record import run", zap.Error(rerr))
	}

	s.logger.Error("refresh failed",
		zap.String("source", run.Source),
		zap.Stringp("step", run.Step),
		zap.Error(err),
	)
	return err
}

// Rank ranks drivers for the request against the current snapshot
func (s *Service) Rank(ctx context.Context, req RankRequest) (*recommend.Ranking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st := s.State()
	route := recommend.NormalizeRoute(req.Destinations)
	if !req.NoAutofill {
		route = st.ResolveProvinces(route)
	}

	return s.engine.Rank(st.Snapshot, route, recommend.Options{Mode: req.Mode, TopN: req.TopN})
}

// Locations returns known locations matching filter from the store
func (s *Service) Locations(ctx context.Context, filter string, limit int) ([]database.Location, error) {
	locations, err := s.store.ListLocations(ctx, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locations, nil
}

// ResolveProvinces fills in the province of destinations that have none
// using the known locations. The input is not modified.
func (st *State) ResolveProvinces(route []recommend.Destination) []recommend.Destination {
	out := slices.Clone(route)
	for i, d := range out {
		if d.Province != "" {
			continue
		}
		if p, ok := st.Provinces[d.Name]; ok {
			out[i].Province = p
		}
	}
	return out
}

func (s *Service) newState(records []recommend.TripRecord, origin string) *State {
	provinces := make(map[string]string)
	for _, r := range records {
		// keep the greatest province name, matching the stored location list
		if r.Location != "" && r.Province > provinces[r.Location] {
			provinces[r.Location] = r.Province
		}
	}
	return &State{
		Snapshot:  recommend.Build(records, s.roster...),
		Provinces: provinces,
		LoadedAt:  time.Now(),
		Origin:    origin,
	}
}

// IsImportFailure reports whether err came from a rejected import
func IsImportFailure(err error) bool {
	return errors.Is(err, ingest.ErrImportFailure)
}
