package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vijay-prabhu/driver-recommender/internal/database"
	"github.com/vijay-prabhu/driver-recommender/internal/ingest"
	"github.com/vijay-prabhu/driver-recommender/internal/recommend"
	"github.com/vijay-prabhu/driver-recommender/internal/refresh"
)

type errorResponse struct {
	Error string `json:"error"`
	Step  string `json:"step,omitempty"`
}

type healthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	Origin      string `json:"origin"`
	Drivers     int    `json:"drivers"`
	Records     int    `json:"records"`
	StoredTrips int    `json:"stored_trips"`
	LoadedAt    string `json:"loaded_at"`
}

type driverResponse struct {
	recommend.DriverProfile
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

type rankRequest struct {
	Destinations []recommend.Destination `json:"destinations"`
	Mode         string                  `json:"mode"`
	TopN         int                     `json:"top_n"`
	NoAutofill   bool                    `json:"no_autofill"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func (s *Server) health(c *gin.Context) {
	st := s.svc.State()
	resp := healthResponse{
		Status:   "ok",
		Database: "ok",
		Origin:   st.Origin,
		Drivers:  st.Snapshot.Len(),
		Records:  st.Snapshot.Records(),
		LoadedAt: st.LoadedAt.UTC().Format(time.RFC3339),
	}

	ctx := c.Request.Context()
	if err := s.store.Health(ctx); err != nil {
		_ = c.Error(err)
		resp.Status = "degraded"
		resp.Database = err.Error()
		writeJSON(c, http.StatusServiceUnavailable, resp)
		return
	}
	n, err := s.store.CountTrips(ctx)
	if err != nil {
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	resp.StoredTrips = n
	writeJSON(c, http.StatusOK, resp)
}

func (s *Server) rank(c *gin.Context) {
	var body rankRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	req := refresh.RankRequest{
		Destinations: body.Destinations,
		TopN:         body.TopN,
		NoAutofill:   body.NoAutofill,
	}
	if body.Mode != "" {
		mode, err := recommend.ParseMode(body.Mode)
		if err != nil {
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}
		req.Mode = mode
	}

	ranking, err := s.svc.Rank(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, recommend.ErrInvalidRoute) {
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(c, http.StatusOK, ranking)
}

func (s *Server) listDrivers(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}

	drivers := s.svc.Snapshot().Summary()
	if limit > 0 && len(drivers) > limit {
		drivers = drivers[:limit]
	}
	writeJSON(c, http.StatusOK, map[string]any{"drivers": drivers})
}

func (s *Server) getDriver(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		writeError(c, http.StatusBadRequest, "missing driver name")
		return
	}

	profile, ok := s.svc.Snapshot().Profile(name)
	if !ok {
		writeError(c, http.StatusNotFound, "driver not found")
		return
	}

	resp := driverResponse{DriverProfile: *profile}
	row, err := s.store.GetDriverStats(c.Request.Context(), name)
	if err != nil {
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	// nil before the first import
	if row != nil {
		resp.LastUpdated = &row.LastUpdated
	}
	writeJSON(c, http.StatusOK, resp)
}

func (s *Server) listLocations(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}

	locations, err := s.svc.Locations(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "internal error")
		return
	}
	if locations == nil {
		locations = []database.Location{}
	}
	writeJSON(c, http.StatusOK, map[string]any{"locations": locations})
}

func (s *Server) refresh(c *gin.Context) {
	if s.source == nil {
		writeError(c, http.StatusServiceUnavailable, "no import source configured")
		return
	}

	src, err := s.source()
	if err != nil {
		_ = c.Error(err)
		writeError(c, http.StatusServiceUnavailable, err.Error())
		return
	}

	result, err := s.svc.Refresh(c.Request.Context(), src, refresh.Options{})
	if err != nil {
		if refresh.IsImportFailure(err) {
			writeJSON(c, http.StatusBadGateway, errorResponse{
				Error: err.Error(),
				Step:  string(ingest.StepOf(err)),
			})
			return
		}
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "refresh failed")
		return
	}
	writeJSON(c, http.StatusOK, result)
}

// queryInt reads an optional non-negative integer query parameter. It writes
// a 400 and returns false when the value is malformed.
func queryInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(c, http.StatusBadRequest, "invalid "+key)
		return 0, false
	}
	return n, true
}
