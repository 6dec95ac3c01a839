package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vijay-prabhu/driver-recommender/internal/database"
	"github.com/vijay-prabhu/driver-recommender/internal/logging"
	"github.com/vijay-prabhu/driver-recommender/internal/refresh"
	"github.com/vijay-prabhu/driver-recommender/internal/sheets"
)

// SourceFunc opens the source a refresh request imports from
type SourceFunc func() (sheets.Source, error)

// Store is the part of the database the HTTP handlers read directly
type Store interface {
	Health(ctx context.Context) error
	CountTrips(ctx context.Context) (int, error)
	GetDriverStats(ctx context.Context, name string) (*database.DriverRow, error)
}

// Server exposes the ranking service over HTTP
type Server struct {
	svc    *refresh.Service
	store  Store
	source SourceFunc
	logger *zap.Logger
}

// NewServer creates an HTTP server. source may be nil, in which case
// refresh requests are rejected.
func NewServer(svc *refresh.Service, store Store, source SourceFunc, logger *zap.Logger) *Server {
	return &Server{
		svc:    svc,
		store:  store,
		source: source,
		logger: logging.Or(logger),
	}
}

// Router builds the gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))

	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/rankings", s.rank)
		v1.GET("/drivers", s.listDrivers)
		v1.GET("/drivers/:name", s.getDriver)
		v1.GET("/locations", s.listLocations)
		v1.POST("/refresh", s.refresh)
	}

	return r
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// requestLogger writes one zap entry per request
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("request", fields...)
		} else {
			logger.Debug("request", fields...)
		}
	}
}
