package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/driver-recommender/internal/api"
	"github.com/vijay-prabhu/driver-recommender/internal/sheets"
	"github.com/vijay-prabhu/driver-recommender/internal/sheets/gsheets"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve rankings and lookups over HTTP.

Endpoints:
  GET  /health
  POST /api/v1/rankings       {"destinations":[{"name":"..."}],"mode":"scored"}
  GET  /api/v1/drivers
  GET  /api/v1/drivers/:name
  GET  /api/v1/locations?q=
  POST /api/v1/refresh        re-import the configured spreadsheet

Examples:
  driverrec serve
  driverrec serve --addr=:8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	var source api.SourceFunc
	if a.cfg.Sheets.URL != "" {
		sheetsCfg := a.cfg.Sheets
		source = func() (sheets.Source, error) {
			return gsheets.NewSource(sheetsCfg)
		}
	}

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("Serving %d drivers on http://%s\n", a.svc.Snapshot().Len(), addr)
	return api.NewServer(a.svc, a.db, source, a.logger).ListenAndServe(ctx, addr)
}
