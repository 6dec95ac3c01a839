package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/driver-recommender/internal/config"
	"github.com/vijay-prabhu/driver-recommender/internal/ingest"
	"github.com/vijay-prabhu/driver-recommender/internal/output"
	"github.com/vijay-prabhu/driver-recommender/internal/refresh"
	"github.com/vijay-prabhu/driver-recommender/internal/sheets"
	"github.com/vijay-prabhu/driver-recommender/internal/sheets/csvfile"
	"github.com/vijay-prabhu/driver-recommender/internal/sheets/gsheets"
)

var (
	importFile  string
	importURL   string
	importSheet string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the trip log and rebuild driver experience",
	Long: `Import downloads the trip log, validates it, splits shared trips
into one record per driver and replaces the stored trip history.

A private spreadsheet is read through the Sheets API when a credentials
file exists; otherwise the public CSV export is used. On first run with an
OAuth client file a browser opens for Google authentication.

If any step fails the stored data is left untouched.

Examples:
  driverrec import                          # Spreadsheet from config
  driverrec import --url=<spreadsheet url>  # Another spreadsheet
  driverrec import --file=trips.csv         # Local CSV export`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importFile, "file", "", "Import from a local CSV file instead of Google Sheets")
	importCmd.Flags().StringVar(&importURL, "url", "", "Spreadsheet URL or id (overrides config)")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "Sheet name for the Sheets API (overrides config)")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	src, err := importSource(a.cfg.Sheets)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.SheetsTimeout()+time.Minute)
	defer cancel()

	fmt.Printf("Importing trips from %s...\n", src.Name())

	terminal := NewTerminal()
	result, err := a.svc.Refresh(ctx, src, refresh.Options{
		Progress: progressPrinter(terminal),
	})

	// Clear progress line
	terminal.ClearLine()

	if err != nil {
		if step := ingest.StepOf(err); step != "" {
			fmt.Println()
			fmt.Printf("Import rejected at step %q; existing data was kept.\n", step)
		}
		return fmt.Errorf("import failed: %w", err)
	}

	if outputFmt == "json" {
		return output.JSON(result)
	}

	fmt.Println()
	if err := output.Table(result); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Run 'driverrec drivers' to see the most experienced drivers.")
	return nil
}

// importSource picks the source from flags, falling back to the config
func importSource(cfg config.SheetsConfig) (sheets.Source, error) {
	if importFile != "" {
		return csvfile.New(importFile), nil
	}

	if importURL != "" {
		cfg.URL = importURL
	}
	if importSheet != "" {
		cfg.SheetName = importSheet
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("no spreadsheet configured: set [sheets] url, DRIVERREC_SHEETS_URL, or pass --url or --file")
	}

	return gsheets.NewSource(cfg)
}

// progressPrinter renders refresh progress on one updating line in a
// terminal, or one line per phase otherwise
func progressPrinter(terminal *Terminal) refresh.ProgressCallback {
	var lastPhase refresh.Phase
	var phaseStartTime time.Time

	return func(p refresh.Progress) {
		if p.Phase != lastPhase {
			phaseStartTime = time.Now()
		}
		p.StartedAt = phaseStartTime

		terminal.ClearLine()

		step := fmt.Sprintf("[%d/%d]", p.Phase.Step(), len(refresh.Phases))
		var msg string
		switch {
		case p.Total > 0 && p.Current < p.Total:
			var eta string
			if d := p.ETA(); d > 0 {
				eta = fmt.Sprintf(" (ETA: %s)", FormatETA(d))
			}
			msg = fmt.Sprintf("%s %s %s: %d/%d (%d%%)%s", step, terminal.Spinner(), p.Description, p.Current, p.Total, p.Percentage(), eta)
		default:
			msg = fmt.Sprintf("%s %s", step, p.Description)
		}

		if terminal.UseColor {
			msg = terminal.Color(PhaseColor(string(p.Phase)), msg)
		}

		if terminal.IsTerminal {
			fmt.Print(msg)
			terminal.Flush()
		} else if p.Phase != lastPhase || p.Current == p.Total {
			fmt.Println(msg)
		}
		lastPhase = p.Phase
	}
}
