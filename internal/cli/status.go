package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/driver-recommender/internal/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show dataset counts and the last import",
	RunE:  runStatus,
}

var importsCmd = &cobra.Command{
	Use:   "imports",
	Short: "List recent import runs",
	Long: `List recent import attempts, newest first, including rejected ones
with the step that failed.

Examples:
  driverrec imports
  driverrec imports --limit=5 -o json`,
	RunE: runImports,
}

var importsLimit int

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(importsCmd)
	importsCmd.Flags().IntVar(&importsLimit, "limit", 20, "Maximum number of runs")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := checkDatabase(ctx, a.db); err != nil {
		return err
	}

	summary, err := a.db.GetSummary(ctx)
	if err != nil {
		return fmt.Errorf("failed to get summary: %w", err)
	}
	summary.Database = a.db.Driver() + " (ok)"

	return output.Output(outputFmt, summary)
}

type healthChecker interface {
	Health(ctx context.Context) error
}

func checkDatabase(ctx context.Context, h healthChecker) error {
	if err := h.Health(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	return nil
}

func runImports(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	runs, err := a.db.ListImports(ctx, importsLimit)
	if err != nil {
		return fmt.Errorf("failed to list imports: %w", err)
	}

	if len(runs) == 0 && outputFmt != "json" {
		fmt.Println("No imports yet. Run 'driverrec import' first.")
		return nil
	}

	return output.Output(outputFmt, runs)
}
