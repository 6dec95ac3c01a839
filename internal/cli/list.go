package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/driver-recommender/internal/output"
)

var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "List drivers by experience",
	Long: `List every known driver with their trip statistics, most trips first.

Examples:
  driverrec drivers             # All drivers
  driverrec drivers --limit=10  # Ten most experienced
  driverrec drivers -o json     # Output as JSON`,
	RunE: runDrivers,
}

var driverCmd = &cobra.Command{
	Use:   "driver <name>",
	Short: "Show where a driver has delivered",
	Long: `Show a driver's statistics with their locations and provinces,
most visited first.

Examples:
  driverrec driver สมชาย
  driverrec driver "Somchai" -o json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDriver,
}

var driversLimit int

func init() {
	rootCmd.AddCommand(driversCmd)
	rootCmd.AddCommand(driverCmd)

	driversCmd.Flags().IntVar(&driversLimit, "limit", 0, "Maximum number of results")
}

func runDrivers(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	drivers := a.svc.Snapshot().Summary()
	if len(drivers) == 0 && outputFmt != "json" {
		fmt.Println("No drivers yet. Run 'driverrec import' first.")
		return nil
	}
	if driversLimit > 0 && len(drivers) > driversLimit {
		drivers = drivers[:driversLimit]
	}

	return output.Output(outputFmt, drivers)
}

func runDriver(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(strings.Join(args, " "))

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	profile, ok := a.svc.Snapshot().Profile(name)
	if !ok {
		return fmt.Errorf("driver not found: %s", name)
	}

	return output.Output(outputFmt, profile)
}
