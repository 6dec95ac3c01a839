package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/driver-recommender/internal/output"
)

var locationsCmd = &cobra.Command{
	Use:   "locations [query]",
	Short: "Search known delivery locations",
	Long: `List locations from the trip history with their provinces.
A query keeps locations whose name contains it (case-insensitive).

Examples:
  driverrec locations
  driverrec locations โรงพยาบาล
  driverrec locations clinic --limit=5`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLocations,
}

var locationsLimit int

func init() {
	rootCmd.AddCommand(locationsCmd)
	locationsCmd.Flags().IntVar(&locationsLimit, "limit", 0, "Maximum number of results")
}

func runLocations(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var query string
	if len(args) > 0 {
		query = args[0]
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	locations, err := a.svc.Locations(ctx, query, locationsLimit)
	if err != nil {
		return err
	}

	if len(locations) == 0 && outputFmt != "json" {
		if query != "" {
			fmt.Printf("No locations found matching: %s\n", query)
		} else {
			fmt.Println("No locations yet. Run 'driverrec import' first.")
		}
		return nil
	}

	return output.Output(outputFmt, locations)
}
