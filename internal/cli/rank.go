package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/vijay-prabhu/driver-recommender/internal/output"
	"github.com/vijay-prabhu/driver-recommender/internal/recommend"
	"github.com/vijay-prabhu/driver-recommender/internal/refresh"
)

var (
	rankMode       string
	rankTop        int
	rankNoAutofill bool
)

var rankCmd = &cobra.Command{
	Use:   "rank <destination>...",
	Short: "Rank drivers for a route of up to four destinations",
	Long: `Rank every known driver for a route.

Each destination is a location name, optionally followed by @province.
Without a province, the province recorded for that location in the trip
history is used unless --no-autofill is set.

Modes:
  actual  rank by destinations visited, then trips to them (default)
  scored  rank by average compatibility score (0-100)

Examples:
  driverrec rank "โรงพยาบาลระยอง"
  driverrec rank "Hospital X@Rayong" "Clinic Y" --mode=scored
  driverrec rank "Hospital X" --top=5 -o json`,
	Args: cobra.RangeArgs(1, recommend.MaxDestinations),
	RunE: runRank,
}

func init() {
	rootCmd.AddCommand(rankCmd)
	rankCmd.Flags().StringVar(&rankMode, "mode", "", "Ranking mode (actual, scored); default from config")
	rankCmd.Flags().IntVar(&rankTop, "top", 0, "Number of drivers to show (default: 30 actual, 10 scored)")
	rankCmd.Flags().BoolVar(&rankNoAutofill, "no-autofill", false, "Do not look up provinces for destinations without one")
}

func runRank(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	req := refresh.RankRequest{
		Destinations: parseDestinations(args),
		TopN:         rankTop,
		NoAutofill:   rankNoAutofill,
	}
	if rankMode != "" {
		mode, err := recommend.ParseMode(rankMode)
		if err != nil {
			return err
		}
		req.Mode = mode
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	ranking, err := a.svc.Rank(ctx, req)
	if err != nil {
		return err
	}

	return output.Output(outputFmt, ranking)
}

// parseDestination splits "Name@Province" into a Destination. The last @
// separates the province so names containing @ still work.
func parseDestination(arg string) recommend.Destination {
	arg = strings.TrimSpace(arg)
	if i := strings.LastIndex(arg, "@"); i >= 0 {
		return recommend.Destination{
			Name:     strings.TrimSpace(arg[:i]),
			Province: strings.TrimSpace(arg[i+1:]),
		}
	}
	return recommend.Destination{Name: arg}
}

func parseDestinations(args []string) []recommend.Destination {
	route := make([]recommend.Destination, 0, len(args))
	for _, arg := range args {
		route = append(route, parseDestination(arg))
	}
	return route
}
