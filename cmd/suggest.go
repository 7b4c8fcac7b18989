package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-poker-stats/internal/identity"
	"github.com/pable/go-poker-stats/internal/report"
)

var suggestThreshold float64

var suggestCmd = &cobra.Command{
	Use:   "suggest <log.csv|dir>...",
	Short: "Suggest player ids that probably belong to the same person",
	Long: `Process logs and group player ids whose names are at least --threshold similar
(normalised Levenshtein, case and whitespace insensitive). Groups are built greedily
in id order, so each id appears in at most one group.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSuggest,
}

func init() {
	suggestCmd.Flags().Float64Var(&suggestThreshold, "threshold", identity.DefaultThreshold, "similarity threshold in [0,1]")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	eng, results, err := processLogs(cmd.Context(), args, nil)
	if err != nil {
		return err
	}
	groups, err := eng.SuggestMerges(suggestThreshold)
	if err != nil {
		return err
	}
	report.PrintLogResults(os.Stderr, results)
	report.PrintMergeSuggestions(os.Stdout, groups, suggestThreshold)
	return nil
}
