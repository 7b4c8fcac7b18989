package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-poker-stats/internal/report"
)

var (
	exportOut     string
	exportAliases map[string]string
)

var exportCmd = &cobra.Command{
	Use:   "export <log.csv|dir>...",
	Short: "Process logs and write the per-player summary as CSV",
	Long: `Process logs and write one CSV row per player with columns:
  name, id, hands, vpip, pfr, three_bet, fold_to_3bet, four_bet, fold_to_4bet,
  c_bet, fold_to_cbet, wtsd, wtsd_won, wwsf, wwsr, af

Percentages are 0-100 with one decimal; af is a plain ratio.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
	exportCmd.Flags().StringToStringVar(&exportAliases, "alias", nil, "display alias as id=name (repeatable)")
}

func runExport(cmd *cobra.Command, args []string) error {
	eng, results, err := processLogs(cmd.Context(), args, nil)
	if err != nil {
		return err
	}
	for _, r := range results {
		if !r.OK() {
			fmt.Fprintf(os.Stderr, "skipped %s: %v\n", r.Name, r.Err)
		}
	}
	applyAliases(eng, exportAliases)

	if exportOut != "" {
		if err := writeCSVFile(exportOut, eng.Summary()); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %d players to %s\n", len(eng.Players()), exportOut)
		return nil
	}
	if err := report.WriteCSV(os.Stdout, eng.Summary()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
