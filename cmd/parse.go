package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pable/go-poker-stats/internal/model"
	"github.com/pable/go-poker-stats/internal/report"
	"github.com/pable/go-poker-stats/internal/storage"
)

var (
	parsePlayer  string
	parseArchive bool
	parseAliases map[string]string
)

var parseCmd = &cobra.Command{
	Use:   "parse <log.csv|dir>...",
	Short: "Process hand-history logs and print player statistics",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().StringVar(&parsePlayer, "player", "", "focus player id; also prints their positional breakdown")
	parseCmd.Flags().BoolVar(&parseArchive, "archive", false, "store the logs in the upload archive")
	parseCmd.Flags().StringToStringVar(&parseAliases, "alias", nil, "display alias as id=name (repeatable)")
}

func runParse(cmd *cobra.Command, args []string) error {
	var archive *storage.DB
	if parseArchive {
		db, err := openArchive()
		if err != nil {
			return err
		}
		defer db.Close()
		archive = db
	}

	eng, results, err := processLogs(cmd.Context(), args, archive)
	if err != nil {
		return err
	}
	aliased := applyAliases(eng, parseAliases)

	report.PrintLogResults(os.Stdout, results)
	if len(aliased) > 0 {
		report.PrintAliasResults(os.Stdout, aliased)
	}
	fmt.Fprintf(os.Stdout, "\n%s hands, %d players\n\n", humanize.Comma(int64(eng.Hands())), len(eng.Players()))

	rows := eng.Summary()
	if len(rows) == 0 {
		return nil
	}
	report.PrintSummaryTable(os.Stdout, rows, model.PlayerID(parsePlayer))

	if parsePlayer != "" {
		row, err := eng.Player(model.PlayerID(parsePlayer))
		if err != nil {
			return err
		}
		report.PrintPositionTable(os.Stdout, row)
	}
	return nil
}
