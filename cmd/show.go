package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pable/go-poker-stats/internal/engine"
	"github.com/pable/go-poker-stats/internal/model"
	"github.com/pable/go-poker-stats/internal/parser"
	"github.com/pable/go-poker-stats/internal/report"
	"github.com/pable/go-poker-stats/internal/storage"
)

var showPlayer string

var showCmd = &cobra.Command{
	Use:   "show <upload-id-prefix>",
	Short: "Re-process one archived upload and print its statistics",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showPlayer, "player", "", "highlight player id and print their positional breakdown")
}

func runShow(cmd *cobra.Command, args []string) error {
	prefix := args[0]

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	u, err := db.GetUploadByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query upload: %w", err)
	}
	if u == nil {
		fmt.Fprintf(os.Stderr, "No upload found with id prefix %q\n", prefix)
		return nil
	}

	fmt.Fprintf(os.Stdout, "\nFile: %s  |  Uploaded: %s  |  Size: %s  |  Status: %s  |  ID: %s\n\n",
		u.Filename, humanize.Time(u.UploadedAt), humanize.Bytes(uint64(u.SizeBytes)), u.Status, u.ID[:8])

	if hands, err := parser.Parse(u.Filename, bytes.NewReader(u.Content)); err == nil && len(hands) > 0 {
		fmt.Fprintf(os.Stdout, "Hands #%d to #%d\n\n", hands[0].Number, hands[len(hands)-1].Number)
	}

	eng := newEngine()
	results := eng.Process(cmd.Context(), []engine.LogInput{{Name: u.Filename, Data: u.Content}})
	if !results[0].OK() {
		return results[0].Err
	}
	report.PrintSummaryTable(os.Stdout, eng.Summary(), model.PlayerID(showPlayer))
	if showPlayer != "" {
		row, err := eng.Player(model.PlayerID(showPlayer))
		if err != nil {
			return err
		}
		report.PrintPositionTable(os.Stdout, row)
	}
	return nil
}
