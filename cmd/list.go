package cmd

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pable/go-poker-stats/internal/storage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived uploads",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	uploads, err := db.ListUploads()
	if err != nil {
		return fmt.Errorf("list uploads: %w", err)
	}
	if len(uploads) == 0 {
		fmt.Fprintln(os.Stdout, "No uploads archived yet. Run 'pokerstats parse --archive <log.csv>' or POST /upload to add one.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-10s  %-28s  %-7s  %6s  %9s  %s\n",
		"ID", "FILE", "STATUS", "HANDS", "SIZE", "UPLOADED")
	fmt.Fprintf(os.Stdout, "%-10s  %-28s  %-7s  %6s  %9s  %s\n",
		"──────────", "────────────────────────────", "───────", "──────", "─────────", "────────")
	for _, u := range uploads {
		fmt.Fprintf(os.Stdout, "%-10s  %-28s  %-7s  %6d  %9s  %s\n",
			u.ID[:8], truncate(u.Filename, 28), u.Status, u.HandsCount,
			humanize.Bytes(uint64(u.SizeBytes)), humanize.Time(u.UploadedAt))
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
