package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/go-poker-stats/internal/aggregator"
	"github.com/pable/go-poker-stats/internal/engine"
	"github.com/pable/go-poker-stats/internal/identity"
	"github.com/pable/go-poker-stats/internal/model"
	"github.com/pable/go-poker-stats/internal/report"
	"github.com/pable/go-poker-stats/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cHeader   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a session holding one statistics engine. Logs loaded here accumulate until 'reset'. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

// shellSession is the state one REPL holds between commands.
type shellSession struct {
	ctx   context.Context
	eng   *engine.Engine
	db    *storage.DB // nil when the archive cannot be opened
	focus model.PlayerID
}

func runShell(cmd *cobra.Command, _ []string) error {
	s := &shellSession{ctx: cmd.Context(), eng: newEngine()}
	if s.ctx == nil {
		s.ctx = context.Background()
	}
	if db, err := openArchive(); err != nil {
		cWarn.Fprintf(os.Stderr, "archive unavailable, 'uploads' and 'open' disabled: %v\n", err)
	} else {
		s.db = db
		defer db.Close()
	}

	cGreeting.Println("pokerstats shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("pokerstats")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tokens := strings.Fields(line)
		if s.dispatch(tokens[0], tokens[1:]) {
			return nil
		}
	}
	return nil
}

// dispatch runs one command and reports whether the session should end.
func (s *shellSession) dispatch(name string, args []string) bool {
	switch name {
	case "exit", "quit":
		return true
	case "help":
		shellHelp()
	case "load":
		if len(args) == 0 {
			cError.Fprintln(os.Stderr, "usage: load <log.csv|dir>...")
			return false
		}
		s.load(args)
	case "stats":
		s.stats()
	case "player":
		if len(args) != 1 {
			cError.Fprintln(os.Stderr, "usage: player <id>")
			return false
		}
		s.player(model.PlayerID(args[0]))
	case "focus":
		if len(args) == 0 {
			s.focus = ""
			cMuted.Println("focus cleared")
			return false
		}
		s.focus = model.PlayerID(args[0])
	case "players":
		s.players()
	case "alias":
		if len(args) == 0 {
			cError.Fprintln(os.Stderr, "usage: alias <id> [name...]")
			return false
		}
		s.alias(model.PlayerID(args[0]), strings.Join(args[1:], " "))
	case "suggest":
		threshold := identity.DefaultThreshold
		if len(args) > 0 {
			v, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				cError.Fprintf(os.Stderr, "invalid threshold %q\n", args[0])
				return false
			}
			threshold = v
		}
		s.suggest(threshold)
	case "export":
		if len(args) != 1 {
			cError.Fprintln(os.Stderr, "usage: export <file.csv>")
			return false
		}
		s.export(args[0])
	case "uploads":
		s.uploads()
	case "open":
		if len(args) != 1 {
			cError.Fprintln(os.Stderr, "usage: open <upload-id-prefix>")
			return false
		}
		s.open(args[0])
	case "reset":
		s.eng.Reset()
		s.focus = ""
		cMuted.Println("statistics and aliases cleared")
	default:
		cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", name)
	}
	return false
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"load <log.csv|dir>...", "process logs into this session"},
		{"stats", "per-player summary table"},
		{"player <id>", "one player's positional breakdown"},
		{"focus [id]", "highlight a player in tables (no id clears)"},
		{"players", "raw ids with observed names and aliases"},
		{"alias <id> [name...]", "set a display alias (no name clears)"},
		{"suggest [threshold]", "ids that probably belong to one person"},
		{"export <file.csv>", "write the summary as CSV"},
		{"uploads", "list archived uploads"},
		{"open <upload-id-prefix>", "process an archived upload into this session"},
		{"reset", "clear statistics and aliases"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-26s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

func (s *shellSession) load(paths []string) {
	inputs, err := readLogs(paths)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	s.process(inputs)
}

func (s *shellSession) process(inputs []engine.LogInput) {
	results := s.eng.Process(s.ctx, inputs)
	report.PrintLogResults(os.Stdout, results)
	cMuted.Printf("%s hands in session\n", humanize.Comma(int64(s.eng.Hands())))
}

func (s *shellSession) stats() {
	rows := s.eng.Summary()
	if len(rows) == 0 {
		cMuted.Println("No hands loaded yet.")
		return
	}
	report.PrintSummaryTable(os.Stdout, rows, s.focus)
}

func (s *shellSession) player(id model.PlayerID) {
	row, err := s.eng.Player(id)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	cHeader.Printf("--- %s (%s) ---\n", row.Name, row.ID)
	report.PrintPositionTable(os.Stdout, row)
}

func (s *shellSession) players() {
	refs := s.eng.Players()
	if len(refs) == 0 {
		cMuted.Println("No players seen yet.")
		return
	}
	cHeader.Printf("%-16s  %-24s  %s\n", "ID", "NAME", "ALIAS")
	for _, p := range refs {
		fmt.Printf("%-16s  %-24s  %s\n", p.ID, p.OriginalName, p.Alias)
	}
}

func (s *shellSession) alias(id model.PlayerID, name string) {
	if err := s.eng.SetAlias(id, name); err != nil {
		var nf *aggregator.PlayerNotFoundError
		if errors.As(err, &nf) {
			cWarn.Fprintf(os.Stderr, "%v (load a log that contains them first)\n", err)
			return
		}
		cError.Fprintf(os.Stderr, "error: %v\n", err)
	}
}

func (s *shellSession) suggest(threshold float64) {
	groups, err := s.eng.SuggestMerges(threshold)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	report.PrintMergeSuggestions(os.Stdout, groups, threshold)
}

func (s *shellSession) export(path string) {
	if err := writeCSVFile(path, s.eng.Summary()); err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	cMuted.Printf("wrote %s\n", path)
}

func (s *shellSession) uploads() {
	if s.db == nil {
		cWarn.Fprintln(os.Stderr, "archive unavailable")
		return
	}
	list, err := s.db.ListUploads()
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if len(list) == 0 {
		cMuted.Println("No uploads archived yet.")
		return
	}
	cHeader.Printf("%-10s  %-28s  %-7s  %6s  %s\n", "ID", "FILE", "STATUS", "HANDS", "UPLOADED")
	for _, u := range list {
		fmt.Printf("%-10s  %-28s  %-7s  %6d  %s\n",
			u.ID[:8], truncate(u.Filename, 28), u.Status, u.HandsCount, humanize.Time(u.UploadedAt))
	}
}

func (s *shellSession) open(prefix string) {
	if s.db == nil {
		cWarn.Fprintln(os.Stderr, "archive unavailable")
		return
	}
	u, err := s.db.GetUploadByPrefix(prefix)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	if u == nil {
		cWarn.Fprintf(os.Stderr, "no upload found with id prefix %q\n", prefix)
		return
	}
	s.process([]engine.LogInput{{Name: u.Filename, Data: u.Content}})
}
