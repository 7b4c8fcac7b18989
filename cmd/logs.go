package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pable/go-poker-stats/internal/engine"
	"github.com/pable/go-poker-stats/internal/identity"
	"github.com/pable/go-poker-stats/internal/model"
	"github.com/pable/go-poker-stats/internal/report"
	"github.com/pable/go-poker-stats/internal/storage"
)

// readLogs loads every path as a raw log. Directories contribute their *.csv
// files in name order.
func readLogs(paths []string) ([]engine.LogInput, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.csv"))
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", p, err)
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no log files found")
	}

	inputs := make([]engine.LogInput, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		inputs = append(inputs, engine.LogInput{Name: filepath.Base(f), Data: data})
	}
	return inputs, nil
}

func newEngine() *engine.Engine {
	return engine.New(engine.Options{Workers: workers, Log: log})
}

// processLogs reads paths into a fresh engine. With an archive, each log is
// stored along with its outcome.
func processLogs(ctx context.Context, paths []string, archive *storage.DB) (*engine.Engine, []engine.LogResult, error) {
	inputs, err := readLogs(paths)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]string, len(inputs))
	if archive != nil {
		for i, in := range inputs {
			if ids[i], err = archive.InsertUpload(in.Name, in.Data); err != nil {
				return nil, nil, fmt.Errorf("archive %s: %w", in.Name, err)
			}
		}
	}

	eng := newEngine()
	results := eng.Process(ctx, inputs)
	if archive != nil {
		for i, r := range results {
			if err := archive.UpdateUploadResult(ids[i], r.Hands, r.Err); err != nil {
				return nil, nil, fmt.Errorf("record result for %s: %w", r.Name, err)
			}
		}
	}
	return eng, results, nil
}

// applyAliases applies id=alias pairs, warning about unknown ids.
func applyAliases(eng *engine.Engine, aliases map[string]string) []identity.AliasResult {
	if len(aliases) == 0 {
		return nil
	}
	entries := make([]model.AliasEntry, 0, len(aliases))
	for id, alias := range aliases {
		entries = append(entries, model.AliasEntry{PlayerID: model.PlayerID(strings.TrimSpace(id)), Alias: alias})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].PlayerID < entries[j].PlayerID })
	results := eng.BulkSetAlias(entries)
	for _, r := range results {
		if r.Err != nil {
			log.Warn().Err(r.Err).Str("player_id", string(r.PlayerID)).Msg("Alias not applied")
		}
	}
	return results
}

// writeCSVFile writes the summary export to path. A failed close is reported,
// since it can mean the buffered tail never reached disk.
func writeCSVFile(path string, rows []model.SummaryRow) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()
	if err := report.WriteCSV(f, rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func openArchive() (*storage.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}
