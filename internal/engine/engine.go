// Package engine owns one accumulator and one alias resolver and exposes the
// operations the transport and CLI adapters call. Each Engine is independent;
// callers hold one and pass it explicitly.
package engine

import (
	"bytes"
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pable/go-poker-stats/internal/aggregator"
	"github.com/pable/go-poker-stats/internal/identity"
	"github.com/pable/go-poker-stats/internal/model"
	"github.com/pable/go-poker-stats/internal/parser"
	"github.com/pable/go-poker-stats/internal/replay"
)

const defaultWorkers = 4

// LogInput is one raw log submitted for processing.
type LogInput struct {
	Name string
	Data []byte
}

// LogResult is the per-log outcome of a batch: a hand count on success or the
// reason it was rejected.
type LogResult struct {
	Name  string
	Hands int
	Err   error
}

// OK reports whether the log was folded in.
func (r LogResult) OK() bool { return r.Err == nil }

// Options configures an Engine.
type Options struct {
	Workers int // concurrent parsers per batch
	Log     zerolog.Logger
}

// Engine guards the accumulator and resolver with one lock: folds, alias
// writes and resets take it exclusively, reads take it shared.
type Engine struct {
	mu      sync.RWMutex
	acc     *aggregator.Accumulator
	ids     *identity.Resolver
	hands   int
	workers int
	log     zerolog.Logger
}

// New returns an empty Engine.
func New(opts Options) *Engine {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Engine{
		acc:     aggregator.New(),
		ids:     identity.NewResolver(),
		workers: workers,
		log:     opts.Log.With().Str("component", "engine").Logger(),
	}
}

type replayed struct {
	facts []map[model.PlayerID]model.HandFacts
}

// Process parses and replays every input concurrently, then folds the logs
// that parsed cleanly in input order. A bad log never blocks the others.
func (e *Engine) Process(ctx context.Context, inputs []LogInput) []LogResult {
	results := make([]LogResult, len(inputs))
	out := make([]replayed, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, in := range inputs {
		results[i].Name = in.Name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			hands, err := parser.Parse(in.Name, bytes.NewReader(in.Data))
			if err != nil {
				results[i].Err = err
				return nil
			}
			facts := make([]map[model.PlayerID]model.HandFacts, 0, len(hands))
			for _, h := range hands {
				facts = append(facts, replay.Replay(h))
			}
			out[i].facts = facts
			return nil
		})
	}
	_ = g.Wait() // workers report through results

	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range results {
		if results[i].Err != nil {
			e.log.Warn().Str("file", results[i].Name).Err(results[i].Err).Msg("Log rejected")
			continue
		}
		for _, f := range out[i].facts {
			e.acc.FoldHand(f)
		}
		results[i].Hands = len(out[i].facts)
		e.hands += results[i].Hands
		e.log.Info().Str("file", results[i].Name).Int("hands", results[i].Hands).Msg("Log processed")
	}
	return results
}

// Summary returns every player's row, ordered by raw id.
func (e *Engine) Summary() []model.SummaryRow {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.acc.Summary(e.ids.Alias)
}

// Player returns one row; unknown ids yield *aggregator.PlayerNotFoundError.
func (e *Engine) Player(id model.PlayerID) (model.SummaryRow, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.acc.Row(id, e.ids.Alias)
}

// Players lists raw ids with their observed names and aliases.
func (e *Engine) Players() []model.PlayerRef {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := e.acc.IDs()
	refs := make([]model.PlayerRef, 0, len(ids))
	for _, id := range ids {
		name, _ := e.acc.Name(id)
		refs = append(refs, model.PlayerRef{ID: id, OriginalName: name, Alias: e.ids.Alias(id)})
	}
	return refs
}

// Hands returns the number of hands folded since the last reset.
func (e *Engine) Hands() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.hands
}

// SetAlias maps a known raw id to a display alias; a blank alias clears it.
func (e *Engine) SetAlias(id model.PlayerID, alias string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.known(id); err != nil {
		return err
	}
	return e.ids.SetAlias(id, alias)
}

// BulkSetAlias applies each entry on its own; failures are reported per entry.
func (e *Engine) BulkSetAlias(entries []model.AliasEntry) []identity.AliasResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ids.BulkSetAlias(entries, e.known)
}

// SuggestMerges proposes groups of raw ids whose display names are at least
// threshold similar. It compares every pair of players, so keep it off hot paths.
func (e *Engine) SuggestMerges(threshold float64) ([]model.MergeCandidateGroup, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := e.acc.IDs()
	candidates := make([]identity.Candidate, 0, len(ids))
	for _, id := range ids {
		name, _ := e.acc.Name(id)
		candidates = append(candidates, identity.Candidate{ID: id, RawName: name})
	}
	return e.ids.SuggestMerges(candidates, threshold)
}

// Reset clears counters and aliases in one step.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.acc.Reset()
	e.ids.Reset()
	e.hands = 0
	e.log.Info().Msg("Engine reset")
}

func (e *Engine) known(id model.PlayerID) error {
	if !e.acc.Has(id) {
		return &aggregator.PlayerNotFoundError{ID: id}
	}
	return nil
}
