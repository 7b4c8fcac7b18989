package aggregator

import (
	"fmt"
	"sort"

	"github.com/pable/go-poker-stats/internal/model"
)

// PlayerNotFoundError is returned when a lookup names a raw id that has no
// recorded hands.
type PlayerNotFoundError struct {
	ID model.PlayerID
}

func (e *PlayerNotFoundError) Error() string {
	return fmt.Sprintf("no such player: %s", e.ID)
}

// AliasLookup returns the display alias for id, or "" when none is set.
type AliasLookup func(id model.PlayerID) string

// PositionStat holds a player's counters for one table position.
type PositionStat struct {
	Hands   int
	Tallies model.Tallies
}

// PlayerStat is the running counter-set for one raw id. Counts only grow.
type PlayerStat struct {
	ID         model.PlayerID
	Name       string // most recently observed raw name
	Hands      int
	Tallies    model.Tallies
	ByPosition map[model.Position]*PositionStat
}

// Accumulator folds per-hand facts into per-player counters. It does no
// locking and no deduplication: callers serialise access and fold each hand
// at most once.
type Accumulator struct {
	stats map[model.PlayerID]*PlayerStat
}

// New returns an empty Accumulator.
func New() *Accumulator {
	return &Accumulator{stats: make(map[model.PlayerID]*PlayerStat)}
}

// Fold adds one hand's facts for one player.
func (a *Accumulator) Fold(id model.PlayerID, facts model.HandFacts) {
	ps, ok := a.stats[id]
	if !ok {
		ps = &PlayerStat{ID: id, ByPosition: make(map[model.Position]*PositionStat)}
		a.stats[id] = ps
	}
	if facts.Name != "" {
		ps.Name = facts.Name
	}
	ps.Hands++
	ps.Tallies.Add(facts)

	if facts.Position == model.PosUnknown {
		return
	}
	pos, ok := ps.ByPosition[facts.Position]
	if !ok {
		pos = &PositionStat{}
		ps.ByPosition[facts.Position] = pos
	}
	pos.Hands++
	pos.Tallies.Add(facts)
}

// FoldHand folds the replay output of one hand.
func (a *Accumulator) FoldHand(facts map[model.PlayerID]model.HandFacts) {
	for id, f := range facts {
		a.Fold(id, f)
	}
}

// Len returns the number of distinct raw ids seen.
func (a *Accumulator) Len() int {
	return len(a.stats)
}

// Has reports whether id has any recorded hands.
func (a *Accumulator) Has(id model.PlayerID) bool {
	_, ok := a.stats[id]
	return ok
}

// IDs returns every raw id in ascending order.
func (a *Accumulator) IDs() []model.PlayerID {
	ids := make([]model.PlayerID, 0, len(a.stats))
	for id := range a.stats {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Name returns the most recently observed raw name for id.
func (a *Accumulator) Name(id model.PlayerID) (string, bool) {
	ps, ok := a.stats[id]
	if !ok {
		return "", false
	}
	return ps.Name, true
}

// Stat returns a copy of the counters for id.
func (a *Accumulator) Stat(id model.PlayerID) (PlayerStat, bool) {
	ps, ok := a.stats[id]
	if !ok {
		return PlayerStat{}, false
	}
	cp := *ps
	cp.ByPosition = make(map[model.Position]*PositionStat, len(ps.ByPosition))
	for k, v := range ps.ByPosition {
		pv := *v
		cp.ByPosition[k] = &pv
	}
	return cp, true
}

// Summary returns one row per raw id, ordered by id. Rows of ids sharing an
// alias stay separate; counters are never summed across ids.
func (a *Accumulator) Summary(aliases AliasLookup) []model.SummaryRow {
	rows := make([]model.SummaryRow, 0, len(a.stats))
	for _, id := range a.IDs() {
		rows = append(rows, a.row(a.stats[id], aliases))
	}
	return rows
}

// Row returns the summary row for id.
func (a *Accumulator) Row(id model.PlayerID, aliases AliasLookup) (model.SummaryRow, error) {
	ps, ok := a.stats[id]
	if !ok {
		return model.SummaryRow{}, &PlayerNotFoundError{ID: id}
	}
	return a.row(ps, aliases), nil
}

// Reset drops every counter.
func (a *Accumulator) Reset() {
	a.stats = make(map[model.PlayerID]*PlayerStat)
}

func (a *Accumulator) row(ps *PlayerStat, aliases AliasLookup) model.SummaryRow {
	r := model.SummaryRow{
		ID:           ps.ID,
		Name:         ps.Name,
		OriginalName: ps.Name,
		Hands:        ps.Hands,
		Rates:        ps.Tallies.Rates(),
		Counts:       ps.Tallies,
		Positions:    make(map[model.Position]model.PositionRow, len(ps.ByPosition)),
	}
	if aliases != nil {
		if alias := aliases(ps.ID); alias != "" {
			r.Alias = alias
			r.Name = alias
		}
	}
	for pos, st := range ps.ByPosition {
		if st.Hands == 0 {
			continue
		}
		r.Positions[pos] = model.PositionRow{
			Hands:  st.Hands,
			Rates:  st.Tallies.Rates(),
			Counts: st.Tallies,
		}
	}
	return r
}
