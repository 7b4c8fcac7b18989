// Package identity maps raw player ids to display aliases and suggests ids
// that probably belong to the same human.
package identity

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/pable/go-poker-stats/internal/model"
)

// DefaultThreshold is the similarity at or above which two names are merge
// candidates.
const DefaultThreshold = 0.8

// InvalidThresholdError rejects a similarity threshold outside [0,1].
type InvalidThresholdError struct {
	Threshold float64
}

func (e *InvalidThresholdError) Error() string {
	return fmt.Sprintf("invalid similarity threshold %g: must be within [0,1]", e.Threshold)
}

// Resolver holds the alias mapping. It is display-only and never touches
// counters. Not safe for concurrent use.
type Resolver struct {
	aliases map[model.PlayerID]string
}

// NewResolver returns a Resolver with no aliases.
func NewResolver() *Resolver {
	return &Resolver{aliases: make(map[model.PlayerID]string)}
}

// SetAlias upserts the alias for id. A blank alias removes the mapping.
func (r *Resolver) SetAlias(id model.PlayerID, alias string) error {
	if strings.TrimSpace(string(id)) == "" {
		return fmt.Errorf("set alias: empty player id")
	}
	alias = strings.TrimSpace(alias)
	if alias == "" {
		delete(r.aliases, id)
		return nil
	}
	r.aliases[id] = alias
	return nil
}

// AliasResult is the outcome of one bulk alias entry.
type AliasResult struct {
	PlayerID model.PlayerID `json:"player_id"`
	Alias    string         `json:"alias"`
	Err      error          `json:"-"`
}

// BulkSetAlias applies each entry independently; a failed entry does not undo
// earlier ones. check, when non-nil, vets the id before the entry is applied.
func (r *Resolver) BulkSetAlias(entries []model.AliasEntry, check func(model.PlayerID) error) []AliasResult {
	results := make([]AliasResult, 0, len(entries))
	for _, e := range entries {
		res := AliasResult{PlayerID: e.PlayerID, Alias: strings.TrimSpace(e.Alias)}
		if check != nil {
			res.Err = check(e.PlayerID)
		}
		if res.Err == nil {
			res.Err = r.SetAlias(e.PlayerID, e.Alias)
		}
		results = append(results, res)
	}
	return results
}

// Alias returns the alias for id, or "".
func (r *Resolver) Alias(id model.PlayerID) string {
	return r.aliases[id]
}

// DisplayName returns the alias for id if set, else rawName.
func (r *Resolver) DisplayName(id model.PlayerID, rawName string) string {
	if a, ok := r.aliases[id]; ok {
		return a
	}
	return rawName
}

// Len returns the number of alias entries.
func (r *Resolver) Len() int {
	return len(r.aliases)
}

// Reset drops every alias.
func (r *Resolver) Reset() {
	r.aliases = make(map[model.PlayerID]string)
}

// Candidate is one player considered for merge suggestions.
type Candidate struct {
	ID      model.PlayerID
	RawName string
}

// SuggestMerges clusters players whose display names look alike.
//
// Players are ordered by raw id. Each unclaimed anchor claims every later
// unclaimed player whose normalised name similarity meets threshold, unless the
// pair already shares an alias. Claiming is greedy and single-pass, so an
// earlier anchor can take a player that a later anchor matches more closely;
// the grouping depends on that order.
func (r *Resolver) SuggestMerges(players []Candidate, threshold float64) ([]model.MergeCandidateGroup, error) {
	if threshold < 0 || threshold > 1 || math.IsNaN(threshold) {
		return nil, &InvalidThresholdError{Threshold: threshold}
	}

	ordered := make([]Candidate, len(players))
	copy(ordered, players)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	display := make([]string, len(ordered))
	norm := make([]string, len(ordered))
	for i, p := range ordered {
		display[i] = r.DisplayName(p.ID, p.RawName)
		norm[i] = normalize(display[i])
	}

	var groups []model.MergeCandidateGroup
	claimed := make([]bool, len(ordered))
	for i := range ordered {
		if claimed[i] {
			continue
		}
		var members []model.MergeCandidate
		for j := i + 1; j < len(ordered); j++ {
			if claimed[j] || r.shareAlias(ordered[i].ID, ordered[j].ID) {
				continue
			}
			sim := Similarity(norm[i], norm[j])
			if sim < threshold {
				continue
			}
			claimed[j] = true
			members = append(members, model.MergeCandidate{ID: ordered[j].ID, Name: display[j], Similarity: sim})
		}
		if len(members) == 0 {
			continue
		}
		claimed[i] = true
		anchor := model.MergeCandidate{ID: ordered[i].ID, Name: display[i], Similarity: 1}
		groups = append(groups, model.MergeCandidateGroup{
			Target:  display[i],
			Members: append([]model.MergeCandidate{anchor}, members...),
		})
	}
	return groups, nil
}

func (r *Resolver) shareAlias(a, b model.PlayerID) bool {
	aa, ok := r.aliases[a]
	if !ok {
		return false
	}
	return aa == r.aliases[b]
}

// Similarity returns the normalised Levenshtein similarity of two names in
// [0,1], 1 meaning identical after normalisation.
func Similarity(a, b string) float64 {
	a, b = normalize(a), normalize(b)
	if a == b {
		return 1
	}
	return levenshtein.Similarity(a, b, nil)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
