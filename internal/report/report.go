package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-poker-stats/internal/engine"
	"github.com/pable/go-poker-stats/internal/identity"
	"github.com/pable/go-poker-stats/internal/model"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintLogResults prints one line per processed log with its hand count or
// the reason it was rejected.
func PrintLogResults(w io.Writer, results []engine.LogResult) {
	table := newTable(w)
	table.Header("FILE", "STATUS", "HANDS", "ERROR")
	for _, r := range results {
		status, errStr := "success", ""
		if !r.OK() {
			status, errStr = "error", r.Err.Error()
		}
		table.Append(r.Name, status, strconv.Itoa(r.Hands), errStr)
	}
	table.Render()
}

// PrintSummaryTable prints the headline metrics for every player. If focus is
// non-empty, that player's row is marked with ">".
func PrintSummaryTable(w io.Writer, rows []model.SummaryRow, focus model.PlayerID) {
	table := newTable(w)
	table.Header(
		" ", "NAME", "ID", "HANDS", "VPIP", "PFR", "3BET", "F3B", "4BET", "F4B",
		"CBET", "FCB", "WTSD", "W$SD", "WWSF", "AF", "SAMPLE",
	)
	for _, r := range rows {
		marker := " "
		if focus != "" && r.ID == focus {
			marker = ">"
		}
		table.Append(
			marker,
			r.Name,
			string(r.ID),
			strconv.Itoa(r.Hands),
			pct(r.VPIP),
			pct(r.PFR),
			pctOf(r.ThreeBet, r.Counts.ThreeBet),
			pctOf(r.FoldToThreeBet, r.Counts.FoldToThreeBet),
			pctOf(r.FourBet, r.Counts.FourBet),
			pctOf(r.FoldToFourBet, r.Counts.FoldToFourBet),
			pctOf(r.CBet, r.Counts.CBet),
			pctOf(r.FoldToCBet, r.Counts.FoldToCBet),
			pct(r.WTSD),
			pctOf(r.WSD, r.Counts.WSD),
			pctOf(r.WWSF, r.Counts.WWSF),
			fmt.Sprintf("%.2f", r.AF),
			sampleFlag(r.Hands),
		)
	}
	table.Render()
}

// PrintPositionTable prints one player's breakdown by table position, in
// table order. Positions without hands are omitted.
func PrintPositionTable(w io.Writer, row model.SummaryRow) {
	fmt.Fprintf(w, "\n%s (%s)  |  Hands: %d  |  AF: %.2f\n\n", row.Name, row.ID, row.Hands, row.AF)

	table := newTable(w)
	table.Header("POS", "HANDS", "VPIP", "PFR", "3BET", "F3B", "CBET", "WTSD", "W$SD")
	for _, pos := range model.Positions {
		p, ok := row.Positions[pos]
		if !ok {
			continue
		}
		table.Append(
			string(pos),
			strconv.Itoa(p.Hands),
			pct(p.VPIP),
			pct(p.PFR),
			pctOf(p.ThreeBet, p.Counts.ThreeBet),
			pctOf(p.FoldToThreeBet, p.Counts.FoldToThreeBet),
			pctOf(p.CBet, p.Counts.CBet),
			pct(p.WTSD),
			pctOf(p.WSD, p.Counts.WSD),
		)
	}
	table.Render()
}

// PrintMergeSuggestions prints each suggested group with the similarity of
// every member to the group's first player.
func PrintMergeSuggestions(w io.Writer, groups []model.MergeCandidateGroup, threshold float64) {
	if len(groups) == 0 {
		fmt.Fprintf(w, "No merge candidates at threshold %.2f.\n", threshold)
		return
	}
	table := newTable(w)
	table.Header("GROUP", "TARGET", "ID", "NAME", "SIMILARITY")
	for i, g := range groups {
		members := append([]model.MergeCandidate(nil), g.Members...)
		// Anchor first, then most similar.
		sort.SliceStable(members[1:], func(a, b int) bool {
			return members[1+a].Similarity > members[1+b].Similarity
		})
		for _, m := range members {
			table.Append(strconv.Itoa(i+1), g.Target, string(m.ID), m.Name, fmt.Sprintf("%.3f", m.Similarity))
		}
	}
	table.Render()
}

// PrintAliasResults prints the outcome of a bulk alias request.
func PrintAliasResults(w io.Writer, results []identity.AliasResult) {
	table := newTable(w)
	table.Header("ID", "ALIAS", "STATUS")
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}
		table.Append(string(r.PlayerID), r.Alias, status)
	}
	table.Render()
}

func pct(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

// pctOf renders a rate, or a dash when the player never had the opportunity.
func pctOf(v float64, t model.Tally) string {
	if t.Opportunities == 0 {
		return "—"
	}
	return pct(v)
}

func sampleFlag(hands int) string {
	switch {
	case hands >= 100:
		return "OK"
	case hands >= 30:
		return "LOW"
	default:
		return "VERY_LOW"
	}
}
