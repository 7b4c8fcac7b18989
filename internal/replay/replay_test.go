package replay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-poker-stats/internal/model"
)

// seat builds a dealt-in player.
func seat(id string, n int, pos model.Position) model.Seat {
	return model.Seat{ID: model.PlayerID(id), Name: "name-" + id, Seat: n, Stack: 1000, Position: pos}
}

func act(id string, kind model.ActionKind, st model.Street) model.Action {
	return model.Action{Player: model.PlayerID(id), Kind: kind, Street: st}
}

const (
	pre  = model.StreetPreflop
	flop = model.StreetFlop
	turn = model.StreetTurn
	rivr = model.StreetRiver
	sd   = model.StreetShowdown
)

// ---- Preflop ----

// B open-raises, A (big blind) calls, both check to showdown and A wins.
func TestReplay_BlindCallsOpenAndWinsShowdown(t *testing.T) {
	h := model.Hand{
		Players: []model.Seat{seat("A", 1, model.PosBB), seat("B", 2, model.PosBTN)},
		Reached: rivr,
		Actions: []model.Action{
			act("B", model.ActionPost, pre),
			act("A", model.ActionPost, pre),
			act("B", model.ActionRaise, pre),
			act("A", model.ActionCall, pre),
			act("A", model.ActionCheck, flop),
			act("B", model.ActionCheck, flop),
			act("A", model.ActionCheck, turn),
			act("B", model.ActionCheck, turn),
			act("A", model.ActionCheck, rivr),
			act("B", model.ActionCheck, rivr),
			act("A", model.ActionShow, sd),
			act("B", model.ActionShow, sd),
			act("A", model.ActionCollect, sd),
		},
	}
	facts := Replay(h)
	require.Len(t, facts, 2)
	a, b := facts["A"], facts["B"]

	assert.True(t, a.VPIP)
	assert.False(t, a.ThreeBetOpp)
	assert.False(t, a.OpenRaise)
	assert.True(t, b.OpenRaise)
	assert.True(t, b.VPIP)

	for name, f := range map[string]model.HandFacts{"A": a, "B": b} {
		assert.True(t, f.SawFlop, name)
		assert.True(t, f.SawTurn, name)
		assert.True(t, f.SawRiver, name)
		assert.True(t, f.WentToShowdown, name)
		assert.False(t, f.WonWithoutShowdown, name)
	}
	assert.True(t, a.WonAtShowdown)
	assert.False(t, b.WonAtShowdown)

	// The aggressor checked the flop: a c-bet spot that was declined.
	assert.True(t, b.CBetOpp)
	assert.False(t, b.CBet)
	assert.False(t, a.FacedCBet)
}

// C opens, D 3-bets from the button, everyone folds preflop.
func TestReplay_FoldToThreeBet(t *testing.T) {
	h := model.Hand{
		Players: []model.Seat{
			seat("C", 1, model.PosUTG), seat("D", 2, model.PosBTN),
			seat("E", 3, model.PosSB), seat("F", 4, model.PosBB),
		},
		Reached: pre,
		Actions: []model.Action{
			act("E", model.ActionPost, pre),
			act("F", model.ActionPost, pre),
			act("C", model.ActionRaise, pre),
			act("D", model.ActionRaise, pre),
			act("E", model.ActionFold, pre),
			act("F", model.ActionFold, pre),
			act("C", model.ActionFold, pre),
			act("D", model.ActionCollect, pre),
		},
	}
	facts := Replay(h)
	c, d, e := facts["C"], facts["D"], facts["E"]

	assert.True(t, c.OpenRaise)
	assert.True(t, c.FacedThreeBet)
	assert.True(t, c.FoldedToThreeBet)

	assert.True(t, d.ThreeBetOpp)
	assert.True(t, d.ThreeBet)
	assert.False(t, d.CBetOpp)
	assert.True(t, d.Won)
	assert.True(t, d.WonWithoutShowdown)
	assert.False(t, d.SawFlop)

	// Folding cold to a 3-bet is not folding to a 3-bet.
	assert.False(t, e.FacedThreeBet)
	assert.True(t, e.FourBetOpp)
	assert.False(t, e.FourBet)
	assert.False(t, e.VPIP)
}

// U opens, the small blind folds, the big blind re-raises and U folds.
func TestReplay_BigBlindThreeBet(t *testing.T) {
	h := model.Hand{
		Players: []model.Seat{
			seat("U", 1, model.PosUTG), seat("S", 2, model.PosSB), seat("B", 3, model.PosBB),
		},
		Reached: pre,
		Actions: []model.Action{
			act("S", model.ActionPost, pre),
			act("B", model.ActionPost, pre),
			act("U", model.ActionRaise, pre),
			act("S", model.ActionFold, pre),
			act("B", model.ActionRaise, pre),
			act("U", model.ActionFold, pre),
			act("B", model.ActionCollect, pre),
		},
	}
	facts := Replay(h)
	u, sb, bb := facts["U"], facts["S"], facts["B"]

	assert.True(t, bb.ThreeBetOpp)
	assert.True(t, bb.ThreeBet)
	assert.True(t, bb.VPIP)
	assert.False(t, bb.OpenRaise)

	assert.True(t, u.FacedThreeBet)
	assert.True(t, u.FoldedToThreeBet)

	// Folding a posted blind to one raise is no 3-bet spot.
	assert.False(t, sb.ThreeBetOpp)
	assert.False(t, sb.ThreeBet)
}

func TestReplay_FourAndFiveBet(t *testing.T) {
	h := model.Hand{
		Players: []model.Seat{
			seat("A", 1, model.PosUTG), seat("B", 2, model.PosBTN),
			seat("S", 3, model.PosSB), seat("G", 4, model.PosBB),
		},
		Reached: pre,
		Actions: []model.Action{
			act("S", model.ActionPost, pre),
			act("G", model.ActionPost, pre),
			act("A", model.ActionRaise, pre),
			act("B", model.ActionRaise, pre),
			act("S", model.ActionFold, pre),
			act("G", model.ActionFold, pre),
			act("A", model.ActionRaise, pre),
			act("B", model.ActionRaise, pre),
			act("A", model.ActionFold, pre),
			act("B", model.ActionCollect, pre),
		},
	}
	facts := Replay(h)
	a, b := facts["A"], facts["B"]

	assert.True(t, a.FacedThreeBet)
	assert.False(t, a.FoldedToThreeBet)
	assert.True(t, a.FourBetOpp)
	assert.True(t, a.FourBet)
	assert.True(t, a.FacedFiveBet)
	assert.True(t, a.FoldedToFiveBet)

	assert.True(t, b.ThreeBet)
	assert.True(t, b.FacedFourBet)
	assert.False(t, b.FoldedToFourBet)
	assert.True(t, b.FiveBetOpp)
	assert.True(t, b.FiveBet)
}

func TestReplay_LimpIsVPIPWithoutOpenRaise(t *testing.T) {
	h := model.Hand{
		Players: []model.Seat{seat("A", 1, model.PosUTG), seat("S", 2, model.PosSB), seat("G", 3, model.PosBB)},
		Actions: []model.Action{
			act("S", model.ActionPost, pre),
			act("G", model.ActionPost, pre),
			act("A", model.ActionCall, pre),
			act("S", model.ActionFold, pre),
			act("G", model.ActionCheck, pre),
			act("G", model.ActionBet, flop),
			act("A", model.ActionFold, flop),
			act("G", model.ActionCollect, flop),
		},
		Reached: flop,
	}
	facts := Replay(h)
	assert.True(t, facts["A"].VPIP)
	assert.False(t, facts["A"].OpenRaise)
	assert.False(t, facts["G"].VPIP, "checking the option is not voluntary")
	assert.False(t, facts["S"].SawFlop)
	assert.True(t, facts["A"].SawFlop)
	assert.False(t, facts["A"].SawTurn)

	// No preflop raise, so no c-bet spot for anybody.
	assert.False(t, facts["G"].CBetOpp)
	assert.False(t, facts["A"].FacedCBet)
	assert.True(t, facts["G"].WonWithoutShowdown)
	assert.Equal(t, 1, facts["G"].Aggressive)
}

// ---- Flop ----

func TestReplay_ContinuationBet(t *testing.T) {
	h := model.Hand{
		Players: []model.Seat{seat("P", 1, model.PosBTN), seat("X", 2, model.PosSB), seat("Y", 3, model.PosBB)},
		Reached: flop,
		Actions: []model.Action{
			act("X", model.ActionPost, pre),
			act("Y", model.ActionPost, pre),
			act("P", model.ActionRaise, pre),
			act("X", model.ActionCall, pre),
			act("Y", model.ActionCall, pre),
			act("X", model.ActionCheck, flop),
			act("Y", model.ActionCheck, flop),
			act("P", model.ActionBet, flop),
			act("X", model.ActionFold, flop),
			act("Y", model.ActionCall, flop),
		},
	}
	facts := Replay(h)
	p, x, y := facts["P"], facts["X"], facts["Y"]

	assert.True(t, p.CBetOpp)
	assert.True(t, p.CBet)

	// A check before the c-bet does not count; the response to it does.
	assert.True(t, x.FacedCBet)
	assert.True(t, x.FoldedToCBet)
	assert.True(t, y.FacedCBet)
	assert.False(t, y.FoldedToCBet)

	assert.Equal(t, 1, p.Aggressive)
	assert.Equal(t, 1, y.Calls)
	assert.Equal(t, 0, x.Calls, "preflop calls are not postflop aggression inputs")
}

func TestReplay_DonkBetRemovesCBetSpot(t *testing.T) {
	h := model.Hand{
		Players: []model.Seat{seat("P", 1, model.PosBTN), seat("Y", 2, model.PosBB)},
		Reached: flop,
		Actions: []model.Action{
			act("Y", model.ActionPost, pre),
			act("P", model.ActionRaise, pre),
			act("Y", model.ActionCall, pre),
			act("Y", model.ActionBet, flop),
			act("P", model.ActionRaise, flop),
			act("Y", model.ActionFold, flop),
			act("P", model.ActionCollect, flop),
		},
	}
	facts := Replay(h)
	assert.False(t, facts["P"].CBetOpp)
	assert.False(t, facts["Y"].FacedCBet)
	assert.Equal(t, 1, facts["P"].Aggressive)
	assert.Equal(t, 1, facts["Y"].Aggressive)
}

// ---- Showdown ----

func TestReplay_LoneWinnerShowingIsNotShowdown(t *testing.T) {
	h := model.Hand{
		Players: []model.Seat{seat("A", 1, model.PosBTN), seat("B", 2, model.PosBB)},
		Reached: rivr,
		Actions: []model.Action{
			act("B", model.ActionPost, pre),
			act("A", model.ActionCall, pre),
			act("B", model.ActionCheck, pre),
			act("B", model.ActionCheck, flop),
			act("A", model.ActionCheck, flop),
			act("B", model.ActionCheck, turn),
			act("A", model.ActionCheck, turn),
			act("B", model.ActionBet, rivr),
			act("A", model.ActionFold, rivr),
			act("B", model.ActionShow, sd),
			act("B", model.ActionCollect, sd),
		},
	}
	facts := Replay(h)
	b := facts["B"]
	assert.False(t, b.WentToShowdown)
	assert.False(t, b.WonAtShowdown)
	assert.True(t, b.WonWithoutShowdown)
	assert.True(t, facts["A"].SawRiver)
	assert.False(t, facts["A"].WentToShowdown)
}

func TestReplay_SplitPotAtShowdown(t *testing.T) {
	h := model.Hand{
		Players: []model.Seat{seat("A", 1, model.PosBTN), seat("B", 2, model.PosSB), seat("C", 3, model.PosBB)},
		Reached: rivr,
		Actions: []model.Action{
			act("B", model.ActionPost, pre),
			act("C", model.ActionPost, pre),
			act("A", model.ActionRaise, pre),
			act("B", model.ActionFold, pre),
			act("C", model.ActionCall, pre),
			act("A", model.ActionShow, sd),
			act("C", model.ActionShow, sd),
			act("A", model.ActionCollect, sd),
			act("C", model.ActionCollect, sd),
		},
	}
	facts := Replay(h)
	assert.True(t, facts["A"].WonAtShowdown)
	assert.True(t, facts["C"].WonAtShowdown)
	assert.False(t, facts["B"].WentToShowdown)
	assert.False(t, facts["B"].SawFlop)
}

func TestReplay_IgnoresUnseatedActors(t *testing.T) {
	h := model.Hand{
		Players: []model.Seat{seat("A", 1, model.PosBTN), seat("B", 2, model.PosBB)},
		Actions: []model.Action{
			act("Z", model.ActionRaise, pre),
			act("A", model.ActionFold, pre),
		},
	}
	facts := Replay(h)
	require.Len(t, facts, 2)
	assert.False(t, facts["A"].FacedThreeBet)
	assert.Equal(t, "name-A", facts["A"].Name)
	assert.Equal(t, model.PosBTN, facts["A"].Position)
}
