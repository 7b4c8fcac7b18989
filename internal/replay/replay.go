// Package replay walks a parsed hand action by action and derives, for every
// player dealt in, the per-hand facts the aggregator counts.
package replay

import (
	"github.com/pable/go-poker-stats/internal/model"
)

// state is the street-aware bookkeeping for one hand.
type state struct {
	hand  model.Hand
	facts map[model.PlayerID]*model.HandFacts

	folded   map[model.PlayerID]model.Street
	reached  map[model.PlayerID]bool // action has reached the player preflop (posts included)
	decided  map[model.PlayerID]bool // first voluntary preflop action taken
	raises   int                     // voluntary preflop raises so far
	level    map[model.PlayerID]int  // raise level of the player's last preflop raise (1 = open)
	pfa      model.PlayerID          // preflop aggressor
	hasPFA   bool
	collects map[model.PlayerID]bool

	flopActed       map[model.PlayerID]bool
	flopBet         bool
	cbetOutstanding bool

	showdownSeen bool
	showdown     bool
}

// Replay derives HandFacts for every seated player of h. Actions are processed
// strictly in order; players not seated are ignored.
func Replay(h model.Hand) map[model.PlayerID]model.HandFacts {
	s := &state{
		hand:      h,
		facts:     make(map[model.PlayerID]*model.HandFacts, len(h.Players)),
		folded:    make(map[model.PlayerID]model.Street),
		reached:   make(map[model.PlayerID]bool),
		decided:   make(map[model.PlayerID]bool),
		level:     make(map[model.PlayerID]int),
		collects:  make(map[model.PlayerID]bool),
		flopActed: make(map[model.PlayerID]bool),
	}
	for _, seat := range h.Players {
		s.facts[seat.ID] = &model.HandFacts{Name: seat.Name, Position: seat.Position}
	}

	for _, a := range h.Actions {
		f := s.facts[a.Player]
		if f == nil {
			continue
		}
		if a.Street == model.StreetShowdown && !s.showdownSeen {
			s.openShowdown()
		}
		switch a.Street {
		case model.StreetPreflop:
			s.preflop(a, f)
		case model.StreetFlop:
			s.flop(a, f)
		}
		if a.Street >= model.StreetFlop && a.Street <= model.StreetRiver {
			switch {
			case a.Kind.Aggressive():
				f.Aggressive++
			case a.Kind == model.ActionCall:
				f.Calls++
			}
		}
		switch a.Kind {
		case model.ActionFold:
			if _, ok := s.folded[a.Player]; !ok {
				s.folded[a.Player] = a.Street
			}
		case model.ActionCollect:
			s.collects[a.Player] = true
		}
	}

	return s.finish()
}

// openShowdown handles the first showdown event. It only counts as a showdown
// when at least two players are still live; a lone winner showing cards is not.
func (s *state) openShowdown() {
	s.showdownSeen = true
	var live []model.PlayerID
	for _, seat := range s.hand.Players {
		if _, ok := s.folded[seat.ID]; !ok {
			live = append(live, seat.ID)
		}
	}
	if len(live) < 2 {
		return
	}
	s.showdown = true
	for _, id := range live {
		s.facts[id].WentToShowdown = true
	}
}

func (s *state) preflop(a model.Action, f *model.HandFacts) {
	switch a.Kind {
	case model.ActionPost:
		s.reached[a.Player] = true
		return
	case model.ActionShow, model.ActionCollect:
		return
	}

	facing := s.raises
	isRaise := a.Kind.Aggressive() // a preflop bet is never logged, but counts as a raise if seen
	isFold := a.Kind == model.ActionFold

	if !s.decided[a.Player] {
		s.decided[a.Player] = true
		f.VPIP = a.Kind == model.ActionCall || isRaise
	}
	if isRaise && facing == 0 {
		f.OpenRaise = true
	}

	switch facing {
	case 1:
		// The 3-bet spot is judged where action first reaches the player; for
		// the blinds that point is their forced post, before any raise. A blind
		// that re-raises still made a 3-bet and is credited with the spot.
		if (!s.reached[a.Player] || isRaise) && !f.ThreeBetOpp {
			f.ThreeBetOpp = true
			f.ThreeBet = isRaise
		}
	case 2:
		if s.level[a.Player] == 1 && !f.FacedThreeBet {
			f.FacedThreeBet = true
			f.FoldedToThreeBet = isFold
		}
		if !f.FourBetOpp {
			f.FourBetOpp = true
			f.FourBet = isRaise
		}
	case 3:
		if s.level[a.Player] == 2 && !f.FacedFourBet {
			f.FacedFourBet = true
			f.FoldedToFourBet = isFold
		}
		if !f.FiveBetOpp {
			f.FiveBetOpp = true
			f.FiveBet = isRaise
		}
	case 4:
		if s.level[a.Player] == 3 && !f.FacedFiveBet {
			f.FacedFiveBet = true
			f.FoldedToFiveBet = isFold
		}
	}
	s.reached[a.Player] = true

	if isRaise {
		s.raises++
		s.level[a.Player] = s.raises
		s.pfa = a.Player
		s.hasPFA = true
	}
}

func (s *state) flop(a model.Action, f *model.HandFacts) {
	if a.Kind != model.ActionFold && a.Kind != model.ActionCheck && a.Kind != model.ActionCall && !a.Kind.Aggressive() {
		return
	}
	isPFA := s.hasPFA && a.Player == s.pfa

	if !s.flopActed[a.Player] {
		s.flopActed[a.Player] = true
		if isPFA && !s.flopBet {
			f.CBetOpp = true
			f.CBet = a.Kind == model.ActionBet
		}
	}
	if s.cbetOutstanding && !isPFA && !f.FacedCBet {
		f.FacedCBet = true
		f.FoldedToCBet = a.Kind == model.ActionFold
	}

	switch a.Kind {
	case model.ActionBet:
		s.flopBet = true
		if isPFA && f.CBet {
			s.cbetOutstanding = true
		}
	case model.ActionRaise:
		s.flopBet = true
		s.cbetOutstanding = false
	}
}

func (s *state) finish() map[model.PlayerID]model.HandFacts {
	out := make(map[model.PlayerID]model.HandFacts, len(s.facts))
	for id, f := range s.facts {
		foldedOn, folded := s.folded[id]
		sees := func(st model.Street) bool {
			return s.hand.Reached >= st && (!folded || foldedOn >= st)
		}
		f.SawFlop = sees(model.StreetFlop)
		f.SawTurn = sees(model.StreetTurn)
		f.SawRiver = sees(model.StreetRiver)

		f.Won = s.collects[id]
		f.WonAtShowdown = f.WentToShowdown && f.Won
		f.WonWithoutShowdown = f.Won && !s.showdown
		out[id] = *f
	}
	return out
}
