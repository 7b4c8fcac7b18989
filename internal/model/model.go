package model

import "math"

// PlayerID is the per-log stable player token (the part after " @ " in a
// PokerNow player reference). Counters are always keyed by it.
type PlayerID string

// Street identifies which phase of a hand an action belongs to.
type Street int

const (
	StreetPreflop  Street = 0
	StreetFlop     Street = 1
	StreetTurn     Street = 2
	StreetRiver    Street = 3
	StreetShowdown Street = 4
)

func (s Street) String() string {
	switch s {
	case StreetPreflop:
		return "preflop"
	case StreetFlop:
		return "flop"
	case StreetTurn:
		return "turn"
	case StreetRiver:
		return "river"
	case StreetShowdown:
		return "showdown"
	default:
		return "?"
	}
}

// ActionKind is the type of a single table event.
type ActionKind int

const (
	ActionPost ActionKind = iota
	ActionFold
	ActionCheck
	ActionCall
	ActionBet
	ActionRaise
	ActionShow
	ActionCollect
)

func (k ActionKind) String() string {
	switch k {
	case ActionPost:
		return "post"
	case ActionFold:
		return "fold"
	case ActionCheck:
		return "check"
	case ActionCall:
		return "call"
	case ActionBet:
		return "bet"
	case ActionRaise:
		return "raise"
	case ActionShow:
		return "show"
	case ActionCollect:
		return "collect"
	default:
		return "?"
	}
}

// Aggressive reports whether the action is a bet or a raise.
func (k ActionKind) Aggressive() bool {
	return k == ActionBet || k == ActionRaise
}

// Position is a table position label relative to the button.
type Position string

const (
	PosUnknown Position = ""
	PosSB      Position = "SB"
	PosBB      Position = "BB"
	PosUTG     Position = "UTG"
	PosUTG1    Position = "UTG+1"
	PosUTG2    Position = "UTG+2"
	PosLJ      Position = "LJ"
	PosHJ      Position = "HJ"
	PosCO      Position = "CO"
	PosBTN     Position = "BTN"
)

// Positions lists every known position in table order, blinds first.
var Positions = []Position{PosSB, PosBB, PosUTG, PosUTG1, PosUTG2, PosLJ, PosHJ, PosCO, PosBTN}

// ---- Parsed hands ----

// Action is one event inside a hand.
type Action struct {
	Player PlayerID
	Kind   ActionKind
	Street Street
	Index  int // ordinal within the street
	Amount float64
	AllIn  bool
}

// Seat is a player dealt into a hand.
type Seat struct {
	ID       PlayerID
	Name     string
	Seat     int
	Stack    float64
	Position Position
}

// Hand is one played hand reconstructed from a contiguous block of log rows.
type Hand struct {
	ID      string
	Number  int
	Dealer  PlayerID
	Players []Seat
	Actions []Action
	Reached Street // furthest board street dealt
}

// Seat returns the seat for id, if the player was dealt in.
func (h *Hand) Seat(id PlayerID) (Seat, bool) {
	for _, s := range h.Players {
		if s.ID == id {
			return s, true
		}
	}
	return Seat{}, false
}

// ---- Replay output ----

// HandFacts is what one hand says about one player.
type HandFacts struct {
	Name     string
	Position Position

	VPIP      bool
	OpenRaise bool

	ThreeBetOpp      bool
	ThreeBet         bool
	FacedThreeBet    bool
	FoldedToThreeBet bool

	FourBetOpp      bool
	FourBet         bool
	FacedFourBet    bool
	FoldedToFourBet bool

	FiveBetOpp      bool
	FiveBet         bool
	FacedFiveBet    bool
	FoldedToFiveBet bool

	CBetOpp      bool
	CBet         bool
	FacedCBet    bool
	FoldedToCBet bool

	SawFlop  bool
	SawTurn  bool
	SawRiver bool

	WentToShowdown     bool
	WonAtShowdown      bool
	Won                bool // collected any pot
	WonWithoutShowdown bool

	// Postflop aggression inputs.
	Aggressive int
	Calls      int
}

// ---- Aggregated counters ----

// Tally is an (opportunities, qualifying events) pair.
type Tally struct {
	Opportunities int `json:"opportunities"`
	Count         int `json:"count"`
}

func (t *Tally) observe(opp, hit bool) {
	if !opp {
		return
	}
	t.Opportunities++
	if hit {
		t.Count++
	}
}

// Percent returns Count/Opportunities*100 rounded to one decimal; zero
// opportunities report 0.
func (t Tally) Percent() float64 {
	if t.Opportunities == 0 {
		return 0
	}
	return round(float64(t.Count)/float64(t.Opportunities)*100, 1)
}

// Tallies holds one Tally per metric plus the aggression factor inputs.
type Tallies struct {
	VPIP           Tally `json:"vpip"`
	PFR            Tally `json:"pfr"`
	ThreeBet       Tally `json:"three_bet"`
	FoldToThreeBet Tally `json:"fold_to_3bet"`
	FourBet        Tally `json:"four_bet"`
	FoldToFourBet  Tally `json:"fold_to_4bet"`
	FiveBet        Tally `json:"five_bet"`
	FoldToFiveBet  Tally `json:"fold_to_5bet"`
	CBet           Tally `json:"c_bet"`
	FoldToCBet     Tally `json:"fold_to_cbet"`
	WTSD           Tally `json:"wtsd"`
	WSD            Tally `json:"wtsd_won"`
	WWSF           Tally `json:"wwsf"`
	WWSR           Tally `json:"wwsr"`

	Aggressive int `json:"aggression_actions"`
	Calls      int `json:"call_actions"`
}

// Add folds one hand's facts into the tallies.
func (t *Tallies) Add(f HandFacts) {
	t.VPIP.observe(true, f.VPIP)
	t.PFR.observe(true, f.OpenRaise)
	t.ThreeBet.observe(f.ThreeBetOpp, f.ThreeBet)
	t.FoldToThreeBet.observe(f.FacedThreeBet, f.FoldedToThreeBet)
	t.FourBet.observe(f.FourBetOpp, f.FourBet)
	t.FoldToFourBet.observe(f.FacedFourBet, f.FoldedToFourBet)
	t.FiveBet.observe(f.FiveBetOpp, f.FiveBet)
	t.FoldToFiveBet.observe(f.FacedFiveBet, f.FoldedToFiveBet)
	t.CBet.observe(f.CBetOpp, f.CBet)
	t.FoldToCBet.observe(f.FacedCBet, f.FoldedToCBet)
	t.WTSD.observe(true, f.WentToShowdown)
	t.WSD.observe(f.WentToShowdown, f.WonAtShowdown)
	t.WWSF.observe(f.SawFlop, f.Won)
	t.WWSR.observe(true, f.WonWithoutShowdown)
	t.Aggressive += f.Aggressive
	t.Calls += f.Calls
}

// AF returns the postflop aggression factor rounded to two decimals. With no
// calls the ratio is undefined and the aggressive count is returned instead.
func (t Tallies) AF() float64 {
	if t.Calls == 0 {
		return float64(t.Aggressive)
	}
	return round(float64(t.Aggressive)/float64(t.Calls), 2)
}

// Rates converts the tallies to their reported percentages.
func (t Tallies) Rates() Rates {
	return Rates{
		VPIP:           t.VPIP.Percent(),
		PFR:            t.PFR.Percent(),
		ThreeBet:       t.ThreeBet.Percent(),
		FoldToThreeBet: t.FoldToThreeBet.Percent(),
		FourBet:        t.FourBet.Percent(),
		FoldToFourBet:  t.FoldToFourBet.Percent(),
		FiveBet:        t.FiveBet.Percent(),
		FoldToFiveBet:  t.FoldToFiveBet.Percent(),
		CBet:           t.CBet.Percent(),
		FoldToCBet:     t.FoldToCBet.Percent(),
		WTSD:           t.WTSD.Percent(),
		WSD:            t.WSD.Percent(),
		WWSF:           t.WWSF.Percent(),
		WWSR:           t.WWSR.Percent(),
		AF:             t.AF(),
	}
}

// Rates is the point-in-time percentage view of a Tallies.
type Rates struct {
	VPIP           float64 `json:"vpip"`
	PFR            float64 `json:"pfr"`
	ThreeBet       float64 `json:"three_bet"`
	FoldToThreeBet float64 `json:"fold_to_3bet"`
	FourBet        float64 `json:"four_bet"`
	FoldToFourBet  float64 `json:"fold_to_4bet"`
	FiveBet        float64 `json:"five_bet"`
	FoldToFiveBet  float64 `json:"fold_to_5bet"`
	CBet           float64 `json:"c_bet"`
	FoldToCBet     float64 `json:"fold_to_cbet"`
	WTSD           float64 `json:"wtsd"`
	WSD            float64 `json:"wtsd_won"`
	WWSF           float64 `json:"wwsf"`
	WWSR           float64 `json:"wwsr"`
	AF             float64 `json:"af"`
}

// PositionRow is the per-position slice of a player's summary.
type PositionRow struct {
	Hands int `json:"hands"`
	Rates
	Counts Tallies `json:"counts"`
}

// SummaryRow is one reported player.
type SummaryRow struct {
	ID           PlayerID `json:"id"`
	Name         string   `json:"name"` // alias if set, else OriginalName
	OriginalName string   `json:"original_name"`
	Alias        string   `json:"alias,omitempty"`
	Hands        int      `json:"hands"`
	Rates
	Counts    Tallies                  `json:"counts"`
	Positions map[Position]PositionRow `json:"position_stats"`
}

// ---- Identity ----

// PlayerRef is a raw id with its most recently observed name and current alias.
type PlayerRef struct {
	ID           PlayerID `json:"id"`
	OriginalName string   `json:"original_name"`
	Alias        string   `json:"current_alias"`
}

// AliasEntry is one requested id -> alias mapping.
type AliasEntry struct {
	PlayerID PlayerID `json:"player_id"`
	Alias    string   `json:"alias"`
}

// MergeCandidate is one member of a suggested merge group.
type MergeCandidate struct {
	ID         PlayerID `json:"id"`
	Name       string   `json:"name"`
	Similarity float64  `json:"similarity"` // against the group anchor; 1 for the anchor
}

// MergeCandidateGroup is a suggested set of ids that look like one human.
type MergeCandidateGroup struct {
	Target  string           `json:"target_name"`
	Members []MergeCandidate `json:"members"`
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
