package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pable/go-poker-stats/internal/model"
)

var (
	startRe  = regexp.MustCompile(`^-- starting hand #(\d+)`)
	handIDRe = regexp.MustCompile(`\(id: ([^)\s]+)\)`)
	dealerRe = regexp.MustCompile(`\(dealer: "(.*) @ ([^"\s]+)"\)`)
	endRe    = regexp.MustCompile(`^-- ending hand #(\d+)`)
	seatRe   = regexp.MustCompile(`#(\d+) "(.*?) @ ([^"\s]+)" \(([\d.]+)\)`)
	actorRe  = regexp.MustCompile(`^"(.*) @ ([^"\s]+)" (.+)$`)
	streetRe = regexp.MustCompile(`^(Flop|Turn|River)\b`)

	postRe    = regexp.MustCompile(`^posts an? .*?of ([\d.]+)`)
	callRe    = regexp.MustCompile(`^calls ([\d.]+)`)
	betRe     = regexp.MustCompile(`^bets ([\d.]+)`)
	raiseRe   = regexp.MustCompile(`^raises to ([\d.]+)`)
	collectRe = regexp.MustCompile(`^collected ([\d.]+) from pot( with .*)?`)
)

const stacksPrefix = "Player stacks: "

// row is one CSV record after header resolution.
type row struct {
	line  int
	entry string
	order int64
}

// ParseFile opens the log at path and parses it. The file's base name is used
// in error reports.
func ParseFile(path string) ([]model.Hand, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()
	return Parse(filepath.Base(path), f)
}

// Parse converts one PokerNow CSV export into hands in chronological order.
// Rows that match no known grammar are skipped.
func Parse(name string, r io.Reader) ([]model.Hand, error) {
	rows, err := readRows(name, r)
	if err != nil {
		return nil, err
	}

	p := &logParser{file: name}
	for _, rw := range rows {
		if err := p.consume(rw); err != nil {
			return nil, err
		}
	}
	// An open hand at end of input is an incomplete export; drop it.
	if len(p.hands) == 0 {
		return nil, &EmptyLogError{File: name}
	}
	return p.hands, nil
}

func readRows(name string, r io.Reader) ([]row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &EmptyLogError{File: name}
	}
	if err != nil {
		return nil, &MalformedLogError{File: name, Row: 1, Reason: fmt.Sprintf("unreadable header: %v", err)}
	}
	entryCol, orderCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "entry":
			entryCol = i
		case "order":
			orderCol = i
		}
	}
	if entryCol < 0 {
		return nil, &MalformedLogError{File: name, Row: 1, Reason: "missing entry column"}
	}

	var rows []row
	ordered := orderCol >= 0
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &MalformedLogError{File: name, Row: line, Reason: err.Error()}
		}
		if entryCol >= len(rec) {
			continue
		}
		rw := row{line: line, entry: strings.TrimSpace(rec[entryCol])}
		if ordered {
			if orderCol >= len(rec) {
				ordered = false
			} else if n, err := strconv.ParseInt(strings.TrimSpace(rec[orderCol]), 10, 64); err == nil {
				rw.order = n
			} else {
				ordered = false
			}
		}
		rows = append(rows, rw)
	}

	// PokerNow exports newest first; the order column restores chronology.
	if ordered {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].order < rows[j].order })
	}
	return rows, nil
}

// logParser is the row-by-row hand boundary state machine.
type logParser struct {
	file    string
	hands   []model.Hand
	cur     *handBuilder
	started bool
}

type handBuilder struct {
	hand      model.Hand
	seated    map[model.PlayerID]bool
	hasStacks bool
	street    model.Street
	showdown  bool
	perStreet map[model.Street]int
}

func (p *logParser) malformed(line int, format string, args ...any) error {
	return &MalformedLogError{File: p.file, Row: line, Reason: fmt.Sprintf(format, args...)}
}

func (p *logParser) consume(rw row) error {
	e := rw.entry
	if m := startRe.FindStringSubmatch(e); m != nil {
		if p.cur != nil {
			return p.malformed(rw.line, "hand #%s started before hand #%d ended", m[1], p.cur.hand.Number)
		}
		p.started = true
		p.cur = newHandBuilder(m[1], e)
		return nil
	}
	if m := endRe.FindStringSubmatch(e); m != nil {
		if p.cur == nil {
			if !p.started {
				return nil // tail of a hand whose start was not exported
			}
			return p.malformed(rw.line, "hand #%s ended but was never started", m[1])
		}
		if n, _ := strconv.Atoi(m[1]); n != p.cur.hand.Number {
			return p.malformed(rw.line, "hand #%s ended while hand #%d was open", m[1], p.cur.hand.Number)
		}
		return p.finish()
	}
	if p.cur == nil {
		return nil
	}
	return p.cur.apply(p, rw)
}

func newHandBuilder(number, entry string) *handBuilder {
	n, _ := strconv.Atoi(number)
	b := &handBuilder{
		hand:      model.Hand{Number: n, ID: "#" + number},
		seated:    make(map[model.PlayerID]bool),
		perStreet: make(map[model.Street]int),
	}
	if m := handIDRe.FindStringSubmatch(entry); m != nil {
		b.hand.ID = m[1]
	}
	if m := dealerRe.FindStringSubmatch(entry); m != nil {
		b.hand.Dealer = model.PlayerID(m[2])
	}
	return b
}

func (p *logParser) finish() error {
	b := p.cur
	p.cur = nil
	if !b.hasStacks {
		// Seatless hands carry no actions (apply rejects those); nothing to keep.
		return nil
	}
	assignPositions(&b.hand)
	p.hands = append(p.hands, b.hand)
	return nil
}

func (b *handBuilder) apply(p *logParser, rw row) error {
	e := rw.entry
	if strings.HasPrefix(e, stacksPrefix) {
		if b.hasStacks {
			return nil
		}
		matches := seatRe.FindAllStringSubmatch(e[len(stacksPrefix):], -1)
		if len(matches) == 0 {
			return p.malformed(rw.line, "unreadable seat assignment in hand #%d", b.hand.Number)
		}
		for _, m := range matches {
			seat, _ := strconv.Atoi(m[1])
			stack, _ := strconv.ParseFloat(m[4], 64)
			id := model.PlayerID(m[3])
			if b.seated[id] {
				return p.malformed(rw.line, "player %s seated twice in hand #%d", id, b.hand.Number)
			}
			b.seated[id] = true
			b.hand.Players = append(b.hand.Players, model.Seat{ID: id, Name: m[2], Seat: seat, Stack: stack})
		}
		b.hasStacks = true
		return nil
	}
	if m := streetRe.FindStringSubmatch(e); m != nil {
		st := streetFromWord(m[1])
		if st > b.hand.Reached {
			b.hand.Reached = st
		}
		if !b.showdown && st > b.street {
			b.street = st
		}
		return nil
	}
	m := actorRe.FindStringSubmatch(e)
	if m == nil {
		return nil
	}
	kind, amount, ok := parseVerb(m[3])
	if !ok {
		return nil
	}
	id := model.PlayerID(m[2])
	if !b.hasStacks {
		return p.malformed(rw.line, "action by %s before seat assignment in hand #%d", id, b.hand.Number)
	}
	if !b.seated[id] {
		return p.malformed(rw.line, "player %s acted in hand #%d but is not seated", id, b.hand.Number)
	}

	switch {
	case kind == model.ActionShow:
		b.showdown = true
	case kind == model.ActionCollect && collectRe.FindStringSubmatch(m[3])[2] != "":
		b.showdown = true
	}
	street := b.street
	if b.showdown {
		street = model.StreetShowdown
	}
	b.hand.Actions = append(b.hand.Actions, model.Action{
		Player: id,
		Kind:   kind,
		Street: street,
		Index:  b.perStreet[street],
		Amount: amount,
		AllIn:  strings.Contains(m[3], "all in"),
	})
	b.perStreet[street]++
	return nil
}

func parseVerb(rest string) (model.ActionKind, float64, bool) {
	amountOf := func(re *regexp.Regexp) (float64, bool) {
		m := re.FindStringSubmatch(rest)
		if m == nil {
			return 0, false
		}
		v, err := strconv.ParseFloat(m[1], 64)
		return v, err == nil
	}
	switch {
	case strings.HasPrefix(rest, "posts "):
		v, ok := amountOf(postRe)
		return model.ActionPost, v, ok
	case strings.HasPrefix(rest, "folds"):
		return model.ActionFold, 0, true
	case strings.HasPrefix(rest, "checks"):
		return model.ActionCheck, 0, true
	case strings.HasPrefix(rest, "calls "):
		v, ok := amountOf(callRe)
		return model.ActionCall, v, ok
	case strings.HasPrefix(rest, "bets "):
		v, ok := amountOf(betRe)
		return model.ActionBet, v, ok
	case strings.HasPrefix(rest, "raises to "):
		v, ok := amountOf(raiseRe)
		return model.ActionRaise, v, ok
	case strings.HasPrefix(rest, "shows "):
		return model.ActionShow, 0, true
	case strings.HasPrefix(rest, "collected "):
		v, ok := amountOf(collectRe)
		return model.ActionCollect, v, ok
	}
	return 0, 0, false
}

func streetFromWord(w string) model.Street {
	switch w {
	case "Flop":
		return model.StreetFlop
	case "Turn":
		return model.StreetTurn
	default:
		return model.StreetRiver
	}
}

// middlePositions are the labels between the big blind and the cutoff; a table
// with k middle seats uses UTG plus the last k-1 of these.
var middlePositions = []model.Position{model.PosUTG1, model.PosUTG2, model.PosLJ, model.PosHJ, model.PosCO}

// assignPositions labels each seat relative to the dealer. Without a seated
// dealer positions stay unknown.
func assignPositions(h *model.Hand) {
	sort.SliceStable(h.Players, func(i, j int) bool { return h.Players[i].Seat < h.Players[j].Seat })
	n := len(h.Players)
	d := -1
	for i, s := range h.Players {
		if s.ID == h.Dealer {
			d = i
			break
		}
	}
	if d < 0 || n < 2 {
		return
	}
	at := func(offset int) *model.Seat { return &h.Players[(d+offset)%n] }

	at(0).Position = model.PosBTN
	if n == 2 {
		at(1).Position = model.PosBB
		return
	}
	at(1).Position = model.PosSB
	at(2).Position = model.PosBB

	k := n - 3
	for i := 0; i < k; i++ {
		s := at(3 + i)
		// Seats beyond what the labels cover collapse into UTG.
		fromEnd := k - i
		if fromEnd > len(middlePositions) || i == 0 {
			s.Position = model.PosUTG
			continue
		}
		s.Position = middlePositions[len(middlePositions)-fromEnd]
	}
}
