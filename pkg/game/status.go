package game

import (
	"sort"

	"bigtwo-server/pkg/deck"
)

// Status is one seat's view of the game. The seat sees its own full hand;
// every other seat is exposed only as a card count.
type Status struct {
	Cards            []*deck.Card  `json:"cards"`
	Rank             int           `json:"rank"`
	Passed           bool          `json:"passed"`
	Players          []*SeatStatus `json:"players"`
	LastPlayed       []*deck.Card  `json:"lastPlayed"`
	LastPlayedPlayer *string       `json:"lastPlayedPlayer"`
	PlayerTurn       string        `json:"playerTurn"`
}

// SeatStatus describes another seat, with its hand hidden
type SeatStatus struct {
	Name     string `json:"name"`
	NumCards int    `json:"numCards"`
	Rank     int    `json:"rank"`
	Passed   bool   `json:"passed"`
}

// statusFor builds the seat's status view. The seat's hand is sorted in
// place for presentation; play validation never depends on hand order.
// Callers must hold g.mu.
func (g *Game) statusFor(p *Seat) *Status {
	sortCards(g.rules, p.hand)

	// the other seats are listed in turn order starting immediately after
	// this seat, not in absolute seating order
	others := make([]*SeatStatus, 0, len(g.seats)-1)
	for j := 1; j < len(g.seats); j++ {
		other := g.seats[(p.index+j)%len(g.seats)]
		others = append(others, &SeatStatus{
			Name:     other.conn.Name(),
			NumCards: len(other.hand),
			Rank:     other.rank,
			Passed:   other.passed,
		})
	}

	var lastPlayedPlayer *string
	if g.leadSeat != noLead {
		name := g.seats[g.leadSeat].conn.Name()
		lastPlayedPlayer = &name
	}

	return &Status{
		Cards:            p.hand,
		Rank:             p.rank,
		Passed:           p.passed,
		Players:          others,
		LastPlayed:       g.lead,
		LastPlayedPlayer: lastPlayedPlayer,
		PlayerTurn:       g.seats[g.turn].conn.Name(),
	}
}

// broadcastStatus sends every seat its own status view
func (g *Game) broadcastStatus() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, p := range g.seats {
		p.conn.Send(&Message{Key: KeyGameStatus, Data: g.statusFor(p)})
	}
}

// sortCards orders cards ascending by the rules comparator
func sortCards(rules Rules, cards []*deck.Card) {
	sort.Slice(cards, func(i, j int) bool {
		return rules.Compare(cards[i], cards[j]) < 0
	})
}
