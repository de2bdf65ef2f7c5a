package game

import (
	"bigtwo-server/pkg/deck"
)

// seat count limits
const (
	minSeats = 3
	maxSeats = 4
)

// Seat is one participant's slot and state in a single game
type Seat struct {
	index int
	conn  Conn

	hand []*deck.Card

	// rank is 0 while the seat is active, otherwise its finishing place
	rank int

	// passed is true once the seat declines to act in the current round.
	// It is cleared when the round ends.
	passed bool

	// disconnected is sticky: the seat is permanently skipped once set,
	// but its hand and rank are otherwise untouched
	disconnected bool

	// pending is installed only while the seat's turn is suspended
	pending *pendingTurn
}

// pendingTurn is the single-slot synchronization point for a suspended
// turn. Exactly one of the two channels resolves the wait: an action
// submission, or a disconnect cancellation.
type pendingTurn struct {
	action chan []*deck.Card
	cancel chan struct{}
}

func newSeat(index int, conn Conn) *Seat {
	return &Seat{
		index: index,
		conn:  conn,
	}
}

// hasCard returns true if the seat's hand holds the card
func (p *Seat) hasCard(card *deck.Card) bool {
	for _, c := range p.hand {
		if c.Equal(card) {
			return true
		}
	}

	return false
}

// removeCards drops the played cards from the seat's hand
func (p *Seat) removeCards(cards []*deck.Card) {
	hand := make([]*deck.Card, 0, len(p.hand))
	for _, c := range p.hand {
		played := false
		for _, pc := range cards {
			if c.Equal(pc) {
				played = true
				break
			}
		}

		if !played {
			hand = append(hand, c)
		}
	}

	p.hand = hand
}
