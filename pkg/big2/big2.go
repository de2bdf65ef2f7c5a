// Package big2 implements the Big Two card ordering and play legality rules.
// All functions are pure; the game orchestrator consumes them through the
// game.Rules interface.
package big2

import (
	"sort"

	"bigtwo-server/pkg/deck"
)

// Rules adapts the package-level functions to the orchestrator's rules
// interface
type Rules struct{}

// Compare calls Compare
func (Rules) Compare(a, b *deck.Card) int { return Compare(a, b) }

// CanPlay calls CanPlay
func (Rules) CanPlay(lead, candidate []*deck.Card) bool { return CanPlay(lead, candidate) }

// Power returns the sortable strength of a card. Ranks order
// 3 < 4 < ... < K < A < 2, ties broken by suit (clubs weakest).
func Power(c *deck.Card) int {
	rank := c.Rank
	if rank == 2 {
		rank = deck.Ace + 1
	}

	var suit int
	switch c.Suit {
	case deck.Clubs:
		suit = 0
	case deck.Diamonds:
		suit = 1
	case deck.Hearts:
		suit = 2
	case deck.Spades:
		suit = 3
	default:
		panic("unknown suit")
	}

	return rank*4 + suit
}

// Compare provides a total order over cards. It returns a negative value if
// a is weaker than b, zero if they are the same card, and a positive value
// otherwise.
func Compare(a, b *deck.Card) int {
	return Power(a) - Power(b)
}

// Sort orders cards ascending by Compare
func Sort(cards []*deck.Card) {
	sort.Slice(cards, func(i, j int) bool {
		return Power(cards[i]) < Power(cards[j])
	})
}

// CanPlay reports whether candidate is a legal play over lead.
// A nil or empty lead means any legal combination may be played.
func CanPlay(lead, candidate []*deck.Card) bool {
	next := Identify(candidate)
	if next.Type == Invalid {
		return false
	}

	if len(lead) == 0 {
		return true
	}

	if len(lead) != len(candidate) {
		return false
	}

	prev := Identify(lead)
	if prev.Type == Invalid {
		// a standing lead is always a previously validated combination
		panic("lead is not a legal combination")
	}

	if next.Type != prev.Type {
		// five-card combinations form a ladder: a stronger category beats a
		// weaker one outright
		return next.Type.isFiveCard() && prev.Type.isFiveCard() && next.Type > prev.Type
	}

	return next.Value > prev.Value
}
