package big2

import (
	"bigtwo-server/pkg/deck"
)

// CombinationType represents the type of card combination.
// Five-card types are declared in ascending beat order.
type CombinationType int

// combination types
const (
	Invalid CombinationType = iota
	Single
	Pair
	Triple
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

func (t CombinationType) isFiveCard() bool {
	return t >= Straight
}

func (t CombinationType) String() string {
	switch t {
	case Single:
		return "single"
	case Pair:
		return "pair"
	case Triple:
		return "triple"
	case Straight:
		return "straight"
	case Flush:
		return "flush"
	case FullHouse:
		return "full house"
	case FourOfAKind:
		return "four of a kind"
	case StraightFlush:
		return "straight flush"
	}

	return "invalid"
}

// Combination is a classified set of cards.
// Value is the power used to break ties between combinations of the same
// type: the strongest card for singles, pairs, triples, straights and
// flushes, and the defining rank for full houses and four of a kinds.
type Combination struct {
	Type  CombinationType
	Value int
}

// Identify classifies cards as a legal Big Two combination.
// The zero Combination (Type == Invalid) is returned for anything else.
func Identify(cards []*deck.Card) Combination {
	sorted := make([]*deck.Card, len(cards))
	copy(sorted, cards)
	Sort(sorted)

	switch len(sorted) {
	case 1:
		return Combination{Type: Single, Value: Power(sorted[0])}
	case 2:
		if sorted[0].Rank == sorted[1].Rank {
			return Combination{Type: Pair, Value: Power(sorted[1])}
		}
	case 3:
		if allSameRank(sorted) {
			return Combination{Type: Triple, Value: Power(sorted[2])}
		}
	case 5:
		return identifyFiveCard(sorted)
	}

	return Combination{}
}

// identifyFiveCard expects exactly five cards sorted ascending by power
func identifyFiveCard(cards []*deck.Card) Combination {
	straight := isStraight(cards)
	flush := isFlush(cards)

	switch {
	case straight && flush:
		return Combination{Type: StraightFlush, Value: Power(cards[4])}
	case quadRank(cards) > 0:
		return Combination{Type: FourOfAKind, Value: quadRank(cards)}
	case tripleRank(cards) > 0:
		return Combination{Type: FullHouse, Value: tripleRank(cards)}
	case flush:
		return Combination{Type: Flush, Value: Power(cards[4])}
	case straight:
		return Combination{Type: Straight, Value: Power(cards[4])}
	}

	return Combination{}
}

func allSameRank(cards []*deck.Card) bool {
	for _, c := range cards {
		if c.Rank != cards[0].Rank {
			return false
		}
	}

	return true
}

// isStraight expects cards sorted ascending by power. A 2 never takes part
// in a straight.
func isStraight(cards []*deck.Card) bool {
	for i, c := range cards {
		if c.Rank == 2 {
			return false
		}

		if i > 0 && c.Rank != cards[i-1].Rank+1 {
			return false
		}
	}

	return true
}

func isFlush(cards []*deck.Card) bool {
	for _, c := range cards {
		if c.Suit != cards[0].Suit {
			return false
		}
	}

	return true
}

// quadRank returns the power of the four-of-a-kind rank, or 0 if the cards
// are not four of a kind plus a kicker. Expects five sorted cards.
func quadRank(cards []*deck.Card) int {
	if cards[0].Rank == cards[3].Rank {
		return Power(cards[3])
	}

	if cards[1].Rank == cards[4].Rank {
		return Power(cards[4])
	}

	return 0
}

// tripleRank returns the power of the rank making up the triple of a full
// house, or 0 if the cards are not a full house. Expects five sorted cards.
func tripleRank(cards []*deck.Card) int {
	if cards[0].Rank == cards[2].Rank && cards[3].Rank == cards[4].Rank {
		return Power(cards[2])
	}

	if cards[0].Rank == cards[1].Rank && cards[2].Rank == cards[4].Rank {
		return Power(cards[4])
	}

	return 0
}
