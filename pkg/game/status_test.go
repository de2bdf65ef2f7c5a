package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"bigtwo-server/pkg/deck"
)

func TestGame_statusFor(t *testing.T) {
	g, _, _ := newTestGame(t, []string{"a", "b", "c", "d"}, Options{})
	g.seats[0].hand = deck.CardsFromString("9s,3c,5d")
	g.seats[1].hand = deck.CardsFromString("4c,4d")
	g.seats[2].hand = deck.CardsFromString("2s")
	g.seats[3].hand = deck.CardsFromString("")
	g.seats[1].passed = true
	g.seats[3].rank = 1
	g.turn = 2

	status := g.statusFor(g.seats[2])

	a := assert.New(t)
	a.Equal("2s", deck.CardsToString(status.Cards))
	a.Equal(0, status.Rank)
	a.False(status.Passed)
	a.Equal("c", status.PlayerTurn)
	a.Nil(status.LastPlayedPlayer)
	a.Nil(status.LastPlayed)

	// the other seats appear in turn order starting after the viewer, with
	// their hands reduced to a count
	a.Equal([]*SeatStatus{
		{Name: "d", NumCards: 0, Rank: 1, Passed: false},
		{Name: "a", NumCards: 3, Rank: 0, Passed: false},
		{Name: "b", NumCards: 2, Rank: 0, Passed: true},
	}, status.Players)
}

func TestGame_statusFor_withLead(t *testing.T) {
	g, _, _ := newTestGame(t, []string{"a", "b", "c"}, Options{})
	g.seats[0].hand = deck.CardsFromString("3c")
	g.seats[1].hand = deck.CardsFromString("4c")
	g.seats[2].hand = deck.CardsFromString("5c")
	g.lead = deck.CardsFromString("10h")
	g.leadSeat = 1
	g.turn = 2

	status := g.statusFor(g.seats[0])

	assert.Equal(t, "10h", deck.CardsToString(status.LastPlayed))
	if assert.NotNil(t, status.LastPlayedPlayer) {
		assert.Equal(t, "b", *status.LastPlayedPlayer)
	}
	assert.Equal(t, "c", status.PlayerTurn)
}

func TestGame_statusFor_sortsHand(t *testing.T) {
	g, _, _ := newTestGame(t, []string{"a", "b", "c"}, Options{})
	g.seats[0].hand = deck.CardsFromString("2s,3c,14h,3d")
	g.seats[1].hand = deck.CardsFromString("4c")
	g.seats[2].hand = deck.CardsFromString("5c")

	status := g.statusFor(g.seats[0])
	assert.Equal(t, "3c,3d,14h,2s", deck.CardsToString(status.Cards))
}

func TestStatus_jsonShape(t *testing.T) {
	g, _, _ := newTestGame(t, []string{"a", "b", "c"}, Options{})
	g.seats[0].hand = deck.CardsFromString("3c")
	g.seats[1].hand = deck.CardsFromString("4c")
	g.seats[2].hand = deck.CardsFromString("5c")

	encoded, err := json.Marshal(g.statusFor(g.seats[0]))
	assert.NoError(t, err)

	var decoded map[string]interface{}
	assert.NoError(t, json.Unmarshal(encoded, &decoded))

	for _, key := range []string{"cards", "rank", "passed", "players", "lastPlayed", "lastPlayedPlayer", "playerTurn"} {
		assert.Contains(t, decoded, key)
	}
}

func TestGame_broadcastStatus(t *testing.T) {
	g, conns, _ := newTestGame(t, []string{"a", "b", "c"}, Options{})
	g.seats[0].hand = deck.CardsFromString("3c")
	g.seats[1].hand = deck.CardsFromString("4c")
	g.seats[2].hand = deck.CardsFromString("5c")

	g.broadcastStatus()

	for i, c := range conns {
		msgs := c.received(KeyGameStatus)
		if assert.Equal(t, 1, len(msgs)) {
			status := msgs[0].Data.(*Status)
			assert.Equal(t, deck.CardsToString(g.seats[i].hand), deck.CardsToString(status.Cards))
		}
	}
}
