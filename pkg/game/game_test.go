package game

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"bigtwo-server/pkg/big2"
	"bigtwo-server/pkg/deck"
)

type testConn struct {
	name string

	mu         sync.Mutex
	messages   []*Message
	terminated []string
}

func (c *testConn) Name() string {
	return c.name
}

func (c *testConn) Send(msg *Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
	return true
}

func (c *testConn) Terminate(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.terminated = append(c.terminated, reason)
}

func (c *testConn) received(key string) []*Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	msgs := make([]*Message, 0)
	for _, msg := range c.messages {
		if msg.Key == key {
			msgs = append(msgs, msg)
		}
	}

	return msgs
}

type testTable struct {
	mu         sync.Mutex
	broadcasts []*Message
	ended      chan struct{}
}

func newTestTable() *testTable {
	return &testTable{
		ended: make(chan struct{}),
	}
}

func (t *testTable) Broadcast(msg *Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.broadcasts = append(t.broadcasts, msg)
}

func (t *testTable) GameEnded() {
	close(t.ended)
}

func newTestGame(t *testing.T, names []string, opts Options) (*Game, []*testConn, *testTable) {
	t.Helper()

	conns := make([]Conn, len(names))
	testConns := make([]*testConn, len(names))
	for i, name := range names {
		tc := &testConn{name: name}
		testConns[i] = tc
		conns[i] = tc
	}

	table := newTestTable()
	g, err := NewGame(logrus.StandardLogger(), table, big2.Rules{}, conns, opts)
	assert.NoError(t, err)

	return g, testConns, table
}

func TestNewGame_seatCount(t *testing.T) {
	table := newTestTable()

	conns := func(n int) []Conn {
		c := make([]Conn, n)
		for i := range c {
			c[i] = &testConn{name: "player"}
		}
		return c
	}

	g, err := NewGame(logrus.StandardLogger(), table, big2.Rules{}, conns(2), Options{})
	assert.Nil(t, g)
	assert.EqualError(t, err, "expected 3–4 seats, got 2")

	g, err = NewGame(logrus.StandardLogger(), table, big2.Rules{}, conns(5), Options{})
	assert.Nil(t, g)
	assert.EqualError(t, err, "expected 3–4 seats, got 5")

	g, err = NewGame(logrus.StandardLogger(), table, big2.Rules{}, conns(3), Options{})
	assert.NoError(t, err)
	assert.NotNil(t, g)
}

func TestGame_deal_threeSeats(t *testing.T) {
	g, _, _ := newTestGame(t, []string{"alpha", "beta", "gamma"}, Options{Seed: 1})
	g.deal()

	// 52 cards do not divide by three; the starting seat absorbs the
	// undealt card
	start := g.seats[g.turn]
	assert.True(t, start.hasCard(startingCard))
	assert.Equal(t, 18, len(start.hand))

	total := 0
	seen := make(map[string]bool)
	for _, p := range g.seats {
		if p != start {
			assert.Equal(t, 17, len(p.hand))
		}

		total += len(p.hand)
		for _, card := range p.hand {
			seen[deck.CardToString(card)] = true
		}
	}

	assert.Equal(t, deck.Size, total)
	assert.Equal(t, deck.Size, len(seen))
}

func TestGame_deal_fourSeats(t *testing.T) {
	g, _, _ := newTestGame(t, []string{"a", "b", "c", "d"}, Options{Seed: 2})
	g.deal()

	seen := make(map[string]bool)
	for _, p := range g.seats {
		assert.Equal(t, 13, len(p.hand))
		for _, card := range p.hand {
			seen[deck.CardToString(card)] = true
		}
	}

	assert.Equal(t, deck.Size, len(seen))
	assert.True(t, g.seats[g.turn].hasCard(startingCard))
}

func TestGame_deal_deterministicWithSeed(t *testing.T) {
	a, _, _ := newTestGame(t, []string{"a", "b", "c", "d"}, Options{Seed: 99})
	a.deal()

	b, _, _ := newTestGame(t, []string{"a", "b", "c", "d"}, Options{Seed: 99})
	b.deal()

	for i := range a.seats {
		assert.Equal(t,
			deck.CardsToString(a.seats[i].hand),
			deck.CardsToString(b.seats[i].hand),
		)
	}
	assert.Equal(t, a.turn, b.turn)
}

func TestGame_validatePlay(t *testing.T) {
	g, _, _ := newTestGame(t, []string{"a", "b", "c"}, Options{})
	p := g.seats[0]
	p.hand = deck.CardsFromString("3c,5d,5h,9s,2s")

	a := assert.New(t)

	a.Equal(ErrNoCards, g.validatePlay(p, []*deck.Card{}))
	a.Equal(ErrCardNotInHand, g.validatePlay(p, deck.CardsFromString("4c")))
	a.NoError(g.validatePlay(p, deck.CardsFromString("3c")))
	a.NoError(g.validatePlay(p, deck.CardsFromString("5d,5h")))

	// not a legal combination
	a.Equal(ErrCannotPlay, g.validatePlay(p, deck.CardsFromString("5d,9s")))

	// strictly ascending submission order is required, which also rejects
	// a duplicated card
	a.Equal(ErrNotAscending, g.validatePlay(p, deck.CardsFromString("5h,5d")))
	a.Equal(ErrNotAscending, g.validatePlay(p, deck.CardsFromString("5d,5d")))

	// a play that does not beat the lead
	g.lead = deck.CardsFromString("2c")
	g.leadSeat = 1
	a.Equal(ErrCannotPlay, g.validatePlay(p, deck.CardsFromString("9s")))
	a.NoError(g.validatePlay(p, deck.CardsFromString("2s")))
	a.Equal(ErrCannotPlay, g.validatePlay(p, deck.CardsFromString("5d,5h")))
}

func TestGame_applyAction(t *testing.T) {
	g, conns, _ := newTestGame(t, []string{"a", "b", "c"}, Options{})
	p := g.seats[0]
	p.hand = deck.CardsFromString("3c,5d,9s")

	// a nil cards slice is a pass
	g.applyAction(p, nil)
	assert.True(t, p.passed)
	assert.Nil(t, g.lead)
	assert.Equal(t, noLead, g.leadSeat)

	// a play takes the lead and shrinks the hand
	p.passed = false
	g.applyAction(p, deck.CardsFromString("3c"))
	assert.Equal(t, "3c", deck.CardsToString(g.lead))
	assert.Equal(t, 0, g.leadSeat)
	assert.Equal(t, "5d,9s", deck.CardsToString(p.hand))
	assert.Equal(t, 0, p.rank)

	// an illegal play terminates the connection and leaves all state alone
	g.applyAction(p, deck.CardsFromString("4c"))
	assert.Equal(t, []string{"illegal play"}, conns[0].terminated)
	assert.Equal(t, "3c", deck.CardsToString(g.lead))
	assert.Equal(t, "5d,9s", deck.CardsToString(p.hand))
	assert.False(t, p.passed)
}

func TestGame_applyAction_finishingPlay(t *testing.T) {
	g, _, _ := newTestGame(t, []string{"a", "b", "c"}, Options{})
	p := g.seats[1]
	p.hand = deck.CardsFromString("9s")

	g.applyAction(p, deck.CardsFromString("9s"))
	assert.Equal(t, 1, p.rank)
	assert.Equal(t, 0, len(p.hand))
	assert.Equal(t, 1, g.leadSeat)
	assert.Equal(t, "9s", deck.CardsToString(g.lead))
}

func TestGame_playRound_resetsRoundState(t *testing.T) {
	g, _, _ := newTestGame(t, []string{"a", "b", "c"}, Options{})
	for _, p := range g.seats {
		p.hand = deck.CardsFromString("9s")
		p.passed = true
	}
	g.lead = deck.CardsFromString("3c")
	g.leadSeat = noLead
	g.turn = 0

	// every seat has passed and no one holds the lead, so the round ends
	// without waiting on anyone
	g.playRound()

	assert.Nil(t, g.lead)
	assert.Equal(t, noLead, g.leadSeat)
	for _, p := range g.seats {
		assert.False(t, p.passed)
	}
}

func TestGame_playRound_skipsFinishedAndDisconnected(t *testing.T) {
	g, _, _ := newTestGame(t, []string{"a", "b", "c", "d"}, Options{})
	g.seats[0].hand = deck.CardsFromString("3c,9s")
	g.seats[1].hand = deck.CardsFromString("")
	g.seats[1].rank = 1
	g.seats[2].hand = deck.CardsFromString("4c")
	g.seats[2].disconnected = true
	g.seats[3].hand = deck.CardsFromString("5c,6c")
	g.turn = 0

	done := make(chan struct{})
	go func() {
		g.playRound()
		close(done)
	}()

	var p *Seat
	for i := 0; i < 5000; i++ {
		p, _, _ = findSuspended(g)
		if p != nil {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if p == nil {
		t.Fatal("no turn was suspended")
	}
	assert.Equal(t, 0, p.index)

	// seat 0 takes the lead
	g.SubmitAction(p.conn, deck.CardsFromString("3c"))

	// seats 1 and 2 are skipped outright; seat 3 is asked next
	var next *Seat
	for i := 0; i < 5000; i++ {
		next, _, _ = findSuspended(g)
		if next != nil && next != p {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if next == nil {
		t.Fatal("turn never moved on")
	}
	assert.Equal(t, 3, next.index)

	g.mu.Lock()
	assert.Equal(t, "3c", deck.CardsToString(g.lead))
	assert.Equal(t, 0, g.leadSeat)
	g.mu.Unlock()

	// seat 3 passes; the cycle returns to the lead seat and the round ends
	g.SubmitAction(next.conn, nil)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("round did not end")
	}

	assert.Nil(t, g.lead)
	assert.Equal(t, noLead, g.leadSeat)
	for _, p := range g.seats {
		assert.False(t, p.passed)
	}
}

func TestGame_submitAction_withoutSuspendedTurn(t *testing.T) {
	g, conns, _ := newTestGame(t, []string{"a", "b", "c"}, Options{})

	// no turn is suspended, so the submission is dropped without a trace
	g.SubmitAction(conns[0], nil)
	for _, p := range g.seats {
		assert.False(t, p.passed)
	}

	// unknown connections are dropped too
	g.SubmitAction(&testConn{name: "stranger"}, nil)
}

// findSuspended returns the seat whose turn is currently suspended along
// with a snapshot of its hand and the lead, or nil
func findSuspended(g *Game) (*Seat, []*deck.Card, []*deck.Card) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, p := range g.seats {
		if p.pending != nil {
			hand := append([]*deck.Card{}, p.hand...)
			lead := append([]*deck.Card{}, g.lead...)
			return p, hand, lead
		}
	}

	return nil, nil, nil
}

// lowestSingle picks the weakest single that beats the lead, or nil to pass
func lowestSingle(lead, hand []*deck.Card) []*deck.Card {
	sorted := append([]*deck.Card{}, hand...)
	big2.Sort(sorted)

	if len(lead) == 0 {
		return sorted[:1]
	}

	if len(lead) != 1 {
		return nil
	}

	for _, c := range sorted {
		if big2.Compare(c, lead[0]) > 0 {
			return []*deck.Card{c}
		}
	}

	return nil
}

// driveGame plays every suspended turn with the lowest winning single until
// the game completes
func driveGame(g *Game) {
	for {
		select {
		case <-g.Done():
			return
		default:
		}

		p, hand, lead := findSuspended(g)
		if p == nil {
			time.Sleep(time.Millisecond)
			continue
		}

		g.SubmitAction(p.conn, lowestSingle(lead, hand))
	}
}

func waitForGame(t *testing.T, g *Game) {
	t.Helper()

	select {
	case <-g.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("game did not complete")
	}
}

func TestGame_fullGame(t *testing.T) {
	for _, n := range []int{3, 4} {
		names := []string{"alice", "bob", "carol", "dave"}[:n]
		g, conns, table := newTestGame(t, names, Options{
			Seed:         3,
			EndGameDelay: 10 * time.Millisecond,
		})

		go g.Run()
		driveGame(g)
		waitForGame(t, g)

		// every rank from 1 to n is assigned exactly once
		ranks := make(map[int]int)
		for i, p := range g.seats {
			ranks[p.rank] = i
		}
		assert.Equal(t, n, len(ranks))
		for rank := 1; rank <= n; rank++ {
			assert.Contains(t, ranks, rank)
		}

		// the last-place seat never emptied its hand
		assert.NotEmpty(t, g.seats[ranks[n]].hand)
		for rank := 1; rank < n; rank++ {
			assert.Empty(t, g.seats[ranks[rank]].hand)
		}

		// every seat got the start signal exactly once and at least one
		// status view
		for _, c := range conns {
			assert.Equal(t, 1, len(c.received(KeyStartGame)))
			assert.NotEmpty(t, c.received(KeyGameStatus))
			assert.Empty(t, c.terminated)
		}

		// the end signal goes out after the delay, then the table releases
		// the game
		select {
		case <-table.ended:
		case <-time.After(5 * time.Second):
			t.Fatal("table was never released")
		}

		table.mu.Lock()
		assert.Equal(t, 1, len(table.broadcasts))
		assert.Equal(t, KeyEndGame, table.broadcasts[0].Key)
		table.mu.Unlock()
	}
}

func TestGame_suspendedTurnReleasedByAction(t *testing.T) {
	g, conns, _ := newTestGame(t, []string{"a", "b", "c"}, Options{Seed: 4})

	go g.Run()

	var p *Seat
	for i := 0; i < 5000; i++ {
		p, _, _ = findSuspended(g)
		if p != nil {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if p == nil {
		t.Fatal("no turn was suspended")
	}

	// the first suspended turn belongs to the starting seat
	assert.True(t, p.hasCard(startingCard))

	g.SubmitAction(p.conn, nil)

	// the pass lands and the next seat's turn suspends
	var next *Seat
	for i := 0; i < 5000; i++ {
		next, _, _ = findSuspended(g)
		if next != nil && next != p {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if next == nil || next == p {
		t.Fatal("turn never moved on")
	}

	g.mu.Lock()
	assert.True(t, p.passed)
	assert.Equal(t, (p.index+1)%3, next.index)
	g.mu.Unlock()

	// wind the game down
	for _, c := range conns {
		g.HandleDisconnect(c)
	}
	waitForGame(t, g)
}

func TestGame_suspendedTurnReleasedByDisconnect(t *testing.T) {
	g, _, _ := newTestGame(t, []string{"a", "b", "c"}, Options{Seed: 5})

	go g.Run()

	var p *Seat
	for i := 0; i < 5000; i++ {
		p, _, _ = findSuspended(g)
		if p != nil {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if p == nil {
		t.Fatal("no turn was suspended")
	}

	g.HandleDisconnect(p.conn)

	// the wait resolves without an action and the turn moves past the
	// disconnected seat
	var next *Seat
	for i := 0; i < 5000; i++ {
		next, _, _ = findSuspended(g)
		if next != nil && next != p {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if next == nil || next == p {
		t.Fatal("turn never moved past the disconnected seat")
	}

	g.mu.Lock()
	assert.True(t, p.disconnected)
	assert.False(t, p.passed)
	assert.Equal(t, 0, p.rank)
	g.mu.Unlock()

	driveGame(g)
	waitForGame(t, g)

	// the disconnected seat is out of the running but keeps its hand
	g.mu.Lock()
	assert.Equal(t, 0, p.rank)
	assert.NotEmpty(t, p.hand)
	g.mu.Unlock()
}

func TestGame_lastSurvivorGetsFinalRank(t *testing.T) {
	g, conns, table := newTestGame(t, []string{"a", "b", "c"}, Options{
		Seed:         6,
		EndGameDelay: 10 * time.Millisecond,
	})

	go g.Run()

	// two seats drop before anyone finishes
	g.HandleDisconnect(conns[0])
	g.HandleDisconnect(conns[1])

	waitForGame(t, g)

	assert.Equal(t, 1, g.seats[2].rank)
	assert.Equal(t, 0, g.seats[0].rank)
	assert.Equal(t, 0, g.seats[1].rank)

	select {
	case <-table.ended:
	case <-time.After(5 * time.Second):
		t.Fatal("table was never released")
	}
}

func TestGame_illegalPlayTerminatesConnection(t *testing.T) {
	g, _, _ := newTestGame(t, []string{"a", "b", "c"}, Options{Seed: 7})

	go g.Run()

	var p *Seat
	for i := 0; i < 5000; i++ {
		p, _, _ = findSuspended(g)
		if p != nil {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if p == nil {
		t.Fatal("no turn was suspended")
	}

	// no hand holds the same card twice
	g.SubmitAction(p.conn, deck.CardsFromString("3c,3c"))

	tc := p.conn.(*testConn)
	for i := 0; i < 5000; i++ {
		tc.mu.Lock()
		n := len(tc.terminated)
		tc.mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	tc.mu.Lock()
	assert.Equal(t, []string{"illegal play"}, tc.terminated)
	tc.mu.Unlock()

	// the transport follows a terminate with a disconnect
	g.HandleDisconnect(p.conn)
	driveGame(g)
	waitForGame(t, g)
}

func TestGame_resync(t *testing.T) {
	g, conns, _ := newTestGame(t, []string{"a", "b", "c"}, Options{Seed: 8})
	g.deal()
	handSize := len(g.seats[1].hand)

	g.Resync(conns[1])

	msgs := conns[1].messages
	assert.Equal(t, 2, len(msgs))
	assert.Equal(t, KeyStartGame, msgs[0].Key)
	assert.Equal(t, KeyGameStatus, msgs[1].Key)

	status, ok := msgs[1].Data.(*Status)
	assert.True(t, ok)
	assert.Equal(t, handSize, len(status.Cards))
	assert.Equal(t, 2, len(status.Players))
	assert.Nil(t, status.LastPlayedPlayer)

	// an unknown connection is ignored
	g.Resync(&testConn{name: "stranger"})
}
