// Package game runs a single Big Two game to completion: the deal, the
// round-robin turn loop, validation of submitted plays, win-rank
// assignment, and disconnect handling. The card ordering and play legality
// rules are consumed through the Rules interface, and the transport through
// the Conn and Table interfaces.
package game

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"bigtwo-server/pkg/deck"
)

// message keys for outbound signals
const (
	KeyStartGame  = "startGame"
	KeyGameStatus = "gameStatus"
	KeyEndGame    = "endGame"
)

// noLead is the leadSeat sentinel for a round in which no one has played yet
const noLead = -1

// Message is a named outbound signal sent to one or all seats
type Message struct {
	Key  string      `json:"key"`
	Data interface{} `json:"data,omitempty"`
}

// Rules decides card ordering and play legality. Implementations must be
// pure; the orchestrator calls them with no locks of its own held by the
// caller.
type Rules interface {
	// Compare provides a total order over cards. Negative means a is
	// weaker than b.
	Compare(a, b *deck.Card) int

	// CanPlay reports whether candidate may legally be played over lead.
	// A nil lead means any legal combination is accepted.
	CanPlay(lead, candidate []*deck.Card) bool
}

// Conn is one seat's connection into the game
type Conn interface {
	// Name identifies the seat's player in status views
	Name() string

	// Send delivers a message to the seat's client. It must not block;
	// false is returned if the message was dropped.
	Send(msg *Message) bool

	// Terminate forcibly closes the connection. The transport is expected
	// to follow up with a disconnect notification.
	Terminate(reason string)
}

// Table is the room-side contract the game reports back to
type Table interface {
	// Broadcast sends a message to every connection in the room
	Broadcast(msg *Message)

	// GameEnded is called once, after the post-game delay, when the room
	// may release the game
	GameEnded()
}

// Options configures a game
type Options struct {
	// EndGameDelay is how long to wait after the final status broadcast
	// before the endGame signal is sent and the room is released
	EndGameDelay time.Duration

	// Seed overrides the shuffle seed. Leave 0 outside of tests.
	Seed int64
}

// startingCard is dealt to the seat that leads the first round
var startingCard = &deck.Card{Rank: 3, Suit: deck.Clubs}

// Game orchestrates one Big Two game for a fixed set of seats
type Game struct {
	logger logrus.FieldLogger
	rules  Rules
	table  Table
	opts   Options

	// mu guards the seats and the lead/turn state below. The run loop is
	// strictly sequential; the only concurrent mutators are SubmitAction,
	// HandleDisconnect and Resync arriving from connection goroutines.
	mu            sync.Mutex
	seats         []*Seat
	lead          []*deck.Card
	leadSeat      int
	turn          int
	finishedCount int

	done chan struct{}
}

// NewGame returns a game for the given connections, one seat per
// connection, seated in the order provided
func NewGame(logger logrus.FieldLogger, table Table, rules Rules, conns []Conn, opts Options) (*Game, error) {
	if len(conns) < minSeats || len(conns) > maxSeats {
		return nil, SeatCountError{Got: len(conns)}
	}

	seats := make([]*Seat, len(conns))
	for i, conn := range conns {
		seats[i] = newSeat(i, conn)
	}

	return &Game{
		logger:   logger,
		rules:    rules,
		table:    table,
		opts:     opts,
		seats:    seats,
		leadSeat: noLead,
		done:     make(chan struct{}),
	}, nil
}

// Run plays the game to completion and schedules the teardown. It blocks
// until the last rank is assigned, so it is normally run on its own
// goroutine.
func (g *Game) Run() {
	g.mu.Lock()
	g.deal()
	for _, p := range g.seats {
		p.conn.Send(&Message{Key: KeyStartGame})
	}
	g.mu.Unlock()

	for {
		g.mu.Lock()
		left := g.eligibleSeats()
		if len(left) < 2 {
			// the game is decided. Whoever is left gets last place, even
			// though they never emptied their hand.
			if len(left) == 1 {
				g.finishedCount++
				left[0].rank = g.finishedCount
			}
			g.mu.Unlock()
			break
		}
		g.mu.Unlock()

		g.playRound()
	}

	g.broadcastStatus()
	g.logger.Debug("game over")

	time.AfterFunc(g.opts.EndGameDelay, func() {
		g.table.Broadcast(&Message{Key: KeyEndGame})
		g.table.GameEnded()
	})

	close(g.done)
}

// Done is closed once the final rank has been assigned
func (g *Game) Done() <-chan struct{} {
	return g.done
}

// deal shuffles a fresh deck and partitions it into hands. The seat holding
// the starting card leads; with three seats the single undealt card goes to
// that seat. Callers must hold g.mu.
func (g *Game) deal() {
	d := deck.New()
	if g.opts.Seed != 0 {
		d.SetSeed(g.opts.Seed)
	}
	d.Shuffle()

	handSize := deck.Size / len(g.seats)
	for i, p := range g.seats {
		p.hand = append([]*deck.Card{}, d.Cards[i*handSize:(i+1)*handSize]...)
	}

	start := 0
	for i, p := range g.seats {
		if p.hasCard(startingCard) {
			start = i
			break
		}
	}

	if handSize*len(g.seats) == deck.Size-1 {
		g.seats[start].hand = append(g.seats[start].hand, d.Cards[deck.Size-1])
	}

	g.turn = start
	g.logger.WithFields(logrus.Fields{
		"seed":  d.Seed(),
		"start": g.seats[start].conn.Name(),
	}).Debug("cards dealt")
}

// playRound cycles through the seats until the lead comes back around to
// its owner unbeaten, or a seat goes out
func (g *Game) playRound() {
	for {
		g.mu.Lock()
		if g.turn == g.leadSeat {
			g.mu.Unlock()
			break
		}

		p := g.seats[g.turn]
		if p.rank > 0 || p.disconnected || p.passed {
			if g.leadSeat == noLead && !g.hasActionableSeat() {
				// every seat passed or dropped before anyone took the
				// lead; there is no lead seat for the cycle to return to
				g.mu.Unlock()
				break
			}

			g.turn = (g.turn + 1) % len(g.seats)
			g.mu.Unlock()
			continue
		}
		g.mu.Unlock()

		g.playTurn(p)

		g.mu.Lock()
		g.turn = (g.turn + 1) % len(g.seats)
		finished := p.rank > 0
		g.mu.Unlock()

		if finished {
			// the finishing play stands as the round's final lead
			break
		}
	}

	g.mu.Lock()
	g.lead = nil
	g.leadSeat = noLead
	for _, p := range g.seats {
		p.passed = false
	}
	g.mu.Unlock()
}

// playTurn broadcasts the pre-turn status and suspends until the seat
// submits an action or disconnects, whichever the transport delivers first
func (g *Game) playTurn(p *Seat) {
	g.mu.Lock()
	if p.passed {
		g.mu.Unlock()
		return
	}
	g.mu.Unlock()

	g.broadcastStatus()

	pend := &pendingTurn{
		action: make(chan []*deck.Card, 1),
		cancel: make(chan struct{}),
	}

	g.mu.Lock()
	if p.disconnected {
		// the disconnect landed after the round's eligibility check;
		// there is nothing to wait for
		g.mu.Unlock()
		return
	}
	p.pending = pend
	g.mu.Unlock()

	select {
	case cards := <-pend.action:
		g.applyAction(p, cards)
	case <-pend.cancel:
		// the seat disconnected mid-turn. The pending play is abandoned;
		// lead and passed state are untouched.
	}

	g.mu.Lock()
	p.pending = nil
	g.mu.Unlock()
}

// applyAction resolves a submitted action. A nil cards slice is a pass.
// Anything that fails validation terminates the seat's connection.
func (g *Game) applyAction(p *Seat, cards []*deck.Card) {
	g.mu.Lock()
	defer g.mu.Unlock()

	log := g.logger.WithField("player", p.conn.Name())

	if cards == nil {
		p.passed = true
		log.Debug("player passes")
		return
	}

	if err := g.validatePlay(p, cards); err != nil {
		log.WithField("cards", deck.CardsToString(cards)).
			WithError(err).Warn("bad cards argument on turn")
		p.conn.Terminate("illegal play")
		return
	}

	played := append([]*deck.Card{}, cards...)
	p.removeCards(played)
	if len(p.hand) == 0 {
		g.finishedCount++
		p.rank = g.finishedCount
		log.WithField("rank", p.rank).Info("player finished")
	}

	g.lead = played
	g.leadSeat = p.index
	log.WithField("cards", deck.CardsToString(played)).Debug("player plays")
}

// validatePlay checks ownership, legality against the lead, and that the
// cards were submitted in strictly ascending order. Callers must hold g.mu.
func (g *Game) validatePlay(p *Seat, cards []*deck.Card) error {
	if len(cards) == 0 {
		return ErrNoCards
	}

	for _, card := range cards {
		if !p.hasCard(card) {
			return ErrCardNotInHand
		}
	}

	if !g.rules.CanPlay(g.lead, cards) {
		return ErrCannotPlay
	}

	// the canonical submission order is strictly ascending. This is a
	// format check on the payload, independent of the rules evaluator,
	// and it also rejects duplicate cards.
	for i := 0; i+1 < len(cards); i++ {
		if g.rules.Compare(cards[i], cards[i+1]) >= 0 {
			return ErrNotAscending
		}
	}

	return nil
}

// SubmitAction delivers a seat's decision for its suspended turn. A nil
// cards slice is a pass; anything else is a play attempt. Submissions from
// seats without a suspended turn are dropped.
func (g *Game) SubmitAction(c Conn, cards []*deck.Card) {
	g.mu.Lock()
	p := g.seatFor(c)
	if p == nil || p.pending == nil {
		g.mu.Unlock()
		g.logger.WithField("conn", c.Name()).Debug("dropping action with no suspended turn")
		return
	}

	pend := p.pending
	p.pending = nil
	g.mu.Unlock()

	pend.action <- cards
}

// HandleDisconnect permanently excludes the seat owning conn from future
// turns. If that seat's turn is currently suspended, the wait is released
// immediately.
func (g *Game) HandleDisconnect(c Conn) {
	g.mu.Lock()
	p := g.seatFor(c)
	if p == nil {
		g.mu.Unlock()
		return
	}

	p.disconnected = true
	pend := p.pending
	p.pending = nil
	g.mu.Unlock()

	if pend != nil {
		close(pend.cancel)
	}

	g.logger.WithField("player", c.Name()).Info("player disconnected")
}

// Resync replays the start signal and the seat's current status view on a
// connection that was replaced
func (g *Game) Resync(c Conn) {
	g.mu.Lock()
	p := g.seatFor(c)
	if p == nil {
		g.mu.Unlock()
		return
	}
	status := g.statusFor(p)
	g.mu.Unlock()

	c.Send(&Message{Key: KeyStartGame})
	c.Send(&Message{Key: KeyGameStatus, Data: status})
}

// eligibleSeats returns the seats that can still be asked to act. Callers
// must hold g.mu.
func (g *Game) eligibleSeats() []*Seat {
	left := make([]*Seat, 0, len(g.seats))
	for _, p := range g.seats {
		if p.rank == 0 && !p.disconnected {
			left = append(left, p)
		}
	}

	return left
}

// hasActionableSeat reports whether any seat may still act this round.
// Callers must hold g.mu.
func (g *Game) hasActionableSeat() bool {
	for _, p := range g.seats {
		if p.rank == 0 && !p.disconnected && !p.passed {
			return true
		}
	}

	return false
}

// seatFor returns the seat owning conn, or nil. Callers must hold g.mu.
func (g *Game) seatFor(c Conn) *Seat {
	for _, p := range g.seats {
		if p.conn == c {
			return p
		}
	}

	return nil
}
