// Package room seats players into fixed-size rooms, starts a game once a
// room fills, and routes messages between the websocket layer and the game.
package room

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"bigtwo-server/pkg/big2"
	"bigtwo-server/pkg/deck"
	"bigtwo-server/pkg/game"
)

// room-level message keys
const (
	keyRoomStatus = "roomStatus"
	keyError      = "error"
)

// PayloadIn is the format we expect from the JS client
type PayloadIn struct {
	Action string       `json:"action"`
	Cards  []*deck.Card `json:"cards"`
}

// RoomStatus is broadcast whenever seating changes before the game starts
type RoomStatus struct {
	Code    string   `json:"code"`
	Size    int      `json:"size"`
	Players []string `json:"players"`
}

// Room seats a fixed number of players and runs one game at a time
type Room struct {
	code    string
	size    int
	logger  logrus.FieldLogger
	manager *Manager

	// endGameDelay is how long the finished game stays visible before the
	// room is released for a new one
	endGameDelay time.Duration

	mu      sync.Mutex
	clients []*Client
	game    *game.Game
}

// Code returns the room's join code
func (r *Room) Code() string {
	return r.code
}

// Join seats a new player. Once the last seat fills, the game starts.
func (r *Room) Join(name string) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.game != nil {
		return nil, ErrGameInProgress
	}

	if len(r.clients) >= r.size {
		return nil, ErrRoomFull
	}

	client := newClient(name, r)
	r.clients = append(r.clients, client)
	r.logger.WithField("player", name).Info("player joined")

	r.broadcastRoomStatus()

	if len(r.clients) == r.size {
		if err := r.startGame(); err != nil {
			// should not happen: the room size was validated at creation
			r.logger.WithError(err).Error("could not start game")
			return nil, err
		}
	}

	return client, nil
}

// ClientBySession returns the seated client owning the session ID
func (r *Room) ClientBySession(sessionID string) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, client := range r.clients {
		if client.sessionID == sessionID {
			return client, nil
		}
	}

	return nil, ErrUnknownSession
}

// Resync replays state for a client on a fresh socket: the game's start
// signal and current status mid-game, otherwise the seating view
func (r *Room) Resync(client *Client) {
	r.mu.Lock()
	g := r.game
	if g == nil {
		client.Send(&game.Message{Key: keyRoomStatus, Data: r.roomStatus()})
	}
	r.mu.Unlock()

	if g != nil {
		g.Resync(client)
	}

	r.logger.WithField("player", client.name).Info("player resumed")
}

// ClientGone is called when a client's current socket closes. During a game
// the seat is marked disconnected; before one, the seat is freed.
func (r *Room) ClientGone(client *Client) {
	r.mu.Lock()

	if r.game != nil {
		g := r.game
		r.mu.Unlock()
		g.HandleDisconnect(client)
		return
	}

	for i, c := range r.clients {
		if c == client {
			r.clients = append(r.clients[:i], r.clients[i+1:]...)
			r.logger.WithField("player", client.name).Info("player left")
			break
		}
	}

	empty := len(r.clients) == 0
	if !empty {
		r.broadcastRoomStatus()
	}
	r.mu.Unlock()

	if empty {
		r.manager.releaseRoom(r)
	}
}

// ReceivedMessage is called when a client sends a message to the server
func (r *Room) ReceivedMessage(client *Client, msg *PayloadIn) {
	switch msg.Action {
	case "turn":
		r.mu.Lock()
		g := r.game
		r.mu.Unlock()

		if g == nil {
			client.Send(newErrorMessage(ErrNoActiveGame))
			return
		}

		// a nil cards slice is a pass, anything else is a play attempt
		g.SubmitAction(client, msg.Cards)
	default:
		r.logger.WithFields(logrus.Fields{
			"player": client.name,
			"action": msg.Action,
		}).Warn("unknown message")
		client.Send(newErrorMessage(ErrUnknownAction))
	}
}

// startGame creates and launches the game. Callers must hold r.mu.
func (r *Room) startGame() error {
	conns := make([]game.Conn, len(r.clients))
	for i, client := range r.clients {
		conns[i] = client
	}

	g, err := game.NewGame(r.logger, r, big2.Rules{}, conns, game.Options{
		EndGameDelay: r.endGameDelay,
	})
	if err != nil {
		return err
	}

	r.game = g
	go g.Run()

	r.logger.Info("game started")
	return nil
}

// Broadcast sends a message to every seat in the room
func (r *Room) Broadcast(msg *game.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, client := range r.clients {
		client.Send(msg)
	}
}

// GameEnded releases the finished game so the room can host a new one.
// Seats whose players dropped during the game are freed.
func (r *Room) GameEnded() {
	r.mu.Lock()
	r.game = nil

	clients := make([]*Client, 0, len(r.clients))
	for _, client := range r.clients {
		if client.Connected() {
			clients = append(clients, client)
		}
	}
	r.clients = clients

	empty := len(r.clients) == 0
	if !empty {
		r.broadcastRoomStatus()
	}
	r.mu.Unlock()

	r.logger.Info("game released")
	if empty {
		r.manager.releaseRoom(r)
	}
}

// roomStatus builds the pre-game seating view. Callers must hold r.mu.
func (r *Room) roomStatus() *RoomStatus {
	players := make([]string, len(r.clients))
	for i, client := range r.clients {
		players[i] = client.name
	}

	return &RoomStatus{
		Code:    r.code,
		Size:    r.size,
		Players: players,
	}
}

// broadcastRoomStatus sends the seating view to everyone. Callers must
// hold r.mu.
func (r *Room) broadcastRoomStatus() {
	status := r.roomStatus()
	for _, client := range r.clients {
		client.Send(&game.Message{Key: keyRoomStatus, Data: status})
	}
}
