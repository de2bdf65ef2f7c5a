package room

import (
	"sync"

	"github.com/google/uuid"

	"bigtwo-server/pkg/game"
)

// sendBufferSize is the per-client outbound message buffer
const sendBufferSize = 256

// Client is one player's persistent connection into a room. The underlying
// websocket may be replaced on reconnect; the Client itself lives as long
// as the player's seat.
type Client struct {
	name      string
	sessionID string
	room      *Room

	close chan string

	mu   sync.Mutex
	send chan *game.Message
	// generation counts socket attachments. A socket that has been
	// replaced must not report its closure as a disconnect.
	generation int
	replaced   chan struct{}
}

func newClient(name string, room *Room) *Client {
	return &Client{
		name:      name,
		sessionID: uuid.New().String(),
		room:      room,
		send:      make(chan *game.Message, sendBufferSize),
		close:     make(chan string, 1),
	}
}

// Name returns the player's display name
func (c *Client) Name() string {
	return c.name
}

// SessionID identifies the client for reconnection. It is the subject of
// the session token handed out at join time.
func (c *Client) SessionID() string {
	return c.sessionID
}

// Room returns the room this client is seated in
func (c *Client) Room() *Room {
	return c.room
}

// Send queues a message for the client's current socket. It never blocks;
// false is returned if the buffer is full and the message was dropped.
func (c *Client) Send(msg *game.Message) bool {
	c.mu.Lock()
	send := c.send
	c.mu.Unlock()

	select {
	case send <- msg:
		return true
	default:
		return false
	}
}

// SendChan returns the channel the current socket's write loop drains
func (c *Client) SendChan() <-chan *game.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.send
}

// Terminate forcibly closes the client's connection with a reason. The
// socket write loop sends the close frame; the resulting read failure is
// reported back as a disconnect.
func (c *Client) Terminate(reason string) {
	select {
	case c.close <- reason:
	default:
	}
}

// CloseChan returns the channel carrying forced-close reasons
func (c *Client) CloseChan() <-chan string {
	return c.close
}

// Attach registers a new socket for the client. It returns the socket's
// generation, the send channel it must drain, and a channel that is closed
// if a newer socket takes over. A superseded socket keeps draining its old
// channel, so messages queued after the takeover only ever reach the new
// socket.
func (c *Client) Attach() (int, <-chan *game.Message, <-chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.replaced != nil {
		close(c.replaced)
		c.send = make(chan *game.Message, sendBufferSize)
	}

	c.replaced = make(chan struct{})
	c.generation++
	return c.generation, c.send, c.replaced
}

// Connected reports whether the client currently has a live socket
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.replaced != nil
}

// Detach reports the end of the socket with the given generation. It
// returns true if that socket was still the client's current one, in which
// case the caller must treat the client as disconnected.
func (c *Client) Detach(generation int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if generation != c.generation {
		return false
	}

	c.replaced = nil
	return true
}
