package room

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"bigtwo-server/pkg/token"
)

// codeLength is the length of a room join code
const codeLength = 6

// Manager tracks the active rooms by join code
type Manager struct {
	endGameDelay time.Duration

	mu    sync.Mutex
	rooms map[string]*Room
}

// NewManager returns a new room manager. endGameDelay is how long a
// finished game remains visible before its room accepts a new one.
func NewManager(endGameDelay time.Duration) *Manager {
	return &Manager{
		endGameDelay: endGameDelay,
		rooms:        make(map[string]*Room),
	}
}

// CreateRoom creates an empty room for the given number of seats and
// returns it with a fresh join code
func (m *Manager) CreateRoom(size int) (*Room, error) {
	if size < 3 || size > 4 {
		return nil, ErrInvalidRoomSize
	}

	code, err := token.Generate(codeLength)
	if err != nil {
		return nil, err
	}

	room := &Room{
		code:         code,
		size:         size,
		logger:       logrus.WithField("room", code),
		manager:      m,
		endGameDelay: m.endGameDelay,
	}

	m.mu.Lock()
	m.rooms[code] = room
	m.mu.Unlock()

	room.logger.WithField("size", size).Info("room created")
	return room, nil
}

// Room returns the room with the given join code
func (m *Manager) Room(code string) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[code]
	return room, ok
}

// releaseRoom drops an emptied room
func (m *Manager) releaseRoom(r *Room) {
	m.mu.Lock()
	delete(m.rooms, r.code)
	m.mu.Unlock()

	r.logger.Info("room released")
}
