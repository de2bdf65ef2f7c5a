package room

import (
	"errors"

	"bigtwo-server/pkg/game"
)

// room errors
var (
	// ErrRoomFull is an error when every seat is taken
	ErrRoomFull = errors.New("the room is full")

	// ErrGameInProgress is an error when joining a room mid-game
	ErrGameInProgress = errors.New("a game is in progress")

	// ErrInvalidRoomSize is an error for an unplayable seat count
	ErrInvalidRoomSize = errors.New("a room must have 3 or 4 seats")

	// ErrUnknownSession is an error when a session token matches no seat
	ErrUnknownSession = errors.New("unknown session")

	// ErrNoActiveGame is an error when a turn arrives with no game running
	ErrNoActiveGame = errors.New("no game is in progress")

	// ErrUnknownAction is an error for an unrecognized client action
	ErrUnknownAction = errors.New("unknown action")
)

// newErrorMessage wraps an error for delivery to a client
func newErrorMessage(err error) *game.Message {
	return &game.Message{
		Key:  keyError,
		Data: err.Error(),
	}
}
