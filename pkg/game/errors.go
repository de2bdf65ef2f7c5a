package game

import (
	"errors"
	"fmt"
)

// play validation errors. Any of these costs the offending seat its
// connection.
var (
	// ErrNoCards is an error when a play is submitted with no cards
	ErrNoCards = errors.New("a play must contain at least one card")

	// ErrCardNotInHand is an error when a played card isn't in the seat's hand
	ErrCardNotInHand = errors.New("card is not in the player's hand")

	// ErrCannotPlay is an error when the cards do not legally beat the lead
	ErrCannotPlay = errors.New("cards cannot be played on the current lead")

	// ErrNotAscending is an error when the cards are not submitted in
	// strictly ascending order
	ErrNotAscending = errors.New("cards must be submitted in ascending order")
)

// SeatCountError is an error for an unplayable number of seats
type SeatCountError struct {
	Got int
}

func (s SeatCountError) Error() string {
	return fmt.Sprintf("expected %d–%d seats, got %d", minSeats, maxSeats, s.Got)
}
