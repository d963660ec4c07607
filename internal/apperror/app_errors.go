package apperror

import "errors"

// Messages of ErrOccupiedCell and ErrGameFull are part of the HTTP contract;
// clients show them verbatim.
var (
	ErrOccupiedCell  = errors.New("Position already occupied") //nolint:stylecheck // wire message
	ErrGameFull      = errors.New("Game is already full.")     //nolint:stylecheck // wire message
	ErrInvalidPlayer = errors.New("player must be 1 or 2")
	ErrNotYourTurn   = errors.New("it's not your turn")
	ErrGameFinished  = errors.New("game is already finished")
)
