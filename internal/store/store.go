// internal/store/store.go
//
// Game State Store: the single owner of the stone set and the match record.
//
// Every backend (memory, SQLite, Redis) applies PlaceStone, AssignSeat and
// Reset as one atomic step behind a write lock plus a storage transaction,
// and serves Status from a consistent snapshot under a read lock.

package store

import (
	"context"

	"github.com/robalobadob/gomoku/internal/game"
)

// MatchID is the key of the single match record.
const MatchID = 1

// Store defines the match persistence interface.
type Store interface {
	// Initialize establishes the match record in its initial state. Idempotent.
	Initialize(ctx context.Context) error

	// PlaceStone records a stone for player at (x, y) and evaluates the win.
	// Returns apperror.ErrOccupiedCell if any stone already sits there.
	PlaceStone(ctx context.Context, x, y int, player game.Player) (game.MoveResult, error)

	// Status returns every stone plus the current turn and finished flag.
	Status(ctx context.Context) (game.Status, error)

	// AssignSeat hands out seat 1, then seat 2, then apperror.ErrGameFull.
	AssignSeat(ctx context.Context) (game.Player, error)

	// Reset clears the stones and restores the initial match record.
	Reset(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}

// Options tune move validation.
type Options struct {
	// StrictTurns rejects moves out of turn or after the match finished.
	StrictTurns bool
}
