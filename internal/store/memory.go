// internal/store/memory.go
//
// In-memory implementation of Store.
// Used in development/testing, or when durability is not required.
//
// Characteristics:
//   - Stones are indexed by coordinate (game.Board) for O(1) occupancy and
//     win lookups; a slice keeps insertion order for Status.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sync"

	"github.com/robalobadob/gomoku/internal/apperror"
	"github.com/robalobadob/gomoku/internal/game"
)

// memory is an in-memory map-based Store implementation.
type memory struct {
	opts Options

	mu     sync.RWMutex // guards everything below
	board  game.Board
	stones []game.Stone
	match  game.MatchState
}

// NewMemoryStore constructs a new in-memory Store, already initialized.
func NewMemoryStore(opts Options) Store {
	m := &memory{opts: opts}
	m.clear()
	return m
}

func (m *memory) clear() {
	m.board = make(game.Board)
	m.stones = nil
	m.match = game.NewMatchState()
}

func (m *memory) Initialize(ctx context.Context) error {
	return m.Reset(ctx)
}

func (m *memory) PlaceStone(_ context.Context, x, y int, player game.Player) (game.MoveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !player.Valid() {
		return game.MoveResult{}, apperror.ErrInvalidPlayer
	}
	pt := game.Point{X: x, Y: y}
	if _, taken := m.board[pt]; taken {
		return game.MoveResult{}, apperror.ErrOccupiedCell
	}
	if err := m.match.CheckMove(player, m.opts.StrictTurns); err != nil {
		return game.MoveResult{}, err
	}

	m.board[pt] = player
	m.stones = append(m.stones, game.Stone{X: x, Y: y, Player: player})

	return m.match.Record(player, game.DetectWin(m.board, x, y, player)), nil
}

func (m *memory) Status(_ context.Context) (game.Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	board := make([]game.Stone, len(m.stones))
	copy(board, m.stones)
	return game.Status{
		Board:       board,
		CurrentTurn: m.match.CurrentTurn,
		IsFinished:  m.match.IsFinished,
	}, nil
}

func (m *memory) AssignSeat(_ context.Context) (game.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.match.TakeSeat()
}

func (m *memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clear()
	return nil
}

func (m *memory) Close() error { return nil }
