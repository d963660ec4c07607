// internal/game/engine.go
//
// Core rules for a single five-in-a-row match.
// Responsibilities:
//   - Detect a winning run through a just-placed stone (DetectWin).
//   - Describe the neighbourhood a win check can touch (Reach, Window) so
//     persistent stores can load only those cells.
//   - Apply the match state transitions shared by every store backend:
//     move validation, turn flip / finish, and seat assignment.
//
// Notes:
//   - The grid is unbounded; lookups go through the Lookup interface instead
//     of a board array, so a check costs a fixed number of point lookups.
package game

import (
	"math"

	"github.com/robalobadob/gomoku/internal/apperror"
)

const (
	// WinLength is the run length that ends the match (runs longer also win).
	WinLength = 5

	// reach is how far a win check walks from the placed stone in each direction.
	reach = WinLength - 1
)

// Directions are the four axes a run can follow: horizontal, vertical and both diagonals.
var Directions = [4]Point{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

// Lookup answers "which player owns (x, y)?".
type Lookup interface {
	At(x, y int) (Player, bool)
}

// Board is a map-backed Lookup keyed by coordinate.
type Board map[Point]Player

// At implements Lookup.
func (b Board) At(x, y int) (Player, bool) {
	p, ok := b[Point{X: x, Y: y}]
	return p, ok
}

// BoardOf indexes a stone list by coordinate.
func BoardOf(stones []Stone) Board {
	b := make(Board, len(stones))
	for _, s := range stones {
		b[s.Point()] = s.Player
	}
	return b
}

// offset returns v+delta, or false when the sum leaves the int range.
func offset(v, delta int) (int, bool) {
	if delta > 0 && v > math.MaxInt-delta {
		return 0, false
	}
	if delta < 0 && v < math.MinInt-delta {
		return 0, false
	}
	return v + delta, true
}

// neighbour returns the point i steps from (x, y) along d, or false when it
// lies beyond the edge of the int grid.
func neighbour(x, y int, d Point, i int) (Point, bool) {
	nx, okX := offset(x, d.X*i)
	ny, okY := offset(y, d.Y*i)
	return Point{X: nx, Y: ny}, okX && okY
}

// walk counts consecutive stones of p from (x, y) along d, excluding the start.
func walk(b Lookup, x, y int, d Point, p Player) int {
	n := 0
	for i := 1; i <= reach; i++ {
		pt, ok := neighbour(x, y, d, i)
		if !ok {
			break
		}
		if owner, ok := b.At(pt.X, pt.Y); !ok || owner != p {
			break
		}
		n++
	}
	return n
}

// DetectWin reports whether the stone p placed at (x, y) completes a run of
// WinLength or more along any direction. The walk in each direction stops at
// the first cell not owned by p or at the edge of the int range; gaps are
// never skipped and runs never wrap around.
func DetectWin(b Lookup, x, y int, p Player) bool {
	for _, d := range Directions {
		back := Point{X: -d.X, Y: -d.Y}
		count := 1 + walk(b, x, y, d, p) + walk(b, x, y, back, p)

		if count >= WinLength {
			return true
		}
	}
	return false
}

// Reach lists every point DetectWin may consult for a stone at (x, y),
// direction by direction, nearest first. Points past the edge of the int
// range are left out, so near the edge there are fewer than 32.
func Reach(x, y int) []Point {
	out := make([]Point, 0, len(Directions)*reach*2)
	for _, d := range Directions {
		for _, dir := range [2]Point{d, {X: -d.X, Y: -d.Y}} {
			for i := 1; i <= reach; i++ {
				pt, ok := neighbour(x, y, dir, i)
				if !ok {
					break
				}
				out = append(out, pt)
			}
		}
	}
	return out
}

// Window returns the inclusive bounding square around (x, y) that contains
// Reach(x, y), clamped to the int range.
func Window(x, y int) (minX, maxX, minY, maxY int) {
	return clamp(x, -reach), clamp(x, reach), clamp(y, -reach), clamp(y, reach)
}

func clamp(v, delta int) int {
	if out, ok := offset(v, delta); ok {
		return out
	}
	if delta < 0 {
		return math.MinInt
	}
	return math.MaxInt
}

// NewMatchState returns the initial match record: player 1 to move, seats free.
func NewMatchState() MatchState {
	return MatchState{CurrentTurn: PlayerOne}
}

// CheckMove validates a move by p against the match record. Occupancy is the
// caller's job and must be checked first. Without strict, any move is allowed,
// including out-of-turn moves and moves after the match finished.
func (m MatchState) CheckMove(p Player, strict bool) error {
	if !p.Valid() {
		return apperror.ErrInvalidPlayer
	}
	if !strict {
		return nil
	}
	if m.IsFinished {
		return apperror.ErrGameFinished
	}
	if m.CurrentTurn != p {
		return apperror.ErrNotYourTurn
	}
	return nil
}

// Record applies the effect of an accepted move by p. A win finishes the match
// and leaves the turn untouched; otherwise the turn passes to the opponent.
func (m *MatchState) Record(p Player, won bool) MoveResult {
	if won {
		m.IsFinished = true
		return MoveResult{Outcome: OutcomeWin, Winner: p}
	}
	m.CurrentTurn = p.Opponent()
	return MoveResult{Outcome: OutcomePlaced}
}

// TakeSeat assigns seat 1, else seat 2, else fails with ErrGameFull.
func (m *MatchState) TakeSeat() (Player, error) {
	switch {
	case !m.Seat1Assigned:
		m.Seat1Assigned = true
		return PlayerOne, nil
	case !m.Seat2Assigned:
		m.Seat2Assigned = true
		return PlayerTwo, nil
	default:
		return NoPlayer, apperror.ErrGameFull
	}
}
