// internal/game/types.go
//
// Core type definitions for the five-in-a-row engine.
// Defines:
//   - Player: seat number of a stone owner (1 or 2).
//   - Point / Stone: a grid coordinate and a placed stone.
//   - MatchState: the singleton match record (turn, finished flag, seats).
//   - Status / MoveResult: read snapshots and move outcomes handed to callers.

package game

import "strconv"

// Player identifies one of the two seats. The zero value is "nobody".
type Player uint8

const (
	NoPlayer  Player = 0
	PlayerOne Player = 1
	PlayerTwo Player = 2
)

// Valid reports whether p is seat 1 or seat 2.
func (p Player) Valid() bool { return p == PlayerOne || p == PlayerTwo }

// Opponent returns the other seat (3 - p).
func (p Player) Opponent() Player { return 3 - p }

func (p Player) String() string {
	if !p.Valid() {
		return "<no player>"
	}
	return "player " + strconv.Itoa(int(p))
}

// Point is a coordinate on the unbounded grid.
type Point struct {
	X int
	Y int
}

// Stone is a placed marker. JSON shape matches the /status board entries.
type Stone struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Player Player `json:"player"`
}

// Point returns the stone's coordinate.
func (s Stone) Point() Point { return Point{X: s.X, Y: s.Y} }

// MatchState is the single match record.
type MatchState struct {
	CurrentTurn   Player
	IsFinished    bool
	Seat1Assigned bool
	Seat2Assigned bool
}

// Status is a consistent read snapshot of the match.
type Status struct {
	Board       []Stone
	CurrentTurn Player
	IsFinished  bool
}

// Outcome is the result class of an accepted move.
type Outcome string

const (
	OutcomePlaced Outcome = "success"
	OutcomeWin    Outcome = "win"
)

// MoveResult describes an accepted move. Winner is set only for OutcomeWin.
type MoveResult struct {
	Outcome Outcome
	Winner  Player
}
