// internal/store/redis.go
//
// Redis implementation of Store.
// Keys (all under a configurable prefix):
//   - <prefix>:board  hash "x:y" -> player
//   - <prefix>:order  list of "x:y" in placement order
//   - <prefix>:status hash current_turn, is_finished, player1_assigned, player2_assigned
//
// Reads and writes of one operation go through a single MULTI/EXEC so other
// clients never observe half of a move; the store's mutex serializes the
// read-modify-write cycles issued by this process.

package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/robalobadob/gomoku/internal/apperror"
	"github.com/robalobadob/gomoku/internal/game"
)

const (
	fieldTurn     = "current_turn"
	fieldFinished = "is_finished"
	fieldSeat1    = "player1_assigned"
	fieldSeat2    = "player2_assigned"
)

var errCorruptStone = errors.New("corrupt stone entry")

type redisStore struct {
	opts   Options
	client *redis.Client
	prefix string
	mu     sync.RWMutex
}

// NewRedisStore uses client for match state under keys starting with prefix.
func NewRedisStore(client *redis.Client, prefix string, opts Options) Store {
	if prefix == "" {
		prefix = "gomoku:match:" + strconv.Itoa(MatchID)
	}
	return &redisStore{client: client, prefix: prefix, opts: opts}
}

func (s *redisStore) boardKey() string  { return s.prefix + ":board" }
func (s *redisStore) orderKey() string  { return s.prefix + ":order" }
func (s *redisStore) statusKey() string { return s.prefix + ":status" }

func cellField(x, y int) string { return strconv.Itoa(x) + ":" + strconv.Itoa(y) }

func (s *redisStore) Initialize(ctx context.Context) error {
	if err := s.Reset(ctx); err != nil {
		return fmt.Errorf("initialize match: %w", err)
	}
	return nil
}

func (s *redisStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.boardKey(), s.orderKey())
		pipe.HSet(ctx, s.statusKey(), statusFields(game.NewMatchState()))
		return nil
	})
	if err != nil {
		return fmt.Errorf("reset match: %w", err)
	}
	return nil
}

func (s *redisStore) PlaceStone(ctx context.Context, x, y int, player game.Player) (game.MoveResult, error) {
	if !player.Valid() {
		return game.MoveResult{}, apperror.ErrInvalidPlayer
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	field := cellField(x, y)
	taken, err := s.client.HExists(ctx, s.boardKey(), field).Result()
	if err != nil {
		return game.MoveResult{}, fmt.Errorf("check cell: %w", err)
	}
	if taken {
		return game.MoveResult{}, apperror.ErrOccupiedCell
	}

	match, err := s.readMatch(ctx)
	if err != nil {
		return game.MoveResult{}, err
	}
	if err := match.CheckMove(player, s.opts.StrictTurns); err != nil {
		return game.MoveResult{}, err
	}

	near, err := s.neighbourhood(ctx, x, y)
	if err != nil {
		return game.MoveResult{}, err
	}

	res := match.Record(player, game.DetectWin(near, x, y, player))

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.boardKey(), field, int(player))
		pipe.RPush(ctx, s.orderKey(), field)
		pipe.HSet(ctx, s.statusKey(), statusFields(match))
		return nil
	})
	if err != nil {
		return game.MoveResult{}, fmt.Errorf("save move: %w", err)
	}
	return res, nil
}

func (s *redisStore) Status(ctx context.Context) (game.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		order  *redis.StringSliceCmd
		board  *redis.MapStringStringCmd
		status *redis.MapStringStringCmd
	)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		order = pipe.LRange(ctx, s.orderKey(), 0, -1)
		board = pipe.HGetAll(ctx, s.boardKey())
		status = pipe.HGetAll(ctx, s.statusKey())
		return nil
	})
	if err != nil {
		return game.Status{}, fmt.Errorf("read match: %w", err)
	}

	owners := board.Val()
	st := game.Status{Board: make([]game.Stone, 0, len(owners))}
	for _, field := range order.Val() {
		stone, err := parseStone(field, owners[field])
		if err != nil {
			return game.Status{}, err
		}
		st.Board = append(st.Board, stone)
	}

	match, err := parseMatch(status.Val())
	if err != nil {
		return game.Status{}, err
	}
	st.CurrentTurn = match.CurrentTurn
	st.IsFinished = match.IsFinished
	return st, nil
}

func (s *redisStore) AssignSeat(ctx context.Context) (game.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	match, err := s.readMatch(ctx)
	if err != nil {
		return game.NoPlayer, err
	}
	seat, err := match.TakeSeat()
	if err != nil {
		return game.NoPlayer, err
	}
	if err := s.client.HSet(ctx, s.statusKey(), statusFields(match)).Err(); err != nil {
		return game.NoPlayer, fmt.Errorf("save seat: %w", err)
	}
	return seat, nil
}

func (s *redisStore) Close() error { return s.client.Close() }

func (s *redisStore) readMatch(ctx context.Context) (game.MatchState, error) {
	fields, err := s.client.HGetAll(ctx, s.statusKey()).Result()
	if err != nil {
		return game.MatchState{}, fmt.Errorf("read status: %w", err)
	}
	return parseMatch(fields)
}

// neighbourhood fetches every cell a win check around (x, y) may consult with one HMGET.
func (s *redisStore) neighbourhood(ctx context.Context, x, y int) (game.Board, error) {
	pts := game.Reach(x, y)
	fields := make([]string, len(pts))
	for i, p := range pts {
		fields[i] = cellField(p.X, p.Y)
	}

	vals, err := s.client.HMGet(ctx, s.boardKey(), fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("read neighbourhood: %w", err)
	}

	near := make(game.Board, len(vals))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(str)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", errCorruptStone, fields[i], str)
		}
		near[pts[i]] = game.Player(n)
	}
	return near, nil
}

func statusFields(m game.MatchState) map[string]any {
	return map[string]any{
		fieldTurn:     int(m.CurrentTurn),
		fieldFinished: boolInt(m.IsFinished),
		fieldSeat1:    boolInt(m.Seat1Assigned),
		fieldSeat2:    boolInt(m.Seat2Assigned),
	}
}

func parseMatch(fields map[string]string) (game.MatchState, error) {
	if len(fields) == 0 {
		return game.MatchState{}, errNoMatch
	}
	turn, err := strconv.Atoi(fields[fieldTurn])
	if err != nil {
		return game.MatchState{}, fmt.Errorf("parse %s: %w", fieldTurn, err)
	}
	return game.MatchState{
		CurrentTurn:   game.Player(turn),
		IsFinished:    fields[fieldFinished] == "1",
		Seat1Assigned: fields[fieldSeat1] == "1",
		Seat2Assigned: fields[fieldSeat2] == "1",
	}, nil
}

func parseStone(field, owner string) (game.Stone, error) {
	xs, ys, ok := strings.Cut(field, ":")
	if !ok {
		return game.Stone{}, fmt.Errorf("%w: %q", errCorruptStone, field)
	}
	x, errX := strconv.Atoi(xs)
	y, errY := strconv.Atoi(ys)
	p, errP := strconv.Atoi(owner)
	if errX != nil || errY != nil || errP != nil {
		return game.Stone{}, fmt.Errorf("%w: %s=%q", errCorruptStone, field, owner)
	}
	return game.Stone{X: x, Y: y, Player: game.Player(p)}, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
