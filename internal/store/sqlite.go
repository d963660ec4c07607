// internal/store/sqlite.go
//
// SQLite implementation of Store.
// Layout (see assets/sql):
//   - board(x, y, player): one row per stone, no uniqueness constraint;
//     occupancy is checked here before insert.
//   - game_status(game_id, current_turn, is_finished, player1_assigned,
//     player2_assigned): single row keyed by MatchID.
//
// Every mutation runs in one transaction behind the store's write lock, so a
// failed step rolls back and readers never see a stone without its turn or
// finished update.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/gomoku/internal/apperror"
	"github.com/robalobadob/gomoku/internal/game"
)

var errNoMatch = errors.New("match record missing; call Initialize first")

type sqliteStore struct {
	opts Options
	db   *sql.DB
	mu   sync.RWMutex // serializes mutations; readers share
}

// NewSQLiteStore wraps an open, migrated database.
func NewSQLiteStore(db *sql.DB, opts Options) Store {
	return &sqliteStore{db: db, opts: opts}
}

func (s *sqliteStore) Initialize(ctx context.Context) error {
	if err := s.Reset(ctx); err != nil {
		return fmt.Errorf("initialize match: %w", err)
	}
	log.Info().Int("game_id", MatchID).Msg("match initialized")
	return nil
}

func (s *sqliteStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM board`); err != nil {
			return fmt.Errorf("clear board: %w", err)
		}
		_, err := tx.ExecContext(ctx, `
            INSERT INTO game_status (game_id, current_turn, is_finished, player1_assigned, player2_assigned)
            VALUES (?, 1, 0, 0, 0)
            ON CONFLICT(game_id) DO UPDATE SET
                current_turn = 1, is_finished = 0, player1_assigned = 0, player2_assigned = 0`,
			MatchID,
		)
		if err != nil {
			return fmt.Errorf("reset game_status: %w", err)
		}
		return nil
	})
}

func (s *sqliteStore) PlaceStone(ctx context.Context, x, y int, player game.Player) (game.MoveResult, error) {
	if !player.Valid() {
		return game.MoveResult{}, apperror.ErrInvalidPlayer
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var res game.MoveResult
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var occupied int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM board WHERE x = ? AND y = ?`, x, y,
		).Scan(&occupied); err != nil {
			return fmt.Errorf("check cell: %w", err)
		}
		if occupied > 0 {
			return apperror.ErrOccupiedCell
		}

		match, err := readMatch(ctx, tx)
		if err != nil {
			return err
		}
		if err := match.CheckMove(player, s.opts.StrictTurns); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO board (x, y, player) VALUES (?, ?, ?)`, x, y, int(player),
		); err != nil {
			return fmt.Errorf("insert stone: %w", err)
		}

		near, err := neighbourhood(ctx, tx, x, y, player)
		if err != nil {
			return err
		}

		res = match.Record(player, game.DetectWin(near, x, y, player))
		return writeMatch(ctx, tx, match)
	})
	if err != nil {
		return game.MoveResult{}, err
	}
	return res, nil
}

func (s *sqliteStore) Status(ctx context.Context) (game.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st game.Status
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT x, y, player FROM board ORDER BY rowid`)
		if err != nil {
			return fmt.Errorf("query board: %w", err)
		}
		defer rows.Close()

		st.Board = []game.Stone{}
		for rows.Next() {
			var stone game.Stone
			if err := rows.Scan(&stone.X, &stone.Y, &stone.Player); err != nil {
				return fmt.Errorf("scan stone: %w", err)
			}
			st.Board = append(st.Board, stone)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate board: %w", err)
		}

		match, err := readMatch(ctx, tx)
		if err != nil {
			return err
		}
		st.CurrentTurn = match.CurrentTurn
		st.IsFinished = match.IsFinished
		return nil
	})
	if err != nil {
		return game.Status{}, err
	}
	return st, nil
}

func (s *sqliteStore) AssignSeat(ctx context.Context) (game.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seat := game.NoPlayer
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		match, err := readMatch(ctx, tx)
		if err != nil {
			return err
		}
		if seat, err = match.TakeSeat(); err != nil {
			return err
		}
		return writeMatch(ctx, tx, match)
	})
	if err != nil {
		return game.NoPlayer, err
	}
	return seat, nil
}

func (s *sqliteStore) Close() error { return s.db.Close() }

// inTx runs fn in a transaction, committing on success and rolling back otherwise.
func (s *sqliteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// readMatch loads the single game_status row.
func readMatch(ctx context.Context, tx *sql.Tx) (game.MatchState, error) {
	var m game.MatchState
	err := tx.QueryRowContext(ctx, `
        SELECT current_turn, is_finished, player1_assigned, player2_assigned
        FROM game_status WHERE game_id = ?`, MatchID,
	).Scan(&m.CurrentTurn, &m.IsFinished, &m.Seat1Assigned, &m.Seat2Assigned)
	if errors.Is(err, sql.ErrNoRows) {
		return m, errNoMatch
	}
	if err != nil {
		return m, fmt.Errorf("read game_status: %w", err)
	}
	return m, nil
}

// writeMatch stores the full match record.
func writeMatch(ctx context.Context, tx *sql.Tx, m game.MatchState) error {
	_, err := tx.ExecContext(ctx, `
        UPDATE game_status
        SET current_turn = ?, is_finished = ?, player1_assigned = ?, player2_assigned = ?
        WHERE game_id = ?`,
		int(m.CurrentTurn), m.IsFinished, m.Seat1Assigned, m.Seat2Assigned, MatchID,
	)
	if err != nil {
		return fmt.Errorf("update game_status: %w", err)
	}
	return nil
}

// neighbourhood loads player's stones inside the win-check window around (x, y)
// with one indexed range query.
func neighbourhood(ctx context.Context, tx *sql.Tx, x, y int, player game.Player) (game.Board, error) {
	minX, maxX, minY, maxY := game.Window(x, y)
	rows, err := tx.QueryContext(ctx, `
        SELECT x, y FROM board
        WHERE x BETWEEN ? AND ? AND y BETWEEN ? AND ? AND player = ?`,
		minX, maxX, minY, maxY, int(player),
	)
	if err != nil {
		return nil, fmt.Errorf("query neighbourhood: %w", err)
	}
	defer rows.Close()

	near := make(game.Board)
	for rows.Next() {
		var pt game.Point
		if err := rows.Scan(&pt.X, &pt.Y); err != nil {
			return nil, fmt.Errorf("scan neighbourhood: %w", err)
		}
		near[pt] = player
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate neighbourhood: %w", err)
	}
	return near, nil
}
