// internal/httpserver/routes_game.go
//
// Game endpoints:
//   - POST /move   → place a stone, report success / win / error
//   - GET  /status → every stone plus current turn and finished flag
//   - POST /join   → hand out seat 1, then seat 2
//
// Successful mutations push a fresh snapshot to websocket subscribers.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/gomoku/internal/apperror"
	"github.com/robalobadob/gomoku/internal/game"
)

// moveReq is the POST /move body. Pointers tell a missing field from zero.
type moveReq struct {
	X      *int `json:"x"`
	Y      *int `json:"y"`
	Player *int `json:"player"`
}

type moveRes struct {
	Status string      `json:"status"`
	Winner game.Player `json:"winner,omitempty"`
}

type statusRes struct {
	Board       []game.Stone `json:"board"`
	CurrentTurn game.Player  `json:"current_turn"`
	IsFinished  bool         `json:"is_finished"`
}

type joinRes struct {
	Player game.Player `json:"player"`
}

type errorRes struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) mountGame(r chi.Router) {
	r.Post("/move", s.handleMove)
	r.Get("/status", s.handleStatus)
	r.Post("/join", s.handleJoin)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.X == nil || req.Y == nil || req.Player == nil {
		writeJSON(w, http.StatusBadRequest, errorRes{Status: "error", Message: "invalid request body"})
		return
	}

	player := game.NoPlayer
	if *req.Player == int(game.PlayerOne) || *req.Player == int(game.PlayerTwo) {
		player = game.Player(*req.Player)
	}

	res, err := s.store.PlaceStone(r.Context(), *req.X, *req.Y, player)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	hlog.FromRequest(r).Debug().
		Int("x", *req.X).Int("y", *req.Y).Stringer("player", player).
		Str("outcome", string(res.Outcome)).Msg("stone placed")

	s.feed.publish(r.Context())
	writeJSON(w, http.StatusOK, moveRes{Status: string(res.Outcome), Winner: res.Winner})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Status(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusRes(st))
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	seat, err := s.store.AssignSeat(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	hlog.FromRequest(r).Info().Stringer("seat", seat).Msg("player joined")
	writeJSON(w, http.StatusOK, joinRes{Player: seat})
}

func toStatusRes(st game.Status) statusRes {
	board := st.Board
	if board == nil {
		board = []game.Stone{}
	}
	return statusRes{Board: board, CurrentTurn: st.CurrentTurn, IsFinished: st.IsFinished}
}

// isGameError reports whether err is a rule violation rather than a storage failure.
func isGameError(err error) bool {
	for _, target := range []error{
		apperror.ErrOccupiedCell,
		apperror.ErrGameFull,
		apperror.ErrInvalidPlayer,
		apperror.ErrNotYourTurn,
		apperror.ErrGameFinished,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// writeError reports rule violations as 200 {"status":"error"} with their
// message; anything else is logged and returned as a 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if isGameError(err) {
		writeJSON(w, http.StatusOK, errorRes{Status: "error", Message: err.Error()})
		return
	}
	hlog.FromRequest(r).Error().Err(err).Str("path", r.URL.Path).Msg("store failure")
	writeJSON(w, http.StatusInternalServerError, errorRes{Status: "error", Message: "internal error"})
}
