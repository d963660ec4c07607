// internal/httpserver/pages.go
//
// Server-rendered pages and embedded static files.
//   - GET /               → mode selection
//   - GET /start?mode=... → board page ("normal" or "blind")
//   - GET /reset          → reset the match, then show mode selection
//   - GET /end            → reset the match, then redirect to /
//   - GET /static/*       → board script and stylesheet

package httpserver

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
)

const (
	modeNormal = "normal"
	modeBlind  = "blind"

	// boardSize is the number of cells per side shown by the board page.
	boardSize = 19
)

type boardPage struct {
	Blind bool
	Size  int
}

func (s *Server) mountPages(r chi.Router, static fs.FS) {
	r.Get("/", s.handleIndex)
	r.Get("/start", s.handleStart)
	r.Get("/reset", s.handleReset)
	r.Get("/end", s.handleEnd)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "main.html", nil)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	switch mode := r.URL.Query().Get("mode"); mode {
	case modeNormal, modeBlind:
		s.render(w, r, "board.html", boardPage{Blind: mode == modeBlind, Size: boardSize})
	default:
		http.Error(w, "game mode not selected", http.StatusBadRequest)
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if !s.reset(w, r) {
		return
	}
	s.render(w, r, "main.html", nil)
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	if !s.reset(w, r) {
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// reset clears the match and notifies subscribers. It writes the error
// response itself and reports whether the caller may continue.
func (s *Server) reset(w http.ResponseWriter, r *http.Request) bool {
	if err := s.store.Reset(r.Context()); err != nil {
		s.writeError(w, r, err)
		return false
	}
	hlog.FromRequest(r).Info().Msg("match reset")
	s.feed.publish(r.Context())
	return true
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.pages.ExecuteTemplate(w, name, data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("template", name).Msg("render page")
	}
}
