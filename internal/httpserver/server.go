// internal/httpserver/server.go
//
// HTTP server wiring for the gomoku backend.
// Responsibilities:
//   - Router + middleware (request IDs, panic recovery, access logging,
//     timeouts, CORS).
//   - Game endpoints: POST /move, GET /status, POST /join (routes_game.go).
//   - Pages: "/", "/start", "/reset", "/end", "/static/*" (pages.go).
//   - Live status feed over websocket: GET /ws (feed.go).
//
// Notes:
//   - /ws is mounted outside the timeout and access-log group; a hijacked
//     connection outlives any handler deadline.
//   - Game-level errors are reported as HTTP 200 with {"status":"error"}.

package httpserver

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/handlers"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/gomoku/assets"
	"github.com/robalobadob/gomoku/internal/store"
)

// Options configure the HTTP layer.
type Options struct {
	ClientOrigin   string        // CORS origin; "*" allows any
	HandlerTimeout time.Duration // per-request bound for non-streaming routes
}

// Server bundles router, match store, page templates and the status feed.
type Server struct {
	r     *chi.Mux
	store store.Store
	pages *template.Template
	feed  *feed
	opts  Options
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, opts Options) (*Server, error) {
	if opts.HandlerTimeout <= 0 {
		opts.HandlerTimeout = 10 * time.Second
	}
	if opts.ClientOrigin == "" {
		opts.ClientOrigin = "*"
	}

	pages, err := assets.Templates()
	if err != nil {
		return nil, err
	}
	static, err := assets.Static()
	if err != nil {
		return nil, err
	}

	s := &Server{r: chi.NewRouter(), store: st, pages: pages, opts: opts}
	s.feed = newFeed(st)

	// --- middleware ---
	s.r.Use(chimw.RequestID)             // add X-Request-ID
	s.r.Use(chimw.RealIP)                // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)             // recover from panics
	s.r.Use(hlog.NewHandler(log.Logger)) // request-scoped logger

	// --- streaming ---
	s.r.Get("/ws", s.feed.serve)

	s.r.Group(func(r chi.Router) {
		r.Use(accessLog)
		r.Use(chimw.Timeout(opts.HandlerTimeout))

		// --- JSON API ---
		r.Group(func(r chi.Router) {
			r.Use(jsonContentType)
			r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(`{"ok":true}`))
			})
			s.mountGame(r)
		})

		// --- pages ---
		s.mountPages(r, static)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s, nil
}

// Handler returns the router wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins([]string{s.opts.ClientOrigin}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(s.r)
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Close disconnects every feed subscriber.
func (s *Server) Close() { s.feed.close() }

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}
