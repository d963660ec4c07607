package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/gomoku/internal/game"
	"github.com/robalobadob/gomoku/internal/store"
)

func newTestServer(t *testing.T, st store.Store) *Server {
	t.Helper()
	srv, err := New(st, Options{HandlerTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, store.NewMemoryStore(store.Options{}))

	rec := do(t, srv, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestMove(t *testing.T) {
	t.Run("Accepted move reports success", func(t *testing.T) {
		srv := newTestServer(t, store.NewMemoryStore(store.Options{}))

		rec := do(t, srv, http.MethodPost, "/move", `{"x":3,"y":-4,"player":1}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"success"}`, rec.Body.String())
	})

	t.Run("Fifth stone in a row reports the winner", func(t *testing.T) {
		// Given: four stones of player 2 in a column
		srv := newTestServer(t, store.NewMemoryStore(store.Options{}))
		for _, body := range []string{
			`{"x":0,"y":0,"player":2}`, `{"x":0,"y":1,"player":2}`,
			`{"x":0,"y":2,"player":2}`, `{"x":0,"y":3,"player":2}`,
		} {
			require.JSONEq(t, `{"status":"success"}`, do(t, srv, http.MethodPost, "/move", body).Body.String())
		}

		// When: the fifth lands
		rec := do(t, srv, http.MethodPost, "/move", `{"x":0,"y":4,"player":2}`)

		// Then: the response names the winner
		assert.JSONEq(t, `{"status":"win","winner":2}`, rec.Body.String())
	})

	t.Run("Occupied cell reports the error message", func(t *testing.T) {
		srv := newTestServer(t, store.NewMemoryStore(store.Options{}))
		do(t, srv, http.MethodPost, "/move", `{"x":1,"y":1,"player":1}`)

		rec := do(t, srv, http.MethodPost, "/move", `{"x":1,"y":1,"player":2}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"error","message":"Position already occupied"}`, rec.Body.String())
	})

	t.Run("Unknown player is rejected", func(t *testing.T) {
		srv := newTestServer(t, store.NewMemoryStore(store.Options{}))

		rec := do(t, srv, http.MethodPost, "/move", `{"x":1,"y":1,"player":3}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "error", decode(t, rec)["status"])
	})

	t.Run("Malformed body is a bad request", func(t *testing.T) {
		srv := newTestServer(t, store.NewMemoryStore(store.Options{}))

		for _, body := range []string{`{"x":1,`, `{"x":1,"player":1}`, `[]`} {
			rec := do(t, srv, http.MethodPost, "/move", body)

			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
			assert.JSONEq(t, `{"status":"error","message":"invalid request body"}`, rec.Body.String())
		}
	})
}

func TestStatus(t *testing.T) {
	t.Run("Empty board is an empty list", func(t *testing.T) {
		srv := newTestServer(t, store.NewMemoryStore(store.Options{}))

		rec := do(t, srv, http.MethodGet, "/status", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"board":[],"current_turn":1,"is_finished":false}`, rec.Body.String())
	})

	t.Run("Stones and turn are reported", func(t *testing.T) {
		// Given: two moves
		srv := newTestServer(t, store.NewMemoryStore(store.Options{}))
		do(t, srv, http.MethodPost, "/move", `{"x":0,"y":0,"player":1}`)
		do(t, srv, http.MethodPost, "/move", `{"x":5,"y":-5,"player":2}`)

		// When: reading the status
		rec := do(t, srv, http.MethodGet, "/status", "")

		// Then: both stones are listed and player 1 is to move
		assert.JSONEq(t, `{
			"board":[{"x":0,"y":0,"player":1},{"x":5,"y":-5,"player":2}],
			"current_turn":1,
			"is_finished":false
		}`, rec.Body.String())
	})
}

func TestJoin(t *testing.T) {
	srv := newTestServer(t, store.NewMemoryStore(store.Options{}))

	assert.JSONEq(t, `{"player":1}`, do(t, srv, http.MethodPost, "/join", "").Body.String())
	assert.JSONEq(t, `{"player":2}`, do(t, srv, http.MethodPost, "/join", "").Body.String())
	assert.JSONEq(t, `{"status":"error","message":"Game is already full."}`,
		do(t, srv, http.MethodPost, "/join", "").Body.String())
}

func TestPages(t *testing.T) {
	t.Run("Index offers both modes", func(t *testing.T) {
		srv := newTestServer(t, store.NewMemoryStore(store.Options{}))

		rec := do(t, srv, http.MethodGet, "/", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, rec.Body.String(), "/start?mode=normal")
		assert.Contains(t, rec.Body.String(), "/start?mode=blind")
	})

	t.Run("Start renders the board for a known mode", func(t *testing.T) {
		srv := newTestServer(t, store.NewMemoryStore(store.Options{}))

		normal := do(t, srv, http.MethodGet, "/start?mode=normal", "")
		blind := do(t, srv, http.MethodGet, "/start?mode=blind", "")

		assert.Equal(t, http.StatusOK, normal.Code)
		assert.Contains(t, normal.Body.String(), `data-blind="false"`)
		assert.Equal(t, http.StatusOK, blind.Code)
		assert.Contains(t, blind.Body.String(), `data-blind="true"`)
	})

	t.Run("Start without a valid mode is rejected", func(t *testing.T) {
		srv := newTestServer(t, store.NewMemoryStore(store.Options{}))

		for _, path := range []string{"/start", "/start?mode=hard"} {
			rec := do(t, srv, http.MethodGet, path, "")

			assert.Equal(t, http.StatusBadRequest, rec.Code, path)
			assert.Contains(t, rec.Body.String(), "game mode not selected")
		}
	})

	t.Run("Reset clears the match and renders the index", func(t *testing.T) {
		// Given: a stone and a taken seat
		srv := newTestServer(t, store.NewMemoryStore(store.Options{}))
		do(t, srv, http.MethodPost, "/move", `{"x":0,"y":0,"player":1}`)
		do(t, srv, http.MethodPost, "/join", "")

		// When: resetting
		rec := do(t, srv, http.MethodGet, "/reset", "")

		// Then: the index is shown and the match is fresh
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "/start?mode=normal")
		assert.JSONEq(t, `{"board":[],"current_turn":1,"is_finished":false}`,
			do(t, srv, http.MethodGet, "/status", "").Body.String())
		assert.JSONEq(t, `{"player":1}`, do(t, srv, http.MethodPost, "/join", "").Body.String())
	})

	t.Run("End resets and redirects home", func(t *testing.T) {
		srv := newTestServer(t, store.NewMemoryStore(store.Options{}))
		do(t, srv, http.MethodPost, "/move", `{"x":0,"y":0,"player":1}`)

		rec := do(t, srv, http.MethodGet, "/end", "")

		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
		assert.JSONEq(t, `{"board":[],"current_turn":1,"is_finished":false}`,
			do(t, srv, http.MethodGet, "/status", "").Body.String())
	})

	t.Run("Static assets are served", func(t *testing.T) {
		srv := newTestServer(t, store.NewMemoryStore(store.Options{}))

		js := do(t, srv, http.MethodGet, "/static/board.js", "")
		css := do(t, srv, http.MethodGet, "/static/board.css", "")

		assert.Equal(t, http.StatusOK, js.Code)
		assert.Contains(t, js.Body.String(), "/move")
		assert.Equal(t, http.StatusOK, css.Code)
	})
}

func TestRoutes(t *testing.T) {
	// Given: a server
	srv := newTestServer(t, store.NewMemoryStore(store.Options{}))

	// When: walking its router
	var got []string
	err := chi.Walk(srv.Router(), func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		got = append(got, method+" "+route)
		return nil
	})

	// Then: every endpoint is registered with its method
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"GET /ws",
		"GET /health",
		"POST /move",
		"GET /status",
		"POST /join",
		"GET /",
		"GET /start",
		"GET /reset",
		"GET /end",
	}, filterStatic(got))
}

// filterStatic drops the catch-all static file routes, registered for every method.
func filterStatic(routes []string) []string {
	out := routes[:0:0]
	for _, r := range routes {
		if !strings.HasSuffix(r, "/static/*") {
			out = append(out, r)
		}
	}
	return out
}

func TestNotFound(t *testing.T) {
	srv := newTestServer(t, store.NewMemoryStore(store.Options{}))

	rec := do(t, srv, http.MethodGet, "/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not_found","path":"/nope"}`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, store.NewMemoryStore(store.Options{}))
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("Origin", "http://example.test")
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

// brokenStore fails every operation with a storage error.
type brokenStore struct{}

var errDisk = errors.New("disk on fire")

func (brokenStore) Initialize(context.Context) error { return errDisk }
func (brokenStore) PlaceStone(context.Context, int, int, game.Player) (game.MoveResult, error) {
	return game.MoveResult{}, errDisk
}
func (brokenStore) Status(context.Context) (game.Status, error)     { return game.Status{}, errDisk }
func (brokenStore) AssignSeat(context.Context) (game.Player, error) { return game.NoPlayer, errDisk }
func (brokenStore) Reset(context.Context) error                     { return errDisk }
func (brokenStore) Close() error                                    { return nil }

func TestStoreFailure(t *testing.T) {
	srv := newTestServer(t, brokenStore{})

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPost, "/move", `{"x":0,"y":0,"player":1}`},
		{http.MethodGet, "/status", ""},
		{http.MethodPost, "/join", ""},
		{http.MethodGet, "/end", ""},
	} {
		rec := do(t, srv, tc.method, tc.path, tc.body)

		assert.Equal(t, http.StatusInternalServerError, rec.Code, tc.path)
		assert.JSONEq(t, `{"status":"error","message":"internal error"}`, rec.Body.String(), tc.path)
	}
}

func readStatus(t *testing.T, ws *websocket.Conn) statusRes {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var st statusRes
	require.NoError(t, ws.ReadJSON(&st))
	return st
}

func TestFeed(t *testing.T) {
	// Given: a running server with one stone placed
	srv := newTestServer(t, store.NewMemoryStore(store.Options{}))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	do(t, srv, http.MethodPost, "/move", `{"x":2,"y":2,"player":1}`)

	// When: a client subscribes
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	// Then: it first receives the current snapshot
	first := readStatus(t, ws)
	assert.Equal(t, []game.Stone{{X: 2, Y: 2, Player: game.PlayerOne}}, first.Board)
	assert.Equal(t, game.PlayerTwo, first.CurrentTurn)
	require.Eventually(t, func() bool { return srv.feed.size() == 1 }, 2*time.Second, 10*time.Millisecond)

	// When: another move is made
	do(t, srv, http.MethodPost, "/move", `{"x":3,"y":3,"player":2}`)

	// Then: the update is pushed
	second := readStatus(t, ws)
	assert.Len(t, second.Board, 2)
	assert.Equal(t, game.PlayerOne, second.CurrentTurn)

	// When: the match is reset
	do(t, srv, http.MethodGet, "/end", "")

	// Then: subscribers see the empty board
	third := readStatus(t, ws)
	assert.Empty(t, third.Board)
	assert.False(t, third.IsFinished)

	// When: the server shuts the feed down
	srv.Close()

	// Then: the subscriber is disconnected
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = ws.ReadMessage()
	assert.Error(t, err)
	assert.Zero(t, srv.feed.size())
}
