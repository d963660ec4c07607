// internal/httpserver/feed.go
//
// Live status feed. Every websocket subscriber receives the current status
// on connect and again after each successful mutation, in the same JSON
// shape as GET /status.
//
// Snapshots are read and fanned out under the feed lock, so subscribers see
// them in the order the store produced them. A subscriber whose buffer is
// full is dropped rather than stalling the broadcaster.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/gomoku/internal/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

var errFeedClosed = errors.New("feed closed")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type subscriber struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

type feed struct {
	store store.Store

	mu     sync.Mutex // guards subs and closed
	subs   map[string]*subscriber
	closed bool
}

func newFeed(st store.Store) *feed {
	return &feed{store: st, subs: make(map[string]*subscriber)}
}

// serve upgrades the request and streams snapshots until the peer goes away.
func (f *feed) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		hlog.FromRequest(r).Warn().Err(err).Msg("websocket upgrade")
		return
	}

	sub := &subscriber{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}
	if err := f.register(r.Context(), sub); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("feed snapshot")
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "status unavailable"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	hlog.FromRequest(r).Info().Str("subscriber", sub.id).Msg("feed subscribed")

	go f.writePump(sub)
	f.readPump(sub)

	f.unregister(sub)
	log.Info().Str("subscriber", sub.id).Msg("feed unsubscribed")
}

// register queues the current snapshot for sub and adds it to the fan-out set.
func (f *feed) register(ctx context.Context, sub *subscriber) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return errFeedClosed
	}
	msg, err := f.snapshot(ctx)
	if err != nil {
		return err
	}
	sub.send <- msg
	f.subs[sub.id] = sub
	return nil
}

func (f *feed) unregister(sub *subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drop(sub)
}

// drop removes sub and closes its queue; the write pump then closes the
// connection. Callers hold f.mu.
func (f *feed) drop(sub *subscriber) {
	if _, ok := f.subs[sub.id]; !ok {
		return
	}
	delete(f.subs, sub.id)
	close(sub.send)
}

// publish sends the current status to every subscriber.
func (f *feed) publish(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.subs) == 0 {
		return
	}
	msg, err := f.snapshot(ctx)
	if err != nil {
		log.Error().Err(err).Msg("feed snapshot")
		return
	}
	for _, sub := range f.subs {
		select {
		case sub.send <- msg:
		default:
			log.Warn().Str("subscriber", sub.id).Msg("feed subscriber too slow, dropping")
			f.drop(sub)
		}
	}
}

// size reports the number of live subscribers.
func (f *feed) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// close disconnects every subscriber and refuses new ones.
func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	for _, sub := range f.subs {
		f.drop(sub)
	}
}

func (f *feed) snapshot(ctx context.Context) ([]byte, error) {
	st, err := f.store.Status(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(toStatusRes(st))
}

// readPump discards client frames; it exists to process control frames and
// notice when the peer disconnects.
func (f *feed) readPump(sub *subscriber) {
	sub.conn.SetReadLimit(maxMessageSize)
	_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("subscriber", sub.id).Msg("feed read")
			}
			return
		}
	}
}

func (f *feed) writePump(sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		_ = sub.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The feed closed the queue.
				_ = sub.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
