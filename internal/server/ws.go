package server

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/verte-zerg/keystone/internal/effect"
)

const (
	pingInterval  = 5 * time.Second
	writeWait     = time.Second
	subscriberBuf = 32
)

var websocketUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type dropMessage struct {
	Emoji   string  `json:"emoji"`
	Left    float64 `json:"left"`
	FallMS  int64   `json:"fall_ms"`
	DelayMS int64   `json:"delay_ms"`
	Seq     int     `json:"seq"`
}

func newDropMessage(d effect.Drop) dropMessage {
	return dropMessage{
		Emoji:   d.Emoji,
		Left:    d.Left,
		FallMS:  d.Fall.Milliseconds(),
		DelayMS: d.Delay.Milliseconds(),
		Seq:     d.Sequence,
	}
}

// hub fans drops out to websocket subscribers. Slow subscribers miss drops.
type hub struct {
	mu   sync.Mutex
	subs map[chan dropMessage]struct{}
}

func newHub() *hub {
	return &hub{subs: map[chan dropMessage]struct{}{}}
}

func (h *hub) subscribe() (<-chan dropMessage, func()) {
	ch := make(chan dropMessage, subscriberBuf)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
}

func (h *hub) broadcast(m dropMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- m:
		default:
		}
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (s *Server) handleDrops(c *gin.Context) {
	ws, err := websocketUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("%+v\n", errors.WithStack(err))
		return
	}
	defer ws.Close()

	ctx, ctxCancel := context.WithCancel(c.Request.Context())
	defer ctxCancel()

	drops, unsubscribe := s.hub.subscribe()
	defer unsubscribe()

	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				ctxCancel()
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
			_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				return
			}
		case d := <-drops:
			body, err := json.Marshal(d)
			if err != nil {
				log.Printf("%+v\n", errors.WithStack(err))
				continue
			}
			if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, body); err != nil {
				log.Printf("%+v\n", errors.WithStack(err))
				return
			}
		}
	}
}
