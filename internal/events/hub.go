package events

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"scoria/internal/metrics"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

const writeTimeout = 5 * time.Second

type subscriber struct {
	ch     chan []byte
	status websocket.StatusCode
	reason string
}

// Hub fans events out to websocket subscribers. A subscriber whose buffer is
// full is disconnected rather than allowed to stall publishers.
type Hub struct {
	log        *zap.Logger
	dropped    metrics.Counter
	bufferSize int

	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

func NewHub(bufferSize int, log *zap.Logger, dropped metrics.Counter) *Hub {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	if log == nil {
		log = zap.NewNop()
	}
	if dropped == nil {
		dropped = metrics.NewNoop().EventsDropped
	}
	return &Hub{
		log:        log,
		dropped:    dropped,
		bufferSize: bufferSize,
		subs:       make(map[*subscriber]struct{}),
	}
}

func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Warn("event encode failed", zap.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.ch <- data:
		default:
			h.drop(sub, websocket.StatusPolicyViolation, "subscriber too slow")
			h.dropped.Inc()
			h.log.Warn("event subscriber too slow, disconnecting")
		}
	}
}

// Close disconnects every subscriber and refuses new ones.
func (h *Hub) Close() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.subs {
		h.drop(sub, websocket.StatusGoingAway, "server shutting down")
	}
}

// drop must be called with h.mu held.
func (h *Hub) drop(sub *subscriber, status websocket.StatusCode, reason string) {
	delete(h.subs, sub)
	sub.status = status
	sub.reason = reason
	close(sub.ch)
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Warn("event subscriber accept failed", zap.Error(err))
		return
	}
	sub, ok := h.subscribe()
	if !ok {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.unsubscribe(sub)

	// Inbound data frames are not part of the protocol; CloseRead still
	// answers pings and notices the peer going away.
	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return
		case data, ok := <-sub.ch:
			if !ok {
				h.mu.Lock()
				status, reason := sub.status, sub.reason
				h.mu.Unlock()
				_ = conn.Close(status, reason)
				return
			}
			if err := write(ctx, conn, data); err != nil {
				h.log.Debug("event write failed", zap.Error(err))
				return
			}
		}
	}
}

func (h *Hub) subscribe() (*subscriber, bool) {
	sub := &subscriber{ch: make(chan []byte, h.bufferSize)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	h.subs[sub] = struct{}{}
	return sub, true
}

func (h *Hub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.ch)
	}
}

func write(ctx context.Context, conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
