package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

// Client follows a hub's event stream, reconnecting after failures.
type Client struct {
	url            string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *zap.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewClient(url string, reconnectDelay, pingInterval time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{url: url, reconnectDelay: reconnectDelay, pingInterval: pingInterval, log: log}
}

func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}
	conn, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

// Run delivers events to handler until ctx is done. Undecodable frames are
// logged and skipped.
func (c *Client) Run(ctx context.Context, handler func(Event)) error {
	for {
		if err := c.Connect(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn("event stream connect failed", zap.Error(err))
			if !c.wait(ctx) {
				return ctx.Err()
			}
			continue
		}
		pingCtx, cancel := context.WithCancel(ctx)
		pingDone := make(chan struct{})
		go func() {
			defer close(pingDone)
			c.pingLoop(pingCtx)
		}()
		err := c.readLoop(ctx, handler)
		cancel()
		<-pingDone
		if ctx.Err() != nil {
			c.resetConn()
			return ctx.Err()
		}
		c.logReadLoopError(err)
		c.resetConn()
		if !c.wait(ctx) {
			return ctx.Err()
		}
	}
}

func (c *Client) readLoop(ctx context.Context, handler func(Event)) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("event stream not connected")
	}
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			c.log.Warn("event decode failed", zap.Error(err))
			continue
		}
		if handler != nil {
			handler(ev)
		}
	}
}

func (c *Client) pingLoop(ctx context.Context) {
	c.mu.Lock()
	conn := c.conn
	interval := c.pingInterval
	c.mu.Unlock()
	if conn == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.Ping(ctx); err != nil {
				return
			}
		}
	}
}

func (c *Client) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.reconnectDelay):
		return true
	}
}

func (c *Client) logReadLoopError(err error) {
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
		var closeErr websocket.CloseError
		if errors.As(err, &closeErr) {
			c.log.Info("event stream ended", zap.Int("status", int(closeErr.Code)), zap.String("reason", closeErr.Reason))
			return
		}
	}
	c.log.Warn("event stream ended", zap.Error(err))
}

func (c *Client) resetConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "reset")
		c.conn = nil
	}
}
