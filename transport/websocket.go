// Package transport is the websocket boundary: one reader goroutine
// delivering raw chunks upward, one guarded writer, and an outbound
// queue for messages sent before the connection opens.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fasthttp/websocket"

	"pschat/errs"
)

// ChunkHandler receives each raw incoming text frame.
type ChunkHandler func(chunk string)

// Adapter is the websocket client. Messages written before Dial succeeds
// are queued and flushed in order, exactly once, when the socket opens.
type Adapter struct {
	log     *slog.Logger
	url     string
	onChunk ChunkHandler

	mu      sync.Mutex
	conn    *websocket.Conn
	pending []string
	closed  bool
}

func NewAdapter(log *slog.Logger, url string, onChunk ChunkHandler) *Adapter {
	return &Adapter{log: log, url: url, onChunk: onChunk}
}

// Dial opens the connection, flushes the pre-open queue, and starts the
// read pump. It returns once the socket is open; the pump runs until the
// connection drops or Close is called.
func (a *Adapter) Dial(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, a.url, nil)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", a.url, err)
	}

	a.mu.Lock()
	a.conn = conn
	pending := a.pending
	a.pending = nil
	a.mu.Unlock()

	for _, payload := range pending {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
			return fmt.Errorf("flushing queued message: %w", err)
		}
	}

	go a.readPump(conn)
	return nil
}

func (a *Adapter) readPump(conn *websocket.Conn) {
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			a.mu.Lock()
			closed := a.closed
			a.mu.Unlock()
			if !closed {
				a.log.Error("websocket read failed", "err", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			a.log.Debug("ignoring non-text frame", "type", kind)
			continue
		}
		a.onChunk(string(data))
	}
}

// WriteText sends one text frame, queueing if the socket is not open yet.
func (a *Adapter) WriteText(payload string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return errs.ErrNotConnected
	}
	if a.conn == nil {
		a.pending = append(a.pending, payload)
		return nil
	}
	if err := a.conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}

func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	if a.conn == nil {
		return nil
	}
	err := a.conn.Close()
	a.conn = nil
	return err
}
