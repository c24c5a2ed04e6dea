package chatclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"quickchat/backend/internal/models"
)

// LiveConn is one established live-channel connection.
type LiveConn interface {
	WriteCommand(cmd models.Command) error
	ReadEvent() (models.Event, error)
	Close() error
}

// Dialer opens a live connection. Swapped out in tests.
type Dialer func(rawURL string) (LiveConn, error)

type wsConn struct {
	conn    *websocket.Conn
	pending []models.Event
}

// DialWebSocket is the production Dialer, backed by gorilla/websocket.
func DialWebSocket(rawURL string) (LiveConn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(rawURL, nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{conn: conn}, nil
}

func (w *wsConn) WriteCommand(cmd models.Command) error {
	w.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return w.conn.WriteJSON(cmd)
}

// ReadEvent returns the next pushed event. The server batches whatever is
// queued for a session into one newline-separated frame, so a single frame
// may carry several JSON values; they are decoded eagerly and handed out
// one per call.
func (w *wsConn) ReadEvent() (models.Event, error) {
	for len(w.pending) == 0 {
		_, raw, err := w.conn.ReadMessage()
		if err != nil {
			return models.Event{}, err
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		for {
			var ev models.Event
			if err := dec.Decode(&ev); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return models.Event{}, err
			}
			w.pending = append(w.pending, ev)
		}
	}
	ev := w.pending[0]
	w.pending = w.pending[1:]
	return ev, nil
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}

// connectLoop keeps the live channel up for as long as the room context
// lives: bounded dial attempts with fixed backoff, a fresh join command on
// every successful (re)connect (the server forgets room membership across
// sessions), then a blocking read loop until the connection drops.
func (c *Coordinator) connectLoop(ctx context.Context, chatID string) {
	attempts := 0
	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := c.dial(c.liveURL())
		if err != nil {
			attempts++
			if attempts >= c.reconnectAttempts {
				log.Printf("live channel: giving up after %d attempts", attempts)
				return
			}
			if !sleepCtx(ctx, c.reconnectBackoff) {
				return
			}
			continue
		}

		c.setConn(conn)
		if err := conn.WriteCommand(models.Command{Action: models.ActionJoin, ChatID: chatID}); err != nil {
			c.setConn(nil)
			conn.Close()
			attempts++
			if attempts >= c.reconnectAttempts {
				log.Printf("live channel: giving up after %d attempts", attempts)
				return
			}
			if !sleepCtx(ctx, c.reconnectBackoff) {
				return
			}
			continue
		}
		attempts = 0

		c.readLoop(ctx, conn)

		c.setConn(nil)
		conn.Close()
		if !sleepCtx(ctx, c.reconnectBackoff) {
			return
		}
	}
}

func (c *Coordinator) readLoop(ctx context.Context, conn LiveConn) {
	for {
		ev, err := conn.ReadEvent()
		if err != nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		c.handleEvent(ev)
	}
}

func (c *Coordinator) liveURL() string {
	return c.wsURL + "?userId=" + url.QueryEscape(c.userID)
}

// sleepCtx waits for d unless the context is cancelled first. Reports
// whether the full wait elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
