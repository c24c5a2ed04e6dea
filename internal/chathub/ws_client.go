package chathub

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"quickchat/backend/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// WebSocketClient implements Client over a gorilla/websocket connection.
type WebSocketClient struct {
	SessionID string
	UserID    string
	roomID    string
	Conn      *websocket.Conn
	Hub       *Hub
	Send      chan models.Event
}

func (c *WebSocketClient) GetSessionID() string                { return c.SessionID }
func (c *WebSocketClient) GetUserID() string                   { return c.UserID }
func (c *WebSocketClient) GetRoomID() string                   { return c.roomID }
func (c *WebSocketClient) SetRoomID(id string)                 { c.roomID = id }
func (c *WebSocketClient) GetSendChannel() chan<- models.Event { return c.Send }

// Run starts the read and write pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes the Send channel, which stops the write pump. The read pump
// stops itself when the connection closes.
func (c *WebSocketClient) Close() {
	close(c.Send)
}

// readPump decodes inbound command frames and dispatches them to the hub.
// On connection loss it hands the session to UnregisterCh, which performs
// the implicit leave.
func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.UnregisterCh <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("error reading from session %s: %v", c.SessionID, err)
			}
			break
		}

		var cmd models.Command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			log.Printf("Error decoding command from session %s: %v", c.SessionID, err)
			continue
		}

		switch cmd.Action {
		case models.ActionJoin:
			c.Hub.JoinCh <- RoomRequest{Client: c, ChatID: cmd.ChatID}
		case models.ActionLeave:
			c.Hub.LeaveCh <- RoomRequest{Client: c, ChatID: cmd.ChatID}
		case models.ActionTyping:
			c.Hub.TypingCh <- TypingRequest{Client: c, ChatID: cmd.ChatID, IsTyping: cmd.IsTyping}
		case models.ActionMessage:
			if _, err := c.Hub.Submit(cmd.ChatID, c.UserID, cmd.Content, cmd.Type, cmd.FileURL); err != nil {
				log.Printf("Submit from session %s rejected: %v", c.SessionID, err)
			}
		default:
			log.Printf("Unknown action %q from session %s", cmd.Action, c.SessionID)
		}
	}
}

// writePump serializes outbound events onto the socket, batching whatever
// is already queued into one frame and pinging on a ticker to keep the
// connection alive.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(event)
			if err != nil {
				log.Printf("Error encoding event for session %s: %v", c.SessionID, err)
				continue
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(data)

			n := len(c.Send)
			for i := 0; i < n; i++ {
				next, ok := <-c.Send
				if !ok {
					break
				}
				extra, _ := json.Marshal(next)
				w.Write([]byte{'\n'})
				w.Write(extra)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
