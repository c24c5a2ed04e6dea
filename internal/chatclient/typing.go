package chatclient

import (
	"time"

	"quickchat/backend/internal/models"
)

// InputChanged implements the client-side typing debounce: the first
// keystroke emits typing=true immediately, every keystroke resets the
// quiet-period timer, and the timer firing with no further input emits one
// typing=false. The server does no debouncing of its own.
func (c *Coordinator) InputChanged() {
	c.mu.Lock()
	chatID := c.chatID
	conn := c.conn
	wasActive := c.typingActive
	if chatID == "" {
		c.mu.Unlock()
		return
	}
	// Only a keystroke that actually announces marks the burst active;
	// otherwise a channel that comes up mid-burst would never hear
	// typing=true.
	if conn != nil {
		c.typingActive = true
	}
	if c.typingTimer != nil {
		c.typingTimer.Stop()
	}
	c.typingTimer = time.AfterFunc(c.typingQuietPeriod, func() {
		c.typingQuiet(chatID)
	})
	c.mu.Unlock()

	if !wasActive && conn != nil {
		conn.WriteCommand(models.Command{
			Action:   models.ActionTyping,
			ChatID:   chatID,
			IsTyping: true,
		})
	}
}

// typingQuiet fires when the quiet period elapses. The chat comparison
// guards against a timer that was scheduled for a room the coordinator has
// since left.
func (c *Coordinator) typingQuiet(chatID string) {
	c.mu.Lock()
	if c.chatID != chatID || !c.typingActive {
		c.mu.Unlock()
		return
	}
	c.typingActive = false
	c.typingTimer = nil
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		conn.WriteCommand(models.Command{
			Action:   models.ActionTyping,
			ChatID:   chatID,
			IsTyping: false,
		})
	}
}
