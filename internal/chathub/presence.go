package chathub

import (
	"log"
	"time"

	"quickchat/backend/internal/models"
)

// handleTyping records the per-(chat, user) typing flag and relays it to
// the other members. The server does no debouncing; hold-before-send and
// clear-after-quiet are client concerns.
func (h *Hub) handleTyping(c Client, chatID string, isTyping bool) {
	if c == nil || chatID == "" {
		return
	}
	userID := c.GetUserID()
	if userID == "" || !h.userInRoom(chatID, userID) {
		return
	}

	t := h.typing[chatID]
	if t == nil {
		t = make(map[string]bool)
		h.typing[chatID] = t
	}
	if isTyping {
		t[userID] = true
	} else {
		delete(t, userID)
	}

	h.notifyRoom(chatID, userID, models.Event{
		Type:   models.EventTypingChanged,
		ChatID: chatID,
		Typing: &models.TypingChange{
			UserID:    userID,
			IsTyping:  isTyping,
			Timestamp: time.Now(),
		},
	})
}

// notifyRoom fans an event out to every session in a chat except those of
// excludeUserID. Delivery is fire-and-forget: a session whose buffer is
// full simply misses the event, and failure to one recipient never affects
// the others.
func (h *Hub) notifyRoom(chatID, excludeUserID string, event models.Event) {
	for _, c := range h.rooms[chatID] {
		if excludeUserID != "" && c.GetUserID() == excludeUserID {
			continue
		}
		h.deliver(c, event)
	}
}

// broadcastRoom fans an event out to every session in a chat, the sender's
// included; consumers de-duplicate by message identifier.
func (h *Hub) broadcastRoom(chatID string, event models.Event) {
	for _, c := range h.rooms[chatID] {
		h.deliver(c, event)
	}
}

func (h *Hub) deliver(c Client, event models.Event) {
	select {
	case c.GetSendChannel() <- event:
	default:
		log.Printf("Dropping %s event for slow session %s", event.Type, c.GetSessionID())
	}
}
