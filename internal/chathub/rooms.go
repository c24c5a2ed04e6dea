package chathub

import (
	"log"
	"time"

	"quickchat/backend/internal/models"
)

// handleJoin enforces single-room-per-session: any previously joined room
// is left first, then the session is added to the target room. The "joined"
// notification is suppressed when another session of the same user was
// already present.
func (h *Hub) handleJoin(c Client, chatID string) {
	if c == nil || chatID == "" {
		return
	}
	userID := c.GetUserID()
	if userID == "" {
		log.Printf("Session %s has no user id; join to %s refused", c.GetSessionID(), chatID)
		return
	}

	if prev := c.GetRoomID(); prev != "" && prev != chatID {
		h.leaveRoom(c, prev)
	}

	room := h.rooms[chatID]
	if room == nil {
		room = make(map[string]Client)
		h.rooms[chatID] = room
	}

	wasPresent := h.userInRoom(chatID, userID)
	room[c.GetSessionID()] = c
	c.SetRoomID(chatID)

	if wasPresent {
		return
	}

	if err := h.Storage.AddOnlineUser(chatID, userID); err != nil {
		log.Printf("WARNING: failed to mirror join of %s to chat %s: %v", userID, chatID, err)
	}

	h.notifyRoom(chatID, userID, models.Event{
		Type:   models.EventPresenceChanged,
		ChatID: chatID,
		Presence: &models.PresenceChange{
			UserID:       userID,
			Kind:         models.PresenceJoined,
			DisplayLabel: models.DisplayLabel(userID),
			Timestamp:    time.Now(),
		},
	})
}

func (h *Hub) handleLeave(c Client, chatID string) {
	if c == nil || chatID == "" {
		return
	}
	h.leaveRoom(c, chatID)
}

// leaveRoom removes the session from a room, garbage-collects the room
// entry when its set empties, and notifies remaining members once the
// user's last session is gone. A leave for an unknown room or an absent
// session is a no-op.
func (h *Hub) leaveRoom(c Client, chatID string) {
	room, ok := h.rooms[chatID]
	if !ok {
		return
	}
	if _, ok := room[c.GetSessionID()]; !ok {
		return
	}
	delete(room, c.GetSessionID())
	if c.GetRoomID() == chatID {
		c.SetRoomID("")
	}

	userID := c.GetUserID()
	if h.userInRoom(chatID, userID) {
		// Another session of the same user is still present; membership is
		// unchanged from the room's point of view.
		return
	}

	if t := h.typing[chatID]; t != nil {
		delete(t, userID)
	}
	if err := h.Storage.RemoveOnlineUser(chatID, userID); err != nil {
		log.Printf("WARNING: failed to mirror leave of %s from chat %s: %v", userID, chatID, err)
	}

	if len(room) == 0 {
		delete(h.rooms, chatID)
		delete(h.typing, chatID)
		return
	}

	h.notifyRoom(chatID, userID, models.Event{
		Type:   models.EventPresenceChanged,
		ChatID: chatID,
		Presence: &models.PresenceChange{
			UserID:       userID,
			Kind:         models.PresenceLeft,
			DisplayLabel: models.DisplayLabel(userID),
			Timestamp:    time.Now(),
		},
	})
}

func (h *Hub) userInRoom(chatID, userID string) bool {
	for _, member := range h.rooms[chatID] {
		if member.GetUserID() == userID {
			return true
		}
	}
	return false
}

// memberSnapshot copies the distinct user identifiers joined to a chat.
func (h *Hub) memberSnapshot(chatID string) []string {
	room := h.rooms[chatID]
	if len(room) == 0 {
		return []string{}
	}
	seen := make(map[string]bool, len(room))
	members := make([]string, 0, len(room))
	for _, c := range room {
		if uid := c.GetUserID(); !seen[uid] {
			seen[uid] = true
			members = append(members, uid)
		}
	}
	return members
}
