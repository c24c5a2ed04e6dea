package models

import "time"

// Server-pushed event kinds.
const (
	EventMessageCreated  = "message-created"
	EventPresenceChanged = "presence-changed"
	EventTypingChanged   = "typing-changed"
)

// Presence transition kinds.
const (
	PresenceJoined = "joined"
	PresenceLeft   = "left"
)

// Event is the outbound wire envelope pushed to WebSocket sessions. Exactly
// one of the payload pointers is set, matching Type.
type Event struct {
	Type     string          `json:"type"`
	ChatID   string          `json:"chat_id"`
	Message  *Message        `json:"message,omitempty"`
	Presence *PresenceChange `json:"presence,omitempty"`
	Typing   *TypingChange   `json:"typing,omitempty"`
}

// PresenceChange notifies remaining room members that a user joined or left.
type PresenceChange struct {
	UserID       string    `json:"user_id"`
	Kind         string    `json:"kind"`
	DisplayLabel string    `json:"display_label"`
	Timestamp    time.Time `json:"timestamp"`
}

// TypingChange relays a typing flag to other room members. The server does
// no debouncing; clients are responsible for hold-before-send and
// clear-after-quiet.
type TypingChange struct {
	UserID    string    `json:"user_id"`
	IsTyping  bool      `json:"is_typing"`
	Timestamp time.Time `json:"timestamp"`
}

// Client-to-server command actions carried over the WebSocket.
const (
	ActionJoin    = "join"
	ActionLeave   = "leave"
	ActionTyping  = "typing"
	ActionMessage = "message"
)

// Command is the inbound wire shape read by the session's read pump.
type Command struct {
	Action   string `json:"action"`
	ChatID   string `json:"chat_id"`
	Content  string `json:"content,omitempty"`
	Type     string `json:"type,omitempty"`
	FileURL  string `json:"file_url,omitempty"`
	IsTyping bool   `json:"is_typing,omitempty"`
}

// SubmitRequest asks the hub to stamp, persist, and fan out one message.
// The stamped envelope (or the validation error) comes back on ResultCh.
type SubmitRequest struct {
	ChatID   string
	SenderID string
	Content  string
	Type     string
	FileURL  string

	ResultCh chan SubmitResult
}

// SubmitResult is the synchronous reply to a SubmitRequest.
type SubmitResult struct {
	Message *Message
	Err     error
}
