package chathub

import "quickchat/backend/internal/models"

// Client is the interface for one live transport session. It abstracts the
// underlying connection so the hub can manage different client types
// uniformly (the only production implementation is WebSocketClient; tests
// supply mocks).
type Client interface {
	// GetSessionID returns the identifier of this transport session. It is
	// unique per live connection; a reconnect gets a fresh one.
	GetSessionID() string
	// GetUserID returns the opaque user identifier bound at connect time.
	// May be empty, in which case the session cannot join rooms.
	GetUserID() string
	// GetRoomID returns the chat the session is currently joined to, or "".
	GetRoomID() string
	// SetRoomID records the session's current chat. Called only from the
	// hub's event loop.
	SetRoomID(string)

	// GetSendChannel returns the channel the hub pushes outbound events
	// into. It is a send-only channel from the hub's perspective.
	GetSendChannel() chan<- models.Event

	// Run starts the client's read and write pumps.
	Run()
	// Close shuts down the client's outbound channel, stopping its write
	// pump. Called exactly once, by the hub, on unregister.
	Close()
}
