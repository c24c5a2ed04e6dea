package chathub_test

import (
	"quickchat/backend/internal/models"
)

type MockClient struct {
	sessionID string
	userID    string
	roomID    string
	// RecvCh is what the hub sees as the client's send channel; tests read
	// delivered events from it.
	RecvCh chan models.Event
}

func newMockClient(sessionID, userID string) *MockClient {
	return &MockClient{
		sessionID: sessionID,
		userID:    userID,
		RecvCh:    make(chan models.Event, 32),
	}
}

func (c *MockClient) GetSessionID() string { return c.sessionID }

func (c *MockClient) GetUserID() string { return c.userID }

func (c *MockClient) GetRoomID() string { return c.roomID }

func (c *MockClient) SetRoomID(roomID string) { c.roomID = roomID }

func (c *MockClient) GetSendChannel() chan<- models.Event { return c.RecvCh }

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	// Not needed for testing
}

// drainEvents empties the receive buffer and returns everything queued.
func (c *MockClient) drainEvents() []models.Event {
	var out []models.Event
	for {
		select {
		case ev := <-c.RecvCh:
			out = append(out, ev)
		default:
			return out
		}
	}
}

// countEvents tallies queued events of one type.
func (c *MockClient) countEvents(eventType string) int {
	n := 0
	for _, ev := range c.drainEvents() {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}
