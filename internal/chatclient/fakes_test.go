package chatclient

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"quickchat/backend/internal/models"
)

// fakeFallback is an in-memory stand-in for the REST endpoints.
type fakeFallback struct {
	mu         sync.Mutex
	store      map[string][]models.Message
	postErr    error
	fetchErr   error
	fetchCalls int
}

func newFakeFallback() *fakeFallback {
	return &fakeFallback{store: map[string][]models.Message{}}
}

func (f *fakeFallback) FetchMessages(chatID string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]models.Message, len(f.store[chatID]))
	copy(out, f.store[chatID])
	return out, nil
}

func (f *fakeFallback) PostMessage(chatID, content string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return nil, f.postErr
	}
	msg := models.Message{
		ID:        uuid.New().String(),
		ChatID:    chatID,
		SenderID:  "user_me",
		Content:   content,
		Type:      models.MessageTypeText,
		Status:    models.StatusSent,
		CreatedAt: time.Now(),
	}
	f.store[chatID] = append(f.store[chatID], msg)
	return &msg, nil
}

// appendServerMessage simulates a message arriving server-side between polls.
func (f *fakeFallback) appendServerMessage(chatID string, msg models.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store[chatID] = append(f.store[chatID], msg)
}

func (f *fakeFallback) fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetchCalls
}

// fakeConn is a scriptable live connection.
type fakeConn struct {
	mu        sync.Mutex
	commands  []models.Command
	writeErr  error
	events    chan models.Event
	done      chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		events: make(chan models.Event, 16),
		done:   make(chan struct{}),
	}
}

func (f *fakeConn) WriteCommand(cmd models.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.commands = append(f.commands, cmd)
	return nil
}

func (f *fakeConn) ReadEvent() (models.Event, error) {
	select {
	case ev := <-f.events:
		return ev, nil
	case <-f.done:
		return models.Event{}, errors.New("connection closed")
	}
}

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() { close(f.done) })
	return nil
}

func (f *fakeConn) push(ev models.Event) {
	f.events <- ev
}

func (f *fakeConn) sent() []models.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Command, len(f.commands))
	copy(out, f.commands)
	return out
}

// newTestCoordinator narrows the timing knobs so the loops run in
// milliseconds. The baseline poll ticker is parked so individual tests can
// exercise one path at a time; dialing fails unless a test installs a conn.
func newTestCoordinator(fallback Fallback) *Coordinator {
	c := NewCoordinator("ws://test/ws", "user_me", fallback)
	c.pollInterval = time.Hour
	c.reconcileInterval = 10 * time.Millisecond
	c.reconcileAttempts = 3
	c.typingQuietPeriod = 50 * time.Millisecond
	c.reconnectBackoff = 5 * time.Millisecond
	c.reconnectAttempts = 1
	c.dial = func(string) (LiveConn, error) { return nil, errors.New("no live channel") }
	return c
}
