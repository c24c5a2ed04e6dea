// Package chatclient implements the client-side delivery coordinator: an
// optimistic local transcript fed by a live WebSocket channel when one is
// up, and by a request/response fallback plus periodic full-list polling
// when it is not.
package chatclient

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"quickchat/backend/internal/config"
	"quickchat/backend/internal/models"
)

// ErrNoRoomOpen is returned by Send when no room has been opened.
var ErrNoRoomOpen = errors.New("chatclient: no room open")

// matchWindow bounds the content+timestamp proximity used to match a live
// echo of an own message against its optimistic entry.
const matchWindow = 10 * time.Second

// Coordinator reconciles an unreliable dual-path delivery protocol (live
// push plus periodic pull) against a local optimistic message list. All
// exported methods are safe for concurrent use.
type Coordinator struct {
	userID   string
	wsURL    string
	fallback Fallback
	dial     Dialer

	// Timing knobs, defaulted from config; narrowed in tests.
	pollInterval      time.Duration
	reconcileInterval time.Duration
	reconcileAttempts int
	typingQuietPeriod time.Duration
	reconnectBackoff  time.Duration
	reconnectAttempts int

	mu         sync.Mutex
	chatID     string
	transcript []models.Message
	draft      string
	conn       LiveConn

	typingActive bool
	typingTimer  *time.Timer

	roomCancel context.CancelFunc
	roomCtx    context.Context

	// Optional observers, invoked outside the coordinator's lock.
	OnTranscript func([]models.Message)
	OnPresence   func(models.PresenceChange)
	OnTyping     func(models.TypingChange)
	OnError      func(error)
}

// NewCoordinator builds an idle coordinator. wsURL is the live-channel
// endpoint (e.g. ws://host/ws); the fallback talks to the REST endpoints.
func NewCoordinator(wsURL, userID string, fallback Fallback) *Coordinator {
	return &Coordinator{
		userID:            userID,
		wsURL:             wsURL,
		fallback:          fallback,
		dial:              DialWebSocket,
		pollInterval:      config.PollInterval,
		reconcileInterval: config.ReconcileInterval,
		reconcileAttempts: config.ReconcileAttempts,
		typingQuietPeriod: config.TypingQuietPeriod,
		reconnectBackoff:  config.ReconnectBackoff,
		reconnectAttempts: config.ReconnectAttempts,
	}
}

// OpenRoom switches the coordinator to a chat: it resets the transcript,
// starts the live-channel connect loop, and starts the baseline polling
// loop. Opening a room closes the previous one.
func (c *Coordinator) OpenRoom(chatID string) {
	c.closeRoom(true)

	ctx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.chatID = chatID
	c.transcript = nil
	c.roomCtx = ctx
	c.roomCancel = cancel
	c.mu.Unlock()

	go c.connectLoop(ctx, chatID)
	go c.pollLoop(ctx, chatID)
}

// Close leaves the current room and tears down every timer and connection.
// No callback fires after Close returns the room cancelled.
func (c *Coordinator) Close() {
	c.closeRoom(true)
}

// LeaveRoom exits the current room without shutting the coordinator down;
// a later OpenRoom reuses it.
func (c *Coordinator) LeaveRoom() {
	c.closeRoom(true)
}

func (c *Coordinator) closeRoom(sendLeave bool) {
	c.mu.Lock()
	chatID := c.chatID
	conn := c.conn
	cancel := c.roomCancel
	timer := c.typingTimer
	c.chatID = ""
	c.conn = nil
	c.roomCancel = nil
	c.roomCtx = nil
	c.typingTimer = nil
	c.typingActive = false
	c.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	if conn != nil {
		if sendLeave && chatID != "" {
			conn.WriteCommand(models.Command{Action: models.ActionLeave, ChatID: chatID})
		}
		conn.Close()
	}
	if cancel != nil {
		cancel()
	}
}

// Send appends an optimistic "sending" entry, then delivers over the live
// channel if one is up, or over the fallback otherwise. On fallback failure
// the optimistic entry is removed and the content parked in Draft for
// retry; on fallback success a bounded reconciliation poll is started to
// pick up any asynchronous autoresponse.
func (c *Coordinator) Send(content string) error {
	c.mu.Lock()
	chatID := c.chatID
	conn := c.conn
	ctx := c.roomCtx
	c.mu.Unlock()
	if chatID == "" {
		return ErrNoRoomOpen
	}

	localID := uuid.New().String()
	c.appendEntry(models.Message{
		ID:        localID,
		ChatID:    chatID,
		SenderID:  c.userID,
		Content:   content,
		Type:      models.MessageTypeText,
		Status:    models.StatusSending,
		CreatedAt: time.Now(),
	})

	if conn != nil {
		err := conn.WriteCommand(models.Command{
			Action:  models.ActionMessage,
			ChatID:  chatID,
			Content: content,
			Type:    models.MessageTypeText,
		})
		if err == nil {
			// The push completed; no server acknowledgment is required for
			// the sent transition. The broadcast echo is matched later by
			// content proximity.
			c.setStatus(localID, models.StatusSent)
			return nil
		}
		// Dead connection; the connect loop will notice. Fall back.
	}

	msg, err := c.fallback.PostMessage(chatID, content)
	if err != nil {
		c.removeEntry(localID)
		c.mu.Lock()
		c.draft = content
		c.mu.Unlock()
		if c.OnError != nil {
			c.OnError(err)
		}
		return err
	}

	c.swapEntry(localID, *msg)
	baseline := c.transcriptLen()
	go c.reconcile(ctx, chatID, baseline)
	return nil
}

// Draft returns and clears content restored from a failed send.
func (c *Coordinator) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.draft
	c.draft = ""
	return d
}

// Transcript returns a copy of the current local transcript.
func (c *Coordinator) Transcript() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Message, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// MarkRead transitions every delivered message in the transcript to read.
// Receipts are client-local; there is no server-side read protocol.
func (c *Coordinator) MarkRead() {
	c.mu.Lock()
	for i := range c.transcript {
		if c.transcript[i].Status == models.StatusDelivered {
			c.transcript[i].Status = models.StatusRead
		}
	}
	c.mu.Unlock()
	c.notifyTranscript()
}

// reconcile polls the full-list fetch at a fixed interval, bounded by a
// maximum attempt count, stopping as soon as the fetched list has grown
// past the baseline observed right after the send. Reaching the bound is
// not an error: the message itself was already accepted.
func (c *Coordinator) reconcile(ctx context.Context, chatID string, baseline int) {
	if ctx == nil {
		return
	}
	for attempt := 0; attempt < c.reconcileAttempts; attempt++ {
		if !sleepCtx(ctx, c.reconcileInterval) {
			return
		}
		msgs, err := c.fallback.FetchMessages(chatID)
		if err != nil {
			continue
		}
		if len(msgs) > baseline {
			c.replaceTranscript(chatID, msgs)
			return
		}
	}
}

// pollLoop is the baseline polling loop: for as long as the room is open it
// re-fetches the full list on a fixed interval to catch anything the live
// channel missed (reconnect gaps included).
func (c *Coordinator) pollLoop(ctx context.Context, chatID string) {
	c.fetchAndReplace(chatID)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.fetchAndReplace(chatID)
		}
	}
}

func (c *Coordinator) fetchAndReplace(chatID string) {
	msgs, err := c.fallback.FetchMessages(chatID)
	if err != nil {
		log.Printf("poll fetch for chat %s failed: %v", chatID, err)
		return
	}
	c.replaceTranscript(chatID, msgs)
}

// replaceTranscript installs a fetched list verbatim: the server list is
// the source of truth on arrival. This is blind replacement, mirroring the
// original behavior — a poll that fires while a send is still in flight
// drops the transient "sending" entry until the next snapshot includes it.
// A merge that re-inserts unmatched sending entries would close that race
// at the cost of resurrecting messages the server rejected.
func (c *Coordinator) replaceTranscript(chatID string, msgs []models.Message) {
	c.mu.Lock()
	if c.chatID != chatID {
		c.mu.Unlock()
		return
	}
	c.transcript = msgs
	c.mu.Unlock()
	c.notifyTranscript()
}

// handleEvent consumes one server-pushed event from the live channel.
func (c *Coordinator) handleEvent(ev models.Event) {
	switch ev.Type {
	case models.EventMessageCreated:
		if ev.Message != nil {
			c.mergeIncoming(*ev.Message)
		}
	case models.EventPresenceChanged:
		if ev.Presence != nil && c.OnPresence != nil {
			c.OnPresence(*ev.Presence)
		}
	case models.EventTypingChanged:
		if ev.Typing != nil && c.OnTyping != nil {
			c.OnTyping(*ev.Typing)
		}
	}
}

// mergeIncoming folds a pushed envelope into the transcript. De-duplication
// is by identifier first; an own message that arrives under a fresh server
// identifier is matched to its optimistic entry by content and timestamp
// proximity (the echo of a message this coordinator pushed).
func (c *Coordinator) mergeIncoming(msg models.Message) {
	c.mu.Lock()
	if c.chatID != msg.ChatID {
		c.mu.Unlock()
		return
	}

	for i := range c.transcript {
		if c.transcript[i].ID == msg.ID {
			reactions := msg.Reactions
			status := c.transcript[i].Status
			c.transcript[i] = msg
			c.transcript[i].Reactions = reactions
			if status == models.StatusDelivered || status == models.StatusRead {
				c.transcript[i].Status = status
			}
			c.mu.Unlock()
			c.notifyTranscript()
			return
		}
	}

	if msg.SenderID == c.userID {
		for i := range c.transcript {
			e := &c.transcript[i]
			if e.SenderID == c.userID && e.Content == msg.Content &&
				(e.Status == models.StatusSending || e.Status == models.StatusSent) &&
				msg.CreatedAt.Sub(e.CreatedAt) < matchWindow {
				c.transcript[i] = msg
				c.mu.Unlock()
				c.notifyTranscript()
				return
			}
		}
	} else {
		msg.Status = models.StatusDelivered
	}

	c.transcript = append(c.transcript, msg)
	c.mu.Unlock()
	c.notifyTranscript()
}

func (c *Coordinator) appendEntry(msg models.Message) {
	c.mu.Lock()
	c.transcript = append(c.transcript, msg)
	c.mu.Unlock()
	c.notifyTranscript()
}

func (c *Coordinator) removeEntry(id string) {
	c.mu.Lock()
	for i := range c.transcript {
		if c.transcript[i].ID == id {
			c.transcript = append(c.transcript[:i], c.transcript[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	c.notifyTranscript()
}

func (c *Coordinator) swapEntry(id string, msg models.Message) {
	c.mu.Lock()
	for i := range c.transcript {
		if c.transcript[i].ID == id {
			c.transcript[i] = msg
			break
		}
	}
	c.mu.Unlock()
	c.notifyTranscript()
}

func (c *Coordinator) setStatus(id, status string) {
	c.mu.Lock()
	for i := range c.transcript {
		if c.transcript[i].ID == id {
			c.transcript[i].Status = status
			break
		}
	}
	c.mu.Unlock()
	c.notifyTranscript()
}

func (c *Coordinator) transcriptLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.transcript)
}

func (c *Coordinator) notifyTranscript() {
	if c.OnTranscript != nil {
		c.OnTranscript(c.Transcript())
	}
}

func (c *Coordinator) setConn(conn LiveConn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

// Connected reports whether the live channel is currently established.
func (c *Coordinator) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}
