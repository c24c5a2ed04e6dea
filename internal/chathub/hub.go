package chathub

import (
	"context"
	"errors"
	"log"

	"quickchat/backend/internal/models"
	"quickchat/backend/internal/store"
)

var (
	// ErrEmptyMessage rejects a submit with no content and no file before
	// any state is touched.
	ErrEmptyMessage = errors.New("chathub: message has no content and no file")
	// ErrHubStopped is returned by operations issued after Stop.
	ErrHubStopped = errors.New("chathub: hub is stopped")
)

// Responder produces at most one reply to a relayed user message. Reply
// must not block; implementations schedule their own work and submit the
// reply back through the hub.
type Responder interface {
	Reply(chatID string, msg *models.Message)
}

// RoomRequest asks the hub to join or leave a chat on behalf of a session.
type RoomRequest struct {
	Client Client
	ChatID string
}

// TypingRequest relays a typing flag change from a session.
type TypingRequest struct {
	Client   Client
	ChatID   string
	IsTyping bool
}

type membersQuery struct {
	chatID string
	reply  chan []string
}

// Hub owns the connection registry, the room membership map, and the
// per-room typing flags. All mutation happens on the Run loop, so handlers
// for connect/disconnect/join/leave/submit/typing never overlap; per-room
// event order is the order the triggering operations arrived.
type Hub struct {
	sessions map[string]Client            // session id -> client
	rooms    map[string]map[string]Client // chat id -> session id -> client
	typing   map[string]map[string]bool   // chat id -> user id -> typing

	RegisterCh   chan Client
	UnregisterCh chan Client
	JoinCh       chan RoomRequest
	LeaveCh      chan RoomRequest
	TypingCh     chan TypingRequest
	SubmitCh     chan models.SubmitRequest

	membersCh     chan membersQuery
	rebroadcastCh chan *models.Message

	Storage   store.Storage
	responder Responder

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub wires an idle hub around the given storage. Call Start to begin
// processing.
func NewHub(s store.Storage) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		sessions:      make(map[string]Client),
		rooms:         make(map[string]map[string]Client),
		typing:        make(map[string]map[string]bool),
		RegisterCh:    make(chan Client),
		UnregisterCh:  make(chan Client),
		JoinCh:        make(chan RoomRequest),
		LeaveCh:       make(chan RoomRequest),
		TypingCh:      make(chan TypingRequest),
		SubmitCh:      make(chan models.SubmitRequest),
		membersCh:     make(chan membersQuery),
		rebroadcastCh: make(chan *models.Message),
		Storage:       s,
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
	}
}

// SetResponder installs the auto-reply producer. Must be called before
// Start.
func (h *Hub) SetResponder(r Responder) {
	h.responder = r
}

// Start runs the presence recovery pass and launches the event loop.
func (h *Hub) Start() {
	h.recoverPresence()
	go h.run()
}

// Stop cancels the loop and waits until it has closed every client.
func (h *Hub) Stop() {
	h.cancel()
	<-h.done
}

func (h *Hub) run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case c := <-h.RegisterCh:
			h.handleRegister(c)

		case c := <-h.UnregisterCh:
			h.handleUnregister(c)

		case req := <-h.JoinCh:
			h.handleJoin(req.Client, req.ChatID)

		case req := <-h.LeaveCh:
			h.handleLeave(req.Client, req.ChatID)

		case req := <-h.TypingCh:
			h.handleTyping(req.Client, req.ChatID, req.IsTyping)

		case req := <-h.SubmitCh:
			h.handleSubmit(req)

		case msg := <-h.rebroadcastCh:
			h.handleRebroadcast(msg)

		case q := <-h.membersCh:
			q.reply <- h.memberSnapshot(q.chatID)
		}
	}
}

func (h *Hub) handleRegister(c Client) {
	if c == nil {
		return
	}
	h.sessions[c.GetSessionID()] = c
	log.Printf("Session %s registered (user %s). Total sessions: %d",
		c.GetSessionID(), c.GetUserID(), len(h.sessions))
}

// handleUnregister treats an active room membership as an implicit leave,
// then removes the session. Safe to call on an already-removed session.
func (h *Hub) handleUnregister(c Client) {
	if c == nil {
		return
	}
	if _, ok := h.sessions[c.GetSessionID()]; !ok {
		return
	}
	if room := c.GetRoomID(); room != "" {
		h.leaveRoom(c, room)
	}
	delete(h.sessions, c.GetSessionID())
	c.Close()
	log.Printf("Session %s unregistered. Total sessions: %d",
		c.GetSessionID(), len(h.sessions))
}

// ListMembers returns a snapshot of the user identifiers currently joined
// to a chat. The copy does not stay current after return.
func (h *Hub) ListMembers(chatID string) []string {
	q := membersQuery{chatID: chatID, reply: make(chan []string, 1)}
	select {
	case h.membersCh <- q:
		return <-q.reply
	case <-h.ctx.Done():
		return nil
	}
}

// Submit stamps, persists, and fans out one message, returning the stamped
// envelope synchronously. Safe to call from any goroutine.
func (h *Hub) Submit(chatID, senderID, content, msgType, fileURL string) (*models.Message, error) {
	if content == "" && fileURL == "" {
		return nil, ErrEmptyMessage
	}
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	req := models.SubmitRequest{
		ChatID:   chatID,
		SenderID: senderID,
		Content:  content,
		Type:     msgType,
		FileURL:  fileURL,
		ResultCh: make(chan models.SubmitResult, 1),
	}
	select {
	case h.SubmitCh <- req:
	case <-h.ctx.Done():
		return nil, ErrHubStopped
	}
	res := <-req.ResultCh
	return res.Message, res.Err
}

func (h *Hub) shutdownClients() {
	log.Printf("Hub stopping; closing %d sessions", len(h.sessions))
	for id, c := range h.sessions {
		delete(h.sessions, id)
		c.Close()
	}
	h.rooms = make(map[string]map[string]Client)
	h.typing = make(map[string]map[string]bool)
}

// recoverPresence clears stale Redis online mirrors left behind by a
// previous process. At startup no sessions are live, so every mirrored set
// is stale.
func (h *Hub) recoverPresence() {
	chatIDs, err := h.Storage.OnlineChatIDs()
	if err != nil {
		log.Printf("WARNING: presence recovery skipped: %v", err)
		return
	}
	for _, id := range chatIDs {
		if err := h.Storage.ClearOnlineUsers(id); err != nil {
			log.Printf("WARNING: failed to clear online mirror for chat %s: %v", id, err)
		}
	}
	if len(chatIDs) > 0 {
		log.Printf("Presence recovery complete. Cleared %d stale online sets.", len(chatIDs))
	}
}
