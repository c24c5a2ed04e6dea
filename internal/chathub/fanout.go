package chathub

import (
	"time"

	"github.com/google/uuid"

	"quickchat/backend/internal/models"
)

// handleSubmit stamps the envelope, appends it to the store, replies to the
// submitter, and only then broadcasts. A chat with no joined sessions still
// accepts the message: fanout is a best-effort live notification, the store
// is the system of record.
func (h *Hub) handleSubmit(req models.SubmitRequest) {
	msg := &models.Message{
		ID:        uuid.New().String(),
		ChatID:    req.ChatID,
		SenderID:  req.SenderID,
		Content:   req.Content,
		Type:      req.Type,
		FileURL:   req.FileURL,
		Status:    models.StatusSent,
		CreatedAt: time.Now(),
	}

	if err := h.Storage.AppendMessage(msg); err != nil {
		req.ResultCh <- models.SubmitResult{Err: err}
		return
	}

	req.ResultCh <- models.SubmitResult{Message: msg}

	h.broadcastRoom(req.ChatID, models.Event{
		Type:    models.EventMessageCreated,
		ChatID:  req.ChatID,
		Message: msg,
	})

	if h.responder != nil && msg.Type == models.MessageTypeText {
		h.responder.Reply(req.ChatID, msg)
	}
}

// BroadcastMessage pushes an already-stamped envelope to every session in
// its chat, without re-persisting it. Used when an envelope changes outside
// the submit path, e.g. a reaction toggle. Safe to call from any goroutine.
func (h *Hub) BroadcastMessage(msg *models.Message) {
	if msg == nil {
		return
	}
	select {
	case h.rebroadcastCh <- msg:
	case <-h.ctx.Done():
	}
}

func (h *Hub) handleRebroadcast(msg *models.Message) {
	h.broadcastRoom(msg.ChatID, models.Event{
		Type:    models.EventMessageCreated,
		ChatID:  msg.ChatID,
		Message: msg,
	})
}
