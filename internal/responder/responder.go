// Package responder produces canned auto-replies to user messages. It is
// deliberately opaque to the hub: given a relayed message it eventually
// submits zero or one reply through the same path as any other sender.
package responder

import (
	"log"
	"math/rand"
	"time"

	"quickchat/backend/internal/models"
)

// BotID is the sender identifier stamped on auto-replies.
const BotID = "assistant"

// Submitter is the slice of the hub the responder needs.
type Submitter interface {
	Submit(chatID, senderID, content, msgType, fileURL string) (*models.Message, error)
}

var cannedLines = []string{
	"Interesting, tell me more.",
	"Got it. Anything else on your mind?",
	"That makes sense to me.",
	"Good question. Let me think about that one.",
	"Thanks for sharing!",
	"I hear you.",
}

// Canned schedules one canned reply per incoming user text message, after a
// fixed delay.
type Canned struct {
	Hub   Submitter
	Delay time.Duration
}

func NewCanned(hub Submitter, delay time.Duration) *Canned {
	return &Canned{Hub: hub, Delay: delay}
}

// Reply never blocks the caller; the reply is submitted from its own
// goroutine after Delay. Messages from the bot itself are ignored so the
// responder cannot feed back into itself.
func (c *Canned) Reply(chatID string, msg *models.Message) {
	if msg == nil || msg.SenderID == BotID {
		return
	}
	line := cannedLines[rand.Intn(len(cannedLines))]
	go func() {
		time.Sleep(c.Delay)
		if _, err := c.Hub.Submit(chatID, BotID, line, models.MessageTypeText, ""); err != nil {
			log.Printf("WARNING: auto-reply for chat %s failed: %v", chatID, err)
		}
	}()
}
