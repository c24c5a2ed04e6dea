package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Message type tags.
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeFile  = "file"
)

// Delivery status progression: sending -> sent -> delivered -> read.
// "sending" only ever exists client-side; the server stamps relayed
// messages as "sent". "failed" is terminal.
const (
	StatusSending   = "sending"
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
	StatusFailed    = "failed"
)

// Message is the envelope for a single chat message: the content plus its
// delivery metadata. Rows live in PostgreSQL; the same struct is the JSON
// wire shape on both the WebSocket and the REST fallback.
type Message struct {
	// ID is a unique identifier (UUID). Creation order is recovered by
	// sorting on CreatedAt with ID as tie-break.
	ID string `gorm:"primaryKey" json:"id"`
	// ChatID scopes the message to one chat room.
	ChatID string `gorm:"type:text;not null;index:idx_chat_msg" json:"chat_id"`
	// SenderID is the opaque user identifier of the author.
	SenderID string `gorm:"type:text;not null;index:idx_chat_msg" json:"sender_id"`
	// Content is the message body (empty for pure file messages).
	Content string `gorm:"type:text" json:"content"`
	// Type is one of the MessageType constants.
	Type string `gorm:"type:text;not null" json:"type"`
	// FileURL points at an uploaded attachment, when present.
	FileURL string `gorm:"type:text" json:"file_url,omitempty"`
	// Status is one of the delivery status constants.
	Status string `gorm:"type:text;not null" json:"status"`

	Reactions []Reaction `gorm:"foreignKey:MessageID" json:"reactions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate generates a UUID when the caller has not minted one.
func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}

// Reaction aggregates one emoji on one message together with the users who
// contributed it.
type Reaction struct {
	ID        uint           `gorm:"primaryKey" json:"-"`
	MessageID string         `gorm:"type:text;not null;index" json:"-"`
	Emoji     string         `gorm:"type:text;not null" json:"emoji"`
	Count     int            `json:"count"`
	UserIDs   pq.StringArray `gorm:"type:text[]" json:"user_ids"`
}
