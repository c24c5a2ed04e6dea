package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chat is a conversation room. It only exists so messages have something to
// hang off; presence and membership are runtime state owned by the hub.
type Chat struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"type:text" json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate generates a UUID for the chat if the ID is not set yet.
func (c *Chat) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}
