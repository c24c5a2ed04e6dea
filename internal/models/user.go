package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an opaque, client-scoped identity. The ID is generated on first
// contact and never validated beyond being non-empty; it is a trust token,
// not an authenticated principal.
type User struct {
	ID          string `gorm:"primaryKey" json:"id"`
	DisplayName string `gorm:"type:text" json:"display_name"`
}

// BeforeCreate generates a new UUID for the user if the ID is not set yet.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// DisplayLabel derives a deterministic human-readable label for a user that
// has no known profile name: "Guest-" plus the identifier's alphanumeric
// characters in order, separators skipped, capped at 8.
func DisplayLabel(userID string) string {
	var b strings.Builder
	for _, r := range userID {
		if b.Len() == 8 {
			break
		}
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "Guest"
	}
	return "Guest-" + b.String()
}
