package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	jwt "github.com/golang-jwt/jwt/v5"

	"quickchat/backend/internal/models"
)

// generateToken signs a JWT carrying the opaque user identifier. The token
// is an install-scoped trust token, not an authenticated credential.
func (h *Handler) generateToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour * 72).Unix(),
		"iss":     "quickchat-service",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.JWTSecret)
}

// GetIdentity mints a fresh opaque user identifier, records it, and returns
// it together with a signed token the client may persist.
func (h *Handler) GetIdentity(c *gin.Context) {
	userID := uuid.New().String()

	if err := h.Storage.SaveUserIfNotExists(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record identity"})
		return
	}

	token, err := h.generateToken(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":         token,
		"user_id":       userID,
		"display_label": models.DisplayLabel(userID),
	})
}
