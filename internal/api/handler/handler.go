package handler

import (
	"quickchat/backend/internal/chathub"
	"quickchat/backend/internal/store"
)

// Handler carries the hub and storage references shared by all routes.
type Handler struct {
	Hub       *chathub.Hub
	Storage   store.Storage
	JWTSecret []byte
	UploadDir string
}

func NewHandler(hub *chathub.Hub, s store.Storage, jwtSecret []byte, uploadDir string) *Handler {
	return &Handler{Hub: hub, Storage: s, JWTSecret: jwtSecret, UploadDir: uploadDir}
}
