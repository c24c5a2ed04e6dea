package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"quickchat/backend/internal/chathub"
	"quickchat/backend/internal/models"
)

type createChatRequest struct {
	Title string `json:"title"`
}

// CreateChat registers a new conversation room.
func (h *Handler) CreateChat(c *gin.Context) {
	var req createChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	chat := &models.Chat{Title: req.Title}
	if err := h.Storage.SaveChat(chat); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create chat"})
		return
	}

	c.JSON(http.StatusCreated, chat)
}

// ListChats returns all chats, oldest first.
func (h *Handler) ListChats(c *gin.Context) {
	chats, err := h.Storage.ListChats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list chats"})
		return
	}
	c.JSON(http.StatusOK, chats)
}

// GetMessages is the fallback fetch: the full ordered envelope list for a
// chat, keyed by the X-User-ID header. This list is the authoritative
// snapshot clients reconcile against.
func (h *Handler) GetMessages(c *gin.Context) {
	if c.GetHeader("X-User-ID") == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-User-ID header required"})
		return
	}

	msgs, err := h.Storage.GetChatMessages(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, msgs)
}

type postMessageRequest struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

// PostMessage is the fallback send. It accepts either a JSON body or a
// multipart form carrying a file part, submits through the hub (same
// stamping and fanout as the live path), and returns the stamped envelope.
// Any autoresponse is discovered by a later fetch, never returned here.
func (h *Handler) PostMessage(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-User-ID header required"})
		return
	}
	chatID := c.Param("id")

	var content, msgType, fileURL string

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		content = c.PostForm("content")
		msgType = c.PostForm("type")
		file, err := c.FormFile("file")
		if err == nil {
			name := uuid.New().String() + filepath.Ext(file.Filename)
			if err := c.SaveUploadedFile(file, filepath.Join(h.UploadDir, name)); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
				return
			}
			fileURL = "/uploads/" + name
			if msgType == "" {
				msgType = models.MessageTypeFile
			}
		}
	} else {
		var req postMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		content = req.Content
		msgType = req.Type
	}

	msg, err := h.Hub.Submit(chatID, userID, content, msgType, fileURL)
	if err != nil {
		if errors.Is(err, chathub.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Message needs content or a file"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit message"})
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// GetOnline reports the chat's current member snapshot from the hub.
func (h *Handler) GetOnline(c *gin.Context) {
	chatID := c.Param("id")
	members := h.Hub.ListMembers(chatID)
	c.JSON(http.StatusOK, gin.H{
		"chat_id": chatID,
		"members": members,
		"count":   len(members),
	})
}

type reactionRequest struct {
	Emoji string `json:"emoji"`
}

// ToggleReaction adds or removes the caller's reaction on a message and
// rebroadcasts the updated envelope to the chat's live sessions.
func (h *Handler) ToggleReaction(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "X-User-ID header required"})
		return
	}

	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Emoji == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "emoji required"})
		return
	}

	msg, err := h.Storage.ToggleReaction(c.Param("mid"), userID, req.Emoji)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle reaction"})
		return
	}
	if msg == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		return
	}

	h.Hub.BroadcastMessage(msg)
	c.JSON(http.StatusOK, msg)
}
