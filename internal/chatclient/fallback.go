package chatclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"quickchat/backend/internal/models"
)

// Fallback is the request/response channel used when the live channel is
// unavailable, and the source of the authoritative snapshots the
// coordinator reconciles against.
type Fallback interface {
	// FetchMessages returns the full ordered envelope list for a chat.
	FetchMessages(chatID string) ([]models.Message, error)
	// PostMessage submits one message and returns the stamped envelope.
	// No autoresponse is ever returned synchronously.
	PostMessage(chatID, content string) (*models.Message, error)
}

// HTTPFallback talks to the chat REST endpoints.
type HTTPFallback struct {
	BaseURL string
	UserID  string
	Client  *http.Client
}

func NewHTTPFallback(baseURL, userID string) *HTTPFallback {
	return &HTTPFallback{
		BaseURL: baseURL,
		UserID:  userID,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (f *HTTPFallback) FetchMessages(chatID string) ([]models.Message, error) {
	req, err := http.NewRequest(http.MethodGet, f.BaseURL+"/api/chats/"+chatID+"/messages", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-User-ID", f.UserID)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch messages: unexpected status %d", resp.StatusCode)
	}

	var msgs []models.Message
	if err := json.NewDecoder(resp.Body).Decode(&msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (f *HTTPFallback) PostMessage(chatID, content string) (*models.Message, error) {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, f.BaseURL+"/api/chats/"+chatID+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", f.UserID)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("post message: unexpected status %d", resp.StatusCode)
	}

	var msg models.Message
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
