package handler_test

import (
	"sync"

	"github.com/google/uuid"

	"quickchat/backend/internal/models"
)

// stubStorage is an in-memory store.Storage for handler tests.
type stubStorage struct {
	mu        sync.Mutex
	chats     []models.Chat
	messages  map[string][]models.Message
	reaction  *models.Message // returned by ToggleReaction
	userSaves []string
}

func newStubStorage() *stubStorage {
	return &stubStorage{messages: map[string][]models.Message{}}
}

func (s *stubStorage) SaveUser(user *models.User) error { return nil }

func (s *stubStorage) SaveUserIfNotExists(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userSaves = append(s.userSaves, userID)
	return nil
}

func (s *stubStorage) SaveChat(chat *models.Chat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}
	s.chats = append(s.chats, *chat)
	return nil
}

func (s *stubStorage) GetChatByID(chatID string) (*models.Chat, error) { return nil, nil }

func (s *stubStorage) ListChats() ([]models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Chat{}, s.chats...), nil
}

func (s *stubStorage) PurgeChat(chatID string) error { return nil }

func (s *stubStorage) AppendMessage(msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.ChatID] = append(s.messages[msg.ChatID], *msg)
	return nil
}

func (s *stubStorage) GetChatMessages(chatID string) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message{}, s.messages[chatID]...), nil
}

func (s *stubStorage) GetMessageByID(messageID string) (*models.Message, error) { return nil, nil }

func (s *stubStorage) ToggleReaction(messageID, userID, emoji string) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reaction, nil
}

func (s *stubStorage) AddOnlineUser(chatID, userID string) error    { return nil }
func (s *stubStorage) RemoveOnlineUser(chatID, userID string) error { return nil }
func (s *stubStorage) GetOnlineUsers(chatID string) ([]string, error) {
	return nil, nil
}
func (s *stubStorage) ClearOnlineUsers(chatID string) error { return nil }
func (s *stubStorage) OnlineChatIDs() ([]string, error)     { return []string{}, nil }

func (s *stubStorage) stored(chatID string) []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message{}, s.messages[chatID]...)
}
