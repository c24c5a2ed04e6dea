package chathub_test

import (
	"quickchat/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify/mock implementation of the store.Storage
// interface, allowing flexible expectation setting in tests.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) SaveUser(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockStorage) SaveUserIfNotExists(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockStorage) SaveChat(chat *models.Chat) error {
	args := m.Called(chat)
	return args.Error(0)
}

func (m *MockStorage) GetChatByID(chatID string) (*models.Chat, error) {
	args := m.Called(chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Chat), args.Error(1)
}

func (m *MockStorage) ListChats() ([]models.Chat, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Chat), args.Error(1)
}

func (m *MockStorage) PurgeChat(chatID string) error {
	args := m.Called(chatID)
	return args.Error(0)
}

func (m *MockStorage) AppendMessage(msg *models.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockStorage) GetChatMessages(chatID string) ([]models.Message, error) {
	args := m.Called(chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockStorage) GetMessageByID(messageID string) (*models.Message, error) {
	args := m.Called(messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStorage) ToggleReaction(messageID, userID, emoji string) (*models.Message, error) {
	args := m.Called(messageID, userID, emoji)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

func (m *MockStorage) AddOnlineUser(chatID, userID string) error {
	args := m.Called(chatID, userID)
	return args.Error(0)
}

func (m *MockStorage) RemoveOnlineUser(chatID, userID string) error {
	args := m.Called(chatID, userID)
	return args.Error(0)
}

func (m *MockStorage) GetOnlineUsers(chatID string) ([]string, error) {
	args := m.Called(chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStorage) ClearOnlineUsers(chatID string) error {
	args := m.Called(chatID)
	return args.Error(0)
}

func (m *MockStorage) OnlineChatIDs() ([]string, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
