package store

import (
	"context"
	"errors"
	"log"
	"slices"

	"quickchat/backend/internal/models"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Storage is the external-store boundary the realtime core talks to. The
// hub only ever creates/reads/appends through this interface, keyed by
// opaque identifiers; tests substitute a mock.
type Storage interface {
	SaveUser(user *models.User) error
	SaveUserIfNotExists(userID string) error

	SaveChat(chat *models.Chat) error
	GetChatByID(chatID string) (*models.Chat, error)
	ListChats() ([]models.Chat, error)
	PurgeChat(chatID string) error

	AppendMessage(msg *models.Message) error
	GetChatMessages(chatID string) ([]models.Message, error)
	GetMessageByID(messageID string) (*models.Message, error)
	ToggleReaction(messageID, userID, emoji string) (*models.Message, error)

	AddOnlineUser(chatID, userID string) error
	RemoveOnlineUser(chatID, userID string) error
	GetOnlineUsers(chatID string) ([]string, error)
	ClearOnlineUsers(chatID string) error
	OnlineChatIDs() ([]string, error)
}

// Service implements Storage on PostgreSQL (gorm) plus a Redis mirror of
// per-chat online member sets. Redis may be nil for tools that only need
// the database.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewService Constructor
func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

func (s *Service) SaveUser(user *models.User) error {
	return s.DB.Save(user).Error
}

// SaveUserIfNotExists records a user on first contact, keeping whatever
// profile data already exists.
func (s *Service) SaveUserIfNotExists(userID string) error {
	var user models.User
	result := s.DB.Where("id = ?", userID).FirstOrCreate(&user, models.User{ID: userID})
	if result.Error != nil {
		log.Printf("ERROR: Failed to save user %s on first contact: %v", userID, result.Error)
		return result.Error
	}
	return nil
}

func (s *Service) SaveChat(chat *models.Chat) error {
	return s.DB.Save(chat).Error
}

func (s *Service) GetChatByID(chatID string) (*models.Chat, error) {
	var chat models.Chat
	err := s.DB.Where("id = ?", chatID).First(&chat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.New("chat not found")
	}
	if err != nil {
		log.Printf("ERROR: Failed to get chat %s: %v", chatID, err)
		return nil, err
	}
	return &chat, nil
}

func (s *Service) ListChats() ([]models.Chat, error) {
	var chats []models.Chat
	if err := s.DB.Order("created_at asc").Find(&chats).Error; err != nil {
		return nil, err
	}
	return chats, nil
}

// PurgeChat removes a chat together with its messages and reactions.
func (s *Service) PurgeChat(chatID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id IN (?)",
			tx.Model(&models.Message{}).Select("id").Where("chat_id = ?", chatID),
		).Delete(&models.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("chat_id = ?", chatID).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", chatID).Delete(&models.Chat{}).Error
	})
}

// AppendMessage persists one envelope. The message ID is generated by the
// BeforeCreate hook when the caller has not minted one.
func (s *Service) AppendMessage(msg *models.Message) error {
	if err := s.DB.Create(msg).Error; err != nil {
		log.Printf("ERROR: Failed to append message for chat %s: %v", msg.ChatID, err)
		return err
	}
	return nil
}

// GetChatMessages returns the full ordered message list for a chat. An
// unknown chat yields an empty list, not an error.
func (s *Service) GetChatMessages(chatID string) ([]models.Message, error) {
	var msgs []models.Message
	err := s.DB.Where("chat_id = ?", chatID).
		Preload("Reactions").
		Order("created_at asc, id asc").
		Find(&msgs).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return msgs, nil
		}
		log.Printf("ERROR: Failed to get messages for chat %s: %v", chatID, err)
		return nil, err
	}
	return msgs, nil
}

func (s *Service) GetMessageByID(messageID string) (*models.Message, error) {
	var msg models.Message
	err := s.DB.Preload("Reactions").Where("id = ?", messageID).First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ToggleReaction adds the user to the emoji's contributor list, or removes
// them if already present. Empty reactions are deleted. Returns the updated
// envelope.
func (s *Service) ToggleReaction(messageID, userID, emoji string) (*models.Message, error) {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var reaction models.Reaction
		err := tx.Where("message_id = ? AND emoji = ?", messageID, emoji).First(&reaction).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&models.Reaction{
				MessageID: messageID,
				Emoji:     emoji,
				Count:     1,
				UserIDs:   pq.StringArray{userID},
			}).Error
		}
		if err != nil {
			return err
		}

		if i := slices.Index(reaction.UserIDs, userID); i >= 0 {
			reaction.UserIDs = slices.Delete(reaction.UserIDs, i, i+1)
			reaction.Count--
			if reaction.Count <= 0 {
				return tx.Delete(&reaction).Error
			}
			return tx.Save(&reaction).Error
		}

		reaction.UserIDs = append(reaction.UserIDs, userID)
		reaction.Count++
		return tx.Save(&reaction).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetMessageByID(messageID)
}

const onlineKeyPrefix = "online:"

// AddOnlineUser mirrors a join into the per-chat Redis online set.
func (s *Service) AddOnlineUser(chatID, userID string) error {
	return s.Redis.SAdd(s.Ctx, onlineKeyPrefix+chatID, userID).Err()
}

// RemoveOnlineUser mirrors a leave out of the per-chat Redis online set.
func (s *Service) RemoveOnlineUser(chatID, userID string) error {
	return s.Redis.SRem(s.Ctx, onlineKeyPrefix+chatID, userID).Err()
}

// GetOnlineUsers returns the mirrored member set for a chat.
func (s *Service) GetOnlineUsers(chatID string) ([]string, error) {
	members, err := s.Redis.SMembers(s.Ctx, onlineKeyPrefix+chatID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return members, err
}

// ClearOnlineUsers drops the mirror for a chat entirely, used by the
// startup recovery pass for rooms that no longer have live sessions.
func (s *Service) ClearOnlineUsers(chatID string) error {
	return s.Redis.Del(s.Ctx, onlineKeyPrefix+chatID).Err()
}

// OnlineChatIDs lists every chat that still has a mirror entry.
func (s *Service) OnlineChatIDs() ([]string, error) {
	keys, err := s.Redis.Keys(s.Ctx, onlineKeyPrefix+"*").Result()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, k[len(onlineKeyPrefix):])
	}
	return ids, nil
}
