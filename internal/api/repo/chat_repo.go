package repo

import (
	"time"

	"intranet"
	"intranet/internal/api/models"

	"gorm.io/gorm"
)

type ChatRepository struct {
	Db *gorm.DB
}

func NewChatRepository() *ChatRepository {
	return &ChatRepository{Db: intranet.DB}
}

func (slf *ChatRepository) GetChatByID(chatID uint) (models.Chat, error) {
	var chat models.Chat
	err := slf.Db.
		Preload("Department").
		Preload("Participants").
		Preload("Participants.User").
		First(&chat, chatID).Error
	return chat, err
}

func (slf *ChatRepository) GetUserChats(userID uint) ([]models.Chat, error) {
	var chats []models.Chat
	err := slf.Db.
		Preload("Department").
		Preload("Participants").
		Preload("Participants.User").
		Joins("JOIN chat_participants cp ON cp.chat_id = chats.id AND cp.user_id = ?", userID).
		Order("chats.last_activity_at DESC NULLS LAST").
		Find(&chats).Error
	return chats, err
}

func (slf *ChatRepository) GetPrivateChatBetween(user1ID uint, user2ID uint) (models.Chat, error) {
	var chat models.Chat
	err := slf.Db.
		Preload("Participants").
		Preload("Participants.User").
		Where("type = ?", models.ChatTypePrivate).
		Where("id IN (?)", slf.Db.Model(&models.ChatParticipant{}).Select("chat_id").Where("user_id = ?", user1ID)).
		Where("id IN (?)", slf.Db.Model(&models.ChatParticipant{}).Select("chat_id").Where("user_id = ?", user2ID)).
		First(&chat).Error
	return chat, err
}

func (slf *ChatRepository) GetDepartmentChat(departmentID uint) (models.Chat, error) {
	var chat models.Chat
	err := slf.Db.
		Preload("Participants").
		Preload("Participants.User").
		Where("type = ?", models.ChatTypeGroup).
		Where("department_id = ?", departmentID).
		First(&chat).Error
	return chat, err
}

func (slf *ChatRepository) CreateChat(chat *models.Chat) error {
	return slf.Db.Create(chat).Error
}

// TouchLastActivity is a no-op when the chat no longer exists.
func (slf *ChatRepository) TouchLastActivity(chatID uint, at time.Time) error {
	return slf.Db.Model(&models.Chat{}).
		Where("id = ?", chatID).
		Update("last_activity_at", at).Error
}
