package repo

import (
	"intranet"
	"intranet/internal/api/models"

	"gorm.io/gorm"
)

type MessageRepository struct {
	Db *gorm.DB
}

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{Db: intranet.DB}
}

// GetChatMessages returns one page of messages, newest first.
func (slf *MessageRepository) GetChatMessages(chatID uint, page int, pageSize int) ([]models.Message, error) {
	var messages []models.Message
	err := slf.Db.
		Preload("Sender").
		Where("chat_id = ?", chatID).
		Order("sent_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&messages).Error
	return messages, err
}

func (slf *MessageRepository) GetLastMessage(chatID uint) (models.Message, error) {
	var message models.Message
	err := slf.Db.
		Preload("Sender").
		Where("chat_id = ?", chatID).
		Order("sent_at DESC").
		First(&message).Error
	return message, err
}

func (slf *MessageRepository) AddMessage(message *models.Message) error {
	return slf.Db.Create(message).Error
}

// GetUnreadMessages returns unread messages in the chat sent by someone
// other than userID.
func (slf *MessageRepository) GetUnreadMessages(chatID uint, userID uint) ([]models.Message, error) {
	var messages []models.Message
	err := slf.Db.
		Where("chat_id = ?", chatID).
		Where("is_read = ?", false).
		Where("sender_id <> ?", userID).
		Find(&messages).Error
	return messages, err
}

func (slf *MessageRepository) MarkMessagesAsRead(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return slf.Db.Model(&models.Message{}).
		Where("id IN ?", ids).
		Update("is_read", true).Error
}
