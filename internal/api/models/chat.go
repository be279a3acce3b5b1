package models

import (
	"time"
)

type ChatType string

const (
	ChatTypePrivate ChatType = "private"
	ChatTypeGroup   ChatType = "group"
)

type Chat struct {
	ID             uint       `gorm:"primaryKey"`
	Name           *string    `gorm:"column:name"` // nil for private chats
	Type           ChatType   `gorm:"not null;column:type"`
	CreatedAt      time.Time  `gorm:"autoCreateTime;column:created_at"`
	LastActivityAt *time.Time `gorm:"column:last_activity_at"`
	DepartmentID   *uint      `gorm:"column:department_id"` // group chats only
	Department     *Department

	Participants []ChatParticipant `gorm:"foreignKey:ChatID"`
	Messages     []Message         `gorm:"foreignKey:ChatID"`
}

func (Chat) TableName() string {
	return "chats"
}

// HasParticipant reports whether the user is a current participant.
// Relies on Participants being preloaded.
func (c Chat) HasParticipant(userID uint) bool {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

type ChatParticipant struct {
	ID       uint      `gorm:"primaryKey"`
	ChatID   uint      `gorm:"not null;uniqueIndex:idx_chat_user;column:chat_id"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_chat_user;column:user_id"`
	User     *User
	IsAdmin  bool      `gorm:"default:false;column:is_admin"`
	JoinedAt time.Time `gorm:"autoCreateTime;column:joined_at"`
}

func (ChatParticipant) TableName() string {
	return "chat_participants"
}

type Message struct {
	ID       uint      `gorm:"primaryKey"`
	Content  string    `gorm:"not null;type:text"`
	SenderID uint      `gorm:"not null;index;column:sender_id"`
	Sender   *User
	ChatID   uint      `gorm:"not null;index;column:chat_id"`
	SentAt   time.Time `gorm:"not null;index;column:sent_at"`
	IsRead   bool      `gorm:"default:false;column:is_read"`
}

func (Message) TableName() string {
	return "messages"
}
