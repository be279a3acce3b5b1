package response

import "time"

type ChatDTO struct {
	ID             uint                 `json:"id"`
	Name           string               `json:"name"`
	ChatType       string               `json:"chatType"`
	CreatedAt      time.Time            `json:"createdAt"`
	LastActivityAt *time.Time           `json:"lastActivityAt,omitempty"`
	DepartmentID   *uint                `json:"departmentId,omitempty"`
	DepartmentName string               `json:"departmentName,omitempty"`
	UnreadCount    int                  `json:"unreadCount"`
	LastMessage    *MessageDTO          `json:"lastMessage,omitempty"`
	Participants   []ChatParticipantDTO `json:"participants"`
}

type ChatParticipantDTO struct {
	UserID   uint      `json:"userId"`
	UserName string    `json:"userName"`
	IsAdmin  bool      `json:"isAdmin"`
	JoinedAt time.Time `json:"joinedAt"`
}

type MessageDTO struct {
	ID         uint      `json:"id"`
	Content    string    `json:"content"`
	SentAt     time.Time `json:"sentAt"`
	IsRead     bool      `json:"isRead"`
	SenderID   uint      `json:"senderId"`
	SenderName string    `json:"senderName"`
	ChatID     uint      `json:"chatId"`
}
