package service

import (
	"time"

	"intranet/internal/api/models"
)

// Repository interfaces consumed by the services. The gorm implementations
// live in internal/api/repo; tests substitute in-memory fakes. Not-found is
// signalled with gorm.ErrRecordNotFound, as the gorm layer does.

type ChatRepository interface {
	GetChatByID(chatID uint) (models.Chat, error)
	GetUserChats(userID uint) ([]models.Chat, error)
	GetPrivateChatBetween(user1ID uint, user2ID uint) (models.Chat, error)
	GetDepartmentChat(departmentID uint) (models.Chat, error)
	CreateChat(chat *models.Chat) error
	TouchLastActivity(chatID uint, at time.Time) error
}

type MessageRepository interface {
	GetChatMessages(chatID uint, page int, pageSize int) ([]models.Message, error)
	GetLastMessage(chatID uint) (models.Message, error)
	AddMessage(message *models.Message) error
	GetUnreadMessages(chatID uint, userID uint) ([]models.Message, error)
	MarkMessagesAsRead(ids []uint) error
}

// UserDirectory is the read-side user lookup shared by chat and
// publication flows.
type UserDirectory interface {
	FindByID(id uint) (models.User, error)
	DepartmentExists(id uint) (bool, error)
	GetUsersByDepartment(departmentID uint) ([]models.User, error)
	FindByIDs(ids []uint) ([]models.User, error)
}

type UserRepository interface {
	UserDirectory
	FindByEmail(email string) (models.User, error)
	ExistsByEmail(email string) (bool, error)
	Create(user *models.User) error
	Update(user *models.User) error
	GetAllWithDetails() ([]models.User, error)
}

type PublicationRepository interface {
	Create(publication *models.Publication) error
	GetByID(id uint) (models.Publication, error)
	GetApproved() ([]models.Publication, error)
	GetPendingByDepartment(departmentID uint) ([]models.Publication, error)
	Approve(publicationID uint, approverID uint, at time.Time) (bool, error)
	Reject(publicationID uint) (bool, error)
	AddComment(comment *models.Comment) error
	AddReaction(reaction *models.Reaction) error
}

// NotificationSender delivers outbound email. MailService implements it.
type NotificationSender interface {
	SendEmail(to string, subject string, htmlBody string) error
}

// ResetTokenStore holds short-lived password-reset tokens. The Redis
// implementation is in reset_store.go.
type ResetTokenStore interface {
	Save(token string, email string, ttl time.Duration) error
	// Consume returns the email bound to the token and invalidates it.
	Consume(token string) (string, error)
}

// EventPublisher pushes portal events to interested subscribers
// (NATS-backed in production, see notifier.go).
type EventPublisher interface {
	PublishPublicationApproved(event PublicationApprovedEvent) error
}

type PublicationApprovedEvent struct {
	PublicationID uint      `json:"publicationId"`
	DepartmentID  uint      `json:"departmentId"`
	AuthorID      uint      `json:"authorId"`
	AuthorName    string    `json:"authorName"`
	ApprovedAt    time.Time `json:"approvedAt"`
}
