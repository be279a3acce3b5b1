package service

import (
	"errors"
	"time"

	"intranet/internal/api/handler/response"
	"intranet/internal/api/models"
	"intranet/pkg"
	"intranet/pkg/apperr"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const defaultMessagePageSize = 20

// ChatService enforces chat business rules and mediates between the
// repositories and the realtime layer.
type ChatService struct {
	chats    ChatRepository
	messages MessageRepository
	users    UserDirectory
	logger   zerolog.Logger
}

func NewChatService(chats ChatRepository, messages MessageRepository, users UserDirectory, logger zerolog.Logger) *ChatService {
	return &ChatService{
		chats:    chats,
		messages: messages,
		users:    users,
		logger:   logger,
	}
}

func (slf *ChatService) GetUserChats(userID uint) ([]response.ChatDTO, error) {
	chats, err := slf.chats.GetUserChats(userID)
	if err != nil {
		slf.logger.Error().Err(err).Uint("userId", userID).Msg("Error loading user chats")
		return nil, err
	}

	dtos := make([]response.ChatDTO, 0, len(chats))
	for _, chat := range chats {
		dto, err := slf.buildChatDTO(chat, userID)
		if err != nil {
			return nil, err
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}

func (slf *ChatService) GetChatByID(chatID uint, userID uint) (*response.ChatDTO, error) {
	chat, err := slf.chats.GetChatByID(chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("chat not found")
		}
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, apperr.Authorization("user is not a participant in this chat")
	}

	dto, err := slf.buildChatDTO(chat, userID)
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (slf *ChatService) GetChatMessages(chatID uint, userID uint, page int, pageSize int) ([]response.MessageDTO, error) {
	if err := slf.requireParticipant(chatID, userID); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultMessagePageSize
	}

	messages, err := slf.messages.GetChatMessages(chatID, page, pageSize)
	if err != nil {
		return nil, err
	}

	dtos := make([]response.MessageDTO, 0, len(messages))
	for _, message := range messages {
		dtos = append(dtos, messageToDTO(message))
	}
	return dtos, nil
}

// AddMessage persists a new message with a server-assigned timestamp and
// bumps the chat's last activity.
func (slf *ChatService) AddMessage(content string, senderID uint, chatID uint) (*response.MessageDTO, error) {
	chat, err := slf.chats.GetChatByID(chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Authorization("user is not a participant in this chat")
		}
		return nil, err
	}
	if !chat.HasParticipant(senderID) {
		return nil, apperr.Authorization("user is not a participant in this chat")
	}

	now := time.Now()
	message := models.Message{
		Content:  content,
		SenderID: senderID,
		ChatID:   chatID,
		SentAt:   now,
		IsRead:   false,
	}
	if err := slf.messages.AddMessage(&message); err != nil {
		slf.logger.Error().Err(err).Uint("chatId", chatID).Msg("Error persisting message")
		return nil, err
	}

	if err := slf.chats.TouchLastActivity(chatID, now); err != nil {
		// Last activity is advisory (list ordering only); the message is
		// already persisted, so this does not fail the operation.
		slf.logger.Warn().Err(err).Uint("chatId", chatID).Msg("Failed to update chat last activity")
	}

	dto := messageToDTO(message)
	dto.SenderName = participantName(chat, senderID)
	return &dto, nil
}

// CreatePrivateChat is idempotent: an existing private chat between the two
// users is returned instead of creating a duplicate.
func (slf *ChatService) CreatePrivateChat(userID uint, otherUserID uint) (*response.ChatDTO, error) {
	if userID == otherUserID {
		return nil, apperr.Validation("cannot create a private chat with yourself")
	}

	existing, err := slf.chats.GetPrivateChatBetween(userID, otherUserID)
	if err == nil {
		return slf.GetChatByID(existing.ID, userID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user, err := slf.users.FindByID(userID)
	if err != nil {
		return nil, slf.userLookupErr(err)
	}
	other, err := slf.users.FindByID(otherUserID)
	if err != nil {
		return nil, slf.userLookupErr(err)
	}

	now := time.Now()
	chat := models.Chat{
		Type:           models.ChatTypePrivate,
		CreatedAt:      now,
		LastActivityAt: &now,
		Participants: []models.ChatParticipant{
			{UserID: userID, JoinedAt: now},
			{UserID: otherUserID, JoinedAt: now},
		},
	}
	if err := slf.chats.CreateChat(&chat); err != nil {
		slf.logger.Error().Err(err).Msg("Error creating private chat")
		return nil, err
	}

	slf.logger.Info().Uint("chatId", chat.ID).Uint("userId", userID).Uint("otherUserId", otherUserID).Msg("Private chat created")
	return &response.ChatDTO{
		ID:             chat.ID,
		Name:           other.Name, // for the creator, the chat reads as the other user
		ChatType:       string(models.ChatTypePrivate),
		CreatedAt:      chat.CreatedAt,
		LastActivityAt: chat.LastActivityAt,
		UnreadCount:    0,
		Participants: []response.ChatParticipantDTO{
			{UserID: userID, UserName: user.Name, JoinedAt: now},
			{UserID: otherUserID, UserName: other.Name, JoinedAt: now},
		},
	}, nil
}

// CreateDepartmentGroupChat creates the single canonical group chat of a
// department, enrolling every department member. Idempotent per department.
func (slf *ChatService) CreateDepartmentGroupChat(creatorID uint, departmentID uint, chatName string) (*response.ChatDTO, error) {
	creator, err := slf.validateCreator(creatorID, departmentID)
	if err != nil {
		return nil, err
	}

	existing, err := slf.chats.GetDepartmentChat(departmentID)
	if err == nil {
		return slf.GetChatByID(existing.ID, creatorID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	members, err := slf.users.GetUsersByDepartment(departmentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	chat := models.Chat{
		Name:           pkg.ToPtr(chatName),
		Type:           models.ChatTypeGroup,
		CreatedAt:      now,
		LastActivityAt: &now,
		DepartmentID:   pkg.ToPtr(departmentID),
	}
	participants := make([]response.ChatParticipantDTO, 0, len(members))
	for _, member := range members {
		chat.Participants = append(chat.Participants, models.ChatParticipant{
			UserID:   member.ID,
			IsAdmin:  member.ID == creatorID,
			JoinedAt: now,
		})
		participants = append(participants, response.ChatParticipantDTO{
			UserID:   member.ID,
			UserName: member.Name,
			IsAdmin:  member.ID == creatorID,
			JoinedAt: now,
		})
	}
	if err := slf.chats.CreateChat(&chat); err != nil {
		slf.logger.Error().Err(err).Uint("departmentId", departmentID).Msg("Error creating department chat")
		return nil, err
	}

	slf.logger.Info().Uint("chatId", chat.ID).Uint("departmentId", departmentID).Int("members", len(members)).Msg("Department chat created")
	return &response.ChatDTO{
		ID:             chat.ID,
		Name:           chatName,
		ChatType:       string(models.ChatTypeGroup),
		CreatedAt:      chat.CreatedAt,
		LastActivityAt: chat.LastActivityAt,
		DepartmentID:   &departmentID,
		DepartmentName: departmentName(creator),
		UnreadCount:    0,
		Participants:   participants,
	}, nil
}

// CreateCustomGroupChat creates a group chat for a hand-picked subset of a
// department. Unlike the department-wide variant there is no reuse check:
// every call creates a new chat.
func (slf *ChatService) CreateCustomGroupChat(creatorID uint, departmentID uint, chatName string, selectedUserIDs []uint) (*response.ChatDTO, error) {
	creator, err := slf.validateCreator(creatorID, departmentID)
	if err != nil {
		return nil, err
	}

	selected, err := slf.users.FindByIDs(selectedUserIDs)
	if err != nil {
		return nil, err
	}
	if len(selected) != len(uniqueIDs(selectedUserIDs)) {
		return nil, apperr.Validation("one or more selected users do not exist")
	}
	for _, user := range selected {
		if user.DepartmentID != departmentID {
			return nil, apperr.Validation("all selected users must be from the same department")
		}
	}

	// Custom groups carry no department association: the department chat
	// lookup must only ever match the canonical department-wide chat.
	now := time.Now()
	chat := models.Chat{
		Name:           pkg.ToPtr(chatName),
		Type:           models.ChatTypeGroup,
		CreatedAt:      now,
		LastActivityAt: &now,
	}
	participants := make([]response.ChatParticipantDTO, 0, len(selected)+1)
	creatorIncluded := false
	for _, user := range selected {
		if user.ID == creatorID {
			creatorIncluded = true
		}
		chat.Participants = append(chat.Participants, models.ChatParticipant{
			UserID:   user.ID,
			IsAdmin:  user.ID == creatorID,
			JoinedAt: now,
		})
		participants = append(participants, response.ChatParticipantDTO{
			UserID:   user.ID,
			UserName: user.Name,
			IsAdmin:  user.ID == creatorID,
			JoinedAt: now,
		})
	}
	if !creatorIncluded {
		chat.Participants = append(chat.Participants, models.ChatParticipant{
			UserID:   creatorID,
			IsAdmin:  true,
			JoinedAt: now,
		})
		participants = append(participants, response.ChatParticipantDTO{
			UserID:   creatorID,
			UserName: creator.Name,
			IsAdmin:  true,
			JoinedAt: now,
		})
	}
	if err := slf.chats.CreateChat(&chat); err != nil {
		slf.logger.Error().Err(err).Uint("departmentId", departmentID).Msg("Error creating custom group chat")
		return nil, err
	}

	slf.logger.Info().Uint("chatId", chat.ID).Int("participants", len(participants)).Msg("Custom group chat created")
	return &response.ChatDTO{
		ID:             chat.ID,
		Name:           chatName,
		ChatType:       string(models.ChatTypeGroup),
		CreatedAt:      chat.CreatedAt,
		LastActivityAt: chat.LastActivityAt,
		DepartmentID:   &departmentID,
		DepartmentName: departmentName(creator),
		UnreadCount:    0,
		Participants:   participants,
	}, nil
}

// MarkMessagesAsRead flips the read flag on every unread message in the
// chat that was sent by someone other than userID.
func (slf *ChatService) MarkMessagesAsRead(chatID uint, userID uint) error {
	if err := slf.requireParticipant(chatID, userID); err != nil {
		return err
	}

	unread, err := slf.messages.GetUnreadMessages(chatID, userID)
	if err != nil {
		return err
	}
	if len(unread) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(unread))
	for _, message := range unread {
		ids = append(ids, message.ID)
	}
	return slf.messages.MarkMessagesAsRead(ids)
}

// UpdateChatLastActivity is tolerated to race with chat deletion: a missing
// chat is a silent no-op.
func (slf *ChatService) UpdateChatLastActivity(chatID uint) error {
	return slf.chats.TouchLastActivity(chatID, time.Now())
}

// GetDepartmentChatID resolves the canonical group chat of a department.
// Used by the event bridge to route department-wide notifications.
func (slf *ChatService) GetDepartmentChatID(departmentID uint) (uint, error) {
	chat, err := slf.chats.GetDepartmentChat(departmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.NotFound("department chat does not exist")
		}
		return 0, err
	}
	return chat.ID, nil
}

func (slf *ChatService) requireParticipant(chatID uint, userID uint) error {
	chat, err := slf.chats.GetChatByID(chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Authorization("user is not a participant in this chat")
		}
		return err
	}
	if !chat.HasParticipant(userID) {
		return apperr.Authorization("user is not a participant in this chat")
	}
	return nil
}

func (slf *ChatService) validateCreator(creatorID uint, departmentID uint) (models.User, error) {
	creator, err := slf.users.FindByID(creatorID)
	if err != nil {
		return models.User{}, slf.userLookupErr(err)
	}
	if creator.DepartmentID != departmentID {
		return models.User{}, apperr.Authorization("user is not a member of this department")
	}
	exists, err := slf.users.DepartmentExists(departmentID)
	if err != nil {
		return models.User{}, err
	}
	if !exists {
		return models.User{}, apperr.NotFound("department does not exist")
	}
	return creator, nil
}

func (slf *ChatService) userLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("user does not exist")
	}
	return err
}

func (slf *ChatService) buildChatDTO(chat models.Chat, userID uint) (response.ChatDTO, error) {
	unread, err := slf.messages.GetUnreadMessages(chat.ID, userID)
	if err != nil {
		return response.ChatDTO{}, err
	}

	var lastMessage *response.MessageDTO
	last, err := slf.messages.GetLastMessage(chat.ID)
	if err == nil {
		dto := messageToDTO(last)
		if dto.SenderName == "" {
			dto.SenderName = participantName(chat, last.SenderID)
		}
		lastMessage = &dto
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return response.ChatDTO{}, err
	}

	dto := response.ChatDTO{
		ID:             chat.ID,
		Name:           resolveChatName(chat, userID),
		ChatType:       string(chat.Type),
		CreatedAt:      chat.CreatedAt,
		LastActivityAt: chat.LastActivityAt,
		DepartmentID:   chat.DepartmentID,
		UnreadCount:    len(unread),
		LastMessage:    lastMessage,
		Participants:   make([]response.ChatParticipantDTO, 0, len(chat.Participants)),
	}
	if chat.Department != nil {
		dto.DepartmentName = chat.Department.Name
	}
	for _, p := range chat.Participants {
		name := ""
		if p.User != nil {
			name = p.User.Name
		}
		dto.Participants = append(dto.Participants, response.ChatParticipantDTO{
			UserID:   p.UserID,
			UserName: name,
			IsAdmin:  p.IsAdmin,
			JoinedAt: p.JoinedAt,
		})
	}
	return dto, nil
}

// resolveChatName returns the stored name for group chats and the other
// participant's name for private chats, never the requester's own.
func resolveChatName(chat models.Chat, userID uint) string {
	if chat.Type == models.ChatTypeGroup {
		if chat.Name != nil {
			return *chat.Name
		}
		return ""
	}
	for _, p := range chat.Participants {
		if p.UserID != userID && p.User != nil {
			return p.User.Name
		}
	}
	return "Unknown User"
}

func departmentName(user models.User) string {
	if user.Department != nil {
		return user.Department.Name
	}
	return ""
}

func participantName(chat models.Chat, userID uint) string {
	for _, p := range chat.Participants {
		if p.UserID == userID && p.User != nil {
			return p.User.Name
		}
	}
	return "Unknown User"
}

func messageToDTO(message models.Message) response.MessageDTO {
	dto := response.MessageDTO{
		ID:       message.ID,
		Content:  message.Content,
		SentAt:   message.SentAt,
		IsRead:   message.IsRead,
		SenderID: message.SenderID,
		ChatID:   message.ChatID,
	}
	if message.Sender != nil {
		dto.SenderName = message.Sender.Name
	}
	return dto
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
