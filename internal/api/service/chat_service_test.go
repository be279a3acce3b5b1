package service

import (
	"sort"
	"testing"
	"time"

	"intranet/internal/api/models"
	"intranet/pkg/apperr"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memStore is an in-memory stand-in for the gorm repositories. It mirrors
// their contract, including gorm.ErrRecordNotFound for missing rows.
type memStore struct {
	chats       map[uint]*models.Chat
	messages    map[uint]*models.Message
	users       map[uint]models.User
	departments map[uint]string
	nextChatID  uint
	nextMsgID   uint
	nextUserID  uint
}

func newMemStore() *memStore {
	return &memStore{
		chats:       make(map[uint]*models.Chat),
		messages:    make(map[uint]*models.Message),
		users:       make(map[uint]models.User),
		departments: make(map[uint]string),
	}
}

func (s *memStore) addDepartment(id uint, name string) {
	s.departments[id] = name
}

func (s *memStore) addUser(id uint, name string, departmentID uint) models.User {
	deptName := s.departments[departmentID]
	user := models.User{
		ID:           id,
		Email:        name + "@intranet.local",
		Name:         name,
		DepartmentID: departmentID,
		Department:   &models.Department{ID: departmentID, Name: deptName},
	}
	s.users[id] = user
	return user
}

func (s *memStore) chatCopy(chat *models.Chat) models.Chat {
	out := *chat
	out.Participants = make([]models.ChatParticipant, len(chat.Participants))
	for i, p := range chat.Participants {
		out.Participants[i] = p
		if user, ok := s.users[p.UserID]; ok {
			u := user
			out.Participants[i].User = &u
		}
	}
	return out
}

// ChatRepository

func (s *memStore) GetChatByID(chatID uint) (models.Chat, error) {
	chat, ok := s.chats[chatID]
	if !ok {
		return models.Chat{}, gorm.ErrRecordNotFound
	}
	return s.chatCopy(chat), nil
}

func (s *memStore) GetUserChats(userID uint) ([]models.Chat, error) {
	var out []models.Chat
	for _, chat := range s.chats {
		if chat.HasParticipant(userID) {
			out = append(out, s.chatCopy(chat))
		}
	}
	return out, nil
}

func (s *memStore) GetPrivateChatBetween(user1ID uint, user2ID uint) (models.Chat, error) {
	for _, chat := range s.chats {
		if chat.Type == models.ChatTypePrivate && chat.HasParticipant(user1ID) && chat.HasParticipant(user2ID) {
			return s.chatCopy(chat), nil
		}
	}
	return models.Chat{}, gorm.ErrRecordNotFound
}

func (s *memStore) GetDepartmentChat(departmentID uint) (models.Chat, error) {
	for _, chat := range s.chats {
		if chat.Type == models.ChatTypeGroup && chat.DepartmentID != nil && *chat.DepartmentID == departmentID {
			return s.chatCopy(chat), nil
		}
	}
	return models.Chat{}, gorm.ErrRecordNotFound
}

func (s *memStore) CreateChat(chat *models.Chat) error {
	s.nextChatID++
	chat.ID = s.nextChatID
	for i := range chat.Participants {
		chat.Participants[i].ChatID = chat.ID
	}
	stored := *chat
	stored.Participants = append([]models.ChatParticipant(nil), chat.Participants...)
	s.chats[chat.ID] = &stored
	return nil
}

func (s *memStore) TouchLastActivity(chatID uint, at time.Time) error {
	if chat, ok := s.chats[chatID]; ok {
		chat.LastActivityAt = &at
	}
	return nil
}

// MessageRepository

func (s *memStore) chatMessages(chatID uint) []*models.Message {
	var out []*models.Message
	for _, message := range s.messages {
		if message.ChatID == chatID {
			out = append(out, message)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SentAt.Equal(out[j].SentAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].SentAt.After(out[j].SentAt)
	})
	return out
}

func (s *memStore) GetChatMessages(chatID uint, page int, pageSize int) ([]models.Message, error) {
	all := s.chatMessages(chatID)
	offset := (page - 1) * pageSize
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + pageSize
	if end > len(all) {
		end = len(all)
	}
	out := make([]models.Message, 0, end-offset)
	for _, message := range all[offset:end] {
		out = append(out, *message)
	}
	return out, nil
}

func (s *memStore) GetLastMessage(chatID uint) (models.Message, error) {
	all := s.chatMessages(chatID)
	if len(all) == 0 {
		return models.Message{}, gorm.ErrRecordNotFound
	}
	return *all[0], nil
}

func (s *memStore) AddMessage(message *models.Message) error {
	s.nextMsgID++
	message.ID = s.nextMsgID
	stored := *message
	s.messages[message.ID] = &stored
	return nil
}

func (s *memStore) GetUnreadMessages(chatID uint, userID uint) ([]models.Message, error) {
	var out []models.Message
	for _, message := range s.messages {
		if message.ChatID == chatID && !message.IsRead && message.SenderID != userID {
			out = append(out, *message)
		}
	}
	return out, nil
}

func (s *memStore) MarkMessagesAsRead(ids []uint) error {
	for _, id := range ids {
		if message, ok := s.messages[id]; ok {
			message.IsRead = true
		}
	}
	return nil
}

// UserDirectory

func (s *memStore) FindByID(id uint) (models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return models.User{}, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *memStore) DepartmentExists(id uint) (bool, error) {
	_, ok := s.departments[id]
	return ok, nil
}

func (s *memStore) GetUsersByDepartment(departmentID uint) ([]models.User, error) {
	var out []models.User
	for _, user := range s.users {
		if user.DepartmentID == departmentID {
			out = append(out, user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) FindByIDs(ids []uint) ([]models.User, error) {
	seen := make(map[uint]bool)
	var out []models.User
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if user, ok := s.users[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func newTestChatService() (*ChatService, *memStore) {
	store := newMemStore()
	return NewChatService(store, store, store, zerolog.Nop()), store
}

// ============ Private Chat Tests ============

func TestChatService_CreatePrivateChat_Idempotent(t *testing.T) {
	service, store := newTestChatService()
	store.addDepartment(1, "Engineering")
	store.addUser(1, "Alice", 1)
	store.addUser(2, "Bob", 1)

	first, err := service.CreatePrivateChat(1, 2)
	require.NoError(t, err)
	require.NotZero(t, first.ID)
	assert.Len(t, first.Participants, 2)
	assert.Equal(t, 0, first.UnreadCount)

	// Second call, reversed order, must return the same chat.
	second, err := service.CreatePrivateChat(2, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.chats, 1)
}

func TestChatService_CreatePrivateChat_NameIsOtherParticipant(t *testing.T) {
	service, store := newTestChatService()
	store.addDepartment(1, "Engineering")
	store.addUser(1, "Alice", 1)
	store.addUser(2, "Bob", 1)

	created, err := service.CreatePrivateChat(1, 2)
	require.NoError(t, err)
	assert.Equal(t, "Bob", created.Name)

	fromBob, err := service.GetChatByID(created.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "Alice", fromBob.Name)

	fromAlice, err := service.GetChatByID(created.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Bob", fromAlice.Name)
}

func TestChatService_CreatePrivateChat_UnknownUser(t *testing.T) {
	service, store := newTestChatService()
	store.addDepartment(1, "Engineering")
	store.addUser(1, "Alice", 1)

	_, err := service.CreatePrivateChat(1, 99)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	assert.Empty(t, store.chats)
}

func TestChatService_CreatePrivateChat_WithSelf(t *testing.T) {
	service, store := newTestChatService()
	store.addDepartment(1, "Engineering")
	store.addUser(1, "Alice", 1)
	store.addUser(2, "Bob", 1)

	// An existing chat with someone else must not be returned as a
	// self-chat.
	_, err := service.CreatePrivateChat(1, 2)
	require.NoError(t, err)

	_, err = service.CreatePrivateChat(1, 1)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Len(t, store.chats, 1)
}

// ============ Group Chat Tests ============

func TestChatService_CreateDepartmentGroupChat_Idempotent(t *testing.T) {
	service, store := newTestChatService()
	store.addDepartment(1, "Engineering")
	store.addUser(1, "Alice", 1)
	store.addUser(2, "Bob", 1)
	store.addUser(3, "Carol", 1)

	first, err := service.CreateDepartmentGroupChat(1, 1, "Engineering")
	require.NoError(t, err)
	require.Len(t, first.Participants, 3)

	second, err := service.CreateDepartmentGroupChat(2, 1, "Engineering Again")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, second.Participants, 3, "participants must not be duplicated")
	assert.Len(t, store.chats, 1)
}

func TestChatService_CreateDepartmentGroupChat_CreatorIsAdmin(t *testing.T) {
	service, store := newTestChatService()
	store.addDepartment(1, "Engineering")
	store.addUser(1, "Alice", 1)
	store.addUser(2, "Bob", 1)

	created, err := service.CreateDepartmentGroupChat(1, 1, "Engineering")
	require.NoError(t, err)

	admins := 0
	for _, p := range created.Participants {
		if p.IsAdmin {
			admins++
			assert.Equal(t, uint(1), p.UserID)
		}
	}
	assert.Equal(t, 1, admins)
}

func TestChatService_CreateDepartmentGroupChat_CreatorFromOtherDepartment(t *testing.T) {
	service, store := newTestChatService()
	store.addDepartment(1, "Engineering")
	store.addDepartment(2, "Sales")
	store.addUser(1, "Alice", 2)

	_, err := service.CreateDepartmentGroupChat(1, 1, "Engineering")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))
}

func TestChatService_CreateDepartmentGroupChat_UnknownDepartment(t *testing.T) {
	service, store := newTestChatService()
	store.users[1] = models.User{ID: 1, Name: "Alice", DepartmentID: 99}

	_, err := service.CreateDepartmentGroupChat(1, 99, "Ghost")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestChatService_CreateCustomGroupChat_NotIdempotent(t *testing.T) {
	service, store := newTestChatService()
	store.addDepartment(1, "Engineering")
	store.addUser(1, "Alice", 1)
	store.addUser(2, "Bob", 1)

	first, err := service.CreateCustomGroupChat(1, 1, "Project X", []uint{2})
	require.NoError(t, err)
	second, err := service.CreateCustomGroupChat(1, 1, "Project X", []uint{2})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, store.chats, 2)
}

func TestChatService_CreateCustomGroupChat_AppendsCreator(t *testing.T) {
	service, store := newTestChatService()
	store.addDepartment(1, "Engineering")
	store.addUser(1, "Alice", 1)
	store.addUser(2, "Bob", 1)
	store.addUser(3, "Carol", 1)

	created, err := service.CreateCustomGroupChat(1, 1, "Project X", []uint{2, 3})
	require.NoError(t, err)
	require.Len(t, created.Participants, 3)

	found := false
	for _, p := range created.Participants {
		if p.UserID == 1 {
			found = true
			assert.True(t, p.IsAdmin)
		}
	}
	assert.True(t, found, "creator must be appended to the participants")
}

func TestChatService_CreateCustomGroupChat_CrossDepartmentMember(t *testing.T) {
	service, store := newTestChatService()
	store.addDepartment(1, "Engineering")
	store.addDepartment(2, "Sales")
	store.addUser(1, "Alice", 1)
	store.addUser(2, "Bob", 2)

	_, err := service.CreateCustomGroupChat(1, 1, "Mixed", []uint{2})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Empty(t, store.chats, "no chat may be created on validation failure")
}

func TestChatService_CreateCustomGroupChat_UnknownSelectedUser(t *testing.T) {
	service, store := newTestChatService()
	store.addDepartment(1, "Engineering")
	store.addUser(1, "Alice", 1)

	_, err := service.CreateCustomGroupChat(1, 1, "Ghosts", []uint{42})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

// ============ Authorization Tests ============

func TestChatService_GetChatByID_NotParticipant(t *testing.T) {
	service, store := newTestChatService()
	store.addDepartment(1, "Engineering")
	store.addUser(1, "Alice", 1)
	store.addUser(2, "Bob", 1)
	store.addUser(3, "Mallory", 1)

	created, err := service.CreatePrivateChat(1, 2)
	require.NoError(t, err)

	_, err = service.GetChatByID(created.ID, 3)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))
}

func TestChatService_GetChatByID_NotFound(t *testing.T) {
	service, _ := newTestChatService()

	_, err := service.GetChatByID(123, 1)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestChatService_GetChatMessages_NotParticipant(t *testing.T) {
	service, store := newTestChatService()
	store.addDepartment(1, "Engineering")
	store.addUser(1, "Alice", 1)
	store.addUser(2, "Bob", 1)
	store.addUser(3, "Mallory", 1)

	created, err := service.CreatePrivateChat(1, 2)
	require.NoError(t, err)

	_, err = service.GetChatMessages(created.ID, 3, 1, 20)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))
}

func TestChatService_AddMessage_NotParticipant(t *testing.T) {
	service, store := newTestChatService()
	store.addDepartment(1, "Engineering")
	store.addUser(1, "Alice", 1)
	store.addUser(2, "Bob", 1)
	store.addUser(3, "Mallory", 1)

	created, err := service.CreatePrivateChat(1, 2)
	require.NoError(t, err)

	_, err = service.AddMessage("intruding", 3, created.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))

	// A missing chat reads the same as not being a participant.
	_, err = service.AddMessage("void", 1, 999)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))
}

// ============ Message / Read-state Tests ============

func TestChatService_MessageLifecycle(t *testing.T) {
	service, store := newTestChatService()
	store.addDepartment(1, "Engineering")
	store.addUser(1, "Alice", 1)
	store.addUser(2, "Bob", 1)

	created, err := service.CreatePrivateChat(1, 2)
	require.NoError(t, err)

	message, err := service.AddMessage("hi", 1, created.ID)
	require.NoError(t, err)
	assert.False(t, message.IsRead, "new messages are always unread")
	assert.Equal(t, "Alice", message.SenderName)
	assert.False(t, message.SentAt.IsZero())

	// Bob sees one unread message and the preview.
	bobChats, err := service.GetUserChats(2)
	require.NoError(t, err)
	require.Len(t, bobChats, 1)
	assert.Equal(t, 1, bobChats[0].UnreadCount)
	require.NotNil(t, bobChats[0].LastMessage)
	assert.Equal(t, "hi", bobChats[0].LastMessage.Content)

	// Alice's own message does not count as unread for her.
	aliceChats, err := service.GetUserChats(1)
	require.NoError(t, err)
	require.Len(t, aliceChats, 1)
	assert.Equal(t, 0, aliceChats[0].UnreadCount)

	require.NoError(t, service.MarkMessagesAsRead(created.ID, 2))

	bobChats, err = service.GetUserChats(2)
	require.NoError(t, err)
	assert.Equal(t, 0, bobChats[0].UnreadCount)
}

func TestChatService_MarkMessagesAsRead_OnlyOthersMessages(t *testing.T) {
	service, store := newTestChatService()
	store.addDepartment(1, "Engineering")
	store.addUser(1, "Alice", 1)
	store.addUser(2, "Bob", 1)

	created, err := service.CreatePrivateChat(1, 2)
	require.NoError(t, err)

	fromAlice, err := service.AddMessage("from alice", 1, created.ID)
	require.NoError(t, err)
	fromBob, err := service.AddMessage("from bob", 2, created.ID)
	require.NoError(t, err)

	// Bob marking the chat read flips Alice's message, not his own.
	require.NoError(t, service.MarkMessagesAsRead(created.ID, 2))
	assert.True(t, store.messages[fromAlice.ID].IsRead)
	assert.False(t, store.messages[fromBob.ID].IsRead)
}

func TestChatService_MarkMessagesAsRead_NoUnread(t *testing.T) {
	service, store := newTestChatService()
	store.addDepartment(1, "Engineering")
	store.addUser(1, "Alice", 1)
	store.addUser(2, "Bob", 1)

	created, err := service.CreatePrivateChat(1, 2)
	require.NoError(t, err)

	assert.NoError(t, service.MarkMessagesAsRead(created.ID, 2))
}

func TestChatService_GetChatMessages_Pagination(t *testing.T) {
	service, store := newTestChatService()
	store.addDepartment(1, "Engineering")
	store.addUser(1, "Alice", 1)
	store.addUser(2, "Bob", 1)

	created, err := service.CreatePrivateChat(1, 2)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := service.AddMessage("msg", 1, created.ID)
		require.NoError(t, err)
	}

	page1, err := service.GetChatMessages(created.ID, 2, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page1, 2)

	page3, err := service.GetChatMessages(created.ID, 2, 3, 2)
	require.NoError(t, err)
	assert.Len(t, page3, 1)

	// Out-of-range pages and bad page numbers degrade gracefully.
	page9, err := service.GetChatMessages(created.ID, 2, 9, 2)
	require.NoError(t, err)
	assert.Empty(t, page9)

	defaulted, err := service.GetChatMessages(created.ID, 2, 0, 0)
	require.NoError(t, err)
	assert.Len(t, defaulted, 5)
}

func TestChatService_AddMessage_BumpsLastActivity(t *testing.T) {
	service, store := newTestChatService()
	store.addDepartment(1, "Engineering")
	store.addUser(1, "Alice", 1)
	store.addUser(2, "Bob", 1)

	created, err := service.CreatePrivateChat(1, 2)
	require.NoError(t, err)
	before := *store.chats[created.ID].LastActivityAt

	time.Sleep(time.Millisecond)
	_, err = service.AddMessage("ping", 1, created.ID)
	require.NoError(t, err)

	after := *store.chats[created.ID].LastActivityAt
	assert.True(t, after.After(before))
}

func TestChatService_GetDepartmentChatID(t *testing.T) {
	service, store := newTestChatService()
	store.addDepartment(1, "Engineering")
	store.addUser(1, "Alice", 1)
	store.addUser(2, "Bob", 1)

	_, err := service.GetDepartmentChatID(1)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	created, err := service.CreateDepartmentGroupChat(1, 1, "Engineering")
	require.NoError(t, err)

	// A custom group must never shadow the department chat.
	_, err = service.CreateCustomGroupChat(1, 1, "Side project", []uint{2})
	require.NoError(t, err)

	chatID, err := service.GetDepartmentChatID(1)
	require.NoError(t, err)
	assert.Equal(t, created.ID, chatID)
}
