package service

import (
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"intranet"
	"intranet/internal/api/handler/request"
	"intranet/internal/api/models"
	"intranet/pkg"
	"intranet/pkg/apperr"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// UserRepository methods of memStore beyond the UserDirectory subset.

func (s *memStore) FindByEmail(email string) (models.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, gorm.ErrRecordNotFound
}

func (s *memStore) ExistsByEmail(email string) (bool, error) {
	_, err := s.FindByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *memStore) Create(user *models.User) error {
	s.nextUserID++
	user.ID = s.nextUserID
	s.users[user.ID] = *user
	return nil
}

func (s *memStore) Update(user *models.User) error {
	if _, ok := s.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.users[user.ID] = *user
	return nil
}

func (s *memStore) GetAllWithDetails() ([]models.User, error) {
	out := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// memTokenStore is an in-memory ResetTokenStore.
type memTokenStore struct {
	tokens map[string]string
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{tokens: make(map[string]string)}
}

func (s *memTokenStore) Save(token string, email string, ttl time.Duration) error {
	s.tokens[token] = email
	return nil
}

func (s *memTokenStore) Consume(token string) (string, error) {
	email, ok := s.tokens[token]
	if !ok {
		return "", errors.New("token not found")
	}
	delete(s.tokens, token)
	return email, nil
}

// memSender records outbound mail instead of talking to SMTP.
type memSender struct {
	to      []string
	bodies  []string
	subject []string
}

func (s *memSender) SendEmail(to string, subject string, htmlBody string) error {
	s.to = append(s.to, to)
	s.subject = append(s.subject, subject)
	s.bodies = append(s.bodies, htmlBody)
	return nil
}

func testAuthConfig() intranet.AppConfig {
	var cfg intranet.AppConfig
	cfg.PortalURL = "http://portal.local"
	cfg.JWTConfig.Secret = "test-secret"
	cfg.JWTConfig.Expiration = 60
	cfg.JWTConfig.RefreshExpiration = 7
	return cfg
}

func newTestUserService() (*UserService, *memStore, *memTokenStore, *memSender) {
	store := newMemStore()
	tokens := newMemTokenStore()
	sender := &memSender{}
	service := NewUserService(store, tokens, sender, testAuthConfig(), zerolog.Nop())
	return service, store, tokens, sender
}

// ============ Register / Login Tests ============

func TestUserService_Register(t *testing.T) {
	service, store, _, _ := newTestUserService()
	store.addDepartment(1, "Engineering")

	auth, err := service.Register(request.RegisterDTO{
		Email:        "alice@intranet.local",
		Password:     "s3cret42",
		Name:         "Alice",
		DepartmentID: 1,
		RoleID:       1,
	})
	require.NoError(t, err)
	require.NotNil(t, auth)
	assert.NotEmpty(t, auth.Token)
	assert.NotEmpty(t, auth.RefreshToken)
	assert.Equal(t, "Alice", auth.User.Name)

	// Password is stored hashed, never in the clear.
	stored, err := store.FindByEmail("alice@intranet.local")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret42", stored.PasswordHash)
	assert.NotContains(t, stored.PasswordHash, "s3cret42")

	claims, err := pkg.ValidateToken(auth.Token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, claims.UserID)
	assert.Equal(t, "alice@intranet.local", claims.Email)
}

func TestUserService_Register_DuplicateEmail(t *testing.T) {
	service, store, _, _ := newTestUserService()
	store.addDepartment(1, "Engineering")

	dto := request.RegisterDTO{
		Email:        "alice@intranet.local",
		Password:     "s3cret42",
		Name:         "Alice",
		DepartmentID: 1,
		RoleID:       1,
	}
	_, err := service.Register(dto)
	require.NoError(t, err)

	_, err = service.Register(dto)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestUserService_Register_UnknownDepartment(t *testing.T) {
	service, _, _, _ := newTestUserService()

	_, err := service.Register(request.RegisterDTO{
		Email:        "alice@intranet.local",
		Password:     "s3cret42",
		Name:         "Alice",
		DepartmentID: 99,
		RoleID:       1,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestUserService_Login(t *testing.T) {
	service, store, _, _ := newTestUserService()
	store.addDepartment(1, "Engineering")

	_, err := service.Register(request.RegisterDTO{
		Email:        "alice@intranet.local",
		Password:     "s3cret42",
		Name:         "Alice",
		DepartmentID: 1,
		RoleID:       1,
	})
	require.NoError(t, err)

	auth, err := service.Login(request.LoginDTO{Email: "alice@intranet.local", Password: "s3cret42"})
	require.NoError(t, err)
	assert.NotEmpty(t, auth.Token)

	_, err = service.Login(request.LoginDTO{Email: "alice@intranet.local", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindAuthentication))

	// Unknown email reads the same as a wrong password.
	_, err = service.Login(request.LoginDTO{Email: "nobody@intranet.local", Password: "s3cret42"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindAuthentication))
}

func TestUserService_RefreshToken(t *testing.T) {
	service, store, _, _ := newTestUserService()
	store.addDepartment(1, "Engineering")

	auth, err := service.Register(request.RegisterDTO{
		Email:        "alice@intranet.local",
		Password:     "s3cret42",
		Name:         "Alice",
		DepartmentID: 1,
		RoleID:       1,
	})
	require.NoError(t, err)

	refreshed, err := service.RefreshToken(auth.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Token)

	// An access token is not accepted where a refresh token is expected.
	_, err = service.RefreshToken(auth.Token)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindAuthentication))

	_, err = service.RefreshToken("garbage")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindAuthentication))
}

// ============ Password Reset Tests ============

func TestUserService_ForgotPassword(t *testing.T) {
	service, store, tokens, sender := newTestUserService()
	store.addDepartment(1, "Engineering")
	store.addUser(1, "Alice", 1)

	require.NoError(t, service.ForgotPassword("Alice@intranet.local"))
	require.Len(t, sender.to, 1)
	assert.Equal(t, "Alice@intranet.local", sender.to[0])
	assert.Contains(t, sender.bodies[0], "http://portal.local/auth/reset-password?token=")
	assert.Len(t, tokens.tokens, 1)
}

func TestUserService_ForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	service, _, tokens, sender := newTestUserService()

	require.NoError(t, service.ForgotPassword("nobody@intranet.local"))
	assert.Empty(t, sender.to)
	assert.Empty(t, tokens.tokens)
}

func TestUserService_ResetPassword(t *testing.T) {
	service, store, tokens, sender := newTestUserService()
	store.addDepartment(1, "Engineering")

	_, err := service.Register(request.RegisterDTO{
		Email:        "alice@intranet.local",
		Password:     "oldpass1",
		Name:         "Alice",
		DepartmentID: 1,
		RoleID:       1,
	})
	require.NoError(t, err)

	require.NoError(t, service.ForgotPassword("alice@intranet.local"))
	require.Len(t, sender.bodies, 1)

	var token string
	for tk := range tokens.tokens {
		token = tk
	}
	require.NotEmpty(t, token)
	assert.Contains(t, sender.bodies[0], token)

	err = service.ResetPassword(request.ResetPasswordDTO{
		Email:           "alice@intranet.local",
		Token:           token,
		NewPassword:     "newpass1",
		ConfirmPassword: "newpass1",
	})
	require.NoError(t, err)

	// Old password no longer works, new one does.
	_, err = service.Login(request.LoginDTO{Email: "alice@intranet.local", Password: "oldpass1"})
	require.Error(t, err)
	_, err = service.Login(request.LoginDTO{Email: "alice@intranet.local", Password: "newpass1"})
	require.NoError(t, err)

	// The token is single-use.
	err = service.ResetPassword(request.ResetPasswordDTO{
		Email:           "alice@intranet.local",
		Token:           token,
		NewPassword:     "another1",
		ConfirmPassword: "another1",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestUserService_ResetPassword_Mismatch(t *testing.T) {
	service, _, _, _ := newTestUserService()

	err := service.ResetPassword(request.ResetPasswordDTO{
		Email:           "alice@intranet.local",
		Token:           "whatever",
		NewPassword:     "one",
		ConfirmPassword: "two",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestUserService_ResetPassword_TokenEmailMismatch(t *testing.T) {
	service, store, tokens, _ := newTestUserService()
	store.addDepartment(1, "Engineering")
	store.addUser(1, "Alice", 1)
	store.addUser(2, "Bob", 1)

	tokens.tokens["tk"] = "Alice@intranet.local"

	err := service.ResetPassword(request.ResetPasswordDTO{
		Email:           "Bob@intranet.local",
		Token:           "tk",
		NewPassword:     "newpass1",
		ConfirmPassword: "newpass1",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestUserService_GetByID_NotFound(t *testing.T) {
	service, _, _, _ := newTestUserService()

	_, err := service.GetByID(42)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestUserService_ListUsers(t *testing.T) {
	service, store, _, _ := newTestUserService()
	store.addDepartment(1, "Engineering")
	store.addUser(1, "Alice", 1)
	store.addUser(2, "Bob", 1)

	users, err := service.ListUsers()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.True(t, strings.EqualFold(users[0].Name, "Alice"))
}
