package service

import (
	"errors"
	"fmt"
	"time"

	"intranet"
	"intranet/internal/api/handler/mapper"
	"intranet/internal/api/handler/request"
	"intranet/internal/api/handler/response"
	"intranet/internal/api/models"
	"intranet/pkg"
	"intranet/pkg/apperr"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const resetTokenTTL = time.Hour

type UserService struct {
	userRepo   UserRepository
	resetStore ResetTokenStore
	sender     NotificationSender
	config     intranet.AppConfig
	logger     zerolog.Logger
	userMapper mapper.UserMapper
}

func NewUserService(userRepo UserRepository, resetStore ResetTokenStore, sender NotificationSender, config intranet.AppConfig, logger zerolog.Logger) *UserService {
	return &UserService{
		userRepo:   userRepo,
		resetStore: resetStore,
		sender:     sender,
		config:     config,
		logger:     logger,
	}
}

func (slf *UserService) Register(registerDTO request.RegisterDTO) (*response.AuthResponseDTO, error) {
	exists, err := slf.userRepo.ExistsByEmail(registerDTO.Email)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error checking if user exists")
		return nil, err
	}
	if exists {
		return nil, apperr.Conflict("user with this email already exists")
	}

	departmentExists, err := slf.userRepo.DepartmentExists(registerDTO.DepartmentID)
	if err != nil {
		return nil, err
	}
	if !departmentExists {
		return nil, apperr.NotFound("department does not exist")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registerDTO.Password), bcrypt.DefaultCost)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error hashing password")
		return nil, err
	}

	user := models.User{
		Email:        registerDTO.Email,
		PasswordHash: string(hashedPassword),
		Name:         registerDTO.Name,
		DepartmentID: registerDTO.DepartmentID,
		RoleID:       registerDTO.RoleID,
	}

	if err = slf.userRepo.Create(&user); err != nil {
		slf.logger.Error().Err(err).Msg("Error creating user")
		return nil, err
	}

	slf.logger.Info().Uint("userId", user.ID).Msg("User registered successfully")
	return slf.issueTokens(user)
}

func (slf *UserService) Login(loginDTO request.LoginDTO) (*response.AuthResponseDTO, error) {
	user, err := slf.userRepo.FindByEmail(loginDTO.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Authentication("invalid email or password")
		}
		slf.logger.Error().Err(err).Msg("Error finding user by email")
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(loginDTO.Password)); err != nil {
		return nil, apperr.Authentication("invalid email or password")
	}

	slf.logger.Info().Uint("userId", user.ID).Msg("User logged in successfully")
	return slf.issueTokens(user)
}

func (slf *UserService) RefreshToken(refreshToken string) (*response.AuthResponseDTO, error) {
	claims, err := pkg.ValidateRefreshToken(refreshToken, slf.config.JWTConfig.Secret)
	if err != nil {
		return nil, apperr.Authentication("invalid or expired refresh token")
	}

	user, err := slf.userRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		slf.logger.Error().Err(err).Uint("userId", claims.UserID).Msg("Error finding user by ID")
		return nil, err
	}

	return slf.issueTokens(user)
}

func (slf *UserService) GetByID(id uint) (response.UserResponseDTO, error) {
	user, err := slf.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.UserResponseDTO{}, apperr.NotFound("user not found")
		}
		slf.logger.Error().Err(err).Uint("userId", id).Msg("Error finding user by ID")
		return response.UserResponseDTO{}, err
	}

	return slf.userMapper.EntityToUserResponse(user), nil
}

// ListUsers returns the user directory, used when picking chat members.
func (slf *UserService) ListUsers() ([]response.UserResponseDTO, error) {
	users, err := slf.userRepo.GetAllWithDetails()
	if err != nil {
		return nil, err
	}
	dtos := make([]response.UserResponseDTO, 0, len(users))
	for _, user := range users {
		dtos = append(dtos, slf.userMapper.EntityToUserResponse(user))
	}
	return dtos, nil
}

// ForgotPassword emails a reset link. Unknown emails fail silently so the
// endpoint does not leak which addresses exist.
func (slf *UserService) ForgotPassword(email string) error {
	user, err := slf.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	token := uuid.New().String()
	if err := slf.resetStore.Save(token, user.Email, resetTokenTTL); err != nil {
		slf.logger.Error().Err(err).Msg("Error storing reset token")
		return err
	}

	resetLink := fmt.Sprintf("%s/auth/reset-password?token=%s&email=%s", slf.config.PortalURL, token, user.Email)
	body := fmt.Sprintf("Click <a href='%s'>here</a> to reset your password. The link expires in one hour.", resetLink)
	if err := slf.sender.SendEmail(user.Email, "Password Reset", body); err != nil {
		slf.logger.Error().Err(err).Str("email", user.Email).Msg("Error sending reset email")
		return err
	}

	slf.logger.Info().Uint("userId", user.ID).Msg("Password reset email sent")
	return nil
}

func (slf *UserService) ResetPassword(resetDTO request.ResetPasswordDTO) error {
	if resetDTO.NewPassword != resetDTO.ConfirmPassword {
		return apperr.Validation("passwords do not match")
	}

	email, err := slf.resetStore.Consume(resetDTO.Token)
	if err != nil {
		return apperr.Validation("invalid or expired reset token")
	}
	if email != resetDTO.Email {
		return apperr.Validation("invalid reset token")
	}

	user, err := slf.userRepo.FindByEmail(resetDTO.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("user not found")
		}
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(resetDTO.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hashedPassword)
	if err := slf.userRepo.Update(&user); err != nil {
		slf.logger.Error().Err(err).Uint("userId", user.ID).Msg("Error updating password")
		return err
	}

	slf.logger.Info().Uint("userId", user.ID).Msg("Password reset completed")
	return nil
}

func (slf *UserService) issueTokens(user models.User) (*response.AuthResponseDTO, error) {
	role := ""
	if user.Role != nil {
		role = user.Role.Name
	}

	token, err := pkg.GenerateToken(user.ID, user.Email, role, slf.config.JWTConfig.Secret, slf.config.JWTConfig.Expiration)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error generating token")
		return nil, err
	}

	refreshToken, err := pkg.GenerateRefreshToken(user.ID, slf.config.JWTConfig.Secret, slf.config.JWTConfig.RefreshExpiration)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error generating refresh token")
		return nil, err
	}

	return &response.AuthResponseDTO{
		Token:        token,
		RefreshToken: refreshToken,
		User:         slf.userMapper.EntityToUserResponse(user),
	}, nil
}
