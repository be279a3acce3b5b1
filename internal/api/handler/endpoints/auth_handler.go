package endpoints

import (
	"net/http"

	"intranet"
	"intranet/internal/api/handler/middleware"
	"intranet/internal/api/handler/request"
	"intranet/internal/api/handler/response"
	"intranet/internal/api/service"
	"intranet/pkg"
	"intranet/pkg/apperr"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type authHandler struct {
	userService *service.UserService
	logger      zerolog.Logger
	config      intranet.AppConfig
}

func AuthHandler(router *graceful.Graceful, userService *service.UserService) {
	h := &authHandler{
		userService: userService,
		logger:      intranet.Logger,
		config:      intranet.GetConfig(),
	}

	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
		auth.POST("/refresh", h.refreshToken)
		auth.POST("/forgot-password", h.forgotPassword)
		auth.POST("/reset-password", h.resetPassword)
	}

	protected := router.Group("/api/v1")
	protected.Use(middleware.AuthMiddleware(h.config))
	{
		protected.GET("/me", h.getMe)
		protected.GET("/users", h.listUsers)
	}
}

func (slf *authHandler) register(c *gin.Context) {
	var registerDTO request.RegisterDTO

	err := pkg.ParseAndValidate(c, &registerDTO)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error parsing and validating register DTO")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	authResponse, err := slf.userService.Register(registerDTO)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error registering user")
		c.JSON(apperr.HTTPStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, authResponse)
}

func (slf *authHandler) login(c *gin.Context) {
	var loginDTO request.LoginDTO
	err := pkg.ParseAndValidate(c, &loginDTO)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error parsing and validating login DTO")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	authResponse, err := slf.userService.Login(loginDTO)
	if err != nil {
		slf.logger.Warn().Err(err).Str("email", loginDTO.Email).Msg("Failed login attempt")
		c.JSON(apperr.HTTPStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, authResponse)
}

func (slf *authHandler) refreshToken(c *gin.Context) {
	var refreshDTO request.RefreshTokenDTO
	err := pkg.ParseAndValidate(c, &refreshDTO)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error parsing and validating refresh token DTO")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	authResponse, err := slf.userService.RefreshToken(refreshDTO.RefreshToken)
	if err != nil {
		slf.logger.Warn().Err(err).Msg("Error refreshing token")
		c.JSON(apperr.HTTPStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, authResponse)
}

// forgotPassword always answers 200 so the endpoint cannot be used to
// probe which emails are registered.
func (slf *authHandler) forgotPassword(c *gin.Context) {
	var forgotDTO request.ForgotPasswordDTO
	err := pkg.ParseAndValidate(c, &forgotDTO)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	if err := slf.userService.ForgotPassword(forgotDTO.Email); err != nil {
		slf.logger.Error().Err(err).Msg("Error handling forgot-password request")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Could not process request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "If the email exists, a reset link has been sent"})
}

func (slf *authHandler) resetPassword(c *gin.Context) {
	var resetDTO request.ResetPasswordDTO
	err := pkg.ParseAndValidate(c, &resetDTO)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	if err := slf.userService.ResetPassword(resetDTO); err != nil {
		slf.logger.Warn().Err(err).Msg("Error resetting password")
		c.JSON(apperr.HTTPStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset"})
}

func (slf *authHandler) getMe(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.APIError{Message: "User not authenticated"})
		return
	}

	user, err := slf.userService.GetByID(userID)
	if err != nil {
		slf.logger.Error().Err(err).Uint("userId", userID).Msg("Error getting user")
		c.JSON(apperr.HTTPStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, user)
}

func (slf *authHandler) listUsers(c *gin.Context) {
	users, err := slf.userService.ListUsers()
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error listing users")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to list users"})
		return
	}

	c.JSON(http.StatusOK, users)
}
