package endpoints

import (
	"net/http"
	"strconv"

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

type chatHandler struct {
	chatService *service.ChatService
	logger      zerolog.Logger
}

func ChatHandler(router *graceful.Graceful, chatService *service.ChatService) {
	h := &chatHandler{
		chatService: chatService,
		logger:      intranet.Logger,
	}

	chats := router.Group("/api/v1/chats")
	chats.Use(middleware.AuthMiddleware(intranet.GetConfig()))
	{
		chats.GET("", h.getUserChats)
		chats.GET("/:id", h.getChatByID)
		chats.GET("/:id/messages", h.getChatMessages)
		chats.POST("/:id/messages", h.addMessage)
		chats.POST("/:id/read", h.markMessagesAsRead)
		chats.POST("/private", h.createPrivateChat)
		chats.POST("/department", h.createDepartmentChat)
		chats.POST("/group", h.createCustomGroupChat)
	}
}

func (slf *chatHandler) getUserChats(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.APIError{Message: "User not authenticated"})
		return
	}

	chats, err := slf.chatService.GetUserChats(userID)
	if err != nil {
		slf.logger.Error().Err(err).Uint("userId", userID).Msg("Error listing user chats")
		c.JSON(apperr.HTTPStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, chats)
}

func (slf *chatHandler) getChatByID(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.APIError{Message: "User not authenticated"})
		return
	}
	chatID, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid chat id"})
		return
	}

	chat, err := slf.chatService.GetChatByID(chatID, userID)
	if err != nil {
		slf.logger.Warn().Err(err).Uint("chatId", chatID).Uint("userId", userID).Msg("Error getting chat")
		c.JSON(apperr.HTTPStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, chat)
}

func (slf *chatHandler) getChatMessages(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.APIError{Message: "User not authenticated"})
		return
	}
	chatID, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid chat id"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	messages, err := slf.chatService.GetChatMessages(chatID, userID, page, pageSize)
	if err != nil {
		slf.logger.Warn().Err(err).Uint("chatId", chatID).Uint("userId", userID).Msg("Error getting chat messages")
		c.JSON(apperr.HTTPStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, messages)
}

func (slf *chatHandler) addMessage(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.APIError{Message: "User not authenticated"})
		return
	}
	chatID, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid chat id"})
		return
	}

	var messageDTO request.MessageCreateDTO
	if err := pkg.ParseAndValidate(c, &messageDTO); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}
	if messageDTO.SenderID != userID {
		c.JSON(http.StatusForbidden, response.APIError{Message: "sender does not match the authenticated user"})
		return
	}
	if messageDTO.ChatID != chatID {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "chat id in body does not match the URL"})
		return
	}

	message, err := slf.chatService.AddMessage(messageDTO.Content, userID, chatID)
	if err != nil {
		slf.logger.Warn().Err(err).Uint("chatId", chatID).Uint("userId", userID).Msg("Error adding message")
		c.JSON(apperr.HTTPStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, message)
}

func (slf *chatHandler) markMessagesAsRead(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.APIError{Message: "User not authenticated"})
		return
	}
	chatID, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid chat id"})
		return
	}

	if err := slf.chatService.MarkMessagesAsRead(chatID, userID); err != nil {
		slf.logger.Warn().Err(err).Uint("chatId", chatID).Uint("userId", userID).Msg("Error marking messages as read")
		c.JSON(apperr.HTTPStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Messages marked as read"})
}

func (slf *chatHandler) createPrivateChat(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.APIError{Message: "User not authenticated"})
		return
	}

	var createDTO request.CreatePrivateChatDTO
	if err := pkg.ParseAndValidate(c, &createDTO); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	chat, err := slf.chatService.CreatePrivateChat(userID, createDTO.OtherUserID)
	if err != nil {
		slf.logger.Warn().Err(err).Uint("userId", userID).Msg("Error creating private chat")
		c.JSON(apperr.HTTPStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, chat)
}

func (slf *chatHandler) createDepartmentChat(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.APIError{Message: "User not authenticated"})
		return
	}

	var createDTO request.CreateDepartmentChatDTO
	if err := pkg.ParseAndValidate(c, &createDTO); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	chat, err := slf.chatService.CreateDepartmentGroupChat(userID, createDTO.DepartmentID, createDTO.Name)
	if err != nil {
		slf.logger.Warn().Err(err).Uint("userId", userID).Uint("departmentId", createDTO.DepartmentID).Msg("Error creating department chat")
		c.JSON(apperr.HTTPStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, chat)
}

func (slf *chatHandler) createCustomGroupChat(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.APIError{Message: "User not authenticated"})
		return
	}

	var createDTO request.CreateCustomGroupChatDTO
	if err := pkg.ParseAndValidate(c, &createDTO); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	chat, err := slf.chatService.CreateCustomGroupChat(userID, createDTO.DepartmentID, createDTO.Name, createDTO.SelectedUserIDs)
	if err != nil {
		slf.logger.Warn().Err(err).Uint("userId", userID).Uint("departmentId", createDTO.DepartmentID).Msg("Error creating group chat")
		c.JSON(apperr.HTTPStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, chat)
}

func pathID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
