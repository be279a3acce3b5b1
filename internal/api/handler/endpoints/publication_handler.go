package endpoints

import (
	"net/http"

	"intranet"
	"intranet/internal/api/handler/middleware"
	"intranet/internal/api/handler/request"
	"intranet/internal/api/handler/response"
	"intranet/internal/api/models"
	"intranet/internal/api/service"
	"intranet/pkg"
	"intranet/pkg/apperr"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type publicationHandler struct {
	publicationService *service.PublicationService
	logger             zerolog.Logger
}

func PublicationHandler(router *graceful.Graceful, publicationService *service.PublicationService) {
	h := &publicationHandler{
		publicationService: publicationService,
		logger:             intranet.Logger,
	}

	publications := router.Group("/api/v1/publications")
	publications.Use(middleware.AuthMiddleware(intranet.GetConfig()))
	{
		publications.GET("", h.getApproved)
		publications.GET("/pending", h.getPending)
		publications.GET("/:id", h.getByID)
		publications.POST("", h.create)
		publications.POST("/:id/approve", middleware.RequireRole(models.RoleHeadDepartment), h.approve)
		publications.POST("/:id/reject", middleware.RequireRole(models.RoleHeadDepartment), h.reject)
		publications.POST("/comments", h.addComment)
		publications.POST("/reactions", h.addReaction)
	}
}

func (slf *publicationHandler) getApproved(c *gin.Context) {
	publications, err := slf.publicationService.GetApprovedPublications()
	if err != nil {
		slf.logger.Error().Err(err).Msg("Error listing publications")
		c.JSON(http.StatusInternalServerError, response.APIError{Message: "Failed to list publications"})
		return
	}

	c.JSON(http.StatusOK, publications)
}

func (slf *publicationHandler) getPending(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.APIError{Message: "User not authenticated"})
		return
	}

	publications, err := slf.publicationService.GetPendingPublicationsForApprover(userID)
	if err != nil {
		slf.logger.Error().Err(err).Uint("userId", userID).Msg("Error listing pending publications")
		c.JSON(apperr.HTTPStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, publications)
}

func (slf *publicationHandler) getByID(c *gin.Context) {
	publicationID, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid publication id"})
		return
	}

	publication, err := slf.publicationService.GetPublicationByID(publicationID)
	if err != nil {
		c.JSON(apperr.HTTPStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, publication)
}

func (slf *publicationHandler) create(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.APIError{Message: "User not authenticated"})
		return
	}

	var createDTO request.CreatePublicationDTO
	if err := pkg.ParseAndValidate(c, &createDTO); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	publication, err := slf.publicationService.CreatePublication(createDTO, userID)
	if err != nil {
		slf.logger.Error().Err(err).Uint("userId", userID).Msg("Error creating publication")
		c.JSON(apperr.HTTPStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, publication)
}

func (slf *publicationHandler) approve(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.APIError{Message: "User not authenticated"})
		return
	}
	publicationID, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid publication id"})
		return
	}

	if err := slf.publicationService.ApprovePublication(publicationID, userID); err != nil {
		slf.logger.Warn().Err(err).Uint("publicationId", publicationID).Uint("userId", userID).Msg("Error approving publication")
		c.JSON(apperr.HTTPStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Publication approved"})
}

func (slf *publicationHandler) reject(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.APIError{Message: "User not authenticated"})
		return
	}
	publicationID, err := pathID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid publication id"})
		return
	}

	if err := slf.publicationService.RejectPublication(publicationID, userID); err != nil {
		slf.logger.Warn().Err(err).Uint("publicationId", publicationID).Uint("userId", userID).Msg("Error rejecting publication")
		c.JSON(apperr.HTTPStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Publication rejected"})
}

func (slf *publicationHandler) addComment(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.APIError{Message: "User not authenticated"})
		return
	}

	var commentDTO request.AddCommentDTO
	if err := pkg.ParseAndValidate(c, &commentDTO); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	comment, err := slf.publicationService.AddComment(commentDTO, userID)
	if err != nil {
		slf.logger.Warn().Err(err).Uint("publicationId", commentDTO.PublicationID).Uint("userId", userID).Msg("Error adding comment")
		c.JSON(apperr.HTTPStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func (slf *publicationHandler) addReaction(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.APIError{Message: "User not authenticated"})
		return
	}

	var reactionDTO request.AddReactionDTO
	if err := pkg.ParseAndValidate(c, &reactionDTO); err != nil {
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	reaction, err := slf.publicationService.AddReaction(reactionDTO, userID)
	if err != nil {
		slf.logger.Warn().Err(err).Uint("publicationId", reactionDTO.PublicationID).Uint("userId", userID).Msg("Error adding reaction")
		c.JSON(apperr.HTTPStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, reaction)
}
