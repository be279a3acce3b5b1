package service

import (
	"encoding/base64"
	"errors"
	"time"

	"intranet/internal/api/handler/request"
	"intranet/internal/api/handler/response"
	"intranet/internal/api/models"
	"intranet/pkg/apperr"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// PublicationService owns the department feed and its approval workflow.
type PublicationService struct {
	publications PublicationRepository
	users        UserDirectory
	publisher    EventPublisher
	logger       zerolog.Logger
}

func NewPublicationService(publications PublicationRepository, users UserDirectory, publisher EventPublisher, logger zerolog.Logger) *PublicationService {
	return &PublicationService{
		publications: publications,
		users:        users,
		publisher:    publisher,
		logger:       logger,
	}
}

// CreatePublication stores a new feed entry. Publications by a department
// head are approved immediately; everyone else's wait for their head.
func (slf *PublicationService) CreatePublication(createDTO request.CreatePublicationDTO, authorID uint) (*response.PublicationDTO, error) {
	author, err := slf.users.FindByID(authorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}

	var imageData []byte
	if createDTO.ImageBase64 != "" {
		imageData, err = base64.StdEncoding.DecodeString(createDTO.ImageBase64)
		if err != nil {
			return nil, apperr.Validation("invalid image encoding")
		}
	}

	publication := models.Publication{
		Content:    createDTO.Content,
		ImageData:  imageData,
		AuthorID:   authorID,
		IsApproved: author.IsHeadOfDepartment(),
		CreatedAt:  time.Now(),
	}
	if err := slf.publications.Create(&publication); err != nil {
		slf.logger.Error().Err(err).Uint("authorId", authorID).Msg("Error creating publication")
		return nil, err
	}

	publication.Author = &author
	dto := publicationToDTO(publication)
	return &dto, nil
}

func (slf *PublicationService) GetApprovedPublications() ([]response.PublicationDTO, error) {
	publications, err := slf.publications.GetApproved()
	if err != nil {
		return nil, err
	}
	dtos := make([]response.PublicationDTO, 0, len(publications))
	for _, publication := range publications {
		dtos = append(dtos, publicationToDTO(publication))
	}
	return dtos, nil
}

// GetPendingPublicationsForApprover lists unapproved publications from the
// approver's department. Non-heads get an empty list, not an error.
func (slf *PublicationService) GetPendingPublicationsForApprover(approverID uint) ([]response.PublicationDTO, error) {
	approver, err := slf.users.FindByID(approverID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	if !approver.IsHeadOfDepartment() {
		return []response.PublicationDTO{}, nil
	}

	publications, err := slf.publications.GetPendingByDepartment(approver.DepartmentID)
	if err != nil {
		return nil, err
	}
	dtos := make([]response.PublicationDTO, 0, len(publications))
	for _, publication := range publications {
		dtos = append(dtos, publicationToDTO(publication))
	}
	return dtos, nil
}

func (slf *PublicationService) GetPublicationByID(id uint) (*response.PublicationDTO, error) {
	publication, err := slf.publications.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("publication not found")
		}
		return nil, err
	}
	dto := publicationToDTO(publication)
	return &dto, nil
}

func (slf *PublicationService) ApprovePublication(publicationID uint, approverID uint) error {
	if err := slf.requireHeadOfDepartment(approverID); err != nil {
		return err
	}

	approved, err := slf.publications.Approve(publicationID, approverID, time.Now())
	if err != nil {
		return err
	}
	if !approved {
		return apperr.NotFound("publication not found or already approved")
	}

	slf.logger.Info().Uint("publicationId", publicationID).Uint("approverId", approverID).Msg("Publication approved")
	slf.publishApproved(publicationID)
	return nil
}

func (slf *PublicationService) RejectPublication(publicationID uint, approverID uint) error {
	if err := slf.requireHeadOfDepartment(approverID); err != nil {
		return err
	}

	rejected, err := slf.publications.Reject(publicationID)
	if err != nil {
		return err
	}
	if !rejected {
		return apperr.NotFound("publication not found or already approved")
	}

	slf.logger.Info().Uint("publicationId", publicationID).Uint("approverId", approverID).Msg("Publication rejected")
	return nil
}

func (slf *PublicationService) AddComment(commentDTO request.AddCommentDTO, userID uint) (*response.CommentDTO, error) {
	if _, err := slf.publications.GetByID(commentDTO.PublicationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("publication not found")
		}
		return nil, err
	}
	user, err := slf.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}

	comment := models.Comment{
		PublicationID: commentDTO.PublicationID,
		UserID:        userID,
		Text:          commentDTO.Text,
		CreatedAt:     time.Now(),
	}
	if err := slf.publications.AddComment(&comment); err != nil {
		return nil, err
	}

	return &response.CommentDTO{
		ID:        comment.ID,
		UserID:    comment.UserID,
		UserName:  user.Name,
		Text:      comment.Text,
		CreatedAt: comment.CreatedAt,
	}, nil
}

func (slf *PublicationService) AddReaction(reactionDTO request.AddReactionDTO, userID uint) (*response.ReactionDTO, error) {
	if _, err := slf.publications.GetByID(reactionDTO.PublicationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("publication not found")
		}
		return nil, err
	}
	if _, err := slf.users.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}

	reaction := models.Reaction{
		PublicationID: reactionDTO.PublicationID,
		UserID:        userID,
		Type:          reactionDTO.Type,
		CreatedAt:     time.Now(),
	}
	if err := slf.publications.AddReaction(&reaction); err != nil {
		return nil, err
	}

	return &response.ReactionDTO{
		ID:        reaction.ID,
		UserID:    reaction.UserID,
		Type:      reaction.Type,
		CreatedAt: reaction.CreatedAt,
	}, nil
}

func (slf *PublicationService) requireHeadOfDepartment(userID uint) error {
	user, err := slf.users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("user not found")
		}
		return err
	}
	if !user.IsHeadOfDepartment() {
		return apperr.Authorization("only a department head can approve publications")
	}
	return nil
}

// publishApproved is fail-open: a broken event bus never fails an approval.
func (slf *PublicationService) publishApproved(publicationID uint) {
	if slf.publisher == nil {
		return
	}
	publication, err := slf.publications.GetByID(publicationID)
	if err != nil {
		slf.logger.Warn().Err(err).Uint("publicationId", publicationID).Msg("Could not load publication for approval event")
		return
	}

	event := PublicationApprovedEvent{
		PublicationID: publication.ID,
		AuthorID:      publication.AuthorID,
		ApprovedAt:    time.Now(),
	}
	if publication.Author != nil {
		event.DepartmentID = publication.Author.DepartmentID
		event.AuthorName = publication.Author.Name
	}
	if err := slf.publisher.PublishPublicationApproved(event); err != nil {
		slf.logger.Warn().Err(err).Uint("publicationId", publicationID).Msg("Failed to publish approval event")
	}
}

func publicationToDTO(publication models.Publication) response.PublicationDTO {
	dto := response.PublicationDTO{
		ID:           publication.ID,
		Content:      publication.Content,
		HasImage:     len(publication.ImageData) > 0,
		AuthorID:     publication.AuthorID,
		IsApproved:   publication.IsApproved,
		ApprovedByID: publication.ApprovedByID,
		ApprovedAt:   publication.ApprovedAt,
		CreatedAt:    publication.CreatedAt,
		Comments:     make([]response.CommentDTO, 0, len(publication.Comments)),
		Reactions:    make([]response.ReactionDTO, 0, len(publication.Reactions)),
	}
	if publication.Author != nil {
		dto.AuthorName = publication.Author.Name
	}
	for _, comment := range publication.Comments {
		commentDTO := response.CommentDTO{
			ID:        comment.ID,
			UserID:    comment.UserID,
			Text:      comment.Text,
			CreatedAt: comment.CreatedAt,
		}
		if comment.User != nil {
			commentDTO.UserName = comment.User.Name
		}
		dto.Comments = append(dto.Comments, commentDTO)
	}
	for _, reaction := range publication.Reactions {
		dto.Reactions = append(dto.Reactions, response.ReactionDTO{
			ID:        reaction.ID,
			UserID:    reaction.UserID,
			Type:      reaction.Type,
			CreatedAt: reaction.CreatedAt,
		})
	}
	return dto
}
