package repo

import (
	"errors"
	"time"

	"intranet"
	"intranet/internal/api/models"

	"gorm.io/gorm"
)

type PublicationRepository struct {
	Db *gorm.DB
}

func NewPublicationRepository() *PublicationRepository {
	return &PublicationRepository{Db: intranet.DB}
}

func (slf *PublicationRepository) Create(publication *models.Publication) error {
	return slf.Db.Create(publication).Error
}

func (slf *PublicationRepository) GetByID(id uint) (models.Publication, error) {
	var publication models.Publication
	err := slf.Db.
		Preload("Author").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Comments.User").
		Preload("Reactions").
		First(&publication, id).Error
	return publication, err
}

func (slf *PublicationRepository) GetApproved() ([]models.Publication, error) {
	var publications []models.Publication
	err := slf.Db.
		Preload("Author").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Comments.User").
		Preload("Reactions").
		Where("is_approved = ?", true).
		Order("created_at DESC").
		Find(&publications).Error
	return publications, err
}

func (slf *PublicationRepository) GetPendingByDepartment(departmentID uint) ([]models.Publication, error) {
	var publications []models.Publication
	err := slf.Db.
		Preload("Author").
		Joins("JOIN users ON users.id = publications.author_id AND users.department_id = ?", departmentID).
		Where("publications.is_approved = ?", false).
		Order("publications.created_at ASC").
		Find(&publications).Error
	return publications, err
}

func (slf *PublicationRepository) Approve(publicationID uint, approverID uint, at time.Time) (bool, error) {
	res := slf.Db.Model(&models.Publication{}).
		Where("id = ?", publicationID).
		Where("is_approved = ?", false).
		Updates(map[string]any{
			"is_approved":    true,
			"approved_by_id": approverID,
			"approved_at":    at,
		})
	return res.RowsAffected > 0, res.Error
}

func (slf *PublicationRepository) Reject(publicationID uint) (bool, error) {
	res := slf.Db.Where("is_approved = ?", false).Delete(&models.Publication{}, publicationID)
	return res.RowsAffected > 0, res.Error
}

func (slf *PublicationRepository) AddComment(comment *models.Comment) error {
	return slf.Db.Create(comment).Error
}

// AddReaction replaces an existing reaction of the same user on the same
// publication instead of duplicating it.
func (slf *PublicationRepository) AddReaction(reaction *models.Reaction) error {
	var existing models.Reaction
	err := slf.Db.
		Where("publication_id = ?", reaction.PublicationID).
		Where("user_id = ?", reaction.UserID).
		First(&existing).Error
	if err == nil {
		existing.Type = reaction.Type
		if err := slf.Db.Save(&existing).Error; err != nil {
			return err
		}
		*reaction = existing
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return slf.Db.Create(reaction).Error
}
