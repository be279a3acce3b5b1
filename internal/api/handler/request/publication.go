package request

type CreatePublicationDTO struct {
	Content     string `json:"content" validate:"required"`
	ImageBase64 string `json:"imageBase64,omitempty"`
}

type AddCommentDTO struct {
	PublicationID uint   `json:"publicationId" validate:"required"`
	Text          string `json:"text" validate:"required"`
}

type AddReactionDTO struct {
	PublicationID uint   `json:"publicationId" validate:"required"`
	Type          string `json:"type" validate:"required"`
}
