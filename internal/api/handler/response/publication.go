package response

import "time"

type PublicationDTO struct {
	ID           uint          `json:"id"`
	Content      string        `json:"content"`
	HasImage     bool          `json:"hasImage"`
	AuthorID     uint          `json:"authorId"`
	AuthorName   string        `json:"authorName"`
	IsApproved   bool          `json:"isApproved"`
	ApprovedByID *uint         `json:"approvedById,omitempty"`
	ApprovedAt   *time.Time    `json:"approvedAt,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	Comments     []CommentDTO  `json:"comments"`
	Reactions    []ReactionDTO `json:"reactions"`
}

type CommentDTO struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"userId"`
	UserName  string    `json:"userName"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type ReactionDTO struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"userId"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}
