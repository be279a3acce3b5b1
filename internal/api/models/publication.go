package models

import (
	"time"
)

type Publication struct {
	ID           uint       `gorm:"primaryKey"`
	Content      string     `gorm:"not null;type:text"`
	ImageData    []byte     `gorm:"column:image_data"`
	AuthorID     uint       `gorm:"not null;index;column:author_id"`
	Author       *User
	IsApproved   bool       `gorm:"default:false;column:is_approved"`
	ApprovedByID *uint      `gorm:"column:approved_by_id"`
	ApprovedBy   *User      `gorm:"foreignKey:ApprovedByID"`
	ApprovedAt   *time.Time `gorm:"column:approved_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime;column:created_at"`

	Comments  []Comment  `gorm:"foreignKey:PublicationID"`
	Reactions []Reaction `gorm:"foreignKey:PublicationID"`
}

func (Publication) TableName() string {
	return "publications"
}

type Comment struct {
	ID            uint      `gorm:"primaryKey"`
	PublicationID uint      `gorm:"not null;index;column:publication_id"`
	UserID        uint      `gorm:"not null;column:user_id"`
	User          *User
	Text          string    `gorm:"not null;type:text"`
	CreatedAt     time.Time `gorm:"autoCreateTime;column:created_at"`
}

func (Comment) TableName() string {
	return "comments"
}

// Reaction is unique per (publication, user); reacting again replaces the type.
type Reaction struct {
	ID            uint      `gorm:"primaryKey"`
	PublicationID uint      `gorm:"not null;uniqueIndex:idx_publication_user;column:publication_id"`
	UserID        uint      `gorm:"not null;uniqueIndex:idx_publication_user;column:user_id"`
	User          *User
	Type          string    `gorm:"not null;column:type"` // e.g. "Like"
	CreatedAt     time.Time `gorm:"autoCreateTime;column:created_at"`
}

func (Reaction) TableName() string {
	return "reactions"
}
