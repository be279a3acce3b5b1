package models

import (
	"strings"
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null;column:password_hash"`
	Name         string    `gorm:"not null;column:name"`
	DepartmentID uint      `gorm:"not null;column:department_id"`
	Department   *Department
	RoleID       uint      `gorm:"not null;column:role_id"`
	Role         *Role
	CreatedAt    time.Time `gorm:"autoCreateTime;column:created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime;column:updated_at"`
}

func (User) TableName() string {
	return "users"
}

// IsHeadOfDepartment reports whether the user's role grants publication
// approval rights for their department.
func (u User) IsHeadOfDepartment() bool {
	return u.Role != nil && u.Role.IsHead()
}

type Department struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Description string
}

func (Department) TableName() string {
	return "departments"
}

type Role struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Description string
}

func (Role) TableName() string {
	return "roles"
}

const RoleHeadDepartment = "head department"

func (r Role) IsHead() bool {
	return strings.EqualFold(strings.TrimSpace(r.Name), RoleHeadDepartment)
}
