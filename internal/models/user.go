package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	FullName     string    `gorm:"type:text;not null" json:"fullName"`
	Email        string    `gorm:"type:text;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"type:text;not null" json:"-"`
	Grade        string    `gorm:"type:text;not null" json:"grade"`
	Country      string    `gorm:"type:text;not null" json:"country"`
	Role         string    `gorm:"type:text;not null;default:'student'" json:"role"`
	CreatedAt    time.Time `gorm:"not null" json:"createdAt"`
}

func (User) TableName() string {
	return "users"
}

// PublicUser is the shape of a user that may leave the server.
type PublicUser struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Grade    string `json:"grade"`
	Country  string `json:"country"`
	Role     string `json:"role"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID.String(),
		FullName: u.FullName,
		Email:    u.Email,
		Grade:    u.Grade,
		Country:  u.Country,
		Role:     u.Role,
	}
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
