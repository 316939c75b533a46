package models

import (
	"gorm.io/gorm"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleStudent   Role = "student"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	gorm.Model
	GoogleID    string `gorm:"uniqueIndex" json:"-"`
	Email       string `gorm:"uniqueIndex" json:"email"`
	Name        string `json:"name"`
	Role        Role   `gorm:"default:student" json:"role"`
	PhoneNumber string `json:"phone_number"`
	Department  string `json:"department"`
	StudentID   string `json:"student_id"`
	AvatarURL   string `json:"avatar_url"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanManageEvents reports whether the user may create events.
func (u *User) CanManageEvents() bool {
	return u.Role == RoleAdmin || u.Role == RoleOrganizer
}
