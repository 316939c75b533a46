package models

import (
	"time"

	"gorm.io/gorm"
)

// Status is a registration's lifecycle state.
type Status string

const (
	StatusRegistered Status = "registered"
	StatusWaitlisted Status = "waitlisted"
	StatusCancelled  Status = "cancelled"
	StatusAttended   Status = "attended"
)

func (s Status) Valid() bool {
	switch s {
	case StatusRegistered, StatusWaitlisted, StatusCancelled, StatusAttended:
		return true
	}
	return false
}

// Terminal reports whether no further transitions leave this status.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusAttended
}

// CanTransitionTo reports whether s → next is a defined transition.
// registered → cancelled|attended, waitlisted → registered|cancelled;
// cancelled and attended are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusRegistered:
		return next == StatusCancelled || next == StatusAttended
	case StatusWaitlisted:
		return next == StatusRegistered || next == StatusCancelled
	}
	return false
}

// ContactFields are the optional contact details captured at admission time.
type ContactFields struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Registration ties a user to an event. RegistrationDate is the waitlist
// FIFO order key; ties break on primary key so promotion order is stable.
type Registration struct {
	gorm.Model
	EventID          uint      `gorm:"index" json:"event_id"`
	Event            Event     `gorm:"foreignKey:EventID" json:"-"`
	UserID           uint      `gorm:"index" json:"user_id"`
	User             User      `gorm:"foreignKey:UserID" json:"-"`
	Status           Status    `gorm:"index" json:"status"`
	RegistrationDate time.Time `json:"registration_date"`
	ConfirmationCode string    `gorm:"uniqueIndex" json:"confirmation_code"`
	ContactFields    `gorm:"embedded"`
}
