package models

import (
	"time"

	"gorm.io/gorm"
)

// Category is the closed set of event categories.
type Category string

const (
	CategoryGeneral  Category = "general"
	CategoryAcademic Category = "academic"
	CategorySocial   Category = "social"
	CategoryCultural Category = "cultural"
	CategorySports   Category = "sports"
	CategoryWorkshop Category = "workshop"
	CategorySeminar  Category = "seminar"
	CategoryOther    Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryGeneral, CategoryAcademic, CategorySocial, CategoryCultural,
		CategorySports, CategoryWorkshop, CategorySeminar, CategoryOther:
		return true
	}
	return false
}

// Event is a bookable campus event. RegisteredCount is the number of
// registrations currently in the registered status; it is mutated only by
// the admission controller.
type Event struct {
	gorm.Model
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	Date            time.Time `json:"date"`
	StartTime       string    `json:"start_time"`
	EndTime         string    `json:"end_time"`
	Capacity        int       `json:"capacity"`
	RegisteredCount int       `json:"registered_count"`
	Category        Category  `gorm:"default:general" json:"category"`
	Organizer       string    `json:"organizer"`
	ImageURL        string    `json:"image_url"`
	IsActive        bool      `gorm:"default:true" json:"is_active"`
	CreatedByID     uint      `json:"created_by_id"`
	CreatedBy       User      `gorm:"foreignKey:CreatedByID" json:"-"`
}

// Remaining returns the number of available seats.
func (e *Event) Remaining() int {
	return e.Capacity - e.RegisteredCount
}

// IsFull returns true when no seats remain.
func (e *Event) IsFull() bool {
	return e.RegisteredCount >= e.Capacity
}
