package models

import (
	"gorm.io/gorm"
)

// RegistrationAudit records one status transition of a registration,
// including admission itself (FromStatus empty).
type RegistrationAudit struct {
	gorm.Model
	RegistrationID uint   `gorm:"index" json:"registration_id"`
	EventID        uint   `gorm:"index" json:"event_id"`
	ActorID        uint   `json:"actor_id"`
	FromStatus     Status `json:"from_status"`
	ToStatus       Status `json:"to_status"`
}
