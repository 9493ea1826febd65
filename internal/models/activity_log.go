package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityLog records who did what inside an organization. ActorID is nil for
// system actions such as billing webhooks.
type ActivityLog struct {
	ID             uint       `gorm:"primarykey" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:text;index" json:"organization_id"`
	ActorID        *uuid.UUID `gorm:"type:text;index" json:"actor_id,omitempty"`
	Action         string     `gorm:"not null" json:"action"`        // e.g., "create_resident", "subscription_updated"
	Resource       string     `gorm:"not null" json:"resource"`      // e.g., "resident:123", "organization:456"
	DetailsJSON    string     `gorm:"type:text" json:"details_json"` // Additional context in JSON
	Timestamp      time.Time  `gorm:"not null;index" json:"timestamp"`
}
