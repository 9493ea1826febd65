package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IncidentSeverity grades a safeguarding incident
type IncidentSeverity string

const (
	SeverityLow      IncidentSeverity = "low"
	SeverityMedium   IncidentSeverity = "medium"
	SeverityHigh     IncidentSeverity = "high"
	SeverityCritical IncidentSeverity = "critical"
)

// Escalates reports whether incidents of this severity alert managers.
func (s IncidentSeverity) Escalates() bool {
	return s == SeverityHigh || s == SeverityCritical
}

// IncidentStatus represents the state of an incident investigation
type IncidentStatus string

const (
	IncidentStatusOpen          IncidentStatus = "open"
	IncidentStatusInvestigating IncidentStatus = "investigating"
	IncidentStatusClosed        IncidentStatus = "closed"
)

// Incident is a safeguarding log entry.
type Incident struct {
	ID             uuid.UUID        `gorm:"type:text;primary_key" json:"id"`
	OrganizationID uuid.UUID        `gorm:"type:text;not null;index" json:"organization_id"`
	ResidentID     *uuid.UUID       `gorm:"type:text;index" json:"resident_id,omitempty"`
	PropertyID     *uuid.UUID       `gorm:"type:text;index" json:"property_id,omitempty"`
	ReportedByID   uuid.UUID        `gorm:"type:text;not null" json:"reported_by_id"`
	Category       string           `gorm:"not null" json:"category"`
	Severity       IncidentSeverity `gorm:"not null;index" json:"severity"`
	Status         IncidentStatus   `gorm:"not null;default:'open';index" json:"status"`
	Description    string           `gorm:"type:text;not null" json:"description"`
	ActionsTaken   string           `gorm:"type:text" json:"actions_taken,omitempty"`
	OccurredAt     time.Time        `gorm:"not null;index" json:"occurred_at"`
	ClosedAt       *time.Time       `json:"closed_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	DeletedAt      gorm.DeletedAt   `gorm:"index" json:"-"`
}

// BeforeCreate hook to generate UUID
func (i *Incident) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
