package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ResidentStatus tracks where a young person is in their placement.
type ResidentStatus string

const (
	ResidentStatusReferred ResidentStatus = "referred"
	ResidentStatusActive   ResidentStatus = "active"
	ResidentStatusMovedOn  ResidentStatus = "moved_on"
	ResidentStatusArchived ResidentStatus = "archived"
)

// RiskLevel is the safeguarding risk rating on a resident's file.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Resident is a young person supported by an organization.
// SupportNeeds is stored encrypted ("enc:v1:..."); services decrypt it
// before it leaves the API.
type Resident struct {
	ID             uuid.UUID      `gorm:"type:text;primary_key" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:text;not null;index" json:"organization_id"`
	FirstName      string         `gorm:"not null" json:"first_name"`
	LastName       string         `gorm:"not null" json:"last_name"`
	DateOfBirth    *time.Time     `json:"date_of_birth,omitempty"`
	Status         ResidentStatus `gorm:"not null;default:'referred';index" json:"status"`
	RiskLevel      RiskLevel      `gorm:"not null;default:'low'" json:"risk_level"`
	PropertyID     *uuid.UUID     `gorm:"type:text;index" json:"property_id,omitempty"`
	Property       *Property      `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	KeyWorkerID    *uuid.UUID     `gorm:"type:text" json:"key_worker_id,omitempty"`
	UserID         *uuid.UUID     `gorm:"type:text;index" json:"user_id,omitempty"`
	MoveInDate     *time.Time     `json:"move_in_date,omitempty"`
	MoveOutDate    *time.Time     `json:"move_out_date,omitempty"`
	SupportNeeds   string         `gorm:"type:text" json:"support_needs,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook to generate UUID
func (r *Resident) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// FullName returns "First Last".
func (r *Resident) FullName() string {
	return r.FirstName + " " + r.LastName
}

// CaseNote is a dated entry on a resident's support file. Body is stored
// encrypted.
type CaseNote struct {
	ID         uuid.UUID `gorm:"type:text;primary_key" json:"id"`
	ResidentID uuid.UUID `gorm:"type:text;not null;index" json:"resident_id"`
	AuthorID   uuid.UUID `gorm:"type:text;not null" json:"author_id"`
	Author     User      `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Category   string    `gorm:"not null;default:'general'" json:"category"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// BeforeCreate hook to generate UUID
func (n *CaseNote) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
