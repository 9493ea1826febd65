package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Membership assigns a user one role inside one organization.
type Membership struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:text;not null;uniqueIndex:idx_membership_org_user" json:"organization_id"`
	Organization   Organization   `gorm:"foreignKey:OrganizationID" json:"-"`
	UserID         uuid.UUID      `gorm:"type:text;not null;uniqueIndex:idx_membership_org_user;index" json:"user_id"`
	User           User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role           string         `gorm:"not null" json:"role"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Invitation is a pending offer of membership sent by email.
type Invitation struct {
	ID             uuid.UUID  `gorm:"type:text;primary_key" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:text;not null;index" json:"organization_id"`
	Email          string     `gorm:"not null;index" json:"email"`
	Role           string     `gorm:"not null" json:"role"`
	Token          string     `gorm:"uniqueIndex;not null" json:"-"`
	InvitedByID    uuid.UUID  `gorm:"type:text" json:"invited_by_id"`
	ExpiresAt      time.Time  `gorm:"not null" json:"expires_at"`
	AcceptedAt     *time.Time `json:"accepted_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// BeforeCreate hook to generate UUID
func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
