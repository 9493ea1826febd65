package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PropertyStatus represents whether a property can take residents
type PropertyStatus string

const (
	PropertyStatusActive   PropertyStatus = "active"
	PropertyStatusInactive PropertyStatus = "inactive"
)

// Property is a house or flat an organization places residents in.
type Property struct {
	ID             uuid.UUID      `gorm:"type:text;primary_key" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:text;not null;index" json:"organization_id"`
	Name           string         `gorm:"not null" json:"name"`
	Address        string         `json:"address"`
	Postcode       string         `json:"postcode"`
	Capacity       int            `gorm:"not null;default:1" json:"capacity"`
	Status         PropertyStatus `gorm:"not null;default:'active'" json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook to generate UUID
func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
