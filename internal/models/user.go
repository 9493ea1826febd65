package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a person known to the identity provider. ExternalID is the
// subject claim of the bearer tokens issued for them.
type User struct {
	ID            uuid.UUID      `gorm:"type:text;primary_key" json:"id"`
	ExternalID    string         `gorm:"uniqueIndex;not null" json:"-"`
	Email         string         `gorm:"index;not null" json:"email"`
	Name          string         `json:"name"`
	PlatformAdmin bool           `gorm:"not null;default:false" json:"platform_admin"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook to generate UUID
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
