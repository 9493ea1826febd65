package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubscriptionStatus mirrors the billing state reported by Stripe.
type SubscriptionStatus string

const (
	SubscriptionNone       SubscriptionStatus = "none"
	SubscriptionTrialing   SubscriptionStatus = "trialing"
	SubscriptionActive     SubscriptionStatus = "active"
	SubscriptionPastDue    SubscriptionStatus = "past_due"
	SubscriptionUnpaid     SubscriptionStatus = "unpaid"
	SubscriptionIncomplete SubscriptionStatus = "incomplete"
	SubscriptionCanceled   SubscriptionStatus = "canceled"
)

// SubscriptionTier is the plan an organization pays for.
type SubscriptionTier string

const (
	TierStarter      SubscriptionTier = "starter"
	TierProfessional SubscriptionTier = "professional"
	TierEnterprise   SubscriptionTier = "enterprise"
)

// ParseTier returns the tier named by s. ok is false for unknown names.
func ParseTier(s string) (SubscriptionTier, bool) {
	switch t := SubscriptionTier(s); t {
	case TierStarter, TierProfessional, TierEnterprise:
		return t, true
	default:
		return "", false
	}
}

// Organization is a tenant. Every resident, property, incident and invoice
// belongs to exactly one organization.
type Organization struct {
	ID                   uuid.UUID          `gorm:"type:text;primary_key" json:"id"`
	Name                 string             `gorm:"not null" json:"name"`
	Slug                 string             `gorm:"uniqueIndex;not null" json:"slug"`
	ContactEmail         string             `json:"contact_email"`
	SubscriptionStatus   SubscriptionStatus `gorm:"not null;default:'none'" json:"subscription_status"`
	SubscriptionTier     SubscriptionTier   `gorm:"not null;default:'starter'" json:"subscription_tier"`
	StripeCustomerID     string             `gorm:"index" json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID string             `json:"stripe_subscription_id,omitempty"`
	CurrentPeriodEnd     *time.Time         `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool               `json:"cancel_at_period_end"`
	LastPaymentAt        *time.Time         `json:"last_payment_at,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
	DeletedAt            gorm.DeletedAt     `gorm:"index" json:"-"`
}

// BeforeCreate hook to generate UUID
func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
