package models

import (
	"time"

	"github.com/google/uuid"
)

// Invoice is a local copy of a Stripe invoice, kept for financial reports.
// Rows are upserted on StripeInvoiceID so redelivered events are harmless.
type Invoice struct {
	ID               uint      `gorm:"primarykey" json:"id"`
	OrganizationID   uuid.UUID `gorm:"type:text;not null;index" json:"organization_id"`
	StripeInvoiceID  string    `gorm:"uniqueIndex;not null" json:"stripe_invoice_id"`
	Number           string    `json:"number"`
	Status           string    `gorm:"not null" json:"status"`
	AmountDue        int64     `json:"amount_due"`
	AmountPaid       int64     `json:"amount_paid"`
	Currency         string    `json:"currency"`
	PeriodEnd        time.Time `gorm:"index" json:"period_end"`
	HostedInvoiceURL string    `json:"hosted_invoice_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
