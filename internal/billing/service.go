package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/activity"
	"github.com/havenhq/haven/internal/config"
	"github.com/havenhq/haven/internal/models"
	"github.com/havenhq/haven/internal/service"
	"gorm.io/gorm"
)

// ErrNotConfigured means no Stripe secret key is set.
var ErrNotConfigured = errors.New("billing is not configured")

// Status is the subscription summary shown to organization admins.
type Status struct {
	Status            models.SubscriptionStatus `json:"status"`
	Tier              models.SubscriptionTier   `json:"tier"`
	CurrentPeriodEnd  *time.Time                `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd bool                      `json:"cancel_at_period_end"`
	LastPaymentAt     *time.Time                `json:"last_payment_at,omitempty"`
	HasCustomer       bool                      `json:"has_customer"`
	AvailableTiers    []string                  `json:"available_tiers"`
}

// CheckoutInput picks the tier to subscribe to.
type CheckoutInput struct {
	Tier string `json:"tier" binding:"required,oneof=starter professional enterprise"`
}

// Service backs the billing endpoints.
type Service struct {
	db      *gorm.DB
	gateway Gateway
	cfg     config.BillingConfig
	baseURL string
}

// NewService creates a billing Service. gateway may be nil when Stripe is not
// configured; checkout and portal then return ErrNotConfigured.
func NewService(db *gorm.DB, gateway Gateway, cfg config.BillingConfig, baseURL string) *Service {
	return &Service{db: db, gateway: gateway, cfg: cfg, baseURL: strings.TrimRight(baseURL, "/")}
}

// Status returns the organization's subscription state.
func (s *Service) Status(orgID uuid.UUID) (*Status, error) {
	org, err := s.org(orgID)
	if err != nil {
		return nil, err
	}
	tiers := make([]string, 0, len(s.cfg.TierPrices))
	for _, t := range []models.SubscriptionTier{models.TierStarter, models.TierProfessional, models.TierEnterprise} {
		if s.cfg.TierPrices[string(t)] != "" {
			tiers = append(tiers, string(t))
		}
	}
	return &Status{
		Status:            org.SubscriptionStatus,
		Tier:              org.SubscriptionTier,
		CurrentPeriodEnd:  org.CurrentPeriodEnd,
		CancelAtPeriodEnd: org.CancelAtPeriodEnd,
		LastPaymentAt:     org.LastPaymentAt,
		HasCustomer:       org.StripeCustomerID != "",
		AvailableTiers:    tiers,
	}, nil
}

// Invoices returns stored invoices, newest period first.
func (s *Service) Invoices(orgID uuid.UUID) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := s.db.Where("organization_id = ?", orgID).
		Order("period_end DESC, id DESC").
		Find(&invoices).Error
	return invoices, err
}

// Checkout opens a Stripe Checkout Session for tier and returns its URL.
func (s *Service) Checkout(ctx context.Context, orgID uuid.UUID, in CheckoutInput, actor service.Actor) (string, error) {
	if s.gateway == nil {
		return "", ErrNotConfigured
	}
	tier, ok := models.ParseTier(in.Tier)
	if !ok {
		return "", &service.ValidationError{Message: "unknown tier"}
	}
	priceID := s.cfg.TierPrices[string(tier)]
	if priceID == "" {
		return "", &service.ValidationError{Message: fmt.Sprintf("tier %s is not available", tier)}
	}

	org, err := s.org(orgID)
	if err != nil {
		return "", err
	}
	if org.StripeSubscriptionID != "" && org.SubscriptionStatus != models.SubscriptionCanceled {
		return "", &service.ConflictError{Message: "organization already has a subscription; use the billing portal to change plans"}
	}

	url, err := s.gateway.CreateCheckoutSession(ctx, CheckoutRequest{
		OrganizationID: org.ID.String(),
		Tier:           string(tier),
		PriceID:        priceID,
		CustomerID:     org.StripeCustomerID,
		CustomerEmail:  org.ContactEmail,
		SuccessURL:     s.baseURL + s.cfg.CheckoutSuccessPath,
		CancelURL:      s.baseURL + s.cfg.CheckoutCancelPath,
	})
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}

	if err := activity.Record(s.db, orgID, activity.Actor(actor.UserID), activity.ActionStartCheckout,
		activity.Resource("organization", orgID), map[string]string{"tier": string(tier)}); err != nil {
		return "", err
	}
	return url, nil
}

// Portal opens a Billing Portal session and returns its URL.
func (s *Service) Portal(ctx context.Context, orgID uuid.UUID, actor service.Actor) (string, error) {
	if s.gateway == nil {
		return "", ErrNotConfigured
	}
	org, err := s.org(orgID)
	if err != nil {
		return "", err
	}
	if org.StripeCustomerID == "" {
		return "", &service.ValidationError{Message: "organization has no billing account yet"}
	}

	url, err := s.gateway.CreatePortalSession(ctx, org.StripeCustomerID, s.baseURL+s.cfg.PortalReturnPath)
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}

	if err := activity.Record(s.db, orgID, activity.Actor(actor.UserID), activity.ActionOpenBillingPortal,
		activity.Resource("organization", orgID), nil); err != nil {
		return "", err
	}
	return url, nil
}

func (s *Service) org(orgID uuid.UUID) (*models.Organization, error) {
	var org models.Organization
	if err := s.db.First(&org, "id = ?", orgID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, service.ErrNotFound
		}
		return nil, err
	}
	return &org, nil
}
