// Package billing applies Stripe webhook events to organizations and opens
// Checkout and Billing Portal sessions.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/activity"
	"github.com/havenhq/haven/internal/metrics"
	"github.com/havenhq/haven/internal/models"
	"github.com/havenhq/haven/internal/notify"
	"github.com/havenhq/haven/internal/permissions"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxPayloadBytes caps the webhook body read from the request.
const MaxPayloadBytes = 64 << 10

// SignatureTolerance is how old a signed payload may be.
const SignatureTolerance = 5 * time.Minute

// ErrInvalidSignature means the payload was not signed with our secret.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Metric outcomes
const (
	outcomeApplied  = "applied"
	outcomeIgnored  = "ignored"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// Mailer queues outgoing email.
type Mailer interface {
	Enqueue(ctx context.Context, orgID *uuid.UUID, msg notify.Message) (*models.Job, error)
}

// AdminDirectory looks up who to tell about billing problems.
type AdminDirectory interface {
	AdminEmails(orgID uuid.UUID, roles ...permissions.Role) ([]string, error)
}

// Processor verifies Stripe events and applies them to organizations.
// Every write is derived from the event payload so redelivery is harmless.
type Processor struct {
	db      *gorm.DB
	secret  string
	tiers   *TierMapper
	mailer  Mailer
	admins  AdminDirectory
	baseURL string
	logger  *slog.Logger
}

// NewProcessor creates a Processor. mailer and admins may be nil to skip
// payment-failed email.
func NewProcessor(db *gorm.DB, secret string, tiers *TierMapper, mailer Mailer, admins AdminDirectory, baseURL string, logger *slog.Logger) *Processor {
	return &Processor{
		db:      db,
		secret:  secret,
		tiers:   tiers,
		mailer:  mailer,
		admins:  admins,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Process verifies payload against the Stripe-Signature header and applies
// the event. ErrInvalidSignature means nothing was written.
func (p *Processor) Process(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.secret, webhook.ConstructEventOptions{
		Tolerance:                SignatureTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("unknown", outcomeRejected).Inc()
		p.logger.Warn("Rejected Stripe webhook", "error", err)
		return ErrInvalidSignature
	}
	return p.Handle(ctx, event)
}

// Handle applies a verified event. A returned error means a write failed and
// Stripe should retry.
func (p *Processor) Handle(ctx context.Context, event stripe.Event) error {
	log := p.logger.With("event_id", event.ID, "event_type", event.Type)

	var (
		applied bool
		err     error
	)
	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		applied, err = p.checkoutCompleted(event, log)
	case stripe.EventTypeCustomerSubscriptionCreated, stripe.EventTypeCustomerSubscriptionUpdated:
		applied, err = p.subscriptionUpdated(event, log)
	case stripe.EventTypeCustomerSubscriptionDeleted:
		applied, err = p.subscriptionDeleted(event, log)
	case stripe.EventTypeInvoicePaid:
		applied, err = p.invoicePaid(event, log)
	case stripe.EventTypeInvoicePaymentFailed:
		applied, err = p.invoicePaymentFailed(ctx, event, log)
	default:
		log.Debug("Ignoring unhandled Stripe event")
	}

	outcome := outcomeIgnored
	switch {
	case err != nil:
		outcome = outcomeError
		log.Error("Failed to apply Stripe event", "error", err)
	case applied:
		outcome = outcomeApplied
		log.Info("Applied Stripe event")
	}
	metrics.WebhookEventsTotal.WithLabelValues(string(event.Type), outcome).Inc()
	return err
}

func (p *Processor) checkoutCompleted(event stripe.Event, log *slog.Logger) (bool, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return false, fmt.Errorf("decode checkout session: %w", err)
	}

	orgID, ok := orgIDFromMetadata(session.Metadata)
	if !ok {
		log.Warn("Checkout session has no organization_id metadata; nothing to update", "session_id", session.ID)
		return false, nil
	}
	org, err := p.findOrg(orgID, "")
	if err != nil {
		return false, err
	}
	if org == nil {
		log.Warn("Checkout session names an unknown organization", "organization_id", orgID)
		return false, nil
	}

	updates := map[string]interface{}{
		"subscription_status": models.SubscriptionActive,
	}
	if session.Customer != nil && session.Customer.ID != "" {
		updates["stripe_customer_id"] = session.Customer.ID
	}
	if session.Subscription != nil && session.Subscription.ID != "" {
		updates["stripe_subscription_id"] = session.Subscription.ID
	}
	if tier, ok := models.ParseTier(session.Metadata["tier"]); ok {
		updates["subscription_tier"] = tier
	}

	return true, p.apply(org, updates, activity.ActionCheckoutCompleted, event, nil)
}

func (p *Processor) subscriptionUpdated(event stripe.Event, log *slog.Logger) (bool, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return false, fmt.Errorf("decode subscription: %w", err)
	}

	org, err := p.orgFor(sub.Metadata, sub.Customer)
	if err != nil {
		return false, err
	}
	if org == nil {
		log.Warn("Subscription event for unknown organization", "subscription_id", sub.ID)
		return false, nil
	}

	updates := map[string]interface{}{
		"subscription_status":    subscriptionStatus(sub.Status),
		"stripe_subscription_id": sub.ID,
		"cancel_at_period_end":   sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil && sub.Customer.ID != "" {
		updates["stripe_customer_id"] = sub.Customer.ID
	}
	if sub.CurrentPeriodEnd > 0 {
		updates["current_period_end"] = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	}
	details := map[string]string{"status": string(sub.Status)}
	if price := subscriptionPrice(&sub); price != nil {
		if tier, source, ok := p.tiers.Map(price); ok {
			updates["subscription_tier"] = tier
			details["tier"] = string(tier)
			details["tier_source"] = source
		}
	}

	return true, p.apply(org, updates, activity.ActionSubscriptionUpdated, event, details)
}

func (p *Processor) subscriptionDeleted(event stripe.Event, log *slog.Logger) (bool, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return false, fmt.Errorf("decode subscription: %w", err)
	}

	org, err := p.orgFor(sub.Metadata, sub.Customer)
	if err != nil {
		return false, err
	}
	if org == nil {
		log.Warn("Subscription deletion for unknown organization", "subscription_id", sub.ID)
		return false, nil
	}

	updates := map[string]interface{}{
		"subscription_status":  models.SubscriptionCanceled,
		"cancel_at_period_end": false,
	}
	// A newer subscription may already be recorded.
	if org.StripeSubscriptionID == "" || org.StripeSubscriptionID == sub.ID {
		updates["stripe_subscription_id"] = ""
	}

	return true, p.apply(org, updates, activity.ActionSubscriptionCanceled, event, map[string]string{"subscription_id": sub.ID})
}

func (p *Processor) invoicePaid(event stripe.Event, log *slog.Logger) (bool, error) {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return false, fmt.Errorf("decode invoice: %w", err)
	}

	org, err := p.orgFor(invoiceMetadata(&inv), inv.Customer)
	if err != nil {
		return false, err
	}
	if org == nil {
		log.Warn("Paid invoice for unknown organization", "invoice_id", inv.ID)
		return false, nil
	}

	updates := map[string]interface{}{
		"subscription_status": models.SubscriptionActive,
	}
	if inv.PeriodEnd > 0 {
		updates["last_payment_at"] = time.Unix(inv.PeriodEnd, 0).UTC()
	}

	return true, p.apply(org, updates, activity.ActionInvoicePaid, event, invoiceDetails(&inv), invoiceRow(org.ID, &inv))
}

func (p *Processor) invoicePaymentFailed(ctx context.Context, event stripe.Event, log *slog.Logger) (bool, error) {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return false, fmt.Errorf("decode invoice: %w", err)
	}

	org, err := p.orgFor(invoiceMetadata(&inv), inv.Customer)
	if err != nil {
		return false, err
	}
	if org == nil {
		log.Warn("Failed invoice for unknown organization", "invoice_id", inv.ID)
		return false, nil
	}

	updates := map[string]interface{}{
		"subscription_status": models.SubscriptionPastDue,
	}
	if err := p.apply(org, updates, activity.ActionInvoicePaymentFailed, event, invoiceDetails(&inv), invoiceRow(org.ID, &inv)); err != nil {
		return false, err
	}

	p.notifyPaymentFailed(ctx, org, &inv, log)
	return true, nil
}

// notifyPaymentFailed emails the organization's admins. Delivery problems
// are logged; the billing state is already recorded.
func (p *Processor) notifyPaymentFailed(ctx context.Context, org *models.Organization, inv *stripe.Invoice, log *slog.Logger) {
	if p.mailer == nil || p.admins == nil {
		return
	}
	recipients, err := p.admins.AdminEmails(org.ID, permissions.RoleAdmin)
	if err != nil {
		log.Error("Failed to look up billing contacts", "error", err)
		return
	}
	if len(recipients) == 0 && org.ContactEmail != "" {
		recipients = []string{org.ContactEmail}
	}
	if len(recipients) == 0 {
		log.Warn("No one to notify about failed payment", "organization_id", org.ID)
		return
	}

	_, err = p.mailer.Enqueue(ctx, &org.ID, notify.Message{
		Kind: notify.KindPaymentFailed,
		To:   recipients,
		Data: map[string]string{
			"OrganizationName": org.Name,
			"AmountDue":        FormatAmount(inv.AmountDue, string(inv.Currency)),
			"InvoiceURL":       inv.HostedInvoiceURL,
			"BillingURL":       p.baseURL + "/settings/billing",
		},
	})
	if err != nil {
		log.Error("Failed to queue payment failed email", "error", err)
	}
}

// apply writes the organization updates, optional invoice upsert and the
// activity entry in one transaction.
func (p *Processor) apply(org *models.Organization, updates map[string]interface{}, action string, event stripe.Event, details interface{}, invoices ...*models.Invoice) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Organization{}).Where("id = ?", org.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("update organization: %w", err)
		}
		for _, inv := range invoices {
			if err := upsertInvoice(tx, inv); err != nil {
				return err
			}
		}
		if details == nil {
			details = map[string]string{}
		}
		return activity.Record(tx, org.ID, nil, action, "stripe_event:"+event.ID, details)
	})
}

func upsertInvoice(tx *gorm.DB, inv *models.Invoice) error {
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "stripe_invoice_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"organization_id", "number", "status", "amount_due", "amount_paid",
			"currency", "period_end", "hosted_invoice_url", "updated_at",
		}),
	}).Create(inv).Error
	if err != nil {
		return fmt.Errorf("upsert invoice %s: %w", inv.StripeInvoiceID, err)
	}
	return nil
}

// orgFor finds the organization by metadata first, then by Stripe customer.
func (p *Processor) orgFor(metadata map[string]string, customer *stripe.Customer) (*models.Organization, error) {
	orgID, _ := orgIDFromMetadata(metadata)
	customerID := ""
	if customer != nil {
		customerID = customer.ID
	}
	return p.findOrg(orgID, customerID)
}

// findOrg returns nil, nil when no organization matches.
func (p *Processor) findOrg(orgID uuid.UUID, customerID string) (*models.Organization, error) {
	var org models.Organization
	if orgID != uuid.Nil {
		err := p.db.First(&org, "id = ?", orgID).Error
		if err == nil {
			return &org, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if customerID != "" {
		err := p.db.First(&org, "stripe_customer_id = ?", customerID).Error
		if err == nil {
			return &org, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

func orgIDFromMetadata(metadata map[string]string) (uuid.UUID, bool) {
	raw := strings.TrimSpace(metadata["organization_id"])
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func invoiceMetadata(inv *stripe.Invoice) map[string]string {
	if inv.SubscriptionDetails != nil && inv.SubscriptionDetails.Metadata["organization_id"] != "" {
		return inv.SubscriptionDetails.Metadata
	}
	return inv.Metadata
}

func invoiceRow(orgID uuid.UUID, inv *stripe.Invoice) *models.Invoice {
	row := &models.Invoice{
		OrganizationID:   orgID,
		StripeInvoiceID:  inv.ID,
		Number:           inv.Number,
		Status:           string(inv.Status),
		AmountDue:        inv.AmountDue,
		AmountPaid:       inv.AmountPaid,
		Currency:         string(inv.Currency),
		HostedInvoiceURL: inv.HostedInvoiceURL,
	}
	if inv.PeriodEnd > 0 {
		row.PeriodEnd = time.Unix(inv.PeriodEnd, 0).UTC()
	}
	return row
}

func invoiceDetails(inv *stripe.Invoice) map[string]interface{} {
	return map[string]interface{}{
		"invoice_id":  inv.ID,
		"amount_due":  inv.AmountDue,
		"amount_paid": inv.AmountPaid,
		"currency":    string(inv.Currency),
	}
}

// subscriptionPrice returns the price of the first subscription item.
func subscriptionPrice(sub *stripe.Subscription) *stripe.Price {
	if sub.Items == nil {
		return nil
	}
	for _, item := range sub.Items.Data {
		if item != nil && item.Price != nil {
			return item.Price
		}
	}
	return nil
}

// subscriptionStatus folds Stripe's statuses into the ones Haven stores.
func subscriptionStatus(s stripe.SubscriptionStatus) models.SubscriptionStatus {
	switch s {
	case stripe.SubscriptionStatusActive:
		return models.SubscriptionActive
	case stripe.SubscriptionStatusTrialing:
		return models.SubscriptionTrialing
	case stripe.SubscriptionStatusPastDue:
		return models.SubscriptionPastDue
	case stripe.SubscriptionStatusUnpaid, stripe.SubscriptionStatusPaused:
		return models.SubscriptionUnpaid
	case stripe.SubscriptionStatusIncomplete:
		return models.SubscriptionIncomplete
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusIncompleteExpired:
		return models.SubscriptionCanceled
	default:
		return models.SubscriptionIncomplete
	}
}

// FormatAmount renders minor units as "GBP 12.50".
func FormatAmount(minor int64, currency string) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s %s%d.%02d", strings.ToUpper(currency), sign, minor/100, minor%100)
}
