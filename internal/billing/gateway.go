package billing

import (
	"context"

	"github.com/stripe/stripe-go/v76"
	portalsession "github.com/stripe/stripe-go/v76/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"
)

// CheckoutRequest describes a subscription checkout for one organization.
type CheckoutRequest struct {
	OrganizationID string
	Tier           string
	PriceID        string
	CustomerID     string // reused when the organization already has one
	CustomerEmail  string
	SuccessURL     string
	CancelURL      string
}

// Gateway opens hosted Stripe sessions.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

// StripeGateway talks to the Stripe API.
type StripeGateway struct {
	checkout checkoutsession.Client
	portal   portalsession.Client
}

// NewStripeGateway creates a StripeGateway using secretKey.
func NewStripeGateway(secretKey string) *StripeGateway {
	backend := stripe.GetBackend(stripe.APIBackend)
	return &StripeGateway{
		checkout: checkoutsession.Client{B: backend, Key: secretKey},
		portal:   portalsession.Client{B: backend, Key: secretKey},
	}
}

// CreateCheckoutSession returns the hosted checkout URL. The organization
// and tier travel in metadata on both the session and the subscription so
// later events can be matched back.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		ClientReferenceID: stripe.String(req.OrganizationID),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(req.PriceID), Quantity: stripe.Int64(1)},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{},
	}
	params.Context = ctx
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	} else if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.AddMetadata("organization_id", req.OrganizationID)
	params.AddMetadata("tier", req.Tier)
	params.SubscriptionData.AddMetadata("organization_id", req.OrganizationID)
	params.SubscriptionData.AddMetadata("tier", req.Tier)

	s, err := g.checkout.New(params)
	if err != nil {
		return "", err
	}
	return s.URL, nil
}

// CreatePortalSession returns a Billing Portal URL for customerID.
func (g *StripeGateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx
	s, err := g.portal.New(params)
	if err != nil {
		return "", err
	}
	return s.URL, nil
}
