package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/config"
	"github.com/havenhq/haven/internal/models"
	"github.com/havenhq/haven/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	checkout []CheckoutRequest
	portal   []string
	err      error
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.checkout = append(g.checkout, req)
	return "https://checkout.stripe.com/c/" + req.Tier, nil
}

func (g *fakeGateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	g.portal = append(g.portal, customerID+"|"+returnURL)
	return "https://billing.stripe.com/p/session", nil
}

func billingConfig() config.BillingConfig {
	return config.BillingConfig{
		TierPrices:          map[string]string{"starter": "price_s", "professional": "price_p"},
		CheckoutSuccessPath: "/settings/billing?checkout=success",
		CheckoutCancelPath:  "/settings/billing?checkout=cancelled",
		PortalReturnPath:    "/settings/billing",
	}
}

func TestServiceCheckout(t *testing.T) {
	f := setup(t, nil)
	gw := &fakeGateway{}
	svc := NewService(f.db, gw, billingConfig(), "https://app.example.org/")
	actor := service.Actor{UserID: uuid.New()}

	url, err := svc.Checkout(context.Background(), f.org.ID, CheckoutInput{Tier: "professional"}, actor)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/professional", url)

	require.Len(t, gw.checkout, 1)
	req := gw.checkout[0]
	assert.Equal(t, f.org.ID.String(), req.OrganizationID)
	assert.Equal(t, "price_p", req.PriceID)
	assert.Equal(t, "https://app.example.org/settings/billing?checkout=success", req.SuccessURL)

	var entry models.ActivityLog
	require.NoError(t, f.db.Where("action = ?", "start_checkout").First(&entry).Error)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, actor.UserID, *entry.ActorID)

	_, err = svc.Checkout(context.Background(), f.org.ID, CheckoutInput{Tier: "enterprise"}, actor)
	var verr *service.ValidationError
	assert.True(t, errors.As(err, &verr), "unpriced tier should be a validation error, got %v", err)
}

func TestServiceCheckout_ExistingSubscription(t *testing.T) {
	f := setup(t, nil)
	require.NoError(t, f.db.Model(f.org).Updates(map[string]interface{}{
		"stripe_subscription_id": "sub_1",
		"subscription_status":    models.SubscriptionActive,
	}).Error)
	svc := NewService(f.db, &fakeGateway{}, billingConfig(), "https://app.example.org")

	_, err := svc.Checkout(context.Background(), f.org.ID, CheckoutInput{Tier: "starter"}, service.Actor{})
	var conflict *service.ConflictError
	assert.True(t, errors.As(err, &conflict), "got %v", err)
}

func TestServicePortal(t *testing.T) {
	f := setup(t, nil)
	gw := &fakeGateway{}
	svc := NewService(f.db, gw, billingConfig(), "https://app.example.org")

	_, err := svc.Portal(context.Background(), f.org.ID, service.Actor{})
	var verr *service.ValidationError
	require.True(t, errors.As(err, &verr), "no customer yet, got %v", err)

	require.NoError(t, f.db.Model(f.org).Update("stripe_customer_id", "cus_9").Error)
	url, err := svc.Portal(context.Background(), f.org.ID, service.Actor{})
	require.NoError(t, err)
	assert.Equal(t, "https://billing.stripe.com/p/session", url)
	assert.Equal(t, []string{"cus_9|https://app.example.org/settings/billing"}, gw.portal)
}

func TestServiceNotConfigured(t *testing.T) {
	f := setup(t, nil)
	svc := NewService(f.db, nil, billingConfig(), "")

	_, err := svc.Checkout(context.Background(), f.org.ID, CheckoutInput{Tier: "starter"}, service.Actor{})
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = svc.Portal(context.Background(), f.org.ID, service.Actor{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestServiceStatusAndInvoices(t *testing.T) {
	f := setup(t, nil)
	payload, header := event(t, "invoice.paid", invoiceObject(f.org.ID.String(), "paid", 4900, 4900))
	require.NoError(t, f.processor.Process(context.Background(), payload, header))

	svc := NewService(f.db, nil, billingConfig(), "")
	status, err := svc.Status(f.org.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, status.Status)
	assert.Equal(t, []string{"starter", "professional"}, status.AvailableTiers)
	assert.NotNil(t, status.LastPaymentAt)

	invoices, err := svc.Invoices(f.org.ID)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "HAV-0001", invoices[0].Number)

	_, err = svc.Status(uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}
