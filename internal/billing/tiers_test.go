package billing

import (
	"testing"

	"github.com/havenhq/haven/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
)

func TestTierMapper_Order(t *testing.T) {
	m, err := NewTierMapper(map[string]string{"price_cfg": "Enterprise"}, discardLogger())
	require.NoError(t, err)

	tests := []struct {
		name   string
		price  *stripe.Price
		tier   models.SubscriptionTier
		source string
		ok     bool
	}{
		{
			name:   "config wins over metadata and lookup key",
			price:  &stripe.Price{ID: "price_cfg", LookupKey: "starter", Metadata: map[string]string{"tier": "professional"}},
			tier:   models.TierEnterprise,
			source: TierFromConfig,
			ok:     true,
		},
		{
			name:   "metadata wins over lookup key",
			price:  &stripe.Price{ID: "price_a", LookupKey: "starter", Metadata: map[string]string{"tier": "Professional"}},
			tier:   models.TierProfessional,
			source: TierFromMetadata,
			ok:     true,
		},
		{
			name:   "exact lookup key",
			price:  &stripe.Price{ID: "price_b", LookupKey: "starter"},
			tier:   models.TierStarter,
			source: TierFromLookupKey,
			ok:     true,
		},
		{
			name:   "lookup key segment",
			price:  &stripe.Price{ID: "price_c", LookupKey: "haven_professional_monthly"},
			tier:   models.TierProfessional,
			source: TierFromLookupKey,
			ok:     true,
		},
		{
			name:  "invalid metadata falls through to nothing",
			price: &stripe.Price{ID: "price_d", Metadata: map[string]string{"tier": "platinum"}},
		},
		{
			name: "nil price",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, source, ok := m.Map(tt.price)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.tier, tier)
			assert.Equal(t, tt.source, source)
		})
	}
}

func TestNewTierMapper_RejectsUnknownTier(t *testing.T) {
	_, err := NewTierMapper(map[string]string{"price_x": "gold"}, discardLogger())
	assert.Error(t, err)
}
