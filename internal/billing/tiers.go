package billing

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/havenhq/haven/internal/metrics"
	"github.com/havenhq/haven/internal/models"
	"github.com/stripe/stripe-go/v76"
)

// Tier sources reported by TierMapper.Map.
const (
	TierFromConfig    = "config"
	TierFromMetadata  = "metadata"
	TierFromLookupKey = "lookup_key"
)

// TierMapper resolves a Stripe price to a subscription tier. Configured
// price IDs win, then the price's metadata.tier, then its lookup key.
type TierMapper struct {
	prices map[string]models.SubscriptionTier
	logger *slog.Logger
}

// NewTierMapper builds a mapper from billing.price_tiers (price ID -> tier).
func NewTierMapper(priceTiers map[string]string, logger *slog.Logger) (*TierMapper, error) {
	prices := make(map[string]models.SubscriptionTier, len(priceTiers))
	for priceID, name := range priceTiers {
		tier, ok := models.ParseTier(strings.ToLower(strings.TrimSpace(name)))
		if !ok {
			return nil, fmt.Errorf("billing.price_tiers: price %s maps to unknown tier %q", priceID, name)
		}
		prices[priceID] = tier
	}
	return &TierMapper{prices: prices, logger: logger}, nil
}

// Map returns the tier for price and where it came from. ok is false when
// nothing matched; the caller must then leave the stored tier alone.
func (m *TierMapper) Map(price *stripe.Price) (tier models.SubscriptionTier, source string, ok bool) {
	if price == nil {
		return "", "", false
	}
	if tier, ok := m.prices[price.ID]; ok {
		return tier, TierFromConfig, true
	}
	if tier, ok := models.ParseTier(strings.ToLower(price.Metadata["tier"])); ok {
		return tier, TierFromMetadata, true
	}
	if tier, ok := tierFromLookupKey(price.LookupKey); ok {
		return tier, TierFromLookupKey, true
	}

	metrics.TierMappingMisses.Inc()
	m.logger.Warn("Stripe price does not map to a tier; keeping current tier",
		"price_id", price.ID, "lookup_key", price.LookupKey)
	return "", "", false
}

// tierFromLookupKey accepts keys such as "professional", "haven_professional"
// or "professional_monthly".
func tierFromLookupKey(key string) (models.SubscriptionTier, bool) {
	key = strings.ToLower(key)
	if key == "" {
		return "", false
	}
	if tier, ok := models.ParseTier(key); ok {
		return tier, true
	}
	for _, part := range strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || r == '.' }) {
		if tier, ok := models.ParseTier(part); ok {
			return tier, true
		}
	}
	return "", false
}
