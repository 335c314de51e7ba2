package pricing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nikolayk812/orderflow/internal/domain"
	"github.com/nikolayk812/orderflow/internal/port"
)

type Policy string

const (
	// PolicyQuantityMatched picks the tier whose batch range contains the quantity and falls
	// back to the lowest batch tier when none does.
	PolicyQuantityMatched Policy = "quantity_matched"
	// PolicyFirstActive always picks the lowest batch tier regardless of quantity.
	PolicyFirstActive Policy = "first_active"
)

func ToPolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyQuantityMatched, PolicyFirstActive:
		return p, nil
	case "":
		return PolicyQuantityMatched, nil
	default:
		return "", fmt.Errorf("pricing policy[%s]: %w", s, domain.ErrValidation)
	}
}

type Quote struct {
	Tier      domain.PriceTier
	UnitPrice domain.Money
	UnitCost  domain.Money
	Total     domain.Money
}

type PriceBook struct {
	tiers  port.PriceTierRepository
	policy Policy
}

func NewPriceBook(tiers port.PriceTierRepository, policy Policy) *PriceBook {
	return &PriceBook{
		tiers:  tiers,
		policy: policy,
	}
}

// Price resolves the per-unit price of a product at qty from its active tiers.
// Returns domain.ErrNotFound when the product has no active tier.
func (b *PriceBook) Price(ctx context.Context, productID uuid.UUID, qty int) (Quote, error) {
	if qty < 1 {
		return Quote{}, fmt.Errorf("quantity %d: %w", qty, domain.ErrValidation)
	}

	tiers, err := b.tiers.ListActive(ctx, productID)
	if err != nil {
		return Quote{}, fmt.Errorf("tiers.ListActive: %w", err)
	}

	if len(tiers) == 0 {
		return Quote{}, fmt.Errorf("no active pricing for product[%s]: %w", productID, domain.ErrNotFound)
	}

	tier := b.selectTier(tiers, qty)

	return Quote{
		Tier:      tier,
		UnitPrice: tier.Price,
		UnitCost:  tier.CostPrice,
		Total:     tier.Price.Mul(qty),
	}, nil
}

// selectTier expects tiers ordered by batch start.
func (b *PriceBook) selectTier(tiers []domain.PriceTier, qty int) domain.PriceTier {
	if b.policy == PolicyFirstActive {
		return tiers[0]
	}

	for _, t := range tiers {
		if t.Contains(qty) {
			return t
		}
	}

	return tiers[0]
}
