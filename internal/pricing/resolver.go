package pricing

import (
	"sort"

	"github.com/vitrinehub/storefront-backend/pkg/db/models"
	"github.com/vitrinehub/storefront-backend/pkg/enums"
)

const (
	retailTierLabel    = "Retail"
	wholesaleTierLabel = "Wholesale"
)

// TierHint tells the storefront how far the shopper is from the next tier.
type TierHint struct {
	QuantityNeeded        int  `json:"quantity_needed"`
	PotentialSavingsCents int  `json:"potential_savings_cents"`
	ByCartTotal           bool `json:"by_cart_total"`
}

// Quote is the resolved price for one line at one point in time. Savings and
// the hint are scaled by the line quantity.
type Quote struct {
	UnitPriceCents int       `json:"unit_price_cents"`
	TierLabel      string    `json:"tier_label"`
	SavingsCents   int       `json:"savings_cents"`
	NextTierHint   *TierHint `json:"next_tier_hint,omitempty"`
}

type resolverFunc func(product models.Product, model models.StorePriceModel, qty, cartQty int) Quote

var resolvers = map[enums.PriceModelType]resolverFunc{
	enums.PriceModelRetailOnly:       resolveRetailOnly,
	enums.PriceModelWholesaleOnly:    resolveWholesaleOnly,
	enums.PriceModelSimpleWholesale:  resolveSimpleWholesale,
	enums.PriceModelGradualWholesale: resolveGradualWholesale,
}

// Resolve snapshots a unit price for one line. Pure and deterministic; an
// unknown price model degrades to the retail price instead of failing.
// Callers reject qty <= 0 before getting here.
func Resolve(product models.Product, model models.StorePriceModel, qty, cartQty int) Quote {
	if resolver, ok := resolvers[model.PriceModel]; ok {
		return resolver(product, model, qty, cartQty)
	}
	return resolveRetailOnly(product, model, qty, cartQty)
}

func resolveRetailOnly(product models.Product, _ models.StorePriceModel, _, _ int) Quote {
	return Quote{
		UnitPriceCents: product.RetailPriceCents,
		TierLabel:      retailTierLabel,
	}
}

func resolveWholesaleOnly(product models.Product, _ models.StorePriceModel, _, _ int) Quote {
	unit := product.RetailPriceCents
	if product.WholesalePriceCents != nil {
		unit = *product.WholesalePriceCents
	}
	// no savings comparison is surfaced for wholesale-only stores
	return Quote{
		UnitPriceCents: unit,
		TierLabel:      wholesaleTierLabel,
	}
}

func resolveSimpleWholesale(product models.Product, model models.StorePriceModel, qty, cartQty int) Quote {
	qualifying := qty
	threshold := model.SimpleMinQtyPerProduct
	if product.MinWholesaleQty != nil {
		threshold = *product.MinWholesaleQty
	}
	if model.SimpleByCartTotal {
		qualifying = cartQty
		threshold = model.SimpleMinQtyCart
	}

	if qualifying >= threshold && product.WholesalePriceCents != nil {
		wholesale := *product.WholesalePriceCents
		label := model.SimpleTierLabel
		if label == "" {
			label = wholesaleTierLabel
		}
		return Quote{
			UnitPriceCents: wholesale,
			TierLabel:      label,
			SavingsCents:   lineSavings(product.RetailPriceCents, wholesale, qty),
		}
	}

	quote := Quote{
		UnitPriceCents: product.RetailPriceCents,
		TierLabel:      retailTierLabel,
	}
	if product.WholesalePriceCents != nil {
		needed := threshold - qualifying
		if needed > 0 {
			quote.NextTierHint = &TierHint{
				QuantityNeeded:        needed,
				PotentialSavingsCents: lineSavings(product.RetailPriceCents, *product.WholesalePriceCents, qty),
				ByCartTotal:           model.SimpleByCartTotal,
			}
		}
	}
	return quote
}

type gradualCandidate struct {
	minQty         int
	unitPriceCents int
	label          string
}

func resolveGradualWholesale(product models.Product, model models.StorePriceModel, qty, _ int) Quote {
	tiers := gradualCandidates(product, model)

	selected := -1
	for i, tier := range tiers {
		if tier.minQty <= qty {
			selected = i
		}
	}
	if selected < 0 {
		return Quote{
			UnitPriceCents: product.RetailPriceCents,
			TierLabel:      retailTierLabel,
		}
	}

	tier := tiers[selected]
	quote := Quote{
		UnitPriceCents: tier.unitPriceCents,
		TierLabel:      tier.label,
		SavingsCents:   lineSavings(product.RetailPriceCents, tier.unitPriceCents, qty),
	}

	if next := selected + 1; next < len(tiers) {
		needed := tiers[next].minQty - qty
		if needed > 0 {
			quote.NextTierHint = &TierHint{
				QuantityNeeded:        needed,
				PotentialSavingsCents: lineSavings(product.RetailPriceCents, tiers[next].unitPriceCents, qty),
			}
		}
	}
	return quote
}

// gradualCandidates merges the configured tiers with the implicit retail
// baseline, sorted ascending by min quantity. Product-level tiers win over the
// store-wide defaults when both exist. Sorting is stable so an exact min-qty
// tie keeps configuration order and selection prefers the later entry.
func gradualCandidates(product models.Product, model models.StorePriceModel) []gradualCandidate {
	var tiers []gradualCandidate
	if len(product.Tiers) > 0 {
		for _, tier := range product.Tiers {
			tiers = append(tiers, gradualCandidate{
				minQty:         tier.MinQty,
				unitPriceCents: tier.UnitPriceCents,
				label:          tier.Label,
			})
		}
	} else {
		for _, tier := range model.GradualTiers.EnabledTiers() {
			tiers = append(tiers, gradualCandidate{
				minQty:         tier.MinQty,
				unitPriceCents: tier.UnitPriceCents,
				label:          tier.Label,
			})
		}
	}

	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].minQty < tiers[j].minQty
	})

	if len(tiers) == 0 || tiers[0].minQty > 1 {
		tiers = append([]gradualCandidate{{
			minQty:         1,
			unitPriceCents: product.RetailPriceCents,
			label:          retailTierLabel,
		}}, tiers...)
	}
	return tiers
}

func lineSavings(retailCents, unitCents, qty int) int {
	if unitCents >= retailCents {
		return 0
	}
	return (retailCents - unitCents) * qty
}
