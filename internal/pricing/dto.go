package pricing

import (
	"github.com/google/uuid"

	"github.com/vitrinehub/storefront-backend/pkg/db/models"
	"github.com/vitrinehub/storefront-backend/pkg/enums"
	"github.com/vitrinehub/storefront-backend/pkg/types"
)

// GradualTierResponse is the wire shape of one gradual tier. The unit price
// serializes as a decimal currency string.
type GradualTierResponse struct {
	Enabled   bool        `json:"enabled"`
	MinQty    int         `json:"min_qty"`
	UnitPrice types.Cents `json:"unit_price"`
	Label     string      `json:"label"`
}

// PriceModelResponse is the wire shape of a store's pricing configuration.
type PriceModelResponse struct {
	StoreID    uuid.UUID            `json:"store_id"`
	PriceModel enums.PriceModelType `json:"price_model"`

	SimpleByCartTotal      bool   `json:"simple_by_cart_total"`
	SimpleMinQtyPerProduct int    `json:"simple_min_qty_per_product"`
	SimpleMinQtyCart       int    `json:"simple_min_qty_cart"`
	SimpleTierLabel        string `json:"simple_tier_label"`

	GradualTiers []GradualTierResponse `json:"gradual_tiers"`

	ShowTiers        bool `json:"show_tiers"`
	ShowSavings      bool `json:"show_savings"`
	ShowNextTierHint bool `json:"show_next_tier_hint"`

	MinPurchaseEnabled bool        `json:"min_purchase_enabled"`
	MinPurchaseAmount  types.Cents `json:"min_purchase_amount"`
	MinPurchaseMessage string      `json:"min_purchase_message"`
}

// NewPriceModelResponse maps a stored price model to its wire shape.
func NewPriceModelResponse(model *models.StorePriceModel) PriceModelResponse {
	tiers := make([]GradualTierResponse, 0, len(model.GradualTiers))
	for _, tier := range model.GradualTiers {
		tiers = append(tiers, GradualTierResponse{
			Enabled:   tier.Enabled,
			MinQty:    tier.MinQty,
			UnitPrice: types.Cents(tier.UnitPriceCents),
			Label:     tier.Label,
		})
	}
	return PriceModelResponse{
		StoreID:                model.StoreID,
		PriceModel:             model.PriceModel,
		SimpleByCartTotal:      model.SimpleByCartTotal,
		SimpleMinQtyPerProduct: model.SimpleMinQtyPerProduct,
		SimpleMinQtyCart:       model.SimpleMinQtyCart,
		SimpleTierLabel:        model.SimpleTierLabel,
		GradualTiers:           tiers,
		ShowTiers:              model.ShowTiers,
		ShowSavings:            model.ShowSavings,
		ShowNextTierHint:       model.ShowNextTierHint,
		MinPurchaseEnabled:     model.MinPurchaseEnabled,
		MinPurchaseAmount:      types.Cents(model.MinPurchaseAmountCents),
		MinPurchaseMessage:     model.MinPurchaseMessage,
	}
}

// TierHintResponse is the wire shape of a next-tier hint.
type TierHintResponse struct {
	QuantityNeeded   int         `json:"quantity_needed"`
	PotentialSavings types.Cents `json:"potential_savings"`
	ByCartTotal      bool        `json:"by_cart_total"`
}

// QuoteResponse is the wire shape of a resolved line price. Money fields
// serialize as decimal currency strings.
type QuoteResponse struct {
	UnitPrice    types.Cents       `json:"unit_price"`
	TierLabel    string            `json:"tier_label"`
	Savings      types.Cents       `json:"savings"`
	NextTierHint *TierHintResponse `json:"next_tier_hint,omitempty"`
}

// NewQuoteResponse maps a resolved quote to its wire shape.
func NewQuoteResponse(quote *Quote) QuoteResponse {
	response := QuoteResponse{
		UnitPrice: types.Cents(quote.UnitPriceCents),
		TierLabel: quote.TierLabel,
		Savings:   types.Cents(quote.SavingsCents),
	}
	if quote.NextTierHint != nil {
		response.NextTierHint = &TierHintResponse{
			QuantityNeeded:   quote.NextTierHint.QuantityNeeded,
			PotentialSavings: types.Cents(quote.NextTierHint.PotentialSavingsCents),
			ByCartTotal:      quote.NextTierHint.ByCartTotal,
		}
	}
	return response
}
