package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vitrinehub/storefront-backend/pkg/enums"
)

// GradualTier is one of the up to four named, independently enabled tiers of
// the gradual wholesale model, embedded in the store price model row.
type GradualTier struct {
	Enabled        bool   `json:"enabled"`
	MinQty         int    `json:"min_qty"`
	UnitPriceCents int    `json:"unit_price_cents"`
	Label          string `json:"label"`
}

// StorePriceModel holds the per-store pricing strategy and its parameters.
// Exactly one row exists per store; it is lazily created with retail_only
// defaults the first time it is requested.
type StorePriceModel struct {
	StoreID    uuid.UUID            `gorm:"column:store_id;type:uuid;primaryKey"`
	PriceModel enums.PriceModelType `gorm:"column:price_model;type:price_model_enum;not null;default:'retail_only'"`

	// Simple wholesale parameters.
	SimpleByCartTotal      bool   `gorm:"column:simple_by_cart_total;not null;default:false"`
	SimpleMinQtyPerProduct int    `gorm:"column:simple_min_qty_per_product;not null;default:1"`
	SimpleMinQtyCart       int    `gorm:"column:simple_min_qty_cart;not null;default:1"`
	SimpleTierLabel        string `gorm:"column:simple_tier_label;not null;default:'Wholesale'"`

	// Gradual wholesale parameters, up to 4 named tiers.
	GradualTiers GradualTierSet `gorm:"column:gradual_tiers;type:jsonb;serializer:json"`

	// Display flags consumed by the catalog UI.
	ShowTiers        bool `gorm:"column:show_tiers;not null;default:true"`
	ShowSavings      bool `gorm:"column:show_savings;not null;default:true"`
	ShowNextTierHint bool `gorm:"column:show_next_tier_hint;not null;default:true"`

	// Minimum purchase gate.
	MinPurchaseEnabled     bool   `gorm:"column:min_purchase_enabled;not null;default:false"`
	MinPurchaseAmountCents int    `gorm:"column:min_purchase_amount_cents;not null;default:0"`
	MinPurchaseMessage     string `gorm:"column:min_purchase_message;not null;default:''"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// GradualTierSet is the jsonb-serialized list of gradual tiers.
type GradualTierSet []GradualTier

// EnabledTiers returns the enabled tiers preserving configuration order.
func (s GradualTierSet) EnabledTiers() []GradualTier {
	out := make([]GradualTier, 0, len(s))
	for _, tier := range s {
		if tier.Enabled {
			out = append(out, tier)
		}
	}
	return out
}
