package models

import (
	"time"

	"github.com/google/uuid"
)

// PriceTier captures per-product tiered pricing for the gradual model.
// Tiers are unique by (product_id, min_qty) and conceptually sorted ascending.
type PriceTier struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID        uuid.UUID `gorm:"column:store_id;type:uuid;not null"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	MinQty         int       `gorm:"column:min_qty;not null"`
	UnitPriceCents int       `gorm:"column:unit_price_cents;not null"`
	Label          string    `gorm:"column:label;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}
