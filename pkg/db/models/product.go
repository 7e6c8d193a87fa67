package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a sellable catalog listing scoped to a store.
//
// Stock minus ReservedStock is the quantity orderable right now; both columns
// are mutated exclusively through stock ledger operations.
type Product struct {
	ID                  uuid.UUID   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID             uuid.UUID   `gorm:"column:store_id;type:uuid;not null;index"`
	Name                string      `gorm:"column:name;not null"`
	SKU                 string      `gorm:"column:sku;not null"`
	RetailPriceCents    int         `gorm:"column:retail_price_cents;not null"`
	WholesalePriceCents *int        `gorm:"column:wholesale_price_cents"`
	MinWholesaleQty     *int        `gorm:"column:min_wholesale_qty"`
	Stock               int         `gorm:"column:stock;not null;default:0"`
	ReservedStock       int         `gorm:"column:reserved_stock;not null;default:0"`
	AllowNegativeStock  bool        `gorm:"column:allow_negative_stock;not null;default:false"`
	IsActive            bool        `gorm:"column:is_active;not null;default:true"`
	Tiers               []PriceTier `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

// AvailableStock returns stock minus reserved stock.
func (p Product) AvailableStock() int {
	return p.Stock - p.ReservedStock
}
