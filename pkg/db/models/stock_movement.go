package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vitrinehub/storefront-backend/pkg/enums"
)

// StockMovement is one row of the append-only stock ledger. Rows are never
// mutated or deleted; the full history is retained for audit even after the
// reservation closes.
type StockMovement struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID    uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index:idx_stock_movements_product_order"`
	OrderID      uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index:idx_stock_movements_product_order"`
	MovementType enums.MovementType `gorm:"column:movement_type;type:movement_type_enum;not null"`
	Qty          int                `gorm:"column:qty;not null"`
	ExpiresAt    *time.Time         `gorm:"column:expires_at"`
	Note         string             `gorm:"column:note;not null;default:''"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
}
