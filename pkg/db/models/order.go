package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vitrinehub/storefront-backend/pkg/enums"
)

// Order is created once by order intake; status transitions are driven by
// payment events, the expiry sweep and admin action.
type Order struct {
	ID                   uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID              uuid.UUID         `gorm:"column:store_id;type:uuid;not null;index"`
	CustomerName         string            `gorm:"column:customer_name;not null"`
	CustomerEmail        *string           `gorm:"column:customer_email"`
	CustomerPhone        *string           `gorm:"column:customer_phone"`
	Status               enums.OrderStatus `gorm:"column:status;type:order_status_enum;not null;default:'pending'"`
	TotalCents           int               `gorm:"column:total_cents;not null"`
	StockReserved        bool              `gorm:"column:stock_reserved;not null;default:false"`
	ReservationExpiresAt time.Time         `gorm:"column:reservation_expires_at;not null"`
	CancelReason         *string           `gorm:"column:cancel_reason"`
	ExternalReference    *string           `gorm:"column:external_reference;index"`
	Items                []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ConfirmedAt          *time.Time        `gorm:"column:confirmed_at"`
	CancelledAt          *time.Time        `gorm:"column:cancelled_at"`
	CreatedAt            time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is the immutable per-line snapshot taken at order intake.
type OrderItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	VariationID    *uuid.UUID `gorm:"column:variation_id;type:uuid"`
	Qty            int        `gorm:"column:qty;not null"`
	UnitPriceCents int        `gorm:"column:unit_price_cents;not null"`
	TierLabel      string     `gorm:"column:tier_label;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}
