package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/vitrinehub/storefront-backend/pkg/db/models"
	"github.com/vitrinehub/storefront-backend/pkg/enums"
	"github.com/vitrinehub/storefront-backend/pkg/types"
)

// OrderItemResponse is the wire shape of one snapshotted order line. Money
// fields serialize as decimal currency strings.
type OrderItemResponse struct {
	ID          uuid.UUID   `json:"id"`
	ProductID   uuid.UUID   `json:"product_id"`
	VariationID *uuid.UUID  `json:"variation_id,omitempty"`
	Qty         int         `json:"qty"`
	UnitPrice   types.Cents `json:"unit_price"`
	TierLabel   string      `json:"tier_label"`
}

// OrderResponse is the wire shape of an order.
type OrderResponse struct {
	ID                   uuid.UUID           `json:"id"`
	StoreID              uuid.UUID           `json:"store_id"`
	CustomerName         string              `json:"customer_name"`
	CustomerEmail        *string             `json:"customer_email,omitempty"`
	CustomerPhone        *string             `json:"customer_phone,omitempty"`
	Status               enums.OrderStatus   `json:"status"`
	Total                types.Cents         `json:"total"`
	StockReserved        bool                `json:"stock_reserved"`
	ReservationExpiresAt time.Time           `json:"reservation_expires_at"`
	CancelReason         *string             `json:"cancel_reason,omitempty"`
	ExternalReference    *string             `json:"external_reference,omitempty"`
	Items                []OrderItemResponse `json:"items"`
	ConfirmedAt          *time.Time          `json:"confirmed_at,omitempty"`
	CancelledAt          *time.Time          `json:"cancelled_at,omitempty"`
	CreatedAt            time.Time           `json:"created_at"`
}

// OrderPage is one page of a store's orders.
type OrderPage struct {
	Orders     []OrderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// NewOrderResponse maps a persisted order to its wire shape.
func NewOrderResponse(order *models.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			VariationID: item.VariationID,
			Qty:         item.Qty,
			UnitPrice:   types.Cents(item.UnitPriceCents),
			TierLabel:   item.TierLabel,
		})
	}
	return OrderResponse{
		ID:                   order.ID,
		StoreID:              order.StoreID,
		CustomerName:         order.CustomerName,
		CustomerEmail:        order.CustomerEmail,
		CustomerPhone:        order.CustomerPhone,
		Status:               order.Status,
		Total:                types.Cents(order.TotalCents),
		StockReserved:        order.StockReserved,
		ReservationExpiresAt: order.ReservationExpiresAt,
		CancelReason:         order.CancelReason,
		ExternalReference:    order.ExternalReference,
		Items:                items,
		ConfirmedAt:          order.ConfirmedAt,
		CancelledAt:          order.CancelledAt,
		CreatedAt:            order.CreatedAt,
	}
}

// NewOrderPage maps a page of orders and its continuation cursor.
func NewOrderPage(rows []models.Order, nextCursor string) OrderPage {
	page := OrderPage{
		Orders:     make([]OrderResponse, 0, len(rows)),
		NextCursor: nextCursor,
	}
	for i := range rows {
		page.Orders = append(page.Orders, NewOrderResponse(&rows[i]))
	}
	return page
}
