package settlement

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vitrinehub/storefront-backend/pkg/db/models"
	"github.com/vitrinehub/storefront-backend/pkg/enums"
)

// sqlite cannot evaluate the Postgres column defaults in the model tags, so
// the schema is created directly.
const testSchema = `
CREATE TABLE stores (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	slug TEXT NOT NULL DEFAULT '',
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME,
	updated_at DATETIME
);
CREATE TABLE products (
	id TEXT PRIMARY KEY,
	store_id TEXT NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	sku TEXT NOT NULL DEFAULT '',
	retail_price_cents INTEGER NOT NULL DEFAULT 0,
	wholesale_price_cents INTEGER,
	min_wholesale_qty INTEGER,
	stock INTEGER NOT NULL DEFAULT 0,
	reserved_stock INTEGER NOT NULL DEFAULT 0,
	allow_negative_stock INTEGER NOT NULL DEFAULT 0,
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME,
	updated_at DATETIME
);
CREATE TABLE price_tiers (
	id TEXT PRIMARY KEY,
	store_id TEXT NOT NULL,
	product_id TEXT NOT NULL,
	min_qty INTEGER NOT NULL,
	unit_price_cents INTEGER NOT NULL,
	label TEXT NOT NULL DEFAULT '',
	created_at DATETIME
);
CREATE TABLE orders (
	id TEXT PRIMARY KEY,
	store_id TEXT NOT NULL,
	customer_name TEXT NOT NULL DEFAULT '',
	customer_email TEXT,
	customer_phone TEXT,
	status TEXT NOT NULL DEFAULT 'pending',
	total_cents INTEGER NOT NULL DEFAULT 0,
	stock_reserved INTEGER NOT NULL DEFAULT 0,
	reservation_expires_at DATETIME NOT NULL,
	cancel_reason TEXT,
	external_reference TEXT,
	confirmed_at DATETIME,
	cancelled_at DATETIME,
	created_at DATETIME,
	updated_at DATETIME
);
CREATE TABLE order_items (
	id TEXT PRIMARY KEY,
	order_id TEXT NOT NULL,
	product_id TEXT NOT NULL,
	variation_id TEXT,
	qty INTEGER NOT NULL,
	unit_price_cents INTEGER NOT NULL,
	tier_label TEXT NOT NULL DEFAULT '',
	created_at DATETIME
);
CREATE TABLE stock_movements (
	id TEXT PRIMARY KEY,
	product_id TEXT NOT NULL,
	order_id TEXT NOT NULL,
	movement_type TEXT NOT NULL,
	qty INTEGER NOT NULL,
	expires_at DATETIME,
	note TEXT NOT NULL DEFAULT '',
	created_at DATETIME
);
CREATE UNIQUE INDEX ux_stock_movements_closing
	ON stock_movements (product_id, order_id)
	WHERE movement_type IN ('sale', 'release', 'expired');
`

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:settlement_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Exec(testSchema).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func mustCreateTestStore(t *testing.T, db *gorm.DB) *models.Store {
	t.Helper()
	store := &models.Store{
		ID:       uuid.New(),
		Name:     "Test Store",
		Slug:     "test-store-" + uuid.NewString(),
		IsActive: true,
	}
	if err := db.Create(store).Error; err != nil {
		t.Fatalf("create store: %v", err)
	}
	return store
}

func mustCreateTestProduct(t *testing.T, db *gorm.DB, storeID uuid.UUID, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:               uuid.New(),
		StoreID:          storeID,
		Name:             "Test Product",
		SKU:              "SKU-" + uuid.NewString(),
		RetailPriceCents: 1000,
		Stock:            stock,
		IsActive:         true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

// mustCreateReservedOrder persists a pending order with one item and the
// matching reservation movement and product counters, mirroring what order
// intake commits.
func mustCreateReservedOrder(t *testing.T, db *gorm.DB, storeID, productID uuid.UUID, qty int, expiresAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:                   uuid.New(),
		StoreID:              storeID,
		CustomerName:         "Maria Souza",
		Status:               enums.OrderStatusPending,
		TotalCents:           qty * 1000,
		StockReserved:        true,
		ReservationExpiresAt: expiresAt,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
	item := &models.OrderItem{
		ID:             uuid.New(),
		OrderID:        order.ID,
		ProductID:      productID,
		Qty:            qty,
		UnitPriceCents: 1000,
		TierLabel:      "Retail",
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("create order item: %v", err)
	}
	order.Items = []models.OrderItem{*item}

	movement := &models.StockMovement{
		ID:           uuid.New(),
		ProductID:    productID,
		OrderID:      order.ID,
		MovementType: enums.MovementReservation,
		Qty:          qty,
		ExpiresAt:    &expiresAt,
	}
	if err := db.Create(movement).Error; err != nil {
		t.Fatalf("create reservation movement: %v", err)
	}
	if err := db.Model(&models.Product{}).Where("id = ?", productID).
		UpdateColumn("reserved_stock", gorm.Expr("reserved_stock + ?", qty)).Error; err != nil {
		t.Fatalf("bump reserved stock: %v", err)
	}
	return order
}
