package stock

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/vitrinehub/storefront-backend/pkg/db/models"
)

// sqlite cannot evaluate the Postgres column defaults in the model tags, so
// the schema is created directly.
const testSchema = `
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
	dsn := "file:stock_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Exec(testSchema).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func mustCreateTestProduct(t *testing.T, db *gorm.DB, stock, reserved int, allowNegative bool) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:                 uuid.New(),
		StoreID:            uuid.New(),
		Name:               "Test Product",
		SKU:                "SKU-" + uuid.NewString(),
		RetailPriceCents:   1000,
		Stock:              stock,
		ReservedStock:      reserved,
		AllowNegativeStock: allowNegative,
		IsActive:           true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}
