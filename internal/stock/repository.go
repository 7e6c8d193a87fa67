package stock

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vitrinehub/storefront-backend/pkg/db/models"
	"github.com/vitrinehub/storefront-backend/pkg/enums"
	pkgerrors "github.com/vitrinehub/storefront-backend/pkg/errors"
)

// ProductRepository exposes the product-side stock mutations. reserved_stock
// and stock are only ever touched through these helpers.
type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindActiveByID(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error)
	ReserveStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error)
	ConsumeReservation(ctx context.Context, productID uuid.UUID, qty int) error
	ReleaseReservation(ctx context.Context, productID uuid.UUID, qty int) error
}

// MovementRepository manages the append-only stock movement log.
type MovementRepository interface {
	WithTx(tx *gorm.DB) MovementRepository
	Create(ctx context.Context, movement *models.StockMovement) error
	FindOpenReservation(ctx context.Context, productID, orderID uuid.UUID) (*models.StockMovement, error)
	FindClosing(ctx context.Context, productID, orderID uuid.UUID) (*models.StockMovement, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.StockMovement, error)
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository returns a product repository bound to the provided database.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) WithTx(tx *gorm.DB) ProductRepository {
	if tx == nil {
		return r
	}
	return &productRepository{db: tx}
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Preload("Tiers", func(db *gorm.DB) *gorm.DB { return db.Order("min_qty ASC") }).
		First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindActiveByID(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Preload("Tiers", func(db *gorm.DB) *gorm.DB { return db.Order("min_qty ASC") }).
		Where("id = ? AND store_id = ? AND is_active = ?", productID, storeID, true).
		First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	return &product, nil
}

// ReserveStock performs the atomic check-and-increment. The availability check
// and the reserved_stock bump happen in one conditional UPDATE; a false return
// means the product either does not exist or lacks available stock.
func (r *productRepository) ReserveStock(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND (allow_negative_stock = ? OR stock - reserved_stock >= ?)", productID, true, qty).
		Update("reserved_stock", gorm.Expr("reserved_stock + ?", qty))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *productRepository) ConsumeReservation(ctx context.Context, productID uuid.UUID, qty int) error {
	return r.adjust(ctx, productID, map[string]any{
		"stock":          gorm.Expr("stock - ?", qty),
		"reserved_stock": gorm.Expr("reserved_stock - ?", qty),
	})
}

func (r *productRepository) ReleaseReservation(ctx context.Context, productID uuid.UUID, qty int) error {
	return r.adjust(ctx, productID, map[string]any{
		"reserved_stock": gorm.Expr("reserved_stock - ?", qty),
	})
}

func (r *productRepository) adjust(ctx context.Context, productID uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

type movementRepository struct {
	db *gorm.DB
}

// NewMovementRepository returns a movement repository bound to the provided database.
func NewMovementRepository(db *gorm.DB) MovementRepository {
	return &movementRepository{db: db}
}

func (r *movementRepository) WithTx(tx *gorm.DB) MovementRepository {
	if tx == nil {
		return r
	}
	return &movementRepository{db: tx}
}

func (r *movementRepository) Create(ctx context.Context, movement *models.StockMovement) error {
	if movement.ID == uuid.Nil {
		movement.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *movementRepository) FindOpenReservation(ctx context.Context, productID, orderID uuid.UUID) (*models.StockMovement, error) {
	var movement models.StockMovement
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND order_id = ? AND movement_type = ?", productID, orderID, enums.MovementReservation).
		First(&movement).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &movement, nil
}

func (r *movementRepository) FindClosing(ctx context.Context, productID, orderID uuid.UUID) (*models.StockMovement, error) {
	var movement models.StockMovement
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND order_id = ?", productID, orderID).
		Where("movement_type IN ?", []enums.MovementType{enums.MovementSale, enums.MovementRelease, enums.MovementExpired}).
		First(&movement).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &movement, nil
}

func (r *movementRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.StockMovement, error) {
	var movements []models.StockMovement
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}
