package pricing

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vitrinehub/storefront-backend/pkg/db/models"
)

// Repository manages persistence for per-store price models.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetByStoreID(ctx context.Context, storeID uuid.UUID) (*models.StorePriceModel, error)
	Create(ctx context.Context, model *models.StorePriceModel) error
	Save(ctx context.Context, model *models.StorePriceModel) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a price model repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetByStoreID(ctx context.Context, storeID uuid.UUID) (*models.StorePriceModel, error) {
	var model models.StorePriceModel
	if err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		First(&model).Error; err != nil {
		return nil, err
	}
	return &model, nil
}

func (r *repository) Create(ctx context.Context, model *models.StorePriceModel) error {
	return r.db.WithContext(ctx).Create(model).Error
}

func (r *repository) Save(ctx context.Context, model *models.StorePriceModel) error {
	return r.db.WithContext(ctx).Save(model).Error
}
