package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/vitrinehub/storefront-backend/pkg/db"
	"github.com/vitrinehub/storefront-backend/pkg/db/models"
	"github.com/vitrinehub/storefront-backend/pkg/enums"
	pkgerrors "github.com/vitrinehub/storefront-backend/pkg/errors"
)

const maxGradualTiers = 4

// Service exposes price model management and quote resolution.
type Service interface {
	GetOrCreateDefault(ctx context.Context, storeID uuid.UUID) (*models.StorePriceModel, error)
	Update(ctx context.Context, storeID uuid.UUID, input UpdatePriceModelInput) (*models.StorePriceModel, error)
	QuoteLine(ctx context.Context, storeID, productID uuid.UUID, qty, cartQty int) (*Quote, error)
}

// UpdatePriceModelInput holds optional mutation values for a store price model.
type UpdatePriceModelInput struct {
	PriceModel             *enums.PriceModelType
	SimpleByCartTotal      *bool
	SimpleMinQtyPerProduct *int
	SimpleMinQtyCart       *int
	SimpleTierLabel        *string
	GradualTiers           *models.GradualTierSet
	ShowTiers              *bool
	ShowSavings            *bool
	ShowNextTierHint       *bool
	MinPurchaseEnabled     *bool
	MinPurchaseAmountCents *int
	MinPurchaseMessage     *string
}

type productLoader interface {
	FindActiveByID(ctx context.Context, storeID, productID uuid.UUID) (*models.Product, error)
}

type service struct {
	repo        Repository
	productRepo productLoader
}

// NewService constructs a pricing service instance.
func NewService(repo Repository, productRepo productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("price model repository required")
	}
	if productRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo, productRepo: productRepo}, nil
}

// GetOrCreateDefault lazily creates the retail_only default row the first time
// a store's price model is requested. Racing creators fall back to re-reading
// the winner's row.
func (s *service) GetOrCreateDefault(ctx context.Context, storeID uuid.UUID) (*models.StorePriceModel, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}

	model, err := s.repo.GetByStoreID(ctx, storeID)
	if err == nil {
		return model, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := defaultPriceModel(storeID)
	if createErr := s.repo.Create(ctx, &fresh); createErr != nil {
		if dbpkg.IsUniqueViolation(createErr, "") {
			return s.repo.GetByStoreID(ctx, storeID)
		}
		return nil, createErr
	}
	return &fresh, nil
}

func (s *service) Update(ctx context.Context, storeID uuid.UUID, input UpdatePriceModelInput) (*models.StorePriceModel, error) {
	model, err := s.GetOrCreateDefault(ctx, storeID)
	if err != nil {
		return nil, err
	}

	if input.PriceModel != nil {
		if !input.PriceModel.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid price model %q", *input.PriceModel))
		}
		model.PriceModel = *input.PriceModel
	}
	if input.SimpleByCartTotal != nil {
		model.SimpleByCartTotal = *input.SimpleByCartTotal
	}
	if input.SimpleMinQtyPerProduct != nil {
		if *input.SimpleMinQtyPerProduct < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "per-product minimum quantity must be at least 1")
		}
		model.SimpleMinQtyPerProduct = *input.SimpleMinQtyPerProduct
	}
	if input.SimpleMinQtyCart != nil {
		if *input.SimpleMinQtyCart < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart minimum quantity must be at least 1")
		}
		model.SimpleMinQtyCart = *input.SimpleMinQtyCart
	}
	if input.SimpleTierLabel != nil {
		model.SimpleTierLabel = *input.SimpleTierLabel
	}
	if input.GradualTiers != nil {
		if err := validateGradualTiers(*input.GradualTiers); err != nil {
			return nil, err
		}
		model.GradualTiers = *input.GradualTiers
	}
	if input.ShowTiers != nil {
		model.ShowTiers = *input.ShowTiers
	}
	if input.ShowSavings != nil {
		model.ShowSavings = *input.ShowSavings
	}
	if input.ShowNextTierHint != nil {
		model.ShowNextTierHint = *input.ShowNextTierHint
	}
	if input.MinPurchaseEnabled != nil {
		model.MinPurchaseEnabled = *input.MinPurchaseEnabled
	}
	if input.MinPurchaseAmountCents != nil {
		if *input.MinPurchaseAmountCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum purchase amount cannot be negative")
		}
		model.MinPurchaseAmountCents = *input.MinPurchaseAmountCents
	}
	if input.MinPurchaseMessage != nil {
		model.MinPurchaseMessage = *input.MinPurchaseMessage
	}

	if err := s.repo.Save(ctx, model); err != nil {
		return nil, err
	}
	return model, nil
}

func (s *service) QuoteLine(ctx context.Context, storeID, productID uuid.UUID, qty, cartQty int) (*Quote, error) {
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if cartQty < qty {
		cartQty = qty
	}

	product, err := s.productRepo.FindActiveByID(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}
	model, err := s.GetOrCreateDefault(ctx, storeID)
	if err != nil {
		return nil, err
	}

	quote := Resolve(*product, *model, qty, cartQty)
	return &quote, nil
}

func validateGradualTiers(tiers models.GradualTierSet) error {
	if len(tiers) > maxGradualTiers {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d gradual tiers are supported", maxGradualTiers))
	}
	for i, tier := range tiers {
		if !tier.Enabled {
			continue
		}
		if tier.MinQty < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("tier %d: minimum quantity must be at least 1", i+1))
		}
		if tier.UnitPriceCents < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("tier %d: unit price cannot be negative", i+1))
		}
		if tier.Label == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("tier %d: label is required", i+1))
		}
	}
	return nil
}

func defaultPriceModel(storeID uuid.UUID) models.StorePriceModel {
	return models.StorePriceModel{
		StoreID:                storeID,
		PriceModel:             enums.PriceModelRetailOnly,
		SimpleMinQtyPerProduct: 1,
		SimpleMinQtyCart:       1,
		SimpleTierLabel:        "Wholesale",
		ShowTiers:              true,
		ShowSavings:            true,
		ShowNextTierHint:       true,
	}
}
