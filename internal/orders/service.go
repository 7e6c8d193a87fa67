package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vitrinehub/storefront-backend/internal/pricing"
	"github.com/vitrinehub/storefront-backend/internal/stock"
	"github.com/vitrinehub/storefront-backend/pkg/db/models"
	"github.com/vitrinehub/storefront-backend/pkg/enums"
	pkgerrors "github.com/vitrinehub/storefront-backend/pkg/errors"
	"github.com/vitrinehub/storefront-backend/pkg/logger"
	"github.com/vitrinehub/storefront-backend/pkg/metrics"
	"github.com/vitrinehub/storefront-backend/pkg/outbox"
	"github.com/vitrinehub/storefront-backend/pkg/pagination"
)

// Service is the order intake orchestrator. It is the only component allowed
// to open new stock reservations.
type Service interface {
	CreateOrder(ctx context.Context, storeID uuid.UUID, input CreateOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, storeID, orderID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, storeID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
}

// OrderItemInput is one requested line before pricing.
type OrderItemInput struct {
	ProductID   uuid.UUID
	VariationID *uuid.UUID
	Qty         int
}

// CreateOrderInput holds the validated payload to create an order.
type CreateOrderInput struct {
	CustomerName      string
	CustomerEmail     *string
	CustomerPhone     *string
	ExternalReference *string
	Items             []OrderItemInput
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type storeLoader interface {
	FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type priceModelSource interface {
	GetOrCreateDefault(ctx context.Context, storeID uuid.UUID) (*models.StorePriceModel, error)
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo           Repository
	db             txRunner
	storeRepo      storeLoader
	productRepo    stock.ProductRepository
	ledger         stock.Ledger
	priceModels    priceModelSource
	events         eventEmitter
	logg           *logger.Logger
	orderMetrics   *metrics.OrderMetrics
	reservationTTL time.Duration
}

// ServiceParams wires the intake orchestrator dependencies.
type ServiceParams struct {
	Repository     Repository
	DB             txRunner
	StoreRepo      storeLoader
	ProductRepo    stock.ProductRepository
	Ledger         stock.Ledger
	PriceModels    priceModelSource
	Events         eventEmitter
	Logger         *logger.Logger
	Metrics        *metrics.OrderMetrics
	ReservationTTL time.Duration
}

// NewService constructs the order intake service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.StoreRepo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if params.ProductRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if params.PriceModels == nil {
		return nil, fmt.Errorf("price model source required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	ttl := params.ReservationTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &service{
		repo:           params.Repository,
		db:             params.DB,
		storeRepo:      params.StoreRepo,
		productRepo:    params.ProductRepo,
		ledger:         params.Ledger,
		priceModels:    params.PriceModels,
		events:         params.Events,
		logg:           params.Logger,
		orderMetrics:   params.Metrics,
		reservationTTL: ttl,
	}, nil
}

// CreateOrder runs intake in one transaction: price snapshot, order row, and
// every reservation commit together or not at all. A failed reservation on any
// line rolls the whole order back, so no partial reservation ever survives.
func (s *service) CreateOrder(ctx context.Context, storeID uuid.UUID, input CreateOrderInput) (*models.Order, error) {
	if err := validateCreateOrderInput(storeID, input); err != nil {
		s.orderMetrics.IncRejected(storeID.String(), "validation")
		return nil, err
	}

	lines := mergeLines(input.Items)
	cartQty := 0
	for _, item := range lines {
		cartQty += item.Qty
	}

	var order *models.Order
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		store, err := s.storeRepo.FindActiveByID(ctx, storeID)
		if err != nil {
			return err
		}

		model, err := s.priceModels.GetOrCreateDefault(ctx, store.ID)
		if err != nil {
			return err
		}

		products := s.productRepo.WithTx(tx)
		items := make([]models.OrderItem, 0, len(lines))
		total := 0
		for _, line := range lines {
			product, err := products.FindActiveByID(ctx, store.ID, line.ProductID)
			if err != nil {
				return err
			}
			if !product.AllowNegativeStock && product.AvailableStock() < line.Qty {
				return pkgerrors.Wrap(pkgerrors.CodeInsufficientStock, stock.ErrInsufficientStock, "insufficient available stock").WithDetails(map[string]any{
					"product_id": product.ID.String(),
					"available":  product.AvailableStock(),
					"requested":  line.Qty,
				})
			}

			quote := pricing.Resolve(*product, *model, line.Qty, cartQty)
			items = append(items, models.OrderItem{
				ProductID:      product.ID,
				VariationID:    line.VariationID,
				Qty:            line.Qty,
				UnitPriceCents: quote.UnitPriceCents,
				TierLabel:      quote.TierLabel,
			})
			total += quote.UnitPriceCents * line.Qty
		}

		if model.MinPurchaseEnabled && total < model.MinPurchaseAmountCents {
			message := model.MinPurchaseMessage
			if message == "" {
				message = "order total is below the store minimum"
			}
			return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(map[string]any{
				"total_cents":        total,
				"min_purchase_cents": model.MinPurchaseAmountCents,
			})
		}

		order = &models.Order{
			StoreID:              store.ID,
			CustomerName:         strings.TrimSpace(input.CustomerName),
			CustomerEmail:        input.CustomerEmail,
			CustomerPhone:        input.CustomerPhone,
			Status:               enums.OrderStatusPending,
			TotalCents:           total,
			StockReserved:        false,
			ReservationExpiresAt: time.Now().Add(s.reservationTTL),
			ExternalReference:    input.ExternalReference,
			Items:                items,
		}

		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return err
		}

		for _, item := range order.Items {
			if _, err := s.ledger.Reserve(ctx, tx, item.ProductID, order.ID, item.Qty, s.reservationTTL); err != nil {
				return err
			}
		}

		order.StockReserved = true
		if err := repo.Save(ctx, order); err != nil {
			return err
		}

		if s.events != nil {
			return s.events.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventOrderCreated,
				AggregateType: enums.AggregateOrder,
				AggregateID:   order.ID,
				StoreID:       &order.StoreID,
				Version:       1,
				Data: map[string]any{
					"order_id":    order.ID.String(),
					"store_id":    order.StoreID.String(),
					"total_cents": order.TotalCents,
					"item_count":  len(order.Items),
				},
			})
		}
		return nil
	})
	if err != nil {
		s.recordIntakeFailure(ctx, storeID, err)
		return nil, err
	}

	s.orderMetrics.IncCreated(storeID.String())
	s.orderMetrics.IncReservation("reserved")
	ctx = s.logg.WithOrderID(s.logg.WithStoreID(ctx, storeID.String()), order.ID.String())
	s.logg.Info(ctx, "order created with stock reserved")
	return order, nil
}

func (s *service) GetOrder(ctx context.Context, storeID, orderID uuid.UUID) (*models.Order, error) {
	if storeID == uuid.Nil || orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id and order id are required")
	}
	return s.repo.FindForStore(ctx, storeID, orderID)
}

func (s *service) ListOrders(ctx context.Context, storeID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	if storeID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	return s.repo.ListByStore(ctx, storeID, params)
}

func (s *service) recordIntakeFailure(ctx context.Context, storeID uuid.UUID, err error) {
	reason := "internal"
	if typed := pkgerrors.As(err); typed != nil {
		reason = string(typed.Code())
	}
	if reason == string(pkgerrors.CodeInsufficientStock) {
		s.orderMetrics.IncReservation("insufficient_stock")
	}
	s.orderMetrics.IncRejected(storeID.String(), reason)
	s.logg.Warn(s.logg.WithStoreID(ctx, storeID.String()), fmt.Sprintf("order intake rejected: %v", err))
}

func validateCreateOrderInput(storeID uuid.UUID, input CreateOrderInput) error {
	if storeID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	for i, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: product id is required", i+1))
		}
		if item.Qty < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: quantity must be at least 1", i+1))
		}
	}
	return nil
}

// mergeLines collapses repeated product/variation pairs into a single line so
// each pair maps to exactly one order item and one reservation movement.
func mergeLines(items []OrderItemInput) []OrderItemInput {
	merged := make([]OrderItemInput, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		key := item.ProductID.String()
		if item.VariationID != nil {
			key += ":" + item.VariationID.String()
		}
		if i, ok := index[key]; ok {
			merged[i].Qty += item.Qty
			continue
		}
		index[key] = len(merged)
		merged = append(merged, item)
	}
	return merged
}
