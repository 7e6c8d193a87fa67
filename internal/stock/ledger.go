package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/vitrinehub/storefront-backend/pkg/db"
	"github.com/vitrinehub/storefront-backend/pkg/db/models"
	"github.com/vitrinehub/storefront-backend/pkg/enums"
	pkgerrors "github.com/vitrinehub/storefront-backend/pkg/errors"
)

var (
	// ErrInsufficientStock aborts the whole order; nothing was reserved.
	ErrInsufficientStock = pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient available stock")

	// ErrAlreadySettled marks a duplicate close of a reservation. Callers
	// treat it as success, not as a failure.
	ErrAlreadySettled = pkgerrors.New(pkgerrors.CodeStateConflict, "reservation already settled")

	// ErrNoOpenReservation rejects a close for a (product, order) pair that
	// never reserved.
	ErrNoOpenReservation = pkgerrors.New(pkgerrors.CodeStateConflict, "no open reservation for product and order")
)

// Ledger is the only writer of stock and reserved_stock. Every mutation is
// recorded as an append-only movement row next to the product counter update.
type Ledger interface {
	Reserve(ctx context.Context, tx *gorm.DB, productID, orderID uuid.UUID, qty int, ttl time.Duration) (*models.StockMovement, error)
	ConfirmSale(ctx context.Context, tx *gorm.DB, productID, orderID uuid.UUID, qty int) (*models.StockMovement, error)
	Release(ctx context.Context, tx *gorm.DB, productID, orderID uuid.UUID, qty int) (*models.StockMovement, error)
	Expire(ctx context.Context, tx *gorm.DB, productID, orderID uuid.UUID, qty int) (*models.StockMovement, error)
	Available(ctx context.Context, productID uuid.UUID) (int, error)
	Movements(ctx context.Context, orderID uuid.UUID) ([]models.StockMovement, error)
}

type ledger struct {
	products  ProductRepository
	movements MovementRepository
}

// NewLedger wires a stock ledger with the provided repositories.
func NewLedger(products ProductRepository, movements MovementRepository) (Ledger, error) {
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if movements == nil {
		return nil, fmt.Errorf("movement repository required")
	}
	return &ledger{products: products, movements: movements}, nil
}

// Reserve atomically claims qty units of availability and appends the
// reservation movement. The availability check and the counter bump are one
// conditional UPDATE, so concurrent reservations cannot jointly oversell.
func (l *ledger) Reserve(ctx context.Context, tx *gorm.DB, productID, orderID uuid.UUID, qty int, ttl time.Duration) (*models.StockMovement, error) {
	if err := validateMovementInput(productID, orderID, qty); err != nil {
		return nil, err
	}

	products := l.products.WithTx(tx)
	reserved, err := products.ReserveStock(ctx, productID, qty)
	if err != nil {
		return nil, err
	}
	if !reserved {
		if _, findErr := products.FindByID(ctx, productID); findErr != nil {
			return nil, findErr
		}
		return nil, ErrInsufficientStock
	}

	expiresAt := time.Now().Add(ttl)
	movement := &models.StockMovement{
		ProductID:    productID,
		OrderID:      orderID,
		MovementType: enums.MovementReservation,
		Qty:          qty,
		ExpiresAt:    &expiresAt,
	}
	if err := l.movements.WithTx(tx).Create(ctx, movement); err != nil {
		return nil, err
	}
	return movement, nil
}

// ConfirmSale consumes the reservation: the sale movement is appended and both
// stock and reserved_stock drop by qty.
func (l *ledger) ConfirmSale(ctx context.Context, tx *gorm.DB, productID, orderID uuid.UUID, qty int) (*models.StockMovement, error) {
	return l.close(ctx, tx, productID, orderID, qty, enums.MovementSale)
}

// Release returns the reservation to availability without selling; only
// reserved_stock drops.
func (l *ledger) Release(ctx context.Context, tx *gorm.DB, productID, orderID uuid.UUID, qty int) (*models.StockMovement, error) {
	return l.close(ctx, tx, productID, orderID, qty, enums.MovementRelease)
}

// Expire is Release triggered by the reservation TTL sweep; the movement is
// tagged expired so audits can tell the two apart.
func (l *ledger) Expire(ctx context.Context, tx *gorm.DB, productID, orderID uuid.UUID, qty int) (*models.StockMovement, error) {
	return l.close(ctx, tx, productID, orderID, qty, enums.MovementExpired)
}

func (l *ledger) close(ctx context.Context, tx *gorm.DB, productID, orderID uuid.UUID, qty int, movementType enums.MovementType) (*models.StockMovement, error) {
	if err := validateMovementInput(productID, orderID, qty); err != nil {
		return nil, err
	}
	if !movementType.IsClosing() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("movement type %q does not close a reservation", movementType))
	}

	movements := l.movements.WithTx(tx)

	existing, err := movements.FindClosing(ctx, productID, orderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadySettled
	}

	open, err := movements.FindOpenReservation(ctx, productID, orderID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, ErrNoOpenReservation
	}

	// the closing row goes in before the counters move: if another
	// transaction already closed this pair, ux_stock_movements_closing
	// rejects the insert and the counters stay untouched
	movement := &models.StockMovement{
		ProductID:    productID,
		OrderID:      orderID,
		MovementType: movementType,
		Qty:          qty,
	}
	if err := movements.Create(ctx, movement); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_stock_movements_closing") {
			return nil, ErrAlreadySettled
		}
		return nil, err
	}

	products := l.products.WithTx(tx)
	if movementType == enums.MovementSale {
		err = products.ConsumeReservation(ctx, productID, qty)
	} else {
		err = products.ReleaseReservation(ctx, productID, qty)
	}
	if err != nil {
		return nil, err
	}
	return movement, nil
}

func (l *ledger) Available(ctx context.Context, productID uuid.UUID) (int, error) {
	product, err := l.products.FindByID(ctx, productID)
	if err != nil {
		return 0, err
	}
	return product.AvailableStock(), nil
}

func (l *ledger) Movements(ctx context.Context, orderID uuid.UUID) ([]models.StockMovement, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	return l.movements.ListByOrderID(ctx, orderID)
}

func validateMovementInput(productID, orderID uuid.UUID, qty int) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if qty < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	return nil
}
