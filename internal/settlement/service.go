package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/vitrinehub/storefront-backend/internal/orders"
	"github.com/vitrinehub/storefront-backend/internal/stock"
	"github.com/vitrinehub/storefront-backend/pkg/db/models"
	"github.com/vitrinehub/storefront-backend/pkg/enums"
	pkgerrors "github.com/vitrinehub/storefront-backend/pkg/errors"
	"github.com/vitrinehub/storefront-backend/pkg/logger"
	"github.com/vitrinehub/storefront-backend/pkg/metrics"
	"github.com/vitrinehub/storefront-backend/pkg/outbox"
)

const (
	expiredCancelReason = "reservation expired"

	// defaultSweepBatch bounds how many orders one sweep run settles.
	defaultSweepBatch = 200
)

// Service drives every order out of the pending state: payment confirmation,
// cancellation and reservation expiry. Each order settles in its own
// transaction and every path is safe to re-run.
type Service interface {
	ConfirmPayment(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error)
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ServiceParams wires the settlement service.
type ServiceParams struct {
	Orders     orders.Repository
	DB         txRunner
	Ledger     stock.Ledger
	Events     eventEmitter
	Logger     *logger.Logger
	Metrics    *metrics.OrderMetrics
	SweepBatch int
}

type service struct {
	orders       orders.Repository
	db           txRunner
	ledger       stock.Ledger
	events       eventEmitter
	logg         *logger.Logger
	orderMetrics *metrics.OrderMetrics
	sweepBatch   int
}

// NewService validates the wiring and returns a settlement service.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	batch := params.SweepBatch
	if batch <= 0 {
		batch = defaultSweepBatch
	}
	return &service{
		orders:       params.Orders,
		db:           params.DB,
		ledger:       params.Ledger,
		events:       params.Events,
		logg:         params.Logger,
		orderMetrics: params.Metrics,
		sweepBatch:   batch,
	}, nil
}

// ConfirmPayment moves a pending order to confirmed and converts every
// reservation into a sale. A duplicate delivery of the same payment event is
// a no-op: the order is already confirmed and each reservation closes at most
// once.
func (s *service) ConfirmPayment(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order *models.Order
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		found, err := repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if found.Status == enums.OrderStatusConfirmed {
			order = found
			return nil
		}
		if !found.Status.CanTransitionTo(enums.OrderStatusConfirmed) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be confirmed").WithDetails(map[string]any{
				"order_id": found.ID.String(),
				"status":   found.Status.String(),
			})
		}

		for _, item := range found.Items {
			if _, err := s.ledger.ConfirmSale(ctx, tx, item.ProductID, found.ID, item.Qty); err != nil {
				if errors.Is(err, stock.ErrAlreadySettled) {
					continue
				}
				return err
			}
			s.orderMetrics.IncSettlement(enums.MovementSale.String())
		}

		now := time.Now()
		found.Status = enums.OrderStatusConfirmed
		found.ConfirmedAt = &now
		found.StockReserved = false
		if err := repo.Save(ctx, found); err != nil {
			return err
		}

		if err := s.emit(ctx, tx, enums.EventOrderPaid, found, nil); err != nil {
			return err
		}
		order = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order payment confirmed")
	return order, nil
}

// Cancel moves a pending order to cancelled and releases its reservations
// back to availability. Cancelling an already cancelled order is a no-op.
// For a confirmed order the reservations were consumed by the sale, so the
// ledger reports each pair settled and no counters move.
func (s *service) Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error) {
	var order *models.Order
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		found, err := repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if found.Status == enums.OrderStatusCancelled {
			order = found
			return nil
		}
		if !found.Status.CanTransitionTo(enums.OrderStatusCancelled) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be cancelled").WithDetails(map[string]any{
				"order_id": found.ID.String(),
				"status":   found.Status.String(),
			})
		}

		if err := s.closeReservations(ctx, tx, found, enums.MovementRelease); err != nil {
			return err
		}

		if err := s.markCancelled(ctx, repo, found, reason); err != nil {
			return err
		}

		details := map[string]any{"reason": reason}
		if err := s.emit(ctx, tx, enums.EventOrderCanceled, found, details); err != nil {
			return err
		}
		order = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order cancelled")
	return order, nil
}

// ExpireDue settles every pending order whose reservation window lapsed
// before now. Each order expires in its own transaction, and the state is
// re-checked inside it so a payment racing the sweep wins. Returns how many
// orders were expired.
func (s *service) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.orders.ListExpiredPending(ctx, now, s.sweepBatch)
	if err != nil {
		return 0, err
	}

	expired := 0
	var sweepErr error
	for _, candidate := range due {
		if err := ctx.Err(); err != nil {
			return expired, multierr.Append(sweepErr, err)
		}
		ok, err := s.expireOne(ctx, candidate.ID, now)
		if err != nil {
			sweepErr = multierr.Append(sweepErr, fmt.Errorf("expire order %s: %w", candidate.ID, err))
			continue
		}
		if ok {
			expired++
		}
	}

	if expired > 0 {
		s.orderMetrics.IncExpiredOrders(expired)
		s.logg.Info(s.logg.WithField(ctx, "expired_orders", expired), "reservation expiry sweep settled orders")
	}
	return expired, sweepErr
}

func (s *service) expireOne(ctx context.Context, orderID uuid.UUID, now time.Time) (bool, error) {
	expired := false
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		found, err := repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		// the candidate list is stale by the time the row is locked; a
		// payment that landed in between must win
		if found.Status != enums.OrderStatusPending || !found.StockReserved || found.ReservationExpiresAt.After(now) {
			return nil
		}

		if err := s.closeReservations(ctx, tx, found, enums.MovementExpired); err != nil {
			return err
		}
		if err := s.markCancelled(ctx, repo, found, expiredCancelReason); err != nil {
			return err
		}
		if err := s.emit(ctx, tx, enums.EventOrderExpired, found, nil); err != nil {
			return err
		}
		expired = true
		return nil
	})
	return expired, err
}

func (s *service) closeReservations(ctx context.Context, tx *gorm.DB, order *models.Order, movement enums.MovementType) error {
	for _, item := range order.Items {
		var err error
		switch movement {
		case enums.MovementExpired:
			_, err = s.ledger.Expire(ctx, tx, item.ProductID, order.ID, item.Qty)
		default:
			_, err = s.ledger.Release(ctx, tx, item.ProductID, order.ID, item.Qty)
		}
		if err != nil {
			if errors.Is(err, stock.ErrAlreadySettled) {
				continue
			}
			return err
		}
		s.orderMetrics.IncSettlement(movement.String())
	}
	return nil
}

func (s *service) markCancelled(ctx context.Context, repo orders.Repository, order *models.Order, reason string) error {
	now := time.Now()
	order.Status = enums.OrderStatusCancelled
	order.CancelledAt = &now
	order.StockReserved = false
	if reason != "" {
		order.CancelReason = &reason
	}
	return repo.Save(ctx, order)
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, order *models.Order, extra map[string]any) error {
	if s.events == nil {
		return nil
	}
	data := map[string]any{
		"order_id":    order.ID.String(),
		"store_id":    order.StoreID.String(),
		"total_cents": order.TotalCents,
	}
	for key, value := range extra {
		data[key] = value
	}
	return s.events.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		StoreID:       &order.StoreID,
		Version:       1,
		Data:          data,
	})
}
