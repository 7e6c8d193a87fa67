package settlement

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vitrinehub/storefront-backend/internal/orders"
	"github.com/vitrinehub/storefront-backend/internal/stock"
	"github.com/vitrinehub/storefront-backend/pkg/db/models"
	"github.com/vitrinehub/storefront-backend/pkg/enums"
	pkgerrors "github.com/vitrinehub/storefront-backend/pkg/errors"
	"github.com/vitrinehub/storefront-backend/pkg/logger"
	"github.com/vitrinehub/storefront-backend/pkg/outbox"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

type fakeEmitter struct {
	events []outbox.DomainEvent
}

func (f *fakeEmitter) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

type settlementFixture struct {
	db      *gorm.DB
	service Service
	emitter *fakeEmitter
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()
	db := newTestDB(t)
	ledger, err := stock.NewLedger(stock.NewProductRepository(db), stock.NewMovementRepository(db))
	if err != nil {
		t.Fatalf("new ledger: %v", err)
	}
	emitter := &fakeEmitter{}
	service, err := NewService(ServiceParams{
		Orders: orders.NewRepository(db),
		DB:     testTxRunner{db: db},
		Ledger: ledger,
		Events: emitter,
		Logger: logger.New(logger.Options{ServiceName: "settlement-test"}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &settlementFixture{db: db, service: service, emitter: emitter}
}

func (f *settlementFixture) mustLoadProduct(t *testing.T, id uuid.UUID) *models.Product {
	t.Helper()
	var product models.Product
	if err := f.db.First(&product, "id = ?", id).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return &product
}

func (f *settlementFixture) countMovements(t *testing.T, orderID uuid.UUID, movement enums.MovementType) int64 {
	t.Helper()
	var count int64
	err := f.db.Model(&models.StockMovement{}).
		Where("order_id = ? AND movement_type = ?", orderID, movement).
		Count(&count).Error
	if err != nil {
		t.Fatalf("count movements: %v", err)
	}
	return count
}

func TestConfirmPaymentConsumesReservationOnce(t *testing.T) {
	t.Parallel()

	fixture := newSettlementFixture(t)
	store := mustCreateTestStore(t, fixture.db)
	product := mustCreateTestProduct(t, fixture.db, store.ID, 10)
	order := mustCreateReservedOrder(t, fixture.db, store.ID, product.ID, 5, time.Now().Add(time.Hour))

	confirmed, err := fixture.service.ConfirmPayment(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("confirm payment: %v", err)
	}
	if confirmed.Status != enums.OrderStatusConfirmed || confirmed.ConfirmedAt == nil || confirmed.StockReserved {
		t.Fatalf("unexpected confirmed order: %+v", confirmed)
	}

	after := fixture.mustLoadProduct(t, product.ID)
	if after.Stock != 5 || after.ReservedStock != 0 {
		t.Fatalf("sale must consume stock and reservation: stock=%d reserved=%d", after.Stock, after.ReservedStock)
	}

	// duplicate webhook delivery
	again, err := fixture.service.ConfirmPayment(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("duplicate confirm must succeed: %v", err)
	}
	if again.Status != enums.OrderStatusConfirmed {
		t.Fatalf("unexpected status %s", again.Status)
	}

	after = fixture.mustLoadProduct(t, product.ID)
	if after.Stock != 5 || after.ReservedStock != 0 {
		t.Fatalf("duplicate confirm must not move counters again: stock=%d reserved=%d", after.Stock, after.ReservedStock)
	}
	if got := fixture.countMovements(t, order.ID, enums.MovementSale); got != 1 {
		t.Fatalf("expected exactly one sale movement, got %d", got)
	}
	if len(fixture.emitter.events) != 1 || fixture.emitter.events[0].EventType != enums.EventOrderPaid {
		t.Fatalf("expected a single order_paid event, got %+v", fixture.emitter.events)
	}
}

func TestConfirmPaymentRejectsCancelledOrder(t *testing.T) {
	t.Parallel()

	fixture := newSettlementFixture(t)
	store := mustCreateTestStore(t, fixture.db)
	product := mustCreateTestProduct(t, fixture.db, store.ID, 10)
	order := mustCreateReservedOrder(t, fixture.db, store.ID, product.ID, 5, time.Now().Add(time.Hour))

	if _, err := fixture.service.Cancel(context.Background(), order.ID, "customer request"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, err := fixture.service.ConfirmPayment(context.Background(), order.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestCancelReleasesReservation(t *testing.T) {
	t.Parallel()

	fixture := newSettlementFixture(t)
	store := mustCreateTestStore(t, fixture.db)
	product := mustCreateTestProduct(t, fixture.db, store.ID, 10)
	order := mustCreateReservedOrder(t, fixture.db, store.ID, product.ID, 5, time.Now().Add(time.Hour))

	cancelled, err := fixture.service.Cancel(context.Background(), order.ID, "customer request")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled || cancelled.CancelReason == nil || *cancelled.CancelReason != "customer request" {
		t.Fatalf("unexpected cancelled order: %+v", cancelled)
	}

	after := fixture.mustLoadProduct(t, product.ID)
	if after.Stock != 10 || after.ReservedStock != 0 {
		t.Fatalf("release must restore availability without selling: stock=%d reserved=%d", after.Stock, after.ReservedStock)
	}

	// duplicate cancel is a no-op
	if _, err := fixture.service.Cancel(context.Background(), order.ID, "customer request"); err != nil {
		t.Fatalf("duplicate cancel must succeed: %v", err)
	}
	if got := fixture.countMovements(t, order.ID, enums.MovementRelease); got != 1 {
		t.Fatalf("expected exactly one release movement, got %d", got)
	}
	if len(fixture.emitter.events) != 1 || fixture.emitter.events[0].EventType != enums.EventOrderCanceled {
		t.Fatalf("expected a single order_canceled event, got %+v", fixture.emitter.events)
	}
}

func TestCancelAfterConfirmKeepsSale(t *testing.T) {
	t.Parallel()

	fixture := newSettlementFixture(t)
	store := mustCreateTestStore(t, fixture.db)
	product := mustCreateTestProduct(t, fixture.db, store.ID, 10)
	order := mustCreateReservedOrder(t, fixture.db, store.ID, product.ID, 5, time.Now().Add(time.Hour))

	if _, err := fixture.service.ConfirmPayment(context.Background(), order.ID); err != nil {
		t.Fatalf("confirm payment: %v", err)
	}
	cancelled, err := fixture.service.Cancel(context.Background(), order.ID, "refund requested")
	if err != nil {
		t.Fatalf("cancel after confirm: %v", err)
	}
	if cancelled.Status != enums.OrderStatusCancelled {
		t.Fatalf("unexpected status %s", cancelled.Status)
	}

	// the sale already closed the reservation pair, so no counters move
	after := fixture.mustLoadProduct(t, product.ID)
	if after.Stock != 5 || after.ReservedStock != 0 {
		t.Fatalf("cancel after sale must not touch counters: stock=%d reserved=%d", after.Stock, after.ReservedStock)
	}
	if got := fixture.countMovements(t, order.ID, enums.MovementRelease); got != 0 {
		t.Fatalf("expected no release movement, got %d", got)
	}
}

func TestExpireDueSettlesLapsedOrders(t *testing.T) {
	t.Parallel()

	fixture := newSettlementFixture(t)
	store := mustCreateTestStore(t, fixture.db)
	lapsedProduct := mustCreateTestProduct(t, fixture.db, store.ID, 10)
	freshProduct := mustCreateTestProduct(t, fixture.db, store.ID, 10)
	lapsed := mustCreateReservedOrder(t, fixture.db, store.ID, lapsedProduct.ID, 4, time.Now().Add(-time.Minute))
	fresh := mustCreateReservedOrder(t, fixture.db, store.ID, freshProduct.ID, 4, time.Now().Add(time.Hour))

	expired, err := fixture.service.ExpireDue(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("expire due: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected one expired order, got %d", expired)
	}

	var after models.Order
	if err := fixture.db.First(&after, "id = ?", lapsed.ID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if after.Status != enums.OrderStatusCancelled || after.CancelReason == nil || *after.CancelReason != "reservation expired" {
		t.Fatalf("unexpected expired order: %+v", after)
	}

	product := fixture.mustLoadProduct(t, lapsedProduct.ID)
	if product.Stock != 10 || product.ReservedStock != 0 {
		t.Fatalf("expiry must return stock to availability: stock=%d reserved=%d", product.Stock, product.ReservedStock)
	}
	if got := fixture.countMovements(t, lapsed.ID, enums.MovementExpired); got != 1 {
		t.Fatalf("expected one expired movement, got %d", got)
	}

	var untouched models.Order
	if err := fixture.db.First(&untouched, "id = ?", fresh.ID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if untouched.Status != enums.OrderStatusPending || !untouched.StockReserved {
		t.Fatalf("order inside its window must stay pending: %+v", untouched)
	}

	if len(fixture.emitter.events) != 1 || fixture.emitter.events[0].EventType != enums.EventOrderExpired {
		t.Fatalf("expected a single order_expired event, got %+v", fixture.emitter.events)
	}
}

func TestExpireOneSkipsOrderPaidMeanwhile(t *testing.T) {
	t.Parallel()

	fixture := newSettlementFixture(t)
	store := mustCreateTestStore(t, fixture.db)
	product := mustCreateTestProduct(t, fixture.db, store.ID, 10)
	order := mustCreateReservedOrder(t, fixture.db, store.ID, product.ID, 5, time.Now().Add(-time.Minute))

	// the payment lands after the sweep picked the order as a candidate
	if _, err := fixture.service.ConfirmPayment(context.Background(), order.ID); err != nil {
		t.Fatalf("confirm payment: %v", err)
	}

	expired, err := fixture.service.(*service).expireOne(context.Background(), order.ID, time.Now())
	if err != nil {
		t.Fatalf("expire one: %v", err)
	}
	if expired {
		t.Fatal("a confirmed order must not be expired")
	}

	after := fixture.mustLoadProduct(t, product.ID)
	if after.Stock != 5 || after.ReservedStock != 0 {
		t.Fatalf("counters must reflect the sale only: stock=%d reserved=%d", after.Stock, after.ReservedStock)
	}
}
