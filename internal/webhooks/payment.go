package webhooks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vitrinehub/storefront-backend/pkg/db/models"
	"github.com/vitrinehub/storefront-backend/pkg/enums"
	pkgerrors "github.com/vitrinehub/storefront-backend/pkg/errors"
	"github.com/vitrinehub/storefront-backend/pkg/logger"
	"github.com/vitrinehub/storefront-backend/pkg/redis"
)

// dedupeScope namespaces payment event ids in redis.
const dedupeScope = "webhook:payment"

// PaymentEvent is the provider-agnostic shape of a payment notification.
// Adapters normalize each provider's payload into this struct before calling
// Process.
type PaymentEvent struct {
	EventID           string
	OrderID           *uuid.UUID
	ExternalReference *string
	Status            enums.PaymentStatus
}

// Outcome tells the transport layer how the event was handled. Every outcome
// maps to a 2xx response so providers stop retrying.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
)

type orderFinder interface {
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindByExternalReference(ctx context.Context, reference string) (*models.Order, error)
}

type settler interface {
	ConfirmPayment(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID, reason string) (*models.Order, error)
}

// PaymentProcessor applies payment webhook events to orders exactly once.
type PaymentProcessor struct {
	orders     orderFinder
	settlement settler
	dedupe     redis.IdempotencyStore
	logg       *logger.Logger
	dedupeTTL  time.Duration
}

// PaymentProcessorParams wires the processor.
type PaymentProcessorParams struct {
	Orders     orderFinder
	Settlement settler
	Dedupe     redis.IdempotencyStore
	Logger     *logger.Logger
	DedupeTTL  time.Duration
}

// NewPaymentProcessor validates the wiring and returns a processor.
func NewPaymentProcessor(params PaymentProcessorParams) (*PaymentProcessor, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("order finder required")
	}
	if params.Settlement == nil {
		return nil, fmt.Errorf("settlement service required")
	}
	if params.Dedupe == nil {
		return nil, fmt.Errorf("idempotency store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	ttl := params.DedupeTTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &PaymentProcessor{
		orders:     params.Orders,
		settlement: params.Settlement,
		dedupe:     params.Dedupe,
		logg:       params.Logger,
		dedupeTTL:  ttl,
	}, nil
}

// Process settles the order the event refers to. The event id is claimed in
// redis before any state change, so a redelivered event is acknowledged
// without touching the order again. If settlement fails the claim is given
// back and the provider's retry gets a clean run.
func (p *PaymentProcessor) Process(ctx context.Context, event PaymentEvent) (Outcome, error) {
	if err := validatePaymentEvent(event); err != nil {
		return "", err
	}

	key := p.dedupe.IdempotencyKey(dedupeScope, event.EventID)
	claimed, err := p.dedupe.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), p.dedupeTTL)
	if err != nil {
		return "", fmt.Errorf("claiming webhook event: %w", err)
	}
	if !claimed {
		p.logg.Info(p.logg.WithField(ctx, "event_id", event.EventID), "duplicate payment webhook ignored")
		return OutcomeDuplicate, nil
	}

	outcome, err := p.apply(ctx, event)
	if err != nil {
		// hand the claim back so the provider's retry can settle the order
		if delErr := p.dedupe.Del(ctx, key); delErr != nil {
			p.logg.Error(ctx, "releasing webhook claim", delErr)
		}
		return "", err
	}
	return outcome, nil
}

func (p *PaymentProcessor) apply(ctx context.Context, event PaymentEvent) (Outcome, error) {
	order, err := p.resolveOrder(ctx, event)
	if err != nil {
		return "", err
	}
	ctx = p.logg.WithOrderID(ctx, order.ID.String())

	switch event.Status {
	case enums.PaymentStatusApproved:
		if _, err := p.settlement.ConfirmPayment(ctx, order.ID); err != nil {
			return "", err
		}
		return OutcomeProcessed, nil
	case enums.PaymentStatusRejected, enums.PaymentStatusCancelled:
		if _, err := p.settlement.Cancel(ctx, order.ID, "payment "+event.Status.String()); err != nil {
			return "", err
		}
		return OutcomeProcessed, nil
	default:
		p.logg.Info(p.logg.WithField(ctx, "payment_status", event.Status.String()), "payment webhook status ignored")
		return OutcomeIgnored, nil
	}
}

func (p *PaymentProcessor) resolveOrder(ctx context.Context, event PaymentEvent) (*models.Order, error) {
	if event.OrderID != nil {
		return p.orders.FindByID(ctx, *event.OrderID)
	}
	return p.orders.FindByExternalReference(ctx, *event.ExternalReference)
}

func validatePaymentEvent(event PaymentEvent) error {
	if event.EventID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "event id is required")
	}
	if event.Status == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment status is required")
	}
	if event.OrderID == nil && (event.ExternalReference == nil || *event.ExternalReference == "") {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id or external reference is required")
	}
	return nil
}
