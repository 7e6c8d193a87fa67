package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/vitrinehub/storefront-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type reservationExpirer interface {
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

// ReservationExpiryJobParams configure the reservation sweep.
type ReservationExpiryJobParams struct {
	Logger     *logger.Logger
	Settlement reservationExpirer
}

// NewReservationExpiryJob builds the cron job that settles pending orders
// whose reservation window lapsed.
func NewReservationExpiryJob(params ReservationExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Settlement == nil {
		return nil, fmt.Errorf("settlement service required")
	}
	return &reservationExpiryJob{
		logg:       params.Logger,
		settlement: params.Settlement,
		now:        time.Now,
	}, nil
}

type reservationExpiryJob struct {
	logg       *logger.Logger
	settlement reservationExpirer
	now        func() time.Time
}

func (j *reservationExpiryJob) Name() string { return "reservation-expiry" }

func (j *reservationExpiryJob) Run(ctx context.Context) error {
	expired, err := j.settlement.ExpireDue(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("reservation expiry sweep: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"expired_orders": expired})
	j.logg.Info(logCtx, "reservation expiry sweep complete")
	return nil
}
