package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vitrinehub/storefront-backend/pkg/logger"
)

type fakeExpirer struct {
	expired int
	err     error
	calls   []time.Time
}

func (f *fakeExpirer) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	f.calls = append(f.calls, now)
	return f.expired, f.err
}

func TestReservationExpiryJobRunsSweep(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	expirer := &fakeExpirer{expired: 3}
	jobIface, err := NewReservationExpiryJob(ReservationExpiryJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test"}),
		Settlement: expirer,
	})
	if err != nil {
		t.Fatalf("NewReservationExpiryJob: %v", err)
	}
	job := jobIface.(*reservationExpiryJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(expirer.calls) != 1 || !expirer.calls[0].Equal(now) {
		t.Fatalf("expected one sweep at %s, got %+v", now, expirer.calls)
	}
}

func TestReservationExpiryJobPropagatesSweepError(t *testing.T) {
	expirer := &fakeExpirer{err: errors.New("db down")}
	job, err := NewReservationExpiryJob(ReservationExpiryJobParams{
		Logger:     logger.New(logger.Options{ServiceName: "cron-test"}),
		Settlement: expirer,
	})
	if err != nil {
		t.Fatalf("NewReservationExpiryJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected sweep error to propagate")
	}
}
