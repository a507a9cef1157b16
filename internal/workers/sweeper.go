// Package workers runs the periodic maintenance loops: expiring lapsed
// memberships and marking elapsed bookings completed. Both sweeps are
// idempotent, so overlapping runs across replicas only waste a query.
package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/gritfit/gritfit-api/app/observability/metrics"
)

const defaultSweepInterval = 5 * time.Minute

// MembershipExpirer expires active memberships whose paid period has elapsed.
type MembershipExpirer interface {
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// BookingCompleter marks confirmed bookings whose end time has passed.
type BookingCompleter interface {
	CompleteElapsed(ctx context.Context, now time.Time) (int64, error)
}

type Sweeper struct {
	logger      *slog.Logger
	memberships MembershipExpirer
	bookings    BookingCompleter
	interval    time.Duration
	now         func() time.Time
}

func NewSweeper(memberships MembershipExpirer, bookings BookingCompleter, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{
		logger:      logger,
		memberships: memberships,
		bookings:    bookings,
		interval:    interval,
		now:         time.Now,
	}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	l := s.logger.With(slog.String("worker", "sweeper"))
	l.InfoContext(ctx, "Sweeper started", slog.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			l.InfoContext(ctx, "Sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	l := s.logger.With(slog.String("worker", "sweeper"))
	now := s.now()

	expired, err := s.memberships.ExpireOverdue(ctx, now)
	if err != nil {
		l.ErrorContext(ctx, "Membership expiry sweep failed", slog.Any("error", err))
	} else if expired > 0 {
		l.InfoContext(ctx, "Expired overdue memberships", slog.Int64("count", expired))
		metrics.Get().MembershipsExpiredTotal.Add(ctx, expired)
	}

	completed, err := s.bookings.CompleteElapsed(ctx, now)
	if err != nil {
		l.ErrorContext(ctx, "Booking completion sweep failed", slog.Any("error", err))
	} else if completed > 0 {
		l.InfoContext(ctx, "Completed elapsed bookings", slog.Int64("count", completed))
	}
}
