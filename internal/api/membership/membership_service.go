package membership

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gritfit/gritfit-api/internal/types"
)

var _ MembershipService = (*MembershipServiceImpl)(nil)

// MembershipService defines the business logic contract for plans and
// memberships.
type MembershipService interface {
	ListPlans(ctx context.Context) ([]types.MembershipPlan, error)
	// GetUserMembership returns the user's membership with the expiry
	// predicate already applied: a row still marked active but past its
	// period end is reported as expired even before the sweep runs.
	GetUserMembership(ctx context.Context, userID uuid.UUID) (*types.Membership, error)
	// CancelMembership flags the subscription for non-renewal at the
	// payment provider, then mirrors cancel_at_period_end locally; the
	// membership stays active until the period elapses.
	CancelMembership(ctx context.Context, userID uuid.UUID) error
	// ApplySubscriptionEvent upserts membership state from a Stripe
	// subscription or checkout event.
	ApplySubscriptionEvent(ctx context.Context, params types.UpsertMembershipParams) (*types.Membership, error)
	// SetStatusBySubscription updates status (and optionally period bounds)
	// for the membership matching the external subscription reference.
	SetStatusBySubscription(ctx context.Context, subscriptionID string, status types.MembershipStatus, periodStart, periodEnd int64) error
	// ExpireOverdue runs the expiry sweep, returning the number of
	// memberships flipped.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// ProviderCanceler flags a subscription for cancellation at the end of
// the current period on the billing provider's side.
type ProviderCanceler interface {
	FlagSubscriptionCancel(ctx context.Context, subscriptionID string) error
}

type MembershipServiceImpl struct {
	logger   *slog.Logger
	repo     MembershipRepo
	provider ProviderCanceler
	now      func() time.Time
}

func NewMembershipService(repo MembershipRepo, provider ProviderCanceler, logger *slog.Logger) *MembershipServiceImpl {
	return &MembershipServiceImpl{
		logger:   logger,
		repo:     repo,
		provider: provider,
		now:      time.Now,
	}
}

func (s *MembershipServiceImpl) ListPlans(ctx context.Context) ([]types.MembershipPlan, error) {
	plans, err := s.repo.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching membership plans: %w", err)
	}
	return plans, nil
}

func (s *MembershipServiceImpl) GetUserMembership(ctx context.Context, userID uuid.UUID) (*types.Membership, error) {
	m, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Report expiry immediately rather than waiting for the sweep.
	if m.Status == types.MembershipActive && m.IsExpired(s.now()) {
		m.Status = types.MembershipExpired
	}
	return m, nil
}

func (s *MembershipServiceImpl) CancelMembership(ctx context.Context, userID uuid.UUID) error {
	l := s.logger.With(slog.String("method", "CancelMembership"), slog.String("userID", userID.String()))

	m, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	// The provider must learn about the cancel first, otherwise its next
	// subscription event would overwrite the local flag with false.
	if m.StripeSubscriptionID != nil && *m.StripeSubscriptionID != "" {
		if err := s.provider.FlagSubscriptionCancel(ctx, *m.StripeSubscriptionID); err != nil {
			return fmt.Errorf("flagging subscription cancel with provider: %w", err)
		}
	}
	if err := s.repo.SetCancelAtPeriodEnd(ctx, userID); err != nil {
		return err
	}
	l.InfoContext(ctx, "Membership flagged for cancellation at period end")
	return nil
}

func (s *MembershipServiceImpl) ApplySubscriptionEvent(ctx context.Context, params types.UpsertMembershipParams) (*types.Membership, error) {
	l := s.logger.With(slog.String("method", "ApplySubscriptionEvent"),
		slog.String("subscription_id", params.StripeSubscriptionID))

	// Stripe occasionally omits period bounds on subscription objects;
	// derive a synthetic 30-day period so active gating still works.
	if params.CurrentPeriodStart == 0 || params.CurrentPeriodEnd == 0 {
		start := s.now()
		params.CurrentPeriodStart = start.UnixMilli()
		params.CurrentPeriodEnd = start.Add(30 * 24 * time.Hour).UnixMilli()
		l.WarnContext(ctx, "Provider omitted period bounds, derived synthetic 30-day period")
	}

	m, err := s.repo.UpsertBySubscriptionID(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("applying subscription event: %w", err)
	}
	l.InfoContext(ctx, "Membership upserted", slog.String("status", string(m.Status)))
	return m, nil
}

func (s *MembershipServiceImpl) SetStatusBySubscription(ctx context.Context, subscriptionID string, status types.MembershipStatus, periodStart, periodEnd int64) error {
	return s.repo.UpdateStatusBySubscriptionID(ctx, subscriptionID, status, periodStart, periodEnd)
}

func (s *MembershipServiceImpl) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	return s.repo.ExpireOverdue(ctx, now.UnixMilli())
}
