package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/gritfit/gritfit-api/internal/types"
)

var _ MembershipRepo = (*PostgresMembershipRepo)(nil)

// MembershipRepo defines the contract for plan and membership persistence.
type MembershipRepo interface {
	ListPlans(ctx context.Context) ([]types.MembershipPlan, error)
	GetPlanByType(ctx context.Context, planType types.PlanType) (*types.MembershipPlan, error)

	// GetByUserID returns the user's latest membership row.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*types.Membership, error)

	// UpsertBySubscriptionID creates or updates the membership keyed on the
	// Stripe subscription ID, so webhook redelivery never duplicates rows.
	UpsertBySubscriptionID(ctx context.Context, params types.UpsertMembershipParams) (*types.Membership, error)

	// UpdateStatusBySubscriptionID sets the status for the membership with the
	// given external reference; period bounds refresh when both are non-zero.
	UpdateStatusBySubscriptionID(ctx context.Context, subscriptionID string, status types.MembershipStatus, periodStart, periodEnd int64) error

	// SetCancelAtPeriodEnd flags the user's membership for non-renewal.
	SetCancelAtPeriodEnd(ctx context.Context, userID uuid.UUID) error

	// ExpireOverdue flips active memberships whose period has elapsed to
	// expired and reports how many rows changed.
	ExpireOverdue(ctx context.Context, nowMillis int64) (int64, error)
}

type PostgresMembershipRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresMembershipRepo(pgxpool *pgxpool.Pool, logger *slog.Logger) *PostgresMembershipRepo {
	return &PostgresMembershipRepo{
		logger: logger,
		pgpool: pgxpool,
	}
}

const membershipColumns = `id, user_id, type, status, stripe_customer_id, stripe_subscription_id,
	stripe_price_id, current_period_start, current_period_end, cancel_at_period_end, created_at, updated_at`

func scanMembership(row pgx.Row) (*types.Membership, error) {
	var m types.Membership
	err := row.Scan(&m.ID, &m.UserID, &m.Type, &m.Status, &m.StripeCustomerID, &m.StripeSubscriptionID,
		&m.StripePriceID, &m.CurrentPeriodStart, &m.CurrentPeriodEnd, &m.CancelAtPeriodEnd, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("scanning membership: %w", err)
	}
	return &m, nil
}

func (r *PostgresMembershipRepo) ListPlans(ctx context.Context) ([]types.MembershipPlan, error) {
	rows, err := r.pgpool.Query(ctx,
		`SELECT id, type, name, description, price_cents, features, stripe_price_id
		 FROM membership_plans ORDER BY price_cents ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer rows.Close()

	var plans []types.MembershipPlan
	for rows.Next() {
		var p types.MembershipPlan
		if err := rows.Scan(&p.ID, &p.Type, &p.Name, &p.Description, &p.PriceCents, &p.Features, &p.StripePriceID); err != nil {
			return nil, fmt.Errorf("scanning plan row: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *PostgresMembershipRepo) GetPlanByType(ctx context.Context, planType types.PlanType) (*types.MembershipPlan, error) {
	var p types.MembershipPlan
	err := r.pgpool.QueryRow(ctx,
		`SELECT id, type, name, description, price_cents, features, stripe_price_id
		 FROM membership_plans WHERE type = $1`, planType).
		Scan(&p.ID, &p.Type, &p.Name, &p.Description, &p.PriceCents, &p.Features, &p.StripePriceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("fetching plan: %w", err)
	}
	return &p, nil
}

func (r *PostgresMembershipRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*types.Membership, error) {
	row := r.pgpool.QueryRow(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE user_id = $1 ORDER BY updated_at DESC LIMIT 1`,
		userID)
	return scanMembership(row)
}

func (r *PostgresMembershipRepo) UpsertBySubscriptionID(ctx context.Context, params types.UpsertMembershipParams) (*types.Membership, error) {
	ctx, span := otel.Tracer("MembershipRepo").Start(ctx, "UpsertBySubscriptionID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "memberships"),
	))
	defer span.End()

	query := `
		INSERT INTO memberships (user_id, type, status, stripe_customer_id, stripe_subscription_id,
			stripe_price_id, current_period_start, current_period_end, cancel_at_period_end)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (stripe_subscription_id) DO UPDATE
		SET type = EXCLUDED.type,
		    status = EXCLUDED.status,
		    stripe_customer_id = EXCLUDED.stripe_customer_id,
		    stripe_price_id = EXCLUDED.stripe_price_id,
		    current_period_start = EXCLUDED.current_period_start,
		    current_period_end = EXCLUDED.current_period_end,
		    cancel_at_period_end = EXCLUDED.cancel_at_period_end,
		    updated_at = now()
		RETURNING ` + membershipColumns

	row := r.pgpool.QueryRow(ctx, query,
		params.UserID, params.Type, params.Status, params.StripeCustomerID, params.StripeSubscriptionID,
		params.StripePriceID, params.CurrentPeriodStart, params.CurrentPeriodEnd, params.CancelAtPeriodEnd)
	m, err := scanMembership(row)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("upserting membership: %w", err)
	}
	return m, nil
}

func (r *PostgresMembershipRepo) UpdateStatusBySubscriptionID(ctx context.Context, subscriptionID string, status types.MembershipStatus, periodStart, periodEnd int64) error {
	query := `UPDATE memberships SET status = $1, updated_at = now()`
	args := []interface{}{status, subscriptionID}
	if periodStart > 0 && periodEnd > 0 {
		query = `UPDATE memberships SET status = $1, current_period_start = $3, current_period_end = $4, updated_at = now()`
		args = []interface{}{status, subscriptionID, periodStart, periodEnd}
	}
	query += ` WHERE stripe_subscription_id = $2`

	tag, err := r.pgpool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating membership status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresMembershipRepo) SetCancelAtPeriodEnd(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, `
		UPDATE memberships SET cancel_at_period_end = TRUE, updated_at = now()
		WHERE user_id = $1 AND status = 'active'`, userID)
	if err != nil {
		return fmt.Errorf("flagging membership for cancellation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresMembershipRepo) ExpireOverdue(ctx context.Context, nowMillis int64) (int64, error) {
	ctx, span := otel.Tracer("MembershipRepo").Start(ctx, "ExpireOverdue", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "memberships"),
	))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, `
		UPDATE memberships SET status = 'expired', updated_at = now()
		WHERE status = 'active' AND current_period_end > 0 AND current_period_end < $1`, nowMillis)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("expiring overdue memberships: %w", err)
	}
	return tag.RowsAffected(), nil
}
