package fitplan

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

var _ FitplanRepo = (*PostgresFitplanRepo)(nil)

// FitplanRepo defines the contract for fitness plan persistence.
type FitplanRepo interface {
	// CreateActive stores the plan and deactivates the user's other plans
	// in the same transaction.
	CreateActive(ctx context.Context, plan types.FitnessPlan) (*types.FitnessPlan, error)
	GetActiveForUser(ctx context.Context, userID uuid.UUID) (*types.FitnessPlan, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]types.FitnessPlan, error)
}

type PostgresFitplanRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresFitplanRepo(pgxpool *pgxpool.Pool, logger *slog.Logger) *PostgresFitplanRepo {
	return &PostgresFitplanRepo{
		logger: logger,
		pgpool: pgxpool,
	}
}

const planColumns = `id, user_id, name, workout_plan, diet_plan, is_active, created_at`

func scanPlan(row pgx.Row) (*types.FitnessPlan, error) {
	var p types.FitnessPlan
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.WorkoutPlan, &p.DietPlan, &p.IsActive, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("scanning fitness plan: %w", err)
	}
	return &p, nil
}

func (r *PostgresFitplanRepo) CreateActive(ctx context.Context, plan types.FitnessPlan) (*types.FitnessPlan, error) {
	ctx, span := otel.Tracer("FitplanRepo").Start(ctx, "CreateActive", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "fitness_plans"),
	))
	defer span.End()

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE fitness_plans SET is_active = FALSE WHERE user_id = $1 AND is_active`, plan.UserID); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("deactivating previous plans: %w", err)
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO fitness_plans (user_id, name, workout_plan, diet_plan)
		VALUES ($1, $2, $3, $4)
		RETURNING `+planColumns,
		plan.UserID, plan.Name, plan.WorkoutPlan, plan.DietPlan)
	created, err := scanPlan(row)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing fitness plan: %w", err)
	}
	return created, nil
}

func (r *PostgresFitplanRepo) GetActiveForUser(ctx context.Context, userID uuid.UUID) (*types.FitnessPlan, error) {
	row := r.pgpool.QueryRow(ctx,
		`SELECT `+planColumns+` FROM fitness_plans WHERE user_id = $1 AND is_active`, userID)
	return scanPlan(row)
}

func (r *PostgresFitplanRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]types.FitnessPlan, error) {
	rows, err := r.pgpool.Query(ctx,
		`SELECT `+planColumns+` FROM fitness_plans WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing fitness plans: %w", err)
	}
	defer rows.Close()

	var plans []types.FitnessPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}
