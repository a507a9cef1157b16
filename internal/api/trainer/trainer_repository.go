package trainer

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

var _ TrainerRepo = (*PostgresTrainerRepo)(nil)

// TrainerRepo defines the contract for trainer profile and availability
// persistence.
type TrainerRepo interface {
	ListProfiles(ctx context.Context) ([]types.TrainerProfile, error)
	GetProfileByID(ctx context.Context, trainerID uuid.UUID) (*types.TrainerProfile, error)
	GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*types.TrainerProfile, error)
	// EnsureProfile creates the trainer's profile row if it does not exist
	// yet and returns it either way.
	EnsureProfile(ctx context.Context, userID uuid.UUID) (*types.TrainerProfile, error)
	UpdateProfile(ctx context.Context, trainerID uuid.UUID, params types.UpdateTrainerProfileParams) (*types.TrainerProfile, error)

	ListRules(ctx context.Context, trainerID uuid.UUID) ([]types.AvailabilityRule, error)
	// ReplaceRules swaps the trainer's whole weekly schedule in one
	// transaction.
	ReplaceRules(ctx context.Context, trainerID uuid.UUID, rules []types.AvailabilityRule) error

	ListOverridesForDate(ctx context.Context, trainerID uuid.UUID, date string) ([]types.AvailabilityOverride, error)
	CreateOverride(ctx context.Context, override types.AvailabilityOverride) (*types.AvailabilityOverride, error)
	DeleteOverride(ctx context.Context, trainerID, overrideID uuid.UUID) error

	// ListBookedIntervals returns the occupied intervals for one date,
	// counting only bookings still holding the slot (pending or confirmed).
	ListBookedIntervals(ctx context.Context, trainerID uuid.UUID, date string) ([]Interval, error)
}

type PostgresTrainerRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresTrainerRepo(pgxpool *pgxpool.Pool, logger *slog.Logger) *PostgresTrainerRepo {
	return &PostgresTrainerRepo{
		logger: logger,
		pgpool: pgxpool,
	}
}

const trainerColumns = `id, user_id, specializations, bio, certifications, experience,
	rating, review_count, created_at, updated_at`

func scanTrainerProfile(row pgx.Row) (*types.TrainerProfile, error) {
	var p types.TrainerProfile
	err := row.Scan(&p.ID, &p.UserID, &p.Specializations, &p.Bio, &p.Certifications, &p.Experience,
		&p.Rating, &p.ReviewCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("scanning trainer profile: %w", err)
	}
	return &p, nil
}

func (r *PostgresTrainerRepo) ListProfiles(ctx context.Context) ([]types.TrainerProfile, error) {
	rows, err := r.pgpool.Query(ctx,
		`SELECT `+trainerColumns+` FROM trainer_profiles ORDER BY rating DESC, review_count DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing trainer profiles: %w", err)
	}
	defer rows.Close()

	var profiles []types.TrainerProfile
	for rows.Next() {
		var p types.TrainerProfile
		if err := rows.Scan(&p.ID, &p.UserID, &p.Specializations, &p.Bio, &p.Certifications, &p.Experience,
			&p.Rating, &p.ReviewCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning trainer profile row: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *PostgresTrainerRepo) GetProfileByID(ctx context.Context, trainerID uuid.UUID) (*types.TrainerProfile, error) {
	row := r.pgpool.QueryRow(ctx,
		`SELECT `+trainerColumns+` FROM trainer_profiles WHERE id = $1`, trainerID)
	return scanTrainerProfile(row)
}

func (r *PostgresTrainerRepo) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*types.TrainerProfile, error) {
	row := r.pgpool.QueryRow(ctx,
		`SELECT `+trainerColumns+` FROM trainer_profiles WHERE user_id = $1`, userID)
	return scanTrainerProfile(row)
}

func (r *PostgresTrainerRepo) EnsureProfile(ctx context.Context, userID uuid.UUID) (*types.TrainerProfile, error) {
	row := r.pgpool.QueryRow(ctx, `
		INSERT INTO trainer_profiles (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = trainer_profiles.updated_at
		RETURNING `+trainerColumns, userID)
	return scanTrainerProfile(row)
}

func (r *PostgresTrainerRepo) UpdateProfile(ctx context.Context, trainerID uuid.UUID, params types.UpdateTrainerProfileParams) (*types.TrainerProfile, error) {
	ctx, span := otel.Tracer("TrainerRepo").Start(ctx, "UpdateProfile", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "trainer_profiles"),
	))
	defer span.End()

	row := r.pgpool.QueryRow(ctx, `
		UPDATE trainer_profiles
		SET specializations = COALESCE($2, specializations),
		    bio = COALESCE($3, bio),
		    certifications = COALESCE($4, certifications),
		    experience = COALESCE($5, experience),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+trainerColumns,
		trainerID, params.Specializations, params.Bio, params.Certifications, params.Experience)
	p, err := scanTrainerProfile(row)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return p, nil
}

func (r *PostgresTrainerRepo) ListRules(ctx context.Context, trainerID uuid.UUID) ([]types.AvailabilityRule, error) {
	rows, err := r.pgpool.Query(ctx, `
		SELECT id, trainer_id, weekday, start_minutes, end_minutes
		FROM availability_rules WHERE trainer_id = $1
		ORDER BY weekday ASC, start_minutes ASC`, trainerID)
	if err != nil {
		return nil, fmt.Errorf("listing availability rules: %w", err)
	}
	defer rows.Close()

	var rules []types.AvailabilityRule
	for rows.Next() {
		var rule types.AvailabilityRule
		if err := rows.Scan(&rule.ID, &rule.TrainerID, &rule.Weekday, &rule.StartMinutes, &rule.EndMinutes); err != nil {
			return nil, fmt.Errorf("scanning availability rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *PostgresTrainerRepo) ReplaceRules(ctx context.Context, trainerID uuid.UUID, rules []types.AvailabilityRule) error {
	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM availability_rules WHERE trainer_id = $1`, trainerID); err != nil {
		return fmt.Errorf("clearing availability rules: %w", err)
	}
	for _, rule := range rules {
		_, err := tx.Exec(ctx, `
			INSERT INTO availability_rules (trainer_id, weekday, start_minutes, end_minutes)
			VALUES ($1, $2, $3, $4)`,
			trainerID, int(rule.Weekday), rule.StartMinutes, rule.EndMinutes)
		if err != nil {
			return fmt.Errorf("inserting availability rule: %w", err)
		}
	}
	return tx.Commit(ctx)
}

func (r *PostgresTrainerRepo) ListOverridesForDate(ctx context.Context, trainerID uuid.UUID, date string) ([]types.AvailabilityOverride, error) {
	rows, err := r.pgpool.Query(ctx, `
		SELECT id, trainer_id, to_char(date, 'YYYY-MM-DD'), blocked, start_minutes, end_minutes
		FROM availability_overrides
		WHERE trainer_id = $1 AND date = $2
		ORDER BY start_minutes ASC`, trainerID, date)
	if err != nil {
		return nil, fmt.Errorf("listing availability overrides: %w", err)
	}
	defer rows.Close()

	var overrides []types.AvailabilityOverride
	for rows.Next() {
		var o types.AvailabilityOverride
		if err := rows.Scan(&o.ID, &o.TrainerID, &o.Date, &o.Blocked, &o.StartMinutes, &o.EndMinutes); err != nil {
			return nil, fmt.Errorf("scanning availability override: %w", err)
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

func (r *PostgresTrainerRepo) CreateOverride(ctx context.Context, override types.AvailabilityOverride) (*types.AvailabilityOverride, error) {
	row := r.pgpool.QueryRow(ctx, `
		INSERT INTO availability_overrides (trainer_id, date, blocked, start_minutes, end_minutes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, trainer_id, to_char(date, 'YYYY-MM-DD'), blocked, start_minutes, end_minutes`,
		override.TrainerID, override.Date, override.Blocked, override.StartMinutes, override.EndMinutes)

	var o types.AvailabilityOverride
	if err := row.Scan(&o.ID, &o.TrainerID, &o.Date, &o.Blocked, &o.StartMinutes, &o.EndMinutes); err != nil {
		return nil, fmt.Errorf("creating availability override: %w", err)
	}
	return &o, nil
}

func (r *PostgresTrainerRepo) DeleteOverride(ctx context.Context, trainerID, overrideID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx,
		`DELETE FROM availability_overrides WHERE id = $1 AND trainer_id = $2`, overrideID, trainerID)
	if err != nil {
		return fmt.Errorf("deleting availability override: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresTrainerRepo) ListBookedIntervals(ctx context.Context, trainerID uuid.UUID, date string) ([]Interval, error) {
	ctx, span := otel.Tracer("TrainerRepo").Start(ctx, "ListBookedIntervals", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "bookings"),
	))
	defer span.End()

	rows, err := r.pgpool.Query(ctx, `
		SELECT start_minutes, duration_minutes
		FROM bookings
		WHERE trainer_id = $1 AND date = $2 AND status IN ('pending', 'confirmed')
		ORDER BY start_minutes ASC`, trainerID, date)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("listing booked intervals: %w", err)
	}
	defer rows.Close()

	var intervals []Interval
	for rows.Next() {
		var start, duration int
		if err := rows.Scan(&start, &duration); err != nil {
			return nil, fmt.Errorf("scanning booked interval: %w", err)
		}
		intervals = append(intervals, Interval{StartMinutes: start, EndMinutes: start + duration})
	}
	return intervals, rows.Err()
}
