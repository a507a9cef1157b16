package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/gritfit/gritfit-api/internal/types"
)

var _ ReviewRepo = (*PostgresReviewRepo)(nil)

// ReviewRepo defines the contract for review persistence.
type ReviewRepo interface {
	// Create inserts the review and refreshes the trainer's aggregate
	// rating in the same transaction. ErrConflict when the booking
	// already has one.
	Create(ctx context.Context, userID uuid.UUID, trainerID uuid.UUID, params types.CreateReviewParams) (*types.Review, error)
	ListForTrainer(ctx context.Context, trainerID uuid.UUID) ([]types.Review, error)
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*types.Review, error)
}

type PostgresReviewRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresReviewRepo(pgxpool *pgxpool.Pool, logger *slog.Logger) *PostgresReviewRepo {
	return &PostgresReviewRepo{
		logger: logger,
		pgpool: pgxpool,
	}
}

const uniqueViolation = "23505"

func (r *PostgresReviewRepo) Create(ctx context.Context, userID uuid.UUID, trainerID uuid.UUID, params types.CreateReviewParams) (*types.Review, error) {
	ctx, span := otel.Tracer("ReviewRepo").Start(ctx, "Create", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "reviews"),
	))
	defer span.End()

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var review types.Review
	err = tx.QueryRow(ctx, `
		INSERT INTO reviews (booking_id, user_id, trainer_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, booking_id, user_id, trainer_id, rating, comment, created_at`,
		params.BookingID, userID, trainerID, params.Rating, params.Comment).
		Scan(&review.ID, &review.BookingID, &review.UserID, &review.TrainerID,
			&review.Rating, &review.Comment, &review.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: booking already reviewed", types.ErrConflict)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("creating review: %w", err)
	}

	// Refresh the trainer aggregate from the source rows.
	_, err = tx.Exec(ctx, `
		UPDATE trainer_profiles
		SET rating = sub.avg_rating,
		    review_count = sub.cnt,
		    updated_at = now()
		FROM (
			SELECT ROUND(AVG(rating), 2) AS avg_rating, COUNT(*) AS cnt
			FROM reviews WHERE trainer_id = $1
		) sub
		WHERE trainer_profiles.id = $1`, trainerID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("refreshing trainer rating: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing review: %w", err)
	}
	return &review, nil
}

func (r *PostgresReviewRepo) ListForTrainer(ctx context.Context, trainerID uuid.UUID) ([]types.Review, error) {
	rows, err := r.pgpool.Query(ctx, `
		SELECT id, booking_id, user_id, trainer_id, rating, comment, created_at
		FROM reviews WHERE trainer_id = $1 ORDER BY created_at DESC`, trainerID)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	defer rows.Close()

	var reviews []types.Review
	for rows.Next() {
		var rev types.Review
		if err := rows.Scan(&rev.ID, &rev.BookingID, &rev.UserID, &rev.TrainerID,
			&rev.Rating, &rev.Comment, &rev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		reviews = append(reviews, rev)
	}
	return reviews, rows.Err()
}

func (r *PostgresReviewRepo) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*types.Review, error) {
	var rev types.Review
	err := r.pgpool.QueryRow(ctx, `
		SELECT id, booking_id, user_id, trainer_id, rating, comment, created_at
		FROM reviews WHERE booking_id = $1`, bookingID).
		Scan(&rev.ID, &rev.BookingID, &rev.UserID, &rev.TrainerID,
			&rev.Rating, &rev.Comment, &rev.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("fetching review: %w", err)
	}
	return &rev, nil
}
