package booking

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

var _ BookingRepo = (*PostgresBookingRepo)(nil)

// BookingRepo defines the contract for booking persistence.
type BookingRepo interface {
	Create(ctx context.Context, userID uuid.UUID, params types.CreateBookingParams, status types.BookingStatus) (*types.Booking, error)
	// UpsertPaid records a booking paid through checkout, keyed on the
	// payment session so webhook redelivery never duplicates rows.
	UpsertPaid(ctx context.Context, params types.PaidBookingParams) (*types.Booking, error)
	GetByID(ctx context.Context, bookingID uuid.UUID) (*types.Booking, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]types.Booking, error)
	ListForTrainer(ctx context.Context, trainerID uuid.UUID, date string) ([]types.Booking, error)
	// HasOverlap reports whether any pending or confirmed booking for the
	// trainer intersects [startMinutes, startMinutes+duration) on the date.
	HasOverlap(ctx context.Context, trainerID uuid.UUID, date string, startMinutes, durationMinutes int) (bool, error)
	Cancel(ctx context.Context, bookingID uuid.UUID, reason string, actor types.CancelActor) error
	UpdateStatus(ctx context.Context, bookingID uuid.UUID, status types.BookingStatus) error
	// CompleteElapsed flips confirmed bookings whose end instant has passed
	// to completed and reports how many rows changed.
	CompleteElapsed(ctx context.Context, date string, nowMinutes int) (int64, error)
}

type PostgresBookingRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresBookingRepo(pgxpool *pgxpool.Pool, logger *slog.Logger) *PostgresBookingRepo {
	return &PostgresBookingRepo{
		logger: logger,
		pgpool: pgxpool,
	}
}

const bookingColumns = `id, user_id, trainer_id, session_type, to_char(date, 'YYYY-MM-DD'), start_minutes,
	duration_minutes, status, payment_session_id, total_amount_cents, notes,
	cancellation_reason, cancelled_by, created_at, updated_at`

func scanBooking(row pgx.Row) (*types.Booking, error) {
	var b types.Booking
	err := row.Scan(&b.ID, &b.UserID, &b.TrainerID, &b.SessionType, &b.Date, &b.StartMinutes,
		&b.DurationMinutes, &b.Status, &b.PaymentSessionID, &b.TotalAmountCents, &b.Notes,
		&b.CancellationReason, &b.CancelledBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("scanning booking: %w", err)
	}
	return &b, nil
}

func (r *PostgresBookingRepo) Create(ctx context.Context, userID uuid.UUID, params types.CreateBookingParams, status types.BookingStatus) (*types.Booking, error) {
	ctx, span := otel.Tracer("BookingRepo").Start(ctx, "Create", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "bookings"),
	))
	defer span.End()

	row := r.pgpool.QueryRow(ctx, `
		INSERT INTO bookings (user_id, trainer_id, session_type, date, start_minutes, duration_minutes, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+bookingColumns,
		userID, params.TrainerID, params.SessionType, params.Date, params.StartMinutes,
		params.DurationMinutes, status, params.Notes)
	b, err := scanBooking(row)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("creating booking: %w", err)
	}
	return b, nil
}

func (r *PostgresBookingRepo) UpsertPaid(ctx context.Context, params types.PaidBookingParams) (*types.Booking, error) {
	ctx, span := otel.Tracer("BookingRepo").Start(ctx, "UpsertPaid", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "bookings"),
	))
	defer span.End()

	row := r.pgpool.QueryRow(ctx, `
		INSERT INTO bookings (user_id, trainer_id, session_type, date, start_minutes, duration_minutes,
			status, payment_session_id, total_amount_cents, notes)
		VALUES ($1, $2, $3, $4, $5, $6, 'confirmed', $7, $8, $9)
		ON CONFLICT (payment_session_id) DO UPDATE
		SET status = 'confirmed',
		    total_amount_cents = EXCLUDED.total_amount_cents,
		    updated_at = now()
		RETURNING `+bookingColumns,
		params.UserID, params.TrainerID, params.SessionType, params.Date, params.StartMinutes,
		params.DurationMinutes, params.PaymentSessionID, params.TotalAmountCents, params.Notes)
	b, err := scanBooking(row)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("upserting paid booking: %w", err)
	}
	return b, nil
}

func (r *PostgresBookingRepo) GetByID(ctx context.Context, bookingID uuid.UUID) (*types.Booking, error) {
	row := r.pgpool.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, bookingID)
	return scanBooking(row)
}

func (r *PostgresBookingRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]types.Booking, error) {
	rows, err := r.pgpool.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE user_id = $1 ORDER BY date DESC, start_minutes DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("listing user bookings: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r *PostgresBookingRepo) ListForTrainer(ctx context.Context, trainerID uuid.UUID, date string) ([]types.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE trainer_id = $1`
	args := []interface{}{trainerID}
	if date != "" {
		query += ` AND date = $2`
		args = append(args, date)
	}
	query += ` ORDER BY date ASC, start_minutes ASC`

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing trainer bookings: %w", err)
	}
	defer rows.Close()
	return collectBookings(rows)
}

func collectBookings(rows pgx.Rows) ([]types.Booking, error) {
	var bookings []types.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func (r *PostgresBookingRepo) HasOverlap(ctx context.Context, trainerID uuid.UUID, date string, startMinutes, durationMinutes int) (bool, error) {
	var exists bool
	err := r.pgpool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE trainer_id = $1 AND date = $2
			  AND status IN ('pending', 'confirmed')
			  AND start_minutes < $3 + $4
			  AND start_minutes + duration_minutes > $3
		)`, trainerID, date, startMinutes, durationMinutes).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking booking overlap: %w", err)
	}
	return exists, nil
}

func (r *PostgresBookingRepo) Cancel(ctx context.Context, bookingID uuid.UUID, reason string, actor types.CancelActor) error {
	tag, err := r.pgpool.Exec(ctx, `
		UPDATE bookings
		SET status = 'cancelled', cancellation_reason = $2, cancelled_by = $3, updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'confirmed')`,
		bookingID, reason, actor)
	if err != nil {
		return fmt.Errorf("cancelling booking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresBookingRepo) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status types.BookingStatus) error {
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE bookings SET status = $2, updated_at = now() WHERE id = $1`, bookingID, status)
	if err != nil {
		return fmt.Errorf("updating booking status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresBookingRepo) CompleteElapsed(ctx context.Context, date string, nowMinutes int) (int64, error) {
	ctx, span := otel.Tracer("BookingRepo").Start(ctx, "CompleteElapsed", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "bookings"),
	))
	defer span.End()

	tag, err := r.pgpool.Exec(ctx, `
		UPDATE bookings SET status = 'completed', updated_at = now()
		WHERE status = 'confirmed'
		  AND (date < $1 OR (date = $1 AND start_minutes + duration_minutes <= $2))`,
		date, nowMinutes)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("completing elapsed bookings: %w", err)
	}
	return tag.RowsAffected(), nil
}
