package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/gritfit/gritfit-api/app/observability/metrics"
	"github.com/gritfit/gritfit-api/internal/types"
)

// MembershipChecker is the slice of the membership service the booking flow
// needs: just enough to gate membership-covered sessions.
type MembershipChecker interface {
	GetUserMembership(ctx context.Context, userID uuid.UUID) (*types.Membership, error)
}

var _ BookingService = (*BookingServiceImpl)(nil)

// BookingService defines the business logic contract for session bookings.
type BookingService interface {
	// CreateMembershipBooking books a session covered by an active
	// membership. ErrForbidden when the user has none, ErrConflict when
	// the slot is already taken.
	CreateMembershipBooking(ctx context.Context, userID uuid.UUID, params types.CreateBookingParams) (*types.Booking, error)
	// RecordPaidBooking upserts the booking confirmed by a completed
	// checkout session. Idempotent on the payment session ID.
	RecordPaidBooking(ctx context.Context, params types.PaidBookingParams) (*types.Booking, error)
	// ValidateRequest checks a booking request before money changes
	// hands: shape, future start, trainer existence and slot
	// availability. ErrConflict when the slot is taken.
	ValidateRequest(ctx context.Context, params types.CreateBookingParams) error
	GetBooking(ctx context.Context, requesterID uuid.UUID, requesterRole types.UserRole, bookingID uuid.UUID) (*types.Booking, error)
	ListMyBookings(ctx context.Context, userID uuid.UUID) ([]types.Booking, error)
	ListTrainerBookings(ctx context.Context, trainerUserID uuid.UUID, date string) ([]types.Booking, error)
	// CancelBooking cancels a pending or confirmed future booking,
	// recording the reason and who cancelled.
	CancelBooking(ctx context.Context, requesterID uuid.UUID, requesterRole types.UserRole, bookingID uuid.UUID, reason string) error
	ConfirmBooking(ctx context.Context, bookingID uuid.UUID) error
	// CompleteElapsed runs the completion sweep, flipping confirmed
	// bookings whose end has passed.
	CompleteElapsed(ctx context.Context, now time.Time) (int64, error)
}

// TrainerResolver resolves a trainer-role user to their trainer profile.
type TrainerResolver interface {
	GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*types.TrainerProfile, error)
	GetProfileByID(ctx context.Context, trainerID uuid.UUID) (*types.TrainerProfile, error)
}

type BookingServiceImpl struct {
	logger      *slog.Logger
	repo        BookingRepo
	memberships MembershipChecker
	trainers    TrainerResolver
	location    *time.Location
	now         func() time.Time
}

func NewBookingService(repo BookingRepo, memberships MembershipChecker, trainers TrainerResolver, logger *slog.Logger) *BookingServiceImpl {
	return &BookingServiceImpl{
		logger:      logger,
		repo:        repo,
		memberships: memberships,
		trainers:    trainers,
		location:    time.UTC,
		now:         time.Now,
	}
}

const (
	minSessionMinutes = 30
	maxSessionMinutes = 180
)

func (s *BookingServiceImpl) CreateMembershipBooking(ctx context.Context, userID uuid.UUID, params types.CreateBookingParams) (*types.Booking, error) {
	l := s.logger.With(slog.String("method", "CreateMembershipBooking"), slog.String("userID", userID.String()))

	if err := s.validateParams(params); err != nil {
		return nil, err
	}

	m, err := s.memberships.GetUserMembership(ctx, userID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, fmt.Errorf("%w: an active membership is required to book sessions", types.ErrForbidden)
		}
		return nil, fmt.Errorf("checking membership: %w", err)
	}
	if !m.IsActive(s.now()) {
		return nil, fmt.Errorf("%w: an active membership is required to book sessions", types.ErrForbidden)
	}

	if err := s.ensureSlotOpen(ctx, params); err != nil {
		return nil, err
	}

	b, err := s.repo.Create(ctx, userID, params, types.BookingConfirmed)
	if err != nil {
		return nil, err
	}

	metrics.Get().BookingsCreatedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("path", "membership")))
	l.InfoContext(ctx, "Booking created", slog.String("bookingID", b.ID.String()))
	return b, nil
}

func (s *BookingServiceImpl) RecordPaidBooking(ctx context.Context, params types.PaidBookingParams) (*types.Booking, error) {
	l := s.logger.With(slog.String("method", "RecordPaidBooking"),
		slog.String("payment_session_id", params.PaymentSessionID))

	if params.PaymentSessionID == "" {
		return nil, fmt.Errorf("%w: missing payment session reference", types.ErrValidation)
	}
	// The customer already paid for this slot. Shape checks only: a
	// confirmation delivered after the session's start instant must
	// still land.
	if err := s.validateShape(params.CreateBookingParams); err != nil {
		return nil, err
	}

	b, err := s.repo.UpsertPaid(ctx, params)
	if err != nil {
		return nil, err
	}
	metrics.Get().BookingsCreatedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("path", "paid")))
	l.InfoContext(ctx, "Paid booking recorded", slog.String("bookingID", b.ID.String()))
	return b, nil
}

func (s *BookingServiceImpl) ValidateRequest(ctx context.Context, params types.CreateBookingParams) error {
	if err := s.validateParams(params); err != nil {
		return err
	}
	return s.ensureSlotOpen(ctx, params)
}

func (s *BookingServiceImpl) ensureSlotOpen(ctx context.Context, params types.CreateBookingParams) error {
	if _, err := s.trainers.GetProfileByID(ctx, params.TrainerID); err != nil {
		return err
	}
	taken, err := s.repo.HasOverlap(ctx, params.TrainerID, params.Date, params.StartMinutes, params.DurationMinutes)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: slot is no longer available", types.ErrConflict)
	}
	return nil
}

func (s *BookingServiceImpl) GetBooking(ctx context.Context, requesterID uuid.UUID, requesterRole types.UserRole, bookingID uuid.UUID) (*types.Booking, error) {
	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, requesterID, requesterRole, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BookingServiceImpl) ListMyBookings(ctx context.Context, userID uuid.UUID) ([]types.Booking, error) {
	return s.repo.ListForUser(ctx, userID)
}

func (s *BookingServiceImpl) ListTrainerBookings(ctx context.Context, trainerUserID uuid.UUID, date string) ([]types.Booking, error) {
	profile, err := s.trainers.GetProfileByUserID(ctx, trainerUserID)
	if err != nil {
		return nil, err
	}
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return nil, fmt.Errorf("%w: invalid date", types.ErrValidation)
		}
	}
	return s.repo.ListForTrainer(ctx, profile.ID, date)
}

func (s *BookingServiceImpl) CancelBooking(ctx context.Context, requesterID uuid.UUID, requesterRole types.UserRole, bookingID uuid.UUID, reason string) error {
	l := s.logger.With(slog.String("method", "CancelBooking"), slog.String("bookingID", bookingID.String()))

	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("%w: a cancellation reason is required", types.ErrValidation)
	}

	b, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, requesterID, requesterRole, b); err != nil {
		return err
	}
	if b.Status != types.BookingPending && b.Status != types.BookingConfirmed {
		return fmt.Errorf("%w: only pending or confirmed bookings can be cancelled", types.ErrConflict)
	}
	start, err := b.StartTime(s.location)
	if err != nil {
		return err
	}
	if !start.After(s.now()) {
		return fmt.Errorf("%w: past bookings cannot be cancelled", types.ErrConflict)
	}

	actor := types.CancelledByUser
	if requesterRole == types.RoleAdmin {
		actor = types.CancelledByAdmin
	}
	if err := s.repo.Cancel(ctx, bookingID, reason, actor); err != nil {
		return err
	}

	metrics.Get().BookingsCancelledTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("actor", string(actor))))
	l.InfoContext(ctx, "Booking cancelled", slog.String("actor", string(actor)))
	return nil
}

func (s *BookingServiceImpl) ConfirmBooking(ctx context.Context, bookingID uuid.UUID) error {
	return s.repo.UpdateStatus(ctx, bookingID, types.BookingConfirmed)
}

func (s *BookingServiceImpl) CompleteElapsed(ctx context.Context, now time.Time) (int64, error) {
	local := now.In(s.location)
	date := local.Format("2006-01-02")
	nowMinutes := local.Hour()*60 + local.Minute()
	return s.repo.CompleteElapsed(ctx, date, nowMinutes)
}

// authorize allows the booking's owner, its trainer, and admins.
func (s *BookingServiceImpl) authorize(ctx context.Context, requesterID uuid.UUID, requesterRole types.UserRole, b *types.Booking) error {
	if requesterRole == types.RoleAdmin || b.UserID == requesterID {
		return nil
	}
	if requesterRole == types.RoleTrainer {
		profile, err := s.trainers.GetProfileByUserID(ctx, requesterID)
		if err == nil && profile.ID == b.TrainerID {
			return nil
		}
	}
	return types.ErrForbidden
}

func (s *BookingServiceImpl) validateParams(params types.CreateBookingParams) error {
	if err := s.validateShape(params); err != nil {
		return err
	}
	day, _ := time.ParseInLocation("2006-01-02", params.Date, s.location)
	start := day.Add(time.Duration(params.StartMinutes) * time.Minute)
	if !start.After(s.now()) {
		return fmt.Errorf("%w: bookings must start in the future", types.ErrValidation)
	}
	return nil
}

// validateShape checks the structure of a booking request without any
// clock comparison, so it stays true for sessions that have already
// started by the time a payment confirmation arrives.
func (s *BookingServiceImpl) validateShape(params types.CreateBookingParams) error {
	if params.TrainerID == uuid.Nil {
		return fmt.Errorf("%w: trainer is required", types.ErrValidation)
	}
	if params.SessionType != types.SessionPersonalTraining && params.SessionType != types.SessionGroupClass {
		return fmt.Errorf("%w: invalid session type", types.ErrValidation)
	}
	if params.DurationMinutes < minSessionMinutes || params.DurationMinutes > maxSessionMinutes {
		return fmt.Errorf("%w: duration must be between %d and %d minutes", types.ErrValidation, minSessionMinutes, maxSessionMinutes)
	}
	if params.StartMinutes < 0 || params.StartMinutes+params.DurationMinutes > 24*60 {
		return fmt.Errorf("%w: session falls outside the day", types.ErrValidation)
	}
	if _, err := time.ParseInLocation("2006-01-02", params.Date, s.location); err != nil {
		return fmt.Errorf("%w: invalid date", types.ErrValidation)
	}
	return nil
}
