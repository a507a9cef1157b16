package review

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/gritfit/gritfit-api/internal/types"
)

// BookingReader is the slice of the booking repository the review flow needs.
type BookingReader interface {
	GetByID(ctx context.Context, bookingID uuid.UUID) (*types.Booking, error)
}

var _ ReviewService = (*ReviewServiceImpl)(nil)

// ReviewService defines the business logic contract for session reviews.
type ReviewService interface {
	// CreateReview records a review for the user's own completed booking.
	// ErrForbidden when the booking belongs to someone else, ErrConflict
	// when the booking is not completed or already reviewed.
	CreateReview(ctx context.Context, userID uuid.UUID, params types.CreateReviewParams) (*types.Review, error)
	ListTrainerReviews(ctx context.Context, trainerID uuid.UUID) ([]types.Review, error)
}

type ReviewServiceImpl struct {
	logger   *slog.Logger
	repo     ReviewRepo
	bookings BookingReader
}

func NewReviewService(repo ReviewRepo, bookings BookingReader, logger *slog.Logger) *ReviewServiceImpl {
	return &ReviewServiceImpl{
		logger:   logger,
		repo:     repo,
		bookings: bookings,
	}
}

func (s *ReviewServiceImpl) CreateReview(ctx context.Context, userID uuid.UUID, params types.CreateReviewParams) (*types.Review, error) {
	l := s.logger.With(slog.String("method", "CreateReview"), slog.String("bookingID", params.BookingID.String()))

	if params.Rating < 1 || params.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", types.ErrValidation)
	}

	b, err := s.bookings.GetByID(ctx, params.BookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, fmt.Errorf("%w: you can only review your own sessions", types.ErrForbidden)
	}
	if b.Status != types.BookingCompleted {
		return nil, fmt.Errorf("%w: only completed sessions can be reviewed", types.ErrConflict)
	}

	review, err := s.repo.Create(ctx, userID, b.TrainerID, params)
	if err != nil {
		return nil, err
	}
	l.InfoContext(ctx, "Review created", slog.Int("rating", review.Rating))
	return review, nil
}

func (s *ReviewServiceImpl) ListTrainerReviews(ctx context.Context, trainerID uuid.UUID) ([]types.Review, error) {
	return s.repo.ListForTrainer(ctx, trainerID)
}
