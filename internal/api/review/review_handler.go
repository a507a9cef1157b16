package review

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	appMiddleware "github.com/gritfit/gritfit-api/app/middleware"
	"github.com/gritfit/gritfit-api/internal/api"
	"github.com/gritfit/gritfit-api/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	CreateReview(w http.ResponseWriter, r *http.Request)
	ListTrainerReviews(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	reviewService ReviewService
	logger        *slog.Logger
}

func NewHandlerImpl(reviewService ReviewService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		reviewService: reviewService,
		logger:        logger,
	}
}

// CreateReview godoc
// @Summary      Review a Session
// @Description  Records a review for the user's own completed booking. One per booking.
// @Tags         Reviews
// @Accept       json
// @Produce      json
// @Param        body body types.CreateReviewParams true "Review"
// @Success      201 {object} types.Review "Created"
// @Failure      409 {object} types.Response "Already reviewed or not completed"
// @Security     BearerAuth
// @Router       /reviews [post]
func (h *HandlerImpl) CreateReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "CreateReview"))

	userIDStr, ok := appMiddleware.GetUserIDFromContext(ctx)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var params types.CreateReviewParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	review, err := h.reviewService.CreateReview(ctx, userID, params)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrValidation):
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "Booking not found")
		case errors.Is(err, types.ErrForbidden):
			api.ErrorResponse(w, r, http.StatusForbidden, err.Error())
		case errors.Is(err, types.ErrConflict):
			api.ErrorResponse(w, r, http.StatusConflict, err.Error())
		default:
			l.ErrorContext(ctx, "Failed to create review", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to create review")
		}
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, review)
}

// ListTrainerReviews godoc
// @Summary      List Trainer Reviews
// @Tags         Reviews
// @Produce      json
// @Param        trainerID path string true "Trainer profile ID"
// @Success      200 {array} types.Review "Reviews"
// @Router       /trainers/{trainerID}/reviews [get]
func (h *HandlerImpl) ListTrainerReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "ListTrainerReviews"))

	trainerID, err := uuid.Parse(chi.URLParam(r, "trainerID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid trainer ID")
		return
	}

	reviews, err := h.reviewService.ListTrainerReviews(ctx, trainerID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list reviews", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list reviews")
		return
	}
	if reviews == nil {
		reviews = []types.Review{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, reviews)
}
