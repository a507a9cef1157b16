package booking

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
	CreateBooking(w http.ResponseWriter, r *http.Request)
	GetBooking(w http.ResponseWriter, r *http.Request)
	ListMyBookings(w http.ResponseWriter, r *http.Request)
	ListTrainerBookings(w http.ResponseWriter, r *http.Request)
	CancelBooking(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	bookingService BookingService
	logger         *slog.Logger
}

func NewHandlerImpl(bookingService BookingService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		bookingService: bookingService,
		logger:         logger,
	}
}

// CreateBooking godoc
// @Summary      Book a Session
// @Description  Books a session covered by the user's active membership. One-off
// @Description  paid sessions go through checkout instead.
// @Tags         Bookings
// @Accept       json
// @Produce      json
// @Param        body body types.CreateBookingParams true "Booking details"
// @Success      201 {object} types.Booking "Created"
// @Failure      403 {object} types.Response "No active membership"
// @Failure      409 {object} types.Response "Slot taken"
// @Security     BearerAuth
// @Router       /bookings [post]
func (h *HandlerImpl) CreateBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "CreateBooking"))

	userID, ok := requester(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var params types.CreateBookingParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	b, err := h.bookingService.CreateMembershipBooking(ctx, userID, params)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrValidation):
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, types.ErrForbidden):
			api.ErrorResponse(w, r, http.StatusForbidden, err.Error())
		case errors.Is(err, types.ErrConflict):
			api.ErrorResponse(w, r, http.StatusConflict, err.Error())
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "Trainer not found")
		default:
			l.ErrorContext(ctx, "Failed to create booking", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to create booking")
		}
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, b)
}

// GetBooking godoc
// @Summary      Get Booking
// @Tags         Bookings
// @Produce      json
// @Param        bookingID path string true "Booking ID"
// @Success      200 {object} types.Booking "Booking"
// @Failure      403 {object} types.Response "Not yours"
// @Failure      404 {object} types.Response "Not found"
// @Security     BearerAuth
// @Router       /bookings/{bookingID} [get]
func (h *HandlerImpl) GetBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GetBooking"))

	userID, ok := requester(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	bookingID, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid booking ID")
		return
	}

	b, err := h.bookingService.GetBooking(ctx, userID, requesterRole(r), bookingID)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "Booking not found")
		case errors.Is(err, types.ErrForbidden):
			api.ErrorResponse(w, r, http.StatusForbidden, "You cannot view this booking")
		default:
			l.ErrorContext(ctx, "Failed to get booking", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve booking")
		}
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, b)
}

// ListMyBookings godoc
// @Summary      List My Bookings
// @Tags         Bookings
// @Produce      json
// @Success      200 {array} types.Booking "Bookings"
// @Security     BearerAuth
// @Router       /bookings [get]
func (h *HandlerImpl) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "ListMyBookings"))

	userID, ok := requester(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	bookings, err := h.bookingService.ListMyBookings(ctx, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list bookings", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list bookings")
		return
	}
	if bookings == nil {
		bookings = []types.Booking{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, bookings)
}

// ListTrainerBookings godoc
// @Summary      List Sessions on My Calendar
// @Description  Lists the authenticated trainer's bookings, optionally for one date.
// @Tags         Bookings
// @Produce      json
// @Param        date query string false "Date (YYYY-MM-DD)"
// @Success      200 {array} types.Booking "Bookings"
// @Security     BearerAuth
// @Router       /trainers/me/bookings [get]
func (h *HandlerImpl) ListTrainerBookings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "ListTrainerBookings"))

	userID, ok := requester(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	bookings, err := h.bookingService.ListTrainerBookings(ctx, userID, r.URL.Query().Get("date"))
	if err != nil {
		switch {
		case errors.Is(err, types.ErrValidation):
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, types.ErrNotFound):
			api.WriteJSONResponse(w, r, http.StatusOK, []types.Booking{})
		default:
			l.ErrorContext(ctx, "Failed to list trainer bookings", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list bookings")
		}
		return
	}
	if bookings == nil {
		bookings = []types.Booking{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, bookings)
}

// CancelBooking godoc
// @Summary      Cancel Booking
// @Description  Cancels a pending or confirmed future booking with a reason.
// @Tags         Bookings
// @Accept       json
// @Produce      json
// @Param        bookingID path string true "Booking ID"
// @Param        body body types.CancelBookingParams true "Cancellation reason"
// @Success      200 {object} types.Response "Cancelled"
// @Failure      409 {object} types.Response "Not cancellable"
// @Security     BearerAuth
// @Router       /bookings/{bookingID}/cancel [post]
func (h *HandlerImpl) CancelBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "CancelBooking"))

	userID, ok := requester(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	bookingID, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid booking ID")
		return
	}

	var params types.CancelBookingParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.bookingService.CancelBooking(ctx, userID, requesterRole(r), bookingID, params.Reason); err != nil {
		switch {
		case errors.Is(err, types.ErrValidation):
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "Booking not found")
		case errors.Is(err, types.ErrForbidden):
			api.ErrorResponse(w, r, http.StatusForbidden, "You cannot cancel this booking")
		case errors.Is(err, types.ErrConflict):
			api.ErrorResponse(w, r, http.StatusConflict, err.Error())
		default:
			l.ErrorContext(ctx, "Failed to cancel booking", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to cancel booking")
		}
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Message: "Booking cancelled"})
}

func requester(r *http.Request) (uuid.UUID, bool) {
	userIDStr, ok := appMiddleware.GetUserIDFromContext(r.Context())
	if !ok || userIDStr == "" {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

func requesterRole(r *http.Request) types.UserRole {
	role, ok := appMiddleware.GetUserRoleFromContext(r.Context())
	if !ok {
		return types.RoleUser
	}
	return types.UserRole(role)
}
