package trainer

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	appMiddleware "github.com/gritfit/gritfit-api/app/middleware"
	"github.com/gritfit/gritfit-api/internal/api"
	"github.com/gritfit/gritfit-api/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	ListTrainers(w http.ResponseWriter, r *http.Request)
	GetTrainer(w http.ResponseWriter, r *http.Request)
	GetTrainerSlots(w http.ResponseWriter, r *http.Request)
	UpdateMyProfile(w http.ResponseWriter, r *http.Request)
	GetMyAvailability(w http.ResponseWriter, r *http.Request)
	SetMyAvailability(w http.ResponseWriter, r *http.Request)
	AddMyOverride(w http.ResponseWriter, r *http.Request)
	RemoveMyOverride(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	trainerService TrainerService
	logger         *slog.Logger
}

func NewHandlerImpl(trainerService TrainerService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		trainerService: trainerService,
		logger:         logger,
	}
}

// ListTrainers godoc
// @Summary      List Trainers
// @Tags         Trainers
// @Produce      json
// @Success      200 {array} types.TrainerProfile "Trainers"
// @Router       /trainers [get]
func (h *HandlerImpl) ListTrainers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "ListTrainers"))

	trainers, err := h.trainerService.ListTrainers(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list trainers", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list trainers")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, trainers)
}

// GetTrainer godoc
// @Summary      Get Trainer
// @Tags         Trainers
// @Produce      json
// @Param        trainerID path string true "Trainer profile ID"
// @Success      200 {object} types.TrainerProfile "Trainer"
// @Failure      404 {object} types.Response "Not found"
// @Router       /trainers/{trainerID} [get]
func (h *HandlerImpl) GetTrainer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GetTrainer"))

	trainerID, err := uuid.Parse(chi.URLParam(r, "trainerID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid trainer ID")
		return
	}

	trainer, err := h.trainerService.GetTrainer(ctx, trainerID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Trainer not found")
			return
		}
		l.ErrorContext(ctx, "Failed to get trainer", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve trainer")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, trainer)
}

// GetTrainerSlots godoc
// @Summary      Get Bookable Slots
// @Description  Derives the candidate slots for a trainer on one date. Slots
// @Description  overlapping a pending or confirmed booking are flagged unavailable.
// @Tags         Trainers
// @Produce      json
// @Param        trainerID path string true "Trainer profile ID"
// @Param        date query string true "Date (YYYY-MM-DD)"
// @Param        duration query int false "Slot duration in minutes (default 60)"
// @Success      200 {array} types.TimeSlot "Slots"
// @Router       /trainers/{trainerID}/slots [get]
func (h *HandlerImpl) GetTrainerSlots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GetTrainerSlots"))

	trainerID, err := uuid.Parse(chi.URLParam(r, "trainerID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid trainer ID")
		return
	}
	date := r.URL.Query().Get("date")
	duration := 60
	if raw := r.URL.Query().Get("duration"); raw != "" {
		duration, err = strconv.Atoi(raw)
		if err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid duration")
			return
		}
	}

	slots, err := h.trainerService.GetAvailableSlots(ctx, trainerID, date, duration)
	if err != nil {
		if errors.Is(err, types.ErrValidation) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		l.ErrorContext(ctx, "Failed to compute slots", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to compute slots")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, slots)
}

// UpdateMyProfile godoc
// @Summary      Update Trainer Profile
// @Tags         Trainers
// @Accept       json
// @Produce      json
// @Param        body body types.UpdateTrainerProfileParams true "Profile fields"
// @Success      200 {object} types.TrainerProfile "Updated profile"
// @Security     BearerAuth
// @Router       /trainers/me [put]
func (h *HandlerImpl) UpdateMyProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "UpdateMyProfile"))

	userID, ok := requesterID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var params types.UpdateTrainerProfileParams
	if err := api.DecodeJSONBody(w, r, &params); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.trainerService.UpdateMyProfile(ctx, userID, params)
	if err != nil {
		l.ErrorContext(ctx, "Failed to update trainer profile", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, profile)
}

// GetMyAvailability godoc
// @Summary      Get Weekly Availability
// @Tags         Trainers
// @Produce      json
// @Success      200 {array} types.AvailabilityRule "Rules"
// @Security     BearerAuth
// @Router       /trainers/me/availability [get]
func (h *HandlerImpl) GetMyAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GetMyAvailability"))

	userID, ok := requesterID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	rules, err := h.trainerService.GetWeeklyAvailability(ctx, userID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.WriteJSONResponse(w, r, http.StatusOK, []types.AvailabilityRule{})
			return
		}
		l.ErrorContext(ctx, "Failed to get availability", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve availability")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, rules)
}

// SetMyAvailability godoc
// @Summary      Replace Weekly Availability
// @Tags         Trainers
// @Accept       json
// @Produce      json
// @Param        body body []types.AvailabilityRule true "Weekly rules"
// @Success      200 {object} types.Response "Replaced"
// @Failure      400 {object} types.Response "Invalid windows"
// @Security     BearerAuth
// @Router       /trainers/me/availability [put]
func (h *HandlerImpl) SetMyAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "SetMyAvailability"))

	userID, ok := requesterID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var rules []types.AvailabilityRule
	if err := api.DecodeJSONBody(w, r, &rules); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.trainerService.SetWeeklyAvailability(ctx, userID, rules); err != nil {
		if errors.Is(err, types.ErrValidation) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		l.ErrorContext(ctx, "Failed to set availability", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to set availability")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Message: "Availability updated"})
}

// AddMyOverride godoc
// @Summary      Add Availability Override
// @Description  Replaces the weekly rules for one date, or blocks the day off.
// @Tags         Trainers
// @Accept       json
// @Produce      json
// @Param        body body types.AvailabilityOverride true "Override"
// @Success      201 {object} types.AvailabilityOverride "Created"
// @Security     BearerAuth
// @Router       /trainers/me/overrides [post]
func (h *HandlerImpl) AddMyOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "AddMyOverride"))

	userID, ok := requesterID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var override types.AvailabilityOverride
	if err := api.DecodeJSONBody(w, r, &override); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.trainerService.AddOverride(ctx, userID, override)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrValidation):
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "Trainer profile not found")
		default:
			l.ErrorContext(ctx, "Failed to add override", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to add override")
		}
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, created)
}

// RemoveMyOverride godoc
// @Summary      Remove Availability Override
// @Tags         Trainers
// @Produce      json
// @Param        overrideID path string true "Override ID"
// @Success      200 {object} types.Response "Removed"
// @Failure      404 {object} types.Response "Not found"
// @Security     BearerAuth
// @Router       /trainers/me/overrides/{overrideID} [delete]
func (h *HandlerImpl) RemoveMyOverride(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "RemoveMyOverride"))

	userID, ok := requesterID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	overrideID, err := uuid.Parse(chi.URLParam(r, "overrideID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid override ID")
		return
	}

	if err := h.trainerService.RemoveOverride(ctx, userID, overrideID); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "Override not found")
			return
		}
		l.ErrorContext(ctx, "Failed to remove override", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to remove override")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Message: "Override removed"})
}

func requesterID(r *http.Request) (uuid.UUID, bool) {
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
