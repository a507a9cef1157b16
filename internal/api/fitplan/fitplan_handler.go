package fitplan

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	appMiddleware "github.com/gritfit/gritfit-api/app/middleware"
	"github.com/gritfit/gritfit-api/internal/api"
	"github.com/gritfit/gritfit-api/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	GenerateProgram(w http.ResponseWriter, r *http.Request)
	GetActivePlan(w http.ResponseWriter, r *http.Request)
	ListMyPlans(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	fitplanService FitplanService
	logger         *slog.Logger
}

func NewHandlerImpl(fitplanService FitplanService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		fitplanService: fitplanService,
		logger:         logger,
	}
}

// GenerateProgram godoc
// @Summary      Generate Fitness Program
// @Description  Generates a personalized workout and diet plan. The new plan
// @Description  becomes the user's single active one.
// @Tags         Fitness Plans
// @Accept       json
// @Produce      json
// @Param        body body types.GenerateProgramRequest true "Profile inputs"
// @Success      201 {object} types.FitnessPlan "Generated plan"
// @Failure      500 {object} types.Response "Model output unusable"
// @Security     BearerAuth
// @Router       /vapi/generate-program [post]
func (h *HandlerImpl) GenerateProgram(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GenerateProgram"))

	userID, ok := requesterID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req types.GenerateProgramRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := h.fitplanService.GenerateProgram(ctx, userID, req)
	if err != nil {
		if errors.Is(err, types.ErrValidation) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		l.ErrorContext(ctx, "Failed to generate program", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to generate program")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, plan)
}

// GetActivePlan godoc
// @Summary      Get Active Plan
// @Tags         Fitness Plans
// @Produce      json
// @Success      200 {object} types.FitnessPlan "Active plan"
// @Failure      404 {object} types.Response "No active plan"
// @Security     BearerAuth
// @Router       /plans/active [get]
func (h *HandlerImpl) GetActivePlan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GetActivePlan"))

	userID, ok := requesterID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	plan, err := h.fitplanService.GetActivePlan(ctx, userID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "No active plan")
			return
		}
		l.ErrorContext(ctx, "Failed to get active plan", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve plan")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, plan)
}

// ListMyPlans godoc
// @Summary      List My Plans
// @Tags         Fitness Plans
// @Produce      json
// @Success      200 {array} types.FitnessPlan "Plans"
// @Security     BearerAuth
// @Router       /plans [get]
func (h *HandlerImpl) ListMyPlans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "ListMyPlans"))

	userID, ok := requesterID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	plans, err := h.fitplanService.ListMyPlans(ctx, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list plans", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list plans")
		return
	}
	if plans == nil {
		plans = []types.FitnessPlan{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, plans)
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
