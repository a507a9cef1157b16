package membership

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
	ListPlans(w http.ResponseWriter, r *http.Request)
	GetMyMembership(w http.ResponseWriter, r *http.Request)
	CancelMyMembership(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	membershipService MembershipService
	logger            *slog.Logger
}

func NewHandlerImpl(membershipService MembershipService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		membershipService: membershipService,
		logger:            logger,
	}
}

// ListPlans godoc
// @Summary      List Membership Plans
// @Tags         Membership
// @Produce      json
// @Success      200 {array} types.MembershipPlan "Plans"
// @Router       /memberships/plans [get]
func (h *HandlerImpl) ListPlans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "ListPlans"))

	plans, err := h.membershipService.ListPlans(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list plans", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list plans")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, plans)
}

// GetMyMembership godoc
// @Summary      Get Current Membership
// @Description  Returns the authenticated user's membership, with expiry applied.
// @Tags         Membership
// @Produce      json
// @Success      200 {object} types.Membership "Membership"
// @Failure      404 {object} types.Response "No membership"
// @Security     BearerAuth
// @Router       /memberships/me [get]
func (h *HandlerImpl) GetMyMembership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GetMyMembership"))

	userID, ok := requesterID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	m, err := h.membershipService.GetUserMembership(ctx, userID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "No membership found")
			return
		}
		l.ErrorContext(ctx, "Failed to get membership", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve membership")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, m)
}

// CancelMyMembership godoc
// @Summary      Cancel Membership
// @Description  Flags the membership to lapse at the end of the billing period.
// @Tags         Membership
// @Produce      json
// @Success      200 {object} types.Response "Flagged"
// @Failure      404 {object} types.Response "No active membership"
// @Security     BearerAuth
// @Router       /memberships/me/cancel [post]
func (h *HandlerImpl) CancelMyMembership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "CancelMyMembership"))

	userID, ok := requesterID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.membershipService.CancelMembership(ctx, userID); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "No active membership to cancel")
			return
		}
		l.ErrorContext(ctx, "Failed to cancel membership", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to cancel membership")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{
		Success: true,
		Message: "Membership will lapse at the end of the current period",
	})
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
