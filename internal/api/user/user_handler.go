package user

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	svix "github.com/svix/svix-webhooks/go"

	appMiddleware "github.com/gritfit/gritfit-api/app/middleware"
	"github.com/gritfit/gritfit-api/internal/api"
	"github.com/gritfit/gritfit-api/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	ClerkWebhook(w http.ResponseWriter, r *http.Request)
	GetMe(w http.ResponseWriter, r *http.Request)
	ListUsers(w http.ResponseWriter, r *http.Request)
	UpdateUserRole(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	userService UserService
	webhook     *svix.Webhook
	logger      *slog.Logger
}

// NewHandlerImpl creates a new user HandlerImpl instance. The webhook secret
// is the shared svix signing secret configured in Clerk.
func NewHandlerImpl(userService UserService, clerkWebhookSecret string, logger *slog.Logger) (*HandlerImpl, error) {
	wh, err := svix.NewWebhook(clerkWebhookSecret)
	if err != nil {
		return nil, err
	}
	return &HandlerImpl{
		userService: userService,
		webhook:     wh,
		logger:      logger,
	}, nil
}

// ClerkWebhook godoc
// @Summary      Clerk Identity Webhook
// @Description  Verifies the svix signature and mirrors user.created/user.updated events locally.
// @Tags         Webhooks
// @Accept       json
// @Success      200 {object} types.Response "Processed"
// @Failure      400 {object} types.Response "Missing headers or invalid signature"
// @Failure      500 {object} types.Response "Sync failure"
// @Router       /clerk-webhook [post]
func (h *HandlerImpl) ClerkWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "ClerkWebhook"))

	if r.Header.Get("svix-id") == "" || r.Header.Get("svix-timestamp") == "" || r.Header.Get("svix-signature") == "" {
		l.WarnContext(ctx, "Missing svix headers")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Missing svix headers")
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		l.WarnContext(ctx, "Failed to read webhook body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.webhook.Verify(payload, r.Header); err != nil {
		l.WarnContext(ctx, "Webhook signature verification failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid webhook signature")
		return
	}

	var event types.ClerkEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		l.WarnContext(ctx, "Failed to decode clerk event", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Malformed event payload")
		return
	}

	switch event.Type {
	case "user.created", "user.updated":
		if _, err := h.userService.SyncFromClerk(ctx, event); err != nil {
			l.ErrorContext(ctx, "Failed to sync user", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to sync user")
			return
		}
	default:
		// Acknowledge unknown event types so the provider stops retrying
		l.DebugContext(ctx, "Ignoring clerk event", slog.String("type", event.Type))
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true})
}

// GetMe godoc
// @Summary      Get Current User
// @Description  Retrieves the authenticated user's record.
// @Tags         User
// @Produce      json
// @Success      200 {object} types.User "User"
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      404 {object} types.Response "User Not Found"
// @Security     BearerAuth
// @Router       /users/me [get]
func (h *HandlerImpl) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "GetMe"))

	userIDStr, ok := appMiddleware.GetUserIDFromContext(ctx)
	if !ok || userIDStr == "" {
		l.ErrorContext(ctx, "User ID not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID format")
		return
	}

	u, err := h.userService.GetUser(ctx, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get user", slog.Any("error", err))
		if errors.Is(err, types.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
		} else {
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to retrieve user")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, u)
}

// ListUsers returns all users. Admin only (gated at the route level).
func (h *HandlerImpl) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "ListUsers"))

	users, err := h.userService.ListUsers(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list users", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list users")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, users)
}

// UpdateUserRole changes a user's role. Admin only (gated at the route level).
func (h *HandlerImpl) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "UpdateUserRole"))

	userID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID format")
		return
	}

	var body struct {
		Role types.UserRole `json:"role"`
	}
	if err := api.DecodeJSONBody(w, r, &body); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.userService.UpdateUserRole(ctx, userID, body.Role); err != nil {
		l.ErrorContext(ctx, "Failed to update role", slog.Any("error", err))
		switch {
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "User not found")
		case errors.Is(err, types.ErrValidation):
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		default:
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to update role")
		}
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Message: "Role updated"})
}
