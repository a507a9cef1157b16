package payments

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79/webhook"

	appMiddleware "github.com/gritfit/gritfit-api/app/middleware"
	"github.com/gritfit/gritfit-api/internal/api"
	"github.com/gritfit/gritfit-api/internal/types"
)

const maxWebhookBodyBytes = 65536

type HandlerImpl struct {
	paymentService PaymentService
	processor      *WebhookProcessor
	deadLetters    DeadLetterRepo
	webhookSecret  string
	logger         *slog.Logger
}

func NewHandlerImpl(paymentService PaymentService, processor *WebhookProcessor, deadLetters DeadLetterRepo, webhookSecret string, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		paymentService: paymentService,
		processor:      processor,
		deadLetters:    deadLetters,
		webhookSecret:  webhookSecret,
		logger:         logger,
	}
}

type checkoutResponse struct {
	URL string `json:"url"`
}

type membershipCheckoutRequest struct {
	PlanType types.PlanType `json:"plan_type"`
}

type cartCheckoutRequest struct {
	ShippingAddress types.ShippingAddress `json:"shipping_address"`
}

// CreateMembershipCheckout godoc
// @Summary      Start Membership Checkout
// @Description  Creates a Stripe subscription checkout session for the requested plan.
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        body body membershipCheckoutRequest true "Plan selection"
// @Success      200 {object} checkoutResponse "Checkout URL"
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      404 {object} types.Response "Plan Not Found"
// @Security     BearerAuth
// @Router       /payments/checkout/membership [post]
func (h *HandlerImpl) CreateMembershipCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "CreateMembershipCheckout"))

	userID, ok := requesterID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req membershipCheckoutRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	url, err := h.paymentService.CreateMembershipCheckout(ctx, userID, req.PlanType)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrNotFound):
			api.ErrorResponse(w, r, http.StatusNotFound, "Plan not found")
		case errors.Is(err, types.ErrValidation):
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		default:
			l.ErrorContext(ctx, "Failed to create membership checkout", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to start checkout")
		}
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, checkoutResponse{URL: url})
}

// CreateBookingCheckout godoc
// @Summary      Start Booking Checkout
// @Description  Creates a one-off Stripe checkout session for a training session. The booking is recorded when payment completes.
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        body body types.CreateBookingParams true "Requested session"
// @Success      200 {object} checkoutResponse "Checkout URL"
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      401 {object} types.Response "Unauthorized"
// @Security     BearerAuth
// @Router       /payments/checkout/booking [post]
func (h *HandlerImpl) CreateBookingCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "CreateBookingCheckout"))

	userID, ok := requesterID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req types.CreateBookingParams
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	url, err := h.paymentService.CreateBookingCheckout(ctx, userID, req)
	if err != nil {
		if errors.Is(err, types.ErrValidation) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		l.ErrorContext(ctx, "Failed to create booking checkout", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to start checkout")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, checkoutResponse{URL: url})
}

// CreateCartCheckout godoc
// @Summary      Start Cart Checkout
// @Description  Creates a Stripe checkout session for the current cart and records a pending order bound to it.
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Param        body body cartCheckoutRequest true "Shipping address"
// @Success      200 {object} checkoutResponse "Checkout URL"
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      401 {object} types.Response "Unauthorized"
// @Security     BearerAuth
// @Router       /payments/checkout/cart [post]
func (h *HandlerImpl) CreateCartCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "CreateCartCheckout"))

	userID, ok := requesterID(r)
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req cartCheckoutRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	url, err := h.paymentService.CreateCartCheckout(ctx, userID, req.ShippingAddress)
	if err != nil {
		if errors.Is(err, types.ErrValidation) {
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
			return
		}
		l.ErrorContext(ctx, "Failed to create cart checkout", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to start checkout")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, checkoutResponse{URL: url})
}

// StripeWebhook godoc
// @Summary      Stripe Webhook
// @Description  Verifies the Stripe signature and applies subscription, invoice and checkout events. Failed events are dead-lettered and acknowledged.
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Success      200 {object} types.Response "Acknowledged"
// @Failure      400 {object} types.Response "Bad signature or payload"
// @Router       /stripe-webhook [post]
func (h *HandlerImpl) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "StripeWebhook"))

	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		l.WarnContext(ctx, "Failed to read webhook body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		l.WarnContext(ctx, "Webhook signature verification failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid webhook signature")
		return
	}

	if err := h.processor.Process(ctx, event); err != nil {
		l.ErrorContext(ctx, "Failed to process webhook event", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to process event")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true})
}

// ListDeadLetters godoc
// @Summary      List Webhook Dead Letters
// @Description  Returns recent webhook events that failed processing, newest first.
// @Tags         Payments
// @Produce      json
// @Param        limit query int false "Max rows (default 100)"
// @Success      200 {array} types.WebhookDeadLetter "Dead letters"
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      403 {object} types.Response "Forbidden"
// @Security     BearerAuth
// @Router       /admin/webhooks/dead-letters [get]
func (h *HandlerImpl) ListDeadLetters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("HandlerImpl", "ListDeadLetters"))

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	letters, err := h.deadLetters.List(ctx, limit)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list dead letters", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to list dead letters")
		return
	}
	if letters == nil {
		letters = []types.WebhookDeadLetter{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, letters)
}

func requesterID(r *http.Request) (uuid.UUID, bool) {
	raw, ok := appMiddleware.GetUserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
