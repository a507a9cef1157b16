package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/gritfit/gritfit-api/app/observability/metrics"
	"github.com/gritfit/gritfit-api/internal/types"
)

// SubscriptionApplier is the slice of the membership service the webhook
// processor drives.
type SubscriptionApplier interface {
	ApplySubscriptionEvent(ctx context.Context, params types.UpsertMembershipParams) (*types.Membership, error)
	SetStatusBySubscription(ctx context.Context, subscriptionID string, status types.MembershipStatus, periodStart, periodEnd int64) error
}

// PaidBookingRecorder records bookings paid through one-off checkout.
type PaidBookingRecorder interface {
	RecordPaidBooking(ctx context.Context, params types.PaidBookingParams) (*types.Booking, error)
}

// OrderSettler marks marketplace orders paid once checkout completes.
type OrderSettler interface {
	SettleOrderBySessionID(ctx context.Context, sessionID string) (*types.Order, error)
}

type eventHandler func(ctx context.Context, event stripe.Event) error

// WebhookProcessor routes verified Stripe events to the service that owns the
// corresponding fulfilment. Events whose handler fails land in the dead-letter
// table instead of being retried forever by Stripe.
type WebhookProcessor struct {
	logger      *slog.Logger
	memberships SubscriptionApplier
	bookings    PaidBookingRecorder
	orders      OrderSettler
	deadLetters DeadLetterRepo
	handlers    map[string]eventHandler
}

func NewWebhookProcessor(memberships SubscriptionApplier, bookings PaidBookingRecorder, orders OrderSettler, deadLetters DeadLetterRepo, logger *slog.Logger) *WebhookProcessor {
	p := &WebhookProcessor{
		logger:      logger,
		memberships: memberships,
		bookings:    bookings,
		orders:      orders,
		deadLetters: deadLetters,
	}
	p.handlers = map[string]eventHandler{
		"customer.subscription.created": p.handleSubscriptionChange,
		"customer.subscription.updated": p.handleSubscriptionChange,
		"customer.subscription.deleted": p.handleSubscriptionDeleted,
		"invoice.payment_succeeded":     p.handleInvoicePaymentSucceeded,
		"invoice.payment_failed":        p.handleInvoicePaymentFailed,
		"checkout.session.completed":    p.handleCheckoutCompleted,
	}
	return p
}

// Process dispatches one verified event. A nil return means the event is
// fully handled (or deliberately ignored) and Stripe should not redeliver.
func (p *WebhookProcessor) Process(ctx context.Context, event stripe.Event) error {
	l := p.logger.With(slog.String("method", "Process"),
		slog.String("event_id", event.ID), slog.String("event_type", string(event.Type)))

	handler, ok := p.handlers[string(event.Type)]
	if !ok {
		l.DebugContext(ctx, "Ignoring unhandled event type")
		metrics.Get().WebhookEventsTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("type", string(event.Type)),
			attribute.String("outcome", "ignored")))
		return nil
	}

	err := handler(ctx, event)
	outcome := "ok"
	if err != nil {
		outcome = "dead_letter"
		l.ErrorContext(ctx, "Webhook handler failed", slog.Any("error", err))
		if dlErr := p.deadLetters.Record(ctx, event.ID, string(event.Type), event.Data.Raw, err.Error()); dlErr != nil {
			l.ErrorContext(ctx, "Failed to record dead letter", slog.Any("error", dlErr))
			metrics.Get().WebhookEventsTotal.Add(ctx, 1, metric.WithAttributes(
				attribute.String("type", string(event.Type)),
				attribute.String("outcome", "error")))
			return dlErr
		}
		metrics.Get().WebhookDeadLettersTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String("type", string(event.Type))))
	}
	metrics.Get().WebhookEventsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", string(event.Type)),
		attribute.String("outcome", outcome)))
	return nil
}

func (p *WebhookProcessor) handleSubscriptionChange(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("parsing subscription payload: %w", err)
	}
	params, err := membershipParams(&sub)
	if err != nil {
		return err
	}
	_, err = p.memberships.ApplySubscriptionEvent(ctx, *params)
	return err
}

func (p *WebhookProcessor) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return fmt.Errorf("parsing subscription payload: %w", err)
	}
	return p.memberships.SetStatusBySubscription(ctx, sub.ID, types.MembershipCancelled, 0, 0)
}

func (p *WebhookProcessor) handleInvoicePaymentSucceeded(ctx context.Context, event stripe.Event) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return fmt.Errorf("parsing invoice payload: %w", err)
	}
	if inv.Subscription == nil {
		return nil
	}
	return p.memberships.SetStatusBySubscription(ctx, inv.Subscription.ID, types.MembershipActive,
		inv.PeriodStart*1000, inv.PeriodEnd*1000)
}

func (p *WebhookProcessor) handleInvoicePaymentFailed(ctx context.Context, event stripe.Event) error {
	var inv stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
		return fmt.Errorf("parsing invoice payload: %w", err)
	}
	if inv.Subscription == nil {
		return nil
	}
	return p.memberships.SetStatusBySubscription(ctx, inv.Subscription.ID, types.MembershipPending, 0, 0)
}

func (p *WebhookProcessor) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("parsing checkout session payload: %w", err)
	}

	switch sess.Metadata["kind"] {
	case "booking":
		params, err := paidBookingParams(&sess)
		if err != nil {
			return err
		}
		_, err = p.bookings.RecordPaidBooking(ctx, *params)
		return err
	case "cart":
		_, err := p.orders.SettleOrderBySessionID(ctx, sess.ID)
		return err
	case "membership":
		// Fulfilled by the customer.subscription.* events.
		return nil
	default:
		p.logger.WarnContext(ctx, "Checkout session without a known kind",
			slog.String("session_id", sess.ID))
		return nil
	}
}

// MapSubscriptionStatus folds Stripe's subscription lifecycle onto the three
// membership states the rest of the system reasons about.
func MapSubscriptionStatus(status stripe.SubscriptionStatus) types.MembershipStatus {
	switch status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		return types.MembershipActive
	case stripe.SubscriptionStatusCanceled:
		return types.MembershipCancelled
	default:
		return types.MembershipPending
	}
}

func membershipParams(sub *stripe.Subscription) (*types.UpsertMembershipParams, error) {
	userID, err := uuid.Parse(sub.Metadata["user_id"])
	if err != nil {
		return nil, fmt.Errorf("%w: subscription %s has no usable user_id metadata", types.ErrValidation, sub.ID)
	}
	planType := types.PlanType(sub.Metadata["plan_type"])
	if planType == "" {
		return nil, fmt.Errorf("%w: subscription %s has no plan_type metadata", types.ErrValidation, sub.ID)
	}

	params := &types.UpsertMembershipParams{
		UserID:               userID,
		Type:                 planType,
		Status:               MapSubscriptionStatus(sub.Status),
		StripeSubscriptionID: sub.ID,
		CurrentPeriodStart:   sub.CurrentPeriodStart * 1000,
		CurrentPeriodEnd:     sub.CurrentPeriodEnd * 1000,
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil && sub.Customer.ID != "" {
		params.StripeCustomerID = &sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		params.StripePriceID = &sub.Items.Data[0].Price.ID
	}
	return params, nil
}

func paidBookingParams(sess *stripe.CheckoutSession) (*types.PaidBookingParams, error) {
	userID, err := uuid.Parse(sess.Metadata["user_id"])
	if err != nil {
		return nil, fmt.Errorf("%w: session %s has no usable user_id metadata", types.ErrValidation, sess.ID)
	}
	trainerID, err := uuid.Parse(sess.Metadata["trainer_id"])
	if err != nil {
		return nil, fmt.Errorf("%w: session %s has no usable trainer_id metadata", types.ErrValidation, sess.ID)
	}
	startMinutes, err := strconv.Atoi(sess.Metadata["start_minutes"])
	if err != nil {
		return nil, fmt.Errorf("%w: session %s has invalid start_minutes metadata", types.ErrValidation, sess.ID)
	}
	durationMinutes, err := strconv.Atoi(sess.Metadata["duration_minutes"])
	if err != nil {
		return nil, fmt.Errorf("%w: session %s has invalid duration_minutes metadata", types.ErrValidation, sess.ID)
	}

	params := &types.PaidBookingParams{
		CreateBookingParams: types.CreateBookingParams{
			TrainerID:       trainerID,
			SessionType:     types.SessionType(sess.Metadata["session_type"]),
			Date:            sess.Metadata["date"],
			StartMinutes:    startMinutes,
			DurationMinutes: durationMinutes,
		},
		UserID:           userID,
		PaymentSessionID: sess.ID,
		TotalAmountCents: sess.AmountTotal,
	}
	if notes := sess.Metadata["notes"]; notes != "" {
		params.Notes = &notes
	}
	return params, nil
}
