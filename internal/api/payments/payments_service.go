package payments

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"

	"github.com/gritfit/gritfit-api/config"
	"github.com/gritfit/gritfit-api/internal/types"
)

// One-off session rates, cents per 30 minutes.
const (
	personalTrainingRate = 3000
	groupClassRate       = 1250
)

// PlanCatalog resolves membership plans to their Stripe price.
type PlanCatalog interface {
	GetPlanByType(ctx context.Context, planType types.PlanType) (*types.MembershipPlan, error)
}

// OrderBuilder is the slice of the shop service checkout needs.
type OrderBuilder interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*types.Cart, error)
	GetItem(ctx context.Context, itemID uuid.UUID) (*types.MarketplaceItem, error)
	BuildOrder(ctx context.Context, userID uuid.UUID, shipping types.ShippingAddress, stripeSessionID string) (*types.Order, error)
}

// BookingValidator vets a booking request before a checkout session is
// created for it, so customers cannot pay for invalid or taken slots.
type BookingValidator interface {
	ValidateRequest(ctx context.Context, params types.CreateBookingParams) error
}

// SessionCreator creates Stripe checkout sessions. Wrapped so tests can stub
// the Stripe API.
type SessionCreator func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)

var _ PaymentService = (*PaymentServiceImpl)(nil)

// PaymentService creates the checkout sessions that fund memberships,
// one-off training sessions and marketplace orders. Fulfilment happens only
// when the corresponding webhook event arrives.
type PaymentService interface {
	CreateMembershipCheckout(ctx context.Context, userID uuid.UUID, planType types.PlanType) (string, error)
	CreateBookingCheckout(ctx context.Context, userID uuid.UUID, params types.CreateBookingParams) (string, error)
	CreateCartCheckout(ctx context.Context, userID uuid.UUID, shipping types.ShippingAddress) (string, error)
}

type PaymentServiceImpl struct {
	logger        *slog.Logger
	cfg           config.StripeConfig
	plans         PlanCatalog
	orders        OrderBuilder
	bookings      BookingValidator
	createSession SessionCreator
}

func NewPaymentService(cfg config.StripeConfig, plans PlanCatalog, orders OrderBuilder, bookings BookingValidator, logger *slog.Logger) *PaymentServiceImpl {
	stripe.Key = cfg.SecretKey
	return &PaymentServiceImpl{
		logger:        logger,
		cfg:           cfg,
		plans:         plans,
		orders:        orders,
		bookings:      bookings,
		createSession: session.New,
	}
}

func (s *PaymentServiceImpl) CreateMembershipCheckout(ctx context.Context, userID uuid.UUID, planType types.PlanType) (string, error) {
	l := s.logger.With(slog.String("method", "CreateMembershipCheckout"), slog.String("userID", userID.String()))

	plan, err := s.plans.GetPlanByType(ctx, planType)
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(plan.StripePriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.cfg.SuccessURL),
		CancelURL:  stripe.String(s.cfg.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"user_id":   userID.String(),
				"plan_type": string(planType),
			},
		},
	}
	params.AddMetadata("kind", "membership")
	params.AddMetadata("user_id", userID.String())
	params.AddMetadata("plan_type", string(planType))

	sess, err := s.createSession(params)
	if err != nil {
		return "", fmt.Errorf("creating membership checkout session: %w", err)
	}
	l.InfoContext(ctx, "Membership checkout session created", slog.String("session_id", sess.ID))
	return sess.URL, nil
}

func (s *PaymentServiceImpl) CreateBookingCheckout(ctx context.Context, userID uuid.UUID, bp types.CreateBookingParams) (string, error) {
	l := s.logger.With(slog.String("method", "CreateBookingCheckout"), slog.String("userID", userID.String()))

	// Reject unbookable requests before taking money; the webhook path
	// only re-checks shape.
	if err := s.bookings.ValidateRequest(ctx, bp); err != nil {
		return "", err
	}
	amount, err := sessionPriceCents(bp.SessionType, bp.DurationMinutes)
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(stripe.CurrencyUSD)),
					UnitAmount: stripe.Int64(amount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("%d-minute %s session", bp.DurationMinutes, sessionLabel(bp.SessionType))),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(s.cfg.SuccessURL),
		CancelURL:  stripe.String(s.cfg.CancelURL),
	}
	params.AddMetadata("kind", "booking")
	params.AddMetadata("user_id", userID.String())
	params.AddMetadata("trainer_id", bp.TrainerID.String())
	params.AddMetadata("session_type", string(bp.SessionType))
	params.AddMetadata("date", bp.Date)
	params.AddMetadata("start_minutes", strconv.Itoa(bp.StartMinutes))
	params.AddMetadata("duration_minutes", strconv.Itoa(bp.DurationMinutes))
	if bp.Notes != nil {
		params.AddMetadata("notes", *bp.Notes)
	}

	sess, err := s.createSession(params)
	if err != nil {
		return "", fmt.Errorf("creating booking checkout session: %w", err)
	}
	l.InfoContext(ctx, "Booking checkout session created", slog.String("session_id", sess.ID))
	return sess.URL, nil
}

func (s *PaymentServiceImpl) CreateCartCheckout(ctx context.Context, userID uuid.UUID, shipping types.ShippingAddress) (string, error) {
	l := s.logger.With(slog.String("method", "CreateCartCheckout"), slog.String("userID", userID.String()))

	cart, err := s.orders.GetCart(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(cart.Items) == 0 {
		return "", fmt.Errorf("%w: cart is empty", types.ErrValidation)
	}

	var lineItems []*stripe.CheckoutSessionLineItemParams
	for _, ci := range cart.Items {
		name := ci.ItemID.String()
		if item, err := s.orders.GetItem(ctx, ci.ItemID); err == nil {
			name = item.Name
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(string(stripe.CurrencyUSD)),
				UnitAmount: stripe.Int64(ci.PriceCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(name),
				},
			},
			Quantity: stripe.Int64(int64(ci.Quantity)),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:  lineItems,
		SuccessURL: stripe.String(s.cfg.SuccessURL),
		CancelURL:  stripe.String(s.cfg.CancelURL),
	}
	params.AddMetadata("kind", "cart")
	params.AddMetadata("user_id", userID.String())

	sess, err := s.createSession(params)
	if err != nil {
		return "", fmt.Errorf("creating cart checkout session: %w", err)
	}

	// Pending order bound to the session; the webhook settles it.
	if _, err := s.orders.BuildOrder(ctx, userID, shipping, sess.ID); err != nil {
		return "", err
	}
	l.InfoContext(ctx, "Cart checkout session created", slog.String("session_id", sess.ID))
	return sess.URL, nil
}

func sessionPriceCents(sessionType types.SessionType, durationMinutes int) (int64, error) {
	if durationMinutes < 30 || durationMinutes > 180 {
		return 0, fmt.Errorf("%w: duration must be between 30 and 180 minutes", types.ErrValidation)
	}
	var rate int64
	switch sessionType {
	case types.SessionPersonalTraining:
		rate = personalTrainingRate
	case types.SessionGroupClass:
		rate = groupClassRate
	default:
		return 0, fmt.Errorf("%w: invalid session type", types.ErrValidation)
	}
	return rate * int64(durationMinutes) / 30, nil
}

func sessionLabel(sessionType types.SessionType) string {
	if sessionType == types.SessionGroupClass {
		return "group class"
	}
	return "personal training"
}
