package payments

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"

	"github.com/gritfit/gritfit-api/config"
	"github.com/gritfit/gritfit-api/internal/types"
)

type MockPlanCatalog struct {
	mock.Mock
}

func (m *MockPlanCatalog) GetPlanByType(ctx context.Context, planType types.PlanType) (*types.MembershipPlan, error) {
	args := m.Called(ctx, planType)
	var plan *types.MembershipPlan
	if args.Get(0) != nil {
		plan = args.Get(0).(*types.MembershipPlan)
	}
	return plan, args.Error(1)
}

type MockOrderBuilder struct {
	mock.Mock
}

func (m *MockOrderBuilder) GetCart(ctx context.Context, userID uuid.UUID) (*types.Cart, error) {
	args := m.Called(ctx, userID)
	var cart *types.Cart
	if args.Get(0) != nil {
		cart = args.Get(0).(*types.Cart)
	}
	return cart, args.Error(1)
}

func (m *MockOrderBuilder) GetItem(ctx context.Context, itemID uuid.UUID) (*types.MarketplaceItem, error) {
	args := m.Called(ctx, itemID)
	var item *types.MarketplaceItem
	if args.Get(0) != nil {
		item = args.Get(0).(*types.MarketplaceItem)
	}
	return item, args.Error(1)
}

func (m *MockOrderBuilder) BuildOrder(ctx context.Context, userID uuid.UUID, shipping types.ShippingAddress, stripeSessionID string) (*types.Order, error) {
	args := m.Called(ctx, userID, shipping, stripeSessionID)
	var order *types.Order
	if args.Get(0) != nil {
		order = args.Get(0).(*types.Order)
	}
	return order, args.Error(1)
}

type MockBookingValidator struct {
	mock.Mock
}

func (m *MockBookingValidator) ValidateRequest(ctx context.Context, params types.CreateBookingParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func newTestPaymentService(plans *MockPlanCatalog, orders *MockOrderBuilder, create SessionCreator) *PaymentServiceImpl {
	bookings := new(MockBookingValidator)
	bookings.On("ValidateRequest", mock.Anything, mock.Anything).Return(nil).Maybe()
	return newTestPaymentServiceWithBookings(plans, orders, bookings, create)
}

func newTestPaymentServiceWithBookings(plans *MockPlanCatalog, orders *MockOrderBuilder, bookings *MockBookingValidator, create SessionCreator) *PaymentServiceImpl {
	cfg := config.StripeConfig{
		SuccessURL: "https://gritfit.test/success",
		CancelURL:  "https://gritfit.test/cancel",
	}
	svc := NewPaymentService(cfg, plans, orders, bookings, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.createSession = create
	return svc
}

func testShipping() types.ShippingAddress {
	return types.ShippingAddress{
		Line1:      "Rua das Flores 12",
		City:       "Porto",
		PostalCode: "4000-001",
		Country:    "PT",
	}
}

func TestCreateMembershipCheckout_UsesPlanPrice(t *testing.T) {
	plans := new(MockPlanCatalog)
	userID := uuid.New()
	plans.On("GetPlanByType", mock.Anything, types.PlanPremium).
		Return(&types.MembershipPlan{Type: types.PlanPremium, StripePriceID: "price_premium_monthly"}, nil).Once()

	var captured *stripe.CheckoutSessionParams
	svc := newTestPaymentService(plans, new(MockOrderBuilder), func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		captured = params
		return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/cs_test_1"}, nil
	})

	url, err := svc.CreateMembershipCheckout(context.Background(), userID, types.PlanPremium)

	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/cs_test_1", url)
	require.NotNil(t, captured)
	require.Len(t, captured.LineItems, 1)
	assert.Equal(t, "price_premium_monthly", *captured.LineItems[0].Price)
	assert.Equal(t, string(stripe.CheckoutSessionModeSubscription), *captured.Mode)
	assert.Equal(t, "membership", captured.Metadata["kind"])
	assert.Equal(t, userID.String(), captured.Metadata["user_id"])
	require.NotNil(t, captured.SubscriptionData)
	assert.Equal(t, userID.String(), captured.SubscriptionData.Metadata["user_id"])
	assert.Equal(t, "premium", captured.SubscriptionData.Metadata["plan_type"])
}

func TestCreateBookingCheckout_PricesByDuration(t *testing.T) {
	var captured *stripe.CheckoutSessionParams
	svc := newTestPaymentService(new(MockPlanCatalog), new(MockOrderBuilder), func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		captured = params
		return &stripe.CheckoutSession{ID: "cs_test_2", URL: "https://checkout.stripe.com/cs_test_2"}, nil
	})

	_, err := svc.CreateBookingCheckout(context.Background(), uuid.New(), types.CreateBookingParams{
		TrainerID:       uuid.New(),
		SessionType:     types.SessionPersonalTraining,
		Date:            "2025-06-11",
		StartMinutes:    540,
		DurationMinutes: 90,
	})

	require.NoError(t, err)
	require.NotNil(t, captured)
	require.Len(t, captured.LineItems, 1)
	assert.Equal(t, int64(9000), *captured.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, "booking", captured.Metadata["kind"])
	assert.Equal(t, "540", captured.Metadata["start_minutes"])
	assert.Equal(t, "90", captured.Metadata["duration_minutes"])
}

func TestCreateBookingCheckout_RejectsBadDuration(t *testing.T) {
	svc := newTestPaymentService(new(MockPlanCatalog), new(MockOrderBuilder), func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		t.Fatal("session must not be created")
		return nil, nil
	})

	_, err := svc.CreateBookingCheckout(context.Background(), uuid.New(), types.CreateBookingParams{
		TrainerID:       uuid.New(),
		SessionType:     types.SessionPersonalTraining,
		Date:            "2025-06-11",
		DurationMinutes: 15,
	})

	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestCreateBookingCheckout_RejectsUnbookableSlot(t *testing.T) {
	// An invalid or taken slot must never reach the payment provider.
	bookings := new(MockBookingValidator)
	params := types.CreateBookingParams{
		TrainerID:       uuid.New(),
		SessionType:     types.SessionPersonalTraining,
		Date:            "2025-06-11",
		StartMinutes:    540,
		DurationMinutes: 60,
	}
	bookings.On("ValidateRequest", mock.Anything, params).Return(types.ErrConflict).Once()

	svc := newTestPaymentServiceWithBookings(new(MockPlanCatalog), new(MockOrderBuilder), bookings, func(p *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		t.Fatal("session must not be created")
		return nil, nil
	})

	_, err := svc.CreateBookingCheckout(context.Background(), uuid.New(), params)

	assert.ErrorIs(t, err, types.ErrConflict)
	bookings.AssertExpectations(t)
}

func TestCreateCartCheckout_BindsOrderToSession(t *testing.T) {
	orders := new(MockOrderBuilder)
	userID := uuid.New()
	itemID := uuid.New()
	shipping := testShipping()

	orders.On("GetCart", mock.Anything, userID).Return(&types.Cart{
		Items: []types.CartItem{{ItemID: itemID, Quantity: 2, PriceCents: 1500}},
	}, nil).Once()
	orders.On("GetItem", mock.Anything, itemID).Return(&types.MarketplaceItem{Name: "Lifting Straps"}, nil).Once()
	orders.On("BuildOrder", mock.Anything, userID, shipping, "cs_test_3").Return(&types.Order{}, nil).Once()

	svc := newTestPaymentService(new(MockPlanCatalog), orders, func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		require.Len(t, params.LineItems, 1)
		assert.Equal(t, int64(1500), *params.LineItems[0].PriceData.UnitAmount)
		assert.Equal(t, int64(2), *params.LineItems[0].Quantity)
		assert.Equal(t, "Lifting Straps", *params.LineItems[0].PriceData.ProductData.Name)
		return &stripe.CheckoutSession{ID: "cs_test_3", URL: "https://checkout.stripe.com/cs_test_3"}, nil
	})

	url, err := svc.CreateCartCheckout(context.Background(), userID, shipping)

	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/cs_test_3", url)
	orders.AssertExpectations(t)
}

func TestCreateCartCheckout_EmptyCart(t *testing.T) {
	orders := new(MockOrderBuilder)
	userID := uuid.New()
	orders.On("GetCart", mock.Anything, userID).Return(&types.Cart{}, nil).Once()

	svc := newTestPaymentService(new(MockPlanCatalog), orders, func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		t.Fatal("session must not be created")
		return nil, nil
	})

	_, err := svc.CreateCartCheckout(context.Background(), userID, testShipping())

	assert.ErrorIs(t, err, types.ErrValidation)
	orders.AssertNotCalled(t, "BuildOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestFlagSubscriptionCancel_SetsCancelAtPeriodEnd(t *testing.T) {
	subs := &StripeSubscriptions{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		updateSubscription: func(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
			assert.Equal(t, "sub_123", id)
			require.NotNil(t, params.CancelAtPeriodEnd)
			assert.True(t, *params.CancelAtPeriodEnd)
			return &stripe.Subscription{ID: id}, nil
		},
	}

	err := subs.FlagSubscriptionCancel(context.Background(), "sub_123")

	require.NoError(t, err)
}

func TestFlagSubscriptionCancel_PropagatesProviderError(t *testing.T) {
	subs := &StripeSubscriptions{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		updateSubscription: func(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error) {
			return nil, assert.AnError
		},
	}

	err := subs.FlagSubscriptionCancel(context.Background(), "sub_999")

	assert.ErrorIs(t, err, assert.AnError)
}

func TestSessionPriceCents(t *testing.T) {
	price, err := sessionPriceCents(types.SessionGroupClass, 60)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), price)

	price, err = sessionPriceCents(types.SessionPersonalTraining, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), price)

	_, err = sessionPriceCents(types.SessionType("yoga"), 60)
	assert.ErrorIs(t, err, types.ErrValidation)

	_, err = sessionPriceCents(types.SessionPersonalTraining, 240)
	assert.ErrorIs(t, err, types.ErrValidation)
}
