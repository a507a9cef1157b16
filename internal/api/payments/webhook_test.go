package payments

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"

	"github.com/gritfit/gritfit-api/internal/types"
)

type MockSubscriptionApplier struct {
	mock.Mock
}

func (m *MockSubscriptionApplier) ApplySubscriptionEvent(ctx context.Context, params types.UpsertMembershipParams) (*types.Membership, error) {
	args := m.Called(ctx, params)
	var membership *types.Membership
	if args.Get(0) != nil {
		membership = args.Get(0).(*types.Membership)
	}
	return membership, args.Error(1)
}

func (m *MockSubscriptionApplier) SetStatusBySubscription(ctx context.Context, subscriptionID string, status types.MembershipStatus, periodStart, periodEnd int64) error {
	args := m.Called(ctx, subscriptionID, status, periodStart, periodEnd)
	return args.Error(0)
}

type MockPaidBookingRecorder struct {
	mock.Mock
}

func (m *MockPaidBookingRecorder) RecordPaidBooking(ctx context.Context, params types.PaidBookingParams) (*types.Booking, error) {
	args := m.Called(ctx, params)
	var booking *types.Booking
	if args.Get(0) != nil {
		booking = args.Get(0).(*types.Booking)
	}
	return booking, args.Error(1)
}

type MockOrderSettler struct {
	mock.Mock
}

func (m *MockOrderSettler) SettleOrderBySessionID(ctx context.Context, sessionID string) (*types.Order, error) {
	args := m.Called(ctx, sessionID)
	var order *types.Order
	if args.Get(0) != nil {
		order = args.Get(0).(*types.Order)
	}
	return order, args.Error(1)
}

type MockDeadLetterRepo struct {
	mock.Mock
}

func (m *MockDeadLetterRepo) Record(ctx context.Context, eventID, eventType string, payload []byte, handlerErr string) error {
	args := m.Called(ctx, eventID, eventType, payload, handlerErr)
	return args.Error(0)
}

func (m *MockDeadLetterRepo) List(ctx context.Context, limit int) ([]types.WebhookDeadLetter, error) {
	args := m.Called(ctx, limit)
	var letters []types.WebhookDeadLetter
	if args.Get(0) != nil {
		letters = args.Get(0).([]types.WebhookDeadLetter)
	}
	return letters, args.Error(1)
}

type processorMocks struct {
	memberships *MockSubscriptionApplier
	bookings    *MockPaidBookingRecorder
	orders      *MockOrderSettler
	deadLetters *MockDeadLetterRepo
}

func newTestProcessor() (*WebhookProcessor, processorMocks) {
	mocks := processorMocks{
		memberships: new(MockSubscriptionApplier),
		bookings:    new(MockPaidBookingRecorder),
		orders:      new(MockOrderSettler),
		deadLetters: new(MockDeadLetterRepo),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := NewWebhookProcessor(mocks.memberships, mocks.bookings, mocks.orders, mocks.deadLetters, logger)
	return p, mocks
}

func stripeEvent(id, eventType, raw string) stripe.Event {
	return stripe.Event{
		ID:   id,
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: json.RawMessage(raw)},
	}
}

func TestProcess_SubscriptionCreatedUpsertsMembership(t *testing.T) {
	p, mocks := newTestProcessor()
	userID := uuid.New()

	raw := `{
		"id": "sub_123",
		"status": "active",
		"cancel_at_period_end": false,
		"current_period_start": 1700000000,
		"current_period_end": 1702592000,
		"customer": "cus_789",
		"metadata": {"user_id": "` + userID.String() + `", "plan_type": "basic"},
		"items": {"data": [{"price": {"id": "price_basic_monthly"}}]}
	}`

	mocks.memberships.On("ApplySubscriptionEvent", mock.Anything, mock.MatchedBy(func(params types.UpsertMembershipParams) bool {
		return params.UserID == userID &&
			params.Type == types.PlanBasic &&
			params.Status == types.MembershipActive &&
			params.StripeSubscriptionID == "sub_123" &&
			params.CurrentPeriodStart == 1700000000000 &&
			params.CurrentPeriodEnd == 1702592000000 &&
			params.StripePriceID != nil && *params.StripePriceID == "price_basic_monthly"
	})).Return(&types.Membership{}, nil).Once()

	err := p.Process(context.Background(), stripeEvent("evt_1", "customer.subscription.created", raw))

	require.NoError(t, err)
	mocks.memberships.AssertExpectations(t)
}

func TestProcess_SubscriptionDeletedCancelsMembership(t *testing.T) {
	p, mocks := newTestProcessor()

	mocks.memberships.On("SetStatusBySubscription", mock.Anything, "sub_123",
		types.MembershipCancelled, int64(0), int64(0)).Return(nil).Once()

	err := p.Process(context.Background(), stripeEvent("evt_2", "customer.subscription.deleted", `{"id": "sub_123"}`))

	require.NoError(t, err)
	mocks.memberships.AssertExpectations(t)
}

func TestProcess_InvoicePaymentFailedMarksPending(t *testing.T) {
	p, mocks := newTestProcessor()

	mocks.memberships.On("SetStatusBySubscription", mock.Anything, "sub_123",
		types.MembershipPending, int64(0), int64(0)).Return(nil).Once()

	raw := `{"id": "in_1", "subscription": "sub_123"}`
	err := p.Process(context.Background(), stripeEvent("evt_3", "invoice.payment_failed", raw))

	require.NoError(t, err)
	mocks.memberships.AssertExpectations(t)
}

func TestProcess_InvoicePaymentSucceededRefreshesPeriod(t *testing.T) {
	p, mocks := newTestProcessor()

	mocks.memberships.On("SetStatusBySubscription", mock.Anything, "sub_123",
		types.MembershipActive, int64(1700000000000), int64(1702592000000)).Return(nil).Once()

	raw := `{"id": "in_2", "subscription": "sub_123", "period_start": 1700000000, "period_end": 1702592000}`
	err := p.Process(context.Background(), stripeEvent("evt_4", "invoice.payment_succeeded", raw))

	require.NoError(t, err)
	mocks.memberships.AssertExpectations(t)
}

func TestProcess_CheckoutCompletedBookingRecordsBooking(t *testing.T) {
	p, mocks := newTestProcessor()
	userID := uuid.New()
	trainerID := uuid.New()

	raw := `{
		"id": "cs_test_1",
		"amount_total": 6000,
		"metadata": {
			"kind": "booking",
			"user_id": "` + userID.String() + `",
			"trainer_id": "` + trainerID.String() + `",
			"session_type": "personal_training",
			"date": "2025-06-11",
			"start_minutes": "540",
			"duration_minutes": "60"
		}
	}`

	mocks.bookings.On("RecordPaidBooking", mock.Anything, mock.MatchedBy(func(params types.PaidBookingParams) bool {
		return params.UserID == userID &&
			params.TrainerID == trainerID &&
			params.SessionType == types.SessionPersonalTraining &&
			params.Date == "2025-06-11" &&
			params.StartMinutes == 540 &&
			params.DurationMinutes == 60 &&
			params.PaymentSessionID == "cs_test_1" &&
			params.TotalAmountCents == 6000
	})).Return(&types.Booking{}, nil).Once()

	err := p.Process(context.Background(), stripeEvent("evt_5", "checkout.session.completed", raw))

	require.NoError(t, err)
	mocks.bookings.AssertExpectations(t)
}

func TestProcess_CheckoutCompletedCartSettlesOrder(t *testing.T) {
	p, mocks := newTestProcessor()

	raw := `{"id": "cs_test_2", "metadata": {"kind": "cart", "user_id": "ignored"}}`
	mocks.orders.On("SettleOrderBySessionID", mock.Anything, "cs_test_2").Return(&types.Order{}, nil).Once()

	err := p.Process(context.Background(), stripeEvent("evt_6", "checkout.session.completed", raw))

	require.NoError(t, err)
	mocks.orders.AssertExpectations(t)
}

func TestProcess_CheckoutCompletedMembershipIsNoop(t *testing.T) {
	p, mocks := newTestProcessor()

	raw := `{"id": "cs_test_3", "metadata": {"kind": "membership"}}`
	err := p.Process(context.Background(), stripeEvent("evt_7", "checkout.session.completed", raw))

	require.NoError(t, err)
	mocks.memberships.AssertNotCalled(t, "ApplySubscriptionEvent", mock.Anything, mock.Anything)
	mocks.bookings.AssertNotCalled(t, "RecordPaidBooking", mock.Anything, mock.Anything)
	mocks.orders.AssertNotCalled(t, "SettleOrderBySessionID", mock.Anything, mock.Anything)
}

func TestProcess_HandlerFailureDeadLettersAndAcks(t *testing.T) {
	p, mocks := newTestProcessor()

	raw := `{"id": "cs_test_4", "metadata": {"kind": "cart"}}`
	handlerErr := errors.New("order not found")
	mocks.orders.On("SettleOrderBySessionID", mock.Anything, "cs_test_4").Return(nil, handlerErr).Once()
	mocks.deadLetters.On("Record", mock.Anything, "evt_8", "checkout.session.completed",
		mock.Anything, mock.MatchedBy(func(msg string) bool { return msg == handlerErr.Error() })).Return(nil).Once()

	err := p.Process(context.Background(), stripeEvent("evt_8", "checkout.session.completed", raw))

	require.NoError(t, err)
	mocks.deadLetters.AssertExpectations(t)
}

func TestProcess_DeadLetterWriteFailureSurfaces(t *testing.T) {
	p, mocks := newTestProcessor()

	raw := `{"id": "cs_test_5", "metadata": {"kind": "cart"}}`
	mocks.orders.On("SettleOrderBySessionID", mock.Anything, "cs_test_5").Return(nil, errors.New("boom")).Once()
	dlErr := errors.New("insert failed")
	mocks.deadLetters.On("Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(dlErr).Once()

	err := p.Process(context.Background(), stripeEvent("evt_9", "checkout.session.completed", raw))

	assert.ErrorIs(t, err, dlErr)
}

func TestProcess_UnknownEventTypeIsAcked(t *testing.T) {
	p, mocks := newTestProcessor()

	err := p.Process(context.Background(), stripeEvent("evt_10", "charge.refunded", `{}`))

	require.NoError(t, err)
	mocks.deadLetters.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcess_SubscriptionWithoutUserMetadataDeadLetters(t *testing.T) {
	p, mocks := newTestProcessor()

	raw := `{"id": "sub_999", "status": "active", "metadata": {"plan_type": "basic"}}`
	mocks.deadLetters.On("Record", mock.Anything, "evt_11", "customer.subscription.created",
		mock.Anything, mock.Anything).Return(nil).Once()

	err := p.Process(context.Background(), stripeEvent("evt_11", "customer.subscription.created", raw))

	require.NoError(t, err)
	mocks.memberships.AssertNotCalled(t, "ApplySubscriptionEvent", mock.Anything, mock.Anything)
	mocks.deadLetters.AssertExpectations(t)
}

func TestMapSubscriptionStatus(t *testing.T) {
	assert.Equal(t, types.MembershipActive, MapSubscriptionStatus(stripe.SubscriptionStatusActive))
	assert.Equal(t, types.MembershipActive, MapSubscriptionStatus(stripe.SubscriptionStatusTrialing))
	assert.Equal(t, types.MembershipCancelled, MapSubscriptionStatus(stripe.SubscriptionStatusCanceled))
	assert.Equal(t, types.MembershipPending, MapSubscriptionStatus(stripe.SubscriptionStatusPastDue))
	assert.Equal(t, types.MembershipPending, MapSubscriptionStatus(stripe.SubscriptionStatusUnpaid))
	assert.Equal(t, types.MembershipPending, MapSubscriptionStatus(stripe.SubscriptionStatusIncomplete))
}
