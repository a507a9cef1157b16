package payments

import (
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/gritfit/gritfit-api/internal/types"
)

const testWebhookSecret = "whsec_test_secret"

func newWebhookHandler(mocks processorMocks) *HandlerImpl {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	processor := NewWebhookProcessor(mocks.memberships, mocks.bookings, mocks.orders, mocks.deadLetters, logger)
	return NewHandlerImpl(nil, processor, mocks.deadLetters, testWebhookSecret, logger)
}

func signPayload(payload string, at time.Time) string {
	sig := webhook.ComputeSignature(at, []byte(payload), testWebhookSecret)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(sig))
}

func TestStripeWebhook_InvalidSignatureRejectedWithoutMutation(t *testing.T) {
	mocks := processorMocks{
		memberships: new(MockSubscriptionApplier),
		bookings:    new(MockPaidBookingRecorder),
		orders:      new(MockOrderSettler),
		deadLetters: new(MockDeadLetterRepo),
	}
	h := newWebhookHandler(mocks)

	payload := `{"id": "evt_1", "type": "checkout.session.completed", "data": {"object": {"id": "cs_1", "metadata": {"kind": "cart"}}}}`
	req := httptest.NewRequest(http.MethodPost, "/stripe-webhook", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	rec := httptest.NewRecorder()

	h.StripeWebhook(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mocks.orders.AssertNotCalled(t, "SettleOrderBySessionID", mock.Anything, mock.Anything)
	mocks.deadLetters.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStripeWebhook_SignedEventIsProcessed(t *testing.T) {
	mocks := processorMocks{
		memberships: new(MockSubscriptionApplier),
		bookings:    new(MockPaidBookingRecorder),
		orders:      new(MockOrderSettler),
		deadLetters: new(MockDeadLetterRepo),
	}
	h := newWebhookHandler(mocks)

	mocks.orders.On("SettleOrderBySessionID", mock.Anything, "cs_1").Return(&types.Order{}, nil).Once()

	payload := `{"id": "evt_2", "api_version": "2024-06-20", "type": "checkout.session.completed", "data": {"object": {"id": "cs_1", "metadata": {"kind": "cart"}}}}`
	req := httptest.NewRequest(http.MethodPost, "/stripe-webhook", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", signPayload(payload, time.Now()))
	rec := httptest.NewRecorder()

	h.StripeWebhook(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	mocks.orders.AssertExpectations(t)
}
