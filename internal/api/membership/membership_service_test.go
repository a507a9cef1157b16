package membership

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gritfit/gritfit-api/internal/types"
)

type MockMembershipRepo struct {
	mock.Mock
}

func (m *MockMembershipRepo) ListPlans(ctx context.Context) ([]types.MembershipPlan, error) {
	args := m.Called(ctx)
	var plans []types.MembershipPlan
	if args.Get(0) != nil {
		plans = args.Get(0).([]types.MembershipPlan)
	}
	return plans, args.Error(1)
}

func (m *MockMembershipRepo) GetPlanByType(ctx context.Context, planType types.PlanType) (*types.MembershipPlan, error) {
	args := m.Called(ctx, planType)
	var plan *types.MembershipPlan
	if args.Get(0) != nil {
		plan = args.Get(0).(*types.MembershipPlan)
	}
	return plan, args.Error(1)
}

func (m *MockMembershipRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*types.Membership, error) {
	args := m.Called(ctx, userID)
	var membership *types.Membership
	if args.Get(0) != nil {
		membership = args.Get(0).(*types.Membership)
	}
	return membership, args.Error(1)
}

func (m *MockMembershipRepo) UpsertBySubscriptionID(ctx context.Context, params types.UpsertMembershipParams) (*types.Membership, error) {
	args := m.Called(ctx, params)
	var membership *types.Membership
	if args.Get(0) != nil {
		membership = args.Get(0).(*types.Membership)
	}
	return membership, args.Error(1)
}

func (m *MockMembershipRepo) UpdateStatusBySubscriptionID(ctx context.Context, subscriptionID string, status types.MembershipStatus, periodStart, periodEnd int64) error {
	args := m.Called(ctx, subscriptionID, status, periodStart, periodEnd)
	return args.Error(0)
}

func (m *MockMembershipRepo) SetCancelAtPeriodEnd(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockMembershipRepo) ExpireOverdue(ctx context.Context, nowMillis int64) (int64, error) {
	args := m.Called(ctx, nowMillis)
	return args.Get(0).(int64), args.Error(1)
}

type MockProviderCanceler struct {
	mock.Mock
}

func (m *MockProviderCanceler) FlagSubscriptionCancel(ctx context.Context, subscriptionID string) error {
	args := m.Called(ctx, subscriptionID)
	return args.Error(0)
}

var testNow = time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)

func newTestService(repo *MockMembershipRepo) *MembershipServiceImpl {
	return newTestServiceWithProvider(repo, new(MockProviderCanceler))
}

func newTestServiceWithProvider(repo *MockMembershipRepo, provider *MockProviderCanceler) *MembershipServiceImpl {
	svc := NewMembershipService(repo, provider, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestIsActive(t *testing.T) {
	current := &types.Membership{
		Status:             types.MembershipActive,
		CurrentPeriodStart: testNow.Add(-20 * 24 * time.Hour).UnixMilli(),
		CurrentPeriodEnd:   testNow.Add(10 * 24 * time.Hour).UnixMilli(),
	}
	assert.True(t, current.IsActive(testNow))

	lapsed := &types.Membership{
		Status:             types.MembershipActive,
		CurrentPeriodStart: testNow.Add(-40 * 24 * time.Hour).UnixMilli(),
		CurrentPeriodEnd:   testNow.Add(-10 * 24 * time.Hour).UnixMilli(),
	}
	assert.False(t, lapsed.IsActive(testNow))
	assert.True(t, lapsed.IsExpired(testNow))

	cancelled := &types.Membership{
		Status:           types.MembershipCancelled,
		CurrentPeriodEnd: testNow.Add(10 * 24 * time.Hour).UnixMilli(),
	}
	assert.False(t, cancelled.IsActive(testNow))

	// Exactly at the boundary the period has not yet elapsed.
	boundary := &types.Membership{
		Status:           types.MembershipActive,
		CurrentPeriodEnd: testNow.UnixMilli(),
	}
	assert.True(t, boundary.IsActive(testNow))
}

func TestGetUserMembership_ReportsLapsedRowAsExpired(t *testing.T) {
	repo := new(MockMembershipRepo)
	userID := uuid.New()

	repo.On("GetByUserID", mock.Anything, userID).Return(&types.Membership{
		UserID:             userID,
		Status:             types.MembershipActive,
		CurrentPeriodStart: testNow.Add(-60 * 24 * time.Hour).UnixMilli(),
		CurrentPeriodEnd:   testNow.Add(-30 * 24 * time.Hour).UnixMilli(),
	}, nil).Once()

	svc := newTestService(repo)
	m, err := svc.GetUserMembership(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, types.MembershipExpired, m.Status)
}

func TestGetUserMembership_CurrentStaysActive(t *testing.T) {
	repo := new(MockMembershipRepo)
	userID := uuid.New()

	repo.On("GetByUserID", mock.Anything, userID).Return(&types.Membership{
		UserID:           userID,
		Status:           types.MembershipActive,
		CurrentPeriodEnd: testNow.Add(15 * 24 * time.Hour).UnixMilli(),
	}, nil).Once()

	svc := newTestService(repo)
	m, err := svc.GetUserMembership(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, types.MembershipActive, m.Status)
}

func TestApplySubscriptionEvent_DerivesPeriodWhenMissing(t *testing.T) {
	repo := new(MockMembershipRepo)
	userID := uuid.New()

	repo.On("UpsertBySubscriptionID", mock.Anything, mock.MatchedBy(func(params types.UpsertMembershipParams) bool {
		return params.CurrentPeriodStart == testNow.UnixMilli() &&
			params.CurrentPeriodEnd == testNow.Add(30*24*time.Hour).UnixMilli()
	})).Return(&types.Membership{Status: types.MembershipActive}, nil).Once()

	svc := newTestService(repo)
	_, err := svc.ApplySubscriptionEvent(context.Background(), types.UpsertMembershipParams{
		UserID:               userID,
		Type:                 types.PlanBasic,
		Status:               types.MembershipActive,
		StripeSubscriptionID: "sub_123",
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestApplySubscriptionEvent_KeepsProvidedPeriod(t *testing.T) {
	repo := new(MockMembershipRepo)
	start := testNow.UnixMilli()
	end := testNow.Add(30 * 24 * time.Hour).UnixMilli()

	repo.On("UpsertBySubscriptionID", mock.Anything, mock.MatchedBy(func(params types.UpsertMembershipParams) bool {
		return params.CurrentPeriodStart == start && params.CurrentPeriodEnd == end
	})).Return(&types.Membership{Status: types.MembershipActive}, nil).Once()

	svc := newTestService(repo)
	_, err := svc.ApplySubscriptionEvent(context.Background(), types.UpsertMembershipParams{
		UserID:               uuid.New(),
		Type:                 types.PlanPremium,
		Status:               types.MembershipActive,
		StripeSubscriptionID: "sub_456",
		CurrentPeriodStart:   start,
		CurrentPeriodEnd:     end,
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestCancelMembership_FlagsProviderBeforeLocalRow(t *testing.T) {
	repo := new(MockMembershipRepo)
	provider := new(MockProviderCanceler)
	userID := uuid.New()
	subID := "sub_789"

	repo.On("GetByUserID", mock.Anything, userID).Return(&types.Membership{
		UserID:               userID,
		Status:               types.MembershipActive,
		StripeSubscriptionID: &subID,
	}, nil).Once()
	provider.On("FlagSubscriptionCancel", mock.Anything, subID).Return(nil).Once()
	repo.On("SetCancelAtPeriodEnd", mock.Anything, userID).Return(nil).Once()

	svc := newTestServiceWithProvider(repo, provider)
	err := svc.CancelMembership(context.Background(), userID)

	require.NoError(t, err)
	provider.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestCancelMembership_ProviderFailureLeavesRowUntouched(t *testing.T) {
	// If Stripe never learns about the cancel, its next subscription
	// event would overwrite a local flag anyway; abort instead.
	repo := new(MockMembershipRepo)
	provider := new(MockProviderCanceler)
	userID := uuid.New()
	subID := "sub_789"

	repo.On("GetByUserID", mock.Anything, userID).Return(&types.Membership{
		UserID:               userID,
		Status:               types.MembershipActive,
		StripeSubscriptionID: &subID,
	}, nil).Once()
	provider.On("FlagSubscriptionCancel", mock.Anything, subID).Return(assert.AnError).Once()

	svc := newTestServiceWithProvider(repo, provider)
	err := svc.CancelMembership(context.Background(), userID)

	assert.ErrorIs(t, err, assert.AnError)
	repo.AssertNotCalled(t, "SetCancelAtPeriodEnd")
}

func TestCancelMembership_NoSubscriptionSkipsProvider(t *testing.T) {
	repo := new(MockMembershipRepo)
	provider := new(MockProviderCanceler)
	userID := uuid.New()

	repo.On("GetByUserID", mock.Anything, userID).Return(&types.Membership{
		UserID: userID,
		Status: types.MembershipPending,
	}, nil).Once()
	repo.On("SetCancelAtPeriodEnd", mock.Anything, userID).Return(nil).Once()

	svc := newTestServiceWithProvider(repo, provider)
	err := svc.CancelMembership(context.Background(), userID)

	require.NoError(t, err)
	provider.AssertNotCalled(t, "FlagSubscriptionCancel")
}

func TestExpireOverdue_PassesInstant(t *testing.T) {
	repo := new(MockMembershipRepo)
	repo.On("ExpireOverdue", mock.Anything, testNow.UnixMilli()).Return(int64(4), nil).Once()

	svc := newTestService(repo)
	count, err := svc.ExpireOverdue(context.Background(), testNow)

	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}
