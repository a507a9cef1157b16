package booking

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

type MockBookingRepo struct {
	mock.Mock
}

func (m *MockBookingRepo) Create(ctx context.Context, userID uuid.UUID, params types.CreateBookingParams, status types.BookingStatus) (*types.Booking, error) {
	args := m.Called(ctx, userID, params, status)
	b, _ := args.Get(0).(*types.Booking)
	return b, args.Error(1)
}

func (m *MockBookingRepo) UpsertPaid(ctx context.Context, params types.PaidBookingParams) (*types.Booking, error) {
	args := m.Called(ctx, params)
	b, _ := args.Get(0).(*types.Booking)
	return b, args.Error(1)
}

func (m *MockBookingRepo) GetByID(ctx context.Context, bookingID uuid.UUID) (*types.Booking, error) {
	args := m.Called(ctx, bookingID)
	b, _ := args.Get(0).(*types.Booking)
	return b, args.Error(1)
}

func (m *MockBookingRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]types.Booking, error) {
	args := m.Called(ctx, userID)
	b, _ := args.Get(0).([]types.Booking)
	return b, args.Error(1)
}

func (m *MockBookingRepo) ListForTrainer(ctx context.Context, trainerID uuid.UUID, date string) ([]types.Booking, error) {
	args := m.Called(ctx, trainerID, date)
	b, _ := args.Get(0).([]types.Booking)
	return b, args.Error(1)
}

func (m *MockBookingRepo) HasOverlap(ctx context.Context, trainerID uuid.UUID, date string, startMinutes, durationMinutes int) (bool, error) {
	args := m.Called(ctx, trainerID, date, startMinutes, durationMinutes)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepo) Cancel(ctx context.Context, bookingID uuid.UUID, reason string, actor types.CancelActor) error {
	args := m.Called(ctx, bookingID, reason, actor)
	return args.Error(0)
}

func (m *MockBookingRepo) UpdateStatus(ctx context.Context, bookingID uuid.UUID, status types.BookingStatus) error {
	args := m.Called(ctx, bookingID, status)
	return args.Error(0)
}

func (m *MockBookingRepo) CompleteElapsed(ctx context.Context, date string, nowMinutes int) (int64, error) {
	args := m.Called(ctx, date, nowMinutes)
	return args.Get(0).(int64), args.Error(1)
}

type MockMembershipChecker struct {
	mock.Mock
}

func (m *MockMembershipChecker) GetUserMembership(ctx context.Context, userID uuid.UUID) (*types.Membership, error) {
	args := m.Called(ctx, userID)
	mem, _ := args.Get(0).(*types.Membership)
	return mem, args.Error(1)
}

type MockTrainerResolver struct {
	mock.Mock
}

func (m *MockTrainerResolver) GetProfileByUserID(ctx context.Context, userID uuid.UUID) (*types.TrainerProfile, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(*types.TrainerProfile)
	return p, args.Error(1)
}

func (m *MockTrainerResolver) GetProfileByID(ctx context.Context, trainerID uuid.UUID) (*types.TrainerProfile, error) {
	args := m.Called(ctx, trainerID)
	p, _ := args.Get(0).(*types.TrainerProfile)
	return p, args.Error(1)
}

var testNow = time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)

func newTestService(repo *MockBookingRepo, memberships *MockMembershipChecker, trainers *MockTrainerResolver) *BookingServiceImpl {
	svc := NewBookingService(repo, memberships, trainers, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return testNow }
	return svc
}

func activeMembership(userID uuid.UUID) *types.Membership {
	return &types.Membership{
		UserID:             userID,
		Status:             types.MembershipActive,
		CurrentPeriodStart: testNow.Add(-10 * 24 * time.Hour).UnixMilli(),
		CurrentPeriodEnd:   testNow.Add(20 * 24 * time.Hour).UnixMilli(),
	}
}

func validParams(trainerID uuid.UUID) types.CreateBookingParams {
	return types.CreateBookingParams{
		TrainerID:       trainerID,
		SessionType:     types.SessionPersonalTraining,
		Date:            "2025-06-11",
		StartMinutes:    9 * 60,
		DurationMinutes: 60,
	}
}

func TestCreateMembershipBooking_Success(t *testing.T) {
	repo := new(MockBookingRepo)
	memberships := new(MockMembershipChecker)
	trainers := new(MockTrainerResolver)
	svc := newTestService(repo, memberships, trainers)

	userID := uuid.New()
	trainerID := uuid.New()
	params := validParams(trainerID)

	memberships.On("GetUserMembership", mock.Anything, userID).Return(activeMembership(userID), nil)
	trainers.On("GetProfileByID", mock.Anything, trainerID).Return(&types.TrainerProfile{ID: trainerID}, nil)
	repo.On("HasOverlap", mock.Anything, trainerID, params.Date, params.StartMinutes, params.DurationMinutes).
		Return(false, nil)
	repo.On("Create", mock.Anything, userID, params, types.BookingConfirmed).
		Return(&types.Booking{ID: uuid.New(), UserID: userID, TrainerID: trainerID, Status: types.BookingConfirmed}, nil)

	b, err := svc.CreateMembershipBooking(context.Background(), userID, params)

	require.NoError(t, err)
	assert.Equal(t, types.BookingConfirmed, b.Status)
	repo.AssertExpectations(t)
	memberships.AssertExpectations(t)
}

func TestCreateMembershipBooking_NoMembership(t *testing.T) {
	repo := new(MockBookingRepo)
	memberships := new(MockMembershipChecker)
	trainers := new(MockTrainerResolver)
	svc := newTestService(repo, memberships, trainers)

	userID := uuid.New()
	memberships.On("GetUserMembership", mock.Anything, userID).Return(nil, types.ErrNotFound)

	_, err := svc.CreateMembershipBooking(context.Background(), userID, validParams(uuid.New()))

	assert.ErrorIs(t, err, types.ErrForbidden)
	repo.AssertNotCalled(t, "Create")
}

func TestCreateMembershipBooking_LapsedMembership(t *testing.T) {
	repo := new(MockBookingRepo)
	memberships := new(MockMembershipChecker)
	trainers := new(MockTrainerResolver)
	svc := newTestService(repo, memberships, trainers)

	userID := uuid.New()
	lapsed := activeMembership(userID)
	lapsed.CurrentPeriodEnd = testNow.Add(-24 * time.Hour).UnixMilli()
	memberships.On("GetUserMembership", mock.Anything, userID).Return(lapsed, nil)

	_, err := svc.CreateMembershipBooking(context.Background(), userID, validParams(uuid.New()))

	assert.ErrorIs(t, err, types.ErrForbidden)
	repo.AssertNotCalled(t, "Create")
}

func TestCreateMembershipBooking_SlotTaken(t *testing.T) {
	repo := new(MockBookingRepo)
	memberships := new(MockMembershipChecker)
	trainers := new(MockTrainerResolver)
	svc := newTestService(repo, memberships, trainers)

	userID := uuid.New()
	trainerID := uuid.New()
	params := validParams(trainerID)

	memberships.On("GetUserMembership", mock.Anything, userID).Return(activeMembership(userID), nil)
	trainers.On("GetProfileByID", mock.Anything, trainerID).Return(&types.TrainerProfile{ID: trainerID}, nil)
	repo.On("HasOverlap", mock.Anything, trainerID, params.Date, params.StartMinutes, params.DurationMinutes).
		Return(true, nil)

	_, err := svc.CreateMembershipBooking(context.Background(), userID, params)

	assert.ErrorIs(t, err, types.ErrConflict)
	repo.AssertNotCalled(t, "Create")
}

func TestCreateMembershipBooking_PastStartRejected(t *testing.T) {
	svc := newTestService(new(MockBookingRepo), new(MockMembershipChecker), new(MockTrainerResolver))

	params := validParams(uuid.New())
	params.Date = testNow.Format("2006-01-02")
	params.StartMinutes = 8 * 60 // an hour before testNow

	_, err := svc.CreateMembershipBooking(context.Background(), uuid.New(), params)

	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestRecordPaidBooking_IdempotentOnSessionID(t *testing.T) {
	repo := new(MockBookingRepo)
	svc := newTestService(repo, new(MockMembershipChecker), new(MockTrainerResolver))

	params := types.PaidBookingParams{
		CreateBookingParams: validParams(uuid.New()),
		UserID:              uuid.New(),
		PaymentSessionID:    "cs_test_123",
		TotalAmountCents:    5000,
	}
	stored := &types.Booking{ID: uuid.New(), Status: types.BookingConfirmed}
	repo.On("UpsertPaid", mock.Anything, params).Return(stored, nil).Twice()

	first, err := svc.RecordPaidBooking(context.Background(), params)
	require.NoError(t, err)
	second, err := svc.RecordPaidBooking(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	repo.AssertExpectations(t)
}

func TestRecordPaidBooking_AcceptsStartedSession(t *testing.T) {
	// Payment confirmations can arrive (or be redelivered) after the
	// session's start instant; the paid booking must still be recorded.
	repo := new(MockBookingRepo)
	svc := newTestService(repo, new(MockMembershipChecker), new(MockTrainerResolver))

	params := types.PaidBookingParams{
		CreateBookingParams: validParams(uuid.New()),
		UserID:              uuid.New(),
		PaymentSessionID:    "cs_test_late",
		TotalAmountCents:    6000,
	}
	params.Date = testNow.Format("2006-01-02")
	params.StartMinutes = 9 * 60 // started an hour before testNow (10:00)

	stored := &types.Booking{ID: uuid.New(), Status: types.BookingConfirmed}
	repo.On("UpsertPaid", mock.Anything, params).Return(stored, nil)

	b, err := svc.RecordPaidBooking(context.Background(), params)

	require.NoError(t, err)
	assert.Equal(t, stored.ID, b.ID)
	repo.AssertExpectations(t)
}

func TestRecordPaidBooking_RejectsMalformedDate(t *testing.T) {
	repo := new(MockBookingRepo)
	svc := newTestService(repo, new(MockMembershipChecker), new(MockTrainerResolver))

	params := types.PaidBookingParams{
		CreateBookingParams: validParams(uuid.New()),
		UserID:              uuid.New(),
		PaymentSessionID:    "cs_test_bad_date",
	}
	params.Date = "11/06/2025"

	_, err := svc.RecordPaidBooking(context.Background(), params)

	assert.ErrorIs(t, err, types.ErrValidation)
	repo.AssertNotCalled(t, "UpsertPaid")
}

func TestRecordPaidBooking_MissingSessionID(t *testing.T) {
	svc := newTestService(new(MockBookingRepo), new(MockMembershipChecker), new(MockTrainerResolver))

	_, err := svc.RecordPaidBooking(context.Background(), types.PaidBookingParams{
		CreateBookingParams: validParams(uuid.New()),
		UserID:              uuid.New(),
	})

	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestValidateRequest_OpenSlotPasses(t *testing.T) {
	repo := new(MockBookingRepo)
	trainers := new(MockTrainerResolver)
	svc := newTestService(repo, new(MockMembershipChecker), trainers)

	trainerID := uuid.New()
	params := validParams(trainerID)
	trainers.On("GetProfileByID", mock.Anything, trainerID).Return(&types.TrainerProfile{ID: trainerID}, nil)
	repo.On("HasOverlap", mock.Anything, trainerID, params.Date, params.StartMinutes, params.DurationMinutes).
		Return(false, nil)

	err := svc.ValidateRequest(context.Background(), params)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestValidateRequest_TakenSlotConflicts(t *testing.T) {
	repo := new(MockBookingRepo)
	trainers := new(MockTrainerResolver)
	svc := newTestService(repo, new(MockMembershipChecker), trainers)

	trainerID := uuid.New()
	params := validParams(trainerID)
	trainers.On("GetProfileByID", mock.Anything, trainerID).Return(&types.TrainerProfile{ID: trainerID}, nil)
	repo.On("HasOverlap", mock.Anything, trainerID, params.Date, params.StartMinutes, params.DurationMinutes).
		Return(true, nil)

	err := svc.ValidateRequest(context.Background(), params)

	assert.ErrorIs(t, err, types.ErrConflict)
}

func TestValidateRequest_PastStartRejected(t *testing.T) {
	repo := new(MockBookingRepo)
	svc := newTestService(repo, new(MockMembershipChecker), new(MockTrainerResolver))

	params := validParams(uuid.New())
	params.Date = testNow.Format("2006-01-02")
	params.StartMinutes = 8 * 60

	err := svc.ValidateRequest(context.Background(), params)

	assert.ErrorIs(t, err, types.ErrValidation)
	repo.AssertNotCalled(t, "HasOverlap")
}

func TestCancelBooking_OwnerCancelsFutureBooking(t *testing.T) {
	repo := new(MockBookingRepo)
	svc := newTestService(repo, new(MockMembershipChecker), new(MockTrainerResolver))

	userID := uuid.New()
	bookingID := uuid.New()
	repo.On("GetByID", mock.Anything, bookingID).Return(&types.Booking{
		ID:           bookingID,
		UserID:       userID,
		Status:       types.BookingConfirmed,
		Date:         "2025-06-12",
		StartMinutes: 600,
	}, nil)
	repo.On("Cancel", mock.Anything, bookingID, "schedule conflict", types.CancelledByUser).Return(nil)

	err := svc.CancelBooking(context.Background(), userID, types.RoleUser, bookingID, "schedule conflict")

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestCancelBooking_AdminActorRecorded(t *testing.T) {
	repo := new(MockBookingRepo)
	svc := newTestService(repo, new(MockMembershipChecker), new(MockTrainerResolver))

	bookingID := uuid.New()
	repo.On("GetByID", mock.Anything, bookingID).Return(&types.Booking{
		ID:           bookingID,
		UserID:       uuid.New(),
		Status:       types.BookingPending,
		Date:         "2025-06-12",
		StartMinutes: 600,
	}, nil)
	repo.On("Cancel", mock.Anything, bookingID, "trainer unavailable", types.CancelledByAdmin).Return(nil)

	err := svc.CancelBooking(context.Background(), uuid.New(), types.RoleAdmin, bookingID, "trainer unavailable")

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestCancelBooking_RejectsOtherUsers(t *testing.T) {
	repo := new(MockBookingRepo)
	trainers := new(MockTrainerResolver)
	svc := newTestService(repo, new(MockMembershipChecker), trainers)

	bookingID := uuid.New()
	repo.On("GetByID", mock.Anything, bookingID).Return(&types.Booking{
		ID:           bookingID,
		UserID:       uuid.New(),
		Status:       types.BookingConfirmed,
		Date:         "2025-06-12",
		StartMinutes: 600,
	}, nil)

	err := svc.CancelBooking(context.Background(), uuid.New(), types.RoleUser, bookingID, "nope")

	assert.ErrorIs(t, err, types.ErrForbidden)
	repo.AssertNotCalled(t, "Cancel")
}

func TestCancelBooking_RejectsCompleted(t *testing.T) {
	repo := new(MockBookingRepo)
	svc := newTestService(repo, new(MockMembershipChecker), new(MockTrainerResolver))

	userID := uuid.New()
	bookingID := uuid.New()
	repo.On("GetByID", mock.Anything, bookingID).Return(&types.Booking{
		ID:     bookingID,
		UserID: userID,
		Status: types.BookingCompleted,
		Date:   "2025-06-01",
	}, nil)

	err := svc.CancelBooking(context.Background(), userID, types.RoleUser, bookingID, "too late")

	assert.ErrorIs(t, err, types.ErrConflict)
}

func TestCancelBooking_RejectsPastStart(t *testing.T) {
	repo := new(MockBookingRepo)
	svc := newTestService(repo, new(MockMembershipChecker), new(MockTrainerResolver))

	userID := uuid.New()
	bookingID := uuid.New()
	repo.On("GetByID", mock.Anything, bookingID).Return(&types.Booking{
		ID:           bookingID,
		UserID:       userID,
		Status:       types.BookingConfirmed,
		Date:         testNow.Format("2006-01-02"),
		StartMinutes: 9 * 60, // already started at testNow (10:00)
	}, nil)

	err := svc.CancelBooking(context.Background(), userID, types.RoleUser, bookingID, "changed my mind")

	assert.ErrorIs(t, err, types.ErrConflict)
	repo.AssertNotCalled(t, "Cancel")
}

func TestCancelBooking_RequiresReason(t *testing.T) {
	svc := newTestService(new(MockBookingRepo), new(MockMembershipChecker), new(MockTrainerResolver))

	err := svc.CancelBooking(context.Background(), uuid.New(), types.RoleUser, uuid.New(), "   ")

	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestCompleteElapsed_UsesLocalDateAndMinutes(t *testing.T) {
	repo := new(MockBookingRepo)
	svc := newTestService(repo, new(MockMembershipChecker), new(MockTrainerResolver))

	repo.On("CompleteElapsed", mock.Anything, "2025-06-10", 600).Return(int64(3), nil)

	n, err := svc.CompleteElapsed(context.Background(), testNow)

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	repo.AssertExpectations(t)
}
