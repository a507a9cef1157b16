package workers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockMembershipExpirer struct {
	mock.Mock
}

func (m *MockMembershipExpirer) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockBookingCompleter struct {
	mock.Mock
}

func (m *MockBookingCompleter) CompleteElapsed(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func TestSweep_RunsBothSweeps(t *testing.T) {
	memberships := new(MockMembershipExpirer)
	bookings := new(MockBookingCompleter)
	testNow := time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)

	memberships.On("ExpireOverdue", mock.Anything, testNow).Return(int64(2), nil).Once()
	bookings.On("CompleteElapsed", mock.Anything, testNow).Return(int64(3), nil).Once()

	s := NewSweeper(memberships, bookings, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time { return testNow }

	s.sweep(context.Background())

	memberships.AssertExpectations(t)
	bookings.AssertExpectations(t)
}

func TestSweep_MembershipFailureDoesNotBlockBookings(t *testing.T) {
	memberships := new(MockMembershipExpirer)
	bookings := new(MockBookingCompleter)

	memberships.On("ExpireOverdue", mock.Anything, mock.Anything).Return(int64(0), errors.New("db down")).Once()
	bookings.On("CompleteElapsed", mock.Anything, mock.Anything).Return(int64(1), nil).Once()

	s := NewSweeper(memberships, bookings, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.sweep(context.Background())

	bookings.AssertExpectations(t)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	memberships := new(MockMembershipExpirer)
	bookings := new(MockBookingCompleter)
	memberships.On("ExpireOverdue", mock.Anything, mock.Anything).Return(int64(0), nil)
	bookings.On("CompleteElapsed", mock.Anything, mock.Anything).Return(int64(0), nil)

	ctx, cancel := context.WithCancel(context.Background())
	s := NewSweeper(memberships, bookings, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
}
