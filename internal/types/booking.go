package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SessionType string

const (
	SessionPersonalTraining SessionType = "personal_training"
	SessionGroupClass       SessionType = "group_class"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

type CancelActor string

const (
	CancelledByUser  CancelActor = "user"
	CancelledByAdmin CancelActor = "admin"
)

// Booking binds a user, a trainer and a time slot. Either an active
// membership covers the session (no payment session recorded) or a one-off
// Stripe checkout does (PaymentSessionID + TotalAmountCents set).
type Booking struct {
	ID                 uuid.UUID     `json:"id"`
	UserID             uuid.UUID     `json:"user_id"`
	TrainerID          uuid.UUID     `json:"trainer_id"`
	SessionType        SessionType   `json:"session_type"`
	Date               string        `json:"date"` // YYYY-MM-DD
	StartMinutes       int           `json:"start_minutes"`
	DurationMinutes    int           `json:"duration_minutes"`
	Status             BookingStatus `json:"status"`
	PaymentSessionID   *string       `json:"payment_session_id,omitempty"`
	TotalAmountCents   *int64        `json:"total_amount_cents,omitempty"`
	Notes              *string       `json:"notes,omitempty"`
	CancellationReason *string       `json:"cancellation_reason,omitempty"`
	CancelledBy        *CancelActor  `json:"cancelled_by,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// StartTime resolves the booking's absolute start instant in the given
// location.
func (b *Booking) StartTime(loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", b.Date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid booking date %q: %w", b.Date, err)
	}
	return day.Add(time.Duration(b.StartMinutes) * time.Minute), nil
}

// EndTime resolves the booking's absolute end instant in the given location.
func (b *Booking) EndTime(loc *time.Location) (time.Time, error) {
	start, err := b.StartTime(loc)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(b.DurationMinutes) * time.Minute), nil
}

type CreateBookingParams struct {
	TrainerID       uuid.UUID   `json:"trainer_id"`
	SessionType     SessionType `json:"session_type"`
	Date            string      `json:"date"`
	StartMinutes    int         `json:"start_minutes"`
	DurationMinutes int         `json:"duration_minutes"`
	Notes           *string     `json:"notes,omitempty"`
}

// PaidBookingParams is built from checkout.session.completed metadata.
type PaidBookingParams struct {
	CreateBookingParams
	UserID           uuid.UUID
	PaymentSessionID string
	TotalAmountCents int64
}

type CancelBookingParams struct {
	Reason string `json:"reason"`
}
