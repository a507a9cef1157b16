package types

import (
	"time"

	"github.com/google/uuid"
)

// Review is one-per-completed-booking, enforced by a unique index on
// BookingID. Creating one refreshes the trainer's aggregate rating.
type Review struct {
	ID        uuid.UUID `json:"id"`
	BookingID uuid.UUID `json:"booking_id"`
	UserID    uuid.UUID `json:"user_id"`
	TrainerID uuid.UUID `json:"trainer_id"`
	Rating    int       `json:"rating"` // 1..5
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateReviewParams struct {
	BookingID uuid.UUID `json:"booking_id"`
	Rating    int       `json:"rating"`
	Comment   *string   `json:"comment,omitempty"`
}
