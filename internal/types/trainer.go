package types

import (
	"time"

	"github.com/google/uuid"
)

// TrainerProfile extends a trainer-role user. Rating and ReviewCount are
// derived aggregates refreshed when a review is created.
type TrainerProfile struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	Specializations []string  `json:"specializations"`
	Bio             *string   `json:"bio,omitempty"`
	Certifications  []string  `json:"certifications"`
	Experience      *string   `json:"experience,omitempty"`
	Rating          float64   `json:"rating"`
	ReviewCount     int       `json:"review_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type UpdateTrainerProfileParams struct {
	Specializations *[]string `json:"specializations,omitempty"`
	Bio             *string   `json:"bio,omitempty"`
	Certifications  *[]string `json:"certifications,omitempty"`
	Experience      *string   `json:"experience,omitempty"`
}

// AvailabilityRule declares a weekly recurring bookable window for a trainer.
// Times are minutes-of-day local to the gym.
type AvailabilityRule struct {
	ID           uuid.UUID    `json:"id"`
	TrainerID    uuid.UUID    `json:"trainer_id"`
	Weekday      time.Weekday `json:"weekday"`
	StartMinutes int          `json:"start_minutes"`
	EndMinutes   int          `json:"end_minutes"`
}

// AvailabilityOverride replaces the weekly rules for one calendar date.
// Blocked overrides the whole day off; otherwise the window applies instead
// of the weekly rules.
type AvailabilityOverride struct {
	ID           uuid.UUID `json:"id"`
	TrainerID    uuid.UUID `json:"trainer_id"`
	Date         string    `json:"date"` // YYYY-MM-DD
	Blocked      bool      `json:"blocked"`
	StartMinutes int       `json:"start_minutes"`
	EndMinutes   int       `json:"end_minutes"`
}

// TimeSlot is a derived candidate booking window. Never persisted; recomputed
// per query from rules minus existing bookings.
type TimeSlot struct {
	StartMinutes int    `json:"start_minutes"`
	EndMinutes   int    `json:"end_minutes"`
	Start        string `json:"start"` // HH:MM
	End          string `json:"end"`   // HH:MM
	Available    bool   `json:"available"`
}
