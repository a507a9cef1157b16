package types

import (
	"time"

	"github.com/google/uuid"
)

type PlanType string

const (
	PlanBeginner PlanType = "beginner"
	PlanBasic    PlanType = "basic"
	PlanCouple   PlanType = "couple"
	PlanPremium  PlanType = "premium"
)

type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "active"
	MembershipCancelled MembershipStatus = "cancelled"
	MembershipPending   MembershipStatus = "pending"
	MembershipExpired   MembershipStatus = "expired"
)

// MembershipPlan is fixed catalog reference data.
type MembershipPlan struct {
	ID            uuid.UUID `json:"id"`
	Type          PlanType  `json:"type"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	PriceCents    int64     `json:"price_cents"` // monthly price
	Features      []string  `json:"features"`
	StripePriceID string    `json:"stripe_price_id"`
}

// Membership is the per-user subscription record. At most one row per user is
// authoritative for "active" gating; status transitions are driven by Stripe
// webhook events or an explicit user cancel.
type Membership struct {
	ID                   uuid.UUID        `json:"id"`
	UserID               uuid.UUID        `json:"user_id"`
	Type                 PlanType         `json:"type"`
	Status               MembershipStatus `json:"status"`
	StripeCustomerID     *string          `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID *string          `json:"stripe_subscription_id,omitempty"`
	StripePriceID        *string          `json:"stripe_price_id,omitempty"`
	CurrentPeriodStart   int64            `json:"current_period_start"` // epoch millis
	CurrentPeriodEnd     int64            `json:"current_period_end"`   // epoch millis
	CancelAtPeriodEnd    bool             `json:"cancel_at_period_end"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// IsExpired reports whether the membership's billing period has elapsed at the
// given instant. Pure so the sweep worker, booking authorization and tests
// share one definition.
func (m *Membership) IsExpired(now time.Time) bool {
	return m.CurrentPeriodEnd > 0 && now.UnixMilli() > m.CurrentPeriodEnd
}

// IsActive reports whether the membership grants entitlements at the given
// instant. A row still marked active but past its period end does not count.
func (m *Membership) IsActive(now time.Time) bool {
	return m.Status == MembershipActive && !m.IsExpired(now)
}

// UpsertMembershipParams carries the fields derived from a Stripe
// subscription or checkout event. Keyed on StripeSubscriptionID so webhook
// redelivery updates rather than duplicates.
type UpsertMembershipParams struct {
	UserID               uuid.UUID
	Type                 PlanType
	Status               MembershipStatus
	StripeCustomerID     *string
	StripeSubscriptionID string
	StripePriceID        *string
	CurrentPeriodStart   int64
	CurrentPeriodEnd     int64
	CancelAtPeriodEnd    bool
}
