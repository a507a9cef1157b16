package types

import (
	"time"

	"github.com/google/uuid"
)

type ItemCategory string

const (
	CategorySupplements ItemCategory = "supplements"
	CategoryEquipment   ItemCategory = "equipment"
	CategoryApparel     ItemCategory = "apparel"
	CategoryAccessories ItemCategory = "accessories"
)

type MarketplaceItem struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Category    ItemCategory `json:"category"`
	PriceCents  int64        `json:"price_cents"`
	ImageURL    *string      `json:"image_url,omitempty"`
	Stock       int          `json:"stock"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type UpsertMarketplaceItemParams struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Category    ItemCategory `json:"category"`
	PriceCents  int64        `json:"price_cents"`
	ImageURL    *string      `json:"image_url,omitempty"`
	Stock       int          `json:"stock"`
}

// CartItem snapshots the item price at add time so later price changes do not
// move an in-flight cart.
type CartItem struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	ItemID     uuid.UUID `json:"item_id"`
	Quantity   int       `json:"quantity"`
	PriceCents int64     `json:"price_cents"` // unit price at add time
	CreatedAt  time.Time `json:"created_at"`
}

type Cart struct {
	Items         []CartItem `json:"items"`
	SubtotalCents int64      `json:"subtotal_cents"`
}

type AddToCartParams struct {
	ItemID   uuid.UUID `json:"item_id"`
	Quantity int       `json:"quantity"`
}

type UpdateCartQuantityParams struct {
	Quantity int `json:"quantity"`
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

type ShippingAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type OrderItem struct {
	ItemID     uuid.UUID `json:"item_id"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	PriceCents int64     `json:"price_cents"`
}

// Order is the checkout conversion of a cart. PaymentStatus starts pending
// and flips to paid when the webhook matches StripeSessionID.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	Items           []OrderItem     `json:"items"`
	SubtotalCents   int64           `json:"subtotal_cents"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	StripeSessionID string          `json:"stripe_session_id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
