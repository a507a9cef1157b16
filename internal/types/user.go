package types

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleTrainer UserRole = "trainer"
	RoleUser    UserRole = "user"
)

// User mirrors an identity-provider account into the local database.
// Rows are created/updated by the Clerk webhook sync and are never hard-deleted.
type User struct {
	ID        uuid.UUID `json:"id"`
	ClerkID   string    `json:"clerk_id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name,omitempty"`
	ImageURL  *string   `json:"image_url,omitempty"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SyncUserParams carries the fields extracted from a Clerk user event.
type SyncUserParams struct {
	ClerkID  string
	Email    string
	Name     *string
	ImageURL *string
}

// ClerkEvent is the envelope Clerk posts to the identity webhook.
type ClerkEvent struct {
	Type string         `json:"type"`
	Data ClerkEventData `json:"data"`
}

type ClerkEventData struct {
	ID             string            `json:"id"`
	FirstName      *string           `json:"first_name"`
	LastName       *string           `json:"last_name"`
	ImageURL       *string           `json:"image_url"`
	EmailAddresses []ClerkEmailEntry `json:"email_addresses"`
}

type ClerkEmailEntry struct {
	EmailAddress string `json:"email_address"`
}

// Claims represents the custom claims included in the staff JWT access token.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Scope  string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}
