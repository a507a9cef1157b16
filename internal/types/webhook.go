package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WebhookDeadLetter is a webhook event whose handler failed after signature
// verification. The raw payload is kept for inspection and replay.
type WebhookDeadLetter struct {
	ID        uuid.UUID       `json:"id"`
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	Error     string          `json:"error"`
	CreatedAt time.Time       `json:"created_at"`
}
