package events

import (
	"encoding/json"
	"time"
)

const (
	EventAccountRegistered = "AccountRegistered"
	EventProductCreated    = "ProductCreated"
)

const (
	TopicAccountRegistered = "account.registered"
	TopicProductCreated    = "product.created"
)

// PartitionKey keeps every event of one entity on the same partition.
func PartitionKey(entityID string) []byte { return []byte(entityID) }

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"` // RFC3339
	Producer      string          `json:"producer"`    // e.g., "tienda-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // entity id
	Payload       json.RawMessage `json:"payload"`
}

type AccountRegisteredPayload struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
}

type ProductCreatedPayload struct {
	ProductID string  `json:"product_id"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Category  string  `json:"category"`
	Stock     int     `json:"stock"`
}
