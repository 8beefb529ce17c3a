package domain

import (
	"encoding/json"
	"time"
)

const (
	EventValidationPassed = "validation.passed"
	EventValidationFailed = "validation.failed"
)

// EventEnvelope is the wire form of a validation event delivered through
// the outbox.
type EventEnvelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	TenantID   string          `json:"tenant_id"`
	SchemaName string          `json:"schema_name"`
	ReportID   string          `json:"report_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Actor      string          `json:"actor"`
	Payload    json.RawMessage `json:"payload"`
}

// OutboxEvent is a pending or delivered outbox row.
type OutboxEvent struct {
	ID            int64
	EventID       string
	TenantID      string
	Topic         string
	PayloadJSON   json.RawMessage
	Status        string
	Attempts      int
	NextAttemptAt time.Time
	LastError     string
	CreatedAt     time.Time
	DispatchedAt  *time.Time
}
