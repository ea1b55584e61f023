package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/vaultgate/pkg/constants"
)

// AuditEvent represents a single audit trail event.
type AuditEvent struct {
	EventID   string                   `json:"event_id"`
	EventType constants.AuditEventType `json:"event_type"`
	ActorID   string                   `json:"actor_id"` // account email or "anonymous"
	Subject   string                   `json:"subject"`  // auth request id or cipher id
	Result    string                   `json:"result"`   // "success" or "failure"
	IPAddress string                   `json:"ip_address"`
	TraceID   string                   `json:"trace_id"`
	Message   string                   `json:"message"`
	Metadata  json.RawMessage          `json:"metadata,omitempty"`
	Timestamp time.Time                `json:"timestamp"`
}

// NewAuditEvent creates a new successful audit event.
func NewAuditEvent(eventType constants.AuditEventType, actorID, subject, message string) *AuditEvent {
	return &AuditEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		ActorID:   actorID,
		Subject:   subject,
		Result:    "success",
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// WithContextInfo sets request-related information.
func (a *AuditEvent) WithContextInfo(ip, traceID string) *AuditEvent {
	a.IPAddress = ip
	a.TraceID = traceID
	return a
}

// WithMetadata sets JSON metadata for the audit event.
func (a *AuditEvent) WithMetadata(data interface{}) *AuditEvent {
	jsonData, err := json.Marshal(data)
	if err == nil {
		a.Metadata = jsonData
	}
	return a
}

// WithFailure marks the event as failed.
func (a *AuditEvent) WithFailure(message string) *AuditEvent {
	a.Result = "failure"
	a.Message = message
	return a
}
