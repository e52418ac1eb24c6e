package events

import (
	"time"

	"github.com/spec-kit/civic-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventGrievanceRegistered      EventType = "grievance_registered"
	EventGrievanceStatusChanged   EventType = "grievance_status_changed"
	EventGrievancePriorityChanged EventType = "grievance_priority_changed"
	EventFeedbackSubmitted        EventType = "grievance_feedback_submitted"
	EventSettlementCompleted      EventType = "settlement_completed"
)

// Event represents a domain event emitted by services. Publication is the
// synchronous notification extension point; actual message dispatch (SMS,
// email, push) happens in subscribers.
type Event struct {
	ID           string      `json:"id"`
	Type         EventType   `json:"type"`
	RecordNumber string      `json:"record_number"`
	ActorID      string      `json:"actor_id"`
	ActorRole    domain.Role `json:"actor_role"`
	Timestamp    time.Time   `json:"timestamp"`
	Payload      interface{} `json:"payload"`
}

// GrievanceRegisteredPayload payload.
type GrievanceRegisteredPayload struct {
	Category   domain.GrievanceCategory `json:"category"`
	Ward       string                   `json:"ward"`
	Priority   domain.GrievancePriority `json:"priority"`
	Department domain.Department        `json:"department"`
	DueAt      time.Time                `json:"due_at"`
}

// GrievanceStatusChangedPayload payload.
type GrievanceStatusChangedPayload struct {
	OldStatus domain.GrievanceStatus `json:"old_status"`
	NewStatus domain.GrievanceStatus `json:"new_status"`
	Note      string                 `json:"note,omitempty"`
}

// GrievancePriorityChangedPayload payload.
type GrievancePriorityChangedPayload struct {
	OldPriority domain.GrievancePriority `json:"old_priority"`
	NewPriority domain.GrievancePriority `json:"new_priority"`
}

// FeedbackSubmittedPayload payload.
type FeedbackSubmittedPayload struct {
	Rating int `json:"rating"`
}

// SettlementCompletedPayload payload.
type SettlementCompletedPayload struct {
	Status        domain.SettlementStatus `json:"status"`
	ReceiptNumber *string                 `json:"receipt_number,omitempty"`
	TotalAmount   float64                 `json:"total_amount"`
}
