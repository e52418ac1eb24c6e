package dto

import (
	"time"

	"github.com/spec-kit/civic-service/internal/domain"
)

// CreateGrievanceRequest payload.
type CreateGrievanceRequest struct {
	Category    domain.GrievanceCategory `json:"category"`
	Kind        domain.GrievanceKind     `json:"kind"`
	Description string                   `json:"description"`
	Address     string                   `json:"address"`
	Landmark    *string                  `json:"landmark,omitempty"`
	Latitude    *float64                 `json:"latitude,omitempty"`
	Longitude   *float64                 `json:"longitude,omitempty"`
	Ward        string                   `json:"ward"`
	Attachments []string                 `json:"attachments"`
	Department  domain.Department        `json:"department,omitempty"`
}

// StatusChangeRequest payload for staff transitions.
type StatusChangeRequest struct {
	Status      domain.GrievanceStatus `json:"status"`
	Note        string                 `json:"note"`
	ActionTaken string                 `json:"action_taken,omitempty"`
}

// FeedbackRequest payload.
type FeedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// PriorityChangeRequest payload.
type PriorityChangeRequest struct {
	Priority domain.GrievancePriority `json:"priority"`
}

// GrievanceSummary response.
type GrievanceSummary struct {
	Number        string                   `json:"number"`
	Category      domain.GrievanceCategory `json:"category"`
	Kind          domain.GrievanceKind     `json:"kind"`
	Status        domain.GrievanceStatus   `json:"status"`
	Priority      domain.GrievancePriority `json:"priority"`
	Department    domain.Department        `json:"department"`
	Ward          string                   `json:"ward"`
	CommitmentDue time.Time                `json:"commitment_due"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

// AuditEntryResponse is one audit trail record.
type AuditEntryResponse struct {
	Status  domain.GrievanceStatus `json:"status"`
	Note    string                 `json:"note,omitempty"`
	ActorID string                 `json:"actor_id"`
	At      time.Time              `json:"at"`
}

// ResolutionResponse terminal resolution data.
type ResolutionResponse struct {
	Note        string    `json:"note"`
	ResolverID  string    `json:"resolver_id"`
	ResolvedAt  time.Time `json:"resolved_at"`
	ActionTaken string    `json:"action_taken"`
}

// FeedbackResponse citizen rating data.
type FeedbackResponse struct {
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// GrievanceDetailResponse provides full grievance info.
type GrievanceDetailResponse struct {
	Number          string                   `json:"number"`
	Category        domain.GrievanceCategory `json:"category"`
	Kind            domain.GrievanceKind     `json:"kind"`
	Description     string                   `json:"description"`
	Address         string                   `json:"address"`
	Landmark        *string                  `json:"landmark,omitempty"`
	Ward            string                   `json:"ward"`
	Attachments     []string                 `json:"attachments"`
	Status          domain.GrievanceStatus   `json:"status"`
	Priority        domain.GrievancePriority `json:"priority"`
	PriorityScore   int                      `json:"priority_score"`
	PrioritySignals []string                 `json:"priority_signals"`
	Department      domain.Department        `json:"department"`
	CommitmentDue   time.Time                `json:"commitment_due"`
	AssigneeID      *string                  `json:"assignee_id,omitempty"`
	AuditTrail      []AuditEntryResponse     `json:"audit_trail"`
	Resolution      *ResolutionResponse      `json:"resolution,omitempty"`
	Feedback        *FeedbackResponse        `json:"feedback,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}
