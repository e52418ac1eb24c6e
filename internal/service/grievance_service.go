package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civic-service/internal/domain"
	"github.com/spec-kit/civic-service/internal/events"
	"github.com/spec-kit/civic-service/internal/identifier"
	"github.com/spec-kit/civic-service/internal/repository"
	"github.com/spec-kit/civic-service/internal/rules"
	apperrors "github.com/spec-kit/civic-service/pkg/util"
)

// GrievanceService coordinates grievance intake and lifecycle workflows.
type GrievanceService struct {
	grievances repository.GrievanceRepository
	numbers    *identifier.Generator
	dispatcher events.Dispatcher
	clock      func() time.Time
}

// GrievanceDependencies bundles collaborators for the grievance service.
type GrievanceDependencies struct {
	GrievanceRepo repository.GrievanceRepository
	Numbers       *identifier.Generator
	Dispatcher    events.Dispatcher
	Clock         func() time.Time
}

// GrievanceCreateInput describes the intake payload.
type GrievanceCreateInput struct {
	Category    domain.GrievanceCategory
	Kind        domain.GrievanceKind
	Description string
	Location    domain.Location
	Attachments []string
	// Department, when non-default, is a manual dispatch override that
	// bypasses category routing and is preserved permanently.
	Department domain.Department
}

// StatusChangeInput describes a lifecycle transition request.
type StatusChangeInput struct {
	NewStatus   domain.GrievanceStatus
	Note        string
	ActionTaken string
}

// GrievanceListFilter describes staff listing filters.
type GrievanceListFilter struct {
	Statuses    []domain.GrievanceStatus
	Categories  []domain.GrievanceCategory
	Department  *domain.Department
	Ward        *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// NewGrievanceService constructs the service.
func NewGrievanceService(deps GrievanceDependencies) *GrievanceService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &GrievanceService{
		grievances: deps.GrievanceRepo,
		numbers:    deps.Numbers,
		dispatcher: deps.Dispatcher,
		clock:      clock,
	}
}

var validCategories = func() map[domain.GrievanceCategory]struct{} {
	set := make(map[domain.GrievanceCategory]struct{})
	for _, c := range domain.GrievanceCategories() {
		set[c] = struct{}{}
	}
	return set
}()

// transitionRoles is the full transition table: for each current status, the
// reachable next statuses and the roles permitted to perform each move.
// Role gating lives here, in one place, instead of per-operation checks.
var transitionRoles = map[domain.GrievanceStatus]map[domain.GrievanceStatus][]domain.Role{
	domain.GrievanceStatusRegistered: {
		domain.GrievanceStatusAssigned: domain.StaffRoles(),
		domain.GrievanceStatusRejected: {domain.RoleSupervisor, domain.RoleAdmin},
	},
	domain.GrievanceStatusAssigned: {
		domain.GrievanceStatusInProgress: domain.StaffRoles(),
		domain.GrievanceStatusRejected:   {domain.RoleSupervisor, domain.RoleAdmin},
	},
	domain.GrievanceStatusInProgress: {
		domain.GrievanceStatusResolved: domain.StaffRoles(),
		domain.GrievanceStatusRejected: {domain.RoleSupervisor, domain.RoleAdmin},
	},
	domain.GrievanceStatusResolved: {
		domain.GrievanceStatusClosed: {domain.RoleSupervisor, domain.RoleAdmin},
	},
	// CLOSED and REJECTED are terminal: no outgoing transitions.
}

func allowedRoles(current, next domain.GrievanceStatus) ([]domain.Role, bool) {
	moves, ok := transitionRoles[current]
	if !ok {
		return nil, false
	}
	roles, ok := moves[next]
	return roles, ok
}

func roleAllowed(roles []domain.Role, role domain.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// CreateGrievance runs the intake pipeline: severity scoring, department
// routing, commitment deadline, record number. The order is explicit; no
// step happens as a hidden save-time side effect.
func (s *GrievanceService) CreateGrievance(ctx context.Context, requesterID string, input GrievanceCreateInput) (*domain.Grievance, error) {
	if _, ok := validCategories[input.Category]; !ok {
		return nil, apperrors.NewValidationError("invalid category", map[string]any{"category": input.Category})
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, apperrors.NewValidationError("description required", nil)
	}
	if strings.TrimSpace(input.Location.Address) == "" || strings.TrimSpace(input.Location.Ward) == "" {
		return nil, apperrors.NewValidationError("address and ward required", nil)
	}
	kind := input.Kind
	if kind == "" {
		kind = domain.KindComplaint
	}

	now := s.clock()
	severity := rules.ScoreSeverity(input.Category, description)
	department := rules.RouteDepartment(input.Category, input.Department)

	// Nil slices round-trip as SQL NULL and bypass column defaults; persist
	// empty slices instead.
	attachments := input.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	signals := severity.Signals
	if signals == nil {
		signals = []string{}
	}

	var due time.Time
	if kind == domain.KindApplication {
		due = rules.CommitmentDueByCategory(input.Category, now)
	} else {
		due = rules.CommitmentDue(severity.Tier, now)
	}

	number, err := s.numbers.Next(ctx, identifier.KindGrievance, now)
	if err != nil {
		return nil, err
	}

	grievance := &domain.Grievance{
		Number:          number,
		RequesterID:     requesterID,
		Category:        input.Category,
		Kind:            kind,
		Description:     description,
		Location:        input.Location,
		Attachments:     attachments,
		Status:          domain.GrievanceStatusRegistered,
		Priority:        severity.Tier,
		PriorityScore:   severity.Score,
		PrioritySignals: signals,
		Department:      department,
		CommitmentDue:   due,
		AuditTrail: []domain.AuditEntry{{
			Status:  domain.GrievanceStatusRegistered,
			Note:    "grievance registered",
			ActorID: requesterID,
			At:      now,
		}},
	}

	if err := s.grievances.Create(ctx, grievance); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:         events.EventGrievanceRegistered,
		RecordNumber: grievance.Number,
		ActorID:      requesterID,
		ActorRole:    domain.RoleCitizen,
		Payload: events.GrievanceRegisteredPayload{
			Category:   grievance.Category,
			Ward:       grievance.Location.Ward,
			Priority:   grievance.Priority,
			Department: grievance.Department,
			DueAt:      grievance.CommitmentDue,
		},
	})
	return grievance, nil
}

// ApplyStatus performs a lifecycle transition. It appends an audit entry,
// auto-assigns an unset assignee to the acting staff member, and stores
// resolution data when the new status is RESOLVED.
func (s *GrievanceService) ApplyStatus(ctx context.Context, actor domain.Actor, number string, input StatusChangeInput) (*domain.Grievance, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required for status changes")
	}

	grievance, err := s.getByNumber(ctx, number)
	if err != nil {
		return nil, err
	}

	roles, ok := allowedRoles(grievance.Status, input.NewStatus)
	if !ok {
		return nil, apperrors.NewStateConflict("transition not permitted", map[string]any{
			"from": grievance.Status,
			"to":   input.NewStatus,
		})
	}
	if !roleAllowed(roles, actor.Role) {
		return nil, apperrors.NewForbidden("role not permitted for this transition")
	}

	now := s.clock()
	oldStatus := grievance.Status

	if input.NewStatus == domain.GrievanceStatusResolved {
		if strings.TrimSpace(input.Note) == "" || strings.TrimSpace(input.ActionTaken) == "" {
			return nil, apperrors.NewValidationError("resolution note and action taken required", nil)
		}
		grievance.Resolution = &domain.Resolution{
			Note:        input.Note,
			ResolverID:  actor.ID,
			ResolvedAt:  now,
			ActionTaken: input.ActionTaken,
		}
	}

	grievance.Status = input.NewStatus
	// One-time auto-assignment: the first staff action claims the record.
	if grievance.AssigneeID == nil {
		assignee := actor.ID
		grievance.AssigneeID = &assignee
	}
	grievance.AuditTrail = append(grievance.AuditTrail, domain.AuditEntry{
		Status:  input.NewStatus,
		Note:    input.Note,
		ActorID: actor.ID,
		At:      now,
	})

	if err := s.update(ctx, grievance); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:         events.EventGrievanceStatusChanged,
		RecordNumber: grievance.Number,
		ActorID:      actor.ID,
		ActorRole:    actor.Role,
		Payload: events.GrievanceStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: grievance.Status,
			Note:      input.Note,
		},
	})
	return grievance, nil
}

// SubmitFeedback stores the one-time citizen rating for a resolved grievance
// and forces the status to CLOSED. The versioned update is the guard against
// a concurrent second submission: the loser's write fails the version check.
func (s *GrievanceService) SubmitFeedback(ctx context.Context, actor domain.Actor, number string, rating int, comment string) (*domain.Grievance, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"rating": rating})
	}

	grievance, err := s.getByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if grievance.Status != domain.GrievanceStatusResolved {
		return nil, apperrors.NewStateConflict("feedback allowed only while resolved", map[string]any{
			"status": grievance.Status,
		})
	}
	if actor.ID != grievance.RequesterID {
		return nil, apperrors.NewForbidden("only the requester may submit feedback")
	}

	now := s.clock()
	grievance.Feedback = &domain.Feedback{
		Rating:      rating,
		Comment:     comment,
		SubmittedAt: now,
	}
	grievance.Status = domain.GrievanceStatusClosed
	grievance.AuditTrail = append(grievance.AuditTrail, domain.AuditEntry{
		Status:  domain.GrievanceStatusClosed,
		Note:    "closed on citizen feedback",
		ActorID: actor.ID,
		At:      now,
	})

	if err := s.update(ctx, grievance); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:         events.EventFeedbackSubmitted,
		RecordNumber: grievance.Number,
		ActorID:      actor.ID,
		ActorRole:    actor.Role,
		Payload:      events.FeedbackSubmittedPayload{Rating: rating},
	})
	return grievance, nil
}

// UpdatePriority lets staff override the computed tier. The commitment
// deadline is write-once and is deliberately not recomputed.
func (s *GrievanceService) UpdatePriority(ctx context.Context, actor domain.Actor, number string, newPriority domain.GrievancePriority) (*domain.Grievance, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	switch newPriority {
	case domain.GrievancePriorityLow, domain.GrievancePriorityMedium,
		domain.GrievancePriorityHigh, domain.GrievancePriorityCritical:
	default:
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": newPriority})
	}

	grievance, err := s.getByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if grievance.Status.IsTerminal() {
		return nil, apperrors.NewStateConflict("grievance is terminal", map[string]any{"status": grievance.Status})
	}

	oldPriority := grievance.Priority
	grievance.Priority = newPriority
	grievance.AuditTrail = append(grievance.AuditTrail, domain.AuditEntry{
		Status:  grievance.Status,
		Note:    "priority changed from " + string(oldPriority) + " to " + string(newPriority),
		ActorID: actor.ID,
		At:      s.clock(),
	})

	if err := s.update(ctx, grievance); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:         events.EventGrievancePriorityChanged,
		RecordNumber: grievance.Number,
		ActorID:      actor.ID,
		ActorRole:    actor.Role,
		Payload: events.GrievancePriorityChangedPayload{
			OldPriority: oldPriority,
			NewPriority: newPriority,
		},
	})
	return grievance, nil
}

// GetForRequester fetches a grievance ensuring ownership.
func (s *GrievanceService) GetForRequester(ctx context.Context, requesterID, number string) (*domain.Grievance, error) {
	grievance, err := s.getByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if grievance.RequesterID != requesterID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return grievance, nil
}

// GetForStaff fetches a grievance for a staff actor.
func (s *GrievanceService) GetForStaff(ctx context.Context, actor domain.Actor, number string) (*domain.Grievance, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	return s.getByNumber(ctx, number)
}

// ListForRequester returns the caller's own grievances.
func (s *GrievanceService) ListForRequester(ctx context.Context, requesterID string, limit, offset int) ([]domain.Grievance, error) {
	result, err := s.grievances.ListWithFilter(ctx, repository.GrievanceFilter{
		RequesterID: &requesterID,
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// ListForStaff returns grievances matching the staff filter.
func (s *GrievanceService) ListForStaff(ctx context.Context, actor domain.Actor, filter GrievanceListFilter) ([]domain.Grievance, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	result, err := s.grievances.ListWithFilter(ctx, repository.GrievanceFilter{
		Statuses:    filter.Statuses,
		Categories:  filter.Categories,
		Department:  filter.Department,
		Ward:        filter.Ward,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

func (s *GrievanceService) getByNumber(ctx context.Context, number string) (*domain.Grievance, error) {
	grievance, err := s.grievances.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("grievance", map[string]any{"number": number})
		}
		return nil, apperrors.MapError(err)
	}
	return grievance, nil
}

func (s *GrievanceService) update(ctx context.Context, grievance *domain.Grievance) error {
	if err := s.grievances.Update(ctx, grievance, grievance.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return apperrors.NewConflict("grievance changed concurrently, retry the operation", map[string]any{
				"number": grievance.Number,
			})
		}
		return apperrors.MapError(err)
	}
	return nil
}

func (s *GrievanceService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
