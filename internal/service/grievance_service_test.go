package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civic-service/internal/domain"
	"github.com/spec-kit/civic-service/internal/identifier"
	"github.com/spec-kit/civic-service/internal/repository"
	apperrors "github.com/spec-kit/civic-service/pkg/util"
)

type fakeGrievanceRepo struct {
	mu      sync.Mutex
	records map[string]domain.Grievance
	nextID  int
}

func newFakeGrievanceRepo() *fakeGrievanceRepo {
	return &fakeGrievanceRepo{records: make(map[string]domain.Grievance)}
}

func (r *fakeGrievanceRepo) Create(_ context.Context, g *domain.Grievance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	g.ID = fmt.Sprintf("id-%d", r.nextID)
	g.Version = 1
	g.CreatedAt = time.Now()
	g.UpdatedAt = g.CreatedAt
	r.records[g.Number] = *g
	return nil
}

func (r *fakeGrievanceRepo) Update(_ context.Context, g *domain.Grievance, expectedVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.records[g.Number]
	if !ok || stored.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	g.Version = expectedVersion + 1
	g.UpdatedAt = time.Now()
	r.records[g.Number] = *g
	return nil
}

func (r *fakeGrievanceRepo) GetByNumber(_ context.Context, number string) (*domain.Grievance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.records[number]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := stored
	return &copied, nil
}

func (r *fakeGrievanceRepo) ListWithFilter(_ context.Context, filter repository.GrievanceFilter) ([]domain.Grievance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Grievance
	for _, g := range r.records {
		if filter.RequesterID != nil && g.RequesterID != *filter.RequesterID {
			continue
		}
		result = append(result, g)
	}
	return result, nil
}

func newTestGrievanceService(repo repository.GrievanceRepository, clock func() time.Time) *GrievanceService {
	return NewGrievanceService(GrievanceDependencies{
		GrievanceRepo: repo,
		Numbers:       identifier.NewGenerator(identifier.NewMemorySequencer()),
		Clock:         clock,
	})
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func validCreateInput() GrievanceCreateInput {
	return GrievanceCreateInput{
		Category:    domain.CategoryGarbage,
		Description: "overflowing bin at the corner",
		Location:    domain.Location{Address: "12 Main St", Ward: "W-07"},
	}
}

func TestCreateGrievanceIntake(t *testing.T) {
	repo := newFakeGrievanceRepo()
	svc := newTestGrievanceService(repo, fixedClock(testNow))

	input := GrievanceCreateInput{
		Category:    domain.CategoryWaterSupply,
		Description: "flooding near the pump house, emergency",
		Location:    domain.Location{Address: "12 Main St", Ward: "W-07"},
	}
	g, err := svc.CreateGrievance(context.Background(), "citizen-1", input)
	if err != nil {
		t.Fatalf("CreateGrievance: %v", err)
	}

	if !strings.HasPrefix(g.Number, "GRV-202603-") {
		t.Errorf("number = %q, want GRV-202603- prefix", g.Number)
	}
	if g.Status != domain.GrievanceStatusRegistered {
		t.Errorf("status = %s, want REGISTERED", g.Status)
	}
	if g.Priority != domain.GrievancePriorityCritical {
		t.Errorf("priority = %s, want CRITICAL", g.Priority)
	}
	if g.PriorityScore != 100 {
		t.Errorf("score = %d, want 100", g.PriorityScore)
	}
	if g.Department != domain.DepartmentWater {
		t.Errorf("department = %s, want WATER", g.Department)
	}
	if want := testNow.AddDate(0, 0, 1); !g.CommitmentDue.Equal(want) {
		t.Errorf("commitment due = %v, want %v", g.CommitmentDue, want)
	}
	if g.Kind != domain.KindComplaint {
		t.Errorf("kind = %s, want COMPLAINT default", g.Kind)
	}
	if len(g.AuditTrail) != 1 || g.AuditTrail[0].Status != domain.GrievanceStatusRegistered {
		t.Errorf("audit trail = %+v, want single REGISTERED entry", g.AuditTrail)
	}
	if g.Version != 1 {
		t.Errorf("version = %d, want 1", g.Version)
	}
}

func TestCreateGrievanceApplicationDeadline(t *testing.T) {
	repo := newFakeGrievanceRepo()
	svc := newTestGrievanceService(repo, fixedClock(testNow))

	input := validCreateInput()
	input.Kind = domain.KindApplication
	g, err := svc.CreateGrievance(context.Background(), "citizen-1", input)
	if err != nil {
		t.Fatalf("CreateGrievance: %v", err)
	}
	// Application deadline comes from the category table, not the priority tier.
	if want := testNow.AddDate(0, 0, 2); !g.CommitmentDue.Equal(want) {
		t.Errorf("commitment due = %v, want %v", g.CommitmentDue, want)
	}
}

func TestCreateGrievanceOmittedOptionalFields(t *testing.T) {
	svc := newTestGrievanceService(newFakeGrievanceRepo(), fixedClock(testNow))

	// No landmark, no attachments, and a description with no scoring keywords.
	g, err := svc.CreateGrievance(context.Background(), "citizen-1", validCreateInput())
	if err != nil {
		t.Fatalf("CreateGrievance: %v", err)
	}
	// Nil slices would reach the store as SQL NULL and violate the not-null
	// array columns; the service must hand the repository empty slices.
	if g.Attachments == nil {
		t.Error("attachments is nil, want empty slice")
	}
	if g.PrioritySignals == nil {
		t.Error("priority signals is nil, want empty slice")
	}
	if len(g.PrioritySignals) != 0 {
		t.Errorf("priority signals = %v, want none for plain description", g.PrioritySignals)
	}
	if g.Location.Landmark != nil {
		t.Errorf("landmark = %v, want nil preserved", *g.Location.Landmark)
	}
}

func TestCreateGrievanceValidation(t *testing.T) {
	svc := newTestGrievanceService(newFakeGrievanceRepo(), fixedClock(testNow))

	tests := []struct {
		name   string
		mutate func(*GrievanceCreateInput)
	}{
		{"invalid category", func(in *GrievanceCreateInput) { in.Category = "POTHOLES" }},
		{"empty description", func(in *GrievanceCreateInput) { in.Description = "   " }},
		{"missing address", func(in *GrievanceCreateInput) { in.Location.Address = "" }},
		{"missing ward", func(in *GrievanceCreateInput) { in.Location.Ward = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validCreateInput()
			tt.mutate(&input)
			if _, err := svc.CreateGrievance(context.Background(), "citizen-1", input); !apperrors.IsCode(err, apperrors.CodeValidationFailed) {
				t.Fatalf("err = %v, want VALIDATION_FAILED", err)
			}
		})
	}
}

func TestCreateGrievanceDepartmentOverride(t *testing.T) {
	svc := newTestGrievanceService(newFakeGrievanceRepo(), fixedClock(testNow))

	input := validCreateInput()
	input.Category = domain.CategoryDrainage
	input.Department = domain.DepartmentEnforcement
	g, err := svc.CreateGrievance(context.Background(), "citizen-1", input)
	if err != nil {
		t.Fatalf("CreateGrievance: %v", err)
	}
	if g.Department != domain.DepartmentEnforcement {
		t.Errorf("department = %s, want ENFORCEMENT override preserved", g.Department)
	}
}

func registerGrievance(t *testing.T, svc *GrievanceService, requesterID string) *domain.Grievance {
	t.Helper()
	g, err := svc.CreateGrievance(context.Background(), requesterID, validCreateInput())
	if err != nil {
		t.Fatalf("CreateGrievance: %v", err)
	}
	return g
}

func advanceTo(t *testing.T, svc *GrievanceService, number string, actor domain.Actor, statuses ...domain.GrievanceStatus) *domain.Grievance {
	t.Helper()
	var g *domain.Grievance
	var err error
	for _, status := range statuses {
		input := StatusChangeInput{NewStatus: status, Note: "step"}
		if status == domain.GrievanceStatusResolved {
			input.Note = "fixed"
			input.ActionTaken = "replaced bin"
		}
		g, err = svc.ApplyStatus(context.Background(), actor, number, input)
		if err != nil {
			t.Fatalf("ApplyStatus(%s): %v", status, err)
		}
	}
	return g
}

func TestApplyStatusTransitions(t *testing.T) {
	agent := domain.Actor{ID: "staff-1", Role: domain.RoleFieldAgent}
	supervisor := domain.Actor{ID: "staff-2", Role: domain.RoleSupervisor}

	tests := []struct {
		name     string
		setup    []domain.GrievanceStatus
		actor    domain.Actor
		to       domain.GrievanceStatus
		wantCode string
	}{
		{"registered to assigned", nil, agent, domain.GrievanceStatusAssigned, ""},
		{"registered to resolved skips steps", nil, agent, domain.GrievanceStatusResolved, apperrors.CodeStateConflict},
		{"registered to closed", nil, supervisor, domain.GrievanceStatusClosed, apperrors.CodeStateConflict},
		{"assigned to in progress", []domain.GrievanceStatus{domain.GrievanceStatusAssigned}, agent, domain.GrievanceStatusInProgress, ""},
		{"in progress to resolved", []domain.GrievanceStatus{domain.GrievanceStatusAssigned, domain.GrievanceStatusInProgress}, agent, domain.GrievanceStatusResolved, ""},
		{"resolved to closed needs supervisor", []domain.GrievanceStatus{domain.GrievanceStatusAssigned, domain.GrievanceStatusInProgress, domain.GrievanceStatusResolved}, agent, domain.GrievanceStatusClosed, apperrors.CodeForbidden},
		{"resolved to closed by supervisor", []domain.GrievanceStatus{domain.GrievanceStatusAssigned, domain.GrievanceStatusInProgress, domain.GrievanceStatusResolved}, supervisor, domain.GrievanceStatusClosed, ""},
		{"reject needs supervisor", nil, agent, domain.GrievanceStatusRejected, apperrors.CodeForbidden},
		{"reject by supervisor", nil, supervisor, domain.GrievanceStatusRejected, ""},
		{"rejected is terminal", []domain.GrievanceStatus{domain.GrievanceStatusRejected}, supervisor, domain.GrievanceStatusAssigned, apperrors.CodeStateConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestGrievanceService(newFakeGrievanceRepo(), fixedClock(testNow))
			g := registerGrievance(t, svc, "citizen-1")
			if len(tt.setup) > 0 {
				advanceTo(t, svc, g.Number, supervisor, tt.setup...)
			}

			input := StatusChangeInput{NewStatus: tt.to, Note: "note", ActionTaken: "action"}
			_, err := svc.ApplyStatus(context.Background(), tt.actor, g.Number, input)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("ApplyStatus: %v", err)
				}
				return
			}
			if !apperrors.IsCode(err, tt.wantCode) {
				t.Fatalf("err = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestApplyStatusRejectsCitizens(t *testing.T) {
	svc := newTestGrievanceService(newFakeGrievanceRepo(), fixedClock(testNow))
	g := registerGrievance(t, svc, "citizen-1")

	citizen := domain.Actor{ID: "citizen-1", Role: domain.RoleCitizen}
	_, err := svc.ApplyStatus(context.Background(), citizen, g.Number, StatusChangeInput{NewStatus: domain.GrievanceStatusAssigned})
	if !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Fatalf("err = %v, want FORBIDDEN", err)
	}
}

func TestApplyStatusResolutionRequired(t *testing.T) {
	svc := newTestGrievanceService(newFakeGrievanceRepo(), fixedClock(testNow))
	agent := domain.Actor{ID: "staff-1", Role: domain.RoleFieldAgent}
	g := registerGrievance(t, svc, "citizen-1")
	advanceTo(t, svc, g.Number, agent, domain.GrievanceStatusAssigned, domain.GrievanceStatusInProgress)

	_, err := svc.ApplyStatus(context.Background(), agent, g.Number, StatusChangeInput{
		NewStatus: domain.GrievanceStatusResolved,
		Note:      "fixed",
	})
	if !apperrors.IsCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("err = %v, want VALIDATION_FAILED without action taken", err)
	}

	resolved, err := svc.ApplyStatus(context.Background(), agent, g.Number, StatusChangeInput{
		NewStatus:   domain.GrievanceStatusResolved,
		Note:        "fixed",
		ActionTaken: "replaced bin",
	})
	if err != nil {
		t.Fatalf("ApplyStatus: %v", err)
	}
	if resolved.Resolution == nil || resolved.Resolution.ResolverID != agent.ID {
		t.Fatalf("resolution = %+v, want resolver %s", resolved.Resolution, agent.ID)
	}
}

func TestApplyStatusAutoAssignOnce(t *testing.T) {
	svc := newTestGrievanceService(newFakeGrievanceRepo(), fixedClock(testNow))
	first := domain.Actor{ID: "staff-1", Role: domain.RoleFieldAgent}
	second := domain.Actor{ID: "staff-2", Role: domain.RoleFieldAgent}
	g := registerGrievance(t, svc, "citizen-1")

	assigned, err := svc.ApplyStatus(context.Background(), first, g.Number, StatusChangeInput{NewStatus: domain.GrievanceStatusAssigned})
	if err != nil {
		t.Fatalf("ApplyStatus: %v", err)
	}
	if assigned.AssigneeID == nil || *assigned.AssigneeID != first.ID {
		t.Fatalf("assignee = %v, want %s", assigned.AssigneeID, first.ID)
	}

	progressed, err := svc.ApplyStatus(context.Background(), second, g.Number, StatusChangeInput{NewStatus: domain.GrievanceStatusInProgress})
	if err != nil {
		t.Fatalf("ApplyStatus: %v", err)
	}
	if *progressed.AssigneeID != first.ID {
		t.Fatalf("assignee changed to %s, want first claimer %s kept", *progressed.AssigneeID, first.ID)
	}
	if len(progressed.AuditTrail) != 3 {
		t.Fatalf("audit trail length = %d, want 3", len(progressed.AuditTrail))
	}
}

func TestSubmitFeedback(t *testing.T) {
	svc := newTestGrievanceService(newFakeGrievanceRepo(), fixedClock(testNow))
	agent := domain.Actor{ID: "staff-1", Role: domain.RoleFieldAgent}
	requester := domain.Actor{ID: "citizen-1", Role: domain.RoleCitizen}

	g := registerGrievance(t, svc, "citizen-1")

	// Feedback before resolution is a state conflict.
	if _, err := svc.SubmitFeedback(context.Background(), requester, g.Number, 4, "ok"); !apperrors.IsCode(err, apperrors.CodeStateConflict) {
		t.Fatalf("err = %v, want STATE_CONFLICT before resolution", err)
	}

	advanceTo(t, svc, g.Number, agent,
		domain.GrievanceStatusAssigned, domain.GrievanceStatusInProgress, domain.GrievanceStatusResolved)

	if _, err := svc.SubmitFeedback(context.Background(), requester, g.Number, 0, ""); !apperrors.IsCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("err = %v, want VALIDATION_FAILED for rating 0", err)
	}
	stranger := domain.Actor{ID: "citizen-2", Role: domain.RoleCitizen}
	if _, err := svc.SubmitFeedback(context.Background(), stranger, g.Number, 4, ""); !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Fatalf("err = %v, want FORBIDDEN for non-requester", err)
	}

	closed, err := svc.SubmitFeedback(context.Background(), requester, g.Number, 5, "great work")
	if err != nil {
		t.Fatalf("SubmitFeedback: %v", err)
	}
	if closed.Status != domain.GrievanceStatusClosed {
		t.Errorf("status = %s, want CLOSED after feedback", closed.Status)
	}
	if closed.Feedback == nil || closed.Feedback.Rating != 5 {
		t.Errorf("feedback = %+v, want rating 5", closed.Feedback)
	}

	// Second submission finds the record CLOSED.
	if _, err := svc.SubmitFeedback(context.Background(), requester, g.Number, 3, "again"); !apperrors.IsCode(err, apperrors.CodeStateConflict) {
		t.Fatalf("err = %v, want STATE_CONFLICT on second submission", err)
	}
}

func TestUpdatePriorityKeepsDeadline(t *testing.T) {
	svc := newTestGrievanceService(newFakeGrievanceRepo(), fixedClock(testNow))
	supervisor := domain.Actor{ID: "staff-2", Role: domain.RoleSupervisor}
	g := registerGrievance(t, svc, "citizen-1")
	originalDue := g.CommitmentDue

	updated, err := svc.UpdatePriority(context.Background(), supervisor, g.Number, domain.GrievancePriorityCritical)
	if err != nil {
		t.Fatalf("UpdatePriority: %v", err)
	}
	if updated.Priority != domain.GrievancePriorityCritical {
		t.Errorf("priority = %s, want CRITICAL", updated.Priority)
	}
	if !updated.CommitmentDue.Equal(originalDue) {
		t.Errorf("commitment due changed to %v, want unchanged %v", updated.CommitmentDue, originalDue)
	}

	if _, err := svc.UpdatePriority(context.Background(), supervisor, g.Number, "URGENT"); !apperrors.IsCode(err, apperrors.CodeValidationFailed) {
		t.Fatalf("err = %v, want VALIDATION_FAILED for unknown priority", err)
	}

	advanceTo(t, svc, g.Number, supervisor, domain.GrievanceStatusRejected)
	if _, err := svc.UpdatePriority(context.Background(), supervisor, g.Number, domain.GrievancePriorityLow); !apperrors.IsCode(err, apperrors.CodeStateConflict) {
		t.Fatalf("err = %v, want STATE_CONFLICT on terminal record", err)
	}
}

type conflictingGrievanceRepo struct {
	*fakeGrievanceRepo
}

func (r *conflictingGrievanceRepo) Update(context.Context, *domain.Grievance, int) error {
	return repository.ErrVersionConflict
}

func TestVersionConflictMapsToConflict(t *testing.T) {
	repo := newFakeGrievanceRepo()
	svc := newTestGrievanceService(repo, fixedClock(testNow))
	g := registerGrievance(t, svc, "citizen-1")

	conflicting := newTestGrievanceService(&conflictingGrievanceRepo{repo}, fixedClock(testNow))
	supervisor := domain.Actor{ID: "staff-2", Role: domain.RoleSupervisor}
	_, err := conflicting.UpdatePriority(context.Background(), supervisor, g.Number, domain.GrievancePriorityHigh)
	if !apperrors.IsCode(err, apperrors.CodeConflict) {
		t.Fatalf("err = %v, want CONFLICT on stale version", err)
	}
}

func TestGetForRequesterOwnership(t *testing.T) {
	svc := newTestGrievanceService(newFakeGrievanceRepo(), fixedClock(testNow))
	g := registerGrievance(t, svc, "citizen-1")

	if _, err := svc.GetForRequester(context.Background(), "citizen-2", g.Number); !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Fatalf("err = %v, want FORBIDDEN for foreign requester", err)
	}
	if _, err := svc.GetForRequester(context.Background(), "citizen-1", "GRV-000000-000000"); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
	got, err := svc.GetForRequester(context.Background(), "citizen-1", g.Number)
	if err != nil {
		t.Fatalf("GetForRequester: %v", err)
	}
	if got.Number != g.Number {
		t.Fatalf("number = %s, want %s", got.Number, g.Number)
	}
}
