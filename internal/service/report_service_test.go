package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/civic-service/internal/domain"
	"github.com/spec-kit/civic-service/internal/repository"
	apperrors "github.com/spec-kit/civic-service/pkg/util"
)

func grievanceAt(status domain.GrievanceStatus, category domain.GrievanceCategory, ward string, createdAt time.Time, resolvedAfter time.Duration) domain.Grievance {
	g := domain.Grievance{
		Status:    status,
		Category:  category,
		Location:  domain.Location{Ward: ward},
		CreatedAt: createdAt,
	}
	if status == domain.GrievanceStatusResolved || status == domain.GrievanceStatusClosed {
		g.Resolution = &domain.Resolution{ResolvedAt: createdAt.Add(resolvedAfter)}
	}
	return g
}

func TestGrievanceRollups(t *testing.T) {
	records := []domain.Grievance{
		grievanceAt(domain.GrievanceStatusRegistered, domain.CategoryRoad, "W-01", testNow, 0),
		grievanceAt(domain.GrievanceStatusRegistered, domain.CategoryRoad, "W-02", testNow, 0),
		grievanceAt(domain.GrievanceStatusResolved, domain.CategoryGarbage, "W-01", testNow, 10*time.Hour),
		grievanceAt(domain.GrievanceStatusClosed, domain.CategoryGarbage, "W-01", testNow, 20*time.Hour),
	}

	byStatus := CountByStatus(records)
	if byStatus[domain.GrievanceStatusRegistered] != 2 || byStatus[domain.GrievanceStatusResolved] != 1 || byStatus[domain.GrievanceStatusClosed] != 1 {
		t.Errorf("by status = %v", byStatus)
	}
	byCategory := CountByCategory(records)
	if byCategory[domain.CategoryRoad] != 2 || byCategory[domain.CategoryGarbage] != 2 {
		t.Errorf("by category = %v", byCategory)
	}
	byWard := CountByWard(records)
	if byWard["W-01"] != 3 || byWard["W-02"] != 1 {
		t.Errorf("by ward = %v", byWard)
	}
	if got := AverageResolutionHours(records); got != 15 {
		t.Errorf("average resolution hours = %d, want 15", got)
	}
}

func TestAverageResolutionHoursEmpty(t *testing.T) {
	if got := AverageResolutionHours(nil); got != 0 {
		t.Errorf("average over no records = %d, want 0", got)
	}
	// Open records never contribute.
	records := []domain.Grievance{
		grievanceAt(domain.GrievanceStatusRegistered, domain.CategoryRoad, "W-01", testNow, 0),
		grievanceAt(domain.GrievanceStatusInProgress, domain.CategoryRoad, "W-01", testNow, 0),
	}
	if got := AverageResolutionHours(records); got != 0 {
		t.Errorf("average over open records = %d, want 0", got)
	}
}

func TestAverageResolutionHoursRounds(t *testing.T) {
	records := []domain.Grievance{
		grievanceAt(domain.GrievanceStatusResolved, domain.CategoryRoad, "W-01", testNow, 90*time.Minute),
	}
	if got := AverageResolutionHours(records); got != 2 {
		t.Errorf("90 minutes = %d hours, want 2 (rounded)", got)
	}
}

func TestCollectionTotalsSkipsNonSuccess(t *testing.T) {
	records := []domain.Settlement{
		{Status: domain.SettlementStatusSuccess, Ward: "W-01", Category: domain.SettlementCategoryPropertyTax, TotalAmount: 1000},
		{Status: domain.SettlementStatusSuccess, Ward: "W-01", Category: domain.SettlementCategoryWaterBill, TotalAmount: 250},
		{Status: domain.SettlementStatusSuccess, Ward: "W-02", Category: domain.SettlementCategoryPropertyTax, TotalAmount: 500},
		{Status: domain.SettlementStatusFailed, Ward: "W-01", Category: domain.SettlementCategoryPropertyTax, TotalAmount: 9999},
		{Status: domain.SettlementStatusRefunded, Ward: "W-02", Category: domain.SettlementCategoryWaterBill, TotalAmount: 9999},
	}

	summary := CollectionTotals(records)
	if summary.Total != 1750 {
		t.Errorf("total = %v, want 1750", summary.Total)
	}
	if summary.ByWard["W-01"] != 1250 || summary.ByWard["W-02"] != 500 {
		t.Errorf("by ward = %v", summary.ByWard)
	}
	if summary.ByCategory[domain.SettlementCategoryPropertyTax] != 1500 {
		t.Errorf("property tax total = %v, want 1500", summary.ByCategory[domain.SettlementCategoryPropertyTax])
	}
}

type pagedGrievanceRepo struct {
	fakeGrievanceRepo
	all []domain.Grievance
}

func (r *pagedGrievanceRepo) ListWithFilter(_ context.Context, filter repository.GrievanceFilter) ([]domain.Grievance, error) {
	return r.all[min(filter.Offset, len(r.all)):min(filter.Offset+filter.Limit, len(r.all))], nil
}

type pagedSettlementRepo struct {
	fakeSettlementRepo
	all []domain.Settlement
}

func (r *pagedSettlementRepo) ListWithFilter(_ context.Context, filter repository.SettlementFilter) ([]domain.Settlement, error) {
	return r.all[min(filter.Offset, len(r.all)):min(filter.Offset+filter.Limit, len(r.all))], nil
}

func TestReportsCoverEveryPage(t *testing.T) {
	const total = 2500
	grievances := &pagedGrievanceRepo{}
	for i := 0; i < total; i++ {
		grievances.all = append(grievances.all, grievanceAt(domain.GrievanceStatusRegistered, domain.CategoryRoad, "W-01", testNow, 0))
	}
	settlements := &pagedSettlementRepo{}
	for i := 0; i < total; i++ {
		settlements.all = append(settlements.all, domain.Settlement{
			Status: domain.SettlementStatusSuccess, Ward: "W-01",
			Category: domain.SettlementCategoryPropertyTax, TotalAmount: 1,
		})
	}

	svc := NewReportService(grievances, settlements)
	agent := domain.Actor{ID: "staff-1", Role: domain.RoleFieldAgent}

	summary, err := svc.GrievanceReport(context.Background(), agent, nil, nil)
	if err != nil {
		t.Fatalf("GrievanceReport: %v", err)
	}
	if summary.TotalGrievances != total {
		t.Errorf("total grievances = %d, want %d across pages", summary.TotalGrievances, total)
	}

	collections, err := svc.CollectionReport(context.Background(), agent, nil, nil)
	if err != nil {
		t.Fatalf("CollectionReport: %v", err)
	}
	if collections.Total != total {
		t.Errorf("collection total = %v, want %d across pages", collections.Total, total)
	}
}

func TestReportsRequireStaff(t *testing.T) {
	svc := NewReportService(newFakeGrievanceRepo(), newFakeSettlementRepo())
	citizen := domain.Actor{ID: "citizen-1", Role: domain.RoleCitizen}

	if _, err := svc.GrievanceReport(context.Background(), citizen, nil, nil); !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Fatalf("err = %v, want FORBIDDEN", err)
	}
	if _, err := svc.CollectionReport(context.Background(), citizen, nil, nil); !apperrors.IsCode(err, apperrors.CodeForbidden) {
		t.Fatalf("err = %v, want FORBIDDEN", err)
	}

	agent := domain.Actor{ID: "staff-1", Role: domain.RoleFieldAgent}
	summary, err := svc.GrievanceReport(context.Background(), agent, nil, nil)
	if err != nil {
		t.Fatalf("GrievanceReport: %v", err)
	}
	if summary.TotalGrievances != 0 {
		t.Errorf("total = %d, want 0 on empty store", summary.TotalGrievances)
	}
}
