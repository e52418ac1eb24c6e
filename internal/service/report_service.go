package service

import (
	"context"
	"math"
	"time"

	"github.com/spec-kit/civic-service/internal/domain"
	"github.com/spec-kit/civic-service/internal/repository"
	apperrors "github.com/spec-kit/civic-service/pkg/util"
)

// ReportService computes read-only rollups over persisted records. All
// aggregation helpers are pure functions over a snapshot; no locking.
type ReportService struct {
	grievances  repository.GrievanceRepository
	settlements repository.SettlementRepository
}

// NewReportService constructs the service.
func NewReportService(grievances repository.GrievanceRepository, settlements repository.SettlementRepository) *ReportService {
	return &ReportService{grievances: grievances, settlements: settlements}
}

// GrievanceSummary groups counts across the usual reporting dimensions.
type GrievanceSummary struct {
	ByStatus             map[domain.GrievanceStatus]int
	ByCategory           map[domain.GrievanceCategory]int
	ByWard               map[string]int
	AverageResolutionHrs int
	TotalGrievances      int
}

// CollectionSummary totals successful settlements per dimension.
type CollectionSummary struct {
	ByWard     map[string]float64
	ByCategory map[domain.SettlementCategory]float64
	Total      float64
}

// reportPageSize bounds a single repository fetch while paging; the rollup
// itself covers every matching record.
const reportPageSize = 1000

// GrievanceReport builds the grievance rollup for the given window.
func (s *ReportService) GrievanceReport(ctx context.Context, actor domain.Actor, from, to *time.Time) (*GrievanceSummary, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	records, err := s.listAllGrievances(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &GrievanceSummary{
		ByStatus:             CountByStatus(records),
		ByCategory:           CountByCategory(records),
		ByWard:               CountByWard(records),
		AverageResolutionHrs: AverageResolutionHours(records),
		TotalGrievances:      len(records),
	}, nil
}

// CollectionReport builds the monetary rollup over successful settlements in
// the given window.
func (s *ReportService) CollectionReport(ctx context.Context, actor domain.Actor, from, to *time.Time) (*CollectionSummary, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	records, err := s.listAllSettlements(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary := CollectionTotals(records)
	return &summary, nil
}

func (s *ReportService) listAllGrievances(ctx context.Context, from, to *time.Time) ([]domain.Grievance, error) {
	var all []domain.Grievance
	for offset := 0; ; offset += reportPageSize {
		page, err := s.grievances.ListWithFilter(ctx, repository.GrievanceFilter{
			CreatedFrom: from,
			CreatedTo:   to,
			Limit:       reportPageSize,
			Offset:      offset,
		})
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		all = append(all, page...)
		if len(page) < reportPageSize {
			return all, nil
		}
	}
}

func (s *ReportService) listAllSettlements(ctx context.Context, from, to *time.Time) ([]domain.Settlement, error) {
	var all []domain.Settlement
	for offset := 0; ; offset += reportPageSize {
		page, err := s.settlements.ListWithFilter(ctx, repository.SettlementFilter{
			Statuses: []domain.SettlementStatus{domain.SettlementStatusSuccess},
			PaidFrom: from,
			PaidTo:   to,
			Limit:    reportPageSize,
			Offset:   offset,
		})
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		all = append(all, page...)
		if len(page) < reportPageSize {
			return all, nil
		}
	}
}

// CountByStatus groups grievances by status.
func CountByStatus(records []domain.Grievance) map[domain.GrievanceStatus]int {
	counts := make(map[domain.GrievanceStatus]int)
	for i := range records {
		counts[records[i].Status]++
	}
	return counts
}

// CountByCategory groups grievances by category.
func CountByCategory(records []domain.Grievance) map[domain.GrievanceCategory]int {
	counts := make(map[domain.GrievanceCategory]int)
	for i := range records {
		counts[records[i].Category]++
	}
	return counts
}

// CountByWard groups grievances by ward.
func CountByWard(records []domain.Grievance) map[string]int {
	counts := make(map[string]int)
	for i := range records {
		counts[records[i].Location.Ward]++
	}
	return counts
}

// AverageResolutionHours returns the mean resolution time in whole hours
// over resolved and closed records, rounded to the nearest hour. Zero when
// no record qualifies, never NaN.
func AverageResolutionHours(records []domain.Grievance) int {
	var total time.Duration
	var count int
	for i := range records {
		g := &records[i]
		if g.Status != domain.GrievanceStatusResolved && g.Status != domain.GrievanceStatusClosed {
			continue
		}
		if g.Resolution == nil {
			continue
		}
		total += g.Resolution.ResolvedAt.Sub(g.CreatedAt)
		count++
	}
	if count == 0 {
		return 0
	}
	mean := total / time.Duration(count)
	return int(math.Round(mean.Hours()))
}

// CollectionTotals sums totals over successful settlements, grouped by ward
// and category. Non-successful records are skipped regardless of how the
// snapshot was filtered.
func CollectionTotals(records []domain.Settlement) CollectionSummary {
	summary := CollectionSummary{
		ByWard:     make(map[string]float64),
		ByCategory: make(map[domain.SettlementCategory]float64),
	}
	for i := range records {
		s := &records[i]
		if s.Status != domain.SettlementStatusSuccess {
			continue
		}
		summary.ByWard[s.Ward] += s.TotalAmount
		summary.ByCategory[s.Category] += s.TotalAmount
		summary.Total += s.TotalAmount
	}
	return summary
}
