package rules

import (
	"time"

	"github.com/spec-kit/civic-service/internal/domain"
)

// Response-commitment day offsets for complaints, keyed by priority tier.
var commitmentDaysByPriority = map[domain.GrievancePriority]int{
	domain.GrievancePriorityCritical: 1,
	domain.GrievancePriorityHigh:     3,
	domain.GrievancePriorityMedium:   7,
	domain.GrievancePriorityLow:      15,
}

// Commitment day offsets for service applications, keyed by category.
var commitmentDaysByCategory = map[domain.GrievanceCategory]int{
	domain.CategoryWaterSupply:       7,
	domain.CategoryDrainage:          7,
	domain.CategoryStreetlight:       3,
	domain.CategoryRoad:              30,
	domain.CategoryGarbage:           2,
	domain.CategorySanitation:        5,
	domain.CategoryEncroachment:      45,
	domain.CategoryBuildingViolation: 60,
}

const defaultCommitmentDays = 15

// CommitmentDue returns the response-commitment deadline for a complaint.
// It is computed once at intake; later priority changes never recompute it.
func CommitmentDue(priority domain.GrievancePriority, createdAt time.Time) time.Time {
	days, ok := commitmentDaysByPriority[priority]
	if !ok {
		days = defaultCommitmentDays
	}
	return createdAt.AddDate(0, 0, days)
}

// CommitmentDueByCategory returns the deadline for a service application.
func CommitmentDueByCategory(category domain.GrievanceCategory, createdAt time.Time) time.Time {
	days, ok := commitmentDaysByCategory[category]
	if !ok {
		days = defaultCommitmentDays
	}
	return createdAt.AddDate(0, 0, days)
}

// Adjustment holds the early-payment discount and late-payment penalty for a
// settlement. The two are computed independently; the caller combines them
// as total = base - discount + penalty.
type Adjustment struct {
	Discount float64
	Penalty  float64
}

// SettlementAdjustment computes discount and penalty tiers from how many
// whole days early or late a payment lands relative to its due date.
//
// Day deltas use floor truncation of the timestamp difference, not calendar
// days, so tier edges are timezone-independent.
func SettlementAdjustment(dueDate, now time.Time, amount float64) Adjustment {
	daysEarly := wholeDays(dueDate.Sub(now))
	daysLate := wholeDays(now.Sub(dueDate))

	var adj Adjustment
	switch {
	case daysEarly >= 30:
		adj.Discount = amount * 0.05
	case daysEarly >= 15:
		adj.Discount = amount * 0.03
	case daysEarly >= 7:
		adj.Discount = amount * 0.01
	}
	switch {
	case daysLate <= 0:
		// no penalty
	case daysLate <= 30:
		adj.Penalty = amount * 0.02
	case daysLate <= 60:
		adj.Penalty = amount * 0.05
	case daysLate <= 90:
		adj.Penalty = amount * 0.10
	default:
		adj.Penalty = amount * 0.18
	}
	return adj
}

// wholeDays floors a duration to whole days, rounding toward negative
// infinity so that -1h counts as day -1, not day 0.
func wholeDays(d time.Duration) int {
	day := 24 * time.Hour
	n := d / day
	if d%day < 0 {
		n--
	}
	return int(n)
}
