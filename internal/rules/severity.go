package rules

import (
	"fmt"
	"strings"

	"github.com/spec-kit/civic-service/internal/domain"
)

const severityBaseScore = 50

// criticalInfrastructure categories get a flat score bump.
var criticalInfrastructure = map[domain.GrievanceCategory]struct{}{
	domain.CategoryWaterSupply: {},
	domain.CategoryDrainage:    {},
	domain.CategoryStreetlight: {},
}

var urgentKeywords = []string{
	"urgent",
	"emergency",
	"danger",
	"flooding",
	"accident",
	"health hazard",
}

var lowSeverityKeywords = []string{
	"minor",
	"small",
	"cosmetic",
}

// Severity is the outcome of scoring a grievance.
type Severity struct {
	Score   int
	Tier    domain.GrievancePriority
	Signals []string
}

// ScoreSeverity derives a priority tier from the category and free-text
// description. The computation is a fixed deterministic rule table: the same
// input always yields the same score, tier and signals.
//
// Keyword matches are case-insensitive substring occurrences; every
// occurrence counts. The raw score is not clamped, only the tier is bounded.
func ScoreSeverity(category domain.GrievanceCategory, description string) Severity {
	score := severityBaseScore
	var signals []string

	if _, ok := criticalInfrastructure[category]; ok {
		score += 20
		signals = append(signals, fmt.Sprintf("critical infrastructure category %s (+20)", category))
	}

	text := strings.ToLower(description)
	for _, keyword := range urgentKeywords {
		n := strings.Count(text, keyword)
		if n == 0 {
			continue
		}
		score += 15 * n
		signals = append(signals, fmt.Sprintf("urgent keyword %q x%d (+%d)", keyword, n, 15*n))
	}
	for _, keyword := range lowSeverityKeywords {
		n := strings.Count(text, keyword)
		if n == 0 {
			continue
		}
		score -= 10 * n
		signals = append(signals, fmt.Sprintf("low-severity keyword %q x%d (-%d)", keyword, n, 10*n))
	}

	return Severity{
		Score:   score,
		Tier:    tierFor(score),
		Signals: signals,
	}
}

// tierFor maps a raw score to a priority tier. Evaluation order matters:
// first matching rule wins.
func tierFor(score int) domain.GrievancePriority {
	switch {
	case score >= 80:
		return domain.GrievancePriorityCritical
	case score >= 65:
		return domain.GrievancePriorityHigh
	case score <= 30:
		return domain.GrievancePriorityLow
	default:
		return domain.GrievancePriorityMedium
	}
}
