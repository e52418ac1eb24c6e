package rules

import (
	"testing"

	"github.com/spec-kit/civic-service/internal/domain"
)

func TestScoreSeverity(t *testing.T) {
	cases := []struct {
		name     string
		category domain.GrievanceCategory
		text     string
		score    int
		tier     domain.GrievancePriority
	}{
		{"base score only", domain.CategoryRoad, "pothole on main street", 50, domain.GrievancePriorityMedium},
		{"critical infra plus two urgent keywords", domain.CategoryWaterSupply, "flooding near school, emergency", 100, domain.GrievancePriorityCritical},
		{"two low keywords hit the low boundary", domain.CategoryGarbage, "minor issue, small crack", 30, domain.GrievancePriorityLow},
		{"critical infra alone stays medium", domain.CategoryDrainage, "blocked drain", 70, domain.GrievancePriorityHigh},
		{"single urgent keyword", domain.CategoryRoad, "urgent repair needed", 65, domain.GrievancePriorityHigh},
		{"repeated keyword counts every occurrence", domain.CategoryRoad, "danger danger", 80, domain.GrievancePriorityCritical},
		{"streetlight is critical infrastructure", domain.CategoryStreetlight, "lamp out", 70, domain.GrievancePriorityHigh},
		{"keywords case-insensitive", domain.CategoryRoad, "URGENT! Accident site", 80, domain.GrievancePriorityCritical},
		{"mixed urgent and low", domain.CategoryRoad, "urgent but minor", 55, domain.GrievancePriorityMedium},
		{"unclamped below zero maps to low", domain.CategoryRoad, "minor minor minor minor minor minor", -10, domain.GrievancePriorityLow},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreSeverity(tt.category, tt.text)
			if got.Score != tt.score {
				t.Fatalf("ScoreSeverity(%q, %q).Score=%d, want %d", tt.category, tt.text, got.Score, tt.score)
			}
			if got.Tier != tt.tier {
				t.Fatalf("ScoreSeverity(%q, %q).Tier=%s, want %s", tt.category, tt.text, got.Tier, tt.tier)
			}
		})
	}
}

func TestScoreSeverityTierBoundaries(t *testing.T) {
	cases := []struct {
		score int
		tier  domain.GrievancePriority
	}{
		{80, domain.GrievancePriorityCritical},
		{79, domain.GrievancePriorityHigh},
		{65, domain.GrievancePriorityHigh},
		{64, domain.GrievancePriorityMedium},
		{31, domain.GrievancePriorityMedium},
		{30, domain.GrievancePriorityLow},
		{0, domain.GrievancePriorityLow},
	}
	for _, tt := range cases {
		if got := tierFor(tt.score); got != tt.tier {
			t.Fatalf("tierFor(%d)=%s, want %s", tt.score, got, tt.tier)
		}
	}
}

func TestScoreSeverityIsDeterministic(t *testing.T) {
	first := ScoreSeverity(domain.CategoryWaterSupply, "flooding emergency near the market")
	for i := 0; i < 10; i++ {
		again := ScoreSeverity(domain.CategoryWaterSupply, "flooding emergency near the market")
		if again.Score != first.Score || again.Tier != first.Tier || len(again.Signals) != len(first.Signals) {
			t.Fatalf("scoring not deterministic: %+v vs %+v", again, first)
		}
	}
}

func TestScoreSeverityRecordsSignals(t *testing.T) {
	got := ScoreSeverity(domain.CategoryDrainage, "flooding, urgent")
	// one signal for the category, one per matched keyword
	if len(got.Signals) != 3 {
		t.Fatalf("expected 3 signals, got %d: %v", len(got.Signals), got.Signals)
	}
}
