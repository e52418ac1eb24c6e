package rules

import (
	"testing"

	"github.com/spec-kit/civic-service/internal/domain"
)

func TestRouteDepartment(t *testing.T) {
	cases := []struct {
		category domain.GrievanceCategory
		existing domain.Department
		want     domain.Department
	}{
		{domain.CategoryRoad, "", domain.DepartmentRoads},
		{domain.CategoryWaterSupply, "", domain.DepartmentWater},
		{domain.CategoryDrainage, "", domain.DepartmentWater},
		{domain.CategoryStreetlight, "", domain.DepartmentElectrical},
		{domain.CategoryGarbage, "", domain.DepartmentSanitation},
		{domain.CategorySanitation, "", domain.DepartmentSanitation},
		{domain.CategoryEncroachment, "", domain.DepartmentEnforcement},
		{domain.CategoryBuildingViolation, "", domain.DepartmentEnforcement},
		{domain.CategoryOther, "", domain.DepartmentGeneral},
		// default department gets rerouted
		{domain.CategoryDrainage, domain.DepartmentGeneral, domain.DepartmentWater},
		// manual override preserved verbatim, never rerouted
		{domain.CategoryDrainage, "LEGAL", "LEGAL"},
		{domain.CategoryRoad, domain.DepartmentSanitation, domain.DepartmentSanitation},
	}

	for _, tt := range cases {
		if got := RouteDepartment(tt.category, tt.existing); got != tt.want {
			t.Fatalf("RouteDepartment(%q, %q)=%q, want %q", tt.category, tt.existing, got, tt.want)
		}
	}
}
