package rules

import "github.com/spec-kit/civic-service/internal/domain"

var departmentByCategory = map[domain.GrievanceCategory]domain.Department{
	domain.CategoryRoad:              domain.DepartmentRoads,
	domain.CategoryWaterSupply:       domain.DepartmentWater,
	domain.CategoryDrainage:          domain.DepartmentWater,
	domain.CategoryStreetlight:       domain.DepartmentElectrical,
	domain.CategoryGarbage:           domain.DepartmentSanitation,
	domain.CategorySanitation:        domain.DepartmentSanitation,
	domain.CategoryEncroachment:      domain.DepartmentEnforcement,
	domain.CategoryBuildingViolation: domain.DepartmentEnforcement,
}

// RouteDepartment maps a category to its handling department.
//
// Routing applies only when the existing department is empty or the default;
// a caller-supplied non-default department is a manual dispatch override and
// is preserved verbatim.
func RouteDepartment(category domain.GrievanceCategory, existing domain.Department) domain.Department {
	if existing != "" && existing != domain.DepartmentGeneral {
		return existing
	}
	if dept, ok := departmentByCategory[category]; ok {
		return dept
	}
	return domain.DepartmentGeneral
}
