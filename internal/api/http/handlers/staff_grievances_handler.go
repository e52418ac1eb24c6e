package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-service/internal/api/dto"
	"github.com/spec-kit/civic-service/internal/auth"
	"github.com/spec-kit/civic-service/internal/domain"
	"github.com/spec-kit/civic-service/internal/service"
	apperrors "github.com/spec-kit/civic-service/pkg/util"
)

// StaffGrievancesHandler manages staff-side grievance endpoints.
type StaffGrievancesHandler struct {
	grievances *service.GrievanceService
	reports    *service.ReportService
}

// NewStaffGrievancesHandler constructs handler.
func NewStaffGrievancesHandler(grievances *service.GrievanceService, reports *service.ReportService) *StaffGrievancesHandler {
	return &StaffGrievancesHandler{grievances: grievances, reports: reports}
}

// List GET /staff/grievances.
func (h *StaffGrievancesHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff account required")
	}
	filter := parseStaffGrievanceQuery(c)
	grievances, err := h.grievances.ListForStaff(c.Context(), principal.Actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.GrievanceSummary, 0, len(grievances))
	for i := range grievances {
		items = append(items, grievanceSummary(&grievances[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /staff/grievances/:number.
func (h *StaffGrievancesHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff account required")
	}
	grievance, err := h.grievances.GetForStaff(c.Context(), principal.Actor, c.Params("number"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grievanceDetail(grievance)})
}

// UpdateStatus POST /staff/grievances/:number/status.
func (h *StaffGrievancesHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff account required")
	}
	var req dto.StatusChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	grievance, err := h.grievances.ApplyStatus(c.Context(), principal.Actor, c.Params("number"), service.StatusChangeInput{
		NewStatus:   req.Status,
		Note:        strings.TrimSpace(req.Note),
		ActionTaken: strings.TrimSpace(req.ActionTaken),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grievanceDetail(grievance)})
}

// UpdatePriority POST /staff/grievances/:number/priority.
func (h *StaffGrievancesHandler) UpdatePriority(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff account required")
	}
	var req dto.PriorityChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	grievance, err := h.grievances.UpdatePriority(c.Context(), principal.Actor, c.Params("number"), req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grievanceDetail(grievance)})
}

// GrievanceReport GET /staff/reports/grievances.
func (h *StaffGrievancesHandler) GrievanceReport(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff account required")
	}
	summary, err := h.reports.GrievanceReport(c.Context(), principal.Actor, parseTime(c.Query("from")), parseTime(c.Query("to")))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

// CollectionReport GET /staff/reports/collections.
func (h *StaffGrievancesHandler) CollectionReport(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff account required")
	}
	summary, err := h.reports.CollectionReport(c.Context(), principal.Actor, parseTime(c.Query("from")), parseTime(c.Query("to")))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

func parseStaffGrievanceQuery(c *fiber.Ctx) service.GrievanceListFilter {
	filter := service.GrievanceListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.GrievanceStatus(strings.TrimSpace(part)))
		}
	}
	if categoryStr := c.Query("category"); categoryStr != "" {
		for _, part := range strings.Split(categoryStr, ",") {
			filter.Categories = append(filter.Categories, domain.GrievanceCategory(strings.TrimSpace(part)))
		}
	}
	if dept := c.Query("department"); dept != "" {
		d := domain.Department(dept)
		filter.Department = &d
	}
	if ward := c.Query("ward"); ward != "" {
		filter.Ward = &ward
	}
	filter.CreatedFrom = parseTime(c.Query("created_from"))
	filter.CreatedTo = parseTime(c.Query("created_to"))
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}
