package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-service/internal/api/dto"
	"github.com/spec-kit/civic-service/internal/auth"
	"github.com/spec-kit/civic-service/internal/domain"
	"github.com/spec-kit/civic-service/internal/service"
	apperrors "github.com/spec-kit/civic-service/pkg/util"
)

// GrievancesHandler manages citizen grievance endpoints.
type GrievancesHandler struct {
	service *service.GrievanceService
}

// NewGrievancesHandler constructs handler.
func NewGrievancesHandler(grievanceService *service.GrievanceService) *GrievancesHandler {
	return &GrievancesHandler{service: grievanceService}
}

// Create POST /grievances.
func (h *GrievancesHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Citizen == nil {
		return apperrors.NewUnauthorized("citizen account required")
	}
	var req dto.CreateGrievanceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.GrievanceCreateInput{
		Category:    req.Category,
		Kind:        req.Kind,
		Description: req.Description,
		Location: domain.Location{
			Address:   req.Address,
			Landmark:  req.Landmark,
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
			Ward:      req.Ward,
		},
		Attachments: req.Attachments,
		Department:  req.Department,
	}
	grievance, err := h.service.CreateGrievance(c.Context(), principal.Citizen.ID, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": grievanceDetail(grievance)})
}

// List GET /grievances.
func (h *GrievancesHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Citizen == nil {
		return apperrors.NewUnauthorized("citizen account required")
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	grievances, err := h.service.ListForRequester(c.Context(), principal.Citizen.ID, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.GrievanceSummary, 0, len(grievances))
	for i := range grievances {
		items = append(items, grievanceSummary(&grievances[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /grievances/:number.
func (h *GrievancesHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Citizen == nil {
		return apperrors.NewUnauthorized("citizen account required")
	}
	grievance, err := h.service.GetForRequester(c.Context(), principal.Citizen.ID, c.Params("number"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grievanceDetail(grievance)})
}

// SubmitFeedback POST /grievances/:number/feedback.
func (h *GrievancesHandler) SubmitFeedback(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Citizen == nil {
		return apperrors.NewUnauthorized("citizen account required")
	}
	var req dto.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	grievance, err := h.service.SubmitFeedback(c.Context(), principal.Actor, c.Params("number"), req.Rating, strings.TrimSpace(req.Comment))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": grievanceDetail(grievance)})
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func grievanceSummary(g *domain.Grievance) dto.GrievanceSummary {
	return dto.GrievanceSummary{
		Number:        g.Number,
		Category:      g.Category,
		Kind:          g.Kind,
		Status:        g.Status,
		Priority:      g.Priority,
		Department:    g.Department,
		Ward:          g.Location.Ward,
		CommitmentDue: g.CommitmentDue,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
}

func grievanceDetail(g *domain.Grievance) dto.GrievanceDetailResponse {
	trail := make([]dto.AuditEntryResponse, 0, len(g.AuditTrail))
	for _, entry := range g.AuditTrail {
		trail = append(trail, dto.AuditEntryResponse{
			Status:  entry.Status,
			Note:    entry.Note,
			ActorID: entry.ActorID,
			At:      entry.At,
		})
	}
	resp := dto.GrievanceDetailResponse{
		Number:          g.Number,
		Category:        g.Category,
		Kind:            g.Kind,
		Description:     g.Description,
		Address:         g.Location.Address,
		Landmark:        g.Location.Landmark,
		Ward:            g.Location.Ward,
		Attachments:     g.Attachments,
		Status:          g.Status,
		Priority:        g.Priority,
		PriorityScore:   g.PriorityScore,
		PrioritySignals: g.PrioritySignals,
		Department:      g.Department,
		CommitmentDue:   g.CommitmentDue,
		AssigneeID:      g.AssigneeID,
		AuditTrail:      trail,
		CreatedAt:       g.CreatedAt,
		UpdatedAt:       g.UpdatedAt,
	}
	if g.Resolution != nil {
		resp.Resolution = &dto.ResolutionResponse{
			Note:        g.Resolution.Note,
			ResolverID:  g.Resolution.ResolverID,
			ResolvedAt:  g.Resolution.ResolvedAt,
			ActionTaken: g.Resolution.ActionTaken,
		}
	}
	if g.Feedback != nil {
		resp.Feedback = &dto.FeedbackResponse{
			Rating:      g.Feedback.Rating,
			Comment:     g.Feedback.Comment,
			SubmittedAt: g.Feedback.SubmittedAt,
		}
	}
	return resp
}
