package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-service/internal/api/dto"
	"github.com/spec-kit/civic-service/internal/auth"
	"github.com/spec-kit/civic-service/internal/domain"
	"github.com/spec-kit/civic-service/internal/service"
	apperrors "github.com/spec-kit/civic-service/pkg/util"
)

// SettlementsHandler manages payment endpoints.
type SettlementsHandler struct {
	service *service.SettlementService
}

// NewSettlementsHandler constructs handler.
func NewSettlementsHandler(settlementService *service.SettlementService) *SettlementsHandler {
	return &SettlementsHandler{service: settlementService}
}

// Initiate POST /settlements.
func (h *SettlementsHandler) Initiate(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Citizen == nil {
		return apperrors.NewUnauthorized("citizen account required")
	}
	var req dto.InitiateSettlementRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	settlement, err := h.service.Initiate(c.Context(), principal.Citizen.ID, service.SettlementInitiateInput{
		Category:   req.Category,
		Ward:       req.Ward,
		BaseAmount: req.BaseAmount,
		DueDate:    req.DueDate,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": settlementResponse(settlement)})
}

// List GET /settlements.
func (h *SettlementsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Citizen == nil {
		return apperrors.NewUnauthorized("citizen account required")
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	settlements, err := h.service.ListForPayer(c.Context(), principal.Citizen.ID, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.SettlementResponse, 0, len(settlements))
	for i := range settlements {
		items = append(items, settlementResponse(&settlements[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /settlements/:id.
func (h *SettlementsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Citizen == nil {
		return apperrors.NewUnauthorized("citizen account required")
	}
	settlement, err := h.service.GetForPayer(c.Context(), principal.Citizen.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": settlementResponse(settlement)})
}

// MarkPending POST /gateway/settlements/:id/pending. Invoked when the payment
// gateway opens an order for the settlement.
func (h *SettlementsHandler) MarkPending(c *fiber.Ctx) error {
	settlement, err := h.service.MarkPending(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": settlementResponse(settlement)})
}

// Confirm POST /gateway/settlements/:id/confirm. The gateway signature has already
// been verified by the payment middleware upstream; only the boolean outcome
// reaches the engine.
func (h *SettlementsHandler) Confirm(c *fiber.Ctx) error {
	var req dto.ConfirmSettlementRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	settlement, err := h.service.Confirm(c.Context(), c.Params("id"), req.Verified)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": settlementResponse(settlement)})
}

// Refund POST /staff/settlements/:id/refund.
func (h *SettlementsHandler) Refund(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return apperrors.NewUnauthorized("staff account required")
	}
	settlement, err := h.service.Refund(c.Context(), principal.Actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": settlementResponse(settlement)})
}

func settlementResponse(s *domain.Settlement) dto.SettlementResponse {
	return dto.SettlementResponse{
		TransactionID: s.TransactionID,
		Category:      s.Category,
		Ward:          s.Ward,
		BaseAmount:    s.BaseAmount,
		Discount:      s.Discount,
		Penalty:       s.Penalty,
		TotalAmount:   s.TotalAmount,
		Status:        s.Status,
		DueDate:       s.DueDate,
		ReceiptNumber: s.ReceiptNumber,
		PaidAt:        s.PaidAt,
		CreatedAt:     s.CreatedAt,
	}
}
