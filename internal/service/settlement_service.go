package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civic-service/internal/domain"
	"github.com/spec-kit/civic-service/internal/events"
	"github.com/spec-kit/civic-service/internal/identifier"
	"github.com/spec-kit/civic-service/internal/repository"
	"github.com/spec-kit/civic-service/internal/rules"
	apperrors "github.com/spec-kit/civic-service/pkg/util"
)

// SettlementService coordinates tax and utility bill payments.
type SettlementService struct {
	settlements repository.SettlementRepository
	numbers     *identifier.Generator
	dispatcher  events.Dispatcher
	clock       func() time.Time
}

// SettlementDependencies bundles collaborators for the settlement service.
type SettlementDependencies struct {
	SettlementRepo repository.SettlementRepository
	Numbers        *identifier.Generator
	Dispatcher     events.Dispatcher
	Clock          func() time.Time
}

// SettlementInitiateInput describes a payment initiation payload.
type SettlementInitiateInput struct {
	Category   domain.SettlementCategory
	Ward       string
	BaseAmount float64
	DueDate    time.Time
}

// NewSettlementService constructs the service.
func NewSettlementService(deps SettlementDependencies) *SettlementService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &SettlementService{
		settlements: deps.SettlementRepo,
		numbers:     deps.Numbers,
		dispatcher:  deps.Dispatcher,
		clock:       clock,
	}
}

var validSettlementCategories = func() map[domain.SettlementCategory]struct{} {
	set := make(map[domain.SettlementCategory]struct{})
	for _, c := range domain.SettlementCategories() {
		set[c] = struct{}{}
	}
	return set
}()

// Initiate creates a settlement record with the early/late adjustment
// applied relative to the due date. The gateway order itself is the payment
// provider's concern; this only records the obligation.
func (s *SettlementService) Initiate(ctx context.Context, payerID string, input SettlementInitiateInput) (*domain.Settlement, error) {
	if _, ok := validSettlementCategories[input.Category]; !ok {
		return nil, apperrors.NewValidationError("invalid settlement category", map[string]any{"category": input.Category})
	}
	if input.BaseAmount <= 0 {
		return nil, apperrors.NewValidationError("base amount must be positive", map[string]any{"base_amount": input.BaseAmount})
	}
	if strings.TrimSpace(input.Ward) == "" {
		return nil, apperrors.NewValidationError("ward required", nil)
	}
	if input.DueDate.IsZero() {
		return nil, apperrors.NewValidationError("due date required", nil)
	}

	now := s.clock()
	adj := rules.SettlementAdjustment(input.DueDate, now, input.BaseAmount)

	settlement := &domain.Settlement{
		TransactionID: s.numbers.TransactionID(now),
		PayerID:       payerID,
		Category:      input.Category,
		Ward:          input.Ward,
		BaseAmount:    input.BaseAmount,
		Discount:      adj.Discount,
		Penalty:       adj.Penalty,
		Status:        domain.SettlementStatusInitiated,
		DueDate:       input.DueDate,
	}
	settlement.RecalculateTotal()

	if err := s.settlements.Create(ctx, settlement); err != nil {
		return nil, apperrors.MapError(err)
	}
	return settlement, nil
}

// MarkPending records that a gateway order was opened for the settlement.
func (s *SettlementService) MarkPending(ctx context.Context, transactionID string) (*domain.Settlement, error) {
	settlement, err := s.getByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if settlement.Status != domain.SettlementStatusInitiated {
		return nil, apperrors.NewStateConflict("settlement not awaiting gateway order", map[string]any{
			"status": settlement.Status,
		})
	}
	settlement.Status = domain.SettlementStatusPending
	if err := s.update(ctx, settlement); err != nil {
		return nil, err
	}
	return settlement, nil
}

// Confirm consumes the externally verified payment outcome. Signature
// verification happens upstream; only the verified boolean arrives here.
// The receipt number is minted exactly once, on the first transition to
// SUCCESS.
func (s *SettlementService) Confirm(ctx context.Context, transactionID string, verified bool) (*domain.Settlement, error) {
	settlement, err := s.getByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if settlement.Status != domain.SettlementStatusInitiated && settlement.Status != domain.SettlementStatusPending {
		return nil, apperrors.NewStateConflict("settlement already finalized", map[string]any{
			"status": settlement.Status,
		})
	}

	now := s.clock()
	if verified {
		settlement.Status = domain.SettlementStatusSuccess
		settlement.PaidAt = &now
		if settlement.ReceiptNumber == nil {
			receipt, err := s.numbers.Next(ctx, identifier.KindReceipt, now)
			if err != nil {
				return nil, err
			}
			settlement.ReceiptNumber = &receipt
		}
	} else {
		settlement.Status = domain.SettlementStatusFailed
	}

	if err := s.update(ctx, settlement); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:         events.EventSettlementCompleted,
		RecordNumber: settlement.TransactionID,
		ActorID:      settlement.PayerID,
		ActorRole:    domain.RoleCitizen,
		Payload: events.SettlementCompletedPayload{
			Status:        settlement.Status,
			ReceiptNumber: settlement.ReceiptNumber,
			TotalAmount:   settlement.TotalAmount,
		},
	})
	return settlement, nil
}

// Refund moves a successful settlement to REFUNDED. Staff only.
func (s *SettlementService) Refund(ctx context.Context, actor domain.Actor, transactionID string) (*domain.Settlement, error) {
	if actor.Role != domain.RoleSupervisor && actor.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("supervisor role required for refunds")
	}
	settlement, err := s.getByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if settlement.Status != domain.SettlementStatusSuccess {
		return nil, apperrors.NewStateConflict("only successful settlements can be refunded", map[string]any{
			"status": settlement.Status,
		})
	}
	settlement.Status = domain.SettlementStatusRefunded
	if err := s.update(ctx, settlement); err != nil {
		return nil, err
	}
	return settlement, nil
}

// GetForPayer fetches a settlement ensuring ownership.
func (s *SettlementService) GetForPayer(ctx context.Context, payerID, transactionID string) (*domain.Settlement, error) {
	settlement, err := s.getByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if settlement.PayerID != payerID {
		return nil, apperrors.NewForbidden("access denied")
	}
	return settlement, nil
}

// ListForPayer returns the caller's own settlements.
func (s *SettlementService) ListForPayer(ctx context.Context, payerID string, limit, offset int) ([]domain.Settlement, error) {
	result, err := s.settlements.ListWithFilter(ctx, repository.SettlementFilter{
		PayerID: &payerID,
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

func (s *SettlementService) getByTransactionID(ctx context.Context, transactionID string) (*domain.Settlement, error) {
	settlement, err := s.settlements.GetByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("settlement", map[string]any{"transaction_id": transactionID})
		}
		return nil, apperrors.MapError(err)
	}
	return settlement, nil
}

func (s *SettlementService) update(ctx context.Context, settlement *domain.Settlement) error {
	settlement.RecalculateTotal()
	if err := s.settlements.Update(ctx, settlement, settlement.Version); err != nil {
		if errors.Is(err, repository.ErrVersionConflict) {
			return apperrors.NewConflict("settlement changed concurrently, retry the operation", map[string]any{
				"transaction_id": settlement.TransactionID,
			})
		}
		return apperrors.MapError(err)
	}
	return nil
}

func (s *SettlementService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
