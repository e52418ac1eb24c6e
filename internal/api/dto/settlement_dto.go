package dto

import (
	"time"

	"github.com/spec-kit/civic-service/internal/domain"
)

// InitiateSettlementRequest payload.
type InitiateSettlementRequest struct {
	Category   domain.SettlementCategory `json:"category"`
	Ward       string                    `json:"ward"`
	BaseAmount float64                   `json:"base_amount"`
	DueDate    time.Time                 `json:"due_date"`
}

// ConfirmSettlementRequest carries the externally verified outcome.
type ConfirmSettlementRequest struct {
	Verified bool `json:"verified"`
}

// SettlementResponse payment record view.
type SettlementResponse struct {
	TransactionID string                    `json:"transaction_id"`
	Category      domain.SettlementCategory `json:"category"`
	Ward          string                    `json:"ward"`
	BaseAmount    float64                   `json:"base_amount"`
	Discount      float64                   `json:"discount"`
	Penalty       float64                   `json:"penalty"`
	TotalAmount   float64                   `json:"total_amount"`
	Status        domain.SettlementStatus   `json:"status"`
	DueDate       time.Time                 `json:"due_date"`
	ReceiptNumber *string                   `json:"receipt_number,omitempty"`
	PaidAt        *time.Time                `json:"paid_at,omitempty"`
	CreatedAt     time.Time                 `json:"created_at"`
}
