package domain

import "time"

// SettlementStatus enumerates payment record states.
type SettlementStatus string

const (
	SettlementStatusInitiated SettlementStatus = "INITIATED"
	SettlementStatusPending   SettlementStatus = "PENDING"
	SettlementStatusSuccess   SettlementStatus = "SUCCESS"
	SettlementStatusFailed    SettlementStatus = "FAILED"
	SettlementStatusRefunded  SettlementStatus = "REFUNDED"
)

// SettlementCategory classifies what the payment settles.
type SettlementCategory string

const (
	SettlementCategoryPropertyTax  SettlementCategory = "PROPERTY_TAX"
	SettlementCategoryWaterBill    SettlementCategory = "WATER_BILL"
	SettlementCategoryTradeLicense SettlementCategory = "TRADE_LICENSE"
	SettlementCategoryOther        SettlementCategory = "OTHER"
)

// SettlementCategories lists every valid settlement category.
func SettlementCategories() []SettlementCategory {
	return []SettlementCategory{
		SettlementCategoryPropertyTax,
		SettlementCategoryWaterBill,
		SettlementCategoryTradeLicense,
		SettlementCategoryOther,
	}
}

// Settlement is a tax or utility bill payment record.
//
// TotalAmount is always recomputed from base, discount and penalty via
// RecalculateTotal; it is never patched independently. ReceiptNumber is
// assigned exactly once, on the first transition to SUCCESS.
type Settlement struct {
	ID            string
	TransactionID string
	PayerID       string
	Category      SettlementCategory
	Ward          string
	BaseAmount    float64
	Discount      float64
	Penalty       float64
	TotalAmount   float64
	Status        SettlementStatus
	DueDate       time.Time
	ReceiptNumber *string
	PaidAt        *time.Time
	Version       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RecalculateTotal restores the total invariant after any amount change.
func (s *Settlement) RecalculateTotal() {
	s.TotalAmount = s.BaseAmount - s.Discount + s.Penalty
}
