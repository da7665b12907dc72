package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DebtStatus enum constants
const (
	DebtStatusUnpaid    = "UNPAID"
	DebtStatusPartial   = "PARTIAL"
	DebtStatusPaid      = "PAID"
	DebtStatusCancelled = "CANCELLED"
)

// Debt is a customer balance tied 1:1 to an underpaid sale. Payments are
// append-only rows that decrement RemainingAmount; there is no payment
// reversal path.
type Debt struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SaleID          uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"sale_id"`
	Sale            *Sale           `gorm:"foreignKey:SaleID" json:"sale,omitempty"`
	CustomerID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer        *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	OriginalAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"original_amount"`
	RemainingAmount decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"remaining_amount"`
	Status          string          `gorm:"type:varchar(20);not null;index" json:"status"`
	DueDate         *time.Time      `json:"due_date"`
	Payments        []DebtPayment   `gorm:"foreignKey:DebtID" json:"payments"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// DebtPayment records a single payment against a debt.
type DebtPayment struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DebtID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"debt_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	PaymentDate time.Time       `gorm:"not null" json:"payment_date"`
	Note        string          `gorm:"type:text" json:"note"`
	UserID      *uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	CreatedAt   time.Time       `json:"created_at"`
}
