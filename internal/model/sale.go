package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleStatus enum constants
const (
	SaleStatusCompleted = "COMPLETED"
	SaleStatusUnpaid    = "UNPAID"
	SaleStatusPartial   = "PARTIAL"
)

// Sale is a posted sales invoice. TotalReturn is the change handed back when
// TotalPaid exceeds TotalPrice. An underpaid sale carries a linked Debt and
// stays UNPAID/PARTIAL until settled.
type Sale struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceNo   string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"invoice_no"`
	UserID      *uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	CustomerID  *uuid.UUID      `gorm:"type:uuid;index" json:"customer_id"`
	Customer    *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_price"`
	TotalPaid   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_paid"`
	TotalReturn decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_return"`
	Status      string          `gorm:"type:varchar(20);not null;index" json:"status"`
	Note        string          `gorm:"type:text" json:"note"`
	IsArchived  bool            `gorm:"not null;default:false;index" json:"is_archived"`
	Items       []SaleItem      `gorm:"foreignKey:SaleID" json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// SaleItem snapshots PriceAtSale and CostAtSale (average cost at time of
// sale) so margin reporting and returns never have to re-read live product
// state.
type SaleItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	VariantID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"variant_id"`
	Qty         decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"qty"` // in variant units
	PriceAtSale decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price_at_sale"`
	CostAtSale  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"cost_at_sale"` // avg cost per base unit
	UnitFactor  decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"unit_factor"`
	QtyBase     decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"qty_base"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"subtotal"`
	CreatedAt   time.Time       `json:"created_at"`
}
