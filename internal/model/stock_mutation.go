package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MutationType enum constants. Positive quantity types increase stock,
// negative decrease it; *_cancel types are compensating reversal entries.
const (
	MutationPurchase       = "purchase"
	MutationPurchaseCancel = "purchase_cancel"
	MutationSale           = "sale"
	MutationSaleCancel     = "sale_cancel"
	MutationReturnRestock  = "return_restock"
	MutationReturnCancel   = "return_cancel"
	MutationExchange       = "exchange"
	MutationExchangeCancel = "exchange_cancel"
	MutationAdjustment     = "adjustment"
)

// VoidReferencePrefix marks compensating ledger entries written when a
// document is voided.
const VoidReferencePrefix = "VOID-"

// StockMutation is the append-only stock journal. QtyBaseUnit is signed
// (positive = stock increase) and always expressed in the product's base
// unit. Rows are never updated; reversals are new rows with opposite sign
// and a VOID-prefixed reference. For every product the sum of QtyBaseUnit
// must equal its current stock.
type StockMutation struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	VariantID   *uuid.UUID      `gorm:"type:uuid;index" json:"variant_id"` // nullable for manual adjustments
	Type        string          `gorm:"type:varchar(30);not null;index" json:"type"`
	QtyBaseUnit decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"qty_base_unit"`
	StockAfter  decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"stock_after"`
	Reference   string          `gorm:"type:varchar(100);not null;index" json:"reference"` // originating document number
	UserID      *uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	Note        string          `gorm:"type:text" json:"note"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
}
