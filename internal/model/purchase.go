package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrder is a posted goods-receipt document. Voiding never deletes it;
// IsArchived is flipped and compensating ledger entries are written.
type PurchaseOrder struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNo     string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"order_no"`
	SupplierID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier    *Supplier       `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	UserID      *uuid.UUID      `gorm:"type:uuid;index" json:"user_id"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_amount"`
	Note        string          `gorm:"type:text" json:"note"`
	IsArchived  bool            `gorm:"not null;default:false;index" json:"is_archived"`
	Items       []PurchaseItem  `gorm:"foreignKey:PurchaseOrderID" json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// PurchaseItem snapshots everything needed to reverse its stock/cost effect
// later: the unit factor at receipt time, the derived base quantity and
// CostBefore, the product's average cost immediately prior to applying this
// item, used as the fallback anchor on reversal.
type PurchaseItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_order_id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	VariantID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"variant_id"`
	Qty             decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"qty"`         // in variant units
	Price           decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`       // per variant unit
	Subtotal        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"subtotal"`    // qty * price
	UnitFactor      decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"unit_factor"` // conversion snapshot
	QtyBase         decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"qty_base"`
	CostBefore      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"cost_before"`
	CreatedAt       time.Time       `json:"created_at"`
}
