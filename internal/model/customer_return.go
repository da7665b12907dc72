package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CompensationType enum constants
const (
	CompensationRefund     = "REFUND"
	CompensationCreditNote = "CREDIT_NOTE"
	CompensationExchange   = "EXCHANGE"
)

// CustomerReturn references the original sale and records how the customer
// was compensated. Each leg (restock, credit note, exchange) is reversed
// independently on void, gated by the flag that indicates it happened.
type CustomerReturn struct {
	ID               uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReturnNo         string                 `gorm:"type:varchar(30);uniqueIndex;not null" json:"return_no"`
	SaleID           uuid.UUID              `gorm:"type:uuid;not null;index" json:"sale_id"`
	Sale             *Sale                  `gorm:"foreignKey:SaleID" json:"sale,omitempty"`
	CustomerID       *uuid.UUID             `gorm:"type:uuid;index" json:"customer_id"`
	UserID           *uuid.UUID             `gorm:"type:uuid;index" json:"user_id"`
	CompensationType string                 `gorm:"type:varchar(20);not null" json:"compensation_type"`
	TotalRefund      decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0" json:"total_refund"`
	Note             string                 `gorm:"type:text" json:"note"`
	IsArchived       bool                   `gorm:"not null;default:false;index" json:"is_archived"`
	Items            []CustomerReturnItem   `gorm:"foreignKey:ReturnID" json:"items"`
	ExchangeItems    []CustomerExchangeItem `gorm:"foreignKey:ReturnID" json:"exchange_items"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// CustomerReturnItem snapshots the original sale item's price so the refund
// never depends on live product pricing. ReturnedToStock records whether the
// units flowed back into inventory (cost-neutral restock).
type CustomerReturnItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReturnID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"return_id"`
	SaleItemID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_item_id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	VariantID       uuid.UUID       `gorm:"type:uuid;not null" json:"variant_id"`
	Qty             decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"qty"` // in variant units
	UnitFactor      decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"unit_factor"`
	QtyBase         decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"qty_base"`
	PriceAtSale     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price_at_sale"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"subtotal"`
	ReturnedToStock bool            `gorm:"not null;default:false" json:"returned_to_stock"`
	CreatedAt       time.Time       `json:"created_at"`
}

// CustomerExchangeItem is a replacement good handed out for an EXCHANGE
// compensation; it always decrements stock.
type CustomerExchangeItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReturnID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"return_id"`
	ProductID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	VariantID  uuid.UUID       `gorm:"type:uuid;not null" json:"variant_id"`
	Qty        decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"qty"`
	UnitFactor decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"unit_factor"`
	QtyBase    decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"qty_base"`
	Price      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"price"`
	CostAtSale decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"cost_at_sale"`
	Subtotal   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"subtotal"`
	CreatedAt  time.Time       `json:"created_at"`
}
