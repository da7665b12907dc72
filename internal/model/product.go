package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a sellable good. Stock and AverageCost are always kept
// in the product's base unit and are mutated only by the stock ledger inside
// a transaction.
type Product struct {
	ID               uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU              string           `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name             string           `gorm:"type:varchar(255);not null" json:"name"`
	BaseUnit         string           `gorm:"type:varchar(50);not null" json:"base_unit"` // e.g. pcs, kg
	Stock            decimal.Decimal  `gorm:"type:decimal(18,3);not null;default:0" json:"stock"`
	AverageCost      decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0" json:"average_cost"`
	LastPurchaseCost decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0" json:"last_purchase_cost"`
	MinStock         decimal.Decimal  `gorm:"type:decimal(18,3);not null;default:0" json:"min_stock"`
	Variants         []ProductVariant `gorm:"foreignKey:ProductID" json:"variants"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	DeletedAt        gorm.DeletedAt   `gorm:"index" json:"-"`
}

// ProductVariant is a purchasable/sellable unit of a product.
// ConversionToBase states how many base units one variant unit equals; the
// factor is snapshotted onto line items at mutation time so historic
// documents stay interpretable if it later changes.
type ProductVariant struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Name             string          `gorm:"type:varchar(100);not null" json:"name"` // unit label, e.g. "box of 12"
	ConversionToBase decimal.Decimal `gorm:"type:decimal(18,3);not null" json:"conversion_to_base"`
	SellPrice        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"sell_price"`
	IsBase           bool            `gorm:"default:false" json:"is_base"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`
}
