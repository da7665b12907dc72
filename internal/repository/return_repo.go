package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReturnRepository interface {
	Create(ctx context.Context, ret *model.CustomerReturn) error
	Update(ctx context.Context, ret *model.CustomerReturn) error
	CreateItem(ctx context.Context, item *model.CustomerReturnItem) error
	CreateExchangeItem(ctx context.Context, item *model.CustomerExchangeItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CustomerReturn, error)
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.CustomerReturn, error)
	// SumReturnedQtyBySaleItem totals previously returned quantity (in variant
	// units) for a sale item across non-archived returns, so over-returning
	// across multiple return documents is caught.
	SumReturnedQtyBySaleItem(ctx context.Context, saleItemID uuid.UUID) (decimal.Decimal, error)
	SetArchived(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, page, limit int, includeArchived bool) ([]model.CustomerReturn, int64, error)
	NextReturnNo(ctx context.Context) (string, error)
}

type returnRepository struct {
	db *gorm.DB
}

func NewReturnRepository(db *gorm.DB) ReturnRepository {
	return &returnRepository{db: db}
}

func (r *returnRepository) Create(ctx context.Context, ret *model.CustomerReturn) error {
	return GetDB(ctx, r.db).Create(ret).Error
}

func (r *returnRepository) Update(ctx context.Context, ret *model.CustomerReturn) error {
	return GetDB(ctx, r.db).Omit("Items", "ExchangeItems", "Sale").Save(ret).Error
}

func (r *returnRepository) CreateItem(ctx context.Context, item *model.CustomerReturnItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *returnRepository) CreateExchangeItem(ctx context.Context, item *model.CustomerExchangeItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *returnRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.CustomerReturn, error) {
	var ret model.CustomerReturn
	if err := GetDB(ctx, r.db).First(&ret, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ret, nil
}

func (r *returnRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.CustomerReturn, error) {
	var ret model.CustomerReturn
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("ExchangeItems").
		First(&ret, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ret, nil
}

func (r *returnRepository) SumReturnedQtyBySaleItem(ctx context.Context, saleItemID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := GetDB(ctx, r.db).Model(&model.CustomerReturnItem{}).
		Joins("JOIN customer_returns ON customer_returns.id = customer_return_items.return_id").
		Where("customer_return_items.sale_item_id = ? AND customer_returns.is_archived = false", saleItemID).
		Select("COALESCE(SUM(customer_return_items.qty), 0)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (r *returnRepository) SetArchived(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.CustomerReturn{}).Where("id = ?", id).
		Update("is_archived", true).Error
}

func (r *returnRepository) List(ctx context.Context, page, limit int, includeArchived bool) ([]model.CustomerReturn, int64, error) {
	var returns []model.CustomerReturn
	var total int64

	db := GetDB(ctx, r.db).Model(&model.CustomerReturn{})
	if !includeArchived {
		db = db.Where("is_archived = false")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Items").
		Preload("ExchangeItems").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&returns).Error; err != nil {
		return nil, 0, err
	}

	return returns, total, nil
}

func (r *returnRepository) NextReturnNo(ctx context.Context) (string, error) {
	return nextDocumentNo(ctx, r.db, &model.CustomerReturn{}, "return_no", "RET")
}
