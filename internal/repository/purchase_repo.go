package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PurchaseRepository interface {
	Create(ctx context.Context, order *model.PurchaseOrder) error
	CreateItem(ctx context.Context, item *model.PurchaseItem) error
	Update(ctx context.Context, order *model.PurchaseOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	DeleteItemsByOrderID(ctx context.Context, orderID uuid.UUID) error
	SetArchived(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, page, limit int, includeArchived bool) ([]model.PurchaseOrder, int64, error)
	NextOrderNo(ctx context.Context) (string, error)
}

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) Create(ctx context.Context, order *model.PurchaseOrder) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *purchaseRepository) CreateItem(ctx context.Context, item *model.PurchaseItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *purchaseRepository) Update(ctx context.Context, order *model.PurchaseOrder) error {
	return GetDB(ctx, r.db).Omit("Items", "Supplier").Save(order).Error
}

func (r *purchaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	var order model.PurchaseOrder
	if err := GetDB(ctx, r.db).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *purchaseRepository) FindByIDWithItems(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	var order model.PurchaseOrder
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Supplier").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *purchaseRepository) DeleteItemsByOrderID(ctx context.Context, orderID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("purchase_order_id = ?", orderID).Delete(&model.PurchaseItem{}).Error
}

func (r *purchaseRepository) SetArchived(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.PurchaseOrder{}).Where("id = ?", id).
		Update("is_archived", true).Error
}

func (r *purchaseRepository) List(ctx context.Context, page, limit int, includeArchived bool) ([]model.PurchaseOrder, int64, error) {
	var orders []model.PurchaseOrder
	var total int64

	db := GetDB(ctx, r.db).Model(&model.PurchaseOrder{})
	if !includeArchived {
		db = db.Where("is_archived = false")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Items").
		Preload("Supplier").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *purchaseRepository) NextOrderNo(ctx context.Context) (string, error) {
	return nextDocumentNo(ctx, r.db, &model.PurchaseOrder{}, "order_no", "PO")
}
