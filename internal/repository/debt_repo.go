package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DebtRepository interface {
	Create(ctx context.Context, debt *model.Debt) error
	Update(ctx context.Context, debt *model.Debt) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Debt, error)
	// FindByIDForUpdate locks the debt row so concurrent payments cannot both
	// read the same remaining amount.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Debt, error)
	FindBySaleID(ctx context.Context, saleID uuid.UUID) (*model.Debt, error)
	CreatePayment(ctx context.Context, payment *model.DebtPayment) error
	CountPayments(ctx context.Context, debtID uuid.UUID) (int64, error)
	DeleteBySaleID(ctx context.Context, saleID uuid.UUID) error
	List(ctx context.Context, page, limit int, status string) ([]model.Debt, int64, error)
}

type debtRepository struct {
	db *gorm.DB
}

func NewDebtRepository(db *gorm.DB) DebtRepository {
	return &debtRepository{db: db}
}

func (r *debtRepository) Create(ctx context.Context, debt *model.Debt) error {
	return GetDB(ctx, r.db).Create(debt).Error
}

func (r *debtRepository) Update(ctx context.Context, debt *model.Debt) error {
	return GetDB(ctx, r.db).Omit("Sale", "Customer", "Payments").Save(debt).Error
}

func (r *debtRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Debt, error) {
	var debt model.Debt
	if err := GetDB(ctx, r.db).Preload("Payments").First(&debt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &debt, nil
}

func (r *debtRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Debt, error) {
	var debt model.Debt
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&debt).Error; err != nil {
		return nil, err
	}
	return &debt, nil
}

func (r *debtRepository) FindBySaleID(ctx context.Context, saleID uuid.UUID) (*model.Debt, error) {
	var debt model.Debt
	if err := GetDB(ctx, r.db).Where("sale_id = ?", saleID).First(&debt).Error; err != nil {
		return nil, err
	}
	return &debt, nil
}

func (r *debtRepository) CreatePayment(ctx context.Context, payment *model.DebtPayment) error {
	return GetDB(ctx, r.db).Create(payment).Error
}

func (r *debtRepository) CountPayments(ctx context.Context, debtID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.DebtPayment{}).
		Where("debt_id = ?", debtID).Count(&count).Error
	return count, err
}

func (r *debtRepository) DeleteBySaleID(ctx context.Context, saleID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("sale_id = ?", saleID).Delete(&model.Debt{}).Error
}

func (r *debtRepository) List(ctx context.Context, page, limit int, status string) ([]model.Debt, int64, error) {
	var debts []model.Debt
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Debt{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Payments").
		Preload("Customer").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&debts).Error; err != nil {
		return nil, 0, err
	}

	return debts, total, nil
}
