package repository

import (
	"context"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MutationFilter narrows ledger queries. Zero values mean "no filter".
type MutationFilter struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
	Type      string
	Reference string // substring match
	From      time.Time
	To        time.Time
	Page      int
	Limit     int
}

// StockMutationRepository is the append side of the stock journal. Rows are
// never updated; DeleteByReference exists solely for the edit orchestrator's
// revert phase and runs inside the same transaction as the re-apply.
type StockMutationRepository interface {
	Create(ctx context.Context, mutation *model.StockMutation) error
	List(ctx context.Context, filter MutationFilter) ([]model.StockMutation, int64, error)
	ListByReference(ctx context.Context, reference string) ([]model.StockMutation, error)
	SumQtyByProduct(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)
	DeleteByReference(ctx context.Context, reference string) error
	NextAdjustmentNo(ctx context.Context) (string, error)
}

type stockMutationRepository struct {
	db *gorm.DB
}

func NewStockMutationRepository(db *gorm.DB) StockMutationRepository {
	return &stockMutationRepository{db: db}
}

func (r *stockMutationRepository) Create(ctx context.Context, mutation *model.StockMutation) error {
	return GetDB(ctx, r.db).Create(mutation).Error
}

func (r *stockMutationRepository) List(ctx context.Context, filter MutationFilter) ([]model.StockMutation, int64, error) {
	var mutations []model.StockMutation
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockMutation{})
	if filter.ProductID != uuid.Nil {
		db = db.Where("product_id = ?", filter.ProductID)
	}
	if filter.VariantID != uuid.Nil {
		db = db.Where("variant_id = ?", filter.VariantID)
	}
	if filter.Type != "" {
		db = db.Where("type = ?", filter.Type)
	}
	if filter.Reference != "" {
		db = db.Where("reference ILIKE ?", "%"+filter.Reference+"%")
	}
	if !filter.From.IsZero() {
		db = db.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		db = db.Where("created_at <= ?", filter.To)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	offset := (page - 1) * limit

	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&mutations).Error; err != nil {
		return nil, 0, err
	}

	return mutations, total, nil
}

func (r *stockMutationRepository) ListByReference(ctx context.Context, reference string) ([]model.StockMutation, error) {
	var mutations []model.StockMutation
	if err := GetDB(ctx, r.db).Where("reference = ?", reference).
		Order("created_at asc").Find(&mutations).Error; err != nil {
		return nil, err
	}
	return mutations, nil
}

func (r *stockMutationRepository) SumQtyByProduct(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := GetDB(ctx, r.db).Model(&model.StockMutation{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(qty_base_unit), 0)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}

func (r *stockMutationRepository) DeleteByReference(ctx context.Context, reference string) error {
	return GetDB(ctx, r.db).Where("reference = ?", reference).Delete(&model.StockMutation{}).Error
}

// NextAdjustmentNo numbers manual adjustments, which have no document table
// of their own; the sequence lives in the journal's reference column.
func (r *stockMutationRepository) NextAdjustmentNo(ctx context.Context) (string, error) {
	return nextDocumentNo(ctx, r.db, &model.StockMutation{}, "reference", "ADJ")
}
