// Package ledger couples the append-only stock journal to product stock and
// average-cost updates. Every method must run inside the caller's
// transaction context (repository.TransactionManager) with the product row
// already locked, so the read-modify-write of stock and cost is serialized.
package ledger

import (
	"context"
	"errors"

	"backend/internal/costing"
	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ledger composes the cost basis engine with persistent stock state.
type Ledger struct {
	products  repository.ProductRepository
	variants  repository.VariantRepository
	mutations repository.StockMutationRepository
}

func New(products repository.ProductRepository, variants repository.VariantRepository, mutations repository.StockMutationRepository) *Ledger {
	return &Ledger{products: products, variants: variants, mutations: mutations}
}

// Movement describes one stock movement against a locked product.
type Movement struct {
	Product   *model.Product // locked row; Stock/AverageCost are current
	VariantID *uuid.UUID
	QtyBase   decimal.Decimal // always positive; direction comes from the operation
	Type      string
	Reference string
	UserID    *uuid.UUID
	Note      string
}

// Applied reports the product state surrounding a movement. CostBefore is
// the average cost immediately prior to application, the reversal anchor
// snapshotted onto purchase items.
type Applied struct {
	CostBefore decimal.Decimal
	NewStock   decimal.Decimal
	NewAvgCost decimal.Decimal
	Mutation   *model.StockMutation
}

// ResolveVariant loads a variant and checks it belongs to the given product.
func (l *Ledger) ResolveVariant(ctx context.Context, productID, variantID uuid.UUID) (*model.ProductVariant, error) {
	variant, err := l.variants.FindByID(ctx, variantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Newf(apperror.KindNotFound, "variant %s not found", variantID)
		}
		return nil, apperror.Wrap(err, apperror.KindInternal, "failed to load variant")
	}
	if variant.ProductID != productID {
		return nil, apperror.Newf(apperror.KindNotFound, "variant %s does not belong to product %s", variantID, productID)
	}
	return variant, nil
}

// Receive applies an incoming movement that carries cost: the weighted
// average is recomputed from the per-base-unit cost.
func (l *Ledger) Receive(ctx context.Context, m Movement, unitCostBase decimal.Decimal) (*Applied, error) {
	costBefore := m.Product.AverageCost
	newStock, newAvgCost := costing.ApplyIncoming(m.Product.Stock, m.Product.AverageCost, m.QtyBase, unitCostBase)

	if err := l.commit(ctx, m, newStock, newAvgCost); err != nil {
		return nil, err
	}
	mutation, err := l.append(ctx, m, m.QtyBase, newStock)
	if err != nil {
		return nil, err
	}
	return &Applied{CostBefore: costBefore, NewStock: newStock, NewAvgCost: newAvgCost, Mutation: mutation}, nil
}

// RevertReceipt undoes a previous Receive using the item's snapshots. Used
// by purchase edit (phase one) and purchase void.
func (l *Ledger) RevertReceipt(ctx context.Context, m Movement, unitCostBase, costBefore decimal.Decimal) (*Applied, error) {
	newStock, newAvgCost := costing.RevertIncoming(m.Product.Stock, m.Product.AverageCost, m.QtyBase, unitCostBase, costBefore)
	if newStock.IsNegative() {
		return nil, apperror.Newf(apperror.KindBusinessRule,
			"cannot revert %s base units of %s: only %s in stock", m.QtyBase, m.Product.Name, m.Product.Stock)
	}

	if err := l.commit(ctx, m, newStock, newAvgCost); err != nil {
		return nil, err
	}
	mutation, err := l.append(ctx, m, m.QtyBase.Neg(), newStock)
	if err != nil {
		return nil, err
	}
	return &Applied{CostBefore: costBefore, NewStock: newStock, NewAvgCost: newAvgCost, Mutation: mutation}, nil
}

// Issue applies an outgoing movement. Average cost is untouched; the stock
// check rejects the whole transaction when coverage is insufficient.
func (l *Ledger) Issue(ctx context.Context, m Movement) (*Applied, error) {
	if !costing.CanIssue(m.Product.Stock, m.QtyBase) {
		return nil, apperror.Newf(apperror.KindBusinessRule,
			"insufficient stock for %s: have %s, need %s", m.Product.Name, m.Product.Stock, m.QtyBase)
	}
	newStock := costing.RoundStock(m.Product.Stock.Sub(m.QtyBase))

	if err := l.commit(ctx, m, newStock, m.Product.AverageCost); err != nil {
		return nil, err
	}
	mutation, err := l.append(ctx, m, m.QtyBase.Neg(), newStock)
	if err != nil {
		return nil, err
	}
	return &Applied{CostBefore: m.Product.AverageCost, NewStock: newStock, NewAvgCost: m.Product.AverageCost, Mutation: mutation}, nil
}

// Restock credits units back without touching average cost: returned goods
// re-enter at the cost they already carried. Used for return restocks and
// for crediting stock back when a sale is voided or edited.
func (l *Ledger) Restock(ctx context.Context, m Movement) (*Applied, error) {
	newStock := costing.RoundStock(m.Product.Stock.Add(m.QtyBase))

	if err := l.commit(ctx, m, newStock, m.Product.AverageCost); err != nil {
		return nil, err
	}
	mutation, err := l.append(ctx, m, m.QtyBase, newStock)
	if err != nil {
		return nil, err
	}
	return &Applied{CostBefore: m.Product.AverageCost, NewStock: newStock, NewAvgCost: m.Product.AverageCost, Mutation: mutation}, nil
}

// UnwindReceipt reverts a receipt's stock/cost effect without appending a
// journal row. Used by the edit orchestrator's revert phase, which instead
// deletes the original rows by reference so the journal reflects only the
// re-applied document.
func (l *Ledger) UnwindReceipt(ctx context.Context, m Movement, unitCostBase, costBefore decimal.Decimal) error {
	newStock, newAvgCost := costing.RevertIncoming(m.Product.Stock, m.Product.AverageCost, m.QtyBase, unitCostBase, costBefore)
	if newStock.IsNegative() {
		return apperror.Newf(apperror.KindBusinessRule,
			"cannot revert %s base units of %s: only %s in stock", m.QtyBase, m.Product.Name, m.Product.Stock)
	}
	return l.commit(ctx, m, newStock, newAvgCost)
}

// UnwindIssue credits an issued quantity back without appending a journal
// row. Edit-phase counterpart of Issue.
func (l *Ledger) UnwindIssue(ctx context.Context, m Movement) error {
	newStock := costing.RoundStock(m.Product.Stock.Add(m.QtyBase))
	return l.commit(ctx, m, newStock, m.Product.AverageCost)
}

// DeleteByReference removes a document's journal rows. Only the edit
// orchestrators call this, between an unwind and a re-apply in one
// transaction.
func (l *Ledger) DeleteByReference(ctx context.Context, reference string) error {
	if err := l.mutations.DeleteByReference(ctx, reference); err != nil {
		return apperror.Wrap(err, apperror.KindInternal, "failed to clear stock journal for "+reference)
	}
	return nil
}

// SumByProduct totals the journal for a product. The stock column is derived
// from the journal, so the two must always agree.
func (l *Ledger) SumByProduct(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	sum, err := l.mutations.SumQtyByProduct(ctx, productID)
	if err != nil {
		return decimal.Zero, apperror.Wrap(err, apperror.KindInternal, "failed to sum stock journal")
	}
	return costing.RoundStock(sum), nil
}

func (l *Ledger) commit(ctx context.Context, m Movement, newStock, newAvgCost decimal.Decimal) error {
	if err := l.products.UpdateStockAndCost(ctx, m.Product.ID, newStock, newAvgCost); err != nil {
		return apperror.Wrap(err, apperror.KindInternal, "failed to update product stock")
	}
	// Keep the in-memory row current so a document with several lines for
	// the same product chains correctly within one transaction.
	m.Product.Stock = newStock
	m.Product.AverageCost = newAvgCost
	return nil
}

func (l *Ledger) append(ctx context.Context, m Movement, signedQty, stockAfter decimal.Decimal) (*model.StockMutation, error) {
	mutation := &model.StockMutation{
		ProductID:   m.Product.ID,
		VariantID:   m.VariantID,
		Type:        m.Type,
		QtyBaseUnit: signedQty,
		StockAfter:  stockAfter,
		Reference:   m.Reference,
		UserID:      m.UserID,
		Note:        m.Note,
	}
	if err := l.mutations.Create(ctx, mutation); err != nil {
		return nil, apperror.Wrap(err, apperror.KindInternal, "failed to record stock mutation")
	}
	return mutation, nil
}
