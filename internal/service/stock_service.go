package service

import (
	"context"
	"time"

	"backend/internal/costing"
	"backend/internal/ledger"
	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DTOs

type AdjustStockRequest struct {
	ProductID   string           `json:"product_id" binding:"required"`
	ActualStock *decimal.Decimal `json:"actual_stock"`
	MinStock    *decimal.Decimal `json:"min_stock"`
	Reason      string           `json:"reason"`
	UserID      string           `json:"user_id"`
}

type AdjustStockResponse struct {
	Product       *model.Product       `json:"product"`
	PreviousStock decimal.Decimal      `json:"previous_stock"`
	NewStock      decimal.Decimal      `json:"new_stock"`
	Adjustment    decimal.Decimal      `json:"adjustment"`
	Mutation      *model.StockMutation `json:"mutation,omitempty"`
}

type MutationQuery struct {
	ProductID string
	VariantID string
	Type      string
	Reference string
	From      *time.Time
	To        *time.Time
	Page      int
	Limit     int
}

type RecountResult struct {
	ProductID     uuid.UUID       `json:"product_id"`
	RecordedStock decimal.Decimal `json:"recorded_stock"`
	JournalStock  decimal.Decimal `json:"journal_stock"`
	Drift         decimal.Decimal `json:"drift"`
	Corrected     bool            `json:"corrected"`
}

type StockService interface {
	Adjust(ctx context.Context, userID string, req AdjustStockRequest) (*AdjustStockResponse, error)
	Mutations(ctx context.Context, q MutationQuery) ([]model.StockMutation, int64, error)
	Recount(ctx context.Context, productID string, apply bool) (*RecountResult, error)
	LowStock(ctx context.Context) ([]model.Product, error)
}

type stockService struct {
	products  repository.ProductRepository
	mutations repository.StockMutationRepository
	auditRepo repository.AuditRepository
	ledger    *ledger.Ledger
	txManager repository.TransactionManager
	hub       *ws.Hub
}

func NewStockService(
	products repository.ProductRepository,
	mutations repository.StockMutationRepository,
	auditRepo repository.AuditRepository,
	stockLedger *ledger.Ledger,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) StockService {
	return &stockService{
		products:  products,
		mutations: mutations,
		auditRepo: auditRepo,
		ledger:    stockLedger,
		txManager: txManager,
		hub:       hub,
	}
}

// Adjust reconciles recorded stock against a physical count. The delta is
// journaled as a signed adjustment; average cost is untouched because an
// adjustment carries no cost information.
func (s *stockService) Adjust(ctx context.Context, userID string, req AdjustStockRequest) (*AdjustStockResponse, error) {
	productID, err := parseUUID("product_id", req.ProductID)
	if err != nil {
		return nil, err
	}
	uid, err := parseOptionalUUID("user_id", firstNonEmpty(req.UserID, userID))
	if err != nil {
		return nil, err
	}
	if req.ActualStock == nil && req.MinStock == nil {
		return nil, apperror.Validation("nothing to adjust: provide actual_stock or min_stock")
	}
	if req.ActualStock != nil && req.ActualStock.IsNegative() {
		return nil, apperror.Validation("actual_stock must not be negative")
	}
	if req.MinStock != nil && req.MinStock.IsNegative() {
		return nil, apperror.Validation("min_stock must not be negative")
	}

	var resp *AdjustStockResponse
	var broadcast *stockBroadcast

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, findErr := s.products.FindByIDForUpdate(txCtx, productID)
		if findErr != nil {
			return notFoundOr(findErr, "product not found")
		}

		previous := product.Stock
		resp = &AdjustStockResponse{
			PreviousStock: previous,
			NewStock:      previous,
			Adjustment:    decimal.Zero,
		}

		if req.ActualStock != nil {
			actual := costing.RoundStock(*req.ActualStock)
			delta := actual.Sub(previous)

			if !delta.IsZero() {
				adjNo, numErr := s.mutations.NextAdjustmentNo(txCtx)
				if numErr != nil {
					return apperror.Wrap(numErr, apperror.KindInternal, "failed to generate adjustment number")
				}

				applied, adjErr := s.applyDelta(txCtx, product, delta, adjNo, req.Reason, uid)
				if adjErr != nil {
					return adjErr
				}

				resp.NewStock = applied.NewStock
				resp.Adjustment = delta
				resp.Mutation = applied.Mutation
				broadcast = &stockBroadcast{product: *product, stockAfter: applied.NewStock}

				if auditErr := writeAudit(txCtx, s.auditRepo, uid, model.ActionAdjustStock, product.ID.String(), product.SKU, map[string]interface{}{
					"reference":      adjNo,
					"previous_stock": previous.String(),
					"new_stock":      applied.NewStock.String(),
					"adjustment":     delta.String(),
					"reason":         req.Reason,
				}); auditErr != nil {
					return apperror.Wrap(auditErr, apperror.KindInternal, "failed to write audit log")
				}
			}
		}

		if req.MinStock != nil {
			if minErr := s.products.UpdateMinStock(txCtx, product.ID, costing.RoundStock(*req.MinStock)); minErr != nil {
				return apperror.Wrap(minErr, apperror.KindInternal, "failed to update minimum stock")
			}
			product.MinStock = costing.RoundStock(*req.MinStock)
		}

		resp.Product = product
		return nil
	})

	if err != nil {
		return nil, err
	}

	if broadcast != nil {
		broadcastStock(s.hub, &broadcast.product, broadcast.stockAfter)
	}
	return resp, nil
}

func (s *stockService) applyDelta(ctx context.Context, product *model.Product, delta decimal.Decimal, reference, reason string, uid *uuid.UUID) (*ledger.Applied, error) {
	movement := ledger.Movement{
		Product:   product,
		QtyBase:   delta.Abs(),
		Type:      model.MutationAdjustment,
		Reference: reference,
		UserID:    uid,
		Note:      reason,
	}
	if delta.IsPositive() {
		return s.ledger.Restock(ctx, movement)
	}
	return s.ledger.Issue(ctx, movement)
}

func (s *stockService) Mutations(ctx context.Context, q MutationQuery) ([]model.StockMutation, int64, error) {
	filter := repository.MutationFilter{
		Type:      q.Type,
		Reference: q.Reference,
		Page:      q.Page,
		Limit:     q.Limit,
	}
	if q.ProductID != "" {
		id, err := parseUUID("product_id", q.ProductID)
		if err != nil {
			return nil, 0, err
		}
		filter.ProductID = id
	}
	if q.VariantID != "" {
		id, err := parseUUID("variant_id", q.VariantID)
		if err != nil {
			return nil, 0, err
		}
		filter.VariantID = id
	}
	if q.From != nil {
		filter.From = *q.From
	}
	if q.To != nil {
		filter.To = *q.To
	}

	mutations, total, err := s.mutations.List(ctx, filter)
	if err != nil {
		return nil, 0, apperror.Wrap(err, apperror.KindInternal, "failed to list stock mutations")
	}
	return mutations, total, nil
}

// Recount compares recorded stock against the journal sum and, when apply is
// set, rewrites the stock column from the journal.
func (s *stockService) Recount(ctx context.Context, productID string, apply bool) (*RecountResult, error) {
	id, err := parseUUID("product_id", productID)
	if err != nil {
		return nil, err
	}

	var result *RecountResult
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, findErr := s.products.FindByIDForUpdate(txCtx, id)
		if findErr != nil {
			return notFoundOr(findErr, "product not found")
		}

		journalStock, sumErr := s.ledger.SumByProduct(txCtx, product.ID)
		if sumErr != nil {
			return sumErr
		}

		result = &RecountResult{
			ProductID:     product.ID,
			RecordedStock: product.Stock,
			JournalStock:  journalStock,
			Drift:         product.Stock.Sub(journalStock),
		}

		if apply && !result.Drift.IsZero() {
			if updateErr := s.products.UpdateStockAndCost(txCtx, product.ID, journalStock, product.AverageCost); updateErr != nil {
				return apperror.Wrap(updateErr, apperror.KindInternal, "failed to rebuild stock from journal")
			}
			result.Corrected = true
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *stockService) LowStock(ctx context.Context) ([]model.Product, error) {
	products, err := s.products.ListLowStock(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.KindInternal, "failed to list low stock products")
	}
	return products, nil
}
