package service

import (
	"context"

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

type PurchaseItemRequest struct {
	ProductID string          `json:"product_id" binding:"required"`
	VariantID string          `json:"variant_id" binding:"required"`
	Qty       decimal.Decimal `json:"qty" binding:"required"`
	Price     decimal.Decimal `json:"price" binding:"required"`
}

type CreatePurchaseRequest struct {
	SupplierID string                `json:"supplier_id" binding:"required"`
	UserID     string                `json:"user_id"`
	Note       string                `json:"note"`
	Items      []PurchaseItemRequest `json:"items" binding:"required,min=1,dive"`
}

type UpdatePurchaseRequest struct {
	SupplierID string                `json:"supplier_id" binding:"required"`
	UserID     string                `json:"user_id"`
	Note       string                `json:"note"`
	Items      []PurchaseItemRequest `json:"items" binding:"required,min=1,dive"`
}

type PurchaseResponse struct {
	Order     *model.PurchaseOrder  `json:"order"`
	Items     []model.PurchaseItem  `json:"items"`
	Mutations []model.StockMutation `json:"mutations"`
}

type PurchaseService interface {
	Create(ctx context.Context, userID string, req CreatePurchaseRequest) (*PurchaseResponse, error)
	Update(ctx context.Context, userID, id string, req UpdatePurchaseRequest) (*PurchaseResponse, error)
	Void(ctx context.Context, userID, id string) (*model.PurchaseOrder, error)
	GetByID(ctx context.Context, id string) (*model.PurchaseOrder, error)
	List(ctx context.Context, page, limit int, includeArchived bool) ([]model.PurchaseOrder, int64, error)
}

type purchaseService struct {
	purchases repository.PurchaseRepository
	products  repository.ProductRepository
	suppliers repository.SupplierRepository
	auditRepo repository.AuditRepository
	ledger    *ledger.Ledger
	txManager repository.TransactionManager
	hub       *ws.Hub
}

func NewPurchaseService(
	purchases repository.PurchaseRepository,
	products repository.ProductRepository,
	suppliers repository.SupplierRepository,
	auditRepo repository.AuditRepository,
	stockLedger *ledger.Ledger,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) PurchaseService {
	return &purchaseService{
		purchases: purchases,
		products:  products,
		suppliers: suppliers,
		auditRepo: auditRepo,
		ledger:    stockLedger,
		txManager: txManager,
		hub:       hub,
	}
}

// stockBroadcast collects per-product outcomes during a transaction so
// websocket events only go out after commit.
type stockBroadcast struct {
	product    model.Product
	stockAfter decimal.Decimal
}

func (s *purchaseService) Create(ctx context.Context, userID string, req CreatePurchaseRequest) (*PurchaseResponse, error) {
	supplierID, err := parseUUID("supplier_id", req.SupplierID)
	if err != nil {
		return nil, err
	}
	uid, err := parseOptionalUUID("user_id", firstNonEmpty(req.UserID, userID))
	if err != nil {
		return nil, err
	}

	var resp *PurchaseResponse
	var broadcasts []stockBroadcast

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, findErr := s.suppliers.FindByID(txCtx, supplierID); findErr != nil {
			return notFoundOr(findErr, "supplier not found")
		}

		orderNo, numErr := s.purchases.NextOrderNo(txCtx)
		if numErr != nil {
			return apperror.Wrap(numErr, apperror.KindInternal, "failed to generate order number")
		}

		order := &model.PurchaseOrder{
			OrderNo:    orderNo,
			SupplierID: supplierID,
			UserID:     uid,
			Note:       req.Note,
		}
		if createErr := s.purchases.Create(txCtx, order); createErr != nil {
			return apperror.Wrap(createErr, apperror.KindInternal, "failed to create purchase order")
		}

		items, mutations, total, applyErr := s.applyItems(txCtx, order, req.Items, uid, &broadcasts)
		if applyErr != nil {
			return applyErr
		}

		order.TotalAmount = total
		if updateErr := s.purchases.Update(txCtx, order); updateErr != nil {
			return apperror.Wrap(updateErr, apperror.KindInternal, "failed to update purchase total")
		}

		if auditErr := writeAudit(txCtx, s.auditRepo, uid, model.ActionCreatePurchase, order.ID.String(), orderNo, req); auditErr != nil {
			return apperror.Wrap(auditErr, apperror.KindInternal, "failed to write audit log")
		}

		resp = &PurchaseResponse{Order: order, Items: items, Mutations: mutations}
		return nil
	})

	if err != nil {
		return nil, err
	}

	for _, b := range broadcasts {
		broadcastStock(s.hub, &b.product, b.stockAfter)
	}
	return resp, nil
}

// applyItems runs the create logic shared by Create and the re-apply phase
// of Update: resolve conversion, apply the cost basis engine, journal the
// receipt, persist the line item with its snapshots.
func (s *purchaseService) applyItems(ctx context.Context, order *model.PurchaseOrder, reqItems []PurchaseItemRequest, uid *uuid.UUID, broadcasts *[]stockBroadcast) ([]model.PurchaseItem, []model.StockMutation, decimal.Decimal, error) {
	pairs := make([][2]uuid.UUID, 0, len(reqItems))
	type parsedItem struct {
		productID uuid.UUID
		variantID uuid.UUID
		qty       decimal.Decimal
		price     decimal.Decimal
	}
	parsed := make([]parsedItem, 0, len(reqItems))

	for _, item := range reqItems {
		productID, err := parseUUID("product_id", item.ProductID)
		if err != nil {
			return nil, nil, decimal.Zero, err
		}
		variantID, err := parseUUID("variant_id", item.VariantID)
		if err != nil {
			return nil, nil, decimal.Zero, err
		}
		if !item.Qty.IsPositive() {
			return nil, nil, decimal.Zero, apperror.Validation("qty must be greater than zero")
		}
		if item.Price.IsNegative() {
			return nil, nil, decimal.Zero, apperror.Validation("price must not be negative")
		}
		pairs = append(pairs, [2]uuid.UUID{productID, variantID})
		parsed = append(parsed, parsedItem{productID: productID, variantID: variantID, qty: item.Qty, price: item.Price})
	}

	if err := checkDuplicateLines(pairs); err != nil {
		return nil, nil, decimal.Zero, err
	}

	var items []model.PurchaseItem
	var mutations []model.StockMutation
	total := decimal.Zero

	for _, item := range parsed {
		product, err := s.products.FindByIDForUpdate(ctx, item.productID)
		if err != nil {
			return nil, nil, decimal.Zero, notFoundOr(err, "product not found: "+item.productID.String())
		}

		variant, err := s.ledger.ResolveVariant(ctx, item.productID, item.variantID)
		if err != nil {
			return nil, nil, decimal.Zero, err
		}

		qtyBase := costing.ToBaseQty(item.qty, variant.ConversionToBase)
		unitCostBase := costing.ToBaseUnitPrice(item.price, variant.ConversionToBase)
		variantID := variant.ID

		applied, err := s.ledger.Receive(ctx, ledger.Movement{
			Product:   product,
			VariantID: &variantID,
			QtyBase:   qtyBase,
			Type:      model.MutationPurchase,
			Reference: order.OrderNo,
			UserID:    uid,
		}, unitCostBase)
		if err != nil {
			return nil, nil, decimal.Zero, err
		}

		if err := s.products.UpdateLastPurchaseCost(ctx, product.ID, unitCostBase); err != nil {
			return nil, nil, decimal.Zero, apperror.Wrap(err, apperror.KindInternal, "failed to update last purchase cost")
		}

		subtotal := costing.RoundMoney(item.qty.Mul(item.price))
		purchaseItem := model.PurchaseItem{
			PurchaseOrderID: order.ID,
			ProductID:       product.ID,
			VariantID:       variant.ID,
			Qty:             item.qty,
			Price:           item.price,
			Subtotal:        subtotal,
			UnitFactor:      variant.ConversionToBase,
			QtyBase:         qtyBase,
			CostBefore:      applied.CostBefore,
		}
		if err := s.purchases.CreateItem(ctx, &purchaseItem); err != nil {
			return nil, nil, decimal.Zero, apperror.Wrap(err, apperror.KindInternal, "failed to create purchase item")
		}

		items = append(items, purchaseItem)
		mutations = append(mutations, *applied.Mutation)
		total = costing.RoundMoney(total.Add(subtotal))
		*broadcasts = append(*broadcasts, stockBroadcast{product: *product, stockAfter: applied.NewStock})
	}

	return items, mutations, total, nil
}

func (s *purchaseService) Update(ctx context.Context, userID, id string, req UpdatePurchaseRequest) (*PurchaseResponse, error) {
	orderID, err := parseUUID("id", id)
	if err != nil {
		return nil, err
	}
	supplierID, err := parseUUID("supplier_id", req.SupplierID)
	if err != nil {
		return nil, err
	}
	uid, err := parseOptionalUUID("user_id", firstNonEmpty(req.UserID, userID))
	if err != nil {
		return nil, err
	}

	var resp *PurchaseResponse
	var broadcasts []stockBroadcast

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, findErr := s.purchases.FindByIDWithItems(txCtx, orderID)
		if findErr != nil {
			return notFoundOr(findErr, "purchase order not found")
		}
		if order.IsArchived {
			return apperror.Conflict("purchase order is archived and can no longer be edited")
		}
		if _, findErr := s.suppliers.FindByID(txCtx, supplierID); findErr != nil {
			return notFoundOr(findErr, "supplier not found")
		}

		// Phase one: revert every line item's stock/cost effect, then drop
		// the original journal rows and item rows. Intermediate state stays
		// invisible outside the transaction.
		if revertErr := s.revertItems(txCtx, order); revertErr != nil {
			return revertErr
		}

		// Phase two: re-run the create logic with the new item set under the
		// same document number.
		order.SupplierID = supplierID
		order.Note = req.Note
		order.UserID = uid

		items, mutations, total, applyErr := s.applyItems(txCtx, order, req.Items, uid, &broadcasts)
		if applyErr != nil {
			return applyErr
		}

		order.TotalAmount = total
		if updateErr := s.purchases.Update(txCtx, order); updateErr != nil {
			return apperror.Wrap(updateErr, apperror.KindInternal, "failed to update purchase order")
		}

		if auditErr := writeAudit(txCtx, s.auditRepo, uid, model.ActionUpdatePurchase, order.ID.String(), order.OrderNo, req); auditErr != nil {
			return apperror.Wrap(auditErr, apperror.KindInternal, "failed to write audit log")
		}

		order.Items = nil
		resp = &PurchaseResponse{Order: order, Items: items, Mutations: mutations}
		return nil
	})

	if err != nil {
		return nil, err
	}

	for _, b := range broadcasts {
		broadcastStock(s.hub, &b.product, b.stockAfter)
	}
	return resp, nil
}

// revertItems unwinds every line item of a posted order and deletes its
// journal and item rows.
func (s *purchaseService) revertItems(ctx context.Context, order *model.PurchaseOrder) error {
	for _, item := range order.Items {
		product, err := s.products.FindByIDForUpdate(ctx, item.ProductID)
		if err != nil {
			return notFoundOr(err, "product not found: "+item.ProductID.String())
		}

		unitCostBase := costing.ToBaseUnitPrice(item.Price, item.UnitFactor)
		if err := s.ledger.UnwindReceipt(ctx, ledger.Movement{
			Product: product,
			QtyBase: item.QtyBase,
		}, unitCostBase, item.CostBefore); err != nil {
			return err
		}
	}

	if err := s.ledger.DeleteByReference(ctx, order.OrderNo); err != nil {
		return err
	}
	if err := s.purchases.DeleteItemsByOrderID(ctx, order.ID); err != nil {
		return apperror.Wrap(err, apperror.KindInternal, "failed to delete purchase items")
	}
	return nil
}

func (s *purchaseService) Void(ctx context.Context, userID, id string) (*model.PurchaseOrder, error) {
	orderID, err := parseUUID("id", id)
	if err != nil {
		return nil, err
	}
	uid, err := parseOptionalUUID("user_id", userID)
	if err != nil {
		return nil, err
	}

	var voided *model.PurchaseOrder
	var broadcasts []stockBroadcast

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, findErr := s.purchases.FindByIDWithItems(txCtx, orderID)
		if findErr != nil {
			return notFoundOr(findErr, "purchase order not found")
		}
		if order.IsArchived {
			return apperror.Conflict("purchase order is already archived")
		}

		voidRef := model.VoidReferencePrefix + order.OrderNo
		for _, item := range order.Items {
			product, lockErr := s.products.FindByIDForUpdate(txCtx, item.ProductID)
			if lockErr != nil {
				return notFoundOr(lockErr, "product not found: "+item.ProductID.String())
			}

			unitCostBase := costing.ToBaseUnitPrice(item.Price, item.UnitFactor)
			variantID := item.VariantID
			applied, revertErr := s.ledger.RevertReceipt(txCtx, ledger.Movement{
				Product:   product,
				VariantID: &variantID,
				QtyBase:   item.QtyBase,
				Type:      model.MutationPurchaseCancel,
				Reference: voidRef,
				UserID:    uid,
			}, unitCostBase, item.CostBefore)
			if revertErr != nil {
				return revertErr
			}
			broadcasts = append(broadcasts, stockBroadcast{product: *product, stockAfter: applied.NewStock})
		}

		if archiveErr := s.purchases.SetArchived(txCtx, order.ID); archiveErr != nil {
			return apperror.Wrap(archiveErr, apperror.KindInternal, "failed to archive purchase order")
		}
		order.IsArchived = true

		if auditErr := writeAudit(txCtx, s.auditRepo, uid, model.ActionVoidPurchase, order.ID.String(), order.OrderNo, map[string]interface{}{
			"order_no": order.OrderNo,
		}); auditErr != nil {
			return apperror.Wrap(auditErr, apperror.KindInternal, "failed to write audit log")
		}

		voided = order
		return nil
	})

	if err != nil {
		return nil, err
	}

	for _, b := range broadcasts {
		broadcastStock(s.hub, &b.product, b.stockAfter)
	}
	return voided, nil
}

func (s *purchaseService) GetByID(ctx context.Context, id string) (*model.PurchaseOrder, error) {
	orderID, err := parseUUID("id", id)
	if err != nil {
		return nil, err
	}
	order, err := s.purchases.FindByIDWithItems(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "purchase order not found")
	}
	return order, nil
}

func (s *purchaseService) List(ctx context.Context, page, limit int, includeArchived bool) ([]model.PurchaseOrder, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	orders, total, err := s.purchases.List(ctx, page, limit, includeArchived)
	if err != nil {
		return nil, 0, apperror.Wrap(err, apperror.KindInternal, "failed to list purchase orders")
	}
	return orders, total, nil
}
