package service

import (
	"context"
	"errors"

	"backend/internal/costing"
	"backend/internal/ledger"
	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"
	"backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs

type SaleItemRequest struct {
	ProductID string          `json:"product_id" binding:"required"`
	VariantID string          `json:"variant_id" binding:"required"`
	Qty       decimal.Decimal `json:"qty" binding:"required"`
}

type CreateSaleRequest struct {
	CustomerID string            `json:"customer_id"`
	UserID     string            `json:"user_id"`
	PaidAmount decimal.Decimal   `json:"paid_amount"`
	Note       string            `json:"note"`
	Items      []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
}

type UpdateSaleRequest struct {
	CustomerID string            `json:"customer_id"`
	UserID     string            `json:"user_id"`
	PaidAmount decimal.Decimal   `json:"paid_amount"`
	Note       string            `json:"note"`
	Items      []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
}

type SaleResponse struct {
	Sale      *model.Sale           `json:"sale"`
	Items     []model.SaleItem      `json:"items"`
	Mutations []model.StockMutation `json:"mutations"`
	Debt      *model.Debt           `json:"debt,omitempty"`
}

type SaleService interface {
	Create(ctx context.Context, userID string, req CreateSaleRequest) (*SaleResponse, error)
	Update(ctx context.Context, userID, id string, req UpdateSaleRequest) (*SaleResponse, error)
	Void(ctx context.Context, userID, id string) (*model.Sale, error)
	GetByID(ctx context.Context, id string) (*model.Sale, error)
	List(ctx context.Context, page, limit int, includeArchived bool) ([]model.Sale, int64, error)
}

type saleService struct {
	sales     repository.SaleRepository
	products  repository.ProductRepository
	customers repository.CustomerRepository
	debts     repository.DebtRepository
	auditRepo repository.AuditRepository
	ledger    *ledger.Ledger
	txManager repository.TransactionManager
	hub       *ws.Hub
}

func NewSaleService(
	sales repository.SaleRepository,
	products repository.ProductRepository,
	customers repository.CustomerRepository,
	debts repository.DebtRepository,
	auditRepo repository.AuditRepository,
	stockLedger *ledger.Ledger,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) SaleService {
	return &saleService{
		sales:     sales,
		products:  products,
		customers: customers,
		debts:     debts,
		auditRepo: auditRepo,
		ledger:    stockLedger,
		txManager: txManager,
		hub:       hub,
	}
}

func (s *saleService) Create(ctx context.Context, userID string, req CreateSaleRequest) (*SaleResponse, error) {
	customerID, err := parseOptionalUUID("customer_id", req.CustomerID)
	if err != nil {
		return nil, err
	}
	uid, err := parseOptionalUUID("user_id", firstNonEmpty(req.UserID, userID))
	if err != nil {
		return nil, err
	}
	if req.PaidAmount.IsNegative() {
		return nil, apperror.Validation("paid_amount must not be negative")
	}

	var resp *SaleResponse
	var broadcasts []stockBroadcast

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if customerID != nil {
			if _, findErr := s.customers.FindByID(txCtx, *customerID); findErr != nil {
				return notFoundOr(findErr, "customer not found")
			}
		}

		invoiceNo, numErr := s.sales.NextInvoiceNo(txCtx)
		if numErr != nil {
			return apperror.Wrap(numErr, apperror.KindInternal, "failed to generate invoice number")
		}

		sale := &model.Sale{
			InvoiceNo:  invoiceNo,
			UserID:     uid,
			CustomerID: customerID,
			Note:       req.Note,
			Status:     model.SaleStatusCompleted,
		}
		if createErr := s.sales.Create(txCtx, sale); createErr != nil {
			return apperror.Wrap(createErr, apperror.KindInternal, "failed to create sale")
		}

		items, mutations, total, applyErr := s.applyItems(txCtx, sale, req.Items, uid, &broadcasts)
		if applyErr != nil {
			return applyErr
		}

		debt, settleErr := s.settle(txCtx, sale, total, req.PaidAmount)
		if settleErr != nil {
			return settleErr
		}

		if updateErr := s.sales.Update(txCtx, sale); updateErr != nil {
			return apperror.Wrap(updateErr, apperror.KindInternal, "failed to update sale totals")
		}

		if auditErr := writeAudit(txCtx, s.auditRepo, uid, model.ActionCreateSale, sale.ID.String(), invoiceNo, req); auditErr != nil {
			return apperror.Wrap(auditErr, apperror.KindInternal, "failed to write audit log")
		}

		resp = &SaleResponse{Sale: sale, Items: items, Mutations: mutations, Debt: debt}
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

// applyItems issues every line item, snapshotting the sell price and the
// average cost in effect at the moment of sale.
func (s *saleService) applyItems(ctx context.Context, sale *model.Sale, reqItems []SaleItemRequest, uid *uuid.UUID, broadcasts *[]stockBroadcast) ([]model.SaleItem, []model.StockMutation, decimal.Decimal, error) {
	pairs := make([][2]uuid.UUID, 0, len(reqItems))
	type parsedItem struct {
		productID uuid.UUID
		variantID uuid.UUID
		qty       decimal.Decimal
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
		pairs = append(pairs, [2]uuid.UUID{productID, variantID})
		parsed = append(parsed, parsedItem{productID: productID, variantID: variantID, qty: item.Qty})
	}

	if err := checkDuplicateLines(pairs); err != nil {
		return nil, nil, decimal.Zero, err
	}

	var items []model.SaleItem
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
		costAtSale := product.AverageCost
		variantID := variant.ID

		applied, err := s.ledger.Issue(ctx, ledger.Movement{
			Product:   product,
			VariantID: &variantID,
			QtyBase:   qtyBase,
			Type:      model.MutationSale,
			Reference: sale.InvoiceNo,
			UserID:    uid,
		})
		if err != nil {
			return nil, nil, decimal.Zero, err
		}

		subtotal := costing.RoundMoney(item.qty.Mul(variant.SellPrice))
		saleItem := model.SaleItem{
			SaleID:      sale.ID,
			ProductID:   product.ID,
			VariantID:   variant.ID,
			Qty:         item.qty,
			PriceAtSale: variant.SellPrice,
			CostAtSale:  costAtSale,
			UnitFactor:  variant.ConversionToBase,
			QtyBase:     qtyBase,
			Subtotal:    subtotal,
		}
		if err := s.sales.CreateItem(ctx, &saleItem); err != nil {
			return nil, nil, decimal.Zero, apperror.Wrap(err, apperror.KindInternal, "failed to create sale item")
		}

		items = append(items, saleItem)
		mutations = append(mutations, *applied.Mutation)
		total = costing.RoundMoney(total.Add(subtotal))
		*broadcasts = append(*broadcasts, stockBroadcast{product: *product, stockAfter: applied.NewStock})
	}

	return items, mutations, total, nil
}

// settle applies the payment policy: overpayment becomes change, underpayment
// becomes a customer debt. An underpaid sale with no customer on record has
// nobody to owe it and is rejected.
func (s *saleService) settle(ctx context.Context, sale *model.Sale, total, paid decimal.Decimal) (*model.Debt, error) {
	sale.TotalPrice = total
	sale.TotalPaid = costing.RoundMoney(paid)
	sale.TotalReturn = decimal.Zero

	if paid.GreaterThanOrEqual(total) {
		sale.Status = model.SaleStatusCompleted
		sale.TotalReturn = costing.RoundMoney(paid.Sub(total))
		return nil, nil
	}

	if sale.CustomerID == nil {
		return nil, apperror.New(apperror.KindBusinessRule, "insufficient payment: walk-in sales must be paid in full")
	}

	status := model.SaleStatusUnpaid
	debtStatus := model.DebtStatusUnpaid
	if paid.IsPositive() {
		status = model.SaleStatusPartial
		debtStatus = model.DebtStatusPartial
	}
	sale.Status = status

	debt := &model.Debt{
		SaleID:          sale.ID,
		CustomerID:      *sale.CustomerID,
		OriginalAmount:  costing.RoundMoney(total.Sub(paid)),
		RemainingAmount: costing.RoundMoney(total.Sub(paid)),
		Status:          debtStatus,
	}
	if err := s.debts.Create(ctx, debt); err != nil {
		return nil, apperror.Wrap(err, apperror.KindInternal, "failed to create debt")
	}
	return debt, nil
}

func (s *saleService) Update(ctx context.Context, userID, id string, req UpdateSaleRequest) (*SaleResponse, error) {
	saleID, err := parseUUID("id", id)
	if err != nil {
		return nil, err
	}
	customerID, err := parseOptionalUUID("customer_id", req.CustomerID)
	if err != nil {
		return nil, err
	}
	uid, err := parseOptionalUUID("user_id", firstNonEmpty(req.UserID, userID))
	if err != nil {
		return nil, err
	}
	if req.PaidAmount.IsNegative() {
		return nil, apperror.Validation("paid_amount must not be negative")
	}

	var resp *SaleResponse
	var broadcasts []stockBroadcast

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sale, findErr := s.sales.FindByIDWithItems(txCtx, saleID)
		if findErr != nil {
			return notFoundOr(findErr, "sale not found")
		}
		if sale.IsArchived {
			return apperror.Conflict("sale is archived and can no longer be edited")
		}
		if customerID != nil {
			if _, findErr := s.customers.FindByID(txCtx, *customerID); findErr != nil {
				return notFoundOr(findErr, "customer not found")
			}
		}

		// A debt with recorded payments cannot be silently rewritten out from
		// under the customer.
		if guardErr := s.guardDebtUntouched(txCtx, sale.ID); guardErr != nil {
			return guardErr
		}

		if revertErr := s.revertItems(txCtx, sale, uid); revertErr != nil {
			return revertErr
		}
		if deleteErr := s.debts.DeleteBySaleID(txCtx, sale.ID); deleteErr != nil {
			return apperror.Wrap(deleteErr, apperror.KindInternal, "failed to remove sale debt")
		}

		sale.CustomerID = customerID
		sale.UserID = uid
		sale.Note = req.Note

		items, mutations, total, applyErr := s.applyItems(txCtx, sale, req.Items, uid, &broadcasts)
		if applyErr != nil {
			return applyErr
		}

		debt, settleErr := s.settle(txCtx, sale, total, req.PaidAmount)
		if settleErr != nil {
			return settleErr
		}

		if updateErr := s.sales.Update(txCtx, sale); updateErr != nil {
			return apperror.Wrap(updateErr, apperror.KindInternal, "failed to update sale")
		}

		if auditErr := writeAudit(txCtx, s.auditRepo, uid, model.ActionUpdateSale, sale.ID.String(), sale.InvoiceNo, req); auditErr != nil {
			return apperror.Wrap(auditErr, apperror.KindInternal, "failed to write audit log")
		}

		sale.Items = nil
		resp = &SaleResponse{Sale: sale, Items: items, Mutations: mutations, Debt: debt}
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

func (s *saleService) guardDebtUntouched(ctx context.Context, saleID uuid.UUID) error {
	debt, err := s.debts.FindBySaleID(ctx, saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apperror.Wrap(err, apperror.KindInternal, "failed to load sale debt")
	}
	count, err := s.debts.CountPayments(ctx, debt.ID)
	if err != nil {
		return apperror.Wrap(err, apperror.KindInternal, "failed to count debt payments")
	}
	if count > 0 {
		return apperror.Conflict("sale has a debt with recorded payments and can no longer be edited")
	}
	return nil
}

// revertItems credits stock back for every line item without writing journal
// rows, then drops the sale's journal and item rows.
func (s *saleService) revertItems(ctx context.Context, sale *model.Sale, uid *uuid.UUID) error {
	for _, item := range sale.Items {
		product, err := s.products.FindByIDForUpdate(ctx, item.ProductID)
		if err != nil {
			return notFoundOr(err, "product not found: "+item.ProductID.String())
		}
		if err := s.ledger.UnwindIssue(ctx, ledger.Movement{
			Product: product,
			QtyBase: item.QtyBase,
		}); err != nil {
			return err
		}
	}

	if err := s.ledger.DeleteByReference(ctx, sale.InvoiceNo); err != nil {
		return err
	}
	if err := s.sales.DeleteItemsBySaleID(ctx, sale.ID); err != nil {
		return apperror.Wrap(err, apperror.KindInternal, "failed to delete sale items")
	}
	return nil
}

func (s *saleService) Void(ctx context.Context, userID, id string) (*model.Sale, error) {
	saleID, err := parseUUID("id", id)
	if err != nil {
		return nil, err
	}
	uid, err := parseOptionalUUID("user_id", userID)
	if err != nil {
		return nil, err
	}

	var voided *model.Sale
	var broadcasts []stockBroadcast

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sale, findErr := s.sales.FindByIDWithItems(txCtx, saleID)
		if findErr != nil {
			return notFoundOr(findErr, "sale not found")
		}
		if sale.IsArchived {
			return apperror.Conflict("sale is already archived")
		}

		voidRef := model.VoidReferencePrefix + sale.InvoiceNo
		for _, item := range sale.Items {
			product, lockErr := s.products.FindByIDForUpdate(txCtx, item.ProductID)
			if lockErr != nil {
				return notFoundOr(lockErr, "product not found: "+item.ProductID.String())
			}

			variantID := item.VariantID
			applied, restockErr := s.ledger.Restock(txCtx, ledger.Movement{
				Product:   product,
				VariantID: &variantID,
				QtyBase:   item.QtyBase,
				Type:      model.MutationSaleCancel,
				Reference: voidRef,
				UserID:    uid,
			})
			if restockErr != nil {
				return restockErr
			}
			broadcasts = append(broadcasts, stockBroadcast{product: *product, stockAfter: applied.NewStock})
		}

		if cancelErr := s.cancelDebt(txCtx, sale.ID); cancelErr != nil {
			return cancelErr
		}

		if archiveErr := s.sales.SetArchived(txCtx, sale.ID); archiveErr != nil {
			return apperror.Wrap(archiveErr, apperror.KindInternal, "failed to archive sale")
		}
		sale.IsArchived = true

		if auditErr := writeAudit(txCtx, s.auditRepo, uid, model.ActionVoidSale, sale.ID.String(), sale.InvoiceNo, map[string]interface{}{
			"invoice_no": sale.InvoiceNo,
		}); auditErr != nil {
			return apperror.Wrap(auditErr, apperror.KindInternal, "failed to write audit log")
		}

		voided = sale
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

func (s *saleService) cancelDebt(ctx context.Context, saleID uuid.UUID) error {
	debt, err := s.debts.FindBySaleID(ctx, saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apperror.Wrap(err, apperror.KindInternal, "failed to load sale debt")
	}
	debt.Status = model.DebtStatusCancelled
	if err := s.debts.Update(ctx, debt); err != nil {
		return apperror.Wrap(err, apperror.KindInternal, "failed to cancel debt")
	}
	return nil
}

func (s *saleService) GetByID(ctx context.Context, id string) (*model.Sale, error) {
	saleID, err := parseUUID("id", id)
	if err != nil {
		return nil, err
	}
	sale, err := s.sales.FindByIDWithItems(ctx, saleID)
	if err != nil {
		return nil, notFoundOr(err, "sale not found")
	}
	return sale, nil
}

func (s *saleService) List(ctx context.Context, page, limit int, includeArchived bool) ([]model.Sale, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	sales, total, err := s.sales.List(ctx, page, limit, includeArchived)
	if err != nil {
		return nil, 0, apperror.Wrap(err, apperror.KindInternal, "failed to list sales")
	}
	return sales, total, nil
}
