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

type ReturnItemRequest struct {
	SaleItemID    string          `json:"sale_item_id" binding:"required"`
	Qty           decimal.Decimal `json:"qty" binding:"required"`
	ReturnToStock bool            `json:"return_to_stock"`
}

type ExchangeItemRequest struct {
	ProductID string          `json:"product_id" binding:"required"`
	VariantID string          `json:"variant_id" binding:"required"`
	Qty       decimal.Decimal `json:"qty" binding:"required"`
}

type CreateReturnRequest struct {
	SaleID           string                `json:"sale_id" binding:"required"`
	UserID           string                `json:"user_id"`
	CompensationType string                `json:"compensation_type" binding:"required,oneof=REFUND CREDIT_NOTE EXCHANGE"`
	Note             string                `json:"note"`
	Items            []ReturnItemRequest   `json:"items" binding:"required,min=1,dive"`
	ExchangeItems    []ExchangeItemRequest `json:"exchange_items" binding:"omitempty,dive"`
}

type ReturnResponse struct {
	Return    *model.CustomerReturn `json:"return"`
	Mutations []model.StockMutation `json:"mutations"`
}

type ReturnService interface {
	Create(ctx context.Context, userID string, req CreateReturnRequest) (*ReturnResponse, error)
	Void(ctx context.Context, userID, id string) (*model.CustomerReturn, error)
	GetByID(ctx context.Context, id string) (*model.CustomerReturn, error)
	List(ctx context.Context, page, limit int, includeArchived bool) ([]model.CustomerReturn, int64, error)
}

type returnService struct {
	returns   repository.ReturnRepository
	sales     repository.SaleRepository
	products  repository.ProductRepository
	customers repository.CustomerRepository
	auditRepo repository.AuditRepository
	ledger    *ledger.Ledger
	txManager repository.TransactionManager
	hub       *ws.Hub
}

func NewReturnService(
	returns repository.ReturnRepository,
	sales repository.SaleRepository,
	products repository.ProductRepository,
	customers repository.CustomerRepository,
	auditRepo repository.AuditRepository,
	stockLedger *ledger.Ledger,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) ReturnService {
	return &returnService{
		returns:   returns,
		sales:     sales,
		products:  products,
		customers: customers,
		auditRepo: auditRepo,
		ledger:    stockLedger,
		txManager: txManager,
		hub:       hub,
	}
}

func (s *returnService) Create(ctx context.Context, userID string, req CreateReturnRequest) (*ReturnResponse, error) {
	saleID, err := parseUUID("sale_id", req.SaleID)
	if err != nil {
		return nil, err
	}
	uid, err := parseOptionalUUID("user_id", firstNonEmpty(req.UserID, userID))
	if err != nil {
		return nil, err
	}
	if req.CompensationType == model.CompensationExchange && len(req.ExchangeItems) == 0 {
		return nil, apperror.Validation("exchange compensation requires at least one exchange item")
	}
	if req.CompensationType != model.CompensationExchange && len(req.ExchangeItems) > 0 {
		return nil, apperror.Validation("exchange items are only allowed with EXCHANGE compensation")
	}

	var resp *ReturnResponse
	var broadcasts []stockBroadcast

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sale, findErr := s.sales.FindByIDWithItems(txCtx, saleID)
		if findErr != nil {
			return notFoundOr(findErr, "sale not found")
		}
		if sale.IsArchived {
			return apperror.Conflict("cannot create a return against a voided sale")
		}
		if req.CompensationType == model.CompensationCreditNote && sale.CustomerID == nil {
			return apperror.New(apperror.KindBusinessRule, "credit note compensation requires a sale with a customer")
		}

		returnNo, numErr := s.returns.NextReturnNo(txCtx)
		if numErr != nil {
			return apperror.Wrap(numErr, apperror.KindInternal, "failed to generate return number")
		}

		ret := &model.CustomerReturn{
			ReturnNo:         returnNo,
			SaleID:           sale.ID,
			CustomerID:       sale.CustomerID,
			UserID:           uid,
			CompensationType: req.CompensationType,
			Note:             req.Note,
		}
		if createErr := s.returns.Create(txCtx, ret); createErr != nil {
			return apperror.Wrap(createErr, apperror.KindInternal, "failed to create return")
		}

		var mutations []model.StockMutation
		totalRefund := decimal.Zero

		seen := make(map[uuid.UUID]bool, len(req.Items))
		for _, item := range req.Items {
			saleItemID, parseErr := parseUUID("sale_item_id", item.SaleItemID)
			if parseErr != nil {
				return parseErr
			}
			if seen[saleItemID] {
				return apperror.Newf(apperror.KindValidation, "duplicate return line for sale item %s", saleItemID)
			}
			seen[saleItemID] = true
			if !item.Qty.IsPositive() {
				return apperror.Validation("qty must be greater than zero")
			}

			saleItem := findSaleItem(sale, saleItemID)
			if saleItem == nil {
				return apperror.Newf(apperror.KindNotFound, "sale item %s does not belong to sale %s", saleItemID, sale.InvoiceNo)
			}

			prior, sumErr := s.returns.SumReturnedQtyBySaleItem(txCtx, saleItem.ID)
			if sumErr != nil {
				return apperror.Wrap(sumErr, apperror.KindInternal, "failed to total prior returns")
			}
			if item.Qty.Add(prior).GreaterThan(saleItem.Qty) {
				return apperror.Newf(apperror.KindBusinessRule,
					"return quantity %s exceeds sold quantity %s (already returned %s)", item.Qty, saleItem.Qty, prior)
			}

			qtyBase := costing.ToBaseQty(item.Qty, saleItem.UnitFactor)
			subtotal := costing.RoundMoney(item.Qty.Mul(saleItem.PriceAtSale))

			if item.ReturnToStock {
				product, lockErr := s.products.FindByIDForUpdate(txCtx, saleItem.ProductID)
				if lockErr != nil {
					return notFoundOr(lockErr, "product not found: "+saleItem.ProductID.String())
				}
				variantID := saleItem.VariantID
				applied, restockErr := s.ledger.Restock(txCtx, ledger.Movement{
					Product:   product,
					VariantID: &variantID,
					QtyBase:   qtyBase,
					Type:      model.MutationReturnRestock,
					Reference: returnNo,
					UserID:    uid,
				})
				if restockErr != nil {
					return restockErr
				}
				mutations = append(mutations, *applied.Mutation)
				broadcasts = append(broadcasts, stockBroadcast{product: *product, stockAfter: applied.NewStock})
			}

			returnItem := model.CustomerReturnItem{
				ReturnID:        ret.ID,
				SaleItemID:      saleItem.ID,
				ProductID:       saleItem.ProductID,
				VariantID:       saleItem.VariantID,
				Qty:             item.Qty,
				UnitFactor:      saleItem.UnitFactor,
				QtyBase:         qtyBase,
				PriceAtSale:     saleItem.PriceAtSale,
				Subtotal:        subtotal,
				ReturnedToStock: item.ReturnToStock,
			}
			if createErr := s.returns.CreateItem(txCtx, &returnItem); createErr != nil {
				return apperror.Wrap(createErr, apperror.KindInternal, "failed to create return item")
			}
			ret.Items = append(ret.Items, returnItem)
			totalRefund = costing.RoundMoney(totalRefund.Add(subtotal))
		}

		switch req.CompensationType {
		case model.CompensationCreditNote:
			if creditErr := s.customers.AddCreditBalance(txCtx, *sale.CustomerID, totalRefund); creditErr != nil {
				return apperror.Wrap(creditErr, apperror.KindInternal, "failed to credit customer balance")
			}
		case model.CompensationExchange:
			exchangeMutations, exchangeErr := s.applyExchangeItems(txCtx, ret, req.ExchangeItems, uid, &broadcasts)
			if exchangeErr != nil {
				return exchangeErr
			}
			mutations = append(mutations, exchangeMutations...)
		}

		ret.TotalRefund = totalRefund
		if updateErr := s.returns.Update(txCtx, ret); updateErr != nil {
			return apperror.Wrap(updateErr, apperror.KindInternal, "failed to update return total")
		}

		if auditErr := writeAudit(txCtx, s.auditRepo, uid, model.ActionCreateReturn, ret.ID.String(), returnNo, req); auditErr != nil {
			return apperror.Wrap(auditErr, apperror.KindInternal, "failed to write audit log")
		}

		resp = &ReturnResponse{Return: ret, Mutations: mutations}
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

func (s *returnService) applyExchangeItems(ctx context.Context, ret *model.CustomerReturn, reqItems []ExchangeItemRequest, uid *uuid.UUID, broadcasts *[]stockBroadcast) ([]model.StockMutation, error) {
	seen := make(map[[2]uuid.UUID]bool, len(reqItems))
	var mutations []model.StockMutation

	for _, item := range reqItems {
		productID, err := parseUUID("product_id", item.ProductID)
		if err != nil {
			return nil, err
		}
		variantID, err := parseUUID("variant_id", item.VariantID)
		if err != nil {
			return nil, err
		}
		if !item.Qty.IsPositive() {
			return nil, apperror.Validation("qty must be greater than zero")
		}
		pair := [2]uuid.UUID{productID, variantID}
		if seen[pair] {
			return nil, apperror.Newf(apperror.KindValidation, "duplicate line item for variant %s", variantID)
		}
		seen[pair] = true

		product, err := s.products.FindByIDForUpdate(ctx, productID)
		if err != nil {
			return nil, notFoundOr(err, "product not found: "+productID.String())
		}
		variant, err := s.ledger.ResolveVariant(ctx, productID, variantID)
		if err != nil {
			return nil, err
		}

		qtyBase := costing.ToBaseQty(item.Qty, variant.ConversionToBase)
		costAtSale := product.AverageCost
		vid := variant.ID

		applied, err := s.ledger.Issue(ctx, ledger.Movement{
			Product:   product,
			VariantID: &vid,
			QtyBase:   qtyBase,
			Type:      model.MutationExchange,
			Reference: ret.ReturnNo,
			UserID:    uid,
		})
		if err != nil {
			return nil, err
		}

		exchangeItem := model.CustomerExchangeItem{
			ReturnID:   ret.ID,
			ProductID:  product.ID,
			VariantID:  variant.ID,
			Qty:        item.Qty,
			UnitFactor: variant.ConversionToBase,
			QtyBase:    qtyBase,
			Price:      variant.SellPrice,
			CostAtSale: costAtSale,
			Subtotal:   costing.RoundMoney(item.Qty.Mul(variant.SellPrice)),
		}
		if err := s.returns.CreateExchangeItem(ctx, &exchangeItem); err != nil {
			return nil, apperror.Wrap(err, apperror.KindInternal, "failed to create exchange item")
		}
		ret.ExchangeItems = append(ret.ExchangeItems, exchangeItem)
		mutations = append(mutations, *applied.Mutation)
		*broadcasts = append(*broadcasts, stockBroadcast{product: *product, stockAfter: applied.NewStock})
	}

	return mutations, nil
}

func (s *returnService) Void(ctx context.Context, userID, id string) (*model.CustomerReturn, error) {
	returnID, err := parseUUID("id", id)
	if err != nil {
		return nil, err
	}
	uid, err := parseOptionalUUID("user_id", userID)
	if err != nil {
		return nil, err
	}

	var voided *model.CustomerReturn
	var broadcasts []stockBroadcast

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ret, findErr := s.returns.FindByIDWithItems(txCtx, returnID)
		if findErr != nil {
			return notFoundOr(findErr, "return not found")
		}
		if ret.IsArchived {
			return apperror.Conflict("return is already archived")
		}

		voidRef := model.VoidReferencePrefix + ret.ReturnNo

		// Restocked units go back out. The stock check applies: if they have
		// since been sold, the void fails.
		for _, item := range ret.Items {
			if !item.ReturnedToStock {
				continue
			}
			product, lockErr := s.products.FindByIDForUpdate(txCtx, item.ProductID)
			if lockErr != nil {
				return notFoundOr(lockErr, "product not found: "+item.ProductID.String())
			}
			variantID := item.VariantID
			applied, issueErr := s.ledger.Issue(txCtx, ledger.Movement{
				Product:   product,
				VariantID: &variantID,
				QtyBase:   item.QtyBase,
				Type:      model.MutationReturnCancel,
				Reference: voidRef,
				UserID:    uid,
			})
			if issueErr != nil {
				return issueErr
			}
			broadcasts = append(broadcasts, stockBroadcast{product: *product, stockAfter: applied.NewStock})
		}

		if ret.CompensationType == model.CompensationCreditNote && ret.CustomerID != nil {
			if creditErr := s.customers.AddCreditBalance(txCtx, *ret.CustomerID, ret.TotalRefund.Neg()); creditErr != nil {
				return apperror.Wrap(creditErr, apperror.KindInternal, "failed to revoke customer credit")
			}
		}

		// Exchanged goods come back in at their original cost.
		for _, item := range ret.ExchangeItems {
			product, lockErr := s.products.FindByIDForUpdate(txCtx, item.ProductID)
			if lockErr != nil {
				return notFoundOr(lockErr, "product not found: "+item.ProductID.String())
			}
			variantID := item.VariantID
			applied, restockErr := s.ledger.Restock(txCtx, ledger.Movement{
				Product:   product,
				VariantID: &variantID,
				QtyBase:   item.QtyBase,
				Type:      model.MutationExchangeCancel,
				Reference: voidRef,
				UserID:    uid,
			})
			if restockErr != nil {
				return restockErr
			}
			broadcasts = append(broadcasts, stockBroadcast{product: *product, stockAfter: applied.NewStock})
		}

		if archiveErr := s.returns.SetArchived(txCtx, ret.ID); archiveErr != nil {
			return apperror.Wrap(archiveErr, apperror.KindInternal, "failed to archive return")
		}
		ret.IsArchived = true

		if auditErr := writeAudit(txCtx, s.auditRepo, uid, model.ActionVoidReturn, ret.ID.String(), ret.ReturnNo, map[string]interface{}{
			"return_no": ret.ReturnNo,
		}); auditErr != nil {
			return apperror.Wrap(auditErr, apperror.KindInternal, "failed to write audit log")
		}

		voided = ret
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

func (s *returnService) GetByID(ctx context.Context, id string) (*model.CustomerReturn, error) {
	returnID, err := parseUUID("id", id)
	if err != nil {
		return nil, err
	}
	ret, err := s.returns.FindByIDWithItems(ctx, returnID)
	if err != nil {
		return nil, notFoundOr(err, "return not found")
	}
	return ret, nil
}

func (s *returnService) List(ctx context.Context, page, limit int, includeArchived bool) ([]model.CustomerReturn, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	returns, total, err := s.returns.List(ctx, page, limit, includeArchived)
	if err != nil {
		return nil, 0, apperror.Wrap(err, apperror.KindInternal, "failed to list returns")
	}
	return returns, total, nil
}

func findSaleItem(sale *model.Sale, id uuid.UUID) *model.SaleItem {
	for i := range sale.Items {
		if sale.Items[i].ID == id {
			return &sale.Items[i]
		}
	}
	return nil
}
