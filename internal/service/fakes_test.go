package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"backend/internal/ledger"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// memStore is the shared state behind the in-memory repository fakes. The
// fakes mirror the gorm-backed repositories closely enough for orchestration
// tests: missing rows return gorm.ErrRecordNotFound, reads hand out copies,
// and writes land back in the store.
type memStore struct {
	products      map[uuid.UUID]*model.Product
	variants      map[uuid.UUID]*model.ProductVariant
	mutations     []model.StockMutation
	purchases     map[uuid.UUID]*model.PurchaseOrder
	purchaseItems []model.PurchaseItem
	sales         map[uuid.UUID]*model.Sale
	saleItems     []model.SaleItem
	returns       map[uuid.UUID]*model.CustomerReturn
	returnItems   []model.CustomerReturnItem
	exchangeItems []model.CustomerExchangeItem
	debts         map[uuid.UUID]*model.Debt
	payments      []model.DebtPayment
	customers     map[uuid.UUID]*model.Customer
	suppliers     map[uuid.UUID]*model.Supplier
	audits        []model.AuditLog
	docSeq        map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		products:  make(map[uuid.UUID]*model.Product),
		variants:  make(map[uuid.UUID]*model.ProductVariant),
		purchases: make(map[uuid.UUID]*model.PurchaseOrder),
		sales:     make(map[uuid.UUID]*model.Sale),
		returns:   make(map[uuid.UUID]*model.CustomerReturn),
		debts:     make(map[uuid.UUID]*model.Debt),
		customers: make(map[uuid.UUID]*model.Customer),
		suppliers: make(map[uuid.UUID]*model.Supplier),
		docSeq:    make(map[string]int),
	}
}

func (st *memStore) nextNo(prefix string) string {
	st.docSeq[prefix]++
	return fmt.Sprintf("%s-%s-%05d", prefix, time.Now().Format("20060102"), st.docSeq[prefix])
}

// Seed helpers

func (st *memStore) seedProduct(sku, name string, stock, avgCost, minStock decimal.Decimal) *model.Product {
	p := &model.Product{
		ID:          uuid.New(),
		SKU:         sku,
		Name:        name,
		BaseUnit:    "pcs",
		Stock:       stock,
		AverageCost: avgCost,
		MinStock:    minStock,
	}
	st.products[p.ID] = p
	return p
}

func (st *memStore) seedVariant(productID uuid.UUID, name string, factor, sellPrice decimal.Decimal) *model.ProductVariant {
	v := &model.ProductVariant{
		ID:               uuid.New(),
		ProductID:        productID,
		Name:             name,
		ConversionToBase: factor,
		SellPrice:        sellPrice,
		IsBase:           factor.Equal(decimal.NewFromInt(1)),
	}
	st.variants[v.ID] = v
	return v
}

func (st *memStore) seedSupplier(name string) *model.Supplier {
	s := &model.Supplier{ID: uuid.New(), Name: name}
	st.suppliers[s.ID] = s
	return s
}

func (st *memStore) seedCustomer(name string) *model.Customer {
	c := &model.Customer{ID: uuid.New(), Name: name}
	st.customers[c.ID] = c
	return c
}

func (st *memStore) sumJournal(productID uuid.UUID) decimal.Decimal {
	sum := decimal.Zero
	for _, m := range st.mutations {
		if m.ProductID == productID {
			sum = sum.Add(m.QtyBaseUnit)
		}
	}
	return sum
}

func (st *memStore) mutationsByReference(reference string) []model.StockMutation {
	var out []model.StockMutation
	for _, m := range st.mutations {
		if m.Reference == reference {
			out = append(out, m)
		}
	}
	return out
}

// passthroughTx runs the closure directly; the fakes have no transactional
// state to stash in context.
type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// Product repository fake

type fakeProductRepo struct{ st *memStore }

func (r *fakeProductRepo) Create(_ context.Context, product *model.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	cp := *product
	r.st.products[product.ID] = &cp
	return nil
}

func (r *fakeProductRepo) Update(_ context.Context, product *model.Product) error {
	if _, ok := r.st.products[product.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *product
	r.st.products[product.ID] = &cp
	return nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.st.products, id)
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.st.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	for _, v := range r.st.variants {
		if v.ProductID == id {
			cp.Variants = append(cp.Variants, *v)
		}
	}
	return &cp, nil
}

func (r *fakeProductRepo) FindBySKU(_ context.Context, sku string) (*model.Product, error) {
	for _, p := range r.st.products {
		if p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProductRepo) FindByIDForUpdate(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.st.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductRepo) UpdateStockAndCost(_ context.Context, id uuid.UUID, stock, averageCost decimal.Decimal) error {
	p, ok := r.st.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Stock = stock
	p.AverageCost = averageCost
	return nil
}

func (r *fakeProductRepo) UpdateLastPurchaseCost(_ context.Context, id uuid.UUID, cost decimal.Decimal) error {
	p, ok := r.st.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.LastPurchaseCost = cost
	return nil
}

func (r *fakeProductRepo) UpdateMinStock(_ context.Context, id uuid.UUID, minStock decimal.Decimal) error {
	p, ok := r.st.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.MinStock = minStock
	return nil
}

func (r *fakeProductRepo) List(_ context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.st.products {
		if search == "" || strings.Contains(p.Name, search) || strings.Contains(p.SKU, search) {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeProductRepo) ListLowStock(_ context.Context) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.st.products {
		if p.MinStock.IsPositive() && p.Stock.LessThanOrEqual(p.MinStock) {
			out = append(out, *p)
		}
	}
	return out, nil
}

// Variant repository fake

type fakeVariantRepo struct{ st *memStore }

func (r *fakeVariantRepo) Create(_ context.Context, variant *model.ProductVariant) error {
	if variant.ID == uuid.Nil {
		variant.ID = uuid.New()
	}
	cp := *variant
	r.st.variants[variant.ID] = &cp
	return nil
}

func (r *fakeVariantRepo) Update(_ context.Context, variant *model.ProductVariant) error {
	if _, ok := r.st.variants[variant.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *variant
	r.st.variants[variant.ID] = &cp
	return nil
}

func (r *fakeVariantRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.st.variants, id)
	return nil
}

func (r *fakeVariantRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ProductVariant, error) {
	v, ok := r.st.variants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *v
	return &cp, nil
}

func (r *fakeVariantRepo) ListByProductID(_ context.Context, productID uuid.UUID) ([]model.ProductVariant, error) {
	var out []model.ProductVariant
	for _, v := range r.st.variants {
		if v.ProductID == productID {
			out = append(out, *v)
		}
	}
	return out, nil
}

// Stock mutation repository fake

type fakeMutationRepo struct{ st *memStore }

func (r *fakeMutationRepo) Create(_ context.Context, mutation *model.StockMutation) error {
	if mutation.ID == uuid.Nil {
		mutation.ID = uuid.New()
	}
	if mutation.CreatedAt.IsZero() {
		mutation.CreatedAt = time.Now()
	}
	r.st.mutations = append(r.st.mutations, *mutation)
	return nil
}

func (r *fakeMutationRepo) List(_ context.Context, filter repository.MutationFilter) ([]model.StockMutation, int64, error) {
	var out []model.StockMutation
	for _, m := range r.st.mutations {
		if filter.ProductID != uuid.Nil && m.ProductID != filter.ProductID {
			continue
		}
		if filter.VariantID != uuid.Nil && (m.VariantID == nil || *m.VariantID != filter.VariantID) {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		if filter.Reference != "" && !strings.Contains(m.Reference, filter.Reference) {
			continue
		}
		if !filter.From.IsZero() && m.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && m.CreatedAt.After(filter.To) {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

func (r *fakeMutationRepo) ListByReference(_ context.Context, reference string) ([]model.StockMutation, error) {
	return r.st.mutationsByReference(reference), nil
}

func (r *fakeMutationRepo) SumQtyByProduct(_ context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	return r.st.sumJournal(productID), nil
}

func (r *fakeMutationRepo) DeleteByReference(_ context.Context, reference string) error {
	kept := r.st.mutations[:0]
	for _, m := range r.st.mutations {
		if m.Reference != reference {
			kept = append(kept, m)
		}
	}
	r.st.mutations = kept
	return nil
}

func (r *fakeMutationRepo) NextAdjustmentNo(_ context.Context) (string, error) {
	return r.st.nextNo("ADJ"), nil
}

// Purchase repository fake

type fakePurchaseRepo struct{ st *memStore }

func (r *fakePurchaseRepo) Create(_ context.Context, order *model.PurchaseOrder) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	cp := *order
	cp.Items = nil
	r.st.purchases[order.ID] = &cp
	return nil
}

func (r *fakePurchaseRepo) CreateItem(_ context.Context, item *model.PurchaseItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.st.purchaseItems = append(r.st.purchaseItems, *item)
	return nil
}

func (r *fakePurchaseRepo) Update(_ context.Context, order *model.PurchaseOrder) error {
	if _, ok := r.st.purchases[order.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *order
	cp.Items = nil
	r.st.purchases[order.ID] = &cp
	return nil
}

func (r *fakePurchaseRepo) FindByID(_ context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	o, ok := r.st.purchases[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakePurchaseRepo) FindByIDWithItems(_ context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	o, ok := r.st.purchases[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	for _, item := range r.st.purchaseItems {
		if item.PurchaseOrderID == id {
			cp.Items = append(cp.Items, item)
		}
	}
	return &cp, nil
}

func (r *fakePurchaseRepo) DeleteItemsByOrderID(_ context.Context, orderID uuid.UUID) error {
	kept := r.st.purchaseItems[:0]
	for _, item := range r.st.purchaseItems {
		if item.PurchaseOrderID != orderID {
			kept = append(kept, item)
		}
	}
	r.st.purchaseItems = kept
	return nil
}

func (r *fakePurchaseRepo) SetArchived(_ context.Context, id uuid.UUID) error {
	o, ok := r.st.purchases[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.IsArchived = true
	return nil
}

func (r *fakePurchaseRepo) List(_ context.Context, page, limit int, includeArchived bool) ([]model.PurchaseOrder, int64, error) {
	var out []model.PurchaseOrder
	for _, o := range r.st.purchases {
		if !includeArchived && o.IsArchived {
			continue
		}
		out = append(out, *o)
	}
	return out, int64(len(out)), nil
}

func (r *fakePurchaseRepo) NextOrderNo(_ context.Context) (string, error) {
	return r.st.nextNo("PO"), nil
}

// Sale repository fake

type fakeSaleRepo struct{ st *memStore }

func (r *fakeSaleRepo) Create(_ context.Context, sale *model.Sale) error {
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	cp := *sale
	cp.Items = nil
	r.st.sales[sale.ID] = &cp
	return nil
}

func (r *fakeSaleRepo) CreateItem(_ context.Context, item *model.SaleItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.st.saleItems = append(r.st.saleItems, *item)
	return nil
}

func (r *fakeSaleRepo) Update(_ context.Context, sale *model.Sale) error {
	if _, ok := r.st.sales[sale.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *sale
	cp.Items = nil
	r.st.sales[sale.ID] = &cp
	return nil
}

func (r *fakeSaleRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	s, ok := r.st.sales[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Status = status
	return nil
}

func (r *fakeSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.st.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSaleRepo) FindByIDWithItems(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.st.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	for _, item := range r.st.saleItems {
		if item.SaleID == id {
			cp.Items = append(cp.Items, item)
		}
	}
	return &cp, nil
}

func (r *fakeSaleRepo) FindItemByID(_ context.Context, id uuid.UUID) (*model.SaleItem, error) {
	for _, item := range r.st.saleItems {
		if item.ID == id {
			cp := item
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSaleRepo) DeleteItemsBySaleID(_ context.Context, saleID uuid.UUID) error {
	kept := r.st.saleItems[:0]
	for _, item := range r.st.saleItems {
		if item.SaleID != saleID {
			kept = append(kept, item)
		}
	}
	r.st.saleItems = kept
	return nil
}

func (r *fakeSaleRepo) SetArchived(_ context.Context, id uuid.UUID) error {
	s, ok := r.st.sales[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.IsArchived = true
	return nil
}

func (r *fakeSaleRepo) List(_ context.Context, page, limit int, includeArchived bool) ([]model.Sale, int64, error) {
	var out []model.Sale
	for _, s := range r.st.sales {
		if !includeArchived && s.IsArchived {
			continue
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *fakeSaleRepo) NextInvoiceNo(_ context.Context) (string, error) {
	return r.st.nextNo("INV"), nil
}

// Return repository fake

type fakeReturnRepo struct{ st *memStore }

func (r *fakeReturnRepo) Create(_ context.Context, ret *model.CustomerReturn) error {
	if ret.ID == uuid.Nil {
		ret.ID = uuid.New()
	}
	cp := *ret
	cp.Items = nil
	cp.ExchangeItems = nil
	r.st.returns[ret.ID] = &cp
	return nil
}

func (r *fakeReturnRepo) Update(_ context.Context, ret *model.CustomerReturn) error {
	if _, ok := r.st.returns[ret.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *ret
	cp.Items = nil
	cp.ExchangeItems = nil
	r.st.returns[ret.ID] = &cp
	return nil
}

func (r *fakeReturnRepo) CreateItem(_ context.Context, item *model.CustomerReturnItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.st.returnItems = append(r.st.returnItems, *item)
	return nil
}

func (r *fakeReturnRepo) CreateExchangeItem(_ context.Context, item *model.CustomerExchangeItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.st.exchangeItems = append(r.st.exchangeItems, *item)
	return nil
}

func (r *fakeReturnRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CustomerReturn, error) {
	ret, ok := r.st.returns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *ret
	return &cp, nil
}

func (r *fakeReturnRepo) FindByIDWithItems(_ context.Context, id uuid.UUID) (*model.CustomerReturn, error) {
	ret, ok := r.st.returns[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *ret
	for _, item := range r.st.returnItems {
		if item.ReturnID == id {
			cp.Items = append(cp.Items, item)
		}
	}
	for _, item := range r.st.exchangeItems {
		if item.ReturnID == id {
			cp.ExchangeItems = append(cp.ExchangeItems, item)
		}
	}
	return &cp, nil
}

func (r *fakeReturnRepo) SumReturnedQtyBySaleItem(_ context.Context, saleItemID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, item := range r.st.returnItems {
		if item.SaleItemID != saleItemID {
			continue
		}
		parent, ok := r.st.returns[item.ReturnID]
		if !ok || parent.IsArchived {
			continue
		}
		sum = sum.Add(item.Qty)
	}
	return sum, nil
}

func (r *fakeReturnRepo) SetArchived(_ context.Context, id uuid.UUID) error {
	ret, ok := r.st.returns[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	ret.IsArchived = true
	return nil
}

func (r *fakeReturnRepo) List(_ context.Context, page, limit int, includeArchived bool) ([]model.CustomerReturn, int64, error) {
	var out []model.CustomerReturn
	for _, ret := range r.st.returns {
		if !includeArchived && ret.IsArchived {
			continue
		}
		out = append(out, *ret)
	}
	return out, int64(len(out)), nil
}

func (r *fakeReturnRepo) NextReturnNo(_ context.Context) (string, error) {
	return r.st.nextNo("RET"), nil
}

// Debt repository fake

type fakeDebtRepo struct{ st *memStore }

func (r *fakeDebtRepo) Create(_ context.Context, debt *model.Debt) error {
	if debt.ID == uuid.Nil {
		debt.ID = uuid.New()
	}
	cp := *debt
	cp.Payments = nil
	r.st.debts[debt.ID] = &cp
	return nil
}

func (r *fakeDebtRepo) Update(_ context.Context, debt *model.Debt) error {
	if _, ok := r.st.debts[debt.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *debt
	cp.Payments = nil
	r.st.debts[debt.ID] = &cp
	return nil
}

func (r *fakeDebtRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Debt, error) {
	d, ok := r.st.debts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	for _, p := range r.st.payments {
		if p.DebtID == id {
			cp.Payments = append(cp.Payments, p)
		}
	}
	return &cp, nil
}

func (r *fakeDebtRepo) FindByIDForUpdate(_ context.Context, id uuid.UUID) (*model.Debt, error) {
	d, ok := r.st.debts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDebtRepo) FindBySaleID(_ context.Context, saleID uuid.UUID) (*model.Debt, error) {
	for _, d := range r.st.debts {
		if d.SaleID == saleID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeDebtRepo) CreatePayment(_ context.Context, payment *model.DebtPayment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	r.st.payments = append(r.st.payments, *payment)
	return nil
}

func (r *fakeDebtRepo) CountPayments(_ context.Context, debtID uuid.UUID) (int64, error) {
	var count int64
	for _, p := range r.st.payments {
		if p.DebtID == debtID {
			count++
		}
	}
	return count, nil
}

func (r *fakeDebtRepo) DeleteBySaleID(_ context.Context, saleID uuid.UUID) error {
	for id, d := range r.st.debts {
		if d.SaleID == saleID {
			delete(r.st.debts, id)
		}
	}
	return nil
}

func (r *fakeDebtRepo) List(_ context.Context, page, limit int, status string) ([]model.Debt, int64, error) {
	var out []model.Debt
	for _, d := range r.st.debts {
		if status != "" && d.Status != status {
			continue
		}
		out = append(out, *d)
	}
	return out, int64(len(out)), nil
}

// Customer repository fake

type fakeCustomerRepo struct{ st *memStore }

func (r *fakeCustomerRepo) Create(_ context.Context, customer *model.Customer) error {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	cp := *customer
	r.st.customers[customer.ID] = &cp
	return nil
}

func (r *fakeCustomerRepo) Update(_ context.Context, customer *model.Customer) error {
	if _, ok := r.st.customers[customer.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *customer
	r.st.customers[customer.ID] = &cp
	return nil
}

func (r *fakeCustomerRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.st.customers, id)
	return nil
}

func (r *fakeCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	c, ok := r.st.customers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCustomerRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeCustomerRepo) AddCreditBalance(_ context.Context, id uuid.UUID, delta decimal.Decimal) error {
	c, ok := r.st.customers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.CreditBalance = c.CreditBalance.Add(delta)
	return nil
}

func (r *fakeCustomerRepo) List(_ context.Context, search string, page, limit int) ([]model.Customer, int64, error) {
	var out []model.Customer
	for _, c := range r.st.customers {
		if search == "" || strings.Contains(c.Name, search) {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

// Supplier repository fake

type fakeSupplierRepo struct{ st *memStore }

func (r *fakeSupplierRepo) Create(_ context.Context, supplier *model.Supplier) error {
	if supplier.ID == uuid.Nil {
		supplier.ID = uuid.New()
	}
	cp := *supplier
	r.st.suppliers[supplier.ID] = &cp
	return nil
}

func (r *fakeSupplierRepo) Update(_ context.Context, supplier *model.Supplier) error {
	if _, ok := r.st.suppliers[supplier.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *supplier
	r.st.suppliers[supplier.ID] = &cp
	return nil
}

func (r *fakeSupplierRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.st.suppliers, id)
	return nil
}

func (r *fakeSupplierRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Supplier, error) {
	s, ok := r.st.suppliers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSupplierRepo) List(_ context.Context, search string, page, limit int) ([]model.Supplier, int64, error) {
	var out []model.Supplier
	for _, s := range r.st.suppliers {
		if search == "" || strings.Contains(s.Name, search) {
			out = append(out, *s)
		}
	}
	return out, int64(len(out)), nil
}

// Audit repository fake

type fakeAuditRepo struct{ st *memStore }

func (r *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	r.st.audits = append(r.st.audits, *entry)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, page, limit int, action string) ([]model.AuditLog, int64, error) {
	var out []model.AuditLog
	for _, a := range r.st.audits {
		if action != "" && a.Action != action {
			continue
		}
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

// testEnv wires the fakes into real services, with a nil hub and a
// passthrough transaction manager.
type testEnv struct {
	st        *memStore
	purchases PurchaseService
	sales     SaleService
	returns   ReturnService
	debts     DebtService
	stock     StockService
}

func newTestEnv() *testEnv {
	st := newMemStore()

	productRepo := &fakeProductRepo{st: st}
	variantRepo := &fakeVariantRepo{st: st}
	mutationRepo := &fakeMutationRepo{st: st}
	purchaseRepo := &fakePurchaseRepo{st: st}
	saleRepo := &fakeSaleRepo{st: st}
	returnRepo := &fakeReturnRepo{st: st}
	debtRepo := &fakeDebtRepo{st: st}
	customerRepo := &fakeCustomerRepo{st: st}
	supplierRepo := &fakeSupplierRepo{st: st}
	auditRepo := &fakeAuditRepo{st: st}
	tx := passthroughTx{}

	stockLedger := ledger.New(productRepo, variantRepo, mutationRepo)

	return &testEnv{
		st:        st,
		purchases: NewPurchaseService(purchaseRepo, productRepo, supplierRepo, auditRepo, stockLedger, tx, nil),
		sales:     NewSaleService(saleRepo, productRepo, customerRepo, debtRepo, auditRepo, stockLedger, tx, nil),
		returns:   NewReturnService(returnRepo, saleRepo, productRepo, customerRepo, auditRepo, stockLedger, tx, nil),
		debts:     NewDebtService(debtRepo, saleRepo, auditRepo, tx),
		stock:     NewStockService(productRepo, mutationRepo, auditRepo, stockLedger, tx, nil),
	}
}

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}
