package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/shopspring/decimal"
)

// sellFour posts a fully paid sale of 4 units and returns the response.
func sellFour(t *testing.T, env *testEnv, customerID string) *SaleResponse {
	t.Helper()
	product := env.st.seedProduct("SKU-1", "Widget", dec("10"), dec("100"), dec("0"))
	variant := env.st.seedVariant(product.ID, "pcs", dec("1"), dec("150"))

	resp, err := env.sales.Create(context.Background(), "", CreateSaleRequest{
		CustomerID: customerID,
		PaidAmount: dec("600"),
		Items: []SaleItemRequest{
			{ProductID: product.ID.String(), VariantID: variant.ID.String(), Qty: dec("4")},
		},
	})
	if err != nil {
		t.Fatalf("seed sale: %v", err)
	}
	return resp
}

func TestReturnRefundRestocksCostNeutral(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	sale := sellFour(t, env, "")
	item := sale.Items[0]

	resp, err := env.returns.Create(ctx, "", CreateReturnRequest{
		SaleID:           sale.Sale.ID.String(),
		CompensationType: model.CompensationRefund,
		Items: []ReturnItemRequest{
			{SaleItemID: item.ID.String(), Qty: dec("2"), ReturnToStock: true},
		},
	})
	if err != nil {
		t.Fatalf("create return: %v", err)
	}

	if !resp.Return.TotalRefund.Equal(dec("300")) {
		t.Errorf("refund = %s, want 300 (2 x price at sale)", resp.Return.TotalRefund)
	}

	got := env.st.products[item.ProductID]
	if !got.Stock.Equal(dec("8")) {
		t.Errorf("stock = %s, want 8", got.Stock)
	}
	// Restock is cost-neutral: returned goods re-enter at carried cost.
	if !got.AverageCost.Equal(dec("100")) {
		t.Errorf("average cost = %s, want 100", got.AverageCost)
	}
	if len(resp.Mutations) != 1 || resp.Mutations[0].Type != model.MutationReturnRestock {
		t.Fatalf("expected one return_restock entry")
	}
	if !resp.Mutations[0].QtyBaseUnit.Equal(dec("2")) {
		t.Errorf("journal qty = %s, want 2", resp.Mutations[0].QtyBaseUnit)
	}
}

func TestReturnWithoutRestockLeavesStock(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	sale := sellFour(t, env, "")
	item := sale.Items[0]

	resp, err := env.returns.Create(ctx, "", CreateReturnRequest{
		SaleID:           sale.Sale.ID.String(),
		CompensationType: model.CompensationRefund,
		Items: []ReturnItemRequest{
			{SaleItemID: item.ID.String(), Qty: dec("2"), ReturnToStock: false},
		},
	})
	if err != nil {
		t.Fatalf("create return: %v", err)
	}

	// Damaged goods: refund still owed, inventory untouched.
	if !resp.Return.TotalRefund.Equal(dec("300")) {
		t.Errorf("refund = %s, want 300", resp.Return.TotalRefund)
	}
	if got := env.st.products[item.ProductID]; !got.Stock.Equal(dec("6")) {
		t.Errorf("stock = %s, want 6 (unchanged)", got.Stock)
	}
	if len(resp.Mutations) != 0 {
		t.Errorf("journal rows = %d, want 0", len(resp.Mutations))
	}
}

func TestReturnOverReturnRejectedCumulatively(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	sale := sellFour(t, env, "")
	item := sale.Items[0]

	// More than sold in one document.
	_, err := env.returns.Create(ctx, "", CreateReturnRequest{
		SaleID:           sale.Sale.ID.String(),
		CompensationType: model.CompensationRefund,
		Items: []ReturnItemRequest{
			{SaleItemID: item.ID.String(), Qty: dec("5"), ReturnToStock: true},
		},
	})
	if apperror.KindOf(err) != apperror.KindBusinessRule {
		t.Fatalf("over-return error kind = %v, want business_rule", apperror.KindOf(err))
	}

	// Cumulative across documents: 3 then 2 exceeds the 4 sold.
	if _, err := env.returns.Create(ctx, "", CreateReturnRequest{
		SaleID:           sale.Sale.ID.String(),
		CompensationType: model.CompensationRefund,
		Items: []ReturnItemRequest{
			{SaleItemID: item.ID.String(), Qty: dec("3"), ReturnToStock: true},
		},
	}); err != nil {
		t.Fatalf("first partial return: %v", err)
	}

	_, err = env.returns.Create(ctx, "", CreateReturnRequest{
		SaleID:           sale.Sale.ID.String(),
		CompensationType: model.CompensationRefund,
		Items: []ReturnItemRequest{
			{SaleItemID: item.ID.String(), Qty: dec("2"), ReturnToStock: true},
		},
	})
	if apperror.KindOf(err) != apperror.KindBusinessRule {
		t.Errorf("cumulative over-return error kind = %v, want business_rule", apperror.KindOf(err))
	}

	// The remaining unit still goes through.
	if _, err := env.returns.Create(ctx, "", CreateReturnRequest{
		SaleID:           sale.Sale.ID.String(),
		CompensationType: model.CompensationRefund,
		Items: []ReturnItemRequest{
			{SaleItemID: item.ID.String(), Qty: dec("1"), ReturnToStock: true},
		},
	}); err != nil {
		t.Errorf("final unit return: %v", err)
	}
}

func TestReturnCreditNote(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// Walk-in sale has nobody to credit.
	sale := sellFour(t, env, "")
	_, err := env.returns.Create(ctx, "", CreateReturnRequest{
		SaleID:           sale.Sale.ID.String(),
		CompensationType: model.CompensationCreditNote,
		Items: []ReturnItemRequest{
			{SaleItemID: sale.Items[0].ID.String(), Qty: dec("1"), ReturnToStock: true},
		},
	})
	if apperror.KindOf(err) != apperror.KindBusinessRule {
		t.Errorf("walk-in credit note error kind = %v, want business_rule", apperror.KindOf(err))
	}

	// With a customer the refund lands on their balance.
	customer := env.st.seedCustomer("Dana")
	sale = sellFour(t, env, customer.ID.String())
	if _, err := env.returns.Create(ctx, "", CreateReturnRequest{
		SaleID:           sale.Sale.ID.String(),
		CompensationType: model.CompensationCreditNote,
		Items: []ReturnItemRequest{
			{SaleItemID: sale.Items[0].ID.String(), Qty: dec("2"), ReturnToStock: true},
		},
	}); err != nil {
		t.Fatalf("credit note return: %v", err)
	}

	if got := env.st.customers[customer.ID]; !got.CreditBalance.Equal(dec("300")) {
		t.Errorf("credit balance = %s, want 300", got.CreditBalance)
	}
}

func TestReturnExchangeIssuesReplacement(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	sale := sellFour(t, env, "")
	item := sale.Items[0]

	replacement := env.st.seedProduct("SKU-2", "Gadget", dec("5"), dec("80"), dec("0"))
	replVariant := env.st.seedVariant(replacement.ID, "pcs", dec("1"), dec("120"))

	// Exchange without exchange items is malformed.
	_, err := env.returns.Create(ctx, "", CreateReturnRequest{
		SaleID:           sale.Sale.ID.String(),
		CompensationType: model.CompensationExchange,
		Items: []ReturnItemRequest{
			{SaleItemID: item.ID.String(), Qty: dec("1"), ReturnToStock: true},
		},
	})
	if apperror.KindOf(err) != apperror.KindValidation {
		t.Errorf("exchange without items error kind = %v, want validation", apperror.KindOf(err))
	}

	// Exchange items on a refund are malformed too.
	_, err = env.returns.Create(ctx, "", CreateReturnRequest{
		SaleID:           sale.Sale.ID.String(),
		CompensationType: model.CompensationRefund,
		Items: []ReturnItemRequest{
			{SaleItemID: item.ID.String(), Qty: dec("1"), ReturnToStock: true},
		},
		ExchangeItems: []ExchangeItemRequest{
			{ProductID: replacement.ID.String(), VariantID: replVariant.ID.String(), Qty: dec("1")},
		},
	})
	if apperror.KindOf(err) != apperror.KindValidation {
		t.Errorf("refund with exchange items error kind = %v, want validation", apperror.KindOf(err))
	}

	resp, err := env.returns.Create(ctx, "", CreateReturnRequest{
		SaleID:           sale.Sale.ID.String(),
		CompensationType: model.CompensationExchange,
		Items: []ReturnItemRequest{
			{SaleItemID: item.ID.String(), Qty: dec("1"), ReturnToStock: true},
		},
		ExchangeItems: []ExchangeItemRequest{
			{ProductID: replacement.ID.String(), VariantID: replVariant.ID.String(), Qty: dec("2")},
		},
	})
	if err != nil {
		t.Fatalf("exchange return: %v", err)
	}

	if got := env.st.products[replacement.ID]; !got.Stock.Equal(dec("3")) {
		t.Errorf("replacement stock = %s, want 3", got.Stock)
	}
	if len(resp.Return.ExchangeItems) != 1 {
		t.Fatalf("exchange items = %d, want 1", len(resp.Return.ExchangeItems))
	}
	ex := resp.Return.ExchangeItems[0]
	if !ex.Price.Equal(dec("120")) || !ex.CostAtSale.Equal(dec("80")) {
		t.Errorf("exchange snapshots = %s / %s, want 120 / 80", ex.Price, ex.CostAtSale)
	}

	// The exchange leg cannot issue more than the replacement has.
	_, err = env.returns.Create(ctx, "", CreateReturnRequest{
		SaleID:           sale.Sale.ID.String(),
		CompensationType: model.CompensationExchange,
		Items: []ReturnItemRequest{
			{SaleItemID: item.ID.String(), Qty: dec("1"), ReturnToStock: true},
		},
		ExchangeItems: []ExchangeItemRequest{
			{ProductID: replacement.ID.String(), VariantID: replVariant.ID.String(), Qty: dec("9")},
		},
	})
	if apperror.KindOf(err) != apperror.KindBusinessRule {
		t.Errorf("exchange beyond stock error kind = %v, want business_rule", apperror.KindOf(err))
	}
}

func TestReturnAgainstVoidedSaleRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	sale := sellFour(t, env, "")
	if _, err := env.sales.Void(ctx, "", sale.Sale.ID.String()); err != nil {
		t.Fatalf("void sale: %v", err)
	}

	_, err := env.returns.Create(ctx, "", CreateReturnRequest{
		SaleID:           sale.Sale.ID.String(),
		CompensationType: model.CompensationRefund,
		Items: []ReturnItemRequest{
			{SaleItemID: sale.Items[0].ID.String(), Qty: dec("1"), ReturnToStock: true},
		},
	})
	if apperror.KindOf(err) != apperror.KindConflict {
		t.Errorf("return against voided sale error kind = %v, want conflict", apperror.KindOf(err))
	}
}

func TestReturnVoidReversesEachLeg(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	customer := env.st.seedCustomer("Dana")
	sale := sellFour(t, env, customer.ID.String())
	item := sale.Items[0]

	created, err := env.returns.Create(ctx, "", CreateReturnRequest{
		SaleID:           sale.Sale.ID.String(),
		CompensationType: model.CompensationCreditNote,
		Items: []ReturnItemRequest{
			{SaleItemID: item.ID.String(), Qty: dec("2"), ReturnToStock: true},
		},
	})
	if err != nil {
		t.Fatalf("create return: %v", err)
	}
	if got := env.st.products[item.ProductID]; !got.Stock.Equal(dec("8")) {
		t.Fatalf("stock after return = %s, want 8", got.Stock)
	}

	voided, err := env.returns.Void(ctx, "", created.Return.ID.String())
	if err != nil {
		t.Fatalf("void return: %v", err)
	}
	if !voided.IsArchived {
		t.Error("voided return should be archived")
	}

	// Restocked units went back out.
	if got := env.st.products[item.ProductID]; !got.Stock.Equal(dec("6")) {
		t.Errorf("stock after void = %s, want 6", got.Stock)
	}
	cancels := env.st.mutationsByReference(model.VoidReferencePrefix + created.Return.ReturnNo)
	if len(cancels) != 1 || cancels[0].Type != model.MutationReturnCancel {
		t.Fatalf("expected one return_cancel entry")
	}

	// Credit came back off the customer's balance.
	if got := env.st.customers[customer.ID]; !got.CreditBalance.IsZero() {
		t.Errorf("credit balance after void = %s, want 0", got.CreditBalance)
	}

	if _, err := env.returns.Void(ctx, "", created.Return.ID.String()); apperror.KindOf(err) != apperror.KindConflict {
		t.Errorf("second void error kind = %v, want conflict", apperror.KindOf(err))
	}
}

func TestReturnVoidRestocksExchangedGoods(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	sale := sellFour(t, env, "")
	item := sale.Items[0]

	replacement := env.st.seedProduct("SKU-2", "Gadget", dec("5"), dec("80"), dec("0"))
	replVariant := env.st.seedVariant(replacement.ID, "pcs", dec("1"), dec("120"))

	created, err := env.returns.Create(ctx, "", CreateReturnRequest{
		SaleID:           sale.Sale.ID.String(),
		CompensationType: model.CompensationExchange,
		Items: []ReturnItemRequest{
			{SaleItemID: item.ID.String(), Qty: dec("1"), ReturnToStock: true},
		},
		ExchangeItems: []ExchangeItemRequest{
			{ProductID: replacement.ID.String(), VariantID: replVariant.ID.String(), Qty: dec("2")},
		},
	})
	if err != nil {
		t.Fatalf("create return: %v", err)
	}

	if _, err := env.returns.Void(ctx, "", created.Return.ID.String()); err != nil {
		t.Fatalf("void return: %v", err)
	}

	if got := env.st.products[replacement.ID]; !got.Stock.Equal(dec("5")) {
		t.Errorf("replacement stock after void = %s, want 5", got.Stock)
	}
	if got := env.st.products[item.ProductID]; !got.Stock.Equal(dec("6")) {
		t.Errorf("original stock after void = %s, want 6", got.Stock)
	}

	var sawExchangeCancel decimal.Decimal
	for _, m := range env.st.mutationsByReference(model.VoidReferencePrefix + created.Return.ReturnNo) {
		if m.Type == model.MutationExchangeCancel {
			sawExchangeCancel = m.QtyBaseUnit
		}
	}
	if !sawExchangeCancel.Equal(dec("2")) {
		t.Errorf("exchange_cancel qty = %s, want 2", sawExchangeCancel)
	}
}
