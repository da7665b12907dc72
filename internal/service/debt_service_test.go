package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/pkg/apperror"
)

// seedDebt posts an unpaid customer sale of 4 units at 150 and returns its
// debt (600 outstanding).
func seedDebt(t *testing.T, env *testEnv) *SaleResponse {
	t.Helper()
	product := env.st.seedProduct("SKU-1", "Widget", dec("10"), dec("100"), dec("0"))
	variant := env.st.seedVariant(product.ID, "pcs", dec("1"), dec("150"))
	customer := env.st.seedCustomer("Dana")

	resp, err := env.sales.Create(context.Background(), "", CreateSaleRequest{
		CustomerID: customer.ID.String(),
		Items: []SaleItemRequest{
			{ProductID: product.ID.String(), VariantID: variant.ID.String(), Qty: dec("4")},
		},
	})
	if err != nil {
		t.Fatalf("seed sale: %v", err)
	}
	return resp
}

func TestDebtPayPartialThenSettle(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	sale := seedDebt(t, env)

	partial, err := env.debts.Pay(ctx, "", sale.Debt.ID.String(), PayDebtRequest{Amount: dec("200")})
	if err != nil {
		t.Fatalf("partial payment: %v", err)
	}
	if partial.Debt.Status != model.DebtStatusPartial {
		t.Errorf("debt status = %s, want PARTIAL", partial.Debt.Status)
	}
	if !partial.Debt.RemainingAmount.Equal(dec("400")) {
		t.Errorf("remaining = %s, want 400", partial.Debt.RemainingAmount)
	}
	if got := env.st.sales[sale.Sale.ID]; got.Status != model.SaleStatusPartial {
		t.Errorf("sale status = %s, want PARTIAL", got.Status)
	}

	settled, err := env.debts.Pay(ctx, "", sale.Debt.ID.String(), PayDebtRequest{Amount: dec("400")})
	if err != nil {
		t.Fatalf("settling payment: %v", err)
	}
	if settled.Debt.Status != model.DebtStatusPaid {
		t.Errorf("debt status = %s, want PAID", settled.Debt.Status)
	}
	if !settled.Debt.RemainingAmount.IsZero() {
		t.Errorf("remaining = %s, want 0", settled.Debt.RemainingAmount)
	}
	// Full settlement completes the sale in the same operation.
	if got := env.st.sales[sale.Sale.ID]; got.Status != model.SaleStatusCompleted {
		t.Errorf("sale status = %s, want COMPLETED", got.Status)
	}
	if len(env.st.payments) != 2 {
		t.Errorf("payment rows = %d, want 2", len(env.st.payments))
	}
}

func TestDebtOverpaymentRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	sale := seedDebt(t, env)

	_, err := env.debts.Pay(ctx, "", sale.Debt.ID.String(), PayDebtRequest{Amount: dec("700")})
	if apperror.KindOf(err) != apperror.KindBusinessRule {
		t.Fatalf("overpayment error kind = %v, want business_rule", apperror.KindOf(err))
	}

	// Nothing moved.
	if got := env.st.debts[sale.Debt.ID]; !got.RemainingAmount.Equal(dec("600")) {
		t.Errorf("remaining = %s, want 600 (unchanged)", got.RemainingAmount)
	}
	if len(env.st.payments) != 0 {
		t.Errorf("payment rows = %d, want 0", len(env.st.payments))
	}
}

func TestDebtPayNonPositiveRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	sale := seedDebt(t, env)

	for _, amount := range []string{"0", "-50"} {
		_, err := env.debts.Pay(ctx, "", sale.Debt.ID.String(), PayDebtRequest{Amount: dec(amount)})
		if apperror.KindOf(err) != apperror.KindBusinessRule {
			t.Errorf("amount %s error kind = %v, want business_rule", amount, apperror.KindOf(err))
		}
	}
}

func TestDebtPaySettledRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	sale := seedDebt(t, env)

	if _, err := env.debts.Pay(ctx, "", sale.Debt.ID.String(), PayDebtRequest{Amount: dec("600")}); err != nil {
		t.Fatalf("settle: %v", err)
	}

	_, err := env.debts.Pay(ctx, "", sale.Debt.ID.String(), PayDebtRequest{Amount: dec("1")})
	if apperror.KindOf(err) != apperror.KindConflict {
		t.Errorf("payment on settled debt error kind = %v, want conflict", apperror.KindOf(err))
	}
}

func TestDebtPayCancelledRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	sale := seedDebt(t, env)

	// Voiding the sale cancels the debt.
	if _, err := env.sales.Void(ctx, "", sale.Sale.ID.String()); err != nil {
		t.Fatalf("void sale: %v", err)
	}

	_, err := env.debts.Pay(ctx, "", sale.Debt.ID.String(), PayDebtRequest{Amount: dec("100")})
	if apperror.KindOf(err) != apperror.KindConflict {
		t.Errorf("payment on cancelled debt error kind = %v, want conflict", apperror.KindOf(err))
	}
}

func TestDebtListFiltersByStatus(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	sale := seedDebt(t, env)

	if _, err := env.debts.Pay(ctx, "", sale.Debt.ID.String(), PayDebtRequest{Amount: dec("100")}); err != nil {
		t.Fatalf("pay: %v", err)
	}

	partial, total, err := env.debts.List(ctx, 1, 20, model.DebtStatusPartial)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || len(partial) != 1 {
		t.Errorf("partial debts = %d, want 1", len(partial))
	}

	unpaid, total, err := env.debts.List(ctx, 1, 20, model.DebtStatusUnpaid)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 0 || len(unpaid) != 0 {
		t.Errorf("unpaid debts = %d, want 0", len(unpaid))
	}
}
