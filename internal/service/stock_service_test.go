package service

import (
	"context"
	"strings"
	"testing"

	"backend/internal/model"
	"backend/pkg/apperror"
)

func TestAdjustJournalsSignedDelta(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	product := env.st.seedProduct("SKU-1", "Widget", dec("10"), dec("100"), dec("0"))
	env.st.mutations = append(env.st.mutations, model.StockMutation{
		ProductID:   product.ID,
		Type:        model.MutationAdjustment,
		QtyBaseUnit: dec("10"),
		StockAfter:  dec("10"),
		Reference:   "SEED",
	})

	actual := dec("15")
	resp, err := env.stock.Adjust(ctx, "", AdjustStockRequest{
		ProductID:   product.ID.String(),
		ActualStock: &actual,
		Reason:      "annual count",
	})
	if err != nil {
		t.Fatalf("adjust up: %v", err)
	}
	if !resp.Adjustment.Equal(dec("5")) || !resp.NewStock.Equal(dec("15")) {
		t.Errorf("adjustment = %s new stock = %s, want 5 / 15", resp.Adjustment, resp.NewStock)
	}
	if resp.Mutation == nil || resp.Mutation.Type != model.MutationAdjustment {
		t.Fatal("expected an adjustment journal entry")
	}
	if !resp.Mutation.QtyBaseUnit.Equal(dec("5")) {
		t.Errorf("journal qty = %s, want 5", resp.Mutation.QtyBaseUnit)
	}
	if !strings.HasPrefix(resp.Mutation.Reference, "ADJ-") {
		t.Errorf("reference = %s, want ADJ- prefix", resp.Mutation.Reference)
	}
	if resp.Mutation.Note != "annual count" {
		t.Errorf("note = %q, want reason carried onto the entry", resp.Mutation.Note)
	}
	// Adjustments carry no cost information.
	if got := env.st.products[product.ID]; !got.AverageCost.Equal(dec("100")) {
		t.Errorf("average cost = %s, want 100", got.AverageCost)
	}

	actual = dec("12")
	resp, err = env.stock.Adjust(ctx, "", AdjustStockRequest{
		ProductID:   product.ID.String(),
		ActualStock: &actual,
	})
	if err != nil {
		t.Fatalf("adjust down: %v", err)
	}
	if !resp.Adjustment.Equal(dec("-3")) || !resp.Mutation.QtyBaseUnit.Equal(dec("-3")) {
		t.Errorf("downward adjustment = %s / %s, want -3 / -3", resp.Adjustment, resp.Mutation.QtyBaseUnit)
	}

	got := env.st.products[product.ID]
	if sum := env.st.sumJournal(product.ID); !sum.Equal(got.Stock) {
		t.Errorf("journal sum %s does not match stock %s", sum, got.Stock)
	}
}

func TestAdjustZeroDeltaSkipsJournal(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	product := env.st.seedProduct("SKU-1", "Widget", dec("10"), dec("100"), dec("0"))

	actual := dec("10")
	minStock := dec("3")
	resp, err := env.stock.Adjust(ctx, "", AdjustStockRequest{
		ProductID:   product.ID.String(),
		ActualStock: &actual,
		MinStock:    &minStock,
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if resp.Mutation != nil {
		t.Error("matching count should not journal anything")
	}
	if len(env.st.mutations) != 0 {
		t.Errorf("journal rows = %d, want 0", len(env.st.mutations))
	}
	if got := env.st.products[product.ID]; !got.MinStock.Equal(dec("3")) {
		t.Errorf("min stock = %s, want 3", got.MinStock)
	}
}

func TestAdjustValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	product := env.st.seedProduct("SKU-1", "Widget", dec("10"), dec("100"), dec("0"))

	// Neither field provided.
	_, err := env.stock.Adjust(ctx, "", AdjustStockRequest{ProductID: product.ID.String()})
	if apperror.KindOf(err) != apperror.KindValidation {
		t.Errorf("empty request error kind = %v, want validation", apperror.KindOf(err))
	}

	negative := dec("-1")
	_, err = env.stock.Adjust(ctx, "", AdjustStockRequest{
		ProductID:   product.ID.String(),
		ActualStock: &negative,
	})
	if apperror.KindOf(err) != apperror.KindValidation {
		t.Errorf("negative actual error kind = %v, want validation", apperror.KindOf(err))
	}
}

func TestRecountReportsAndCorrectsDrift(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	product := env.st.seedProduct("SKU-1", "Widget", dec("0"), dec("0"), dec("0"))
	env.st.mutations = append(env.st.mutations, model.StockMutation{
		ProductID:   product.ID,
		Type:        model.MutationPurchase,
		QtyBaseUnit: dec("10"),
		StockAfter:  dec("10"),
		Reference:   "SEED",
	})
	// Simulate a drifted stock column.
	env.st.products[product.ID].Stock = dec("12")

	report, err := env.stock.Recount(ctx, product.ID.String(), false)
	if err != nil {
		t.Fatalf("recount: %v", err)
	}
	if !report.Drift.Equal(dec("2")) || report.Corrected {
		t.Errorf("drift = %s corrected = %v, want 2 / false", report.Drift, report.Corrected)
	}
	// Dry run leaves the column alone.
	if got := env.st.products[product.ID]; !got.Stock.Equal(dec("12")) {
		t.Errorf("stock after dry run = %s, want 12", got.Stock)
	}

	applied, err := env.stock.Recount(ctx, product.ID.String(), true)
	if err != nil {
		t.Fatalf("recount apply: %v", err)
	}
	if !applied.Corrected {
		t.Error("apply with drift should correct")
	}
	if got := env.st.products[product.ID]; !got.Stock.Equal(dec("10")) {
		t.Errorf("stock after rebuild = %s, want 10 (journal sum)", got.Stock)
	}

	// No drift, nothing to correct.
	clean, err := env.stock.Recount(ctx, product.ID.String(), true)
	if err != nil {
		t.Fatalf("recount clean: %v", err)
	}
	if clean.Corrected || !clean.Drift.IsZero() {
		t.Errorf("clean recount drift = %s corrected = %v, want 0 / false", clean.Drift, clean.Corrected)
	}
}

func TestLowStockListing(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.st.seedProduct("LOW", "Low", dec("2"), dec("10"), dec("5"))
	env.st.seedProduct("OK", "Ok", dec("20"), dec("10"), dec("5"))
	env.st.seedProduct("NOMIN", "NoMin", dec("0"), dec("10"), dec("0"))

	products, err := env.stock.LowStock(ctx)
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if len(products) != 1 || products[0].SKU != "LOW" {
		t.Errorf("low stock products = %d, want exactly the one below its threshold", len(products))
	}
}
