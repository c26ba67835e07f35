package service

import (
	"context"
	"database/sql"
	"testing"

	"shopstock/internal/model"
	"shopstock/internal/repository"

	"github.com/google/uuid"
)

// recomputedStock derives a variant's stock from the item tables:
// purchased - sold - returned +/- manual adjustments.
func recomputedStock(t *testing.T, env *testEnv, variantID uuid.UUID) int {
	t.Helper()
	sum := func(dst *int, query string, args ...any) {
		t.Helper()
		var n sql.NullInt64
		if err := env.db.Raw(query, args...).Scan(&n).Error; err != nil {
			t.Fatalf("recompute query: %v", err)
		}
		if n.Valid {
			*dst = int(n.Int64)
		}
	}

	var purchased, sold, returned, adjustedIn, adjustedOut int
	sum(&purchased, "SELECT SUM(quantity) FROM purchase_items WHERE variant_id = ?", variantID)
	sum(&sold, "SELECT SUM(quantity) FROM sale_items WHERE variant_id = ?", variantID)
	sum(&returned, "SELECT SUM(quantity) FROM return_items WHERE variant_id = ?", variantID)
	sum(&adjustedIn, "SELECT SUM(quantity) FROM stock_adjustments WHERE variant_id = ? AND direction = 'IN'", variantID)
	sum(&adjustedOut, "SELECT SUM(quantity) FROM stock_adjustments WHERE variant_id = ? AND direction = 'OUT'", variantID)

	return purchased - sold - returned + adjustedIn - adjustedOut
}

// Stock conservation: after an arbitrary mix of ledger operations, the stored
// stock field must equal the quantity recomputed from the item tables.
func TestStockConservation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	supplier := env.seedSupplier(t)
	variant := env.seedVariant(t, 0, "100")

	purchase := env.seedPurchase(t, supplier.ID, "2026-03-01", []PurchaseItemRequest{
		{VariantID: variant.ID.String(), Quantity: 20, CostPrice: "10"},
	})

	sale, err := env.sales.CreateSale(ctx, "", saleRequest(
		SaleItemRequest{VariantID: variant.ID.String(), Quantity: 6, SellPrice: "25"},
	))
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if _, err := env.sales.EditItem(ctx, "", sale.Items[0].ID.String(), SaleItemRequest{
		VariantID: variant.ID.String(), Quantity: 4, SellPrice: "25",
	}); err != nil {
		t.Fatalf("EditItem: %v", err)
	}

	ret, err := env.returns.CreateReturn(ctx, "", CreateReturnRequest{
		PurchaseID: purchase.ID.String(),
		ReturnDate: "2026-03-05",
		Items:      []ReturnItemRequest{{PurchaseItemID: purchase.Items[0].ID.String(), Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("CreateReturn: %v", err)
	}

	if _, err := env.catalog.AdjustStock(ctx, "", variant.ID.String(), AdjustStockRequest{
		Direction: model.AdjustmentOut, Quantity: 2, Reason: "damage",
	}); err != nil {
		t.Fatalf("AdjustStock: %v", err)
	}

	// a failed operation must not disturb the books
	if _, err := env.sales.CreateSale(ctx, "", saleRequest(
		SaleItemRequest{VariantID: variant.ID.String(), Quantity: 9999, SellPrice: "25"},
	)); err == nil {
		t.Fatal("oversized sale accepted")
	}

	if err := env.returns.DeleteReturn(ctx, "", ret.ID.String()); err != nil {
		t.Fatalf("DeleteReturn: %v", err)
	}

	stored := env.stock(t, variant.ID)
	derived := recomputedStock(t, env, variant.ID)
	if stored != derived {
		t.Errorf("stored stock %d != recomputed %d", stored, derived)
	}
	// 20 purchased - 4 sold - 0 returned - 2 adjusted out
	if stored != 14 {
		t.Errorf("stock = %d, want 14", stored)
	}
}

// Recomputing an unchanged purchase total must not move it.
func TestRecomputeTotalIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	supplier := env.seedSupplier(t)
	variant := env.seedVariant(t, 0, "100")

	purchase := env.seedPurchase(t, supplier.ID, "2026-03-01", []PurchaseItemRequest{
		{VariantID: variant.ID.String(), Quantity: 5, CostPrice: "10.50"},
	})

	purchaseRepo := repository.NewPurchaseRepository(env.db)
	if err := purchaseRepo.RecomputeTotal(ctx, purchase.ID); err != nil {
		t.Fatalf("RecomputeTotal: %v", err)
	}
	first, err := env.purchases.GetPurchase(ctx, purchase.ID.String())
	if err != nil {
		t.Fatalf("GetPurchase: %v", err)
	}

	if err := purchaseRepo.RecomputeTotal(ctx, purchase.ID); err != nil {
		t.Fatalf("RecomputeTotal again: %v", err)
	}
	second, err := env.purchases.GetPurchase(ctx, purchase.ID.String())
	if err != nil {
		t.Fatalf("GetPurchase: %v", err)
	}

	if !first.TotalAmount.Equal(second.TotalAmount) {
		t.Errorf("total drifted: %s then %s", first.TotalAmount, second.TotalAmount)
	}
	if !first.TotalAmount.Equal(purchase.TotalAmount) {
		t.Errorf("total changed from %s to %s with no item changes", purchase.TotalAmount, first.TotalAmount)
	}
}

// Scenario: part of a purchase line already returned, the remainder bounds the
// next return exactly.
func TestReturnBoundExactRemainder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	supplier := env.seedSupplier(t)
	variant := env.seedVariant(t, 0, "100")

	purchase := env.seedPurchase(t, supplier.ID, "2026-03-01", []PurchaseItemRequest{
		{VariantID: variant.ID.String(), Quantity: 10, CostPrice: "10"},
	})
	itemID := purchase.Items[0].ID.String()

	if _, err := env.returns.CreateReturn(ctx, "", CreateReturnRequest{
		PurchaseID: purchase.ID.String(),
		ReturnDate: "2026-03-05",
		Items:      []ReturnItemRequest{{PurchaseItemID: itemID, Quantity: 4}},
	}); err != nil {
		t.Fatalf("CreateReturn: %v", err)
	}

	// 4 already returned: 7 exceeds, 6 is exactly the remainder
	if _, err := env.returns.CreateReturn(ctx, "", CreateReturnRequest{
		PurchaseID: purchase.ID.String(),
		ReturnDate: "2026-03-06",
		Items:      []ReturnItemRequest{{PurchaseItemID: itemID, Quantity: 7}},
	}); err == nil {
		t.Fatal("over-bound return accepted")
	}

	if _, err := env.returns.CreateReturn(ctx, "", CreateReturnRequest{
		PurchaseID: purchase.ID.String(),
		ReturnDate: "2026-03-06",
		Items:      []ReturnItemRequest{{PurchaseItemID: itemID, Quantity: 6}},
	}); err != nil {
		t.Fatalf("exact-remainder return rejected: %v", err)
	}
	if got := env.stock(t, variant.ID); got != 0 {
		t.Errorf("stock = %d, want 0", got)
	}
}
