package service

import (
	"context"
	"errors"
	"testing"

	"shopstock/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestCreateReturnDebitsStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	supplier := env.seedSupplier(t)
	variant := env.seedVariant(t, 0, "100")

	purchase := env.seedPurchase(t, supplier.ID, "2026-03-10", []PurchaseItemRequest{
		{VariantID: variant.ID.String(), Quantity: 10, CostPrice: "10"},
	})

	ret, err := env.returns.CreateReturn(ctx, "", CreateReturnRequest{
		PurchaseID: purchase.ID.String(),
		ReturnDate: "2026-03-15",
		Reason:     "damaged batch",
		Items:      []ReturnItemRequest{{PurchaseItemID: purchase.Items[0].ID.String(), Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("CreateReturn: %v", err)
	}

	if got := env.stock(t, variant.ID); got != 6 {
		t.Errorf("stock = %d, want 6", got)
	}
	// priced from the purchase line, never the request
	if !ret.TotalAmount.Equal(decimal.NewFromInt(40)) {
		t.Errorf("total = %s, want 40", ret.TotalAmount)
	}
	if len(ret.Items) != 1 {
		t.Fatalf("return has %d items, want 1", len(ret.Items))
	}
	if !ret.Items[0].ReturnPrice.Equal(decimal.NewFromInt(10)) {
		t.Errorf("return price = %s, want 10", ret.Items[0].ReturnPrice)
	}
	if ret.SupplierID != supplier.ID {
		t.Errorf("supplier id = %s, want %s", ret.SupplierID, supplier.ID)
	}
}

func TestCreateReturnExceedsAvailable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	supplier := env.seedSupplier(t)
	variant := env.seedVariant(t, 0, "100")

	purchase := env.seedPurchase(t, supplier.ID, "2026-03-10", []PurchaseItemRequest{
		{VariantID: variant.ID.String(), Quantity: 10, CostPrice: "10"},
	})
	itemID := purchase.Items[0].ID.String()

	if _, err := env.returns.CreateReturn(ctx, "", CreateReturnRequest{
		PurchaseID: purchase.ID.String(),
		ReturnDate: "2026-03-15",
		Items:      []ReturnItemRequest{{PurchaseItemID: itemID, Quantity: 7}},
	}); err != nil {
		t.Fatalf("CreateReturn: %v", err)
	}

	// only 3 of the 10 are still returnable
	_, err := env.returns.CreateReturn(ctx, "", CreateReturnRequest{
		PurchaseID: purchase.ID.String(),
		ReturnDate: "2026-03-20",
		Items:      []ReturnItemRequest{{PurchaseItemID: itemID, Quantity: 5}},
	})
	if !errors.Is(err, ErrReturnExceedsAvailable) {
		t.Fatalf("err = %v, want ErrReturnExceedsAvailable", err)
	}
	if got := env.stock(t, variant.ID); got != 3 {
		t.Errorf("stock = %d, want 3", got)
	}
	if n := env.count(t, &model.Return{}); n != 1 {
		t.Errorf("returns = %d, want 1", n)
	}
}

func TestCreateReturnCumulativeBatchBound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	supplier := env.seedSupplier(t)
	variant := env.seedVariant(t, 0, "100")

	purchase := env.seedPurchase(t, supplier.ID, "2026-03-10", []PurchaseItemRequest{
		{VariantID: variant.ID.String(), Quantity: 10, CostPrice: "10"},
	})
	itemID := purchase.Items[0].ID.String()

	// two lines against the same purchase item, 6+5 > 10
	_, err := env.returns.CreateReturn(ctx, "", CreateReturnRequest{
		PurchaseID: purchase.ID.String(),
		ReturnDate: "2026-03-15",
		Items: []ReturnItemRequest{
			{PurchaseItemID: itemID, Quantity: 6},
			{PurchaseItemID: itemID, Quantity: 5},
		},
	})
	if !errors.Is(err, ErrReturnExceedsAvailable) {
		t.Fatalf("err = %v, want ErrReturnExceedsAvailable", err)
	}
	if got := env.stock(t, variant.ID); got != 10 {
		t.Errorf("stock = %d, want 10 after rollback", got)
	}
	if n := env.count(t, &model.Return{}); n != 0 {
		t.Errorf("returns = %d, want 0", n)
	}
	if n := env.count(t, &model.ReturnItem{}); n != 0 {
		t.Errorf("return items = %d, want 0", n)
	}
}

func TestCreateReturnInsufficientStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	supplier := env.seedSupplier(t)
	variant := env.seedVariant(t, 0, "100")

	purchase := env.seedPurchase(t, supplier.ID, "2026-03-10", []PurchaseItemRequest{
		{VariantID: variant.ID.String(), Quantity: 5, CostPrice: "10"},
	})

	// 4 of the 5 received are already gone
	if _, err := env.sales.CreateSale(ctx, "", saleRequest(
		SaleItemRequest{VariantID: variant.ID.String(), Quantity: 4, SellPrice: "25"},
	)); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	_, err := env.returns.CreateReturn(ctx, "", CreateReturnRequest{
		PurchaseID: purchase.ID.String(),
		ReturnDate: "2026-03-15",
		Items:      []ReturnItemRequest{{PurchaseItemID: purchase.Items[0].ID.String(), Quantity: 3}},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
	if got := env.stock(t, variant.ID); got != 1 {
		t.Errorf("stock = %d, want 1", got)
	}
}

func TestCreateReturnValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	supplier := env.seedSupplier(t)
	variant := env.seedVariant(t, 0, "100")

	purchase := env.seedPurchase(t, supplier.ID, "2026-03-10", []PurchaseItemRequest{
		{VariantID: variant.ID.String(), Quantity: 5, CostPrice: "10"},
	})

	if _, err := env.returns.CreateReturn(ctx, "", CreateReturnRequest{
		PurchaseID: purchase.ID.String(),
		ReturnDate: "2026-03-15",
	}); !errors.Is(err, ErrEmptyItems) {
		t.Errorf("empty items: err = %v, want ErrEmptyItems", err)
	}

	if _, err := env.returns.CreateReturn(ctx, "", CreateReturnRequest{
		PurchaseID: uuid.NewString(),
		ReturnDate: "2026-03-15",
		Items:      []ReturnItemRequest{{PurchaseItemID: purchase.Items[0].ID.String(), Quantity: 1}},
	}); !errors.Is(err, ErrPurchaseNotFound) {
		t.Errorf("unknown purchase: err = %v, want ErrPurchaseNotFound", err)
	}

	// a line must reference an item of the named purchase
	if _, err := env.returns.CreateReturn(ctx, "", CreateReturnRequest{
		PurchaseID: purchase.ID.String(),
		ReturnDate: "2026-03-15",
		Items:      []ReturnItemRequest{{PurchaseItemID: uuid.NewString(), Quantity: 1}},
	}); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("foreign item: err = %v, want ErrItemNotFound", err)
	}
}

func TestDeleteReturnRestoresStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	supplier := env.seedSupplier(t)
	variant := env.seedVariant(t, 0, "100")

	purchase := env.seedPurchase(t, supplier.ID, "2026-03-10", []PurchaseItemRequest{
		{VariantID: variant.ID.String(), Quantity: 10, CostPrice: "10"},
	})

	ret, err := env.returns.CreateReturn(ctx, "", CreateReturnRequest{
		PurchaseID: purchase.ID.String(),
		ReturnDate: "2026-03-15",
		Items:      []ReturnItemRequest{{PurchaseItemID: purchase.Items[0].ID.String(), Quantity: 4}},
	})
	if err != nil {
		t.Fatalf("CreateReturn: %v", err)
	}

	if err := env.returns.DeleteReturn(ctx, "", ret.ID.String()); err != nil {
		t.Fatalf("DeleteReturn: %v", err)
	}
	if got := env.stock(t, variant.ID); got != 10 {
		t.Errorf("stock = %d, want 10", got)
	}
	if _, err := env.returns.GetReturn(ctx, ret.ID.String()); !errors.Is(err, ErrReturnNotFound) {
		t.Errorf("GetReturn after delete: err = %v, want ErrReturnNotFound", err)
	}

	// the returned quantity is available again
	if _, err := env.returns.CreateReturn(ctx, "", CreateReturnRequest{
		PurchaseID: purchase.ID.String(),
		ReturnDate: "2026-03-20",
		Items:      []ReturnItemRequest{{PurchaseItemID: purchase.Items[0].ID.String(), Quantity: 10}},
	}); err != nil {
		t.Fatalf("CreateReturn after delete: %v", err)
	}
}

func TestListReturnsByPurchase(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	supplier := env.seedSupplier(t)
	variant := env.seedVariant(t, 0, "100")

	purchase := env.seedPurchase(t, supplier.ID, "2026-03-10", []PurchaseItemRequest{
		{VariantID: variant.ID.String(), Quantity: 10, CostPrice: "10"},
	})
	other := env.seedPurchase(t, supplier.ID, "2026-03-11", []PurchaseItemRequest{
		{VariantID: variant.ID.String(), Quantity: 5, CostPrice: "10"},
	})

	for _, p := range []*model.Purchase{purchase, other} {
		if _, err := env.returns.CreateReturn(ctx, "", CreateReturnRequest{
			PurchaseID: p.ID.String(),
			ReturnDate: "2026-03-15",
			Items:      []ReturnItemRequest{{PurchaseItemID: p.Items[0].ID.String(), Quantity: 1}},
		}); err != nil {
			t.Fatalf("CreateReturn: %v", err)
		}
	}

	returns, err := env.returns.ListByPurchase(ctx, purchase.ID.String())
	if err != nil {
		t.Fatalf("ListByPurchase: %v", err)
	}
	if len(returns) != 1 {
		t.Fatalf("returns = %d, want 1", len(returns))
	}
	if returns[0].PurchaseID != purchase.ID {
		t.Errorf("wrong purchase on returned row")
	}
}
