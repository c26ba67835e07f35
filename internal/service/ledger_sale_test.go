package service

import (
	"context"
	"errors"
	"testing"

	"shopstock/internal/model"
	"shopstock/internal/validate"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func saleRequest(items ...SaleItemRequest) CreateSaleRequest {
	return CreateSaleRequest{
		SaleDate:      "2026-03-10",
		PaymentMethod: model.PaymentCash,
		Items:         items,
	}
}

func TestCreateSaleDebitsStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	variant := env.seedVariant(t, 10, "100")

	sale, err := env.sales.CreateSale(ctx, "", saleRequest(
		SaleItemRequest{VariantID: variant.ID.String(), Quantity: 3, SellPrice: "120"},
	))
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if got := env.stock(t, variant.ID); got != 7 {
		t.Errorf("stock = %d, want 7", got)
	}
	if len(sale.Items) != 1 {
		t.Fatalf("sale has %d items, want 1", len(sale.Items))
	}
	if sale.Status != model.SaleStatusPending {
		t.Errorf("status = %q, want %q", sale.Status, model.SaleStatusPending)
	}
	if !sale.Items[0].SellPrice.Equal(decimal.RequireFromString("120")) {
		t.Errorf("sell price = %s, want 120", sale.Items[0].SellPrice)
	}
}

func TestCreateSaleInsufficientStockRollsBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.seedVariant(t, 10, "100")
	second := env.seedVariant(t, 2, "100")

	_, err := env.sales.CreateSale(ctx, "", saleRequest(
		SaleItemRequest{VariantID: first.ID.String(), Quantity: 3, SellPrice: "120"},
		SaleItemRequest{VariantID: second.ID.String(), Quantity: 5, SellPrice: "120"},
	))
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}

	// nothing from the failed batch may survive
	if got := env.stock(t, first.ID); got != 10 {
		t.Errorf("first stock = %d, want 10", got)
	}
	if got := env.stock(t, second.ID); got != 2 {
		t.Errorf("second stock = %d, want 2", got)
	}
	if n := env.count(t, &model.Sale{}); n != 0 {
		t.Errorf("sales persisted = %d, want 0", n)
	}
	if n := env.count(t, &model.SaleItem{}); n != 0 {
		t.Errorf("sale items persisted = %d, want 0", n)
	}
}

func TestCreateSaleCumulativeLinesSameVariant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	variant := env.seedVariant(t, 10, "100")

	// 6+5 exceeds the 10 on hand even though each line alone fits
	_, err := env.sales.CreateSale(ctx, "", saleRequest(
		SaleItemRequest{VariantID: variant.ID.String(), Quantity: 6, SellPrice: "120"},
		SaleItemRequest{VariantID: variant.ID.String(), Quantity: 5, SellPrice: "120"},
	))
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
	if got := env.stock(t, variant.ID); got != 10 {
		t.Errorf("stock = %d, want 10", got)
	}

	// 6+4 fits exactly
	sale, err := env.sales.CreateSale(ctx, "", saleRequest(
		SaleItemRequest{VariantID: variant.ID.String(), Quantity: 6, SellPrice: "120"},
		SaleItemRequest{VariantID: variant.ID.String(), Quantity: 4, SellPrice: "120"},
	))
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if len(sale.Items) != 2 {
		t.Errorf("sale has %d items, want 2", len(sale.Items))
	}
	if got := env.stock(t, variant.ID); got != 0 {
		t.Errorf("stock = %d, want 0", got)
	}
}

func TestCreateSaleValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	variant := env.seedVariant(t, 10, "100")

	if _, err := env.sales.CreateSale(ctx, "", saleRequest()); !errors.Is(err, ErrEmptyItems) {
		t.Errorf("empty items: err = %v, want ErrEmptyItems", err)
	}

	req := saleRequest(SaleItemRequest{VariantID: variant.ID.String(), Quantity: 1, SellPrice: "120"})
	req.SaleDate = "10/03/2026"
	if _, err := env.sales.CreateSale(ctx, "", req); err == nil {
		t.Error("bad date accepted")
	}

	req = saleRequest(SaleItemRequest{VariantID: variant.ID.String(), Quantity: 1, SellPrice: "120"})
	req.PaymentMethod = "BARTER"
	if _, err := env.sales.CreateSale(ctx, "", req); !errors.Is(err, validate.ErrInvalidEnum) {
		t.Errorf("bad payment: err = %v, want ErrInvalidEnum", err)
	}

	if _, err := env.sales.CreateSale(ctx, "", saleRequest(
		SaleItemRequest{VariantID: variant.ID.String(), Quantity: -1, SellPrice: "120"},
	)); !errors.Is(err, validate.ErrInvalidNumber) {
		t.Errorf("negative quantity: err = %v, want ErrInvalidNumber", err)
	}

	if _, err := env.sales.CreateSale(ctx, "", saleRequest(
		SaleItemRequest{VariantID: variant.ID.String(), Quantity: 1, SellPrice: "-5"},
	)); !errors.Is(err, validate.ErrInvalidPrice) {
		t.Errorf("negative price: err = %v, want ErrInvalidPrice", err)
	}

	if _, err := env.sales.CreateSale(ctx, "", saleRequest(
		SaleItemRequest{VariantID: uuid.NewString(), Quantity: 1, SellPrice: "120"},
	)); !errors.Is(err, ErrVariantNotFound) {
		t.Errorf("unknown variant: err = %v, want ErrVariantNotFound", err)
	}
}

func TestCreateSaleUnknownCustomer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	variant := env.seedVariant(t, 10, "100")

	req := saleRequest(SaleItemRequest{VariantID: variant.ID.String(), Quantity: 2, SellPrice: "120"})
	req.CustomerID = uuid.NewString()
	if _, err := env.sales.CreateSale(ctx, "", req); !errors.Is(err, ErrCustomerNotFound) {
		t.Fatalf("err = %v, want ErrCustomerNotFound", err)
	}
	if got := env.stock(t, variant.ID); got != 10 {
		t.Errorf("stock = %d, want 10", got)
	}
}

func TestCreateSaleWithCustomer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	variant := env.seedVariant(t, 10, "100")
	customer := env.seedCustomer(t)

	req := saleRequest(SaleItemRequest{VariantID: variant.ID.String(), Quantity: 2, SellPrice: "120"})
	req.CustomerID = customer.ID.String()
	sale, err := env.sales.CreateSale(ctx, "", req)
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if sale.CustomerID == nil || *sale.CustomerID != customer.ID {
		t.Errorf("customer id not recorded")
	}
}

func TestSaleAddItem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	variant := env.seedVariant(t, 10, "100")
	other := env.seedVariant(t, 1, "100")

	sale, err := env.sales.CreateSale(ctx, "", saleRequest(
		SaleItemRequest{VariantID: variant.ID.String(), Quantity: 2, SellPrice: "120"},
	))
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	if _, err := env.sales.AddItem(ctx, "", sale.ID.String(), SaleItemRequest{
		VariantID: other.ID.String(), Quantity: 1, SellPrice: "80",
	}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if got := env.stock(t, other.ID); got != 0 {
		t.Errorf("stock = %d, want 0", got)
	}

	if _, err := env.sales.AddItem(ctx, "", sale.ID.String(), SaleItemRequest{
		VariantID: other.ID.String(), Quantity: 1, SellPrice: "80",
	}); !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("err = %v, want ErrInsufficientStock", err)
	}

	if _, err := env.sales.AddItem(ctx, "", uuid.NewString(), SaleItemRequest{
		VariantID: other.ID.String(), Quantity: 1, SellPrice: "80",
	}); !errors.Is(err, ErrSaleNotFound) {
		t.Errorf("err = %v, want ErrSaleNotFound", err)
	}
}

func TestSaleEditItemSameVariant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	variant := env.seedVariant(t, 10, "100")

	sale, err := env.sales.CreateSale(ctx, "", saleRequest(
		SaleItemRequest{VariantID: variant.ID.String(), Quantity: 3, SellPrice: "120"},
	))
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	itemID := sale.Items[0].ID.String()

	// grow 3 -> 5, two more leave the shelf
	if _, err := env.sales.EditItem(ctx, "", itemID, SaleItemRequest{
		VariantID: variant.ID.String(), Quantity: 5, SellPrice: "120",
	}); err != nil {
		t.Fatalf("EditItem grow: %v", err)
	}
	if got := env.stock(t, variant.ID); got != 5 {
		t.Errorf("stock after grow = %d, want 5", got)
	}

	// shrink 5 -> 2, three come back
	if _, err := env.sales.EditItem(ctx, "", itemID, SaleItemRequest{
		VariantID: variant.ID.String(), Quantity: 2, SellPrice: "120",
	}); err != nil {
		t.Fatalf("EditItem shrink: %v", err)
	}
	if got := env.stock(t, variant.ID); got != 8 {
		t.Errorf("stock after shrink = %d, want 8", got)
	}

	// grow past what is on hand
	if _, err := env.sales.EditItem(ctx, "", itemID, SaleItemRequest{
		VariantID: variant.ID.String(), Quantity: 11, SellPrice: "120",
	}); !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("err = %v, want ErrInsufficientStock", err)
	}
	if got := env.stock(t, variant.ID); got != 8 {
		t.Errorf("stock after failed edit = %d, want 8", got)
	}
}

func TestSaleEditItemCrossVariant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	old := env.seedVariant(t, 10, "100")
	replacement := env.seedVariant(t, 4, "100")

	sale, err := env.sales.CreateSale(ctx, "", saleRequest(
		SaleItemRequest{VariantID: old.ID.String(), Quantity: 3, SellPrice: "120"},
	))
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	itemID := sale.Items[0].ID.String()

	updated, err := env.sales.EditItem(ctx, "", itemID, SaleItemRequest{
		VariantID: replacement.ID.String(), Quantity: 2, SellPrice: "120",
	})
	if err != nil {
		t.Fatalf("EditItem: %v", err)
	}
	if updated.VariantID != replacement.ID {
		t.Errorf("item variant = %s, want %s", updated.VariantID, replacement.ID)
	}
	if got := env.stock(t, old.ID); got != 10 {
		t.Errorf("old stock = %d, want 10", got)
	}
	if got := env.stock(t, replacement.ID); got != 2 {
		t.Errorf("replacement stock = %d, want 2", got)
	}

	// moving back with a quantity the old variant cannot cover
	if _, err := env.sales.EditItem(ctx, "", itemID, SaleItemRequest{
		VariantID: old.ID.String(), Quantity: 11, SellPrice: "120",
	}); !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("err = %v, want ErrInsufficientStock", err)
	}
	if got := env.stock(t, replacement.ID); got != 2 {
		t.Errorf("replacement stock after failed edit = %d, want 2", got)
	}
}

func TestSaleDeleteItemRestoresStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	variant := env.seedVariant(t, 10, "100")

	sale, err := env.sales.CreateSale(ctx, "", saleRequest(
		SaleItemRequest{VariantID: variant.ID.String(), Quantity: 4, SellPrice: "120"},
	))
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	if err := env.sales.DeleteItem(ctx, "", sale.Items[0].ID.String()); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if got := env.stock(t, variant.ID); got != 10 {
		t.Errorf("stock = %d, want 10", got)
	}
	if n := env.count(t, &model.SaleItem{}); n != 0 {
		t.Errorf("sale items = %d, want 0", n)
	}
}

func TestDeleteSaleRestoresAllStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.seedVariant(t, 10, "100")
	second := env.seedVariant(t, 6, "100")

	sale, err := env.sales.CreateSale(ctx, "", saleRequest(
		SaleItemRequest{VariantID: first.ID.String(), Quantity: 3, SellPrice: "120"},
		SaleItemRequest{VariantID: second.ID.String(), Quantity: 2, SellPrice: "90"},
	))
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	if err := env.sales.DeleteSale(ctx, "", sale.ID.String()); err != nil {
		t.Fatalf("DeleteSale: %v", err)
	}
	if got := env.stock(t, first.ID); got != 10 {
		t.Errorf("first stock = %d, want 10", got)
	}
	if got := env.stock(t, second.ID); got != 6 {
		t.Errorf("second stock = %d, want 6", got)
	}
	if _, err := env.sales.GetSale(ctx, sale.ID.String()); !errors.Is(err, ErrSaleNotFound) {
		t.Errorf("GetSale after delete: err = %v, want ErrSaleNotFound", err)
	}
	if n := env.count(t, &model.SaleItem{}); n != 0 {
		t.Errorf("sale items = %d, want 0", n)
	}
}

func TestSaleSetStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	variant := env.seedVariant(t, 10, "100")

	sale, err := env.sales.CreateSale(ctx, "", saleRequest(
		SaleItemRequest{VariantID: variant.ID.String(), Quantity: 1, SellPrice: "120"},
	))
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	if err := env.sales.SetStatus(ctx, "", sale.ID.String(), model.SaleStatusPaid); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	reloaded, err := env.sales.GetSale(ctx, sale.ID.String())
	if err != nil {
		t.Fatalf("GetSale: %v", err)
	}
	if reloaded.Status != model.SaleStatusPaid {
		t.Errorf("status = %q, want %q", reloaded.Status, model.SaleStatusPaid)
	}

	if err := env.sales.SetStatus(ctx, "", sale.ID.String(), "SHIPPED"); !errors.Is(err, validate.ErrInvalidEnum) {
		t.Errorf("err = %v, want ErrInvalidEnum", err)
	}
}

func TestListSalesFilter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	variant := env.seedVariant(t, 20, "100")

	dates := []string{"2026-01-05", "2026-02-10", "2026-03-15"}
	var first *model.Sale
	for i, date := range dates {
		req := saleRequest(SaleItemRequest{VariantID: variant.ID.String(), Quantity: 1, SellPrice: "120"})
		req.SaleDate = date
		sale, err := env.sales.CreateSale(ctx, "", req)
		if err != nil {
			t.Fatalf("CreateSale %s: %v", date, err)
		}
		if i == 0 {
			first = sale
		}
	}
	if err := env.sales.SetStatus(ctx, "", first.ID.String(), model.SaleStatusPaid); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	sales, total, err := env.sales.ListSales(ctx, SaleListFilter{DateFrom: "2026-02-01"}, 1, 20)
	if err != nil {
		t.Fatalf("ListSales by date: %v", err)
	}
	if total != 2 || len(sales) != 2 {
		t.Errorf("date filter matched %d (%d rows), want 2", total, len(sales))
	}

	sales, total, err = env.sales.ListSales(ctx, SaleListFilter{Status: model.SaleStatusPaid}, 1, 20)
	if err != nil {
		t.Fatalf("ListSales by status: %v", err)
	}
	if total != 1 || len(sales) != 1 {
		t.Fatalf("status filter matched %d (%d rows), want 1", total, len(sales))
	}
	if sales[0].ID != first.ID {
		t.Errorf("status filter returned the wrong sale")
	}

	if _, _, err := env.sales.ListSales(ctx, SaleListFilter{Status: "SHIPPED"}, 1, 20); !errors.Is(err, validate.ErrInvalidEnum) {
		t.Errorf("err = %v, want ErrInvalidEnum", err)
	}
}
