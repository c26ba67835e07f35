package service

import (
	"context"
	"errors"
	"testing"

	"shopstock/internal/model"
	"shopstock/internal/validate"
)

func TestCreateVariantRejectsDuplicateIdentity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product, err := env.catalog.CreateProduct(ctx, "", CreateProductRequest{ModelName: "Air Runner", Category: "sneakers"})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	if _, err := env.catalog.CreateVariant(ctx, "", product.ID.String(), CreateVariantRequest{
		Color: "white", Size: "42", Price: "99.90", InitialStock: 5,
	}); err != nil {
		t.Fatalf("CreateVariant: %v", err)
	}

	if _, err := env.catalog.CreateVariant(ctx, "", product.ID.String(), CreateVariantRequest{
		Color: "white", Size: "42", Price: "89.90",
	}); !errors.Is(err, ErrDuplicateVariant) {
		t.Errorf("err = %v, want ErrDuplicateVariant", err)
	}

	// same color, different size is a different variant
	if _, err := env.catalog.CreateVariant(ctx, "", product.ID.String(), CreateVariantRequest{
		Color: "white", Size: "43", Price: "99.90",
	}); err != nil {
		t.Errorf("CreateVariant distinct size: %v", err)
	}
}

func TestCreateVariantValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product, err := env.catalog.CreateProduct(ctx, "", CreateProductRequest{ModelName: "Air Runner"})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	if _, err := env.catalog.CreateVariant(ctx, "", product.ID.String(), CreateVariantRequest{
		Color: "white", Size: "42", Price: "0",
	}); !errors.Is(err, validate.ErrInvalidPrice) {
		t.Errorf("zero price: err = %v, want ErrInvalidPrice", err)
	}

	if _, err := env.catalog.CreateVariant(ctx, "", product.ID.String(), CreateVariantRequest{
		Color: "white", Size: "42", Price: "99.90", InitialStock: -1,
	}); !errors.Is(err, validate.ErrInvalidNumber) {
		t.Errorf("negative stock: err = %v, want ErrInvalidNumber", err)
	}
}

func TestUpdateVariantIdentityCollision(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product, err := env.catalog.CreateProduct(ctx, "", CreateProductRequest{ModelName: "Air Runner"})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	white, err := env.catalog.CreateVariant(ctx, "", product.ID.String(), CreateVariantRequest{
		Color: "white", Size: "42", Price: "99.90",
	})
	if err != nil {
		t.Fatalf("CreateVariant: %v", err)
	}
	black, err := env.catalog.CreateVariant(ctx, "", product.ID.String(), CreateVariantRequest{
		Color: "black", Size: "42", Price: "99.90",
	})
	if err != nil {
		t.Fatalf("CreateVariant: %v", err)
	}

	if _, err := env.catalog.UpdateVariant(ctx, "", black.ID.String(), CreateVariantRequest{
		Color: "white", Size: "42", Price: "99.90",
	}); !errors.Is(err, ErrDuplicateVariant) {
		t.Errorf("err = %v, want ErrDuplicateVariant", err)
	}

	// repricing without changing identity is fine
	updated, err := env.catalog.UpdateVariant(ctx, "", white.ID.String(), CreateVariantRequest{
		Color: "white", Size: "42", Price: "109.90",
	})
	if err != nil {
		t.Fatalf("UpdateVariant: %v", err)
	}
	if updated.Price.String() != "109.9" {
		t.Errorf("price = %s, want 109.9", updated.Price)
	}
}

func TestAdjustStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	variant := env.seedVariant(t, 5, "100")

	adj, err := env.catalog.AdjustStock(ctx, "", variant.ID.String(), AdjustStockRequest{
		Direction: model.AdjustmentIn, Quantity: 3, Reason: "stock take",
	})
	if err != nil {
		t.Fatalf("AdjustStock IN: %v", err)
	}
	if adj.StockAfter != 8 {
		t.Errorf("stock after = %d, want 8", adj.StockAfter)
	}
	if got := env.stock(t, variant.ID); got != 8 {
		t.Errorf("stock = %d, want 8", got)
	}

	if _, err := env.catalog.AdjustStock(ctx, "", variant.ID.String(), AdjustStockRequest{
		Direction: model.AdjustmentOut, Quantity: 9, Reason: "damage",
	}); !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("err = %v, want ErrInsufficientStock", err)
	}
	if got := env.stock(t, variant.ID); got != 8 {
		t.Errorf("stock after failed OUT = %d, want 8", got)
	}

	if _, err := env.catalog.AdjustStock(ctx, "", variant.ID.String(), AdjustStockRequest{
		Direction: "SIDEWAYS", Quantity: 1,
	}); !errors.Is(err, validate.ErrInvalidEnum) {
		t.Errorf("err = %v, want ErrInvalidEnum", err)
	}

	if n := env.count(t, &model.StockAdjustment{}); n != 1 {
		t.Errorf("adjustments = %d, want 1", n)
	}
}

func TestDeleteProductBlockedBySaleHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	variant := env.seedVariant(t, 10, "100")

	if _, err := env.sales.CreateSale(ctx, "", saleRequest(
		SaleItemRequest{VariantID: variant.ID.String(), Quantity: 1, SellPrice: "120"},
	)); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	if err := env.catalog.DeleteProduct(ctx, "", variant.ProductID.String()); !errors.Is(err, ErrProductHasSales) {
		t.Fatalf("err = %v, want ErrProductHasSales", err)
	}
}

func TestDeleteProductWithoutHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	variant := env.seedVariant(t, 10, "100")

	if err := env.catalog.DeleteProduct(ctx, "", variant.ProductID.String()); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if _, err := env.catalog.GetProduct(ctx, variant.ProductID.String()); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("GetProduct after delete: err = %v, want ErrProductNotFound", err)
	}
}
