package service

import (
	"context"
	"errors"
	"testing"
)

func TestSupplierCRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	supplier, err := env.suppliers.CreateSupplier(ctx, "", SupplierRequest{
		Name: "Acme Footwear", Phone: "555-0101", Email: "orders@acme.test",
	})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}

	updated, err := env.suppliers.UpdateSupplier(ctx, "", supplier.ID.String(), SupplierRequest{
		Name: "Acme Footwear Ltd",
	})
	if err != nil {
		t.Fatalf("UpdateSupplier: %v", err)
	}
	if updated.Name != "Acme Footwear Ltd" {
		t.Errorf("name = %q, want %q", updated.Name, "Acme Footwear Ltd")
	}

	if err := env.suppliers.DeleteSupplier(ctx, "", supplier.ID.String()); err != nil {
		t.Fatalf("DeleteSupplier: %v", err)
	}
	if _, err := env.suppliers.GetSupplier(ctx, supplier.ID.String()); !errors.Is(err, ErrSupplierNotFound) {
		t.Errorf("GetSupplier after delete: err = %v, want ErrSupplierNotFound", err)
	}
}

func TestDeleteSupplierInUse(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	supplier := env.seedSupplier(t)
	variant := env.seedVariant(t, 0, "100")

	env.seedPurchase(t, supplier.ID, "2026-03-10", []PurchaseItemRequest{
		{VariantID: variant.ID.String(), Quantity: 1, CostPrice: "10"},
	})

	if err := env.suppliers.DeleteSupplier(ctx, "", supplier.ID.String()); !errors.Is(err, ErrSupplierInUse) {
		t.Fatalf("err = %v, want ErrSupplierInUse", err)
	}
}

func TestCustomerCRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	customer, err := env.customers.CreateCustomer(ctx, "", CustomerRequest{Name: "Dana", Phone: "555-0102"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}

	updated, err := env.customers.UpdateCustomer(ctx, "", customer.ID.String(), CustomerRequest{Name: "Dana K"})
	if err != nil {
		t.Fatalf("UpdateCustomer: %v", err)
	}
	if updated.Name != "Dana K" {
		t.Errorf("name = %q, want %q", updated.Name, "Dana K")
	}

	if err := env.customers.DeleteCustomer(ctx, "", customer.ID.String()); err != nil {
		t.Fatalf("DeleteCustomer: %v", err)
	}
	if _, err := env.customers.GetCustomer(ctx, customer.ID.String()); !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("GetCustomer after delete: err = %v, want ErrCustomerNotFound", err)
	}
}

func TestDeleteCustomerKeepsSales(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	variant := env.seedVariant(t, 10, "100")
	customer := env.seedCustomer(t)

	req := saleRequest(SaleItemRequest{VariantID: variant.ID.String(), Quantity: 1, SellPrice: "120"})
	req.CustomerID = customer.ID.String()
	sale, err := env.sales.CreateSale(ctx, "", req)
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	if err := env.customers.DeleteCustomer(ctx, "", customer.ID.String()); err != nil {
		t.Fatalf("DeleteCustomer: %v", err)
	}
	// the sale survives its customer
	if _, err := env.sales.GetSale(ctx, sale.ID.String()); err != nil {
		t.Errorf("GetSale after customer delete: %v", err)
	}
}
