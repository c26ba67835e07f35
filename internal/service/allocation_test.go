package service

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAllocateReturnProportional(t *testing.T) {
	shares := []ProductShare{
		{ProductID: "a", ModelName: "Runner", Quantity: 6, Subtotal: dec("60")},
		{ProductID: "b", ModelName: "Walker", Quantity: 2, Subtotal: dec("40")},
	}

	allocations := AllocateReturn(dec("100"), dec("50"), shares)
	if len(allocations) != 2 {
		t.Fatalf("allocations = %d, want 2", len(allocations))
	}

	// 60% and 40% of the 50 returned
	if !allocations[0].AllocatedAmount.Equal(dec("30")) {
		t.Errorf("first amount = %s, want 30", allocations[0].AllocatedAmount)
	}
	if !allocations[1].AllocatedAmount.Equal(dec("20")) {
		t.Errorf("second amount = %s, want 20", allocations[1].AllocatedAmount)
	}

	// quantity via average unit price: 30/10 = 3, 20/20 = 1
	if !allocations[0].AllocatedQuantity.Equal(dec("3")) {
		t.Errorf("first quantity = %s, want 3", allocations[0].AllocatedQuantity)
	}
	if !allocations[1].AllocatedQuantity.Equal(dec("1")) {
		t.Errorf("second quantity = %s, want 1", allocations[1].AllocatedQuantity)
	}
}

func TestAllocateReturnFullAmount(t *testing.T) {
	shares := []ProductShare{
		{ProductID: "a", Quantity: 3, Subtotal: dec("75")},
		{ProductID: "b", Quantity: 1, Subtotal: dec("25")},
	}

	allocations := AllocateReturn(dec("100"), dec("100"), shares)
	total := decimal.Zero
	for _, a := range allocations {
		total = total.Add(a.AllocatedAmount)
	}
	if !total.Equal(dec("100")) {
		t.Errorf("allocated total = %s, want 100", total)
	}
}

func TestAllocateReturnZeroGuards(t *testing.T) {
	shares := []ProductShare{
		{ProductID: "a", Quantity: 1, Subtotal: dec("10")},
		{ProductID: "b", Quantity: 0, Subtotal: decimal.Zero},
	}

	// zero purchase total must not divide
	for _, alloc := range AllocateReturn(decimal.Zero, dec("50"), shares) {
		if !alloc.AllocatedAmount.IsZero() || !alloc.AllocatedQuantity.IsZero() {
			t.Errorf("allocation for %s not zero with zero purchase total", alloc.ProductID)
		}
	}

	// zero return amount allocates nothing
	for _, alloc := range AllocateReturn(dec("10"), decimal.Zero, shares) {
		if !alloc.AllocatedAmount.IsZero() {
			t.Errorf("allocation for %s not zero with zero return amount", alloc.ProductID)
		}
	}

	// a zero-subtotal share stays zero without disturbing the others
	allocations := AllocateReturn(dec("10"), dec("10"), shares)
	if !allocations[0].AllocatedAmount.Equal(dec("10")) {
		t.Errorf("first amount = %s, want 10", allocations[0].AllocatedAmount)
	}
	if !allocations[1].AllocatedAmount.IsZero() {
		t.Errorf("second amount = %s, want 0", allocations[1].AllocatedAmount)
	}
}

func TestAllocateReturnEmptyShares(t *testing.T) {
	if got := AllocateReturn(dec("100"), dec("50"), nil); len(got) != 0 {
		t.Errorf("allocations = %d, want 0", len(got))
	}
}
