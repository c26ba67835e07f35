package service

import (
	"github.com/shopspring/decimal"
)

// ProductShare is one product's slice of the original purchase: total quantity
// and subtotal of every purchase line belonging to that product.
type ProductShare struct {
	ProductID string
	ModelName string
	Quantity  int
	Subtotal  decimal.Decimal
}

// ProductAllocation is the estimated slice of a purchase-level return amount
// attributed to one product.
type ProductAllocation struct {
	ProductID         string          `json:"product_id"`
	ModelName         string          `json:"model_name"`
	AllocatedAmount   decimal.Decimal `json:"allocated_amount"`
	AllocatedQuantity decimal.Decimal `json:"allocated_quantity"`
}

// AllocateReturn distributes a purchase-level return amount across the
// products of the original purchase, proportional to each product's share of
// the purchase total.
//
// This is a best-effort ESTIMATE for reporting, not an exact ledger: returns
// are recorded against whole purchases, so there is no stored ground truth for
// a per-product return amount. Shares with a non-positive subtotal, a
// non-positive purchase total, or a non-positive return amount allocate zero
// rather than dividing by zero.
func AllocateReturn(purchaseTotal, returnAmount decimal.Decimal, shares []ProductShare) []ProductAllocation {
	allocations := make([]ProductAllocation, 0, len(shares))
	for _, share := range shares {
		alloc := ProductAllocation{
			ProductID:         share.ProductID,
			ModelName:         share.ModelName,
			AllocatedAmount:   decimal.Zero,
			AllocatedQuantity: decimal.Zero,
		}
		if purchaseTotal.IsPositive() && returnAmount.IsPositive() && share.Subtotal.IsPositive() && share.Quantity > 0 {
			// allocated = (subtotal / total) * returned
			alloc.AllocatedAmount = share.Subtotal.
				DivRound(purchaseTotal, 8).
				Mul(returnAmount).
				Round(4)
			// quantity estimate via the product's average unit price
			avgUnitPrice := share.Subtotal.DivRound(decimal.NewFromInt(int64(share.Quantity)), 8)
			if avgUnitPrice.IsPositive() {
				alloc.AllocatedQuantity = alloc.AllocatedAmount.DivRound(avgUnitPrice, 2)
			}
		}
		allocations = append(allocations, alloc)
	}
	return allocations
}
