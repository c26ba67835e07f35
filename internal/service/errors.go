package service

import "errors"

// Sentinel errors for the ledger and its surrounding services. Handlers map
// these onto HTTP statuses; everything unexpected stays a bare wrapped error
// and surfaces as a 500 with a generic message.
var (
	// Not found
	ErrSaleNotFound     = errors.New("sale not found")
	ErrPurchaseNotFound = errors.New("purchase not found")
	ErrReturnNotFound   = errors.New("return not found")
	ErrVariantNotFound  = errors.New("variant not found")
	ErrItemNotFound     = errors.New("line item not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrSupplierNotFound = errors.New("supplier not found")
	ErrCustomerNotFound = errors.New("customer not found")

	// State conflicts — the invariant-protection layer. Every one of these
	// aborts the surrounding transaction.
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrStockWouldGoNegative   = errors.New("stock would go negative")
	ErrReturnExceedsAvailable = errors.New("return exceeds returnable quantity")
	ErrPurchaseNotModifiable  = errors.New("purchase is cancelled and cannot be modified")
	ErrPurchaseHasReturns     = errors.New("purchase has returns recorded against it")
	ErrInvalidStatusChange    = errors.New("status change not allowed")
	ErrSupplierInUse          = errors.New("supplier is referenced by purchases or returns")
	ErrProductHasSales        = errors.New("product has sale history")
	ErrDuplicateVariant       = errors.New("variant with the same color and size already exists")

	// Validation
	ErrEmptyItems = errors.New("at least one item is required")
)
