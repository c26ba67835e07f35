// Package validate holds the small input-validation utilities every handler
// and service runs before a transaction is opened. Each helper fails fast
// with a typed sentinel so callers can map failures to HTTP 400 responses.
package validate

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidNumber = errors.New("invalid number")
	ErrInvalidPrice  = errors.New("invalid price")
	ErrInvalidEnum   = errors.New("invalid value")
)

// Int parses value as an integer and enforces the lower bound
func Int(value string, min int) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidNumber, value)
	}
	if n < min {
		return 0, fmt.Errorf("%w: %d is below minimum %d", ErrInvalidNumber, n, min)
	}
	return n, nil
}

// Quantity enforces a strictly positive line-item quantity
func Quantity(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidNumber, n)
	}
	return nil
}

// Price enforces a strictly positive monetary amount
func Price(value decimal.Decimal) error {
	if value.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: price must be positive, got %s", ErrInvalidPrice, value)
	}
	return nil
}

// ParsePrice parses a decimal string and enforces positivity
func ParsePrice(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a decimal", ErrInvalidPrice, value)
	}
	if err := Price(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// OneOf checks that value is one of the allowed enum constants
func OneOf(value string, allowed ...string) (string, error) {
	for _, a := range allowed {
		if value == a {
			return value, nil
		}
	}
	return "", fmt.Errorf("%w: %q is not one of %v", ErrInvalidEnum, value, allowed)
}
