package validate

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestInt(t *testing.T) {
	if n, err := Int("42", 1); err != nil || n != 42 {
		t.Errorf("Int(42) = %d, %v", n, err)
	}
	if _, err := Int("abc", 1); !errors.Is(err, ErrInvalidNumber) {
		t.Errorf("Int(abc): err = %v, want ErrInvalidNumber", err)
	}
	if _, err := Int("0", 1); !errors.Is(err, ErrInvalidNumber) {
		t.Errorf("Int below minimum: err = %v, want ErrInvalidNumber", err)
	}
}

func TestQuantity(t *testing.T) {
	if err := Quantity(1); err != nil {
		t.Errorf("Quantity(1) = %v", err)
	}
	for _, n := range []int{0, -3} {
		if err := Quantity(n); !errors.Is(err, ErrInvalidNumber) {
			t.Errorf("Quantity(%d): err = %v, want ErrInvalidNumber", n, err)
		}
	}
}

func TestParsePrice(t *testing.T) {
	d, err := ParsePrice("19.99")
	if err != nil {
		t.Fatalf("ParsePrice(19.99) = %v", err)
	}
	if !d.Equal(decimal.RequireFromString("19.99")) {
		t.Errorf("ParsePrice(19.99) = %s", d)
	}

	for _, bad := range []string{"abc", "0", "-5", ""} {
		if _, err := ParsePrice(bad); !errors.Is(err, ErrInvalidPrice) {
			t.Errorf("ParsePrice(%q): err = %v, want ErrInvalidPrice", bad, err)
		}
	}
}

func TestOneOf(t *testing.T) {
	got, err := OneOf("CASH", "CASH", "CREDIT_CARD")
	if err != nil || got != "CASH" {
		t.Errorf("OneOf(CASH) = %q, %v", got, err)
	}
	if _, err := OneOf("BARTER", "CASH", "CREDIT_CARD"); !errors.Is(err, ErrInvalidEnum) {
		t.Errorf("OneOf(BARTER): err = %v, want ErrInvalidEnum", err)
	}
}
