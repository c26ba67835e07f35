// Package calendar is the date collaborator: parsing user-supplied dates and
// producing reporting buckets. The ledger only depends on the Calendar
// interface, so a localized implementation (e.g. a Jalali converter) can be
// swapped in without touching the core.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidDate = errors.New("invalid date")

// DateLayout is the wire format for all date inputs
const DateLayout = "2006-01-02"

// Calendar validates date strings and derives month buckets
type Calendar interface {
	ParseDate(value string) (time.Time, error)
	MonthYear(t time.Time) string
	MonthRange(year int, month time.Month) (start, end time.Time)
}

type gregorian struct{}

// NewGregorian returns the default Gregorian calendar
func NewGregorian() Calendar {
	return gregorian{}
}

func (gregorian) ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q (expected YYYY-MM-DD)", ErrInvalidDate, value)
	}
	return t, nil
}

func (gregorian) MonthYear(t time.Time) string {
	return t.Format("2006-01")
}

// MonthRange returns the half-open [start, end) interval covering the month
func (gregorian) MonthRange(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
