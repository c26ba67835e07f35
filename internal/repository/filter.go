package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Filter operators
const (
	OpEq   = "eq"
	OpNeq  = "neq"
	OpGte  = "gte"
	OpLte  = "lte"
	OpLike = "like"
)

var ErrInvalidFilter = errors.New("invalid filter")

// Condition is one typed (field, operator, value) predicate. Conditions are
// compiled against a per-entity whitelist of columns into parameterized
// clauses; user input never reaches the SQL text itself.
type Condition struct {
	Field string
	Op    string
	Value interface{}
}

// Filter is an AND-composed list of conditions
type Filter struct {
	Conditions []Condition
}

// Where appends a condition and returns the filter for chaining
func (f *Filter) Where(field, op string, value interface{}) *Filter {
	f.Conditions = append(f.Conditions, Condition{Field: field, Op: op, Value: value})
	return f
}

// Apply compiles the filter onto a gorm query. allowed maps exposed field
// names to actual column expressions; a condition on any other field fails
// with ErrInvalidFilter.
func (f *Filter) Apply(db *gorm.DB, allowed map[string]string) (*gorm.DB, error) {
	if f == nil {
		return db, nil
	}
	for _, cond := range f.Conditions {
		column, ok := allowed[cond.Field]
		if !ok {
			return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidFilter, cond.Field)
		}
		switch cond.Op {
		case OpEq:
			db = db.Where(column+" = ?", cond.Value)
		case OpNeq:
			db = db.Where(column+" <> ?", cond.Value)
		case OpGte:
			db = db.Where(column+" >= ?", cond.Value)
		case OpLte:
			db = db.Where(column+" <= ?", cond.Value)
		case OpLike:
			db = db.Where(column+" LIKE ?", fmt.Sprintf("%%%v%%", cond.Value))
		default:
			return nil, fmt.Errorf("%w: unknown operator %q", ErrInvalidFilter, cond.Op)
		}
	}
	return db, nil
}
