package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseStatus enum constants
const (
	PurchaseStatusPending   = "PENDING"
	PurchaseStatusReceived  = "RECEIVED"
	PurchaseStatusCancelled = "CANCELLED"
)

// purchaseTransitions enumerates the legal status changes. CANCELLED is
// terminal: a cancelled purchase can never leave that state.
var purchaseTransitions = map[string][]string{
	PurchaseStatusPending:   {PurchaseStatusReceived, PurchaseStatusCancelled},
	PurchaseStatusReceived:  {PurchaseStatusCancelled},
	PurchaseStatusCancelled: {},
}

// ValidPurchaseStatus reports whether s is a known purchase status
func ValidPurchaseStatus(s string) bool {
	_, ok := purchaseTransitions[s]
	return ok
}

// CanTransitionPurchaseStatus reports whether from -> to is a legal change
func CanTransitionPurchaseStatus(from, to string) bool {
	for _, next := range purchaseTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Purchase is a supplier purchase header; its items drive stock IN.
// TotalAmount is a cached projection of the line items and is recomputed from
// them after every item mutation, never trusted as authoritative.
type Purchase struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SupplierID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier     *Supplier       `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	PurchaseDate time.Time       `gorm:"not null;index" json:"purchase_date"`
	Status       string          `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"` // PENDING, RECEIVED, CANCELLED
	TotalAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_amount"`
	Items        []PurchaseItem  `gorm:"foreignKey:PurchaseID" json:"items"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (p *Purchase) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// IsModifiable reports whether items may still be added/edited/deleted
func (p *Purchase) IsModifiable() bool {
	return p.Status != PurchaseStatusCancelled
}

// PurchaseItem increases its variant's stock by Quantity
type PurchaseItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PurchaseID uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_id"`
	VariantID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"variant_id"`
	Variant    *ProductVariant `gorm:"foreignKey:VariantID" json:"-"`
	Quantity   int             `gorm:"type:int;not null" json:"quantity"`
	CostPrice  decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"cost_price"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (i *PurchaseItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
