package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Return is a supplier return header recorded against one purchase. Its items
// drive stock OUT, back to the supplier. TotalAmount is priced from the
// original purchase items, never user-supplied.
type Return struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PurchaseID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_id"`
	Purchase    *Purchase       `gorm:"foreignKey:PurchaseID" json:"-"`
	SupplierID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier    *Supplier       `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	ReturnDate  time.Time       `gorm:"not null;index" json:"return_date"`
	Reason      string          `gorm:"type:text" json:"reason"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_amount"`
	Items       []ReturnItem    `gorm:"foreignKey:ReturnID" json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (r *Return) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ReturnItem references the purchase item it returns against. The sum of
// return quantities for one purchase item across all returns of that purchase
// may never exceed the purchase item's quantity.
type ReturnItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ReturnID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"return_id"`
	PurchaseItemID uuid.UUID       `gorm:"type:uuid;not null;index" json:"purchase_item_id"`
	PurchaseItem   *PurchaseItem   `gorm:"foreignKey:PurchaseItemID" json:"-"`
	VariantID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"variant_id"`
	Quantity       int             `gorm:"type:int;not null" json:"quantity"`
	ReturnPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"return_price"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (i *ReturnItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
