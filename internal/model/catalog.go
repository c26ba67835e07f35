package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product groups the sellable variants of one catalog model
type Product struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	ModelName string           `gorm:"type:varchar(255);not null;index" json:"model_name"`
	Category  string           `gorm:"type:varchar(100);index" json:"category"`
	Variants  []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	DeletedAt gorm.DeletedAt   `gorm:"index" json:"-"`
}

// ProductVariant is the color/size combination that actually carries stock.
// Stock is the single source of truth for available quantity and must only be
// mutated inside a ledger transaction holding this row's lock.
type ProductVariant struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:ux_variant_identity" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"-"`
	Color     string          `gorm:"type:varchar(50);not null;uniqueIndex:ux_variant_identity" json:"color"`
	Size      string          `gorm:"type:varchar(50);not null;uniqueIndex:ux_variant_identity" json:"size"`
	Price     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"price"`
	Stock     int             `gorm:"type:int;not null;default:0" json:"stock"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (v *ProductVariant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// AdjustmentDirection enum constants
const (
	AdjustmentIn  = "IN"
	AdjustmentOut = "OUT"
)

// StockAdjustment records a manual stock correction outside of sales,
// purchases and returns (damage, stock-take correction, opening balance).
type StockAdjustment struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	VariantID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"variant_id"`
	Direction  string     `gorm:"type:varchar(10);not null" json:"direction"` // IN, OUT
	Quantity   int        `gorm:"type:int;not null" json:"quantity"`
	StockAfter int        `gorm:"type:int;not null" json:"stock_after"`
	Reason     string     `gorm:"type:text" json:"reason"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (a *StockAdjustment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
