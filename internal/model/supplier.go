package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Supplier is the counterparty of purchases and supplier returns. It cannot be
// deleted while any purchase or return references it.
type Supplier struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Phone     string         `gorm:"type:varchar(50)" json:"phone"`
	Email     string         `gorm:"type:varchar(255)" json:"email"`
	Address   string         `gorm:"type:text" json:"address"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *Supplier) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SupplierBalance stores the precomputed monthly carry-forward per supplier.
// MonthYear is "YYYY-MM". Read-only to the ledger; only the reporting
// aggregator's accumulation writes it.
type SupplierBalance struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SupplierID     uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:ux_supplier_month" json:"supplier_id"`
	MonthYear      string          `gorm:"type:varchar(7);not null;uniqueIndex:ux_supplier_month" json:"month_year"`
	ClosingBalance decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"closing_balance"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (b *SupplierBalance) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
