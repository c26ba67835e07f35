package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentMethod enum constants
const (
	PaymentCash         = "CASH"
	PaymentCreditCard   = "CREDIT_CARD"
	PaymentBankTransfer = "BANK_TRANSFER"
)

// SaleStatus enum constants
const (
	SaleStatusPending = "PENDING"
	SaleStatusPaid    = "PAID"
)

// Customer is an optional sale counterparty
type Customer struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Phone     string         `gorm:"type:varchar(50)" json:"phone"`
	Email     string         `gorm:"type:varchar(255)" json:"email"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Sale is a customer sale header; its items drive stock OUT
type Sale struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID    *uuid.UUID `gorm:"type:uuid;index" json:"customer_id"`
	Customer      *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	SaleDate      time.Time  `gorm:"not null;index" json:"sale_date"`
	PaymentMethod string     `gorm:"type:varchar(20);not null" json:"payment_method"` // CASH, CREDIT_CARD, BANK_TRANSFER
	Status        string     `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	Items         []SaleItem `gorm:"foreignKey:SaleID" json:"items"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (s *Sale) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SaleItem decreases its variant's stock by Quantity exactly once for its
// lifetime, unless it is edited or deleted.
type SaleItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	VariantID uuid.UUID       `gorm:"type:uuid;not null;index" json:"variant_id"`
	Variant   *ProductVariant `gorm:"foreignKey:VariantID" json:"-"`
	Quantity  int             `gorm:"type:int;not null" json:"quantity"`
	SellPrice decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"sell_price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (i *SaleItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
