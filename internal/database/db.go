package database

import (
	"log"

	"shopstock/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Product{},
		&model.ProductVariant{},
		&model.StockAdjustment{},
		&model.Customer{},
		&model.Sale{},
		&model.SaleItem{},
		&model.Supplier{},
		&model.SupplierBalance{},
		&model.Purchase{},
		&model.PurchaseItem{},
		&model.Return{},
		&model.ReturnItem{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
