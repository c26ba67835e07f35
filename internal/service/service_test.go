package service

import (
	"context"
	"fmt"
	"testing"

	"shopstock/internal/calendar"
	"shopstock/internal/model"
	"shopstock/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv wires the full service stack against an in-memory sqlite database.
// The websocket hub is nil; stock notifications are best-effort and skipped.
type testEnv struct {
	db        *gorm.DB
	catalog   CatalogService
	sales     SaleService
	purchases PurchaseService
	returns   ReturnService
	suppliers SupplierService
	customers CustomerService
	reports   ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get database handle: %v", err)
	}
	// one shared in-memory database across the pool
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
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
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	txManager := repository.NewTransactionManager(db)
	productRepo := repository.NewProductRepository(db)
	variantRepo := repository.NewVariantRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	returnRepo := repository.NewReturnRepository(db)
	reportRepo := repository.NewReportRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cal := calendar.NewGregorian()

	return &testEnv{
		db:        db,
		catalog:   NewCatalogService(productRepo, variantRepo, auditRepo, txManager, nil),
		sales:     NewSaleService(saleRepo, variantRepo, customerRepo, auditRepo, txManager, cal, nil),
		purchases: NewPurchaseService(purchaseRepo, returnRepo, variantRepo, supplierRepo, auditRepo, txManager, cal, nil),
		returns:   NewReturnService(returnRepo, purchaseRepo, variantRepo, auditRepo, txManager, cal, nil),
		suppliers: NewSupplierService(supplierRepo, purchaseRepo, returnRepo, auditRepo, txManager),
		customers: NewCustomerService(customerRepo, auditRepo, txManager),
		reports:   NewReportService(reportRepo, supplierRepo, returnRepo, purchaseRepo, txManager, cal),
	}
}

var seedCounter int

// seedVariant creates a product with a single variant holding the given stock
func (e *testEnv) seedVariant(t *testing.T, stock int, price string) *model.ProductVariant {
	t.Helper()
	seedCounter++
	product := &model.Product{
		ModelName: fmt.Sprintf("Model %d", seedCounter),
		Category:  "sneakers",
	}
	if err := e.db.Create(product).Error; err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	variant := &model.ProductVariant{
		ProductID: product.ID,
		Color:     "black",
		Size:      "42",
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
	}
	if err := e.db.Create(variant).Error; err != nil {
		t.Fatalf("failed to seed variant: %v", err)
	}
	return variant
}

func (e *testEnv) seedSupplier(t *testing.T) *model.Supplier {
	t.Helper()
	seedCounter++
	supplier := &model.Supplier{Name: fmt.Sprintf("Supplier %d", seedCounter)}
	if err := e.db.Create(supplier).Error; err != nil {
		t.Fatalf("failed to seed supplier: %v", err)
	}
	return supplier
}

func (e *testEnv) seedCustomer(t *testing.T) *model.Customer {
	t.Helper()
	seedCounter++
	customer := &model.Customer{Name: fmt.Sprintf("Customer %d", seedCounter)}
	if err := e.db.Create(customer).Error; err != nil {
		t.Fatalf("failed to seed customer: %v", err)
	}
	return customer
}

// seedPurchase records a purchase through the service so stock and totals are
// maintained the same way production code does it.
func (e *testEnv) seedPurchase(t *testing.T, supplierID uuid.UUID, date string, items []PurchaseItemRequest) *model.Purchase {
	t.Helper()
	purchase, err := e.purchases.CreatePurchase(context.Background(), "", CreatePurchaseRequest{
		SupplierID:   supplierID.String(),
		PurchaseDate: date,
		Items:        items,
	})
	if err != nil {
		t.Fatalf("failed to seed purchase: %v", err)
	}
	return purchase
}

func (e *testEnv) stock(t *testing.T, variantID uuid.UUID) int {
	t.Helper()
	var variant model.ProductVariant
	if err := e.db.First(&variant, "id = ?", variantID).Error; err != nil {
		t.Fatalf("failed to reload variant: %v", err)
	}
	return variant.Stock
}

func (e *testEnv) count(t *testing.T, value any) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(value).Count(&n).Error; err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return n
}
