package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MonthlyTotalRow is one supplier's total for one month bucket
type MonthlyTotalRow struct {
	SupplierID   string  `gorm:"column:supplier_id"`
	SupplierName string  `gorm:"column:supplier_name"`
	MonthYear    string  `gorm:"column:month_year"`
	Total        float64 `gorm:"column:total"`
}

// ProductShareRow is one product's share of a purchase, input to the
// return allocation engine.
type ProductShareRow struct {
	ProductID string  `gorm:"column:product_id" json:"product_id"`
	ModelName string  `gorm:"column:model_name" json:"model_name"`
	Quantity  int     `gorm:"column:quantity" json:"quantity"`
	Subtotal  float64 `gorm:"column:subtotal" json:"subtotal"`
}

// ProductPurchaseRow groups a period's purchase items by product
type ProductPurchaseRow struct {
	ProductID     string  `gorm:"column:product_id"`
	ModelName     string  `gorm:"column:model_name"`
	Category      string  `gorm:"column:category"`
	TotalQuantity int     `gorm:"column:total_quantity"`
	TotalAmount   float64 `gorm:"column:total_amount"`
	CurrentStock  int     `gorm:"column:current_stock"`
}

// StockRow is one variant's current position
type StockRow struct {
	VariantID string  `gorm:"column:variant_id"`
	ModelName string  `gorm:"column:model_name"`
	Color     string  `gorm:"column:color"`
	Size      string  `gorm:"column:size"`
	Stock     int     `gorm:"column:stock"`
	Price     float64 `gorm:"column:price"`
}

type ReportRepository interface {
	SupplierMonthlyPurchases(ctx context.Context, supplierID *uuid.UUID, start, end time.Time) ([]MonthlyTotalRow, error)
	SupplierMonthlyReturns(ctx context.Context, supplierID *uuid.UUID, start, end time.Time) ([]MonthlyTotalRow, error)
	PurchaseProductShares(ctx context.Context, purchaseID uuid.UUID) ([]ProductShareRow, error)
	ProductPurchaseSummary(ctx context.Context, start, end time.Time) ([]ProductPurchaseRow, error)
	StockSnapshot(ctx context.Context) ([]StockRow, error)
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

// monthExpr returns the SQL expression bucketing a timestamp column into
// "YYYY-MM", per dialect so the aggregates run in tests too.
func monthExpr(db *gorm.DB, column string) string {
	if db.Dialector.Name() == "postgres" {
		return fmt.Sprintf("TO_CHAR(%s, 'YYYY-MM')", column)
	}
	return fmt.Sprintf("strftime('%%Y-%%m', %s)", column)
}

func (r *reportRepository) SupplierMonthlyPurchases(ctx context.Context, supplierID *uuid.UUID, start, end time.Time) ([]MonthlyTotalRow, error) {
	db := GetDB(ctx, r.db)
	bucket := monthExpr(db, "p.purchase_date")

	query := db.Table("purchases p").
		Select("p.supplier_id as supplier_id, s.name as supplier_name, "+bucket+" as month_year, COALESCE(SUM(p.total_amount), 0) as total").
		Joins("JOIN suppliers s ON s.id = p.supplier_id").
		Where("p.status <> ?", "CANCELLED").
		Where("p.purchase_date >= ? AND p.purchase_date < ?", start, end).
		Group("p.supplier_id, s.name, " + bucket).
		Order("month_year")
	if supplierID != nil {
		query = query.Where("p.supplier_id = ?", *supplierID)
	}

	var rows []MonthlyTotalRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query monthly purchases: %w", err)
	}
	return rows, nil
}

func (r *reportRepository) SupplierMonthlyReturns(ctx context.Context, supplierID *uuid.UUID, start, end time.Time) ([]MonthlyTotalRow, error) {
	db := GetDB(ctx, r.db)
	bucket := monthExpr(db, "rt.return_date")

	// Returns against a later-cancelled purchase must drop out together with
	// the purchase itself, or the net balance would count only one side.
	query := db.Table("returns rt").
		Select("rt.supplier_id as supplier_id, s.name as supplier_name, "+bucket+" as month_year, COALESCE(SUM(rt.total_amount), 0) as total").
		Joins("JOIN suppliers s ON s.id = rt.supplier_id").
		Joins("JOIN purchases p ON p.id = rt.purchase_id").
		Where("p.status <> ?", "CANCELLED").
		Where("rt.return_date >= ? AND rt.return_date < ?", start, end).
		Group("rt.supplier_id, s.name, " + bucket).
		Order("month_year")
	if supplierID != nil {
		query = query.Where("rt.supplier_id = ?", *supplierID)
	}

	var rows []MonthlyTotalRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query monthly returns: %w", err)
	}
	return rows, nil
}

func (r *reportRepository) PurchaseProductShares(ctx context.Context, purchaseID uuid.UUID) ([]ProductShareRow, error) {
	var rows []ProductShareRow
	if err := GetDB(ctx, r.db).Table("purchase_items pi").
		Select("pr.id as product_id, pr.model_name as model_name, SUM(pi.quantity) as quantity, SUM(pi.quantity * pi.cost_price) as subtotal").
		Joins("JOIN product_variants v ON v.id = pi.variant_id").
		Joins("JOIN products pr ON pr.id = v.product_id").
		Where("pi.purchase_id = ?", purchaseID).
		Group("pr.id, pr.model_name").
		Order("subtotal DESC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query purchase product shares: %w", err)
	}
	return rows, nil
}

func (r *reportRepository) ProductPurchaseSummary(ctx context.Context, start, end time.Time) ([]ProductPurchaseRow, error) {
	var rows []ProductPurchaseRow
	if err := GetDB(ctx, r.db).Table("purchase_items pi").
		Select(`pr.id as product_id, pr.model_name as model_name, pr.category as category,
			SUM(pi.quantity) as total_quantity,
			SUM(pi.quantity * pi.cost_price) as total_amount,
			(SELECT COALESCE(SUM(v2.stock), 0) FROM product_variants v2 WHERE v2.product_id = pr.id) as current_stock`).
		Joins("JOIN product_variants v ON v.id = pi.variant_id").
		Joins("JOIN products pr ON pr.id = v.product_id").
		Joins("JOIN purchases p ON p.id = pi.purchase_id").
		Where("p.status <> ?", "CANCELLED").
		Where("p.purchase_date >= ? AND p.purchase_date < ?", start, end).
		Group("pr.id, pr.model_name, pr.category").
		Order("total_amount DESC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query product purchase summary: %w", err)
	}
	return rows, nil
}

func (r *reportRepository) StockSnapshot(ctx context.Context) ([]StockRow, error) {
	var rows []StockRow
	if err := GetDB(ctx, r.db).Table("product_variants v").
		Select("v.id as variant_id, pr.model_name as model_name, v.color as color, v.size as size, v.stock as stock, v.price as price").
		Joins("JOIN products pr ON pr.id = v.product_id").
		Order("pr.model_name, v.color, v.size").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query stock snapshot: %w", err)
	}
	return rows, nil
}
