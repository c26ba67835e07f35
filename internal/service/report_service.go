package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"shopstock/internal/calendar"
	"shopstock/internal/model"
	"shopstock/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MonthNet is one month's purchases-minus-returns position for a supplier,
// input to the closing-balance accumulation.
type MonthNet struct {
	MonthYear string
	Purchases float64
	Returns   float64
}

type ReportService interface {
	SupplierMonthlyReport(ctx context.Context, supplierID string, year int) ([]model.SupplierMonthlySummary, error)
	RebuildSupplierBalances(ctx context.Context, supplierID string, year int) error
	ReturnAllocation(ctx context.Context, returnID string) ([]ProductAllocation, error)
	ProductPurchaseSummary(ctx context.Context, dateFrom, dateTo string) ([]model.ProductPurchaseSummary, error)
	StockSnapshot(ctx context.Context) ([]model.StockSnapshotRow, error)
}

type reportService struct {
	reportRepo   repository.ReportRepository
	supplierRepo repository.SupplierRepository
	returnRepo   repository.ReturnRepository
	purchaseRepo repository.PurchaseRepository
	txManager    repository.TransactionManager
	cal          calendar.Calendar
}

func NewReportService(
	reportRepo repository.ReportRepository,
	supplierRepo repository.SupplierRepository,
	returnRepo repository.ReturnRepository,
	purchaseRepo repository.PurchaseRepository,
	txManager repository.TransactionManager,
	cal calendar.Calendar,
) ReportService {
	return &reportService{
		reportRepo:   reportRepo,
		supplierRepo: supplierRepo,
		returnRepo:   returnRepo,
		purchaseRepo: purchaseRepo,
		txManager:    txManager,
		cal:          cal,
	}
}

// AccumulateClosingBalances rolls an opening balance forward through a series
// of monthly nets. Months are processed in ascending order regardless of
// input order; each month's closing = previous closing + purchases - returns.
func AccumulateClosingBalances(supplierID, supplierName string, opening float64, months []MonthNet) []model.SupplierMonthlySummary {
	sorted := make([]MonthNet, len(months))
	copy(sorted, months)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MonthYear < sorted[j].MonthYear })

	running := opening
	summaries := make([]model.SupplierMonthlySummary, 0, len(sorted))
	for _, m := range sorted {
		net := m.Purchases - m.Returns
		running += net
		summaries = append(summaries, model.SupplierMonthlySummary{
			SupplierID:     supplierID,
			SupplierName:   supplierName,
			MonthYear:      m.MonthYear,
			PurchaseTotal:  m.Purchases,
			ReturnTotal:    m.Returns,
			NetAmount:      net,
			ClosingBalance: running,
		})
	}
	return summaries
}

// mergeMonthlyTotals folds purchase and return rollup rows into per-month nets
func mergeMonthlyTotals(purchases, returns []repository.MonthlyTotalRow) []MonthNet {
	byMonth := make(map[string]*MonthNet)
	for _, row := range purchases {
		if entry, ok := byMonth[row.MonthYear]; ok {
			entry.Purchases += row.Total
		} else {
			byMonth[row.MonthYear] = &MonthNet{MonthYear: row.MonthYear, Purchases: row.Total}
		}
	}
	for _, row := range returns {
		if entry, ok := byMonth[row.MonthYear]; ok {
			entry.Returns += row.Total
		} else {
			byMonth[row.MonthYear] = &MonthNet{MonthYear: row.MonthYear, Returns: row.Total}
		}
	}

	months := make([]MonthNet, 0, len(byMonth))
	for _, entry := range byMonth {
		months = append(months, *entry)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].MonthYear < months[j].MonthYear })
	return months
}

func (s *reportService) supplierYearNets(ctx context.Context, supplierID uuid.UUID, year int) (*model.Supplier, []MonthNet, float64, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, 0, ErrSupplierNotFound
		}
		return nil, nil, 0, fmt.Errorf("failed to find supplier: %w", err)
	}

	start, _ := s.cal.MonthRange(year, time.January)
	_, end := s.cal.MonthRange(year, time.December)

	purchases, err := s.reportRepo.SupplierMonthlyPurchases(ctx, &supplierID, start, end)
	if err != nil {
		return nil, nil, 0, err
	}
	returns, err := s.reportRepo.SupplierMonthlyReturns(ctx, &supplierID, start, end)
	if err != nil {
		return nil, nil, 0, err
	}

	// Opening balance carried forward from the stored prior-year closing
	opening := 0.0
	priorMonth := s.cal.MonthYear(start.AddDate(0, -1, 0))
	if balance, err := s.supplierRepo.FindBalance(ctx, supplierID, priorMonth); err == nil {
		opening, _ = balance.ClosingBalance.Float64()
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, 0, fmt.Errorf("failed to load opening balance: %w", err)
	}

	return supplier, mergeMonthlyTotals(purchases, returns), opening, nil
}

func (s *reportService) SupplierMonthlyReport(ctx context.Context, supplierID string, year int) ([]model.SupplierMonthlySummary, error) {
	id, err := uuid.Parse(supplierID)
	if err != nil {
		return nil, ErrSupplierNotFound
	}
	supplier, months, opening, err := s.supplierYearNets(ctx, id, year)
	if err != nil {
		return nil, err
	}
	return AccumulateClosingBalances(supplier.ID.String(), supplier.Name, opening, months), nil
}

// RebuildSupplierBalances recomputes and stores the monthly closing balances
// for one supplier and year from the purchase/return rollups.
func (s *reportService) RebuildSupplierBalances(ctx context.Context, supplierID string, year int) error {
	id, err := uuid.Parse(supplierID)
	if err != nil {
		return ErrSupplierNotFound
	}
	supplier, months, opening, err := s.supplierYearNets(ctx, id, year)
	if err != nil {
		return err
	}
	summaries := AccumulateClosingBalances(supplier.ID.String(), supplier.Name, opening, months)

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, summary := range summaries {
			balance := &model.SupplierBalance{
				SupplierID:     id,
				MonthYear:      summary.MonthYear,
				ClosingBalance: decimal.NewFromFloat(summary.ClosingBalance),
			}
			if err := s.supplierRepo.UpsertBalance(txCtx, balance); err != nil {
				return fmt.Errorf("failed to store balance for %s: %w", summary.MonthYear, err)
			}
		}
		return nil
	})
}

// ReturnAllocation estimates how a purchase-level return amount distributes
// across the purchased products. See AllocateReturn for the caveats.
func (s *reportService) ReturnAllocation(ctx context.Context, returnID string) ([]ProductAllocation, error) {
	id, err := uuid.Parse(returnID)
	if err != nil {
		return nil, ErrReturnNotFound
	}
	ret, err := s.returnRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReturnNotFound
		}
		return nil, fmt.Errorf("failed to find return: %w", err)
	}
	purchase, err := s.purchaseRepo.FindByID(ctx, ret.PurchaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("failed to find purchase: %w", err)
	}

	rows, err := s.reportRepo.PurchaseProductShares(ctx, purchase.ID)
	if err != nil {
		return nil, err
	}
	shares := make([]ProductShare, 0, len(rows))
	for _, row := range rows {
		shares = append(shares, ProductShare{
			ProductID: row.ProductID,
			ModelName: row.ModelName,
			Quantity:  row.Quantity,
			Subtotal:  decimal.NewFromFloat(row.Subtotal),
		})
	}

	return AllocateReturn(purchase.TotalAmount, ret.TotalAmount, shares), nil
}

func (s *reportService) ProductPurchaseSummary(ctx context.Context, dateFrom, dateTo string) ([]model.ProductPurchaseSummary, error) {
	from, err := s.cal.ParseDate(dateFrom)
	if err != nil {
		return nil, err
	}
	to, err := s.cal.ParseDate(dateTo)
	if err != nil {
		return nil, err
	}

	rows, err := s.reportRepo.ProductPurchaseSummary(ctx, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	summaries := make([]model.ProductPurchaseSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, model.ProductPurchaseSummary{
			ProductID:     row.ProductID,
			ModelName:     row.ModelName,
			Category:      row.Category,
			TotalQuantity: row.TotalQuantity,
			TotalAmount:   row.TotalAmount,
			CurrentStock:  row.CurrentStock,
		})
	}
	return summaries, nil
}

func (s *reportService) StockSnapshot(ctx context.Context) ([]model.StockSnapshotRow, error) {
	rows, err := s.reportRepo.StockSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	snapshot := make([]model.StockSnapshotRow, 0, len(rows))
	for _, row := range rows {
		snapshot = append(snapshot, model.StockSnapshotRow{
			VariantID: row.VariantID,
			ModelName: row.ModelName,
			Color:     row.Color,
			Size:      row.Size,
			Stock:     row.Stock,
			Price:     row.Price,
		})
	}
	return snapshot, nil
}
