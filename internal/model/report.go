package model

// SupplierMonthlySummary is one month's purchase/return rollup for a supplier.
// Net = Purchases - Returns; ClosingBalance carries the prior months forward.
type SupplierMonthlySummary struct {
	SupplierID     string  `json:"supplier_id"`
	SupplierName   string  `json:"supplier_name"`
	MonthYear      string  `json:"month_year"`
	PurchaseTotal  float64 `json:"purchase_total"`
	ReturnTotal    float64 `json:"return_total"`
	NetAmount      float64 `json:"net_amount"`
	ClosingBalance float64 `json:"closing_balance"`
}

// ProductPurchaseSummary groups a period's purchases by product, joined with
// the product's current stock on hand.
type ProductPurchaseSummary struct {
	ProductID     string  `json:"product_id"`
	ModelName     string  `json:"model_name"`
	Category      string  `json:"category"`
	TotalQuantity int     `json:"total_quantity"`
	TotalAmount   float64 `json:"total_amount"`
	CurrentStock  int     `json:"current_stock"`
}

// StockSnapshotRow is one variant's current position for stock reports
type StockSnapshotRow struct {
	VariantID string  `json:"variant_id"`
	ModelName string  `json:"model_name"`
	Color     string  `json:"color"`
	Size      string  `json:"size"`
	Stock     int     `json:"stock"`
	Price     float64 `json:"price"`
}
