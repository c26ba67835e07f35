package repository

import (
	"context"

	"shopstock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// purchaseFilterColumns whitelists the fields exposed to the purchase read surface
var purchaseFilterColumns = map[string]string{
	"status":      "purchases.status",
	"supplier_id": "purchases.supplier_id",
	"date_from":   "purchases.purchase_date",
	"date_to":     "purchases.purchase_date",
}

type PurchaseRepository interface {
	Create(ctx context.Context, purchase *model.Purchase) error
	CreateItem(ctx context.Context, item *model.PurchaseItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Purchase, error)
	FindItemByID(ctx context.Context, itemID uuid.UUID) (*model.PurchaseItem, error)
	UpdateItem(ctx context.Context, item *model.PurchaseItem) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	DeleteItemsByPurchaseID(ctx context.Context, purchaseID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	RecomputeTotal(ctx context.Context, purchaseID uuid.UUID) error
	List(ctx context.Context, filter *Filter, page, limit int) ([]model.Purchase, int64, error)
	CountBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error)
}

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) Create(ctx context.Context, purchase *model.Purchase) error {
	return GetDB(ctx, r.db).Create(purchase).Error
}

func (r *purchaseRepository) CreateItem(ctx context.Context, item *model.PurchaseItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *purchaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	var purchase model.Purchase
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Supplier").
		First(&purchase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

// FindByIDForUpdate locks the purchase header row. Operations that gate on the
// purchase status must hold this lock before reading the status they decide on.
func (r *purchaseRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	var purchase model.Purchase
	if err := forUpdate(GetDB(ctx, r.db)).
		Where("id = ?", id).First(&purchase).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (r *purchaseRepository) FindItemByID(ctx context.Context, itemID uuid.UUID) (*model.PurchaseItem, error) {
	var item model.PurchaseItem
	if err := GetDB(ctx, r.db).First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *purchaseRepository) UpdateItem(ctx context.Context, item *model.PurchaseItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *purchaseRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Purchase{}).Where("id = ?", id).Update("status", status).Error
}

func (r *purchaseRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", itemID).Delete(&model.PurchaseItem{}).Error
}

func (r *purchaseRepository) DeleteItemsByPurchaseID(ctx context.Context, purchaseID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("purchase_id = ?", purchaseID).Delete(&model.PurchaseItem{}).Error
}

func (r *purchaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Purchase{}).Error
}

// RecomputeTotal rewrites total_amount from the line items in one aggregate
// statement. Recomputing from scratch rather than incrementally keeps the
// cached projection drift-free.
func (r *purchaseRepository) RecomputeTotal(ctx context.Context, purchaseID uuid.UUID) error {
	return GetDB(ctx, r.db).Exec(`
		UPDATE purchases
		SET total_amount = (
			SELECT COALESCE(SUM(quantity * cost_price), 0)
			FROM purchase_items
			WHERE purchase_id = ?
		)
		WHERE id = ?`, purchaseID, purchaseID).Error
}

func (r *purchaseRepository) List(ctx context.Context, filter *Filter, page, limit int) ([]model.Purchase, int64, error) {
	var purchases []model.Purchase
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Purchase{})
	db, err := filter.Apply(db, purchaseFilterColumns)
	if err != nil {
		return nil, 0, err
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Items").Preload("Supplier").
		Order("purchase_date DESC, created_at DESC").
		Offset(offset).Limit(limit).
		Find(&purchases).Error; err != nil {
		return nil, 0, err
	}

	return purchases, total, nil
}

func (r *purchaseRepository) CountBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Purchase{}).
		Where("supplier_id = ?", supplierID).Count(&count).Error
	return count, err
}
