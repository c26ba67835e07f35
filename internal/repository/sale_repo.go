package repository

import (
	"context"

	"shopstock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// saleFilterColumns whitelists the fields exposed to the sale read surface
var saleFilterColumns = map[string]string{
	"status":         "sales.status",
	"payment_method": "sales.payment_method",
	"customer_id":    "sales.customer_id",
	"date_from":      "sales.sale_date",
	"date_to":        "sales.sale_date",
}

type SaleRepository interface {
	Create(ctx context.Context, sale *model.Sale) error
	CreateItem(ctx context.Context, item *model.SaleItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	FindItemByID(ctx context.Context, itemID uuid.UUID) (*model.SaleItem, error)
	UpdateItem(ctx context.Context, item *model.SaleItem) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	DeleteItemsBySaleID(ctx context.Context, saleID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter *Filter, page, limit int) ([]model.Sale, int64, error)
}

type saleRepository struct {
	db *gorm.DB
}

func NewSaleRepository(db *gorm.DB) SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) Create(ctx context.Context, sale *model.Sale) error {
	return GetDB(ctx, r.db).Create(sale).Error
}

func (r *saleRepository) CreateItem(ctx context.Context, item *model.SaleItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *saleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var sale model.Sale
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Customer").
		First(&sale, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepository) FindItemByID(ctx context.Context, itemID uuid.UUID) (*model.SaleItem, error) {
	var item model.SaleItem
	if err := GetDB(ctx, r.db).First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *saleRepository) UpdateItem(ctx context.Context, item *model.SaleItem) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *saleRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Sale{}).Where("id = ?", id).Update("status", status).Error
}

func (r *saleRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", itemID).Delete(&model.SaleItem{}).Error
}

func (r *saleRepository) DeleteItemsBySaleID(ctx context.Context, saleID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("sale_id = ?", saleID).Delete(&model.SaleItem{}).Error
}

func (r *saleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Sale{}).Error
}

func (r *saleRepository) List(ctx context.Context, filter *Filter, page, limit int) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Sale{})
	db, err := filter.Apply(db, saleFilterColumns)
	if err != nil {
		return nil, 0, err
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Items").Preload("Customer").
		Order("sale_date DESC, created_at DESC").
		Offset(offset).Limit(limit).
		Find(&sales).Error; err != nil {
		return nil, 0, err
	}

	return sales, total, nil
}
