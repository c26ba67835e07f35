package repository

import (
	"context"

	"shopstock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReturnRepository interface {
	Create(ctx context.Context, ret *model.Return) error
	CreateItem(ctx context.Context, item *model.ReturnItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Return, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteItemsByReturnID(ctx context.Context, returnID uuid.UUID) error
	ReturnedQuantity(ctx context.Context, purchaseItemID uuid.UUID) (int, error)
	ListByPurchase(ctx context.Context, purchaseID uuid.UUID) ([]model.Return, error)
	List(ctx context.Context, page, limit int) ([]model.Return, int64, error)
	CountBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error)
}

type returnRepository struct {
	db *gorm.DB
}

func NewReturnRepository(db *gorm.DB) ReturnRepository {
	return &returnRepository{db: db}
}

func (r *returnRepository) Create(ctx context.Context, ret *model.Return) error {
	return GetDB(ctx, r.db).Create(ret).Error
}

func (r *returnRepository) CreateItem(ctx context.Context, item *model.ReturnItem) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *returnRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Return, error) {
	var ret model.Return
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Preload("Supplier").
		First(&ret, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ret, nil
}

func (r *returnRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Return{}).Error
}

func (r *returnRepository) DeleteItemsByReturnID(ctx context.Context, returnID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("return_id = ?", returnID).Delete(&model.ReturnItem{}).Error
}

// ReturnedQuantity sums how much of a purchase item has already been returned
// across every return of its purchase.
func (r *returnRepository) ReturnedQuantity(ctx context.Context, purchaseItemID uuid.UUID) (int, error) {
	var total int
	err := GetDB(ctx, r.db).Model(&model.ReturnItem{}).
		Select("COALESCE(SUM(quantity), 0)").
		Where("purchase_item_id = ?", purchaseItemID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *returnRepository) ListByPurchase(ctx context.Context, purchaseID uuid.UUID) ([]model.Return, error) {
	var returns []model.Return
	if err := GetDB(ctx, r.db).
		Preload("Items").
		Where("purchase_id = ?", purchaseID).
		Order("return_date DESC").
		Find(&returns).Error; err != nil {
		return nil, err
	}
	return returns, nil
}

func (r *returnRepository) List(ctx context.Context, page, limit int) ([]model.Return, int64, error) {
	var returns []model.Return
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Return{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Items").Preload("Supplier").
		Order("return_date DESC, created_at DESC").
		Offset(offset).Limit(limit).
		Find(&returns).Error; err != nil {
		return nil, 0, err
	}

	return returns, total, nil
}

func (r *returnRepository) CountBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Return{}).
		Where("supplier_id = ?", supplierID).Count(&count).Error
	return count, err
}
