package repository

import (
	"context"
	"sort"

	"shopstock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VariantRepository interface {
	Create(ctx context.Context, variant *model.ProductVariant) error
	Update(ctx context.Context, variant *model.ProductVariant) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error)
	FindByIdentity(ctx context.Context, productID uuid.UUID, color, size string) (*model.ProductVariant, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.ProductVariant, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error)
	LockByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.ProductVariant, error)
	UpdateStock(ctx context.Context, id uuid.UUID, stock int) error
	HasSaleHistory(ctx context.Context, productID uuid.UUID) (bool, error)
	CreateAdjustment(ctx context.Context, adj *model.StockAdjustment) error
	ListAdjustments(ctx context.Context, variantID uuid.UUID, page, limit int) ([]model.StockAdjustment, int64, error)
}

type variantRepository struct {
	db *gorm.DB
}

func NewVariantRepository(db *gorm.DB) VariantRepository {
	return &variantRepository{db: db}
}

func (r *variantRepository) Create(ctx context.Context, variant *model.ProductVariant) error {
	return GetDB(ctx, r.db).Create(variant).Error
}

func (r *variantRepository) Update(ctx context.Context, variant *model.ProductVariant) error {
	return GetDB(ctx, r.db).Save(variant).Error
}

func (r *variantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.ProductVariant{}).Error
}

func (r *variantRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error) {
	var variant model.ProductVariant
	if err := GetDB(ctx, r.db).First(&variant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *variantRepository) FindByIdentity(ctx context.Context, productID uuid.UUID, color, size string) (*model.ProductVariant, error) {
	var variant model.ProductVariant
	if err := GetDB(ctx, r.db).
		Where("product_id = ? AND color = ? AND size = ?", productID, color, size).
		First(&variant).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *variantRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.ProductVariant, error) {
	var variants []model.ProductVariant
	if err := GetDB(ctx, r.db).
		Where("product_id = ?", productID).
		Order("color, size").
		Find(&variants).Error; err != nil {
		return nil, err
	}
	return variants, nil
}

func (r *variantRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error) {
	var variant model.ProductVariant
	if err := forUpdate(GetDB(ctx, r.db)).
		Where("id = ?", id).First(&variant).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

// LockByIDs locks the given variant rows one by one in ascending ID order.
// The deterministic order prevents deadlock cycles between two transactions
// that touch the same pair of variants.
func (r *variantRepository) LockByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.ProductVariant, error) {
	seen := make(map[uuid.UUID]bool, len(ids))
	ordered := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			ordered = append(ordered, id)
		}
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].String() < ordered[j].String()
	})

	locked := make(map[uuid.UUID]*model.ProductVariant, len(ordered))
	for _, id := range ordered {
		variant, err := r.FindByIDForUpdate(ctx, id)
		if err != nil {
			return nil, err
		}
		locked[id] = variant
	}
	return locked, nil
}

func (r *variantRepository) UpdateStock(ctx context.Context, id uuid.UUID, stock int) error {
	return GetDB(ctx, r.db).Model(&model.ProductVariant{}).
		Where("id = ?", id).Update("stock", stock).Error
}

// HasSaleHistory reports whether any variant of the product appears on a sale item
func (r *variantRepository) HasSaleHistory(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.SaleItem{}).
		Joins("JOIN product_variants ON product_variants.id = sale_items.variant_id").
		Where("product_variants.product_id = ?", productID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *variantRepository) CreateAdjustment(ctx context.Context, adj *model.StockAdjustment) error {
	return GetDB(ctx, r.db).Create(adj).Error
}

func (r *variantRepository) ListAdjustments(ctx context.Context, variantID uuid.UUID, page, limit int) ([]model.StockAdjustment, int64, error) {
	var adjustments []model.StockAdjustment
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockAdjustment{}).Where("variant_id = ?", variantID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&adjustments).Error; err != nil {
		return nil, 0, err
	}

	return adjustments, total, nil
}
