package repository

import (
	"context"

	"shopstock/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SupplierRepository interface {
	Create(ctx context.Context, supplier *model.Supplier) error
	Update(ctx context.Context, supplier *model.Supplier) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	List(ctx context.Context, search string, page, limit int) ([]model.Supplier, int64, error)
	UpsertBalance(ctx context.Context, balance *model.SupplierBalance) error
	ListBalances(ctx context.Context, supplierID uuid.UUID, upToMonth string) ([]model.SupplierBalance, error)
	FindBalance(ctx context.Context, supplierID uuid.UUID, monthYear string) (*model.SupplierBalance, error)
}

type supplierRepository struct {
	db *gorm.DB
}

func NewSupplierRepository(db *gorm.DB) SupplierRepository {
	return &supplierRepository{db: db}
}

func (r *supplierRepository) Create(ctx context.Context, supplier *model.Supplier) error {
	return GetDB(ctx, r.db).Create(supplier).Error
}

func (r *supplierRepository) Update(ctx context.Context, supplier *model.Supplier) error {
	return GetDB(ctx, r.db).Save(supplier).Error
}

func (r *supplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Supplier{}).Error
}

func (r *supplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	var supplier model.Supplier
	if err := GetDB(ctx, r.db).First(&supplier, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepository) List(ctx context.Context, search string, page, limit int) ([]model.Supplier, int64, error) {
	var suppliers []model.Supplier
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Supplier{})
	if search != "" {
		db = db.Where("name ILIKE ? OR phone ILIKE ? OR email ILIKE ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("name").Offset(offset).Limit(limit).Find(&suppliers).Error; err != nil {
		return nil, 0, err
	}

	return suppliers, total, nil
}

// UpsertBalance writes a month's closing balance, replacing any previous value
// for the same supplier and month.
func (r *supplierRepository) UpsertBalance(ctx context.Context, balance *model.SupplierBalance) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "supplier_id"}, {Name: "month_year"}},
		DoUpdates: clause.AssignmentColumns([]string{"closing_balance", "updated_at"}),
	}).Create(balance).Error
}

func (r *supplierRepository) ListBalances(ctx context.Context, supplierID uuid.UUID, upToMonth string) ([]model.SupplierBalance, error) {
	var balances []model.SupplierBalance
	db := GetDB(ctx, r.db).Where("supplier_id = ?", supplierID)
	if upToMonth != "" {
		db = db.Where("month_year <= ?", upToMonth)
	}
	if err := db.Order("month_year").Find(&balances).Error; err != nil {
		return nil, err
	}
	return balances, nil
}

func (r *supplierRepository) FindBalance(ctx context.Context, supplierID uuid.UUID, monthYear string) (*model.SupplierBalance, error) {
	var balance model.SupplierBalance
	if err := GetDB(ctx, r.db).
		Where("supplier_id = ? AND month_year = ?", supplierID, monthYear).
		First(&balance).Error; err != nil {
		return nil, err
	}
	return &balance, nil
}
