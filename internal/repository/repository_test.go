package repository

import (
	"context"
	"errors"
	"testing"

	"shopstock/internal/model"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
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
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&model.Product{}, &model.ProductVariant{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func TestFilterRejectsUnknownField(t *testing.T) {
	db := openTestDB(t)
	allowed := map[string]string{"category": "category"}

	f := (&Filter{}).Where("password", OpEq, "x")
	if _, err := f.Apply(db.Model(&model.Product{}), allowed); !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("err = %v, want ErrInvalidFilter", err)
	}

	f = (&Filter{}).Where("category", "between", "x")
	if _, err := f.Apply(db.Model(&model.Product{}), allowed); !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("unknown op: err = %v, want ErrInvalidFilter", err)
	}
}

func TestFilterApply(t *testing.T) {
	db := openTestDB(t)
	for _, p := range []model.Product{
		{ModelName: "Runner", Category: "sneakers"},
		{ModelName: "Walker", Category: "sneakers"},
		{ModelName: "Derby", Category: "formal"},
	} {
		product := p
		if err := db.Create(&product).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	allowed := map[string]string{"category": "category", "model_name": "model_name"}

	query, err := (&Filter{}).
		Where("category", OpEq, "sneakers").
		Apply(db.Model(&model.Product{}), allowed)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("eq matched %d, want 2", count)
	}

	query, err = (&Filter{}).
		Where("category", OpNeq, "sneakers").
		Where("model_name", OpLike, "Der").
		Apply(db.Model(&model.Product{}), allowed)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := query.Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("neq+like matched %d, want 1", count)
	}
}

func TestFilterNilPassthrough(t *testing.T) {
	db := openTestDB(t)
	var f *Filter
	query, err := f.Apply(db.Model(&model.Product{}), nil)
	if err != nil {
		t.Fatalf("Apply on nil filter: %v", err)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	tm := NewTransactionManager(db)
	sentinel := errors.New("boom")

	err := tm.RunInTx(context.Background(), func(txCtx context.Context) error {
		if err := GetDB(txCtx, db).Create(&model.Product{ModelName: "Ghost"}).Error; err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want sentinel", err)
	}

	var count int64
	if err := db.Model(&model.Product{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Errorf("products = %d, want 0 after rollback", count)
	}
}

func TestRunInTxCommits(t *testing.T) {
	db := openTestDB(t)
	tm := NewTransactionManager(db)

	err := tm.RunInTx(context.Background(), func(txCtx context.Context) error {
		return GetDB(txCtx, db).Create(&model.Product{ModelName: "Kept"}).Error
	})
	if err != nil {
		t.Fatalf("RunInTx: %v", err)
	}

	var count int64
	if err := db.Model(&model.Product{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("products = %d, want 1", count)
	}
}

func TestGetDBWithoutTransaction(t *testing.T) {
	db := openTestDB(t)
	if got := GetDB(context.Background(), db); got == nil {
		t.Fatal("GetDB returned nil outside a transaction")
	}
}
