package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"shopstock/internal/model"
	"shopstock/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type SupplierRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

type SupplierService interface {
	CreateSupplier(ctx context.Context, userID string, req SupplierRequest) (*model.Supplier, error)
	UpdateSupplier(ctx context.Context, userID, id string, req SupplierRequest) (*model.Supplier, error)
	DeleteSupplier(ctx context.Context, userID, id string) error
	GetSupplier(ctx context.Context, id string) (*model.Supplier, error)
	ListSuppliers(ctx context.Context, search string, page, limit int) ([]model.Supplier, int64, error)
}

type supplierService struct {
	supplierRepo repository.SupplierRepository
	purchaseRepo repository.PurchaseRepository
	returnRepo   repository.ReturnRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewSupplierService(
	supplierRepo repository.SupplierRepository,
	purchaseRepo repository.PurchaseRepository,
	returnRepo repository.ReturnRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) SupplierService {
	return &supplierService{
		supplierRepo: supplierRepo,
		purchaseRepo: purchaseRepo,
		returnRepo:   returnRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

func (s *supplierService) CreateSupplier(ctx context.Context, userID string, req SupplierRequest) (*model.Supplier, error) {
	supplier := model.Supplier{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.supplierRepo.Create(txCtx, &supplier); err != nil {
			return fmt.Errorf("failed to create supplier: %w", err)
		}
		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditUserID(userID),
			Action:     model.ActionCreateSupplier,
			EntityID:   supplier.ID.String(),
			EntityName: supplier.Name,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (s *supplierService) UpdateSupplier(ctx context.Context, userID, id string, req SupplierRequest) (*model.Supplier, error) {
	supplierID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrSupplierNotFound
	}
	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSupplierNotFound
		}
		return nil, fmt.Errorf("failed to find supplier: %w", err)
	}

	supplier.Name = req.Name
	supplier.Phone = req.Phone
	supplier.Email = req.Email
	supplier.Address = req.Address

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.supplierRepo.Update(txCtx, supplier); err != nil {
			return fmt.Errorf("failed to update supplier: %w", err)
		}
		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditUserID(userID),
			Action:     model.ActionUpdateSupplier,
			EntityID:   supplier.ID.String(),
			EntityName: supplier.Name,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}
	return supplier, nil
}

// DeleteSupplier refuses to remove a supplier still referenced by any
// purchase or return.
func (s *supplierService) DeleteSupplier(ctx context.Context, userID, id string) error {
	supplierID, err := uuid.Parse(id)
	if err != nil {
		return ErrSupplierNotFound
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		supplier, err := s.supplierRepo.FindByID(txCtx, supplierID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSupplierNotFound
			}
			return fmt.Errorf("failed to find supplier: %w", err)
		}

		purchaseCount, err := s.purchaseRepo.CountBySupplier(txCtx, supplier.ID)
		if err != nil {
			return fmt.Errorf("failed to count purchases: %w", err)
		}
		returnCount, err := s.returnRepo.CountBySupplier(txCtx, supplier.ID)
		if err != nil {
			return fmt.Errorf("failed to count returns: %w", err)
		}
		if purchaseCount > 0 || returnCount > 0 {
			return fmt.Errorf("%w: supplier %s", ErrSupplierInUse, supplier.ID)
		}

		if err := s.supplierRepo.Delete(txCtx, supplier.ID); err != nil {
			return fmt.Errorf("failed to delete supplier: %w", err)
		}
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditUserID(userID),
			Action:     model.ActionDeleteSupplier,
			EntityID:   supplier.ID.String(),
			EntityName: supplier.Name,
			Details:    `{"deleted": true}`,
		})
	})
}

func (s *supplierService) GetSupplier(ctx context.Context, id string) (*model.Supplier, error) {
	supplierID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrSupplierNotFound
	}
	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSupplierNotFound
		}
		return nil, fmt.Errorf("failed to find supplier: %w", err)
	}
	return supplier, nil
}

func (s *supplierService) ListSuppliers(ctx context.Context, search string, page, limit int) ([]model.Supplier, int64, error) {
	return s.supplierRepo.List(ctx, search, page, limit)
}
