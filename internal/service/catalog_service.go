package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"shopstock/internal/model"
	"shopstock/internal/repository"
	"shopstock/internal/validate"
	ws "shopstock/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type CreateProductRequest struct {
	ModelName string `json:"model_name" binding:"required"`
	Category  string `json:"category"`
}

type CreateVariantRequest struct {
	Color        string `json:"color" binding:"required"`
	Size         string `json:"size" binding:"required"`
	Price        string `json:"price" binding:"required"`
	InitialStock int    `json:"initial_stock"`
}

type AdjustStockRequest struct {
	Direction string `json:"direction" binding:"required"` // IN, OUT
	Quantity  int    `json:"quantity" binding:"required"`
	Reason    string `json:"reason"`
}

type CatalogService interface {
	CreateProduct(ctx context.Context, userID string, req CreateProductRequest) (*model.Product, error)
	UpdateProduct(ctx context.Context, userID, id string, req CreateProductRequest) (*model.Product, error)
	DeleteProduct(ctx context.Context, userID, id string) error
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, category, search string, page, limit int) ([]model.Product, int64, error)
	CreateVariant(ctx context.Context, userID, productID string, req CreateVariantRequest) (*model.ProductVariant, error)
	UpdateVariant(ctx context.Context, userID, variantID string, req CreateVariantRequest) (*model.ProductVariant, error)
	AdjustStock(ctx context.Context, userID, variantID string, req AdjustStockRequest) (*model.StockAdjustment, error)
}

type catalogService struct {
	productRepo repository.ProductRepository
	variantRepo repository.VariantRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
}

func NewCatalogService(
	productRepo repository.ProductRepository,
	variantRepo repository.VariantRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) CatalogService {
	return &catalogService{
		productRepo: productRepo,
		variantRepo: variantRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

func (s *catalogService) CreateProduct(ctx context.Context, userID string, req CreateProductRequest) (*model.Product, error) {
	product := model.Product{
		ModelName: req.ModelName,
		Category:  req.Category,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Create(txCtx, &product); err != nil {
			return fmt.Errorf("failed to create product: %w", err)
		}
		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditUserID(userID),
			Action:     model.ActionCreateProduct,
			EntityID:   product.ID.String(),
			EntityName: product.ModelName,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, userID, id string, req CreateProductRequest) (*model.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrProductNotFound
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	product.ModelName = req.ModelName
	product.Category = req.Category

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Update(txCtx, product); err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditUserID(userID),
			Action:     model.ActionUpdateProduct,
			EntityID:   product.ID.String(),
			EntityName: product.ModelName,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct refuses to remove a product once any of its variants has been
// sold; sale history must stay reconstructible.
func (s *catalogService) DeleteProduct(ctx context.Context, userID, id string) error {
	productID, err := uuid.Parse(id)
	if err != nil {
		return ErrProductNotFound
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.productRepo.FindByID(txCtx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to find product: %w", err)
		}

		hasSales, err := s.variantRepo.HasSaleHistory(txCtx, product.ID)
		if err != nil {
			return fmt.Errorf("failed to check sale history: %w", err)
		}
		if hasSales {
			return fmt.Errorf("%w: product %s", ErrProductHasSales, product.ID)
		}

		for _, variant := range product.Variants {
			if err := s.variantRepo.Delete(txCtx, variant.ID); err != nil {
				return fmt.Errorf("failed to delete variant: %w", err)
			}
		}
		if err := s.productRepo.Delete(txCtx, product.ID); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}

		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditUserID(userID),
			Action:     model.ActionDeleteProduct,
			EntityID:   product.ID.String(),
			EntityName: product.ModelName,
			Details:    `{"deleted": true}`,
		})
	})
}

func (s *catalogService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrProductNotFound
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, category, search string, page, limit int) ([]model.Product, int64, error) {
	return s.productRepo.List(ctx, category, search, page, limit)
}

func (s *catalogService) CreateVariant(ctx context.Context, userID, productID string, req CreateVariantRequest) (*model.ProductVariant, error) {
	pid, err := uuid.Parse(productID)
	if err != nil {
		return nil, ErrProductNotFound
	}
	price, err := validate.ParsePrice(req.Price)
	if err != nil {
		return nil, err
	}
	if req.InitialStock < 0 {
		return nil, fmt.Errorf("%w: initial stock cannot be negative", validate.ErrInvalidNumber)
	}

	variant := model.ProductVariant{
		ProductID: pid,
		Color:     req.Color,
		Size:      req.Size,
		Price:     price,
		Stock:     req.InitialStock,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.productRepo.FindByID(txCtx, pid); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to find product: %w", err)
		}
		if _, err := s.variantRepo.FindByIdentity(txCtx, pid, req.Color, req.Size); err == nil {
			return fmt.Errorf("%w: %s/%s", ErrDuplicateVariant, req.Color, req.Size)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check variant identity: %w", err)
		}

		if err := s.variantRepo.Create(txCtx, &variant); err != nil {
			return fmt.Errorf("failed to create variant: %w", err)
		}
		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:   auditUserID(userID),
			Action:   model.ActionCreateVariant,
			EntityID: variant.ID.String(),
			Details:  string(details),
		})
	})
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

func (s *catalogService) UpdateVariant(ctx context.Context, userID, variantID string, req CreateVariantRequest) (*model.ProductVariant, error) {
	id, err := uuid.Parse(variantID)
	if err != nil {
		return nil, ErrVariantNotFound
	}
	price, err := validate.ParsePrice(req.Price)
	if err != nil {
		return nil, err
	}

	var updated *model.ProductVariant
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		variant, err := s.variantRepo.FindByID(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVariantNotFound
			}
			return fmt.Errorf("failed to find variant: %w", err)
		}

		if variant.Color != req.Color || variant.Size != req.Size {
			if existing, err := s.variantRepo.FindByIdentity(txCtx, variant.ProductID, req.Color, req.Size); err == nil && existing.ID != variant.ID {
				return fmt.Errorf("%w: %s/%s", ErrDuplicateVariant, req.Color, req.Size)
			} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to check variant identity: %w", err)
			}
		}

		variant.Color = req.Color
		variant.Size = req.Size
		variant.Price = price
		if err := s.variantRepo.Update(txCtx, variant); err != nil {
			return fmt.Errorf("failed to update variant: %w", err)
		}
		updated = variant

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:   auditUserID(userID),
			Action:   model.ActionUpdateVariant,
			EntityID: variant.ID.String(),
			Details:  string(details),
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AdjustStock applies a manual stock correction under the same row lock the
// ledger uses; an OUT adjustment may not drive stock negative.
func (s *catalogService) AdjustStock(ctx context.Context, userID, variantID string, req AdjustStockRequest) (*model.StockAdjustment, error) {
	id, err := uuid.Parse(variantID)
	if err != nil {
		return nil, ErrVariantNotFound
	}
	direction, err := validate.OneOf(req.Direction, model.AdjustmentIn, model.AdjustmentOut)
	if err != nil {
		return nil, err
	}
	if err := validate.Quantity(req.Quantity); err != nil {
		return nil, err
	}

	var adjustment model.StockAdjustment
	var changes []StockChange
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		variant, err := s.variantRepo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVariantNotFound
			}
			return fmt.Errorf("failed to lock variant: %w", err)
		}

		newStock := variant.Stock + req.Quantity
		if direction == model.AdjustmentOut {
			if variant.Stock < req.Quantity {
				return fmt.Errorf("%w: variant %s has %d, removing %d",
					ErrInsufficientStock, variant.ID, variant.Stock, req.Quantity)
			}
			newStock = variant.Stock - req.Quantity
		}

		if err := s.variantRepo.UpdateStock(txCtx, variant.ID, newStock); err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}

		adjustment = model.StockAdjustment{
			VariantID:  variant.ID,
			Direction:  direction,
			Quantity:   req.Quantity,
			StockAfter: newStock,
			Reason:     req.Reason,
			UserID:     auditUserID(userID),
		}
		if err := s.variantRepo.CreateAdjustment(txCtx, &adjustment); err != nil {
			return fmt.Errorf("failed to record adjustment: %w", err)
		}
		changes = append(changes, StockChange{VariantID: variant.ID.String(), Stock: newStock})

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:   auditUserID(userID),
			Action:   model.ActionAdjustStock,
			EntityID: variant.ID.String(),
			Details:  string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	notifyStockChanges(s.hub, changes)
	return &adjustment, nil
}
