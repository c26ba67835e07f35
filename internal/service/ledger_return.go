package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"shopstock/internal/calendar"
	"shopstock/internal/model"
	"shopstock/internal/repository"
	"shopstock/internal/validate"
	ws "shopstock/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type ReturnItemRequest struct {
	PurchaseItemID string `json:"purchase_item_id" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required"`
}

type CreateReturnRequest struct {
	PurchaseID string              `json:"purchase_id" binding:"required"`
	ReturnDate string              `json:"return_date" binding:"required"`
	Reason     string              `json:"reason"`
	Items      []ReturnItemRequest `json:"items"`
}

type ReturnService interface {
	CreateReturn(ctx context.Context, userID string, req CreateReturnRequest) (*model.Return, error)
	DeleteReturn(ctx context.Context, userID, returnID string) error
	GetReturn(ctx context.Context, id string) (*model.Return, error)
	ListReturns(ctx context.Context, page, limit int) ([]model.Return, int64, error)
	ListByPurchase(ctx context.Context, purchaseID string) ([]model.Return, error)
}

type returnService struct {
	returnRepo   repository.ReturnRepository
	purchaseRepo repository.PurchaseRepository
	variantRepo  repository.VariantRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	cal          calendar.Calendar
	hub          *ws.Hub
}

func NewReturnService(
	returnRepo repository.ReturnRepository,
	purchaseRepo repository.PurchaseRepository,
	variantRepo repository.VariantRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	cal calendar.Calendar,
	hub *ws.Hub,
) ReturnService {
	return &returnService{
		returnRepo:   returnRepo,
		purchaseRepo: purchaseRepo,
		variantRepo:  variantRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		cal:          cal,
		hub:          hub,
	}
}

// CreateReturn records a supplier return against one purchase. Each requested
// line is bounded by what is still returnable on its purchase item — counting
// earlier returns and earlier lines of this same batch — and by the stock the
// variant currently holds. Prices come from the purchase, never the request.
func (s *returnService) CreateReturn(ctx context.Context, userID string, req CreateReturnRequest) (*model.Return, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	purchaseID, err := uuid.Parse(req.PurchaseID)
	if err != nil {
		return nil, ErrPurchaseNotFound
	}
	returnDate, err := s.cal.ParseDate(req.ReturnDate)
	if err != nil {
		return nil, err
	}
	for _, itemReq := range req.Items {
		if err := validate.Quantity(itemReq.Quantity); err != nil {
			return nil, err
		}
	}

	ret := model.Return{
		PurchaseID: purchaseID,
		ReturnDate: returnDate,
		Reason:     req.Reason,
	}

	var changes []StockChange
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.purchaseRepo.FindByIDForUpdate(txCtx, purchaseID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPurchaseNotFound
			}
			return fmt.Errorf("failed to lock purchase: %w", err)
		}
		purchase, err := s.purchaseRepo.FindByID(txCtx, purchaseID)
		if err != nil {
			return fmt.Errorf("failed to load purchase: %w", err)
		}

		// Resolve each requested line against its purchase item
		type resolvedLine struct {
			purchaseItem *model.PurchaseItem
			quantity     int
		}
		lines := make([]resolvedLine, 0, len(req.Items))
		variantIDs := make([]uuid.UUID, 0, len(req.Items))
		for _, itemReq := range req.Items {
			itemID, err := uuid.Parse(itemReq.PurchaseItemID)
			if err != nil {
				return ErrItemNotFound
			}
			var purchaseItem *model.PurchaseItem
			for i := range purchase.Items {
				if purchase.Items[i].ID == itemID {
					purchaseItem = &purchase.Items[i]
					break
				}
			}
			if purchaseItem == nil {
				return fmt.Errorf("%w: purchase item %s", ErrItemNotFound, itemID)
			}
			lines = append(lines, resolvedLine{purchaseItem: purchaseItem, quantity: itemReq.Quantity})
			variantIDs = append(variantIDs, purchaseItem.VariantID)
		}

		// Returnable bound, cumulative across this batch
		pending := make(map[uuid.UUID]int, len(lines))
		for _, line := range lines {
			already, err := s.returnRepo.ReturnedQuantity(txCtx, line.purchaseItem.ID)
			if err != nil {
				return fmt.Errorf("failed to sum returned quantity: %w", err)
			}
			available := line.purchaseItem.Quantity - already - pending[line.purchaseItem.ID]
			if line.quantity > available {
				return fmt.Errorf("%w: purchase item %s has %d returnable, requested %d",
					ErrReturnExceedsAvailable, line.purchaseItem.ID, available, line.quantity)
			}
			pending[line.purchaseItem.ID] += line.quantity
		}

		locked, err := s.variantRepo.LockByIDs(txCtx, variantIDs)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVariantNotFound
			}
			return fmt.Errorf("failed to lock variants: %w", err)
		}

		total := decimal.Zero
		for _, line := range lines {
			variant := locked[line.purchaseItem.VariantID]
			if variant.Stock < line.quantity {
				return fmt.Errorf("%w: variant %s has %d, returning %d",
					ErrInsufficientStock, variant.ID, variant.Stock, line.quantity)
			}
			variant.Stock -= line.quantity
			total = total.Add(line.purchaseItem.CostPrice.Mul(decimal.NewFromInt(int64(line.quantity))))
		}

		ret.SupplierID = purchase.SupplierID
		ret.TotalAmount = total
		if err := s.returnRepo.Create(txCtx, &ret); err != nil {
			return fmt.Errorf("failed to create return: %w", err)
		}
		for _, line := range lines {
			if err := s.returnRepo.CreateItem(txCtx, &model.ReturnItem{
				ReturnID:       ret.ID,
				PurchaseItemID: line.purchaseItem.ID,
				VariantID:      line.purchaseItem.VariantID,
				Quantity:       line.quantity,
				ReturnPrice:    line.purchaseItem.CostPrice,
			}); err != nil {
				return fmt.Errorf("failed to create return item: %w", err)
			}
		}
		for _, variant := range locked {
			if err := s.variantRepo.UpdateStock(txCtx, variant.ID, variant.Stock); err != nil {
				return fmt.Errorf("failed to update stock: %w", err)
			}
			changes = append(changes, StockChange{VariantID: variant.ID.String(), Stock: variant.Stock})
		}

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:   auditUserID(userID),
			Action:   model.ActionCreateReturn,
			EntityID: ret.ID.String(),
			Details:  string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	notifyStockChanges(s.hub, changes)
	return s.returnRepo.FindByID(ctx, ret.ID)
}

func (s *returnService) DeleteReturn(ctx context.Context, userID, returnID string) error {
	id, err := uuid.Parse(returnID)
	if err != nil {
		return ErrReturnNotFound
	}

	var changes []StockChange
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ret, err := s.returnRepo.FindByID(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReturnNotFound
			}
			return fmt.Errorf("failed to find return: %w", err)
		}

		variantIDs := make([]uuid.UUID, 0, len(ret.Items))
		for _, item := range ret.Items {
			variantIDs = append(variantIDs, item.VariantID)
		}
		locked, err := s.variantRepo.LockByIDs(txCtx, variantIDs)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVariantNotFound
			}
			return fmt.Errorf("failed to lock variants: %w", err)
		}

		for _, item := range ret.Items {
			variant := locked[item.VariantID]
			variant.Stock += item.Quantity
		}
		for _, variant := range locked {
			if err := s.variantRepo.UpdateStock(txCtx, variant.ID, variant.Stock); err != nil {
				return fmt.Errorf("failed to restore stock: %w", err)
			}
			changes = append(changes, StockChange{VariantID: variant.ID.String(), Stock: variant.Stock})
		}

		if err := s.returnRepo.DeleteItemsByReturnID(txCtx, ret.ID); err != nil {
			return fmt.Errorf("failed to delete return items: %w", err)
		}
		if err := s.returnRepo.Delete(txCtx, ret.ID); err != nil {
			return fmt.Errorf("failed to delete return: %w", err)
		}

		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:   auditUserID(userID),
			Action:   model.ActionDeleteReturn,
			EntityID: ret.ID.String(),
			Details:  `{"deleted": true}`,
		})
	})
	if err != nil {
		return err
	}

	notifyStockChanges(s.hub, changes)
	return nil
}

func (s *returnService) GetReturn(ctx context.Context, id string) (*model.Return, error) {
	returnID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrReturnNotFound
	}
	ret, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReturnNotFound
		}
		return nil, fmt.Errorf("failed to find return: %w", err)
	}
	return ret, nil
}

func (s *returnService) ListReturns(ctx context.Context, page, limit int) ([]model.Return, int64, error) {
	return s.returnRepo.List(ctx, page, limit)
}

func (s *returnService) ListByPurchase(ctx context.Context, purchaseID string) ([]model.Return, error) {
	id, err := uuid.Parse(purchaseID)
	if err != nil {
		return nil, ErrPurchaseNotFound
	}
	return s.returnRepo.ListByPurchase(ctx, id)
}
