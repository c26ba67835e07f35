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
type PurchaseItemRequest struct {
	VariantID string `json:"variant_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
	CostPrice string `json:"cost_price" binding:"required"`
}

type CreatePurchaseRequest struct {
	SupplierID   string                `json:"supplier_id" binding:"required"`
	PurchaseDate string                `json:"purchase_date" binding:"required"`
	Status       string                `json:"status"`
	Items        []PurchaseItemRequest `json:"items"`
}

type PurchaseListFilter struct {
	Status     string
	SupplierID string
	DateFrom   string
	DateTo     string
}

type purchaseItem struct {
	variantID uuid.UUID
	quantity  int
	costPrice decimal.Decimal
}

type PurchaseService interface {
	CreatePurchase(ctx context.Context, userID string, req CreatePurchaseRequest) (*model.Purchase, error)
	AddItem(ctx context.Context, userID, purchaseID string, req PurchaseItemRequest) (*model.PurchaseItem, error)
	EditItem(ctx context.Context, userID, itemID string, req PurchaseItemRequest) (*model.PurchaseItem, error)
	DeleteItem(ctx context.Context, userID, itemID string) error
	DeletePurchase(ctx context.Context, userID, purchaseID string) error
	SetStatus(ctx context.Context, userID, purchaseID, status string) error
	GetPurchase(ctx context.Context, id string) (*model.Purchase, error)
	ListPurchases(ctx context.Context, filter PurchaseListFilter, page, limit int) ([]model.Purchase, int64, error)
}

type purchaseService struct {
	purchaseRepo repository.PurchaseRepository
	returnRepo   repository.ReturnRepository
	variantRepo  repository.VariantRepository
	supplierRepo repository.SupplierRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	cal          calendar.Calendar
	hub          *ws.Hub
}

func NewPurchaseService(
	purchaseRepo repository.PurchaseRepository,
	returnRepo repository.ReturnRepository,
	variantRepo repository.VariantRepository,
	supplierRepo repository.SupplierRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	cal calendar.Calendar,
	hub *ws.Hub,
) PurchaseService {
	return &purchaseService{
		purchaseRepo: purchaseRepo,
		returnRepo:   returnRepo,
		variantRepo:  variantRepo,
		supplierRepo: supplierRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		cal:          cal,
		hub:          hub,
	}
}

func parsePurchaseItem(req PurchaseItemRequest) (purchaseItem, error) {
	variantID, err := uuid.Parse(req.VariantID)
	if err != nil {
		return purchaseItem{}, fmt.Errorf("%w: variant id %q", validate.ErrInvalidEnum, req.VariantID)
	}
	if err := validate.Quantity(req.Quantity); err != nil {
		return purchaseItem{}, err
	}
	price, err := validate.ParsePrice(req.CostPrice)
	if err != nil {
		return purchaseItem{}, err
	}
	return purchaseItem{variantID: variantID, quantity: req.Quantity, costPrice: price}, nil
}

// lockModifiablePurchase locks the purchase header and rejects mutation of a
// cancelled purchase. The status read happens under the row lock so a racing
// cancellation cannot slip past the gate.
func (s *purchaseService) lockModifiablePurchase(ctx context.Context, id uuid.UUID) (*model.Purchase, error) {
	purchase, err := s.purchaseRepo.FindByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("failed to lock purchase: %w", err)
	}
	if !purchase.IsModifiable() {
		return nil, fmt.Errorf("%w: purchase %s", ErrPurchaseNotModifiable, purchase.ID)
	}
	return purchase, nil
}

func (s *purchaseService) CreatePurchase(ctx context.Context, userID string, req CreatePurchaseRequest) (*model.Purchase, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		return nil, fmt.Errorf("%w: supplier id %q", validate.ErrInvalidEnum, req.SupplierID)
	}
	purchaseDate, err := s.cal.ParseDate(req.PurchaseDate)
	if err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = model.PurchaseStatusPending
	}
	status, err = validate.OneOf(status, model.PurchaseStatusPending, model.PurchaseStatusReceived)
	if err != nil {
		return nil, err
	}

	items := make([]purchaseItem, 0, len(req.Items))
	variantIDs := make([]uuid.UUID, 0, len(req.Items))
	for _, itemReq := range req.Items {
		item, err := parsePurchaseItem(itemReq)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		variantIDs = append(variantIDs, item.variantID)
	}

	purchase := model.Purchase{
		SupplierID:   supplierID,
		PurchaseDate: purchaseDate,
		Status:       status,
		TotalAmount:  decimal.Zero,
	}

	var changes []StockChange
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.supplierRepo.FindByID(txCtx, supplierID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSupplierNotFound
			}
			return fmt.Errorf("failed to find supplier: %w", err)
		}

		locked, err := s.variantRepo.LockByIDs(txCtx, variantIDs)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVariantNotFound
			}
			return fmt.Errorf("failed to lock variants: %w", err)
		}

		if err := s.purchaseRepo.Create(txCtx, &purchase); err != nil {
			return fmt.Errorf("failed to create purchase: %w", err)
		}

		for _, item := range items {
			variant := locked[item.variantID]
			if err := s.purchaseRepo.CreateItem(txCtx, &model.PurchaseItem{
				PurchaseID: purchase.ID,
				VariantID:  item.variantID,
				Quantity:   item.quantity,
				CostPrice:  item.costPrice,
			}); err != nil {
				return fmt.Errorf("failed to create purchase item: %w", err)
			}
			variant.Stock += item.quantity
			if err := s.variantRepo.UpdateStock(txCtx, variant.ID, variant.Stock); err != nil {
				return fmt.Errorf("failed to update stock: %w", err)
			}
		}

		if err := s.purchaseRepo.RecomputeTotal(txCtx, purchase.ID); err != nil {
			return fmt.Errorf("failed to recompute purchase total: %w", err)
		}

		for _, variant := range locked {
			changes = append(changes, StockChange{VariantID: variant.ID.String(), Stock: variant.Stock})
		}

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:   auditUserID(userID),
			Action:   model.ActionCreatePurchase,
			EntityID: purchase.ID.String(),
			Details:  string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	notifyStockChanges(s.hub, changes)
	return s.purchaseRepo.FindByID(ctx, purchase.ID)
}

func (s *purchaseService) AddItem(ctx context.Context, userID, purchaseID string, req PurchaseItemRequest) (*model.PurchaseItem, error) {
	id, err := uuid.Parse(purchaseID)
	if err != nil {
		return nil, ErrPurchaseNotFound
	}
	item, err := parsePurchaseItem(req)
	if err != nil {
		return nil, err
	}

	created := model.PurchaseItem{
		VariantID: item.variantID,
		Quantity:  item.quantity,
		CostPrice: item.costPrice,
	}

	var changes []StockChange
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		purchase, err := s.lockModifiablePurchase(txCtx, id)
		if err != nil {
			return err
		}

		variant, err := s.variantRepo.FindByIDForUpdate(txCtx, item.variantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVariantNotFound
			}
			return fmt.Errorf("failed to lock variant: %w", err)
		}

		created.PurchaseID = purchase.ID
		if err := s.purchaseRepo.CreateItem(txCtx, &created); err != nil {
			return fmt.Errorf("failed to create purchase item: %w", err)
		}
		if err := s.variantRepo.UpdateStock(txCtx, variant.ID, variant.Stock+item.quantity); err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}
		if err := s.purchaseRepo.RecomputeTotal(txCtx, purchase.ID); err != nil {
			return fmt.Errorf("failed to recompute purchase total: %w", err)
		}
		changes = append(changes, StockChange{VariantID: variant.ID.String(), Stock: variant.Stock + item.quantity})

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:   auditUserID(userID),
			Action:   model.ActionUpdatePurchase,
			EntityID: purchase.ID.String(),
			Details:  string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	notifyStockChanges(s.hub, changes)
	return &created, nil
}

// EditItem resizes or repoints a purchase line. Shrinking a line (or moving it
// off a variant) un-receives stock that may already have been sold, so the
// decremented side always verifies sufficient stock remains.
func (s *purchaseService) EditItem(ctx context.Context, userID, itemID string, req PurchaseItemRequest) (*model.PurchaseItem, error) {
	id, err := uuid.Parse(itemID)
	if err != nil {
		return nil, ErrItemNotFound
	}
	edit, err := parsePurchaseItem(req)
	if err != nil {
		return nil, err
	}

	var updated *model.PurchaseItem
	var changes []StockChange
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		item, err := s.purchaseRepo.FindItemByID(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return fmt.Errorf("failed to find purchase item: %w", err)
		}
		purchase, err := s.lockModifiablePurchase(txCtx, item.PurchaseID)
		if err != nil {
			return err
		}

		if item.VariantID == edit.variantID {
			variant, err := s.variantRepo.FindByIDForUpdate(txCtx, item.VariantID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrVariantNotFound
				}
				return fmt.Errorf("failed to lock variant: %w", err)
			}
			delta := edit.quantity - item.Quantity
			if delta < 0 && variant.Stock < -delta {
				return fmt.Errorf("%w: variant %s has %d, cannot remove %d",
					ErrInsufficientStock, variant.ID, variant.Stock, -delta)
			}
			if err := s.variantRepo.UpdateStock(txCtx, variant.ID, variant.Stock+delta); err != nil {
				return fmt.Errorf("failed to update stock: %w", err)
			}
			changes = append(changes, StockChange{VariantID: variant.ID.String(), Stock: variant.Stock + delta})
		} else {
			locked, err := s.variantRepo.LockByIDs(txCtx, []uuid.UUID{item.VariantID, edit.variantID})
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrVariantNotFound
				}
				return fmt.Errorf("failed to lock variants: %w", err)
			}
			oldVariant, newVariant := locked[item.VariantID], locked[edit.variantID]
			if oldVariant.Stock < item.Quantity {
				return fmt.Errorf("%w: variant %s holds %d of the %d being un-received",
					ErrInsufficientStock, oldVariant.ID, oldVariant.Stock, item.Quantity)
			}
			if err := s.variantRepo.UpdateStock(txCtx, oldVariant.ID, oldVariant.Stock-item.Quantity); err != nil {
				return fmt.Errorf("failed to update stock: %w", err)
			}
			if err := s.variantRepo.UpdateStock(txCtx, newVariant.ID, newVariant.Stock+edit.quantity); err != nil {
				return fmt.Errorf("failed to update stock: %w", err)
			}
			changes = append(changes,
				StockChange{VariantID: oldVariant.ID.String(), Stock: oldVariant.Stock - item.Quantity},
				StockChange{VariantID: newVariant.ID.String(), Stock: newVariant.Stock + edit.quantity})
		}

		item.VariantID = edit.variantID
		item.Quantity = edit.quantity
		item.CostPrice = edit.costPrice
		if err := s.purchaseRepo.UpdateItem(txCtx, item); err != nil {
			return fmt.Errorf("failed to update purchase item: %w", err)
		}
		if err := s.purchaseRepo.RecomputeTotal(txCtx, purchase.ID); err != nil {
			return fmt.Errorf("failed to recompute purchase total: %w", err)
		}
		updated = item

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:   auditUserID(userID),
			Action:   model.ActionUpdatePurchase,
			EntityID: purchase.ID.String(),
			Details:  string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	notifyStockChanges(s.hub, changes)
	return updated, nil
}

func (s *purchaseService) DeleteItem(ctx context.Context, userID, itemID string) error {
	id, err := uuid.Parse(itemID)
	if err != nil {
		return ErrItemNotFound
	}

	var changes []StockChange
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		item, err := s.purchaseRepo.FindItemByID(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return fmt.Errorf("failed to find purchase item: %w", err)
		}
		purchase, err := s.lockModifiablePurchase(txCtx, item.PurchaseID)
		if err != nil {
			return err
		}

		variant, err := s.variantRepo.FindByIDForUpdate(txCtx, item.VariantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVariantNotFound
			}
			return fmt.Errorf("failed to lock variant: %w", err)
		}
		if variant.Stock < item.Quantity {
			return fmt.Errorf("%w: variant %s holds %d of the %d being un-received",
				ErrStockWouldGoNegative, variant.ID, variant.Stock, item.Quantity)
		}
		if err := s.variantRepo.UpdateStock(txCtx, variant.ID, variant.Stock-item.Quantity); err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}
		if err := s.purchaseRepo.DeleteItem(txCtx, item.ID); err != nil {
			return fmt.Errorf("failed to delete purchase item: %w", err)
		}
		if err := s.purchaseRepo.RecomputeTotal(txCtx, purchase.ID); err != nil {
			return fmt.Errorf("failed to recompute purchase total: %w", err)
		}
		changes = append(changes, StockChange{VariantID: variant.ID.String(), Stock: variant.Stock - item.Quantity})

		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:   auditUserID(userID),
			Action:   model.ActionUpdatePurchase,
			EntityID: purchase.ID.String(),
			Details:  `{"deleted_item": "` + item.ID.String() + `"}`,
		})
	})
	if err != nil {
		return err
	}

	notifyStockChanges(s.hub, changes)
	return nil
}

// DeletePurchase un-receives every line. Each variant must still hold the
// purchased quantity — stock already sold or returned elsewhere blocks the
// delete rather than going negative.
func (s *purchaseService) DeletePurchase(ctx context.Context, userID, purchaseID string) error {
	id, err := uuid.Parse(purchaseID)
	if err != nil {
		return ErrPurchaseNotFound
	}

	var changes []StockChange
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.purchaseRepo.FindByIDForUpdate(txCtx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPurchaseNotFound
			}
			return fmt.Errorf("failed to lock purchase: %w", err)
		}
		purchase, err := s.purchaseRepo.FindByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load purchase: %w", err)
		}

		returns, err := s.returnRepo.ListByPurchase(txCtx, purchase.ID)
		if err != nil {
			return fmt.Errorf("failed to check returns: %w", err)
		}
		if len(returns) > 0 {
			return fmt.Errorf("%w: purchase %s", ErrPurchaseHasReturns, purchase.ID)
		}

		variantIDs := make([]uuid.UUID, 0, len(purchase.Items))
		for _, item := range purchase.Items {
			variantIDs = append(variantIDs, item.VariantID)
		}
		locked, err := s.variantRepo.LockByIDs(txCtx, variantIDs)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVariantNotFound
			}
			return fmt.Errorf("failed to lock variants: %w", err)
		}

		for _, item := range purchase.Items {
			variant := locked[item.VariantID]
			if variant.Stock < item.Quantity {
				return fmt.Errorf("%w: variant %s holds %d of the %d being un-received",
					ErrStockWouldGoNegative, variant.ID, variant.Stock, item.Quantity)
			}
			variant.Stock -= item.Quantity
		}
		for _, variant := range locked {
			if err := s.variantRepo.UpdateStock(txCtx, variant.ID, variant.Stock); err != nil {
				return fmt.Errorf("failed to update stock: %w", err)
			}
		}

		if err := s.purchaseRepo.DeleteItemsByPurchaseID(txCtx, purchase.ID); err != nil {
			return fmt.Errorf("failed to delete purchase items: %w", err)
		}
		if err := s.purchaseRepo.Delete(txCtx, purchase.ID); err != nil {
			return fmt.Errorf("failed to delete purchase: %w", err)
		}

		for _, variant := range locked {
			changes = append(changes, StockChange{VariantID: variant.ID.String(), Stock: variant.Stock})
		}

		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:   auditUserID(userID),
			Action:   model.ActionDeletePurchase,
			EntityID: purchase.ID.String(),
			Details:  `{"deleted": true}`,
		})
	})
	if err != nil {
		return err
	}

	notifyStockChanges(s.hub, changes)
	return nil
}

// SetStatus applies the purchase state machine: pending -> received|cancelled,
// received -> cancelled, cancelled terminal.
func (s *purchaseService) SetStatus(ctx context.Context, userID, purchaseID, status string) error {
	id, err := uuid.Parse(purchaseID)
	if err != nil {
		return ErrPurchaseNotFound
	}
	if !model.ValidPurchaseStatus(status) {
		return fmt.Errorf("%w: status %q", validate.ErrInvalidEnum, status)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		purchase, err := s.purchaseRepo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPurchaseNotFound
			}
			return fmt.Errorf("failed to lock purchase: %w", err)
		}
		if !model.CanTransitionPurchaseStatus(purchase.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusChange, purchase.Status, status)
		}
		if err := s.purchaseRepo.UpdateStatus(txCtx, purchase.ID, status); err != nil {
			return fmt.Errorf("failed to update purchase status: %w", err)
		}
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:   auditUserID(userID),
			Action:   model.ActionUpdatePurchase,
			EntityID: purchase.ID.String(),
			Details:  `{"status": "` + status + `"}`,
		})
	})
}

func (s *purchaseService) GetPurchase(ctx context.Context, id string) (*model.Purchase, error) {
	purchaseID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrPurchaseNotFound
	}
	purchase, err := s.purchaseRepo.FindByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("failed to find purchase: %w", err)
	}
	return purchase, nil
}

func (s *purchaseService) ListPurchases(ctx context.Context, filter PurchaseListFilter, page, limit int) ([]model.Purchase, int64, error) {
	f := &repository.Filter{}
	if filter.Status != "" {
		if !model.ValidPurchaseStatus(filter.Status) {
			return nil, 0, fmt.Errorf("%w: status %q", validate.ErrInvalidEnum, filter.Status)
		}
		f.Where("status", repository.OpEq, filter.Status)
	}
	if filter.SupplierID != "" {
		supplierID, err := uuid.Parse(filter.SupplierID)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: supplier id %q", validate.ErrInvalidEnum, filter.SupplierID)
		}
		f.Where("supplier_id", repository.OpEq, supplierID)
	}
	if filter.DateFrom != "" {
		from, err := s.cal.ParseDate(filter.DateFrom)
		if err != nil {
			return nil, 0, err
		}
		f.Where("date_from", repository.OpGte, from)
	}
	if filter.DateTo != "" {
		to, err := s.cal.ParseDate(filter.DateTo)
		if err != nil {
			return nil, 0, err
		}
		f.Where("date_to", repository.OpLte, to)
	}

	return s.purchaseRepo.List(ctx, f, page, limit)
}
