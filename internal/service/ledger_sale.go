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
type SaleItemRequest struct {
	VariantID string `json:"variant_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
	SellPrice string `json:"sell_price" binding:"required"`
}

type CreateSaleRequest struct {
	CustomerID    string            `json:"customer_id"`
	SaleDate      string            `json:"sale_date" binding:"required"`
	PaymentMethod string            `json:"payment_method" binding:"required"`
	Items         []SaleItemRequest `json:"items"`
}

type SaleListFilter struct {
	Status        string
	PaymentMethod string
	CustomerID    string
	DateFrom      string
	DateTo        string
}

// saleItem is a validated line ready for the ledger
type saleItem struct {
	variantID uuid.UUID
	quantity  int
	sellPrice decimal.Decimal
}

type SaleService interface {
	CreateSale(ctx context.Context, userID string, req CreateSaleRequest) (*model.Sale, error)
	AddItem(ctx context.Context, userID, saleID string, req SaleItemRequest) (*model.SaleItem, error)
	EditItem(ctx context.Context, userID, itemID string, req SaleItemRequest) (*model.SaleItem, error)
	DeleteItem(ctx context.Context, userID, itemID string) error
	DeleteSale(ctx context.Context, userID, saleID string) error
	SetStatus(ctx context.Context, userID, saleID, status string) error
	GetSale(ctx context.Context, id string) (*model.Sale, error)
	ListSales(ctx context.Context, filter SaleListFilter, page, limit int) ([]model.Sale, int64, error)
}

type saleService struct {
	saleRepo     repository.SaleRepository
	variantRepo  repository.VariantRepository
	customerRepo repository.CustomerRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	cal          calendar.Calendar
	hub          *ws.Hub
}

func NewSaleService(
	saleRepo repository.SaleRepository,
	variantRepo repository.VariantRepository,
	customerRepo repository.CustomerRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	cal calendar.Calendar,
	hub *ws.Hub,
) SaleService {
	return &saleService{
		saleRepo:     saleRepo,
		variantRepo:  variantRepo,
		customerRepo: customerRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		cal:          cal,
		hub:          hub,
	}
}

// parseSaleItem validates one requested line before any transaction starts
func parseSaleItem(req SaleItemRequest) (saleItem, error) {
	variantID, err := uuid.Parse(req.VariantID)
	if err != nil {
		return saleItem{}, fmt.Errorf("%w: variant id %q", validate.ErrInvalidEnum, req.VariantID)
	}
	if err := validate.Quantity(req.Quantity); err != nil {
		return saleItem{}, err
	}
	price, err := validate.ParsePrice(req.SellPrice)
	if err != nil {
		return saleItem{}, err
	}
	return saleItem{variantID: variantID, quantity: req.Quantity, sellPrice: price}, nil
}

func (s *saleService) CreateSale(ctx context.Context, userID string, req CreateSaleRequest) (*model.Sale, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	saleDate, err := s.cal.ParseDate(req.SaleDate)
	if err != nil {
		return nil, err
	}
	payment, err := validate.OneOf(req.PaymentMethod,
		model.PaymentCash, model.PaymentCreditCard, model.PaymentBankTransfer)
	if err != nil {
		return nil, err
	}

	var customerID *uuid.UUID
	if req.CustomerID != "" {
		parsed, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("%w: customer id %q", validate.ErrInvalidEnum, req.CustomerID)
		}
		customerID = &parsed
	}

	items := make([]saleItem, 0, len(req.Items))
	variantIDs := make([]uuid.UUID, 0, len(req.Items))
	for _, itemReq := range req.Items {
		item, err := parseSaleItem(itemReq)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		variantIDs = append(variantIDs, item.variantID)
	}

	sale := model.Sale{
		CustomerID:    customerID,
		SaleDate:      saleDate,
		PaymentMethod: payment,
		Status:        model.SaleStatusPending,
	}

	var changes []StockChange
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if customerID != nil {
			if _, err := s.customerRepo.FindByID(txCtx, *customerID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrCustomerNotFound
				}
				return fmt.Errorf("failed to find customer: %w", err)
			}
		}

		locked, err := s.variantRepo.LockByIDs(txCtx, variantIDs)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVariantNotFound
			}
			return fmt.Errorf("failed to lock variants: %w", err)
		}

		if err := s.saleRepo.Create(txCtx, &sale); err != nil {
			return fmt.Errorf("failed to create sale: %w", err)
		}

		for _, item := range items {
			variant := locked[item.variantID]
			if variant.Stock < item.quantity {
				return fmt.Errorf("%w: variant %s has %d, requested %d",
					ErrInsufficientStock, variant.ID, variant.Stock, item.quantity)
			}
			if err := s.saleRepo.CreateItem(txCtx, &model.SaleItem{
				SaleID:    sale.ID,
				VariantID: item.variantID,
				Quantity:  item.quantity,
				SellPrice: item.sellPrice,
			}); err != nil {
				return fmt.Errorf("failed to create sale item: %w", err)
			}
			variant.Stock -= item.quantity
			if err := s.variantRepo.UpdateStock(txCtx, variant.ID, variant.Stock); err != nil {
				return fmt.Errorf("failed to update stock: %w", err)
			}
		}

		for _, variant := range locked {
			changes = append(changes, StockChange{VariantID: variant.ID.String(), Stock: variant.Stock})
		}

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:   auditUserID(userID),
			Action:   model.ActionCreateSale,
			EntityID: sale.ID.String(),
			Details:  string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	notifyStockChanges(s.hub, changes)
	return s.saleRepo.FindByID(ctx, sale.ID)
}

func (s *saleService) AddItem(ctx context.Context, userID, saleID string, req SaleItemRequest) (*model.SaleItem, error) {
	id, err := uuid.Parse(saleID)
	if err != nil {
		return nil, ErrSaleNotFound
	}
	item, err := parseSaleItem(req)
	if err != nil {
		return nil, err
	}

	created := model.SaleItem{
		VariantID: item.variantID,
		Quantity:  item.quantity,
		SellPrice: item.sellPrice,
	}

	var changes []StockChange
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sale, err := s.saleRepo.FindByID(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSaleNotFound
			}
			return fmt.Errorf("failed to find sale: %w", err)
		}

		variant, err := s.variantRepo.FindByIDForUpdate(txCtx, item.variantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVariantNotFound
			}
			return fmt.Errorf("failed to lock variant: %w", err)
		}
		if variant.Stock < item.quantity {
			return fmt.Errorf("%w: variant %s has %d, requested %d",
				ErrInsufficientStock, variant.ID, variant.Stock, item.quantity)
		}

		created.SaleID = sale.ID
		if err := s.saleRepo.CreateItem(txCtx, &created); err != nil {
			return fmt.Errorf("failed to create sale item: %w", err)
		}
		if err := s.variantRepo.UpdateStock(txCtx, variant.ID, variant.Stock-item.quantity); err != nil {
			return fmt.Errorf("failed to update stock: %w", err)
		}
		changes = append(changes, StockChange{VariantID: variant.ID.String(), Stock: variant.Stock - item.quantity})

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:   auditUserID(userID),
			Action:   model.ActionUpdateSale,
			EntityID: sale.ID.String(),
			Details:  string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	notifyStockChanges(s.hub, changes)
	return &created, nil
}

// EditItem repoints or resizes an existing sale line. Same-variant edits apply
// the quantity delta; cross-variant edits fully restore the old variant and
// debit the new one, with both rows locked in ascending order.
func (s *saleService) EditItem(ctx context.Context, userID, itemID string, req SaleItemRequest) (*model.SaleItem, error) {
	id, err := uuid.Parse(itemID)
	if err != nil {
		return nil, ErrItemNotFound
	}
	edit, err := parseSaleItem(req)
	if err != nil {
		return nil, err
	}

	var updated *model.SaleItem
	var changes []StockChange
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		item, err := s.saleRepo.FindItemByID(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return fmt.Errorf("failed to find sale item: %w", err)
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
			if delta > 0 && variant.Stock < delta {
				return fmt.Errorf("%w: variant %s has %d, requested %d more",
					ErrInsufficientStock, variant.ID, variant.Stock, delta)
			}
			if err := s.variantRepo.UpdateStock(txCtx, variant.ID, variant.Stock-delta); err != nil {
				return fmt.Errorf("failed to update stock: %w", err)
			}
			changes = append(changes, StockChange{VariantID: variant.ID.String(), Stock: variant.Stock - delta})
		} else {
			locked, err := s.variantRepo.LockByIDs(txCtx, []uuid.UUID{item.VariantID, edit.variantID})
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrVariantNotFound
				}
				return fmt.Errorf("failed to lock variants: %w", err)
			}
			oldVariant, newVariant := locked[item.VariantID], locked[edit.variantID]
			if newVariant.Stock < edit.quantity {
				return fmt.Errorf("%w: variant %s has %d, requested %d",
					ErrInsufficientStock, newVariant.ID, newVariant.Stock, edit.quantity)
			}
			if err := s.variantRepo.UpdateStock(txCtx, oldVariant.ID, oldVariant.Stock+item.Quantity); err != nil {
				return fmt.Errorf("failed to restore stock: %w", err)
			}
			if err := s.variantRepo.UpdateStock(txCtx, newVariant.ID, newVariant.Stock-edit.quantity); err != nil {
				return fmt.Errorf("failed to update stock: %w", err)
			}
			changes = append(changes,
				StockChange{VariantID: oldVariant.ID.String(), Stock: oldVariant.Stock + item.Quantity},
				StockChange{VariantID: newVariant.ID.String(), Stock: newVariant.Stock - edit.quantity})
		}

		item.VariantID = edit.variantID
		item.Quantity = edit.quantity
		item.SellPrice = edit.sellPrice
		if err := s.saleRepo.UpdateItem(txCtx, item); err != nil {
			return fmt.Errorf("failed to update sale item: %w", err)
		}
		updated = item

		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:   auditUserID(userID),
			Action:   model.ActionUpdateSale,
			EntityID: item.SaleID.String(),
			Details:  string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	notifyStockChanges(s.hub, changes)
	return updated, nil
}

// DeleteItem removes one line and restores its stock. Adding stock back never
// needs a threshold check.
func (s *saleService) DeleteItem(ctx context.Context, userID, itemID string) error {
	id, err := uuid.Parse(itemID)
	if err != nil {
		return ErrItemNotFound
	}

	var changes []StockChange
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		item, err := s.saleRepo.FindItemByID(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrItemNotFound
			}
			return fmt.Errorf("failed to find sale item: %w", err)
		}

		variant, err := s.variantRepo.FindByIDForUpdate(txCtx, item.VariantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVariantNotFound
			}
			return fmt.Errorf("failed to lock variant: %w", err)
		}
		if err := s.variantRepo.UpdateStock(txCtx, variant.ID, variant.Stock+item.Quantity); err != nil {
			return fmt.Errorf("failed to restore stock: %w", err)
		}
		if err := s.saleRepo.DeleteItem(txCtx, item.ID); err != nil {
			return fmt.Errorf("failed to delete sale item: %w", err)
		}
		changes = append(changes, StockChange{VariantID: variant.ID.String(), Stock: variant.Stock + item.Quantity})

		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:   auditUserID(userID),
			Action:   model.ActionUpdateSale,
			EntityID: item.SaleID.String(),
			Details:  `{"deleted_item": "` + item.ID.String() + `"}`,
		})
	})
	if err != nil {
		return err
	}

	notifyStockChanges(s.hub, changes)
	return nil
}

func (s *saleService) DeleteSale(ctx context.Context, userID, saleID string) error {
	id, err := uuid.Parse(saleID)
	if err != nil {
		return ErrSaleNotFound
	}

	var changes []StockChange
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sale, err := s.saleRepo.FindByID(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSaleNotFound
			}
			return fmt.Errorf("failed to find sale: %w", err)
		}

		variantIDs := make([]uuid.UUID, 0, len(sale.Items))
		for _, item := range sale.Items {
			variantIDs = append(variantIDs, item.VariantID)
		}
		locked, err := s.variantRepo.LockByIDs(txCtx, variantIDs)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrVariantNotFound
			}
			return fmt.Errorf("failed to lock variants: %w", err)
		}

		for _, item := range sale.Items {
			variant := locked[item.VariantID]
			variant.Stock += item.Quantity
			if err := s.variantRepo.UpdateStock(txCtx, variant.ID, variant.Stock); err != nil {
				return fmt.Errorf("failed to restore stock: %w", err)
			}
		}
		if err := s.saleRepo.DeleteItemsBySaleID(txCtx, sale.ID); err != nil {
			return fmt.Errorf("failed to delete sale items: %w", err)
		}
		if err := s.saleRepo.Delete(txCtx, sale.ID); err != nil {
			return fmt.Errorf("failed to delete sale: %w", err)
		}

		for _, variant := range locked {
			changes = append(changes, StockChange{VariantID: variant.ID.String(), Stock: variant.Stock})
		}

		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:   auditUserID(userID),
			Action:   model.ActionDeleteSale,
			EntityID: sale.ID.String(),
			Details:  `{"deleted": true}`,
		})
	})
	if err != nil {
		return err
	}

	notifyStockChanges(s.hub, changes)
	return nil
}

func (s *saleService) SetStatus(ctx context.Context, userID, saleID, status string) error {
	id, err := uuid.Parse(saleID)
	if err != nil {
		return ErrSaleNotFound
	}
	status, err = validate.OneOf(status, model.SaleStatusPending, model.SaleStatusPaid)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.saleRepo.FindByID(txCtx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSaleNotFound
			}
			return fmt.Errorf("failed to find sale: %w", err)
		}
		if err := s.saleRepo.UpdateStatus(txCtx, id, status); err != nil {
			return fmt.Errorf("failed to update sale status: %w", err)
		}
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:   auditUserID(userID),
			Action:   model.ActionUpdateSale,
			EntityID: id.String(),
			Details:  `{"status": "` + status + `"}`,
		})
	})
}

func (s *saleService) GetSale(ctx context.Context, id string) (*model.Sale, error) {
	saleID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrSaleNotFound
	}
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSaleNotFound
		}
		return nil, fmt.Errorf("failed to find sale: %w", err)
	}
	return sale, nil
}

func (s *saleService) ListSales(ctx context.Context, filter SaleListFilter, page, limit int) ([]model.Sale, int64, error) {
	f := &repository.Filter{}
	if filter.Status != "" {
		status, err := validate.OneOf(filter.Status, model.SaleStatusPending, model.SaleStatusPaid)
		if err != nil {
			return nil, 0, err
		}
		f.Where("status", repository.OpEq, status)
	}
	if filter.PaymentMethod != "" {
		payment, err := validate.OneOf(filter.PaymentMethod,
			model.PaymentCash, model.PaymentCreditCard, model.PaymentBankTransfer)
		if err != nil {
			return nil, 0, err
		}
		f.Where("payment_method", repository.OpEq, payment)
	}
	if filter.CustomerID != "" {
		customerID, err := uuid.Parse(filter.CustomerID)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: customer id %q", validate.ErrInvalidEnum, filter.CustomerID)
		}
		f.Where("customer_id", repository.OpEq, customerID)
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

	return s.saleRepo.List(ctx, f, page, limit)
}
