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
type CustomerRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type CustomerService interface {
	CreateCustomer(ctx context.Context, userID string, req CustomerRequest) (*model.Customer, error)
	UpdateCustomer(ctx context.Context, userID, id string, req CustomerRequest) (*model.Customer, error)
	DeleteCustomer(ctx context.Context, userID, id string) error
	GetCustomer(ctx context.Context, id string) (*model.Customer, error)
	ListCustomers(ctx context.Context, search string, page, limit int) ([]model.Customer, int64, error)
}

type customerService struct {
	customerRepo repository.CustomerRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
}

func NewCustomerService(
	customerRepo repository.CustomerRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) CustomerService {
	return &customerService{
		customerRepo: customerRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
	}
}

func (s *customerService) CreateCustomer(ctx context.Context, userID string, req CustomerRequest) (*model.Customer, error) {
	customer := model.Customer{
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.customerRepo.Create(txCtx, &customer); err != nil {
			return fmt.Errorf("failed to create customer: %w", err)
		}
		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditUserID(userID),
			Action:     model.ActionCreateCustomer,
			EntityID:   customer.ID.String(),
			EntityName: customer.Name,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, userID, id string, req CustomerRequest) (*model.Customer, error) {
	customerID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrCustomerNotFound
	}
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}

	customer.Name = req.Name
	customer.Phone = req.Phone
	customer.Email = req.Email

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.customerRepo.Update(txCtx, customer); err != nil {
			return fmt.Errorf("failed to update customer: %w", err)
		}
		details, _ := json.Marshal(req)
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditUserID(userID),
			Action:     model.ActionUpdateCustomer,
			EntityID:   customer.ID.String(),
			EntityName: customer.Name,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}
	return customer, nil
}

// DeleteCustomer removes the customer record; sales keep a nullable reference
// so history survives the delete.
func (s *customerService) DeleteCustomer(ctx context.Context, userID, id string) error {
	customerID, err := uuid.Parse(id)
	if err != nil {
		return ErrCustomerNotFound
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		customer, err := s.customerRepo.FindByID(txCtx, customerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCustomerNotFound
			}
			return fmt.Errorf("failed to find customer: %w", err)
		}

		if err := s.customerRepo.Delete(txCtx, customer.ID); err != nil {
			return fmt.Errorf("failed to delete customer: %w", err)
		}
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     auditUserID(userID),
			Action:     model.ActionDeleteCustomer,
			EntityID:   customer.ID.String(),
			EntityName: customer.Name,
			Details:    `{"deleted": true}`,
		})
	})
}

func (s *customerService) GetCustomer(ctx context.Context, id string) (*model.Customer, error) {
	customerID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrCustomerNotFound
	}
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	return customer, nil
}

func (s *customerService) ListCustomers(ctx context.Context, search string, page, limit int) ([]model.Customer, int64, error) {
	return s.customerRepo.List(ctx, search, page, limit)
}
