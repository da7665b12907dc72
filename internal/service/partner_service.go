package service

import (
	"context"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperror"
)

// DTOs

type SupplierRequest struct {
	Name          string `json:"name" binding:"required"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email" binding:"omitempty,email"`
	Address       string `json:"address"`
}

type CustomerRequest struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Email   string `json:"email" binding:"omitempty,email"`
	Address string `json:"address"`
}

type SupplierService interface {
	Create(ctx context.Context, req SupplierRequest) (*model.Supplier, error)
	Update(ctx context.Context, id string, req SupplierRequest) (*model.Supplier, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Supplier, error)
	List(ctx context.Context, search string, page, limit int) ([]model.Supplier, int64, error)
}

type supplierService struct {
	suppliers repository.SupplierRepository
}

func NewSupplierService(suppliers repository.SupplierRepository) SupplierService {
	return &supplierService{suppliers: suppliers}
}

func (s *supplierService) Create(ctx context.Context, req SupplierRequest) (*model.Supplier, error) {
	supplier := &model.Supplier{
		Name:          req.Name,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
	}
	if err := s.suppliers.Create(ctx, supplier); err != nil {
		return nil, apperror.Wrap(err, apperror.KindInternal, "failed to create supplier")
	}
	return supplier, nil
}

func (s *supplierService) Update(ctx context.Context, id string, req SupplierRequest) (*model.Supplier, error) {
	supplierID, err := parseUUID("id", id)
	if err != nil {
		return nil, err
	}
	supplier, err := s.suppliers.FindByID(ctx, supplierID)
	if err != nil {
		return nil, notFoundOr(err, "supplier not found")
	}

	supplier.Name = req.Name
	supplier.ContactPerson = req.ContactPerson
	supplier.Phone = req.Phone
	supplier.Email = req.Email
	supplier.Address = req.Address
	if err := s.suppliers.Update(ctx, supplier); err != nil {
		return nil, apperror.Wrap(err, apperror.KindInternal, "failed to update supplier")
	}
	return supplier, nil
}

func (s *supplierService) Delete(ctx context.Context, id string) error {
	supplierID, err := parseUUID("id", id)
	if err != nil {
		return err
	}
	if _, err := s.suppliers.FindByID(ctx, supplierID); err != nil {
		return notFoundOr(err, "supplier not found")
	}
	if err := s.suppliers.Delete(ctx, supplierID); err != nil {
		return apperror.Wrap(err, apperror.KindInternal, "failed to delete supplier")
	}
	return nil
}

func (s *supplierService) GetByID(ctx context.Context, id string) (*model.Supplier, error) {
	supplierID, err := parseUUID("id", id)
	if err != nil {
		return nil, err
	}
	supplier, err := s.suppliers.FindByID(ctx, supplierID)
	if err != nil {
		return nil, notFoundOr(err, "supplier not found")
	}
	return supplier, nil
}

func (s *supplierService) List(ctx context.Context, search string, page, limit int) ([]model.Supplier, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	suppliers, total, err := s.suppliers.List(ctx, search, page, limit)
	if err != nil {
		return nil, 0, apperror.Wrap(err, apperror.KindInternal, "failed to list suppliers")
	}
	return suppliers, total, nil
}

type CustomerService interface {
	Create(ctx context.Context, req CustomerRequest) (*model.Customer, error)
	Update(ctx context.Context, id string, req CustomerRequest) (*model.Customer, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Customer, error)
	List(ctx context.Context, search string, page, limit int) ([]model.Customer, int64, error)
}

type customerService struct {
	customers repository.CustomerRepository
}

func NewCustomerService(customers repository.CustomerRepository) CustomerService {
	return &customerService{customers: customers}
}

func (s *customerService) Create(ctx context.Context, req CustomerRequest) (*model.Customer, error) {
	customer := &model.Customer{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, apperror.Wrap(err, apperror.KindInternal, "failed to create customer")
	}
	return customer, nil
}

func (s *customerService) Update(ctx context.Context, id string, req CustomerRequest) (*model.Customer, error) {
	customerID, err := parseUUID("id", id)
	if err != nil {
		return nil, err
	}
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, notFoundOr(err, "customer not found")
	}

	customer.Name = req.Name
	customer.Phone = req.Phone
	customer.Email = req.Email
	customer.Address = req.Address
	if err := s.customers.Update(ctx, customer); err != nil {
		return nil, apperror.Wrap(err, apperror.KindInternal, "failed to update customer")
	}
	return customer, nil
}

func (s *customerService) Delete(ctx context.Context, id string) error {
	customerID, err := parseUUID("id", id)
	if err != nil {
		return err
	}
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return notFoundOr(err, "customer not found")
	}
	if customer.CreditBalance.IsPositive() {
		return apperror.Conflict("customer still holds store credit")
	}
	if err := s.customers.Delete(ctx, customerID); err != nil {
		return apperror.Wrap(err, apperror.KindInternal, "failed to delete customer")
	}
	return nil
}

func (s *customerService) GetByID(ctx context.Context, id string) (*model.Customer, error) {
	customerID, err := parseUUID("id", id)
	if err != nil {
		return nil, err
	}
	customer, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, notFoundOr(err, "customer not found")
	}
	return customer, nil
}

func (s *customerService) List(ctx context.Context, search string, page, limit int) ([]model.Customer, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	customers, total, err := s.customers.List(ctx, search, page, limit)
	if err != nil {
		return nil, 0, apperror.Wrap(err, apperror.KindInternal, "failed to list customers")
	}
	return customers, total, nil
}
