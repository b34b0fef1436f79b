package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/FMABr/ducks-demo/internal/apierror"
	"github.com/FMABr/ducks-demo/internal/dto"
	"github.com/FMABr/ducks-demo/internal/model"
	"github.com/FMABr/ducks-demo/internal/repository"
)

type CustomerService interface {
	Create(ctx context.Context, req dto.CustomerUpsertRequest) (*dto.CustomerResponse, error)
	Get(ctx context.Context, id int64) (*dto.CustomerResponse, error)
	Replace(ctx context.Context, id int64, req dto.CustomerUpsertRequest) (*dto.CustomerResponse, error)
	Patch(ctx context.Context, id int64, req dto.CustomerPatchRequest) (*dto.CustomerResponse, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter dto.CustomerFilter) (*dto.CustomerListResponse, error)
}

type customerService struct {
	customers repository.CustomerRepository
	sales     repository.SaleRepository
}

func NewCustomerService(customers repository.CustomerRepository, sales repository.SaleRepository) CustomerService {
	return &customerService{customers: customers, sales: sales}
}

func customerNotFound(id int64) *apierror.Error {
	return apierror.NotFound("customer %d not found", id).WithIDs(id)
}

func (s *customerService) Create(ctx context.Context, req dto.CustomerUpsertRequest) (*dto.CustomerResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apierror.Validation("name must not be blank")
	}
	c := &model.Customer{Name: name, HasSalesDiscount: req.HasSalesDiscount != nil && *req.HasSalesDiscount}
	if err := s.customers.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return customerToResponse(c), nil
}

func (s *customerService) Get(ctx context.Context, id int64) (*dto.CustomerResponse, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return customerToResponse(c), nil
}

func (s *customerService) Replace(ctx context.Context, id int64, req dto.CustomerUpsertRequest) (*dto.CustomerResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apierror.Validation("name must not be blank")
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = name
	c.HasSalesDiscount = req.HasSalesDiscount != nil && *req.HasSalesDiscount
	return s.save(ctx, c)
}

func (s *customerService) Patch(ctx context.Context, id int64, req dto.CustomerPatchRequest) (*dto.CustomerResponse, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.HasSalesDiscount != nil {
		c.HasSalesDiscount = *req.HasSalesDiscount
	}
	return s.save(ctx, c)
}

// Delete refuses to remove a customer that already bought ducks.
func (s *customerService) Delete(ctx context.Context, id int64) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	bought, err := s.sales.ExistsByCustomer(ctx, id)
	if err != nil {
		return fmt.Errorf("check customer %d sales: %w", id, err)
	}
	if bought {
		return apierror.Conflict("customer %d has sales and cannot be deleted", id).WithIDs(id)
	}

	err = s.customers.Delete(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return customerNotFound(id)
	case errors.Is(err, repository.ErrInUse):
		return apierror.Conflict("customer %d has sales and cannot be deleted", id).WithIDs(id).Wrap(err)
	case err != nil:
		return fmt.Errorf("delete customer %d: %w", id, err)
	}
	return nil
}

func (s *customerService) List(ctx context.Context, filter dto.CustomerFilter) (*dto.CustomerListResponse, error) {
	page, limit, offset := pageWindow(filter.Page, filter.Limit)
	rows, total, err := s.customers.Search(ctx, repository.CustomerSearch{
		Name:          filter.Name,
		SalesDiscount: filter.SalesDiscount,
		Offset:        offset,
		Limit:         limit,
	})
	if err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	data := make([]dto.CustomerResponse, 0, len(rows))
	for i := range rows {
		data = append(data, *customerToResponse(&rows[i]))
	}
	return &dto.CustomerListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

func (s *customerService) load(ctx context.Context, id int64) (*model.Customer, error) {
	c, err := s.customers.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, customerNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("load customer %d: %w", id, err)
	}
	return c, nil
}

func (s *customerService) save(ctx context.Context, c *model.Customer) (*dto.CustomerResponse, error) {
	err := s.customers.Update(ctx, c)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, customerNotFound(c.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("update customer %d: %w", c.ID, err)
	}
	return customerToResponse(c), nil
}
