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

type EmployeeService interface {
	Create(ctx context.Context, req dto.EmployeeUpsertRequest) (*dto.EmployeeResponse, error)
	Get(ctx context.Context, id int64) (*dto.EmployeeResponse, error)
	Replace(ctx context.Context, id int64, req dto.EmployeeUpsertRequest) (*dto.EmployeeResponse, error)
	Patch(ctx context.Context, id int64, req dto.EmployeePatchRequest) (*dto.EmployeeResponse, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter dto.EmployeeFilter) (*dto.EmployeeListResponse, error)
}

type employeeService struct {
	employees repository.EmployeeRepository
	sales     repository.SaleRepository
}

func NewEmployeeService(employees repository.EmployeeRepository, sales repository.SaleRepository) EmployeeService {
	return &employeeService{employees: employees, sales: sales}
}

func employeeNotFound(id int64) *apierror.Error {
	return apierror.NotFound("employee %d not found", id).WithIDs(id)
}

func (s *employeeService) Create(ctx context.Context, req dto.EmployeeUpsertRequest) (*dto.EmployeeResponse, error) {
	e := &model.Employee{}
	if err := applyEmployeeFields(e, req.Name, req.FiscalCode, req.EmployeeCode); err != nil {
		return nil, err
	}
	if err := s.employees.Create(ctx, e); err != nil {
		return nil, employeeWriteError(err, "create employee")
	}
	return employeeToResponse(e), nil
}

func (s *employeeService) Get(ctx context.Context, id int64) (*dto.EmployeeResponse, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return employeeToResponse(e), nil
}

func (s *employeeService) Replace(ctx context.Context, id int64, req dto.EmployeeUpsertRequest) (*dto.EmployeeResponse, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyEmployeeFields(e, req.Name, req.FiscalCode, req.EmployeeCode); err != nil {
		return nil, err
	}
	return s.save(ctx, e)
}

func (s *employeeService) Patch(ctx context.Context, id int64, req dto.EmployeePatchRequest) (*dto.EmployeeResponse, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	name, fiscal, code := e.Name, e.FiscalCode, e.EmployeeCode
	if req.Name != nil {
		name = *req.Name
	}
	if req.FiscalCode != nil {
		fiscal = *req.FiscalCode
	}
	if req.EmployeeCode != nil {
		code = *req.EmployeeCode
	}
	if err := applyEmployeeFields(e, name, fiscal, code); err != nil {
		return nil, err
	}
	return s.save(ctx, e)
}

// Delete refuses to remove an employee with at least one recorded sale.
func (s *employeeService) Delete(ctx context.Context, id int64) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	hasSales, err := s.sales.ExistsByEmployee(ctx, id)
	if err != nil {
		return fmt.Errorf("check employee %d sales: %w", id, err)
	}
	if hasSales {
		return apierror.Conflict("employee %d has sales and cannot be deleted", id).WithIDs(id)
	}

	err = s.employees.Delete(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return employeeNotFound(id)
	case errors.Is(err, repository.ErrInUse):
		return apierror.Conflict("employee %d has sales and cannot be deleted", id).WithIDs(id).Wrap(err)
	case err != nil:
		return fmt.Errorf("delete employee %d: %w", id, err)
	}
	return nil
}

func (s *employeeService) List(ctx context.Context, filter dto.EmployeeFilter) (*dto.EmployeeListResponse, error) {
	page, limit, offset := pageWindow(filter.Page, filter.Limit)
	rows, total, err := s.employees.Search(ctx, repository.EmployeeSearch{
		Name:         filter.Name,
		FiscalCode:   strings.TrimSpace(filter.FiscalCode),
		EmployeeCode: strings.TrimSpace(filter.EmployeeCode),
		Offset:       offset,
		Limit:        limit,
	})
	if err != nil {
		return nil, fmt.Errorf("search employees: %w", err)
	}
	data := make([]dto.EmployeeResponse, 0, len(rows))
	for i := range rows {
		data = append(data, *employeeToResponse(&rows[i]))
	}
	return &dto.EmployeeListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

func (s *employeeService) load(ctx context.Context, id int64) (*model.Employee, error) {
	e, err := s.employees.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, employeeNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("load employee %d: %w", id, err)
	}
	return e, nil
}

func (s *employeeService) save(ctx context.Context, e *model.Employee) (*dto.EmployeeResponse, error) {
	err := s.employees.Update(ctx, e)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, employeeNotFound(e.ID)
	}
	if err != nil {
		return nil, employeeWriteError(err, "update employee")
	}
	return employeeToResponse(e), nil
}

func applyEmployeeFields(e *model.Employee, name, fiscal, code string) error {
	name, fiscal, code = strings.TrimSpace(name), strings.TrimSpace(fiscal), strings.TrimSpace(code)
	if name == "" || fiscal == "" || code == "" {
		return apierror.Validation("name, fiscal_code and employee_code must not be blank")
	}
	e.Name, e.FiscalCode, e.EmployeeCode = name, fiscal, code
	return nil
}

func employeeWriteError(err error, op string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apierror.Conflict("fiscal_code or employee_code already belongs to another employee").Wrap(err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
