package service

import (
	"github.com/FMABr/ducks-demo/internal/dto"
	"github.com/FMABr/ducks-demo/internal/model"
	"github.com/FMABr/ducks-demo/internal/pricing"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// pageWindow normalises 1-based paging input and returns the row offset.
func pageWindow(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit, (page - 1) * limit
}

func duckToResponse(d *model.DuckWithChildren) *dto.DuckResponse {
	return &dto.DuckResponse{
		ID:         d.ID,
		Name:       d.Name,
		Price:      pricing.Price(d.ChildCount),
		ChildCount: d.ChildCount,
		MotherID:   d.MotherID,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func customerToResponse(c *model.Customer) *dto.CustomerResponse {
	return &dto.CustomerResponse{
		ID:               c.ID,
		Name:             c.Name,
		HasSalesDiscount: c.HasSalesDiscount,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func employeeToResponse(e *model.Employee) *dto.EmployeeResponse {
	return &dto.EmployeeResponse{
		ID:           e.ID,
		Name:         e.Name,
		FiscalCode:   e.FiscalCode,
		EmployeeCode: e.EmployeeCode,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func saleToResponse(s *model.Sale) *dto.SaleResponse {
	items := make([]dto.SaleItemResponse, 0, len(s.Items))
	for _, it := range s.Items {
		item := dto.SaleItemResponse{DuckID: it.DuckID, PriceAtSale: it.PriceAtSale}
		if it.Duck != nil {
			item.DuckName = it.Duck.Name
		}
		items = append(items, item)
	}
	return &dto.SaleResponse{
		ID:                  s.ID,
		CustomerID:          s.CustomerID,
		EmployeeID:          s.EmployeeID,
		SaleDate:            s.SaleDate,
		TotalBeforeDiscount: s.TotalBeforeDiscount,
		TotalAfterDiscount:  s.TotalAfterDiscount,
		Items:               items,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}
