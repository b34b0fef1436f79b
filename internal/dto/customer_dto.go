package dto

import "time"

// CustomerFilter is bound from query string of GET /v1/customers.
type CustomerFilter struct {
	Name          string `form:"name"`
	SalesDiscount *bool  `form:"sales_discount"`
	Page          int    `form:"page,default=1"   validate:"min=1"`
	Limit         int    `form:"limit,default=20" validate:"min=1,max=200"`
}

type CustomerUpsertRequest struct {
	Name             string `json:"name"               validate:"required,max=255"`
	HasSalesDiscount *bool  `json:"has_sales_discount" validate:"required"`
}

type CustomerPatchRequest struct {
	Name             *string `json:"name"               validate:"omitempty,min=1,max=255"`
	HasSalesDiscount *bool   `json:"has_sales_discount"`
}

type CustomerResponse struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	HasSalesDiscount bool      `json:"has_sales_discount"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type CustomerListResponse struct {
	Data  []CustomerResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
