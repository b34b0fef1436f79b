package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Filter / List ──────────────────────────────────────────────────────────

// SaleFilter is bound from query string of GET /v1/sales.
type SaleFilter struct {
	From       string `form:"from"` // YYYY-MM-DD, inclusive
	To         string `form:"to"`   // YYYY-MM-DD, inclusive
	CustomerID *int64 `form:"customer_id"`
	EmployeeID *int64 `form:"employee_id"`
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=20" validate:"min=1,max=200"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CreateSaleRequest may repeat duck ids; repeats are collapsed, first occurrence wins.
type CreateSaleRequest struct {
	CustomerID int64   `json:"customer_id" validate:"required,min=1"`
	EmployeeID int64   `json:"employee_id" validate:"required,min=1"`
	DuckIDs    []int64 `json:"duck_ids"    validate:"required,min=1,dive,min=1"`
	// SaleDate defaults to the time the sale is recorded.
	SaleDate *time.Time `json:"sale_date"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleItemResponse struct {
	DuckID      int64           `json:"duck_id"`
	DuckName    string          `json:"duck_name,omitempty"`
	PriceAtSale decimal.Decimal `json:"price_at_sale"`
}

type SaleResponse struct {
	ID                  int64              `json:"id"`
	CustomerID          int64              `json:"customer_id"`
	EmployeeID          int64              `json:"employee_id"`
	SaleDate            time.Time          `json:"sale_date"`
	TotalBeforeDiscount decimal.Decimal    `json:"total_before_discount"`
	TotalAfterDiscount  decimal.Decimal    `json:"total_after_discount"`
	Items               []SaleItemResponse `json:"items,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}
