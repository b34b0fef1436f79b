package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Filter / List ──────────────────────────────────────────────────────────

// DuckFilter is bound from query string of GET /v1/ducks.
type DuckFilter struct {
	Name     string `form:"name"`
	MotherID *int64 `form:"mother_id"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=20" validate:"min=1,max=200"`
}

type DuckListResponse struct {
	Data  []DuckResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// SoldDuckFilter is bound from query string of GET /v1/ducks/sold.
type SoldDuckFilter struct {
	From  string `form:"from"` // YYYY-MM-DD, inclusive
	To    string `form:"to"`   // YYYY-MM-DD, inclusive
	Page  int    `form:"page,default=1"   validate:"min=1"`
	Limit int    `form:"limit,default=20" validate:"min=1,max=200"`
}

type SoldDuckResponse struct {
	DuckID       int64           `json:"duck_id"`
	DuckName     string          `json:"duck_name"`
	CustomerName string          `json:"customer_name"`
	SaleDate     time.Time       `json:"sale_date"`
	PriceAtSale  decimal.Decimal `json:"price_at_sale"`
}

type SoldDuckListResponse struct {
	Data  []SoldDuckResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type DuckUpsertRequest struct {
	Name     string `json:"name"      validate:"required,max=255"`
	MotherID *int64 `json:"mother_id" validate:"omitempty,min=1"`
}

// DuckPatchRequest only touches the fields that are present.
type DuckPatchRequest struct {
	Name     *string `json:"name"      validate:"omitempty,min=1,max=255"`
	MotherID *int64  `json:"mother_id" validate:"omitempty,min=1"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type DuckResponse struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	ChildCount int64           `json:"child_count"`
	MotherID   *int64          `json:"mother_id"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type DuckPriceResponse struct {
	ID         int64           `json:"id"`
	Price      decimal.Decimal `json:"price"`
	ChildCount int64           `json:"child_count"`
}
