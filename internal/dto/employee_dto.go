package dto

import "time"

// EmployeeFilter is bound from query string of GET /v1/employees.
// FiscalCode and EmployeeCode match exactly; Name matches as a substring.
type EmployeeFilter struct {
	Name         string `form:"name"`
	FiscalCode   string `form:"fiscal_code"`
	EmployeeCode string `form:"employee_code"`
	Page         int    `form:"page,default=1"   validate:"min=1"`
	Limit        int    `form:"limit,default=20" validate:"min=1,max=200"`
}

type EmployeeUpsertRequest struct {
	Name         string `json:"name"          validate:"required,max=255"`
	FiscalCode   string `json:"fiscal_code"   validate:"required,max=32"`
	EmployeeCode string `json:"employee_code" validate:"required,max=64"`
}

type EmployeePatchRequest struct {
	Name         *string `json:"name"          validate:"omitempty,min=1,max=255"`
	FiscalCode   *string `json:"fiscal_code"   validate:"omitempty,min=1,max=32"`
	EmployeeCode *string `json:"employee_code" validate:"omitempty,min=1,max=64"`
}

type EmployeeResponse struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	FiscalCode   string    `json:"fiscal_code"`
	EmployeeCode string    `json:"employee_code"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type EmployeeListResponse struct {
	Data  []EmployeeResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
