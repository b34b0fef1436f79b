package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is immutable once created. Both totals are non-negative and carry two decimals;
// TotalAfterDiscount is the sum of the already-rounded line prices.
type Sale struct {
	ID                  int64           `gorm:"primaryKey"`
	CustomerID          int64           `gorm:"not null;index:idx_sales_customer_date,priority:1"`
	EmployeeID          int64           `gorm:"not null;index:idx_sales_employee_date,priority:1"`
	SaleDate            time.Time       `gorm:"not null;index:idx_sales_date;index:idx_sales_customer_date,priority:2;index:idx_sales_employee_date,priority:2"`
	TotalBeforeDiscount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalAfterDiscount  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt           time.Time
	UpdatedAt           time.Time

	Customer *Customer `gorm:"foreignKey:CustomerID"`
	Employee *Employee `gorm:"foreignKey:EmployeeID"`
	Items    []SaleItem `gorm:"foreignKey:SaleID"`
}

func (Sale) TableName() string { return "sales" }

// SaleItem freezes the price a duck was sold at. DuckID is UNIQUE across all
// sale items (uq_sale_items_duck): a duck can be sold at most once.
type SaleItem struct {
	ID          int64           `gorm:"primaryKey"`
	SaleID      int64           `gorm:"not null;index"`
	DuckID      int64           `gorm:"not null;uniqueIndex:uq_sale_items_duck"`
	PriceAtSale decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Duck *Duck `gorm:"foreignKey:DuckID"`
}

func (SaleItem) TableName() string { return "sale_items" }

// SoldDuck is a row of the v_sold_ducks view: one per sold duck, joined with
// its sale, customer and employee.
type SoldDuck struct {
	DuckID       int64
	DuckName     string
	PriceAtSale  decimal.Decimal
	SaleID       int64
	SaleDate     time.Time
	CustomerID   int64
	CustomerName string
	EmployeeID   int64
	EmployeeName string
}

func (SoldDuck) TableName() string { return "v_sold_ducks" }

// EmployeeSales aggregates an employee's sales inside a date window.
type EmployeeSales struct {
	EmployeeID   int64
	EmployeeName string
	SaleCount    int64
	Revenue      decimal.Decimal
}
