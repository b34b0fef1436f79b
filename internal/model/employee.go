package model

import "time"

// Employee records sales. FiscalCode and EmployeeCode are unique across employees.
// An employee with at least one recorded sale cannot be deleted.
type Employee struct {
	ID           int64  `gorm:"primaryKey"`
	Name         string `gorm:"size:255;not null"`
	FiscalCode   string `gorm:"size:32;uniqueIndex:uq_employees_fiscal_code;not null"`
	EmployeeCode string `gorm:"size:64;uniqueIndex:uq_employees_code;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Employee) TableName() string { return "employees" }
