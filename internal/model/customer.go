package model

import "time"

// Customer buys ducks. HasSalesDiscount grants the loyalty discount on every sale line.
type Customer struct {
	ID               int64  `gorm:"primaryKey"`
	Name             string `gorm:"size:255;not null"`
	HasSalesDiscount bool   `gorm:"not null;default:false"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Customer) TableName() string { return "customers" }
