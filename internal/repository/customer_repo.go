package repository

import (
	"context"
	"strings"

	"github.com/FMABr/ducks-demo/internal/model"

	"gorm.io/gorm"
)

type CustomerSearch struct {
	Name          string
	SalesDiscount *bool
	Offset        int
	Limit         int
}

type CustomerRepository interface {
	Create(ctx context.Context, c *model.Customer) error
	Update(ctx context.Context, c *model.Customer) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*model.Customer, error)
	Search(ctx context.Context, q CustomerSearch) ([]model.Customer, int64, error)
}

type customerRepo struct{ db *gorm.DB }

func NewCustomerRepository(db *gorm.DB) CustomerRepository { return &customerRepo{db: db} }

func (r *customerRepo) Create(ctx context.Context, c *model.Customer) error {
	return translate(r.db.WithContext(ctx).Create(c).Error)
}

func (r *customerRepo) Update(ctx context.Context, c *model.Customer) error {
	return translate(r.db.WithContext(ctx).Save(c).Error)
}

func (r *customerRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Customer{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *customerRepo) FindByID(ctx context.Context, id int64) (*model.Customer, error) {
	var c model.Customer
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (r *customerRepo) Search(ctx context.Context, q CustomerSearch) ([]model.Customer, int64, error) {
	var customers []model.Customer
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Customer{})
	if name := strings.TrimSpace(q.Name); name != "" {
		tx = tx.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if q.SalesDiscount != nil {
		tx = tx.Where("has_sales_discount = ?", *q.SalesDiscount)
	}

	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	err := tx.Order("id ASC").Offset(q.Offset).Limit(q.Limit).Find(&customers).Error
	return customers, total, translate(err)
}
