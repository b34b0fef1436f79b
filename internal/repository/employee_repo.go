package repository

import (
	"context"
	"strings"

	"github.com/FMABr/ducks-demo/internal/model"

	"gorm.io/gorm"
)

type EmployeeSearch struct {
	Name         string
	FiscalCode   string
	EmployeeCode string
	Offset       int
	Limit        int
}

type EmployeeRepository interface {
	Create(ctx context.Context, e *model.Employee) error
	Update(ctx context.Context, e *model.Employee) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*model.Employee, error)
	Search(ctx context.Context, q EmployeeSearch) ([]model.Employee, int64, error)
}

type employeeRepo struct{ db *gorm.DB }

func NewEmployeeRepository(db *gorm.DB) EmployeeRepository { return &employeeRepo{db: db} }

func (r *employeeRepo) Create(ctx context.Context, e *model.Employee) error {
	return translate(r.db.WithContext(ctx).Create(e).Error)
}

func (r *employeeRepo) Update(ctx context.Context, e *model.Employee) error {
	return translate(r.db.WithContext(ctx).Save(e).Error)
}

func (r *employeeRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Employee{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *employeeRepo) FindByID(ctx context.Context, id int64) (*model.Employee, error) {
	var e model.Employee
	if err := r.db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (r *employeeRepo) Search(ctx context.Context, q EmployeeSearch) ([]model.Employee, int64, error) {
	var employees []model.Employee
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Employee{})
	if name := strings.TrimSpace(q.Name); name != "" {
		tx = tx.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if q.FiscalCode != "" {
		tx = tx.Where("fiscal_code = ?", q.FiscalCode)
	}
	if q.EmployeeCode != "" {
		tx = tx.Where("employee_code = ?", q.EmployeeCode)
	}

	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	err := tx.Order("id ASC").Offset(q.Offset).Limit(q.Limit).Find(&employees).Error
	return employees, total, translate(err)
}
