package repository

import (
	"context"
	"time"

	"github.com/FMABr/ducks-demo/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaleSearch narrows sale and sold-duck listings. Bounds form the half-open
// range [From, ToExclusive); nil bounds are open.
type SaleSearch struct {
	From        *time.Time
	ToExclusive *time.Time
	CustomerID  *int64
	EmployeeID  *int64
	Offset      int
	Limit       int
}

type SaleRepository interface {
	// Create inserts the sale and then its items inside tx. The unique index on
	// sale_items.duck_id rejects a duck sold twice with ErrDuplicate.
	Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, id int64) (*model.Sale, error)
	// FindSoldDuckIDs returns which of ids already appear in a sale item.
	FindSoldDuckIDs(ctx context.Context, ids []int64) ([]int64, error)
	List(ctx context.Context, q SaleSearch) ([]model.Sale, int64, error)
	ListSoldDucks(ctx context.Context, q SaleSearch) ([]model.SoldDuck, int64, error)
	AllSoldDucks(ctx context.Context) ([]model.SoldDuck, error)
	ExistsByEmployee(ctx context.Context, employeeID int64) (bool, error)
	ExistsByCustomer(ctx context.Context, customerID int64) (bool, error)
	ExistsByDuck(ctx context.Context, duckID int64) (bool, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error {
	items := s.Items
	if err := tx.WithContext(ctx).Omit(clause.Associations).Create(s).Error; err != nil {
		return translate(err)
	}
	for i := range items {
		items[i].SaleID = s.ID
	}
	if len(items) > 0 {
		if err := tx.WithContext(ctx).Omit(clause.Associations).Create(&items).Error; err != nil {
			return translate(err)
		}
	}
	s.Items = items
	return nil
}

func (r *saleRepo) FindByID(ctx context.Context, id int64) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sale_items.id") }).
		Preload("Items.Duck").
		Preload("Customer").
		Preload("Employee").
		First(&s, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *saleRepo) FindSoldDuckIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var sold []int64
	err := r.db.WithContext(ctx).Model(&model.SaleItem{}).
		Where("duck_id IN ?", ids).
		Distinct().Order("duck_id").
		Pluck("duck_id", &sold).Error
	return sold, translate(err)
}

func applyDateBounds(tx *gorm.DB, column string, q SaleSearch) *gorm.DB {
	if q.From != nil {
		tx = tx.Where(column+" >= ?", *q.From)
	}
	if q.ToExclusive != nil {
		tx = tx.Where(column+" < ?", *q.ToExclusive)
	}
	return tx
}

func (r *saleRepo) List(ctx context.Context, q SaleSearch) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64

	tx := applyDateBounds(r.db.WithContext(ctx).Model(&model.Sale{}), "sale_date", q)
	if q.CustomerID != nil {
		tx = tx.Where("customer_id = ?", *q.CustomerID)
	}
	if q.EmployeeID != nil {
		tx = tx.Where("employee_id = ?", *q.EmployeeID)
	}

	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	err := tx.Order("sale_date DESC").Order("id DESC").
		Offset(q.Offset).Limit(q.Limit).
		Find(&sales).Error
	return sales, total, translate(err)
}

func (r *saleRepo) ListSoldDucks(ctx context.Context, q SaleSearch) ([]model.SoldDuck, int64, error) {
	var rows []model.SoldDuck
	var total int64

	tx := applyDateBounds(r.db.WithContext(ctx).Model(&model.SoldDuck{}), "sale_date", q)
	if err := tx.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	err := tx.Order("sale_date DESC").Order("duck_id DESC").
		Offset(q.Offset).Limit(q.Limit).
		Find(&rows).Error
	return rows, total, translate(err)
}

func (r *saleRepo) AllSoldDucks(ctx context.Context) ([]model.SoldDuck, error) {
	var rows []model.SoldDuck
	err := r.db.WithContext(ctx).Order("duck_id").Find(&rows).Error
	return rows, translate(err)
}

func (r *saleRepo) exists(ctx context.Context, m any, column string, id int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(m).Where(column+" = ?", id).Limit(1).Count(&n).Error
	return n > 0, translate(err)
}

func (r *saleRepo) ExistsByEmployee(ctx context.Context, employeeID int64) (bool, error) {
	return r.exists(ctx, &model.Sale{}, "employee_id", employeeID)
}

func (r *saleRepo) ExistsByCustomer(ctx context.Context, customerID int64) (bool, error) {
	return r.exists(ctx, &model.Sale{}, "customer_id", customerID)
}

func (r *saleRepo) ExistsByDuck(ctx context.Context, duckID int64) (bool, error) {
	return r.exists(ctx, &model.SaleItem{}, "duck_id", duckID)
}
