package repository

import (
	"context"
	"time"

	"github.com/FMABr/ducks-demo/internal/model"

	"gorm.io/gorm"
)

// RankingRepository aggregates completed sales per employee.
type RankingRepository interface {
	// AggregateByEmployee returns one row per employee with at least one sale
	// whose sale_date lies in [from, toExclusive). Order is unspecified.
	AggregateByEmployee(ctx context.Context, from, toExclusive time.Time) ([]model.EmployeeSales, error)
}

type rankingRepo struct{ db *gorm.DB }

func NewRankingRepository(db *gorm.DB) RankingRepository { return &rankingRepo{db: db} }

func (r *rankingRepo) AggregateByEmployee(ctx context.Context, from, toExclusive time.Time) ([]model.EmployeeSales, error) {
	var rows []model.EmployeeSales
	err := r.db.WithContext(ctx).
		Table("sales AS s").
		Select(`e.id AS employee_id, e.name AS employee_name,
			COUNT(s.id) AS sale_count,
			COALESCE(SUM(s.total_after_discount), 0) AS revenue`).
		Joins("JOIN employees e ON e.id = s.employee_id").
		Where("s.sale_date >= ? AND s.sale_date < ?", from, toExclusive).
		Group("e.id, e.name").
		Scan(&rows).Error
	return rows, translate(err)
}
