package repository

import (
	"context"
	"strings"

	"github.com/FMABr/ducks-demo/internal/model"

	"gorm.io/gorm"
)

// DuckSearch narrows GET /v1/ducks. Empty Name and nil MotherID mean "any".
type DuckSearch struct {
	Name     string
	MotherID *int64
	Offset   int
	Limit    int
}

// DuckRepository defines the data access contract for ducks.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type DuckRepository interface {
	DB() *gorm.DB
	Create(ctx context.Context, d *model.Duck) error
	// Update writes d through tx when tx is non-nil.
	Update(ctx context.Context, tx *gorm.DB, d *model.Duck) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*model.Duck, error)

	// Read projections carrying the live direct-child count.
	FindWithChildCount(ctx context.Context, id int64) (*model.DuckWithChildren, error)
	// FindWithChildCounts returns the subset of ids that exist, in one query.
	FindWithChildCounts(ctx context.Context, ids []int64) ([]model.DuckWithChildren, error)
	ListWithChildCounts(ctx context.Context) ([]model.DuckWithChildren, error)
	Search(ctx context.Context, q DuckSearch) ([]model.DuckWithChildren, int64, error)

	ChildCount(ctx context.Context, id int64) (int64, error)
	// MotherIDOf returns the mother reference of id (nil for a root), read
	// through tx when tx is non-nil.
	MotherIDOf(ctx context.Context, tx *gorm.DB, id int64) (*int64, error)
	// LockHierarchy serializes mother changes until tx ends.
	LockHierarchy(ctx context.Context, tx *gorm.DB) error
}

// duckHierarchyLockKey is the pg_advisory_xact_lock key held while a duck's
// mother is checked and rewritten.
const duckHierarchyLockKey int64 = 0x6475636b // "duck"


type duckRepo struct{ db *gorm.DB }

func NewDuckRepository(db *gorm.DB) DuckRepository { return &duckRepo{db: db} }

func (r *duckRepo) DB() *gorm.DB { return r.db }

func (r *duckRepo) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

const duckWithChildrenColumns = `d.id, d.name, d.mother_id, d.created_at, d.updated_at,
	(SELECT COUNT(*) FROM ducks c WHERE c.mother_id = d.id) AS child_count`

func (r *duckRepo) withChildren(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table("ducks AS d").Select(duckWithChildrenColumns)
}

func (r *duckRepo) Create(ctx context.Context, d *model.Duck) error {
	return translate(r.db.WithContext(ctx).Omit("Mother").Create(d).Error)
}

func (r *duckRepo) Update(ctx context.Context, tx *gorm.DB, d *model.Duck) error {
	return translate(r.conn(ctx, tx).Omit("Mother").Save(d).Error)
}

func (r *duckRepo) LockHierarchy(ctx context.Context, tx *gorm.DB) error {
	if tx == nil {
		return nil
	}
	return translate(tx.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(?)", duckHierarchyLockKey).Error)
}

func (r *duckRepo) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Duck{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *duckRepo) FindByID(ctx context.Context, id int64) (*model.Duck, error) {
	var d model.Duck
	if err := r.db.WithContext(ctx).First(&d, id).Error; err != nil {
		return nil, translate(err)
	}
	return &d, nil
}

func (r *duckRepo) FindWithChildCount(ctx context.Context, id int64) (*model.DuckWithChildren, error) {
	var rows []model.DuckWithChildren
	if err := r.withChildren(ctx).Where("d.id = ?", id).Scan(&rows).Error; err != nil {
		return nil, translate(err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

func (r *duckRepo) FindWithChildCounts(ctx context.Context, ids []int64) ([]model.DuckWithChildren, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []model.DuckWithChildren
	err := r.withChildren(ctx).Where("d.id IN ?", ids).Order("d.id").Scan(&rows).Error
	return rows, translate(err)
}

func (r *duckRepo) ListWithChildCounts(ctx context.Context) ([]model.DuckWithChildren, error) {
	var rows []model.DuckWithChildren
	err := r.withChildren(ctx).Order("d.id").Scan(&rows).Error
	return rows, translate(err)
}

func (r *duckRepo) Search(ctx context.Context, q DuckSearch) ([]model.DuckWithChildren, int64, error) {
	base := r.db.WithContext(ctx).Table("ducks AS d")
	if name := strings.TrimSpace(q.Name); name != "" {
		base = base.Where("LOWER(d.name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if q.MotherID != nil {
		base = base.Where("d.mother_id = ?", *q.MotherID)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var rows []model.DuckWithChildren
	err := base.Select(duckWithChildrenColumns).
		Order("d.id").
		Offset(q.Offset).Limit(q.Limit).
		Scan(&rows).Error
	return rows, total, translate(err)
}

func (r *duckRepo) ChildCount(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Duck{}).Where("mother_id = ?", id).Count(&n).Error
	return n, translate(err)
}

func (r *duckRepo) MotherIDOf(ctx context.Context, tx *gorm.DB, id int64) (*int64, error) {
	var d model.Duck
	if err := r.conn(ctx, tx).Select("id", "mother_id").First(&d, id).Error; err != nil {
		return nil, translate(err)
	}
	return d.MotherID, nil
}
