package service_test

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/FMABr/ducks-demo/internal/dto"
	"github.com/FMABr/ducks-demo/internal/model"
	"github.com/FMABr/ducks-demo/internal/repository"

	"gorm.io/gorm"
)

// ── Ducks ─────────────────────────────────────────────────────────────────────

type stubDuckRepo struct {
	mu     sync.Mutex
	ducks  map[int64]*model.Duck
	nextID int64
	// events records hierarchy locking, lineage reads and updates in order.
	events []string
	// createErr, when set, fails the next Create.
	createErr error
}

func newStubDuckRepo() *stubDuckRepo {
	return &stubDuckRepo{ducks: make(map[int64]*model.Duck)}
}

// add stores a duck directly and returns its id.
func (r *stubDuckRepo) add(name string, mother *int64) int64 {
	d := &model.Duck{Name: name, MotherID: mother}
	_ = r.Create(context.Background(), d)
	return d.ID
}

func (r *stubDuckRepo) childCount(id int64) int64 {
	var n int64
	for _, d := range r.ducks {
		if d.MotherID != nil && *d.MotherID == id {
			n++
		}
	}
	return n
}

func (r *stubDuckRepo) project(d *model.Duck) model.DuckWithChildren {
	return model.DuckWithChildren{
		ID: d.ID, Name: d.Name, MotherID: d.MotherID, ChildCount: r.childCount(d.ID),
		CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

func (r *stubDuckRepo) Create(_ context.Context, d *model.Duck) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.createErr; err != nil {
		r.createErr = nil
		return err
	}
	r.nextID++
	d.ID = r.nextID
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	cp := *d
	r.ducks[d.ID] = &cp
	return nil
}

func (r *stubDuckRepo) DB() *gorm.DB { return nil }

func (r *stubDuckRepo) LockHierarchy(_ context.Context, _ *gorm.DB) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "lock")
	return nil
}

func (r *stubDuckRepo) Update(_ context.Context, _ *gorm.DB, d *model.Duck) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "update")
	if _, ok := r.ducks[d.ID]; !ok {
		return repository.ErrNotFound
	}
	if d.MotherID != nil && *d.MotherID == d.ID {
		return repository.ErrCheck
	}
	cp := *d
	r.ducks[d.ID] = &cp
	return nil
}

func (r *stubDuckRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ducks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.ducks, id)
	return nil
}

func (r *stubDuckRepo) FindByID(_ context.Context, id int64) (*model.Duck, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.ducks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *stubDuckRepo) FindWithChildCount(_ context.Context, id int64) (*model.DuckWithChildren, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.ducks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p := r.project(d)
	return &p, nil
}

func (r *stubDuckRepo) FindWithChildCounts(_ context.Context, ids []int64) ([]model.DuckWithChildren, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.DuckWithChildren
	for _, id := range ids {
		if d, ok := r.ducks[id]; ok {
			out = append(out, r.project(d))
		}
	}
	return out, nil
}

func (r *stubDuckRepo) ListWithChildCounts(_ context.Context) ([]model.DuckWithChildren, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.DuckWithChildren, 0, len(r.ducks))
	for _, d := range r.ducks {
		out = append(out, r.project(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubDuckRepo) Search(ctx context.Context, q repository.DuckSearch) ([]model.DuckWithChildren, int64, error) {
	all, _ := r.ListWithChildCounts(ctx)
	var hits []model.DuckWithChildren
	for _, d := range all {
		if q.Name != "" && !strings.Contains(strings.ToLower(d.Name), strings.ToLower(q.Name)) {
			continue
		}
		if q.MotherID != nil && (d.MotherID == nil || *d.MotherID != *q.MotherID) {
			continue
		}
		hits = append(hits, d)
	}
	return window(hits, q.Offset, q.Limit), int64(len(hits)), nil
}

func (r *stubDuckRepo) ChildCount(_ context.Context, id int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.childCount(id), nil
}

func (r *stubDuckRepo) MotherIDOf(_ context.Context, _ *gorm.DB, id int64) (*int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf("mother:%d", id))
	d, ok := r.ducks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return d.MotherID, nil
}

var _ repository.DuckRepository = (*stubDuckRepo)(nil)

// ── Customers ─────────────────────────────────────────────────────────────────

type stubCustomerRepo struct {
	mu        sync.Mutex
	customers map[int64]*model.Customer
	nextID    int64
}

func newStubCustomerRepo() *stubCustomerRepo {
	return &stubCustomerRepo{customers: make(map[int64]*model.Customer)}
}

func (r *stubCustomerRepo) add(name string, discount bool) int64 {
	c := &model.Customer{Name: name, HasSalesDiscount: discount}
	_ = r.Create(context.Background(), c)
	return c.ID
}

func (r *stubCustomerRepo) Create(_ context.Context, c *model.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = r.nextID
	cp := *c
	r.customers[c.ID] = &cp
	return nil
}

func (r *stubCustomerRepo) Update(_ context.Context, c *model.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.customers[c.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *c
	r.customers[c.ID] = &cp
	return nil
}

func (r *stubCustomerRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.customers[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.customers, id)
	return nil
}

func (r *stubCustomerRepo) FindByID(_ context.Context, id int64) (*model.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubCustomerRepo) Search(_ context.Context, q repository.CustomerSearch) ([]model.Customer, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var hits []model.Customer
	for _, c := range r.customers {
		if q.Name != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(q.Name)) {
			continue
		}
		if q.SalesDiscount != nil && c.HasSalesDiscount != *q.SalesDiscount {
			continue
		}
		hits = append(hits, *c)
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].ID < hits[j].ID })
	return window(hits, q.Offset, q.Limit), int64(len(hits)), nil
}

var _ repository.CustomerRepository = (*stubCustomerRepo)(nil)

// ── Employees ─────────────────────────────────────────────────────────────────

type stubEmployeeRepo struct {
	mu        sync.Mutex
	employees map[int64]*model.Employee
	nextID    int64
}

func newStubEmployeeRepo() *stubEmployeeRepo {
	return &stubEmployeeRepo{employees: make(map[int64]*model.Employee)}
}

func (r *stubEmployeeRepo) add(name, fiscal, code string) int64 {
	e := &model.Employee{Name: name, FiscalCode: fiscal, EmployeeCode: code}
	_ = r.Create(context.Background(), e)
	return e.ID
}

func (r *stubEmployeeRepo) clashes(e *model.Employee) bool {
	for _, other := range r.employees {
		if other.ID != e.ID && (other.FiscalCode == e.FiscalCode || other.EmployeeCode == e.EmployeeCode) {
			return true
		}
	}
	return false
}

func (r *stubEmployeeRepo) Create(_ context.Context, e *model.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clashes(e) {
		return repository.ErrDuplicate
	}
	r.nextID++
	e.ID = r.nextID
	cp := *e
	r.employees[e.ID] = &cp
	return nil
}

func (r *stubEmployeeRepo) Update(_ context.Context, e *model.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.employees[e.ID]; !ok {
		return repository.ErrNotFound
	}
	if r.clashes(e) {
		return repository.ErrDuplicate
	}
	cp := *e
	r.employees[e.ID] = &cp
	return nil
}

func (r *stubEmployeeRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.employees[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.employees, id)
	return nil
}

func (r *stubEmployeeRepo) FindByID(_ context.Context, id int64) (*model.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.employees[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *stubEmployeeRepo) Search(_ context.Context, q repository.EmployeeSearch) ([]model.Employee, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var hits []model.Employee
	for _, e := range r.employees {
		if q.FiscalCode != "" && e.FiscalCode != q.FiscalCode {
			continue
		}
		if q.EmployeeCode != "" && e.EmployeeCode != q.EmployeeCode {
			continue
		}
		if q.Name != "" && !strings.Contains(strings.ToLower(e.Name), strings.ToLower(q.Name)) {
			continue
		}
		hits = append(hits, *e)
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].ID < hits[j].ID })
	return window(hits, q.Offset, q.Limit), int64(len(hits)), nil
}

var _ repository.EmployeeRepository = (*stubEmployeeRepo)(nil)

// ── Sales ─────────────────────────────────────────────────────────────────────

// stubSaleRepo enforces one sale item per duck the way uq_sale_items_duck does.
type stubSaleRepo struct {
	mu        sync.Mutex
	sales     map[int64]*model.Sale
	soldIn    map[int64]int64 // duck id -> sale id
	nextID    int64
	customers *stubCustomerRepo
	ducks     *stubDuckRepo

	// beforeCreate runs ahead of the uniqueness check, outside the lock.
	beforeCreate func()
}

func newStubSaleRepo(customers *stubCustomerRepo, ducks *stubDuckRepo) *stubSaleRepo {
	return &stubSaleRepo{
		sales:     make(map[int64]*model.Sale),
		soldIn:    make(map[int64]int64),
		customers: customers,
		ducks:     ducks,
	}
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

func (r *stubSaleRepo) Create(_ context.Context, _ *gorm.DB, s *model.Sale) error {
	if hook := r.beforeCreate; hook != nil {
		r.beforeCreate = nil
		hook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range s.Items {
		if _, taken := r.soldIn[it.DuckID]; taken {
			return fmt.Errorf("%w: uq_sale_items_duck", repository.ErrDuplicate)
		}
	}
	r.nextID++
	s.ID = r.nextID
	for i := range s.Items {
		s.Items[i].ID = int64(i + 1)
		s.Items[i].SaleID = s.ID
		r.soldIn[s.Items[i].DuckID] = s.ID
	}
	cp := *s
	cp.Items = append([]model.SaleItem(nil), s.Items...)
	r.sales[s.ID] = &cp
	return nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, id int64) (*model.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sales[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *stubSaleRepo) FindSoldDuckIDs(_ context.Context, ids []int64) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sold []int64
	for _, id := range ids {
		if _, ok := r.soldIn[id]; ok {
			sold = append(sold, id)
		}
	}
	sort.Slice(sold, func(i, j int) bool { return sold[i] < sold[j] })
	return sold, nil
}

func (r *stubSaleRepo) inRange(t time.Time, q repository.SaleSearch) bool {
	if q.From != nil && t.Before(*q.From) {
		return false
	}
	if q.ToExclusive != nil && !t.Before(*q.ToExclusive) {
		return false
	}
	return true
}

func (r *stubSaleRepo) List(_ context.Context, q repository.SaleSearch) ([]model.Sale, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var hits []model.Sale
	for _, s := range r.sales {
		if !r.inRange(s.SaleDate, q) {
			continue
		}
		if q.CustomerID != nil && s.CustomerID != *q.CustomerID {
			continue
		}
		if q.EmployeeID != nil && s.EmployeeID != *q.EmployeeID {
			continue
		}
		hits = append(hits, *s)
	}
	sort.Slice(hits, func(i, j int) bool {
		if !hits[i].SaleDate.Equal(hits[j].SaleDate) {
			return hits[i].SaleDate.After(hits[j].SaleDate)
		}
		return hits[i].ID > hits[j].ID
	})
	return window(hits, q.Offset, q.Limit), int64(len(hits)), nil
}

func (r *stubSaleRepo) soldRows() []model.SoldDuck {
	var rows []model.SoldDuck
	for _, s := range r.sales {
		name := ""
		if c, err := r.customers.FindByID(context.Background(), s.CustomerID); err == nil {
			name = c.Name
		}
		for _, it := range s.Items {
			row := model.SoldDuck{
				DuckID: it.DuckID, PriceAtSale: it.PriceAtSale, SaleID: s.ID, SaleDate: s.SaleDate,
				CustomerID: s.CustomerID, CustomerName: name, EmployeeID: s.EmployeeID,
			}
			if d, err := r.ducks.FindByID(context.Background(), it.DuckID); err == nil {
				row.DuckName = d.Name
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func (r *stubSaleRepo) ListSoldDucks(_ context.Context, q repository.SaleSearch) ([]model.SoldDuck, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var hits []model.SoldDuck
	for _, row := range r.soldRows() {
		if r.inRange(row.SaleDate, q) {
			hits = append(hits, row)
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if !hits[i].SaleDate.Equal(hits[j].SaleDate) {
			return hits[i].SaleDate.After(hits[j].SaleDate)
		}
		return hits[i].DuckID > hits[j].DuckID
	})
	return window(hits, q.Offset, q.Limit), int64(len(hits)), nil
}

func (r *stubSaleRepo) AllSoldDucks(_ context.Context) ([]model.SoldDuck, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.soldRows(), nil
}

func (r *stubSaleRepo) ExistsByEmployee(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sales {
		if s.EmployeeID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubSaleRepo) ExistsByCustomer(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sales {
		if s.CustomerID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubSaleRepo) ExistsByDuck(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.soldIn[id]
	return ok, nil
}

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

// ── Rankings ──────────────────────────────────────────────────────────────────

type stubRankingRepo struct {
	rows  []model.EmployeeSales
	calls int
	from  time.Time
	to    time.Time
}

func (r *stubRankingRepo) AggregateByEmployee(_ context.Context, from, to time.Time) ([]model.EmployeeSales, error) {
	r.calls++
	r.from, r.to = from, to
	return append([]model.EmployeeSales(nil), r.rows...), nil
}

var _ repository.RankingRepository = (*stubRankingRepo)(nil)

// memoryRankingCache mirrors the generation scheme of the Redis cache.
type memoryRankingCache struct {
	mu      sync.Mutex
	gen     int
	entries map[string][]dto.EmployeeRankingItem
}

func newMemoryRankingCache() *memoryRankingCache {
	return &memoryRankingCache{entries: make(map[string][]dto.EmployeeRankingItem)}
}

func (c *memoryRankingCache) Key(_ context.Context, mode string, from, to time.Time, limit int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("%d:%s:%d:%d:%d", c.gen, mode, from.Unix(), to.Unix(), limit), nil
}

func (c *memoryRankingCache) Get(_ context.Context, key string) ([]dto.EmployeeRankingItem, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, ok := c.entries[key]
	return items, ok, nil
}

func (c *memoryRankingCache) Set(_ context.Context, key string, items []dto.EmployeeRankingItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = items
	return nil
}

func (c *memoryRankingCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	return nil
}

// recordingDispatcher collects queued receipt jobs.
type recordingDispatcher struct {
	mu    sync.Mutex
	sales []int64
}

func (d *recordingDispatcher) EnqueueReceipt(_ context.Context, saleID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sales = append(d.sales, saleID)
	return nil
}

func window[T any](rows []T, offset, limit int) []T {
	if offset >= len(rows) {
		return nil
	}
	end := len(rows)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return rows[offset:end]
}
