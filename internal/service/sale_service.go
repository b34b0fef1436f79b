package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/FMABr/ducks-demo/internal/apierror"
	"github.com/FMABr/ducks-demo/internal/dates"
	"github.com/FMABr/ducks-demo/internal/dto"
	"github.com/FMABr/ducks-demo/internal/model"
	"github.com/FMABr/ducks-demo/internal/pricing"
	"github.com/FMABr/ducks-demo/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleService interface {
	CreateSale(ctx context.Context, req dto.CreateSaleRequest) (*dto.SaleResponse, error)
	GetSale(ctx context.Context, id int64) (*dto.SaleResponse, error)
	ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
}

// ReceiptDispatcher queues receipt generation for a committed sale.
type ReceiptDispatcher interface {
	EnqueueReceipt(ctx context.Context, saleID int64) error
}

// RankingInvalidator drops cached rankings after a sale changes the numbers.
type RankingInvalidator interface {
	Invalidate(ctx context.Context) error
}

type saleService struct {
	sales      repository.SaleRepository
	ducks      repository.DuckRepository
	customers  repository.CustomerRepository
	employees  repository.EmployeeRepository
	dispatcher ReceiptDispatcher  // nil disables receipts
	rankings   RankingInvalidator // nil disables cache invalidation
	now        func() time.Time
}

// SaleOption customises a SaleService.
type SaleOption func(*saleService)

func WithReceiptDispatcher(d ReceiptDispatcher) SaleOption {
	return func(s *saleService) { s.dispatcher = d }
}

func WithRankingInvalidator(r RankingInvalidator) SaleOption {
	return func(s *saleService) { s.rankings = r }
}

// WithClock overrides the clock used for the default sale date.
func WithClock(now func() time.Time) SaleOption {
	return func(s *saleService) { s.now = now }
}

func NewSaleService(
	sales repository.SaleRepository,
	ducks repository.DuckRepository,
	customers repository.CustomerRepository,
	employees repository.EmployeeRepository,
	opts ...SaleOption,
) SaleService {
	s := &saleService{
		sales:     sales,
		ducks:     ducks,
		customers: customers,
		employees: employees,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ── CreateSale ────────────────────────────────────────────────────────────────
// Pre-flight checks run outside the transaction and may race with other sales;
// uq_sale_items_duck decides at commit:
//   1. resolve customer and employee
//   2. de-duplicate duck ids, keeping first occurrence
//   3. resolve every duck with its child count in one read
//   4. reject ducks that already have a sale item
//   5. price each duck once, apply the loyalty factor per line
//   6. BEGIN TX: insert sale, insert items. COMMIT
//   7. (best effort) invalidate rankings, queue the receipt

func (s *saleService) CreateSale(ctx context.Context, req dto.CreateSaleRequest) (*dto.SaleResponse, error) {
	customer, err := s.customers.FindByID(ctx, req.CustomerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, customerNotFound(req.CustomerID)
	}
	if err != nil {
		return nil, fmt.Errorf("load customer %d: %w", req.CustomerID, err)
	}
	employee, err := s.employees.FindByID(ctx, req.EmployeeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, employeeNotFound(req.EmployeeID)
	}
	if err != nil {
		return nil, fmt.Errorf("load employee %d: %w", req.EmployeeID, err)
	}

	ids := dedupeIDs(req.DuckIDs)
	if len(ids) == 0 {
		return nil, apierror.Validation("a sale needs at least one duck")
	}

	rows, err := s.ducks.FindWithChildCounts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load ducks: %w", err)
	}
	byID := make(map[int64]model.DuckWithChildren, len(rows))
	for _, d := range rows {
		byID[d.ID] = d
	}
	var missing []int64
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, apierror.Validation("ducks not found").WithIDs(missing...)
	}

	sold, err := s.sales.FindSoldDuckIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("check sold ducks: %w", err)
	}
	if len(sold) > 0 {
		return nil, apierror.Conflict("ducks already sold").WithIDs(sold...)
	}

	factor := pricing.DiscountFactor(customer.HasSalesDiscount)
	before, after := decimal.Zero, decimal.Zero
	items := make([]model.SaleItem, 0, len(ids))
	for _, id := range ids {
		price := pricing.Price(byID[id].ChildCount)
		line := pricing.Discounted(price, factor)
		before = before.Add(price)
		after = after.Add(line)
		items = append(items, model.SaleItem{DuckID: id, PriceAtSale: line})
	}

	saleDate := s.now().UTC()
	if req.SaleDate != nil {
		saleDate = req.SaleDate.UTC()
	}
	sale := model.Sale{
		CustomerID:          customer.ID,
		EmployeeID:          employee.ID,
		SaleDate:            saleDate,
		TotalBeforeDiscount: before,
		TotalAfterDiscount:  after,
		Items:               items,
	}

	txErr := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		return s.sales.Create(ctx, tx, &sale)
	})
	if txErr != nil {
		return nil, s.commitError(ctx, ids, txErr)
	}

	s.afterCommit(ctx, sale.ID)

	for i := range sale.Items {
		d := byID[sale.Items[i].DuckID]
		sale.Items[i].Duck = &model.Duck{ID: d.ID, Name: d.Name, MotherID: d.MotherID}
	}
	return saleToResponse(&sale), nil
}

// commitError turns a failed insert into a domain error. A unique violation
// means another sale took some of the ducks after the pre-check.
func (s *saleService) commitError(ctx context.Context, ids []int64, err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		conflict := apierror.Conflict("ducks already sold").Wrap(err)
		if sold, rerr := s.sales.FindSoldDuckIDs(ctx, ids); rerr == nil {
			conflict.WithIDs(sold...)
		}
		return conflict
	case errors.Is(err, repository.ErrInUse):
		return apierror.Conflict("a duck, customer or employee of this sale was removed concurrently").Wrap(err)
	}
	return fmt.Errorf("persist sale: %w", err)
}

func (s *saleService) afterCommit(ctx context.Context, saleID int64) {
	if s.rankings != nil {
		if err := s.rankings.Invalidate(ctx); err != nil {
			log.Warn().Err(err).Int64("sale_id", saleID).Msg("ranking cache invalidation failed")
		}
	}
	if s.dispatcher != nil {
		if err := s.dispatcher.EnqueueReceipt(ctx, saleID); err != nil {
			log.Warn().Err(err).Int64("sale_id", saleID).Msg("receipt job not queued")
		}
	}
}

func (s *saleService) GetSale(ctx context.Context, id int64) (*dto.SaleResponse, error) {
	sale, err := s.sales.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apierror.NotFound("sale %d not found", id).WithIDs(id)
	}
	if err != nil {
		return nil, fmt.Errorf("load sale %d: %w", id, err)
	}
	return saleToResponse(sale), nil
}

// ListSales returns sales newest first.
func (s *saleService) ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	r, err := dates.ParseRange(filter.From, filter.To)
	if err != nil {
		return nil, err
	}
	page, limit, offset := pageWindow(filter.Page, filter.Limit)

	sales, total, err := s.sales.List(ctx, repository.SaleSearch{
		From:        r.From,
		ToExclusive: r.ToExclusive,
		CustomerID:  filter.CustomerID,
		EmployeeID:  filter.EmployeeID,
		Offset:      offset,
		Limit:       limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	data := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		data = append(data, *saleToResponse(&sales[i]))
	}
	return &dto.SaleListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

// dedupeIDs keeps the first occurrence of every id, in order.
func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
