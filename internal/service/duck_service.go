package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/FMABr/ducks-demo/internal/apierror"
	"github.com/FMABr/ducks-demo/internal/dates"
	"github.com/FMABr/ducks-demo/internal/dto"
	"github.com/FMABr/ducks-demo/internal/model"
	"github.com/FMABr/ducks-demo/internal/pricing"
	"github.com/FMABr/ducks-demo/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DuckService manages the duck inventory. Prices are derived on every read.
type DuckService interface {
	Create(ctx context.Context, req dto.DuckUpsertRequest) (*dto.DuckResponse, error)
	Get(ctx context.Context, id int64) (*dto.DuckResponse, error)
	Replace(ctx context.Context, id int64, req dto.DuckUpsertRequest) (*dto.DuckResponse, error)
	Patch(ctx context.Context, id int64, req dto.DuckPatchRequest) (*dto.DuckResponse, error)
	Delete(ctx context.Context, id int64) error
	SetMother(ctx context.Context, duckID int64, motherID *int64) (*dto.DuckResponse, error)
	PriceOf(ctx context.Context, id int64) (decimal.Decimal, error)
	ChildCountOf(ctx context.Context, id int64) (int64, error)
	List(ctx context.Context, filter dto.DuckFilter) (*dto.DuckListResponse, error)
	ListSold(ctx context.Context, filter dto.SoldDuckFilter) (*dto.SoldDuckListResponse, error)
}

type duckService struct {
	ducks repository.DuckRepository
	sales repository.SaleRepository
}

func NewDuckService(ducks repository.DuckRepository, sales repository.SaleRepository) DuckService {
	return &duckService{ducks: ducks, sales: sales}
}

func duckNotFound(id int64) *apierror.Error {
	return apierror.NotFound("duck %d not found", id).WithIDs(id)
}

func (s *duckService) Create(ctx context.Context, req dto.DuckUpsertRequest) (*dto.DuckResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apierror.Validation("name must not be blank")
	}
	if err := s.checkMother(ctx, nil, 0, req.MotherID); err != nil {
		return nil, err
	}

	d := &model.Duck{Name: name, MotherID: req.MotherID}
	if err := s.ducks.Create(ctx, d); err != nil {
		return nil, s.createError(err, req.MotherID)
	}
	return s.Get(ctx, d.ID)
}

func (s *duckService) Get(ctx context.Context, id int64) (*dto.DuckResponse, error) {
	d, err := s.ducks.FindWithChildCount(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, duckNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("load duck %d: %w", id, err)
	}
	return duckToResponse(d), nil
}

func (s *duckService) Replace(ctx context.Context, id int64, req dto.DuckUpsertRequest) (*dto.DuckResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apierror.Validation("name must not be blank")
	}
	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	d.Name = name
	d.MotherID = req.MotherID
	if err := s.save(ctx, d, true); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Patch applies only the present fields. A null mother_id leaves the mother unchanged.
func (s *duckService) Patch(ctx context.Context, id int64, req dto.DuckPatchRequest) (*dto.DuckResponse, error) {
	d, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apierror.Validation("name must not be blank")
		}
		d.Name = name
	}
	if req.MotherID != nil {
		d.MotherID = req.MotherID
	}

	if err := s.save(ctx, d, req.MotherID != nil); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete refuses to remove a duck that was sold or still has ducklings.
func (s *duckService) Delete(ctx context.Context, id int64) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}

	sold, err := s.sales.ExistsByDuck(ctx, id)
	if err != nil {
		return fmt.Errorf("check duck %d sales: %w", id, err)
	}
	if sold {
		return apierror.Conflict("duck %d was sold and cannot be deleted", id).WithIDs(id)
	}
	children, err := s.ducks.ChildCount(ctx, id)
	if err != nil {
		return fmt.Errorf("count ducklings of %d: %w", id, err)
	}
	if children > 0 {
		return apierror.Conflict("duck %d still has %d ducklings", id, children).WithIDs(id)
	}

	err = s.ducks.Delete(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return duckNotFound(id)
	case errors.Is(err, repository.ErrInUse):
		return apierror.Conflict("duck %d is still referenced", id).WithIDs(id).Wrap(err)
	case err != nil:
		return fmt.Errorf("delete duck %d: %w", id, err)
	}
	return nil
}

// SetMother re-parents a duck (nil clears the mother) and returns it with its
// price recomputed.
func (s *duckService) SetMother(ctx context.Context, duckID int64, motherID *int64) (*dto.DuckResponse, error) {
	d, err := s.load(ctx, duckID)
	if err != nil {
		return nil, err
	}

	d.MotherID = motherID
	if err := s.save(ctx, d, true); err != nil {
		return nil, err
	}
	return s.Get(ctx, duckID)
}

func (s *duckService) PriceOf(ctx context.Context, id int64) (decimal.Decimal, error) {
	n, err := s.ChildCountOf(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return pricing.Price(n), nil
}

func (s *duckService) ChildCountOf(ctx context.Context, id int64) (int64, error) {
	d, err := s.ducks.FindWithChildCount(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, duckNotFound(id)
	}
	if err != nil {
		return 0, fmt.Errorf("load duck %d: %w", id, err)
	}
	return d.ChildCount, nil
}

func (s *duckService) List(ctx context.Context, filter dto.DuckFilter) (*dto.DuckListResponse, error) {
	page, limit, offset := pageWindow(filter.Page, filter.Limit)
	rows, total, err := s.ducks.Search(ctx, repository.DuckSearch{
		Name:     filter.Name,
		MotherID: filter.MotherID,
		Offset:   offset,
		Limit:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("search ducks: %w", err)
	}

	data := make([]dto.DuckResponse, 0, len(rows))
	for i := range rows {
		data = append(data, *duckToResponse(&rows[i]))
	}
	return &dto.DuckListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

func (s *duckService) ListSold(ctx context.Context, filter dto.SoldDuckFilter) (*dto.SoldDuckListResponse, error) {
	r, err := dates.ParseRange(filter.From, filter.To)
	if err != nil {
		return nil, err
	}
	page, limit, offset := pageWindow(filter.Page, filter.Limit)

	rows, total, err := s.sales.ListSoldDucks(ctx, repository.SaleSearch{
		From:        r.From,
		ToExclusive: r.ToExclusive,
		Offset:      offset,
		Limit:       limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list sold ducks: %w", err)
	}

	data := make([]dto.SoldDuckResponse, 0, len(rows))
	for _, row := range rows {
		data = append(data, dto.SoldDuckResponse{
			DuckID:       row.DuckID,
			DuckName:     row.DuckName,
			CustomerName: row.CustomerName,
			SaleDate:     row.SaleDate,
			PriceAtSale:  row.PriceAtSale,
		})
	}
	return &dto.SoldDuckListResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

func (s *duckService) load(ctx context.Context, id int64) (*model.Duck, error) {
	d, err := s.ducks.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, duckNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("load duck %d: %w", id, err)
	}
	return d, nil
}

// save writes d inside one transaction holding the hierarchy lock. When
// motherChanged, the new mother is checked against the lineage read in that
// transaction; otherwise the stored mother is kept as it is now, so a stale
// copy of d never reverts a concurrent re-parent.
func (s *duckService) save(ctx context.Context, d *model.Duck, motherChanged bool) error {
	return runTx(ctx, s.ducks.DB(), func(tx *gorm.DB) error {
		if err := s.ducks.LockHierarchy(ctx, tx); err != nil {
			return fmt.Errorf("lock duck hierarchy: %w", err)
		}
		if motherChanged {
			if err := s.checkMother(ctx, tx, d.ID, d.MotherID); err != nil {
				return err
			}
		} else {
			current, err := s.ducks.MotherIDOf(ctx, tx, d.ID)
			if errors.Is(err, repository.ErrNotFound) {
				return duckNotFound(d.ID)
			}
			if err != nil {
				return fmt.Errorf("load duck %d: %w", d.ID, err)
			}
			d.MotherID = current
		}
		if err := s.ducks.Update(ctx, tx, d); err != nil {
			return s.writeError(err, d.ID)
		}
		return nil
	})
}

// checkMother validates assigning motherID to duckID (0 for a duck not yet
// stored): the mother must exist, must not be the duck itself and must not be
// one of its descendants. Reads go through tx when it is non-nil.
func (s *duckService) checkMother(ctx context.Context, tx *gorm.DB, duckID int64, motherID *int64) error {
	if motherID == nil {
		return nil
	}
	if duckID != 0 && *motherID == duckID {
		return apierror.Validation("duck %d cannot be its own mother", duckID).WithIDs(duckID)
	}

	next, err := s.ducks.MotherIDOf(ctx, tx, *motherID)
	if errors.Is(err, repository.ErrNotFound) {
		return apierror.Validation("mother duck %d not found", *motherID).WithIDs(*motherID)
	}
	if err != nil {
		return fmt.Errorf("load mother %d: %w", *motherID, err)
	}
	if duckID == 0 {
		return nil
	}

	seen := map[int64]bool{*motherID: true}
	for next != nil {
		if *next == duckID {
			return apierror.Validation("duck %d cannot descend from itself through mother %d", duckID, *motherID).
				WithIDs(duckID, *motherID)
		}
		if seen[*next] {
			break
		}
		seen[*next] = true

		next, err = s.ducks.MotherIDOf(ctx, tx, *next)
		if errors.Is(err, repository.ErrNotFound) {
			break
		}
		if err != nil {
			return fmt.Errorf("walk ancestors of %d: %w", *motherID, err)
		}
	}
	return nil
}

// createError maps store failures on duck inserts.
func (s *duckService) createError(err error, motherID *int64) error {
	if motherID != nil && (errors.Is(err, repository.ErrInUse) || errors.Is(err, repository.ErrCheck)) {
		return apierror.Validation("mother duck %d not found", *motherID).WithIDs(*motherID).Wrap(err)
	}
	return fmt.Errorf("create duck: %w", err)
}

// writeError maps store failures on duck updates.
func (s *duckService) writeError(err error, id int64) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return duckNotFound(id)
	case errors.Is(err, repository.ErrCheck):
		return apierror.Validation("duck %d cannot be its own mother", id).WithIDs(id).Wrap(err)
	case errors.Is(err, repository.ErrInUse):
		return apierror.Validation("mother duck not found").Wrap(err)
	}
	return fmt.Errorf("save duck: %w", err)
}
