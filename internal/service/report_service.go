package service

import (
	"context"
	"fmt"

	"github.com/FMABr/ducks-demo/internal/infra"
	"github.com/FMABr/ducks-demo/internal/model"
	"github.com/FMABr/ducks-demo/internal/pricing"
	"github.com/FMABr/ducks-demo/internal/report"
	"github.com/FMABr/ducks-demo/internal/repository"

	"golang.org/x/sync/errgroup"
)

type ReportService interface {
	DuckHierarchy(ctx context.Context) (*report.Hierarchy, error)
	DuckHierarchyXLSX(ctx context.Context) ([]byte, error)
}

type reportService struct {
	ducks repository.DuckRepository
	sales repository.SaleRepository
}

func NewReportService(ducks repository.DuckRepository, sales repository.SaleRepository) ReportService {
	return &reportService{ducks: ducks, sales: sales}
}

// DuckHierarchy loads the inventory and the sold ducks side by side and
// flattens them into the family report.
func (s *reportService) DuckHierarchy(ctx context.Context) (*report.Hierarchy, error) {
	var (
		ducks []model.DuckWithChildren
		sold  []model.SoldDuck
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ducks, err = s.ducks.ListWithChildCounts(gctx)
		if err != nil {
			return fmt.Errorf("load ducks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		sold, err = s.sales.AllSoldDucks(gctx)
		if err != nil {
			return fmt.Errorf("load sold ducks: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sales := make(map[int64]*report.SaleInfo, len(sold))
	for _, row := range sold {
		sales[row.DuckID] = &report.SaleInfo{CustomerName: row.CustomerName, PriceAtSale: row.PriceAtSale}
	}
	nodes := make([]report.Node, 0, len(ducks))
	for _, d := range ducks {
		nodes = append(nodes, report.Node{
			ID:           d.ID,
			Name:         d.Name,
			MotherID:     d.MotherID,
			CurrentPrice: pricing.Price(d.ChildCount),
			Sale:         sales[d.ID],
		})
	}
	return report.Build(nodes), nil
}

func (s *reportService) DuckHierarchyXLSX(ctx context.Context) ([]byte, error) {
	h, err := s.DuckHierarchy(ctx)
	if err != nil {
		return nil, err
	}
	return infra.RenderHierarchyXLSX(h)
}
