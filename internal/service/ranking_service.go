package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/FMABr/ducks-demo/internal/apierror"
	"github.com/FMABr/ducks-demo/internal/dates"
	"github.com/FMABr/ducks-demo/internal/dto"
	"github.com/FMABr/ducks-demo/internal/model"
	"github.com/FMABr/ducks-demo/internal/repository"

	"github.com/rs/zerolog/log"
)

// RankingMode selects the primary ordering key.
type RankingMode string

const (
	RankByCount   RankingMode = "count"
	RankByRevenue RankingMode = "revenue"
)

type RankingService interface {
	RankByCount(ctx context.Context, q dto.RankingQuery) ([]dto.EmployeeRankingItem, error)
	RankByRevenue(ctx context.Context, q dto.RankingQuery) ([]dto.EmployeeRankingItem, error)
}

// RankingCache stores computed rankings. Key must be resolved before the
// aggregate is read.
type RankingCache interface {
	Key(ctx context.Context, mode string, from, toExclusive time.Time, limit int) (string, error)
	Get(ctx context.Context, key string) ([]dto.EmployeeRankingItem, bool, error)
	Set(ctx context.Context, key string, items []dto.EmployeeRankingItem) error
}

type rankingService struct {
	repo  repository.RankingRepository
	cache RankingCache // nil disables caching
}

func NewRankingService(repo repository.RankingRepository, cache RankingCache) RankingService {
	return &rankingService{repo: repo, cache: cache}
}

func (s *rankingService) RankByCount(ctx context.Context, q dto.RankingQuery) ([]dto.EmployeeRankingItem, error) {
	return s.rank(ctx, RankByCount, q)
}

func (s *rankingService) RankByRevenue(ctx context.Context, q dto.RankingQuery) ([]dto.EmployeeRankingItem, error) {
	return s.rank(ctx, RankByRevenue, q)
}

func (s *rankingService) rank(ctx context.Context, mode RankingMode, q dto.RankingQuery) ([]dto.EmployeeRankingItem, error) {
	limit := q.EffectiveLimit()
	if limit <= 0 {
		return nil, apierror.Validation("limit must be greater than zero")
	}
	from, to, err := dates.Bounds(q.From, q.To)
	if err != nil {
		return nil, err
	}

	var key string
	if s.cache != nil {
		key, err = s.cache.Key(ctx, string(mode), from, to, limit)
		if err != nil {
			log.Warn().Err(err).Msg("ranking cache unavailable")
			key = ""
		} else if items, ok, err := s.cache.Get(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("ranking cache read failed")
		} else if ok {
			return items, nil
		}
	}

	rows, err := s.repo.AggregateByEmployee(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("aggregate sales by employee: %w", err)
	}
	items := Rank(rows, mode, limit)

	if key != "" {
		if err := s.cache.Set(ctx, key, items); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("ranking cache write failed")
		}
	}
	return items, nil
}

// Rank orders the aggregates, drops employees without sales, keeps the first
// limit rows and numbers them 1..n by position.
//
//	count:   sale count desc, revenue desc, employee id asc
//	revenue: revenue desc, sale count desc, employee id asc
func Rank(rows []model.EmployeeSales, mode RankingMode, limit int) []dto.EmployeeRankingItem {
	kept := make([]model.EmployeeSales, 0, len(rows))
	for _, r := range rows {
		if r.SaleCount > 0 {
			kept = append(kept, r)
		}
	}

	sort.Slice(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		byCount := compareInt(a.SaleCount, b.SaleCount)
		byRevenue := a.Revenue.Cmp(b.Revenue)
		first, second := byCount, byRevenue
		if mode == RankByRevenue {
			first, second = byRevenue, byCount
		}
		if first != 0 {
			return first > 0
		}
		if second != 0 {
			return second > 0
		}
		return a.EmployeeID < b.EmployeeID
	})

	if limit < len(kept) {
		kept = kept[:limit]
	}
	items := make([]dto.EmployeeRankingItem, 0, len(kept))
	for i, r := range kept {
		items = append(items, dto.EmployeeRankingItem{
			Rank:         i + 1,
			EmployeeID:   r.EmployeeID,
			EmployeeName: r.EmployeeName,
			SaleCount:    r.SaleCount,
			Revenue:      r.Revenue,
		})
	}
	return items
}

func compareInt(a, b int64) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	}
	return 0
}
