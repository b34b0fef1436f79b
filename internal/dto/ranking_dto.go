package dto

import "github.com/shopspring/decimal"

// RankingQuery is bound from query string of GET /v1/employees/rankings/*.
type RankingQuery struct {
	From  string `form:"from"` // YYYY-MM-DD, inclusive; empty = since forever
	To    string `form:"to"`   // YYYY-MM-DD, inclusive; empty = open ended
	// Limit is nil when the parameter is absent; an empty value binds to 0.
	Limit *int `form:"limit"`
}

// DefaultRankingLimit applies when the query carries no limit.
const DefaultRankingLimit = 10

// EffectiveLimit returns the requested limit or DefaultRankingLimit.
func (q RankingQuery) EffectiveLimit() int {
	if q.Limit == nil {
		return DefaultRankingLimit
	}
	return *q.Limit
}

// EmployeeRankingItem carries a dense 1-based rank assigned by output position.
type EmployeeRankingItem struct {
	Rank         int             `json:"rank"`
	EmployeeID   int64           `json:"employee_id"`
	EmployeeName string          `json:"employee_name"`
	SaleCount    int64           `json:"sale_count"`
	Revenue      decimal.Decimal `json:"revenue"`
}
