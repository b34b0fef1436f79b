package handler

import (
	"context"
	"net/http"

	"github.com/FMABr/ducks-demo/internal/dto"
	"github.com/FMABr/ducks-demo/internal/service"

	"github.com/gin-gonic/gin"
)

type RankingsHandler struct{ svc service.RankingService }

func NewRankingsHandler(svc service.RankingService) *RankingsHandler {
	return &RankingsHandler{svc: svc}
}

// ByCount godoc
// @Summary      Employees ranked by number of sales
// @Description  Ties break on revenue, then on employee id. Employees without sales in the window are omitted.
// @Tags         rankings
// @Produce      json
// @Param        from  query string false "First day, YYYY-MM-DD"
// @Param        to    query string false "Last day (inclusive), YYYY-MM-DD"
// @Param        limit query int    false "Maximum rows, positive (10 when absent)"
// @Success      200 {array}  dto.EmployeeRankingItem
// @Failure      400 {object} apierror.APIError
// @Router       /v1/employees/rankings/count [get]
func (h *RankingsHandler) ByCount(c *gin.Context) {
	h.serve(c, h.svc.RankByCount)
}

// ByRevenue godoc
// @Summary      Employees ranked by revenue
// @Description  Revenue is the sum of discounted sale totals. Ties break on sale count, then on employee id.
// @Tags         rankings
// @Produce      json
// @Param        from  query string false "First day, YYYY-MM-DD"
// @Param        to    query string false "Last day (inclusive), YYYY-MM-DD"
// @Param        limit query int    false "Maximum rows, positive (10 when absent)"
// @Success      200 {array}  dto.EmployeeRankingItem
// @Failure      400 {object} apierror.APIError
// @Router       /v1/employees/rankings/revenue [get]
func (h *RankingsHandler) ByRevenue(c *gin.Context) {
	h.serve(c, h.svc.RankByRevenue)
}

func (h *RankingsHandler) serve(c *gin.Context, rank func(context.Context, dto.RankingQuery) ([]dto.EmployeeRankingItem, error)) {
	var q dto.RankingQuery
	if !bindQuery(c, &q) {
		return
	}
	items, err := rank(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}
