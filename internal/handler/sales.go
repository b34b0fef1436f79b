package handler

import (
	"net/http"

	"github.com/FMABr/ducks-demo/internal/dto"
	"github.com/FMABr/ducks-demo/internal/service"

	"github.com/gin-gonic/gin"
)

type SalesHandler struct{ svc service.SaleService }

func NewSalesHandler(svc service.SaleService) *SalesHandler { return &SalesHandler{svc: svc} }

// Create godoc
// @Summary      Record a sale
// @Description  Sells one or more ducks in a single transaction. Each line is priced from the duck's current family size and the customer's loyalty discount. A duck can be sold only once.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        body body     dto.CreateSaleRequest true "Sale"
// @Success      201  {object} dto.SaleResponse
// @Failure      400  {object} apierror.APIError "Unknown ducks (ids listed)"
// @Failure      404  {object} apierror.APIError "Unknown customer or employee"
// @Failure      409  {object} apierror.APIError "Ducks already sold (ids listed)"
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/sales [post]
func (h *SalesHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateSale(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      List sales
// @Description  Newest first.
// @Tags         sales
// @Produce      json
// @Param        from        query string false "First day, YYYY-MM-DD"
// @Param        to          query string false "Last day (inclusive), YYYY-MM-DD"
// @Param        customer_id query int    false "Customer id"
// @Param        employee_id query int    false "Employee id"
// @Param        page        query int    false "Page (default 1)"
// @Param        limit       query int    false "Page size (default 20, max 200)"
// @Success      200 {object} dto.SaleListResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/sales [get]
func (h *SalesHandler) List(c *gin.Context) {
	var filter dto.SaleFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListSales(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Get a sale with its items
// @Tags         sales
// @Produce      json
// @Param        id  path     int true "Sale id"
// @Success      200 {object} dto.SaleResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/sales/{id} [get]
func (h *SalesHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetSale(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
