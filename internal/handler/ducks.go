package handler

import (
	"net/http"

	"github.com/FMABr/ducks-demo/internal/dto"
	"github.com/FMABr/ducks-demo/internal/service"

	"github.com/gin-gonic/gin"
)

type DucksHandler struct{ svc service.DuckService }

func NewDucksHandler(svc service.DuckService) *DucksHandler { return &DucksHandler{svc: svc} }

// Create godoc
// @Summary      Register a duck
// @Description  Creates a duck, optionally as the duckling of an existing mother. The price is derived from the number of direct ducklings.
// @Tags         ducks
// @Accept       json
// @Produce      json
// @Param        body body     dto.DuckUpsertRequest true "Duck"
// @Success      201  {object} dto.DuckResponse
// @Failure      400  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/ducks [post]
func (h *DucksHandler) Create(c *gin.Context) {
	var req dto.DuckUpsertRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      List ducks
// @Tags         ducks
// @Produce      json
// @Param        name      query string false "Name contains (case-insensitive)"
// @Param        mother_id query int    false "Only ducklings of this mother"
// @Param        page      query int    false "Page (default 1)"
// @Param        limit     query int    false "Page size (default 20, max 200)"
// @Success      200 {object} dto.DuckListResponse
// @Router       /v1/ducks [get]
func (h *DucksHandler) List(c *gin.Context) {
	var filter dto.DuckFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListSold godoc
// @Summary      List sold ducks
// @Description  Sold ducks with buyer, sale date and price at sale, newest first.
// @Tags         ducks
// @Produce      json
// @Param        from  query string false "First day, YYYY-MM-DD"
// @Param        to    query string false "Last day (inclusive), YYYY-MM-DD"
// @Param        page  query int    false "Page (default 1)"
// @Param        limit query int    false "Page size (default 20, max 200)"
// @Success      200 {object} dto.SoldDuckListResponse
// @Failure      400 {object} apierror.APIError
// @Router       /v1/ducks/sold [get]
func (h *DucksHandler) ListSold(c *gin.Context) {
	var filter dto.SoldDuckFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListSold(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Get a duck
// @Tags         ducks
// @Produce      json
// @Param        id  path     int true "Duck id"
// @Success      200 {object} dto.DuckResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/ducks/{id} [get]
func (h *DucksHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Price godoc
// @Summary      Current price of a duck
// @Tags         ducks
// @Produce      json
// @Param        id  path     int true "Duck id"
// @Success      200 {object} dto.DuckPriceResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/ducks/{id}/price [get]
func (h *DucksHandler) Price(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	n, err := h.svc.ChildCountOf(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	price, err := h.svc.PriceOf(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DuckPriceResponse{ID: id, Price: price, ChildCount: n})
}

// Replace godoc
// @Summary      Replace a duck
// @Description  Sets name and mother. A missing mother_id makes the duck a root. Cycles are rejected.
// @Tags         ducks
// @Accept       json
// @Produce      json
// @Param        id   path     int                   true "Duck id"
// @Param        body body     dto.DuckUpsertRequest true "Duck"
// @Success      200  {object} dto.DuckResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Router       /v1/ducks/{id} [put]
func (h *DucksHandler) Replace(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.DuckUpsertRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Replace(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Patch godoc
// @Summary      Update a duck partially
// @Description  Only present fields change; a null mother_id keeps the current mother.
// @Tags         ducks
// @Accept       json
// @Produce      json
// @Param        id   path     int                  true "Duck id"
// @Param        body body     dto.DuckPatchRequest true "Fields to change"
// @Success      200  {object} dto.DuckResponse
// @Failure      400  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Router       /v1/ducks/{id} [patch]
func (h *DucksHandler) Patch(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.DuckPatchRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Patch(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete godoc
// @Summary      Delete a duck
// @Description  Sold ducks and ducks with ducklings cannot be deleted.
// @Tags         ducks
// @Param        id  path int true "Duck id"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /v1/ducks/{id} [delete]
func (h *DucksHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
