package handler

import (
	"net/http"

	"github.com/FMABr/ducks-demo/internal/dto"
	"github.com/FMABr/ducks-demo/internal/service"

	"github.com/gin-gonic/gin"
)

type EmployeesHandler struct{ svc service.EmployeeService }

func NewEmployeesHandler(svc service.EmployeeService) *EmployeesHandler {
	return &EmployeesHandler{svc: svc}
}

// Create godoc
// @Summary      Register an employee
// @Tags         employees
// @Accept       json
// @Produce      json
// @Param        body body     dto.EmployeeUpsertRequest true "Employee"
// @Success      201  {object} dto.EmployeeResponse
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/employees [post]
func (h *EmployeesHandler) Create(c *gin.Context) {
	var req dto.EmployeeUpsertRequest
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
// @Summary      List employees
// @Tags         employees
// @Produce      json
// @Param        name           query string false "Name contains (case-insensitive)"
// @Param        fiscal_code    query string false "Exact fiscal code"
// @Param        employee_code  query string false "Exact employee code"
// @Param        page           query int    false "Page (default 1)"
// @Param        limit          query int    false "Page size (default 20, max 200)"
// @Success      200 {object} dto.EmployeeListResponse
// @Router       /v1/employees [get]
func (h *EmployeesHandler) List(c *gin.Context) {
	var filter dto.EmployeeFilter
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

// Get godoc
// @Summary      Get an employee
// @Tags         employees
// @Produce      json
// @Param        id  path     int true "Employee id"
// @Success      200 {object} dto.EmployeeResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/employees/{id} [get]
func (h *EmployeesHandler) Get(c *gin.Context) {
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

// Replace godoc
// @Summary      Replace an employee
// @Tags         employees
// @Accept       json
// @Produce      json
// @Param        id   path     int                       true "Employee id"
// @Param        body body     dto.EmployeeUpsertRequest true "Employee"
// @Success      200  {object} dto.EmployeeResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/employees/{id} [put]
func (h *EmployeesHandler) Replace(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.EmployeeUpsertRequest
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
// @Summary      Update an employee partially
// @Tags         employees
// @Accept       json
// @Produce      json
// @Param        id   path     int                      true "Employee id"
// @Param        body body     dto.EmployeePatchRequest true "Fields to change"
// @Success      200  {object} dto.EmployeeResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/employees/{id} [patch]
func (h *EmployeesHandler) Patch(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.EmployeePatchRequest
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
// @Summary      Delete an employee
// @Description  Employees with recorded sales cannot be deleted.
// @Tags         employees
// @Param        id  path int true "Employee id"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /v1/employees/{id} [delete]
func (h *EmployeesHandler) Delete(c *gin.Context) {
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
