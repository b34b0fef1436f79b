package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/FMABr/ducks-demo/internal/service"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportsHandler struct{ svc service.ReportService }

func NewReportsHandler(svc service.ReportService) *ReportsHandler { return &ReportsHandler{svc: svc} }

// Ducks godoc
// @Summary      Duck family report
// @Description  Every duck depth-first by family, with sale status, buyer and discount label.
// @Tags         reports
// @Produce      json
// @Success      200 {object} report.Hierarchy
// @Router       /v1/reports/ducks [get]
func (h *ReportsHandler) Ducks(c *gin.Context) {
	hier, err := h.svc.DuckHierarchy(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, hier)
}

// DucksXLSX godoc
// @Summary      Duck family report as a spreadsheet
// @Tags         reports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200 {file} binary
// @Router       /v1/reports/ducks.xlsx [get]
func (h *ReportsHandler) DucksXLSX(c *gin.Context) {
	data, err := h.svc.DuckHierarchyXLSX(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	name := fmt.Sprintf("ducks-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, data)
}
