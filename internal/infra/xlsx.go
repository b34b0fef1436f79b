package infra

import (
	"fmt"

	"github.com/FMABr/ducks-demo/internal/report"

	"github.com/xuri/excelize/v2"
)

const (
	hierarchySheet   = "Ducks"
	hierarchyTitle   = "Duck family report"
	hierarchyDataRow = 4
)

// RenderHierarchyXLSX lays a hierarchy report out as a workbook. Row 1 holds the
// title, row 3 the headers, data starts at row 4. Each duck name is written in
// the column of its depth and merged across the remaining name columns.
func RenderHierarchyXLSX(h *report.Hierarchy) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", hierarchySheet); err != nil {
		return nil, fmt.Errorf("xlsx: rename sheet: %w", err)
	}

	nameCols := h.NameColumns
	if nameCols < 1 {
		nameCols = 1
	}
	statusCol := nameCols + 1
	customerCol := nameCols + 2
	discountCol := nameCols + 3
	priceCol := nameCols + 4

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx: style: %w", err)
	}
	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("xlsx: style: %w", err)
	}
	currencyFmt := "$#,##0.00"
	currencyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &currencyFmt})
	if err != nil {
		return nil, fmt.Errorf("xlsx: style: %w", err)
	}

	w := &sheetWriter{f: f}

	w.set(1, 1, hierarchyTitle)
	w.merge(1, 1, priceCol, 1)
	w.style(1, 1, priceCol, 1, titleStyle)

	w.set(1, 3, "Duck")
	if nameCols > 1 {
		w.merge(1, 3, nameCols, 3)
	}
	w.set(statusCol, 3, "Status")
	w.set(customerCol, 3, "Customer")
	w.set(discountCol, 3, "Discount")
	w.set(priceCol, 3, "Sale price")
	w.style(1, 3, priceCol, 3, boldStyle)

	for i, row := range h.Rows {
		r := hierarchyDataRow + i
		first := row.Column + 1
		w.set(first, r, row.Name)
		if row.Span > 1 {
			w.merge(first, r, first+row.Span-1, r)
		}
		w.set(statusCol, r, string(row.Status))
		w.set(customerCol, r, row.CustomerName)
		w.set(discountCol, r, row.Discount)
		if row.SalePrice != nil {
			w.set(priceCol, r, row.SalePrice.InexactFloat64())
			w.style(priceCol, r, priceCol, r, currencyStyle)
		} else {
			w.set(priceCol, r, report.Placeholder)
		}
	}
	if w.err != nil {
		return nil, fmt.Errorf("xlsx: %w", w.err)
	}

	if err := f.SetColWidth(hierarchySheet, "A", colName(nameCols), 14); err != nil {
		return nil, fmt.Errorf("xlsx: col width: %w", err)
	}
	if err := f.SetColWidth(hierarchySheet, colName(statusCol), colName(priceCol), 18); err != nil {
		return nil, fmt.Errorf("xlsx: col width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx: write: %w", err)
	}
	return buf.Bytes(), nil
}

// sheetWriter keeps the first error so the layout code reads top to bottom.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) set(col, row int, v any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellValue(hierarchySheet, cell, v)
}

func (w *sheetWriter) merge(c1, r1, c2, r2 int) {
	if w.err != nil {
		return
	}
	tl, err := excelize.CoordinatesToCellName(c1, r1)
	if err != nil {
		w.err = err
		return
	}
	br, err := excelize.CoordinatesToCellName(c2, r2)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.MergeCell(hierarchySheet, tl, br)
}

func (w *sheetWriter) style(c1, r1, c2, r2, styleID int) {
	if w.err != nil {
		return
	}
	tl, err := excelize.CoordinatesToCellName(c1, r1)
	if err != nil {
		w.err = err
		return
	}
	br, err := excelize.CoordinatesToCellName(c2, r2)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellStyle(hierarchySheet, tl, br, styleID)
}

func colName(col int) string {
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		return "A"
	}
	return name
}
