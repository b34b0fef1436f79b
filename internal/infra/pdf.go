package infra

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/FMABr/ducks-demo/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateSaleReceiptPDF writes a receipt for a completed sale to
// storagePath/sale_{id}.pdf and returns the file path. The sale is expected to
// carry its items, with their ducks, plus customer and employee.
func GenerateSaleReceiptPDF(sale *model.Sale, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, fmt.Sprintf("sale_%d.pdf", sale.ID))

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 80, Ht: 140},
	})
	pdf.SetMargins(5, 5, 5)
	pdf.SetAutoPageBreak(true, 5)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 10

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, "Duck Shop", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Sale receipt", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Sale #%d", sale.ID), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, sale.SaleDate.UTC().Format("2006-01-02 15:04 UTC"), "", 1, "L", false, 0, "")
	if sale.Customer != nil {
		pdf.CellFormat(contentW, 4, "Customer: "+sale.Customer.Name, "", 1, "L", false, 0, "")
	}
	if sale.Employee != nil {
		pdf.CellFormat(contentW, 4, "Served by: "+sale.Employee.Name, "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)
	pdf.Line(5, pdf.GetY(), pageW-5, pdf.GetY())
	pdf.Ln(2)

	nameW := contentW * 0.68
	priceW := contentW - nameW

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(nameW, 5, "Duck", "B", 0, "L", false, 0, "")
	pdf.CellFormat(priceW, 5, "Price", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, item := range sale.Items {
		name := fmt.Sprintf("#%d", item.DuckID)
		if item.Duck != nil {
			name = fmt.Sprintf("%s (#%d)", item.Duck.Name, item.DuckID)
		}
		if len(name) > 34 {
			name = name[:33] + "."
		}
		pdf.CellFormat(nameW, 5, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(priceW, 5, "$"+item.PriceAtSale.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(5, pdf.GetY(), pageW-5, pdf.GetY())
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(nameW, 5, "Subtotal:", "", 0, "L", false, 0, "")
	pdf.CellFormat(priceW, 5, "$"+sale.TotalBeforeDiscount.StringFixed(2), "", 1, "R", false, 0, "")
	if discount := sale.TotalBeforeDiscount.Sub(sale.TotalAfterDiscount); discount.IsPositive() {
		pdf.CellFormat(nameW, 5, "Loyalty discount:", "", 0, "L", false, 0, "")
		pdf.CellFormat(priceW, 5, "-$"+discount.StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(nameW, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(priceW, 6, "$"+sale.TotalAfterDiscount.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, "Thank you for your purchase!", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
