package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"invoicex/internal/domain"
)

// SheetName is the worksheet holding exported invoices.
const SheetName = "Invoices"

var columnWidths = []float64{24, 18, 18, 12, 16, 12, 14, 24, 36, 18, 12, 32}

// WriteXLSX writes a workbook with a header row and one row per invoice.
func WriteXLSX(w io.Writer, invoices []domain.Invoice) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	if err := writeXLSXRow(f, 1, columns); err != nil {
		return err
	}
	for i := range invoices {
		if err := writeXLSXRow(f, i+2, invoiceToRow(&invoices[i])); err != nil {
			return err
		}
	}

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(columns), 1)
		_ = f.SetCellStyle(SheetName, "A1", last, style)
	}
	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(SheetName, col, col, width)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func writeXLSXRow(f *excelize.File, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
		return fmt.Errorf("xlsx row %d: %w", rowNum, err)
	}
	return nil
}
