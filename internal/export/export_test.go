package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"invoicex/internal/domain"
)

func strPtr(s string) *string { return &s }
func floatPtr(f float64) *float64 { return &f }

func completedInvoice() domain.Invoice {
	return domain.Invoice{
		ID:       1,
		Filename: "march.pdf",
		Status:   domain.InvoiceStatusCompleted,
		ExtractedData: &domain.ExtractedData{
			CustomerName:   strPtr("Jane Buyer"),
			CustomerTIN:    strPtr("TIN-C"),
			InvoiceNumber:  strPtr("INV-001"),
			InvoiceDate:    strPtr("2025-03-01"),
			UntaxedAmount:  floatPtr(100),
			TotalTax:       floatPtr(15.5),
			InvoiceTotal:   floatPtr(115.5),
			CompanyName:    strPtr("Seller Ltd"),
			CompanyAddress: strPtr("1 Main St, Springfield"),
			CompanyTIN:     strPtr("TIN-S"),
		},
		Confidence: 0.85,
	}
}

func TestCSVWriter_Header(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	require.NoError(t, w.WriteHeader())
	w.Flush()
	require.NoError(t, w.Error())

	row, err := csv.NewReader(&buf).Read()
	require.NoError(t, err)
	assert.Len(t, row, 12)
	assert.Equal(t, "Customer Name", row[0])
	assert.Equal(t, "Confidence", row[10])
	assert.Equal(t, "Filename", row[11])
}

func TestCSVWriter_CompletedInvoice(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	require.NoError(t, w.WriteInvoices([]domain.Invoice{completedInvoice()}))
	w.Flush()
	require.NoError(t, w.Error())

	row, err := csv.NewReader(&buf).Read()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Jane Buyer", "TIN-C", "INV-001", "2025-03-01",
		"100.00", "15.50", "115.50",
		"Seller Ltd", "1 Main St, Springfield", "TIN-S",
		"85.0%", "march.pdf",
	}, row)
}

func TestCSVWriter_MissingFieldsAreEmpty(t *testing.T) {
	inv := domain.Invoice{
		Filename:      "scan.png",
		ExtractedData: &domain.ExtractedData{InvoiceNumber: strPtr("A-1")},
		Confidence:    0.85,
	}
	noData := domain.Invoice{Filename: "empty.png"}

	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	require.NoError(t, w.WriteInvoices([]domain.Invoice{inv, noData}))
	w.Flush()

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "A-1", rows[0][2])
	for _, i := range []int{0, 1, 3, 4, 5, 6, 7, 8, 9} {
		assert.Empty(t, rows[0][i], "column %d", i)
	}
	assert.Equal(t, "0.0%", rows[1][10])
	assert.Equal(t, "empty.png", rows[1][11])
}

func TestFormatConfidence(t *testing.T) {
	assert.Equal(t, "85.0%", FormatConfidence(0.85))
	assert.Equal(t, "0.0%", FormatConfidence(0))
	assert.Equal(t, "100.0%", FormatConfidence(1))
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, []domain.Invoice{completedInvoice()}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, columns, rows[0])
	assert.Equal(t, "INV-001", rows[1][2])
	assert.Equal(t, "85.0%", rows[1][10])
	assert.Equal(t, "march.pdf", rows[1][11])
}

func TestWriteXLSX_HeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, columns, rows[0])
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "My Invoices", "My_Invoices"},
		{"special chars", "FY 2024-25 / Q3 (Oct–Dec)", "FY_2024-25_Q3_Oct_Dec"},
		{"hyphens and underscores preserved", "invoices-2025_q1", "invoices-2025_q1"},
		{"consecutive underscores collapsed", "a___b", "a_b"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFilename(tt.input))
		})
	}
}

func TestBuildFilename(t *testing.T) {
	now := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "invoices_2025-03-09.csv", BuildFilename("invoices", "csv", now))
	assert.Equal(t, "invoices_2025-03-09.xlsx", BuildFilename("  ", "xlsx", now))
}
