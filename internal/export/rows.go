package export

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"invoicex/internal/domain"
)

// columns defines the header row shared by the CSV and XLSX exports.
var columns = []string{
	"Customer Name",
	"Customer TIN",
	"Invoice Number",
	"Date",
	"Untaxed Amount",
	"Total Tax",
	"Total",
	"Company Name",
	"Company Address",
	"Company TIN",
	"Confidence",
	"Filename",
}

// Columns returns a copy of the export header row.
func Columns() []string {
	return append([]string(nil), columns...)
}

// invoiceToRow converts an invoice to one row. Fields that were not
// extracted are empty cells.
func invoiceToRow(inv *domain.Invoice) []string {
	row := make([]string, len(columns))
	row[10] = FormatConfidence(inv.Confidence)
	row[11] = inv.Filename

	d := inv.ExtractedData
	if d == nil {
		return row
	}
	row[0] = formatString(d.CustomerName)
	row[1] = formatString(d.CustomerTIN)
	row[2] = formatString(d.InvoiceNumber)
	row[3] = formatString(d.InvoiceDate)
	row[4] = formatMoney(d.UntaxedAmount)
	row[5] = formatMoney(d.TotalTax)
	row[6] = formatMoney(d.InvoiceTotal)
	row[7] = formatString(d.CompanyName)
	row[8] = formatString(d.CompanyAddress)
	row[9] = formatString(d.CompanyTIN)
	return row
}

// FormatConfidence renders a [0,1] confidence as a percentage with one decimal, e.g. "85.0%".
func FormatConfidence(c float64) string {
	return strconv.FormatFloat(c*100, 'f', 1, 64) + "%"
}

func formatString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatMoney(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized download filename.
// Format: {sanitized_name}_{YYYY-MM-DD}.{ext}
func BuildFilename(name, ext string, now time.Time) string {
	sanitized := SanitizeFilename(name)
	if sanitized == "" {
		sanitized = "invoices"
	}
	return fmt.Sprintf("%s_%s.%s", sanitized, now.Format("2006-01-02"), ext)
}
