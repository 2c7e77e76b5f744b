package extractor

import "strings"

// SystemInstruction is sent as the system message on every completion request.
const SystemInstruction = "You are an expert at extracting data from invoices."

// FieldNames are the recognized keys of an extraction result, in prompt order.
var FieldNames = []string{
	"customer_name",
	"customer_tin",
	"invoice_number",
	"invoice_date",
	"untaxed_amount",
	"total_tax",
	"invoice_total",
	"company_name",
	"company_address",
	"company_tin",
}

var fieldDescriptions = map[string]string{
	"customer_name":   "The customer's name",
	"customer_tin":    "The customer's Tax Identification Number",
	"invoice_number":  "The invoice number",
	"invoice_date":    "The invoice date",
	"untaxed_amount":  "The subtotal/untaxed amount (just the number)",
	"total_tax":       "The total tax amount (just the number)",
	"invoice_total":   "The total amount including tax (just the number)",
	"company_name":    "The company/seller name from the header",
	"company_address": "The company address",
	"company_tin":     "The company's Tax Identification Number",
}

var extractionPrompt = buildPrompt()

func buildPrompt() string {
	var b strings.Builder
	b.WriteString("Extract the following fields from this invoice. Return ONLY a valid JSON object with these exact fields:\n")
	for _, name := range FieldNames {
		b.WriteString("- ")
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(fieldDescriptions[name])
		b.WriteString("\n")
	}
	b.WriteString("\nIf a field is not found, use null. Return ONLY valid JSON, no other text.")
	return b.String()
}

// BuildExtractionPrompt returns the fixed field-extraction instruction.
func BuildExtractionPrompt() string {
	return extractionPrompt
}
