package extractor

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"invoicex/internal/domain"
)

// ConfidenceExtracted is assigned to every response that decodes into a JSON
// object. Providers expose no per-field signal, so this is a fixed value.
const ConfidenceExtracted = 0.85

// ConfidenceUnparsed is assigned when the response is not a JSON object.
const ConfidenceUnparsed = 0.0

// StripCodeFence removes a Markdown code fence wrapped around a completion.
func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	// Only one opening fence is removed.
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseResponse decodes a completion into the fixed extraction schema.
// It never fails: anything that is not a JSON object yields an empty record
// and ConfidenceUnparsed. Unknown keys are ignored; null, blank or
// mistyped values are treated as not found.
func ParseResponse(raw string) (*domain.ExtractedData, float64) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &fields); err != nil || fields == nil {
		return &domain.ExtractedData{}, ConfidenceUnparsed
	}

	return &domain.ExtractedData{
		CustomerName:   stringField(fields["customer_name"]),
		CustomerTIN:    stringField(fields["customer_tin"]),
		InvoiceNumber:  stringField(fields["invoice_number"]),
		InvoiceDate:    stringField(fields["invoice_date"]),
		UntaxedAmount:  numberField(fields["untaxed_amount"]),
		TotalTax:       numberField(fields["total_tax"]),
		InvoiceTotal:   numberField(fields["invoice_total"]),
		CompanyName:    stringField(fields["company_name"]),
		CompanyAddress: stringField(fields["company_address"]),
		CompanyTIN:     stringField(fields["company_tin"]),
	}, ConfidenceExtracted
}

func decodeValue(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return v
}

func stringField(raw json.RawMessage) *string {
	var s string
	switch v := decodeValue(raw).(type) {
	case string:
		s = strings.TrimSpace(v)
	case json.Number:
		s = v.String()
	default:
		return nil
	}
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	return &s
}

// moneyReplacer drops grouping separators and common currency marks.
var moneyReplacer = strings.NewReplacer(",", "", " ", "", "$", "", "€", "", "£", "", "₹", "")

func numberField(raw json.RawMessage) *float64 {
	var text string
	switch v := decodeValue(raw).(type) {
	case json.Number:
		text = v.String()
	case string:
		text = moneyReplacer.Replace(strings.TrimSpace(v))
	default:
		return nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
