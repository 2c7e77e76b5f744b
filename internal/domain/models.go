package domain

import "time"

// User represents a registered account. Every invoice belongs to exactly one user.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"hashed_password" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ExtractedData is the fixed-schema record produced by extraction.
// A nil field means the value was not found in the document.
type ExtractedData struct {
	CustomerName   *string  `json:"customer_name"`
	CustomerTIN    *string  `json:"customer_tin"`
	InvoiceNumber  *string  `json:"invoice_number"`
	InvoiceDate    *string  `json:"invoice_date"`
	UntaxedAmount  *float64 `json:"untaxed_amount"`
	TotalTax       *float64 `json:"total_tax"`
	InvoiceTotal   *float64 `json:"invoice_total"`
	CompanyName    *string  `json:"company_name"`
	CompanyAddress *string  `json:"company_address"`
	CompanyTIN     *string  `json:"company_tin"`
}

// IsEmpty reports whether no field was extracted.
func (d *ExtractedData) IsEmpty() bool {
	return d == nil || *d == ExtractedData{}
}

// Invoice is an uploaded document together with its extraction state.
type Invoice struct {
	ID            int64          `json:"id"`
	OwnerID       int64          `json:"owner_id"`
	Filename      string         `json:"filename"`
	Filepath      string         `json:"-"`
	Status        InvoiceStatus  `json:"status"`
	ExtractedData *ExtractedData `json:"extracted_data"`
	Confidence    float64        `json:"confidence"`
	ErrorMessage  *string        `json:"error_message"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// InvoiceSummary is the list view of an invoice.
type InvoiceSummary struct {
	ID            int64         `json:"id"`
	Filename      string        `json:"filename"`
	Status        InvoiceStatus `json:"status"`
	Confidence    float64       `json:"confidence"`
	InvoiceNumber *string       `json:"invoice_number"`
	CustomerName  *string       `json:"customer_name"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Summary builds the list view of the invoice.
func (inv *Invoice) Summary() InvoiceSummary {
	s := InvoiceSummary{
		ID:         inv.ID,
		Filename:   inv.Filename,
		Status:     inv.Status,
		Confidence: inv.Confidence,
		CreatedAt:  inv.CreatedAt,
	}
	if inv.ExtractedData != nil {
		s.InvoiceNumber = inv.ExtractedData.InvoiceNumber
		s.CustomerName = inv.ExtractedData.CustomerName
	}
	return s
}

// InvoiceCounts holds the raw aggregate counts for a user's invoices.
type InvoiceCounts struct {
	Total             int     `db:"total" json:"total"`
	Completed         int     `db:"completed" json:"completed"`
	Failed            int     `db:"failed" json:"failed"`
	AverageConfidence float64 `db:"average_confidence" json:"average_confidence"`
}

// MonthlyCount is the number of invoices uploaded in a calendar month.
type MonthlyCount struct {
	Month string `db:"month" json:"month"`
	Count int    `db:"count" json:"count"`
}

// InvoiceStats is the usage summary shown on the dashboard.
type InvoiceStats struct {
	Total             int            `json:"total_invoices"`
	Completed         int            `json:"completed_invoices"`
	Failed            int            `json:"failed_invoices"`
	AverageConfidence float64        `json:"average_confidence"`
	SuccessRate       float64        `json:"success_rate"`
	MonthlyData       []MonthlyCount `json:"monthly_data"`
}

// ExtractorSettings describes the active extraction provider. Credentials are never exposed.
type ExtractorSettings struct {
	Provider string `json:"ai_provider"`
	Model    string `json:"default_model"`
}
