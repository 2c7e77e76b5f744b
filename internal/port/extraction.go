package port

import (
	"context"

	"invoicex/internal/domain"
)

// PayloadKind distinguishes text-bearing from image-bearing documents.
type PayloadKind string

const (
	PayloadText  PayloadKind = "text"
	PayloadImage PayloadKind = "image"
)

// DocumentPayload is the loaded content of a stored document.
// Text is set for PayloadText; Image and MIMEType for PayloadImage.
type DocumentPayload struct {
	Kind     PayloadKind
	Text     string
	Image    []byte
	MIMEType string
}

// CompletionClient sends a document and an instruction to an AI provider
// and returns the raw completion text.
type CompletionClient interface {
	Complete(ctx context.Context, payload DocumentPayload, prompt string) (string, error)
}

// DocumentLoader reads a stored document and classifies it.
type DocumentLoader interface {
	Load(ctx context.Context, location string) (DocumentPayload, error)
}

// InvoiceExtractor runs the full extraction pipeline for one stored document.
type InvoiceExtractor interface {
	Extract(ctx context.Context, location string) (*domain.ExtractedData, float64, error)
}
